package flow

import (
	"fmt"
	"strings"

	"github.com/wantokjobs/jean/internal/models"
)

func formatJobseekerSummary(p *models.JobseekerProfile, u *models.User) string {
	if p == nil {
		return "No profile data"
	}
	var parts []string
	if p.Headline != "" {
		parts = append(parts, "👤 **"+p.Headline+"**")
	}
	if u != nil && u.Name != "" {
		parts = append(parts, "Name: "+u.Name)
	}
	if p.Location != "" {
		parts = append(parts, "📍 "+p.Location)
	}
	if p.Phone != "" {
		parts = append(parts, "📱 "+p.Phone)
	}
	if len(p.Skills) > 0 {
		parts = append(parts, "🛠️ Skills: "+strings.Join(p.Skills, ", "))
	}
	if p.Bio != "" {
		parts = append(parts, "📝 Bio: "+truncate(p.Bio, 100))
	}
	if p.DesiredJobType != "" {
		parts = append(parts, "💼 Looking for: "+p.DesiredJobType)
	}
	if p.DesiredSalaryMin != nil {
		s := fmt.Sprintf("💰 Salary: K%d", *p.DesiredSalaryMin)
		if p.DesiredSalaryMax != nil {
			s += fmt.Sprintf("-%d", *p.DesiredSalaryMax)
		} else {
			s += "+"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "\n")
}

func formatEmployerSummary(p *models.EmployerProfile) string {
	if p == nil {
		return "No profile data"
	}
	var parts []string
	if p.CompanyName != "" {
		parts = append(parts, "🏢 **"+p.CompanyName+"**")
	}
	if p.Industry != "" {
		parts = append(parts, "Industry: "+p.Industry)
	}
	if p.CompanySize != "" {
		parts = append(parts, "Size: "+p.CompanySize+" employees")
	}
	if p.Location != "" {
		parts = append(parts, "📍 "+p.Location)
	}
	if p.Website != "" {
		parts = append(parts, "🌐 "+p.Website)
	}
	if p.Description != "" {
		parts = append(parts, "📝 "+truncate(p.Description, 100))
	}
	return strings.Join(parts, "\n")
}

func formatResumeSummary(u *models.User, p *models.JobseekerProfile) string {
	var parts []string
	if u != nil && u.Name != "" {
		parts = append(parts, "**"+u.Name+"**")
	}
	if p == nil {
		return strings.Join(parts, "\n")
	}
	if p.Headline != "" {
		parts = append(parts, p.Headline)
	}
	if p.Location != "" {
		parts = append(parts, "📍 "+p.Location)
	}
	if len(p.WorkHistory) > 0 {
		parts = append(parts, "\n**Work Experience:**")
		for _, w := range p.WorkHistory {
			title := w.Title
			if title == "" {
				title = "Role"
			}
			company := w.Company
			if company == "" {
				company = "Company"
			}
			start := w.StartDate
			if start == "" {
				start = "?"
			}
			end := w.EndDate
			if end == "" {
				end = "Present"
			}
			parts = append(parts, fmt.Sprintf("• %s at %s (%s–%s)", title, company, start, end))
		}
	}
	if len(p.Education) > 0 {
		parts = append(parts, "\n**Education:**")
		for _, e := range p.Education {
			degree := e.Degree
			if degree == "" {
				degree = "Qualification"
			}
			inst := e.Institution
			if inst == "" {
				inst = "Institution"
			}
			parts = append(parts, strings.TrimSpace(fmt.Sprintf("• %s — %s %s", degree, inst, e.Year)))
		}
	}
	if len(p.Skills) > 0 {
		parts = append(parts, "\n**Skills:** "+strings.Join(p.Skills, ", "))
	}
	if p.Certifications != "" {
		parts = append(parts, "\n**Certifications:** "+p.Certifications)
	}
	return strings.Join(parts, "\n")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
