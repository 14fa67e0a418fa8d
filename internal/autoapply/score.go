package autoapply

import (
	"strings"
	"time"

	"github.com/wantokjobs/jean/internal/models"
)

// Score rates a candidate posting against a rule on a 0-100 scale. Every
// candidate starts at 50 for passing the rule's filters; bonuses reward
// keyword hits in the title, skill overlap with the jobseeker's profile,
// category and location matches, and fresh postings.
func Score(job *models.Job, rule *models.AutoApplyRule, profileSkills []string, now time.Time) int {
	score := 50

	title := strings.ToLower(job.Title)
	for _, kw := range rule.Keywords {
		if kw != "" && strings.Contains(title, strings.ToLower(kw)) {
			score += 15
		}
	}

	overlap := 0
	for _, ps := range profileSkills {
		p := strings.ToLower(strings.TrimSpace(ps))
		if p == "" {
			continue
		}
		for _, js := range job.Skills {
			j := strings.ToLower(strings.TrimSpace(js))
			if j == "" {
				continue
			}
			if strings.Contains(j, p) || strings.Contains(p, j) {
				overlap++
				break
			}
		}
	}
	if bonus := overlap * 5; bonus > 20 {
		score += 20
	} else {
		score += bonus
	}

	for _, c := range rule.Categories {
		if c != "" && strings.EqualFold(c, job.CategorySlug) {
			score += 10
			break
		}
	}

	loc := strings.ToLower(job.Location)
	for _, l := range rule.Locations {
		if l != "" && strings.Contains(loc, strings.ToLower(l)) {
			score += 5
			break
		}
	}

	if !job.CreatedAt.IsZero() && now.Sub(job.CreatedAt) < 7*24*time.Hour {
		score += 5
	}

	if score > 100 {
		score = 100
	}
	return score
}
