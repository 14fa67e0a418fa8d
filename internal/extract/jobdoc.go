package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/wantokjobs/jean/internal/models"
)

var (
	labelRe  = regexp.MustCompile(`(?i)^(title|position|role|location|salary|pay|type|job\s*type|category|requirements?)\s*[:\-]\s*(.+)$`)
	sepRe    = regexp.MustCompile(`^[-=_*]{3,}\s*$`)
	amountRe = regexp.MustCompile(`(?i)k?\s*(\d[\d,]*)`)
)

// ParseJobs splits extracted document text into job postings. Documents
// use "Title:" style labels, with "---" lines separating multiple
// postings; a document with no labels at all becomes a single posting
// whose first line is the title.
func ParseJobs(text string) []*models.Job {
	var (
		jobs    []*models.Job
		current *models.Job
		desc    []string
	)

	flush := func() {
		if current == nil {
			return
		}
		current.Description = strings.TrimSpace(strings.Join(desc, "\n"))
		if current.Title != "" {
			jobs = append(jobs, current)
		}
		current = nil
		desc = nil
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if sepRe.MatchString(line) {
			flush()
			continue
		}
		if m := labelRe.FindStringSubmatch(line); m != nil {
			label := strings.ToLower(strings.Join(strings.Fields(m[1]), " "))
			value := strings.TrimSpace(m[2])
			switch label {
			case "title", "position", "role":
				// A second title label starts the next posting.
				if current != nil && current.Title != "" {
					flush()
				}
				if current == nil {
					current = &models.Job{}
				}
				current.Title = value
			default:
				if current == nil {
					current = &models.Job{}
				}
				switch label {
				case "location":
					current.Location = value
				case "salary", "pay":
					min, max := parseSalary(value)
					current.SalaryMin = min
					current.SalaryMax = max
				case "type", "job type":
					current.JobType = strings.ToLower(value)
				case "category":
					current.CategorySlug = slugify(value)
				case "requirement", "requirements":
					current.Requirements = value
				}
			}
			continue
		}
		if line == "" {
			if len(desc) > 0 {
				desc = append(desc, "")
			}
			continue
		}
		if current == nil {
			current = &models.Job{Title: line}
			continue
		}
		if current.Title == "" {
			current.Title = line
			continue
		}
		desc = append(desc, line)
	}
	flush()
	return jobs
}

func parseSalary(s string) (min, max *int) {
	matches := amountRe.FindAllStringSubmatch(s, 2)
	vals := make([]int, 0, 2)
	for _, m := range matches {
		n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
		if err == nil && n > 0 {
			vals = append(vals, n)
		}
	}
	if len(vals) > 0 {
		min = &vals[0]
	}
	if len(vals) > 1 {
		max = &vals[1]
	}
	return min, max
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	}), "-")
	return s
}
