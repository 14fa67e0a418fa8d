package intent

import (
	"regexp"
	"strconv"
	"strings"
)

// Params holds values pulled out of the message text. Zero values mean
// the message did not mention them.
type Params struct {
	Text      string
	URL       string
	Location  string
	SalaryMin int
	SalaryMax int
	JobType   string
	JobID     int64
}

// Towns, cities and province abbreviations users mention when searching.
var locations = []string{
	"port moresby", "lae", "mt hagen", "mount hagen", "kokopo", "madang",
	"goroka", "kimbe", "wewak", "alotau", "rabaul", "kavieng", "mendi",
	"kundiawa", "popondetta", "daru", "vanimo", "lorengau", "ncd",
	"morobe", "wnb", "enbp", "esp", "whp", "ehp", "milne bay",
}

var (
	salaryRe   = regexp.MustCompile(`(?i)k?\s*(\d[\d,]*)\s*(?:[-–to]+\s*k?\s*(\d[\d,]*))?`)
	jobIDRe    = regexp.MustCompile(`(?i)job\s*#?\s*(\d+)`)
	fullTimeRe = regexp.MustCompile(`(?i)full[\s-]?time`)
	partTimeRe = regexp.MustCompile(`(?i)part[\s-]?time`)
	contractRe = regexp.MustCompile(`(?i)contract`)
	casualRe   = regexp.MustCompile(`(?i)casual`)
)

// ExtractParams pulls typed values from the text for the given intent.
func ExtractParams(text, intentName string) Params {
	p := Params{Text: text}
	lower := strings.ToLower(text)

	for _, loc := range locations {
		if strings.Contains(lower, loc) {
			p.Location = loc
			break
		}
	}

	// Salary mentions only matter for job-related intents; otherwise a
	// bare number ("job #3") would be read as pay.
	if strings.Contains(intentName, "job") {
		if m := salaryRe.FindStringSubmatch(text); m != nil {
			p.SalaryMin = parseAmount(m[1])
			if m[2] != "" {
				p.SalaryMax = parseAmount(m[2])
			}
		}
	}

	switch {
	case fullTimeRe.MatchString(text):
		p.JobType = "full-time"
	case partTimeRe.MatchString(text):
		p.JobType = "part-time"
	case contractRe.MatchString(text):
		p.JobType = "contract"
	case casualRe.MatchString(text):
		p.JobType = "casual"
	}

	if m := jobIDRe.FindStringSubmatch(text); m != nil {
		if id, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			p.JobID = id
		}
	}
	return p
}

func parseAmount(s string) int {
	n, err := strconv.Atoi(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return 0
	}
	return n
}
