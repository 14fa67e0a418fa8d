package agent

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/wantokjobs/jean/internal/models"
	"github.com/wantokjobs/jean/internal/responses"
)

// nowFunc is swapped in tests for deterministic greetings.
var nowFunc = time.Now

// Moods detected from message wording. The mood pass is cosmetic: it
// prefixes an empathetic line but never changes what the agent does.
const (
	moodFrustrated = "frustrated"
	moodConfused   = "confused"
	moodExcited    = "excited"
	moodRejected   = "rejected"
	moodStruggling = "struggling"
	moodNewUser    = "new_user"
	moodImpatient  = "impatient"
)

var moodPatterns = []struct {
	mood string
	re   *regexp.Regexp
}{
	{moodFrustrated, regexp.MustCompile(`(?i)frustrat|annoy|stupid|broken|doesn'?t work|impossible|useless|waste|rubbish`)},
	{moodConfused, regexp.MustCompile(`(?i)confus|don'?t understand|what do you mean|lost|mi no klia`)},
	{moodExcited, regexp.MustCompile(`(?i)got the job|hired|accepted|yay|amazing|awesome|incredible|best day`)},
	{moodRejected, regexp.MustCompile(`(?i)reject|didn'?t get|turned down|unsuccess|missed out`)},
	{moodStruggling, regexp.MustCompile(`(?i)struggling|no luck|giving up|hopeless|tired of|mi les`)},
	{moodNewUser, regexp.MustCompile(`(?i)first time|new here|just joined|never used|brand new|mi nupela`)},
	{moodImpatient, regexp.MustCompile(`(?i)\b(quick|hurry|fast|asap|urgent|hariap)\b`)},
}

func detectMood(message string) string {
	for _, mp := range moodPatterns {
		if mp.re.MatchString(message) {
			return mp.mood
		}
	}
	return ""
}

var empathy = map[string][]string{
	moodFrustrated: {
		"Mi harim yu — that can be really frustrating. Let me see what I can do to help. 🙏",
		"I get it — that's really annoying. Let me sort this out for you. Bai mi traim! 🙏",
		"Sori tru — I understand the frustration. Let's fix this together.",
	},
	moodConfused: {
		"No worries — em i orait! Let me explain that more clearly.",
		"Good question! Let me break it down for you. Em i isi tasol. 😊",
	},
	moodExcited: {
		"That's great to hear! Amamas tru! 😊",
		"Love to hear it! Em nau ya! 🎊",
	},
	moodRejected: {
		"Sori tru to hear that. Don't let it get you down — the right opportunity is out there. Yu no ken givap!",
		"That's tough — mi sori. But every 'no' brings you closer to the right 'yes'. Let's keep going! 💪",
	},
	moodStruggling: {
		"Job hunting can be tough, but you're doing the right thing by being proactive. Yumi wok bung. 💪",
		"I know it's not easy — but mi bilip long yu. Let's try a different approach. 💪",
	},
	moodNewUser: {
		"Welcome to WantokJobs! Welkam tru! I'll walk you through everything step by step. 😊",
	},
	moodImpatient: {
		"On it! Give me a sec — bai mi hariap! ⚡",
	},
}

func empathize(mood string) string {
	return responses.Pick(empathy[mood]...)
}

func firstName(u *models.User) string {
	if u == nil || u.Name == "" {
		return ""
	}
	return strings.Fields(u.Name)[0]
}

func greetUser(u *models.User, now time.Time) string {
	timeGreet := "Good evening"
	switch {
	case now.Hour() < 12:
		timeGreet = "Good morning"
	case now.Hour() < 17:
		timeGreet = "Good afternoon"
	}
	if u == nil {
		return responses.Pick(
			timeGreet+"! 😊 I'm Jean from WantokJobs. Whether you're looking for work or looking to hire, I'm here to help. What brings you here today?",
			"Hi there! I'm Jean — I help people find great jobs across Papua New Guinea. From the Highlands to the Islands, mi stap hia long helpim yu. What can I do for you?",
			"Hey! Welcome to WantokJobs — I'm Jean, your job search sidekick. 😊 What are you looking for?",
		)
	}
	name := firstName(u)
	return responses.Pick(
		fmt.Sprintf("Hey %s! 👋 Good to see you back. What can I help with today?", name),
		fmt.Sprintf("%s, %s! What's happening? Ready to get things done?", timeGreet, name),
		fmt.Sprintf("Welcome back, %s! 😊 Mi amamas long lukim yu gen. What do you need?", name),
	)
}

func formatJobCard(j *models.Job, index int) string {
	salary := "Salary negotiable"
	if j.SalaryMin != nil {
		salary = fmt.Sprintf("K%d", *j.SalaryMin)
		if j.SalaryMax != nil {
			salary += fmt.Sprintf(" – K%d", *j.SalaryMax)
		} else {
			salary += "+"
		}
	}
	company := j.CompanyName
	if company == "" {
		company = "Employer"
	}
	location := j.Location
	if location == "" {
		location = "Papua New Guinea"
	}
	jobType := j.JobType
	if jobType == "" {
		jobType = "Full-time"
	}
	line3 := fmt.Sprintf("💼 %s · 💰 %s", jobType, salary)
	if fresh := jobFreshness(j.CreatedAt); fresh != "" {
		line3 += " · " + fresh
	}
	return strings.Join([]string{
		fmt.Sprintf("**%d. %s**", index, j.Title),
		fmt.Sprintf("🏢 %s · 📍 %s", company, location),
		line3,
		fmt.Sprintf("[View & Apply →](/jobs/%d)", j.ID),
	}, "\n")
}

func jobFreshness(createdAt time.Time) string {
	if createdAt.IsZero() {
		return ""
	}
	days := int(time.Since(createdAt).Hours() / 24)
	switch {
	case days <= 0:
		return "🆕 Today"
	case days == 1:
		return "🆕 Yesterday"
	case days <= 7:
		return fmt.Sprintf("%dd ago", days)
	}
	return ""
}

func naturalCount(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	if n == 0 {
		return "no " + noun + "s"
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// followUp suggests a next move after an action, or "" when there is
// nothing worth nudging about.
func followUp(u *models.User, lastAction string) string {
	role := models.RoleJobseeker
	if u != nil && u.Role != "" {
		role = u.Role
	}
	switch lastAction {
	case "applied":
		if role == models.RoleJobseeker {
			return "While you wait to hear back, want me to find more similar positions? No ken putim olgeta kiau long wanpela basket!"
		}
	case "profile-updated":
		if role == models.RoleEmployer {
			return "Your company profile looks sharp! Ready to post a job and find the right person?"
		}
		return "Now that your profile is updated, want me to search for jobs that match your skills? Or I can build your CV — bai ol employer i lukim yu!"
	case "search":
		if role == models.RoleJobseeker {
			return "Want me to set up auto-apply so you never miss a matching job? Bai mi wok long yu!"
		}
	case "job-posted":
		if role == models.RoleEmployer {
			return "Your job is live! Want to post another one — spredem tok! 📢"
		}
	}
	return ""
}
