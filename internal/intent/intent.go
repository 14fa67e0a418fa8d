// Package intent classifies user messages with ordered keyword rules.
// No learned model: every intent is a set of regular expressions with a
// priority, and the highest-scoring match wins. Tok Pisin phrasings are
// matched alongside English where users commonly mix them.
package intent

import (
	"regexp"
	"strings"

	"github.com/wantokjobs/jean/internal/models"
)

// Well-known intent names shared with the agent's handler registry.
const (
	Greeting       = "greeting"
	Unknown        = "unknown"
	CancelFlow     = "cancel_flow"
	SkipStep       = "skip_step"
	Confirm        = "confirm"
	Reject         = "reject"
	FlowInput      = "flow_input"
	ImportLinkedIn = "import_linkedin"
)

// Definition is one recognizable intent. Definitions are evaluated in
// declaration order; on a score tie the earlier definition wins.
type Definition struct {
	Name         string
	Patterns     []*regexp.Regexp
	Priority     int
	RequiresAuth bool
	RequiredRole string
}

// Context is what the classifier knows about the sender.
type Context struct {
	User        *models.User
	CurrentFlow string
}

// Result is a classified message.
type Result struct {
	Intent     string
	Confidence float64
	Params     Params
}

func re(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile("(?i)" + p)
	}
	return out
}

// definitions is the full intent table. Order matters for tie-breaks.
var definitions = []Definition{
	{Name: "greeting", Priority: 1, Patterns: re(
		`^(hi|hello|hey|g'?day|good\s*(morning|afternoon|evening)|howdy|yo|sup)`,
		`^(gutpela|apinun|moningtaim|gude?)`,
	)},
	{Name: "farewell", Priority: 1, Patterns: re(
		`^(bye|goodbye|see\s*ya|later|thanks?\s*(bye|for)|cheers|lukim\s*yu)`,
	)},

	{Name: "search_jobs", Priority: 5, Patterns: re(
		`\b(search|find|look\s*(for|ing)?|show|browse|list)\b.*(job|position|wok|vacanc|opening|role)`,
		`\b(job|wok|position|role)s?\b.*(search|find|available|near|in\s+\w+)`,
		`\bwok\b.*\b(painim|lukim)\b`,
		`\bany\s*(job|wok|position|opening)s?\b`,
		`\bwhat('?s| is)\s*(available|open|hiring)`,
	)},
	{Name: "job_details", Priority: 4, Patterns: re(
		`\b(tell|more|detail|about|info|describe)\b.*\b(job|position|role|this)\b`,
		`\bjob\s*#?\d+\b`,
	)},

	{Name: "update_profile", Priority: 5, RequiresAuth: true, Patterns: re(
		`\b(update|edit|change|fix|set\s*up|complete|fill)\b.*\b(profile|bio|headline|skills?|info|details)\b`,
		`\b(my|profile)\b.*\b(update|edit|change|incomplete|empty|missing)\b`,
		`\bprofile\b`,
	)},
	{Name: ImportLinkedIn, Priority: 8, RequiresAuth: true, Patterns: re(
		`\blinkedin\b`,
		`\blinkedin\.com\b`,
		`\bimport\b.*\b(profile|cv|resume)\b`,
	)},

	{Name: "build_resume", Priority: 6, RequiresAuth: true, RequiredRole: models.RoleJobseeker, Patterns: re(
		`\b(build|create|make|generate|write)\b.*\b(cv|resume|curriculum)\b`,
		`\b(cv|resume)\b.*\b(build|create|make|download|preview|help)\b`,
		`\bupload\b.*\b(cv|resume)\b`,
	)},

	{Name: "apply_job", Priority: 7, RequiresAuth: true, RequiredRole: models.RoleJobseeker, Patterns: re(
		`\b(apply|appla?i|submit|send)\b.*\b(job|position|role|application|this)\b`,
		`\b(application|apply)\b`,
		`\bmi\s*laik\s*(apla?i|wok)\b`,
	)},
	{Name: "check_applications", Priority: 5, RequiresAuth: true, RequiredRole: models.RoleJobseeker, Patterns: re(
		`\b(my|check|view|see|status)\b.*\b(application|applied|submission)`,
		`\bapplication\s*(status|update|progress)\b`,
	)},
	{Name: "auto_apply_setup", Priority: 8, RequiresAuth: true, RequiredRole: models.RoleJobseeker, Patterns: re(
		`\bauto[\s-]?apply\b`,
		`\b(automatic|automated)\b.*\bappl`,
		`\bapply\b.*\b(automatically|for\s*me)\b`,
		`\b(turn|set|enable|start)\b.*\bauto`,
	)},
	{Name: "stop_auto_apply", Priority: 9, RequiresAuth: true, RequiredRole: models.RoleJobseeker, Patterns: re(
		`\b(stop|disable|turn\s*off|cancel|pause)\b.*\bauto[\s-]?apply\b`,
	)},

	{Name: "post_job", Priority: 6, RequiresAuth: true, RequiredRole: models.RoleEmployer, Patterns: re(
		`\b(post|create|add|new|publish)\b.*\b(job|position|vacanc|listing|role)\b`,
		`\bjob\b.*\b(post|create|listing)\b`,
	)},
	{Name: "upload_job_document", Priority: 8, RequiresAuth: true, RequiredRole: models.RoleEmployer, Patterns: re(
		`\b(upload|attach|send)\b.*\b(pdf|doc|document|file|jd|description)\b`,
		`\b(pdf|doc|word|document)\b.*\b(upload|job|position)\b`,
		`\b(i have|here'?s?)\b.*\b(pdf|doc|file|document)\b`,
		`\bpositions?\s*to\s*(upload|post|fill)\b`,
	)},
	{Name: "manage_jobs", Priority: 5, RequiresAuth: true, RequiredRole: models.RoleEmployer, Patterns: re(
		`\b(my|manage|edit|close|view|see)\b.*\bjob(s| listing| post)`,
		`\bjob\b.*\b(edit|close|delete|update|status)\b`,
	)},
	{Name: "view_applicants", Priority: 6, RequiresAuth: true, RequiredRole: models.RoleEmployer, Patterns: re(
		`\b(view|show|see|check|list|who)\b.*\b(applicant|candidate|applied|application)`,
		`\bapplicant`,
		`\bwho\s*(applied|is\s*interested)\b`,
	)},
	{Name: "employer_prefs", Priority: 7, RequiresAuth: true, RequiredRole: models.RoleEmployer, Patterns: re(
		`\b(set|change|update)\b.*\b(preference|setting|auto[\s-]?post|automation)\b`,
		`\bauto[\s-]?post\b`,
	)},

	{Name: "save_job", Priority: 6, RequiresAuth: true, Patterns: re(
		`\b(save|bookmark|favourite|favorite|keep)\b.*\b(job|this|position)\b`,
	)},
	{Name: "saved_jobs", Priority: 5, RequiresAuth: true, Patterns: re(
		`\b(my|view|show|see)\b.*\bsaved\b`,
		`\bsaved\s*jobs?\b`,
	)},
	{Name: "job_alerts", Priority: 6, RequiresAuth: true, Patterns: re(
		`\b(set|create|manage|my)\b.*\balert`,
		`\balert\b.*\b(set|create|new|job|wok)\b`,
		`\bnotif(y|ication)\b.*\bnew\s*job`,
	)},

	{Name: "browse_categories", Priority: 3, Patterns: re(
		`\bcategor(y|ies)?\b`,
		`\b(industr(y|ies)|sector|field)s?\b`,
		`\bwhat\s*(type|kind)s?\s*of\s*(job|work|wok)`,
	)},
	{Name: "browse_companies", Priority: 3, Patterns: re(
		`\bcompan(y|ies)\b`,
		`\b(employer|business|organisation|organization)s?\b.*\b(list|browse|view|see|who)`,
		`\bwho'?s?\s*hiring\b`,
	)},

	{Name: "pricing", Priority: 4, Patterns: re(
		`\b(price|pricing|cost|plan|package|credit|how\s*much|fee|pay|mani)\b`,
	)},

	{Name: "help_register", Priority: 5, Patterns: re(
		`\b(register|sign\s*up|create\s*account|join|new\s*user)\b`,
	)},
	{Name: "help_login", Priority: 5, Patterns: re(
		`\b(log\s*in|sign\s*in|can'?t\s*log|password|forgot|reset)\b`,
	)},

	{Name: "check_messages", Priority: 4, RequiresAuth: true, Patterns: re(
		`\b(my|check|view|see|read)\b.*\b(message|inbox|mail)\b`,
		`\bmessage`,
	)},
	{Name: "check_notifications", Priority: 4, RequiresAuth: true, Patterns: re(
		`\b(notification|alert|bell|unread)\b`,
	)},

	{Name: "check_interviews", Priority: 5, RequiresAuth: true, Patterns: re(
		`\b(interview|schedule|meeting)\b`,
	)},
	{Name: "check_offers", Priority: 5, RequiresAuth: true, Patterns: re(
		`\b(offer|offer\s*letter)\b`,
	)},

	{Name: "feature_request", Priority: 7, Patterns: re(
		`\b(feature|suggestion|idea|improvement|request|wish|would\s*be\s*nice)\b`,
		`\b(i\s*have\s*a|can\s*you\s*add|please\s*add|you\s*should)\b.*\b(suggestion|idea|feature|improvement)\b`,
		`\b(can\s*you|could\s*you|please)\b.*\b(add|implement|build|create|make)\b`,
		`\bi\s*wish\s*(the\s*site|wantokjobs|this)\b.*\b(had|could|would)\b`,
	)},
	{Name: "view_features", Priority: 6, Patterns: re(
		`\b(what|show|list|view|see)\b.*\b(feature|suggestion|request|idea)s?\b`,
		`\bfeatures?\b.*\b(request|suggest|people|user|want)\b`,
		`\bwhat\s*(are\s*)?people\s*(requesting|asking|suggesting)\b`,
	)},

	{Name: "celebration", Priority: 6, Patterns: re(
		`\b(got|received|accepted|landed)\b.*\b(job|offer|hired|position)\b`,
		`\b(hired|employed|start(ing|ed)?)\b.*\bnew\s*(job|role|position)\b`,
		`\byay|woohoo|amazing|awesome|thank you so much\b`,
	)},
	{Name: "struggling", Priority: 6, Patterns: re(
		`\b(months?|weeks?|long time)\b.*\b(no luck|searching|looking|nothing)\b`,
		`\b(struggling|hard|difficult|giving up|hopeless)\b.*\b(job|work|find)\b`,
		`\bno\s*(luck|response|call\s*back)\b`,
	)},
	{Name: "contact_support", Priority: 2, Patterns: re(
		`\b(contact|support|help|complaint|issue|problem|report)\b`,
		`\b(talk|speak)\b.*\b(human|person|support|team)\b`,
	)},
	{Name: "faq", Priority: 2, Patterns: re(
		`\b(faq|frequently|how\s*(does|do|to)|what\s*(is|are)|explain)\b`,
	)},

	{Name: "employer_analytics", Priority: 5, RequiresAuth: true, RequiredRole: models.RoleEmployer, Patterns: re(
		`\b(analytics|stats|statistics|performance|views|how\s*(is|are)\s*my\s*job)`,
	)},

	{Name: "check_credits", Priority: 4, RequiresAuth: true, Patterns: re(
		`\b(credit|balance|subscription|billing|order)\b`,
	)},
}

// Flow-control commands recognised only while a flow is active.
var (
	cancelRe   = regexp.MustCompile(`(?i)^(cancel|stop|quit|exit|never\s*mind|back|go\s*back)\b`)
	skipRe     = regexp.MustCompile(`(?i)^(skip|next|pass|na?h?)\b`)
	confirmRe  = regexp.MustCompile(`(?i)^(yes|yeah?|yep|yup|ok(ay)?|sure|go\s*ahead|confirm|approve|yas|em\s*tasol)\b`)
	rejectRe   = regexp.MustCompile(`(?i)^(no(pe)?|nah?|not?\s*yet|don'?t|nogat)\b`)
	linkedinRe = regexp.MustCompile(`(?i)linkedin\.com/(?:in|company)/[\w-]+`)
)

// Classify maps a message to an intent. While a flow is active only
// flow-control commands are recognised; everything else is flow input.
func Classify(message string, ctx Context) Result {
	text := strings.TrimSpace(message)
	if text == "" {
		return Result{Intent: Greeting, Confidence: 0.5}
	}

	if ctx.CurrentFlow != "" {
		switch {
		case cancelRe.MatchString(text):
			return Result{Intent: CancelFlow, Confidence: 1.0}
		case skipRe.MatchString(text):
			return Result{Intent: SkipStep, Confidence: 1.0}
		case confirmRe.MatchString(text):
			return Result{Intent: Confirm, Confidence: 1.0}
		case rejectRe.MatchString(text):
			return Result{Intent: Reject, Confidence: 1.0}
		}
		return Result{Intent: FlowInput, Confidence: 0.9, Params: Params{Text: text}}
	}

	if m := linkedinRe.FindString(text); m != "" {
		return Result{Intent: ImportLinkedIn, Confidence: 1.0, Params: Params{URL: m}}
	}

	var (
		best      string
		bestScore int
	)
	for _, def := range definitions {
		if def.RequiresAuth && ctx.User == nil {
			continue
		}
		if def.RequiredRole != "" && ctx.User != nil && ctx.User.Role != "" && ctx.User.Role != def.RequiredRole {
			continue
		}
		for _, p := range def.Patterns {
			if p.MatchString(text) {
				score := def.Priority
				if len(text) < 20 {
					score++
				}
				if score > bestScore {
					bestScore = score
					best = def.Name
				}
				break
			}
		}
	}

	if best == "" {
		return Result{Intent: Unknown, Confidence: 0.1, Params: Params{Text: text}}
	}
	return Result{
		Intent:     best,
		Confidence: min(float64(bestScore)/10, 1.0),
		Params:     ExtractParams(text, best),
	}
}
