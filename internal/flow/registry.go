package flow

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/wantokjobs/jean/internal/actions"
	"github.com/wantokjobs/jean/internal/models"
	"github.com/wantokjobs/jean/internal/responses"
)

// Flow names, shared with the agent's handler registry.
const (
	FlowUpdateProfileJobseeker = "update-profile-jobseeker"
	FlowUpdateProfileEmployer  = "update-profile-employer"
	FlowBuildResume            = "build-resume"
	FlowPostJob                = "post-job"
	FlowAutoApplySetup         = "auto-apply-setup"
	FlowEmployerPrefs          = "employer-prefs"
	FlowContactSupport         = "contact-support"
	FlowFeatureRequest         = "feature-request"
)

var (
	multiDoneRe   = regexp.MustCompile(`(?i)^(done|finish|no more|that'?s?\s*(all|it)|nogat)`)
	negotiableRe  = regexp.MustCompile(`(?i)negoti`)
	salaryRangeRe = regexp.MustCompile(`(?i)k?\s*(\d[\d,]*)\s*[-–to]*\s*k?\s*(\d[\d,]*)?`)
	anyAllRe      = regexp.MustCompile(`(?i)any|all`)
	workDatesRe   = regexp.MustCompile(`(?i)(\d{4})\s*[-–to]+\s*(\d{4}|present|current|now)`)
	presentRe     = regexp.MustCompile(`(?i)present|current|now`)
	stripDatesRe  = regexp.MustCompile(`(?i)\d{4}\s*[-–to]+\s*\w+`)
	yearRe        = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	degreeFromRe  = regexp.MustCompile(`(?i)(.+?)\s+(?:from|at)\s+(.+)`)
	openDeadline  = regexp.MustCompile(`(?i)open|none|no\s*deadline`)
	yesRe         = regexp.MustCompile(`(?i)yes|y|sure`)
)

func builtinFlows() []*Definition {
	return []*Definition{
		updateProfileJobseeker(),
		updateProfileEmployer(),
		buildResume(),
		postJob(),
		autoApplySetup(),
		employerPrefs(),
		contactSupport(),
		featureRequest(),
	}
}

// ─── Jobseeker profile ───────────────────────────────────

func updateProfileJobseeker() *Definition {
	def := &Definition{
		Name: FlowUpdateProfileJobseeker,
		Steps: []Step{
			{
				Key:    "headline",
				Prompt: "What's your job title or professional headline? (e.g. 'Diesel Mechanic', 'Experienced Accountant')",
				Skip:   jobseekerHas(func(p *models.JobseekerProfile) bool { return p.Headline != "" }),
			},
			{
				Key:    "location",
				Prompt: "Where are you based? (e.g. 'Port Moresby, NCD', 'Lae, Morobe')",
				Skip:   jobseekerHas(func(p *models.JobseekerProfile) bool { return p.Location != "" }),
			},
			{
				Key:    "phone",
				Prompt: "Your phone number? (e.g. '7xxx xxxx')",
				Skip:   jobseekerHas(func(p *models.JobseekerProfile) bool { return p.Phone != "" }),
			},
			{
				Key:       "skills",
				Prompt:    "What are your main skills? List them separated by commas.",
				Transform: func(input string, _ *Context) any { return splitList(input) },
				Skip:      jobseekerHas(func(p *models.JobseekerProfile) bool { return len(p.Skills) > 0 }),
			},
			{
				Key:      "bio",
				Prompt:   "Give me a short bio — 2-3 sentences about your experience and what you're good at.",
				Validate: minLen(10, "Too short — give me at least a sentence!"),
				Skip:     jobseekerHas(func(p *models.JobseekerProfile) bool { return p.Bio != "" }),
			},
			{
				Key:          "desired_job_type",
				Prompt:       "What type of work are you looking for?",
				QuickReplies: []string{"Full-time", "Part-time", "Contract", "Casual", "Any"},
				Transform:    func(input string, _ *Context) any { return normalizeJobType(input) },
				Skip:         jobseekerHas(func(p *models.JobseekerProfile) bool { return p.DesiredJobType != "" }),
			},
			{
				Key:    "salary",
				Prompt: "Expected salary range in Kina? (e.g. 'K2000-3500' or 'negotiable')",
				Fields: []string{"desired_salary_min", "desired_salary_max"},
				Transform: func(input string, _ *Context) any {
					return salaryRange(input, "desired_salary_min", "desired_salary_max")
				},
				Skip: jobseekerHas(func(p *models.JobseekerProfile) bool { return p.DesiredSalaryMin != nil }),
			},
		},
	}

	def.OnStart = func(c *Context) (*StartResult, error) {
		prof := c.Profile()
		if prof == nil || prof.Jobseeker == nil {
			return nil, fmt.Errorf("jobseeker profile not found for user %d", c.UserID)
		}
		var missing []string
		for i := range def.Steps {
			if def.Steps[i].Skip == nil || !def.Steps[i].Skip(c) {
				missing = append(missing, def.Steps[i].Key)
			}
		}
		if len(missing) == 0 {
			return &StartResult{Done: true, Message: responses.Get("profile", "already_complete", map[string]string{
				"summary": formatJobseekerSummary(prof.Jobseeker, prof.User),
			})}, nil
		}
		total := len(def.Steps)
		percent := (total - len(missing)) * 100 / total
		return &StartResult{Message: responses.Get("profile", "missing_fields", map[string]string{
			"percent": strconv.Itoa(percent),
			"fields":  strings.Join(missing, ", "),
		})}, nil
	}

	def.OnComplete = func(c *Context, collected map[string]any) (*Outcome, error) {
		var patch actions.JobseekerPatch
		if err := actions.Decode(collected, &patch); err != nil {
			return nil, fmt.Errorf("decode profile answers: %w", err)
		}
		updated, err := c.Exec.UpdateJobseekerProfile(c.Ctx, c.UserID, &patch)
		if err != nil {
			return nil, err
		}
		return &Outcome{
			Message: responses.Get("profile", "saved", map[string]string{
				"summary": formatJobseekerSummary(updated, c.User),
			}),
			QuickReplies: []string{"Search Jobs", "Build CV", "Set Up Auto-Apply"},
		}, nil
	}
	return def
}

// ─── Employer profile ────────────────────────────────────

func updateProfileEmployer() *Definition {
	def := &Definition{
		Name: FlowUpdateProfileEmployer,
		Steps: []Step{
			{
				Key:    "company_name",
				Prompt: "What's your company name?",
				Skip:   employerHas(func(p *models.EmployerProfile) bool { return p.CompanyName != "" }),
			},
			{
				Key:    "industry",
				Prompt: "What industry? (e.g. Mining, Construction, IT, Healthcare)",
				Skip:   employerHas(func(p *models.EmployerProfile) bool { return p.Industry != "" }),
			},
			{
				Key:          "company_size",
				Prompt:       "Company size?",
				QuickReplies: []string{"1-10", "11-50", "51-200", "201-500", "500+"},
				Skip:         employerHas(func(p *models.EmployerProfile) bool { return p.CompanySize != "" }),
			},
			{
				Key:    "location",
				Prompt: "Where is your company based?",
				Skip:   employerHas(func(p *models.EmployerProfile) bool { return p.Location != "" }),
			},
			{
				Key:    "website",
				Prompt: "Company website? (or 'skip')",
				Skip:   employerHas(func(p *models.EmployerProfile) bool { return p.Website != "" }),
			},
			{
				Key:    "description",
				Prompt: "Brief description of your company — what do you do?",
				Skip:   employerHas(func(p *models.EmployerProfile) bool { return p.Description != "" }),
			},
		},
	}

	def.OnStart = func(c *Context) (*StartResult, error) {
		prof := c.Profile()
		if prof == nil || prof.Employer == nil {
			return nil, fmt.Errorf("employer profile not found for user %d", c.UserID)
		}
		anyMissing := false
		for i := range def.Steps {
			if def.Steps[i].Skip == nil || !def.Steps[i].Skip(c) {
				anyMissing = true
				break
			}
		}
		if !anyMissing {
			return &StartResult{Done: true, Message: responses.Get("profile", "already_complete", map[string]string{
				"summary": formatEmployerSummary(prof.Employer),
			})}, nil
		}
		return &StartResult{Message: responses.Get("profile", "start_employer", nil)}, nil
	}

	def.OnComplete = func(c *Context, collected map[string]any) (*Outcome, error) {
		var patch actions.EmployerPatch
		if err := actions.Decode(collected, &patch); err != nil {
			return nil, fmt.Errorf("decode company answers: %w", err)
		}
		updated, err := c.Exec.UpdateEmployerProfile(c.Ctx, c.UserID, &patch)
		if err != nil {
			return nil, err
		}
		return &Outcome{
			Message: responses.Get("profile", "saved", map[string]string{
				"summary": formatEmployerSummary(updated),
			}),
			QuickReplies: []string{"Post a Job", "My Jobs", "Automation Settings"},
		}, nil
	}
	return def
}

// ─── Resume builder ──────────────────────────────────────

func buildResume() *Definition {
	return &Definition{
		Name: FlowBuildResume,
		Steps: []Step{
			{
				Key:        "work_history",
				Prompt:     "Tell me about a job you've had. Include:\n• Company name\n• Your role/title\n• When you worked there (e.g. 2018-2024)\n• Brief description\n\nOr say 'done' if finished.",
				MultiEntry: true,
				IsDone:     multiDoneRe.MatchString,
				Transform:  func(input string, _ *Context) any { return parseWorkEntry(input) },
			},
			{
				Key:        "education",
				Prompt:     "Now education. What's your highest qualification?\nInclude: degree/cert name, institution, and year.\n\nOr 'skip'.",
				MultiEntry: true,
				IsDone:     multiDoneRe.MatchString,
				Transform:  func(input string, _ *Context) any { return parseEducationEntry(input) },
			},
			{
				Key:    "certifications",
				Prompt: "Any certifications or licenses? (e.g. First Aid, Confined Space, Driver's License)\n\nOr 'skip'.",
			},
		},
		OnStart: func(c *Context) (*StartResult, error) {
			return &StartResult{Message: responses.Get("resume", "start", nil)}, nil
		},
		OnComplete: func(c *Context, collected map[string]any) (*Outcome, error) {
			var patch actions.JobseekerPatch
			if err := actions.Decode(collected, &patch); err != nil {
				return nil, fmt.Errorf("decode resume answers: %w", err)
			}
			updated, err := c.Exec.UpdateJobseekerProfile(c.Ctx, c.UserID, &patch)
			if err != nil {
				return nil, err
			}
			return &Outcome{
				Message: responses.Get("resume", "from_profile", map[string]string{
					"preview": formatResumeSummary(c.User, updated),
				}),
				QuickReplies: []string{"Search Jobs", "Apply to Jobs", "Update Profile"},
			}, nil
		},
	}
}

// ─── Post job ────────────────────────────────────────────

func postJob() *Definition {
	return &Definition{
		Name: FlowPostJob,
		Steps: []Step{
			{Key: "title", Prompt: "What's the job title?", Validate: minLen(3, "Title too short")},
			{Key: "description", Prompt: "Describe the role — responsibilities, day-to-day duties.", Validate: minLen(20, "Please provide more detail")},
			{Key: "requirements", Prompt: "What qualifications or experience needed? (or 'skip')"},
			{Key: "location", Prompt: "Where is this job based? (e.g. 'Port Moresby, NCD')"},
			{Key: "job_type", Prompt: "What type of employment?", QuickReplies: []string{"Full-time", "Part-time", "Contract", "Casual"},
				Transform: func(input string, _ *Context) any { return normalizeJobType(input) }},
			{Key: "experience_level", Prompt: "Experience level?", QuickReplies: []string{"Entry Level", "Mid Level", "Senior", "Executive"}},
			{
				Key: "category_slug",
				PromptFunc: func(c *Context) string {
					cats, err := c.Exec.Categories(c.Ctx)
					if err != nil || len(cats) == 0 {
						return "Which category fits best? (e.g. 'construction', 'healthcare')"
					}
					var b strings.Builder
					b.WriteString("Which category fits best?\n")
					for _, cat := range cats {
						fmt.Fprintf(&b, "\n• %s (%d jobs)", cat.Name, cat.JobCount)
					}
					return b.String()
				},
				Transform: func(input string, c *Context) any { return resolveCategory(c, input) },
			},
			{
				Key:    "salary",
				Prompt: "Salary range in Kina? (e.g. 'K3000-5000 per fortnight' or 'negotiable')",
				Fields: []string{"salary_min", "salary_max"},
				Transform: func(input string, _ *Context) any {
					return salaryRange(input, "salary_min", "salary_max")
				},
			},
			{
				Key:    "application_deadline",
				Prompt: "Application closing date? (e.g. '2026-03-15' or 'open')",
				Transform: func(input string, _ *Context) any {
					if openDeadline.MatchString(input) {
						return ""
					}
					return input
				},
			},
		},
		OnStart: func(c *Context) (*StartResult, error) {
			return &StartResult{Message: responses.Get("post_job", "start", nil)}, nil
		},
		OnComplete: func(c *Context, collected map[string]any) (*Outcome, error) {
			var patch actions.JobPatch
			if err := actions.Decode(collected, &patch); err != nil {
				return nil, fmt.Errorf("decode job answers: %w", err)
			}
			job := patch.Job()

			prefs, err := c.Exec.EmployerPrefs(c.Ctx, c.UserID)
			if err != nil {
				return nil, err
			}
			if prefs.AutoPost == models.AutoPostAuto {
				if _, err := c.Exec.PostListing(c.Ctx, c.UserID, job); err != nil {
					return nil, err
				}
				return &Outcome{
					Message:      responses.Get("post_job", "posted", map[string]string{"title": job.Title}),
					QuickReplies: []string{"View Applicants", "Post Another", "My Jobs"},
				}, nil
			}

			draftID, err := c.Exec.CreateDraft(c.Ctx, c.UserID, c.SessionID, job, "chat")
			if err != nil {
				return nil, err
			}
			return &Outcome{
				Message:         responses.Get("post_job", "draft_saved", map[string]string{"title": job.Title}),
				QuickReplies:    []string{"Post Now", "Save as Draft"},
				AwaitingDraftID: draftID,
			}, nil
		},
	}
}

// ─── Auto-apply setup ────────────────────────────────────

func autoApplySetup() *Definition {
	return &Definition{
		Name: FlowAutoApplySetup,
		Steps: []Step{
			{
				Key:       "keywords",
				Prompt:    "What keywords should I look for? (e.g. 'mechanic, driver, welder')",
				Transform: func(input string, _ *Context) any { return splitList(input) },
			},
			{
				Key: "categories",
				PromptFunc: func(c *Context) string {
					cats, err := c.Exec.Categories(c.Ctx)
					if err != nil || len(cats) == 0 {
						return "Any specific categories? Or say 'any' for all."
					}
					var b strings.Builder
					b.WriteString("Any specific categories?\n")
					for i, cat := range cats {
						if i == 10 {
							break
						}
						b.WriteString("\n• " + cat.Name)
					}
					b.WriteString("\n\nOr say 'any' for all.")
					return b.String()
				},
				Transform: func(input string, c *Context) any {
					if anyAllRe.MatchString(input) {
						return []string{}
					}
					var slugs []string
					for _, part := range splitList(input) {
						slugs = append(slugs, resolveCategory(c, part))
					}
					return slugs
				},
			},
			{
				Key:    "min_salary",
				Prompt: "Minimum salary in Kina? (e.g. 'K2000' or 'any')",
				Transform: func(input string, _ *Context) any {
					if regexp.MustCompile(`(?i)any|no\s*min|negoti`).MatchString(input) {
						return nil
					}
					if m := salaryRangeRe.FindStringSubmatch(input); m != nil {
						return parseAmount(m[1])
					}
					return nil
				},
			},
			{
				Key:    "locations",
				Prompt: "Preferred location? (e.g. 'Port Moresby', 'Lae', or 'anywhere')",
				Transform: func(input string, _ *Context) any {
					if regexp.MustCompile(`(?i)any|anywhere|all`).MatchString(input) {
						return []string{}
					}
					return splitList(input)
				},
			},
			{
				Key:    "max_daily",
				Prompt: "How many applications per day max? (1-10, default 5)",
				Transform: func(input string, _ *Context) any {
					if n, err := strconv.Atoi(strings.TrimSpace(input)); err == nil && n >= 1 && n <= 10 {
						return n
					}
					return 5
				},
			},
		},
		OnStart: func(c *Context) (*StartResult, error) {
			return &StartResult{Message: responses.Get("auto_apply", "setup", nil)}, nil
		},
		OnComplete: func(c *Context, collected map[string]any) (*Outcome, error) {
			var patch actions.RulePatch
			if err := actions.Decode(collected, &patch); err != nil {
				return nil, fmt.Errorf("decode rule answers: %w", err)
			}
			if _, err := c.Exec.CreateRule(c.Ctx, c.UserID, patch.Rule()); err != nil {
				return nil, err
			}
			minScore, err := c.Exec.Setting(c.Ctx, "auto_apply_min_match_score")
			if err != nil || minScore == "" {
				minScore = "70"
			}
			return &Outcome{
				Message:      responses.Get("auto_apply", "activated", map[string]string{"min_score": minScore}),
				QuickReplies: []string{"My Applications", "Search Jobs", "Stop Auto-Apply"},
			}, nil
		},
	}
}

// ─── Employer automation prefs ───────────────────────────

func employerPrefs() *Definition {
	return &Definition{
		Name: FlowEmployerPrefs,
		Steps: []Step{
			{
				Key:          "auto_post",
				Prompt:       "How should I handle new job listings from chat and uploads?\n\n**Review** — Create drafts, you approve each one\n**Auto-post** — Post immediately, notify you\n**Batch** — Create all drafts, you approve the batch",
				QuickReplies: []string{"Review", "Auto-post", "Batch"},
				Transform: func(input string, _ *Context) any {
					switch {
					case regexp.MustCompile(`(?i)auto`).MatchString(input):
						return models.AutoPostAuto
					case regexp.MustCompile(`(?i)batch`).MatchString(input):
						return models.AutoPostBatch
					default:
						return models.AutoPostReview
					}
				},
			},
			{
				Key:    "default_location",
				Prompt: "Default job location? (or 'skip')",
			},
			{
				Key:          "notify_on_application",
				Prompt:       "Notify you when someone applies?",
				QuickReplies: []string{"Yes", "No"},
				Transform:    func(input string, _ *Context) any { return yesRe.MatchString(input) },
			},
		},
		OnStart: func(c *Context) (*StartResult, error) {
			prefs, err := c.Exec.EmployerPrefs(c.Ctx, c.UserID)
			if err != nil {
				return nil, err
			}
			notify := "Off"
			if prefs.NotifyOnApply {
				notify = "On"
			}
			return &StartResult{Message: responses.Get("employer_prefs", "current", map[string]string{
				"auto_post": prefs.AutoPost,
				"location":  orNotSet(prefs.DefaultLocation),
				"category":  orNotSet(prefs.DefaultCategory),
				"notify":    notify,
			})}, nil
		},
		OnComplete: func(c *Context, collected map[string]any) (*Outcome, error) {
			var patch actions.PrefsPatch
			if err := actions.Decode(collected, &patch); err != nil {
				return nil, fmt.Errorf("decode prefs answers: %w", err)
			}
			updated, err := c.Exec.UpdateEmployerPrefs(c.Ctx, c.UserID, &patch)
			if err != nil {
				return nil, err
			}
			return &Outcome{
				Message: responses.Get("employer_prefs", "updated", map[string]string{
					"summary": fmt.Sprintf("Auto-post: %s, notifications: %v.", updated.AutoPost, updated.NotifyOnApply),
				}),
				QuickReplies: []string{"Post a Job", "My Jobs", "Upload Document"},
			}, nil
		},
	}
}

// ─── Contact support ─────────────────────────────────────

func contactSupport() *Definition {
	return &Definition{
		Name: FlowContactSupport,
		Steps: []Step{
			{Key: "subject", Prompt: "What's this about?", QuickReplies: []string{"Technical Issue", "Billing Question", "Report a Problem", "General Inquiry"}},
			{Key: "message", Prompt: "Please describe your issue or question in detail.", Validate: minLen(10, "Please provide more detail")},
			{
				Key:    "email",
				Prompt: "Your email address (so we can respond)?",
				Skip:   func(c *Context) bool { return c.User != nil && c.User.Email != "" },
			},
		},
		OnStart: func(c *Context) (*StartResult, error) {
			return &StartResult{Message: responses.Get("contact", "prompt", nil)}, nil
		},
		OnComplete: func(c *Context, collected map[string]any) (*Outcome, error) {
			email, _ := collected["email"].(string)
			name := "Chat User"
			if c.User != nil {
				if email == "" {
					email = c.User.Email
				}
				if c.User.Name != "" {
					name = c.User.Name
				}
			}
			subject, _ := collected["subject"].(string)
			message, _ := collected["message"].(string)
			if err := c.Exec.SubmitContact(c.Ctx, &models.ContactRequest{
				Name: name, Email: email, Subject: subject, Message: message,
			}); err != nil {
				return nil, err
			}
			return &Outcome{
				Message:      responses.Get("contact", "submitted", map[string]string{"email": email}),
				QuickReplies: []string{"Search Jobs", "My Profile", "FAQ"},
			}, nil
		},
	}
}

// ─── Feature request ─────────────────────────────────────

func featureRequest() *Definition {
	return &Definition{
		Name: FlowFeatureRequest,
		Steps: []Step{
			{
				Key:    "title",
				Prompt: "What's the title of your feature request? Give it a short, clear name.",
				Validate: func(input string) string {
					if len(input) < 5 {
						return "Title must be at least 5 characters"
					}
					if len(input) > 200 {
						return "Title is too long (max 200 characters)"
					}
					return ""
				},
			},
			{
				Key:    "description",
				Prompt: "Now describe your idea in detail. What problem does it solve? How would it help you or other users?",
				Validate: func(input string) string {
					if len(input) < 20 {
						return "Please provide more detail (at least 20 characters)"
					}
					if len(input) > 2000 {
						return "Description is too long (max 2000 characters)"
					}
					return ""
				},
			},
			{
				Key:          "category",
				Prompt:       "What category does this fit into?",
				QuickReplies: []string{"General", "Jobs", "Employers", "Jobseekers", "Transparency", "Mobile", "Other"},
				Transform:    func(input string, _ *Context) any { return strings.ToLower(input) },
			},
		},
		OnStart: func(c *Context) (*StartResult, error) {
			return &StartResult{Message: "Great! Let's submit your feature request. Your voice matters — mi laik harim tingting bilong yu! 💡"}, nil
		},
		OnComplete: func(c *Context, collected map[string]any) (*Outcome, error) {
			title, _ := collected["title"].(string)
			description, _ := collected["description"].(string)
			category, _ := collected["category"].(string)
			var userID *int64
			if c.UserID != 0 {
				id := c.UserID
				userID = &id
			}
			if _, err := c.Exec.CreateFeatureRequest(c.Ctx, userID, title, description, category); err != nil {
				return nil, err
			}
			return &Outcome{
				Message:      "✅ Your feature request has been submitted! Others can vote on it at [/features](/features).\n\nTenkyu tru for helping us improve WantokJobs! 🙌",
				QuickReplies: []string{"View All Requests", "Submit Another", "Search Jobs"},
			}, nil
		},
	}
}

// ─── Shared step helpers ─────────────────────────────────

func jobseekerHas(check func(*models.JobseekerProfile) bool) func(*Context) bool {
	return func(c *Context) bool {
		prof := c.Profile()
		return prof != nil && prof.Jobseeker != nil && check(prof.Jobseeker)
	}
}

func employerHas(check func(*models.EmployerProfile) bool) func(*Context) bool {
	return func(c *Context) bool {
		prof := c.Profile()
		return prof != nil && prof.Employer != nil && check(prof.Employer)
	}
}

func minLen(n int, msg string) func(string) string {
	return func(input string) string {
		if len(input) < n {
			return msg
		}
		return ""
	}
}

func splitList(input string) []string {
	var out []string
	for _, part := range regexp.MustCompile(`[,;]+`).Split(input, -1) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func normalizeJobType(input string) string {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "full time", "fulltime":
		return "full-time"
	case "part time", "parttime":
		return "part-time"
	default:
		return strings.ToLower(strings.TrimSpace(input))
	}
}

// salaryRange parses "K2000-3500" style answers into a two-field map.
// Negotiable or unparseable answers leave both fields unset.
func salaryRange(input, minKey, maxKey string) map[string]any {
	out := map[string]any{minKey: nil, maxKey: nil}
	if negotiableRe.MatchString(input) {
		return out
	}
	if m := salaryRangeRe.FindStringSubmatch(input); m != nil {
		out[minKey] = parseAmount(m[1])
		if m[2] != "" {
			out[maxKey] = parseAmount(m[2])
		}
	}
	return out
}

func parseAmount(s string) int {
	n, err := strconv.Atoi(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return 0
	}
	return n
}

// parseWorkEntry pulls a structured work-history record out of a
// free-text answer like "Ela Motors, Senior Mechanic, 2018-2024,
// serviced fleet vehicles".
func parseWorkEntry(input string) models.WorkEntry {
	var entry models.WorkEntry

	if m := workDatesRe.FindStringSubmatch(input); m != nil {
		entry.StartDate = m[1]
		if presentRe.MatchString(m[2]) {
			entry.EndDate = "Present"
		} else {
			entry.EndDate = m[2]
		}
	}

	rest := strings.TrimSpace(stripDatesRe.ReplaceAllString(input, ""))
	parts := regexp.MustCompile(`[,;]`).Split(rest, -1)
	if len(parts) >= 2 {
		entry.Company = strings.TrimSpace(parts[0])
		entry.Title = strings.TrimSpace(parts[1])
		if len(parts) > 2 {
			var desc []string
			for _, p := range parts[2:] {
				if t := strings.TrimSpace(p); t != "" {
					desc = append(desc, t)
				}
			}
			entry.Description = strings.Join(desc, ", ")
		}
	} else {
		entry.Description = rest
	}
	return entry
}

// parseEducationEntry handles "Diploma in Accounting from UPNG, 2019"
// style answers.
func parseEducationEntry(input string) models.EducationEntry {
	var entry models.EducationEntry
	if m := yearRe.FindString(input); m != "" {
		entry.Year = m
	}
	if m := degreeFromRe.FindStringSubmatch(input); m != nil {
		entry.Degree = strings.TrimSpace(yearRe.ReplaceAllString(m[1], ""))
		entry.Institution = strings.TrimSpace(strings.Trim(yearRe.ReplaceAllString(m[2], ""), " ,"))
		return entry
	}
	parts := regexp.MustCompile(`[,;]`).Split(input, -1)
	entry.Degree = strings.TrimSpace(yearRe.ReplaceAllString(parts[0], ""))
	if len(parts) > 1 {
		entry.Institution = strings.TrimSpace(yearRe.ReplaceAllString(parts[1], ""))
	}
	return entry
}

// resolveCategory matches free text against the live category list,
// falling back to a slugified version of the input.
func resolveCategory(c *Context, input string) string {
	lower := strings.ToLower(strings.TrimSpace(input))
	if cats, err := c.Exec.Categories(c.Ctx); err == nil {
		for _, cat := range cats {
			if strings.Contains(strings.ToLower(cat.Name), lower) || strings.Contains(cat.Slug, lower) {
				return cat.Slug
			}
		}
	}
	return strings.ReplaceAll(lower, " ", "-")
}

func orNotSet(s string) string {
	if s == "" {
		return "Not set"
	}
	return s
}

func morePrompt() string {
	return responses.Pick(
		"✅ Got it! Any more to add? (say 'done' when finished)",
		"✅ Saved! More to add? Say 'done' when you're finished. Em i isi tasol!",
		"✅ Nice one! Got any more? (say 'done' to move on)",
	)
}
