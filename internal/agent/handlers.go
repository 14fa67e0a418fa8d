package agent

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/wantokjobs/jean/internal/actions"
	"github.com/wantokjobs/jean/internal/flow"
	"github.com/wantokjobs/jean/internal/intent"
	"github.com/wantokjobs/jean/internal/models"
	"github.com/wantokjobs/jean/internal/responses"
	"github.com/wantokjobs/jean/internal/storage"
)

type handlerFunc func(ctx context.Context, session *models.Session, user *models.User, res intent.Result) *Reply

// dispatch classifies a message with no flow active and routes it to the
// matching handler.
func (a *Agent) dispatch(ctx context.Context, session *models.Session, user *models.User, text string) *Reply {
	res := intent.Classify(text, intent.Context{User: user})
	h, ok := a.handlers[res.Intent]
	if !ok {
		h = a.handleUnknown
	}
	reply := h(ctx, session, user, res)
	if reply.Intent == "" {
		reply.Intent = res.Intent
	}
	return reply
}

func (a *Agent) buildHandlers() map[string]handlerFunc {
	return map[string]handlerFunc{
		intent.Greeting:       a.handleGreeting,
		"farewell":            a.handleFarewell,
		"search_jobs":         a.handleSearch,
		"job_details":         a.handleJobDetails,
		"update_profile":      a.handleUpdateProfile,
		intent.ImportLinkedIn: a.handleLinkedInImport,
		"build_resume":        a.flowStarter(flow.FlowBuildResume),
		"apply_job":           a.handleApply,
		"check_applications":  a.handleCheckApplications,
		"auto_apply_setup":    a.handleAutoApplySetup,
		"stop_auto_apply":     a.handleStopAutoApply,
		"post_job":            a.flowStarter(flow.FlowPostJob),
		"upload_job_document": a.handleUploadJobDocument,
		"manage_jobs":         a.handleManageJobs,
		"view_applicants":     a.handleViewApplicants,
		"employer_prefs":      a.flowStarter(flow.FlowEmployerPrefs),
		"save_job":            a.handleSaveJob,
		"saved_jobs":          a.handleSavedJobs,
		"job_alerts":          a.handleJobAlerts,
		"browse_categories":   a.handleCategories,
		"browse_companies":    a.handleCompanies,
		"pricing":             a.handlePricing,
		"help_register":       a.handleRegisterHelp,
		"help_login":          a.handleLoginHelp,
		"check_messages":      a.handleMessages,
		"check_notifications": a.handleNotifications,
		"check_interviews":    a.handleInterviews,
		"check_offers":        a.handleOffers,
		"feature_request":     a.flowStarter(flow.FlowFeatureRequest),
		"view_features":       a.handleViewFeatures,
		"celebration":         a.handleCelebration,
		"struggling":          a.handleStruggling,
		"contact_support":     a.flowStarter(flow.FlowContactSupport),
		"faq":                 a.handleFAQ,
		"employer_analytics":  a.handleAnalytics,
		"check_credits":       a.handleCredits,
		intent.Unknown:        a.handleUnknown,
	}
}

// flowStarter adapts a flow name into a handler.
func (a *Agent) flowStarter(name string) handlerFunc {
	return func(ctx context.Context, session *models.Session, user *models.User, res intent.Result) *Reply {
		if user == nil {
			return &Reply{Text: responses.Get("needs_login", "default", nil)}
		}
		return a.startFlow(ctx, session, user, name)
	}
}

// ─── Conversational handlers ─────────────────────────────

func (a *Agent) handleGreeting(ctx context.Context, session *models.Session, user *models.User, res intent.Result) *Reply {
	reply := &Reply{Text: greetUser(user, nowFunc())}
	if user == nil {
		reply.QuickReplies = []string{"Search Jobs", "Browse Categories", "Register", "How Does It Work?"}
	} else if user.Role == models.RoleEmployer {
		reply.QuickReplies = []string{"Post a Job", "View Applicants", "My Jobs", "Upload Job Descriptions"}
	} else {
		reply.QuickReplies = []string{"Search Jobs", "My Applications", "Update Profile", "Build My CV"}
	}
	return reply
}

func (a *Agent) handleFarewell(ctx context.Context, session *models.Session, user *models.User, res intent.Result) *Reply {
	name := firstName(user)
	suffix := ""
	if name != "" {
		suffix = ", " + name
	}
	return &Reply{Text: responses.Pick(
		"See you later"+suffix+"! Good luck out there. 🤞",
		"Bye"+suffix+"! Don't hesitate to come back — I'm always here. 😊",
		"Lukim yu"+suffix+"! All the best. 🙌",
		"Take care! Remember, your dream job might be just one application away. 💪",
	)}
}

func (a *Agent) handleSearch(ctx context.Context, session *models.Session, user *models.User, res intent.Result) *Reply {
	f := storage.JobFilters{Limit: 5}
	if res.Params.Location != "" {
		f.Locations = []string{res.Params.Location}
	}
	if res.Params.JobType != "" {
		f.JobTypes = []string{res.Params.JobType}
	}
	if res.Params.SalaryMin > 0 {
		min := res.Params.SalaryMin
		f.MinSalary = &min
	}
	if terms := searchTerms(res.Params); len(terms) > 0 {
		f.Keywords = terms
	}

	jobs, total, err := a.exec.SearchPostings(ctx, f)
	if err != nil {
		a.logger.Error("job search failed", zap.Error(err))
		return &Reply{Text: responses.Get("error", "generic", nil)}
	}
	if total == 0 {
		return &Reply{
			Text:         responses.Get("search", "no_results", nil),
			QuickReplies: []string{"Show All Jobs", "Browse Categories", "Set Up Job Alert"},
		}
	}

	cards := make([]string, len(jobs))
	for i, j := range jobs {
		cards[i] = formatJobCard(j, i+1)
	}
	intro := fmt.Sprintf("Here's what I found — %s:", naturalCount(total, "job"))
	if total > len(jobs) {
		intro = fmt.Sprintf("Found %d jobs! Here are the top matches:", total)
	}
	followup := "\n\nInterested in any? [Create a free account](/register) to apply — takes 30 seconds!"
	quick := []string{"Register", "Show More"}
	if user != nil {
		followup = "\n\nWant details on any of these? I can also apply for you!"
		quick = []string{"Apply to #1", "Save #1", "Show More", "Set Alert"}
	}
	return &Reply{
		Text:         intro + "\n\n" + strings.Join(cards, "\n\n") + followup,
		QuickReplies: quick,
	}
}

func (a *Agent) handleJobDetails(ctx context.Context, session *models.Session, user *models.User, res intent.Result) *Reply {
	if res.Params.JobID == 0 {
		return &Reply{Text: "Which job would you like details on? Give me a job number or tell me what you're looking for."}
	}
	job, err := a.exec.GetPosting(ctx, res.Params.JobID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &Reply{Text: "I couldn't find that job — em i lus pinis. It may have been removed or the listing closed."}
		}
		a.logger.Error("job lookup failed", zap.Int64("job_id", res.Params.JobID), zap.Error(err))
		return &Reply{Text: responses.Get("error", "generic", nil)}
	}
	msg := "Here are the details:\n\n" + formatJobCard(job, 1)
	if job.Description != "" {
		desc := job.Description
		if len(desc) > 500 {
			desc = desc[:500] + "..."
		}
		msg += "\n\n" + desc
	}
	msg += fmt.Sprintf("\n\n➡️ [View Full Job](/jobs/%d)", job.ID)
	return &Reply{Text: msg, QuickReplies: []string{"Apply Now", "Save Job", "Similar Jobs"}}
}

func (a *Agent) handleUpdateProfile(ctx context.Context, session *models.Session, user *models.User, res intent.Result) *Reply {
	if user == nil {
		return &Reply{Text: responses.Get("needs_login", "default", nil)}
	}
	name := flow.FlowUpdateProfileJobseeker
	if user.Role == models.RoleEmployer {
		name = flow.FlowUpdateProfileEmployer
	}
	return a.startFlow(ctx, session, user, name)
}

func (a *Agent) handleLinkedInImport(ctx context.Context, session *models.Session, user *models.User, res intent.Result) *Reply {
	if user == nil {
		return &Reply{Text: responses.Get("needs_login", "default", nil)}
	}
	if !a.exec.FeatureEnabled(ctx, FeatureLinkedInImport) {
		return &Reply{Text: responses.Get("feature_disabled", "linkedin_import", nil)}
	}
	return &Reply{
		Text:         responses.Get("linkedin", "fallback", nil),
		QuickReplies: []string{"Update My Profile", "No thanks"},
	}
}

func (a *Agent) handleApply(ctx context.Context, session *models.Session, user *models.User, res intent.Result) *Reply {
	if user == nil {
		return &Reply{Text: responses.Get("needs_login", "default", nil)}
	}
	if user.Role != models.RoleJobseeker {
		return &Reply{Text: responses.Get("needs_role", "jobseeker", nil)}
	}
	if res.Params.JobID == 0 {
		return &Reply{Text: "Which job would you like to apply for? Give me the job number or search for one first."}
	}

	job, err := a.exec.GetPosting(ctx, res.Params.JobID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &Reply{Text: "I couldn't find that job. It may have been removed."}
		}
		a.logger.Error("job lookup failed", zap.Int64("job_id", res.Params.JobID), zap.Error(err))
		return &Reply{Text: responses.Get("error", "generic", nil)}
	}

	// An incomplete profile gets a nudge first; "apply anyway" pushes
	// through.
	if !strings.Contains(strings.ToLower(res.Params.Text), "anyway") {
		if prof, perr := a.exec.GetProfile(ctx, user.ID); perr == nil &&
			prof.Jobseeker != nil && !prof.Jobseeker.Complete {
			return &Reply{
				Text:         responses.Get("apply", "no_profile", nil),
				QuickReplies: []string{"Update Profile", fmt.Sprintf("Apply anyway to job #%d", job.ID)},
			}
		}
	}

	_, err = a.exec.Apply(ctx, user.ID, job.ID, "")
	switch {
	case errors.Is(err, actions.ErrAlreadyApplied):
		return &Reply{Text: responses.Get("apply", "already_applied", nil)}
	case errors.Is(err, actions.ErrJobClosed):
		return &Reply{Text: "That listing has closed — sori tru. Want me to find similar open positions?", QuickReplies: []string{"Similar Jobs", "Search Jobs"}}
	case err != nil:
		a.logger.Error("application failed", zap.Int64("job_id", job.ID), zap.Int64("user_id", user.ID), zap.Error(err))
		return &Reply{Text: responses.Get("error", "generic", nil)}
	}

	company := job.CompanyName
	if company == "" {
		company = "the employer"
	}
	msg := responses.Get("apply", "success", map[string]string{"title": job.Title, "company": company})
	if tip := followUp(user, "applied"); tip != "" {
		msg += "\n\n💡 " + tip
	}
	return &Reply{Text: msg, QuickReplies: []string{"Search Similar Jobs", "My Applications", "Set Up Auto-Apply"}}
}

func (a *Agent) handleCheckApplications(ctx context.Context, session *models.Session, user *models.User, res intent.Result) *Reply {
	if user == nil {
		return &Reply{Text: responses.Get("needs_login", "default", nil)}
	}
	apps, err := a.exec.Applications(ctx, user.ID)
	if err != nil {
		a.logger.Error("applications lookup failed", zap.Int64("user_id", user.ID), zap.Error(err))
		return &Reply{Text: responses.Get("error", "generic", nil)}
	}
	if len(apps) == 0 {
		return &Reply{
			Text:         "You haven't applied to any jobs yet — but no worries, let's change that! Mi ken helpim yu painim gutpela wok. 💪",
			QuickReplies: []string{"Search Jobs", "Browse Categories", "Build My CV"},
		}
	}

	statusEmoji := map[string]string{
		models.ApplicationPending:     "⏳",
		models.ApplicationShortlisted: "⭐",
		models.ApplicationRejected:    "❌",
		models.ApplicationHired:       "✅",
	}
	shortlisted := 0
	var lines []string
	for i, app := range apps {
		if i >= 10 {
			break
		}
		if app.Status == models.ApplicationShortlisted {
			shortlisted++
		}
		emoji := statusEmoji[app.Status]
		if emoji == "" {
			emoji = "📋"
		}
		company := app.CompanyName
		if company == "" {
			company = "Company"
		}
		lines = append(lines, fmt.Sprintf("%d. %s **%s** — %s\n   Status: %s | Applied: %s",
			i+1, emoji, app.JobTitle, company, app.Status, app.AppliedAt.Format("2 Jan 2006")))
	}
	msg := fmt.Sprintf("📨 Your applications (%s):\n\n%s", naturalCount(len(apps), "application"), strings.Join(lines, "\n\n"))
	if shortlisted > 0 {
		msg += fmt.Sprintf("\n\n🌟 %s shortlisted — gutpela tru!", naturalCount(shortlisted, "application"))
	}
	return &Reply{Text: msg, QuickReplies: []string{"Search More Jobs", "Update Profile", "Set Up Auto-Apply"}}
}

func (a *Agent) handleAutoApplySetup(ctx context.Context, session *models.Session, user *models.User, res intent.Result) *Reply {
	if user == nil {
		return &Reply{Text: responses.Get("needs_login", "default", nil)}
	}
	if !a.exec.FeatureEnabled(ctx, FeatureAutoApply) {
		return &Reply{Text: responses.Get("feature_disabled", "auto_apply", nil)}
	}
	return a.startFlow(ctx, session, user, flow.FlowAutoApplySetup)
}

func (a *Agent) handleStopAutoApply(ctx context.Context, session *models.Session, user *models.User, res intent.Result) *Reply {
	if user == nil {
		return &Reply{Text: responses.Get("needs_login", "default", nil)}
	}
	if err := a.exec.SetRulesActive(ctx, user.ID, false); err != nil {
		a.logger.Error("auto-apply deactivation failed", zap.Int64("user_id", user.ID), zap.Error(err))
		return &Reply{Text: responses.Get("error", "generic", nil)}
	}
	return &Reply{Text: responses.Get("auto_apply", "stopped", nil)}
}

func (a *Agent) handleUploadJobDocument(ctx context.Context, session *models.Session, user *models.User, res intent.Result) *Reply {
	if user == nil {
		return &Reply{Text: responses.Get("needs_login", "default", nil)}
	}
	if user.Role != models.RoleEmployer {
		return &Reply{Text: responses.Get("needs_role", "employer", nil)}
	}
	if !a.exec.FeatureEnabled(ctx, FeatureDocumentParse) {
		return &Reply{Text: responses.Get("document", "parse_error", nil)}
	}
	return &Reply{Text: responses.Get("document", "upload_prompt", nil)}
}

func (a *Agent) handleManageJobs(ctx context.Context, session *models.Session, user *models.User, res intent.Result) *Reply {
	if user == nil {
		return &Reply{Text: responses.Get("needs_login", "default", nil)}
	}
	if user.Role != models.RoleEmployer {
		return &Reply{Text: responses.Get("needs_role", "employer", nil)}
	}
	jobs, err := a.exec.EmployerListings(ctx, user.ID)
	if err != nil {
		a.logger.Error("employer jobs lookup failed", zap.Int64("user_id", user.ID), zap.Error(err))
		return &Reply{Text: responses.Get("error", "generic", nil)}
	}
	if len(jobs) == 0 {
		return &Reply{
			Text:         "You haven't posted any jobs yet — let's get your first one up! Em i isi tasol. 😊",
			QuickReplies: []string{"Post a Job", "Upload Job Document"},
		}
	}

	statusEmoji := map[string]string{models.JobActive: "🟢", models.JobClosed: "🔴", models.JobStatusDraft: "📝"}
	active, applicants := 0, 0
	var lines []string
	for i, j := range jobs {
		if j.Status == models.JobActive {
			active++
		}
		applicants += j.ApplicantCount
		if i >= 10 {
			continue
		}
		emoji := statusEmoji[j.Status]
		if emoji == "" {
			emoji = "⚪"
		}
		location := j.Location
		if location == "" {
			location = "PNG"
		}
		lines = append(lines, fmt.Sprintf("%d. %s **%s** — %s\n   📍 %s | Status: %s",
			i+1, emoji, j.Title, naturalCount(j.ApplicantCount, "applicant"), location, j.Status))
	}
	msg := fmt.Sprintf("📋 Your job listings (%s, %d active, %s total):\n\n%s\n\nTell me a job number to manage it, or say \"post a job\" to create a new one.",
		naturalCount(len(jobs), "job"), active, naturalCount(applicants, "applicant"), strings.Join(lines, "\n\n"))
	return &Reply{Text: msg, QuickReplies: []string{"Post a Job", "View Applicants", "Analytics"}}
}

func (a *Agent) handleViewApplicants(ctx context.Context, session *models.Session, user *models.User, res intent.Result) *Reply {
	if user == nil {
		return &Reply{Text: responses.Get("needs_login", "default", nil)}
	}
	if user.Role != models.RoleEmployer {
		return &Reply{Text: responses.Get("needs_role", "employer", nil)}
	}

	if res.Params.JobID == 0 {
		jobs, err := a.exec.EmployerListings(ctx, user.ID)
		if err != nil {
			a.logger.Error("employer jobs lookup failed", zap.Int64("user_id", user.ID), zap.Error(err))
			return &Reply{Text: responses.Get("error", "generic", nil)}
		}
		var lines []string
		for _, j := range jobs {
			if j.ApplicantCount > 0 {
				lines = append(lines, fmt.Sprintf("• **%s** (job #%d) — %s", j.Title, j.ID, naturalCount(j.ApplicantCount, "applicant")))
			}
		}
		if len(lines) == 0 {
			return &Reply{
				Text:         "No applications yet — but don't worry! Share your job listings to get more visibility. Spredem tok! 📢",
				QuickReplies: []string{"My Jobs", "Post a Job"},
			}
		}
		return &Reply{Text: "Which job's applicants would you like to review?\n\n" + strings.Join(lines, "\n")}
	}

	apps, err := a.exec.Applicants(ctx, user.ID, res.Params.JobID)
	if err != nil {
		if errors.Is(err, actions.ErrNotYourJob) || errors.Is(err, storage.ErrNotFound) {
			return &Reply{Text: "I couldn't access those applicants — sori tru. Try again or check your dashboard."}
		}
		a.logger.Error("applicants lookup failed", zap.Int64("job_id", res.Params.JobID), zap.Error(err))
		return &Reply{Text: responses.Get("error", "generic", nil)}
	}
	if len(apps) == 0 {
		return &Reply{
			Text:         "No applicants yet for that listing. Give it some time — ol manmeri bai lukim! 🙏",
			QuickReplies: []string{"Share Job", "My Jobs"},
		}
	}

	var lines []string
	for i, app := range apps {
		name, headline := "Jobseeker", ""
		if prof, perr := a.exec.GetProfile(ctx, app.JobseekerID); perr == nil {
			if prof.User != nil && prof.User.Name != "" {
				name = prof.User.Name
			}
			if prof.Jobseeker != nil {
				headline = prof.Jobseeker.Headline
			}
		}
		line := fmt.Sprintf("%d. **%s**", i+1, name)
		if headline != "" {
			line += " — " + headline
		}
		line += "\n   Status: " + app.Status
		lines = append(lines, line)
	}
	msg := fmt.Sprintf("Applicants (%s):\n\n%s\n\nReview them in detail from your [dashboard](/dashboard/employer/applicants).",
		naturalCount(len(apps), "person"), strings.Join(lines, "\n\n"))
	return &Reply{Text: msg, QuickReplies: []string{"My Jobs", "Post a Job"}}
}

func (a *Agent) handleSaveJob(ctx context.Context, session *models.Session, user *models.User, res intent.Result) *Reply {
	if user == nil {
		return &Reply{Text: responses.Get("needs_login", "default", nil)}
	}
	if res.Params.JobID == 0 {
		return &Reply{Text: "Which job would you like to save? Give me the job number."}
	}
	saved, err := a.exec.SaveJob(ctx, user.ID, res.Params.JobID)
	if err != nil {
		a.logger.Error("save job failed", zap.Int64("job_id", res.Params.JobID), zap.Error(err))
		return &Reply{Text: responses.Get("error", "generic", nil)}
	}
	if !saved {
		return &Reply{Text: "Looks like that job is already in your saved list! Em i stap pinis. 😊"}
	}
	return &Reply{
		Text:         "✅ Job saved! View your [saved jobs](/dashboard/jobseeker/saved-jobs). Gutpela — you can come back to it anytime!",
		QuickReplies: []string{"Search More Jobs", "My Saved Jobs", "Apply Now"},
	}
}

func (a *Agent) handleSavedJobs(ctx context.Context, session *models.Session, user *models.User, res intent.Result) *Reply {
	if user == nil {
		return &Reply{Text: responses.Get("needs_login", "default", nil)}
	}
	jobs, err := a.exec.SavedJobs(ctx, user.ID)
	if err != nil {
		a.logger.Error("saved jobs lookup failed", zap.Int64("user_id", user.ID), zap.Error(err))
		return &Reply{Text: responses.Get("error", "generic", nil)}
	}
	if len(jobs) == 0 {
		return &Reply{
			Text:         "No saved jobs yet — when you spot something you like, say 'save job' and I'll keep it for you! 📌",
			QuickReplies: []string{"Search Jobs", "Browse Categories"},
		}
	}
	cards := make([]string, len(jobs))
	for i, j := range jobs {
		cards[i] = formatJobCard(j, i+1)
	}
	return &Reply{
		Text:         fmt.Sprintf("📌 Your saved jobs (%s):\n\n%s\n\nReady to apply to any of these?", naturalCount(len(jobs), "job"), strings.Join(cards, "\n\n")),
		QuickReplies: []string{"Apply to #1", "Search More Jobs"},
	}
}

func (a *Agent) handleJobAlerts(ctx context.Context, session *models.Session, user *models.User, res intent.Result) *Reply {
	if user == nil {
		return &Reply{Text: responses.Get("needs_login", "default", nil)}
	}
	return &Reply{
		Text:         "You can manage your job alerts in your [dashboard](/dashboard/jobseeker/alerts).\n\nOr tell me what kind of jobs you want and I'll set up auto-apply instead — bai mi mekim sure yu no misim wanpela gutpela wok. 😊",
		QuickReplies: []string{"Set Up Auto-Apply", "Search Jobs"},
	}
}

func (a *Agent) handleCategories(ctx context.Context, session *models.Session, user *models.User, res intent.Result) *Reply {
	cats, err := a.exec.Categories(ctx)
	if err != nil {
		a.logger.Error("categories lookup failed", zap.Error(err))
		return &Reply{Text: responses.Get("error", "generic", nil)}
	}
	if len(cats) == 0 {
		return &Reply{Text: responses.Get("search", "suggestions", nil)}
	}
	var (
		lines []string
		quick []string
	)
	for i, c := range cats {
		lines = append(lines, fmt.Sprintf("• **%s** (%s)", c.Name, naturalCount(c.JobCount, "job")))
		if i < 4 {
			quick = append(quick, c.Name)
		}
	}
	return &Reply{
		Text:         responses.Get("categories", "list", map[string]string{"list": strings.Join(lines, "\n")}),
		QuickReplies: quick,
	}
}

func (a *Agent) handleCompanies(ctx context.Context, session *models.Session, user *models.User, res intent.Result) *Reply {
	return &Reply{
		Text:         "We have employers across PNG — from big companies to local businesses. 🏢\n\nBrowse them at [Companies](/companies), or tell me a company name and I'll look them up!",
		QuickReplies: []string{"Browse Companies", "Who's Hiring?", "Search Jobs"},
	}
}

func (a *Agent) handlePricing(ctx context.Context, session *models.Session, user *models.User, res intent.Result) *Reply {
	return &Reply{
		Text:         responses.Get("pricing", "info", nil),
		QuickReplies: []string{"Register Free", "Post a Job", "Contact Sales"},
	}
}

func (a *Agent) handleRegisterHelp(ctx context.Context, session *models.Session, user *models.User, res intent.Result) *Reply {
	return &Reply{
		Text:         responses.Get("register", "guide", nil),
		QuickReplies: []string{"I'm a Jobseeker", "I'm an Employer"},
	}
}

func (a *Agent) handleLoginHelp(ctx context.Context, session *models.Session, user *models.User, res intent.Result) *Reply {
	return &Reply{
		Text:         responses.Get("login", "guide", nil),
		QuickReplies: []string{"Reset Password", "Register Instead"},
	}
}

func (a *Agent) handleMessages(ctx context.Context, session *models.Session, user *models.User, res intent.Result) *Reply {
	if user == nil {
		return &Reply{Text: responses.Get("needs_login", "default", nil)}
	}
	return &Reply{
		Text:         fmt.Sprintf("Check your inbox at [Messages](/dashboard/%s/messages) — when employers or jobseekers reach out, you'll see them there. 📬", user.Role),
		QuickReplies: []string{"My Applications", "Search Jobs"},
	}
}

func (a *Agent) handleNotifications(ctx context.Context, session *models.Session, user *models.User, res intent.Result) *Reply {
	if user == nil {
		return &Reply{Text: responses.Get("needs_login", "default", nil)}
	}
	notifs, err := a.exec.Notifications(ctx, user.ID, 5)
	if err != nil {
		a.logger.Error("notifications lookup failed", zap.Int64("user_id", user.ID), zap.Error(err))
		return &Reply{Text: responses.Get("error", "generic", nil)}
	}
	if len(notifs) == 0 {
		return &Reply{Text: "No notifications — you're all caught up! Isi tasol. ✨"}
	}
	unread := 0
	var lines []string
	for _, n := range notifs {
		prefix := ""
		if !n.Read {
			unread++
			prefix = "🔴 "
		}
		lines = append(lines, fmt.Sprintf("%s%s: %s", prefix, n.Title, n.Message))
	}
	return &Reply{
		Text:         fmt.Sprintf("🔔 Notifications (%s):\n\n%s", naturalCount(unread, "unread notification"), strings.Join(lines, "\n")),
		QuickReplies: []string{"My Applications", "Search Jobs"},
	}
}

func (a *Agent) handleInterviews(ctx context.Context, session *models.Session, user *models.User, res intent.Result) *Reply {
	if user == nil {
		return &Reply{Text: responses.Get("needs_login", "default", nil)}
	}
	return &Reply{
		Text:         fmt.Sprintf("Check your scheduled interviews in your [dashboard](/dashboard/%s/interviews). 📅\n\nGood luck — prepare well and be yourself. Yu ken mekim!", user.Role),
		QuickReplies: []string{"My Applications", "Update Profile"},
	}
}

func (a *Agent) handleOffers(ctx context.Context, session *models.Session, user *models.User, res intent.Result) *Reply {
	if user == nil {
		return &Reply{Text: responses.Get("needs_login", "default", nil)}
	}
	return &Reply{
		Text:         "Check your [offer letters](/dashboard/jobseeker/offers) in the dashboard. 📬\n\nIf you've received an offer — congratulations! Em gutpela tru! 🎉",
		QuickReplies: []string{"My Applications", "Search More Jobs"},
	}
}

func (a *Agent) handleViewFeatures(ctx context.Context, session *models.Session, user *models.User, res intent.Result) *Reply {
	return &Reply{
		Text:         "You can see what people are asking for on the [feature board](/features). Got an idea of your own? Tokim mi — I'll pass it straight to the team! 💡",
		QuickReplies: []string{"Suggest a Feature", "Search Jobs"},
	}
}

func (a *Agent) handleCelebration(ctx context.Context, session *models.Session, user *models.User, res intent.Result) *Reply {
	return &Reply{Text: responses.Pick(
		"That's AMAZING news! 🎉🎊 Congratulations!! I'm so happy for you! All that effort paid off. Yu mekim gutpela wok! You deserve it!",
		"CONGRATULATIONS!! 🎉 That's wonderful — I knew you'd find the right fit! Amamas tru! Best of luck in your new role! 🌟",
		"Yes!! 🙌🎉 Em nau! That's what I love to hear! You did it! Wishing you all the best in your new position!",
	)}
}

func (a *Agent) handleStruggling(ctx context.Context, session *models.Session, user *models.User, res intent.Result) *Reply {
	return &Reply{
		Text: responses.Pick(
			"I hear you — job searching can be really tough, especially when it takes longer than expected. But you're doing the right thing by keeping at it. 💪 Yu no ken givap!\n\nLet me help make it easier. I can:\n• Search for jobs matching your skills\n• Set up auto-apply so I apply for you automatically\n• Help polish your profile to stand out\n\nWhat sounds good?",
			"Don't give up — the right opportunity is out there. Bai em i kam! Let me help you find it. 💪\n\nWant me to search for new openings right now, set up alerts, or review your profile? Yumi wok bung — we'll get through this together!",
		),
		QuickReplies: []string{"Search Jobs", "Set Up Auto-Apply", "Update My Profile"},
	}
}

func (a *Agent) handleFAQ(ctx context.Context, session *models.Session, user *models.User, res intent.Result) *Reply {
	return &Reply{
		Text:         "Check our [FAQ page](/faq) for common questions, or ask me directly — I might know the answer! 😊\n\nMi save planti samting bilong WantokJobs, so just askim!",
		QuickReplies: []string{"How Does It Work?", "Is It Free?", "Contact Support"},
	}
}

func (a *Agent) handleAnalytics(ctx context.Context, session *models.Session, user *models.User, res intent.Result) *Reply {
	if user == nil {
		return &Reply{Text: responses.Get("needs_login", "default", nil)}
	}
	return &Reply{
		Text:         "View your [analytics dashboard](/dashboard/employer/analytics) for detailed stats on views, applications, and performance. 📊",
		QuickReplies: []string{"My Jobs", "Post a Job"},
	}
}

func (a *Agent) handleCredits(ctx context.Context, session *models.Session, user *models.User, res intent.Result) *Reply {
	if user == nil {
		return &Reply{Text: responses.Get("needs_login", "default", nil)}
	}
	balance, err := a.exec.CreditBalance(ctx, user.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &Reply{
				Text:         "No credit balance found. Check [Pricing](/pricing) for available packages — we've got options for every budget! 💰",
				QuickReplies: []string{"View Pricing", "Contact Sales"},
			}
		}
		a.logger.Error("credit balance lookup failed", zap.Int64("user_id", user.ID), zap.Error(err))
		return &Reply{Text: responses.Get("error", "generic", nil)}
	}
	return &Reply{
		Text: fmt.Sprintf("💰 Credit Balance:\n\n• Job Posts: %d\n• AI Features: %d\n\n[View details](/dashboard/%s/billing)",
			balance.JobPosts, balance.AIFeatures, user.Role),
		QuickReplies: []string{"Buy More Credits", "Post a Job"},
	}
}

func (a *Agent) handleUnknown(ctx context.Context, session *models.Session, user *models.User, res intent.Result) *Reply {
	if user != nil {
		name := firstName(user)
		if name == "" {
			name = "there"
		}
		return &Reply{
			Text: fmt.Sprintf("Sori %s, mi no klia long dispela. But no worries — I can help with:\n\n🔍 Finding jobs — just tell me what you're looking for\n👤 Your profile — I'll update it for you through chat\n📄 Your CV — I'll build it from scratch\n📨 Applying — I can apply to jobs for you\n💰 Pricing — I'll explain how it works\n\nJust tell me in your own words what you need — tokim mi tasol!", name),
			QuickReplies: []string{"Search Jobs", "My Profile", "My Applications", "Help"},
		}
	}
	return &Reply{
		Text:         "Hmm, mi no klia long dispela — but no worries! Here's what I can do:\n\n🔍 **Find jobs** — tell me what you're looking for\n📂 **Browse by category** — mining, health, IT, and more\n💰 **Pricing** — it's free for job seekers!\n📝 **Sign up** — I'll walk you through it\n\nWhat would you like to do?",
		QuickReplies: []string{"Search Jobs", "Browse Categories", "Register", "Pricing"},
	}
}

// ─── Search keyword derivation ───────────────────────────

var searchStopwords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"find", "search", "show", "list", "browse", "looking", "look", "lukim",
		"me", "my", "i", "im", "mi", "yu", "you", "can", "please", "want",
		"need", "laik", "painim", "any", "some", "a", "an", "the", "for",
		"in", "at", "on", "long", "near", "around", "job", "jobs", "wok",
		"work", "position", "positions", "opening", "openings", "role",
		"roles", "vacancy", "vacancies", "available", "open", "hiring",
		"paying", "pay", "salary", "to", "and", "or", "with", "what",
		"whats", "is", "are", "there", "new",
	} {
		searchStopwords[w] = struct{}{}
	}
}

var (
	amountTokenRe  = regexp.MustCompile(`(?i)\bk?\s*\d[\d,]*\b`)
	jobTypeTokenRe = regexp.MustCompile(`(?i)\b(full[\s-]?time|part[\s-]?time|contract|casual)\b`)
)

// searchTerms reduces the raw message to the keywords worth matching
// against postings: location, job type, salary and filler words are
// already captured as typed filters.
func searchTerms(p intent.Params) []string {
	lower := strings.ToLower(p.Text)
	if p.Location != "" {
		lower = strings.ReplaceAll(lower, p.Location, " ")
	}
	lower = jobTypeTokenRe.ReplaceAllString(lower, " ")
	lower = amountTokenRe.ReplaceAllString(lower, " ")

	var terms []string
	for _, tok := range strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}) {
		if len(tok) < 2 {
			continue
		}
		if _, skip := searchStopwords[tok]; skip {
			continue
		}
		terms = append(terms, tok)
	}
	return terms
}
