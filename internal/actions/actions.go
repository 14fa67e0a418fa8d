// Package actions is the agent's only write path into the platform.
// Every operation the conversational layer can perform on behalf of a
// user goes through the Executor, which enforces ownership and
// duplicate checks the chat layer cannot.
package actions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/wantokjobs/jean/internal/models"
	"github.com/wantokjobs/jean/internal/storage"
)

var (
	ErrAlreadyApplied = errors.New("already applied to this job")
	ErrNotYourJob     = errors.New("job belongs to another employer")
	ErrJobClosed      = errors.New("job is no longer active")
	ErrInvalidInput   = errors.New("invalid input")
)

// Profile bundles a user with their role-specific profile. Exactly one
// of Jobseeker/Employer is set.
type Profile struct {
	User      *models.User
	Jobseeker *models.JobseekerProfile
	Employer  *models.EmployerProfile
}

// Executor performs platform operations for the agent.
type Executor interface {
	SearchPostings(ctx context.Context, f storage.JobFilters) ([]*models.Job, int, error)
	GetPosting(ctx context.Context, id int64) (*models.Job, error)
	Categories(ctx context.Context) ([]*models.Category, error)

	GetProfile(ctx context.Context, userID int64) (*Profile, error)
	UpdateJobseekerProfile(ctx context.Context, userID int64, patch *JobseekerPatch) (*models.JobseekerProfile, error)
	UpdateEmployerProfile(ctx context.Context, userID int64, patch *EmployerPatch) (*models.EmployerProfile, error)

	Apply(ctx context.Context, userID, jobID int64, note string) (*models.Application, error)
	Applications(ctx context.Context, userID int64) ([]*models.Application, error)

	PostListing(ctx context.Context, employerID int64, job *models.Job) (int64, error)
	EmployerListings(ctx context.Context, employerID int64) ([]*models.Job, error)
	Applicants(ctx context.Context, employerID, jobID int64) ([]*models.Application, error)
	CreateDraft(ctx context.Context, employerID, sessionID int64, job *models.Job, sourceFilename string) (int64, error)
	ApproveDraft(ctx context.Context, employerID, draftID int64) (int64, error)

	CreateRule(ctx context.Context, userID int64, rule *models.AutoApplyRule) (int64, error)
	Rules(ctx context.Context, userID int64) ([]*models.AutoApplyRule, error)
	SetRulesActive(ctx context.Context, userID int64, active bool) error

	EmployerPrefs(ctx context.Context, userID int64) (*models.EmployerPrefs, error)
	UpdateEmployerPrefs(ctx context.Context, userID int64, patch *PrefsPatch) (*models.EmployerPrefs, error)

	SaveJob(ctx context.Context, userID, jobID int64) (bool, error)
	SavedJobs(ctx context.Context, userID int64) ([]*models.Job, error)

	Notify(ctx context.Context, userID int64, typ, title, message, link string) error
	Notifications(ctx context.Context, userID int64, limit int) ([]*models.Notification, error)

	CreditBalance(ctx context.Context, userID int64) (*models.CreditBalance, error)
	SubmitContact(ctx context.Context, c *models.ContactRequest) error
	CreateFeatureRequest(ctx context.Context, userID *int64, title, description, category string) (int64, error)

	Setting(ctx context.Context, key string) (string, error)
	FeatureEnabled(ctx context.Context, key string) bool
}

type executor struct {
	store  storage.Storage
	logger *zap.Logger
}

// New returns a store-backed Executor.
func New(store storage.Storage, logger *zap.Logger) Executor {
	return &executor{store: store, logger: logger}
}

func (e *executor) SearchPostings(ctx context.Context, f storage.JobFilters) ([]*models.Job, int, error) {
	return e.store.SearchJobs(ctx, f)
}

func (e *executor) GetPosting(ctx context.Context, id int64) (*models.Job, error) {
	return e.store.GetJob(ctx, id)
}

func (e *executor) Categories(ctx context.Context) ([]*models.Category, error) {
	return e.store.Categories(ctx)
}

func (e *executor) GetProfile(ctx context.Context, userID int64) (*Profile, error) {
	user, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	p := &Profile{User: user}
	switch user.Role {
	case models.RoleJobseeker:
		p.Jobseeker, err = e.store.GetJobseekerProfile(ctx, userID)
	case models.RoleEmployer:
		p.Employer, err = e.store.GetEmployerProfile(ctx, userID)
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	return p, nil
}

func (e *executor) UpdateJobseekerProfile(ctx context.Context, userID int64, patch *JobseekerPatch) (*models.JobseekerProfile, error) {
	current, err := e.store.GetJobseekerProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	patch.applyTo(current)
	// Completeness is derived, never user-set.
	current.Complete = current.Phone != "" && current.Location != "" &&
		current.Bio != "" && len(current.Skills) > 0
	if err := e.store.UpdateJobseekerProfile(ctx, current); err != nil {
		return nil, err
	}
	return current, nil
}

func (e *executor) UpdateEmployerProfile(ctx context.Context, userID int64, patch *EmployerPatch) (*models.EmployerProfile, error) {
	current, err := e.store.GetEmployerProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	patch.applyTo(current)
	if err := e.store.UpdateEmployerProfile(ctx, current); err != nil {
		return nil, err
	}
	return current, nil
}

func (e *executor) Apply(ctx context.Context, userID, jobID int64, note string) (*models.Application, error) {
	applied, err := e.store.HasApplied(ctx, userID, jobID)
	if err != nil {
		return nil, err
	}
	if applied {
		return nil, ErrAlreadyApplied
	}

	job, err := e.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != models.JobActive {
		return nil, ErrJobClosed
	}

	app := &models.Application{
		JobID:       jobID,
		JobseekerID: userID,
		Note:        note,
		Status:      models.ApplicationPending,
		JobTitle:    job.Title,
		CompanyName: job.CompanyName,
	}
	if _, err := e.store.CreateApplication(ctx, app); err != nil {
		return nil, err
	}

	// A failed notification never blocks the application itself.
	name := "Someone"
	if user, uerr := e.store.GetUser(ctx, userID); uerr == nil && user.Name != "" {
		name = user.Name
	}
	if nerr := e.Notify(ctx, job.EmployerID, "new_application", "New Application",
		fmt.Sprintf("%s applied for %s", name, job.Title), "/dashboard/employer/applicants"); nerr != nil {
		e.logger.Warn("employer notification failed",
			zap.Int64("job_id", jobID),
			zap.Error(nerr))
	}
	return app, nil
}

func (e *executor) Applications(ctx context.Context, userID int64) ([]*models.Application, error) {
	return e.store.UserApplications(ctx, userID)
}

func (e *executor) PostListing(ctx context.Context, employerID int64, job *models.Job) (int64, error) {
	job.EmployerID = employerID
	if job.Status == "" {
		job.Status = models.JobActive
	}
	if job.CompanyName == "" {
		if prof, err := e.store.GetEmployerProfile(ctx, employerID); err == nil {
			job.CompanyName = prof.CompanyName
		}
	}
	return e.store.CreateJob(ctx, job)
}

func (e *executor) EmployerListings(ctx context.Context, employerID int64) ([]*models.Job, error) {
	return e.store.EmployerJobs(ctx, employerID)
}

func (e *executor) Applicants(ctx context.Context, employerID, jobID int64) ([]*models.Application, error) {
	job, err := e.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.EmployerID != employerID {
		return nil, ErrNotYourJob
	}
	return e.store.JobApplicants(ctx, jobID)
}

func (e *executor) CreateDraft(ctx context.Context, employerID, sessionID int64, job *models.Job, sourceFilename string) (int64, error) {
	return e.store.CreateDraft(ctx, &models.JobDraft{
		EmployerID:     employerID,
		SessionID:      sessionID,
		Job:            *job,
		SourceFilename: sourceFilename,
	})
}

func (e *executor) ApproveDraft(ctx context.Context, employerID, draftID int64) (int64, error) {
	draft, err := e.store.GetDraft(ctx, draftID)
	if err != nil {
		return 0, err
	}
	if draft.EmployerID != employerID {
		return 0, ErrNotYourJob
	}
	jobID, err := e.PostListing(ctx, employerID, &draft.Job)
	if err != nil {
		return 0, err
	}
	if derr := e.store.DeleteDraft(ctx, draftID); derr != nil {
		e.logger.Warn("posted draft left behind", zap.Int64("draft_id", draftID), zap.Error(derr))
	}
	return jobID, nil
}

func (e *executor) CreateRule(ctx context.Context, userID int64, rule *models.AutoApplyRule) (int64, error) {
	rule.UserID = userID
	rule.Active = true
	if rule.MaxDaily < 1 || rule.MaxDaily > 10 {
		rule.MaxDaily = 5
	}
	return e.store.CreateRule(ctx, rule)
}

func (e *executor) Rules(ctx context.Context, userID int64) ([]*models.AutoApplyRule, error) {
	return e.store.UserRules(ctx, userID)
}

func (e *executor) SetRulesActive(ctx context.Context, userID int64, active bool) error {
	return e.store.SetRulesActive(ctx, userID, active)
}

func (e *executor) EmployerPrefs(ctx context.Context, userID int64) (*models.EmployerPrefs, error) {
	return e.store.EmployerPrefs(ctx, userID)
}

func (e *executor) UpdateEmployerPrefs(ctx context.Context, userID int64, patch *PrefsPatch) (*models.EmployerPrefs, error) {
	current, err := e.store.EmployerPrefs(ctx, userID)
	if err != nil {
		return nil, err
	}
	current.UserID = userID
	patch.applyTo(current)
	if err := e.store.UpdateEmployerPrefs(ctx, current); err != nil {
		return nil, err
	}
	return current, nil
}

func (e *executor) SaveJob(ctx context.Context, userID, jobID int64) (bool, error) {
	return e.store.SaveJob(ctx, userID, jobID)
}

func (e *executor) SavedJobs(ctx context.Context, userID int64) ([]*models.Job, error) {
	return e.store.SavedJobs(ctx, userID)
}

func (e *executor) Notify(ctx context.Context, userID int64, typ, title, message, link string) error {
	return e.store.AddNotification(ctx, &models.Notification{
		UserID:  userID,
		Type:    typ,
		Title:   title,
		Message: message,
		Link:    link,
	})
}

func (e *executor) Notifications(ctx context.Context, userID int64, limit int) ([]*models.Notification, error) {
	return e.store.Notifications(ctx, userID, limit)
}

func (e *executor) CreditBalance(ctx context.Context, userID int64) (*models.CreditBalance, error) {
	return e.store.CreditBalance(ctx, userID)
}

func (e *executor) SubmitContact(ctx context.Context, c *models.ContactRequest) error {
	if c.Subject == "" {
		c.Subject = "Chat Support"
	}
	return e.store.SubmitContact(ctx, c)
}

func (e *executor) CreateFeatureRequest(ctx context.Context, userID *int64, title, description, category string) (int64, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	switch {
	case len(title) < 5:
		return 0, fmt.Errorf("%w: title must be at least 5 characters", ErrInvalidInput)
	case len(title) > 200:
		return 0, fmt.Errorf("%w: title is too long", ErrInvalidInput)
	case len(description) < 20:
		return 0, fmt.Errorf("%w: description must be at least 20 characters", ErrInvalidInput)
	case len(description) > 2000:
		return 0, fmt.Errorf("%w: description is too long", ErrInvalidInput)
	}
	if category == "" {
		category = "general"
	}
	return e.store.CreateFeatureRequest(ctx, &models.FeatureRequest{
		UserID:      userID,
		Title:       title,
		Description: description,
		Category:    strings.ToLower(category),
	})
}

func (e *executor) Setting(ctx context.Context, key string) (string, error) {
	return e.store.Setting(ctx, key)
}

// FeatureEnabled reports whether an admin-toggleable feature is on.
// Toggles default to on: only an explicit "false"/"0" setting disables.
func (e *executor) FeatureEnabled(ctx context.Context, key string) bool {
	v, err := e.store.Setting(ctx, key)
	if err != nil {
		return true
	}
	return v != "false" && v != "0"
}
