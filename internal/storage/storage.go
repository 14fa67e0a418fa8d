package storage

import (
	"context"
	"errors"
	"time"

	"github.com/wantokjobs/jean/internal/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateLog is returned when an auto-apply log entry already exists
// for the same (rule, job) pair.
var ErrDuplicateLog = errors.New("auto-apply log entry already exists")

// SessionTTL is how long a session stays live after its last activity.
// A message arriving later than this starts a fresh session; the old
// transcript remains queryable under the old session id.
const SessionTTL = 2 * time.Hour

// JobFilters narrows a job search. Zero-value fields are ignored.
type JobFilters struct {
	Search      string
	Keywords    []string
	Categories  []string
	Locations   []string
	JobTypes    []string
	MinSalary   *int
	ExcludeUser int64 // exclude jobs this jobseeker already applied to
	Limit       int
}

type SessionStore interface {
	// LatestSessionByUser returns the most recently updated session for
	// the user, or ErrNotFound.
	LatestSessionByUser(ctx context.Context, userID int64) (*models.Session, error)
	LatestSessionByToken(ctx context.Context, token string) (*models.Session, error)
	CreateSession(ctx context.Context, s *models.Session) error
	// SetSessionFlow persists the active flow name and serialized state.
	SetSessionFlow(ctx context.Context, sessionID int64, flow string, state []byte) error
	ClearSessionFlow(ctx context.Context, sessionID int64) error
	TouchSession(ctx context.Context, sessionID int64) error
}

type MessageStore interface {
	AppendMessage(ctx context.Context, m *models.Message) error
	SessionMessages(ctx context.Context, sessionID int64, limit int) ([]*models.Message, error)
}

type UserStore interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type ProfileStore interface {
	GetJobseekerProfile(ctx context.Context, userID int64) (*models.JobseekerProfile, error)
	UpdateJobseekerProfile(ctx context.Context, p *models.JobseekerProfile) error
	GetEmployerProfile(ctx context.Context, userID int64) (*models.EmployerProfile, error)
	UpdateEmployerProfile(ctx context.Context, p *models.EmployerProfile) error
}

type JobStore interface {
	SearchJobs(ctx context.Context, f JobFilters) ([]*models.Job, int, error)
	GetJob(ctx context.Context, id int64) (*models.Job, error)
	CreateJob(ctx context.Context, j *models.Job) (int64, error)
	EmployerJobs(ctx context.Context, employerID int64) ([]*models.Job, error)
	Categories(ctx context.Context) ([]*models.Category, error)
}

type ApplicationStore interface {
	CreateApplication(ctx context.Context, a *models.Application) (int64, error)
	HasApplied(ctx context.Context, jobseekerID, jobID int64) (bool, error)
	UserApplications(ctx context.Context, jobseekerID int64) ([]*models.Application, error)
	JobApplicants(ctx context.Context, jobID int64) ([]*models.Application, error)
}

type AutoApplyStore interface {
	ActiveRules(ctx context.Context) ([]*models.AutoApplyRule, error)
	UserRules(ctx context.Context, userID int64) ([]*models.AutoApplyRule, error)
	CreateRule(ctx context.Context, r *models.AutoApplyRule) (int64, error)
	SetRulesActive(ctx context.Context, userID int64, active bool) error
	TouchRuleRun(ctx context.Context, ruleID int64, at time.Time) error
	// AppendAutoApplyLog records one attempt. Implementations must reject
	// a second entry for the same (rule, job) pair.
	AppendAutoApplyLog(ctx context.Context, l *models.AutoApplyLog) error
	HasAutoApplyLog(ctx context.Context, ruleID, jobID int64) (bool, error)
	CountAppliedSince(ctx context.Context, ruleID int64, since time.Time) (int, error)
}

type SettingsStore interface {
	Setting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

type NotificationStore interface {
	AddNotification(ctx context.Context, n *models.Notification) error
	Notifications(ctx context.Context, userID int64, limit int) ([]*models.Notification, error)
}

type EngagementStore interface {
	SaveJob(ctx context.Context, userID, jobID int64) (bool, error)
	SavedJobs(ctx context.Context, userID int64) ([]*models.Job, error)
	SubmitContact(ctx context.Context, c *models.ContactRequest) error
	CreateFeatureRequest(ctx context.Context, f *models.FeatureRequest) (int64, error)
	CreditBalance(ctx context.Context, userID int64) (*models.CreditBalance, error)
}

type PrefsStore interface {
	EmployerPrefs(ctx context.Context, userID int64) (*models.EmployerPrefs, error)
	UpdateEmployerPrefs(ctx context.Context, p *models.EmployerPrefs) error
}

type DraftStore interface {
	CreateDraft(ctx context.Context, d *models.JobDraft) (int64, error)
	GetDraft(ctx context.Context, id int64) (*models.JobDraft, error)
	DeleteDraft(ctx context.Context, id int64) error
}

type ChannelLinkStore interface {
	ChannelLink(ctx context.Context, channel, address string) (*models.ChannelLink, error)
	// UserByVerificationCode resolves a pending link code issued from the
	// user's dashboard.
	UserByVerificationCode(ctx context.Context, code string) (*models.User, error)
	LinkChannelAddress(ctx context.Context, link *models.ChannelLink) error
}

// Storage is the full persistence surface shared by the agent, the
// action executor and the auto-apply engine.
type Storage interface {
	SessionStore
	MessageStore
	UserStore
	ProfileStore
	JobStore
	ApplicationStore
	AutoApplyStore
	SettingsStore
	NotificationStore
	EngagementStore
	PrefsStore
	DraftStore
	ChannelLinkStore
	Close() error
}
