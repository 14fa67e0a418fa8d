package models

import "time"

// User roles.
const (
	RoleJobseeker = "jobseeker"
	RoleEmployer  = "employer"
)

// User represents an authenticated account on the platform.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is the durable conversational context for one identity or
// channel address. At most one flow may be active per session.
type Session struct {
	ID          int64     `json:"id"`
	UserID      *int64    `json:"user_id,omitempty"`
	Channel     string    `json:"channel"`
	Token       string    `json:"token"`
	CurrentFlow string    `json:"current_flow,omitempty"`
	FlowState   []byte    `json:"flow_state,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Message roles.
const (
	RoleMessageUser   = "user"
	RoleMessageAgent  = "jean"
	RoleMessageSystem = "system"
)

// Message is an append-only transcript record owned by a session.
type Message struct {
	ID        string       `json:"id"`
	SessionID int64        `json:"session_id"`
	Role      string       `json:"role"`
	Content   string       `json:"content"`
	Meta      *MessageMeta `json:"meta,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// MessageMeta carries optional per-message annotations.
type MessageMeta struct {
	QuickReplies []string `json:"quick_replies,omitempty"`
	Intent       string   `json:"intent,omitempty"`
}

// JobseekerProfile holds a jobseeker's public profile fields.
type JobseekerProfile struct {
	UserID           int64            `json:"user_id"`
	Headline         string           `json:"headline,omitempty"`
	Location         string           `json:"location,omitempty"`
	Phone            string           `json:"phone,omitempty"`
	Bio              string           `json:"bio,omitempty"`
	Skills           []string         `json:"skills,omitempty"`
	DesiredJobType   string           `json:"desired_job_type,omitempty"`
	DesiredSalaryMin *int             `json:"desired_salary_min,omitempty"`
	DesiredSalaryMax *int             `json:"desired_salary_max,omitempty"`
	WorkHistory      []WorkEntry      `json:"work_history,omitempty"`
	Education        []EducationEntry `json:"education,omitempty"`
	Certifications   string           `json:"certifications,omitempty"`
	CVURL            string           `json:"cv_url,omitempty"`
	Complete         bool             `json:"complete"`
}

// WorkEntry is one job in a jobseeker's work history.
type WorkEntry struct {
	Title       string `json:"title,omitempty" mapstructure:"title"`
	Company     string `json:"company,omitempty" mapstructure:"company"`
	StartDate   string `json:"start_date,omitempty" mapstructure:"start_date"`
	EndDate     string `json:"end_date,omitempty" mapstructure:"end_date"`
	Description string `json:"description,omitempty" mapstructure:"description"`
}

// EducationEntry is one qualification in a jobseeker's education history.
type EducationEntry struct {
	Degree      string `json:"degree,omitempty" mapstructure:"degree"`
	Institution string `json:"institution,omitempty" mapstructure:"institution"`
	Year        string `json:"year,omitempty" mapstructure:"year"`
}

// EmployerProfile holds an employer's company profile fields.
type EmployerProfile struct {
	UserID      int64  `json:"user_id"`
	CompanyName string `json:"company_name,omitempty"`
	Industry    string `json:"industry,omitempty"`
	CompanySize string `json:"company_size,omitempty"`
	Location    string `json:"location,omitempty"`
	Website     string `json:"website,omitempty"`
	Description string `json:"description,omitempty"`
}

// Job statuses.
const (
	JobActive      = "active"
	JobClosed      = "closed"
	JobStatusDraft = "draft"
)

// Job is a job posting.
type Job struct {
	ID              int64     `json:"id"`
	EmployerID      int64     `json:"employer_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	Requirements    string    `json:"requirements,omitempty"`
	Location        string    `json:"location,omitempty"`
	JobType         string    `json:"job_type,omitempty"`
	ExperienceLevel string    `json:"experience_level,omitempty"`
	CategorySlug    string    `json:"category_slug,omitempty"`
	Skills          []string  `json:"skills,omitempty"`
	SalaryMin       *int      `json:"salary_min,omitempty"`
	SalaryMax       *int      `json:"salary_max,omitempty"`
	Deadline        string    `json:"deadline,omitempty"`
	CompanyName     string    `json:"company_name,omitempty"`
	Status          string    `json:"status"`
	ApplicantCount  int       `json:"applicant_count,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Application statuses.
const (
	ApplicationPending     = "pending"
	ApplicationShortlisted = "shortlisted"
	ApplicationRejected    = "rejected"
	ApplicationHired       = "hired"
)

// Application records one jobseeker applying to one job.
type Application struct {
	ID          int64     `json:"id"`
	JobID       int64     `json:"job_id"`
	JobseekerID int64     `json:"jobseeker_id"`
	Note        string    `json:"note,omitempty"`
	Status      string    `json:"status"`
	JobTitle    string    `json:"job_title,omitempty"`
	CompanyName string    `json:"company_name,omitempty"`
	AppliedAt   time.Time `json:"applied_at"`
}

// Category groups jobs by industry.
type Category struct {
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	JobCount int    `json:"job_count"`
}

// AutoApplyRule is a standing jobseeker-authored filter that authorises
// the agent to apply to matching postings automatically.
type AutoApplyRule struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	Keywords   []string   `json:"keywords,omitempty"`
	Categories []string   `json:"categories,omitempty"`
	Locations  []string   `json:"locations,omitempty"`
	JobTypes   []string   `json:"job_types,omitempty"`
	MinSalary  *int       `json:"min_salary,omitempty"`
	MaxDaily   int        `json:"max_daily"`
	Active     bool       `json:"active"`
	LastRunAt  *time.Time `json:"last_run_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Auto-apply log outcomes.
const (
	AutoApplyApplied = "applied"
	AutoApplyFailed  = "failed"
	AutoApplySkipped = "skipped"
)

// AutoApplyLog records one attempt for one (rule, job) pair. The storage
// layer guarantees at most one entry per pair; a posting is never
// re-evaluated for a rule once logged, regardless of outcome.
type AutoApplyLog struct {
	ID            int64     `json:"id"`
	RuleID        int64     `json:"rule_id"`
	UserID        int64     `json:"user_id"`
	JobID         int64     `json:"job_id"`
	ApplicationID *int64    `json:"application_id,omitempty"`
	MatchScore    int       `json:"match_score"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// Auto-post modes for employer preferences.
const (
	AutoPostReview = "review"
	AutoPostAuto   = "auto"
	AutoPostBatch  = "batch"
)

// EmployerPrefs controls how the agent handles job posting automation
// for one employer.
type EmployerPrefs struct {
	UserID          int64  `json:"user_id"`
	AutoPost        string `json:"auto_post"`
	DefaultLocation string `json:"default_location,omitempty"`
	DefaultCategory string `json:"default_category,omitempty"`
	NotifyOnApply   bool   `json:"notify_on_application"`
}

// JobDraft is an unpublished job awaiting employer approval.
type JobDraft struct {
	ID             int64     `json:"id"`
	EmployerID     int64     `json:"employer_id"`
	SessionID      int64     `json:"session_id,omitempty"`
	Job            Job       `json:"job"`
	SourceFilename string    `json:"source_filename,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Notification is a dashboard notification for a user.
type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Link      string    `json:"link,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// ContactRequest is a support inquiry submitted through the agent.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// FeatureRequest is a user-suggested improvement.
type FeatureRequest struct {
	ID          int64     `json:"id"`
	UserID      *int64    `json:"user_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreditBalance is a user's prepaid balance, read-only for the agent.
type CreditBalance struct {
	JobPosts   int `json:"job_posts"`
	AIFeatures int `json:"ai_features"`
}

// ChannelLink maps a messaging-channel address (e.g. a Telegram chat id)
// to a platform user, established through a verification code.
type ChannelLink struct {
	Channel   string    `json:"channel"`
	Address   string    `json:"address"`
	UserID    int64     `json:"user_id"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
}
