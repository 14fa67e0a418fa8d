package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wantokjobs/jean/internal/models"
)

// timeLayout is how timestamps are stored in both dialects. RFC 3339 in
// UTC sorts lexically, so ORDER BY and range comparisons work as TEXT.
const timeLayout = time.RFC3339Nano

// dialect captures the few places Postgres and SQLite SQL diverge.
type dialect struct {
	name        string
	positional  bool // $1-style placeholders
	uniqueViolation func(err error) bool
}

// SQLStorage implements Storage over database/sql. Queries are written
// with ? placeholders and rebound per dialect.
type SQLStorage struct {
	db *sql.DB
	d  dialect
}

func (s *SQLStorage) Close() error {
	return s.db.Close()
}

// rebind converts ? placeholders to $n when the dialect needs it.
func (s *SQLStorage) rebind(query string) string {
	if !s.d.positional {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStorage) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.rebind(query), args...)
}

func (s *SQLStorage) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.rebind(query), args...)
}

func (s *SQLStorage) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.rebind(query), args...)
}

// insertID runs an INSERT and returns the generated id.
func (s *SQLStorage) insertID(ctx context.Context, query string, args ...any) (int64, error) {
	if s.d.positional {
		var id int64
		err := s.queryRow(ctx, query+" RETURNING id", args...).Scan(&id)
		return id, err
	}
	res, err := s.exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func fmtTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func marshalJSON(v any) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func unmarshalStrings(s sql.NullString) []string {
	if !s.Valid || s.String == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s.String), &out); err != nil {
		return nil
	}
	return out
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ─── Sessions ────────────────────────────────────────────

const sessionCols = "id, user_id, channel, token, current_flow, flow_state, created_at, updated_at"

func scanSession(row interface{ Scan(...any) error }) (*models.Session, error) {
	var (
		sess      models.Session
		userID    sql.NullInt64
		flow      sql.NullString
		state     sql.NullString
		created   string
		updated   string
	)
	if err := row.Scan(&sess.ID, &userID, &sess.Channel, &sess.Token, &flow, &state, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if userID.Valid {
		id := userID.Int64
		sess.UserID = &id
	}
	sess.CurrentFlow = flow.String
	if state.Valid && state.String != "" {
		sess.FlowState = []byte(state.String)
	}
	sess.CreatedAt = parseTime(created)
	sess.UpdatedAt = parseTime(updated)
	return &sess, nil
}

func (s *SQLStorage) LatestSessionByUser(ctx context.Context, userID int64) (*models.Session, error) {
	row := s.queryRow(ctx,
		"SELECT "+sessionCols+" FROM agent_sessions WHERE user_id = ? ORDER BY updated_at DESC LIMIT 1", userID)
	return scanSession(row)
}

func (s *SQLStorage) LatestSessionByToken(ctx context.Context, token string) (*models.Session, error) {
	row := s.queryRow(ctx,
		"SELECT "+sessionCols+" FROM agent_sessions WHERE token = ? ORDER BY updated_at DESC LIMIT 1", token)
	return scanSession(row)
}

func (s *SQLStorage) CreateSession(ctx context.Context, sess *models.Session) error {
	now := time.Now()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	if sess.UpdatedAt.IsZero() {
		sess.UpdatedAt = now
	}
	var userID any
	if sess.UserID != nil {
		userID = *sess.UserID
	}
	id, err := s.insertID(ctx, `
		INSERT INTO agent_sessions (user_id, channel, token, current_flow, flow_state, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, sess.Channel, sess.Token, sess.CurrentFlow, string(sess.FlowState),
		fmtTime(sess.CreatedAt), fmtTime(sess.UpdatedAt))
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	sess.ID = id
	return nil
}

func (s *SQLStorage) SetSessionFlow(ctx context.Context, sessionID int64, flow string, state []byte) error {
	_, err := s.exec(ctx,
		"UPDATE agent_sessions SET current_flow = ?, flow_state = ?, updated_at = ? WHERE id = ?",
		flow, string(state), fmtTime(time.Now()), sessionID)
	return err
}

func (s *SQLStorage) ClearSessionFlow(ctx context.Context, sessionID int64) error {
	return s.SetSessionFlow(ctx, sessionID, "", nil)
}

func (s *SQLStorage) TouchSession(ctx context.Context, sessionID int64) error {
	_, err := s.exec(ctx, "UPDATE agent_sessions SET updated_at = ? WHERE id = ?",
		fmtTime(time.Now()), sessionID)
	return err
}

// ─── Messages ────────────────────────────────────────────

func (s *SQLStorage) AppendMessage(ctx context.Context, m *models.Message) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	var meta any
	if m.Meta != nil {
		meta = marshalJSON(m.Meta)
	}
	_, err := s.exec(ctx, `
		INSERT INTO agent_messages (id, session_id, role, content, meta, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.SessionID, m.Role, m.Content, meta, fmtTime(m.CreatedAt))
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

func (s *SQLStorage) SessionMessages(ctx context.Context, sessionID int64, limit int) ([]*models.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.query(ctx, `
		SELECT id, session_id, role, content, meta, created_at
		FROM agent_messages WHERE session_id = ?
		ORDER BY created_at DESC LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Message
	for rows.Next() {
		var (
			m       models.Message
			meta    sql.NullString
			created string
		)
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &meta, &created); err != nil {
			return nil, err
		}
		if meta.Valid && meta.String != "" {
			var mm models.MessageMeta
			if json.Unmarshal([]byte(meta.String), &mm) == nil {
				m.Meta = &mm
			}
		}
		m.CreatedAt = parseTime(created)
		out = append(out, &m)
	}
	// Reverse to chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, rows.Err()
}

// ─── Users & profiles ────────────────────────────────────

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var (
		u       models.User
		created string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.CreatedAt = parseTime(created)
	return &u, nil
}

func (s *SQLStorage) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return scanUser(s.queryRow(ctx, "SELECT id, email, name, role, created_at FROM users WHERE id = ?", id))
}

func (s *SQLStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(s.queryRow(ctx, "SELECT id, email, name, role, created_at FROM users WHERE email = ?", email))
}

func (s *SQLStorage) GetJobseekerProfile(ctx context.Context, userID int64) (*models.JobseekerProfile, error) {
	var (
		p          models.JobseekerProfile
		headline   sql.NullString
		location   sql.NullString
		phone      sql.NullString
		bio        sql.NullString
		skills     sql.NullString
		jobType    sql.NullString
		salaryMin  sql.NullInt64
		salaryMax  sql.NullInt64
		work       sql.NullString
		education  sql.NullString
		certs      sql.NullString
		cvURL      sql.NullString
		complete   int
	)
	err := s.queryRow(ctx, `
		SELECT user_id, headline, location, phone, bio, skills, desired_job_type,
		       desired_salary_min, desired_salary_max, work_history, education,
		       certifications, cv_url, complete
		FROM profiles_jobseeker WHERE user_id = ?`, userID).Scan(
		&p.UserID, &headline, &location, &phone, &bio, &skills, &jobType,
		&salaryMin, &salaryMax, &work, &education, &certs, &cvURL, &complete)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Headline = headline.String
	p.Location = location.String
	p.Phone = phone.String
	p.Bio = bio.String
	p.Skills = unmarshalStrings(skills)
	p.DesiredJobType = jobType.String
	p.DesiredSalaryMin = intPtr(salaryMin)
	p.DesiredSalaryMax = intPtr(salaryMax)
	if work.Valid && work.String != "" {
		_ = json.Unmarshal([]byte(work.String), &p.WorkHistory)
	}
	if education.Valid && education.String != "" {
		_ = json.Unmarshal([]byte(education.String), &p.Education)
	}
	p.Certifications = certs.String
	p.CVURL = cvURL.String
	p.Complete = complete != 0
	return &p, nil
}

func (s *SQLStorage) UpdateJobseekerProfile(ctx context.Context, p *models.JobseekerProfile) error {
	_, err := s.exec(ctx, `
		UPDATE profiles_jobseeker SET headline = ?, location = ?, phone = ?, bio = ?,
		       skills = ?, desired_job_type = ?, desired_salary_min = ?, desired_salary_max = ?,
		       work_history = ?, education = ?, certifications = ?, cv_url = ?, complete = ?
		WHERE user_id = ?`,
		p.Headline, p.Location, p.Phone, p.Bio, marshalJSON(p.Skills), p.DesiredJobType,
		nullInt(p.DesiredSalaryMin), nullInt(p.DesiredSalaryMax),
		marshalJSON(p.WorkHistory), marshalJSON(p.Education), p.Certifications, p.CVURL,
		boolToInt(p.Complete), p.UserID)
	if err != nil {
		return fmt.Errorf("update jobseeker profile: %w", err)
	}
	return nil
}

func (s *SQLStorage) GetEmployerProfile(ctx context.Context, userID int64) (*models.EmployerProfile, error) {
	var (
		p        models.EmployerProfile
		name     sql.NullString
		industry sql.NullString
		size     sql.NullString
		location sql.NullString
		website  sql.NullString
		desc     sql.NullString
	)
	err := s.queryRow(ctx, `
		SELECT user_id, company_name, industry, company_size, location, website, description
		FROM profiles_employer WHERE user_id = ?`, userID).Scan(
		&p.UserID, &name, &industry, &size, &location, &website, &desc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.CompanyName = name.String
	p.Industry = industry.String
	p.CompanySize = size.String
	p.Location = location.String
	p.Website = website.String
	p.Description = desc.String
	return &p, nil
}

func (s *SQLStorage) UpdateEmployerProfile(ctx context.Context, p *models.EmployerProfile) error {
	_, err := s.exec(ctx, `
		UPDATE profiles_employer SET company_name = ?, industry = ?, company_size = ?,
		       location = ?, website = ?, description = ?
		WHERE user_id = ?`,
		p.CompanyName, p.Industry, p.CompanySize, p.Location, p.Website, p.Description, p.UserID)
	if err != nil {
		return fmt.Errorf("update employer profile: %w", err)
	}
	return nil
}

// ─── Jobs ────────────────────────────────────────────────

const jobCols = `id, employer_id, title, description, requirements, location, job_type,
	experience_level, category_slug, skills, salary_min, salary_max, deadline,
	company_name, status, created_at`

func scanJob(row interface{ Scan(...any) error }) (*models.Job, error) {
	var (
		j          models.Job
		desc       sql.NullString
		reqs       sql.NullString
		location   sql.NullString
		jobType    sql.NullString
		expLevel   sql.NullString
		category   sql.NullString
		skills     sql.NullString
		salaryMin  sql.NullInt64
		salaryMax  sql.NullInt64
		deadline   sql.NullString
		company    sql.NullString
		created    string
	)
	if err := row.Scan(&j.ID, &j.EmployerID, &j.Title, &desc, &reqs, &location, &jobType,
		&expLevel, &category, &skills, &salaryMin, &salaryMax, &deadline, &company,
		&j.Status, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	j.Description = desc.String
	j.Requirements = reqs.String
	j.Location = location.String
	j.JobType = jobType.String
	j.ExperienceLevel = expLevel.String
	j.CategorySlug = category.String
	j.Skills = unmarshalStrings(skills)
	j.SalaryMin = intPtr(salaryMin)
	j.SalaryMax = intPtr(salaryMax)
	j.Deadline = deadline.String
	j.CompanyName = company.String
	j.CreatedAt = parseTime(created)
	return &j, nil
}

func buildJobWhere(f JobFilters) (string, []any) {
	where := []string{"status = ?"}
	args := []any{models.JobActive}

	if f.ExcludeUser != 0 {
		where = append(where, "id NOT IN (SELECT job_id FROM applications WHERE jobseeker_id = ?)")
		args = append(args, f.ExcludeUser)
	}
	if f.Search != "" {
		where = append(where, "(LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(skills) LIKE ?)")
		term := "%" + strings.ToLower(f.Search) + "%"
		args = append(args, term, term, term)
	}
	if len(f.Keywords) > 0 {
		clauses := make([]string, len(f.Keywords))
		for i, kw := range f.Keywords {
			clauses[i] = "(LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(skills) LIKE ?)"
			term := "%" + strings.ToLower(kw) + "%"
			args = append(args, term, term, term)
		}
		where = append(where, "("+strings.Join(clauses, " OR ")+")")
	}
	if len(f.Categories) > 0 {
		ph := strings.TrimRight(strings.Repeat("?,", len(f.Categories)), ",")
		where = append(where, "category_slug IN ("+ph+")")
		for _, c := range f.Categories {
			args = append(args, c)
		}
	}
	if len(f.Locations) > 0 {
		clauses := make([]string, len(f.Locations))
		for i, loc := range f.Locations {
			clauses[i] = "LOWER(location) LIKE ?"
			args = append(args, "%"+strings.ToLower(loc)+"%")
		}
		where = append(where, "("+strings.Join(clauses, " OR ")+")")
	}
	if len(f.JobTypes) > 0 {
		ph := strings.TrimRight(strings.Repeat("?,", len(f.JobTypes)), ",")
		where = append(where, "job_type IN ("+ph+")")
		for _, t := range f.JobTypes {
			args = append(args, t)
		}
	}
	if f.MinSalary != nil {
		where = append(where, "(salary_max >= ? OR salary_max IS NULL)")
		args = append(args, *f.MinSalary)
	}
	return strings.Join(where, " AND "), args
}

func (s *SQLStorage) SearchJobs(ctx context.Context, f JobFilters) ([]*models.Job, int, error) {
	where, args := buildJobWhere(f)

	var total int
	if err := s.queryRow(ctx, "SELECT COUNT(*) FROM jobs WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count jobs: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.query(ctx,
		"SELECT "+jobCols+" FROM jobs WHERE "+where+" ORDER BY created_at DESC LIMIT ?",
		append(args, limit)...)
	if err != nil {
		return nil, 0, fmt.Errorf("search jobs: %w", err)
	}
	defer rows.Close()

	var out []*models.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, j)
	}
	return out, total, rows.Err()
}

func (s *SQLStorage) GetJob(ctx context.Context, id int64) (*models.Job, error) {
	return scanJob(s.queryRow(ctx, "SELECT "+jobCols+" FROM jobs WHERE id = ?", id))
}

func (s *SQLStorage) CreateJob(ctx context.Context, j *models.Job) (int64, error) {
	if j.CreatedAt.IsZero() {
		j.CreatedAt = time.Now()
	}
	if j.Status == "" {
		j.Status = models.JobActive
	}
	id, err := s.insertID(ctx, `
		INSERT INTO jobs (employer_id, title, description, requirements, location, job_type,
		                  experience_level, category_slug, skills, salary_min, salary_max,
		                  deadline, company_name, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.EmployerID, j.Title, j.Description, j.Requirements, j.Location, j.JobType,
		j.ExperienceLevel, j.CategorySlug, marshalJSON(j.Skills),
		nullInt(j.SalaryMin), nullInt(j.SalaryMax), j.Deadline, j.CompanyName,
		j.Status, fmtTime(j.CreatedAt))
	if err != nil {
		return 0, fmt.Errorf("create job: %w", err)
	}
	j.ID = id
	return id, nil
}

func (s *SQLStorage) EmployerJobs(ctx context.Context, employerID int64) ([]*models.Job, error) {
	rows, err := s.query(ctx,
		"SELECT "+jobCols+" FROM jobs WHERE employer_id = ? ORDER BY created_at DESC", employerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, j := range out {
		var n int
		if err := s.queryRow(ctx, "SELECT COUNT(*) FROM applications WHERE job_id = ?", j.ID).Scan(&n); err == nil {
			j.ApplicantCount = n
		}
	}
	return out, nil
}

func (s *SQLStorage) Categories(ctx context.Context) ([]*models.Category, error) {
	rows, err := s.query(ctx, `
		SELECT category_slug, COUNT(*) FROM jobs
		WHERE status = ? AND category_slug <> ''
		GROUP BY category_slug ORDER BY category_slug`, models.JobActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.Slug, &c.JobCount); err != nil {
			return nil, err
		}
		c.Name = titleCase(strings.ReplaceAll(c.Slug, "-", " "))
		out = append(out, &c)
	}
	return out, rows.Err()
}

// ─── Applications ────────────────────────────────────────

func (s *SQLStorage) CreateApplication(ctx context.Context, a *models.Application) (int64, error) {
	if a.AppliedAt.IsZero() {
		a.AppliedAt = time.Now()
	}
	if a.Status == "" {
		a.Status = models.ApplicationPending
	}
	id, err := s.insertID(ctx, `
		INSERT INTO applications (job_id, jobseeker_id, note, status, applied_at)
		VALUES (?, ?, ?, ?, ?)`,
		a.JobID, a.JobseekerID, a.Note, a.Status, fmtTime(a.AppliedAt))
	if err != nil {
		return 0, fmt.Errorf("create application: %w", err)
	}
	a.ID = id
	return id, nil
}

func (s *SQLStorage) HasApplied(ctx context.Context, jobseekerID, jobID int64) (bool, error) {
	var n int
	err := s.queryRow(ctx,
		"SELECT COUNT(*) FROM applications WHERE jobseeker_id = ? AND job_id = ?",
		jobseekerID, jobID).Scan(&n)
	return n > 0, err
}

func (s *SQLStorage) UserApplications(ctx context.Context, jobseekerID int64) ([]*models.Application, error) {
	rows, err := s.query(ctx, `
		SELECT a.id, a.job_id, a.jobseeker_id, a.note, a.status, a.applied_at,
		       j.title, j.company_name
		FROM applications a JOIN jobs j ON j.id = a.job_id
		WHERE a.jobseeker_id = ? ORDER BY a.applied_at DESC`, jobseekerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanApplications(rows)
}

func (s *SQLStorage) JobApplicants(ctx context.Context, jobID int64) ([]*models.Application, error) {
	rows, err := s.query(ctx, `
		SELECT a.id, a.job_id, a.jobseeker_id, a.note, a.status, a.applied_at,
		       j.title, j.company_name
		FROM applications a JOIN jobs j ON j.id = a.job_id
		WHERE a.job_id = ? ORDER BY a.applied_at DESC`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanApplications(rows)
}

func scanApplications(rows *sql.Rows) ([]*models.Application, error) {
	var out []*models.Application
	for rows.Next() {
		var (
			a       models.Application
			note    sql.NullString
			applied string
			title   sql.NullString
			company sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.JobID, &a.JobseekerID, &note, &a.Status, &applied, &title, &company); err != nil {
			return nil, err
		}
		a.Note = note.String
		a.AppliedAt = parseTime(applied)
		a.JobTitle = title.String
		a.CompanyName = company.String
		out = append(out, &a)
	}
	return out, rows.Err()
}

// ─── Auto-apply ──────────────────────────────────────────

const ruleCols = "id, user_id, keywords, categories, locations, job_types, min_salary, max_daily, active, last_run_at, created_at"

func scanRule(row interface{ Scan(...any) error }) (*models.AutoApplyRule, error) {
	var (
		r         models.AutoApplyRule
		keywords  sql.NullString
		cats      sql.NullString
		locs      sql.NullString
		types     sql.NullString
		minSalary sql.NullInt64
		active    int
		lastRun   sql.NullString
		created   string
	)
	if err := row.Scan(&r.ID, &r.UserID, &keywords, &cats, &locs, &types, &minSalary,
		&r.MaxDaily, &active, &lastRun, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	r.Keywords = unmarshalStrings(keywords)
	r.Categories = unmarshalStrings(cats)
	r.Locations = unmarshalStrings(locs)
	r.JobTypes = unmarshalStrings(types)
	r.MinSalary = intPtr(minSalary)
	r.Active = active != 0
	if lastRun.Valid && lastRun.String != "" {
		t := parseTime(lastRun.String)
		r.LastRunAt = &t
	}
	r.CreatedAt = parseTime(created)
	return &r, nil
}

func (s *SQLStorage) ActiveRules(ctx context.Context) ([]*models.AutoApplyRule, error) {
	rows, err := s.query(ctx, "SELECT "+ruleCols+" FROM auto_apply_rules WHERE active = 1 ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRules(rows)
}

func (s *SQLStorage) UserRules(ctx context.Context, userID int64) ([]*models.AutoApplyRule, error) {
	rows, err := s.query(ctx, "SELECT "+ruleCols+" FROM auto_apply_rules WHERE user_id = ? ORDER BY id", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRules(rows)
}

func collectRules(rows *sql.Rows) ([]*models.AutoApplyRule, error) {
	var out []*models.AutoApplyRule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStorage) CreateRule(ctx context.Context, r *models.AutoApplyRule) (int64, error) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	id, err := s.insertID(ctx, `
		INSERT INTO auto_apply_rules (user_id, keywords, categories, locations, job_types,
		                              min_salary, max_daily, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.UserID, marshalJSON(r.Keywords), marshalJSON(r.Categories), marshalJSON(r.Locations),
		marshalJSON(r.JobTypes), nullInt(r.MinSalary), r.MaxDaily, boolToInt(r.Active),
		fmtTime(r.CreatedAt))
	if err != nil {
		return 0, fmt.Errorf("create rule: %w", err)
	}
	r.ID = id
	return id, nil
}

func (s *SQLStorage) SetRulesActive(ctx context.Context, userID int64, active bool) error {
	_, err := s.exec(ctx, "UPDATE auto_apply_rules SET active = ? WHERE user_id = ?",
		boolToInt(active), userID)
	return err
}

func (s *SQLStorage) TouchRuleRun(ctx context.Context, ruleID int64, at time.Time) error {
	_, err := s.exec(ctx, "UPDATE auto_apply_rules SET last_run_at = ? WHERE id = ?",
		fmtTime(at), ruleID)
	return err
}

func (s *SQLStorage) AppendAutoApplyLog(ctx context.Context, l *models.AutoApplyLog) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	var appID any
	if l.ApplicationID != nil {
		appID = *l.ApplicationID
	}
	_, err := s.exec(ctx, `
		INSERT INTO auto_apply_log (rule_id, user_id, job_id, application_id, match_score, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.RuleID, l.UserID, l.JobID, appID, l.MatchScore, l.Status, fmtTime(l.CreatedAt))
	if err != nil {
		if s.d.uniqueViolation != nil && s.d.uniqueViolation(err) {
			return ErrDuplicateLog
		}
		return fmt.Errorf("append auto-apply log: %w", err)
	}
	return nil
}

func (s *SQLStorage) HasAutoApplyLog(ctx context.Context, ruleID, jobID int64) (bool, error) {
	var n int
	err := s.queryRow(ctx,
		"SELECT COUNT(*) FROM auto_apply_log WHERE rule_id = ? AND job_id = ?",
		ruleID, jobID).Scan(&n)
	return n > 0, err
}

func (s *SQLStorage) CountAppliedSince(ctx context.Context, ruleID int64, since time.Time) (int, error) {
	var n int
	err := s.queryRow(ctx, `
		SELECT COUNT(*) FROM auto_apply_log
		WHERE rule_id = ? AND status = ? AND created_at >= ?`,
		ruleID, models.AutoApplyApplied, fmtTime(since)).Scan(&n)
	return n, err
}

// ─── Settings ────────────────────────────────────────────

func (s *SQLStorage) Setting(ctx context.Context, key string) (string, error) {
	var v string
	err := s.queryRow(ctx, "SELECT value FROM agent_settings WHERE key = ?", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return v, err
}

func (s *SQLStorage) SetSetting(ctx context.Context, key, value string) error {
	// Same upsert syntax works for SQLite and Postgres.
	_, err := s.exec(ctx, `
		INSERT INTO agent_settings (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// ─── Notifications ───────────────────────────────────────

func (s *SQLStorage) AddNotification(ctx context.Context, n *models.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	_, err := s.exec(ctx, `
		INSERT INTO notifications (user_id, type, title, message, link, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.UserID, n.Type, n.Title, n.Message, n.Link, boolToInt(n.Read), fmtTime(n.CreatedAt))
	return err
}

func (s *SQLStorage) Notifications(ctx context.Context, userID int64, limit int) ([]*models.Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.query(ctx, `
		SELECT id, user_id, type, title, message, link, read, created_at
		FROM notifications WHERE user_id = ?
		ORDER BY created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Notification
	for rows.Next() {
		var (
			n       models.Notification
			link    sql.NullString
			read    int
			created string
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &link, &read, &created); err != nil {
			return nil, err
		}
		n.Link = link.String
		n.Read = read != 0
		n.CreatedAt = parseTime(created)
		out = append(out, &n)
	}
	return out, rows.Err()
}

// ─── Engagement ──────────────────────────────────────────

func (s *SQLStorage) SaveJob(ctx context.Context, userID, jobID int64) (bool, error) {
	var n int
	if err := s.queryRow(ctx,
		"SELECT COUNT(*) FROM saved_jobs WHERE user_id = ? AND job_id = ?", userID, jobID).Scan(&n); err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	_, err := s.exec(ctx, "INSERT INTO saved_jobs (user_id, job_id, created_at) VALUES (?, ?, ?)",
		userID, jobID, fmtTime(time.Now()))
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLStorage) SavedJobs(ctx context.Context, userID int64) ([]*models.Job, error) {
	rows, err := s.query(ctx, `
		SELECT `+prefixCols("j", jobCols)+` FROM jobs j
		JOIN saved_jobs sj ON sj.job_id = j.id
		WHERE sj.user_id = ? ORDER BY sj.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// prefixCols qualifies a comma-separated column list with a table alias.
func prefixCols(alias, cols string) string {
	parts := strings.Split(cols, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

func (s *SQLStorage) SubmitContact(ctx context.Context, c *models.ContactRequest) error {
	_, err := s.exec(ctx, `
		INSERT INTO contact_requests (name, email, subject, message, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.Name, c.Email, c.Subject, c.Message, fmtTime(time.Now()))
	return err
}

func (s *SQLStorage) CreateFeatureRequest(ctx context.Context, f *models.FeatureRequest) (int64, error) {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}
	var userID any
	if f.UserID != nil {
		userID = *f.UserID
	}
	id, err := s.insertID(ctx, `
		INSERT INTO feature_requests (user_id, title, description, category, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		userID, f.Title, f.Description, f.Category, fmtTime(f.CreatedAt))
	if err != nil {
		return 0, fmt.Errorf("create feature request: %w", err)
	}
	f.ID = id
	return id, nil
}

func (s *SQLStorage) CreditBalance(ctx context.Context, userID int64) (*models.CreditBalance, error) {
	var b models.CreditBalance
	err := s.queryRow(ctx,
		"SELECT job_posts, ai_features FROM credit_wallets WHERE user_id = ?", userID).Scan(
		&b.JobPosts, &b.AIFeatures)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.CreditBalance{}, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ─── Employer prefs & drafts ─────────────────────────────

func (s *SQLStorage) EmployerPrefs(ctx context.Context, userID int64) (*models.EmployerPrefs, error) {
	var (
		p        models.EmployerPrefs
		location sql.NullString
		category sql.NullString
		notify   int
	)
	err := s.queryRow(ctx, `
		SELECT user_id, auto_post, default_location, default_category, notify_on_application
		FROM employer_prefs WHERE user_id = ?`, userID).Scan(
		&p.UserID, &p.AutoPost, &location, &category, &notify)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.EmployerPrefs{UserID: userID, AutoPost: models.AutoPostReview, NotifyOnApply: true}, nil
	}
	if err != nil {
		return nil, err
	}
	p.DefaultLocation = location.String
	p.DefaultCategory = category.String
	p.NotifyOnApply = notify != 0
	return &p, nil
}

func (s *SQLStorage) UpdateEmployerPrefs(ctx context.Context, p *models.EmployerPrefs) error {
	_, err := s.exec(ctx, `
		INSERT INTO employer_prefs (user_id, auto_post, default_location, default_category, notify_on_application)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			auto_post = excluded.auto_post,
			default_location = excluded.default_location,
			default_category = excluded.default_category,
			notify_on_application = excluded.notify_on_application`,
		p.UserID, p.AutoPost, p.DefaultLocation, p.DefaultCategory, boolToInt(p.NotifyOnApply))
	return err
}

func (s *SQLStorage) CreateDraft(ctx context.Context, d *models.JobDraft) (int64, error) {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	id, err := s.insertID(ctx, `
		INSERT INTO job_drafts (employer_id, session_id, data, source_filename, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		d.EmployerID, d.SessionID, marshalJSON(d.Job), d.SourceFilename, fmtTime(d.CreatedAt))
	if err != nil {
		return 0, fmt.Errorf("create draft: %w", err)
	}
	d.ID = id
	return id, nil
}

func (s *SQLStorage) GetDraft(ctx context.Context, id int64) (*models.JobDraft, error) {
	var (
		d       models.JobDraft
		data    string
		source  sql.NullString
		created string
	)
	err := s.queryRow(ctx, `
		SELECT id, employer_id, session_id, data, source_filename, created_at
		FROM job_drafts WHERE id = ?`, id).Scan(
		&d.ID, &d.EmployerID, &d.SessionID, &data, &source, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(data), &d.Job); err != nil {
		return nil, fmt.Errorf("decode draft data: %w", err)
	}
	d.SourceFilename = source.String
	d.CreatedAt = parseTime(created)
	return &d, nil
}

func (s *SQLStorage) DeleteDraft(ctx context.Context, id int64) error {
	_, err := s.exec(ctx, "DELETE FROM job_drafts WHERE id = ?", id)
	return err
}

// ─── Channel links ───────────────────────────────────────

func (s *SQLStorage) ChannelLink(ctx context.Context, channel, address string) (*models.ChannelLink, error) {
	var (
		l        models.ChannelLink
		verified int
		created  string
	)
	err := s.queryRow(ctx, `
		SELECT channel, address, user_id, verified, created_at
		FROM channel_links WHERE channel = ? AND address = ?`, channel, address).Scan(
		&l.Channel, &l.Address, &l.UserID, &verified, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	l.Verified = verified != 0
	l.CreatedAt = parseTime(created)
	return &l, nil
}

func (s *SQLStorage) UserByVerificationCode(ctx context.Context, code string) (*models.User, error) {
	var userID int64
	err := s.queryRow(ctx, "SELECT user_id FROM channel_link_codes WHERE code = ?", code).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.GetUser(ctx, userID)
}

func (s *SQLStorage) LinkChannelAddress(ctx context.Context, link *models.ChannelLink) error {
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now()
	}
	_, err := s.exec(ctx, `
		INSERT INTO channel_links (channel, address, user_id, verified, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (channel, address) DO UPDATE SET
			user_id = excluded.user_id,
			verified = excluded.verified`,
		link.Channel, link.Address, link.UserID, boolToInt(link.Verified), fmtTime(link.CreatedAt))
	return err
}
