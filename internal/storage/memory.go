package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wantokjobs/jean/internal/models"
)

// MemoryStorage is a mutex-guarded in-memory Storage, used for tests and
// local development without a database.
type MemoryStorage struct {
	mu sync.RWMutex

	sessions      map[int64]*models.Session
	messages      map[int64][]*models.Message
	users         map[int64]*models.User
	jsProfiles    map[int64]*models.JobseekerProfile
	empProfiles   map[int64]*models.EmployerProfile
	jobs          map[int64]*models.Job
	applications  map[int64]*models.Application
	rules         map[int64]*models.AutoApplyRule
	logs          []*models.AutoApplyLog
	settings      map[string]string
	notifications map[int64][]*models.Notification
	savedJobs     map[int64][]int64
	contacts      []*models.ContactRequest
	features      map[int64]*models.FeatureRequest
	credits       map[int64]*models.CreditBalance
	prefs         map[int64]*models.EmployerPrefs
	drafts        map[int64]*models.JobDraft
	links         map[string]*models.ChannelLink
	linkCodes     map[string]int64

	nextSessionID int64
	nextJobID     int64
	nextAppID     int64
	nextRuleID    int64
	nextLogID     int64
	nextFeatID    int64
	nextDraftID   int64
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		sessions:      make(map[int64]*models.Session),
		messages:      make(map[int64][]*models.Message),
		users:         make(map[int64]*models.User),
		jsProfiles:    make(map[int64]*models.JobseekerProfile),
		empProfiles:   make(map[int64]*models.EmployerProfile),
		jobs:          make(map[int64]*models.Job),
		applications:  make(map[int64]*models.Application),
		rules:         make(map[int64]*models.AutoApplyRule),
		settings:      make(map[string]string),
		notifications: make(map[int64][]*models.Notification),
		savedJobs:     make(map[int64][]int64),
		features:      make(map[int64]*models.FeatureRequest),
		credits:       make(map[int64]*models.CreditBalance),
		prefs:         make(map[int64]*models.EmployerPrefs),
		drafts:        make(map[int64]*models.JobDraft),
		links:         make(map[string]*models.ChannelLink),
		linkCodes:     make(map[string]int64),
	}
}

// Seed helpers, not part of the Storage interface.

func (s *MemoryStorage) AddUser(u *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	if u.Role == models.RoleJobseeker {
		if _, ok := s.jsProfiles[u.ID]; !ok {
			s.jsProfiles[u.ID] = &models.JobseekerProfile{UserID: u.ID}
		}
	} else if u.Role == models.RoleEmployer {
		if _, ok := s.empProfiles[u.ID]; !ok {
			s.empProfiles[u.ID] = &models.EmployerProfile{UserID: u.ID}
		}
	}
}

func (s *MemoryStorage) AddLinkCode(code string, userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.linkCodes[code] = userID
}

// ─── Sessions ────────────────────────────────────────────

func (s *MemoryStorage) LatestSessionByUser(ctx context.Context, userID int64) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *models.Session
	for _, sess := range s.sessions {
		if sess.UserID != nil && *sess.UserID == userID {
			if latest == nil || sess.UpdatedAt.After(latest.UpdatedAt) {
				latest = sess
			}
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (s *MemoryStorage) LatestSessionByToken(ctx context.Context, token string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *models.Session
	for _, sess := range s.sessions {
		if sess.Token == token {
			if latest == nil || sess.UpdatedAt.After(latest.UpdatedAt) {
				latest = sess
			}
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (s *MemoryStorage) CreateSession(ctx context.Context, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSessionID++
	sess.ID = s.nextSessionID
	now := time.Now()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	if sess.UpdatedAt.IsZero() {
		sess.UpdatedAt = now
	}
	cp := *sess
	s.sessions[sess.ID] = &cp
	return nil
}

func (s *MemoryStorage) SetSessionFlow(ctx context.Context, sessionID int64, flow string, state []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	sess.CurrentFlow = flow
	sess.FlowState = state
	sess.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStorage) ClearSessionFlow(ctx context.Context, sessionID int64) error {
	return s.SetSessionFlow(ctx, sessionID, "", nil)
}

func (s *MemoryStorage) TouchSession(ctx context.Context, sessionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[sessionID]; ok {
		sess.UpdatedAt = time.Now()
	}
	return nil
}

// ─── Messages ────────────────────────────────────────────

func (s *MemoryStorage) AppendMessage(ctx context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	cp := *m
	s.messages[m.SessionID] = append(s.messages[m.SessionID], &cp)
	return nil
}

func (s *MemoryStorage) SessionMessages(ctx context.Context, sessionID int64, limit int) ([]*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[sessionID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]*models.Message, len(msgs))
	for i, m := range msgs {
		cp := *m
		out[i] = &cp
	}
	return out, nil
}

// ─── Users & profiles ────────────────────────────────────

func (s *MemoryStorage) GetUser(ctx context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if u, ok := s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStorage) GetJobseekerProfile(ctx context.Context, userID int64) (*models.JobseekerProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.jsProfiles[userID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStorage) UpdateJobseekerProfile(ctx context.Context, p *models.JobseekerProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *p
	s.jsProfiles[p.UserID] = &cp
	return nil
}

func (s *MemoryStorage) GetEmployerProfile(ctx context.Context, userID int64) (*models.EmployerProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.empProfiles[userID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStorage) UpdateEmployerProfile(ctx context.Context, p *models.EmployerProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *p
	s.empProfiles[p.UserID] = &cp
	return nil
}

// ─── Jobs ────────────────────────────────────────────────

func (s *MemoryStorage) SearchJobs(ctx context.Context, f JobFilters) ([]*models.Job, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	applied := make(map[int64]bool)
	if f.ExcludeUser != 0 {
		for _, a := range s.applications {
			if a.JobseekerID == f.ExcludeUser {
				applied[a.JobID] = true
			}
		}
	}

	var matched []*models.Job
	for _, j := range s.jobs {
		if j.Status != models.JobActive {
			continue
		}
		if applied[j.ID] {
			continue
		}
		if !jobMatches(j, f) {
			continue
		}
		cp := *j
		matched = append(matched, &cp)
	}

	sort.Slice(matched, func(i, k int) bool {
		return matched[i].CreatedAt.After(matched[k].CreatedAt)
	})

	total := len(matched)
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	return matched, total, nil
}

func jobMatches(j *models.Job, f JobFilters) bool {
	haystack := strings.ToLower(j.Title + " " + j.Description + " " + strings.Join(j.Skills, " "))

	if f.Search != "" && !strings.Contains(haystack, strings.ToLower(f.Search)) {
		return false
	}
	if len(f.Keywords) > 0 {
		hit := false
		for _, kw := range f.Keywords {
			if strings.Contains(haystack, strings.ToLower(kw)) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	if len(f.Categories) > 0 && !containsFold(f.Categories, j.CategorySlug) {
		return false
	}
	if len(f.Locations) > 0 {
		hit := false
		loc := strings.ToLower(j.Location)
		for _, l := range f.Locations {
			if strings.Contains(loc, strings.ToLower(l)) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	if len(f.JobTypes) > 0 && !containsFold(f.JobTypes, j.JobType) {
		return false
	}
	if f.MinSalary != nil && j.SalaryMax != nil && *j.SalaryMax < *f.MinSalary {
		return false
	}
	return true
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}

func (s *MemoryStorage) GetJob(ctx context.Context, id int64) (*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if j, ok := s.jobs[id]; ok {
		cp := *j
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStorage) CreateJob(ctx context.Context, j *models.Job) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextJobID++
	j.ID = s.nextJobID
	if j.CreatedAt.IsZero() {
		j.CreatedAt = time.Now()
	}
	if j.Status == "" {
		j.Status = models.JobActive
	}
	cp := *j
	s.jobs[j.ID] = &cp
	return j.ID, nil
}

func (s *MemoryStorage) EmployerJobs(ctx context.Context, employerID int64) ([]*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Job
	for _, j := range s.jobs {
		if j.EmployerID == employerID {
			cp := *j
			cp.ApplicantCount = 0
			for _, a := range s.applications {
				if a.JobID == j.ID {
					cp.ApplicantCount++
				}
			}
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	return out, nil
}

func (s *MemoryStorage) Categories(ctx context.Context) ([]*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, j := range s.jobs {
		if j.Status == models.JobActive && j.CategorySlug != "" {
			counts[j.CategorySlug]++
		}
	}
	out := make([]*models.Category, 0, len(counts))
	for slug, n := range counts {
		out = append(out, &models.Category{
			Slug:     slug,
			Name:     titleCase(strings.ReplaceAll(slug, "-", " ")),
			JobCount: n,
		})
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Slug < out[k].Slug })
	return out, nil
}

// ─── Applications ────────────────────────────────────────

func (s *MemoryStorage) CreateApplication(ctx context.Context, a *models.Application) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextAppID++
	a.ID = s.nextAppID
	if a.AppliedAt.IsZero() {
		a.AppliedAt = time.Now()
	}
	if a.Status == "" {
		a.Status = models.ApplicationPending
	}
	cp := *a
	s.applications[a.ID] = &cp
	return a.ID, nil
}

func (s *MemoryStorage) HasApplied(ctx context.Context, jobseekerID, jobID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.applications {
		if a.JobseekerID == jobseekerID && a.JobID == jobID {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStorage) UserApplications(ctx context.Context, jobseekerID int64) ([]*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Application
	for _, a := range s.applications {
		if a.JobseekerID == jobseekerID {
			cp := *a
			if j, ok := s.jobs[a.JobID]; ok {
				cp.JobTitle = j.Title
				cp.CompanyName = j.CompanyName
			}
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].AppliedAt.After(out[k].AppliedAt) })
	return out, nil
}

func (s *MemoryStorage) JobApplicants(ctx context.Context, jobID int64) ([]*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Application
	for _, a := range s.applications {
		if a.JobID == jobID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].AppliedAt.After(out[k].AppliedAt) })
	return out, nil
}

// ─── Auto-apply ──────────────────────────────────────────

func (s *MemoryStorage) ActiveRules(ctx context.Context) ([]*models.AutoApplyRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.AutoApplyRule
	for _, r := range s.rules {
		if r.Active {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out, nil
}

func (s *MemoryStorage) UserRules(ctx context.Context, userID int64) ([]*models.AutoApplyRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.AutoApplyRule
	for _, r := range s.rules {
		if r.UserID == userID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out, nil
}

func (s *MemoryStorage) CreateRule(ctx context.Context, r *models.AutoApplyRule) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextRuleID++
	r.ID = s.nextRuleID
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	cp := *r
	s.rules[r.ID] = &cp
	return r.ID, nil
}

func (s *MemoryStorage) SetRulesActive(ctx context.Context, userID int64, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.rules {
		if r.UserID == userID {
			r.Active = active
		}
	}
	return nil
}

func (s *MemoryStorage) TouchRuleRun(ctx context.Context, ruleID int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.rules[ruleID]; ok {
		r.LastRunAt = &at
	}
	return nil
}

func (s *MemoryStorage) AppendAutoApplyLog(ctx context.Context, l *models.AutoApplyLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.logs {
		if e.RuleID == l.RuleID && e.JobID == l.JobID {
			return ErrDuplicateLog
		}
	}
	s.nextLogID++
	l.ID = s.nextLogID
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	cp := *l
	s.logs = append(s.logs, &cp)
	return nil
}

func (s *MemoryStorage) HasAutoApplyLog(ctx context.Context, ruleID, jobID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.logs {
		if e.RuleID == ruleID && e.JobID == jobID {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStorage) CountAppliedSince(ctx context.Context, ruleID int64, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, e := range s.logs {
		if e.RuleID == ruleID && e.Status == models.AutoApplyApplied && !e.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// ─── Settings ────────────────────────────────────────────

func (s *MemoryStorage) Setting(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if v, ok := s.settings[key]; ok {
		return v, nil
	}
	return "", ErrNotFound
}

func (s *MemoryStorage) SetSetting(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings[key] = value
	return nil
}

// ─── Notifications ───────────────────────────────────────

func (s *MemoryStorage) AddNotification(ctx context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	cp := *n
	s.notifications[n.UserID] = append(s.notifications[n.UserID], &cp)
	return nil
}

func (s *MemoryStorage) Notifications(ctx context.Context, userID int64, limit int) ([]*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	notifs := s.notifications[userID]
	if limit > 0 && len(notifs) > limit {
		notifs = notifs[len(notifs)-limit:]
	}
	out := make([]*models.Notification, len(notifs))
	for i, n := range notifs {
		cp := *n
		out[i] = &cp
	}
	return out, nil
}

// ─── Engagement ──────────────────────────────────────────

func (s *MemoryStorage) SaveJob(ctx context.Context, userID, jobID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.savedJobs[userID] {
		if id == jobID {
			return false, nil
		}
	}
	s.savedJobs[userID] = append(s.savedJobs[userID], jobID)
	return true, nil
}

func (s *MemoryStorage) SavedJobs(ctx context.Context, userID int64) ([]*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Job
	for _, id := range s.savedJobs[userID] {
		if j, ok := s.jobs[id]; ok {
			cp := *j
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *MemoryStorage) SubmitContact(ctx context.Context, c *models.ContactRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *c
	s.contacts = append(s.contacts, &cp)
	return nil
}

func (s *MemoryStorage) CreateFeatureRequest(ctx context.Context, f *models.FeatureRequest) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextFeatID++
	f.ID = s.nextFeatID
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}
	cp := *f
	s.features[f.ID] = &cp
	return f.ID, nil
}

func (s *MemoryStorage) CreditBalance(ctx context.Context, userID int64) (*models.CreditBalance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if b, ok := s.credits[userID]; ok {
		cp := *b
		return &cp, nil
	}
	return &models.CreditBalance{}, nil
}

// ─── Employer prefs & drafts ─────────────────────────────

func (s *MemoryStorage) EmployerPrefs(ctx context.Context, userID int64) (*models.EmployerPrefs, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.prefs[userID]; ok {
		cp := *p
		return &cp, nil
	}
	return &models.EmployerPrefs{UserID: userID, AutoPost: models.AutoPostReview, NotifyOnApply: true}, nil
}

func (s *MemoryStorage) UpdateEmployerPrefs(ctx context.Context, p *models.EmployerPrefs) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *p
	s.prefs[p.UserID] = &cp
	return nil
}

func (s *MemoryStorage) CreateDraft(ctx context.Context, d *models.JobDraft) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextDraftID++
	d.ID = s.nextDraftID
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	cp := *d
	s.drafts[d.ID] = &cp
	return d.ID, nil
}

func (s *MemoryStorage) GetDraft(ctx context.Context, id int64) (*models.JobDraft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if d, ok := s.drafts[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStorage) DeleteDraft(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.drafts, id)
	return nil
}

// ─── Channel links ───────────────────────────────────────

func (s *MemoryStorage) ChannelLink(ctx context.Context, channel, address string) (*models.ChannelLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if l, ok := s.links[channel+"|"+address]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStorage) UserByVerificationCode(ctx context.Context, code string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID, ok := s.linkCodes[code]
	if !ok {
		return nil, ErrNotFound
	}
	if u, exists := s.users[userID]; exists {
		cp := *u
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStorage) LinkChannelAddress(ctx context.Context, link *models.ChannelLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now()
	}
	cp := *link
	s.links[link.Channel+"|"+link.Address] = &cp
	return nil
}

func (s *MemoryStorage) Close() error {
	return nil
}
