// Package autoapply is the batch matching engine: it walks every active
// auto-apply rule, scores candidate postings and applies on the
// jobseeker's behalf up to their daily quota. Built to run from cron or
// on demand; overlapping runs are refused rather than queued.
package autoapply

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wantokjobs/jean/internal/actions"
	"github.com/wantokjobs/jean/internal/models"
	"github.com/wantokjobs/jean/internal/storage"
)

// ErrAlreadyRunning is returned when a run starts while another is in
// progress.
var ErrAlreadyRunning = errors.New("auto-apply run already in progress")

// Settings consulted per run, with fallbacks when unset.
const (
	featureAutoApply  = "auto_apply_enabled"
	settingMinScore   = "auto_apply_min_match_score"
	settingGlobalCap  = "max_auto_apply_daily"
	defaultMinScore   = 70
	defaultGlobalCap  = 10
	defaultRuleCap    = 5
	candidateOverscan = 3 // fetch extra candidates so low scorers don't starve the quota
)

// Result summarizes one run. Skipped counts below-threshold candidates
// and rules whose daily quota was already spent.
type Result struct {
	Processed int // rules walked
	Applied   int
	Skipped   int
	Failed    int
	Disabled  bool
}

// Engine runs the matching batch.
type Engine struct {
	store  storage.Storage
	exec   actions.Executor
	logger *zap.Logger

	mu sync.Mutex
}

func New(store storage.Storage, exec actions.Executor, logger *zap.Logger) *Engine {
	return &Engine{store: store, exec: exec, logger: logger}
}

// Run executes the batch over all active rules. A rule failure never
// stops the run; per-rule last-run timestamps are updated regardless of
// outcome so stuck rules are visible.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	if !e.mu.TryLock() {
		return nil, ErrAlreadyRunning
	}
	defer e.mu.Unlock()

	res := &Result{}
	if !e.exec.FeatureEnabled(ctx, featureAutoApply) {
		e.logger.Info("auto-apply disabled by admin")
		res.Disabled = true
		return res, nil
	}

	minScore := e.intSetting(ctx, settingMinScore, defaultMinScore)
	globalCap := e.intSetting(ctx, settingGlobalCap, defaultGlobalCap)

	rules, err := e.store.ActiveRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active rules: %w", err)
	}

	since := startOfDay(time.Now())
	for _, rule := range rules {
		if rerr := e.runRule(ctx, rule, minScore, globalCap, since, res); rerr != nil {
			e.logger.Error("auto-apply rule failed",
				zap.Int64("rule_id", rule.ID),
				zap.Int64("user_id", rule.UserID),
				zap.Error(rerr))
			res.Failed++
		}
		res.Processed++
		if terr := e.store.TouchRuleRun(ctx, rule.ID, time.Now()); terr != nil {
			e.logger.Warn("rule last-run update failed", zap.Int64("rule_id", rule.ID), zap.Error(terr))
		}
	}

	e.logger.Info("auto-apply run complete",
		zap.Int("processed", res.Processed),
		zap.Int("applied", res.Applied),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed))
	return res, nil
}

func (e *Engine) runRule(ctx context.Context, rule *models.AutoApplyRule, minScore, globalCap int, since time.Time, res *Result) error {
	quota := rule.MaxDaily
	if quota <= 0 {
		quota = defaultRuleCap
	}
	if quota > globalCap {
		quota = globalCap
	}

	done, err := e.store.CountAppliedSince(ctx, rule.ID, since)
	if err != nil {
		return fmt.Errorf("daily count: %w", err)
	}
	remaining := quota - done
	if remaining <= 0 {
		res.Skipped++
		return nil
	}

	jobs, _, err := e.store.SearchJobs(ctx, storage.JobFilters{
		Keywords:    rule.Keywords,
		Categories:  rule.Categories,
		Locations:   rule.Locations,
		JobTypes:    rule.JobTypes,
		MinSalary:   rule.MinSalary,
		ExcludeUser: rule.UserID,
		Limit:       remaining * candidateOverscan,
	})
	if err != nil {
		return fmt.Errorf("candidate search: %w", err)
	}

	var skills []string
	if p, perr := e.store.GetJobseekerProfile(ctx, rule.UserID); perr == nil {
		skills = p.Skills
	}

	applied := 0
	for _, job := range jobs {
		if applied >= remaining {
			break
		}
		logged, lerr := e.store.HasAutoApplyLog(ctx, rule.ID, job.ID)
		if lerr != nil {
			return fmt.Errorf("log lookup: %w", lerr)
		}
		if logged {
			continue
		}

		score := Score(job, rule, skills, time.Now())
		if score < minScore {
			e.log(ctx, rule, job.ID, nil, score, models.AutoApplySkipped)
			res.Skipped++
			continue
		}

		note := fmt.Sprintf("Auto-applied via WantokJobs Smart Apply (%d%% match)", score)
		app, aerr := e.exec.Apply(ctx, rule.UserID, job.ID, note)
		if aerr != nil {
			e.logger.Warn("auto-apply attempt failed",
				zap.Int64("rule_id", rule.ID),
				zap.Int64("job_id", job.ID),
				zap.Error(aerr))
			e.log(ctx, rule, job.ID, nil, score, models.AutoApplyFailed)
			res.Failed++
			continue
		}

		var appID *int64
		if app != nil && app.ID != 0 {
			appID = &app.ID
		}
		e.log(ctx, rule, job.ID, appID, score, models.AutoApplyApplied)
		applied++
		res.Applied++

		if nerr := e.exec.Notify(ctx, rule.UserID, "auto_apply", "Auto-Applied",
			fmt.Sprintf("Jean auto-applied you to %q (%d%% match)", job.Title, score),
			"/dashboard/jobseeker/applications"); nerr != nil {
			e.logger.Warn("auto-apply notification failed", zap.Int64("user_id", rule.UserID), zap.Error(nerr))
		}
	}
	return nil
}

// log records one attempt. At most one entry exists per (rule, job);
// a duplicate means another path already recorded it, which is fine.
func (e *Engine) log(ctx context.Context, rule *models.AutoApplyRule, jobID int64, appID *int64, score int, status string) {
	err := e.store.AppendAutoApplyLog(ctx, &models.AutoApplyLog{
		RuleID:        rule.ID,
		UserID:        rule.UserID,
		JobID:         jobID,
		ApplicationID: appID,
		MatchScore:    score,
		Status:        status,
	})
	if err != nil && !errors.Is(err, storage.ErrDuplicateLog) {
		e.logger.Warn("auto-apply log append failed",
			zap.Int64("rule_id", rule.ID),
			zap.Int64("job_id", jobID),
			zap.Error(err))
	}
}

func (e *Engine) intSetting(ctx context.Context, key string, fallback int) int {
	v, err := e.exec.Setting(ctx, key)
	if err != nil {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
