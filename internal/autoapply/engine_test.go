package autoapply

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/wantokjobs/jean/internal/actions"
	"github.com/wantokjobs/jean/internal/models"
	"github.com/wantokjobs/jean/internal/storage"
)

func newTestEngine(t *testing.T) (*Engine, *storage.MemoryStorage) {
	t.Helper()
	store := storage.NewMemoryStorage()
	exec := actions.New(store, zap.NewNop())
	return New(store, exec, zap.NewNop()), store
}

func seedJobseeker(t *testing.T, store *storage.MemoryStorage, id int64) {
	t.Helper()
	store.AddUser(&models.User{ID: id, Name: "Peter Kaupa", Email: "peter@example.com", Role: models.RoleJobseeker})
	store.AddUser(&models.User{ID: 100, Name: "Maria Toua", Email: "maria@example.com", Role: models.RoleEmployer})
}

func seedRule(t *testing.T, store *storage.MemoryStorage, userID int64, maxDaily int) int64 {
	t.Helper()
	id, err := store.CreateRule(context.Background(), &models.AutoApplyRule{
		UserID:    userID,
		Keywords:  []string{"driver"},
		Locations: []string{"lae"},
		MaxDaily:  maxDaily,
		Active:    true,
	})
	if err != nil {
		t.Fatalf("seed rule: %v", err)
	}
	return id
}

func seedJob(t *testing.T, store *storage.MemoryStorage, title, description string, age time.Duration) int64 {
	t.Helper()
	id, err := store.CreateJob(context.Background(), &models.Job{
		EmployerID:  100,
		Title:       title,
		Description: description,
		Location:    "Lae",
		Status:      models.JobActive,
		CreatedAt:   time.Now().Add(-age),
	})
	if err != nil {
		t.Fatalf("seed job: %v", err)
	}
	return id
}

func TestRunAppliesAboveThresholdLogsBoth(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	seedJobseeker(t, store, 1)
	ruleID := seedRule(t, store, 1, 2)

	// Keyword in title + location + recency = 75; keyword only in the
	// description = 60, below the default threshold of 70.
	strong := seedJob(t, store, "Truck Driver", "Deliver goods across Morobe", time.Hour)
	weak := seedJob(t, store, "Logistics Assistant", "Support the driver pool", 2*time.Hour)

	res, err := e.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Applied != 1 {
		t.Errorf("Applied = %d, want 1", res.Applied)
	}
	if res.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", res.Skipped)
	}

	applied, _ := store.HasApplied(ctx, 1, strong)
	if !applied {
		t.Error("strong match was not applied to")
	}
	if applied, _ = store.HasApplied(ctx, 1, weak); applied {
		t.Error("weak match should not have an application")
	}

	// Both candidates get exactly one log entry so neither is ever
	// re-evaluated.
	for _, jobID := range []int64{strong, weak} {
		logged, lerr := store.HasAutoApplyLog(ctx, ruleID, jobID)
		if lerr != nil {
			t.Fatalf("log lookup: %v", lerr)
		}
		if !logged {
			t.Errorf("job %d has no log entry", jobID)
		}
	}

	rules, _ := store.UserRules(ctx, 1)
	if len(rules) != 1 || rules[0].LastRunAt == nil {
		t.Error("rule last-run timestamp not updated")
	}
}

func TestRunIsIdempotent(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	seedJobseeker(t, store, 1)
	seedRule(t, store, 1, 2)
	seedJob(t, store, "Truck Driver", "Deliver goods", time.Hour)
	seedJob(t, store, "Logistics Assistant", "Support the driver pool", 2*time.Hour)

	first, err := e.Run(ctx)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if first.Applied != 1 {
		t.Fatalf("first run Applied = %d, want 1", first.Applied)
	}

	second, err := e.Run(ctx)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if second.Applied != 0 {
		t.Errorf("second run Applied = %d, want 0", second.Applied)
	}

	apps, _ := store.UserApplications(ctx, 1)
	if len(apps) != 1 {
		t.Errorf("applications = %d, want 1", len(apps))
	}
}

func TestDailyQuotaStopsApplying(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	seedJobseeker(t, store, 1)
	ruleID := seedRule(t, store, 1, 1)

	first := seedJob(t, store, "Truck Driver", "Newest posting", time.Hour)
	second := seedJob(t, store, "Delivery Driver", "Older posting", 2*time.Hour)

	res, err := e.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Applied != 1 {
		t.Fatalf("Applied = %d, want 1", res.Applied)
	}
	applied, _ := store.HasApplied(ctx, 1, first)
	if !applied {
		t.Error("quota should go to the newest posting")
	}
	// The posting beyond the quota is left unlogged for a later run.
	if logged, _ := store.HasAutoApplyLog(ctx, ruleID, second); logged {
		t.Error("posting beyond quota should not be logged")
	}

	// Same day: quota is spent, nothing more happens.
	res, err = e.Run(ctx)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if res.Applied != 0 {
		t.Errorf("quota ignored on second run: Applied = %d", res.Applied)
	}
}

func TestRunRespectsAdminToggle(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	seedJobseeker(t, store, 1)
	seedRule(t, store, 1, 2)
	seedJob(t, store, "Truck Driver", "Deliver goods", time.Hour)

	if err := store.SetSetting(ctx, featureAutoApply, "false"); err != nil {
		t.Fatalf("set setting: %v", err)
	}
	res, err := e.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Disabled || res.Applied != 0 {
		t.Errorf("disabled run should do nothing: %+v", res)
	}
}

func TestOverlappingRunRefused(t *testing.T) {
	e, _ := newTestEngine(t)
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.Run(context.Background()); err != ErrAlreadyRunning {
		t.Errorf("err = %v, want ErrAlreadyRunning", err)
	}
}

func TestScoreClampAndBonuses(t *testing.T) {
	now := time.Now()
	rule := &models.AutoApplyRule{
		Keywords:   []string{"driver", "truck"},
		Categories: []string{"transport"},
		Locations:  []string{"lae"},
	}
	job := &models.Job{
		Title:        "Truck Driver",
		CategorySlug: "transport",
		Location:     "Lae",
		Skills:       []string{"driving", "logistics", "safety", "maintenance", "loading"},
		CreatedAt:    now.Add(-time.Hour),
	}
	skills := []string{"driving", "logistics", "safety", "maintenance", "loading"}

	// 50 base + 2×15 keywords + 20 skill cap + 10 category + 5 location
	// + 5 recency = 120, clamped to 100.
	if got := Score(job, rule, skills, now); got != 100 {
		t.Errorf("Score = %d, want 100", got)
	}

	old := &models.Job{Title: "Office Clerk", Location: "Port Moresby", CreatedAt: now.Add(-30 * 24 * time.Hour)}
	if got := Score(old, rule, nil, now); got != 50 {
		t.Errorf("baseline Score = %d, want 50", got)
	}
}
