package actions

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/wantokjobs/jean/internal/models"
	"github.com/wantokjobs/jean/internal/storage"
)

func newTestExecutor(t *testing.T) (Executor, *storage.MemoryStorage) {
	t.Helper()
	store := storage.NewMemoryStorage()
	store.AddUser(&models.User{ID: 1, Name: "Peter Kaupa", Email: "peter@example.com", Role: models.RoleJobseeker})
	store.AddUser(&models.User{ID: 100, Name: "Maria Toua", Email: "maria@example.com", Role: models.RoleEmployer})
	store.AddUser(&models.User{ID: 101, Name: "John Vagi", Email: "john@example.com", Role: models.RoleEmployer})
	return New(store, zap.NewNop()), store
}

func seedActiveJob(t *testing.T, store *storage.MemoryStorage, employerID int64) int64 {
	t.Helper()
	id, err := store.CreateJob(context.Background(), &models.Job{
		EmployerID: employerID, Title: "Truck Driver", Location: "Lae", Status: models.JobActive,
	})
	if err != nil {
		t.Fatalf("seed job: %v", err)
	}
	return id
}

func TestApplyRejectsDuplicates(t *testing.T) {
	exec, store := newTestExecutor(t)
	ctx := context.Background()
	jobID := seedActiveJob(t, store, 100)

	app, err := exec.Apply(ctx, 1, jobID, "")
	if err != nil {
		t.Fatalf("first Apply: %v", err)
	}
	if app.ID == 0 {
		t.Error("application id not set")
	}

	if _, err = exec.Apply(ctx, 1, jobID, ""); !errors.Is(err, ErrAlreadyApplied) {
		t.Errorf("second Apply err = %v, want ErrAlreadyApplied", err)
	}
}

func TestApplyRejectsClosedJob(t *testing.T) {
	exec, store := newTestExecutor(t)
	ctx := context.Background()

	jobID, err := store.CreateJob(ctx, &models.Job{
		EmployerID: 100, Title: "Accountant", Location: "Port Moresby", Status: models.JobClosed,
	})
	if err != nil {
		t.Fatalf("seed job: %v", err)
	}

	if _, err = exec.Apply(ctx, 1, jobID, ""); !errors.Is(err, ErrJobClosed) {
		t.Errorf("Apply err = %v, want ErrJobClosed", err)
	}
}

func TestApplicantsEnforceOwnership(t *testing.T) {
	exec, store := newTestExecutor(t)
	ctx := context.Background()
	jobID := seedActiveJob(t, store, 100)

	if _, err := exec.Apply(ctx, 1, jobID, ""); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	apps, err := exec.Applicants(ctx, 100, jobID)
	if err != nil {
		t.Fatalf("owner Applicants: %v", err)
	}
	if len(apps) != 1 {
		t.Errorf("applicants = %d, want 1", len(apps))
	}

	if _, err = exec.Applicants(ctx, 101, jobID); !errors.Is(err, ErrNotYourJob) {
		t.Errorf("other employer err = %v, want ErrNotYourJob", err)
	}
}

func TestApproveDraftPostsJob(t *testing.T) {
	exec, store := newTestExecutor(t)
	ctx := context.Background()

	draftID, err := exec.CreateDraft(ctx, 100, 0, &models.Job{
		Title: "Site Engineer", Location: "Lae",
	}, "jobs.txt")
	if err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}

	jobID, err := exec.ApproveDraft(ctx, 100, draftID)
	if err != nil {
		t.Fatalf("ApproveDraft: %v", err)
	}

	job, err := store.GetJob(ctx, jobID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if job.Status != models.JobActive || job.Title != "Site Engineer" {
		t.Errorf("approved job = %+v", job)
	}

	// Draft is consumed on approval.
	if _, err = store.GetDraft(ctx, draftID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("draft lookup err = %v, want ErrNotFound", err)
	}
}

func TestUpdateJobseekerProfileDerivesCompleteness(t *testing.T) {
	exec, _ := newTestExecutor(t)
	ctx := context.Background()

	phone := "+675 7000 0000"
	p, err := exec.UpdateJobseekerProfile(ctx, 1, &JobseekerPatch{Phone: &phone})
	if err != nil {
		t.Fatalf("UpdateJobseekerProfile: %v", err)
	}
	if p.Complete {
		t.Error("profile should not be complete with only a phone number")
	}

	loc := "Lae"
	bio := "Experienced heavy vehicle driver."
	skills := []string{"driving", "logistics"}
	p, err = exec.UpdateJobseekerProfile(ctx, 1, &JobseekerPatch{Location: &loc, Bio: &bio, Skills: skills})
	if err != nil {
		t.Fatalf("UpdateJobseekerProfile: %v", err)
	}
	if !p.Complete {
		t.Errorf("profile should be complete: %+v", p)
	}
}
