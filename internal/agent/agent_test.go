package agent

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/wantokjobs/jean/internal/actions"
	"github.com/wantokjobs/jean/internal/extract"
	"github.com/wantokjobs/jean/internal/flow"
	"github.com/wantokjobs/jean/internal/models"
	"github.com/wantokjobs/jean/internal/storage"
)

func newTestAgent(t *testing.T) (*Agent, *storage.MemoryStorage) {
	t.Helper()
	store := storage.NewMemoryStorage()
	exec := actions.New(store, zap.NewNop())
	flows := flow.New(zap.NewNop())
	return New(store, exec, flows, extract.Plaintext{}, zap.NewNop()), store
}

func seedJobs(t *testing.T, store *storage.MemoryStorage) {
	t.Helper()
	ctx := context.Background()
	jobs := []*models.Job{
		{EmployerID: 100, Title: "Truck Driver", Location: "Lae", JobType: "full-time",
			Description: "Deliver goods across Morobe province", Status: models.JobActive},
		{EmployerID: 100, Title: "Accountant", Location: "Port Moresby", JobType: "full-time",
			Description: "Prepare financial statements", Status: models.JobActive},
	}
	for _, j := range jobs {
		if _, err := store.CreateJob(ctx, j); err != nil {
			t.Fatalf("seed job: %v", err)
		}
	}
}

func TestSearchDriverJobsInLae(t *testing.T) {
	a, store := newTestAgent(t)
	store.AddUser(&models.User{ID: 1, Name: "Peter Kaupa", Email: "peter@example.com", Role: models.RoleJobseeker})
	seedJobs(t, store)

	reply, err := a.Handle(context.Background(), &Inbound{Text: "find driver jobs in Lae", UserID: 1})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if reply.Intent != "search_jobs" {
		t.Fatalf("intent = %q, want search_jobs", reply.Intent)
	}
	if !strings.Contains(reply.Text, "Truck Driver") {
		t.Errorf("reply missing matching job:\n%s", reply.Text)
	}
	if strings.Contains(reply.Text, "Accountant") {
		t.Errorf("reply includes job outside the location filter:\n%s", reply.Text)
	}
	if reply.SessionToken == "" {
		t.Error("reply has no session token")
	}
}

func TestGuestSearchKeepsSessionToken(t *testing.T) {
	a, store := newTestAgent(t)
	seedJobs(t, store)
	ctx := context.Background()

	first, err := a.Handle(ctx, &Inbound{Text: "hello"})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if first.SessionToken == "" {
		t.Fatal("guest reply has no session token")
	}

	second, err := a.Handle(ctx, &Inbound{Text: "any wok long Lae?", SessionToken: first.SessionToken})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if second.SessionToken != first.SessionToken {
		t.Errorf("token changed across turns: %q -> %q", first.SessionToken, second.SessionToken)
	}
	if !strings.Contains(second.Text, "Truck Driver") {
		t.Errorf("guest search missed seeded job:\n%s", second.Text)
	}
}

func TestCancelMidFlowThenNormalClassification(t *testing.T) {
	a, store := newTestAgent(t)
	store.AddUser(&models.User{ID: 1, Name: "Peter Kaupa", Email: "peter@example.com", Role: models.RoleJobseeker})
	seedJobs(t, store)
	ctx := context.Background()

	reply, err := a.Handle(ctx, &Inbound{Text: "update my profile", UserID: 1})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if reply.Intent != flow.FlowUpdateProfileJobseeker {
		t.Fatalf("intent = %q, want %q", reply.Intent, flow.FlowUpdateProfileJobseeker)
	}
	sess, err := store.LatestSessionByUser(ctx, 1)
	if err != nil {
		t.Fatalf("session lookup: %v", err)
	}
	if sess.CurrentFlow != flow.FlowUpdateProfileJobseeker {
		t.Fatalf("current flow = %q, want active profile flow", sess.CurrentFlow)
	}

	reply, err = a.Handle(ctx, &Inbound{Text: "cancel", UserID: 1})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.Contains(strings.ToLower(reply.Text), "cancel") && !strings.Contains(reply.Text, "stopim") {
		t.Errorf("unexpected cancel reply: %s", reply.Text)
	}
	sess, _ = store.LatestSessionByUser(ctx, 1)
	if sess.CurrentFlow != "" {
		t.Fatalf("flow not cleared after cancel: %q", sess.CurrentFlow)
	}

	reply, err = a.Handle(ctx, &Inbound{Text: "find driver jobs in Lae", UserID: 1})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if reply.Intent != "search_jobs" {
		t.Errorf("post-cancel intent = %q, want search_jobs", reply.Intent)
	}
}

func TestSessionExpiryCreatesNewTokenKeepsTranscript(t *testing.T) {
	a, store := newTestAgent(t)
	store.AddUser(&models.User{ID: 1, Name: "Peter Kaupa", Email: "peter@example.com", Role: models.RoleJobseeker})
	ctx := context.Background()

	uid := int64(1)
	stale := &models.Session{
		UserID:    &uid,
		Channel:   "web",
		Token:     "old-token",
		CreatedAt: time.Now().Add(-3 * time.Hour),
		UpdatedAt: time.Now().Add(-3 * time.Hour),
	}
	if err := store.CreateSession(ctx, stale); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	if err := store.AppendMessage(ctx, &models.Message{ID: "m1", SessionID: stale.ID, Role: models.RoleMessageUser, Content: "old message"}); err != nil {
		t.Fatalf("seed message: %v", err)
	}

	reply, err := a.Handle(ctx, &Inbound{Text: "hello", UserID: 1})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if reply.SessionToken == "" || reply.SessionToken == "old-token" {
		t.Fatalf("expired session did not get a fresh token: %q", reply.SessionToken)
	}

	old, err := store.SessionMessages(ctx, stale.ID, 10)
	if err != nil {
		t.Fatalf("old transcript: %v", err)
	}
	if len(old) != 1 || old[0].Content != "old message" {
		t.Errorf("old transcript lost: %+v", old)
	}
}

func TestDocumentUploadDraftThenConfirmPosts(t *testing.T) {
	a, store := newTestAgent(t)
	store.AddUser(&models.User{ID: 2, Name: "Maria Toua", Email: "maria@example.com", Role: models.RoleEmployer})
	ctx := context.Background()

	doc := &extract.Document{
		Filename: "engineer.txt",
		Data: []byte("Title: Site Engineer\nLocation: Lae\nSalary: K2,000 - K3,500\nType: full-time\n\n" +
			"Supervise construction works on site and manage the local crew across several concurrent projects."),
	}
	reply, err := a.Handle(ctx, &Inbound{UserID: 2, Text: "here is my job description", Attachment: doc})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if reply.Intent != "upload_job_document" {
		t.Fatalf("intent = %q, want upload_job_document", reply.Intent)
	}
	if len(reply.QuickReplies) == 0 || reply.QuickReplies[0] != "Post Now" {
		t.Fatalf("expected Post Now quick reply, got %v", reply.QuickReplies)
	}

	sess, _ := store.LatestSessionByUser(ctx, 2)
	if sess.CurrentFlow != draftApprovalFlow {
		t.Fatalf("current flow = %q, want %q", sess.CurrentFlow, draftApprovalFlow)
	}

	reply, err = a.Handle(ctx, &Inbound{Text: "yes", UserID: 2})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.Contains(reply.Text, "Site Engineer") {
		t.Errorf("posted reply missing job title:\n%s", reply.Text)
	}

	jobs, err := store.EmployerJobs(ctx, 2)
	if err != nil {
		t.Fatalf("employer jobs: %v", err)
	}
	if len(jobs) != 1 || jobs[0].Status != models.JobActive {
		t.Fatalf("draft was not published: %+v", jobs)
	}
	if jobs[0].SalaryMin == nil || *jobs[0].SalaryMin != 2000 {
		t.Errorf("salary not parsed from document: %+v", jobs[0].SalaryMin)
	}
}

func TestCorruptedFlowStateResetsDialogue(t *testing.T) {
	a, store := newTestAgent(t)
	store.AddUser(&models.User{ID: 1, Name: "Peter Kaupa", Email: "peter@example.com", Role: models.RoleJobseeker})
	seedJobs(t, store)
	ctx := context.Background()

	uid := int64(1)
	sess := &models.Session{UserID: &uid, Channel: "web", Token: "tok"}
	if err := store.CreateSession(ctx, sess); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	if err := store.SetSessionFlow(ctx, sess.ID, "vanished-flow", []byte("{not json")); err != nil {
		t.Fatalf("seed flow: %v", err)
	}

	reply, err := a.Handle(ctx, &Inbound{Text: "keep going", UserID: 1})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.Contains(reply.Text, "reset") {
		t.Errorf("expected reset notice, got: %s", reply.Text)
	}
	after, _ := store.LatestSessionByUser(ctx, 1)
	if after.CurrentFlow != "" {
		t.Fatalf("corrupted flow not cleared: %q", after.CurrentFlow)
	}

	reply, err = a.Handle(ctx, &Inbound{Text: "find driver jobs in Lae", UserID: 1})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if reply.Intent != "search_jobs" {
		t.Errorf("post-reset intent = %q, want search_jobs", reply.Intent)
	}
}

func TestFeatureToggles(t *testing.T) {
	a, store := newTestAgent(t)
	ctx := context.Background()

	if err := store.SetSetting(ctx, FeatureGuestChat, "false"); err != nil {
		t.Fatalf("set setting: %v", err)
	}
	reply, err := a.Handle(ctx, &Inbound{Text: "hi"})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.Contains(reply.Text, "log in") {
		t.Errorf("guests should be asked to log in, got: %s", reply.Text)
	}

	if err := store.SetSetting(ctx, FeatureAgentEnabled, "false"); err != nil {
		t.Fatalf("set setting: %v", err)
	}
	reply, err = a.Handle(ctx, &Inbound{Text: "hi"})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.Contains(reply.Text, "offline") {
		t.Errorf("disabled agent should report offline, got: %s", reply.Text)
	}
}

func TestMoodPrefixIsCosmetic(t *testing.T) {
	a, store := newTestAgent(t)
	store.AddUser(&models.User{ID: 1, Name: "Peter Kaupa", Email: "peter@example.com", Role: models.RoleJobseeker})
	seedJobs(t, store)

	reply, err := a.Handle(context.Background(), &Inbound{
		Text:   "this is so frustrating, find driver jobs in Lae",
		UserID: 1,
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if reply.Intent != "search_jobs" {
		t.Fatalf("mood changed routing: intent = %q", reply.Intent)
	}
	if !strings.Contains(reply.Text, "Truck Driver") {
		t.Errorf("mood prefix replaced the actual answer:\n%s", reply.Text)
	}
}

func TestDetectMood(t *testing.T) {
	cases := map[string]string{
		"this site is broken and useless": moodFrustrated,
		"mi no klia long dispela":         moodConfused,
		"I got the job!!":                 moodExcited,
		"need this asap please":           moodImpatient,
		"just the weather today":          "",
	}
	for text, want := range cases {
		if got := detectMood(text); got != want {
			t.Errorf("detectMood(%q) = %q, want %q", text, got, want)
		}
	}
}
