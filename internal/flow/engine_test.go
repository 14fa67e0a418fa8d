package flow

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/wantokjobs/jean/internal/actions"
	"github.com/wantokjobs/jean/internal/models"
	"github.com/wantokjobs/jean/internal/storage"
)

func newTestEnv(t *testing.T) (*Engine, *storage.MemoryStorage, actions.Executor) {
	t.Helper()
	store := storage.NewMemoryStorage()
	exec := actions.New(store, zap.NewNop())
	return New(zap.NewNop()), store, exec
}

func flowCtx(exec actions.Executor, user *models.User) *Context {
	c := &Context{Ctx: context.Background(), Exec: exec, User: user, SessionID: 1}
	if user != nil {
		c.UserID = user.ID
	}
	return c
}

// roundTrip simulates state persistence between turns.
func roundTrip(t *testing.T, state *State) *State {
	t.Helper()
	blob, err := state.Encode()
	if err != nil {
		t.Fatalf("encode state: %v", err)
	}
	restored, err := DecodeState(blob)
	if err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return restored
}

func TestProfileFlowSkipsFilledFields(t *testing.T) {
	engine, store, exec := newTestEnv(t)

	user := &models.User{ID: 1, Email: "sam@example.com", Name: "Sam", Role: models.RoleJobseeker}
	store.AddUser(user)
	prof, _ := store.GetJobseekerProfile(context.Background(), 1)
	prof.Headline = "Diesel Mechanic"
	prof.Location = "Lae, Morobe"
	if err := store.UpdateJobseekerProfile(context.Background(), prof); err != nil {
		t.Fatal(err)
	}

	res, err := engine.Start(flowCtx(exec, user), FlowUpdateProfileJobseeker)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if res.Done {
		t.Fatal("flow ended immediately with fields still missing")
	}
	// Headline and location are filled, so the first question is phone.
	if res.State.StepIndex != 2 {
		t.Errorf("step index = %d, want 2 (phone)", res.State.StepIndex)
	}
	if !strings.Contains(res.Message, "phone") {
		t.Errorf("first prompt should ask for phone, got %q", res.Message)
	}
}

func TestProfileFlowAlreadyComplete(t *testing.T) {
	engine, store, exec := newTestEnv(t)

	user := &models.User{ID: 1, Email: "sam@example.com", Role: models.RoleJobseeker}
	store.AddUser(user)
	salary := 3000
	prof, _ := store.GetJobseekerProfile(context.Background(), 1)
	prof.Headline = "Accountant"
	prof.Location = "Port Moresby"
	prof.Phone = "7000 0000"
	prof.Skills = []string{"bookkeeping"}
	prof.Bio = "Ten years balancing books across NCD."
	prof.DesiredJobType = "full-time"
	prof.DesiredSalaryMin = &salary
	if err := store.UpdateJobseekerProfile(context.Background(), prof); err != nil {
		t.Fatal(err)
	}

	res, err := engine.Start(flowCtx(exec, user), FlowUpdateProfileJobseeker)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !res.Done {
		t.Fatal("complete profile should end the flow at start")
	}
	if res.State != nil {
		t.Error("no state should be produced for a flow that never activated")
	}
}

func TestProfileFlowCollectsAndSaves(t *testing.T) {
	engine, store, exec := newTestEnv(t)

	user := &models.User{ID: 1, Email: "sam@example.com", Name: "Sam", Role: models.RoleJobseeker}
	store.AddUser(user)

	c := flowCtx(exec, user)
	res, err := engine.Start(c, FlowUpdateProfileJobseeker)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	answers := []string{
		"Diesel Mechanic",
		"Lae, Morobe",
		"7123 4567",
		"engine repair, hydraulics, welding",
		"Eight years servicing heavy machinery for mining contractors.",
		"Full-time",
		"K2,000 - K3,500",
	}
	state := res.State
	for _, answer := range answers {
		state = roundTrip(t, state)
		// A fresh context each turn, as the orchestrator would build.
		res, err = engine.ProcessInput(flowCtx(exec, user), state, answer)
		if err != nil {
			t.Fatalf("process %q: %v", answer, err)
		}
		if res.State != nil {
			state = res.State
		}
	}
	if !res.Done {
		t.Fatal("flow should be complete after final answer")
	}

	saved, err := store.GetJobseekerProfile(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if saved.Headline != "Diesel Mechanic" {
		t.Errorf("headline = %q", saved.Headline)
	}
	if len(saved.Skills) != 3 || saved.Skills[0] != "engine repair" {
		t.Errorf("skills = %v", saved.Skills)
	}
	if saved.DesiredJobType != "full-time" {
		t.Errorf("job type = %q, want normalized full-time", saved.DesiredJobType)
	}
	if saved.DesiredSalaryMin == nil || *saved.DesiredSalaryMin != 2000 {
		t.Errorf("salary min = %v, want 2000", saved.DesiredSalaryMin)
	}
	if saved.DesiredSalaryMax == nil || *saved.DesiredSalaryMax != 3500 {
		t.Errorf("salary max = %v, want 3500", saved.DesiredSalaryMax)
	}
	if !saved.Complete {
		t.Error("profile should be marked complete")
	}
}

func TestValidationRepromptsWithoutAdvancing(t *testing.T) {
	engine, store, exec := newTestEnv(t)

	user := &models.User{ID: 1, Email: "e@example.com", Role: models.RoleEmployer}
	store.AddUser(user)

	c := flowCtx(exec, user)
	res, err := engine.Start(c, FlowPostJob)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	res, err = engine.ProcessInput(c, res.State, "ab") // below the 3-char minimum
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if res.Done {
		t.Fatal("flow ended on invalid input")
	}
	if res.State.StepIndex != 0 {
		t.Errorf("step advanced to %d on invalid input", res.State.StepIndex)
	}
	if !strings.Contains(res.Message, "⚠️") {
		t.Errorf("expected a validation warning, got %q", res.Message)
	}

	res, err = engine.ProcessInput(c, res.State, "Senior Mechanic")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if res.State.StepIndex != 1 {
		t.Errorf("step = %d after valid input, want 1", res.State.StepIndex)
	}
}

func TestResumeFlowMultiEntry(t *testing.T) {
	engine, store, exec := newTestEnv(t)

	user := &models.User{ID: 1, Email: "sam@example.com", Name: "Sam", Role: models.RoleJobseeker}
	store.AddUser(user)

	c := flowCtx(exec, user)
	res, err := engine.Start(c, FlowBuildResume)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	state := res.State

	// Two work entries, then done.
	for _, answer := range []string{
		"Ela Motors, Senior Mechanic, 2018-2024, serviced fleet vehicles",
		"Hastings Deering, Apprentice, 2015-2018",
	} {
		state = roundTrip(t, state)
		res, err = engine.ProcessInput(flowCtx(exec, user), state, answer)
		if err != nil {
			t.Fatalf("process %q: %v", answer, err)
		}
		state = res.State
		if state.StepIndex != 0 {
			t.Fatalf("multi-entry step advanced early to %d", state.StepIndex)
		}
	}
	if len(state.MultiBuffer["work_history"]) != 2 {
		t.Fatalf("buffered %d work entries, want 2", len(state.MultiBuffer["work_history"]))
	}

	res, err = engine.ProcessInput(flowCtx(exec, user), state, "done")
	if err != nil {
		t.Fatalf("done: %v", err)
	}
	state = res.State
	if state.StepIndex != 1 {
		t.Fatalf("step = %d after done, want 1 (education)", state.StepIndex)
	}

	res, err = engine.ProcessInput(flowCtx(exec, user), state, "Diploma in Mechanical Engineering from Unitech, 2015")
	if err != nil {
		t.Fatal(err)
	}
	res, err = engine.ProcessInput(flowCtx(exec, user), res.State, "done")
	if err != nil {
		t.Fatal(err)
	}
	res, err = engine.ProcessInput(flowCtx(exec, user), res.State, "First Aid, Driver's License")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Done {
		t.Fatal("resume flow should be complete")
	}

	saved, _ := store.GetJobseekerProfile(context.Background(), 1)
	if len(saved.WorkHistory) != 2 {
		t.Fatalf("saved %d work entries, want 2", len(saved.WorkHistory))
	}
	first := saved.WorkHistory[0]
	if first.Company != "Ela Motors" || first.Title != "Senior Mechanic" {
		t.Errorf("first entry = %+v", first)
	}
	if first.StartDate != "2018" || first.EndDate != "2024" {
		t.Errorf("dates = %s-%s", first.StartDate, first.EndDate)
	}
	if len(saved.Education) != 1 || saved.Education[0].Institution != "Unitech" {
		t.Errorf("education = %+v", saved.Education)
	}
}

func TestPostJobFlowCreatesDraftByDefault(t *testing.T) {
	engine, store, exec := newTestEnv(t)

	user := &models.User{ID: 2, Email: "boss@example.com", Role: models.RoleEmployer}
	store.AddUser(user)

	c := flowCtx(exec, user)
	res, err := engine.Start(c, FlowPostJob)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	answers := []string{
		"Senior Mechanic",
		"Maintain and repair our fleet of delivery trucks across Morobe province.",
		"Trade certificate and 5+ years experience",
		"Lae, Morobe",
		"Full-time",
		"Senior",
		"Transport",
		"K3000-5000",
		"open",
	}
	state := res.State
	for _, answer := range answers {
		res, err = engine.ProcessInput(flowCtx(exec, user), state, answer)
		if err != nil {
			t.Fatalf("process %q: %v", answer, err)
		}
		if res.State != nil {
			state = res.State
		}
	}
	if !res.Done {
		t.Fatal("flow should complete")
	}
	// Default auto-post mode is review, so a draft is created and no
	// job is published yet.
	if res.AwaitingDraftID == 0 {
		t.Fatal("expected a draft awaiting approval")
	}
	draft, err := store.GetDraft(context.Background(), res.AwaitingDraftID)
	if err != nil {
		t.Fatalf("draft not stored: %v", err)
	}
	if draft.Job.Title != "Senior Mechanic" {
		t.Errorf("draft title = %q", draft.Job.Title)
	}
	jobs, _ := store.EmployerJobs(context.Background(), 2)
	if len(jobs) != 0 {
		t.Errorf("job was published despite review mode: %d jobs", len(jobs))
	}
}

func TestPostJobFlowAutoMode(t *testing.T) {
	engine, store, exec := newTestEnv(t)

	user := &models.User{ID: 2, Email: "boss@example.com", Role: models.RoleEmployer}
	store.AddUser(user)
	if err := store.UpdateEmployerPrefs(context.Background(), &models.EmployerPrefs{
		UserID: 2, AutoPost: models.AutoPostAuto, NotifyOnApply: true,
	}); err != nil {
		t.Fatal(err)
	}

	c := flowCtx(exec, user)
	res, err := engine.Start(c, FlowPostJob)
	if err != nil {
		t.Fatal(err)
	}
	answers := []string{
		"Office Cleaner",
		"Keep our Waigani office tidy, restock supplies, light maintenance.",
		"skip", "Port Moresby", "Part-time", "Entry Level", "Other", "negotiable", "open",
	}
	state := res.State
	for _, answer := range answers {
		res, err = engine.ProcessInput(flowCtx(exec, user), state, answer)
		if err != nil {
			t.Fatalf("process %q: %v", answer, err)
		}
		if res.State != nil {
			state = res.State
		}
	}
	if !res.Done {
		t.Fatal("flow should complete")
	}
	if res.AwaitingDraftID != 0 {
		t.Error("auto mode should not leave a draft pending")
	}
	jobs, _ := store.EmployerJobs(context.Background(), 2)
	if len(jobs) != 1 {
		t.Fatalf("published %d jobs, want 1", len(jobs))
	}
	if jobs[0].Status != models.JobActive {
		t.Errorf("job status = %q", jobs[0].Status)
	}
}

func TestAutoApplySetupCreatesRule(t *testing.T) {
	engine, store, exec := newTestEnv(t)

	user := &models.User{ID: 1, Email: "sam@example.com", Role: models.RoleJobseeker}
	store.AddUser(user)

	c := flowCtx(exec, user)
	res, err := engine.Start(c, FlowAutoApplySetup)
	if err != nil {
		t.Fatal(err)
	}
	answers := []string{
		"mechanic, driver",
		"any",
		"K2000",
		"Lae",
		"3",
	}
	state := res.State
	for _, answer := range answers {
		state = roundTrip(t, state)
		res, err = engine.ProcessInput(flowCtx(exec, user), state, answer)
		if err != nil {
			t.Fatalf("process %q: %v", answer, err)
		}
		if res.State != nil {
			state = res.State
		}
	}
	if !res.Done {
		t.Fatal("setup flow should complete")
	}

	rules, _ := store.UserRules(context.Background(), 1)
	if len(rules) != 1 {
		t.Fatalf("created %d rules, want 1", len(rules))
	}
	rule := rules[0]
	if !rule.Active {
		t.Error("new rule should be active")
	}
	if len(rule.Keywords) != 2 || rule.Keywords[1] != "driver" {
		t.Errorf("keywords = %v", rule.Keywords)
	}
	if len(rule.Categories) != 0 {
		t.Errorf("categories = %v, want empty for 'any'", rule.Categories)
	}
	if rule.MinSalary == nil || *rule.MinSalary != 2000 {
		t.Errorf("min salary = %v", rule.MinSalary)
	}
	if rule.MaxDaily != 3 {
		t.Errorf("max daily = %d, want 3", rule.MaxDaily)
	}
}

func TestSkipStepAdvances(t *testing.T) {
	engine, store, exec := newTestEnv(t)

	user := &models.User{ID: 1, Email: "sam@example.com", Role: models.RoleJobseeker}
	store.AddUser(user)

	c := flowCtx(exec, user)
	res, err := engine.Start(c, FlowUpdateProfileJobseeker)
	if err != nil {
		t.Fatal(err)
	}
	res, err = engine.SkipStep(c, res.State)
	if err != nil {
		t.Fatal(err)
	}
	if res.State.StepIndex != 1 {
		t.Errorf("step = %d after skip, want 1", res.State.StepIndex)
	}
	if _, collected := res.State.Collected["headline"]; collected {
		t.Error("skipped step should collect nothing")
	}
}

func TestContactSupportAnonymous(t *testing.T) {
	engine, _, exec := newTestEnv(t)

	c := flowCtx(exec, nil)
	res, err := engine.Start(c, FlowContactSupport)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	answers := []string{
		"Technical Issue",
		"The search page keeps timing out on my phone.",
		"visitor@example.com",
	}
	state := res.State
	for _, answer := range answers {
		res, err = engine.ProcessInput(flowCtx(exec, nil), state, answer)
		if err != nil {
			t.Fatalf("process %q: %v", answer, err)
		}
		if res.State != nil {
			state = res.State
		}
	}
	if !res.Done {
		t.Fatal("contact flow should complete for anonymous users")
	}
	if !strings.Contains(res.Message, "visitor@example.com") {
		t.Errorf("confirmation should echo the email, got %q", res.Message)
	}
}

func TestContactSupportSkipsEmailForKnownUser(t *testing.T) {
	engine, store, exec := newTestEnv(t)

	user := &models.User{ID: 1, Email: "sam@example.com", Name: "Sam", Role: models.RoleJobseeker}
	store.AddUser(user)

	c := flowCtx(exec, user)
	res, err := engine.Start(c, FlowContactSupport)
	if err != nil {
		t.Fatal(err)
	}
	res, err = engine.ProcessInput(c, res.State, "Billing Question")
	if err != nil {
		t.Fatal(err)
	}
	res, err = engine.ProcessInput(c, res.State, "I was charged twice for the starter package.")
	if err != nil {
		t.Fatal(err)
	}
	// Email step is skipped; the flow completes using the account email.
	if !res.Done {
		t.Fatal("flow should complete without asking for email")
	}
	if !strings.Contains(res.Message, "sam@example.com") {
		t.Errorf("confirmation should use account email, got %q", res.Message)
	}
}
