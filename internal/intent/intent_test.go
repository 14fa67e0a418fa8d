package intent

import (
	"testing"

	"github.com/wantokjobs/jean/internal/models"
)

func jobseeker() *models.User {
	return &models.User{ID: 1, Role: models.RoleJobseeker}
}

func employer() *models.User {
	return &models.User{ID: 2, Role: models.RoleEmployer}
}

func TestClassifyBasicIntents(t *testing.T) {
	cases := []struct {
		name string
		text string
		ctx  Context
		want string
	}{
		{"greeting", "Hello there", Context{}, "greeting"},
		{"greeting tok pisin", "gutpela moning", Context{}, "greeting"},
		{"farewell", "bye for now", Context{}, "farewell"},
		{"search", "find me some driver jobs", Context{}, "search_jobs"},
		{"search tok pisin", "any wok long Lae?", Context{User: jobseeker()}, "search_jobs"},
		{"job details by id", "tell me about job #12", Context{}, "job_details"},
		{"profile", "update my profile", Context{User: jobseeker()}, "update_profile"},
		{"resume", "help me build a CV", Context{User: jobseeker()}, "build_resume"},
		{"apply", "I want to apply for this job", Context{User: jobseeker()}, "apply_job"},
		{"auto apply", "set up auto-apply for me", Context{User: jobseeker()}, "auto_apply_setup"},
		{"stop auto apply", "stop auto-apply please", Context{User: jobseeker()}, "stop_auto_apply"},
		{"post job", "I'd like to post a new job", Context{User: employer()}, "post_job"},
		{"view applicants", "who applied to my listing?", Context{User: employer()}, "view_applicants"},
		{"categories", "what categories do you have", Context{}, "browse_categories"},
		{"support", "I have a problem with my account", Context{}, "contact_support"},
		{"unknown", "xyzzy plugh", Context{}, "unknown"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.text, tc.ctx)
			if got.Intent != tc.want {
				t.Errorf("Classify(%q) = %s, want %s", tc.text, got.Intent, tc.want)
			}
		})
	}
}

func TestClassifyEmptyMessage(t *testing.T) {
	got := Classify("   ", Context{})
	if got.Intent != Greeting {
		t.Fatalf("empty message intent = %s, want greeting", got.Intent)
	}
	if got.Confidence != 0.5 {
		t.Fatalf("empty message confidence = %v, want 0.5", got.Confidence)
	}
}

func TestClassifyAuthGating(t *testing.T) {
	// Anonymous users never get auth-only intents; the same text must
	// fall through to something public or unknown.
	got := Classify("update my profile", Context{})
	if got.Intent == "update_profile" {
		t.Fatalf("anonymous user matched auth-only intent %s", got.Intent)
	}
}

func TestClassifyRoleGating(t *testing.T) {
	// An employer asking to "apply" must not hit the jobseeker intent.
	got := Classify("I want to apply for this job", Context{User: employer()})
	if got.Intent == "apply_job" {
		t.Fatal("employer matched jobseeker-only apply_job")
	}

	// And a jobseeker cannot post jobs.
	got = Classify("post a new job listing", Context{User: jobseeker()})
	if got.Intent == "post_job" {
		t.Fatal("jobseeker matched employer-only post_job")
	}
}

func TestClassifyShortInputBoost(t *testing.T) {
	short := Classify("any jobs?", Context{})
	long := Classify("are there any jobs available right now in the city", Context{})
	if short.Intent != "search_jobs" || long.Intent != "search_jobs" {
		t.Fatalf("intents = %s / %s, want search_jobs", short.Intent, long.Intent)
	}
	if short.Confidence <= long.Confidence {
		t.Errorf("short input confidence %v not above long input %v", short.Confidence, long.Confidence)
	}
}

func TestClassifyFlowControl(t *testing.T) {
	ctx := Context{User: jobseeker(), CurrentFlow: "build-resume"}

	cases := []struct {
		text string
		want string
	}{
		{"cancel", CancelFlow},
		{"never mind", CancelFlow},
		{"skip", SkipStep},
		{"yes", Confirm},
		{"em tasol", Confirm},
		{"nogat", Reject},
		{"Senior Mechanic at Ela Motors", FlowInput},
	}
	for _, tc := range cases {
		got := Classify(tc.text, ctx)
		if got.Intent != tc.want {
			t.Errorf("Classify(%q) in flow = %s, want %s", tc.text, got.Intent, tc.want)
		}
		if tc.want == FlowInput && got.Params.Text != tc.text {
			t.Errorf("flow input lost text: %q", got.Params.Text)
		}
	}
}

func TestClassifyFlowControlOnlyInsideFlow(t *testing.T) {
	got := Classify("cancel", Context{User: jobseeker()})
	if got.Intent == CancelFlow {
		t.Fatal("cancel_flow matched with no active flow")
	}
}

func TestClassifyLinkedInURL(t *testing.T) {
	got := Classify("here is my profile https://linkedin.com/in/jane-doe", Context{User: jobseeker()})
	if got.Intent != ImportLinkedIn {
		t.Fatalf("intent = %s, want import_linkedin", got.Intent)
	}
	if got.Params.URL != "linkedin.com/in/jane-doe" {
		t.Errorf("url = %q", got.Params.URL)
	}
	if got.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0", got.Confidence)
	}
}

func TestExtractParams(t *testing.T) {
	p := ExtractParams("find full-time driver jobs in Lae paying K1,500 to K2,000", "search_jobs")
	if p.Location != "lae" {
		t.Errorf("location = %q, want lae", p.Location)
	}
	if p.JobType != "full-time" {
		t.Errorf("job type = %q, want full-time", p.JobType)
	}
	if p.SalaryMin != 1500 || p.SalaryMax != 2000 {
		t.Errorf("salary = %d-%d, want 1500-2000", p.SalaryMin, p.SalaryMax)
	}
}

func TestExtractParamsJobID(t *testing.T) {
	p := ExtractParams("tell me more about job #42", "job_details")
	if p.JobID != 42 {
		t.Errorf("job id = %d, want 42", p.JobID)
	}
}

func TestExtractParamsSalaryNeedsJobIntent(t *testing.T) {
	p := ExtractParams("I paid K500", "pricing")
	if p.SalaryMin != 0 {
		t.Errorf("salary extracted for non-job intent: %d", p.SalaryMin)
	}
}
