package extract

import (
	"context"
	"errors"
	"testing"
)

func TestPlaintextExtract(t *testing.T) {
	p := Plaintext{}
	ctx := context.Background()

	text, err := p.Extract(ctx, &Document{Filename: "jobs.txt", Data: []byte("Title: Driver")})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if text != "Title: Driver" {
		t.Errorf("text = %q", text)
	}

	if _, err = p.Extract(ctx, &Document{Filename: "jobs.pdf", Data: []byte("%PDF-1.4")}); !errors.Is(err, ErrUnsupported) {
		t.Errorf("pdf err = %v, want ErrUnsupported", err)
	}
}

func TestParseJobsLabeledDocument(t *testing.T) {
	text := `Title: Truck Driver
Location: Lae
Salary: K1,500 - K2,000 per fortnight
Type: Full-time
Category: Transport & Logistics
Requirements: Class 6 licence

Deliver goods across Morobe province.
---
Position: Accounts Clerk
Location: Port Moresby`

	jobs := ParseJobs(text)
	if len(jobs) != 2 {
		t.Fatalf("jobs = %d, want 2", len(jobs))
	}

	j := jobs[0]
	if j.Title != "Truck Driver" || j.Location != "Lae" {
		t.Errorf("first job = %+v", j)
	}
	if j.SalaryMin == nil || *j.SalaryMin != 1500 || j.SalaryMax == nil || *j.SalaryMax != 2000 {
		t.Errorf("salary = %v / %v", j.SalaryMin, j.SalaryMax)
	}
	if j.JobType != "full-time" {
		t.Errorf("job type = %q", j.JobType)
	}
	if j.CategorySlug != "transport-logistics" {
		t.Errorf("category slug = %q", j.CategorySlug)
	}
	if j.Requirements != "Class 6 licence" {
		t.Errorf("requirements = %q", j.Requirements)
	}
	if j.Description != "Deliver goods across Morobe province." {
		t.Errorf("description = %q", j.Description)
	}

	if jobs[1].Title != "Accounts Clerk" || jobs[1].Location != "Port Moresby" {
		t.Errorf("second job = %+v", jobs[1])
	}
}

func TestParseJobsUnlabeledFallsBackToFirstLine(t *testing.T) {
	jobs := ParseJobs("Security Guard\nNight shifts at the Waigani branch.\nMust have own transport.")
	if len(jobs) != 1 {
		t.Fatalf("jobs = %d, want 1", len(jobs))
	}
	if jobs[0].Title != "Security Guard" {
		t.Errorf("title = %q", jobs[0].Title)
	}
	if jobs[0].Description != "Night shifts at the Waigani branch.\nMust have own transport." {
		t.Errorf("description = %q", jobs[0].Description)
	}
}

func TestParseJobsSecondTitleStartsNewPosting(t *testing.T) {
	jobs := ParseJobs("Title: Cook\nLocation: Madang\nTitle: Waiter\nLocation: Madang")
	if len(jobs) != 2 {
		t.Fatalf("jobs = %d, want 2", len(jobs))
	}
	if jobs[0].Title != "Cook" || jobs[1].Title != "Waiter" {
		t.Errorf("titles = %q, %q", jobs[0].Title, jobs[1].Title)
	}
}
