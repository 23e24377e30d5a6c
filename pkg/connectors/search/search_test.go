package search

import (
	"testing"
	"time"

	"jobradar/pkg/searchapi"
)

func TestExtractCompanyAtPattern(t *testing.T) {
	company, title := extractCompany("Backend Engineer at Acme Corp")
	if company != "Acme Corp" || title != "Backend Engineer" {
		t.Errorf("got company=%q title=%q", company, title)
	}
}

func TestExtractCompanyDashPattern(t *testing.T) {
	company, title := extractCompany("Acme Corp - Backend Engineer")
	if company != "Acme Corp" || title != "Backend Engineer" {
		t.Errorf("got company=%q title=%q", company, title)
	}
}

func TestExtractCompanyDefaultsUnknown(t *testing.T) {
	company, _ := extractCompany("Backend Engineer")
	if company != "Unknown Company" {
		t.Errorf("expected default company, got %q", company)
	}
}

func TestIsBlockedRole(t *testing.T) {
	if !isBlockedRole("Senior Sales Executive") {
		t.Error("expected sales role to be blocked")
	}
	if isBlockedRole("Senior Backend Engineer") {
		t.Error("expected engineer role to pass")
	}
}

func TestPassesURLShapeRejectsIndeedSearchPage(t *testing.T) {
	if passesURLShape("https://www.indeed.com/jobs?q=engineer") {
		t.Error("expected indeed index page to be rejected")
	}
	if !passesURLShape("https://www.indeed.com/viewjob?jk=abc123") {
		t.Error("expected indeed viewjob link to pass")
	}
}

func TestMapResultsFiltersAndParsesSnippetDate(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	results := []searchapi.Result{
		{Link: "https://boards.example.com/jobs/123", Title: "Backend Engineer at Acme", Snippet: "2 days ago"},
		{Link: "https://www.indeed.com/jobs?q=sales", Title: "Sales Rep at Acme", Snippet: "today"},
	}
	jobs := mapResults("aggregator", results, now)
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job after filtering, got %d", len(jobs))
	}
	if jobs[0].Company != "Acme" {
		t.Errorf("expected company Acme, got %q", jobs[0].Company)
	}
	if jobs[0].PostedAtRaw == nil || !jobs[0].PostedAtRaw.Equal(now.AddDate(0, 0, -2)) {
		t.Errorf("expected posted date 2 days before now, got %v", jobs[0].PostedAtRaw)
	}
}
