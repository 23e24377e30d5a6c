package api

import "testing"

func TestMapGreenboardDefaultsUntitledAndSynthesizesID(t *testing.T) {
	resp := greenboardResponse{Jobs: []greenboardPosting{
		{Title: "", AbsoluteURL: "https://boards.greenboard.io/acme/1", Location: "Toronto", Remote: true},
	}}
	jobs := mapGreenboard("greenboard", "acme", resp)
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	j := jobs[0]
	if j.Title != "Untitled Role" {
		t.Errorf("expected default title, got %q", j.Title)
	}
	if j.SourceJobID == "" {
		t.Error("expected a synthesized source job id")
	}
	if j.LocationRaw != "Toronto (remote)" {
		t.Errorf("expected remote suffix appended, got %q", j.LocationRaw)
	}
}

func TestMapGreenboardNoRemoteSuffixWhenAlreadyPresent(t *testing.T) {
	resp := greenboardResponse{Jobs: []greenboardPosting{
		{Title: "Engineer", Location: "Remote - Canada", Remote: true},
	}}
	jobs := mapGreenboard("greenboard", "acme", resp)
	if jobs[0].LocationRaw != "Remote - Canada" {
		t.Errorf("expected no duplicate remote suffix, got %q", jobs[0].LocationRaw)
	}
}

func TestBuildGreenboardURLFailsFastOnMissingTemplate(t *testing.T) {
	if _, err := buildGreenboardURL("", "acme"); err == nil {
		t.Fatal("expected error for missing urlTemplate")
	}
}

func TestMapLeverpostUsesSyntheticIDWhenIDAbsent(t *testing.T) {
	jobs := mapLeverpost("leverpost", "acme", []leverpostPosting{
		{Text: "Backend Engineer"},
	})
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	if jobs[0].SourceJobID == "" {
		t.Error("expected synthesized id")
	}
	if jobs[0].URL == "" {
		t.Error("expected constructed fallback URL")
	}
}
