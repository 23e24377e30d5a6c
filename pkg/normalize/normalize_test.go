package normalize

import (
	"testing"
	"time"

	config "jobradar/configs"
	"jobradar/pkg/models"
)

func TestTitleBucketRejectWinsRegardlessOfOrder(t *testing.T) {
	filters := config.TitleFilters{
		Include: []string{"engineer"},
		Reject:  []string{"intern"},
	}
	got := TitleBucket("Software Engineer Intern", filters)
	if got != models.TitleBucketReject {
		t.Fatalf("expected reject, got %s", got)
	}
}

func TestLocationTierHighestPointsWins(t *testing.T) {
	tiers := config.LocationsConfig{
		"L1": {Label: "Toronto Core", Points: 50, Cities: []string{"toronto"}},
		"L2": {Label: "Ontario", Points: 20, Cities: []string{"ontario"}},
	}
	got := LocationTier("Downtown Toronto, Ontario", tiers)
	if got.Tier != "L1" {
		t.Fatalf("expected L1 (higher points), got %s", got.Tier)
	}
}

func TestLocationTierRemoteHasNoProvince(t *testing.T) {
	tiers := config.LocationsConfig{
		"remote": {Label: "Remote", Points: 10, Cities: []string{"remote"}},
	}
	got := LocationTier("Remote - Canada", tiers)
	if got.Province != "" {
		t.Fatalf("expected empty province for remote tier, got %q", got.Province)
	}
}

func TestWorkModeHybridWhenRemoteAndOnsiteKeywordsPresent(t *testing.T) {
	modes := config.ModesConfig{
		"remote": {Keywords: []string{"remote"}},
		"onsite": {Keywords: []string{"on-site"}},
		"hybrid": {Keywords: []string{"hybrid"}},
	}
	got := WorkMode("This role is remote and on-site flexible", "", modes, "")
	if got != models.WorkModeHybrid {
		t.Fatalf("expected hybrid, got %s", got)
	}
}

func TestWorkModeRemoteWithConcreteCityBecomesHybrid(t *testing.T) {
	modes := config.ModesConfig{
		"remote": {Keywords: []string{"remote"}},
	}
	got := WorkMode("Fully remote position", "Toronto, ON", modes, "L1")
	if got != models.WorkModeHybrid {
		t.Fatalf("expected hybrid when remote + concrete city, got %s", got)
	}
}

func TestCompanyStripsLegalSuffix(t *testing.T) {
	cases := map[string]string{
		"Acme Corp.":        "Acme",
		"Widgets Inc":       "Widgets",
		"Example  Ltd.":     "Example",
		"Holdings, LLC":     "Holdings",
	}
	for in, want := range cases {
		got := Company(in)
		if got != want {
			t.Errorf("Company(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestURLHashStripsTrailingSlashAndQuery(t *testing.T) {
	a := URLHash("HTTPS://Example.com/jobs/123/")
	b := URLHash("https://example.com/jobs/123?utm_source=x")
	if a != b {
		t.Fatalf("expected equal hashes, got %s vs %s", a, b)
	}
}

func TestContentFingerprintStripsTagsAndWhitespace(t *testing.T) {
	a := ContentFingerprint("<p>Hello   World</p>")
	b := ContentFingerprint("hello world")
	if a != b {
		t.Fatalf("expected equal fingerprints, got %s vs %s", a, b)
	}
}

func TestTimestampRawTextRelativeIsMedium(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	ts, conf := Timestamp(nil, "yesterday", time.UTC, now)
	if ts == nil {
		t.Fatal("expected parsed timestamp")
	}
	if conf != models.ConfidenceMedium {
		t.Fatalf("expected medium confidence, got %s", conf)
	}
}

func TestTimestampUnparseableIsLow(t *testing.T) {
	now := time.Now()
	ts, conf := Timestamp(nil, "whenever", time.UTC, now)
	if ts != nil {
		t.Fatalf("expected nil timestamp, got %v", ts)
	}
	if conf != models.ConfidenceLow {
		t.Fatalf("expected low confidence, got %s", conf)
	}
}
