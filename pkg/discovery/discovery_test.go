package discovery

import "testing"

func TestMatchBoardGreenhouse(t *testing.T) {
	board, ok := MatchBoard("https://boards.greenhouse.io/acme/jobs/12345")
	if !ok {
		t.Fatal("expected a match")
	}
	if board.Platform != "greenhouse" || board.BoardSlug != "acme" {
		t.Errorf("unexpected board: %+v", board)
	}
	if board.BoardURL != "https://boards.greenhouse.io/acme" {
		t.Errorf("unexpected canonical url: %q", board.BoardURL)
	}
	if board.Confidence != baseConfidence {
		t.Errorf("expected base confidence, got %v", board.Confidence)
	}
}

func TestMatchBoardLever(t *testing.T) {
	board, ok := MatchBoard("https://jobs.lever.co/widgetco")
	if !ok || board.Platform != "lever" || board.BoardSlug != "widgetco" {
		t.Errorf("unexpected result: %+v ok=%v", board, ok)
	}
}

func TestMatchBoardNoMatch(t *testing.T) {
	if _, ok := MatchBoard("https://example.com/careers"); ok {
		t.Error("expected no match for unrecognized domain")
	}
}

func TestMatchBoardFirstPatternWins(t *testing.T) {
	// This link matches both the greenhouse and the recruitee pattern;
	// confirm greenhouse (declared first) wins.
	board, ok := MatchBoard("https://boards.greenhouse.io/foo.recruitee.com")
	if !ok || board.Platform != "greenhouse" {
		t.Errorf("expected greenhouse to win, got %+v", board)
	}
}
