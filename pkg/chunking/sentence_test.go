package chunking

import (
	"strings"
	"testing"
)

func TestHardSplitAtWhitespaceKeepsPiecesWithinLimit(t *testing.T) {
	text := strings.Repeat("word ", 40) // 200 chars, plenty of whitespace
	pieces := hardSplitAtWhitespace(text, 30)
	if len(pieces) < 2 {
		t.Fatalf("got %d pieces, want at least 2", len(pieces))
	}
	for _, p := range pieces {
		if len([]rune(p)) > 30 {
			t.Errorf("piece %q exceeds limit of 30 runes (%d)", p, len([]rune(p)))
		}
	}
	if got := strings.Join(pieces, ""); got != text {
		t.Errorf("pieces do not concatenate back losslessly:\ngot:  %q\nwant: %q", got, text)
	}
}

func TestHardSplitAtWhitespaceHardCutsUnbrokenToken(t *testing.T) {
	text := strings.Repeat("a", 50) // one long token, no whitespace at all
	pieces := hardSplitAtWhitespace(text, 20)
	if len(pieces) != 3 {
		t.Fatalf("got %d pieces, want 3 (20+20+10)", len(pieces))
	}
	for i, p := range pieces[:len(pieces)-1] {
		if len([]rune(p)) != 20 {
			t.Errorf("piece %d has length %d, want 20", i, len([]rune(p)))
		}
	}
	if got := strings.Join(pieces, ""); got != text {
		t.Errorf("pieces do not concatenate back losslessly")
	}
}

func TestHardSplitAtWhitespaceNoopUnderLimit(t *testing.T) {
	text := "short text"
	pieces := hardSplitAtWhitespace(text, 100)
	if len(pieces) != 1 || pieces[0] != text {
		t.Errorf("got %v, want single unchanged piece", pieces)
	}
}

func TestSentencesStrategyHardSplitsOversizeSentence(t *testing.T) {
	// A single run-on "sentence" (no terminator) that exceeds MaxChunkSize
	// must never come back as one non-atomic chunk larger than the limit.
	longRun := strings.Repeat("token ", 50) // 300 chars, no .!?
	text := "Intro sentence. " + longRun + "Trailing sentence.\n"
	cfg, err := NewChunkConfig(WithMaxChunkSize(100))
	if err != nil {
		t.Fatalf("NewChunkConfig() error = %v", err)
	}

	a := NewAnalyzer(false)
	lines := splitLines(text)
	analysis, err := a.Analyze(text)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	strat := &sentencesStrategy{}
	chunks, err := strat.Chunk(text, lines, analysis, cfg)
	if err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}
	for _, c := range chunks {
		if len([]rune(c.Content)) > cfg.MaxChunkSize {
			t.Errorf("chunk exceeds MaxChunkSize (%d): %q", cfg.MaxChunkSize, c.Content)
		}
	}

	var rebuilt strings.Builder
	for _, c := range chunks {
		rebuilt.WriteString(c.Content)
		rebuilt.WriteByte(' ')
	}
	if !strings.Contains(rebuilt.String(), "Intro sentence") || !strings.Contains(rebuilt.String(), "Trailing sentence") {
		t.Errorf("content lost across the hard split: %q", rebuilt.String())
	}
}
