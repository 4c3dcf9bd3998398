package chunking

import (
	"strings"
	"testing"
)

// buildTrailingGapDocument returns Markdown whose only chunk is a fenced
// code block, followed by enough trailing blank lines to leave a >=10-line
// gap at the end of the document per minGapLines.
func buildTrailingGapDocument() string {
	return "```go\ncode here\n```\n" + strings.Repeat("\n", 15)
}

func TestEnableContentValidationGatesCoverageWarnings(t *testing.T) {
	text := buildTrailingGapDocument()

	enabled, err := New(WithContentValidation(true))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	disabled, err := New(WithContentValidation(false))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	resEnabled, err := enabled.Chunk(text)
	if err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}
	resDisabled, err := disabled.Chunk(text)
	if err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}

	foundGapWarning := false
	for _, w := range resEnabled.Warnings {
		if strings.Contains(w, IssueGap) {
			foundGapWarning = true
		}
	}
	if !foundGapWarning {
		t.Fatalf("expected a gap warning with EnableContentValidation=true, got %v", resEnabled.Warnings)
	}

	for _, w := range resDisabled.Warnings {
		if strings.Contains(w, IssueGap) {
			t.Errorf("did not expect a gap warning with EnableContentValidation=false, got %v", resDisabled.Warnings)
		}
	}
}
