package chunking

import (
	"strconv"
	"testing"
)

func TestCompletenessValidatorFlagsLargeGapOnly(t *testing.T) {
	v := NewCompletenessValidator()

	small := []Chunk{
		newChunk("a", 1, 5, StrategySentences, ContentTypeText),
		newChunk("b", 8, 10, StrategySentences, ContentTypeText), // 2-line gap, below threshold
	}
	if issues := v.Validate(small, 10); len(issues) != 0 {
		t.Errorf("small gap should not be flagged, got %v", issues)
	}

	large := []Chunk{
		newChunk("a", 1, 5, StrategySentences, ContentTypeText),
		newChunk("b", 20, 25, StrategySentences, ContentTypeText), // 14-line gap
	}
	issues := v.Validate(large, 25)
	found := false
	for _, i := range issues {
		if i.Kind == IssueGap {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a gap issue for a 14-line hole, got %v", issues)
	}
}

func TestCompletenessValidatorFlagsEmptyChunk(t *testing.T) {
	v := NewCompletenessValidator()
	chunks := []Chunk{newChunk("   \n", 1, 1, StrategySentences, ContentTypeText)}
	issues := v.Validate(chunks, 1)
	if len(issues) != 1 || issues[0].Kind != IssueEmptyChunk {
		t.Errorf("expected one empty_chunk issue, got %v", issues)
	}
}

func TestCompletenessValidatorCoverageDrift(t *testing.T) {
	v := NewCompletenessValidator()
	chunks := []Chunk{newChunk("short", 1, 1, StrategySentences, ContentTypeText)}

	// Input far larger than what the chunks cover.
	issues := v.ValidateCoverage(chunks, 1, 10000)
	found := false
	for _, i := range issues {
		if i.Kind == IssueCoverageDrift {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a coverage_drift issue, got %v", issues)
	}

	// Roughly matching input length should not trigger it.
	issues = v.ValidateCoverage(chunks, 1, len([]rune("short")))
	for _, i := range issues {
		if i.Kind == IssueCoverageDrift {
			t.Errorf("did not expect coverage_drift for matching lengths, got %v", issues)
		}
	}
}

func TestCompletenessValidatorDuplicationToleratesDeclaredOverlap(t *testing.T) {
	v := NewCompletenessValidator()
	prev := newChunk("the quick brown fox jumps over the lazy dog repeatedly today", 1, 1, StrategySentences, ContentTypeText)
	overlapTail := "lazy dog repeatedly today"
	cur := newChunk(overlapTail+" and then some more original content follows after it", 2, 2, StrategySentences, ContentTypeText)
	cur.Metadata[MetaHasOverlap] = "true"
	cur.Metadata[MetaOverlapChars] = strconv.Itoa(len([]rune(overlapTail)))

	issues := v.Validate([]Chunk{prev, cur}, 2)
	for _, i := range issues {
		if i.Kind == IssueDuplication {
			t.Errorf("declared overlap should not be flagged as duplication, got %v", issues)
		}
	}
}
