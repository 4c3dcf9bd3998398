package chunking

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidationIssue describes one completeness problem found by
// CompletenessValidator, per spec.md §4.7.
type ValidationIssue struct {
	ChunkIndex int
	Kind       string
	Detail     string
}

func (i ValidationIssue) String() string {
	return fmt.Sprintf("chunk %d: %s: %s", i.ChunkIndex, i.Kind, i.Detail)
}

// Issue kinds reported by CompletenessValidator.
const (
	IssueGap             = "gap"
	IssueOverlapMismatch = "overlap_mismatch"
	IssueUnclosedFence   = "unclosed_fence"
	IssueEmptyChunk      = "empty_chunk"
	IssueCoverageDrift   = "coverage_drift"
	IssueDuplication     = "duplication"
)

// minGapLines is the gap size, in lines, below which a coverage hole is
// tolerated without a warning, per spec.md §4.7 ("any gap ≥ 10 lines raises
// a warning").
const minGapLines = 10

// coverageTolerance is the maximum fraction by which output chars may
// diverge from input chars before a warning is raised, per spec.md §4.7.
const coverageTolerance = 0.05

// duplicationTolerance is the maximum fraction by which consecutive chunks
// may duplicate content beyond their declared overlap, per spec.md §4.7.
const duplicationTolerance = 0.10

// CompletenessValidator checks a ChunkingResult's Chunks for coverage and
// consistency problems, per spec.md §4.7: overall char coverage must stay
// within 5% of the input, every gap of 10+ lines is flagged, consecutive
// chunks must not duplicate more than their declared overlap plus a 10%
// tolerance, and no chunk should be empty.
type CompletenessValidator struct{}

// NewCompletenessValidator constructs a CompletenessValidator.
func NewCompletenessValidator() *CompletenessValidator { return &CompletenessValidator{} }

// Validate inspects chunks (assumed already overlap-enriched) against the
// original input's char/line counts and returns any issues found. A
// nil/empty return means the chunk set is fully sound. Validate never
// mutates chunks and never returns an error, per spec.md §4.7.
func (v *CompletenessValidator) Validate(chunks []Chunk, totalLines int) []ValidationIssue {
	return v.validate(chunks, totalLines, 0)
}

// ValidateCoverage is Validate plus the §4.7 char-coverage check against
// inputChars (Chunker.Chunk passes the document's rune count after
// line-ending normalization).
func (v *CompletenessValidator) ValidateCoverage(chunks []Chunk, totalLines, inputChars int) []ValidationIssue {
	return v.validate(chunks, totalLines, inputChars)
}

func (v *CompletenessValidator) validate(chunks []Chunk, totalLines, inputChars int) []ValidationIssue {
	var issues []ValidationIssue

	outputChars := 0
	for i, c := range chunks {
		if isBlank(c.Content) {
			issues = append(issues, ValidationIssue{ChunkIndex: i, Kind: IssueEmptyChunk, Detail: "chunk content is blank"})
		}
		outputChars += len([]rune(c.Content))
		if c.Metadata[MetaHasOverlap] == "true" {
			if n, err := strconv.Atoi(c.Metadata[MetaOverlapChars]); err == nil {
				outputChars -= n
			}
		}
	}

	if inputChars > 0 {
		drift := absInt(outputChars-inputChars)
		if float64(drift) > coverageTolerance*float64(inputChars) {
			issues = append(issues, ValidationIssue{
				Kind: IssueCoverageDrift,
				Detail: fmt.Sprintf("output chars %d diverge from input chars %d by more than %.0f%%",
					outputChars, inputChars, coverageTolerance*100),
			})
		}
	}

	lastEnd := 0
	for i, c := range chunks {
		if gap := c.StartLine - lastEnd - 1; gap >= minGapLines {
			issues = append(issues, ValidationIssue{
				ChunkIndex: i,
				Kind:       IssueGap,
				Detail:     fmt.Sprintf("lines %d-%d are not covered by any chunk", lastEnd+1, c.StartLine-1),
			})
		}
		lastEnd = max(lastEnd, c.EndLine)
	}
	if totalLines > 0 && totalLines-lastEnd >= minGapLines {
		issues = append(issues, ValidationIssue{
			ChunkIndex: len(chunks) - 1,
			Kind:       IssueGap,
			Detail:     fmt.Sprintf("lines %d-%d are not covered by any chunk", lastEnd+1, totalLines),
		})
	}

	for i := 1; i < len(chunks); i++ {
		cur, prev := chunks[i], chunks[i-1]
		declared := 0
		if cur.Metadata[MetaHasOverlap] == "true" {
			declared, _ = strconv.Atoi(cur.Metadata[MetaOverlapChars])
		}
		actual := commonPrefixSuffixRunes(prev.Content, cur.Content)
		if actual > declared && float64(actual-declared) > duplicationTolerance*float64(len([]rune(prev.Content))) {
			issues = append(issues, ValidationIssue{
				ChunkIndex: i,
				Kind:       IssueDuplication,
				Detail:     fmt.Sprintf("chunk duplicates %d chars of its predecessor beyond the declared %d-char overlap", actual, declared),
			})
		}
	}

	return issues
}

// commonPrefixSuffixRunes returns how many trailing runes of prev match a
// run of leading runes of cur, used to detect duplication beyond what
// overlap metadata declares.
func commonPrefixSuffixRunes(prev, cur string) int {
	p, c := []rune(prev), []rune(cur)
	max := len(p)
	if len(c) < max {
		max = len(c)
	}
	for n := max; n > 0; n-- {
		if string(p[len(p)-n:]) == string(c[:n]) {
			return n
		}
	}
	return 0
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// ValidateFences reports any fence the scanner left unclosed, surfacing
// them as validator issues distinct from analysis.Warnings so callers that
// only look at CompletenessValidator output still see them.
func (v *CompletenessValidator) ValidateFences(warnings []string) []ValidationIssue {
	var issues []ValidationIssue
	for _, w := range warnings {
		if strings.Contains(w, "unclosed fence") {
			issues = append(issues, ValidationIssue{Kind: IssueUnclosedFence, Detail: w})
		}
	}
	return issues
}
