package chunking

import (
	"strconv"
	"strings"
)

// OverlapManager prepends a trailing slice of the previous chunk's content
// to each subsequent chunk, per spec.md §4.4. It never adds overlap to a
// chunk marked atomic (code groups must stay byte-identical to their
// source span) and prefers a sentence boundary over a hard character cut
// when one exists within the overlap window.
type OverlapManager struct {
	cfg ChunkConfig
}

// NewOverlapManager constructs an OverlapManager from the config values
// that govern overlap sizing: OverlapSize, OverlapPercentage.
func NewOverlapManager(cfg ChunkConfig) *OverlapManager {
	return &OverlapManager{cfg: cfg}
}

// Apply walks chunks in order and returns a new slice with overlap content
// and metadata attached. The input slice is never mutated.
func (m *OverlapManager) Apply(chunks []Chunk) []Chunk {
	if len(chunks) < 2 || !m.cfg.EnableOverlap || (m.cfg.OverlapSize <= 0 && m.cfg.OverlapPercentage <= 0) {
		return chunks
	}

	out := make([]Chunk, len(chunks))
	out[0] = chunks[0].clone()
	out[0].Metadata[MetaHasOverlap] = "false"

	for i := 1; i < len(chunks); i++ {
		cur := chunks[i].clone()
		prev := chunks[i-1]

		if cur.Metadata[MetaAtomic] == "true" || prev.Metadata[MetaAtomic] == "true" {
			cur.Metadata[MetaHasOverlap] = "false"
			out[i] = cur
			continue
		}

		overlapSize := m.overlapSizeFor(prev, cur)
		if overlapSize <= 0 {
			cur.Metadata[MetaHasOverlap] = "false"
			out[i] = cur
			continue
		}

		tail := tailRunes(prev.Content, overlapSize)
		if boundary := lastSentenceBoundary(tail); boundary > 0 {
			tail = tail[boundary:]
		}
		tail = strings.TrimLeft(tail, "\n")
		if tail == "" || hasUnbalancedFences(tail) {
			// Either nothing survived the sentence-boundary trim, or the
			// overlap candidate itself contains an unbalanced fence count
			// (spec.md §4.4 step 3's integrity check) - skip overlap for
			// this pair rather than risk corrupting a downstream parse.
			cur.Metadata[MetaHasOverlap] = "false"
			out[i] = cur
			continue
		}

		cur.Content = tail + "\n" + cur.Content
		cur.Metadata[MetaHasOverlap] = "true"
		cur.Metadata[MetaOverlapChars] = strconv.Itoa(len([]rune(tail)))
		cur.Metadata[MetaOverlapSource] = strconv.Itoa(i - 1)
		out[i] = cur
	}

	return out
}

// overlapSizeFor returns the overlap window size in runes for the pair
// (prev, cur), per spec.md §4.4 step 1: the target size is
// min(overlap_size, prev.size*overlap_percentage, prev.size/4), further
// capped at 50% of prev.size and 40% of cur.size.
func (m *OverlapManager) overlapSizeFor(prev, cur Chunk) int {
	size := m.cfg.OverlapSize
	if m.cfg.OverlapPercentage > 0 {
		if pct := int(float64(prev.Size()) * m.cfg.OverlapPercentage); size == 0 || pct < size {
			size = pct
		}
	}
	if quarter := prev.Size() / 4; size == 0 || quarter < size {
		size = quarter
	}
	if half := prev.Size() / 2; size > half {
		size = half
	}
	if capCur := int(float64(cur.Size()) * 0.4); size > capCur {
		size = capCur
	}
	return size
}

// hasUnbalancedFences reports whether text contains an odd number of
// triple-backtick fence markers, per spec.md §4.4 step 3's integrity
// check: an overlap candidate that would leave an unmatched fence open is
// rejected rather than prepended.
func hasUnbalancedFences(text string) bool {
	count := 0
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			count++
		}
	}
	return count%2 != 0
}

// tailRunes returns the last n runes of s.
func tailRunes(s string, n int) string {
	r := []rune(s)
	if n >= len(r) {
		return s
	}
	return string(r[len(r)-n:])
}
