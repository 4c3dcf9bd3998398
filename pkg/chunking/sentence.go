package chunking

import (
	"regexp"
	"strings"
)

// sentenceBoundary matches a sentence-terminating punctuation mark
// (ASCII and common CJK terminators) followed by whitespace or end of
// string, per spec.md §4.2.3 / §4.4's sentence-aware splitting rule.
var sentenceBoundary = regexp.MustCompile(`[.!?\x{3002}\x{ff01}\x{ff1f}]+["')\]]?(\s+|$)`)

// commonAbbreviations lists short trailing tokens that precede a period
// which is not actually a sentence boundary (e.g. "e.g." or "Mr."). The
// check only looks at the word immediately before the matched punctuation.
var commonAbbreviations = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "dr": true, "prof": true,
	"sr": true, "jr": true, "vs": true, "etc": true, "e.g": true,
	"i.e": true, "fig": true, "no": true, "vol": true, "approx": true,
}

// splitSentences divides text into a slice of sentences, preserving
// leading/trailing whitespace inside each sentence's span so the caller can
// recombine them losslessly by concatenation. It is used both by the
// sentence-fallback strategy (strategy_sentences.go) and the overlap
// manager's sentence-boundary mode (overlap.go).
func splitSentences(text string) []string {
	if text == "" {
		return nil
	}

	idxs := sentenceBoundary.FindAllStringIndex(text, -1)
	if len(idxs) == 0 {
		return []string{text}
	}

	var sentences []string
	start := 0
	for _, m := range idxs {
		end := m[1]
		if endsWithAbbreviation(text[start:m[0]]) {
			continue
		}
		sentences = append(sentences, text[start:end])
		start = end
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
	}
	if len(sentences) == 0 {
		return []string{text}
	}
	return sentences
}

// endsWithAbbreviation reports whether the last word-like token in prefix
// (the text leading up to a candidate period) is a known abbreviation, in
// which case the period should not be treated as a sentence boundary.
func endsWithAbbreviation(prefix string) bool {
	trimmed := strings.TrimRight(prefix, ".")
	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return false
	}
	last := strings.ToLower(fields[len(fields)-1])
	last = strings.Trim(last, "([{\"'")
	return commonAbbreviations[last]
}

// hardSplitAtWhitespace splits text into pieces of at most limit runes
// each, per spec.md §4.2.3: "split at the last whitespace within the
// limit." A piece with no whitespace short of the limit (e.g. a long
// unbroken token) is cut exactly at limit as a last resort. The returned
// pieces concatenate back to text losslessly.
func hardSplitAtWhitespace(text string, limit int) []string {
	if limit <= 0 {
		return []string{text}
	}
	r := []rune(text)
	var out []string
	for len(r) > limit {
		cut := limit - 1
		for cut > 0 && !isSpaceRune(r[cut]) {
			cut--
		}
		if cut == 0 {
			cut = limit
		} else {
			cut++ // keep the whitespace with the piece that precedes it
		}
		out = append(out, string(r[:cut]))
		r = r[cut:]
	}
	if len(r) > 0 {
		out = append(out, string(r))
	}
	return out
}

func isSpaceRune(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// lastSentenceBoundary returns the byte offset of the start of the final
// complete sentence in text, or -1 if text contains no recognizable
// sentence boundary. Used by the overlap manager to avoid splitting mid
// sentence when building tail overlap (spec.md §4.4).
func lastSentenceBoundary(text string) int {
	sentences := splitSentences(text)
	if len(sentences) <= 1 {
		return -1
	}
	offset := 0
	for _, s := range sentences[:len(sentences)-1] {
		offset += len(s)
	}
	return offset
}
