package chunking

import (
	"strings"
	"unicode/utf8"
)

// significance thresholds for HasMixedContent, per spec.md §4.1 step 5.
const (
	sigCodeRatio  = 0.1
	sigListRatio  = 0.1
	sigTableRatio = 0.1
	sigTextRatio  = 0.2
	mixedCodeCap  = 0.7

	codeHeavyThreshold = 0.7
	listHeavyThreshold = 0.6
	listHeavyCodeCap   = 0.3

	preambleMinChars = 10
)

// Analyzer produces a ContentAnalysis from raw Markdown text. It holds no
// mutable state: NewAnalyzer's returned value can be shared across
// goroutines and reused for any number of Analyze calls.
type Analyzer struct {
	extractPreamble bool
}

// NewAnalyzer constructs an Analyzer. extractPreamble mirrors
// ChunkConfig.ExtractPreamble so the analyzer and the strategies agree on
// whether a document's preamble is worth flagging.
func NewAnalyzer(extractPreamble bool) *Analyzer {
	return &Analyzer{extractPreamble: extractPreamble}
}

// Analyze scans text and returns a fully populated ContentAnalysis. Line
// endings are normalized to "\n" before measurement so line numbers are
// reported in a consistent frame regardless of the input's original
// CRLF/LF/mixed endings. Analyze never panics on valid UTF-8 input; a
// malformed fence or table degrades to a best-effort analysis plus a
// warning, never an error.
func (a *Analyzer) Analyze(text string) (ContentAnalysis, error) {
	if !utf8.ValidString(text) {
		return ContentAnalysis{}, ErrInvalidEncoding
	}

	normalized := normalizeLineEndings(text)
	lines := splitLines(normalized)

	outerBlocks, fenceWarnings := extractFencedBlocks(lines)

	det := newElementDetector([]byte(normalized))
	headers, tables, lists := det.detect()

	analysis := ContentAnalysis{
		TotalChars: len([]rune(normalized)),
		TotalLines: len(lines),
		CodeBlocks: outerBlocks,
		Headers:    headers,
		Tables:     tables,
		Lists:      lists,
		Warnings:   fenceWarnings,
	}
	analysis.CodeBlockCount = len(outerBlocks)
	analysis.HeaderCount = len(headers)
	analysis.ListCount = len(lists)
	analysis.TableCount = len(tables)

	for _, h := range headers {
		if h.Level > analysis.MaxHeaderDepth {
			analysis.MaxHeaderDepth = h.Level
		}
	}
	for _, l := range lists {
		if l.MaxNesting > analysis.MaxListNesting {
			analysis.MaxListNesting = l.MaxNesting
		}
	}

	a.computeRatios(&analysis, lines)
	analysis.ComplexityScore = computeComplexityScore(analysis)
	analysis.HasMixedContent = computeHasMixedContent(analysis)
	analysis.ContentType = classifyContentType(analysis)

	if a.extractPreamble {
		analysis.Preamble = extractPreambleBlock(lines, headers)
	}

	return analysis, nil
}

// computeRatios implements spec.md §4.1 step 3: character-weighted ratios
// over code/list/table/text, each as a fraction of TotalChars.
func (a *Analyzer) computeRatios(analysis *ContentAnalysis, lines []string) {
	if analysis.TotalChars == 0 {
		return
	}

	codeChars := 0
	for _, b := range analysis.CodeBlocks {
		codeChars += fencedBlockRawSize(b, lines)
	}

	listChars := 0
	for _, l := range analysis.Lists {
		for _, item := range l.Items {
			listChars += len([]rune(item.Content))
		}
	}

	tableChars := 0
	for _, t := range analysis.Tables {
		for ln := t.StartLine; ln <= t.EndLine && ln <= len(lines); ln++ {
			tableChars += len([]rune(lines[ln-1])) + 1
		}
	}

	textChars := analysis.TotalChars - codeChars - listChars - tableChars
	if textChars < 0 {
		textChars = 0
	}

	total := float64(analysis.TotalChars)
	analysis.CodeRatio = float64(codeChars) / total
	analysis.ListRatio = float64(listChars) / total
	analysis.TableRatio = float64(tableChars) / total
	analysis.TextRatio = float64(textChars) / total
}

// fencedBlockRawSize measures a fenced block's raw size including its
// fence lines, the "content_with_fences" span spec.md §4.1 step 3 asks for.
func fencedBlockRawSize(b FencedBlock, lines []string) int {
	size := 0
	for ln := b.StartLine; ln <= b.EndLine && ln >= 1 && ln <= len(lines); ln++ {
		size += len([]rune(lines[ln-1])) + 1
	}
	return size
}

// computeComplexityScore implements spec.md §4.1 step 4.
func computeComplexityScore(a ContentAnalysis) float64 {
	structural := minFloat(float64(a.MaxHeaderDepth)/10, 0.1) +
		minFloat(float64(a.MaxListNesting)/10, 0.1)
	if a.TableRatio > 0 {
		structural += 0.1
	}

	content := a.CodeRatio*0.2 + boolFloat(computeHasMixedContent(a), 0.2)

	var size float64
	switch {
	case a.TotalChars > 50000:
		size = 0.3
	case a.TotalChars > 20000:
		size = 0.2
	case a.TotalChars > 10000:
		size = 0.1
	}

	score := structural + content + size
	return clamp(score, 0, 1)
}

// computeHasMixedContent implements spec.md §4.1 step 5.
func computeHasMixedContent(a ContentAnalysis) bool {
	significant := 0
	if a.CodeRatio > sigCodeRatio {
		significant++
	}
	if a.ListRatio > sigListRatio {
		significant++
	}
	if a.TableRatio > sigTableRatio {
		significant++
	}
	if a.TextRatio > sigTextRatio {
		significant++
	}
	return significant >= 2 && a.CodeRatio < mixedCodeCap
}

// classifyContentType implements spec.md §4.1 step 6.
func classifyContentType(a ContentAnalysis) ContentType {
	switch {
	case a.CodeRatio >= codeHeavyThreshold:
		return ContentCodeHeavy
	case a.ListRatio >= listHeavyThreshold && a.CodeRatio < listHeavyCodeCap:
		return ContentListHeavy
	case a.HasMixedContent:
		return ContentMixed
	default:
		return ContentPrimary
	}
}

// extractPreambleBlock implements spec.md §4.1 step 7.
func extractPreambleBlock(lines []string, headers []Header) *Preamble {
	endLine := len(lines)
	if len(headers) > 0 {
		endLine = headers[0].Line - 1
	}
	if endLine < 1 {
		return nil
	}
	content := strings.Join(lines[:endLine], "\n")
	if len(strings.TrimSpace(content)) < preambleMinChars {
		return nil
	}
	return &Preamble{
		Content:       content,
		StartLine:     1,
		EndLine:       endLine,
		LooksMetadata: looksLikeMetadata(content),
	}
}

// looksLikeMetadata reports whether content resembles YAML/TOML front
// matter (a "---" or "+++" delimited block, or a run of "key: value"
// lines), a useful hint for callers deciding whether to drop the preamble.
func looksLikeMetadata(content string) bool {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "---") || strings.HasPrefix(trimmed, "+++") {
		return true
	}
	lines := strings.Split(trimmed, "\n")
	kv := 0
	for _, l := range lines {
		if l == "" {
			continue
		}
		if idx := strings.Index(l, ":"); idx > 0 && idx < len(l)-1 {
			kv++
		}
	}
	return len(lines) > 0 && kv == len(nonEmptyLines(lines))
}

func nonEmptyLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

func normalizeLineEndings(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return text
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func boolFloat(b bool, v float64) float64 {
	if b {
		return v
	}
	return 0
}
