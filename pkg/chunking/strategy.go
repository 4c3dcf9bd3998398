package chunking

import "strings"

// Strategy turns source text plus its ContentAnalysis into an ordered slice
// of Chunks, per spec.md §4.2. A Strategy never mutates its inputs and
// never returns an empty slice for non-empty content; the Selector is
// responsible for choosing which Strategy applies to a document.
type Strategy interface {
	Name() StrategyName
	Chunk(text string, lines []string, analysis ContentAnalysis, cfg ChunkConfig) ([]Chunk, error)
}

// newStrategy constructs the Strategy implementation registered under
// name. Unknown names are rejected by ChunkConfig.validate before this is
// ever called, so this function treats an unknown name as a programmer
// error rather than a recoverable one.
func newStrategy(name StrategyName) Strategy {
	switch name {
	case StrategyCodeAware:
		return &codeAwareStrategy{}
	case StrategyStructural:
		return &structuralStrategy{}
	case StrategySentences:
		return &sentencesStrategy{}
	default:
		panic("chunking: unknown strategy " + string(name))
	}
}

// splitOversizeByParagraph is shared fallback behavior for non-atomic text
// that would otherwise exceed cfg.MaxChunkSize (and for whole documents the
// code-aware strategy handles without any code block or table): it
// re-splits content on blank-line paragraph boundaries, packing
// consecutive paragraphs up to MaxChunkSize, and falls back to
// splitSentences for any single paragraph still oversize on its own.
func splitOversizeByParagraph(content string, startLine int, cfg ChunkConfig, strategy StrategyName, contentType string) []Chunk {
	paragraphs, paraLines := splitParagraphs(content, startLine)
	if len(paragraphs) == 0 {
		return nil
	}

	var out []Chunk
	var bufParas []string
	bufStart := paraLines[0][0]
	bufEnd := bufStart

	flush := func() {
		if len(bufParas) == 0 {
			return
		}
		out = append(out, newChunk(strings.Join(bufParas, "\n\n"), bufStart, bufEnd, strategy, contentType))
		bufParas = nil
	}

	for i, p := range paragraphs {
		pStart, pEnd := paraLines[i][0], paraLines[i][1]

		if len([]rune(p)) > cfg.MaxChunkSize {
			flush()
			for _, s := range splitSentences(p) {
				if len([]rune(s)) > cfg.MaxChunkSize {
					// A single run-on sentence still exceeds the limit; hard-split
					// at the last whitespace within it, per spec.md §4.2.3.
					for _, piece := range hardSplitAtWhitespace(s, cfg.MaxChunkSize) {
						if piece = strings.TrimSpace(piece); piece != "" {
							out = append(out, newChunk(piece, pStart, pEnd, strategy, contentType))
						}
					}
					continue
				}
				out = append(out, newChunk(s, pStart, pEnd, strategy, contentType))
			}
			bufStart = pEnd + 1
			bufEnd = bufStart
			continue
		}

		bufSize := 0
		for _, bp := range bufParas {
			bufSize += len([]rune(bp)) + 2 // +2 for the "\n\n" joining it to the next paragraph
		}
		if len(bufParas) > 0 && bufSize+len([]rune(p)) > cfg.MaxChunkSize {
			flush()
			bufStart = pStart
		}
		if len(bufParas) == 0 {
			bufStart = pStart
		}
		bufParas = append(bufParas, p)
		bufEnd = pEnd
	}
	flush()
	return out
}

// splitParagraphs splits content on blank lines and returns each
// paragraph's [startLine, endLine] span, given the content's own starting
// line number.
func splitParagraphs(content string, startLine int) ([]string, [][2]int) {
	lines := splitLines(content)
	var paras []string
	var spans [][2]int
	var buf []string
	spanStart := startLine

	flush := func(endLine int) {
		if len(buf) == 0 {
			return
		}
		paras = append(paras, strings.Join(buf, "\n"))
		spans = append(spans, [2]int{spanStart, endLine})
		buf = nil
	}

	for i, l := range lines {
		ln := startLine + i
		if strings.TrimSpace(l) == "" {
			flush(ln - 1)
			spanStart = ln + 1
			continue
		}
		buf = append(buf, l)
	}
	flush(startLine + len(lines) - 1)
	return paras, spans
}
