package chunking

import "strings"

// structuralStrategy chunks along header boundaries, per spec.md §4.2.2:
// each section from one header up to (but not including) the next header
// at the same or shallower level becomes a candidate chunk, subdivided
// further only if it exceeds MaxChunkSize.
type structuralStrategy struct{}

func (s *structuralStrategy) Name() StrategyName { return StrategyStructural }

func (s *structuralStrategy) Chunk(text string, lines []string, analysis ContentAnalysis, cfg ChunkConfig) ([]Chunk, error) {
	if len(analysis.Headers) == 0 {
		return s.chunkWithoutHeaders(lines, cfg)
	}

	var chunks []Chunk

	// Content before the first header must be preserved regardless of
	// cfg.ExtractPreamble: that flag only controls whether the preamble is
	// surfaced as its own analysis.Preamble value (and analyzer.go skips it
	// entirely for runs under 10 chars even when the flag is set), but
	// spec.md §8 invariant 1 requires every source line to survive in some
	// chunk either way.
	if pre := analysis.Preamble; pre != nil && !isBlank(pre.Content) {
		c := newChunk(pre.Content, pre.StartLine, pre.EndLine, StrategyStructural, ContentTypePreamble)
		chunks = append(chunks, c)
	} else if preEnd := analysis.Headers[0].Line - 1; preEnd >= 1 {
		content := strings.Join(lines[0:min(preEnd, len(lines))], "\n")
		if !isBlank(content) {
			chunks = append(chunks, newChunk(content, 1, preEnd, StrategyStructural, ContentTypeText))
		}
	}

	chunks = append(chunks, buildHeaderSections(analysis.Headers, 0, len(analysis.Headers), len(lines), lines, cfg, nil)...)

	if len(chunks) == 0 {
		return s.chunkWithoutHeaders(lines, cfg)
	}
	return chunks, nil
}

// buildHeaderSections implements spec.md §4.2.2's algorithm: headers[lo:hi]
// is a contiguous run of headers that together span through rangeEnd (the
// line before whatever comes next outside this run, or EOF at the top
// call). Each run of headers sharing the shallowest level present becomes
// one section spanning from its header line through the line before its
// next same-or-shallower sibling (or rangeEnd for the last one). A section
// that fits within MaxChunkSize is emitted whole, including any nested
// subsections; an oversize section with deeper headers inside it is split
// at that next-deeper level (recursing, after carving out any intro text
// between the header and its first child); an oversize section with no
// deeper headers falls through to paragraph packing.
func buildHeaderSections(headers []Header, lo, hi, rangeEnd int, lines []string, cfg ChunkConfig, pathPrefix []string) []Chunk {
	var chunks []Chunk

	for i := lo; i < hi; {
		level := headers[i].Level
		j := i + 1
		for j < hi && headers[j].Level > level {
			j++
		}
		h := headers[i]

		sectionEnd := rangeEnd
		if j < hi {
			sectionEnd = headers[j].Line - 1
		}
		if h.Line > sectionEnd || h.Line > len(lines) {
			i = j
			continue
		}

		path := make([]string, 0, len(pathPrefix)+1)
		path = append(path, pathPrefix...)
		path = append(path, h.Text)
		headerPath := strings.Join(path, " > ")

		content := strings.Join(lines[h.Line-1:min(sectionEnd, len(lines))], "\n")
		childLo := i + 1
		hasChildren := childLo < j

		switch {
		case isBlank(content):
			// nothing to emit
		case len([]rune(content)) <= cfg.MaxChunkSize:
			c := newChunk(content, h.Line, sectionEnd, StrategyStructural, ContentTypeText)
			c.Metadata[MetaHeaderPath] = headerPath
			c.Metadata[MetaSectionID] = h.SectionID
			chunks = append(chunks, c)
		case hasChildren:
			introEnd := headers[childLo].Line - 1
			if introEnd >= h.Line {
				introContent := strings.Join(lines[h.Line-1:min(introEnd, len(lines))], "\n")
				if !isBlank(introContent) {
					if len([]rune(introContent)) <= cfg.MaxChunkSize {
						ic := newChunk(introContent, h.Line, introEnd, StrategyStructural, ContentTypeText)
						ic.Metadata[MetaHeaderPath] = headerPath
						ic.Metadata[MetaSectionID] = h.SectionID
						chunks = append(chunks, ic)
					} else {
						for _, c := range splitOversizeByParagraph(introContent, h.Line, cfg, StrategyStructural, ContentTypeText) {
							c.Metadata[MetaHeaderPath] = headerPath
							c.Metadata[MetaSectionID] = h.SectionID
							chunks = append(chunks, c)
						}
					}
				}
			}
			chunks = append(chunks, buildHeaderSections(headers, childLo, j, sectionEnd, lines, cfg, path)...)
		default:
			for _, c := range splitOversizeByParagraph(content, h.Line, cfg, StrategyStructural, ContentTypeText) {
				c.Metadata[MetaHeaderPath] = headerPath
				c.Metadata[MetaSectionID] = h.SectionID
				chunks = append(chunks, c)
			}
		}

		i = j
	}

	return chunks
}

// structuralQualityScore implements spec.md §4.2.2's quality formula:
// min(1.0, 0.3 + 0.1*min(header_count,10)/10 + 0.2*min(max_header_depth,4)/4
// + 0.4*(1-code_ratio)).
func structuralQualityScore(analysis ContentAnalysis) float64 {
	score := 0.3 +
		0.1*minFloat(float64(analysis.HeaderCount), 10)/10 +
		0.2*minFloat(float64(analysis.MaxHeaderDepth), 4)/4 +
		0.4*(1-analysis.CodeRatio)
	return clamp(score, 0, 1)
}

// chunkWithoutHeaders falls back to paragraph packing when a document has
// no headers at all, still under the structural strategy's name.
func (s *structuralStrategy) chunkWithoutHeaders(lines []string, cfg ChunkConfig) ([]Chunk, error) {
	content := strings.Join(lines, "\n")
	if isBlank(content) {
		return nil, nil
	}
	return splitOversizeByParagraph(content, 1, cfg, StrategyStructural, ContentTypeText), nil
}
