package chunking

import "strings"

// sentencesStrategy is the fallback strategy for prose-dominant documents
// that lack the structure the other two strategies rely on, per spec.md
// §4.2.3: sentences are packed greedily up to TargetChunkSize, never split
// mid-sentence unless a single sentence alone exceeds MaxChunkSize.
type sentencesStrategy struct{}

func (s *sentencesStrategy) Name() StrategyName { return StrategySentences }

// sentencesQualityScore is the fixed quality score spec.md §4.2.3 assigns
// the universal fallback: low, but always applicable.
func sentencesQualityScore() float64 { return 0.2 }

func (s *sentencesStrategy) Chunk(text string, lines []string, analysis ContentAnalysis, cfg ChunkConfig) ([]Chunk, error) {
	content := strings.Join(lines, "\n")
	if isBlank(content) {
		return nil, nil
	}

	sentences := splitSentences(content)
	if len(sentences) == 0 {
		return nil, nil
	}

	var chunks []Chunk
	var buf strings.Builder
	bufStart := 1
	lineCursor := 1

	flush := func(endLine int) {
		trimmed := strings.TrimSpace(buf.String())
		if trimmed != "" {
			chunks = append(chunks, newChunk(trimmed, bufStart, endLine, StrategySentences, ContentTypeText))
		}
		buf.Reset()
	}

	for _, sent := range sentences {
		sentLines := strings.Count(sent, "\n")
		sentEndLine := lineCursor + sentLines

		if len([]rune(sent)) > cfg.MaxChunkSize {
			flush(lineCursor - 1)
			for _, piece := range hardSplitAtWhitespace(sent, cfg.MaxChunkSize) {
				piece = strings.TrimSpace(piece)
				if piece == "" {
					continue
				}
				chunks = append(chunks, newChunk(piece, lineCursor, sentEndLine, StrategySentences, ContentTypeText))
			}
			bufStart = sentEndLine + 1
			lineCursor = sentEndLine
			continue
		}

		if buf.Len() > 0 && len([]rune(buf.String()))+len([]rune(sent)) > cfg.TargetChunkSize {
			flush(lineCursor - 1)
			bufStart = lineCursor
		}
		if buf.Len() == 0 {
			bufStart = lineCursor
		}
		buf.WriteString(sent)
		lineCursor = sentEndLine
	}
	flush(lineCursor)

	if len(chunks) == 0 {
		return nil, ErrEmptyResult
	}
	return chunks, nil
}
