package chunking

import (
	"sort"
	"strings"
)

// codeAwareStrategy keeps fenced code blocks and tables intact and binds
// code blocks to their surrounding prose, per spec.md §4.2.1 and
// SPEC_FULL.md §4.9. Every outer FencedBlock and every TableBlock is an
// atomic unit; blocks within cfg.RelatedBlockMaxGap lines of one another
// are grouped into a single atomic code chunk (e.g. a shell command
// immediately followed by its output); the prose between atomic units is
// chunked separately as text.
type codeAwareStrategy struct{}

func (s *codeAwareStrategy) Name() StrategyName { return StrategyCodeAware }

// atomicUnit is one atomic span (a grouped run of code blocks, or a single
// table) in document order, per spec.md §4.2.1 step 1.
type atomicUnit struct {
	start, end int
	build      func() Chunk
}

func (s *codeAwareStrategy) Chunk(text string, lines []string, analysis ContentAnalysis, cfg ChunkConfig) ([]Chunk, error) {
	if len(analysis.CodeBlocks) == 0 && len(analysis.Tables) == 0 {
		return splitOversizeByParagraph(strings.Join(lines, "\n"), 1, cfg, StrategyCodeAware, ContentTypeText), nil
	}

	units := s.atomicUnits(analysis, lines, cfg)

	var chunks []Chunk
	cursor := 1 // next unconsumed source line

	emitText := func(from, to int) {
		if to < from {
			return
		}
		from, to = trimBlankSpan(lines, from, to)
		if to < from {
			return
		}
		textContent := strings.Join(lines[from-1:min(to, len(lines))], "\n")
		if isBlank(textContent) {
			return
		}
		if len([]rune(textContent)) <= cfg.MaxChunkSize {
			chunks = append(chunks, newChunk(textContent, from, to, StrategyCodeAware, ContentTypeText))
		} else {
			chunks = append(chunks, splitOversizeByParagraph(textContent, from, cfg, StrategyCodeAware, ContentTypeText)...)
		}
	}

	for _, u := range units {
		if u.start > cursor {
			emitText(cursor, u.start-1)
		}
		chunks = append(chunks, u.build())
		if u.end+1 > cursor {
			cursor = u.end + 1
		}
	}
	emitText(cursor, len(lines))

	if len(chunks) == 0 {
		return nil, ErrEmptyResult
	}
	return chunks, nil
}

// trimBlankSpan narrows [from, to] to exclude leading/trailing blank lines,
// so a text chunk bracketing an atomic unit doesn't absorb the blank line
// that visually separates it from the code block or table, matching the
// tighter line spans spec.md's worked examples show. Returns to < from if
// the whole span is blank.
func trimBlankSpan(lines []string, from, to int) (int, int) {
	for from <= to && from >= 1 && from <= len(lines) && strings.TrimSpace(lines[from-1]) == "" {
		from++
	}
	for to >= from && to >= 1 && to <= len(lines) && strings.TrimSpace(lines[to-1]) == "" {
		to--
	}
	return from, to
}

// atomicUnits merges grouped code-block runs and individual tables into a
// single document-order list of atomic units. preserve_atomic_blocks=false
// relaxes the atomic rule only for tables, per spec.md §4.2.1 step 4: a
// fenced code block is never split, but a table may be chunked as ordinary
// text in that mode.
func (s *codeAwareStrategy) atomicUnits(analysis ContentAnalysis, lines []string, cfg ChunkConfig) []atomicUnit {
	var units []atomicUnit

	if len(analysis.CodeBlocks) > 0 {
		roles := bindCodeContext(analysis.CodeBlocks, lines, cfg.RelatedBlockMaxGap, cfg.MaxContextChars)
		i := 0
		for i < len(roles) {
			group := []codeBlockRole{roles[i]}
			j := i + 1
			for j < len(roles) && roles[j].GroupIndex == roles[i].GroupIndex {
				group = append(group, roles[j])
				j++
			}
			g := group
			units = append(units, atomicUnit{
				start: g[0].Block.StartLine,
				end:   g[len(g)-1].Block.EndLine,
				build: func() Chunk { return buildCodeGroupChunk(g, lines, cfg) },
			})
			i = j
		}
	}

	if cfg.PreserveAtomicBlocks {
		for _, t := range analysis.Tables {
			tb := t
			units = append(units, atomicUnit{
				start: tb.StartLine,
				end:   tb.EndLine,
				build: func() Chunk { return buildTableChunk(tb, lines, cfg) },
			})
		}
	}

	sort.Slice(units, func(i, j int) bool { return units[i].start < units[j].start })
	return units
}

// buildTableChunk emits a table's full source span as a single atomic
// chunk, per spec.md §4.2.1 step 2.
func buildTableChunk(t TableBlock, lines []string, cfg ChunkConfig) Chunk {
	content := strings.Join(lines[t.StartLine-1:min(t.EndLine, len(lines))], "\n")
	c := newChunk(content, t.StartLine, t.EndLine, StrategyCodeAware, ContentTypeTable)
	c.Metadata[MetaAtomic] = "true"
	if len([]rune(content)) > cfg.MaxChunkSize {
		c.Metadata[MetaAllowOversize] = "true"
	}
	return c
}

// buildCodeGroupChunk assembles one atomic chunk spanning every block in
// group (plus the gap lines between them, if any), per spec.md §4.2.1's
// rule that a fenced code block is never split across chunk boundaries.
func buildCodeGroupChunk(group []codeBlockRole, lines []string, cfg ChunkConfig) Chunk {
	start := group[0].Block.StartLine
	end := group[len(group)-1].Block.EndLine
	content := strings.Join(lines[start-1:min(end, len(lines))], "\n")

	c := newChunk(content, start, end, StrategyCodeAware, ContentTypeCode)
	c.Metadata[MetaAtomic] = "true"
	if len([]rune(content)) > cfg.MaxChunkSize {
		c.Metadata[MetaAllowOversize] = "true"
	}

	langs := make(map[string]bool)
	roleSet := make(map[CodeRole]bool)
	for _, g := range group {
		if g.Block.Language != "" {
			langs[g.Block.Language] = true
		}
		roleSet[g.Role] = true
	}
	if lang := firstNonEmptyKey(langs); lang != "" {
		c.Metadata[MetaLanguage] = lang
	}
	c.Metadata[MetaCodeRole] = string(group[0].Role)
	c.Metadata[MetaCodeRoles] = joinRoles(roleSet)
	if rel := classifyCodeRelationship(group); rel != "" {
		c.Metadata[MetaCodeRelation] = string(rel)
	}
	if group[0].ExplainBefore != "" {
		c.Metadata[MetaExplainBefore] = group[0].ExplainBefore
	}
	if last := group[len(group)-1].ExplainAfter; last != "" {
		c.Metadata[MetaExplainAfter] = last
	}
	return c
}

// codeAwareQualityScore implements spec.md §4.2.1's quality formula:
// min(1.0, 0.3 + 0.5*code_ratio + 0.1*min(code_block_count,5)/5 +
// 0.1*language_diversity).
func codeAwareQualityScore(analysis ContentAnalysis) float64 {
	langs := make(map[string]bool)
	for _, b := range analysis.CodeBlocks {
		if b.Language != "" {
			langs[b.Language] = true
		}
	}
	diversity := 0.0
	if analysis.CodeBlockCount > 0 {
		diversity = float64(len(langs)) / float64(analysis.CodeBlockCount)
	}
	score := 0.3 + 0.5*analysis.CodeRatio +
		0.1*minFloat(float64(analysis.CodeBlockCount), 5)/5 +
		0.1*diversity
	return clamp(score, 0, 1)
}

// firstNonEmptyKey returns the lexicographically smallest non-empty key, so
// the result does not depend on map iteration order.
func firstNonEmptyKey(m map[string]bool) string {
	first := ""
	for k := range m {
		if k != "" && (first == "" || k < first) {
			first = k
		}
	}
	return first
}

// joinRoles returns the roles sorted and comma-joined.
func joinRoles(m map[CodeRole]bool) string {
	out := make([]string, 0, len(m))
	for r := range m {
		out = append(out, string(r))
	}
	sort.Strings(out)
	return strings.Join(out, ",")
}
