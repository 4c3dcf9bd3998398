package chunking

// Selector picks a Strategy for a document, per spec.md §4.3. It supports
// two modes: "strict", which applies the first matching rule in priority
// order, and "weighted", which scores every strategy and picks the
// highest-scoring one (used when a document straddles two rules' edges and
// a caller wants smoother behavior across similar documents).
type Selector struct {
	weighted bool
}

// NewSelector constructs a Selector. weighted mirrors
// ChunkConfig.WeightedSelection.
func NewSelector(weighted bool) *Selector {
	return &Selector{weighted: weighted}
}

// Select returns the StrategyName to apply to a document, honoring
// cfg.StrategyOverride when set (ChunkConfig.validate already rejects an
// unrecognized override value).
func (sel *Selector) Select(analysis ContentAnalysis, cfg ChunkConfig) StrategyName {
	if cfg.StrategyOverride != "" {
		return cfg.StrategyOverride
	}
	if sel.weighted {
		return sel.selectWeighted(analysis, cfg)
	}
	return sel.selectStrict(analysis, cfg)
}

// selectStrict implements spec.md §4.3's default decision order, applying
// each strategy's own §4.2 applicability rule in ascending priority:
//  1. code_aware: code_block_count >= min_code_blocks OR code_ratio >=
//     code_ratio_threshold OR table_count >= 1
//  2. structural: header_count >= header_count_threshold AND
//     max_header_depth > 1
//  3. sentences, the universal fallback
func (sel *Selector) selectStrict(analysis ContentAnalysis, cfg ChunkConfig) StrategyName {
	if analysis.CodeBlockCount >= cfg.MinCodeBlocks ||
		analysis.CodeRatio >= cfg.CodeRatioThreshold ||
		analysis.TableCount >= 1 {
		return StrategyCodeAware
	}
	if analysis.HeaderCount >= cfg.HeaderCountThreshold && analysis.MaxHeaderDepth > 1 {
		return StrategyStructural
	}
	return StrategySentences
}

// strategyPriority is the fixed priority order strategies are tried in
// under strict selection (lower tries earlier), per spec.md §4.2.
var strategyPriority = map[StrategyName]int{
	StrategyCodeAware:  1,
	StrategyStructural: 2,
	StrategySentences:  3,
}

// selectWeighted implements spec.md §4.3 step 3: final_score = 0.5 *
// (1/priority) + 0.5 * quality_score, with a +0.2 boost applied to whichever
// strategy the density-analysis tie-breaker prefers.
func (sel *Selector) selectWeighted(analysis ContentAnalysis, cfg ChunkConfig) StrategyName {
	scores := map[StrategyName]float64{
		StrategyCodeAware:  weightedScore(StrategyCodeAware, codeAwareQualityScore(analysis)),
		StrategyStructural: weightedScore(StrategyStructural, structuralQualityScore(analysis)),
		StrategySentences:  weightedScore(StrategySentences, sentencesQualityScore()),
	}
	if preferred := densityPreference(analysis); preferred != "" {
		scores[preferred] += 0.2
	}

	best := StrategySentences
	bestScore := -1.0
	for _, name := range []StrategyName{StrategyCodeAware, StrategyStructural, StrategySentences} {
		if scores[name] > bestScore {
			best, bestScore = name, scores[name]
		}
	}
	return best
}

func weightedScore(name StrategyName, quality float64) float64 {
	return 0.5*(1.0/float64(strategyPriority[name])) + 0.5*quality
}

// densityPreference implements spec.md §4.3's tie-breaker: structural is
// preferred when the document is clearly sectioned; otherwise code_aware is
// preferred when code/tables are present at all; otherwise no preference.
func densityPreference(analysis ContentAnalysis) StrategyName {
	if analysis.HeaderCount > 3 && analysis.MaxHeaderDepth > 1 {
		return StrategyStructural
	}
	if analysis.CodeBlockCount >= 1 || analysis.CodeRatio > 0.3 || analysis.TableCount > 0 {
		return StrategyCodeAware
	}
	return ""
}
