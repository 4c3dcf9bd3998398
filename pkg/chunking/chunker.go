package chunking

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/hsn0918/mdchunk/pkg/logger"
)

// Chunker is the package's top-level entry point, per SPEC_FULL.md §4.8.
// It wires together the Analyzer, Selector, Strategy registry,
// OverlapManager, MetadataEnricher, HierarchyBuilder, and
// CompletenessValidator described in spec.md §4. A Chunker is immutable
// after construction and safe for concurrent use.
type Chunker struct {
	cfg      ChunkConfig
	analyzer *Analyzer
	selector *Selector
	overlap  *OverlapManager
	enricher *MetadataEnricher
	hier     *HierarchyBuilder
	validate *CompletenessValidator
}

// New constructs a Chunker from the given options, applying
// ChunkConfig.validate's defaulting and range-checking rules. It returns
// *ConfigError (wrapping ErrConfigInvalid) if the resulting config is
// inconsistent.
func New(opts ...Option) (*Chunker, error) {
	cfg, err := NewChunkConfig(opts...)
	if err != nil {
		return nil, err
	}
	return &Chunker{
		cfg:      cfg,
		analyzer: NewAnalyzer(cfg.ExtractPreamble),
		selector: NewSelector(cfg.WeightedSelection),
		overlap:  NewOverlapManager(cfg),
		enricher: NewMetadataEnricher(),
		hier:     NewHierarchyBuilder(),
		validate: NewCompletenessValidator(),
	}, nil
}

// Chunk analyzes text, selects a Strategy, and returns a flat
// ChunkingResult, per spec.md §4's overall pipeline. It returns
// ErrEmptyContent for blank input and ErrInvalidEncoding for non-UTF-8
// input. A panic or error from the selected strategy is recovered and
// falls back to the next strategy in priority order (spec.md §7's
// StrategyExecutionFailed); sentences is the terminal strategy and, should
// it somehow also fail, Chunk falls back one last time to a single
// whole-document chunk rather than ever returning an empty, successful
// result.
func (c *Chunker) Chunk(text string) (ChunkingResult, error) {
	started := time.Now()
	if isBlank(text) {
		return ChunkingResult{}, ErrEmptyContent
	}

	analysis, err := c.analyzer.Analyze(text)
	if err != nil {
		return ChunkingResult{}, err
	}

	lines := splitLines(normalizeLineEndings(text))
	primary := c.selector.Select(analysis, c.cfg)

	chunks, ranName, execErrors := c.runWithFallback(primary, text, lines, analysis)
	fallbackUsed := StrategyName("")
	if ranName != primary {
		fallbackUsed = ranName
	}

	chunks = c.overlap.Apply(chunks)
	chunks = c.enricher.Enrich(chunks)
	quality := qualityScoreFor(ranName, analysis)
	for i := range chunks {
		chunks[i].QualityScore = quality
	}

	warnings := append([]string(nil), analysis.Warnings...)
	if c.cfg.EnableContentValidation {
		for _, issue := range c.validate.ValidateCoverage(chunks, analysis.TotalLines, analysis.TotalChars) {
			warnings = append(warnings, issue.String())
		}
	}

	logger.Get().Debug("chunked document",
		zap.String("strategy", string(ranName)),
		zap.Int("chunk_count", len(chunks)),
		zap.Int("warning_count", len(warnings)),
		zap.Int("error_count", len(execErrors)),
	)

	return ChunkingResult{
		Chunks:         chunks,
		Analysis:       analysis,
		StrategyUsed:   ranName,
		Warnings:       warnings,
		ProcessingTime: time.Since(started),
		TotalChars:     analysis.TotalChars,
		TotalLines:     analysis.TotalLines,
		ChunkCount:     len(chunks),
		Success:        len(chunks) > 0,
		FallbackUsed:   fallbackUsed,
		Errors:         execErrors,
	}, nil
}

// runWithFallback runs name's strategy, recovering any panic, and on
// failure (a panic, an error, or zero chunks) falls through to the next
// strategy by priority order, recording each error or panic (ErrEmptyResult
// included) as an entry in the returned errors slice. sentences
// never appears in the fallback chain twice; if it too fails, a single
// whole-document chunk is synthesized as the last resort per spec.md §7.
func (c *Chunker) runWithFallback(name StrategyName, text string, lines []string, analysis ContentAnalysis) ([]Chunk, StrategyName, []string) {
	order := fallbackOrder(name)
	var errs []string

	for _, candidate := range order {
		chunks, err := c.runStrategy(candidate, text, lines, analysis)
		if err == nil && len(chunks) > 0 {
			return chunks, candidate, errs
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("strategy %s failed: %v", candidate, err))
		}
	}

	errs = append(errs, "all strategies failed; emitting whole-document chunk as last resort")
	return []Chunk{newChunk(text, 1, len(lines), StrategySentences, ContentTypeText)}, StrategySentences, errs
}

// runStrategy invokes strategy.Chunk, converting any panic into an error so
// spec.md §7's "must catch" requirement holds even for a buggy Strategy
// implementation.
func (c *Chunker) runStrategy(name StrategyName, text string, lines []string, analysis ContentAnalysis) (chunks []Chunk, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	chunks, err = newStrategy(name).Chunk(text, lines, analysis, c.cfg)
	return chunks, err
}

// fallbackOrder returns the strategies to try starting at first, in
// spec.md §4.2's priority order, ending at sentences (the universal
// fallback) exactly once.
func fallbackOrder(first StrategyName) []StrategyName {
	all := []StrategyName{StrategyCodeAware, StrategyStructural, StrategySentences}
	ordered := make([]StrategyName, 0, len(all))
	ordered = append(ordered, first)
	for _, n := range all {
		if n != first {
			ordered = append(ordered, n)
		}
	}
	return ordered
}

// qualityScoreFor computes the §4.2 quality score for whichever strategy
// actually produced the result, so SPEC_FULL.md §3.1's Chunk.QualityScore
// reflects the strategy that ran, not just the one the Selector picked.
func qualityScoreFor(name StrategyName, analysis ContentAnalysis) float64 {
	switch name {
	case StrategyCodeAware:
		return codeAwareQualityScore(analysis)
	case StrategyStructural:
		return structuralQualityScore(analysis)
	default:
		return sentencesQualityScore()
	}
}

// ChunkHierarchical is Chunk followed by HierarchyBuilder.Build, per
// spec.md §4.5.
func (c *Chunker) ChunkHierarchical(text string) (HierarchicalChunkingResult, error) {
	flat, err := c.Chunk(text)
	if err != nil {
		return HierarchicalChunkingResult{}, err
	}

	nodes, rootID, chunks := c.hier.Build(flat.Chunks, flat.Analysis, normalizeLineEndings(text))
	flat.Chunks = chunks
	flat.ChunkCount = len(chunks)
	return HierarchicalChunkingResult{
		ChunkingResult: flat,
		Nodes:          nodes,
		RootID:         rootID,
	}, nil
}

// ChunkStream chunks r incrementally, calling emit once per window, per
// spec.md §4.6. streamOpts configure buffering; c's own ChunkConfig
// continues to govern chunk sizing and strategy selection.
func (c *Chunker) ChunkStream(ctx context.Context, r io.Reader, emit EmitFunc, streamOpts ...StreamingOption) error {
	streamCfg, err := NewStreamingConfig(streamOpts...)
	if err != nil {
		return err
	}
	sc := NewStreamingChunker(c.cfg, streamCfg)
	return sc.Run(ctx, r, emit)
}
