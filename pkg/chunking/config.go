package chunking

import "fmt"

// StrategyName identifies one of the closed set of chunking strategies.
type StrategyName string

// The closed set of strategies this package implements.
const (
	StrategyCodeAware  StrategyName = "code_aware"
	StrategyStructural StrategyName = "structural"
	StrategySentences  StrategyName = "sentences"
)

// Default configuration values, mirrored from spec.md §3.
const (
	DefaultMaxChunkSize          = 4096
	DefaultMinChunkSize          = 512
	DefaultTargetChunkSize       = 2048
	DefaultOverlapSize           = 200
	DefaultOverlapPercentage     = 0.1
	DefaultCodeRatioThreshold    = 0.3
	DefaultMinCodeBlocks         = 1
	DefaultHeaderCountThreshold  = 3
	DefaultStreamingBufferSize   = 64 * 1024
	DefaultStreamingOverlapLines = 8
	DefaultMaxMemoryBytes        = 8 * 1024 * 1024
	DefaultSafeSplitThreshold    = 0.8
	DefaultRelatedBlockMaxGap    = 2
	DefaultMaxContextChars       = 400
)

// ChunkConfig is a validated configuration value object. Construct it with
// NewChunkConfig; the zero value is not safe to use directly because
// validation (and default substitution) happens once at construction, never
// at chunking time, per spec.md §7's "configuration errors are raised at
// construction" propagation policy.
type ChunkConfig struct {
	MaxChunkSize      int
	MinChunkSize      int
	TargetChunkSize   int
	OverlapSize       int
	OverlapPercentage float64
	EnableOverlap     bool

	CodeRatioThreshold   float64
	MinCodeBlocks        int
	HeaderCountThreshold int

	PreserveAtomicBlocks bool
	ExtractPreamble      bool
	AllowOversize        bool

	StrategyOverride StrategyName

	EnableContentValidation bool

	// RelatedBlockMaxGap and MaxContextChars govern the code-context
	// binding enrichment described in spec.md §4.2.1 / SPEC_FULL.md §4.9.
	RelatedBlockMaxGap int
	MaxContextChars    int

	// WeightedSelection enables the Selector's weighted tie-breaking mode
	// (spec.md §4.3 step 3) instead of strict priority order. Defaults to
	// false: spec.md §9 defers to strict mode.
	WeightedSelection bool
}

// Option configures a ChunkConfig during construction (StreamingOption does
// the same for StreamingConfig),
// the same functional-options idiom the teacher's semantic chunker uses for
// WithSimilarityThreshold / WithParallelProcessing.
type Option func(*ChunkConfig)

// WithMaxChunkSize overrides the default maximum chunk size in characters.
func WithMaxChunkSize(n int) Option { return func(c *ChunkConfig) { c.MaxChunkSize = n } }

// WithMinChunkSize overrides the default minimum chunk size in characters.
func WithMinChunkSize(n int) Option { return func(c *ChunkConfig) { c.MinChunkSize = n } }

// WithTargetChunkSize overrides the ideal packing size in characters.
func WithTargetChunkSize(n int) Option { return func(c *ChunkConfig) { c.TargetChunkSize = n } }

// WithOverlapSize overrides the fixed overlap size in characters.
func WithOverlapSize(n int) Option { return func(c *ChunkConfig) { c.OverlapSize = n } }

// WithOverlapPercentage overrides the fractional overlap used when
// OverlapSize is zero.
func WithOverlapPercentage(p float64) Option {
	return func(c *ChunkConfig) { c.OverlapPercentage = p }
}

// WithEnableOverlap toggles the overlap manager's master switch.
func WithEnableOverlap(enabled bool) Option {
	return func(c *ChunkConfig) { c.EnableOverlap = enabled }
}

// WithCodeRatioThreshold overrides the minimum code_ratio for the code-aware
// strategy to apply.
func WithCodeRatioThreshold(t float64) Option {
	return func(c *ChunkConfig) { c.CodeRatioThreshold = t }
}

// WithMinCodeBlocks overrides the minimum code block count for the
// code-aware strategy to apply.
func WithMinCodeBlocks(n int) Option { return func(c *ChunkConfig) { c.MinCodeBlocks = n } }

// WithHeaderCountThreshold overrides the minimum header count for the
// structural strategy to apply.
func WithHeaderCountThreshold(n int) Option {
	return func(c *ChunkConfig) { c.HeaderCountThreshold = n }
}

// WithPreserveAtomicBlocks toggles whether code blocks and tables may ever
// be split mid-block.
func WithPreserveAtomicBlocks(preserve bool) Option {
	return func(c *ChunkConfig) { c.PreserveAtomicBlocks = preserve }
}

// WithExtractPreamble toggles whether leading non-header content becomes
// its own chunk.
func WithExtractPreamble(extract bool) Option {
	return func(c *ChunkConfig) { c.ExtractPreamble = extract }
}

// WithAllowOversize sets ChunkConfig.AllowOversize. No strategy reads the
// flag: atomic blocks (code groups and tables) larger than MaxChunkSize are
// always emitted as a single chunk tagged allow_oversize, and oversize
// non-atomic text is always split.
func WithAllowOversize(allow bool) Option { return func(c *ChunkConfig) { c.AllowOversize = allow } }

// WithStrategyOverride forces a specific strategy regardless of analysis.
func WithStrategyOverride(name StrategyName) Option {
	return func(c *ChunkConfig) { c.StrategyOverride = name }
}

// WithContentValidation toggles the completeness validator pass.
func WithContentValidation(enabled bool) Option {
	return func(c *ChunkConfig) { c.EnableContentValidation = enabled }
}

// WithWeightedSelection switches the selector into weighted scoring mode.
func WithWeightedSelection(enabled bool) Option {
	return func(c *ChunkConfig) { c.WeightedSelection = enabled }
}

// WithRelatedBlockMaxGap overrides the line gap allowed when grouping
// related code blocks.
func WithRelatedBlockMaxGap(n int) Option { return func(c *ChunkConfig) { c.RelatedBlockMaxGap = n } }

// WithMaxContextChars overrides how much surrounding prose may be attached
// as explanation_before/explanation_after.
func WithMaxContextChars(n int) Option { return func(c *ChunkConfig) { c.MaxContextChars = n } }

// NewChunkConfig builds a ChunkConfig from defaults plus the given options,
// then validates it. Validation failure returns a *ConfigError wrapping
// ErrConfigInvalid. A min>=max is first corrected via defaulting where
// spec.md says to auto-correct; genuinely invalid values (e.g. a percentage
// outside [0,1], or an unknown strategy override) are rejected.
func NewChunkConfig(opts ...Option) (ChunkConfig, error) {
	c := ChunkConfig{
		MaxChunkSize:             DefaultMaxChunkSize,
		MinChunkSize:             DefaultMinChunkSize,
		TargetChunkSize:          DefaultTargetChunkSize,
		OverlapSize:              DefaultOverlapSize,
		OverlapPercentage:        DefaultOverlapPercentage,
		EnableOverlap:            true,
		CodeRatioThreshold:       DefaultCodeRatioThreshold,
		MinCodeBlocks:            DefaultMinCodeBlocks,
		HeaderCountThreshold:     DefaultHeaderCountThreshold,
		PreserveAtomicBlocks:     true,
		ExtractPreamble:          true,
		AllowOversize:            true,
		EnableContentValidation: true,
		RelatedBlockMaxGap:       DefaultRelatedBlockMaxGap,
		MaxContextChars:          DefaultMaxContextChars,
	}
	for _, opt := range opts {
		opt(&c)
	}
	if err := c.validate(); err != nil {
		return ChunkConfig{}, err
	}
	return c, nil
}

// validate applies the defaulting and range rules from spec.md §3 in place,
// returning an error only for violations defaulting cannot repair.
func (c *ChunkConfig) validate() error {
	if c.MaxChunkSize <= 0 {
		c.MaxChunkSize = DefaultMaxChunkSize
	}
	if c.MinChunkSize <= 0 {
		c.MinChunkSize = DefaultMinChunkSize
	}
	if c.TargetChunkSize <= 0 {
		c.TargetChunkSize = DefaultTargetChunkSize
	}

	if c.MinChunkSize >= c.MaxChunkSize {
		c.MinChunkSize = max(1, c.MaxChunkSize/2)
	}
	if c.TargetChunkSize < c.MinChunkSize {
		c.TargetChunkSize = c.MinChunkSize
	}
	if c.TargetChunkSize > c.MaxChunkSize {
		c.TargetChunkSize = c.MaxChunkSize
	}

	if c.OverlapPercentage < 0 || c.OverlapPercentage > 1 {
		return &ConfigError{Field: "OverlapPercentage", Err: fmt.Errorf("%w: must be in [0,1], got %v", ErrConfigInvalid, c.OverlapPercentage)}
	}
	if c.CodeRatioThreshold < 0 || c.CodeRatioThreshold > 1 {
		return &ConfigError{Field: "CodeRatioThreshold", Err: fmt.Errorf("%w: must be in [0,1], got %v", ErrConfigInvalid, c.CodeRatioThreshold)}
	}
	if c.OverlapSize < 0 {
		return &ConfigError{Field: "OverlapSize", Err: fmt.Errorf("%w: must be >= 0, got %d", ErrConfigInvalid, c.OverlapSize)}
	}
	if c.MinCodeBlocks < 0 {
		return &ConfigError{Field: "MinCodeBlocks", Err: fmt.Errorf("%w: must be >= 0, got %d", ErrConfigInvalid, c.MinCodeBlocks)}
	}
	if c.HeaderCountThreshold < 0 {
		return &ConfigError{Field: "HeaderCountThreshold", Err: fmt.Errorf("%w: must be >= 0, got %d", ErrConfigInvalid, c.HeaderCountThreshold)}
	}
	switch c.StrategyOverride {
	case "", StrategyCodeAware, StrategyStructural, StrategySentences:
	default:
		return &ConfigError{Field: "StrategyOverride", Err: fmt.Errorf("%w: unknown strategy %q", ErrConfigInvalid, c.StrategyOverride)}
	}

	if c.RelatedBlockMaxGap < 0 {
		c.RelatedBlockMaxGap = DefaultRelatedBlockMaxGap
	}
	if c.MaxContextChars < 0 {
		c.MaxContextChars = DefaultMaxContextChars
	}

	// post-condition: min <= target <= max
	if !(c.MinChunkSize <= c.TargetChunkSize && c.TargetChunkSize <= c.MaxChunkSize) {
		return &ConfigError{Field: "TargetChunkSize", Err: fmt.Errorf("%w: post-condition min<=target<=max violated", ErrConfigInvalid)}
	}
	return nil
}

// StreamingConfig configures the StreamingChunker. Construct it with
// NewStreamingConfig.
type StreamingConfig struct {
	BufferSize         int
	OverlapLines       int
	MaxMemoryBytes     int
	SafeSplitThreshold float64
}

// StreamingOption configures a StreamingConfig during construction.
type StreamingOption func(*StreamingConfig)

// WithBufferSize overrides the per-window character budget.
func WithBufferSize(n int) StreamingOption { return func(c *StreamingConfig) { c.BufferSize = n } }

// WithOverlapLines overrides how many trailing lines carry into the next window.
func WithOverlapLines(n int) StreamingOption {
	return func(c *StreamingConfig) { c.OverlapLines = n }
}

// WithMaxMemoryBytes overrides the hard ceiling on rolling buffer size.
func WithMaxMemoryBytes(n int) StreamingOption {
	return func(c *StreamingConfig) { c.MaxMemoryBytes = n }
}

// WithSafeSplitThreshold overrides the fraction of BufferSize after which
// the split detector begins searching for a safe split point.
func WithSafeSplitThreshold(f float64) StreamingOption {
	return func(c *StreamingConfig) { c.SafeSplitThreshold = f }
}

// NewStreamingConfig builds a StreamingConfig from defaults plus options,
// then validates it.
func NewStreamingConfig(opts ...StreamingOption) (StreamingConfig, error) {
	c := StreamingConfig{
		BufferSize:         DefaultStreamingBufferSize,
		OverlapLines:       DefaultStreamingOverlapLines,
		MaxMemoryBytes:      DefaultMaxMemoryBytes,
		SafeSplitThreshold: DefaultSafeSplitThreshold,
	}
	for _, opt := range opts {
		opt(&c)
	}
	if c.BufferSize <= 0 {
		return StreamingConfig{}, &ConfigError{Field: "BufferSize", Err: fmt.Errorf("%w: must be > 0", ErrConfigInvalid)}
	}
	if c.OverlapLines < 0 {
		return StreamingConfig{}, &ConfigError{Field: "OverlapLines", Err: fmt.Errorf("%w: must be >= 0", ErrConfigInvalid)}
	}
	if c.MaxMemoryBytes <= 0 {
		return StreamingConfig{}, &ConfigError{Field: "MaxMemoryBytes", Err: fmt.Errorf("%w: must be > 0", ErrConfigInvalid)}
	}
	if c.SafeSplitThreshold <= 0 || c.SafeSplitThreshold > 1 {
		return StreamingConfig{}, &ConfigError{Field: "SafeSplitThreshold", Err: fmt.Errorf("%w: must be in (0,1]", ErrConfigInvalid)}
	}
	if c.MaxMemoryBytes < c.BufferSize {
		c.MaxMemoryBytes = c.BufferSize * 2
	}
	return c, nil
}
