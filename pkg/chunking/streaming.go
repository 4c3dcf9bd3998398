package chunking

import (
	"bufio"
	"context"
	"io"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/hsn0918/mdchunk/pkg/logger"
)

// headerLineRe recognizes an ATX header line, used by the streaming split
// detector's highest-preference candidate (spec.md §4.6 step 3.1: "the line
// before a header line"). Setext headers are not detected here - they would
// require one line of lookahead the incremental scanner doesn't keep - so a
// setext-heavy stream falls through to the blank-line/safe-newline
// candidates instead.
var headerLineRe = regexp.MustCompile(`^#{1,6}\s`)

// StreamingChunker chunks a Markdown document incrementally from an
// io.Reader, per spec.md §4.6: it never holds the whole document in
// memory, emitting a window once its buffer passes
// StreamingConfig.SafeSplitThreshold*BufferSize and a safe split point
// appears, preferring (1) the line before a header line, (2) a blank-line
// paragraph break, (3) any newline outside an open fence once the buffer
// reaches BufferSize with no better candidate found. An open fence
// spanning a window boundary keeps buffering past BufferSize up to
// MaxMemoryBytes, matching fenceScanner's resumable design (see
// fenced.go).
type StreamingChunker struct {
	cfg       ChunkConfig
	streamCfg StreamingConfig
	strategy  Strategy
	selector  *Selector

	scanner *fenceScanner
	buf     strings.Builder
	lineNo  int

	// windowStartLine is the absolute 1-based source line the current
	// buffer's first line corresponds to; chunks are built from
	// window-relative line numbers and then shifted by this offset so
	// callers see absolute positions, per spec.md §4.6 step 5.
	windowStartLine int

	// lastEmittedLine is the absolute line number through which content has
	// already been yielded to the caller. Carry-over lines (the buffer
	// manager's overlap_lines, spec.md §4.6 step 1) are reprocessed as
	// leading context in the next window so the strategy sees unbroken
	// paragraphs/sentences across the boundary, but any chunk that doesn't
	// reach past lastEmittedLine is a re-derivation of already-yielded
	// content and is suppressed rather than re-emitted.
	lastEmittedLine int

	windowIdx int
	chunkIdx  int
}

// NewStreamingChunker constructs a StreamingChunker. cfg governs chunk
// sizing, overlap and strategy selection; the strategy is selected once,
// from the first window's analysis, and reused for every later window, with
// no fallback to another strategy. streamCfg governs the buffering behavior
// unique to streaming.
func NewStreamingChunker(cfg ChunkConfig, streamCfg StreamingConfig) *StreamingChunker {
	return &StreamingChunker{
		cfg:             cfg,
		streamCfg:       streamCfg,
		selector:        NewSelector(cfg.WeightedSelection),
		scanner:         newFenceScanner(),
		windowStartLine: 1,
	}
}

// EmitFunc receives one window's worth of chunks as they become available.
// Returning a non-nil error aborts Run.
type EmitFunc func([]Chunk) error

// Run reads r line by line until EOF or ctx is canceled, calling emit once
// per flushed window. It returns ErrStreamCanceled if ctx is canceled, a
// *MemoryLimitError if an open fence forces the buffer past
// MaxMemoryBytes, or any error returned by emit.
func (s *StreamingChunker) Run(ctx context.Context, r io.Reader, emit EmitFunc) error {
	log := logger.Get()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), s.streamCfg.MaxMemoryBytes)

	threshold := int(s.streamCfg.SafeSplitThreshold * float64(s.streamCfg.BufferSize))

	for sc.Scan() {
		select {
		case <-ctx.Done():
			return ErrStreamCanceled
		default:
		}

		line := sc.Text()

		// Split detector preference 1 (spec.md §4.6 step 3.1): the line
		// before a header line, checked before the header line itself ever
		// enters the buffer so it becomes the next window's first line.
		if s.buf.Len() >= threshold && !s.scanner.inFence() && headerLineRe.MatchString(line) {
			if err := s.flush(emit, false); err != nil {
				return err
			}
		}

		s.lineNo++
		s.scanner.feedLine(line, s.lineNo)
		s.buf.WriteString(line)
		s.buf.WriteByte('\n')

		if s.buf.Len() > s.streamCfg.MaxMemoryBytes {
			return &MemoryLimitError{
				BufferBytes: s.buf.Len(),
				LimitBytes:  s.streamCfg.MaxMemoryBytes,
				Line:        s.lineNo,
			}
		}

		if s.buf.Len() < threshold {
			continue
		}
		if s.scanner.inFence() {
			continue // never split inside an open fence, per spec.md §4.6
		}
		if strings.TrimSpace(line) == "" {
			// Split detector preference 2: a blank-line paragraph break.
			if err := s.flush(emit, false); err != nil {
				return err
			}
			continue
		}
		if s.buf.Len() >= s.streamCfg.BufferSize {
			// Split detector preference 3: no header or blank line turned
			// up between threshold and buffer_size, so fall back to any
			// newline outside a fence rather than searching indefinitely.
			if err := s.flush(emit, false); err != nil {
				return err
			}
		}
	}
	if err := sc.Err(); err != nil {
		log.Warn("streaming chunker scan error", zap.Error(err))
		return err
	}

	return s.flush(emit, true)
}

// flush runs the analyzer and selected strategy over the buffered window
// and emits its chunks, then resets the buffer while preserving the
// fenceScanner's open-fence stack (if any) across the window boundary.
func (s *StreamingChunker) flush(emit EmitFunc, final bool) error {
	content := s.buf.String()
	if isBlank(content) {
		s.buf.Reset()
		return nil
	}

	lines := splitLines(strings.TrimSuffix(content, "\n"))

	analyzer := NewAnalyzer(false)
	analysis, err := analyzer.Analyze(content)
	if err != nil {
		return err
	}

	if s.strategy == nil {
		name := s.selector.Select(analysis, s.cfg)
		s.strategy = newStrategy(name)
	}

	chunks, err := s.strategy.Chunk(content, lines, analysis, s.cfg)
	if err != nil && err != ErrEmptyResult {
		return err
	}

	overlap := NewOverlapManager(s.cfg)
	chunks = overlap.Apply(chunks)
	enricher := NewMetadataEnricher()
	chunks = enricher.Enrich(chunks)

	// Shift window-relative line numbers to absolute source positions, per
	// spec.md §4.6 step 5 ("the manager tracks an absolute line offset").
	offset := s.windowStartLine - 1

	bytesProcessed := 0
	emitted := chunks[:0]
	for _, ch := range chunks {
		windowStart, windowEnd := ch.StartLine, ch.EndLine
		absStart, absEnd := windowStart+offset, windowEnd+offset

		// Carry-over lines reprocessed purely for context (step 1 of
		// spec.md §4.6) must not be re-yielded: skip anything that doesn't
		// extend past what the previous window already emitted.
		if absEnd <= s.lastEmittedLine {
			continue
		}
		// A non-atomic chunk that starts inside the carried-over range but
		// extends past it (greedy sentence/paragraph packing pulling carried
		// context and new content into one chunk) would otherwise re-yield
		// the carried lines' text a second time; trim its content down to
		// only the not-yet-emitted lines. An atomic chunk (a fenced block)
		// can never legitimately straddle this boundary - buffering never
		// flushes inside an open fence - so it is left whole rather than
		// risking a split mid-block.
		if absStart <= s.lastEmittedLine && ch.Metadata[MetaAtomic] != "true" {
			newWindowStart := s.lastEmittedLine - offset + 1
			if newWindowStart < 1 {
				newWindowStart = 1
			}
			if newWindowStart > len(lines) {
				newWindowStart = len(lines)
			}
			ch.Content = strings.Join(lines[newWindowStart-1:min(windowEnd, len(lines))], "\n")
			windowStart = newWindowStart
			absStart = windowStart + offset
			if isBlank(ch.Content) {
				continue
			}
		}
		ch.StartLine, ch.EndLine = absStart, absEnd
		ch.Metadata[MetaStreamWindow] = strconv.Itoa(s.windowIdx)
		ch.Metadata[MetaStreamChunkIdx] = strconv.Itoa(s.chunkIdx)
		ch.Metadata[MetaIsPartial] = strconv.FormatBool(!final)
		bytesProcessed += len(ch.Content)
		ch.Metadata[MetaBytesProcessed] = strconv.Itoa(bytesProcessed)
		s.chunkIdx++
		emitted = append(emitted, ch)
		if ch.EndLine > s.lastEmittedLine {
			s.lastEmittedLine = ch.EndLine
		}
	}
	s.windowIdx++

	// Keep the trailing overlap_lines lines as carry-over context for the
	// next window, per spec.md §4.6 step 1, unless this is the final flush.
	nextStart := s.windowStartLine + len(lines)
	s.buf.Reset()
	if !final && s.streamCfg.OverlapLines > 0 && len(lines) > 0 {
		n := s.streamCfg.OverlapLines
		if n > len(lines) {
			n = len(lines)
		}
		carry := lines[len(lines)-n:]
		for _, l := range carry {
			s.buf.WriteString(l)
			s.buf.WriteByte('\n')
		}
		nextStart -= n
	}
	s.windowStartLine = nextStart

	if len(emitted) == 0 {
		return nil
	}
	return emit(emitted)
}
