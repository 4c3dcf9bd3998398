package chunking

import (
	"context"
	"strconv"
	"strings"
	"testing"
)

func TestStreamingChunkerEmitsStrictlyIncreasingAbsoluteLines(t *testing.T) {
	cfg, err := NewChunkConfig()
	if err != nil {
		t.Fatalf("NewChunkConfig() error = %v", err)
	}
	streamCfg, err := NewStreamingConfig(WithBufferSize(80), WithOverlapLines(2))
	if err != nil {
		t.Fatalf("NewStreamingConfig() error = %v", err)
	}

	var paragraphs []string
	for i := 0; i < 12; i++ {
		paragraphs = append(paragraphs, "this is paragraph number that is long enough to matter here")
	}
	text := strings.Join(paragraphs, "\n\n") + "\n"

	sc := NewStreamingChunker(cfg, streamCfg)
	var all []Chunk
	err = sc.Run(context.Background(), strings.NewReader(text), func(chunks []Chunk) error {
		all = append(all, chunks...)
		return nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(all) == 0 {
		t.Fatal("expected at least one chunk")
	}

	lastStart, lastIdx := 0, -1
	for _, c := range all {
		if c.StartLine < lastStart {
			t.Errorf("chunk start_line %d is less than previous %d: not source-ordered", c.StartLine, lastStart)
		}
		lastStart = c.StartLine

		idx, err := strconv.Atoi(c.Metadata[MetaStreamChunkIdx])
		if err != nil {
			t.Fatalf("bad stream_chunk_index %q: %v", c.Metadata[MetaStreamChunkIdx], err)
		}
		if idx != lastIdx+1 {
			t.Errorf("stream_chunk_index = %d, want %d (strictly sequential)", idx, lastIdx+1)
		}
		lastIdx = idx
	}
}

func TestStreamingChunkerSplitsBeforeHeaderOnceThresholdReached(t *testing.T) {
	cfg, _ := NewChunkConfig()
	// A tiny buffer/threshold so the first body line carries the buffer past
	// SafeSplitThreshold*BufferSize; the blank line that follows it then
	// triggers the paragraph-break split (preference 2), so the window ends
	// before "# Second" instead of waiting for BufferSize.
	streamCfg, err := NewStreamingConfig(WithBufferSize(200), WithSafeSplitThreshold(0.2), WithOverlapLines(0))
	if err != nil {
		t.Fatalf("NewStreamingConfig() error = %v", err)
	}

	text := "# First\n\nsome body text here that is long enough to pass the threshold\n\n# Second\n\nmore body text\n"

	sc := NewStreamingChunker(cfg, streamCfg)
	var windows [][]Chunk
	err = sc.Run(context.Background(), strings.NewReader(text), func(chunks []Chunk) error {
		windows = append(windows, chunks)
		return nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(windows) < 2 {
		t.Fatalf("got %d windows, want at least 2 (split before the second header)", len(windows))
	}

	firstWindowContent := strings.Join(collectContent(windows[0]), "\n")
	if strings.Contains(firstWindowContent, "# Second") {
		t.Errorf("first window should not contain the second header: %q", firstWindowContent)
	}
}

func TestStreamingChunkerDoesNotDuplicateCarriedOverlapContent(t *testing.T) {
	// Sentences packs greedily up to TargetChunkSize, so a chunk can span
	// from the carried-over overlap_lines prefix of a window straight
	// through into freshly read content. Before the flush() trim fix this
	// re-emitted the carried sentences a second time.
	cfg, err := NewChunkConfig(WithStrategyOverride(StrategySentences))
	if err != nil {
		t.Fatalf("NewChunkConfig() error = %v", err)
	}
	streamCfg, err := NewStreamingConfig(WithBufferSize(120), WithSafeSplitThreshold(0.5), WithOverlapLines(3))
	if err != nil {
		t.Fatalf("NewStreamingConfig() error = %v", err)
	}

	var sentences []string
	for i := 0; i < 30; i++ {
		sentences = append(sentences, "Sentence number "+strconv.Itoa(i)+" is long enough to matter for packing.")
	}
	text := strings.Join(sentences, "\n") + "\n"

	sc := NewStreamingChunker(cfg, streamCfg)
	var all []Chunk
	err = sc.Run(context.Background(), strings.NewReader(text), func(chunks []Chunk) error {
		all = append(all, chunks...)
		return nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(all) < 2 {
		t.Fatalf("got %d chunks, want at least 2 windows worth to exercise the overlap boundary", len(all))
	}

	seenSentenceOccurrences := make(map[string]int)
	for _, c := range all {
		for _, s := range strings.Split(c.Content, "\n") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			seenSentenceOccurrences[s]++
		}
	}
	for s, n := range seenSentenceOccurrences {
		if n > 1 {
			t.Errorf("sentence line %q appeared %d times across emitted chunks, want at most once", s, n)
		}
	}

	var lastEnd int
	for _, c := range all {
		if c.StartLine <= lastEnd {
			t.Errorf("chunk [%d,%d] overlaps previously emitted content through line %d", c.StartLine, c.EndLine, lastEnd)
		}
		if c.EndLine > lastEnd {
			lastEnd = c.EndLine
		}
	}
}

func collectContent(chunks []Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Content
	}
	return out
}

func TestStreamingChunkerRespectsCancellation(t *testing.T) {
	cfg, _ := NewChunkConfig()
	streamCfg, _ := NewStreamingConfig()
	sc := NewStreamingChunker(cfg, streamCfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sc.Run(ctx, strings.NewReader("line one\nline two\n"), func(chunks []Chunk) error {
		return nil
	})
	if err != ErrStreamCanceled {
		t.Errorf("Run() error = %v, want ErrStreamCanceled", err)
	}
}

