package chunking

import "testing"

func TestExtractFencedBlocks(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantBlocks int
		wantClosed []bool
		wantLang   []string
	}{
		{
			name:       "simple closed block",
			input:      "before\n```go\nfunc main() {}\n```\nafter",
			wantBlocks: 1,
			wantClosed: []bool{true},
			wantLang:   []string{"go"},
		},
		{
			name:       "unclosed block at eof",
			input:      "```python\nprint(1)\n",
			wantBlocks: 1,
			wantClosed: []bool{false},
			wantLang:   []string{"python"},
		},
		{
			name:       "tilde fence",
			input:      "~~~\ncode\n~~~\n",
			wantBlocks: 1,
			wantClosed: []bool{true},
			wantLang:   []string{""},
		},
		{
			name:       "nested fence longer outer",
			input:      "````markdown\n```go\nx := 1\n```\n````\n",
			wantBlocks: 1,
			wantClosed: []bool{true},
			wantLang:   []string{"markdown"},
		},
		{
			name:       "two sibling blocks",
			input:      "```bash\necho hi\n```\ntext\n```json\n{}\n```\n",
			wantBlocks: 2,
			wantClosed: []bool{true, true},
			wantLang:   []string{"bash", "json"},
		},
		{
			name:       "no fences",
			input:      "just plain text\nwith two lines",
			wantBlocks: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := splitLines(tt.input)
			blocks, warnings := extractFencedBlocks(lines)
			if len(blocks) != tt.wantBlocks {
				t.Fatalf("got %d blocks, want %d (warnings=%v)", len(blocks), tt.wantBlocks, warnings)
			}
			for i, b := range blocks {
				if tt.wantClosed != nil && b.Closed != tt.wantClosed[i] {
					t.Errorf("block %d: closed = %v, want %v", i, b.Closed, tt.wantClosed[i])
				}
				if tt.wantLang != nil && b.Language != tt.wantLang[i] {
					t.Errorf("block %d: language = %q, want %q", i, b.Language, tt.wantLang[i])
				}
			}
		})
	}
}

func TestNestedFenceProducesInnerBlock(t *testing.T) {
	input := "````markdown\n```go\nx := 1\n```\n````\n"
	lines := splitLines(input)
	blocks, _ := extractFencedBlocks(lines)
	if len(blocks) != 1 {
		t.Fatalf("got %d outer blocks, want 1", len(blocks))
	}
	if len(blocks[0].InnerBlocks) != 1 {
		t.Fatalf("got %d inner blocks, want 1", len(blocks[0].InnerBlocks))
	}
	if blocks[0].InnerBlocks[0].Language != "go" {
		t.Errorf("inner block language = %q, want go", blocks[0].InnerBlocks[0].Language)
	}
}

func TestUnclosedFenceWarns(t *testing.T) {
	lines := splitLines("```go\nfunc f() {}\n")
	_, warnings := extractFencedBlocks(lines)
	if len(warnings) != 1 {
		t.Fatalf("got %d warnings, want 1", len(warnings))
	}
}

func TestBacktickInfoStringRejectsBacktick(t *testing.T) {
	_, _, _, ok := openFenceCandidate("```contains`backtick")
	if ok {
		t.Error("expected backtick info string to be rejected as a fence opener")
	}
}

func TestCloseFenceRequiresMatchingLength(t *testing.T) {
	if !isCloseFence("````", '`', 3) {
		t.Error("longer closing fence should close a shorter opener")
	}
	if isCloseFence("``", '`', 3) {
		t.Error("shorter closing fence should not close a longer opener")
	}
	if isCloseFence("~~~", '`', 3) {
		t.Error("mismatched fence character should not close")
	}
}
