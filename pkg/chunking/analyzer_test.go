package chunking

import "testing"

func TestAnalyzeBasicDocument(t *testing.T) {
	text := "# Title\n\nSome intro text.\n\n## Section\n\n- item one\n- item two\n\n```go\nfunc f() {}\n```\n"

	a := NewAnalyzer(true)
	analysis, err := a.Analyze(text)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}

	if analysis.HeaderCount != 2 {
		t.Errorf("HeaderCount = %d, want 2", analysis.HeaderCount)
	}
	if analysis.CodeBlockCount != 1 {
		t.Errorf("CodeBlockCount = %d, want 1", analysis.CodeBlockCount)
	}
	if analysis.ListCount != 1 {
		t.Errorf("ListCount = %d, want 1", analysis.ListCount)
	}
	if analysis.MaxHeaderDepth != 2 {
		t.Errorf("MaxHeaderDepth = %d, want 2", analysis.MaxHeaderDepth)
	}
}

func TestAnalyzeRejectsInvalidUTF8(t *testing.T) {
	invalid := string([]byte{0xff, 0xfe, 0x00})
	a := NewAnalyzer(false)
	if _, err := a.Analyze(invalid); err != ErrInvalidEncoding {
		t.Fatalf("err = %v, want ErrInvalidEncoding", err)
	}
}

func TestClassifyContentType(t *testing.T) {
	tests := []struct {
		name string
		a    ContentAnalysis
		want ContentType
	}{
		{"code heavy", ContentAnalysis{CodeRatio: 0.8}, ContentCodeHeavy},
		{"list heavy", ContentAnalysis{ListRatio: 0.7, CodeRatio: 0.1}, ContentListHeavy},
		{"primary text", ContentAnalysis{TextRatio: 0.9}, ContentPrimary},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyContentType(tt.a)
			if got != tt.want {
				t.Errorf("classifyContentType() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractPreambleBlock(t *testing.T) {
	text := "This is a preamble paragraph that is long enough to count.\n\n# First Header\n\nbody"
	a := NewAnalyzer(true)
	analysis, err := a.Analyze(text)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if analysis.Preamble == nil {
		t.Fatal("expected a non-nil preamble")
	}
	if analysis.Preamble.EndLine >= analysis.Headers[0].Line {
		t.Errorf("preamble should end before the first header, got EndLine=%d headerLine=%d",
			analysis.Preamble.EndLine, analysis.Headers[0].Line)
	}
}

func TestAnalyzeEmptyDocument(t *testing.T) {
	a := NewAnalyzer(false)
	analysis, err := a.Analyze("")
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if analysis.TotalChars != 0 {
		t.Errorf("TotalChars = %d, want 0", analysis.TotalChars)
	}
}
