package chunking

import (
	"strconv"
	"strings"
)

// fenceOpen tracks one currently-open fence on the scanner's stack.
type fenceOpen struct {
	startLine int
	char      byte
	length    int
	lang      string
	indent    int
	block     *FencedBlock
}

// fenceScanner implements the fence-extraction algorithm of spec.md §4.1
// step 1 as a single left-to-right line scan maintaining a stack of open
// fences. It is deliberately independent of goldmark: goldmark's block
// parser enforces the same "closing fence needs length >= opening fence,
// same character" rule internally, but does not expose nesting level,
// closed-at-EOF state, or inner-fence records as data (see DESIGN.md).
//
// The scanner is resumable: StreamingChunker carries a fenceScanner's stack
// across buffer windows so an open fence is never mistaken for a closed one
// just because a window boundary fell inside it.
type fenceScanner struct {
	stack    []fenceOpen
	outer    []FencedBlock
	warnings []string
}

func newFenceScanner() *fenceScanner {
	return &fenceScanner{}
}

// inFence reports whether line is currently inside any open fence (used by
// StreamingChunker so that a window is never split inside a fence).
func (s *fenceScanner) inFence() bool { return len(s.stack) > 0 }

// feedLine processes one line (without its trailing newline), at the given
// 1-based absolute line number.
func (s *fenceScanner) feedLine(line string, lineNo int) {
	trimmed, indent := trimFenceIndent(line)

	if len(s.stack) > 0 {
		top := &s.stack[len(s.stack)-1]
		if isCloseFence(trimmed, top.char, top.length) {
			top.block.EndLine = lineNo
			top.block.Closed = true
			top.block.Content = joinContentLines(top.block, line, lineNo)
			s.closeTop()
			for i := range s.stack {
				s.stack[i].block.Content = appendLine(s.stack[i].block.Content, line)
			}
			return
		}
	}

	if char, length, lang, ok := openFenceCandidate(trimmed); ok {
		for i := range s.stack {
			s.stack[i].block.Content = appendLine(s.stack[i].block.Content, line)
		}
		blk := &FencedBlock{
			StartLine:   lineNo,
			FenceChar:   char,
			FenceLength: length,
			Language:    lang,
			Nesting:     len(s.stack),
		}
		s.stack = append(s.stack, fenceOpen{
			startLine: lineNo,
			char:      char,
			length:    length,
			lang:      lang,
			indent:    indent,
			block:     blk,
		})
		return
	}

	// Ordinary line: if we're inside a fence, accumulate it as content of
	// every currently-open block (each open block's content is the full
	// text between its own fences, including any nested fence spans).
	for i := range s.stack {
		s.stack[i].block.Content = appendLine(s.stack[i].block.Content, line)
	}
}

// closeTop pops the innermost open fence and attaches it either to the
// next-outer open fence (as an InnerBlock) or to the scanner's outer list.
func (s *fenceScanner) closeTop() {
	n := len(s.stack)
	closed := *s.stack[n-1].block
	s.stack = s.stack[:n-1]
	if len(s.stack) == 0 {
		s.outer = append(s.outer, closed)
		return
	}
	parent := s.stack[len(s.stack)-1].block
	parent.InnerBlocks = append(parent.InnerBlocks, closed)
}

// finish closes out any still-open fences at EOF, marking them
// closed-at-EOF per spec.md §4.1 step 1, and returns the outer (nesting
// level 0) blocks plus any warnings.
func (s *fenceScanner) finish(lastLine int) ([]FencedBlock, []string) {
	for len(s.stack) > 0 {
		n := len(s.stack)
		top := s.stack[n-1]
		top.block.EndLine = lastLine
		top.block.Closed = false
		s.warnings = append(s.warnings, "unclosed fence starting at line "+strconv.Itoa(top.startLine))
		s.stack = s.stack[:n-1]
		if len(s.stack) == 0 {
			s.outer = append(s.outer, *top.block)
		} else {
			parent := s.stack[len(s.stack)-1].block
			parent.InnerBlocks = append(parent.InnerBlocks, *top.block)
		}
	}
	return s.outer, s.warnings
}

// extractFencedBlocks runs the fence scanner over a full, already-split
// slice of lines (1-based line numbers implied by index+1) and returns the
// outer blocks plus any warnings.
func extractFencedBlocks(lines []string) ([]FencedBlock, []string) {
	s := newFenceScanner()
	for i, line := range lines {
		s.feedLine(line, i+1)
	}
	return s.finish(len(lines))
}

// trimFenceIndent strips at most 3 leading spaces, per CommonMark's fence
// indentation allowance, and returns the stripped indent count.
func trimFenceIndent(line string) (string, int) {
	indent := 0
	for indent < len(line) && indent < 3 && line[indent] == ' ' {
		indent++
	}
	return line[indent:], indent
}

// openFenceCandidate reports whether trimmed is an opening fence line: at
// least 3 of the same fence character, optionally followed by an info
// string. Backtick info strings may not contain backticks.
func openFenceCandidate(trimmed string) (char byte, length int, lang string, ok bool) {
	if trimmed == "" {
		return 0, 0, "", false
	}
	c := trimmed[0]
	if c != '`' && c != '~' {
		return 0, 0, "", false
	}
	n := 0
	for n < len(trimmed) && trimmed[n] == c {
		n++
	}
	if n < 3 {
		return 0, 0, "", false
	}
	info := strings.TrimSpace(trimmed[n:])
	if c == '`' && strings.ContainsRune(info, '`') {
		return 0, 0, "", false
	}
	lang = firstField(info)
	return c, n, lang, true
}

// isCloseFence reports whether trimmed is a bare fence (no info string)
// whose character matches openChar and whose run length is >= openLength.
func isCloseFence(trimmed string, openChar byte, openLength int) bool {
	if trimmed == "" || trimmed[0] != openChar {
		return false
	}
	n := 0
	for n < len(trimmed) && trimmed[n] == openChar {
		n++
	}
	if n < openLength {
		return false
	}
	return strings.TrimSpace(trimmed[n:]) == ""
}

func firstField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func appendLine(content, line string) string {
	if content == "" {
		return line
	}
	return content + "\n" + line
}

// joinContentLines is a no-op placeholder kept for readability at the call
// site: the closing fence line itself is never part of Content (spec.md
// §3: content is "between fences exclusive of fence lines").
func joinContentLines(block *FencedBlock, _ string, _ int) string {
	return block.Content
}

