package chunking

import (
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/yuin/goldmark/extension"
)

// elementDetector walks a goldmark AST to collect headers, tables, and
// lists from the non-fenced portions of a document, in the non-recursive
// stack-traversal style of the teacher's buildDocumentTree/walkFrame.
// Fenced code blocks are left to fenceScanner (see fenced.go): goldmark
// already treats their content as opaque, so nothing here ever misreads
// code as a header/table/list.
type elementDetector struct {
	md     goldmark.Markdown
	source []byte
	offsets lineOffsets
}

func newElementDetector(source []byte) *elementDetector {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Table,
			extension.TaskList,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)
	return &elementDetector{md: md, source: source, offsets: newLineOffsets(source)}
}

// walkFrame mirrors the teacher's non-recursive traversal frame.
type elementWalkFrame struct {
	node     ast.Node
	entering bool
}

// detect parses the source and returns headers, tables, and lists in
// document order.
func (d *elementDetector) detect() ([]Header, []TableBlock, []List) {
	reader := text.NewReader(d.source)
	doc := d.md.Parser().Parse(reader)

	var headers []Header
	var tables []TableBlock
	var lists []List

	stack := []elementWalkFrame{{node: doc, entering: true}}
	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !frame.entering || isInlineKind(frame.node.Kind()) {
			continue
		}

		switch n := frame.node.(type) {
		case *ast.Heading:
			headers = append(headers, d.extractHeader(n))
		case *east.Table:
			tables = append(tables, d.extractTable(n))
		case *ast.List:
			lists = append(lists, d.extractList(n, 0))
			// Children of a List we've already flattened ourselves; don't
			// descend into them again via the generic walk below.
			continue
		}

		if frame.node.HasChildren() {
			child := frame.node.LastChild()
			for child != nil {
				stack = append(stack, elementWalkFrame{node: child, entering: true})
				child = child.PreviousSibling()
			}
		}
	}

	sort.Slice(headers, func(i, j int) bool { return headers[i].Line < headers[j].Line })
	sort.Slice(tables, func(i, j int) bool { return tables[i].StartLine < tables[j].StartLine })
	sort.Slice(lists, func(i, j int) bool { return lists[i].StartLine < lists[j].StartLine })
	return headers, tables, lists
}

func isInlineKind(k ast.NodeKind) bool {
	switch k {
	case ast.KindText, ast.KindEmphasis, ast.KindLink, ast.KindImage,
		ast.KindCodeSpan, ast.KindAutoLink:
		return true
	default:
		return false
	}
}

func (d *elementDetector) extractHeader(n *ast.Heading) Header {
	line := d.lineOf(n)
	title := extractPlainText(n, d.source)
	return Header{
		Level:     n.Level,
		Text:      title,
		Line:      line,
		SectionID: slugify(title),
	}
}

func (d *elementDetector) extractTable(n *east.Table) TableBlock {
	start, end := d.lineRange(n)
	alignments := make([]Alignment, 0, len(n.Alignments))
	for _, a := range n.Alignments {
		alignments = append(alignments, convertAlignment(a))
	}
	rowCount := 0
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if _, ok := child.(*east.TableRow); ok {
			rowCount++
		}
	}
	return TableBlock{
		StartLine:   start,
		EndLine:     end,
		ColumnCount: len(alignments),
		Alignments:  alignments,
		RowCount:    rowCount,
	}
}

func convertAlignment(a east.Alignment) Alignment {
	switch a {
	case east.AlignLeft:
		return AlignLeft
	case east.AlignRight:
		return AlignRight
	case east.AlignCenter:
		return AlignCenter
	default:
		return AlignNone
	}
}

func (d *elementDetector) extractList(n *ast.List, nesting int) List {
	lt := ListUnordered
	if n.IsOrdered() {
		lt = ListOrdered
	}

	start, end := d.lineRange(n)
	var items []ListItem
	maxNesting := nesting
	isTask := false

	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		li, ok := child.(*ast.ListItem)
		if !ok {
			continue
		}
		itemLine := d.lineOf(li)
		checked, hasCheckbox := findTaskCheckbox(li)
		if hasCheckbox {
			isTask = true
		}
		items = append(items, ListItem{
			Line:    itemLine,
			Nesting: nesting,
			IsTask:  hasCheckbox,
			Checked: checked,
			Content: extractPlainText(li, d.source),
		})

		// Nested lists become children at nesting+1; their items are
		// flattened into the same List.Items slice, matching spec.md §3's
		// "nested lists are attached as children" via the MaxNesting field
		// rather than a separate tree type (HierarchyBuilder is where real
		// parent/child trees live).
		for gc := li.FirstChild(); gc != nil; gc = gc.NextSibling() {
			if nested, ok := gc.(*ast.List); ok {
				child := d.extractList(nested, nesting+1)
				items = append(items, child.Items...)
				if child.MaxNesting > maxNesting {
					maxNesting = child.MaxNesting
				}
			}
		}
	}

	if isTask {
		lt = ListTask
	}

	return List{
		Type:       lt,
		StartLine:  start,
		EndLine:    end,
		Items:      items,
		ItemCount:  len(items),
		MaxNesting: maxNesting,
	}
}

func findTaskCheckbox(n ast.Node) (checked bool, found bool) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if box, ok := c.(*east.TaskCheckBox); ok {
			return box.IsChecked, true
		}
		if checked, found = findTaskCheckbox(c); found {
			return checked, found
		}
	}
	return false, false
}

// extractPlainText concatenates the text segments under n, trimmed.
func extractPlainText(n ast.Node, source []byte) string {
	var sb strings.Builder
	var walk func(ast.Node)
	walk = func(node ast.Node) {
		if t, ok := node.(*ast.Text); ok {
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
		}
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}

// lineRange returns the 1-based [start,end] line numbers a block node
// spans, using its Lines() segments when available.
func (d *elementDetector) lineRange(n ast.Node) (int, int) {
	type liner interface{ Lines() *text.Segments }
	if ln, ok := n.(liner); ok {
		segs := ln.Lines()
		if segs.Len() > 0 {
			start := d.offsets.lineAt(segs.At(0).Start)
			end := d.offsets.lineAt(segs.At(segs.Len() - 1).Stop - 1)
			return start, end
		}
	}
	// Fall back to scanning children for their combined range.
	minLine, maxLine := -1, -1
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		s, e := d.lineRange(c)
		if s < 0 {
			continue
		}
		if minLine < 0 || s < minLine {
			minLine = s
		}
		if e > maxLine {
			maxLine = e
		}
	}
	if minLine < 0 {
		return 1, 1
	}
	return minLine, maxLine
}

func (d *elementDetector) lineOf(n ast.Node) int {
	start, _ := d.lineRange(n)
	return start
}

// lineOffsets maps byte offsets into a document to 1-based line numbers.
type lineOffsets struct {
	starts []int // byte offset each line (0-based index) starts at
}

func newLineOffsets(source []byte) lineOffsets {
	starts := []int{0}
	for i, b := range source {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return lineOffsets{starts: starts}
}

// lineAt converts a byte offset to a 1-based line number.
func (o lineOffsets) lineAt(offset int) int {
	if offset < 0 {
		offset = 0
	}
	i := sort.Search(len(o.starts), func(i int) bool { return o.starts[i] > offset })
	return i // sort.Search returns the count of starts <= offset, i.e. the 1-based line index
}

// slugify derives a URL-safe section id from header text, the same
// normalization goldmark's parser.WithAutoHeadingID performs.
func slugify(text string) string {
	var sb strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastDash = false
		case r == ' ' || r == '-' || r == '_':
			if !lastDash && sb.Len() > 0 {
				sb.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(sb.String(), "-")
}
