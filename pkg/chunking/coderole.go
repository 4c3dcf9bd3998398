package chunking

import (
	"strings"
)

// CodeRole classifies the relationship between a fenced code block and the
// prose around it, per spec.md §4.2.1's role decision table.
type CodeRole string

// Recognized code roles, per spec.md §4.2.1.
const (
	CodeRoleExample CodeRole = "example"
	CodeRoleSetup   CodeRole = "setup"
	CodeRoleOutput  CodeRole = "output"
	CodeRoleError   CodeRole = "error"
	CodeRoleBefore  CodeRole = "before"
	CodeRoleAfter   CodeRole = "after"
	CodeRoleUnknown CodeRole = "unknown"
)

// CodeRelationship describes how a group of adjacent code blocks relate to
// one another, per spec.md §4.2.1.
type CodeRelationship string

// Recognized code relationships, per spec.md §4.2.1.
const (
	CodeRelSequential CodeRelationship = "sequential"
	CodeRelBeforeAfter CodeRelationship = "before_after"
	CodeRelCodeOutput  CodeRelationship = "code_output"
	CodeRelRelated     CodeRelationship = "related"
)

// languageRoleHints maps a fence's language tag to the role it implies; a
// match here takes precedence over the keyword window, per spec.md §4.2.1: "output|
// console|stdout|result -> output" and "error|traceback -> error".
var languageRoleHints = map[string]CodeRole{
	"output": CodeRoleOutput, "console": CodeRoleOutput, "stdout": CodeRoleOutput,
	"result": CodeRoleOutput, "shell-session": CodeRoleOutput, "text": CodeRoleOutput,
	"error": CodeRoleError, "traceback": CodeRoleError, "stacktrace": CodeRoleError,
}

// keywordRoleHints is the keyword window scanned in the text immediately
// preceding a block, per spec.md §4.2.1 / SPEC_FULL.md §4.9's decision
// table: "install"/"setup" -> setup, "output"/"result" -> output,
// "before"/"after" -> before/after. Checked in this order, first match wins.
var keywordRoleHints = []struct {
	keyword string
	role    CodeRole
}{
	{"install", CodeRoleSetup}, {"setup", CodeRoleSetup}, {"configure", CodeRoleSetup},
	{"output", CodeRoleOutput}, {"result", CodeRoleOutput}, {"returns", CodeRoleOutput},
	{"before", CodeRoleBefore},
	{"after", CodeRoleAfter},
}

// codeBlockRole is a FencedBlock paired with the role and relationship data
// bound to it by bindCodeContext.
type codeBlockRole struct {
	Block          FencedBlock
	Role           CodeRole
	ExplainBefore  string
	ExplainAfter   string
	GroupIndex     int // blocks within RelatedBlockMaxGap lines share a GroupIndex
}

// bindCodeContext implements SPEC_FULL.md §4.9: for each fenced block,
// assign a CodeRole and capture the prose immediately before/after it
// (bounded to maxContextChars, cfg.MaxContextChars at the call site, per
// spec.md §4.2.1's max_context_chars_before/after), then group blocks that
// sit within cfg.RelatedBlockMaxGap lines of one another so the
// code-aware strategy can keep them in the same chunk.
func bindCodeContext(blocks []FencedBlock, lines []string, maxGapLines, maxContextChars int) []codeBlockRole {
	roles := make([]codeBlockRole, len(blocks))

	group := 0
	for i, b := range blocks {
		before := precedingText(lines, b.StartLine, maxContextChars)
		after := followingText(lines, b.EndLine, maxContextChars)

		role := classifyCodeRole(b.Language, before, after)

		if i > 0 {
			gap := b.StartLine - blocks[i-1].EndLine - 1
			if gap > maxGapLines {
				group++
			}
		}

		roles[i] = codeBlockRole{
			Block:         b,
			Role:          role,
			ExplainBefore: before,
			ExplainAfter:  after,
			GroupIndex:    group,
		}
	}
	return roles
}

// classifyCodeRole implements spec.md §4.2.1's priority order: the block's
// own language tag first, then the keyword window immediately preceding it,
// then CodeRoleExample as the default (spec.md: "default example").
func classifyCodeRole(language, before, after string) CodeRole {
	if hint, ok := languageRoleHints[strings.ToLower(language)]; ok {
		return hint
	}

	beforeLower := strings.ToLower(before)
	for _, hint := range keywordRoleHints {
		if strings.Contains(beforeLower, hint.keyword) {
			return hint.role
		}
	}

	return CodeRoleExample
}

// classifyCodeRelationship implements spec.md §4.2.1's grouping rule for a
// group of >=2 code blocks: same-language adjacency is "sequential", a
// before/after pair is "before_after", an example followed by an output
// block is "code_output", and anything else that still grouped (by gap) is
// "related".
func classifyCodeRelationship(group []codeBlockRole) CodeRelationship {
	if len(group) < 2 {
		return ""
	}
	hasBefore, hasAfter := false, false
	sameLang := true
	firstLang := group[0].Block.Language
	for i, g := range group {
		if g.Role == CodeRoleBefore {
			hasBefore = true
		}
		if g.Role == CodeRoleAfter {
			hasAfter = true
		}
		if g.Block.Language != firstLang {
			sameLang = false
		}
		if i > 0 && group[i-1].Role != CodeRoleOutput && g.Role == CodeRoleOutput {
			return CodeRelCodeOutput
		}
	}
	if hasBefore && hasAfter {
		return CodeRelBeforeAfter
	}
	if sameLang {
		return CodeRelSequential
	}
	return CodeRelRelated
}

// precedingText returns up to maxChars of the non-blank text immediately
// before startLine (1-based, exclusive), trimmed. Lines are collected walking
// backwards but accumulated into collected in that (reverse) order and then
// reversed as whole lines, so words within each line keep their original
// order.
func precedingText(lines []string, startLine, maxChars int) string {
	var collected []string
	total := 0
	for ln := startLine - 1; ln >= 1 && total < maxChars; ln-- {
		line := lines[ln-1]
		if strings.TrimSpace(line) == "" && total > 0 {
			break
		}
		collected = append(collected, line)
		total += len(line) + 1
	}
	for i, j := 0, len(collected)-1; i < j; i, j = i+1, j-1 {
		collected[i], collected[j] = collected[j], collected[i]
	}
	return strings.TrimSpace(strings.Join(collected, " "))
}

// followingText returns up to maxChars of the non-blank text immediately
// after endLine (1-based, exclusive), trimmed.
func followingText(lines []string, endLine, maxChars int) string {
	var sb strings.Builder
	for ln := endLine + 1; ln <= len(lines) && sb.Len() < maxChars; ln++ {
		line := lines[ln-1]
		if strings.TrimSpace(line) == "" && sb.Len() > 0 {
			break
		}
		sb.WriteString(line)
		sb.WriteByte(' ')
	}
	return strings.TrimSpace(sb.String())
}
