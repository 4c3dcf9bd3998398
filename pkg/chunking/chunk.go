package chunking

import "strings"

// Metadata keys guaranteed or optionally present on a Chunk, per spec.md §6.
const (
	MetaStrategy       = "strategy"
	MetaContentType     = "content_type"
	MetaLanguage        = "language"
	MetaAtomic          = "atomic"
	MetaAllowOversize   = "allow_oversize"
	// MetaHeaderPath stores the section's ancestor titles joined with " > "
	// (e.g. "Guide > Install > Linux") rather than as a [string] array, since
	// Chunk.Metadata is map[string]string and serialization format is
	// unspecified; split on " > " for index-style access to a single level.
	MetaHeaderPath      = "header_path"
	MetaSectionID       = "section_id"
	MetaHasOverlap      = "has_overlap"
	MetaOverlapChars    = "overlap_size_chars"
	MetaOverlapSource   = "overlap_source_chunk_index"
	MetaTouchesBoundary = "touches_boundary"
	MetaChunkID         = "chunk_id"
	MetaParentID        = "parent_id"
	MetaChildrenIDs     = "children_ids"
	MetaPrevSiblingID   = "prev_sibling_id"
	MetaNextSiblingID   = "next_sibling_id"
	MetaHierarchyLevel  = "hierarchy_level"
	MetaIsRoot          = "is_root"
	MetaIsLeaf          = "is_leaf"
	MetaCodeRole        = "code_role"
	MetaCodeRoles       = "code_roles"
	MetaCodeRelation    = "code_relationship"
	MetaExplainBefore   = "explanation_before"
	MetaExplainAfter    = "explanation_after"
	MetaStreamWindow    = "stream_window_index"
	MetaStreamChunkIdx  = "stream_chunk_index"
	MetaBytesProcessed  = "bytes_processed"
	MetaIsPartial       = "is_partial"
	MetaSectionTitle    = "section_title"
)

// Content type values a Chunk's MetaContentType may hold.
const (
	ContentTypeCode        = "code"
	ContentTypeTable       = "table"
	ContentTypeList        = "list"
	ContentTypeText        = "text"
	ContentTypeMixed       = "mixed"
	ContentTypePreamble    = "preamble"
	ContentTypeRootSummary = "root_summary"
)

// Chunk is a non-empty, contiguous span of source text tagged with
// metadata. Chunks are constructed by a Strategy and subsequently enriched
// by the OverlapManager, MetadataEnricher, and optionally the
// HierarchyBuilder; callers should treat a returned Chunk as immutable.
type Chunk struct {
	Content      string
	StartLine    int
	EndLine      int
	Metadata     map[string]string
	QualityScore float64
}

// Size returns the chunk's character count.
func (c Chunk) Size() int { return len([]rune(c.Content)) }

// LineCount returns the number of source lines the chunk spans.
func (c Chunk) LineCount() int { return c.EndLine - c.StartLine + 1 }

// clone returns a deep-enough copy: a new metadata map with the same
// key/value pairs, so enrichment passes never mutate a strategy's original
// chunk slice out from under callers that kept a reference to it.
func (c Chunk) clone() Chunk {
	m := make(map[string]string, len(c.Metadata))
	for k, v := range c.Metadata {
		m[k] = v
	}
	c.Metadata = m
	return c
}

// newChunk builds a Chunk with the mandatory strategy/content_type metadata
// already populated, per spec.md §3's Chunk invariant.
func newChunk(content string, startLine, endLine int, strategy StrategyName, contentType string) Chunk {
	return Chunk{
		Content:   content,
		StartLine: startLine,
		EndLine:   endLine,
		Metadata: map[string]string{
			MetaStrategy:    string(strategy),
			MetaContentType: contentType,
		},
	}
}

// isBlank reports whether s is empty or contains only whitespace.
func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
