package chunking

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// HierarchyBuilder assembles a tree over a flat chunk slice by following
// each chunk's header_path metadata, per spec.md §4.5: one synthetic
// section node per distinct header-path prefix, a single synthetic root,
// and the original chunks as leaves. Chunks with no header_path (produced
// by the code_aware or sentences strategies) attach directly to the root.
type HierarchyBuilder struct{}

// NewHierarchyBuilder constructs a HierarchyBuilder.
func NewHierarchyBuilder() *HierarchyBuilder { return &HierarchyBuilder{} }

// Build returns the Nodes map and RootID for chunks, and the same chunks
// with their hierarchy metadata fields populated in place (a new slice is
// returned; the input is not mutated). text is the original (normalized)
// document, used only to derive the synthetic root chunk's title/summary
// per spec.md §4.5 step 2.
func (b *HierarchyBuilder) Build(chunks []Chunk, analysis ContentAnalysis, text string) (map[string]HierarchyNode, string, []Chunk) {
	nodes := make(map[string]HierarchyNode)
	rootID := uuid.New().String()
	nodes[rootID] = HierarchyNode{
		ID:     rootID,
		Level:  0,
		IsRoot: true,
		IsLeaf: false,
		Chunk:  newRootSummaryChunk(analysis, text),
	}

	// sectionIDs maps a "A > B > C" path prefix to the section node ID that
	// represents it, so repeated prefixes across chunks reuse one node.
	sectionIDs := make(map[string]string)

	out := make([]Chunk, len(chunks))
	for i, c := range chunks {
		leaf := c.clone()
		parentID := rootID

		if path := c.Metadata[MetaHeaderPath]; path != "" {
			parts := strings.Split(path, " > ")
			prefix := ""
			for level, part := range parts {
				if prefix == "" {
					prefix = part
				} else {
					prefix = prefix + " > " + part
				}
				id, ok := sectionIDs[prefix]
				if !ok {
					id = uuid.New().String()
					sectionIDs[prefix] = id
					node := HierarchyNode{
						ID:       id,
						ParentID: parentID,
						Level:    level + 1,
						IsLeaf:   false,
						Chunk:    newSectionSummaryChunk(part, level+1),
					}
					nodes[id] = node
					appendChild(nodes, parentID, id)
				}
				parentID = id
			}
		}

		leafID := uuid.New().String()
		leafLevel := nodes[parentID].Level + 1
		leaf.Metadata[MetaChunkID] = leafID
		leaf.Metadata[MetaParentID] = parentID
		leaf.Metadata[MetaHierarchyLevel] = strconv.Itoa(leafLevel)
		leaf.Metadata[MetaIsRoot] = "false"
		leaf.Metadata[MetaIsLeaf] = "true"

		nodes[leafID] = HierarchyNode{
			ID:       leafID,
			ParentID: parentID,
			Level:    leafLevel,
			IsLeaf:   true,
			Chunk:    leaf,
		}
		appendChild(nodes, parentID, leafID)
		out[i] = leaf
	}

	b.linkSiblings(nodes, rootID)
	for id, n := range nodes {
		if n.IsLeaf {
			continue
		}
		n.Chunk.Metadata[MetaChunkID] = id
		n.Chunk.Metadata[MetaParentID] = n.ParentID
		n.Chunk.Metadata[MetaHierarchyLevel] = strconv.Itoa(n.Level)
		n.Chunk.Metadata[MetaIsRoot] = strconv.FormatBool(n.IsRoot)
		n.Chunk.Metadata[MetaIsLeaf] = "false"
		n.Chunk.Metadata[MetaChildrenIDs] = strings.Join(n.ChildIDs, ",")
		nodes[id] = n
	}

	// Copy the prev/next sibling ids set by linkSiblings onto the chunks of
	// the returned flat chunk slice.
	for i, c := range out {
		id := c.Metadata[MetaChunkID]
		if n, ok := nodes[id]; ok {
			c.Metadata[MetaPrevSiblingID] = n.prevSibling
			c.Metadata[MetaNextSiblingID] = n.nextSibling
			out[i] = c
		}
	}

	return nodes, rootID, out
}

func appendChild(nodes map[string]HierarchyNode, parentID, childID string) {
	parent := nodes[parentID]
	parent.ChildIDs = append(parent.ChildIDs, childID)
	nodes[parentID] = parent
}

// linkSiblings walks every node's ChildIDs in insertion order and records
// each child's previous/next sibling ID as node annotations used only
// internally by Build (not part of the exported HierarchyNode shape, since
// adjacency is a leaf-metadata concern per spec.md §6 rather than a tree
// concern).
func (b *HierarchyBuilder) linkSiblings(nodes map[string]HierarchyNode, _ string) {
	for _, n := range nodes {
		for i, childID := range n.ChildIDs {
			child := nodes[childID]
			if i > 0 {
				child.prevSibling = n.ChildIDs[i-1]
			}
			if i+1 < len(n.ChildIDs) {
				child.nextSibling = n.ChildIDs[i+1]
			}
			nodes[childID] = child
		}
	}
}

// newRootSummaryChunk builds the synthetic root node's chunk, per spec.md
// §4.5 step 2: title is the first H1 if any, content is the first 200
// chars of the document (a generated summary substitute).
func newRootSummaryChunk(analysis ContentAnalysis, text string) Chunk {
	title := ""
	for _, h := range analysis.Headers {
		if h.Level == 1 {
			title = h.Text
			break
		}
	}

	content := text
	if r := []rune(content); len(r) > 200 {
		content = string(r[:200])
	}

	meta := map[string]string{MetaContentType: ContentTypeRootSummary}
	if title != "" {
		meta[MetaSectionTitle] = title
	}
	return Chunk{
		Content:   content,
		StartLine: 1,
		EndLine:   analysis.TotalLines,
		Metadata:  meta,
	}
}

func newSectionSummaryChunk(title string, level int) Chunk {
	return Chunk{
		Content: title,
		Metadata: map[string]string{
			MetaContentType:    ContentTypeRootSummary,
			MetaHierarchyLevel: strconv.Itoa(level),
			MetaSectionTitle:   title,
		},
	}
}
