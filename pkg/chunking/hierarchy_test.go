package chunking

import "testing"

func TestHierarchyBuilderRootSummaryUsesFirstH1AndLeadingText(t *testing.T) {
	text := "# Title Here\n\nsome intro content that the root summary should capture.\n"
	analysis := ContentAnalysis{
		TotalLines: 3,
		Headers:    []Header{{Level: 1, Text: "Title Here", Line: 1}},
	}
	chunks := []Chunk{
		newChunk("some intro content that the root summary should capture.", 3, 3, StrategyStructural, ContentTypeText),
	}
	chunks[0].Metadata[MetaHeaderPath] = "Title Here"

	b := NewHierarchyBuilder()
	nodes, rootID, _ := b.Build(chunks, analysis, text)

	root, ok := nodes[rootID]
	if !ok || !root.IsRoot {
		t.Fatalf("expected a root node, got %+v", root)
	}
	if root.Chunk.Metadata[MetaSectionTitle] != "Title Here" {
		t.Errorf("root section_title = %q, want %q", root.Chunk.Metadata[MetaSectionTitle], "Title Here")
	}
	if root.Chunk.Content == "" {
		t.Error("root chunk content should be populated from the document's leading text")
	}
}

func TestHierarchyBuilderParentChildLinking(t *testing.T) {
	analysis := ContentAnalysis{TotalLines: 6}
	chunks := []Chunk{
		newChunk("section a body", 2, 2, StrategyStructural, ContentTypeText),
		newChunk("section b body", 4, 4, StrategyStructural, ContentTypeText),
	}
	chunks[0].Metadata[MetaHeaderPath] = "Top > A"
	chunks[1].Metadata[MetaHeaderPath] = "Top > B"

	b := NewHierarchyBuilder()
	nodes, rootID, out := b.Build(chunks, analysis, "# Top\n")

	result := HierarchicalChunkingResult{
		ChunkingResult: ChunkingResult{Chunks: out},
		Nodes:          nodes,
		RootID:         rootID,
	}

	// "Top" is the single section node hanging directly off root; it should
	// have two children, "Top > A" and "Top > B", each a sibling of the
	// other and each the sole parent of one leaf.
	root := nodes[rootID]
	if len(root.ChildIDs) != 1 {
		t.Fatalf("root has %d children, want 1 ('Top')", len(root.ChildIDs))
	}
	topID := root.ChildIDs[0]
	topChildren := result.GetChildren(topID)
	if len(topChildren) != 2 {
		t.Fatalf("'Top' section has %d children, want 2", len(topChildren))
	}

	leaves := result.GetLeaves()
	if len(leaves) != 2 {
		t.Errorf("GetLeaves() returned %d chunks, want 2", len(leaves))
	}

	sectionAID := nodes[topID].ChildIDs[0]
	siblings := result.GetSiblings(sectionAID)
	if len(siblings) != 1 {
		t.Errorf("GetSiblings() returned %d, want 1", len(siblings))
	}
}
