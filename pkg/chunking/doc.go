// Package chunking splits Markdown documents into semantically coherent
// chunks for retrieval-augmented generation, vector indexing, and LLM
// context windows.
//
// The pipeline is: an Analyzer extracts structural facts from the document
// (fenced code blocks, headers, tables, lists, content ratios); a Selector
// picks a Strategy based on those facts and a ChunkConfig; the Strategy
// produces an ordered list of Chunks; an OverlapManager and a
// MetadataEnricher enrich those chunks; an optional HierarchyBuilder turns
// them into a navigable tree; and a CompletenessValidator sanity-checks the
// result. A StreamingChunker runs the same pipeline over bounded windows of
// an arbitrarily large input.
//
// Given the same input and ChunkConfig, Chunker.Chunk returns byte-identical
// chunks and metadata; ChunkingResult.ProcessingTime and the random UUIDs
// that HierarchyBuilder assigns as chunk ids differ from run to run. Nothing
// in the package holds mutable shared state beyond a constructed Chunker's
// own fields and the logger package's singleton.
package chunking
