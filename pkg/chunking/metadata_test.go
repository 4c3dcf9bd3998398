package chunking

import "testing"

func TestMetadataEnricherTouchesBoundary(t *testing.T) {
	chunks := []Chunk{
		newChunk("first", 1, 5, StrategySentences, ContentTypeText),
		newChunk("shares a boundary line with the previous chunk", 5, 8, StrategyCodeAware, ContentTypeCode),
		newChunk("normal continuation", 9, 12, StrategySentences, ContentTypeText),
	}

	out := NewMetadataEnricher().Enrich(chunks)

	if out[0].Metadata[MetaTouchesBoundary] != "false" {
		t.Errorf("first chunk touches_boundary = %q, want false", out[0].Metadata[MetaTouchesBoundary])
	}
	if out[1].Metadata[MetaTouchesBoundary] != "true" {
		t.Errorf("chunk sharing start_line==prev.end_line touches_boundary = %q, want true", out[1].Metadata[MetaTouchesBoundary])
	}
	if out[2].Metadata[MetaTouchesBoundary] != "false" {
		t.Errorf("normally adjacent chunk touches_boundary = %q, want false", out[2].Metadata[MetaTouchesBoundary])
	}
}
