package chunking

import (
	"errors"
	"testing"
)

func TestNewChunkConfigDefaults(t *testing.T) {
	cfg, err := NewChunkConfig()
	if err != nil {
		t.Fatalf("NewChunkConfig() error = %v", err)
	}
	if cfg.MaxChunkSize != DefaultMaxChunkSize {
		t.Errorf("MaxChunkSize = %d, want %d", cfg.MaxChunkSize, DefaultMaxChunkSize)
	}
	if cfg.MinChunkSize != DefaultMinChunkSize {
		t.Errorf("MinChunkSize = %d, want %d", cfg.MinChunkSize, DefaultMinChunkSize)
	}
}

func TestNewChunkConfigRejectsInvalidPercentage(t *testing.T) {
	_, err := NewChunkConfig(WithOverlapPercentage(1.5))
	if !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("err = %v, want wrapping ErrConfigInvalid", err)
	}
}

func TestNewChunkConfigRejectsUnknownStrategyOverride(t *testing.T) {
	_, err := NewChunkConfig(WithStrategyOverride("bogus"))
	if !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("err = %v, want wrapping ErrConfigInvalid", err)
	}
}

func TestNewChunkConfigRepairsInvertedMinMax(t *testing.T) {
	cfg, err := NewChunkConfig(WithMaxChunkSize(100), WithMinChunkSize(900))
	if err != nil {
		t.Fatalf("NewChunkConfig() error = %v", err)
	}
	if cfg.MinChunkSize >= cfg.MaxChunkSize {
		t.Errorf("MinChunkSize (%d) should be repaired below MaxChunkSize (%d)", cfg.MinChunkSize, cfg.MaxChunkSize)
	}
}

func TestNewChunkConfigClampsTargetIntoRange(t *testing.T) {
	cfg, err := NewChunkConfig(WithMinChunkSize(100), WithMaxChunkSize(200), WithTargetChunkSize(5000))
	if err != nil {
		t.Fatalf("NewChunkConfig() error = %v", err)
	}
	if cfg.TargetChunkSize != cfg.MaxChunkSize {
		t.Errorf("TargetChunkSize = %d, want clamped to MaxChunkSize %d", cfg.TargetChunkSize, cfg.MaxChunkSize)
	}
}

func TestNewStreamingConfigDefaults(t *testing.T) {
	cfg, err := NewStreamingConfig()
	if err != nil {
		t.Fatalf("NewStreamingConfig() error = %v", err)
	}
	if cfg.BufferSize != DefaultStreamingBufferSize {
		t.Errorf("BufferSize = %d, want %d", cfg.BufferSize, DefaultStreamingBufferSize)
	}
}

func TestNewStreamingConfigRejectsZeroBufferSize(t *testing.T) {
	_, err := NewStreamingConfig(WithBufferSize(0))
	if !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("err = %v, want wrapping ErrConfigInvalid", err)
	}
}

func TestNewStreamingConfigRepairsMaxMemoryBelowBuffer(t *testing.T) {
	cfg, err := NewStreamingConfig(WithBufferSize(1000), WithMaxMemoryBytes(10))
	if err != nil {
		t.Fatalf("NewStreamingConfig() error = %v", err)
	}
	if cfg.MaxMemoryBytes < cfg.BufferSize {
		t.Errorf("MaxMemoryBytes (%d) should be repaired to >= BufferSize (%d)", cfg.MaxMemoryBytes, cfg.BufferSize)
	}
}
