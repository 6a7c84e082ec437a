// Package summary runs the palette pipeline: decode, filter, sample, cluster, rank.
package summary

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/swatch/internal/colour"
	"github.com/jmylchreest/swatch/internal/image"
	"github.com/jmylchreest/swatch/internal/seed"
)

var (
	// ErrEmptyInput is returned when no image bytes were supplied.
	ErrEmptyInput = image.ErrEmptyInput

	// ErrInvalidImage is returned when the bytes cannot be decoded as a raster image.
	ErrInvalidImage = image.ErrInvalidImage

	// ErrImageTooLarge is returned when the image declares more pixels than Config.MaxPixels.
	ErrImageTooLarge = image.ErrImageTooLarge
)

const (
	// DefaultK is the palette size used when none is requested.
	DefaultK = 6

	// DefaultMaxSide is the downscale bound used when none is requested.
	DefaultMaxSide = 512

	// maxK mirrors the extractor's upper bound on colours.
	maxK = 256
)

// Config holds pipeline settings shared by every request.
type Config struct {
	// MaxPixels bounds width*height before decoding. Zero disables the check.
	MaxPixels      int
	SampleCap      int
	MaxIterations  int
	Restarts       int
	ClusterTimeout time.Duration
	Seed           seed.Config
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() Config {
	return Config{
		MaxPixels:     image.DefaultMaxPixels,
		SampleCap:     colour.DefaultSampleCap,
		MaxIterations: colour.DefaultMaxIterations,
		Restarts:      colour.DefaultRestarts,
		Seed:          seed.DefaultConfig(),
	}
}

// Options are the per-request parameters.
type Options struct {
	// K is the requested palette size. Values below 1 are treated as 1.
	K int
	// MaxSide bounds the longest image side before clustering.
	MaxSide int
}

// Stats describes one pipeline run.
type Stats struct {
	Format       string
	SourceWidth  int
	SourceHeight int
	Width        int
	Height       int
	Pixels       int
	Sampled      int
	Distinct     int
	K            int
	Iterations   int
	Converged    bool
	Seed         int64
	Duration     time.Duration
}

// Summary is the ranked palette of an image.
type Summary struct {
	Palette colour.Palette `json:"palette"`
	Stats   Stats          `json:"-"`
}

// Summarizer turns encoded images into palettes. It holds no per-request state
// and is safe for concurrent use.
type Summarizer struct {
	config Config
	logger hclog.Logger
}

// New creates a Summarizer. A nil logger discards output.
func New(config Config, logger hclog.Logger) *Summarizer {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if config.MaxIterations < 1 {
		config.MaxIterations = colour.DefaultMaxIterations
	}
	if config.Restarts < 1 {
		config.Restarts = colour.DefaultRestarts
	}
	return &Summarizer{config: config, logger: logger}
}

// Summarize decodes data and returns its dominant colours.
// It fails with ErrEmptyInput, ErrInvalidImage or ErrImageTooLarge; an image
// with no visible pixels yields an empty palette.
func (s *Summarizer) Summarize(ctx context.Context, data []byte, opts Options) (*Summary, error) {
	start := time.Now()
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}

	seedValue, err := seed.Calculate(data, s.config.Seed)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate seed: %w", err)
	}

	normalized, err := image.Normalize(data, opts.MaxSide, s.config.MaxPixels)
	if err != nil {
		return nil, err
	}

	stats := Stats{
		Format:       normalized.Format,
		SourceWidth:  normalized.SourceWidth,
		SourceHeight: normalized.SourceHeight,
		Width:        normalized.Width,
		Height:       normalized.Height,
		Pixels:       len(normalized.Pixels),
		Seed:         seedValue,
	}

	if len(normalized.Pixels) == 0 {
		stats.Duration = time.Since(start)
		s.logger.Debug("no visible pixels", "format", stats.Format,
			"width", stats.SourceWidth, "height", stats.SourceHeight)
		return &Summary{Palette: colour.Palette{}, Stats: stats}, nil
	}

	extractor, err := colour.NewExtractor(colour.ExtractorConfig{
		Colours:       min(max(opts.K, 1), maxK),
		SampleCap:     s.config.SampleCap,
		MaxIterations: s.config.MaxIterations,
		Restarts:      s.config.Restarts,
		Seed:          seedValue,
		Timeout:       s.config.ClusterTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create extractor: %w", err)
	}

	result := extractor.Extract(ctx, normalized.Pixels)

	stats.Sampled = result.Sampled
	stats.Distinct = result.Distinct
	stats.K = result.K
	stats.Iterations = result.Iterations
	stats.Converged = result.Converged
	stats.Duration = time.Since(start)

	s.logger.Debug("palette extracted",
		"format", stats.Format,
		"source", fmt.Sprintf("%dx%d", stats.SourceWidth, stats.SourceHeight),
		"scaled", fmt.Sprintf("%dx%d", stats.Width, stats.Height),
		"pixels", stats.Pixels,
		"sampled", stats.Sampled,
		"k", stats.K,
		"iterations", stats.Iterations,
		"converged", stats.Converged,
		"duration", stats.Duration,
	)
	if !stats.Converged {
		s.logger.Warn("k-means stopped before convergence", "iterations", stats.Iterations)
	}

	return &Summary{Palette: result.Palette, Stats: stats}, nil
}
