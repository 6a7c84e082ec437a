package colour

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// samplerStream separates the sampler's PCG stream from the quantizer's.
const samplerStream = 0x73616d706c65

// ExtractorConfig holds configuration for palette extraction.
type ExtractorConfig struct {
	// Colours is the requested palette size (k).
	Colours int
	// SampleCap bounds the number of pixels clustered. Zero disables sampling.
	SampleCap int
	// MaxIterations caps Lloyd iterations per k-means run.
	MaxIterations int
	// Restarts is the number of k-means runs; the lowest inertia wins.
	Restarts int
	// Seed drives both sampling and centroid initialisation.
	Seed int64
	// Timeout bounds clustering wall-clock time. Zero means no budget.
	Timeout time.Duration
}

// DefaultExtractorConfig returns the default extractor configuration.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		Colours:       6,
		SampleCap:     DefaultSampleCap,
		MaxIterations: DefaultMaxIterations,
		Restarts:      DefaultRestarts,
		Seed:          DefaultSeed,
	}
}

// Validate validates the extractor configuration.
func (c ExtractorConfig) Validate() error {
	if c.Colours < 1 {
		return fmt.Errorf("colour count must be at least 1, got %d", c.Colours)
	}
	if c.Colours > 256 {
		return fmt.Errorf("colour count too large: %d (maximum: 256)", c.Colours)
	}
	if c.SampleCap < 0 {
		return fmt.Errorf("sample cap cannot be negative, got %d", c.SampleCap)
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("max iterations must be at least 1, got %d", c.MaxIterations)
	}
	if c.Restarts < 1 {
		return fmt.Errorf("restarts must be at least 1, got %d", c.Restarts)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative, got %s", c.Timeout)
	}
	return nil
}

// Extraction is the outcome of one extraction with the figures worth logging.
type Extraction struct {
	Palette    Palette
	Pixels     int
	Sampled    int
	Distinct   int
	K          int
	Iterations int
	Converged  bool
	Inertia    float64
}

// Extractor runs sampling, quantisation and ranking over opaque pixel colours.
type Extractor struct {
	config ExtractorConfig
}

// NewExtractor creates an Extractor. Returns an error if the configuration is invalid.
func NewExtractor(config ExtractorConfig) (*Extractor, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid extractor configuration: %w", err)
	}
	return &Extractor{config: config}, nil
}

// Config returns the extractor configuration.
func (e *Extractor) Config() ExtractorConfig {
	return e.config
}

// Extract builds a ranked palette from pixels. No pixels yields an empty palette.
func (e *Extractor) Extract(ctx context.Context, pixels []RGB) Extraction {
	result := Extraction{Palette: Palette{}, Pixels: len(pixels)}
	if len(pixels) == 0 {
		return result
	}

	src := rand.NewPCG(uint64(e.config.Seed), samplerStream) // #nosec G404 -- sampling does not need crypto randomness
	samples := Sample(pixels, e.config.SampleCap, src)
	result.Sampled = len(samples)
	result.Distinct = DistinctCount(samples)

	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}

	q := &Quantizer{
		K:             e.config.Colours,
		MaxIterations: e.config.MaxIterations,
		Restarts:      e.config.Restarts,
		Seed:          e.config.Seed,
	}
	clusters := q.Quantize(ctx, samples)

	result.Palette = Rank(clusters)
	result.K = clusters.K()
	result.Iterations = clusters.Iterations
	result.Converged = clusters.Converged
	result.Inertia = clusters.Inertia
	return result
}
