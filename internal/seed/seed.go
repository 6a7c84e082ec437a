// Package seed resolves the random seed used for sampling and k-means initialisation.
package seed

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/jmylchreest/swatch/internal/colour"
)

// Mode determines how the seed is chosen.
type Mode string

const (
	// ModeManual uses the configured seed value (default, deterministic).
	ModeManual Mode = "manual"
	// ModeContent derives the seed from the image bytes (deterministic by content).
	ModeContent Mode = "content"
	// ModeRandom uses a non-deterministic seed (varies each run).
	ModeRandom Mode = "random"
)

// Config holds configuration for seed generation.
type Config struct {
	Mode  Mode  `yaml:"mode"`
	Value int64 `yaml:"value"` // Only used when Mode is ModeManual
}

// DefaultConfig returns the default seed configuration: manual mode with the
// quantizer's default seed.
func DefaultConfig() Config {
	return Config{Mode: ModeManual, Value: colour.DefaultSeed}
}

// Calculate determines the seed for a request carrying data.
func Calculate(data []byte, config Config) (int64, error) {
	switch config.Mode {
	case ModeManual, "":
		return config.Value, nil
	case ModeContent:
		if len(data) == 0 {
			return 0, fmt.Errorf("image data is required for content-based seed mode")
		}
		return ContentSeed(data), nil
	case ModeRandom:
		return RandomSeed(), nil
	default:
		return 0, fmt.Errorf("unknown seed mode: %s", config.Mode)
	}
}

// ContentSeed hashes data into a seed, so identical uploads cluster identically.
func ContentSeed(data []byte) int64 {
	hash := sha256.Sum256(data)
	return int64(binary.LittleEndian.Uint64(hash[:8])) // #nosec G115 -- hash conversion is safe
}

// RandomSeed generates a non-deterministic seed.
func RandomSeed() int64 {
	return rand.Int64() // #nosec G404 -- seed does not need crypto randomness
}

// ValidModes returns a list of valid seed modes.
func ValidModes() []Mode {
	return []Mode{ModeManual, ModeContent, ModeRandom}
}

// ParseMode converts a string to a Mode.
// Returns an error if the string is not a valid mode.
func ParseMode(s string) (Mode, error) {
	mode := Mode(s)
	if slices.Contains(ValidModes(), mode) {
		return mode, nil
	}
	return "", fmt.Errorf("invalid seed mode: %s (valid: manual, content, random)", s)
}
