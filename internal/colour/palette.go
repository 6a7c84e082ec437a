// Package colour provides colour quantisation and palette ranking.
package colour

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB represents a colour in RGB format.
type RGB struct {
	R uint8
	G uint8
	B uint8
}

// String returns the RGB colour as a string in the format "rgb(r, g, b)".
func (rgb RGB) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", rgb.R, rgb.G, rgb.B)
}

// Hex returns the RGB colour as an uppercase hex string (e.g., "#1A2B3C").
func (rgb RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", rgb.R, rgb.G, rgb.B)
}

// MarshalJSON encodes the colour as a [r, g, b] array.
func (rgb RGB) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]int{int(rgb.R), int(rgb.G), int(rgb.B)})
}

// UnmarshalJSON decodes a [r, g, b] array.
func (rgb *RGB) UnmarshalJSON(data []byte) error {
	var v [3]int
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("rgb must be a [r, g, b] array: %w", err)
	}
	for i, c := range v {
		if c < 0 || c > 255 {
			return fmt.Errorf("rgb channel %d out of range: %d", i, c)
		}
	}
	*rgb = RGB{R: uint8(v[0]), G: uint8(v[1]), B: uint8(v[2])}
	return nil
}

// ParseHex parses a "#RRGGBB" string (either case) into an RGB colour.
func ParseHex(s string) (RGB, error) {
	if len(s) != 7 || !strings.HasPrefix(s, "#") {
		return RGB{}, fmt.Errorf("invalid hex colour %q: expected #RRGGBB", s)
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid hex colour %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return RGB{R: r, G: g, B: b}, nil
}

// Entry is one ranked palette colour with its share of the sampled pixels.
type Entry struct {
	Hex     string  `json:"hex"`
	RGB     RGB     `json:"rgb"`
	Percent float64 `json:"percent"`
}

// Palette is a list of entries ordered by descending percent.
type Palette []Entry

// Len returns the number of colours in the palette.
func (p Palette) Len() int {
	return len(p)
}

// TotalPercent returns the sum of the (rounded) entry percentages.
func (p Palette) TotalPercent() float64 {
	total := 0.0
	for _, e := range p {
		total += e.Percent
	}
	return total
}

// String returns a human-readable string representation of the palette.
func (p Palette) String() string {
	if len(p) == 0 {
		return "Empty palette"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Palette with %d colours:\n", len(p))
	for i, e := range p {
		fmt.Fprintf(&sb, "  %2d: %s (%s) %6.2f%%\n", i+1, e.Hex, e.RGB.String(), e.Percent)
	}
	return sb.String()
}

// Rank turns a cluster set into a palette. Each cluster's share is the number of
// samples labelled with it divided by the number of samples. Clusters are ordered
// by descending share; equal shares keep cluster index order. Empty clusters are
// dropped.
func Rank(cs ClusterSet) Palette {
	if len(cs.Centers) == 0 || len(cs.Labels) == 0 {
		return Palette{}
	}

	counts := make([]int, len(cs.Centers))
	for _, label := range cs.Labels {
		counts[label]++
	}

	order := make([]int, 0, len(counts))
	for i, n := range counts {
		if n > 0 {
			order = append(order, i)
		}
	}
	// Counts share a denominator, so ordering by count is ordering by percent.
	slices.SortStableFunc(order, func(a, b int) int {
		return counts[b] - counts[a]
	})

	total := float64(len(cs.Labels))
	palette := make(Palette, 0, len(order))
	for _, idx := range order {
		c := cs.Centers[idx]
		palette = append(palette, Entry{
			Hex:     c.Hex(),
			RGB:     c,
			Percent: roundTo(100*float64(counts[idx])/total, 2),
		})
	}
	return palette
}

// roundTo rounds v half away from zero to the given number of decimal places.
func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
