// Package image provides utilities for loading and normalising images.
package image

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format
	_ "image/jpeg" // Register JPEG format
	_ "image/png"  // Register PNG format
	"math"

	"github.com/anthonynsimon/bild/transform"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"  // Register BMP format
	_ "golang.org/x/image/tiff" // Register TIFF format
	_ "golang.org/x/image/webp" // Register WebP format

	"github.com/jmylchreest/swatch/internal/colour"
)

var (
	// ErrEmptyInput is returned when no image bytes were supplied.
	ErrEmptyInput = errors.New("empty input")

	// ErrInvalidImage is returned when the bytes are not a supported raster image.
	ErrInvalidImage = errors.New("invalid image")

	// ErrImageTooLarge is returned when the declared dimensions exceed the pixel limit.
	ErrImageTooLarge = errors.New("image too large")
)

// DefaultMaxPixels bounds width*height of a decoded image. It matches the
// decompression bomb warning threshold used by Pillow.
const DefaultMaxPixels = 89_478_485

// Normalized is a decoded image reduced to the colours of its visible pixels.
type Normalized struct {
	// Format is the name of the decoder that read the image (png, jpeg, ...).
	Format string
	// SourceWidth and SourceHeight are the decoded dimensions.
	SourceWidth  int
	SourceHeight int
	// Width and Height are the dimensions after downscaling.
	Width  int
	Height int
	// Pixels holds the RGB colour of every pixel with alpha > 0, row by row.
	Pixels []colour.RGB
}

// Normalize decodes data, downscales it so neither side exceeds maxSide, and
// returns the colours of all pixels that are not fully transparent.
// A maxSide of zero or less disables downscaling. Images are never upscaled.
// The header is checked before decoding: images with more than maxPixels
// pixels fail with ErrImageTooLarge. A maxPixels of zero or less disables the check.
func Normalize(data []byte, maxSide, maxPixels int) (*Normalized, error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}
	if maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrImageTooLarge, cfg.Width, cfg.Height, maxPixels)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}

	bounds := img.Bounds()
	n := &Normalized{
		Format:       format,
		SourceWidth:  bounds.Dx(),
		SourceHeight: bounds.Dy(),
	}
	if n.SourceWidth == 0 || n.SourceHeight == 0 {
		n.Pixels = []colour.RGB{}
		return n, nil
	}

	width, height := ScaledSize(n.SourceWidth, n.SourceHeight, maxSide)
	if width != n.SourceWidth || height != n.SourceHeight {
		img = transform.Resize(img, width, height, transform.Lanczos)
	}
	n.Width, n.Height = width, height
	n.Pixels = VisiblePixels(img)

	return n, nil
}

// ScaledSize returns the dimensions after fitting the longest side within maxSide.
// The scale factor is min(1, maxSide/max(width, height)), so sizes never grow.
func ScaledSize(width, height, maxSide int) (int, int) {
	if maxSide <= 0 || width <= 0 || height <= 0 {
		return width, height
	}

	scale := min(1.0, float64(maxSide)/float64(max(width, height)))
	if scale >= 1.0 {
		return width, height
	}

	w := max(1, int(math.Round(float64(width)*scale)))
	h := max(1, int(math.Round(float64(height)*scale)))
	return min(w, width), min(h, height)
}

// VisiblePixels returns the un-premultiplied colour of every pixel whose alpha
// is greater than zero.
func VisiblePixels(img image.Image) []colour.RGB {
	switch src := img.(type) {
	case *image.NRGBA:
		return fromNRGBA(src)
	case *image.RGBA:
		return fromRGBA(src)
	default:
		b := img.Bounds()
		dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		return fromNRGBA(dst)
	}
}

func fromNRGBA(img *image.NRGBA) []colour.RGB {
	b := img.Bounds()
	pixels := make([]colour.RGB, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := img.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x, i = x+1, i+4 {
			if img.Pix[i+3] == 0 {
				continue
			}
			pixels = append(pixels, colour.RGB{R: img.Pix[i], G: img.Pix[i+1], B: img.Pix[i+2]})
		}
	}
	return pixels
}

// fromRGBA un-premultiplies alpha. Resampling can leave a channel above its
// alpha, so channels are clamped to alpha first.
func fromRGBA(img *image.RGBA) []colour.RGB {
	b := img.Bounds()
	pixels := make([]colour.RGB, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := img.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x, i = x+1, i+4 {
			a := img.Pix[i+3]
			switch a {
			case 0:
				continue
			case 0xff:
				pixels = append(pixels, colour.RGB{R: img.Pix[i], G: img.Pix[i+1], B: img.Pix[i+2]})
			default:
				pixels = append(pixels, colour.RGB{
					R: unpremultiply(img.Pix[i], a),
					G: unpremultiply(img.Pix[i+1], a),
					B: unpremultiply(img.Pix[i+2], a),
				})
			}
		}
	}
	return pixels
}

func unpremultiply(c, a uint8) uint8 {
	c = min(c, a)
	return uint8((uint32(c)*0xff + uint32(a)/2) / uint32(a))
}
