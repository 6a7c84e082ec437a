package image

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	httputil "github.com/jmylchreest/swatch/internal/util/http"
)

// DefaultMaxSourceBytes bounds how much is read from a file or URL.
const DefaultMaxSourceBytes int64 = 32 << 20

// Loader reads raw image bytes from a source.
type Loader interface {
	// Load returns the encoded image bytes found at source.
	Load(ctx context.Context, source string) ([]byte, error)
}

// SmartLoader loads image bytes from both local files and HTTP(S) URLs.
type SmartLoader struct {
	// MaxBytes bounds the size of the encoded image. Zero means DefaultMaxSourceBytes.
	MaxBytes int64
	// Fetch options used for URLs.
	FetchOptions httputil.FetchOptions
}

// NewSmartLoader creates a new SmartLoader instance.
func NewSmartLoader() *SmartLoader {
	return &SmartLoader{MaxBytes: DefaultMaxSourceBytes}
}

// IsURL checks if a source is an HTTP(S) URL.
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Load loads image bytes from either a local file path or HTTP(S) URL.
func (l *SmartLoader) Load(ctx context.Context, source string) ([]byte, error) {
	if source == "" {
		return nil, fmt.Errorf("image path cannot be empty")
	}

	limit := l.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxSourceBytes
	}

	if IsURL(source) {
		opts := l.FetchOptions
		opts.MaxBytes = limit
		data, err := httputil.Fetch(ctx, source, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch image from URL: %w", err)
		}
		return data, nil
	}

	return loadFile(source, limit)
}

// loadFile reads a local image file, refusing directories and oversized files.
func loadFile(path string, limit int64) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("image file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to stat image file: %w", err)
	}

	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}
	if info.Size() > limit {
		return nil, fmt.Errorf("image file too large: %d bytes (maximum: %d)", info.Size(), limit)
	}

	file, err := os.Open(path) // #nosec G304 - User-specified image path, intended to be read
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}
	return data, nil
}

// SupportedImageExtensions returns a list of supported image file extensions.
func SupportedImageExtensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".tif", ".tiff"}
}

// HasImageExtension checks if a path has a supported image extension.
func HasImageExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return slices.Contains(SupportedImageExtensions(), ext)
}
