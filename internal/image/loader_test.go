package image

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSmartLoaderFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.png")
	if err := os.WriteFile(path, []byte("png bytes"), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	data, err := NewSmartLoader().Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(data) != "png bytes" {
		t.Errorf("Load() = %q, want %q", data, "png bytes")
	}
}

func TestSmartLoaderFileErrors(t *testing.T) {
	dir := t.TempDir()
	big := filepath.Join(dir, "big.png")
	if err := os.WriteFile(big, make([]byte, 64), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	tests := []struct {
		name    string
		source  string
		wantErr string
	}{
		{name: "empty path", source: "", wantErr: "cannot be empty"},
		{name: "missing file", source: filepath.Join(dir, "missing.png"), wantErr: "not found"},
		{name: "directory", source: dir, wantErr: "is a directory"},
		{name: "too large", source: big, wantErr: "too large"},
	}

	loader := &SmartLoader{MaxBytes: 32}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loader.Load(context.Background(), tt.source)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestSmartLoaderURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("User-Agent"), "swatch/") {
			t.Errorf("unexpected User-Agent %q", r.Header.Get("User-Agent"))
		}
		_, _ = w.Write([]byte("remote bytes"))
	}))
	defer server.Close()

	data, err := NewSmartLoader().Load(context.Background(), server.URL+"/image.png")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(data) != "remote bytes" {
		t.Errorf("Load() = %q, want %q", data, "remote bytes")
	}
}

func TestSmartLoaderURLErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(strings.Repeat("x", 100)))
	}))
	defer server.Close()

	loader := &SmartLoader{MaxBytes: 10}

	if _, err := loader.Load(context.Background(), server.URL+"/missing"); err == nil {
		t.Error("Expected error for 404 response")
	}
	if _, err := loader.Load(context.Background(), server.URL+"/big"); err == nil {
		t.Error("Expected error for oversized response")
	}
}

func TestHasImageExtension(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{path: "wallpaper.jpg", want: true},
		{path: "photo.JPEG", want: true},
		{path: "icon.webp", want: true},
		{path: "scan.tiff", want: true},
		{path: "notes.txt", want: false},
		{path: "noext", want: false},
	}

	for _, tt := range tests {
		if got := HasImageExtension(tt.path); got != tt.want {
			t.Errorf("HasImageExtension(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestIsURL(t *testing.T) {
	if !IsURL("https://example.com/a.png") || !IsURL("http://example.com") {
		t.Error("Expected http(s) URLs to be detected")
	}
	if IsURL("/tmp/a.png") || IsURL("ftp://example.com") {
		t.Error("Expected non-http sources to be rejected")
	}
}
