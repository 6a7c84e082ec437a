package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFetch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			if r.Header.Get("X-Test") != "yes" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			_, _ = w.Write([]byte("0123456789"))
		case "/slow":
			time.Sleep(200 * time.Millisecond)
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	tests := []struct {
		name    string
		path    string
		opts    FetchOptions
		want    string
		wantErr string
	}{
		{name: "ok", path: "/ok", opts: FetchOptions{Headers: map[string]string{"X-Test": "yes"}}, want: "0123456789"},
		{name: "at limit", path: "/ok", opts: FetchOptions{Headers: map[string]string{"X-Test": "yes"}, MaxBytes: 10}, want: "0123456789"},
		{name: "over limit", path: "/ok", opts: FetchOptions{Headers: map[string]string{"X-Test": "yes"}, MaxBytes: 9}, wantErr: "exceeds 9 bytes"},
		{name: "not found", path: "/missing", wantErr: "HTTP 404"},
		{name: "timeout", path: "/slow", opts: FetchOptions{Timeout: 20 * time.Millisecond}, wantErr: "request failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Fetch(context.Background(), ts.URL+tt.path, tt.opts)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Fetch() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Fetch() unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Fetch() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUserAgent(t *testing.T) {
	if ua := UserAgent(); !strings.HasPrefix(ua, UserAgentName+"/") {
		t.Errorf("UserAgent() = %q", ua)
	}
}
