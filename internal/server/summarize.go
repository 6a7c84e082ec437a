package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/jmylchreest/swatch/internal/summary"
)

// handleSummarize serves POST /summarize with a multipart "file" field.
func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	opts, err := s.parseOptions(r)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	data, status, err := s.readUpload(w, r)
	if err != nil {
		s.writeError(w, status, err.Error())
		return
	}

	release, err := s.acquire(r.Context())
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, "Request cancelled")
		return
	}
	defer release()

	result, err := s.summarizer.Summarize(r.Context(), data, opts)
	switch {
	case errors.Is(err, summary.ErrEmptyInput):
		s.writeError(w, http.StatusBadRequest, "Empty file")
		return
	case errors.Is(err, summary.ErrImageTooLarge):
		s.logger.Debug("rejected upload", "error", err)
		s.writeError(w, http.StatusRequestEntityTooLarge, "Image too large")
		return
	case errors.Is(err, summary.ErrInvalidImage):
		s.logger.Debug("rejected upload", "error", err)
		s.writeError(w, http.StatusBadRequest, "Invalid image")
		return
	case err != nil:
		s.logger.Error("summarize failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	s.logger.Debug("summarized",
		"k", opts.K,
		"max_side", opts.MaxSide,
		"colours", result.Palette.Len(),
		"duration", result.Stats.Duration,
	)
	s.writeJSON(w, http.StatusOK, result)
}

// parseOptions reads k and max_side from the query string and clamps them.
func (s *Server) parseOptions(r *http.Request) (summary.Options, error) {
	query := r.URL.Query()

	k, err := intParam(query.Get("k"), s.config.DefaultK)
	if err != nil {
		return summary.Options{}, errors.New("k must be an integer")
	}
	maxSide, err := intParam(query.Get("max_side"), s.config.DefaultMaxSide)
	if err != nil {
		return summary.Options{}, errors.New("max_side must be an integer")
	}

	return summary.Options{
		K:       ClampK(k),
		MaxSide: ClampMaxSide(maxSide),
	}, nil
}

// readUpload returns the bytes of the "file" form field. On failure it also
// returns the status code to respond with.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, int, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)

	if err := r.ParseMultipartForm(s.config.MaxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, http.StatusRequestEntityTooLarge, errors.New("File too large")
		}
		return nil, http.StatusUnprocessableEntity, errors.New("Expected multipart/form-data with a file field")
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			s.logger.Warn("failed to remove multipart temp files", "error", err)
		}
	}()

	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, http.StatusUnprocessableEntity, errors.New("Field required: file")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, http.StatusBadRequest, errors.New("Failed to read file")
	}
	return data, http.StatusOK, nil
}

// intParam parses an optional integer query parameter.
func intParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

// ClampK bounds a requested palette size to [MinK, MaxK].
func ClampK(k int) int {
	return min(max(k, MinK), MaxK)
}

// ClampMaxSide bounds a requested downscale size to [MinMaxSide, MaxMaxSide].
func ClampMaxSide(maxSide int) int {
	return min(max(maxSide, MinMaxSide), MaxMaxSide)
}
