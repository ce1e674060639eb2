package server

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tidwall/gjson"

	hoard "github.com/eugener/hoard/internal"
)

// maxRequestBody caps PUT and POST bodies.
const maxRequestBody = 16 << 20

func (s *server) handleGet(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	doc, ok := s.deps.Engine.GetDocument(key)
	if !ok {
		writeJSON(w, http.StatusNotFound, apiError{Error: "key not found"})
		return
	}
	if doc.ETag != "" {
		w.Header().Set("ETag", doc.ETag)
	}
	if doc.LastModified != "" {
		w.Header().Set("Last-Modified", doc.LastModified)
	}
	writeRaw(w, http.StatusOK, doc.Data)
}

// handleHas maps HEAD onto the counter-free liveness check.
func (s *server) handleHas(w http.ResponseWriter, r *http.Request) {
	if s.deps.Engine.Has(chi.URLParam(r, "key")) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (s *server) handlePut(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "read body: " + err.Error()})
		return
	}
	if !gjson.ValidBytes(body) {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "body is not valid JSON"})
		return
	}

	var ttl time.Duration
	if raw := r.URL.Query().Get("ttl"); raw != "" {
		ttl, err = time.ParseDuration(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid ttl: " + err.Error()})
			return
		}
	}

	s.deps.Engine.Set(chi.URLParam(r, "key"), body, ttl)
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if s.deps.Engine.Delete(chi.URLParam(r, "key")) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusNotFound, apiError{Error: "key not found"})
}

func (s *server) handleClear(w http.ResponseWriter, _ *http.Request) {
	s.deps.Engine.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleKeys(w http.ResponseWriter, _ *http.Request) {
	keys := s.deps.Engine.Keys()
	writeJSON(w, http.StatusOK, map[string]any{
		"keys": keys,
		"size": len(keys),
	})
}

func (s *server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Engine.Stats())
}

type fetchRequest struct {
	URL      string            `json:"url"`
	Key      string            `json:"key"`
	Strategy hoard.Strategy    `json:"strategy"`
	TTL      string            `json:"ttl"` // Go duration string, e.g. "5m"
	Headers  map[string]string `json:"headers"`
}

func (s *server) handleFetch(w http.ResponseWriter, r *http.Request) {
	var req fetchRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid request body: " + err.Error()})
		return
	}
	if req.URL == "" || req.Key == "" {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "url and key are required"})
		return
	}
	if !req.Strategy.Valid() {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "unknown strategy"})
		return
	}

	var ttl time.Duration
	if req.TTL != "" {
		var err error
		ttl, err = time.ParseDuration(req.TTL)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid ttl: " + err.Error()})
			return
		}
	}

	data, ok := s.deps.Engine.Fetch(r.Context(), req.URL, hoard.FetchOptions{
		Strategy: req.Strategy,
		Key:      req.Key,
		TTL:      ttl,
		Headers:  req.Headers,
	})
	if !ok {
		// The engine fails soft; HTTP has to pick a status for "no data".
		writeJSON(w, http.StatusBadGateway, apiError{Error: "no data available"})
		return
	}
	writeRaw(w, http.StatusOK, data)
}

func (s *server) handleCleanup(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"removed": s.deps.Engine.Cleanup()})
}

func (s *server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Pattern string `json:"pattern"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid request body: " + err.Error()})
		return
	}
	removed, err := s.deps.Engine.InvalidatePattern(req.Pattern)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func (s *server) handlePreload(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Entries []hoard.PreloadEntry `json:"entries"`
		Headers map[string]string    `json:"headers"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid request body: " + err.Error()})
		return
	}
	s.deps.Engine.Preload(r.Context(), req.Entries, req.Headers)
	writeJSON(w, http.StatusOK, map[string]int{"requested": len(req.Entries)})
}

func (s *server) handleGetTTL(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"default_ttl": s.deps.Engine.DefaultTTL().String(),
	})
}

func (s *server) handleSetTTL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DefaultTTL string `json:"default_ttl"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid request body: " + err.Error()})
		return
	}
	d, err := time.ParseDuration(req.DefaultTTL)
	if err != nil || d <= 0 {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "default_ttl must be a positive duration"})
		return
	}
	s.deps.Engine.SetDefaultTTL(d)
	w.WriteHeader(http.StatusNoContent)
}
