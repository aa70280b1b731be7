// Package httpapi exposes the local catalog over the PokeAPI wire
// format, so clients built against the public API work unchanged
// against a local mirror.
package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/pokedexlabs/pokedex/internal/catalog"
	"github.com/pokedexlabs/pokedex/internal/pokeapi"
)

// Server holds the application state and provides HTTP handlers.
type Server struct {
	Store *catalog.Store

	// BaseURL prefixes the next/previous cursor URLs and sprite-less
	// resource refs. Defaults to a relative prefix when empty.
	BaseURL string
}

// Routes returns the HTTP handler with all routes configured.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v2/pokemon", s.handleList)
	mux.HandleFunc("/api/v2/pokemon/", s.handleGet)
	mux.HandleFunc("/admin/v1/seed", s.handleSeed)
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/readyz", s.handleReadyz)

	return Logging(mux)
}

// handleHealthz returns basic liveness status.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// handleReadyz returns readiness status including catalog size.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	n := s.Store.Len()
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"loaded": n > 0,
		"count":  n,
	})
}

// handleList serves one catalog page with next/previous cursors.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit := atoiDefault(r.URL.Query().Get("limit"), pokeapi.DefaultPageSize)
	offset := atoiDefault(r.URL.Query().Get("offset"), 0)
	if limit <= 0 {
		limit = pokeapi.DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	entries, total := s.Store.List(limit, offset)

	page := pokeapi.Page{Count: total, Results: make([]pokeapi.NamedRef, 0, len(entries))}
	for _, p := range entries {
		page.Results = append(page.Results, pokeapi.NamedRef{
			Name: p.Name,
			URL:  fmt.Sprintf("%s/api/v2/pokemon/%d/", s.BaseURL, p.ID),
		})
	}
	if offset+limit < total {
		page.Next = s.cursorURL(limit, offset+limit)
	}
	if offset > 0 {
		prev := offset - limit
		if prev < 0 {
			prev = 0
		}
		page.Previous = s.cursorURL(limit, prev)
	}

	writeJSON(w, http.StatusOK, page)
}

func (s *Server) cursorURL(limit, offset int) string {
	return fmt.Sprintf("%s/api/v2/pokemon?offset=%d&limit=%d", s.BaseURL, offset, limit)
}

// handleGet serves one pokemon by name or id.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	key := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v2/pokemon/"), "/")
	if key == "" {
		writeError(w, http.StatusBadRequest, "missing name or id")
		return
	}

	p, ok := s.Store.Get(key)
	if !ok {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleSeed reseeds the catalog with fake entries.
func (s *Server) handleSeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	count := atoiDefault(r.URL.Query().Get("count"), 200)
	if count <= 0 {
		writeError(w, http.StatusBadRequest, "count must be positive")
		return
	}
	s.Store.Seed(count)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "seeded": count})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errchkjson // response writer errors handled by server
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error body clients can surface verbatim.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

// atoiDefault parses a string as an integer, returning def on error.
func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
