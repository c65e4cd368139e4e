package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dgallion1/docquery/internal/runstore"
	"github.com/go-chi/chi/v5"
)

const defaultRunLimit = 20

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		jsonError(w, "run history disabled", http.StatusServiceUnavailable)
		return
	}
	run, err := s.store.Get(r.Context(), chi.URLParam(r, "runID"))
	if errors.Is(err, runstore.ErrNotFound) {
		jsonError(w, "run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(run)
}

// handleListRuns lists recent runs, optionally only those for one
// document hash.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		jsonError(w, "run history disabled", http.StatusServiceUnavailable)
		return
	}
	limit := defaultRunLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			jsonError(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	var (
		runs []runstore.Run
		err  error
	)
	if hash := r.URL.Query().Get("doc_hash"); hash != "" {
		runs, err = s.store.ForDocument(r.Context(), hash, limit)
	} else {
		runs, err = s.store.Recent(r.Context(), limit)
	}
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []runstore.Run{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"runs": runs})
}
