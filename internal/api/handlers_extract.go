package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/docquery/internal/document"
	"github.com/dgallion1/docquery/internal/extract"
	"github.com/dgallion1/docquery/internal/provider"
	"github.com/dgallion1/docquery/internal/runstore"
	"github.com/dgallion1/docquery/internal/selector"
)

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !provider.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	stepsText := r.FormValue("steps")
	if strings.TrimSpace(stepsText) == "" {
		jsonError(w, "steps is required", http.StatusBadRequest)
		return
	}
	steps, err := extract.ParseSteps([]byte(stepsText))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := extract.ValidateSteps(steps); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	pagesText := r.FormValue("pages")
	pages, err := document.ParsePages(pagesText)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	asPairs, _ := strconv.ParseBool(r.FormValue("pairs"))

	select {
	case s.slots <- struct{}{}:
		defer func() { <-s.slots }()
	default:
		jsonError(w, fmt.Sprintf("too many concurrent extractions (%d)", cap(s.slots)), http.StatusServiceUnavailable)
		return
	}

	start := time.Now()
	results, err := s.runExtract(data, filename, pages, steps)
	took := time.Since(start)
	s.stats.Record(took, err)
	if err != nil {
		s.log.Warn("extract failed", "filename", filename, "error", err)
		jsonError(w, err.Error(), errorStatus(err))
		return
	}

	var body any = results.Map()
	if asPairs {
		body = results
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		jsonError(w, "failed to encode results: "+err.Error(), http.StatusInternalServerError)
		return
	}

	run := &runstore.Run{
		DocHash:    runstore.ContentHash(data),
		Filename:   filename,
		Pages:      pagesText,
		Steps:      stepsText,
		Results:    encoded,
		DurationMs: took.Milliseconds(),
	}
	if s.store != nil {
		if err := s.store.Save(r.Context(), run); err != nil {
			s.log.Error("save run", "error", err)
			jsonError(w, "failed to record run", http.StatusInternalServerError)
			return
		}
	}

	s.log.Info("extract complete",
		"run_id", run.ID,
		"filename", filename,
		"steps", len(steps),
		"duration_ms", run.DurationMs,
	)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"run_id":      run.ID,
		"doc_hash":    run.DocHash,
		"duration_ms": run.DurationMs,
		"results":     json.RawMessage(encoded),
	})
}

func (s *Server) runExtract(data []byte, filename string, pages []int, steps []extract.Step) (extract.Results, error) {
	prov, err := provider.FromBytes(data, filename, provider.WithLogger(s.log))
	if err != nil {
		return nil, &badDocumentError{err: err}
	}
	opts := append(s.cfg.Tree.Options(), document.WithLogger(s.log), document.WithEngine(s.engine))
	doc := document.New(prov, opts...)
	defer doc.Close()

	if len(pages) > 0 {
		if err := doc.Load(pages); err != nil {
			return nil, err
		}
	}
	results, err := doc.ExtractPairs(steps)
	if err != nil {
		return nil, err
	}
	return results.Plain(), nil
}

type badDocumentError struct{ err error }

func (e *badDocumentError) Error() string { return "invalid document: " + e.err.Error() }
func (e *badDocumentError) Unwrap() error { return e.err }

// errorStatus maps extraction errors to HTTP status codes.
func errorStatus(err error) int {
	var (
		syntaxErr *selector.SyntaxError
		configErr *extract.FormatterConfigError
		docErr    *badDocumentError
	)
	switch {
	case errors.As(err, &syntaxErr), errors.As(err, &configErr), errors.As(err, &docErr):
		return http.StatusBadRequest
	case errors.Is(err, document.ErrPageNotFound), errors.Is(err, runstore.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
