package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/roach88/efsmcheck/internal/analyzer"
	"github.com/roach88/efsmcheck/internal/compiler"
	"github.com/roach88/efsmcheck/internal/engine"
	"github.com/roach88/efsmcheck/internal/fsm"
	"github.com/roach88/efsmcheck/internal/ir"
	"github.com/roach88/efsmcheck/internal/store"
)

// defaultModelName names a posted model that carries no name.
const defaultModelName = "model"

// ErrorBody is the JSON body of every non-2xx response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes one failure. Path and Line are set for model
// document errors.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
	Line    int    `json:"line,omitempty"`
}

// ValidateResponse is the body of POST /v1/validate.
type ValidateResponse struct {
	Valid     bool            `json:"valid"`
	Analysis  analyzer.Result `json:"analysis"`
	Structure fsm.Result      `json:"structure"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	m, ok := s.readModel(w, r)
	if !ok {
		return
	}
	rep, err := s.runner.Run(r.Context(), m)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "E_ANALYZE", err.Error())
		return
	}
	s.metrics.observeExploration(rep.Exploration)

	if s.store != nil {
		if err := s.store.WriteRun(r.Context(), rep); err != nil {
			s.logger.Warn("failed to record run", "run_id", rep.RunID, "error", err)
		}
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleExplore(w http.ResponseWriter, r *http.Request) {
	m, ok := s.readModel(w, r)
	if !ok {
		return
	}
	res := s.runner.Explore(r.Context(), m)
	s.metrics.observeExploration(res)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	m, ok := s.readModel(w, r)
	if !ok {
		return
	}
	analysis := s.runner.Analyze(r.Context(), m)
	structure := s.runner.Validate(r.Context(), m)
	writeJSON(w, http.StatusOK, ValidateResponse{
		Valid:     !analysis.HasErrors() && structure.Valid,
		Analysis:  analysis,
		Structure: structure,
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.Filter{
		Model:     q.Get("model"),
		ModelHash: q.Get("hash"),
		Status:    engine.Status(q.Get("status")),
	}
	if raw := q.Get("passed"); raw != "" {
		passed, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "E_BAD_FILTER", fmt.Sprintf("invalid passed %q", raw))
			return
		}
		f.Passed = &passed
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "E_BAD_LIMIT", fmt.Sprintf("invalid limit %q", raw))
			return
		}
		f.Limit = n
	}
	runs, err := s.store.ListRuns(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "E_STORE", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rep, err := s.store.GetRun(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "E_NOT_FOUND", err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "E_STORE", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// readModel reads and compiles the posted document. On failure it writes
// the error response and returns false.
func (s *Server) readModel(w http.ResponseWriter, r *http.Request) (*ir.Model, bool) {
	format, err := requestFormat(r)
	if err != nil {
		writeError(w, http.StatusUnsupportedMediaType, compiler.ErrCodeFormat, err.Error())
		return nil, false
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "E_TOO_LARGE",
				fmt.Sprintf("model document exceeds %d bytes", MaxBodyBytes))
			return nil, false
		}
		writeError(w, http.StatusBadRequest, compiler.ErrCodeRead, err.Error())
		return nil, false
	}

	m, err := compiler.Parse(body, format, defaultModelName)
	if err != nil {
		var le *compiler.LoadError
		if errors.As(err, &le) {
			s.logger.Debug("rejected model", "code", le.Code, "path", le.Path, "line", le.Line)
			writeJSON(w, http.StatusUnprocessableEntity, ErrorBody{Error: ErrorDetail{
				Code: le.Code, Message: le.Message, Path: le.Path, Line: le.Line,
			}})
			return nil, false
		}
		writeError(w, http.StatusUnprocessableEntity, compiler.ErrCodeSchema, err.Error())
		return nil, false
	}
	return m, true
}

// requestFormat picks the document format from ?format=, then the
// Content-Type, then YAML.
func requestFormat(r *http.Request) (compiler.Format, error) {
	if f := r.URL.Query().Get("format"); f != "" {
		switch compiler.Format(f) {
		case compiler.FormatYAML, compiler.FormatJSON, compiler.FormatCUE:
			return compiler.Format(f), nil
		}
		return "", fmt.Errorf("unsupported format %q", f)
	}

	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return compiler.FormatYAML, nil
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return "", fmt.Errorf("bad Content-Type: %w", err)
	}
	switch mediaType {
	case "application/json":
		return compiler.FormatJSON, nil
	case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml", "text/plain":
		return compiler.FormatYAML, nil
	case "application/cue", "text/x-cue":
		return compiler.FormatCUE, nil
	}
	return "", fmt.Errorf("unsupported Content-Type %q", mediaType)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorBody{Error: ErrorDetail{Code: code, Message: msg}})
}
