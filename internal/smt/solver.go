package smt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/roach88/efsmcheck/internal/ir"
)

// SatResult is the collaborator's answer to "can both guards hold at once".
type SatResult struct {
	Satisfiable bool   `json:"satisfiable"`
	Model       string `json:"model,omitempty"`
}

// CompletenessResult is the collaborator's answer to "do these guards
// cover every valuation". GapModel is a witness valuation when they don't.
type CompletenessResult struct {
	Complete bool   `json:"complete"`
	GapModel string `json:"gap_model,omitempty"`
}

// Solver is the external SMT collaborator.
type Solver interface {
	CheckGuardsSatisfiable(ctx context.Context, a, b Guard) (SatResult, error)
	CheckGuardsComplete(ctx context.Context, guards []Guard, state, event string, vars []ir.Variable) (CompletenessResult, error)
}

// Collaborator endpoint paths, relative to the base URL.
const (
	PathCheckGuards       = "/fsm/check-guards"
	PathCheckCompleteness = "/fsm/check-completeness"
)

// DefaultHTTPTimeout bounds one collaborator request.
const DefaultHTTPTimeout = 10 * time.Second

type checkGuardsRequest struct {
	Guard1 Guard `json:"guard1"`
	Guard2 Guard `json:"guard2"`
}

type checkGuardsResponse struct {
	Satisfiable bool    `json:"satisfiable"`
	Model       *string `json:"model"`
	Error       *string `json:"error"`
}

type checkCompletenessRequest struct {
	Guards    []Guard       `json:"guards"`
	State     string        `json:"state"`
	Event     string        `json:"event"`
	Variables []ir.Variable `json:"variables"`
}

type checkCompletenessResponse struct {
	Complete bool    `json:"complete"`
	GapModel *string `json:"gap_model"`
	Error    *string `json:"error"`
}

// HTTPSolver calls the collaborator's JSON endpoints.
type HTTPSolver struct {
	baseURL string
	client  *http.Client
}

// HTTPOption configures an HTTPSolver.
type HTTPOption func(*HTTPSolver)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPSolver) {
		s.client = c
	}
}

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(d time.Duration) HTTPOption {
	return func(s *HTTPSolver) {
		if d > 0 {
			s.client = &http.Client{Timeout: d}
		}
	}
}

// NewHTTPSolver creates a solver for the collaborator at baseURL,
// e.g. "http://localhost:8000".
func NewHTTPSolver(baseURL string, opts ...HTTPOption) *HTTPSolver {
	s := &HTTPSolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: DefaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckGuardsSatisfiable asks whether a and b can hold simultaneously.
func (s *HTTPSolver) CheckGuardsSatisfiable(ctx context.Context, a, b Guard) (SatResult, error) {
	var resp checkGuardsResponse
	if err := s.post(ctx, PathCheckGuards, checkGuardsRequest{Guard1: a, Guard2: b}, &resp); err != nil {
		return SatResult{}, err
	}
	if resp.Error != nil && *resp.Error != "" {
		return SatResult{}, fmt.Errorf("solver: check guards: %s", *resp.Error)
	}
	res := SatResult{Satisfiable: resp.Satisfiable}
	if resp.Model != nil {
		res.Model = *resp.Model
	}
	return res, nil
}

// CheckGuardsComplete asks whether guards cover every valuation of vars in
// the given state and event context.
func (s *HTTPSolver) CheckGuardsComplete(ctx context.Context, guards []Guard, state, event string, vars []ir.Variable) (CompletenessResult, error) {
	if guards == nil {
		guards = []Guard{}
	}
	if vars == nil {
		vars = []ir.Variable{}
	}
	req := checkCompletenessRequest{Guards: guards, State: state, Event: event, Variables: vars}
	var resp checkCompletenessResponse
	if err := s.post(ctx, PathCheckCompleteness, req, &resp); err != nil {
		return CompletenessResult{}, err
	}
	if resp.Error != nil && *resp.Error != "" {
		return CompletenessResult{}, fmt.Errorf("solver: check completeness: %s", *resp.Error)
	}
	res := CompletenessResult{Complete: resp.Complete}
	if resp.GapModel != nil {
		res.GapModel = *resp.GapModel
	}
	return res, nil
}

func (s *HTTPSolver) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("solver: encode %s request: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("solver: build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("solver: %s: %w", path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("solver: read %s response: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Path: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(payload))}
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("solver: decode %s response: %w", path, err)
	}
	return nil
}

// StatusError is returned for a non-2xx collaborator response.
type StatusError struct {
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("solver: %s returned %d", e.Path, e.StatusCode)
	}
	return fmt.Sprintf("solver: %s returned %d: %s", e.Path, e.StatusCode, e.Body)
}
