package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/efsmcheck/internal/engine"
	"github.com/roach88/efsmcheck/internal/ir"
	"github.com/roach88/efsmcheck/internal/report"
)

// ErrNotFound is returned when a run id is not in the store.
var ErrNotFound = errors.New("run not found")

// RunSummary is one row of the runs table without the report body.
type RunSummary struct {
	ID                   string        `json:"id"`
	Model                string        `json:"model"`
	ModelHash            string        `json:"model_hash"`
	CreatedAt            time.Time     `json:"created_at"`
	Passed               bool          `json:"passed"`
	Status               engine.Status `json:"status"`
	Errors               int           `json:"errors"`
	Warnings             int           `json:"warnings"`
	HardDeadlocks        int           `json:"hard_deadlocks"`
	ConditionalDeadlocks int           `json:"conditional_deadlocks"`
}

// Deadlock is one row of the deadlocks table.
type Deadlock struct {
	Kind      string           `json:"kind"`
	State     string           `json:"state"`
	Variables ir.VariableState `json:"variables"`
	Trace     []string         `json:"trace"`
	Reason    string           `json:"reason"`
}

// Filter narrows ListRuns. Zero values match everything; Limit 0 means no
// limit.
type Filter struct {
	Model     string
	ModelHash string
	Status    engine.Status
	Passed    *bool
	Limit     int
}

const summaryColumns = `id, model, model_hash, created_at, passed, status, errors, warnings,
	hard_deadlocks, conditional_deadlocks`

func scanSummary(row interface{ Scan(...any) error }) (RunSummary, error) {
	var (
		rs      RunSummary
		created string
		passed  int
		status  string
	)
	err := row.Scan(&rs.ID, &rs.Model, &rs.ModelHash, &created, &passed, &status,
		&rs.Errors, &rs.Warnings, &rs.HardDeadlocks, &rs.ConditionalDeadlocks)
	if err != nil {
		return RunSummary{}, err
	}
	if rs.CreatedAt, err = parseTime(created); err != nil {
		return RunSummary{}, err
	}
	rs.Passed = passed != 0
	rs.Status = engine.Status(status)
	return rs, nil
}

// ListRuns returns run summaries, newest first.
//
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) ListRuns(ctx context.Context, f Filter) ([]RunSummary, error) {
	where, args, err := compilePredicate(f.predicate())
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	query := `SELECT ` + summaryColumns + ` FROM runs WHERE ` + where +
		` ORDER BY created_at DESC, id COLLATE BINARY DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		rs, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// LatestRun returns the newest run of a model, or ErrNotFound.
func (s *Store) LatestRun(ctx context.Context, model string) (RunSummary, error) {
	runs, err := s.ListRuns(ctx, Filter{Model: model, Limit: 1})
	if err != nil {
		return RunSummary{}, err
	}
	if len(runs) == 0 {
		return RunSummary{}, fmt.Errorf("latest run of %s: %w", model, ErrNotFound)
	}
	return runs[0], nil
}

// GetRun returns the full report of a run.
func (s *Store) GetRun(ctx context.Context, id string) (*report.Report, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT report FROM runs WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return report.Decode([]byte(body))
}

// Diagnostics returns a run's diagnostics in report order.
func (s *Store) Diagnostics(ctx context.Context, runID string) ([]ir.Diagnostic, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, kind, severity, message, suggestion, location
		FROM diagnostics
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query diagnostics: %w", err)
	}
	defer rows.Close()

	diags := []ir.Diagnostic{}
	for rows.Next() {
		var (
			d                   ir.Diagnostic
			kind, severity, loc string
		)
		if err := rows.Scan(&d.Code, &kind, &severity, &d.Message, &d.Suggestion, &loc); err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		d.Kind = ir.DiagnosticKind(kind)
		d.Severity = ir.Severity(severity)
		if d.Location, err = unmarshalLocation(loc); err != nil {
			return nil, err
		}
		diags = append(diags, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate diagnostics: %w", err)
	}
	return diags, nil
}

// Deadlocks returns a run's deadlocks, hard ones first.
func (s *Store) Deadlocks(ctx context.Context, runID string) ([]Deadlock, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, state, variables, trace, reason
		FROM deadlocks
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query deadlocks: %w", err)
	}
	defer rows.Close()

	out := []Deadlock{}
	for rows.Next() {
		var (
			d           Deadlock
			vars, trace string
		)
		if err := rows.Scan(&d.Kind, &d.State, &vars, &trace, &d.Reason); err != nil {
			return nil, fmt.Errorf("scan deadlock: %w", err)
		}
		if d.Variables, err = unmarshalVariables(vars); err != nil {
			return nil, err
		}
		if d.Trace, err = unmarshalTrace(trace); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deadlocks: %w", err)
	}
	return out, nil
}

// CodeCount is how many runs of a model reported a diagnostic code.
type CodeCount struct {
	Code string `json:"code"`
	Runs int    `json:"runs"`
}

// CodeHistory counts, per diagnostic code, the runs of model that reported
// it. Ordered by count descending, then code.
func (s *Store) CodeHistory(ctx context.Context, model string) ([]CodeCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.code, COUNT(DISTINCT d.run_id) AS n
		FROM diagnostics d
		JOIN runs r ON r.id = d.run_id
		WHERE r.model = ? AND d.code != ''
		GROUP BY d.code
		ORDER BY n DESC, d.code COLLATE BINARY ASC
	`, model)
	if err != nil {
		return nil, fmt.Errorf("code history: %w", err)
	}
	defer rows.Close()

	out := []CodeCount{}
	for rows.Next() {
		var c CodeCount
		if err := rows.Scan(&c.Code, &c.Runs); err != nil {
			return nil, fmt.Errorf("scan code count: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate code counts: %w", err)
	}
	return out, nil
}
