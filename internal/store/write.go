package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/efsmcheck/internal/report"
)

// Deadlock kinds stored in deadlocks.kind.
const (
	DeadlockHard        = "hard"
	DeadlockConditional = "conditional"
)

// WriteRun records a report with its diagnostics and deadlocks in one
// transaction. Uses ON CONFLICT(id) DO NOTHING: writing a run id twice
// keeps the first copy.
func (s *Store) WriteRun(ctx context.Context, rep *report.Report) (err error) {
	if rep.RunID == "" {
		return fmt.Errorf("write run: report has no run id")
	}
	body, err := marshalCanonical("report", rep)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	sum := rep.Summary
	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, model, model_hash, created_at, passed, status, errors, warnings,
		 hard_deadlocks, conditional_deadlocks, report)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rep.RunID,
		rep.Model,
		rep.ModelHash,
		formatTime(rep.CreatedAt),
		boolToInt(sum.Passed),
		string(sum.Status),
		sum.Errors,
		sum.Warnings,
		sum.HardDeadlocks,
		sum.ConditionalDeadlocks,
		body,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return tx.Commit()
	}

	if err = writeDiagnostics(ctx, tx, rep); err != nil {
		return err
	}
	if err = writeDeadlocks(ctx, tx, rep); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("write run: commit: %w", err)
	}
	return nil
}

func writeDiagnostics(ctx context.Context, tx *sql.Tx, rep *report.Report) error {
	for i, d := range rep.Diagnostics() {
		loc, err := marshalCanonical("location", d.Location)
		if err != nil {
			return fmt.Errorf("write diagnostic %d: %w", i, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO diagnostics (run_id, seq, code, kind, severity, message, suggestion, location)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, rep.RunID, i, d.Code, string(d.Kind), string(d.Severity), d.Message, d.Suggestion, loc)
		if err != nil {
			return fmt.Errorf("write diagnostic %d: %w", i, err)
		}
	}
	return nil
}

func writeDeadlocks(ctx context.Context, tx *sql.Tx, rep *report.Report) error {
	if rep.Exploration == nil {
		return nil
	}
	seq := 0
	insert := func(kind, state string, vars any, trace []string, reason string) error {
		varsJSON, err := marshalCanonical("variables", vars)
		if err != nil {
			return err
		}
		traceJSON, err := marshalTrace(trace)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO deadlocks (run_id, seq, kind, state, variables, trace, reason)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, rep.RunID, seq, kind, state, varsJSON, traceJSON, reason)
		seq++
		return err
	}

	for _, d := range rep.Exploration.HardDeadlocks {
		if err := insert(DeadlockHard, d.State, d.Variables, d.Trace, d.Reason); err != nil {
			return fmt.Errorf("write deadlock at %s: %w", d.State, err)
		}
	}
	for _, d := range rep.Exploration.ConditionalDeadlocks {
		if err := insert(DeadlockConditional, d.State, d.Variables, d.Trace, d.Reason); err != nil {
			return fmt.Errorf("write deadlock at %s: %w", d.State, err)
		}
	}
	return nil
}

// DeleteRun removes a run and its child rows. Deleting an unknown id is
// not an error.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete run %s: %w", id, err)
	}
	return nil
}

// Prune keeps the newest keep runs of each model and deletes the rest. It
// returns the number of runs deleted.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		return 0, fmt.Errorf("prune: keep must be non-negative, got %d", keep)
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM runs WHERE id IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (
					PARTITION BY model ORDER BY created_at DESC, id DESC
				) AS rn
				FROM runs
			) WHERE rn > ?
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
