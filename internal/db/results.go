package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// Result variants.
const (
	VariantEstimated        = "estimated"
	VariantGroundtruthScale = "gt_scale"
)

// ErrNotFound is returned when no evaluation matches a query.
var ErrNotFound = errors.New("evaluation not found")

// SequenceSummary is the per-sequence outcome of one evaluation.
// Infinite values mean the sequence had no successful run.
type SequenceSummary struct {
	Sequence         string
	MedianError      float64
	MedianScaleError float64
	MedianIndex      int
	// CompletedRuns counts the iterations with a finite error.
	CompletedRuns int
}

// Summary is one recorded evaluation of one result variant of a run.
type Summary struct {
	ID        string
	RunFolder string
	Dataset   string
	Variant   string
	Name      string
	NumIter   int
	CreatedAt time.Time
	Sequences []SequenceSummary
}

// Record stores s and returns its generated ID. CreatedAt defaults to the
// store's clock.
func (db *DB) Record(ctx context.Context, s Summary) (string, error) {
	if s.Variant != VariantEstimated && s.Variant != VariantGroundtruthScale {
		return "", fmt.Errorf("invalid variant %q", s.Variant)
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = db.Clock.Now()
	}
	id := uuid.NewString()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO evaluations (evaluation_id, run_folder, dataset, variant, name, num_iter, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, s.RunFolder, s.Dataset, s.Variant, s.Name, s.NumIter, s.CreatedAt.UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("insert evaluation: %w", err)
	}

	for i, seq := range s.Sequences {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO evaluation_sequences
			 (evaluation_id, position, sequence, median_error, median_scale_error, median_index, completed_runs)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, i, seq.Sequence, finite(seq.MedianError), finite(seq.MedianScaleError), seq.MedianIndex, seq.CompletedRuns,
		)
		if err != nil {
			return "", fmt.Errorf("insert sequence %s: %w", seq.Sequence, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// ListByRun returns every evaluation recorded for runFolder, newest first.
func (db *DB) ListByRun(ctx context.Context, runFolder string) ([]Summary, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT evaluation_id, run_folder, dataset, variant, name, num_iter, created_at
		 FROM evaluations WHERE run_folder = ?
		 ORDER BY created_at DESC, rowid DESC`, runFolder)
	if err != nil {
		return nil, fmt.Errorf("query evaluations: %w", err)
	}
	summaries, err := scanSummaries(rows)
	if err != nil {
		return nil, err
	}

	for i := range summaries {
		if summaries[i].Sequences, err = db.sequences(ctx, summaries[i].ID); err != nil {
			return nil, err
		}
	}
	return summaries, nil
}

// Latest returns the newest evaluation of runFolder with the given variant.
func (db *DB) Latest(ctx context.Context, runFolder, variant string) (*Summary, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT evaluation_id, run_folder, dataset, variant, name, num_iter, created_at
		 FROM evaluations WHERE run_folder = ? AND variant = ?
		 ORDER BY created_at DESC, rowid DESC LIMIT 1`, runFolder, variant)
	if err != nil {
		return nil, fmt.Errorf("query evaluations: %w", err)
	}
	summaries, err := scanSummaries(rows)
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, ErrNotFound
	}

	s := summaries[0]
	if s.Sequences, err = db.sequences(ctx, s.ID); err != nil {
		return nil, err
	}
	return &s, nil
}

func scanSummaries(rows *sql.Rows) ([]Summary, error) {
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		var created int64
		if err := rows.Scan(&s.ID, &s.RunFolder, &s.Dataset, &s.Variant, &s.Name, &s.NumIter, &created); err != nil {
			return nil, fmt.Errorf("scan evaluation: %w", err)
		}
		s.CreatedAt = time.Unix(0, created)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (db *DB) sequences(ctx context.Context, id string) ([]SequenceSummary, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT sequence, median_error, median_scale_error, median_index, completed_runs
		 FROM evaluation_sequences WHERE evaluation_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("query sequences: %w", err)
	}
	defer rows.Close()

	var out []SequenceSummary
	for rows.Next() {
		var seq SequenceSummary
		var medErr, medScaleErr sql.NullFloat64
		if err := rows.Scan(&seq.Sequence, &medErr, &medScaleErr, &seq.MedianIndex, &seq.CompletedRuns); err != nil {
			return nil, fmt.Errorf("scan sequence: %w", err)
		}
		seq.MedianError = fromNull(medErr)
		seq.MedianScaleError = fromNull(medScaleErr)
		out = append(out, seq)
	}
	return out, rows.Err()
}

// finite maps infinite values to NULL.
func finite(v float64) sql.NullFloat64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func fromNull(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.Inf(1)
	}
	return v.Float64
}
