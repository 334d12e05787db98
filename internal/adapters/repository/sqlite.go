package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/okian/cutflow/internal/domain/cutflow"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	analysis TEXT NOT NULL,
	started_at TIMESTAMP NOT NULL,
	finished_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS processes (
	run_id TEXT NOT NULL,
	process TEXT NOT NULL,
	is_data BOOLEAN NOT NULL,
	partitions INTEGER NOT NULL,
	events INTEGER NOT NULL,
	selected INTEGER NOT NULL,
	invalid_weights INTEGER NOT NULL,
	PRIMARY KEY (run_id, process),
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);
CREATE TABLE IF NOT EXISTS cutflow (
	run_id TEXT NOT NULL,
	process TEXT NOT NULL,
	stage_index INTEGER NOT NULL,
	stage TEXT NOT NULL,
	sumw DOUBLE NOT NULL,
	sumw2 DOUBLE NOT NULL,
	count INTEGER NOT NULL,
	PRIMARY KEY (run_id, process, stage_index)
);
CREATE TABLE IF NOT EXISTS histogram_bins (
	run_id TEXT NOT NULL,
	process TEXT NOT NULL,
	histogram TEXT NOT NULL,
	bin INTEGER NOT NULL,
	low DOUBLE NOT NULL,
	high DOUBLE NOT NULL,
	sumw DOUBLE NOT NULL,
	sumw2 DOUBLE NOT NULL,
	entries INTEGER NOT NULL,
	PRIMARY KEY (run_id, process, histogram, bin)
);
`

// Run identifies one job execution.
type Run struct {
	ID         uuid.UUID
	Analysis   string
	StartedAt  time.Time
	FinishedAt time.Time
}

// SQLite persists finished runs.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// SaveRun stores run and its summaries in one transaction.
func (s *SQLite) SaveRun(ctx context.Context, run Run, summaries []ProcessSummary) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		"INSERT INTO runs (run_id, analysis, started_at, finished_at) VALUES (?, ?, ?, ?)",
		run.ID.String(), run.Analysis, run.StartedAt.UTC(), run.FinishedAt.UTC(),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, ps := range summaries {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO processes (run_id, process, is_data, partitions, events, selected, invalid_weights)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.ID.String(), ps.Process, ps.IsData, ps.Partitions, ps.Events, ps.Selected, ps.InvalidWeights,
		); err != nil {
			return fmt.Errorf("insert process %s: %w", ps.Process, err)
		}
		for i, st := range ps.Cutflow {
			if _, err = tx.ExecContext(ctx,
				`INSERT INTO cutflow (run_id, process, stage_index, stage, sumw, sumw2, count)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				run.ID.String(), ps.Process, i, st.Name, st.SumW, st.SumW2, st.Count,
			); err != nil {
				return fmt.Errorf("insert stage %s: %w", st.Name, err)
			}
		}
		for _, h := range ps.Histograms {
			for i, b := range h.Bins {
				if _, err = tx.ExecContext(ctx,
					`INSERT INTO histogram_bins (run_id, process, histogram, bin, low, high, sumw, sumw2, entries)
					VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
					run.ID.String(), ps.Process, h.Name, i, b.Low, b.High, b.SumW, b.SumW2, b.Entries,
				); err != nil {
					return fmt.Errorf("insert %s bin %d: %w", h.Name, i, err)
				}
			}
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Cutflow reads back the stages of process in run.
func (s *SQLite) Cutflow(ctx context.Context, runID uuid.UUID, process string) ([]cutflow.Stage, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT stage, sumw, sumw2, count FROM cutflow WHERE run_id = ? AND process = ? ORDER BY stage_index",
		runID.String(), process,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []cutflow.Stage
	for rows.Next() {
		var st cutflow.Stage
		if err := rows.Scan(&st.Name, &st.SumW, &st.SumW2, &st.Count); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s in run %s", ErrNotFound, process, runID)
	}
	return out, nil
}

// Runs lists stored run ids, newest first.
func (s *SQLite) Runs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT run_id FROM runs ORDER BY started_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		u, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("run id %q: %w", id, err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// HistogramSumW reads back the bin contents of one histogram.
func (s *SQLite) HistogramSumW(ctx context.Context, runID uuid.UUID, process, name string) ([]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT sumw FROM histogram_bins WHERE run_id = ? AND process = ? AND histogram = ? ORDER BY bin",
		runID.String(), process, name,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLite) Close() error { return s.db.Close() }
