// Package ledger records the outcome of optimization runs in a local SQLite database. Only final results
// are kept, never populations.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ChristopherRabotin/trajopt"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Run statuses.
const (
	StatusComplete = "complete"
	StatusStopped  = "stopped"
)

// schema contains the DDL executed on every open.
const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    scenario     TEXT NOT NULL,
    status       TEXT NOT NULL,
    started_at   INTEGER NOT NULL,
    finished_at  INTEGER NOT NULL,
    seed         INTEGER NOT NULL,
    generations  INTEGER NOT NULL,
    fitness      REAL NOT NULL,
    min_distance REAL NOT NULL,
    delta_v      REAL NOT NULL,
    days         REAL NOT NULL,
    genes        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_scenario ON runs (scenario, fitness);
`

// Run is the outcome of one optimization.
type Run struct {
	ID          int64
	Scenario    string
	Status      string
	StartedAt   time.Time
	FinishedAt  time.Time
	Seed        uint64
	Generations int
	Fitness     float64
	MinDistance float64 // AU
	DeltaV      float64 // m/s
	Days        float64
	Genes       [trajopt.GeneCount]float64
}

// NewRun returns the run of the provided best-ever chromosome.
func NewRun(scenario string, conf trajopt.Config, best trajopt.Chromosome, generations int, stopped bool, started time.Time) Run {
	status := StatusComplete
	if stopped {
		status = StatusStopped
	}
	return Run{
		Scenario:    scenario,
		Status:      status,
		StartedAt:   started.UTC(),
		FinishedAt:  time.Now().UTC(),
		Seed:        conf.Seed,
		Generations: generations,
		Fitness:     best.Fitness,
		MinDistance: best.Result.MinDistance,
		DeltaV:      best.Result.DeltaV,
		Days:        best.Result.Days,
		Genes:       best.Genes,
	}
}

// Chromosome returns an unevaluated chromosome with the genes of this run.
func (r Run) Chromosome() trajopt.Chromosome {
	return trajopt.NewChromosome(r.Genes)
}

func (r Run) String() string {
	return fmt.Sprintf("#%d %s (%s) %s: fitness %.6f, min dist %.4f AU, Δv %.1f m/s, %.1f days, %d gens, seed %d",
		r.ID, r.Scenario, r.Status, r.FinishedAt.Format(trajopt.DateTimeFormat), r.Fitness, r.MinDistance, r.DeltaV, r.Days, r.Generations, r.Seed)
}

// Ledger is a SQLite store of runs.
type Ledger struct {
	db *sql.DB
}

// Open opens (or creates) the ledger at path.
func Open(ctx context.Context, path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ledger: open database: %w", err)
	}
	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: set busy timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: create schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record stores a run and returns its identifier.
func (l *Ledger) Record(ctx context.Context, r Run) (int64, error) {
	genes, err := json.Marshal(r.Genes)
	if err != nil {
		return 0, fmt.Errorf("ledger: encode genes: %w", err)
	}
	const q = `
		INSERT INTO runs (scenario, status, started_at, finished_at, seed, generations, fitness, min_distance, delta_v, days, genes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := l.db.ExecContext(ctx, q, r.Scenario, r.Status, r.StartedAt.UnixNano(), r.FinishedAt.UnixNano(),
		int64(r.Seed), r.Generations, r.Fitness, r.MinDistance, r.DeltaV, r.Days, string(genes))
	if err != nil {
		return 0, fmt.Errorf("ledger: record run of %q: %w", r.Scenario, err)
	}
	return res.LastInsertId()
}

const selectRuns = `SELECT id, scenario, status, started_at, finished_at, seed, generations, fitness, min_distance, delta_v, days, genes FROM runs`

// Recent returns the n most recent runs, most recent first.
func (l *Ledger) Recent(ctx context.Context, n int) ([]Run, error) {
	return l.query(ctx, selectRuns+" ORDER BY finished_at DESC, id DESC LIMIT ?", n)
}

// Best returns the n fittest runs of a scenario, best first.
func (l *Ledger) Best(ctx context.Context, scenario string, n int) ([]Run, error) {
	return l.query(ctx, selectRuns+" WHERE scenario = ? ORDER BY fitness ASC, id ASC LIMIT ?", scenario, n)
}

func (l *Ledger) query(ctx context.Context, q string, args ...any) ([]Run, error) {
	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("ledger: query runs: %w", err)
	}
	defer rows.Close()
	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			started, finished int64
			seed              int64
			genes             string
		)
		if err := rows.Scan(&r.ID, &r.Scenario, &r.Status, &started, &finished, &seed, &r.Generations,
			&r.Fitness, &r.MinDistance, &r.DeltaV, &r.Days, &genes); err != nil {
			return nil, fmt.Errorf("ledger: scan run: %w", err)
		}
		if err := json.Unmarshal([]byte(genes), &r.Genes); err != nil {
			return nil, fmt.Errorf("ledger: decode genes of run #%d: %w", r.ID, err)
		}
		r.StartedAt = time.Unix(0, started).UTC()
		r.FinishedAt = time.Unix(0, finished).UTC()
		r.Seed = uint64(seed)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
