// Package experiment persists search trials in a SQLite database, together
// with resource usage sampled at record time.
package experiment

import (
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/braidml/braid/pkg/search"
)

var (
	ErrNoPath   = errors.New("storage path is required")
	ErrNoTrials = errors.New("no recorded trials")
)

const schema = `
CREATE TABLE IF NOT EXISTS trials (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at_ms INTEGER NOT NULL,
	operator TEXT NOT NULL,
	params TEXT NOT NULL,
	scorer TEXT NOT NULL,
	score REAL,
	fit_duration_ns INTEGER NOT NULL,
	error TEXT,
	peak_rss_bytes INTEGER NOT NULL DEFAULT 0,
	cpu_percent REAL NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_trials_scorer_score ON trials (scorer, score DESC);
`

// Trial is a persisted search trial plus the resources it consumed.
type Trial struct {
	ID           int64
	CreatedAt    time.Time
	Operator     string
	Params       map[string]any
	Scorer       string
	Score        float64
	FitDuration  time.Duration
	Error        string
	PeakRSSBytes uint64
	CPUPercent   float64
}

// Store persists trials in SQLite.
type Store struct {
	sqlDB   *sql.DB
	sampler *Sampler
}

// Open opens (and if needed creates) a SQLite trial store.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrNoPath
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open sqlite db")
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()

		return nil, errors.Wrap(err, "unable to ping sqlite db")
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()

		return nil, errors.Wrap(err, "unable to apply schema")
	}

	return &Store{sqlDB: sqlDB, sampler: NewSampler()}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}

	return s.sqlDB.Close()
}

// Record persists one finished search trial, stamping it with the current
// process resource usage.
func (s *Store) Record(ctx context.Context, trial search.Trial) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params, err := json.Marshal(trial.Params)
	if err != nil {
		return errors.Wrap(err, "unable to marshal params")
	}

	trialErr := ""
	if trial.Err != nil {
		trialErr = trial.Err.Error()
	}

	rss, cpuPercent := s.sampler.Sample()

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO trials (created_at_ms, operator, params, scorer, score, fit_duration_ns, error, peak_rss_bytes, cpu_percent)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().UnixMilli(),
		trial.Operator,
		string(params),
		trial.Scorer,
		trial.Score,
		trial.FitDuration.Nanoseconds(),
		trialErr,
		rss,
		cpuPercent,
	)
	if err != nil {
		return errors.Wrap(err, "unable to insert trial")
	}

	return nil
}

// List returns the most recent trials, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Trial, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, created_at_ms, operator, params, scorer, score, fit_duration_ns, error, peak_rss_bytes, cpu_percent
FROM trials ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "unable to query trials")
	}
	defer rows.Close()

	var out []Trial
	for rows.Next() {
		trial, err := scanTrial(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, trial)
	}

	return out, errors.Wrap(rows.Err(), "unable to iterate trials")
}

// Best returns the highest-scoring successful trial for a scorer.
func (s *Store) Best(ctx context.Context, scorer string) (Trial, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, created_at_ms, operator, params, scorer, score, fit_duration_ns, error, peak_rss_bytes, cpu_percent
FROM trials WHERE scorer = ? AND error = '' ORDER BY score DESC LIMIT 1`, scorer)

	trial, err := scanTrial(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Trial{}, errors.Wrap(ErrNoTrials, scorer)
	}

	return trial, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrial(row rowScanner) (Trial, error) {
	var (
		trial     Trial
		createdMs int64
		params    string
		fitNs     int64
	)
	err := row.Scan(&trial.ID, &createdMs, &trial.Operator, &params, &trial.Scorer,
		&trial.Score, &fitNs, &trial.Error, &trial.PeakRSSBytes, &trial.CPUPercent)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Trial{}, err
		}

		return Trial{}, errors.Wrap(err, "unable to scan trial")
	}

	trial.CreatedAt = time.UnixMilli(createdMs).UTC()
	trial.FitDuration = time.Duration(fitNs)
	if params != "" {
		if err := json.Unmarshal([]byte(params), &trial.Params); err != nil {
			return Trial{}, errors.Wrap(err, "unable to unmarshal params")
		}
	}

	return trial, nil
}

var _ search.Recorder = (*Store)(nil)
