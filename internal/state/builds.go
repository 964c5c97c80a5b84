package state

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Build statuses.
const (
	BuildRunning   = "running"
	BuildSucceeded = "succeeded"
	BuildFailed    = "failed"
)

// Counts tallies the files of a build by outcome.
type Counts struct {
	Files   int `json:"files"`
	OK      int `json:"ok"`
	Cached  int `json:"cached"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Build is one recorded transform invocation.
type Build struct {
	ID         string     `json:"id"`
	Status     string     `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Counts
}

// Duration returns how long the build ran, or zero while it is running.
func (b *Build) Duration() time.Duration {
	if b.FinishedAt == nil {
		return 0
	}
	return b.FinishedAt.Sub(b.StartedAt)
}

// StartBuild records a running build and returns it.
func (s *Store) StartBuild(ctx context.Context) (*Build, error) {
	if s.db == nil {
		return nil, errNotOpen
	}

	b := &Build{
		ID:        generateID(),
		Status:    BuildRunning,
		StartedAt: time.Now().UTC(),
	}
	s.logger.Debug("starting build", slog.String("id", b.ID))

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO builds (id, status, started_at) VALUES (?, ?, ?)`,
		b.ID, b.Status, b.StartedAt.UnixMilli(),
	); err != nil {
		return nil, fmt.Errorf("failed to create build: %w", err)
	}
	return b, nil
}

// FinishBuild stores the counts of build id. The build failed when any file
// failed.
func (s *Store) FinishBuild(ctx context.Context, id string, c Counts) error {
	if s.db == nil {
		return errNotOpen
	}

	status := BuildSucceeded
	if c.Failed > 0 {
		status = BuildFailed
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE builds SET status = ?, finished_at = ?, files = ?, ok = ?, cached = ?, skipped = ?, failed = ?
		 WHERE id = ?`,
		status, time.Now().UTC().UnixMilli(), c.Files, c.OK, c.Cached, c.Skipped, c.Failed, id,
	)
	if err != nil {
		return fmt.Errorf("failed to finish build: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("build not found: %s", id)
	}
	return nil
}

// RecentBuilds returns up to limit builds, newest first.
func (s *Store) RecentBuilds(ctx context.Context, limit int) ([]*Build, error) {
	if s.db == nil {
		return nil, errNotOpen
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, started_at, finished_at, files, ok, cached, skipped, failed
		 FROM builds ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list builds: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var builds []*Build
	for rows.Next() {
		b := &Build{}
		var started int64
		var finished sql.NullInt64
		if err := rows.Scan(&b.ID, &b.Status, &started, &finished,
			&b.Files, &b.OK, &b.Cached, &b.Skipped, &b.Failed); err != nil {
			return nil, fmt.Errorf("failed to scan build: %w", err)
		}
		b.StartedAt = time.UnixMilli(started).UTC()
		if finished.Valid {
			t := time.UnixMilli(finished.Int64).UTC()
			b.FinishedAt = &t
		}
		builds = append(builds, b)
	}
	return builds, rows.Err()
}
