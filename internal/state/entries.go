package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Asset is a file emitted by a macro alongside the output.
type Asset struct {
	ID      string
	Type    string
	Content string
}

// Entry is a cached transform output.
type Entry struct {
	Key       string
	Path      string
	Code      string
	Map       string
	Assets    []Asset
	BuildID   string
	CreatedAt time.Time
}

// Lookup returns the entry for key, or nil when there is none.
func (s *Store) Lookup(ctx context.Context, key string) (*Entry, error) {
	if s.db == nil {
		return nil, errNotOpen
	}

	e := &Entry{Key: key}
	var buildID sql.NullString
	var created int64
	err := s.db.QueryRowContext(ctx,
		`SELECT path, code, map, build_id, created_at FROM entries WHERE key = ?`, key,
	).Scan(&e.Path, &e.Code, &e.Map, &buildID, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // miss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up cache entry: %w", err)
	}
	e.BuildID = buildID.String
	e.CreatedAt = time.UnixMilli(created).UTC()

	// Assets in the order they were emitted
	rows, err := s.db.QueryContext(ctx,
		`SELECT asset_id, type, content FROM entry_assets WHERE entry_key = ? ORDER BY rowid`, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load cached assets: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var a Asset
		if err := rows.Scan(&a.ID, &a.Type, &a.Content); err != nil {
			return nil, fmt.Errorf("failed to scan cached asset: %w", err)
		}
		e.Assets = append(e.Assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load cached assets: %w", err)
	}
	return e, nil
}

// Save stores e, replacing any previous entry for its key and dropping
// older entries for the same path.
func (s *Store) Save(ctx context.Context, e *Entry) error {
	if s.db == nil {
		return errNotOpen
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// One entry per path; assets go with it through ON DELETE CASCADE
	if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE path = ? OR key = ?`, e.Path, e.Key); err != nil {
		return fmt.Errorf("failed to replace cache entry: %w", err)
	}

	// NULL build id for entries saved outside a build
	var buildID any
	if e.BuildID != "" {
		buildID = e.BuildID
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO entries (key, path, code, map, build_id, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.Key, e.Path, e.Code, e.Map, buildID, e.CreatedAt.UnixMilli(),
	); err != nil {
		return fmt.Errorf("failed to save cache entry: %w", err)
	}

	for _, a := range e.Assets {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO entry_assets (entry_key, asset_id, type, content) VALUES (?, ?, ?, ?)`,
			e.Key, a.ID, a.Type, a.Content,
		); err != nil {
			return fmt.Errorf("failed to save cached asset: %w", err)
		}
	}

	return tx.Commit()
}

// Stats summarizes the cache contents.
type Stats struct {
	Entries int   `json:"entries"`
	Assets  int   `json:"assets"`
	Bytes   int64 `json:"bytes"`
	Builds  int   `json:"builds"`
}

// Stats counts entries, assets and builds. Bytes is the stored code, map
// and asset size.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	if s.db == nil {
		return st, errNotOpen
	}
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM entries),
			(SELECT COUNT(*) FROM entry_assets),
			(SELECT COALESCE(SUM(LENGTH(code) + LENGTH(map)), 0) FROM entries)
				+ (SELECT COALESCE(SUM(LENGTH(content)), 0) FROM entry_assets),
			(SELECT COUNT(*) FROM builds)`,
	).Scan(&st.Entries, &st.Assets, &st.Bytes, &st.Builds)
	if err != nil {
		return st, fmt.Errorf("failed to read cache stats: %w", err)
	}
	return st, nil
}

// Clear removes every entry and build record.
func (s *Store) Clear(ctx context.Context) error {
	if s.db == nil {
		return errNotOpen
	}
	// Children first
	for _, stmt := range []string{`DELETE FROM entry_assets`, `DELETE FROM entries`, `DELETE FROM builds`} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
	}
	return nil
}
