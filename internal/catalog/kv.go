package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Setting retrieves a settings value by key. Missing keys return an
// empty string and no error.
func (s *Store) Setting(ctx context.Context, key string) (string, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_setting", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var value string
	err = s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetSetting stores a settings key/value pair.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("set_setting", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// Snapshot returns the persisted fingerprint for folder. The boolean is
// false when the folder has never been snapshotted.
func (s *Store) Snapshot(ctx context.Context, folder string) (fileCount int, aggMtime int64, ok bool, err error) {
	start := time.Now()
	defer func() { recordQuery("get_snapshot", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err = s.db.QueryRowContext(ctx,
		"SELECT file_count, agg_mtime FROM folder_snapshots WHERE folder_path = ?", folder,
	).Scan(&fileCount, &aggMtime)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, err
	}
	return fileCount, aggMtime, true, nil
}

// SaveSnapshot persists the fingerprint for folder, replacing any
// previous one.
func (s *Store) SaveSnapshot(ctx context.Context, folder string, fileCount int, aggMtime int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("save_snapshot", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO folder_snapshots (folder_path, file_count, agg_mtime, updated_at)
		VALUES (?, ?, ?, strftime('%s', 'now'))
		ON CONFLICT(folder_path) DO UPDATE SET
			file_count = excluded.file_count,
			agg_mtime = excluded.agg_mtime,
			updated_at = excluded.updated_at
	`, folder, fileCount, aggMtime)
	return err
}
