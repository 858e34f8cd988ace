package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"photo-catalog/internal/logging"
)

const (
	defaultPageSize = 100
	maxPageSize     = 500
	searchLimit     = 100
)

// Upsert inserts rec or, when rec.Path already exists, refreshes the
// existing row's attributes in place. The stored identifier always wins:
// re-indexing a path never changes its ID.
func (s *Store) Upsert(ctx context.Context, rec *FileRecord, folder string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("upsert_file", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `
	INSERT INTO files (id, name, path, folder_path, file_type, size, mod_time, created_time,
	                   width, height, thumbnail_path, rating, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, strftime('%s', 'now'))
	ON CONFLICT(path) DO UPDATE SET
		name = excluded.name,
		folder_path = excluded.folder_path,
		file_type = excluded.file_type,
		size = excluded.size,
		mod_time = excluded.mod_time,
		created_time = excluded.created_time,
		width = excluded.width,
		height = excluded.height,
		thumbnail_path = excluded.thumbnail_path,
		updated_at = strftime('%s', 'now')
	`

	var rating interface{}
	if rec.Rating != 0 {
		rating = rec.Rating
	}
	var thumb interface{}
	if rec.ThumbnailPath != "" {
		thumb = rec.ThumbnailPath
	}

	_, err = s.db.ExecContext(ctx, query,
		rec.ID,
		rec.Name,
		rec.Path,
		folder,
		rec.FileType,
		rec.Size,
		rec.ModTime.Unix(),
		rec.CreatedTime.Unix(),
		rec.Width,
		rec.Height,
		thumb,
		rating,
	)
	if err != nil {
		return fmt.Errorf("upsert failed for %s: %w", rec.Path, err)
	}
	return nil
}

// Remove deletes the record with the given identifier.
func (s *Store) Remove(ctx context.Context, id string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("remove_file", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var result sql.Result
	result, err = s.db.ExecContext(ctx, "DELETE FROM files WHERE id = ?", id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		err = ErrNotFound
		return err
	}
	return nil
}

// RemoveByPath deletes the record stored under the given normalized path.
func (s *Store) RemoveByPath(ctx context.Context, path string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("remove_file_by_path", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var result sql.Result
	result, err = s.db.ExecContext(ctx, "DELETE FROM files WHERE path = ?", path)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		err = ErrNotFound
		return err
	}
	return nil
}

// File retrieves a single record by identifier.
func (s *Store) File(ctx context.Context, id string) (*FileRecord, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_file", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := s.db.QueryRowContext(ctx, selectColumns+" FROM files WHERE id = ?", id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
		return nil, err
	}
	return rec, err
}

// List returns records ordered most-recently-modified first.
// Pagination is a plain slice of that ordering; no snapshot isolation
// is provided across calls.
func (s *Store) List(ctx context.Context, offset, limit int) ([]FileRecord, error) {
	return s.listWhere(ctx, "list_files", "", nil, offset, limit)
}

// ListFolder returns the records indexed under folder, most recently
// modified first.
func (s *Store) ListFolder(ctx context.Context, folder string, offset, limit int) ([]FileRecord, error) {
	return s.listWhere(ctx, "list_folder", "WHERE folder_path = ?", []interface{}{folder}, offset, limit)
}

func (s *Store) listWhere(ctx context.Context, op, where string, args []interface{}, offset, limit int) ([]FileRecord, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery(op, start, err) }()

	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := fmt.Sprintf("%s FROM files %s ORDER BY mod_time DESC, path ASC LIMIT ? OFFSET ?", selectColumns, where)
	args = append(args, limit, offset)

	var rows *sql.Rows
	rows, err = s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s query failed: %w", op, err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			logging.Warn("failed to close rows: %v", closeErr)
		}
	}()

	records, scanErr := scanRecords(rows)
	err = scanErr
	return records, err
}

// PathsInFolder returns the identifier, path and stored shallow facts
// for every record indexed under folder. The sync engine diffs this
// set against a fresh shallow scan.
func (s *Store) PathsInFolder(ctx context.Context, folder string) ([]PathID, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("paths_in_folder", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rows *sql.Rows
	rows, err = s.db.QueryContext(ctx, "SELECT id, path, size, mod_time FROM files WHERE folder_path = ?", folder)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			logging.Warn("failed to close rows: %v", closeErr)
		}
	}()

	var pairs []PathID
	for rows.Next() {
		var p PathID
		if err = rows.Scan(&p.ID, &p.Path, &p.Size, &p.ModTime); err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	err = rows.Err()
	return pairs, err
}

// Folders returns the distinct indexed folder paths in natural sort
// order, so "img2" sorts before "img10".
func (s *Store) Folders(ctx context.Context) ([]string, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("folders", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rows *sql.Rows
	rows, err = s.db.QueryContext(ctx, "SELECT DISTINCT folder_path FROM files")
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			logging.Warn("failed to close rows: %v", closeErr)
		}
	}()

	var folders []string
	for rows.Next() {
		var f string
		if err = rows.Scan(&f); err != nil {
			return nil, err
		}
		folders = append(folders, f)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	sortNatural(folders)
	return folders, nil
}

// Search performs a case-insensitive substring match against file names
// and paths. Results are capped at 100 records.
func (s *Store) Search(ctx context.Context, query string) ([]FileRecord, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("search_files", start, err) }()

	if query == "" {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pattern := "%" + escapeLike(query) + "%"
	q := selectColumns + ` FROM files
		WHERE name LIKE ? ESCAPE '\' OR path LIKE ? ESCAPE '\'
		ORDER BY mod_time DESC LIMIT ?`

	var rows *sql.Rows
	rows, err = s.db.QueryContext(ctx, q, pattern, pattern, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("search query failed: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			logging.Warn("failed to close rows: %v", closeErr)
		}
	}()

	records, scanErr := scanRecords(rows)
	err = scanErr
	return records, err
}

// ClearFolder removes every record indexed under folder along with its
// snapshot. It returns the paths of the removed records so the caller
// can invalidate their thumbnails.
func (s *Store) ClearFolder(ctx context.Context, folder string) ([]string, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("clear_folder", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rows *sql.Rows
	rows, err = s.db.QueryContext(ctx, "SELECT path FROM files WHERE folder_path = ?", folder)
	if err != nil {
		return nil, err
	}
	var paths []string
	for rows.Next() {
		var p string
		if err = rows.Scan(&p); err != nil {
			_ = rows.Close()
			return nil, err
		}
		paths = append(paths, p)
	}
	if err = rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	if err = rows.Close(); err != nil {
		return nil, err
	}

	if _, err = s.db.ExecContext(ctx, "DELETE FROM files WHERE folder_path = ?", folder); err != nil {
		return nil, err
	}
	if _, err = s.db.ExecContext(ctx, "DELETE FROM folder_snapshots WHERE folder_path = ?", folder); err != nil {
		return nil, err
	}
	return paths, nil
}

// ClearLibrary removes every record, snapshot and setting.
func (s *Store) ClearLibrary(ctx context.Context) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("clear_library", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	for _, stmt := range []string{
		"DELETE FROM files",
		"DELETE FROM folder_snapshots",
		"DELETE FROM file_tags",
		"DELETE FROM settings",
	} {
		if _, err = s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

const selectColumns = `SELECT id, name, path, folder_path, file_type, size, mod_time,
	created_time, width, height, thumbnail_path, rating`

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*FileRecord, error) {
	var rec FileRecord
	var modTime, createdTime int64
	var thumb sql.NullString
	var rating sql.NullInt64

	err := row.Scan(
		&rec.ID, &rec.Name, &rec.Path, &rec.FolderPath, &rec.FileType,
		&rec.Size, &modTime, &createdTime, &rec.Width, &rec.Height,
		&thumb, &rating,
	)
	if err != nil {
		return nil, err
	}

	rec.ModTime = time.Unix(modTime, 0)
	rec.CreatedTime = time.Unix(createdTime, 0)
	if thumb.Valid {
		rec.ThumbnailPath = thumb.String
	}
	if rating.Valid {
		rec.Rating = int(rating.Int64)
	}
	return &rec, nil
}

func scanRecords(rows *sql.Rows) ([]FileRecord, error) {
	var records []FileRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return records, nil
}

// escapeLike escapes SQL LIKE wildcards in user-supplied search text.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
