package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const photoColumns = "id, filepath, content_hash, file_size, description, ai_model, date_taken, date_created, date_modified, scanned_at"

// KnownHashes returns every recorded content hash mapped to the photo that
// owns it, used to seed duplicate classification.
func (s *Store) KnownHashes(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT content_hash, id FROM photos WHERE content_hash != '' ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query known hashes: %w", err)
	}
	defer rows.Close()

	known := make(map[string]int64)
	for rows.Next() {
		var hash string
		var id int64
		if err := rows.Scan(&hash, &id); err != nil {
			return nil, err
		}
		if _, ok := known[hash]; !ok {
			known[hash] = id
		}
	}
	return known, rows.Err()
}

// KnownPaths returns the set of file paths that already carry a content
// hash, used to filter unchanged files from non-forced rescans.
func (s *Store) KnownPaths(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT filepath FROM photos WHERE content_hash != ''`)
	if err != nil {
		return nil, fmt.Errorf("query known paths: %w", err)
	}
	defer rows.Close()

	paths := make(map[string]struct{})
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		paths[path] = struct{}{}
	}
	return paths, rows.Err()
}

// PhotoByID fetches a photo by identifier.
func (s *Store) PhotoByID(ctx context.Context, id int64) (*Photo, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+photoColumns+` FROM photos WHERE id = ?`, id)
	photo, err := scanPhoto(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get photo: %w", err)
	}
	return photo, nil
}

// PhotoByPath fetches a photo by its unique file path.
func (s *Store) PhotoByPath(ctx context.Context, path string) (*Photo, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+photoColumns+` FROM photos WHERE filepath = ?`, path)
	photo, err := scanPhoto(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get photo by path: %w", err)
	}
	return photo, nil
}

// CommitEnrichment persists one file's full scan result atomically: the
// photo row, its entity links, and the per-model history row. A re-run with
// the same model overwrites that model's history row instead of duplicating
// it; links for the photo are replaced wholesale.
func (s *Store) CommitEnrichment(ctx context.Context, commit EnrichmentCommit) (int64, error) {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(commit.Filepath) == "" {
		return 0, errors.New("commit requires a filepath")
	}
	if commit.EntitiesJSON == "" {
		commit.EntitiesJSON = "[]"
	}
	now := formatTime(time.Now())

	var photoID int64
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin enrichment tx: %w", err)
		}
		defer func() {
			_ = tx.Rollback()
		}()

		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO photos (filepath, content_hash, file_size, description, ai_model, date_taken, date_created, date_modified, scanned_at)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
             ON CONFLICT(filepath) DO UPDATE SET
                 content_hash = excluded.content_hash,
                 file_size = excluded.file_size,
                 description = excluded.description,
                 ai_model = excluded.ai_model,
                 date_taken = excluded.date_taken,
                 date_created = excluded.date_created,
                 date_modified = excluded.date_modified,
                 scanned_at = excluded.scanned_at`,
			commit.Filepath,
			commit.ContentHash,
			commit.FileSize,
			commit.Description,
			commit.AIModel,
			nullableString(commit.DateTaken),
			nullableString(commit.DateCreated),
			nullableString(commit.DateModified),
			now,
		)
		if err != nil {
			return fmt.Errorf("upsert photo: %w", err)
		}

		row := tx.QueryRowContext(ctx, `SELECT id FROM photos WHERE filepath = ?`, commit.Filepath)
		if err := row.Scan(&photoID); err != nil {
			return fmt.Errorf("resolve photo id: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM entity_links WHERE photo_id = ?`, photoID); err != nil {
			return fmt.Errorf("clear entity links: %w", err)
		}
		for _, link := range commit.Links {
			if _, err := tx.ExecContext(
				ctx,
				`INSERT OR IGNORE INTO entity_links (photo_id, entity_id, bounding_box_json) VALUES (?, ?, ?)`,
				photoID,
				link.EntityID,
				nullableString(link.BoundingBoxJSON),
			); err != nil {
				return fmt.Errorf("insert entity link: %w", err)
			}
		}

		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO description_history (photo_id, ai_model, description, entities_json, created_at)
             VALUES (?, ?, ?, ?, ?)
             ON CONFLICT(photo_id, ai_model) DO UPDATE SET
                 description = excluded.description,
                 entities_json = excluded.entities_json,
                 created_at = excluded.created_at`,
			photoID,
			commit.AIModel,
			commit.Description,
			commit.EntitiesJSON,
			now,
		); err != nil {
			return fmt.Errorf("upsert history: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit enrichment: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return photoID, nil
}

// PurgeQuarantineUnderPath removes duplicate and skip records rooted under
// the given directory so a forced rescan re-evaluates them. Photo rows are
// never deleted here; force overwrites them in place to preserve ids and
// per-model history.
func (s *Store) PurgeQuarantineUnderPath(ctx context.Context, root string) error {
	ctx = ensureContext(ctx)
	pattern := strings.TrimRight(root, "/") + "/%"
	statements := []string{
		`DELETE FROM duplicates WHERE filepath LIKE ?`,
		`DELETE FROM skipped_items WHERE filepath LIKE ?`,
	}
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin purge tx: %w", err)
		}
		defer func() {
			_ = tx.Rollback()
		}()
		for _, stmt := range statements {
			if _, err := tx.ExecContext(ctx, stmt, pattern); err != nil {
				return fmt.Errorf("purge under %s: %w", root, err)
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit purge: %w", err)
		}
		return nil
	})
}

// AddDuplicate records a file whose content hash matches an existing photo.
func (s *Store) AddDuplicate(ctx context.Context, copy DuplicateCopy) error {
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO duplicates (content_hash, original_photo_id, filepath, file_size, scanned_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(filepath) DO UPDATE SET
             content_hash = excluded.content_hash,
             original_photo_id = excluded.original_photo_id,
             file_size = excluded.file_size,
             scanned_at = excluded.scanned_at`,
		copy.ContentHash,
		copy.OriginalPhotoID,
		copy.Filepath,
		copy.FileSize,
		formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("insert duplicate: %w", err)
	}
	return nil
}

// Duplicates returns duplicate copies grouped by content hash with their
// original photo, ordered by hash for stable output.
func (s *Store) Duplicates(ctx context.Context) ([]DuplicateGroup, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT d.id, d.content_hash, d.original_photo_id, d.filepath, d.file_size, d.scanned_at, p.filepath
         FROM duplicates d
         JOIN photos p ON p.id = d.original_photo_id
         ORDER BY d.content_hash, d.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query duplicates: %w", err)
	}
	defer rows.Close()

	var groups []DuplicateGroup
	index := make(map[string]int)
	for rows.Next() {
		var (
			copy       DuplicateCopy
			scannedRaw string
			original   string
		)
		if err := rows.Scan(&copy.ID, &copy.ContentHash, &copy.OriginalPhotoID, &copy.Filepath, &copy.FileSize, &scannedRaw, &original); err != nil {
			return nil, err
		}
		if t, err := parseTimeString(scannedRaw); err == nil {
			copy.ScannedAt = t
		}
		i, ok := index[copy.ContentHash]
		if !ok {
			groups = append(groups, DuplicateGroup{
				ContentHash:      copy.ContentHash,
				OriginalPhotoID:  copy.OriginalPhotoID,
				OriginalFilepath: original,
			})
			i = len(groups) - 1
			index[copy.ContentHash] = i
		}
		groups[i].Copies = append(groups[i].Copies, copy)
	}
	return groups, rows.Err()
}

// AddSkipped records a file excluded from the gallery.
func (s *Store) AddSkipped(ctx context.Context, item SkippedItem) error {
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO skipped_items (filepath, reason, file_size, scanned_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT(filepath) DO UPDATE SET
             reason = excluded.reason,
             file_size = excluded.file_size,
             scanned_at = excluded.scanned_at`,
		item.Filepath,
		item.Reason,
		item.FileSize,
		formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("insert skipped item: %w", err)
	}
	return nil
}

// Skipped returns every skipped file, most recent first.
func (s *Store) Skipped(ctx context.Context) ([]SkippedItem, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT id, filepath, reason, file_size, scanned_at FROM skipped_items ORDER BY scanned_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query skipped items: %w", err)
	}
	defer rows.Close()

	var items []SkippedItem
	for rows.Next() {
		var item SkippedItem
		var scannedRaw string
		if err := rows.Scan(&item.ID, &item.Filepath, &item.Reason, &item.FileSize, &scannedRaw); err != nil {
			return nil, err
		}
		if t, err := parseTimeString(scannedRaw); err == nil {
			item.ScannedAt = t
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// TouchScanHistory upserts the last-scanned timestamp for a directory root.
// Paths compare case-insensitively so rescans never duplicate an entry.
func (s *Store) TouchScanHistory(ctx context.Context, directory string) error {
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO scan_history (directory_path, last_scanned_at) VALUES (?, ?)
         ON CONFLICT(directory_path) DO UPDATE SET last_scanned_at = excluded.last_scanned_at`,
		directory,
		formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("record scan history: %w", err)
	}
	return nil
}

// ScanHistory returns every scanned root, most recent first.
func (s *Store) ScanHistory(ctx context.Context) ([]ScanHistoryEntry, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT directory_path, last_scanned_at FROM scan_history ORDER BY last_scanned_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query scan history: %w", err)
	}
	defer rows.Close()

	var entries []ScanHistoryEntry
	for rows.Next() {
		var entry ScanHistoryEntry
		var raw string
		if err := rows.Scan(&entry.DirectoryPath, &raw); err != nil {
			return nil, err
		}
		if t, err := parseTimeString(raw); err == nil {
			entry.LastScannedAt = t
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// HistoryForPhoto returns every model's enrichment snapshot for a photo.
func (s *Store) HistoryForPhoto(ctx context.Context, photoID int64) ([]HistoryEntry, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT photo_id, ai_model, description, entities_json, created_at
         FROM description_history WHERE photo_id = ? ORDER BY created_at`,
		photoID,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var entry HistoryEntry
		var raw string
		if err := rows.Scan(&entry.PhotoID, &entry.AIModel, &entry.Description, &entry.EntitiesJSON, &raw); err != nil {
			return nil, err
		}
		if t, err := parseTimeString(raw); err == nil {
			entry.CreatedAt = t
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanPhoto(scanner interface{ Scan(dest ...any) error }) (*Photo, error) {
	var (
		photo        Photo
		dateTaken    sql.NullString
		dateCreated  sql.NullString
		dateModified sql.NullString
		scannedRaw   string
	)
	if err := scanner.Scan(
		&photo.ID,
		&photo.Filepath,
		&photo.ContentHash,
		&photo.FileSize,
		&photo.Description,
		&photo.AIModel,
		&dateTaken,
		&dateCreated,
		&dateModified,
		&scannedRaw,
	); err != nil {
		return nil, err
	}
	photo.DateTaken = dateTaken.String
	photo.DateCreated = dateCreated.String
	photo.DateModified = dateModified.String
	if t, err := parseTimeString(scannedRaw); err == nil {
		photo.ScannedAt = t
	}
	return &photo, nil
}
