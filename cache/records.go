package cache

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/riadafridishibly/foldersize/scanner"
)

type record struct {
	result   scanner.Result
	scanTime float64
}

// GetMany returns the reusable records for paths. Records that are missing,
// from another version, older than the folder's mtime, expired, or whose
// folder cannot be stat'ed are left out. A storage error makes the whole
// lookup a miss.
func (c *Cache) GetMany(ctx context.Context, paths []string) map[string]scanner.Result {
	c.debugf("cache lookup for %d paths", len(paths))

	valid := make(map[string]scanner.Result)
	if len(paths) == 0 {
		return valid
	}

	now := toSeconds(c.now())
	maxAge := c.maxAge.Seconds()

	for start := 0; start < len(paths); start += lookupChunk {
		end := min(start+lookupChunk, len(paths))

		records, err := c.query(ctx, paths[start:end])
		if err != nil {
			log.Printf("error: cache read failed: %v", err)
			return map[string]scanner.Result{}
		}

		for _, rec := range records {
			info, err := os.Stat(rec.result.Path)
			if err != nil {
				log.Printf("warn: cache skip (stat failed): %s (%v)", rec.result.Path, err)
				continue
			}
			if toSeconds(info.ModTime()) > rec.scanTime {
				c.debugf("cache stale (modified): %s", rec.result.Path)
				continue
			}
			if now-rec.scanTime > maxAge {
				c.debugf("cache stale (expired): %s", rec.result.Path)
				continue
			}
			valid[rec.result.Path] = rec.result
		}
	}

	c.debugf("cache hits: %d/%d", len(valid), len(paths))
	return valid
}

func (c *Cache) query(ctx context.Context, paths []string) ([]record, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(paths)), ",")
	query := fmt.Sprintf(`
        SELECT path, size_bytes, file_count, error_count, scan_time
        FROM scan_cache
        WHERE path IN (%s) AND version = ?
    `, placeholders)

	args := make([]any, 0, len(paths)+1)
	for _, p := range paths {
		args = append(args, p)
	}
	args = append(args, c.version)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []record
	for rows.Next() {
		var rec record
		if err := rows.Scan(
			&rec.result.Path,
			&rec.result.SizeBytes,
			&rec.result.FileCount,
			&rec.result.ErrorCount,
			&rec.scanTime,
		); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// SaveMany upserts one record per result in a single transaction, stamped
// with the current time and version. Results whose folder can no longer be
// stat'ed are skipped. On error nothing from this batch is written.
func (c *Cache) SaveMany(ctx context.Context, results []scanner.Result) error {
	c.debugf("saving %d scan results to cache", len(results))

	now := toSeconds(c.now())

	rows := make([]scanner.Result, 0, len(results))
	for _, r := range results {
		if _, err := os.Stat(r.Path); err != nil {
			log.Printf("warn: cache save skipped (stat failed): %s (%v)", r.Path, err)
			continue
		}
		rows = append(rows, r)
	}
	if len(rows) == 0 {
		return nil
	}

	if err := c.upsert(ctx, rows, now); err != nil {
		log.Printf("error: cache write failed: %v", err)
		return err
	}
	return nil
}

func (c *Cache) upsert(ctx context.Context, rows []scanner.Result, scanTime float64) (err error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO scan_cache (path, size_bytes, file_count, error_count, scan_time, version)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(path) DO UPDATE SET
            size_bytes = excluded.size_bytes,
            file_count = excluded.file_count,
            error_count = excluded.error_count,
            scan_time = excluded.scan_time,
            version = excluded.version
    `)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.Path, r.SizeBytes, r.FileCount, r.ErrorCount, scanTime, c.version); err != nil {
			return fmt.Errorf("upsert record %s: %w", r.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Clear removes every record.
func (c *Cache) Clear(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, "DELETE FROM scan_cache"); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

// Len returns the number of stored records, valid or not.
func (c *Cache) Len(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM scan_cache").Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}
