package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"kdvd/internal/disc"
	"kdvd/internal/stream"
)

// Record upserts the disc described by report and replaces its streams.
func (s *Store) Record(ctx context.Context, report *disc.Report) (*Entry, error) {
	if report == nil {
		return nil, errors.New("report is nil")
	}
	if strings.TrimSpace(report.Fingerprint) == "" {
		return nil, errors.New("report fingerprint is required")
	}
	ctx = ensureContext(ctx)

	scannedAt := report.ScannedAt
	if scannedAt.IsZero() {
		scannedAt = time.Now().UTC()
	}
	timestamp := scannedAt.UTC().Format(time.RFC3339Nano)

	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO discs (`+discColumns+`)
             VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
             ON CONFLICT (fingerprint) DO UPDATE SET
                catalog_hash = excluded.catalog_hash,
                root = excluded.root,
                label = COALESCE(excluded.label, discs.label),
                session_id = excluded.session_id,
                stream_count = excluded.stream_count,
                available_count = excluded.available_count,
                scan_count = discs.scan_count + 1,
                scanned_at = excluded.scanned_at`,
			report.Fingerprint,
			report.CatalogHash,
			report.Root,
			nullableString(report.Label),
			report.SessionID,
			len(report.Streams),
			report.Available(),
			timestamp,
			timestamp,
		); err != nil {
			return fmt.Errorf("upsert disc: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM streams WHERE fingerprint = ?`, report.Fingerprint); err != nil {
			return fmt.Errorf("clear streams: %w", err)
		}
		for i, d := range report.Streams {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO streams (fingerprint, position, `+streamColumns+`)
                 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				report.Fingerprint,
				i,
				d.Filename,
				d.Format.String(),
				d.BandwidthBps,
				d.Width,
				d.Height,
				nullableString(d.Codecs),
				boolToInt(d.Declared),
				boolToInt(d.Available),
			); err != nil {
				return fmt.Errorf("insert stream %s: %w", d.Filename, err)
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return nil, fmt.Errorf("record disc: %w", err)
	}
	return s.Get(ctx, report.Fingerprint)
}

// Get returns the entry for fingerprint with its streams, or nil when absent.
func (s *Store) Get(ctx context.Context, fingerprint string) (*Entry, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+discColumns+` FROM discs WHERE fingerprint = ?`, fingerprint)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get disc: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+streamColumns+` FROM streams WHERE fingerprint = ? ORDER BY position`, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("list streams: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		d, err := scanStream(rows)
		if err != nil {
			return nil, err
		}
		entry.Streams = append(entry.Streams, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entry, nil
}

// List returns every entry, most recently scanned first, without streams.
func (s *Store) List(ctx context.Context) ([]*Entry, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+discColumns+` FROM discs ORDER BY scanned_at DESC, fingerprint`)
	if err != nil {
		return nil, fmt.Errorf("list discs: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Remove deletes the entry for fingerprint and reports whether it existed.
func (s *Store) Remove(ctx context.Context, fingerprint string) (bool, error) {
	ctx = ensureContext(ctx)
	var removed int64
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `DELETE FROM streams WHERE fingerprint = ?`, fingerprint); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM discs WHERE fingerprint = ?`, fingerprint)
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		if err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return false, fmt.Errorf("remove disc: %w", err)
	}
	return removed > 0, nil
}

// Clear deletes every entry and returns how many discs were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)
	var removed int64
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `DELETE FROM streams`); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM discs`)
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		if err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	return removed, nil
}

// Count returns the number of recorded discs.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ensureContext(ctx), `SELECT COUNT(1) FROM discs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count discs: %w", err)
	}
	return n, nil
}

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		entry       Entry
		label       sql.NullString
		firstSeenAt string
		scannedAt   string
	)
	if err := scanner.Scan(
		&entry.Fingerprint,
		&entry.CatalogHash,
		&entry.Root,
		&label,
		&entry.SessionID,
		&entry.StreamCount,
		&entry.AvailableCount,
		&entry.ScanCount,
		&firstSeenAt,
		&scannedAt,
	); err != nil {
		return nil, err
	}
	entry.Label = label.String
	entry.FirstSeenAt = parseTime(firstSeenAt)
	entry.ScannedAt = parseTime(scannedAt)
	return &entry, nil
}

func scanStream(scanner interface{ Scan(dest ...any) error }) (stream.Descriptor, error) {
	var (
		d         stream.Descriptor
		format    string
		codecs    sql.NullString
		declared  int
		available int
	)
	if err := scanner.Scan(&d.Filename, &format, &d.BandwidthBps, &d.Width, &d.Height, &codecs, &declared, &available); err != nil {
		return stream.Descriptor{}, err
	}
	parsed, err := stream.ParseFormat(format)
	if err != nil {
		return stream.Descriptor{}, fmt.Errorf("stream %s: %w", d.Filename, err)
	}
	d.Format = parsed
	d.Codecs = codecs.String
	d.Declared = declared != 0
	d.Available = available != 0
	return d, nil
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
