package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/conorfennell/studytrace/internal/domain"
)

const recordColumns = `id, url, title, domain, captured_at, text_hash, text_preview, full_text,
	summary, key_points, tags, status`

func scanRecord(row scanner) (*domain.Record, error) {
	var (
		r         domain.Record
		preview   sql.NullString
		fullText  sql.NullString
		summary   sql.NullString
		keyPoints sql.NullString
		tags      sql.NullString
	)
	if err := row.Scan(
		&r.ID,
		&r.Source.URL,
		&r.Source.Title,
		&r.Source.Domain,
		&r.CapturedAt,
		&r.TextHash,
		&preview,
		&fullText,
		&summary,
		&keyPoints,
		&tags,
		&r.Status,
	); err != nil {
		return nil, err
	}
	r.TextPreview = preview.String
	r.FullText = fullText.String
	r.Summary = summary.String

	var err error
	if r.KeyPoints, err = decodeList[string](keyPoints); err != nil {
		return nil, fmt.Errorf("decode key points of record %s: %w", r.ID, err)
	}
	if r.Tags, err = decodeList[string](tags); err != nil {
		return nil, fmt.Errorf("decode tags of record %s: %w", r.ID, err)
	}
	return &r, nil
}

func (db *DB) queryRecord(ctx context.Context, where string, arg any) (*domain.Record, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM records WHERE `+where+` LIMIT 1`, arg)
	r, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Record not found
		}
		return nil, err
	}
	return r, nil
}

// InsertRecord stores a new learning record.
func (db *DB) InsertRecord(ctx context.Context, r domain.Record) error {
	keyPoints, err := encodeList(r.KeyPoints)
	if err != nil {
		return fmt.Errorf("failed to encode key points of record %s: %w", r.ID, err)
	}
	tags, err := encodeList(r.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags of record %s: %w", r.ID, err)
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO records (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID,
		r.Source.URL,
		r.Source.Title,
		r.Source.Domain,
		r.CapturedAt,
		r.TextHash,
		r.TextPreview,
		r.FullText,
		r.Summary,
		keyPoints,
		tags,
		string(r.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to insert record %s: %w", r.ID, err)
	}
	return nil
}

// GetRecord retrieves a record by its ID. It returns nil if the record does not exist.
func (db *DB) GetRecord(ctx context.Context, id string) (*domain.Record, error) {
	r, err := db.queryRecord(ctx, "id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get record %s: %w", id, err)
	}
	return r, nil
}

// FindRecordByURL retrieves the record captured from url, if any.
func (db *DB) FindRecordByURL(ctx context.Context, url string) (*domain.Record, error) {
	r, err := db.queryRecord(ctx, "url = ?", url)
	if err != nil {
		return nil, fmt.Errorf("failed to find record by url %s: %w", url, err)
	}
	return r, nil
}

// FindRecordByHash retrieves a record with the given content hash, if any.
func (db *DB) FindRecordByHash(ctx context.Context, hash string) (*domain.Record, error) {
	r, err := db.queryRecord(ctx, "text_hash = ?", hash)
	if err != nil {
		return nil, fmt.Errorf("failed to find record by hash %s: %w", hash, err)
	}
	return r, nil
}

// UpdateRecordContent replaces the captured text of a record.
func (db *DB) UpdateRecordContent(ctx context.Context, r domain.Record) error {
	_, err := db.conn.ExecContext(ctx, `
		UPDATE records
		SET text_hash = ?, text_preview = ?, full_text = ?, status = ?
		WHERE id = ?
	`, r.TextHash, r.TextPreview, r.FullText, string(r.Status), r.ID)
	if err != nil {
		return fmt.Errorf("failed to update content of record %s: %w", r.ID, err)
	}
	return nil
}

// ListRecords returns at most limit records, most recently captured first.
func (db *DB) ListRecords(ctx context.Context, limit int) ([]domain.Record, error) {
	return db.listRecords(ctx, `ORDER BY captured_at DESC, id LIMIT ?`, limit)
}

// RecordsByDomain returns up to limit records captured from domain whose URL
// differs from excludeURL, most recently captured first.
func (db *DB) RecordsByDomain(ctx context.Context, domainName, excludeURL string, limit int) ([]domain.Record, error) {
	return db.listRecords(ctx, `WHERE domain = ? AND url != ? ORDER BY captured_at DESC, id LIMIT ?`,
		domainName, excludeURL, limit)
}

func (db *DB) listRecords(ctx context.Context, clause string, args ...any) ([]domain.Record, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT `+recordColumns+` FROM records `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	records := []domain.Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record row: %w", err)
		}
		records = append(records, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate record rows: %w", err)
	}
	return records, nil
}
