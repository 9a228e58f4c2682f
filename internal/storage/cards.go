package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/conorfennell/studytrace/internal/domain"
	"github.com/conorfennell/studytrace/internal/review"
)

const cardColumns = `id, record_id, title, summary, key_points, terms, misconceptions, self_quiz,
	content_hash, source_id, created_at, last_reviewed_at, next_review_at,
	review_count, ease_factor, interval_days`

type reviewColumns struct {
	lastReviewedAt sql.NullTime
	nextReviewAt   sql.NullTime
	reviewCount    sql.NullInt64
	easeFactor     sql.NullFloat64
	interval       sql.NullInt64
}

func reviewArgs(s *review.State) reviewColumns {
	var rc reviewColumns
	if s == nil {
		return rc
	}
	if s.LastReviewedAt != nil {
		rc.lastReviewedAt = sql.NullTime{Time: *s.LastReviewedAt, Valid: true}
	}
	if s.NextReviewAt != nil {
		rc.nextReviewAt = sql.NullTime{Time: *s.NextReviewAt, Valid: true}
	}
	rc.reviewCount = sql.NullInt64{Int64: int64(s.ReviewCount), Valid: true}
	rc.easeFactor = sql.NullFloat64{Float64: s.EaseFactor, Valid: true}
	rc.interval = sql.NullInt64{Int64: int64(s.Interval), Valid: true}
	return rc
}

func (rc reviewColumns) state() *review.State {
	if !rc.easeFactor.Valid {
		return nil
	}
	s := &review.State{
		ReviewCount: int(rc.reviewCount.Int64),
		EaseFactor:  rc.easeFactor.Float64,
		Interval:    int(rc.interval.Int64),
	}
	if rc.lastReviewedAt.Valid {
		t := rc.lastReviewedAt.Time
		s.LastReviewedAt = &t
	}
	if rc.nextReviewAt.Valid {
		t := rc.nextReviewAt.Time
		s.NextReviewAt = &t
	}
	return s
}

func scanCard(row scanner) (*domain.Card, error) {
	var (
		c              domain.Card
		recordID       sql.NullString
		summary        sql.NullString
		keyPoints      sql.NullString
		terms          sql.NullString
		misconceptions sql.NullString
		selfQuiz       sql.NullString
		contentHash    sql.NullString
		sourceID       sql.NullInt64
		rc             reviewColumns
	)
	if err := row.Scan(
		&c.ID,
		&recordID,
		&c.Title,
		&summary,
		&keyPoints,
		&terms,
		&misconceptions,
		&selfQuiz,
		&contentHash,
		&sourceID,
		&c.CreatedAt,
		&rc.lastReviewedAt,
		&rc.nextReviewAt,
		&rc.reviewCount,
		&rc.easeFactor,
		&rc.interval,
	); err != nil {
		return nil, err
	}

	c.RecordID = recordID.String
	c.Summary = summary.String
	c.ContentHash = contentHash.String
	c.SourceID = sourceID.Int64
	c.Review = rc.state()

	var err error
	if c.KeyPoints, err = decodeList[string](keyPoints); err != nil {
		return nil, fmt.Errorf("decode key points of card %s: %w", c.ID, err)
	}
	if c.Terms, err = decodeList[domain.Term](terms); err != nil {
		return nil, fmt.Errorf("decode terms of card %s: %w", c.ID, err)
	}
	if c.Misconceptions, err = decodeList[string](misconceptions); err != nil {
		return nil, fmt.Errorf("decode misconceptions of card %s: %w", c.ID, err)
	}
	if c.SelfQuiz, err = decodeList[domain.QuizItem](selfQuiz); err != nil {
		return nil, fmt.Errorf("decode self quiz of card %s: %w", c.ID, err)
	}
	return &c, nil
}

func collectCards(rows *sql.Rows) ([]domain.Card, error) {
	defer rows.Close()

	cards := []domain.Card{}
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card row: %w", err)
		}
		cards = append(cards, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate card rows: %w", err)
	}
	return cards, nil
}

type cardContent struct {
	keyPoints, terms, misconceptions, selfQuiz string
}

func encodeCard(c domain.Card) (cardContent, error) {
	var (
		cc  cardContent
		err error
	)
	if cc.keyPoints, err = encodeList(c.KeyPoints); err != nil {
		return cc, err
	}
	if cc.terms, err = encodeList(c.Terms); err != nil {
		return cc, err
	}
	if cc.misconceptions, err = encodeList(c.Misconceptions); err != nil {
		return cc, err
	}
	if cc.selfQuiz, err = encodeList(c.SelfQuiz); err != nil {
		return cc, err
	}
	return cc, nil
}

// InsertCard stores a new card together with its review state.
func (db *DB) InsertCard(ctx context.Context, c domain.Card) error {
	cc, err := encodeCard(c)
	if err != nil {
		return fmt.Errorf("failed to encode card %s: %w", c.ID, err)
	}
	rc := reviewArgs(c.Review)

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO cards (`+cardColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.ID,
		nullString(c.RecordID),
		c.Title,
		c.Summary,
		cc.keyPoints,
		cc.terms,
		cc.misconceptions,
		cc.selfQuiz,
		nullString(c.ContentHash),
		nullInt64(c.SourceID),
		c.CreatedAt,
		rc.lastReviewedAt,
		rc.nextReviewAt,
		rc.reviewCount,
		rc.easeFactor,
		rc.interval,
	)
	if err != nil {
		return fmt.Errorf("failed to insert card %s: %w", c.ID, err)
	}
	return nil
}

// GetCard retrieves a card by its ID. It returns nil if the card does not exist.
func (db *DB) GetCard(ctx context.Context, id string) (*domain.Card, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+cardColumns+` FROM cards WHERE id = ?`, id)
	c, err := scanCard(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Card not found
		}
		return nil, fmt.Errorf("failed to get card %s: %w", id, err)
	}
	return c, nil
}

// ListCards returns at most limit cards, newest first.
func (db *DB) ListCards(ctx context.Context, limit int) ([]domain.Card, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+cardColumns+`
		FROM cards ORDER BY created_at DESC, id LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	return collectCards(rows)
}

// GetCardsBySourceID retrieves all cards imported from a source.
func (db *DB) GetCardsBySourceID(ctx context.Context, sourceID int64) ([]domain.Card, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT `+cardColumns+` FROM cards WHERE source_id = ?`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cards for source ID %d: %w", sourceID, err)
	}
	return collectCards(rows)
}

// RelatedCards returns cards of other records that share at least one tag
// with the record behind cardID, newest first.
func (db *DB) RelatedCards(ctx context.Context, cardID string, limit int) ([]domain.Card, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+prefixed("c.", cardColumns)+`
		FROM cards c
		JOIN records r ON r.id = c.record_id
		JOIN cards src ON src.id = ?
		JOIN records srcr ON srcr.id = src.record_id
		WHERE c.id != src.id
		  AND r.id != srcr.id
		  AND EXISTS (
			SELECT 1 FROM json_each(r.tags) t
			WHERE t.value IN (SELECT value FROM json_each(srcr.tags))
		  )
		ORDER BY c.created_at DESC
		LIMIT ?
	`, cardID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get cards related to %s: %w", cardID, err)
	}
	return collectCards(rows)
}

// UpdateCardContent overwrites the editable content of a card. The review
// state is left alone. It reports whether the card exists.
func (db *DB) UpdateCardContent(ctx context.Context, c domain.Card) (bool, error) {
	cc, err := encodeCard(c)
	if err != nil {
		return false, fmt.Errorf("failed to encode card %s: %w", c.ID, err)
	}
	res, err := db.conn.ExecContext(ctx, `
		UPDATE cards
		SET title = ?, summary = ?, key_points = ?, terms = ?, misconceptions = ?, self_quiz = ?
		WHERE id = ?
	`, c.Title, c.Summary, cc.keyPoints, cc.terms, cc.misconceptions, cc.selfQuiz, c.ID)
	if err != nil {
		return false, fmt.Errorf("failed to update card %s: %w", c.ID, err)
	}
	return affected(res)
}

// UpdateReviewState stores a card's new review state and appends the review
// event to its history in one transaction. It reports whether the card exists.
func (db *DB) UpdateReviewState(ctx context.Context, id string, s review.State, entry domain.ReviewLog) (bool, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin review update for card %s: %w", id, err)
	}
	defer tx.Rollback()

	rc := reviewArgs(&s)
	res, err := tx.ExecContext(ctx, `
		UPDATE cards
		SET last_reviewed_at = ?, next_review_at = ?, review_count = ?, ease_factor = ?, interval_days = ?
		WHERE id = ?
	`, rc.lastReviewedAt, rc.nextReviewAt, rc.reviewCount, rc.easeFactor, rc.interval, id)
	if err != nil {
		return false, fmt.Errorf("failed to update review state for card %s: %w", id, err)
	}
	if ok, err := affected(res); err != nil || !ok {
		return false, err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO review_logs (card_id, reviewed_at, quality, interval_days)
		VALUES (?, ?, ?, ?)
	`, id, entry.ReviewedAt, entry.Quality, entry.Interval); err != nil {
		return false, fmt.Errorf("failed to record review log for card %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit review update for card %s: %w", id, err)
	}
	return true, nil
}

// ReviewLogs returns the review history of a card, oldest first.
func (db *DB) ReviewLogs(ctx context.Context, cardID string) ([]domain.ReviewLog, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT card_id, reviewed_at, quality, interval_days
		FROM review_logs WHERE card_id = ? ORDER BY id
	`, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to get review logs for card %s: %w", cardID, err)
	}
	defer rows.Close()

	logs := []domain.ReviewLog{}
	for rows.Next() {
		var l domain.ReviewLog
		if err := rows.Scan(&l.CardID, &l.ReviewedAt, &l.Quality, &l.Interval); err != nil {
			return nil, fmt.Errorf("failed to scan review log row: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// DeleteCard removes a card by its ID and reports whether it existed.
func (db *DB) DeleteCard(ctx context.Context, id string) (bool, error) {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete card %s: %w", id, err)
	}
	return affected(res)
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

// prefixed qualifies every column in a comma separated list with p.
func prefixed(p, columns string) string {
	fields := strings.Split(columns, ",")
	for i, f := range fields {
		fields[i] = p + strings.TrimSpace(f)
	}
	return strings.Join(fields, ", ")
}
