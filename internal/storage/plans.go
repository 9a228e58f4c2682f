package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/conorfennell/studytrace/internal/domain"
)

// InsertPlan stores a generated review plan.
func (db *DB) InsertPlan(ctx context.Context, p domain.Plan) error {
	items, err := encodeList(p.Items)
	if err != nil {
		return fmt.Errorf("failed to encode items of plan %s: %w", p.ID, err)
	}
	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO plans (id, date, items, created_at)
		VALUES (?, ?, ?, ?)
	`, p.ID, p.Date, items, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert plan %s: %w", p.ID, err)
	}
	return nil
}

// ListPlans returns at most limit plans, newest first.
func (db *DB) ListPlans(ctx context.Context, limit int) ([]domain.Plan, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, date, items, created_at
		FROM plans ORDER BY created_at DESC, id LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	plans := []domain.Plan{}
	for rows.Next() {
		var (
			p     domain.Plan
			items string
		)
		if err := rows.Scan(&p.ID, &p.Date, &items, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan plan row: %w", err)
		}
		if err := json.Unmarshal([]byte(items), &p.Items); err != nil {
			return nil, fmt.Errorf("failed to decode items of plan %s: %w", p.ID, err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plan rows: %w", err)
	}
	return plans, nil
}
