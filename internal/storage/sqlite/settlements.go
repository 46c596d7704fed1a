package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mmynk/splitledger/internal/models"
)

// ListSettlements returns the settlement records of a group, newest first.
// The filter runs inside SQLite so the rest of the history is not decoded.
func (s *SQLiteStore) ListSettlements(ctx context.Context, groupID string) ([]models.Expense, error) {
	// Surfaces storage.ErrNotFound for unknown groups.
	if _, err := s.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT e.value
		 FROM groups g, json_each(g.expenses) e
		 WHERE g.id = ? AND json_extract(e.value, '$.isSettlement') = 1
		 ORDER BY json_extract(e.value, '$.timestamp') DESC`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	var settlements []models.Expense
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		var settlement models.Expense
		if err := json.Unmarshal([]byte(raw), &settlement); err != nil {
			return nil, fmt.Errorf("failed to decode settlement: %w", err)
		}
		settlements = append(settlements, settlement)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}
	return settlements, nil
}
