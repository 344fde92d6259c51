package repository

import (
	"context"
	"fmt"
	"time"

	"inventory-rest-api/internal/model"
)

type historyRepository struct {
	q dbtx
	d dialect
}

// Append records one stock transition. A zero ChangeDate is set to now.
func (r *historyRepository) Append(ctx context.Context, e *model.InventoryHistoryEntry) (int64, error) {
	if e.ChangeDate.IsZero() {
		e.ChangeDate = time.Now()
	}
	e.ChangeDate = e.ChangeDate.UTC()

	query := r.d.rebind(`INSERT INTO inventory_history
		(product_id, old_quantity, new_quantity, change_date, user_info)
		VALUES (?, ?, ?, ?, ?)`)

	id, err := r.d.insert(ctx, r.q, query, e.ProductID, e.OldQuantity, e.NewQuantity, e.ChangeDate, e.Source)
	if err != nil {
		return 0, fmt.Errorf("failed to insert inventory history: %w", err)
	}
	e.ID = id
	return id, nil
}

// ListByProduct returns entries newest first. Entries written in the same
// instant keep their insertion order through the id tiebreak.
func (r *historyRepository) ListByProduct(ctx context.Context, productID int64) ([]model.InventoryHistoryEntry, error) {
	query := r.d.rebind(`SELECT id, product_id, old_quantity, new_quantity, change_date, user_info
		FROM inventory_history
		WHERE product_id = ?
		ORDER BY change_date DESC, id DESC`)

	rows, err := r.q.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory history: %w", err)
	}
	defer rows.Close()

	entries := []model.InventoryHistoryEntry{}
	for rows.Next() {
		var e model.InventoryHistoryEntry
		if err := rows.Scan(&e.ID, &e.ProductID, &e.OldQuantity, &e.NewQuantity, &e.ChangeDate, &e.Source); err != nil {
			return nil, fmt.Errorf("failed to scan inventory history: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list inventory history: %w", err)
	}
	return entries, nil
}

var _ HistoryRepository = (*historyRepository)(nil)
