package model

import "time"

// Provenance labels recorded with each stock change.
const (
	SourceAdmin     = "admin"
	SourceCSVImport = "CSV Import"
)

// InventoryHistoryEntry records one stock transition of a product.
// Entries are append-only and outlive the product they reference.
type InventoryHistoryEntry struct {
	ID          int64     `json:"id"`
	ProductID   int64     `json:"productId"`
	OldQuantity int64     `json:"oldQuantity"`
	NewQuantity int64     `json:"newQuantity"`
	ChangeDate  time.Time `json:"changeDate"`
	Source      string    `json:"source"`
}
