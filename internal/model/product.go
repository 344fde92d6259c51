package model

import "time"

// StockStatus is derived from a product's stock and never set directly.
type StockStatus string

const (
	StatusInStock    StockStatus = "IN_STOCK"
	StatusOutOfStock StockStatus = "OUT_OF_STOCK"
)

// StatusFor returns IN_STOCK when stock > 0, otherwise OUT_OF_STOCK.
func StatusFor(stock int64) StockStatus {
	if stock > 0 {
		return StatusInStock
	}
	return StatusOutOfStock
}

// Product represents a row in the products table.
type Product struct {
	ID            int64       `json:"id"`
	Name          string      `json:"name"`
	Brand         string      `json:"brand"`
	Category      string      `json:"category"`
	Unit          string      `json:"unit"`
	Stock         int64       `json:"stock"`
	ImageURL      string      `json:"imageUrl,omitempty"`
	ImagePublicID string      `json:"imagePublicId,omitempty"`
	Status        StockStatus `json:"status"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// ProductFilter selects a page of products.
type ProductFilter struct {
	Search   string // substring of name
	Category string // exact match
	Limit    int
	Offset   int
}

// ProductChanges holds the columns of a single product update. Nil fields
// are left untouched.
type ProductChanges struct {
	Name     *string
	Brand    *string
	Category *string
	Unit     *string
	Stock    *int64
	Status   *StockStatus
}

// Empty reports whether no column would change.
func (c ProductChanges) Empty() bool {
	return c.Name == nil && c.Brand == nil && c.Category == nil &&
		c.Unit == nil && c.Stock == nil && c.Status == nil
}
