package repository

import (
	"context"
	"errors"

	"inventory-rest-api/internal/model"
)

// ErrDuplicate is returned when a write hits a unique index
// (products.name_key or users.email).
var ErrDuplicate = errors.New("duplicate key")

// ProductRepository defines product data access methods.
// Lookups return (nil, nil) when no row matches.
type ProductRepository interface {
	// Create inserts the product and returns its new id.
	Create(ctx context.Context, p *model.Product) (int64, error)

	// GetByID retrieves a product by id.
	GetByID(ctx context.Context, id int64) (*model.Product, error)

	// FindByName retrieves a product whose name matches case-insensitively.
	FindByName(ctx context.Context, name string) (*model.Product, error)

	// List returns one page, newest first, plus the unpaginated total.
	List(ctx context.Context, filter model.ProductFilter) ([]model.Product, int64, error)

	// ListAll returns every product, newest first.
	ListAll(ctx context.Context) ([]model.Product, error)

	// Update applies the changes in a single statement.
	Update(ctx context.Context, id int64, changes model.ProductChanges) (int64, error)

	// Delete removes the product and returns the affected row count.
	Delete(ctx context.Context, id int64) (int64, error)
}

// HistoryRepository defines inventory audit log access methods.
type HistoryRepository interface {
	// Append records one stock transition.
	Append(ctx context.Context, entry *model.InventoryHistoryEntry) (int64, error)

	// ListByProduct returns a product's entries, most recent first.
	ListByProduct(ctx context.Context, productID int64) ([]model.InventoryHistoryEntry, error)
}

// UserRepository defines credential data access methods.
type UserRepository interface {
	// Create inserts the user and returns its new id.
	Create(ctx context.Context, u *model.User) (int64, error)

	// GetByEmail finds a user by exact email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// Repositories groups repositories bound to the same connection or transaction.
type Repositories struct {
	Products ProductRepository
	History  HistoryRepository
	Users    UserRepository
}

// Store is the relational store shared by all services.
type Store interface {
	// Repositories returns repositories bound to the connection pool.
	Repositories() Repositories

	// WithinTx runs fn in one transaction. It commits when fn returns nil
	// and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(Repositories) error) error

	// Stats returns statistics about the database.
	Stats(ctx context.Context) (map[string]interface{}, error)

	// Ping checks the connection.
	Ping(ctx context.Context) error

	// Close closes the store.
	Close() error
}
