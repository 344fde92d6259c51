package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"inventory-rest-api/internal/model"
)

const productColumns = `id, name, brand, category, unit, stock, image_url, image_public_id, status, created_at, updated_at`

// NameKey is the normalized form the unique index is built on.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

type productRepository struct {
	q dbtx
	d dialect
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*model.Product, error) {
	var (
		p             model.Product
		status        string
		imageURL      sql.NullString
		imagePublicID sql.NullString
	)
	err := row.Scan(&p.ID, &p.Name, &p.Brand, &p.Category, &p.Unit, &p.Stock,
		&imageURL, &imagePublicID, &status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.ImageURL = imageURL.String
	p.ImagePublicID = imagePublicID.String
	p.Status = model.StockStatus(status)
	return &p, nil
}

// nullString converts a Go string to sql.NullString for nullable DB columns
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

// Create inserts a product. Status is derived from stock here so that no
// caller can store a stale value.
func (r *productRepository) Create(ctx context.Context, p *model.Product) (int64, error) {
	now := time.Now().UTC()
	p.Status = model.StatusFor(p.Stock)
	p.CreatedAt = now
	p.UpdatedAt = now

	query := r.d.rebind(`INSERT INTO products
		(name, name_key, brand, category, unit, stock, image_url, image_public_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	id, err := r.d.insert(ctx, r.q, query,
		p.Name, NameKey(p.Name), p.Brand, p.Category, p.Unit, p.Stock,
		nullString(p.ImageURL), nullString(p.ImagePublicID), string(p.Status), now, now)
	if err != nil {
		if r.d.isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("failed to insert product: %w", err)
	}
	p.ID = id
	return id, nil
}

func (r *productRepository) getOne(ctx context.Context, where string, arg interface{}) (*model.Product, error) {
	query := r.d.rebind(`SELECT ` + productColumns + ` FROM products WHERE ` + where)

	p, err := scanProduct(r.q.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

// GetByID retrieves a product by id.
func (r *productRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	return r.getOne(ctx, "id = ?", id)
}

// FindByName retrieves a product by case-insensitive name.
func (r *productRepository) FindByName(ctx context.Context, name string) (*model.Product, error) {
	return r.getOne(ctx, "name_key = ?", NameKey(name))
}

// List returns one page of products and the total matching the filter.
func (r *productRepository) List(ctx context.Context, filter model.ProductFilter) ([]model.Product, int64, error) {
	where := " FROM products WHERE 1 = 1"
	var args []interface{}

	if filter.Search != "" {
		where += " AND name LIKE ?"
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.Category != "" {
		where += " AND category = ?"
		args = append(args, filter.Category)
	}

	var total int64
	if err := r.q.QueryRowContext(ctx, r.d.rebind("SELECT COUNT(*)"+where), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	query := r.d.rebind("SELECT " + productColumns + where + " ORDER BY id DESC LIMIT ? OFFSET ?")
	products, err := r.query(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// ListAll returns every product, newest first.
func (r *productRepository) ListAll(ctx context.Context) ([]model.Product, error) {
	return r.query(ctx, "SELECT "+productColumns+" FROM products ORDER BY id DESC")
}

func (r *productRepository) query(ctx context.Context, query string, args ...interface{}) ([]model.Product, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// Update applies only the non-nil changes in one UPDATE statement.
func (r *productRepository) Update(ctx context.Context, id int64, changes model.ProductChanges) (int64, error) {
	if changes.Empty() {
		return 0, nil
	}

	var (
		sets []string
		args []interface{}
	)
	if changes.Name != nil {
		sets = append(sets, "name = ?", "name_key = ?")
		args = append(args, *changes.Name, NameKey(*changes.Name))
	}
	if changes.Brand != nil {
		sets = append(sets, "brand = ?")
		args = append(args, *changes.Brand)
	}
	if changes.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *changes.Category)
	}
	if changes.Unit != nil {
		sets = append(sets, "unit = ?")
		args = append(args, *changes.Unit)
	}
	if changes.Stock != nil {
		sets = append(sets, "stock = ?")
		args = append(args, *changes.Stock)
	}
	if changes.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*changes.Status))
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	query := r.d.rebind("UPDATE products SET " + strings.Join(sets, ", ") + " WHERE id = ?")
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		if r.d.isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("failed to update product: %w", err)
	}
	return res.RowsAffected()
}

// Delete removes a product. Its history rows are kept.
func (r *productRepository) Delete(ctx context.Context, id int64) (int64, error) {
	res, err := r.q.ExecContext(ctx, r.d.rebind("DELETE FROM products WHERE id = ?"), id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete product: %w", err)
	}
	return res.RowsAffected()
}

var _ ProductRepository = (*productRepository)(nil)
