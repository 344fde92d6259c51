package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// dialect isolates what differs between the supported backends. Queries are
// written with ? placeholders and rebound per backend.
type dialect interface {
	name() string
	schema() []string
	rebind(query string) string
	insert(ctx context.Context, q dbtx, query string, args ...interface{}) (int64, error)
	isUniqueViolation(err error) bool
	sizeBytes(ctx context.Context, q dbtx) (int64, error)
}

// execInsert uses LastInsertId, which sqlite and mysql both support.
func execInsert(ctx context.Context, q dbtx, query string, args ...interface{}) (int64, error) {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

type sqliteDialect struct{}

func (sqliteDialect) name() string { return "sqlite" }

func (sqliteDialect) schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS products (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			name_key TEXT NOT NULL,
			brand TEXT NOT NULL,
			category TEXT NOT NULL,
			unit TEXT NOT NULL,
			stock INTEGER NOT NULL CHECK (stock >= 0),
			image_url TEXT,
			image_public_id TEXT,
			status TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_products_name_key ON products(name_key)`,
		`CREATE INDEX IF NOT EXISTS idx_products_category ON products(category)`,
		`CREATE TABLE IF NOT EXISTS inventory_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			product_id INTEGER NOT NULL,
			old_quantity INTEGER NOT NULL,
			new_quantity INTEGER NOT NULL,
			change_date DATETIME NOT NULL,
			user_info TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_product ON inventory_history(product_id, change_date)`,
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
	}
}

func (sqliteDialect) rebind(query string) string { return query }

func (sqliteDialect) insert(ctx context.Context, q dbtx, query string, args ...interface{}) (int64, error) {
	return execInsert(ctx, q, query, args...)
}

func (sqliteDialect) isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (sqliteDialect) sizeBytes(ctx context.Context, q dbtx) (int64, error) {
	// Database file size (approximate from page count)
	var pageCount, pageSize int64
	if err := q.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err != nil {
		return 0, err
	}
	if err := q.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0, err
	}
	return pageCount * pageSize, nil
}

type postgresDialect struct{}

func (postgresDialect) name() string { return "postgres" }

func (postgresDialect) schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS products (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			name_key TEXT NOT NULL,
			brand TEXT NOT NULL,
			category TEXT NOT NULL,
			unit TEXT NOT NULL,
			stock BIGINT NOT NULL CHECK (stock >= 0),
			image_url TEXT,
			image_public_id TEXT,
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_products_name_key ON products(name_key)`,
		`CREATE INDEX IF NOT EXISTS idx_products_category ON products(category)`,
		`CREATE TABLE IF NOT EXISTS inventory_history (
			id BIGSERIAL PRIMARY KEY,
			product_id BIGINT NOT NULL,
			old_quantity BIGINT NOT NULL,
			new_quantity BIGINT NOT NULL,
			change_date TIMESTAMPTZ NOT NULL,
			user_info TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_product ON inventory_history(product_id, change_date)`,
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}
}

// rebind turns ? placeholders into $1, $2, ...
func (postgresDialect) rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (postgresDialect) insert(ctx context.Context, q dbtx, query string, args ...interface{}) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, query+" RETURNING id", args...).Scan(&id)
	return id, err
}

func (postgresDialect) isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (postgresDialect) sizeBytes(ctx context.Context, q dbtx) (int64, error) {
	var size int64
	err := q.QueryRowContext(ctx, `SELECT pg_total_relation_size('products')
		+ pg_total_relation_size('inventory_history')
		+ pg_total_relation_size('users')`).Scan(&size)
	return size, err
}

type mysqlDialect struct{}

func (mysqlDialect) name() string { return "mysql" }

// MySQL has no CREATE INDEX IF NOT EXISTS, so indexes are declared inline.
func (mysqlDialect) schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS products (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			name_key VARCHAR(255) NOT NULL,
			brand VARCHAR(255) NOT NULL,
			category VARCHAR(255) NOT NULL,
			unit VARCHAR(64) NOT NULL,
			stock BIGINT NOT NULL CHECK (stock >= 0),
			image_url TEXT,
			image_public_id VARCHAR(255),
			status VARCHAR(32) NOT NULL,
			created_at DATETIME(6) NOT NULL,
			updated_at DATETIME(6) NOT NULL,
			UNIQUE KEY idx_products_name_key (name_key),
			KEY idx_products_category (category)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS inventory_history (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			product_id BIGINT NOT NULL,
			old_quantity BIGINT NOT NULL,
			new_quantity BIGINT NOT NULL,
			change_date DATETIME(6) NOT NULL,
			user_info VARCHAR(255) NOT NULL,
			KEY idx_history_product (product_id, change_date)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL DEFAULT '',
			email VARCHAR(255) NOT NULL,
			password VARCHAR(255) NOT NULL,
			created_at DATETIME(6) NOT NULL,
			UNIQUE KEY idx_users_email (email)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	}
}

func (mysqlDialect) rebind(query string) string { return query }

func (mysqlDialect) insert(ctx context.Context, q dbtx, query string, args ...interface{}) (int64, error) {
	return execInsert(ctx, q, query, args...)
}

func (mysqlDialect) isUniqueViolation(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == 1062
}

func (mysqlDialect) sizeBytes(ctx context.Context, q dbtx) (int64, error) {
	var size sql.NullInt64
	err := q.QueryRowContext(ctx, `SELECT SUM(data_length + index_length)
		FROM information_schema.tables WHERE table_schema = DATABASE()`).Scan(&size)
	return size.Int64, err
}
