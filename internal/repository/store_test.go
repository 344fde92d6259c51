package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventory-rest-api/internal/model"
	"inventory-rest-api/pkg/uid"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	// Unique in-memory database per test to avoid cross-test collisions.
	s, err := NewSQLiteStore("file:" + uid.New() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedProduct(t *testing.T, repo ProductRepository, name, category string, stock int64) *model.Product {
	t.Helper()
	p := &model.Product{Name: name, Brand: "Acme", Category: category, Unit: "pcs", Stock: stock}
	_, err := repo.Create(context.Background(), p)
	require.NoError(t, err)
	return p
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.migrate(context.Background()))
	require.NoError(t, s.migrate(context.Background()))
}

func TestProductCreateDerivesStatus(t *testing.T) {
	s := newTestStore(t)
	repo := s.Repositories().Products
	ctx := context.Background()

	inStock := seedProduct(t, repo, "Hammer", "tools", 3)
	empty := seedProduct(t, repo, "Saw", "tools", 0)

	got, err := repo.GetByID(ctx, inStock.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInStock, got.Status)
	assert.Equal(t, int64(3), got.Stock)
	assert.False(t, got.CreatedAt.IsZero())

	got, err = repo.GetByID(ctx, empty.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOutOfStock, got.Status)
}

func TestProductNameUniqueIgnoringCase(t *testing.T) {
	s := newTestStore(t)
	repo := s.Repositories().Products
	ctx := context.Background()

	seedProduct(t, repo, "Widget", "misc", 1)

	_, err := repo.Create(ctx, &model.Product{Name: " widget ", Brand: "b", Category: "c", Unit: "u"})
	assert.ErrorIs(t, err, ErrDuplicate)

	found, err := repo.FindByName(ctx, "WIDGET")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Widget", found.Name)

	missing, err := repo.FindByName(ctx, "gadget")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestProductListFiltersAndPaginates(t *testing.T) {
	s := newTestStore(t)
	repo := s.Repositories().Products
	ctx := context.Background()

	for i := 1; i <= 12; i++ {
		category := "tools"
		if i%3 == 0 {
			category = "paint"
		}
		seedProduct(t, repo, fmt.Sprintf("Item %02d", i), category, int64(i))
	}

	page, total, err := repo.List(ctx, model.ProductFilter{Limit: 5, Offset: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(12), total)
	require.Len(t, page, 5)
	assert.Equal(t, "Item 07", page[0].Name, "newest first")

	page, total, err = repo.List(ctx, model.ProductFilter{Category: "paint", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, page, 4)

	page, total, err = repo.List(ctx, model.ProductFilter{Search: "m 1", Category: "tools", Limit: 10})
	require.NoError(t, err)
	// Item 10, Item 11 (Item 12 is paint)
	assert.Equal(t, int64(2), total)
	assert.Len(t, page, 2)
}

func TestProductUpdateOnlyGivenColumns(t *testing.T) {
	s := newTestStore(t)
	repo := s.Repositories().Products
	ctx := context.Background()

	p := seedProduct(t, repo, "Drill", "tools", 4)
	brand := "Bosch"
	n, err := repo.Update(ctx, p.ID, model.ProductChanges{Brand: &brand})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bosch", got.Brand)
	assert.Equal(t, "Drill", got.Name)
	assert.Equal(t, int64(4), got.Stock)

	n, err = repo.Update(ctx, 999, model.ProductChanges{Brand: &brand})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestProductUpdateRenameCollision(t *testing.T) {
	s := newTestStore(t)
	repo := s.Repositories().Products
	ctx := context.Background()

	seedProduct(t, repo, "Nail", "tools", 1)
	screw := seedProduct(t, repo, "Screw", "tools", 1)

	name := "NAIL"
	_, err := repo.Update(ctx, screw.ID, model.ProductChanges{Name: &name})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestProductDeleteKeepsHistory(t *testing.T) {
	s := newTestStore(t)
	repos := s.Repositories()
	ctx := context.Background()

	p := seedProduct(t, repos.Products, "Glue", "misc", 2)
	_, err := repos.History.Append(ctx, &model.InventoryHistoryEntry{ProductID: p.ID, NewQuantity: 2, Source: model.SourceAdmin})
	require.NoError(t, err)

	n, err := repos.Products.Delete(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repos.Products.Delete(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	entries, err := repos.History.ListByProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestHistoryNewestFirst(t *testing.T) {
	s := newTestStore(t)
	repo := s.Repositories().History
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, qty := range []int64{5, 8, 3} {
		_, err := repo.Append(ctx, &model.InventoryHistoryEntry{
			ProductID:   1,
			OldQuantity: qty - 1,
			NewQuantity: qty,
			ChangeDate:  base.Add(time.Duration(i) * time.Minute),
			Source:      model.SourceAdmin,
		})
		require.NoError(t, err)
	}

	entries, err := repo.ListByProduct(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, int64(3), entries[0].NewQuantity)
	assert.Equal(t, int64(5), entries[2].NewQuantity)
	assert.True(t, entries[0].ChangeDate.Equal(base.Add(2*time.Minute)))

	none, err := repo.ListByProduct(ctx, 42)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("history write failed")

	err := s.WithinTx(ctx, func(r Repositories) error {
		if _, err := r.Products.Create(ctx, &model.Product{Name: "Tape", Brand: "b", Category: "c", Unit: "u", Stock: 1}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	p, err := s.Repositories().Products.FindByName(ctx, "tape")
	require.NoError(t, err)
	assert.Nil(t, p, "product insert must be rolled back")
}

func TestUserEmailUnique(t *testing.T) {
	s := newTestStore(t)
	repo := s.Repositories().Users
	ctx := context.Background()

	_, err := repo.Create(ctx, &model.User{Email: "a@b.c", PasswordHash: "x"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &model.User{Email: "a@b.c", PasswordHash: "y"})
	assert.ErrorIs(t, err, ErrDuplicate)

	u, err := repo.GetByEmail(ctx, "a@b.c")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "x", u.PasswordHash)
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	seedProduct(t, s.Repositories().Products, "Bolt", "tools", 0)

	stats, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sqlite", stats["backend"])
	assert.Equal(t, int64(1), stats["total_products"])
	assert.Equal(t, int64(1), stats["out_of_stock_products"])
}

func TestPostgresRebind(t *testing.T) {
	got := postgresDialect{}.rebind("SELECT a FROM t WHERE x = ? AND y LIKE ? LIMIT ? OFFSET ?")
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y LIKE $2 LIMIT $3 OFFSET $4", got)
}
