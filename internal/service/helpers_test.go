package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"inventory-rest-api/internal/metrics"
	"inventory-rest-api/internal/model"
	"inventory-rest-api/internal/repository"
	"inventory-rest-api/internal/uploader"
	"inventory-rest-api/pkg/apierror"
	"inventory-rest-api/pkg/uid"
)

type fakeUploader struct {
	err   error
	calls int
}

func (f *fakeUploader) Upload(ctx context.Context, localPath string) (*uploader.UploadResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &uploader.UploadResult{
		SecureURL: "https://img.example.com/" + filepath.Base(localPath),
		PublicID:  "img-" + strconv.Itoa(f.calls),
	}, nil
}

func newTestStore(t *testing.T) *repository.SQLStore {
	t.Helper()
	s, err := repository.NewSQLiteStore("file:" + uid.New() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

type fixture struct {
	store    *repository.SQLStore
	uploader *fakeUploader
	metrics  *metrics.Metrics
	products *ProductService
	transfer *TransferService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithStore(t, func(s *repository.SQLStore) repository.Store { return s })
}

// newFixtureWithStore lets a test wrap the store the services see. The
// fixture keeps the underlying store for assertions.
func newFixtureWithStore(t *testing.T, wrap func(*repository.SQLStore) repository.Store) *fixture {
	t.Helper()
	store := newTestStore(t)
	up := &fakeUploader{}
	m := metrics.New()
	products := NewProductService(wrap(store), up, m)
	return &fixture{
		store:    store,
		uploader: up,
		metrics:  m,
		products: products,
		transfer: NewTransferService(products, m),
	}
}

// brokenHistoryStore hands out transaction-bound repositories whose history
// appends fail for entries matching fail.
type brokenHistoryStore struct {
	*repository.SQLStore
	fail    func(e *model.InventoryHistoryEntry) bool
	noID    bool // return (0, nil) instead of an error
	appends int
}

func (s *brokenHistoryStore) WithinTx(ctx context.Context, fn func(repository.Repositories) error) error {
	return s.SQLStore.WithinTx(ctx, func(r repository.Repositories) error {
		r.History = &brokenHistory{HistoryRepository: r.History, store: s}
		return fn(r)
	})
}

type brokenHistory struct {
	repository.HistoryRepository
	store *brokenHistoryStore
}

func (h *brokenHistory) Append(ctx context.Context, e *model.InventoryHistoryEntry) (int64, error) {
	h.store.appends++
	if h.store.fail(e) {
		if h.store.noID {
			return 0, nil
		}
		return 0, errors.New("disk I/O error")
	}
	return h.HistoryRepository.Append(ctx, e)
}

func failAll(*model.InventoryHistoryEntry) bool { return true }

func tempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func int64Ptr(v int64) *int64 { return &v }

func strPtr(v string) *string { return &v }

func input(name string, stock int64) ProductInput {
	return ProductInput{Name: name, Unit: "pcs", Category: "tools", Brand: "Acme", Stock: int64Ptr(stock)}
}

func (f *fixture) add(t *testing.T, name string, stock int64) int64 {
	t.Helper()
	p, err := f.products.AddProduct(context.Background(), input(name, stock), tempFile(t, "img.png", "x"))
	require.NoError(t, err)
	return p.ID
}

func (f *fixture) history(t *testing.T, id int64) []int64 {
	t.Helper()
	entries, err := f.store.Repositories().History.ListByProduct(context.Background(), id)
	require.NoError(t, err)
	var out []int64
	for _, e := range entries {
		out = append(out, e.OldQuantity, e.NewQuantity)
	}
	return out
}

func (f *fixture) productCount(t *testing.T) int {
	t.Helper()
	all, err := f.store.Repositories().Products.ListAll(context.Background())
	require.NoError(t, err)
	return len(all)
}

func requireCode(t *testing.T, err error, code string) *apierror.Error {
	t.Helper()
	require.Error(t, err)
	apiErr, ok := apierror.As(err)
	require.True(t, ok, "expected *apierror.Error, got %T: %v", err, err)
	require.Equal(t, code, apiErr.Code, apiErr.Message)
	return apiErr
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }
