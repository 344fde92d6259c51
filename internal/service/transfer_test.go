package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventory-rest-api/internal/metrics"
	"inventory-rest-api/internal/model"
	"inventory-rest-api/pkg/apierror"
)

func csvSource(t *testing.T, content string) RowSource {
	t.Helper()
	src, err := NewCSVRowSource(strings.NewReader(content))
	require.NoError(t, err)
	return src
}

func TestImportProductsAddsAndSkipsDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	existingID := f.add(t, "Hammer", 2)

	res, err := f.transfer.ImportProducts(ctx, csvSource(t, `name,unit,category,brand,stock,imageUrl,status
Saw,pcs,tools,Bosch,4,https://img/saw.png,In Stock
Level,pcs,tools,Stanley,0,,
Chisel,pcs,tools,Irwin,7,,
hammer,pcs,tools,Acme,9,,
`))
	require.NoError(t, err)

	assert.Equal(t, 3, res.Added)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Duplicates, 1)
	assert.Equal(t, Duplicate{Name: "hammer", ExistingID: existingID}, res.Duplicates[0])
	assert.Empty(t, res.Errors)

	products, err := f.store.Repositories().Products.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, products, 4)

	for _, p := range products {
		if p.ID == existingID {
			continue
		}
		entries, err := f.store.Repositories().History.ListByProduct(ctx, p.ID)
		require.NoError(t, err)
		require.Len(t, entries, 1, p.Name)
		assert.Equal(t, model.SourceCSVImport, entries[0].Source)
		assert.Equal(t, int64(0), entries[0].OldQuantity)
		assert.Equal(t, p.Stock, entries[0].NewQuantity)
		assert.Equal(t, model.StatusFor(p.Stock), p.Status, "status is derived, not read from the file")
	}

	saw, err := f.store.Repositories().Products.FindByName(ctx, "saw")
	require.NoError(t, err)
	assert.Equal(t, "https://img/saw.png", saw.ImageURL)

	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.ImportRowsTotal.WithLabelValues(metrics.OutcomeAdded)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ImportRowsTotal.WithLabelValues(metrics.OutcomeDuplicate)))
}

func TestImportProductsDuplicateWithinFile(t *testing.T) {
	f := newFixture(t)

	res, err := f.transfer.ImportProducts(context.Background(), csvSource(t, "name,stock\nRope,3\nROPE,5\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Duplicates, 1)
	assert.Equal(t, "ROPE", res.Duplicates[0].Name)
}

func TestImportProductsSkipsInvalidRows(t *testing.T) {
	f := newFixture(t)

	res, err := f.transfer.ImportProducts(context.Background(), csvSource(t, `Name,Stock,Unit
,4,pcs
Tarp,-2,pcs
Bucket,lots,pcs
Sponge,,pcs
`))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added, "empty stock is read as 0")
	assert.Equal(t, 3, res.Skipped)
	assert.Empty(t, res.Duplicates)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, "Tarp", res.Errors[0].Name)
	assert.Equal(t, 3, res.Errors[0].Line)

	sponge, err := f.store.Repositories().Products.FindByName(context.Background(), "Sponge")
	require.NoError(t, err)
	require.NotNil(t, sponge)
	assert.Equal(t, model.StatusOutOfStock, sponge.Status)
}

func TestImportFileRemovesFile(t *testing.T) {
	f := newFixture(t)
	path := tempFile(t, "upload.csv", "name,stock\nBroom,1\n")

	res, err := f.transfer.ImportFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestImportFileRequiresNameColumn(t *testing.T) {
	f := newFixture(t)
	path := tempFile(t, "upload.csv", "title,stock\nBroom,1\n")

	_, err := f.transfer.ImportFile(context.Background(), path)
	requireCode(t, err, apierror.CodeValidation)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "removed even when rejected")
}

func TestExportProductsEmpty(t *testing.T) {
	f := newFixture(t)

	_, err := f.transfer.ExportProducts(context.Background())
	requireCode(t, err, apierror.CodeNotFound)
}

func TestExportProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.add(t, "Plain", 1)
	_, err := f.transfer.ImportProducts(ctx, csvSource(t, "name,stock,brand\n\"Bolts, M8\",0,\"Say \"\"Hi\"\"\"\n"))
	require.NoError(t, err)

	data, err := f.transfer.ExportProducts(ctx)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, ExportHeader, records[0])

	assert.Equal(t, "Bolts, M8", records[1][1], "newest first, comma kept inside one field")
	assert.Equal(t, `Say "Hi"`, records[1][4])
	assert.Equal(t, "OUT_OF_STOCK", records[1][6])
	assert.Equal(t, "", records[1][7])

	assert.Equal(t, itoa(first), records[2][0])
	assert.Equal(t, "IN_STOCK", records[2][6])
}

func TestExportThenImportAddsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, "Anvil", 1)
	f.add(t, "Tongs", 0)

	data, err := f.transfer.ExportProducts(ctx)
	require.NoError(t, err)

	res, err := f.transfer.ImportProducts(ctx, csvSource(t, string(data)))
	require.NoError(t, err)
	assert.Zero(t, res.Added)
	assert.Equal(t, 2, res.Skipped)
	assert.Len(t, res.Duplicates, 2)
	assert.Equal(t, 2, f.productCount(t))
}

func TestImportProductsCancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.transfer.ImportProducts(ctx, csvSource(t, "name\nA\n"))
	apiErr := requireCode(t, err, apierror.CodeUpstream)
	assert.Equal(t, "Failed to import CSV", apiErr.Message)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, f.productCount(t))
}
