package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"inventory-rest-api/internal/logger"
	"inventory-rest-api/internal/metrics"
	"inventory-rest-api/internal/model"
	"inventory-rest-api/internal/repository"
	"inventory-rest-api/pkg/apierror"
)

// Duplicate is an import row whose name is already taken.
type Duplicate struct {
	Name       string `json:"name"`
	ExistingID int64  `json:"existingId"`
}

// RowError explains why a row was skipped for a reason other than a
// missing name or a duplicate.
type RowError struct {
	Line    int    `json:"line"`
	Name    string `json:"name,omitempty"`
	Message string `json:"message"`
}

// ImportResult summarizes an import.
type ImportResult struct {
	Added      int         `json:"added"`
	Skipped    int         `json:"skipped"`
	Duplicates []Duplicate `json:"duplicates"`
	Errors     []RowError  `json:"errors,omitempty"`
}

// TransferService imports and exports products as CSV.
type TransferService struct {
	products *ProductService
	metrics  *metrics.Metrics
}

// NewTransferService creates a transfer service on top of products.
func NewTransferService(products *ProductService, m *metrics.Metrics) *TransferService {
	return &TransferService{products: products, metrics: m}
}

// ImportFile imports the CSV file at path and removes it afterwards.
func (s *TransferService) ImportFile(ctx context.Context, path string) (*ImportResult, error) {
	defer removeTemp(ctx, path)

	f, err := os.Open(path)
	if err != nil {
		return nil, upstream(ctx, "Failed to import CSV", err)
	}
	defer f.Close()

	src, err := NewCSVRowSource(f)
	if err != nil {
		if errors.Is(err, ErrNoNameColumn) {
			return nil, apierror.ValidationError(err.Error())
		}
		return nil, apierror.BadRequest("Malformed CSV file")
	}
	return s.ImportProducts(ctx, src)
}

// ImportProducts inserts rows one at a time, each with its own history
// entry in its own transaction. A failing row does not undo earlier rows.
// Rows are processed in order so that a name repeated within the file is
// reported as a duplicate of the first occurrence.
func (s *TransferService) ImportProducts(ctx context.Context, src RowSource) (*ImportResult, error) {
	log := logger.FromContext(ctx)
	result := &ImportResult{Duplicates: []Duplicate{}}
	products := s.products.store.Repositories().Products

	for {
		if err := ctx.Err(); err != nil {
			return result, upstream(ctx, "Failed to import CSV", err)
		}

		row, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Warn("csv import stopped on malformed input", "added", result.Added, "error", err)
			return result, apierror.BadRequest(fmt.Sprintf("Malformed CSV after %d added rows", result.Added))
		}

		if row.Name == "" {
			s.skip(result, metrics.OutcomeInvalid)
			continue
		}

		stock, ok := parseStock(row.Stock)
		if !ok {
			s.skip(result, metrics.OutcomeInvalid)
			result.Errors = append(result.Errors, RowError{Line: row.Line, Name: row.Name, Message: "stock must be a non-negative integer"})
			continue
		}

		existing, err := products.FindByName(ctx, row.Name)
		if err != nil {
			return result, upstream(ctx, "Failed to import CSV", err)
		}
		if existing != nil {
			s.duplicate(result, row.Name, existing.ID)
			continue
		}

		p := &model.Product{
			Name:     row.Name,
			Unit:     row.Unit,
			Category: row.Category,
			Brand:    row.Brand,
			Stock:    stock,
			ImageURL: row.ImageURL,
		}
		if err := s.products.createWithHistory(ctx, p, model.SourceCSVImport); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				// Lost a race with a concurrent insert of the same name.
				if other, _ := products.FindByName(ctx, row.Name); other != nil {
					s.duplicate(result, row.Name, other.ID)
					continue
				}
			}
			log.Error("csv import row failed", "line", row.Line, "name", row.Name, "error", err)
			s.skip(result, metrics.OutcomeFailed)
			result.Errors = append(result.Errors, RowError{Line: row.Line, Name: row.Name, Message: "could not be stored"})
			continue
		}

		result.Added++
		s.metrics.RecordImportRow(metrics.OutcomeAdded)
	}

	log.Info("csv import completed", "added", result.Added, "skipped", result.Skipped, "duplicates", len(result.Duplicates))
	return result, nil
}

func (s *TransferService) skip(result *ImportResult, outcome string) {
	result.Skipped++
	s.metrics.RecordImportRow(outcome)
}

func (s *TransferService) duplicate(result *ImportResult, name string, existingID int64) {
	result.Duplicates = append(result.Duplicates, Duplicate{Name: name, ExistingID: existingID})
	s.skip(result, metrics.OutcomeDuplicate)
}

// parseStock treats an empty value as 0.
func parseStock(raw string) (int64, bool) {
	if raw == "" {
		return 0, true
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// ExportProducts renders every product, newest first, as CSV.
func (s *TransferService) ExportProducts(ctx context.Context) ([]byte, error) {
	products, err := s.products.store.Repositories().Products.ListAll(ctx)
	if err != nil {
		return nil, upstream(ctx, "Failed to export CSV", err)
	}
	if len(products) == 0 {
		return nil, apierror.NotFound("No products found")
	}

	var buf bytes.Buffer
	if err := WriteProductsCSV(&buf, products); err != nil {
		return nil, upstream(ctx, "Failed to export CSV", err)
	}
	return buf.Bytes(), nil
}
