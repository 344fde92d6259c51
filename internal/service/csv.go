package service

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"inventory-rest-api/internal/model"
)

// ExportHeader is the column order of exported files.
var ExportHeader = []string{"id", "name", "unit", "category", "brand", "stock", "status", "imageUrl"}

// ErrNoNameColumn is returned when a CSV header lacks a name column.
var ErrNoNameColumn = errors.New("CSV header must include a name column")

// ImportRow is one data row of an import file, keyed by header name.
type ImportRow struct {
	Line     int
	Name     string
	Unit     string
	Category string
	Brand    string
	Stock    string
	ImageURL string
	Status   string
}

// RowSource yields import rows until io.EOF. It is read once.
type RowSource interface {
	Next() (ImportRow, error)
}

// CSVRowSource reads rows from a CSV stream whose first record is a header.
// Header names are matched case-insensitively; unknown columns are ignored.
type CSVRowSource struct {
	r       *csv.Reader
	columns map[string]int
}

// NewCSVRowSource reads the header from r.
func NewCSVRowSource(r io.Reader) (*CSVRowSource, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoNameColumn
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := columns[key]; !dup {
			columns[key] = i
		}
	}
	if _, ok := columns["name"]; !ok {
		return nil, ErrNoNameColumn
	}

	return &CSVRowSource{r: cr, columns: columns}, nil
}

// Next returns the next row, skipping blank lines.
func (s *CSVRowSource) Next() (ImportRow, error) {
	record, err := s.r.Read()
	if err != nil {
		return ImportRow{}, err
	}
	line, _ := s.r.FieldPos(0)

	return ImportRow{
		Line:     line,
		Name:     s.field(record, "name"),
		Unit:     s.field(record, "unit"),
		Category: s.field(record, "category"),
		Brand:    s.field(record, "brand"),
		Stock:    s.field(record, "stock"),
		ImageURL: s.field(record, "imageurl"),
		Status:   s.field(record, "status"),
	}, nil
}

func (s *CSVRowSource) field(record []string, name string) string {
	i, ok := s.columns[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// WriteProductsCSV writes the export header and one record per product.
// Values containing commas, quotes or newlines are quoted.
func WriteProductsCSV(w io.Writer, products []model.Product) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return err
	}
	for _, p := range products {
		record := []string{
			strconv.FormatInt(p.ID, 10),
			p.Name,
			p.Unit,
			p.Category,
			p.Brand,
			strconv.FormatInt(p.Stock, 10),
			string(p.Status),
			p.ImageURL,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
