package service

import (
	"context"
	"errors"
	"math"
	"os"
	"strings"

	"inventory-rest-api/internal/logger"
	"inventory-rest-api/internal/metrics"
	"inventory-rest-api/internal/model"
	"inventory-rest-api/internal/repository"
	"inventory-rest-api/internal/uploader"
	"inventory-rest-api/pkg/apierror"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100

	msgProductNotFound  = "Product not found"
	msgDuplicateProduct = "Product name already exists! Try a different name."
)

// ProductInput holds the fields of a new product.
type ProductInput struct {
	Name     string `json:"name" validate:"required,max=255"`
	Unit     string `json:"unit" validate:"required,max=64"`
	Category string `json:"category" validate:"required,max=255"`
	Brand    string `json:"brand" validate:"required,max=255"`
	Stock    *int64 `json:"stock" validate:"required,gte=0"`
}

func (in ProductInput) normalized() ProductInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Unit = strings.TrimSpace(in.Unit)
	in.Category = strings.TrimSpace(in.Category)
	in.Brand = strings.TrimSpace(in.Brand)
	return in
}

// ProductPatch is a partial update. Nil or blank fields are not supplied.
type ProductPatch struct {
	Name     *string `json:"name"`
	Brand    *string `json:"brand"`
	Category *string `json:"category"`
	Unit     *string `json:"unit"`
	Stock    *int64  `json:"stock"`
}

// ListParams selects a page of products.
type ListParams struct {
	Page     int
	Limit    int
	Search   string
	Category string
}

// ProductPage is one page of products.
type ProductPage struct {
	Items      []model.Product `json:"items"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"totalPages"`
}

// ProductService implements the product operations. Every write that
// changes stock appends its history entry in the same transaction.
type ProductService struct {
	store    repository.Store
	uploader uploader.Uploader
	metrics  *metrics.Metrics
}

// NewProductService creates a new product service. m may be nil.
func NewProductService(store repository.Store, up uploader.Uploader, m *metrics.Metrics) *ProductService {
	return &ProductService{store: store, uploader: up, metrics: m}
}

// AddProduct validates the input, hosts the image and stores the product
// with its initial history entry. The temp image is always removed.
func (s *ProductService) AddProduct(ctx context.Context, in ProductInput, imagePath string) (*model.Product, error) {
	if imagePath != "" {
		defer removeTemp(ctx, imagePath)
	}

	in = in.normalized()
	if err := validateInput("All fields are required!", in); err != nil {
		return nil, err
	}
	if imagePath == "" {
		return nil, apierror.ValidationError("Image is required",
			apierror.FieldError{Field: "image", Message: "is required"})
	}

	existing, err := s.store.Repositories().Products.FindByName(ctx, in.Name)
	if err != nil {
		return nil, upstream(ctx, "Failed to add product", err)
	}
	if existing != nil {
		return nil, apierror.Conflict(msgDuplicateProduct)
	}

	image, err := s.uploader.Upload(ctx, imagePath)
	if err != nil {
		return nil, upstream(ctx, "Image upload failed", err)
	}

	p := &model.Product{
		Name:          in.Name,
		Unit:          in.Unit,
		Category:      in.Category,
		Brand:         in.Brand,
		Stock:         *in.Stock,
		ImageURL:      image.SecureURL,
		ImagePublicID: image.PublicID,
	}
	if err := s.createWithHistory(ctx, p, model.SourceAdmin); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apierror.Conflict(msgDuplicateProduct)
		}
		return nil, upstream(ctx, "Failed to add product", err)
	}

	logger.FromContext(ctx).Info("product added", "product_id", p.ID, "stock", p.Stock)
	return p, nil
}

// createWithHistory inserts p and its opening history entry (0 -> stock)
// in one transaction.
func (s *ProductService) createWithHistory(ctx context.Context, p *model.Product, source string) error {
	err := s.store.WithinTx(ctx, func(r repository.Repositories) error {
		if _, err := r.Products.Create(ctx, p); err != nil {
			return err
		}
		return appendHistory(ctx, r.History, &model.InventoryHistoryEntry{
			ProductID:   p.ID,
			OldQuantity: 0,
			NewQuantity: p.Stock,
			ChangeDate:  p.CreatedAt,
			Source:      source,
		})
	})
	if err != nil {
		return err
	}
	s.metrics.RecordStockChange(source)
	return nil
}

func appendHistory(ctx context.Context, repo repository.HistoryRepository, e *model.InventoryHistoryEntry) error {
	id, err := repo.Append(ctx, e)
	if err != nil {
		return apierror.Inconsistent("", err)
	}
	if id <= 0 {
		return apierror.Inconsistent("", errors.New("history append returned no id"))
	}
	return nil
}

// ListProducts returns one page, newest first. Page and limit below 1 fall
// back to the defaults and limit is capped at MaxLimit. A page whose offset
// would overflow is past the end and comes back empty.
func (s *ProductService) ListProducts(ctx context.Context, params ListParams) (*ProductPage, error) {
	if params.Page < 1 {
		params.Page = DefaultPage
	}
	if params.Limit < 1 {
		params.Limit = DefaultLimit
	}
	if params.Limit > MaxLimit {
		params.Limit = MaxLimit
	}

	filter := model.ProductFilter{
		Search:   params.Search,
		Category: params.Category,
		Limit:    params.Limit,
	}
	if params.Page-1 > math.MaxInt/params.Limit {
		filter.Limit = 0
	} else {
		filter.Offset = (params.Page - 1) * params.Limit
	}

	items, total, err := s.store.Repositories().Products.List(ctx, filter)
	if err != nil {
		return nil, upstream(ctx, "Failed to fetch products", err)
	}

	return &ProductPage{
		Items:      items,
		Total:      total,
		Page:       params.Page,
		Limit:      params.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(params.Limit))),
	}, nil
}

// UpdateProduct applies the supplied fields that differ from the stored
// product. A stock change appends one history entry.
func (s *ProductService) UpdateProduct(ctx context.Context, rawID string, patch ProductPatch) (*model.Product, error) {
	id, ok := parseID(rawID)
	if !ok {
		return nil, apierror.NotFound(msgProductNotFound)
	}
	if patch.Stock != nil && *patch.Stock < 0 {
		return nil, apierror.ValidationError("Stock must be a non-negative integer",
			apierror.FieldError{Field: "stock", Message: "must be at least 0"})
	}

	var (
		updated      *model.Product
		stockChanged bool
	)
	err := s.store.WithinTx(ctx, func(r repository.Repositories) error {
		existing, err := r.Products.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return apierror.NotFound(msgProductNotFound)
		}

		changes := diffProduct(existing, patch)
		if changes.Empty() {
			return apierror.ValidationError("No changes detected")
		}

		if changes.Name != nil {
			other, err := r.Products.FindByName(ctx, *changes.Name)
			if err != nil {
				return err
			}
			if other != nil && other.ID != id {
				return apierror.Conflict(msgDuplicateProduct)
			}
		}
		if changes.Stock != nil {
			status := model.StatusFor(*changes.Stock)
			changes.Status = &status
		}

		n, err := r.Products.Update(ctx, id, changes)
		if err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apierror.Conflict(msgDuplicateProduct)
			}
			return err
		}
		if n == 0 {
			return apierror.NotFound(msgProductNotFound)
		}

		if changes.Stock != nil {
			stockChanged = true
			if err := appendHistory(ctx, r.History, &model.InventoryHistoryEntry{
				ProductID:   id,
				OldQuantity: existing.Stock,
				NewQuantity: *changes.Stock,
				Source:      model.SourceAdmin,
			}); err != nil {
				return err
			}
		}

		updated, err = r.Products.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, upstream(ctx, "Failed to update product", err)
	}

	if stockChanged {
		s.metrics.RecordStockChange(model.SourceAdmin)
	}
	logger.FromContext(ctx).Info("product updated", "product_id", id, "stock_changed", stockChanged)
	return updated, nil
}

// diffProduct keeps only the supplied fields whose value differs.
func diffProduct(existing *model.Product, patch ProductPatch) model.ProductChanges {
	var changes model.ProductChanges
	changes.Name = changedString(patch.Name, existing.Name)
	changes.Brand = changedString(patch.Brand, existing.Brand)
	changes.Category = changedString(patch.Category, existing.Category)
	changes.Unit = changedString(patch.Unit, existing.Unit)
	if patch.Stock != nil && *patch.Stock != existing.Stock {
		stock := *patch.Stock
		changes.Stock = &stock
	}
	return changes
}

func changedString(in *string, current string) *string {
	if in == nil {
		return nil
	}
	v := strings.TrimSpace(*in)
	if v == "" || v == current {
		return nil
	}
	return &v
}

// DeleteProduct removes the product and returns its id. History is kept.
func (s *ProductService) DeleteProduct(ctx context.Context, rawID string) (int64, error) {
	id, ok := parseID(rawID)
	if !ok {
		return 0, apierror.ValidationError("Invalid or missing ID")
	}

	repos := s.store.Repositories()
	existing, err := repos.Products.GetByID(ctx, id)
	if err != nil {
		return 0, upstream(ctx, "Database error while checking product", err)
	}
	if existing == nil {
		return 0, apierror.NotFound(msgProductNotFound)
	}

	n, err := repos.Products.Delete(ctx, id)
	if err != nil {
		return 0, upstream(ctx, "Error deleting product", err)
	}
	if n == 0 {
		return 0, apierror.NotFound("Product not found or already deleted")
	}

	logger.FromContext(ctx).Info("product deleted", "product_id", id)
	return id, nil
}

// GetInventoryHistory returns the product's history, newest first. A
// product without entries yields an empty slice.
func (s *ProductService) GetInventoryHistory(ctx context.Context, rawID string) ([]model.InventoryHistoryEntry, error) {
	id, ok := parseID(rawID)
	if !ok {
		return nil, apierror.ValidationError("Invalid or missing ID")
	}

	entries, err := s.store.Repositories().History.ListByProduct(ctx, id)
	if err != nil {
		return nil, upstream(ctx, "Failed to fetch inventory history", err)
	}
	return entries, nil
}

func removeTemp(ctx context.Context, path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.FromContext(ctx).Warn("failed to remove temp file", "path", path, "error", err)
	}
}
