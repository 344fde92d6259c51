package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"inventory-rest-api/internal/service"
	"inventory-rest-api/pkg/apierror"
	"inventory-rest-api/pkg/response"
)

// ProductHandler handles product HTTP requests.
type ProductHandler struct {
	products *service.ProductService
	upload   UploadConfig
}

// NewProductHandler creates a new product handler.
func NewProductHandler(products *service.ProductService, upload UploadConfig) *ProductHandler {
	return &ProductHandler{products: products, upload: upload}
}

// Add handles POST /api/product/add (multipart: name, unit, category,
// brand, stock and an "image" file).
func (h *ProductHandler) Add(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r, h.upload); err != nil {
		response.Error(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	stock, err := formStock(r.FormValue("stock"))
	if err != nil {
		response.Error(w, err)
		return
	}

	imagePath, err := saveUpload(r, "image", h.upload)
	if err != nil {
		response.Error(w, err)
		return
	}

	product, err := h.products.AddProduct(r.Context(), service.ProductInput{
		Name:     r.FormValue("name"),
		Unit:     r.FormValue("unit"),
		Category: r.FormValue("category"),
		Brand:    r.FormValue("brand"),
		Stock:    stock,
	}, imagePath)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.Created(w, "Product Added Successfully!", product)
}

func formStock(raw string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, apierror.ValidationError("Stock must be a non-negative integer",
			apierror.FieldError{Field: "stock", Message: "must be an integer"})
	}
	return &n, nil
}

// List handles GET /api/product?page&limit&search&category
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.products.ListProducts(r.Context(), service.ListParams{
		Page:     queryInt(r, "page"),
		Limit:    queryInt(r, "limit"),
		Search:   q.Get("search"),
		Category: q.Get("category"),
	})
	if err != nil {
		response.Error(w, err)
		return
	}

	response.JSONWithMeta(w, http.StatusOK, "Products fetched successfully", page.Items, response.Meta{
		Page:       page.Page,
		Limit:      page.Limit,
		Total:      page.Total,
		TotalPages: page.TotalPages,
	})
}

type updateProductRequest struct {
	Name     *string     `json:"name"`
	Brand    *string     `json:"brand"`
	Category *string     `json:"category"`
	Unit     *string     `json:"unit"`
	Stock    optionalInt `json:"stock"`
}

// Update handles PATCH /api/product/{id}
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.Error(w, err)
		return
	}
	if req.Stock.Set && !req.Stock.Valid {
		response.Error(w, apierror.ValidationError("Stock must be a non-negative integer",
			apierror.FieldError{Field: "stock", Message: "must be an integer"}))
		return
	}

	product, err := h.products.UpdateProduct(r.Context(), chi.URLParam(r, "id"), service.ProductPatch{
		Name:     req.Name,
		Brand:    req.Brand,
		Category: req.Category,
		Unit:     req.Unit,
		Stock:    req.Stock.ptr(),
	})
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, "Product updated successfully", product)
}

// Delete handles DELETE /api/product/delete/{id}
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := h.products.DeleteProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, "Product deleted successfully", map[string]int64{"deletedId": id})
}

// History handles GET /api/products/{id}/history
func (h *ProductHandler) History(w http.ResponseWriter, r *http.Request) {
	entries, err := h.products.GetInventoryHistory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, "Inventory history fetched successfully", entries)
}
