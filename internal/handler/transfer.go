package handler

import (
	"net/http"
	"strconv"

	"inventory-rest-api/internal/service"
	"inventory-rest-api/pkg/apierror"
	"inventory-rest-api/pkg/response"
)

// ExportFilename is the attachment name of CSV exports.
const ExportFilename = "products_export.csv"

// TransferHandler handles CSV import and export.
type TransferHandler struct {
	transfer *service.TransferService
	upload   UploadConfig
}

// NewTransferHandler creates a new transfer handler.
func NewTransferHandler(transfer *service.TransferService, upload UploadConfig) *TransferHandler {
	return &TransferHandler{transfer: transfer, upload: upload}
}

// Import handles POST /api/products/import (multipart "file").
func (h *TransferHandler) Import(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r, h.upload); err != nil {
		response.Error(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	path, err := saveUpload(r, "file", h.upload)
	if err != nil {
		response.Error(w, err)
		return
	}
	if path == "" {
		response.Error(w, apierror.ValidationError("CSV file is required",
			apierror.FieldError{Field: "file", Message: "is required"}))
		return
	}

	result, err := h.transfer.ImportFile(r.Context(), path)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, "Import completed", result)
}

// Export handles GET /api/products/export
func (h *TransferHandler) Export(w http.ResponseWriter, r *http.Request) {
	data, err := h.transfer.ExportProducts(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+ExportFilename)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
