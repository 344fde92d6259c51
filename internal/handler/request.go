package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"inventory-rest-api/internal/service"
	"inventory-rest-api/pkg/apierror"
)

const (
	maxJSONBody  = 1 << 20
	multipartMem = 8 << 20
)

// UploadConfig controls where multipart files are staged.
type UploadConfig struct {
	TmpDir   string
	MaxBytes int64
}

// decodeJSON reads a JSON body of at most maxJSONBody bytes into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apierror.BadRequest("Request body is required")
		}
		return apierror.BadRequest("Invalid request body")
	}
	return nil
}

// parseMultipart parses a multipart form within the configured size limit.
func parseMultipart(w http.ResponseWriter, r *http.Request, cfg UploadConfig) error {
	if cfg.MaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxBytes)
	}
	if err := r.ParseMultipartForm(multipartMem); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apierror.BadRequest("Upload exceeds " + strconv.FormatInt(tooLarge.Limit, 10) + " bytes")
		}
		return apierror.BadRequest("Invalid multipart form")
	}
	return nil
}

// saveUpload copies the multipart file in field to a temp file and returns
// its path, or "" when the field is absent. The caller owns the file.
func saveUpload(r *http.Request, field string, cfg UploadConfig) (string, error) {
	src, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", apierror.BadRequest("Invalid " + field + " upload")
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	dst, err := os.CreateTemp(cfg.TmpDir, service.UploadPattern+ext)
	if err != nil {
		return "", apierror.InternalError("").WithCause(err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", apierror.InternalError("").WithCause(err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", apierror.InternalError("").WithCause(err)
	}
	return dst.Name(), nil
}

// queryInt returns the integer query parameter, or 0 when absent or invalid.
func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}

// optionalInt decodes a JSON number, a numeric string, "" or null.
// Set is false for "" and null.
type optionalInt struct {
	Value int64
	Set   bool
	Valid bool
}

func (o *optionalInt) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
		if raw == "" {
			return nil
		}
	}
	o.Set = true
	n, err := strconv.ParseInt(raw, 10, 64)
	if err == nil {
		o.Value, o.Valid = n, true
	}
	return nil
}

func (o optionalInt) ptr() *int64 {
	if !o.Set {
		return nil
	}
	v := o.Value
	return &v
}
