package uploader

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"inventory-rest-api/pkg/uid"
)

// LocalUploader copies images into a directory that the HTTP server
// exposes under baseURL.
type LocalUploader struct {
	dir     string
	baseURL string
}

// NewLocalUploader creates the target directory if needed.
func NewLocalUploader(dir, baseURL string) (*LocalUploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalUploader{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir returns the directory images are stored in.
func (u *LocalUploader) Dir() string {
	return u.dir
}

// Upload copies localPath to a new uuid-named file, keeping the extension.
func (u *LocalUploader) Upload(ctx context.Context, localPath string) (*UploadResult, error) {
	if localPath == "" {
		return nil, ErrEmptyPath
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer src.Close()

	publicID := uid.New()
	name := publicID + strings.ToLower(filepath.Ext(localPath))

	dst, err := os.Create(filepath.Join(u.dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to create image: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return nil, fmt.Errorf("failed to copy image: %w", err)
	}
	if err := dst.Close(); err != nil {
		return nil, fmt.Errorf("failed to write image: %w", err)
	}

	return &UploadResult{
		SecureURL: u.baseURL + "/" + name,
		PublicID:  publicID,
	}, nil
}

var _ Uploader = (*LocalUploader)(nil)
