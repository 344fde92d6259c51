// Package uploader moves product images from a local temp file to durable
// hosting and reports where they ended up.
package uploader

import (
	"context"
	"errors"
)

// ErrEmptyPath is returned when no local file was given.
var ErrEmptyPath = errors.New("uploader: empty file path")

// UploadResult describes a hosted image.
type UploadResult struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
}

// Uploader hosts a local file and returns its public location.
type Uploader interface {
	Upload(ctx context.Context, localPath string) (*UploadResult, error)
}
