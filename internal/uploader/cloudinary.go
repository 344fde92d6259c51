package uploader

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// CloudinaryConfig holds credentials for the Cloudinary upload API.
type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
	BaseURL   string // defaults to https://api.cloudinary.com
	Timeout   time.Duration
}

// CloudinaryUploader uploads images with Cloudinary's signed upload API.
type CloudinaryUploader struct {
	client *resty.Client
	cfg    CloudinaryConfig
	now    func() time.Time
}

type cloudinaryResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
}

type cloudinaryError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// NewCloudinaryUploader creates an uploader with a preconfigured HTTP client.
func NewCloudinaryUploader(cfg CloudinaryConfig) *CloudinaryUploader {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.cloudinary.com"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(0)

	return &CloudinaryUploader{client: client, cfg: cfg, now: time.Now}
}

// Upload sends localPath as a multipart upload.
func (u *CloudinaryUploader) Upload(ctx context.Context, localPath string) (*UploadResult, error) {
	if localPath == "" {
		return nil, ErrEmptyPath
	}

	params := map[string]string{
		"timestamp": strconv.FormatInt(u.now().Unix(), 10),
	}
	if u.cfg.Folder != "" {
		params["folder"] = u.cfg.Folder
	}
	form := map[string]string{
		"api_key":   u.cfg.APIKey,
		"signature": Sign(params, u.cfg.APISecret),
	}
	for k, v := range params {
		form[k] = v
	}

	var (
		out     cloudinaryResponse
		failure cloudinaryError
	)
	resp, err := u.client.R().
		SetContext(ctx).
		SetFile("file", localPath).
		SetFormData(form).
		SetResult(&out).
		SetError(&failure).
		Post("/v1_1/" + u.cfg.CloudName + "/image/upload")
	if err != nil {
		return nil, fmt.Errorf("cloudinary upload failed: %w", err)
	}
	if resp.IsError() {
		slog.Warn("cloudinary rejected upload",
			"component", "CloudinaryUploader", "status", resp.StatusCode(), "error", failure.Error.Message)
		return nil, fmt.Errorf("cloudinary upload failed: status %d: %s", resp.StatusCode(), failure.Error.Message)
	}
	if out.SecureURL == "" {
		return nil, fmt.Errorf("cloudinary upload failed: empty secure_url")
	}

	return &UploadResult{SecureURL: out.SecureURL, PublicID: out.PublicID}, nil
}

// Sign computes a Cloudinary request signature: the params sorted by key,
// joined as k=v with &, followed by the secret, SHA-1 hex encoded.
func Sign(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}

	sum := sha1.Sum([]byte(strings.Join(parts, "&") + secret))
	return hex.EncodeToString(sum[:])
}

var _ Uploader = (*CloudinaryUploader)(nil)
