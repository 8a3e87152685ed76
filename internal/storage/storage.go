// Package storage re-hosts external media in a Google Cloud Storage
// bucket under deterministic object paths.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"homeguides/server/config"
)

// Uploader copies a remote file to durable storage and returns its public
// URL. Implementations must be idempotent for a fixed destination path.
type Uploader interface {
	UploadFromURL(ctx context.Context, srcURL, destPath string) (string, error)
}

// GCSUploader streams downloads into a public GCS bucket.
type GCSUploader struct {
	bucket string
	client *gcs.Client
	http   *resty.Client
	logger *logrus.Logger
}

// NewGCSUploader opens the bucket using ambient credentials. The download
// side shares the Airtable retry policy since attachment URLs live on the
// same infrastructure.
func NewGCSUploader(ctx context.Context, cfg config.StorageConfig, at config.AirtableConfig, logger *logrus.Logger) (*GCSUploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	if logger == nil {
		logger = logrus.New()
	}
	http := resty.New().
		SetTimeout(at.FetchTimeout).
		SetRetryCount(at.MaxRetries).
		SetRetryWaitTime(at.RetryDelay)
	return &GCSUploader{
		bucket: cfg.Bucket,
		client: client,
		http:   http,
		logger: logger,
	}, nil
}

// UploadFromURL downloads srcURL and writes it to destPath in the bucket,
// returning the public object URL. Re-running with the same destination
// overwrites the object in place, so repeated imports converge on one
// copy.
func (u *GCSUploader) UploadFromURL(ctx context.Context, srcURL, destPath string) (string, error) {
	resp, err := u.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(srcURL)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", srcURL, err)
	}
	body := resp.RawBody()
	defer body.Close()
	if resp.StatusCode() >= 400 {
		return "", fmt.Errorf("download of %s returned %d", srcURL, resp.StatusCode())
	}

	obj := u.client.Bucket(u.bucket).Object(destPath)
	w := obj.NewWriter(ctx)
	w.ContentType = contentTypeFor(destPath)
	w.CacheControl = "public, max-age=86400"

	if _, err := io.Copy(w, body); err != nil {
		w.Close()
		return "", fmt.Errorf("failed to write %s: %w", destPath, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize %s: %w", destPath, err)
	}

	u.logger.WithFields(logrus.Fields{
		"object": destPath,
		"bucket": u.bucket,
	}).Debug("Uploaded object")
	return u.PublicURL(destPath), nil
}

// Delete removes one object; missing objects are not an error.
func (u *GCSUploader) Delete(ctx context.Context, destPath string) error {
	err := u.client.Bucket(u.bucket).Object(destPath).Delete(ctx)
	if err != nil && err != gcs.ErrObjectNotExist {
		return fmt.Errorf("failed to delete %s: %w", destPath, err)
	}
	return nil
}

// PublicURL renders the canonical public URL for an object path.
func (u *GCSUploader) PublicURL(destPath string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", u.bucket, destPath)
}

// Close releases the underlying client.
func (u *GCSUploader) Close() error {
	return u.client.Close()
}

func contentTypeFor(p string) string {
	switch strings.ToLower(path.Ext(p)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".pdf":
		return "application/pdf"
	case ".mp4":
		return "video/mp4"
	default:
		return "application/octet-stream"
	}
}

// ExtFor guesses a file extension from a source URL, defaulting to .jpg
// for extensionless attachment links.
func ExtFor(srcURL string) string {
	clean := srcURL
	if i := strings.IndexAny(clean, "?#"); i >= 0 {
		clean = clean[:i]
	}
	ext := strings.ToLower(path.Ext(clean))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".pdf", ".mp4":
		return ext
	default:
		return ".jpg"
	}
}
