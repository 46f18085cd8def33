// Package gcs stores saxophone photos in a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	gcstorage "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/truetone/api/internal/storage"
)

// Config holds bucket settings
type Config struct {
	Bucket string
	// PublicBaseURL overrides https://storage.googleapis.com, e.g. a CDN
	// domain or an emulator address.
	PublicBaseURL string
}

// Storage implements storage.Storage on a GCS bucket
type Storage struct {
	client        *gcstorage.Client
	bucket        string
	publicBaseURL string
	logger        *slog.Logger
}

// New creates a GCS-backed store using application default credentials.
// STORAGE_EMULATOR_HOST is honored by the client library.
func New(ctx context.Context, cfg Config, logger *slog.Logger, opts ...option.ClientOption) (*Storage, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("gcs: bucket is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts = append(opts, option.WithScopes(gcstorage.ScopeReadWrite))
	client, err := gcstorage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs: create client: %w", err)
	}

	logger.Info("object storage initialized",
		slog.String("backend", "gcs"),
		slog.String("bucket", cfg.Bucket),
		slog.String("public_base_url", cfg.PublicBaseURL),
	)

	return &Storage{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/"),
		logger:        logger,
	}, nil
}

// Upload writes the object and returns its public URL
func (s *Storage) Upload(ctx context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(input.Key).NewWriter(ctx)
	if input.ContentType != "" {
		w.ContentType = input.ContentType
	}
	if _, err := io.Copy(w, input.Data); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("gcs: write %q: %w", input.Key, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gcs: close writer %q: %w", input.Key, err)
	}

	return &storage.UploadResult{
		Key: input.Key,
		URL: s.publicURL(input.Key),
	}, nil
}

// Delete removes an object
func (s *Storage) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.client.Bucket(s.bucket).Object(key).Delete(ctx); err != nil {
		if errors.Is(err, gcstorage.ErrObjectNotExist) {
			return fmt.Errorf("%w: %s", storage.ErrNotFound, key)
		}
		return fmt.Errorf("gcs: delete %q in bucket %q: %w", key, s.bucket, err)
	}
	return nil
}

// GetURL returns the public URL of an existing object
func (s *Storage) GetURL(ctx context.Context, key string) (string, error) {
	if _, err := s.client.Bucket(s.bucket).Object(key).Attrs(ctx); err != nil {
		if errors.Is(err, gcstorage.ErrObjectNotExist) {
			return "", fmt.Errorf("%w: %s", storage.ErrNotFound, key)
		}
		return "", fmt.Errorf("gcs: attrs %q: %w", key, err)
	}
	return s.publicURL(key), nil
}

// Close releases the client
func (s *Storage) Close() error {
	return s.client.Close()
}

func (s *Storage) publicURL(key string) string {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if s.publicBaseURL != "" {
		return fmt.Sprintf("%s/%s/%s", s.publicBaseURL, s.bucket, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, key)
}
