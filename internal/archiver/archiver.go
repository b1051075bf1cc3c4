// Package archiver copies advertisement PDFs into durable blob storage.
package archiver

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/jobtrack-pipeline/internal/jobs"
)

// versionSegment matches the store-internal version path some
// providers inject into returned URLs (e.g. "/v1712345678/").
var versionSegment = regexp.MustCompile(`/v\d+/`)

// Config controls where artifacts land.
type Config struct {
	// Prefix is the folder/key prefix inside the bucket.
	Prefix string
	// ContentType is sent with the upload.
	ContentType string
}

// Archiver downloads a source PDF and uploads it to the blob store.
type Archiver struct {
	fetcher jobs.Fetcher
	blobs   jobs.BlobStore
	clock   jobs.Clock
	cfg     Config
	logger  *zap.Logger
}

// New constructs an Archiver.
func New(fetcher jobs.Fetcher, blobs jobs.BlobStore, clock jobs.Clock, cfg Config, logger *zap.Logger) *Archiver {
	if cfg.Prefix == "" {
		cfg.Prefix = "job_raw_files"
	}
	if cfg.ContentType == "" {
		cfg.ContentType = "application/pdf"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archiver{
		fetcher: fetcher,
		blobs:   blobs,
		clock:   clock,
		cfg:     cfg,
		logger:  logger,
	}
}

// Archive downloads the PDF at pdfURL and uploads it under a generated
// key with a forced ".pdf" extension, returning the normalized durable
// URL. An empty pdfURL is a no-op, not an error. Callers treat any
// returned error as non-fatal to the surrounding scrape flow.
func (a *Archiver) Archive(ctx context.Context, pdfURL string) (string, error) {
	if pdfURL == "" {
		return "", nil
	}

	a.logger.Info("downloading advertisement pdf", zap.String("url", pdfURL))
	data, err := a.fetcher.Fetch(ctx, pdfURL)
	if err != nil {
		return "", &jobs.UploadError{Key: pdfURL, Err: fmt.Errorf("download source pdf: %w", err)}
	}

	key := fmt.Sprintf("%s/job_ad_%d.pdf", a.cfg.Prefix, a.clock.Now().UnixMilli())
	a.logger.Info("uploading artifact", zap.String("key", key), zap.Int("bytes", len(data)))

	rawURL, err := a.blobs.PutObject(ctx, key, a.cfg.ContentType, data)
	if err != nil {
		return "", &jobs.UploadError{Key: key, Err: err}
	}

	return NormalizeArtifactURL(rawURL), nil
}

// NormalizeArtifactURL strips any store-internal version segment from
// the returned URL and guarantees a ".pdf" suffix.
func NormalizeArtifactURL(u string) string {
	u = versionSegment.ReplaceAllString(u, "/")
	if !strings.HasSuffix(u, ".pdf") {
		u += ".pdf"
	}
	return u
}
