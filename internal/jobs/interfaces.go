package jobs

import (
	"context"
	"time"
)

// JobStore persists job postings. Concurrency discipline is the
// caller's responsibility; the store itself is last-writer-wins.
type JobStore interface {
	// CreateJob inserts the posting and returns it with store-assigned
	// timestamps.
	CreateJob(ctx context.Context, job JobPosting) (JobPosting, error)
	// GetJob fetches a posting by ID.
	GetJob(ctx context.Context, id string) (JobPosting, error)
	// UpdateEnrichment replaces the posting's enrichment wholesale and
	// returns the updated record.
	UpdateEnrichment(ctx context.Context, id string, enr Enrichment) (JobPosting, error)
}

// BlobStore writes raw artifacts and returns a stable URL.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Fetcher performs an outbound GET and returns the body bytes.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Extractor derives an Enrichment triple from an archived PDF URL.
type Extractor interface {
	Extract(ctx context.Context, pdfURL string) (Enrichment, error)
}

// Publisher pushes completion events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces record IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
