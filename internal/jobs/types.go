// Package jobs defines core types shared across subsystems.
package jobs

import "time"

// Status represents the application lifecycle state of a posting.
// It is set to StatusPending on creation and mutated only by the
// external CRUD surface, never by the scrape or enrich flows.
type Status string

// Status values persisted in the job store.
const (
	StatusPending   Status = "Pending"
	StatusApplied   Status = "Applied"
	StatusInterview Status = "Interview"
	StatusRejected  Status = "Rejected"
)

// SentinelNotSpecified is the literal the model contract uses for a
// field it could not find in the document.
const SentinelNotSpecified = "Not specified"

// Enrichment is the triple derived from an advertisement PDF by the
// generative-model call. It is written atomically: either all three
// fields are present or the record carries no enrichment at all.
type Enrichment struct {
	Fee       string `json:"fee"`
	AgeLimit  string `json:"ageLimit"`
	Education string `json:"education"`
}

// JobPosting is the record produced by the scrape flow and mutated by
// the enrich flow.
type JobPosting struct {
	ID           string `json:"id"`
	OwnerID      string `json:"owner_id"`
	Organization string `json:"organization"`
	Position     string `json:"position"`

	// SourceURL is the page that was scraped; immutable after creation.
	SourceURL string `json:"source_url"`

	// DeadlineText is a free-form display string. It is never reparsed
	// into a structured date by this pipeline.
	DeadlineText string `json:"deadline_text"`

	// AdvertisementLink is the resolved absolute candidate PDF URL
	// discovered on the page; may be empty.
	AdvertisementLink string `json:"advertisement_link"`

	// ArchivedArtifactURL is the durable URL of the archived PDF, or
	// empty when archiving failed or no PDF was found. When non-empty
	// it is an absolute URL ending in ".pdf".
	ArchivedArtifactURL string `json:"archived_artifact_url"`

	Enrichment *Enrichment `json:"enrichment,omitempty"`
	Status     Status      `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// PageDetails is the result of parsing a notice page.
type PageDetails struct {
	// DeadlineText is the captured deadline span, or "Unknown Deadline".
	DeadlineText string
	// PDFLink is the selected anchor href, possibly relative, or "".
	PDFLink string
}

// ScrapeRequest carries everything needed to run the scrape flow.
type ScrapeRequest struct {
	SourceURL    string
	Organization string
	Position     string
	OwnerID      string
}

// EnrichRequest carries everything needed to run the enrich flow.
type EnrichRequest struct {
	JobID  string
	PDFURL string
}

// Event is published after a flow completes.
type Event struct {
	Kind        string    `json:"kind"`
	JobID       string    `json:"job_id"`
	SourceURL   string    `json:"source_url,omitempty"`
	ArtifactURL string    `json:"artifact_url,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Event kinds emitted by the orchestrator.
const (
	EventJobScraped  = "job.scraped"
	EventJobEnriched = "job.enriched"
)
