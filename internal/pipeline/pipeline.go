// Package pipeline sequences the scrape and enrich flows.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/jobtrack-pipeline/internal/jobs"
	"github.com/JakeFAU/jobtrack-pipeline/internal/metrics"
)

// Archiver copies a source PDF into durable storage, returning the
// normalized artifact URL.
type Archiver interface {
	Archive(ctx context.Context, pdfURL string) (string, error)
}

// Config controls orchestrator behavior.
type Config struct {
	// Topic receives completion events; empty disables publishing.
	Topic string
}

// Pipeline runs the scrape and enrich flows against injected
// collaborators. Each invocation is one linear chain of sequential
// calls; operations on the same job id are serialized in-process.
type Pipeline struct {
	fetcher   jobs.Fetcher
	archiver  Archiver
	extractor jobs.Extractor
	store     jobs.JobStore
	publisher jobs.Publisher
	idGen     jobs.IDGenerator
	clock     jobs.Clock
	cfg       Config
	locks     *keyedLocks
	logger    *zap.Logger
}

// New constructs a Pipeline.
func New(
	fetcher jobs.Fetcher,
	archiver Archiver,
	extractor jobs.Extractor,
	store jobs.JobStore,
	publisher jobs.Publisher,
	idGen jobs.IDGenerator,
	clock jobs.Clock,
	cfg Config,
	logger *zap.Logger,
) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	return &Pipeline{
		fetcher:   fetcher,
		archiver:  archiver,
		extractor: extractor,
		store:     store,
		publisher: publisher,
		idGen:     idGen,
		clock:     clock,
		cfg:       cfg,
		locks:     newKeyedLocks(),
		logger:    logger,
	}
}

// Scrape runs Fetch -> Parse -> Resolve -> Archive -> Create. A fetch
// failure on the notice page aborts the flow with no record created;
// everything after the parse is best-effort and degrades to an empty
// archived artifact URL.
func (p *Pipeline) Scrape(ctx context.Context, req jobs.ScrapeRequest) (jobs.JobPosting, error) {
	if req.SourceURL == "" {
		return jobs.JobPosting{}, fmt.Errorf("source url is required")
	}

	p.logger.Info("scraping notice page", zap.String("url", req.SourceURL))
	body, err := p.fetcher.Fetch(ctx, req.SourceURL)
	if err != nil {
		metrics.ObserveScrape("fetch_failed")
		return jobs.JobPosting{}, err
	}

	details, err := jobs.ParsePage(string(body))
	if err != nil {
		metrics.ObserveScrape("parse_failed")
		return jobs.JobPosting{}, fmt.Errorf("parse notice page: %w", err)
	}

	link, err := jobs.ResolveLink(details.PDFLink, req.SourceURL)
	if err != nil {
		// The page itself fetched, so a bad base URL only costs us the
		// candidate link, not the record.
		p.logger.Warn("candidate link resolution failed", zap.String("link", details.PDFLink), zap.Error(err))
		link = ""
	}

	artifactURL, err := p.archiver.Archive(ctx, link)
	if err != nil {
		metrics.ObserveArchiveFailure()
		p.logger.Warn("artifact archive failed, continuing without artifact",
			zap.String("link", link), zap.Error(err))
		artifactURL = ""
	}

	id, err := p.idGen.NewID()
	if err != nil {
		metrics.ObserveScrape("store_failed")
		return jobs.JobPosting{}, fmt.Errorf("generate job id: %w", err)
	}

	created, err := p.store.CreateJob(ctx, jobs.JobPosting{
		ID:                  id,
		OwnerID:             req.OwnerID,
		Organization:        req.Organization,
		Position:            req.Position,
		SourceURL:           req.SourceURL,
		DeadlineText:        details.DeadlineText,
		AdvertisementLink:   link,
		ArchivedArtifactURL: artifactURL,
		Status:              jobs.StatusPending,
	})
	if err != nil {
		metrics.ObserveScrape("store_failed")
		return jobs.JobPosting{}, fmt.Errorf("create job: %w", err)
	}

	metrics.ObserveScrape("ok")
	p.publishEvent(ctx, jobs.Event{
		Kind:        jobs.EventJobScraped,
		JobID:       created.ID,
		SourceURL:   created.SourceURL,
		ArtifactURL: created.ArchivedArtifactURL,
		OccurredAt:  p.clock.Now(),
	})
	return created, nil
}

// Enrich runs Extract -> UpdateEnrichment under the job's lock. An
// empty artifact URL is rejected before any model call; an extraction
// failure leaves the persisted record untouched.
func (p *Pipeline) Enrich(ctx context.Context, req jobs.EnrichRequest) (jobs.Enrichment, error) {
	if req.JobID == "" {
		return jobs.Enrichment{}, fmt.Errorf("job id is required")
	}
	if req.PDFURL == "" {
		metrics.ObserveEnrichment("rejected")
		return jobs.Enrichment{}, jobs.ErrMissingArtifactURL
	}

	unlock := p.locks.Lock(req.JobID)
	defer unlock()

	enr, err := p.extractor.Extract(ctx, req.PDFURL)
	if err != nil {
		metrics.ObserveEnrichment("extract_failed")
		return jobs.Enrichment{}, err
	}

	if _, err := p.store.UpdateEnrichment(ctx, req.JobID, enr); err != nil {
		metrics.ObserveEnrichment("store_failed")
		return jobs.Enrichment{}, fmt.Errorf("update enrichment: %w", err)
	}

	metrics.ObserveEnrichment("ok")
	p.publishEvent(ctx, jobs.Event{
		Kind:       jobs.EventJobEnriched,
		JobID:      req.JobID,
		OccurredAt: p.clock.Now(),
	})
	return enr, nil
}

func (p *Pipeline) publishEvent(ctx context.Context, event jobs.Event) {
	if p.publisher == nil || p.cfg.Topic == "" {
		return
	}
	if _, err := p.publisher.Publish(ctx, p.cfg.Topic, event); err != nil {
		p.logger.Warn("event publish failed", zap.String("kind", event.Kind), zap.Error(err))
	}
}
