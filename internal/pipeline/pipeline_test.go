package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JakeFAU/jobtrack-pipeline/internal/jobs"
	"github.com/JakeFAU/jobtrack-pipeline/internal/publisher/memory"
	memstore "github.com/JakeFAU/jobtrack-pipeline/internal/storage/memory"
)

const noticePage = `<html><body>
<p>[Deadline: 2026-01-31]</p>
<a href="/docs/notice.pdf">Download Advertisement</a>
</body></html>`

type stubFetcher struct {
	body []byte
	err  error
}

func (f *stubFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.body, nil
}

type stubArchiver struct {
	url   string
	err   error
	calls []string
}

func (a *stubArchiver) Archive(_ context.Context, pdfURL string) (string, error) {
	a.calls = append(a.calls, pdfURL)
	if a.err != nil {
		return "", a.err
	}
	return a.url, nil
}

type stubExtractor struct {
	enrichment jobs.Enrichment
	err        error
	calls      int
}

func (e *stubExtractor) Extract(_ context.Context, pdfURL string) (jobs.Enrichment, error) {
	e.calls++
	if e.err != nil {
		return jobs.Enrichment{}, e.err
	}
	return e.enrichment, nil
}

type staticID struct{ id string }

func (s staticID) NewID() (string, error) { return s.id, nil }

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

func newTestPipeline(f jobs.Fetcher, a Archiver, e jobs.Extractor, s jobs.JobStore, p jobs.Publisher) *Pipeline {
	return New(f, a, e, s, p, staticID{id: "job-1"}, fixedClock{at: time.Unix(1700000000, 0)},
		Config{Topic: "jobtrack-events"}, nil)
}

func TestScrapeCreatesJobWithArtifact(t *testing.T) {
	t.Parallel()

	store := memstore.NewJobStore()
	pub := memory.New()
	arch := &stubArchiver{url: "https://cdn.example.com/job_ad_1.pdf"}
	p := newTestPipeline(&stubFetcher{body: []byte(noticePage)}, arch, &stubExtractor{}, store, pub)

	created, err := p.Scrape(context.Background(), jobs.ScrapeRequest{
		SourceURL:    "https://jobs.example.gov/notice/42",
		Organization: "Example Org",
		Position:     "Officer",
		OwnerID:      "owner-1",
	})
	if err != nil {
		t.Fatalf("Scrape returned error: %v", err)
	}
	if created.ID != "job-1" {
		t.Errorf("job ID = %q, want %q", created.ID, "job-1")
	}
	if created.DeadlineText != "2026-01-31" {
		t.Errorf("DeadlineText = %q, want %q", created.DeadlineText, "2026-01-31")
	}
	if created.AdvertisementLink != "https://jobs.example.gov/docs/notice.pdf" {
		t.Errorf("AdvertisementLink = %q", created.AdvertisementLink)
	}
	if created.ArchivedArtifactURL != "https://cdn.example.com/job_ad_1.pdf" {
		t.Errorf("ArchivedArtifactURL = %q", created.ArchivedArtifactURL)
	}
	if len(arch.calls) != 1 || arch.calls[0] != "https://jobs.example.gov/docs/notice.pdf" {
		t.Errorf("archiver calls = %v", arch.calls)
	}
	if got, err := store.GetJob(context.Background(), "job-1"); err != nil || got.SourceURL != created.SourceURL {
		t.Errorf("stored job = %+v, err = %v", got, err)
	}
	events := pub.Events()
	if len(events) != 1 || events[0].Topic != "jobtrack-events" {
		t.Errorf("published events = %+v", events)
	}
}

func TestScrapeArchiveFailureStillCreatesJob(t *testing.T) {
	t.Parallel()

	store := memstore.NewJobStore()
	arch := &stubArchiver{err: &jobs.UploadError{Key: "job_raw_files/job_ad_1.pdf", Err: errors.New("bucket unavailable")}}
	p := newTestPipeline(&stubFetcher{body: []byte(noticePage)}, arch, &stubExtractor{}, store, memory.New())

	created, err := p.Scrape(context.Background(), jobs.ScrapeRequest{SourceURL: "https://jobs.example.gov/notice/42", OwnerID: "owner-1"})
	if err != nil {
		t.Fatalf("Scrape returned error: %v", err)
	}
	if created.ArchivedArtifactURL != "" {
		t.Errorf("ArchivedArtifactURL = %q, want empty", created.ArchivedArtifactURL)
	}
	if created.AdvertisementLink == "" {
		t.Error("AdvertisementLink should survive an archive failure")
	}
	if _, err := store.GetJob(context.Background(), "job-1"); err != nil {
		t.Errorf("job should be persisted despite archive failure: %v", err)
	}
}

func TestScrapeFetchFailureCreatesNoRecord(t *testing.T) {
	t.Parallel()

	store := memstore.NewJobStore()
	fetchErr := &jobs.FetchError{URL: "https://jobs.example.gov/notice/42", Err: errors.New("connection refused")}
	p := newTestPipeline(&stubFetcher{err: fetchErr}, &stubArchiver{}, &stubExtractor{}, store, memory.New())

	_, err := p.Scrape(context.Background(), jobs.ScrapeRequest{SourceURL: "https://jobs.example.gov/notice/42"})
	var fe *jobs.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want FetchError", err)
	}
	if _, err := store.GetJob(context.Background(), "job-1"); !errors.Is(err, jobs.ErrJobNotFound) {
		t.Errorf("GetJob err = %v, want ErrJobNotFound", err)
	}
}

func TestScrapeRequiresSourceURL(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(&stubFetcher{}, &stubArchiver{}, &stubExtractor{}, memstore.NewJobStore(), memory.New())
	if _, err := p.Scrape(context.Background(), jobs.ScrapeRequest{}); err == nil {
		t.Fatal("expected error for missing source url")
	}
}

func TestEnrichPersistsAndPublishes(t *testing.T) {
	t.Parallel()

	store := memstore.NewJobStore()
	seed, err := store.CreateJob(context.Background(), jobs.JobPosting{ID: "job-1", OwnerID: "owner-1", SourceURL: "https://jobs.example.gov/notice/42"})
	if err != nil {
		t.Fatalf("seed job: %v", err)
	}
	pub := memory.New()
	ext := &stubExtractor{enrichment: jobs.Enrichment{Fee: "500 BDT", AgeLimit: "18-30", Education: "Bachelor"}}
	p := newTestPipeline(&stubFetcher{}, &stubArchiver{}, ext, store, pub)

	got, err := p.Enrich(context.Background(), jobs.EnrichRequest{JobID: seed.ID, PDFURL: "https://cdn.example.com/job_ad_1.pdf"})
	if err != nil {
		t.Fatalf("Enrich returned error: %v", err)
	}
	if got != ext.enrichment {
		t.Errorf("enrichment = %+v, want %+v", got, ext.enrichment)
	}
	stored, err := store.GetJob(context.Background(), seed.ID)
	if err != nil || stored.Enrichment == nil || *stored.Enrichment != ext.enrichment {
		t.Errorf("stored enrichment = %+v, err = %v", stored.Enrichment, err)
	}
	if events := pub.Events(); len(events) != 1 {
		t.Errorf("published events = %+v", events)
	}
}

func TestEnrichRejectsEmptyArtifactURLBeforeModelCall(t *testing.T) {
	t.Parallel()

	ext := &stubExtractor{}
	p := newTestPipeline(&stubFetcher{}, &stubArchiver{}, ext, memstore.NewJobStore(), memory.New())

	_, err := p.Enrich(context.Background(), jobs.EnrichRequest{JobID: "job-1"})
	if !errors.Is(err, jobs.ErrMissingArtifactURL) {
		t.Fatalf("err = %v, want ErrMissingArtifactURL", err)
	}
	if ext.calls != 0 {
		t.Errorf("extractor called %d times, want 0", ext.calls)
	}
}

func TestEnrichExtractFailureLeavesStoreUntouched(t *testing.T) {
	t.Parallel()

	store := memstore.NewJobStore()
	if _, err := store.CreateJob(context.Background(), jobs.JobPosting{ID: "job-1", OwnerID: "owner-1"}); err != nil {
		t.Fatalf("seed job: %v", err)
	}
	ext := &stubExtractor{err: &jobs.EnrichmentError{Reason: "model response missing required keys"}}
	p := newTestPipeline(&stubFetcher{}, &stubArchiver{}, ext, store, memory.New())

	_, err := p.Enrich(context.Background(), jobs.EnrichRequest{JobID: "job-1", PDFURL: "https://cdn.example.com/job_ad_1.pdf"})
	var ee *jobs.EnrichmentError
	if !errors.As(err, &ee) {
		t.Fatalf("err = %v, want EnrichmentError", err)
	}
	stored, err := store.GetJob(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if stored.Enrichment != nil {
		t.Errorf("enrichment = %+v, want nil after failed extraction", stored.Enrichment)
	}
}

func TestEnrichRepeatReplacesWholesale(t *testing.T) {
	t.Parallel()

	store := memstore.NewJobStore()
	if _, err := store.CreateJob(context.Background(), jobs.JobPosting{ID: "job-1", OwnerID: "owner-1"}); err != nil {
		t.Fatalf("seed job: %v", err)
	}
	ext := &stubExtractor{enrichment: jobs.Enrichment{Fee: "500 BDT", AgeLimit: "18-30", Education: "Bachelor"}}
	p := newTestPipeline(&stubFetcher{}, &stubArchiver{}, ext, store, memory.New())

	req := jobs.EnrichRequest{JobID: "job-1", PDFURL: "https://cdn.example.com/job_ad_1.pdf"}
	if _, err := p.Enrich(context.Background(), req); err != nil {
		t.Fatalf("first Enrich: %v", err)
	}

	ext.enrichment = jobs.Enrichment{Fee: jobs.SentinelNotSpecified, AgeLimit: "21-35", Education: "Masters"}
	if _, err := p.Enrich(context.Background(), req); err != nil {
		t.Fatalf("second Enrich: %v", err)
	}

	stored, err := store.GetJob(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if stored.Enrichment == nil || *stored.Enrichment != ext.enrichment {
		t.Errorf("stored enrichment = %+v, want %+v", stored.Enrichment, ext.enrichment)
	}
}
