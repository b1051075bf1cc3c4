package jobs

import (
	"errors"
	"fmt"
)

// ErrMissingArtifactURL is returned by the enrich flow when the caller
// supplies an empty archived artifact URL. No model call is made.
var ErrMissingArtifactURL = errors.New("archived artifact url is required")

// ErrJobNotFound is returned by job stores when no record matches the
// requested id.
var ErrJobNotFound = errors.New("job not found")

// FetchError reports a failed page or artifact fetch: connection
// refusal, TLS failure, timeout, or a non-success status. It is fatal
// to the scrape flow when raised during the initial page fetch.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// UploadError reports a failed artifact archive step. It is non-fatal
// to the scrape flow: the orchestrator logs it and creates the record
// with an empty archived artifact URL.
type UploadError struct {
	Key string
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("archive %s: %v", e.Key, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// EnrichmentError reports a failed enrich flow: missing service
// credentials, an unreachable archived PDF, or an unparseable model
// response. The previously persisted enrichment, if any, is untouched.
type EnrichmentError struct {
	Reason string
	Err    error
}

func (e *EnrichmentError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("enrichment: %s", e.Reason)
	}
	return fmt.Sprintf("enrichment: %s: %v", e.Reason, e.Err)
}

func (e *EnrichmentError) Unwrap() error { return e.Err }
