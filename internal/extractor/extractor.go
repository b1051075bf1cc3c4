// Package extractor derives structured fields from archived PDFs via a
// generative-model call.
package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/jobtrack-pipeline/internal/jobs"
)

// extractionPrompt is the fixed instruction contract. The model must
// answer with a bare JSON object carrying exactly the three keys, using
// "Not specified" for anything absent from the document.
const extractionPrompt = `Analyze this job advertisement PDF from Bangladesh.
Extract the following information and return ONLY a valid JSON object without markdown formatting.
If a value is not found, return "Not specified".

Required Keys:
- "fee": The application fee (e.g., "223 BDT", "500 Tk").
- "ageLimit": The general age limit mentioned (e.g., "18-30 years").
- "education": A very brief 3-word summary of the highest education required (e.g., "BSc in Engineering", "HSC Pass").`

const pdfMimeType = "application/pdf"

// ModelClient invokes the generative-model service with a prompt and a
// binary attachment, returning the raw response text.
type ModelClient interface {
	Generate(ctx context.Context, prompt string, attachment []byte, mimeType string) (string, error)
}

// Extractor implements jobs.Extractor.
type Extractor struct {
	model   ModelClient
	fetcher jobs.Fetcher
	logger  *zap.Logger
}

// New constructs an Extractor. A nil model is allowed so the service
// can boot without credentials; Extract then fails with an
// EnrichmentError instead of the process refusing to start.
func New(model ModelClient, fetcher jobs.Fetcher, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{model: model, fetcher: fetcher, logger: logger}
}

// Extract downloads the archived PDF, invokes the model, and parses the
// response into a complete Enrichment triple. Every failure mode is an
// *jobs.EnrichmentError; no partial triple is ever returned.
func (e *Extractor) Extract(ctx context.Context, pdfURL string) (jobs.Enrichment, error) {
	if e.model == nil {
		return jobs.Enrichment{}, &jobs.EnrichmentError{Reason: "model client is not configured"}
	}

	data, err := e.fetcher.Fetch(ctx, pdfURL)
	if err != nil {
		return jobs.Enrichment{}, &jobs.EnrichmentError{Reason: "download archived pdf", Err: err}
	}

	e.logger.Info("invoking model", zap.String("pdf_url", pdfURL), zap.Int("bytes", len(data)))
	raw, err := e.model.Generate(ctx, extractionPrompt, data, pdfMimeType)
	if err != nil {
		return jobs.Enrichment{}, &jobs.EnrichmentError{Reason: "model invocation failed", Err: err}
	}

	return ParseResponse(raw)
}

// ParseResponse strips markdown code fences from the model output and
// strict-parses it as the three-key enrichment object. A missing key is
// a contract violation, not a value to be defaulted.
func ParseResponse(raw string) (jobs.Enrichment, error) {
	cleaned := StripFences(raw)

	dec := json.NewDecoder(strings.NewReader(cleaned))
	dec.DisallowUnknownFields()

	var enr jobs.Enrichment
	if err := dec.Decode(&enr); err != nil {
		return jobs.Enrichment{}, &jobs.EnrichmentError{Reason: "model response is not valid JSON", Err: err}
	}
	if enr.Fee == "" || enr.AgeLimit == "" || enr.Education == "" {
		return jobs.Enrichment{}, &jobs.EnrichmentError{
			Reason: "model response missing required keys",
			Err:    errors.New("fee, ageLimit and education must all be present"),
		}
	}
	return enr, nil
}

// StripFences removes leading/trailing triple-backtick fences, with or
// without a "json" language tag.
func StripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
