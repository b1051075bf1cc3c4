// Package collyfetcher implements jobs.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/JakeFAU/jobtrack-pipeline/internal/jobs"
)

// DefaultUserAgent is the fixed desktop-browser identity sent with
// every request. Several notice boards reject non-browser agents.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration

	// InsecureTLS disables certificate validation on this client's
	// transport only; it is never a process-wide setting. Many of the
	// targeted notice portals serve expired or self-signed chains.
	InsecureTLS bool
}

// Fetcher implements jobs.Fetcher using the Colly collector.
type Fetcher struct {
	cfg           Config
	transport     http.RoundTripper
	baseCollector *colly.Collector
}

// New builds a Fetcher.
func New(cfg Config) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	c := colly.NewCollector(colly.Async(false))
	transport := newHTTPTransport(cfg.InsecureTLS)
	c.WithTransport(transport)

	return &Fetcher{
		cfg:           cfg,
		transport:     transport,
		baseCollector: c,
	}
}

// Fetch executes a single HTTP GET and returns the response body.
// Connection, TLS, timeout and non-success status failures are wrapped
// in a jobs.FetchError.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var (
		body     []byte
		fetchErr error
	)
	collector := f.buildCollector(&body, &fetchErr)
	if err := f.runCollector(ctx, collector, url, &fetchErr); err != nil {
		return nil, &jobs.FetchError{URL: url, Err: err}
	}
	return body, nil
}

func (f *Fetcher) buildCollector(body *[]byte, fetchErr *error) *colly.Collector {
	collector := f.baseCollector.Clone()
	collector.UserAgent = f.cfg.UserAgent
	collector.IgnoreRobotsTxt = true
	timeout := f.cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	collector.SetRequestTimeout(timeout)
	collector.WithTransport(f.transport)

	collector.OnResponse(func(r *colly.Response) {
		*body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(_ *colly.Response, err error) {
		*fetchErr = err
	})
	return collector
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return err
		}
		return *fetchErr
	}
}

func newHTTPTransport(insecureTLS bool) *http.Transport {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
	if insecureTLS {
		// Scoped to this transport; nothing else in the process is
		// affected by the relaxed trust.
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}
	return t
}
