package collyfetcher

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/JakeFAU/jobtrack-pipeline/internal/jobs"
)

func TestFetchReturnsBody(t *testing.T) {
	t.Parallel()

	var gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	f := New(Config{UserAgent: "test-agent", Timeout: 5 * time.Second})
	body, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(body) != "<html>ok</html>" {
		t.Fatalf("unexpected body %q", body)
	}
	if gotAgent != "test-agent" {
		t.Fatalf("expected configured user agent, got %q", gotAgent)
	}
}

func TestFetchBinaryBody(t *testing.T) {
	t.Parallel()

	payload := []byte{'%', 'P', 'D', 'F', '-', 0x00, 0xff, 0x10}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	f := New(Config{Timeout: 5 * time.Second})
	body, err := f.Fetch(context.Background(), srv.URL+"/ad.pdf")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !bytes.Equal(body, payload) {
		t.Fatalf("binary body mangled: got %v", body)
	}
}

func TestFetchNonSuccessStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := New(Config{Timeout: 5 * time.Second})
	_, err := f.Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected error for 404")
	}
	var fetchErr *jobs.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected jobs.FetchError, got %T", err)
	}
}

func TestFetchConnectionRefused(t *testing.T) {
	t.Parallel()

	f := New(Config{Timeout: 2 * time.Second})
	_, err := f.Fetch(context.Background(), "http://127.0.0.1:1/nope")
	var fetchErr *jobs.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected jobs.FetchError, got %v", err)
	}
}

func TestFetchInsecureTLS(t *testing.T) {
	t.Parallel()

	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("trusted enough"))
	}))
	defer srv.Close()

	// The test server's certificate is self-signed: the strict client
	// must fail and the relaxed one must succeed.
	strict := New(Config{Timeout: 5 * time.Second})
	if _, err := strict.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("expected TLS verification failure without InsecureTLS")
	}

	relaxed := New(Config{Timeout: 5 * time.Second, InsecureTLS: true})
	body, err := relaxed.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch() with InsecureTLS error = %v", err)
	}
	if string(body) != "trusted enough" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestFetchContextCanceled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(2 * time.Second)
		_, _ = w.Write([]byte("late"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	f := New(Config{Timeout: 5 * time.Second})
	if _, err := f.Fetch(ctx, srv.URL); err == nil {
		t.Fatal("expected cancellation error")
	}
}
