// Package fetcher performs single page GETs with a browser identity and a hard timeout.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// TransportError reports a failed or non-2xx fetch. It is terminal for the URL.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Fetcher retrieves raw page markup. No retries are performed.
type Fetcher struct {
	client       *http.Client
	userAgent    string
	maxBodyBytes int64
}

// New creates a Fetcher. A nil client gets one with the configured timeout.
func New(cfg Config, client *http.Client) *Fetcher {
	cfg = cfg.WithDefaults()
	if client == nil {
		client = &http.Client{Timeout: cfg.RequestTimeout}
	}
	return &Fetcher{
		client:       client,
		userAgent:    cfg.UserAgent,
		maxBodyBytes: cfg.MaxBodyBytes,
	}
}

// Fetch GETs rawURL and returns the body. Any failure is a *TransportError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if reqErr != nil {
		return nil, &TransportError{URL: rawURL, Err: fmt.Errorf("create request: %w", reqErr)}
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, doErr := f.client.Do(req)
	if doErr != nil {
		return nil, &TransportError{URL: rawURL, Err: doErr}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, f.maxBodyBytes))
		return nil, &TransportError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes))
	if readErr != nil {
		return nil, &TransportError{URL: rawURL, Err: fmt.Errorf("read response body: %w", readErr)}
	}

	return body, nil
}
