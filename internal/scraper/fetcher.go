package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

// ErrNotInteractive is returned by fetchers that cannot act on a page.
var ErrNotInteractive = errors.New("fetcher cannot interact with pages")

// Fetcher loads pages for the scraper.
type Fetcher interface {
	// Fetch loads url and returns the parsed document.
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
	// Consent clicks the element matching selector once it shows up within
	// timeout and waits for it to go away.
	Consent(ctx context.Context, selector string, timeout time.Duration) error
}

// HTTPFetcher fetches static HTML over plain HTTP
type HTTPFetcher struct {
	client *resty.Client
}

// NewHTTPFetcher creates an HTTPFetcher with the given timeout and user agent
func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("User-Agent", userAgent)
	client.SetHeader("Accept-Language", "en")

	return &HTTPFetcher{client: client}
}

// Fetch implements Fetcher
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("fetching %s: unexpected status code: %d", url, resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	return doc, nil
}

// Consent implements Fetcher. Static pages have nothing to click.
func (f *HTTPFetcher) Consent(context.Context, string, time.Duration) error {
	return ErrNotInteractive
}
