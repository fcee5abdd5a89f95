package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

// BrowserFetcher renders pages in a headless Chrome tab. The tab is reused
// across calls, so consent given once applies to later pages.
type BrowserFetcher struct {
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
}

// NewBrowserFetcher starts a headless browser. Close releases it.
func NewBrowserFetcher(parent context.Context, timeout time.Duration, userAgent string) (*BrowserFetcher, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.UserAgent(userAgent))
	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	// Start the browser now so a missing binary fails fast
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("starting browser: %w", err)
	}

	return &BrowserFetcher{
		ctx: tabCtx,
		cancel: func() {
			tabCancel()
			allocCancel()
		},
		timeout: timeout,
	}, nil
}

// Fetch implements Fetcher
func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	runCtx, cancel := f.runContext(ctx, f.timeout)
	defer cancel()

	var html string
	if err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	return doc, nil
}

// Consent implements Fetcher
func (f *BrowserFetcher) Consent(ctx context.Context, selector string, timeout time.Duration) error {
	runCtx, cancel := f.runContext(ctx, timeout)
	defer cancel()

	if err := chromedp.Run(runCtx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery),
		chromedp.WaitNotVisible(selector, chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("accepting consent: %w", err)
	}

	return nil
}

// Close shuts the browser down
func (f *BrowserFetcher) Close() {
	f.cancel()
}

// runContext derives a bounded context on the browser tab that also ends
// when ctx does.
func (f *BrowserFetcher) runContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithTimeout(f.ctx, timeout)
	stop := context.AfterFunc(ctx, cancel)

	return runCtx, func() {
		stop()
		cancel()
	}
}
