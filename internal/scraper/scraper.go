package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/multierr"

	"github.com/pfrederiksen/ade-events/internal/event"
	"github.com/pfrederiksen/ade-events/internal/job"
	"github.com/pfrederiksen/ade-events/internal/logger"
)

// ErrMalformedPage is returned when a detail page has no event info container.
var ErrMalformedPage = errors.New("malformed event page")

// OnError controls what happens when a detail page cannot be extracted.
type OnError string

const (
	// Abort fails the run on the first bad detail page
	Abort OnError = "abort"
	// Skip logs the page, leaves it out and carries on
	Skip OnError = "skip"
)

// Options configures a Scraper
type Options struct {
	// IndexURL is the listing URL with {year} in place of the edition year
	IndexURL        string
	BaseURL         string
	DetailPrefix    string
	ConsentSelector string
	ConsentTimeout  time.Duration
	OnError         OnError
}

// Scraper harvests one edition of event listings
type Scraper struct {
	fetcher Fetcher
	opts    Options
}

// Result summarizes a harvest run
type Result struct {
	Year      int      `json:"year"`
	Key       string   `json:"key"`
	Links     int      `json:"links"`
	Extracted int      `json:"extracted"`
	Skipped   []string `json:"skipped,omitempty"`
	// Err aggregates the errors of skipped pages
	Err error `json:"-"`
}

var nonDigits = regexp.MustCompile(`\D`)

// New creates a new Scraper
func New(fetcher Fetcher, opts Options) *Scraper {
	if opts.OnError == "" {
		opts.OnError = Abort
	}
	return &Scraper{
		fetcher: fetcher,
		opts:    opts,
	}
}

// IndexURLFor returns the listing index URL of one edition year
func (s *Scraper) IndexURLFor(year int) string {
	return strings.ReplaceAll(s.opts.IndexURL, "{year}", fmt.Sprintf("%d", year))
}

// DiscoverLinks returns the detail page hrefs listed on the index page in
// document order
func (s *Scraper) DiscoverLinks(ctx context.Context, indexURL string) ([]string, error) {
	doc, err := s.fetcher.Fetch(ctx, indexURL)
	if err != nil {
		return nil, fmt.Errorf("fetching index: %w", err)
	}

	links := make([]string, 0)
	doc.Find("a.list-group-item.agendaitem").Each(func(i int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if ok && strings.HasPrefix(href, s.opts.DetailPrefix) {
			links = append(links, href)
		}
	})

	return links, nil
}

// ExtractRecord fetches one detail page and extracts its raw fields.
// Fields missing from the page are left empty.
func (s *Scraper) ExtractRecord(ctx context.Context, detailURL string) (event.RawEventRecord, error) {
	doc, err := s.fetcher.Fetch(ctx, detailURL)
	if err != nil {
		return event.RawEventRecord{}, fmt.Errorf("fetching detail page: %w", err)
	}

	return extractRecord(doc, detailURL)
}

// extractRecord reads the fourteen raw fields from a detail page
func extractRecord(doc *goquery.Document, detailURL string) (event.RawEventRecord, error) {
	info := doc.Find("div#eventinfo").First()
	if info.Length() == 0 {
		return event.RawEventRecord{}, fmt.Errorf("%w: %s has no div#eventinfo", ErrMalformedPage, detailURL)
	}

	rec := event.RawEventRecord{
		Name:      text(info.Find("div.titlewithnav")),
		StartDate: content(info.Find(`meta[itemprop="startDate"]`)),
		EndDate:   content(info.Find(`meta[itemprop="endDate"]`)),
		Location:  text(info.Find(`div[itemprop="location"]`).First().Find(`span[itemprop="name"]`)),
		Address:   text(info.Find(`span[itemprop="streetAddress"]`)),
		Locality:  text(info.Find(`span[itemprop="addressLocality"]`)),
		Country:   text(info.Find(`span[itemprop="addressRegion"]`)),
		Latitude:  content(info.Find(`meta[itemprop="latitude"]`)),
		Longitude: content(info.Find(`meta[itemprop="longitude"]`)),
		Price:     text(info.Find(`div[itemprop="offers"]`)),
		State:     text(info.Find("span.red.smallfont")),
	}

	// Capacity sits in the second detail table
	if tables := info.Find("div.table-partydetail"); tables.Length() > 1 {
		value := tables.Eq(1).Find("div.value-partydetail")
		if value.Length() > 0 {
			rec.Capacity = nonDigits.ReplaceAllString(value.First().Text(), "")
		}
	}

	genreLabel := info.Find(`div.label-partydetail[title="Genre indication"]`).First()
	if genreLabel.Length() > 0 {
		rec.Genre = text(genreLabel.NextAllFiltered("div.value-partydetail"))
	}

	rec.Lineup = text(info.Find("div.lineup-partydetail").First().Find("div"))

	return rec, nil
}

// text returns the text of the first matched element
func text(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	return sel.First().Text()
}

// content returns the content attribute of the first matched element
func content(sel *goquery.Selection) string {
	value, _ := sel.First().Attr("content")
	return value
}

// Harvest scrapes every event of one edition year and publishes the raw CSV.
// Detail pages are fetched strictly one after another.
func (s *Scraper) Harvest(ctx context.Context, jc *job.Context, year int) (*Result, error) {
	started := jc.Now()
	log := jc.Logger.With(logger.Fields{"year": year})
	result := &Result{Year: year, Key: jc.Keys.RawKey(year)}

	indexURL := s.IndexURLFor(year)
	base, err := url.Parse(s.opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	log.Info("Fetching event index", logger.Fields{"url": indexURL})
	links, err := s.DiscoverLinks(ctx, indexURL)
	if err != nil {
		jc.Metrics.PagesFetched.WithLabelValues("index", "error").Inc()
		jc.Metrics.RecordRun("harvest", started, jc.Now(), false)
		return nil, err
	}
	jc.Metrics.PagesFetched.WithLabelValues("index", "ok").Inc()
	result.Links = len(links)

	s.consent(ctx, log)

	records := make([]event.RawEventRecord, 0, len(links))
	for i, href := range links {
		if err := ctx.Err(); err != nil {
			jc.Metrics.RecordRun("harvest", started, jc.Now(), false)
			return nil, err
		}

		detailURL := resolve(base, href)
		log.Info(fmt.Sprintf("Processing event %d/%d", i+1, len(links)), logger.Fields{"url": detailURL})

		rec, err := s.ExtractRecord(ctx, detailURL)
		if err != nil {
			jc.Metrics.PagesFetched.WithLabelValues("detail", "error").Inc()
			if s.opts.OnError != Skip {
				jc.Metrics.RecordRun("harvest", started, jc.Now(), false)
				return nil, fmt.Errorf("extracting %s: %w", detailURL, err)
			}

			log.Warn("Skipping event page", logger.Fields{"url": detailURL, "error": err.Error()})
			jc.Metrics.RecordsSkipped.Inc()
			result.Skipped = append(result.Skipped, detailURL)
			result.Err = multierr.Append(result.Err, fmt.Errorf("%s: %w", detailURL, err))
			continue
		}

		jc.Metrics.PagesFetched.WithLabelValues("detail", "ok").Inc()
		jc.Metrics.RecordsExtracted.Inc()
		records = append(records, rec)
	}
	result.Extracted = len(records)

	var buf bytes.Buffer
	if err := event.WriteCSV(&buf, records); err != nil {
		jc.Metrics.RecordRun("harvest", started, jc.Now(), false)
		return nil, fmt.Errorf("encoding CSV: %w", err)
	}

	if err := jc.Store.Put(ctx, result.Key, buf.Bytes()); err != nil {
		jc.Metrics.StoreWrites.WithLabelValues("raw", "error").Inc()
		jc.Metrics.RecordRun("harvest", started, jc.Now(), false)
		return nil, fmt.Errorf("uploading raw CSV: %w", err)
	}
	jc.Metrics.StoreWrites.WithLabelValues("raw", "ok").Inc()

	log.Info("Harvest complete", logger.Fields{
		"key":       result.Key,
		"links":     result.Links,
		"extracted": result.Extracted,
		"skipped":   len(result.Skipped),
	})
	jc.Metrics.RecordRun("harvest", started, jc.Now(), true)

	return result, nil
}

// consent accepts the cookie banner when the fetcher supports it. Failures
// never end the run.
func (s *Scraper) consent(ctx context.Context, log *logger.Logger) {
	if s.opts.ConsentSelector == "" {
		return
	}

	err := s.fetcher.Consent(ctx, s.opts.ConsentSelector, s.opts.ConsentTimeout)
	switch {
	case err == nil:
		log.Info("Accepted cookie consent", nil)
	case errors.Is(err, ErrNotInteractive):
		log.Debug("Fetcher cannot give cookie consent", nil)
	default:
		log.Warn("Cookie consent not given", logger.Fields{"error": err.Error()})
	}
}

// resolve makes href absolute against the site base URL
func resolve(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return strings.TrimRight(base.String(), "/") + href
	}
	return base.ResolveReference(ref).String()
}
