// Package scraper harvests Amsterdam Dance Event listings from djguide.nl.
//
// A harvest fetches the listing index of one edition year, follows every party detail
// link in order and extracts fourteen raw string fields from each page. Pages are loaded
// through a Fetcher: HTTPFetcher for static HTML, BrowserFetcher when the site needs a
// real browser and a cookie consent click. The records are written as one CSV object per
// year to the raw stage of the blob store.
package scraper
