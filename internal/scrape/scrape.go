// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scrape fetches a single seed page and extracts its anchors.
// Discovered links are recorded, never followed.
package scrape

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/pdiddy/scriptkit/internal/httputil"
	"github.com/pdiddy/scriptkit/pkg/types"
)

const (
	DefaultSeedURL = "http://www.iseg.ulisboa.pt/"
	DefaultOutput  = "output.json"
	DefaultTimeout = 180 * time.Second
)

// Scraper fetches the seed page and turns its anchors into LinkRecords.
type Scraper struct {
	client *http.Client
	cfg    types.ScrapeConfig
	log    *slog.Logger
}

// New returns a Scraper using client. A nil client gets one with the
// configured timeout.
func New(client *http.Client, cfg types.ScrapeConfig, log *slog.Logger) *Scraper {
	if cfg.URL == "" {
		cfg.URL = DefaultSeedURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Scraper{client: client, cfg: cfg, log: log}
}

// Scrape fetches the seed URL and returns one record per anchor, in
// document order. A non-2xx final response yields no records and no error,
// matching how a crawler drops error pages.
func (s *Scraper) Scrape(ctx context.Context) ([]types.LinkRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if s.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", s.cfg.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := httputil.DoWithRetry(ctx, s.client, req, s.cfg.MaxRetries, s.log)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", s.cfg.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		s.log.Warn("ignoring non-2xx response", "url", s.cfg.URL, "status", resp.StatusCode)
		return nil, nil
	}

	// The page is the URL actually served, after redirects.
	page := resp.Request.URL.String()
	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", page, err)
	}
	records, err := Extract(body, page)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", page, err)
	}
	s.log.Info("scraped page", "page", page, "links", len(records))
	return records, nil
}

// Extract parses a UTF-8 HTML document and returns every <a> element's href
// attribute and first direct text node, tagged with page.
func Extract(r io.Reader, page string) ([]types.LinkRecord, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	anchors := doc.Find("a")
	records := make([]types.LinkRecord, 0, anchors.Length())
	anchors.Each(func(_ int, a *goquery.Selection) {
		rec := types.LinkRecord{Page: page}
		if href, ok := a.Attr("href"); ok {
			rec.Link = &href
		}
		if text, ok := firstText(a.Get(0)); ok {
			rec.Text = &text
		}
		records = append(records, rec)
	})
	return records, nil
}

// firstText returns the data of n's first direct text child. Text inside
// nested elements is not considered.
func firstText(n *html.Node) (string, bool) {
	if n == nil {
		return "", false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			return c.Data, true
		}
	}
	return "", false
}
