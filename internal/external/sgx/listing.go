package sgx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/sgxsync/internal/contracts"
	"github.com/wonny/sgxsync/pkg/redis"
)

var (
	// .../derivatives-historical/<id>/<name>
	linkPattern = regexp.MustCompile(`/derivatives-historical/(\d+)/([^/?#]+)$`)
	tickPattern = regexp.MustCompile(`^WEBPXTICK_DT-(\d{8})\.zip$`)
	datePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}|\d{1,2} [A-Za-z]{3} \d{4}|\d{8}`)
)

var rowDateLayouts = []string{"2006-01-02", "2 Jan 2006", "02 Jan 2006", "20060102"}

// FetchListing scrapes the derivatives page for direct download links.
// A cached copy is served while fresh. Most of the page is rendered
// client-side, so an empty listing is normal and not an error.
// ⭐ SSOT: 다운로드 페이지 스크랩은 이 함수에서만
func (c *Client) FetchListing(ctx context.Context) (*contracts.Listing, error) {
	key := redis.ListingKey(c.pageURL)

	if c.cache != nil {
		var cached contracts.Listing
		found, err := c.cache.Get(ctx, key, &cached)
		if err != nil {
			c.logger.WithError(err).Warn("Listing cache read failed")
		} else if found {
			c.logger.WithField("entries", len(cached.Entries)).Debug("Listing served from cache")
			return &cached, nil
		}
	}

	resp, err := c.page.Get(ctx, c.pageURL)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	listing, err := ParseListing(resp.Body, c.pageURL)
	if err != nil {
		return nil, err
	}
	listing.FetchedAt = time.Now()

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, listing, redis.TTLListing); err != nil {
			c.logger.WithError(err).Warn("Listing cache write failed")
		}
	}

	c.logger.WithField("entries", len(listing.Entries)).Info("Scraped download listing")
	return listing, nil
}

// ParseListing extracts download links from the page HTML
func ParseListing(r io.Reader, pageURL string) (*contracts.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse HTML failed: %w", err)
	}

	base, _ := url.Parse(pageURL)
	listing := &contracts.Listing{}
	seen := make(map[string]bool)

	doc.Find(`a[href*="derivatives-historical"]`).Each(func(i int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		link := absolute(base, strings.TrimSpace(href))

		entry, ok := parseLink(link, s)
		if !ok || seen[entry.URL] {
			return
		}
		seen[entry.URL] = true
		listing.Entries = append(listing.Entries, entry)
	})

	return listing, nil
}

// parseLink classifies one anchor element
func parseLink(link string, s *goquery.Selection) (contracts.ListingEntry, bool) {
	m := linkPattern.FindStringSubmatch(link)
	if m == nil {
		return contracts.ListingEntry{}, false
	}

	id, err := strconv.Atoi(m[1])
	if err != nil || id <= 0 {
		return contracts.ListingEntry{}, false
	}
	name := m[2]

	entry := contracts.ListingEntry{URL: link, ID: id}

	// Tick archives carry their date; other names rely on the row
	if tm := tickPattern.FindStringSubmatch(name); tm != nil {
		date, err := time.Parse("20060102", tm[1])
		if err != nil {
			return contracts.ListingEntry{}, false
		}
		entry.Kind = contracts.TickData
		entry.Date = contracts.DateOf(date)
		return entry, true
	}

	kind, ok := kindForRemote(name)
	if !ok {
		return contracts.ListingEntry{}, false
	}
	date, ok := rowDate(s)
	if !ok {
		return contracts.ListingEntry{}, false
	}

	entry.Kind = kind
	entry.Date = date
	return entry, true
}

func kindForRemote(name string) (contracts.FileKind, bool) {
	for _, k := range contracts.AllKinds {
		if k == contracts.TickData {
			continue
		}
		if strings.EqualFold(k.RemoteName(contracts.TradingDate{}), name) {
			return k, true
		}
	}
	return 0, false
}

// rowDate finds a date on the link itself or its enclosing table row
func rowDate(s *goquery.Selection) (contracts.TradingDate, bool) {
	candidates := []string{
		s.AttrOr("data-date", ""),
		s.Text(),
		s.Closest("tr").Text(),
		s.Parent().Text(),
	}

	for _, text := range candidates {
		for _, match := range datePattern.FindAllString(text, -1) {
			for _, layout := range rowDateLayouts {
				if t, err := time.Parse(layout, match); err == nil {
					return contracts.DateOf(t), true
				}
			}
		}
	}
	return contracts.TradingDate{}, false
}

func absolute(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil || base == nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
