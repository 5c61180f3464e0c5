package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/etiennegalea/housing-scraper/internal/util"
)

const fundaBaseURL = "https://www.funda.nl"

// FundaClient scrapes a Funda rental search result page. The result list
// is static HTML, so a plain fetch plus goquery is enough.
type FundaClient struct {
	httpClient *http.Client
	url        string
	selectors  SelectorConfig
	maxRetries int
}

// NewFunda builds a client for the given search area. An explicit endpoint
// overrides the derived search URL.
func NewFunda(endpoint, area string, selectors SelectorConfig, maxRetries int) *FundaClient {
	if endpoint == "" {
		endpoint = fmt.Sprintf("%s/huur/%s/", fundaBaseURL, strings.ToLower(area))
	}
	return &FundaClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		url:        endpoint,
		selectors:  selectors,
		maxRetries: maxRetries,
	}
}

func (c *FundaClient) Fetch(ctx context.Context) ([]Raw, error) {
	var doc *goquery.Document

	err := util.RetryWithBackoff(ctx, c.maxRetries, time.Second, func(attempt int) error {
		if attempt > 0 {
			slog.Warn("Retrying Funda fetch", "attempt", attempt)
		}
		var fetchErr error
		doc, fetchErr = c.fetchDocument(ctx)
		return fetchErr
	})
	if err != nil {
		return nil, fmt.Errorf("fetching funda listings: %w", err)
	}

	list := c.selectors.ResultList
	if doc.Find(list.Container.Item).Length() == 0 {
		return nil, fmt.Errorf("no %q elements found on %s: potential block or page structure change", list.Container.Item, c.url)
	}

	var raws []Raw
	doc.Find(list.Container.Item).Each(func(_ int, s *goquery.Selection) {
		if s.Is(list.Container.IgnoreModifier) {
			return
		}
		raws = append(raws, c.parseItem(s))
	})

	slog.Info("Fetched Funda listings", "count", len(raws))
	return raws, nil
}

func (c *FundaClient) parseItem(s *goquery.Selection) Raw {
	// The search query is scoped to rentals already.
	raw := Raw{RentBuy: "huur"}

	link := s.Find(c.selectors.ResultList.Elements.TitleLink).First()
	if href, ok := link.Attr("href"); ok {
		if strings.HasPrefix(href, "/") {
			raw.URL = fundaBaseURL + href
		} else {
			raw.URL = href
		}
	}
	raw.Address = strings.TrimSpace(s.Find(c.selectors.ResultList.Elements.Address).First().Text())

	// Subtitle reads like "1015 AB Amsterdam".
	subtitle := strings.TrimSpace(s.Find(c.selectors.ResultList.Elements.Postcode).First().Text())
	raw.Postcode, raw.City = splitPostcodeCity(subtitle)

	priceText := strings.TrimSpace(s.Find(c.selectors.ResultList.Elements.Price).First().Text())
	if amount, err := util.ParseEuroAmount(priceText); err == nil {
		raw.Rent = &amount
	}

	raw.Rooms = strings.TrimSpace(s.Find(c.selectors.ResultList.Elements.Rooms).First().Text())
	raw.EnergyLabel = strings.TrimSpace(s.Find(c.selectors.ResultList.Elements.EnergyLabel).First().Text())
	return raw
}

func (c *FundaClient) fetchDocument(ctx context.Context) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

func splitPostcodeCity(subtitle string) (postcode, city string) {
	fields := strings.Fields(subtitle)
	if len(fields) >= 3 {
		return fields[0] + " " + fields[1], strings.Join(fields[2:], " ")
	}
	return "", subtitle
}
