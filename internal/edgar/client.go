// Package edgar retrieves and parses institutional 13F holdings filings
// from the SEC EDGAR free endpoints. SEC policy requires an identifying
// User-Agent and fair-use pacing; the client spaces document fetches and
// caches the slow-moving filing history aggressively.
package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/passionpotato/teslawebsite/internal/cache"
	"github.com/passionpotato/teslawebsite/internal/model"
)

const (
	dataBaseURL    = "https://data.sec.gov"
	archiveBaseURL = "https://www.sec.gov"
)

// holdingsForms are the two disclosure-type codes that carry quarterly
// institutional holdings (amendments included).
var holdingsForms = map[string]bool{
	"13F-HR":   true,
	"13F-HR/A": true,
}

// Client talks to SEC EDGAR.
type Client struct {
	DataBaseURL    string
	ArchiveBaseURL string
	UserAgent      string
	Client         *http.Client

	store      *cache.Store
	maxRetries int
}

// NewClient creates an EDGAR client. userAgent must identify the operator
// with a contact address per SEC guidelines.
func NewClient(userAgent string, store *cache.Store) *Client {
	return &Client{
		DataBaseURL:    dataBaseURL,
		ArchiveBaseURL: archiveBaseURL,
		UserAgent:      userAgent,
		Client:         &http.Client{Timeout: 20 * time.Second},
		store:          store,
		maxRetries:     2,
	}
}

// zeroPadCIK normalizes a CIK to the 10-digit form the submissions
// endpoint expects.
func zeroPadCIK(cik string) string {
	return fmt.Sprintf("%010s", strings.TrimLeft(cik, "0"))
}

func accessionNoDash(accession string) string {
	return strings.ReplaceAll(accession, "-", "")
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sec fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("sec read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sec: status %d for %s", resp.StatusCode, url)
	}
	return body, nil
}

// getWithRetry retries transient failures with exponential backoff.
func (c *Client) getWithRetry(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		body, err := c.get(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		backoff := time.Duration(1<<uint(attempt)) * time.Second
		log.Printf("[WARN] sec fetch failed (attempt %d/%d): %v, retrying in %v", attempt+1, c.maxRetries+1, err, backoff)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
	return nil, fmt.Errorf("all %d retries exhausted: %w", c.maxRetries+1, lastErr)
}

// submissions mirrors the filing-history endpoint: recent filings come as
// parallel arrays indexed together.
type submissions struct {
	Name    string `json:"name"`
	Filings struct {
		Recent struct {
			AccessionNumber []string `json:"accessionNumber"`
			Form            []string `json:"form"`
			ReportDate      []string `json:"reportDate"`
			PrimaryDocument []string `json:"primaryDocument"`
		} `json:"recent"`
	} `json:"filings"`
}

// recentFilings fetches the institution's filing history, cached for an
// hour since history only gains entries when something is filed.
func (c *Client) recentFilings(ctx context.Context, cik string) (*submissions, error) {
	url := fmt.Sprintf("%s/submissions/CIK%s.json", c.DataBaseURL, zeroPadCIK(cik))
	return cache.Do(c.store, cache.Key("sec-submissions", cik), time.Hour, func() (*submissions, error) {
		body, err := c.getWithRetry(ctx, url)
		if err != nil {
			return nil, err
		}
		var subs submissions
		if err := json.Unmarshal(body, &subs); err != nil {
			return nil, fmt.Errorf("sec decode submissions: %w", err)
		}
		return &subs, nil
	})
}

// HoldingsFilings returns the institution's n most recent quarterly
// holdings disclosures in the provider's reverse-chronological order.
func (c *Client) HoldingsFilings(ctx context.Context, cik string, n int) ([]model.FilingRecord, error) {
	subs, err := c.recentFilings(ctx, cik)
	if err != nil {
		return nil, err
	}

	recent := subs.Filings.Recent
	records := make([]model.FilingRecord, 0, n)
	for i := range recent.AccessionNumber {
		if i >= len(recent.Form) || !holdingsForms[recent.Form[i]] {
			continue
		}
		rec := model.FilingRecord{
			Institution: subs.Name,
			CIK:         cik,
			Accession:   recent.AccessionNumber[i],
		}
		if i < len(recent.ReportDate) {
			rec.ReportDate = recent.ReportDate[i]
		}
		if i < len(recent.PrimaryDocument) {
			rec.PrimaryDocument = recent.PrimaryDocument[i]
		}
		records = append(records, rec)
		if len(records) == n {
			break
		}
	}
	return records, nil
}

// filingIndex mirrors the per-filing index.json file listing.
type filingIndex struct {
	Directory struct {
		Item []struct {
			Name string `json:"name"`
		} `json:"item"`
	} `json:"directory"`
}

// infoTableName reports whether a file name signals the structured
// holdings table.
func infoTableName(name string) bool {
	return strings.Contains(name, "infotable") ||
		strings.Contains(name, "informationtable") ||
		strings.Contains(name, "form13f")
}

// InfoTableURL resolves the filing's structured-data document from its
// file index: an XML whose name signals the holdings table first, then a
// plain-text fallback (the table may be embedded inline). Returns "" when
// no index entry matches, which marks the filing unresolvable.
func (c *Client) InfoTableURL(ctx context.Context, cik, accession string) (string, error) {
	cikTrim := strings.TrimLeft(cik, "0")
	base := fmt.Sprintf("%s/Archives/edgar/data/%s/%s", c.ArchiveBaseURL, cikTrim, accessionNoDash(accession))

	idx, err := cache.Do(c.store, cache.Key("sec-index", cik, accession), time.Hour, func() (*filingIndex, error) {
		body, err := c.getWithRetry(ctx, base+"/index.json")
		if err != nil {
			return nil, err
		}
		var idx filingIndex
		if err := json.Unmarshal(body, &idx); err != nil {
			return nil, fmt.Errorf("sec decode index: %w", err)
		}
		return &idx, nil
	})
	if err != nil {
		return "", err
	}

	for _, item := range idx.Directory.Item {
		name := strings.ToLower(item.Name)
		if strings.HasSuffix(name, ".xml") && infoTableName(name) {
			return base + "/" + item.Name, nil
		}
	}
	for _, item := range idx.Directory.Item {
		if strings.HasSuffix(strings.ToLower(item.Name), ".txt") {
			return base + "/" + item.Name, nil
		}
	}
	return "", nil
}

// Position downloads and parses one filing's information table and
// aggregates every line item matching the tracked issuer. A nil snapshot
// means the filing is unresolvable; a zero snapshot means it parsed and
// confirms no holding.
func (c *Client) Position(ctx context.Context, cik, accession string, m IssuerMatcher) (*model.PositionSnapshot, error) {
	return cache.Do(c.store, cache.Key("sec-position", cik, accession, m.CUSIPPrefix, m.NameSubstring), time.Hour,
		func() (*model.PositionSnapshot, error) {
			url, err := c.InfoTableURL(ctx, cik, accession)
			if err != nil {
				return nil, err
			}
			if url == "" {
				return nil, nil
			}

			body, err := c.getWithRetry(ctx, url)
			if err != nil {
				return nil, err
			}

			snap := &model.PositionSnapshot{}
			for _, item := range ParseInfoTable(string(body)) {
				if !m.Match(item) {
					continue
				}
				if item.Shares != nil {
					snap.Shares += *item.Shares
				}
				if item.ValueUSD != nil {
					snap.ValueUSD += *item.ValueUSD
				}
			}
			return snap, nil
		})
}
