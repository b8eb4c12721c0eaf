package feed

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/passionpotato/teslawebsite/internal/cache"
	"github.com/passionpotato/teslawebsite/internal/model"
)

// NewsSource names one RSS feed.
type NewsSource struct {
	Name string
	URL  string
}

// NewsClient fetches RSS headlines, cached per feed for five minutes.
type NewsClient struct {
	client *http.Client
	store  *cache.Store
}

// NewNewsClient creates the RSS poller.
func NewNewsClient(store *cache.Store) *NewsClient {
	return &NewsClient{
		client: &http.Client{Timeout: 15 * time.Second},
		store:  store,
	}
}

type rssDoc struct {
	Channel struct {
		Items []struct {
			Title       string `xml:"title"`
			Link        string `xml:"link"`
			PubDate     string `xml:"pubDate"`
			Description string `xml:"description"`
		} `xml:"item"`
	} `xml:"channel"`
}

var htmlTag = regexp.MustCompile(`<[^>]*>`)

// stripTags removes HTML markup from a feed summary.
func stripTags(s string) string {
	return strings.TrimSpace(htmlTag.ReplaceAllString(s, ""))
}

// Fetch returns up to limit headlines from feedURL.
func (c *NewsClient) Fetch(ctx context.Context, feedURL string, limit int) ([]model.NewsItem, error) {
	return cache.Do(c.store, cache.Key("rss", feedURL, strconv.Itoa(limit)), 5*time.Minute, func() ([]model.NewsItem, error) {
		req, err := http.NewRequestWithContext(ctx, "GET", feedURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", "Mozilla/5.0")

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("rss fetch: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("rss read: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("rss: status %d", resp.StatusCode)
		}

		var doc rssDoc
		if err := xml.Unmarshal(body, &doc); err != nil {
			return nil, fmt.Errorf("rss decode: %w", err)
		}

		items := doc.Channel.Items
		if limit > 0 && len(items) > limit {
			items = items[:limit]
		}
		out := make([]model.NewsItem, 0, len(items))
		for _, it := range items {
			out = append(out, model.NewsItem{
				Title:     strings.TrimSpace(it.Title),
				Link:      strings.TrimSpace(it.Link),
				Published: strings.TrimSpace(it.PubDate),
				Summary:   stripTags(it.Description),
			})
		}
		return out, nil
	})
}
