package feed

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/passionpotato/teslawebsite/internal/model"
)

const (
	ytFeedBaseURL = "https://www.youtube.com"
	ytAPIBaseURL  = "https://www.googleapis.com"
)

// YouTubeClient polls a channel for uploads. The Atom channel feed needs
// no credential and is always the baseline; a Data API key upgrades
// uploads fidelity and enables live-stream detection.
type YouTubeClient struct {
	FeedBaseURL string
	APIBaseURL  string
	apiKey      string
	client      *http.Client
}

// NewYouTubeClient creates a poller; apiKey may be empty.
func NewYouTubeClient(apiKey string) *YouTubeClient {
	return &YouTubeClient{
		FeedBaseURL: ytFeedBaseURL,
		APIBaseURL:  ytAPIBaseURL,
		apiKey:      apiKey,
		client:      &http.Client{Timeout: 15 * time.Second},
	}
}

// ytFeed is the channel Atom feed, reduced to what the dashboard shows.
type ytFeed struct {
	Entries []struct {
		VideoID   string `xml:"videoId"`
		Title     string `xml:"title"`
		Published string `xml:"published"`
		Link      struct {
			Href string `xml:"href,attr"`
		} `xml:"link"`
	} `xml:"entry"`
}

func (c *YouTubeClient) fetchFeed(ctx context.Context, channelID string) ([]model.VideoItem, error) {
	u := fmt.Sprintf("%s/feeds/videos.xml?channel_id=%s", c.FeedBaseURL, url.QueryEscape(channelID))
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("youtube feed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("youtube feed read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("youtube feed: status %d", resp.StatusCode)
	}

	var feed ytFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("youtube feed decode: %w", err)
	}

	items := make([]model.VideoItem, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		published, err := time.Parse(time.RFC3339, e.Published)
		if err != nil {
			continue
		}
		link := e.Link.Href
		if link == "" {
			link = "https://www.youtube.com/watch?v=" + e.VideoID
		}
		items = append(items, model.VideoItem{
			ID:        e.VideoID,
			Title:     e.Title,
			Published: published,
			URL:       link,
		})
	}
	return items, nil
}

// ytSearch is the Data API search response, reduced likewise.
type ytSearch struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title       string `json:"title"`
			PublishedAt string `json:"publishedAt"`
		} `json:"snippet"`
	} `json:"items"`
}

func (c *YouTubeClient) search(ctx context.Context, channelID string, params url.Values) (*ytSearch, error) {
	params.Set("part", "snippet")
	params.Set("channelId", channelID)
	params.Set("type", "video")
	params.Set("key", c.apiKey)

	u := c.APIBaseURL + "/youtube/v3/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("youtube search: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("youtube search: status %d, body: %s", resp.StatusCode, string(body))
	}

	var out ytSearch
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("youtube search decode: %w", err)
	}
	return &out, nil
}

// LatestVideos returns uploads strictly after the cursor (the published
// timestamp of the newest previously-seen item, RFC3339) in ascending
// publish order, plus the updated cursor. The call is never cached; each
// poll must see fresh data.
func (c *YouTubeClient) LatestVideos(ctx context.Context, channelID, cursor string, max int) ([]model.VideoItem, string, error) {
	items, err := c.fetchFeed(ctx, channelID)
	if err != nil {
		return nil, cursor, err
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Published.Before(items[j].Published) })

	var since time.Time
	if cursor != "" {
		since, _ = time.Parse(time.RFC3339, cursor)
	}

	fresh := make([]model.VideoItem, 0, len(items))
	next := cursor
	for _, it := range items {
		if !since.IsZero() && !it.Published.After(since) {
			continue
		}
		fresh = append(fresh, it)
		next = it.Published.UTC().Format(time.RFC3339)
	}
	if max > 0 && len(fresh) > max {
		fresh = fresh[len(fresh)-max:]
	}
	return fresh, next, nil
}

// LiveStream reports the channel's active live broadcast, if any. The
// check needs the Data API; without a key it degrades to "no stream"
// without error.
func (c *YouTubeClient) LiveStream(ctx context.Context, channelID string) (*model.VideoItem, error) {
	if c.apiKey == "" {
		return nil, nil
	}
	res, err := c.search(ctx, channelID, url.Values{"eventType": {"live"}, "maxResults": {"1"}})
	if err != nil {
		return nil, err
	}
	if len(res.Items) == 0 {
		return nil, nil
	}
	it := res.Items[0]
	published, _ := time.Parse(time.RFC3339, it.Snippet.PublishedAt)
	return &model.VideoItem{
		ID:        it.ID.VideoID,
		Title:     it.Snippet.Title,
		Published: published,
		URL:       "https://www.youtube.com/watch?v=" + it.ID.VideoID,
		Live:      true,
	}, nil
}
