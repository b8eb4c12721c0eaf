package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passionpotato/teslawebsite/internal/cache"
)

const rssBody = `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Electrek - Tesla</title>
    <item>
      <title>Tesla opens new factory</title>
      <link>https://example.com/a</link>
      <pubDate>Tue, 05 Mar 2024 10:00:00 GMT</pubDate>
      <description>&lt;p&gt;Big &lt;b&gt;news&lt;/b&gt; today.&lt;/p&gt;</description>
    </item>
    <item>
      <title>Second story</title>
      <link>https://example.com/b</link>
      <pubDate>Mon, 04 Mar 2024 10:00:00 GMT</pubDate>
      <description>Plain text.</description>
    </item>
    <item>
      <title>Third story</title>
      <link>https://example.com/c</link>
      <pubDate>Sun, 03 Mar 2024 10:00:00 GMT</pubDate>
      <description></description>
    </item>
  </channel>
</rss>`

func TestNewsFetch(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, rssBody)
	}))
	defer srv.Close()

	c := NewNewsClient(cache.New())

	items, err := c.Fetch(context.Background(), srv.URL, 2)
	require.NoError(t, err)
	require.Len(t, items, 2, "limit truncates the feed")
	assert.Equal(t, "Tesla opens new factory", items[0].Title)
	assert.Equal(t, "https://example.com/a", items[0].Link)
	assert.Equal(t, "Big news today.", items[0].Summary, "HTML markup is stripped")

	_, err = c.Fetch(context.Background(), srv.URL, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "feed responses are cached")
}

func TestNewsFetchBadFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewNewsClient(cache.New()).Fetch(context.Background(), srv.URL, 5)
	require.Error(t, err)
}

func TestStripTags(t *testing.T) {
	assert.Equal(t, "hello world", stripTags("<p>hello <a href=\"x\">world</a></p>"))
	assert.Equal(t, "plain", stripTags("plain"))
}
