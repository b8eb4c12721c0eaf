package market

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yahooChartBody = `{
  "chart": {
    "result": [{
      "timestamp": [1709280000, 1709366400, 1709452800],
      "indicators": {
        "quote": [{
          "open":   [200.1, null, 203.0],
          "high":   [205.0, null, 206.5],
          "low":    [199.0, null, 201.2],
          "close":  [204.2, null, 205.9],
          "volume": [1000000, null, 1200000]
        }]
      }
    }],
    "error": null
  }
}`

func TestYahooFetchChart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/TSLA", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.Equal(t, "1mo", r.URL.Query().Get("range"))
		fmt.Fprint(w, yahooChartBody)
	}))
	defer srv.Close()

	f := NewYahooSource("")
	f.BaseURL = srv.URL

	bars, err := f.FetchChart(context.Background(), "TSLA", Combo{Period: "1mo", Interval: "1d"})
	require.NoError(t, err)
	require.Len(t, bars, 2, "null bar should be skipped")
	assert.Equal(t, 204.2, bars[0].Close)
	assert.Equal(t, 205.9, bars[1].Close)
	assert.True(t, bars[0].Time.Before(bars[1].Time), "bars must ascend by time")
}

func TestYahooFetchChartAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)
	}))
	defer srv.Close()

	f := NewYahooSource("")
	f.BaseURL = srv.URL

	_, err := f.FetchChart(context.Background(), "NOPE", Combo{Period: "1d", Interval: "1d"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No data found")
}

func TestYahooFetchChartEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":[],"error":null}}`)
	}))
	defer srv.Close()

	f := NewYahooSource("")
	f.BaseURL = srv.URL

	bars, err := f.FetchChart(context.Background(), "TSLA", Combo{Period: "1d", Interval: "1m"})
	require.NoError(t, err, "empty data is not an error, the client falls through")
	assert.Empty(t, bars)
}

func TestStooqFetchDaily(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tsla.us", r.URL.Query().Get("s"))
		fmt.Fprint(w, "Date,Open,High,Low,Close,Volume\n"+
			"2024-03-01,200.1,205.0,199.0,204.2,1000000\n"+
			"2024-03-04,N/D,N/D,N/D,N/D,0\n"+
			"2024-03-05,203.0,206.5,201.2,205.9,1200000\n")
	}))
	defer srv.Close()

	f := NewStooqSource("")
	f.BaseURL = srv.URL

	bars, err := f.FetchDaily(context.Background(), "TSLA")
	require.NoError(t, err)
	require.Len(t, bars, 2, "N/D row should be skipped")
	assert.Equal(t, 204.2, bars[0].Close)
	assert.Equal(t, float64(1200000), bars[1].Volume)
}

func TestStooqTicker(t *testing.T) {
	assert.Equal(t, "tsla.us", stooqTicker("TSLA"))
	assert.Equal(t, "spy.us", stooqTicker("SPY"))
	assert.Equal(t, "tsla.de", stooqTicker("TSLA.DE"))
}
