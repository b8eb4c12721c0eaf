package market

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/passionpotato/teslawebsite/internal/model"
)

const stooqBaseURL = "https://stooq.com"

// StooqSource downloads daily candles as CSV from stooq.com. It only
// serves daily granularity and exists as the last-resort price fallback.
type StooqSource struct {
	BaseURL string
	Client  *http.Client
}

// NewStooqSource creates a Stooq daily source with optional proxy support.
func NewStooqSource(proxyURL string) *StooqSource {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &StooqSource{
		BaseURL: stooqBaseURL,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (f *StooqSource) Name() string { return "stooq" }

// stooqTicker maps a plain US symbol to Stooq's query form (tsla -> tsla.us).
func stooqTicker(symbol string) string {
	s := strings.ToLower(symbol)
	if !strings.Contains(s, ".") {
		s += ".us"
	}
	return s
}

// FetchDaily downloads the symbol's full daily history.
func (f *StooqSource) FetchDaily(ctx context.Context, symbol string) ([]model.PricePoint, error) {
	u := fmt.Sprintf("%s/q/d/l/?s=%s&i=d", f.BaseURL, url.QueryEscape(stooqTicker(symbol)))

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stooq fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("stooq: status %d, body: %s", resp.StatusCode, string(body))
	}

	r := csv.NewReader(resp.Body)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("stooq csv: %w", err)
	}
	if len(records) < 2 {
		return nil, nil
	}

	// Header: Date,Open,High,Low,Close,Volume
	bars := make([]model.PricePoint, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) < 5 {
			continue
		}
		ts, err := time.Parse("2006-01-02", rec[0])
		if err != nil {
			continue
		}
		o, err1 := strconv.ParseFloat(rec[1], 64)
		h, err2 := strconv.ParseFloat(rec[2], 64)
		l, err3 := strconv.ParseFloat(rec[3], 64)
		c, err4 := strconv.ParseFloat(rec[4], 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue // "N/D" placeholders on non-trading rows
		}
		var vol float64
		if len(rec) > 5 {
			vol, _ = strconv.ParseFloat(rec[5], 64)
		}
		bars = append(bars, model.PricePoint{Time: ts, Open: o, High: h, Low: l, Close: c, Volume: vol})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}
