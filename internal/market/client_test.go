package market

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passionpotato/teslawebsite/internal/cache"
	"github.com/passionpotato/teslawebsite/internal/model"
)

// mockChart returns canned bars per combo and records what was requested.
type mockChart struct {
	data     map[Combo][]model.PricePoint
	err      error
	requests []Combo
}

func (m *mockChart) Name() string { return "yahoo" }

func (m *mockChart) FetchChart(_ context.Context, _ string, c Combo) ([]model.PricePoint, error) {
	m.requests = append(m.requests, c)
	if m.err != nil {
		return nil, m.err
	}
	return m.data[c], nil
}

type mockDaily struct {
	bars []model.PricePoint
	err  error
}

func (m *mockDaily) Name() string { return "stooq" }

func (m *mockDaily) FetchDaily(context.Context, string) ([]model.PricePoint, error) {
	return m.bars, m.err
}

func someBars(n int) []model.PricePoint {
	bars := make([]model.PricePoint, n)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = model.PricePoint{Time: base.AddDate(0, 0, i), Open: 180, High: 185, Low: 178, Close: 182, Volume: 1e6}
	}
	return bars
}

func TestBuildCombos(t *testing.T) {
	tests := []struct {
		name     string
		period   string
		interval string
		want     []Combo
	}{
		{
			name: "exact short 1m request gets no corrections", period: "1d", interval: "1m",
			want: []Combo{{"1d", "1m"}, {"1y", "1d"}},
		},
		{
			name: "1m over a long period adds bounded 1m then 5m pairs", period: "1y", interval: "1m",
			want: []Combo{{"1y", "1m"}, {"5d", "1m"}, {"1mo", "5m"}, {"1y", "1d"}},
		},
		{
			name: "intraday over unsupported period adds 1mo/5m", period: "1y", interval: "15m",
			want: []Combo{{"1y", "15m"}, {"1mo", "5m"}, {"1y", "1d"}},
		},
		{
			name: "1h normalizes to 60m", period: "1d", interval: "1h",
			want: []Combo{{"1d", "60m"}, {"1y", "1d"}},
		},
		{
			name: "daily request only gets the final daily pair", period: "6mo", interval: "1d",
			want: []Combo{{"6mo", "1d"}, {"1y", "1d"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildCombos(tt.period, tt.interval))
		})
	}
}

func TestFetchExactRequestSucceeds(t *testing.T) {
	chart := &mockChart{data: map[Combo][]model.PricePoint{
		{"1d", "1m"}: someBars(3),
	}}
	c := NewClient(chart, &mockDaily{}, nil)

	res := c.Fetch(context.Background(), "TSLA", "1d", "1m")
	require.Empty(t, res.Err)
	assert.Equal(t, Combo{"1d", "1m"}, res.Used)
	assert.Empty(t, res.Note, "exact hit must carry no degradation note")
	assert.Len(t, res.Bars, 3)
	assert.Equal(t, []Combo{{"1d", "1m"}}, chart.requests, "no further pairs after a hit")
}

func TestFetchFallsThroughToLaterPair(t *testing.T) {
	chart := &mockChart{data: map[Combo][]model.PricePoint{
		{"1y", "1d"}: someBars(5),
	}}
	c := NewClient(chart, &mockDaily{}, nil)

	res := c.Fetch(context.Background(), "TSLA", "1y", "1m")
	require.Empty(t, res.Err)
	assert.Equal(t, Combo{"1y", "1d"}, res.Used)
	assert.Empty(t, res.Note, "primary-source degradation is silent, tagged only by Used")
}

func TestFetchStooqFallback(t *testing.T) {
	chart := &mockChart{}
	daily := &mockDaily{bars: someBars(10)}
	c := NewClient(chart, daily, nil)

	res := c.Fetch(context.Background(), "TSLA", "1d", "1m")
	require.Empty(t, res.Err)
	assert.Equal(t, Combo{StooqDaily, "1d"}, res.Used)
	assert.NotEmpty(t, res.Note, "secondary-source fallback must carry a note")
	assert.Len(t, res.Bars, 10)
}

func TestFetchTotalFailure(t *testing.T) {
	chart := &mockChart{err: errors.New("yahoo down")}
	daily := &mockDaily{err: errors.New("stooq down")}
	c := NewClient(chart, daily, nil)

	res := c.Fetch(context.Background(), "TSLA", "1d", "1m")
	assert.Empty(t, res.Bars)
	assert.NotEmpty(t, res.Err)
	assert.Contains(t, res.Err, "stooq")
}

func TestFetchEmptyEverywhere(t *testing.T) {
	c := NewClient(&mockChart{}, &mockDaily{}, nil)

	res := c.Fetch(context.Background(), "TSLA", "1d", "1d")
	assert.Empty(t, res.Bars)
	assert.Equal(t, "no data returned", res.Err)
}

func TestFetchCachesByRequest(t *testing.T) {
	chart := &mockChart{data: map[Combo][]model.PricePoint{
		{"1d", "5m"}: someBars(2),
	}}
	c := NewClient(chart, &mockDaily{}, cache.New())

	first := c.Fetch(context.Background(), "TSLA", "1d", "5m")
	second := c.Fetch(context.Background(), "TSLA", "1d", "5m")
	assert.Equal(t, first, second)
	assert.Len(t, chart.requests, 1, "second call should be served from cache")

	c.Fetch(context.Background(), "TSLA", "5d", "5m")
	assert.Greater(t, len(chart.requests), 1, "different arguments miss the cache")
}
