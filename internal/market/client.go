// Package market implements the price retrieval client: a declarative
// fallback chain over the Yahoo chart API with a Stooq daily backup.
package market

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/passionpotato/teslawebsite/internal/cache"
	"github.com/passionpotato/teslawebsite/internal/model"
)

// StooqDaily tags a result that came from the daily fallback source.
const StooqDaily = "stooq-daily"

// intradayIntervals are the chart provider's sub-daily granularities,
// which it only serves for short lookback windows.
var intradayIntervals = map[string]bool{
	"1m": true, "2m": true, "5m": true, "15m": true, "30m": true, "60m": true, "90m": true,
}

// intervalAliases maps coarse aliases to provider-supported intervals.
var intervalAliases = map[string]string{
	"1h": "60m",
}

var (
	fineLookbacks     = map[string]bool{"1d": true, "5d": true, "7d": true}
	intradayLookbacks = map[string]bool{
		"1d": true, "5d": true, "7d": true, "1mo": true, "3mo": true, "6mo": true, "60d": true, "90d": true,
	}
)

// NormalizeInterval resolves interval aliases (1h -> 60m).
func NormalizeInterval(interval string) string {
	if alias, ok := intervalAliases[interval]; ok {
		return alias
	}
	return interval
}

// BuildCombos returns the ordered (period, interval) pairs to try against
// the chart source: the request itself, then bounded-lookback corrections
// for intraday intervals, then a one-year daily last attempt. Keeping the
// policy as a plain list keeps provider-rule changes in one place.
func BuildCombos(period, interval string) []Combo {
	interval = NormalizeInterval(interval)
	combos := []Combo{{Period: period, Interval: interval}}

	if interval == "1m" && !fineLookbacks[period] {
		combos = append(combos, Combo{Period: "5d", Interval: "1m"})
	}
	if intradayIntervals[interval] && !intradayLookbacks[period] {
		combos = append(combos, Combo{Period: "1mo", Interval: "5m"})
	}
	combos = append(combos, Combo{Period: "1y", Interval: "1d"})
	return combos
}

// Result is what a chart request resolves to. Used reports the pair that
// actually satisfied the request; a Used differing from the request with
// an empty Note is a silent degradation. Err is set only when every
// source was exhausted. There is no error return past this boundary.
type Result struct {
	Bars []model.PricePoint `json:"bars"`
	Used Combo              `json:"used"`
	Note string             `json:"note,omitempty"`
	Err  string             `json:"error,omitempty"`
}

// Client runs the fallback chain and memoizes results briefly so UI
// auto-refresh cannot hammer the providers.
type Client struct {
	Chart ChartSource
	Daily DailySource

	store *cache.Store
	ttl   time.Duration
}

// NewClient wires the chart and daily sources with a shared cache store.
func NewClient(chart ChartSource, daily DailySource, store *cache.Store) *Client {
	return &Client{
		Chart: chart,
		Daily: daily,
		store: store,
		ttl:   2 * time.Minute,
	}
}

// Fetch resolves (symbol, period, interval) through the fallback chain.
// Total failure is reported inside the Result, never raised.
func (c *Client) Fetch(ctx context.Context, symbol, period, interval string) Result {
	key := cache.Key("chart", symbol, period, interval)
	if c.store != nil {
		if v, ok := c.store.Get(key); ok {
			if res, ok := v.(Result); ok {
				return res
			}
		}
	}

	res := c.fetch(ctx, symbol, period, interval)
	if c.store != nil && res.Err == "" {
		c.store.Set(key, res, c.ttl)
	}
	return res
}

func (c *Client) fetch(ctx context.Context, symbol, period, interval string) Result {
	var lastErr error

	for _, combo := range BuildCombos(period, interval) {
		bars, err := c.Chart.FetchChart(ctx, symbol, combo)
		if err != nil {
			lastErr = err
			log.Printf("[WARN] %s %s %s/%s: %v", c.Chart.Name(), symbol, combo.Period, combo.Interval, err)
			continue
		}
		if len(bars) == 0 {
			continue
		}
		return Result{Bars: bars, Used: combo}
	}

	bars, err := c.Daily.FetchDaily(ctx, symbol)
	if err == nil && len(bars) > 0 {
		return Result{
			Bars: bars,
			Used: Combo{Period: StooqDaily, Interval: "1d"},
			Note: fmt.Sprintf("%s empty, %s daily fallback", c.Chart.Name(), c.Daily.Name()),
		}
	}
	if err != nil {
		lastErr = fmt.Errorf("%s failed: %w", c.Daily.Name(), err)
	}

	res := Result{Err: "no data returned"}
	if lastErr != nil {
		res.Err = lastErr.Error()
	}
	return res
}
