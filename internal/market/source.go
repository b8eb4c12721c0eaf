package market

import (
	"context"

	"github.com/passionpotato/teslawebsite/internal/model"
)

// Combo is one (period, interval) request pair against the chart source.
type Combo struct {
	Period   string `json:"period"`
	Interval string `json:"interval"`
}

// ChartSource fetches bars for an exact period/interval pair.
type ChartSource interface {
	FetchChart(ctx context.Context, symbol string, c Combo) ([]model.PricePoint, error)
	Name() string
}

// DailySource is the degraded daily-only source tried after the chart
// source is exhausted.
type DailySource interface {
	FetchDaily(ctx context.Context, symbol string) ([]model.PricePoint, error)
	Name() string
}
