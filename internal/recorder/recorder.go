package recorder

import "github.com/passionpotato/teslawebsite/internal/model"

// QuoteSnapshot holds one recorded price observation.
type QuoteSnapshot struct {
	Symbol   string
	Price    float64
	Period   string
	Interval string
	Note     string
}

// Recorder persists refresh history for later analysis (e.g. charting
// holdings drift between quarters). The dashboard itself never reads it.
type Recorder interface {
	RecordQuote(snap *QuoteSnapshot) error
	RecordHoldings(rows []model.HoldingsRow) error
	Close() error
}
