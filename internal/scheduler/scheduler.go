// Package scheduler warms the dashboard caches and records refresh
// history on cron schedules, so a page load after a quiet period still
// hits warm data.
package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"github.com/passionpotato/teslawebsite/internal/edgar"
	"github.com/passionpotato/teslawebsite/internal/market"
	"github.com/passionpotato/teslawebsite/internal/recorder"
)

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron         *cron.Cron
	Market       *market.Client
	Holdings     *edgar.Builder
	Institutions []edgar.Institution
	Recorder     recorder.Recorder
	Symbol       string
	Ctx          context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, mkt *market.Client, holdings *edgar.Builder,
	institutions []edgar.Institution, rec recorder.Recorder, symbol string) *Scheduler {
	return &Scheduler{
		Cron:         cron.New(cron.WithSeconds()),
		Market:       mkt,
		Holdings:     holdings,
		Institutions: institutions,
		Recorder:     rec,
		Symbol:       symbol,
		Ctx:          ctx,
	}
}

// RegisterAll registers the quote and holdings refresh tasks.
func (s *Scheduler) RegisterAll(quoteCron, holdingsCron string) error {
	if _, err := s.Cron.AddFunc(quoteCron, s.quoteTask); err != nil {
		return fmt.Errorf("register quote task: %w", err)
	}
	if _, err := s.Cron.AddFunc(holdingsCron, s.holdingsTask); err != nil {
		return fmt.Errorf("register holdings task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunHoldingsNow executes the holdings refresh immediately (for RUN_ON_START).
func (s *Scheduler) RunHoldingsNow() {
	s.holdingsTask()
}

func (s *Scheduler) quoteTask() {
	res := s.Market.Fetch(s.Ctx, s.Symbol, "1d", "5m")
	if res.Err != "" {
		log.Printf("[ERROR] quote refresh: %s", res.Err)
		return
	}
	if len(res.Bars) == 0 {
		return
	}
	last := res.Bars[len(res.Bars)-1]
	if err := s.Recorder.RecordQuote(&recorder.QuoteSnapshot{
		Symbol:   s.Symbol,
		Price:    last.Close,
		Period:   res.Used.Period,
		Interval: res.Used.Interval,
		Note:     res.Note,
	}); err != nil {
		log.Printf("[ERROR] record quote: %v", err)
	}
}

func (s *Scheduler) holdingsTask() {
	log.Println("[INFO] running holdings refresh")
	rows := s.Holdings.Build(s.Ctx, s.Institutions)
	if len(rows) == 0 {
		log.Println("[WARN] holdings refresh produced no rows")
		return
	}
	if err := s.Recorder.RecordHoldings(rows); err != nil {
		log.Printf("[ERROR] record holdings: %v", err)
	}
}
