package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/passionpotato/teslawebsite/internal/api"
	"github.com/passionpotato/teslawebsite/internal/cache"
	"github.com/passionpotato/teslawebsite/internal/config"
	"github.com/passionpotato/teslawebsite/internal/edgar"
	"github.com/passionpotato/teslawebsite/internal/feed"
	"github.com/passionpotato/teslawebsite/internal/market"
	"github.com/passionpotato/teslawebsite/internal/recorder"
	"github.com/passionpotato/teslawebsite/internal/scheduler"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] tesla-onestop starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// One cache store shared by every adapter; each picks its own TTLs.
	store := cache.New()

	// Price sources
	mkt := market.NewClient(
		market.NewYahooSource(cfg.Proxy),
		market.NewStooqSource(cfg.Proxy),
		store,
	)

	// SEC EDGAR holdings
	sec := edgar.NewClient(cfg.SEC.UserAgent, store)
	holdings := edgar.NewBuilder(sec, edgar.IssuerMatcher{
		CUSIPPrefix:   cfg.Tracked.CUSIPPrefix,
		NameSubstring: cfg.Tracked.IssuerName,
	})
	institutions := make([]edgar.Institution, 0, len(cfg.SEC.Institutions))
	for _, inst := range cfg.SEC.Institutions {
		institutions = append(institutions, edgar.Institution{Name: inst.Name, CIK: inst.CIK})
	}

	// Feed clients
	social := feed.NewXClient(cfg.X.BearerToken, store)
	if !social.Enabled() {
		log.Println("[WARN] no X bearer token, social endpoints will degrade")
	}
	video := feed.NewYouTubeClient(cfg.YouTube.APIKey)
	news := feed.NewNewsClient(store)
	feeds := make([]feed.NewsSource, 0, len(cfg.News))
	for _, f := range cfg.News {
		feeds = append(feeds, feed.NewsSource{Name: f.Name, URL: f.URL})
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, mkt, holdings, institutions, rec, cfg.Tracked.Symbol)
	if err := sched.RegisterAll(cfg.Schedule.QuoteCron, cfg.Schedule.HoldingsCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, refreshing holdings now")
		go sched.RunHoldingsNow()
	}

	// HTTP API
	handler := &api.Handler{
		Symbol:       cfg.Tracked.Symbol,
		Chart:        mkt,
		Holdings:     holdings,
		Institutions: institutions,
		Social:       social,
		Video:        video,
		ChannelID:    cfg.YouTube.ChannelID,
		News:         news,
		Feeds:        feeds,
	}
	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: api.SetupRoutes(handler),
	}
	go func() {
		log.Printf("[INFO] listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[FATAL] http server: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[ERROR] http shutdown: %v", err)
	}
	log.Println("[INFO] tesla-onestop stopped")
}
