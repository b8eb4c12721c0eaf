// Package api exposes the dashboard data as a JSON API. Upstream
// degradation is part of the payload: handlers never answer non-200 for
// a struggling data source.
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/passionpotato/teslawebsite/internal/edgar"
	"github.com/passionpotato/teslawebsite/internal/feed"
	"github.com/passionpotato/teslawebsite/internal/market"
	"github.com/passionpotato/teslawebsite/internal/model"
)

// ChartService resolves a price request through the fallback chain.
type ChartService interface {
	Fetch(ctx context.Context, symbol, period, interval string) market.Result
}

// HoldingsService builds the institutional holdings table.
type HoldingsService interface {
	Build(ctx context.Context, institutions []edgar.Institution) []model.HoldingsRow
}

// SocialService polls an account timeline incrementally.
type SocialService interface {
	Enabled() bool
	UserID(ctx context.Context, handle string) (string, error)
	LatestPosts(ctx context.Context, userID, sinceID string, max int) ([]model.SocialPost, string, error)
}

// VideoService polls a channel for uploads and live broadcasts.
type VideoService interface {
	LatestVideos(ctx context.Context, channelID, cursor string, max int) ([]model.VideoItem, string, error)
	LiveStream(ctx context.Context, channelID string) (*model.VideoItem, error)
}

// NewsService fetches RSS headlines.
type NewsService interface {
	Fetch(ctx context.Context, feedURL string, limit int) ([]model.NewsItem, error)
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	Symbol       string
	Chart        ChartService
	Holdings     HoldingsService
	Institutions []edgar.Institution
	Social       SocialService
	Video        VideoService
	ChannelID    string
	News         NewsService
	Feeds        []feed.NewsSource
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// GetChart handles GET /api/v1/chart?period=&interval=.
func (h *Handler) GetChart(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "1d"
	}
	interval := r.URL.Query().Get("interval")
	if interval == "" {
		interval = "1m"
	}

	res := h.Chart.Fetch(r.Context(), h.Symbol, period, interval)
	respondJSON(w, http.StatusOK, res)
}

// GetQuote handles GET /api/v1/quote: a delayed last price with the
// change versus the previous bar.
func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	res := h.Chart.Fetch(r.Context(), h.Symbol, "1d", "5m")

	out := struct {
		Symbol string  `json:"symbol"`
		Price  float64 `json:"price"`
		Change float64 `json:"change"`
		Note   string  `json:"note,omitempty"`
		Err    string  `json:"error,omitempty"`
	}{Symbol: h.Symbol, Note: res.Note, Err: res.Err}

	if n := len(res.Bars); n > 0 {
		out.Price = res.Bars[n-1].Close
		if n > 1 {
			out.Change = res.Bars[n-1].Close - res.Bars[n-2].Close
		}
	}
	respondJSON(w, http.StatusOK, out)
}

// GetHoldings handles GET /api/v1/holdings.
func (h *Handler) GetHoldings(w http.ResponseWriter, r *http.Request) {
	rows := h.Holdings.Build(r.Context(), h.Institutions)
	respondJSON(w, http.StatusOK, struct {
		Rows  []model.HoldingsRow `json:"rows"`
		Count int                 `json:"count"`
	}{Rows: rows, Count: len(rows)})
}

// GetNews handles GET /api/v1/news. A failing feed becomes an empty
// section with a note; the other feeds still render.
func (h *Handler) GetNews(w http.ResponseWriter, r *http.Request) {
	type section struct {
		Source string           `json:"source"`
		Items  []model.NewsItem `json:"items"`
		Err    string           `json:"error,omitempty"`
	}

	sections := make([]section, 0, len(h.Feeds))
	for _, f := range h.Feeds {
		items, err := h.News.Fetch(r.Context(), f.URL, 7)
		sec := section{Source: f.Name, Items: items}
		if err != nil {
			log.Printf("[WARN] news feed %s: %v", f.Name, err)
			sec.Err = err.Error()
		}
		sections = append(sections, sec)
	}
	respondJSON(w, http.StatusOK, sections)
}

// GetPosts handles GET /api/v1/posts/{handle}?since_id=. The caller owns
// the cursor: pass the returned value back on the next poll.
func (h *Handler) GetPosts(w http.ResponseWriter, r *http.Request) {
	handle := mux.Vars(r)["handle"]
	sinceID := r.URL.Query().Get("since_id")

	out := struct {
		Handle string             `json:"handle"`
		Posts  []model.SocialPost `json:"posts"`
		Cursor string             `json:"cursor"`
		Note   string             `json:"note,omitempty"`
	}{Handle: handle, Cursor: sinceID}

	if !h.Social.Enabled() {
		out.Note = "social polling disabled: no bearer token configured"
		respondJSON(w, http.StatusOK, out)
		return
	}

	userID, err := h.Social.UserID(r.Context(), handle)
	if err != nil || userID == "" {
		out.Note = "account id could not be resolved"
		respondJSON(w, http.StatusOK, out)
		return
	}

	posts, cursor, err := h.Social.LatestPosts(r.Context(), userID, sinceID, 5)
	if err != nil {
		log.Printf("[WARN] posts %s: %v", handle, err)
		out.Note = "timeline temporarily unavailable"
		respondJSON(w, http.StatusOK, out)
		return
	}
	out.Posts = posts
	out.Cursor = cursor
	respondJSON(w, http.StatusOK, out)
}

// GetVideos handles GET /api/v1/videos?cursor=.
func (h *Handler) GetVideos(w http.ResponseWriter, r *http.Request) {
	cursor := r.URL.Query().Get("cursor")

	out := struct {
		Videos []model.VideoItem `json:"videos"`
		Cursor string            `json:"cursor"`
		Note   string            `json:"note,omitempty"`
	}{Cursor: cursor}

	videos, next, err := h.Video.LatestVideos(r.Context(), h.ChannelID, cursor, 10)
	if err != nil {
		log.Printf("[WARN] videos: %v", err)
		out.Note = "channel feed temporarily unavailable"
		respondJSON(w, http.StatusOK, out)
		return
	}
	out.Videos = videos
	out.Cursor = next
	respondJSON(w, http.StatusOK, out)
}

// GetLive handles GET /api/v1/live.
func (h *Handler) GetLive(w http.ResponseWriter, r *http.Request) {
	out := struct {
		Live *model.VideoItem `json:"live"`
		Note string           `json:"note,omitempty"`
	}{}

	item, err := h.Video.LiveStream(r.Context(), h.ChannelID)
	if err != nil {
		log.Printf("[WARN] live check: %v", err)
		out.Note = "live detection temporarily unavailable"
	} else {
		out.Live = item
	}
	respondJSON(w, http.StatusOK, out)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
