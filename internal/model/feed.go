package model

import "time"

// SocialPost is one timeline item from the social source.
type SocialPost struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	URL       string    `json:"url"`
}

// VideoItem is one upload (or live broadcast) from the video source.
type VideoItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Published time.Time `json:"published"`
	URL       string    `json:"url"`
	Live      bool      `json:"live,omitempty"`
}

// NewsItem is one headline from an RSS feed.
type NewsItem struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Published string `json:"published"`
	Summary   string `json:"summary,omitempty"`
}
