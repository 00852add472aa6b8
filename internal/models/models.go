// package models defines the records exchanged between the provider, the pipelines and the outer surfaces
package models

import (
	"fmt"
	"strings"
	"time"
)

// RawCandidate is one unscored hit as returned by a content provider. Any field may be empty.
type RawCandidate struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	DurationSeconds int    `json:"duration"`
	Channel         string `json:"channel"`
	ThumbnailURL    string `json:"thumbnail,omitempty"`
}

// Candidate is a provider hit that survived validation, with its heuristic score.
//
// Score is recomputed on every pipeline run and never persisted.
type Candidate struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Artist          string `json:"artist"`
	DurationSeconds int    `json:"duration"`
	ThumbnailURL    string `json:"thumbnail,omitempty"`
	Score           int    `json:"score"`
}

// StreamInfo is the provider's answer for a playable stream. It is the cached payload.
type StreamInfo struct {
	ID              string `json:"video_id"`
	StreamURL       string `json:"stream_url"`
	Title           string `json:"title"`
	Artist          string `json:"artist"`
	DurationSeconds int    `json:"duration"`
	ThumbnailURL    string `json:"thumbnail"`
}

// StreamResult is what callers of the stream resolver receive.
type StreamResult struct {
	StreamInfo
	Cached           bool  `json:"cached"`
	ResolutionTimeMs int64 `json:"fetch_time_ms"`
}

// SeedTrack is the "now playing" track a queue is built from.
type SeedTrack struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

func (s SeedTrack) Validate() error {
	if strings.TrimSpace(s.Title) == "" && strings.TrimSpace(s.Artist) == "" {
		return fmt.Errorf("seed track needs a title or an artist")
	}
	return nil
}

// HistoryEntry is one recorded play.
type HistoryEntry struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	TrackID         string    `json:"track_id"`
	Title           string    `json:"title"`
	Artist          string    `json:"artist"`
	DurationSeconds int       `json:"duration"`
	ThumbnailURL    string    `json:"thumbnail,omitempty"`
	PlayedAt        time.Time `json:"played_at"`
}

func (h HistoryEntry) Validate() error {
	if h.UserID == "" {
		return fmt.Errorf("history entry missing user_id")
	}
	if h.TrackID == "" {
		return fmt.Errorf("history entry missing track_id")
	}
	return nil
}

// Candidate converts a played track back into a candidate-shaped record for feeds.
func (h HistoryEntry) Candidate() Candidate {
	return Candidate{
		ID:              h.TrackID,
		Title:           h.Title,
		Artist:          h.Artist,
		DurationSeconds: h.DurationSeconds,
		ThumbnailURL:    h.ThumbnailURL,
	}
}

// Onboarding holds the preferences a user picks on first launch.
type Onboarding struct {
	Country  string   `json:"country"`
	Language string   `json:"language"`
	Artists  []string `json:"artists"`
	Modes    []string `json:"modes"`
}

func (o Onboarding) Validate() error {
	var missing []string
	if strings.TrimSpace(o.Country) == "" {
		missing = append(missing, "country")
	}
	if strings.TrimSpace(o.Language) == "" {
		missing = append(missing, "language")
	}
	if len(o.Artists) == 0 {
		missing = append(missing, "artists")
	}
	if len(o.Modes) == 0 {
		missing = append(missing, "modes")
	}
	if len(missing) > 0 {
		return fmt.Errorf("onboarding missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// HomeFeed is the set of shelves shown on the home screen.
type HomeFeed struct {
	JumpBackIn []Candidate `json:"jump_back_in"`
	MadeForYou []Candidate `json:"made_for_you"`
	Trending   []Candidate `json:"trending"`
}
