// package ranking scores and deduplicates raw catalog hits
package ranking

import (
	"strings"

	"github.com/desertthunder/nextup/internal/models"
)

const (
	blockPenalty = -50
	boostBonus   = 10
	trustBonus   = 5

	idealDurationBonus  = 10
	shortDurationMalus  = -20
	longDurationMalus   = -10
	minIdealDuration    = 120
	maxIdealDuration    = 420
	shortDurationCutoff = 60
	longDurationCutoff  = 720
)

// blockTerms mark uploads that are almost never the song itself.
var blockTerms = []string{
	"trailer", "teaser", "reaction", "interview", "dialogue", "scene", "bgm",
	"remix", "cover", "shorts", "status", "video song", "full movie", "movie review",
	"podcast", "episode", "discussion",
	"8d", "16d", "3d", "slowed", "reverb", "bass boosted", "nightcore", "mashup",
	"karaoke", "instrumental",
}

var boostTerms = []string{
	"official audio", "lyrical", "full song", "soundtrack", "audio", "original", "topic",
}

// trustMarkers identify label and auto-generated artist channels.
var trustMarkers = []string{"topic", "vevo", "records"}

// Score rates how likely a hit is to be the plain studio track.
//
// Each block term present in the title costs 50, each boost term adds 10; terms are case-insensitive
// substrings and count once each. Durations in [120, 420] seconds add 10, under 60 cost 20 and over 720
// cost 10; a zero duration is unknown and neutral. A trusted channel adds 5 once.
func Score(title string, durationSeconds int, channel string) int {
	t := strings.ToLower(title)
	score := 0

	for _, term := range blockTerms {
		if strings.Contains(t, term) {
			score += blockPenalty
		}
	}

	for _, term := range boostTerms {
		if strings.Contains(t, term) {
			score += boostBonus
		}
	}

	score += durationScore(durationSeconds)

	c := strings.ToLower(channel)
	for _, marker := range trustMarkers {
		if strings.Contains(c, marker) {
			score += trustBonus
			break
		}
	}

	return score
}

func durationScore(seconds int) int {
	switch {
	case seconds <= 0:
		return 0
	case seconds >= minIdealDuration && seconds <= maxIdealDuration:
		return idealDurationBonus
	case seconds < shortDurationCutoff:
		return shortDurationMalus
	case seconds > longDurationCutoff:
		return longDurationMalus
	}
	return 0
}

// Valid reports whether a raw hit carries the fields every pipeline needs.
func Valid(raw models.RawCandidate) bool {
	return strings.TrimSpace(raw.ID) != "" && strings.TrimSpace(raw.Title) != ""
}

// FromRaw converts a raw hit into a [models.Candidate] without scoring it.
func FromRaw(raw models.RawCandidate) models.Candidate {
	return models.Candidate{
		ID:              strings.TrimSpace(raw.ID),
		Title:           raw.Title,
		Artist:          raw.Channel,
		DurationSeconds: max(raw.DurationSeconds, 0),
		ThumbnailURL:    raw.ThumbnailURL,
	}
}

// ScoreAll scores raw hits in provider order, dropping malformed hits and repeated ids.
func ScoreAll(raw []models.RawCandidate) []models.Candidate {
	out := make([]models.Candidate, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))

	for _, r := range raw {
		if !Valid(r) {
			continue
		}
		c := FromRaw(r)
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}

		c.Score = Score(r.Title, r.DurationSeconds, r.Channel)
		out = append(out, c)
	}
	return out
}
