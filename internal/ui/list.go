package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/nextup/internal/models"
	"github.com/desertthunder/nextup/internal/shared"
)

var _ list.Item = candidateItem{}

// candidateItem wraps [models.Candidate] to implement [list.Item].
type candidateItem struct {
	candidate models.Candidate
	scored    bool // queue entries carry no score
}

func (i candidateItem) FilterValue() string { return i.candidate.Title }
func (i candidateItem) Title() string       { return i.candidate.Title }
func (i candidateItem) Description() string {
	artist := i.candidate.Artist
	if artist == "" {
		artist = "Unknown"
	}
	desc := fmt.Sprintf("%s • %s", artist, shared.FormatDuration(i.candidate.DurationSeconds))
	if i.scored {
		desc = fmt.Sprintf("%s • %s", desc, styles.scoreStyle(i.candidate.Score).Render(fmt.Sprintf("score %+d", i.candidate.Score)))
	}
	return desc
}

func candidateItems(cands []models.Candidate, scored bool) []list.Item {
	items := make([]list.Item, len(cands))
	for i, c := range cands {
		items[i] = candidateItem{candidate: c, scored: scored}
	}
	return items
}
