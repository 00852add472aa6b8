package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/nextup/internal/models"
	"github.com/desertthunder/nextup/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSearchDone MsgKind = iota
	MsgQueueDone
	MsgStreamResolved
	MsgPrefetchProgress
	MsgPrefetchDone
)

type candidatesData struct {
	candidates []models.Candidate
	err        error
}

type streamData struct {
	result *models.StreamResult
	err    error
}

// searchDoneMsg is the constructor for [MsgSearchDone]
func searchDoneMsg(results []models.Candidate, err error) Msg {
	return Msg{kind: MsgSearchDone, data: candidatesData{results, err}}
}

// queueDoneMsg is the constructor for [MsgQueueDone]
func queueDoneMsg(queue []models.Candidate, err error) Msg {
	return Msg{kind: MsgQueueDone, data: candidatesData{queue, err}}
}

// streamResolvedMsg is the constructor for [MsgStreamResolved]
func streamResolvedMsg(res *models.StreamResult, err error) Msg {
	return Msg{kind: MsgStreamResolved, data: streamData{res, err}}
}

// prefetchProgressMsg is the constructor for [MsgPrefetchProgress]
func prefetchProgressMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgPrefetchProgress, data: update}
}

// prefetchDoneMsg is the constructor for [MsgPrefetchDone]
func prefetchDoneMsg(result *tasks.PrefetchResult) Msg {
	return Msg{kind: MsgPrefetchDone, data: result}
}
