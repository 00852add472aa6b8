package tasks

import (
	"fmt"

	"github.com/desertthunder/nextup/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	PrefetchStart Phase = iota
	PrefetchResolved
	PrefetchFailed
)

func (p Phase) String() string {
	switch p {
	case PrefetchStart:
		return "prefetch_start"
	case PrefetchResolved:
		return "prefetch_resolved"
	case PrefetchFailed:
		return "prefetch_failed"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func prefetchStartUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PrefetchStart,
		Total:   total,
		Message: fmt.Sprintf("Warming %d streams...", total),
	}
}

func prefetchResolvedUpdate(step, total int, res *models.StreamResult) ProgressUpdate {
	state := "resolved"
	if res.Cached {
		state = "cached"
	}
	return ProgressUpdate{
		Phase:   PrefetchResolved,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%s, %dms)", step, total, res.ID, state, res.ResolutionTimeMs),
		Data:    res,
	}
}

func prefetchFailedUpdate(step, total int, id string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PrefetchFailed,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, id, err),
	}
}
