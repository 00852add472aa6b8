// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for finding something to listen to:
//  1. [SearchView] : Type a query
//  2. [ResultsView] : Browse ranked results with their scores
//  3. [QueueView] : Preview the "up next" queue built from a result
//  4. [StreamView] : Show the resolved stream for the chosen track
//  5. [PrefetchView] : Monitor cache warming for the queue
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Prefetch progress flows through a channel from the Prefetcher, providing non-blocking status reporting.
//
// Tracks played during the session are excluded from later queues.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, u, p, /, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
