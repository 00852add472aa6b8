package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/nextup/internal/models"
	"github.com/desertthunder/nextup/internal/shared"
	"github.com/desertthunder/nextup/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SearchView ViewState = iota
	ResultsView
	QueueView
	StreamView
	PrefetchView
)

type (
	Searcher interface {
		Search(ctx context.Context, query string, limit int) ([]models.Candidate, error)
	}

	QueueBuilder interface {
		Generate(ctx context.Context, seed models.SeedTrack, history []models.HistoryEntry, limit int) ([]models.Candidate, error)
	}

	StreamResolver interface {
		Resolve(ctx context.Context, id string) (*models.StreamResult, error)
	}

	Warmer interface {
		Warm(ctx context.Context, prog chan<- tasks.ProgressUpdate, ids []string) *tasks.PrefetchResult
	}
)

// Deps contains the pipelines the TUI drives. Prefetch may be nil.
type Deps struct {
	Search   Searcher
	Queue    QueueBuilder
	Streams  StreamResolver
	Prefetch Warmer
	Limit    int // results per search and tracks per queue; zero uses the pipeline defaults
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	deps         Deps
	view         ViewState
	prev         ViewState // list view to return to from StreamView and PrefetchView
	width        int
	height       int
	input        textinput.Model
	results      list.Model
	queue        list.Model
	seed         models.SeedTrack
	played       []models.HistoryEntry
	stream       *models.StreamResult
	progressChan chan tasks.ProgressUpdate
	doneChan     chan *tasks.PrefetchResult
	progress     tasks.ProgressUpdate
	prefetch     *tasks.PrefetchResult
	loading      string
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, deps Deps) *Model {
	input := textinput.New()
	input.Placeholder = "artist, song or album"
	input.CharLimit = 200
	input.Focus()

	return &Model{
		ctx:     ctx,
		deps:    deps,
		view:    SearchView,
		input:   input,
		results: newList("Results", nil, true),
		queue:   newList("Up next", nil, false),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

func newList(title string, cands []models.Candidate, scored bool) list.Model {
	l := list.New(candidateItems(cands, scored), list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	return l
}

// Init starts the cursor blinking in the search box.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.results.SetSize(msg.Width-4, msg.Height-8)
		m.queue.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case SearchView:
			return m.handleSearchKeys(msg)
		case ResultsView:
			return m.handleResultsKeys(msg)
		case QueueView:
			return m.handleQueueKeys(msg)
		case StreamView:
			return m.handleStreamKeys(msg)
		case PrefetchView:
			return m.handlePrefetchKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateActive(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSearchDone:
		d := msg.data.(candidatesData)
		m.loading = ""
		if d.err != nil {
			m.err = d.err
			return m, nil
		}
		m.results = newList(fmt.Sprintf("Results for %q", m.input.Value()), d.candidates, true)
		m.results.SetSize(m.width-4, m.height-8)
		m.view = ResultsView
		m.input.Blur()
		return m, nil

	case MsgQueueDone:
		d := msg.data.(candidatesData)
		m.loading = ""
		if d.err != nil {
			m.err = d.err
			return m, nil
		}
		m.queue = newList(fmt.Sprintf("Up next after %s", m.seed.Title), d.candidates, false)
		m.queue.SetSize(m.width-4, m.height-8)
		m.view = QueueView
		return m, nil

	case MsgStreamResolved:
		d := msg.data.(streamData)
		m.loading = ""
		if d.err != nil {
			m.err = d.err
			return m, nil
		}
		m.stream = d.result
		m.played = append(m.played, models.HistoryEntry{TrackID: d.result.ID, Title: d.result.Title, Artist: d.result.Artist})
		m.prev, m.view = m.view, StreamView
		return m, nil

	case MsgPrefetchProgress:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgPrefetchDone:
		m.prefetch = msg.data.(*tasks.PrefetchResult)
		m.progressChan = nil
		m.doneChan = nil
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case SearchView:
		body = m.renderSearch()
	case ResultsView:
		body = m.renderList(m.results, m.keys.enter, m.keys.queue, m.keys.search, m.keys.quit)
	case QueueView:
		body = m.renderList(m.queue, m.keys.enter, m.keys.prefetch, m.keys.back, m.keys.quit)
	case StreamView:
		body = m.renderStream()
	case PrefetchView:
		body = m.renderPrefetch()
	}

	switch {
	case m.err != nil:
		body += "\n" + styles.err.Render(fmt.Sprintf("Error: %v", m.err))
	case m.loading != "":
		body += "\n" + styles.help.Render(m.loading)
	}
	return body
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		if len(m.results.Items()) > 0 {
			m.view = ResultsView
			m.input.Blur()
		}
		return m, nil
	case "enter":
		query := strings.TrimSpace(m.input.Value())
		if query == "" {
			return m, nil
		}
		m.err = nil
		m.loading = "Searching..."
		return m, m.runSearch(query)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleResultsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.results.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.results, cmd = m.results.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "/", "esc":
		m.view = SearchView
		m.err = nil
		return m, m.input.Focus()
	case "enter":
		if c, ok := selected(m.results); ok {
			return m, m.resolve(c)
		}
	case "u":
		if c, ok := selected(m.results); ok {
			m.seed = models.SeedTrack{ID: c.ID, Title: c.Title, Artist: c.Artist}
			m.err = nil
			m.loading = "Building queue..."
			return m, m.buildQueue()
		}
	}

	var cmd tea.Cmd
	m.results, cmd = m.results.Update(msg)
	return m, cmd
}

func (m *Model) handleQueueKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.queue.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.queue, cmd = m.queue.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = ResultsView
		m.err = nil
		return m, nil
	case "enter":
		if c, ok := selected(m.queue); ok {
			return m, m.resolve(c)
		}
	case "p":
		if m.deps.Prefetch == nil || len(m.queue.Items()) == 0 {
			return m, nil
		}
		m.prev, m.view = QueueView, PrefetchView
		return m, m.startPrefetch()
	}

	var cmd tea.Cmd
	m.queue, cmd = m.queue.Update(msg)
	return m, cmd
}

func (m *Model) handleStreamKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = m.prev
		m.err = nil
	case "u":
		if m.stream != nil {
			m.seed = models.SeedTrack{ID: m.stream.ID, Title: m.stream.Title, Artist: m.stream.Artist}
			m.loading = "Building queue..."
			return m, m.buildQueue()
		}
	}
	return m, nil
}

func (m *Model) handlePrefetchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q", "esc":
		if m.prefetch != nil {
			m.view = m.prev
		}
	}
	return m, nil
}

func (m *Model) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case SearchView:
		m.input, cmd = m.input.Update(msg)
	case ResultsView:
		m.results, cmd = m.results.Update(msg)
	case QueueView:
		m.queue, cmd = m.queue.Update(msg)
	}
	return m, cmd
}

func selected(l list.Model) (models.Candidate, bool) {
	item, ok := l.SelectedItem().(candidateItem)
	if !ok {
		return models.Candidate{}, false
	}
	return item.candidate, true
}

func (m *Model) runSearch(query string) tea.Cmd {
	return func() tea.Msg {
		if m.deps.Search == nil {
			return searchDoneMsg(nil, fmt.Errorf("%w: search pipeline not initialized", shared.ErrServiceUnavailable))
		}
		results, err := m.deps.Search.Search(m.ctx, query, m.deps.Limit)
		return searchDoneMsg(results, err)
	}
}

func (m *Model) buildQueue() tea.Cmd {
	seed := m.seed
	history := append([]models.HistoryEntry(nil), m.played...)
	return func() tea.Msg {
		if m.deps.Queue == nil {
			return queueDoneMsg(nil, fmt.Errorf("%w: queue generator not initialized", shared.ErrServiceUnavailable))
		}
		queue, err := m.deps.Queue.Generate(m.ctx, seed, history, m.deps.Limit)
		return queueDoneMsg(queue, err)
	}
}

func (m *Model) resolve(c models.Candidate) tea.Cmd {
	m.err = nil
	m.loading = fmt.Sprintf("Resolving %s...", c.Title)
	return func() tea.Msg {
		if m.deps.Streams == nil {
			return streamResolvedMsg(nil, fmt.Errorf("%w: stream resolver not initialized", shared.ErrServiceUnavailable))
		}
		res, err := m.deps.Streams.Resolve(m.ctx, c.ID)
		if err == nil {
			if res.Title == "" {
				res.Title = c.Title
			}
			if res.Artist == "" {
				res.Artist = c.Artist
			}
		}
		return streamResolvedMsg(res, err)
	}
}

func (m *Model) startPrefetch() tea.Cmd {
	ids := make([]string, 0, len(m.queue.Items()))
	for _, item := range m.queue.Items() {
		if c, ok := item.(candidateItem); ok {
			ids = append(ids, c.candidate.ID)
		}
	}

	m.progress = tasks.ProgressUpdate{}
	m.prefetch = nil
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	m.doneChan = make(chan *tasks.PrefetchResult, 1)

	prog, done := m.progressChan, m.doneChan
	go func() {
		done <- m.deps.Prefetch.Warm(m.ctx, prog, ids)
		close(prog)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	prog, done := m.progressChan, m.doneChan
	return func() tea.Msg {
		if prog == nil {
			return nil
		}
		update, ok := <-prog
		if !ok {
			return prefetchDoneMsg(<-done)
		}
		return prefetchProgressMsg(update)
	}
}

func (m *Model) renderSearch() string {
	title := styles.title.Render("Search")
	enter := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "search"))
	quit := key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit"))
	helpView := m.help.ShortHelpView([]key.Binding{enter, m.keys.back, quit})
	return fmt.Sprintf("%s\n%s\n\n%s", title, m.input.View(), helpView)
}

func (m *Model) renderList(l list.Model, keys ...key.Binding) string {
	return fmt.Sprintf("%s\n\n%s", l.View(), m.help.ShortHelpView(keys))
}

func (m *Model) renderStream() string {
	if m.stream == nil {
		return styles.err.Render("No stream resolved")
	}

	s := m.stream
	source := "resolved"
	if s.Cached {
		source = "cached"
	}

	rows := []string{
		styles.title.Render(s.Title),
		styles.label.Render("Artist") + s.Artist,
		styles.label.Render("Duration") + shared.FormatDuration(s.DurationSeconds),
		styles.label.Render("Source") + fmt.Sprintf("%s in %dms", source, s.ResolutionTimeMs),
		styles.label.Render("Stream") + s.StreamURL,
	}
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.queue, m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", strings.Join(rows, "\n"), helpView)
}

func (m *Model) renderPrefetch() string {
	title := styles.title.Render("Warming the queue")

	if m.prefetch == nil {
		phase := "Starting..."
		if m.progress.Total > 0 {
			phase = fmt.Sprintf("Resolving streams (%d/%d)", m.progress.Step, m.progress.Total)
		}
		return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
	}

	r := m.prefetch
	summary := styles.ok.Render(fmt.Sprintf("✓ %d/%d ready", r.Resolved, r.Total))
	info := fmt.Sprintf("\nAlready cached: %d", r.Cached)

	var failed string
	if r.Failed > 0 {
		failed = "\n\n" + styles.warn.Render(fmt.Sprintf("Failed to resolve %d tracks:", r.Failed))
		for id, err := range r.Errors {
			failed += fmt.Sprintf("\n  • %s: %v", id, err)
		}
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.back})
	return fmt.Sprintf("%s\n\n%s%s%s\n\n%s", title, summary, info, failed, helpView)
}
