package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nextup/internal/models"
	"github.com/desertthunder/nextup/internal/shared"
)

// The API depends on these narrow views of the pipelines and the profile store.
type (
	Searcher interface {
		Search(ctx context.Context, query string, limit int) ([]models.Candidate, error)
	}

	QueueBuilder interface {
		Generate(ctx context.Context, seed models.SeedTrack, history []models.HistoryEntry, limit int) ([]models.Candidate, error)
		GenerateForUser(ctx context.Context, userID string, seed models.SeedTrack, limit int) ([]models.Candidate, error)
	}

	StreamResolver interface {
		Resolve(ctx context.Context, id string) (*models.StreamResult, error)
		Invalidate(ctx context.Context, id string) error
	}

	HomeBuilder interface {
		Build(ctx context.Context, userID string) (*models.HomeFeed, error)
	}

	QueueWarmer interface {
		WarmQueue(ctx context.Context, queue []models.Candidate, n int)
	}

	HistoryWriter interface {
		Add(ctx context.Context, entry *models.HistoryEntry) error
	}

	OnboardingWriter interface {
		SaveOnboarding(ctx context.Context, userID string, o models.Onboarding) error
	}

	FeedbackWriter interface {
		Block(ctx context.Context, userID, trackID string) error
	}
)

// APIOpts contains the collaborators of an [API]. Any of them may be nil, in which case the routes that
// need it answer 503.
type APIOpts struct {
	Search     Searcher
	Queue      QueueBuilder
	Streams    StreamResolver
	Home       HomeBuilder
	Prefetch   QueueWarmer
	PrefetchN  int // how many queued tracks to warm after each queue response
	History    HistoryWriter
	Onboarding OnboardingWriter
	Feedback   FeedbackWriter
	Logger     *log.Logger
}

// API serves the JSON endpoints for search, queue, stream and profile operations.
type API struct {
	opts APIOpts
	now  func() time.Time
}

func NewAPI(opts APIOpts) *API {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &API{opts: opts, now: time.Now}
}

// Register adds every API route to r.
func (a *API) Register(r Router) {
	r.Handle(http.MethodGet, "/health", http.HandlerFunc(a.health))
	r.Handle(http.MethodGet, "/search", http.HandlerFunc(a.search))
	r.Handle(http.MethodPost, "/queue", http.HandlerFunc(a.queue))
	r.Handle(http.MethodGet, "/stream/{id}", http.HandlerFunc(a.stream))
	r.Handle(http.MethodDelete, "/stream/{id}", http.HandlerFunc(a.invalidate))
	r.Handle(http.MethodGet, "/home", http.HandlerFunc(a.home))
	r.Handle(http.MethodPost, "/history", http.HandlerFunc(a.history))
	r.Handle(http.MethodPost, "/onboarding", http.HandlerFunc(a.onboarding))
	r.Handle(http.MethodPost, "/feedback", http.HandlerFunc(a.feedback))
}

func unavailable(what string) error {
	return fmt.Errorf("%w: %s is not configured", shared.ErrServiceUnavailable, what)
}

func (a *API) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   a.now().UTC().Format(time.RFC3339),
	})
}

// search handles GET /search?q=...&limit=...
func (a *API) search(w http.ResponseWriter, r *http.Request) {
	if a.opts.Search == nil {
		writeErr(w, unavailable("search"))
		return
	}

	query := r.URL.Query().Get("q")
	limit, err := intParam(r, "limit")
	if err != nil {
		writeErr(w, err)
		return
	}

	results, err := a.opts.Search.Search(r.Context(), query, limit)
	if err != nil {
		a.opts.Logger.Warn("search failed", "query", query, "error", err)
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"query": query, "results": results})
}

type queueRequest struct {
	Seed    models.SeedTrack `json:"seed"`
	UserID  string           `json:"user_id"`
	History []string         `json:"history"`
	Limit   int              `json:"limit"`
}

// queue handles POST /queue. With a user_id the stored history and blocked tracks are excluded;
// otherwise the ids in history are.
func (a *API) queue(w http.ResponseWriter, r *http.Request) {
	if a.opts.Queue == nil {
		writeErr(w, unavailable("queue"))
		return
	}

	var req queueRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, err)
		return
	}

	var (
		queue []models.Candidate
		err   error
	)
	if strings.TrimSpace(req.UserID) != "" {
		queue, err = a.opts.Queue.GenerateForUser(r.Context(), req.UserID, req.Seed, req.Limit)
	} else {
		history := make([]models.HistoryEntry, 0, len(req.History))
		for _, id := range req.History {
			history = append(history, models.HistoryEntry{TrackID: id})
		}
		queue, err = a.opts.Queue.Generate(r.Context(), req.Seed, history, req.Limit)
	}
	if err != nil {
		a.opts.Logger.Warn("queue generation failed", "seed", req.Seed.ID, "error", err)
		writeErr(w, err)
		return
	}

	if a.opts.Prefetch != nil && a.opts.PrefetchN > 0 {
		a.opts.Prefetch.WarmQueue(r.Context(), queue, a.opts.PrefetchN)
	}
	writeJSON(w, http.StatusOK, map[string]any{"queue": queue})
}

// stream handles GET /stream/{id}
func (a *API) stream(w http.ResponseWriter, r *http.Request) {
	if a.opts.Streams == nil {
		writeErr(w, unavailable("stream resolution"))
		return
	}

	res, err := a.opts.Streams.Resolve(r.Context(), r.PathValue("id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// invalidate handles DELETE /stream/{id}
func (a *API) invalidate(w http.ResponseWriter, r *http.Request) {
	if a.opts.Streams == nil {
		writeErr(w, unavailable("stream resolution"))
		return
	}

	id := r.PathValue("id")
	if err := a.opts.Streams.Invalidate(r.Context(), id); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated", "id": id})
}

// home handles GET /home?user_id=...
func (a *API) home(w http.ResponseWriter, r *http.Request) {
	if a.opts.Home == nil {
		writeErr(w, unavailable("home feed"))
		return
	}

	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		writeErr(w, fmt.Errorf("%w: user_id", shared.ErrMissingArgument))
		return
	}

	feed, err := a.opts.Home.Build(r.Context(), userID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

type historyRequest struct {
	UserID          string    `json:"user_id"`
	TrackID         string    `json:"track_id"`
	Title           string    `json:"title"`
	Artist          string    `json:"artist"`
	DurationSeconds int       `json:"duration"`
	ThumbnailURL    string    `json:"thumbnail"`
	PlayedAt        time.Time `json:"played_at"`
}

// history handles POST /history
func (a *API) history(w http.ResponseWriter, r *http.Request) {
	if a.opts.History == nil {
		writeErr(w, unavailable("history"))
		return
	}

	var req historyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, err)
		return
	}

	entry := &models.HistoryEntry{
		UserID:          req.UserID,
		TrackID:         req.TrackID,
		Title:           req.Title,
		Artist:          req.Artist,
		DurationSeconds: req.DurationSeconds,
		ThumbnailURL:    req.ThumbnailURL,
		PlayedAt:        req.PlayedAt,
	}
	if err := a.opts.History.Add(r.Context(), entry); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

type onboardingRequest struct {
	UserID string `json:"user_id"`
	models.Onboarding
}

// onboarding handles POST /onboarding
func (a *API) onboarding(w http.ResponseWriter, r *http.Request) {
	if a.opts.Onboarding == nil {
		writeErr(w, unavailable("onboarding"))
		return
	}

	var req onboardingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, err)
		return
	}

	if err := a.opts.Onboarding.SaveOnboarding(r.Context(), req.UserID, req.Onboarding); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

type feedbackRequest struct {
	UserID  string `json:"user_id"`
	TrackID string `json:"track_id"`
}

// feedback handles POST /feedback
func (a *API) feedback(w http.ResponseWriter, r *http.Request) {
	if a.opts.Feedback == nil {
		writeErr(w, unavailable("feedback"))
		return
	}

	var req feedbackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, err)
		return
	}

	if err := a.opts.Feedback.Block(r.Context(), req.UserID, req.TrackID); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "blocked", "track_id": req.TrackID})
}

func intParam(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", shared.ErrInvalidArgument, name)
	}
	return n, nil
}

// MetricsEndpoint exposes a metrics handler at GET /metrics.
type MetricsEndpoint struct {
	http.Handler
}

func (MetricsEndpoint) Routes() []string {
	return []string{"GET /metrics"}
}
