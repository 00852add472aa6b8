package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nextup/internal/cache"
	"github.com/desertthunder/nextup/internal/metrics"
	"github.com/desertthunder/nextup/internal/repositories"
	"github.com/desertthunder/nextup/internal/services"
	"github.com/desertthunder/nextup/internal/shared"
	"github.com/desertthunder/nextup/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The profile store and the stream cache are opened on first use so commands that need neither
// (search, setup) never touch SQLite or Redis.
type Runner struct {
	config     *shared.Config
	configPath string
	provider   services.Provider
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	metrics    *metrics.Collector
	search     *tasks.SearchPipeline

	db      *sql.DB
	store   cache.Store
	streams *tasks.StreamResolver
}

// RunnerOpts contains configuration options for creating a Runner.
//
// DB and Store are normally left nil and opened from Config on demand.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Provider   services.Provider
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Metrics    *metrics.Collector
	DB         *sql.DB
	Store      cache.Store
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		provider:   opts.Provider,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		metrics:    opts.Metrics,
		db:         opts.DB,
		store:      opts.Store,
	}
	r.search = tasks.NewSearchPipeline(opts.Provider, opts.Config.Search, opts.Config.Dedup,
		shared.WithLogger(opts.Logger, "component", "search"))
	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, searchCommand, queueCommand, streamCommand, homeCommand,
		historyCommand, onboardingCommand, feedbackCommand, setupCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by the runner and everything it builds afterwards.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
	r.search = tasks.NewSearchPipeline(r.provider, r.config.Search, r.config.Dedup,
		shared.WithLogger(l, "component", "search"))
}

func (r *Runner) requireProvider() error {
	if r.provider == nil {
		return fmt.Errorf("%w: content provider not initialized", shared.ErrServiceUnavailable)
	}
	return nil
}

// openDB returns the profile store, opening and migrating it on first call.
func (r *Runner) openDB(ctx context.Context) (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	r.logger.Debug("opening profile store", "path", r.config.Database.Path)
	db, err := shared.OpenDatabase(ctx, r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	r.db = db
	return db, nil
}

// openStore picks the stream cache backend: Redis in front of a memory store when a URL is configured,
// otherwise memory alone. An unreachable Redis is logged and skipped.
func (r *Runner) openStore(ctx context.Context) cache.Store {
	if r.store != nil {
		return r.store
	}

	cfg := r.config.Cache
	local := cache.NewMemoryStore(cache.MemoryOpts{
		Capacity:   cfg.Capacity,
		EvictBatch: cfg.EvictBatch,
		OnEvict:    r.metrics.CacheEvicted,
	})
	r.store = local

	if cfg.RedisURL == "" {
		return r.store
	}

	redisStore, err := cache.NewRedisStore(ctx, cfg.RedisURL, cfg.RedisTimeout())
	if err != nil {
		r.logger.Warn("redis unavailable, caching streams in memory", "error", err)
		return r.store
	}

	r.logger.Info("caching streams in redis", "ttl", cfg.TTL())
	r.store = cache.NewLayered(redisStore, local, shared.WithLogger(r.logger, "component", "cache"), r.metrics)
	return r.store
}

// streamResolver returns the cached stream resolver, building it on first call.
func (r *Runner) streamResolver(ctx context.Context) (*tasks.StreamResolver, error) {
	if err := r.requireProvider(); err != nil {
		return nil, err
	}
	if r.streams != nil {
		return r.streams, nil
	}

	logger := shared.WithLogger(r.logger, "component", "cache")
	resolver := cache.NewResolver(cache.ResolverOpts{
		Store:        r.openStore(ctx),
		TTL:          r.config.Cache.TTL(),
		FetchTimeout: r.config.Cache.FetchTimeout(),
		Logger:       logger,
		Metrics:      r.metrics,
	})
	r.streams = tasks.NewStreamResolver(r.provider, resolver, r.config.Cache.KeyPrefix, logger)
	return r.streams, nil
}

// queueGenerator builds a queue generator backed by the profile store.
func (r *Runner) queueGenerator(ctx context.Context) (*tasks.QueueGenerator, error) {
	if err := r.requireProvider(); err != nil {
		return nil, err
	}

	db, err := r.openDB(ctx)
	if err != nil {
		return nil, err
	}

	return tasks.NewQueueGenerator(tasks.QueueOpts{
		Provider: r.provider,
		History:  repositories.NewHistoryRepository(db),
		Blocks:   repositories.NewFeedbackRepository(db),
		Config:   r.config.Queue,
		Logger:   shared.WithLogger(r.logger, "component", "queue"),
	}), nil
}

func (r *Runner) prefetcher(streams *tasks.StreamResolver) *tasks.Prefetcher {
	return tasks.NewPrefetcher(streams, tasks.PrefetchOpts{
		NumWorkers: r.config.Queue.PrefetchWorkers,
		RateLimit:  r.config.Provider.RateLimit,
		Logger:     shared.WithLogger(r.logger, "component", "prefetch"),
	})
}

// Close releases the profile store and any remote cache connection.
func (r *Runner) Close() error {
	var errs []error
	if r.db != nil {
		errs = append(errs, r.db.Close())
		r.db = nil
	}
	if c, ok := r.store.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	r.store = nil
	r.streams = nil
	return errors.Join(errs...)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
