package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/nextup/internal/repositories"
	"github.com/desertthunder/nextup/internal/server"
	"github.com/desertthunder/nextup/internal/shared"
	"github.com/desertthunder/nextup/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}

	router, err := r.router(ctx)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(server.ServerOpts{
		Addr:            addr,
		Handler:         router,
		ShutdownTimeout: time.Duration(r.config.Server.ShutdownTimeoutSeconds) * time.Second,
		Logger:          r.logger,
	})

	r.logger.Info("nextup api listening", "addr", addr, "provider", providerName(r))
	return srv.Run(ctx)
}

// router wires the pipelines and the profile store into the API routes.
func (r *Runner) router(ctx context.Context) (*server.BasicRouter, error) {
	db, err := r.openDB(ctx)
	if err != nil {
		return nil, err
	}
	history := repositories.NewHistoryRepository(db)
	profiles := repositories.NewProfileRepository(db)
	feedback := repositories.NewFeedbackRepository(db)

	opts := server.APIOpts{
		Search:     r.search,
		PrefetchN:  r.config.Queue.Prefetch,
		History:    history,
		Onboarding: profiles,
		Feedback:   feedback,
		Home: tasks.NewHomeBuilder(tasks.HomeOpts{
			Search:   r.search,
			History:  history,
			Profiles: profiles,
			Logger:   shared.WithLogger(r.logger, "component", "home"),
		}),
		Logger: shared.WithLogger(r.logger, "component", "api"),
	}

	if r.provider != nil {
		opts.Queue = tasks.NewQueueGenerator(tasks.QueueOpts{
			Provider: r.provider,
			History:  history,
			Blocks:   feedback,
			Config:   r.config.Queue,
			Logger:   shared.WithLogger(r.logger, "component", "queue"),
		})

		streams, err := r.streamResolver(ctx)
		if err != nil {
			return nil, err
		}
		opts.Streams = streams
		opts.Prefetch = r.prefetcher(streams)
	} else {
		r.logger.Warn("no content provider; queue and stream routes will answer 503")
	}

	router := server.NewBasicRouter()
	router.Use(
		server.RequestID(),
		server.Logging(shared.WithLogger(r.logger, "component", "http")),
		server.Recovery(r.logger),
		server.Metrics(r.metrics),
	)

	server.NewAPI(opts).Register(router)
	router.Handler(server.MetricsEndpoint{Handler: r.metrics.Handler()})
	return router, nil
}

func providerName(r *Runner) string {
	if r.provider == nil {
		return "none"
	}
	return r.provider.Name()
}
