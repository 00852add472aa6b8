package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/nextup/internal/shared"
	"github.com/desertthunder/nextup/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for search, queues and stream resolution.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireProvider(); err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, shared.ParseLogLevel(r.config.Log.Level))
	r.SetLogger(fileLogger)

	deps, err := r.uiDeps(ctx)
	if err != nil {
		return err
	}

	p := tea.NewProgram(ui.NewModel(ctx, deps), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

func (r *Runner) uiDeps(ctx context.Context) (ui.Deps, error) {
	queue, err := r.queueGenerator(ctx)
	if err != nil {
		return ui.Deps{}, err
	}

	streams, err := r.streamResolver(ctx)
	if err != nil {
		return ui.Deps{}, err
	}

	return ui.Deps{
		Search:   r.search,
		Queue:    queue,
		Streams:  streams,
		Prefetch: r.prefetcher(streams),
	}, nil
}
