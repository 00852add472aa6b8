// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func outputFlags(pretty bool) []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
			Value: pretty,
		},
	}
}

func exportFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: text, csv or markdown",
			Value:   "text",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write the export to this path (a directory for markdown)",
		},
	}
}

// serveCommand runs the HTTP API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (default: server.host:server.port)",
			},
		},
		Action: r.Serve,
	}
}

// searchCommand runs the ranked search pipeline.
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "search",
		Aliases: []string{"s"},
		Usage:   "Search the catalog for ranked, deduplicated tracks",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "query",
			},
		},
		Flags: append([]cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of results",
			},
		}, append(outputFlags(true), exportFlags()...)...),
		Action: r.Search,
	}
}

// queueCommand builds an "up next" queue from a seed track.
func queueCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "queue",
		Usage: "Build an up next queue from a seed track",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "id",
				Usage: "Seed track ID",
			},
			&cli.StringFlag{
				Name:    "title",
				Aliases: []string{"t"},
				Usage:   "Seed track title",
			},
			&cli.StringFlag{
				Name:    "artist",
				Aliases: []string{"a"},
				Usage:   "Seed track artist",
			},
			&cli.StringFlag{
				Name:  "user",
				Usage: "Exclude this user's recent history and blocked tracks",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Track IDs to leave out of the queue",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum queue length",
			},
			&cli.BoolFlag{
				Name:  "prefetch",
				Usage: "Resolve streams for the first queued tracks",
			},
		}, append(outputFlags(true), exportFlags()...)...),
		Action: r.Queue,
	}
}

// streamCommand resolves a playable audio URL.
func streamCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "stream",
		Usage: "Resolve a playable audio stream for a track",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "id",
			},
		},
		Flags: append([]cli.Flag{
			&cli.BoolFlag{
				Name:  "refresh",
				Usage: "Drop the cached stream before resolving",
			},
		}, outputFlags(true)...),
		Action: r.Stream,
	}
}

// homeCommand renders the home shelves for a user.
func homeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "home",
		Usage: "Show the home feed for a user",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:     "user",
				Aliases:  []string{"u"},
				Usage:    "User ID",
				Required: true,
			},
		}, outputFlags(true)...),
		Action: r.Home,
	}
}

// historyCommand records and lists plays.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Play history operations",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Record a play",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "User ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Track ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "title",
						Usage: "Track title",
					},
					&cli.StringFlag{
						Name:  "artist",
						Usage: "Track artist",
					},
					&cli.IntFlag{
						Name:  "duration",
						Usage: "Track duration in seconds",
					},
				},
				Action: r.HistoryAdd,
			},
			{
				Name:  "list",
				Usage: "List recent plays, newest first",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "User ID",
						Required: true,
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of plays",
						Value:   20,
					},
					&cli.DurationFlag{
						Name:  "since",
						Usage: "Only plays within this long ago (e.g. 24h)",
					},
				}, outputFlags(true)...),
				Action: r.HistoryList,
			},
		},
	}
}

// onboardingCommand saves first-launch preferences.
func onboardingCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "onboarding",
		Usage: "Save a user's onboarding preferences",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "user",
				Aliases:  []string{"u"},
				Usage:    "User ID",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "country",
				Usage: "Country code",
			},
			&cli.StringFlag{
				Name:  "language",
				Usage: "Preferred language",
			},
			&cli.StringSliceFlag{
				Name:  "artist",
				Usage: "Favourite artist (repeatable)",
			},
			&cli.StringSliceFlag{
				Name:  "mode",
				Usage: "Listening mode (repeatable)",
			},
		},
		Action: r.Onboarding,
	}
}

// feedbackCommand marks tracks as not relevant for a user.
func feedbackCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "feedback",
		Usage: "Block or unblock tracks for a user",
		Commands: []*cli.Command{
			{
				Name:  "block",
				Usage: "Keep a track out of the user's queues",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "User ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Track ID",
						Required: true,
					},
				},
				Action: r.FeedbackBlock,
			},
			{
				Name:  "unblock",
				Usage: "Allow a blocked track again",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "User ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Track ID",
						Required: true,
					},
				},
				Action: r.FeedbackUnblock,
			},
			{
				Name:  "list",
				Usage: "List blocked tracks",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "User ID",
						Required: true,
					},
				}, outputFlags(true)...),
				Action: r.FeedbackList,
			},
		},
	}
}

// setupCommand handles setup operations for the database and configuration file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recent migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write a config file populated with defaults",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive discovery.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for search and queues",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the TUI is running",
				Value: "./tmp/nextup-tui.log",
			},
		},
		Action: r.TUI,
	}
}
