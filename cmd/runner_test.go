package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/nextup/internal/cache"
	"github.com/desertthunder/nextup/internal/metrics"
	"github.com/desertthunder/nextup/internal/models"
	"github.com/desertthunder/nextup/internal/shared"
	th "github.com/desertthunder/nextup/internal/testing"
	"github.com/urfave/cli/v3"
)

func catalog() *th.MockProvider {
	return &th.MockProvider{SearchFn: th.Results(
		models.RawCandidate{ID: "a", Title: "Song (Official Audio)", Channel: "Band - Topic", DurationSeconds: 200},
		models.RawCandidate{ID: "b", Title: "Other Song (Official Audio)", Channel: "Band - Topic", DurationSeconds: 260},
		models.RawCandidate{ID: "c", Title: "Third Song", Channel: "Someone Else", DurationSeconds: 180},
	)}
}

// newTestRunner returns a runner over an in-memory profile store and memory cache, writing to a buffer.
func newTestRunner(t *testing.T, p *th.MockProvider) (*Runner, *bytes.Buffer) {
	t.Helper()

	config := shared.DefaultConfig()
	config.Database.Path = ":memory:"
	output := &bytes.Buffer{}

	opts := RunnerOpts{
		Config:  config,
		Logger:  shared.NewLogger(io.Discard),
		Output:  output,
		Metrics: metrics.New(),
		Store:   cache.NewMemoryStore(cache.MemoryOpts{}),
	}
	if p != nil {
		opts.Provider = p
	}

	runner := NewRunner(opts)
	t.Cleanup(func() { runner.Close() })
	return runner, output
}

// run executes args against a fresh root command wired to r.
func run(r *Runner, args ...string) error {
	app := &cli.Command{Name: "nextup", Commands: r.register()}
	return app.Run(context.Background(), append([]string{"nextup"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			provider := &th.MockProvider{}
			collector := metrics.New()

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Provider:   provider,
				Metrics:    collector,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.provider != provider {
				t.Error("expected provider to be set")
			}
			if runner.metrics != collector {
				t.Error("expected metrics to be set")
			}
			if runner.search == nil {
				t.Error("expected search pipeline to be built")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Config: nil,
			})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Logger: nil,
			})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Output: nil,
			})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				HTTPClient: nil,
			})

			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				ConfigPath: "/test/path/config.toml",
			})

			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			expected := `{"key":"value"}` + "\n"
			if result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			// channels cannot be marshaled to JSON
			data := make(chan int)
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &th.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := th.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("writePlainln surrounds text with newlines", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			runner.writePlainln("Next steps:")
			if output.String() != "\nNext steps:\n" {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &th.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}

		for _, want := range []string{"serve", "search", "queue", "stream", "home", "history", "onboarding", "feedback", "setup", "tui"} {
			if !names[want] {
				t.Errorf("expected %s command to be registered", want)
			}
		}
	})

	t.Run("Close", func(t *testing.T) {
		runner, _ := newTestRunner(t, catalog())
		if _, err := runner.openDB(context.Background()); err != nil {
			t.Fatalf("openDB failed: %v", err)
		}

		if err := runner.Close(); err != nil {
			t.Errorf("expected clean close, got %v", err)
		}
		if err := runner.Close(); err != nil {
			t.Errorf("expected second close to be a no-op, got %v", err)
		}
	})
}

func TestSearchCommand(t *testing.T) {
	t.Run("prints ranked results as text", func(t *testing.T) {
		runner, output := newTestRunner(t, catalog())

		if err := run(runner, "search", "song"); err != nil {
			t.Fatalf("search failed: %v", err)
		}

		result := output.String()
		if !strings.HasPrefix(result, "Results for \"song\"\n") {
			t.Errorf("unexpected header:\n%s", result)
		}
		if !strings.Contains(result, "Band - Topic - Song (Official Audio)") {
			t.Errorf("expected top hit in output:\n%s", result)
		}
	})

	t.Run("prints JSON", func(t *testing.T) {
		p := catalog()
		runner, output := newTestRunner(t, p)

		if err := run(runner, "search", "--json", "--pretty=false", "--limit", "2", "song"); err != nil {
			t.Fatalf("search failed: %v", err)
		}

		var results []models.Candidate
		if err := json.Unmarshal(output.Bytes(), &results); err != nil {
			t.Fatalf("expected JSON output, got %q: %v", output.String(), err)
		}
		if len(results) == 0 || len(results) > 2 {
			t.Errorf("expected 1-2 results, got %d", len(results))
		}
		if p.Queries()[0] != "song" {
			t.Errorf("expected query to reach provider, got %v", p.Queries())
		}
	})

	t.Run("exports csv to a file", func(t *testing.T) {
		runner, output := newTestRunner(t, catalog())
		path := filepath.Join(t.TempDir(), "results.csv")

		if err := run(runner, "search", "--format", "csv", "--output", path, "song"); err != nil {
			t.Fatalf("search failed: %v", err)
		}

		th.AssertFileExists(t, path)
		if !strings.HasPrefix(th.MustReadFile(t, path), "Position,ID,Title") {
			t.Error("expected CSV headers in export")
		}
		if !strings.Contains(output.String(), "Exported") {
			t.Errorf("expected confirmation, got %q", output.String())
		}
	})

	t.Run("exports markdown to a directory", func(t *testing.T) {
		runner, _ := newTestRunner(t, catalog())
		dir := filepath.Join(t.TempDir(), "export")

		if err := run(runner, "search", "--format", "markdown", "--output", dir, "song"); err != nil {
			t.Fatalf("search failed: %v", err)
		}
		th.AssertFileExists(t, filepath.Join(dir, "README.md"))
	})

	t.Run("rejects an unknown format", func(t *testing.T) {
		runner, _ := newTestRunner(t, catalog())

		err := run(runner, "search", "--format", "xml", "song")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("requires a query", func(t *testing.T) {
		runner, _ := newTestRunner(t, catalog())

		if err := run(runner, "search"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("requires a provider", func(t *testing.T) {
		runner, _ := newTestRunner(t, nil)

		if err := run(runner, "search", "song"); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("surfaces provider failures", func(t *testing.T) {
		p := &th.MockProvider{SearchFn: func(context.Context, string, int) ([]models.RawCandidate, error) {
			return nil, shared.ErrProviderUnavailable
		}}
		runner, _ := newTestRunner(t, p)

		if err := run(runner, "search", "song"); !errors.Is(err, shared.ErrProviderUnavailable) {
			t.Errorf("expected ErrProviderUnavailable, got %v", err)
		}
	})
}

func TestQueueCommand(t *testing.T) {
	decode := func(t *testing.T, output *bytes.Buffer) []string {
		t.Helper()
		var queue []models.Candidate
		if err := json.Unmarshal(output.Bytes(), &queue); err != nil {
			t.Fatalf("expected JSON output, got %q: %v", output.String(), err)
		}
		ids := make([]string, len(queue))
		for i, c := range queue {
			ids[i] = c.ID
		}
		return ids
	}

	t.Run("excludes listed tracks", func(t *testing.T) {
		p := catalog()
		runner, output := newTestRunner(t, p)

		err := run(runner, "queue", "--id", "a", "--title", "Song", "--artist", "Band", "--exclude", "c", "--json")
		if err != nil {
			t.Fatalf("queue failed: %v", err)
		}

		ids := decode(t, output)
		if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
			t.Errorf("expected a and b, got %v", ids)
		}
		if p.Queries()[0] != "Band Song official radio" {
			t.Errorf("unexpected radio query %q", p.Queries()[0])
		}
	})

	t.Run("uses stored history and blocks for a user", func(t *testing.T) {
		runner, output := newTestRunner(t, catalog())

		if err := run(runner, "history", "add", "--user", "u1", "--id", "b"); err != nil {
			t.Fatalf("history add failed: %v", err)
		}
		if err := run(runner, "feedback", "block", "--user", "u1", "--id", "c"); err != nil {
			t.Fatalf("feedback block failed: %v", err)
		}
		output.Reset()

		if err := run(runner, "queue", "--title", "Song", "--user", "u1", "--json"); err != nil {
			t.Fatalf("queue failed: %v", err)
		}

		ids := decode(t, output)
		if len(ids) != 1 || ids[0] != "a" {
			t.Errorf("expected only a, got %v", ids)
		}
	})

	t.Run("prefetches the head of the queue", func(t *testing.T) {
		p := catalog()
		runner, _ := newTestRunner(t, p)
		runner.config.Queue.Prefetch = 2

		if err := run(runner, "queue", "--title", "Song", "--prefetch"); err != nil {
			t.Fatalf("queue failed: %v", err)
		}
		if p.Streams() != 2 {
			t.Errorf("expected 2 streams warmed, got %d", p.Streams())
		}
	})

	t.Run("requires a title or artist", func(t *testing.T) {
		runner, _ := newTestRunner(t, catalog())

		if err := run(runner, "queue", "--id", "a"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestStreamCommand(t *testing.T) {
	t.Run("second resolve is served from cache", func(t *testing.T) {
		p := catalog()
		runner, output := newTestRunner(t, p)

		if err := run(runner, "stream", "abc123"); err != nil {
			t.Fatalf("stream failed: %v", err)
		}
		if !strings.Contains(output.String(), "Stream:   https://audio.example/abc123") {
			t.Errorf("unexpected stream output:\n%s", output.String())
		}
		output.Reset()

		if err := run(runner, "stream", "--json", "abc123"); err != nil {
			t.Fatalf("stream failed: %v", err)
		}

		var res models.StreamResult
		if err := json.Unmarshal(output.Bytes(), &res); err != nil {
			t.Fatalf("expected JSON output: %v", err)
		}
		if !res.Cached || p.Streams() != 1 {
			t.Errorf("expected cached result after one fetch, cached=%v fetches=%d", res.Cached, p.Streams())
		}
	})

	t.Run("refresh drops the cached stream", func(t *testing.T) {
		p := catalog()
		runner, _ := newTestRunner(t, p)

		run(runner, "stream", "abc123")
		if err := run(runner, "stream", "--refresh", "abc123"); err != nil {
			t.Fatalf("stream failed: %v", err)
		}
		if p.Streams() != 2 {
			t.Errorf("expected refetch after refresh, got %d fetches", p.Streams())
		}
	})

	t.Run("missing track is not found", func(t *testing.T) {
		p := &th.MockProvider{StreamFn: func(context.Context, string) (*models.StreamInfo, error) {
			return nil, shared.ErrNotFound
		}}
		runner, _ := newTestRunner(t, p)

		if err := run(runner, "stream", "gone"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("malformed id", func(t *testing.T) {
		runner, _ := newTestRunner(t, catalog())

		if err := run(runner, "stream", "bad id"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("opaque provider id is passed through", func(t *testing.T) {
		var got string
		p := &th.MockProvider{StreamFn: func(_ context.Context, id string) (*models.StreamInfo, error) {
			got = id
			return &models.StreamInfo{StreamURL: "https://audio.example/" + id}, nil
		}}
		runner, _ := newTestRunner(t, p)

		if err := run(runner, "stream", "--json", "track:42!"); err != nil {
			t.Fatalf("stream failed: %v", err)
		}
		if got != "track:42!" {
			t.Errorf("expected provider to receive the id unchanged, got %q", got)
		}
	})
}

func TestProfileCommands(t *testing.T) {
	t.Run("history add and list", func(t *testing.T) {
		runner, output := newTestRunner(t, catalog())

		for _, id := range []string{"one", "two"} {
			if err := run(runner, "history", "add", "--user", "u1", "--id", id, "--title", "Title "+id); err != nil {
				t.Fatalf("history add failed: %v", err)
			}
		}
		output.Reset()

		if err := run(runner, "history", "list", "--user", "u1", "--json"); err != nil {
			t.Fatalf("history list failed: %v", err)
		}

		var entries []models.HistoryEntry
		if err := json.Unmarshal(output.Bytes(), &entries); err != nil {
			t.Fatalf("expected JSON output: %v", err)
		}
		if len(entries) != 2 || entries[0].TrackID != "two" {
			t.Errorf("expected newest first, got %+v", entries)
		}

		output.Reset()
		if err := run(runner, "history", "list", "--user", "u1"); err != nil {
			t.Fatalf("history list failed: %v", err)
		}
		if !strings.Contains(output.String(), "History for u1 (2 plays)") {
			t.Errorf("unexpected text output:\n%s", output.String())
		}
	})

	t.Run("history add requires flags", func(t *testing.T) {
		runner, _ := newTestRunner(t, catalog())

		if err := run(runner, "history", "add", "--user", "u1"); err == nil {
			t.Error("expected missing --id to fail")
		}
	})

	t.Run("onboarding feeds the home shelves", func(t *testing.T) {
		runner, output := newTestRunner(t, catalog())

		err := run(runner, "onboarding", "--user", "u1", "--country", "US", "--language", "en",
			"--artist", "Band", "--mode", "focus")
		if err != nil {
			t.Fatalf("onboarding failed: %v", err)
		}
		run(runner, "history", "add", "--user", "u1", "--id", "seen", "--title", "Seen Song")
		output.Reset()

		if err := run(runner, "home", "--user", "u1", "--json"); err != nil {
			t.Fatalf("home failed: %v", err)
		}

		var feed models.HomeFeed
		if err := json.Unmarshal(output.Bytes(), &feed); err != nil {
			t.Fatalf("expected JSON output: %v", err)
		}
		if len(feed.JumpBackIn) != 1 || feed.JumpBackIn[0].ID != "seen" {
			t.Errorf("expected history shelf, got %+v", feed.JumpBackIn)
		}
		if len(feed.MadeForYou) == 0 || len(feed.Trending) == 0 {
			t.Errorf("expected search shelves to be filled, got %+v", feed)
		}
	})

	t.Run("onboarding validates preferences", func(t *testing.T) {
		runner, _ := newTestRunner(t, catalog())

		err := run(runner, "onboarding", "--user", "u1", "--country", "US")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("feedback block, list and unblock", func(t *testing.T) {
		runner, output := newTestRunner(t, catalog())

		run(runner, "feedback", "block", "--user", "u1", "--id", "x")
		run(runner, "feedback", "block", "--user", "u1", "--id", "y")
		run(runner, "feedback", "unblock", "--user", "u1", "--id", "x")
		output.Reset()

		if err := run(runner, "feedback", "list", "--user", "u1", "--json", "--pretty=false"); err != nil {
			t.Fatalf("feedback list failed: %v", err)
		}
		if strings.TrimSpace(output.String()) != `["y"]` {
			t.Errorf("expected only y blocked, got %q", output.String())
		}
	})
}

func TestSetupCommands(t *testing.T) {
	t.Run("config writes defaults once", func(t *testing.T) {
		runner, output := newTestRunner(t, nil)
		path := filepath.Join(t.TempDir(), "config.toml")

		if err := run(runner, "setup", "config", "--config", path); err != nil {
			t.Fatalf("setup config failed: %v", err)
		}
		th.AssertFileExists(t, path)
		if !strings.Contains(output.String(), "Config written to "+path) {
			t.Errorf("unexpected output %q", output.String())
		}

		if err := run(runner, "setup", "config", "--config", path); err == nil {
			t.Error("expected error when config already exists")
		}
	})

	t.Run("database migrates and rolls back", func(t *testing.T) {
		runner, output := newTestRunner(t, nil)
		runner.config.Database.Path = filepath.Join(t.TempDir(), "nextup.db")

		if err := run(runner, "setup", "database"); err != nil {
			t.Fatalf("setup database failed: %v", err)
		}
		th.AssertFileExists(t, runner.config.Database.Path)

		if err := run(runner, "setup", "database", "--rollback"); err != nil {
			t.Fatalf("rollback failed: %v", err)
		}
		if !strings.Contains(output.String(), "Rolled back") {
			t.Errorf("unexpected output %q", output.String())
		}
	})
}

func TestRouter(t *testing.T) {
	t.Run("serves the api and metrics", func(t *testing.T) {
		runner, _ := newTestRunner(t, catalog())

		router, err := runner.router(context.Background())
		if err != nil {
			t.Fatalf("router failed: %v", err)
		}
		srv := httptest.NewServer(router)
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/search?q=song")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected 200 from /search, got %d", resp.StatusCode)
		}

		resp, err = http.Get(srv.URL + "/metrics")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if !strings.Contains(string(body), `nextup_http_requests_total{code="200",route="/search"} 1`) {
			t.Errorf("expected request metric, got:\n%s", body)
		}
	})

	t.Run("queue and stream answer 503 without a provider", func(t *testing.T) {
		runner, _ := newTestRunner(t, nil)

		router, err := runner.router(context.Background())
		if err != nil {
			t.Fatalf("router failed: %v", err)
		}

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stream/abc", nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("expected 503, got %d", rec.Code)
		}
	})
}
