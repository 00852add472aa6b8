package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/nextup/internal/shared"
	"github.com/lrstanley/go-ytdlp"
)

func TestYtdlpService(t *testing.T) {
	t.Run("Name", func(t *testing.T) {
		if svc := NewYtdlpService(YtdlpOpts{}); svc.Name() != "yt-dlp" {
			t.Errorf("expected name to be 'yt-dlp', got %s", svc.Name())
		}
	})

	t.Run("default format", func(t *testing.T) {
		if svc := NewYtdlpService(YtdlpOpts{}); svc.format != "bestaudio/best" {
			t.Errorf("expected bestaudio/best, got %s", svc.format)
		}
	})

	t.Run("zero window skips the binary", func(t *testing.T) {
		hits, err := NewYtdlpService(YtdlpOpts{}).SearchRaw(context.Background(), "anything", 0)
		if err != nil || len(hits) != 0 {
			t.Errorf("expected empty result, got %v err=%v", hits, err)
		}
	})

	t.Run("rejects ids that are not youtube ids before running the binary", func(t *testing.T) {
		for _, id := range []string{"--exec=id", "track:42!"} {
			_, err := NewYtdlpService(YtdlpOpts{}).ResolveStream(context.Background(), id)
			if !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("%q: expected ErrInvalidInput, got %v", id, err)
			}
		}
	})

	t.Run("parseSearchOutput", func(t *testing.T) {
		stdout := "abc123\tSong One (Official Audio)\tArtist - Topic\t213.0\n" +
			"garbage line\n" +
			"NA\tNo Id\tSomeone\t100\n" +
			"def456\tSong Two\tNA\tNA\n"

		hits := parseSearchOutput(stdout)
		if len(hits) != 2 {
			t.Fatalf("expected 2 hits, got %d: %+v", len(hits), hits)
		}

		if hits[0].ID != "abc123" || hits[0].Title != "Song One (Official Audio)" {
			t.Errorf("unexpected first hit %+v", hits[0])
		}
		if hits[0].Channel != "Artist - Topic" || hits[0].DurationSeconds != 213 {
			t.Errorf("unexpected first hit metadata %+v", hits[0])
		}
		if hits[0].ThumbnailURL != "https://i.ytimg.com/vi/abc123/hqdefault.jpg" {
			t.Errorf("unexpected thumbnail %s", hits[0].ThumbnailURL)
		}

		if hits[1].Channel != "" || hits[1].DurationSeconds != 0 {
			t.Errorf("expected NA fields to be empty, got %+v", hits[1])
		}
	})

	t.Run("parseSearchOutput empty", func(t *testing.T) {
		if hits := parseSearchOutput(""); hits == nil || len(hits) != 0 {
			t.Errorf("expected empty non-nil slice, got %#v", hits)
		}
	})

	t.Run("parseStreamOutput", func(t *testing.T) {
		info, err := parseStreamOutput("https://rr1.googlevideo.com/x\tSong\tArtist\t200\thttps://img/x.jpg\n")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if info.StreamURL != "https://rr1.googlevideo.com/x" || info.Title != "Song" || info.Artist != "Artist" {
			t.Errorf("unexpected info %+v", info)
		}
		if info.DurationSeconds != 200 || info.ThumbnailURL != "https://img/x.jpg" {
			t.Errorf("unexpected info %+v", info)
		}
	})

	t.Run("parseStreamOutput without url is not found", func(t *testing.T) {
		_, err := parseStreamOutput("NA\tSong\tArtist\t200\tNA\n")
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("parseStreamOutput garbage", func(t *testing.T) {
		_, err := parseStreamOutput("WARNING: something\n")
		if !errors.Is(err, shared.ErrProviderUnavailable) {
			t.Errorf("expected ErrProviderUnavailable, got %v", err)
		}
	})
}

func TestClassifyYtdlpError(t *testing.T) {
	runErr := errors.New("exit status 1")
	ctx := context.Background()

	t.Run("unavailable video is not found", func(t *testing.T) {
		res := &ytdlp.Result{Stderr: "ERROR: [youtube] zzz: Video unavailable\n"}
		if err := classifyYtdlpError(ctx, res, runErr); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("private video is not found", func(t *testing.T) {
		res := &ytdlp.Result{Stderr: "ERROR: [youtube] zzz: Private video. Sign in if you've been granted access"}
		if err := classifyYtdlpError(ctx, res, runErr); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("other failures are provider errors", func(t *testing.T) {
		res := &ytdlp.Result{Stderr: "ERROR: unable to download webpage: HTTP Error 503"}
		err := classifyYtdlpError(ctx, res, runErr)
		if !errors.Is(err, shared.ErrProviderUnavailable) || !shared.IsRetryable(err) {
			t.Errorf("expected retryable ErrProviderUnavailable, got %v", err)
		}
	})

	t.Run("nil result", func(t *testing.T) {
		if err := classifyYtdlpError(ctx, nil, runErr); !errors.Is(err, shared.ErrProviderUnavailable) {
			t.Errorf("expected ErrProviderUnavailable, got %v", err)
		}
	})

	t.Run("deadline is a timeout", func(t *testing.T) {
		dctx, cancel := context.WithTimeout(ctx, time.Nanosecond)
		defer cancel()
		<-dctx.Done()

		if err := classifyYtdlpError(dctx, nil, runErr); !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})

	t.Run("cancellation passes through", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		if err := classifyYtdlpError(cctx, nil, runErr); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
