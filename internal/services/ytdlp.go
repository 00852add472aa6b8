// yt-dlp backed [Provider] implementation
//
// Shells out to the yt-dlp binary through go-ytdlp. Search uses the ytsearchN: pseudo-URL with a flat
// playlist; stream resolution asks for the best audio format without downloading.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/nextup/internal/models"
	"github.com/desertthunder/nextup/internal/shared"
	"github.com/lrstanley/go-ytdlp"
)

const (
	searchTemplate = "%(id)s\t%(title)s\t%(channel,uploader)s\t%(duration)s"
	streamTemplate = "%(url)s\t%(title)s\t%(channel,uploader)s\t%(duration)s\t%(thumbnail)s"
)

// YtdlpOpts configures the yt-dlp invocation.
type YtdlpOpts struct {
	Proxy  string // passed to --proxy when set
	Format string // defaults to bestaudio/best
}

// YtdlpService implements [Provider] on top of the yt-dlp binary.
type YtdlpService struct {
	proxy  string
	format string
}

// NewYtdlpService creates a new yt-dlp provider.
func NewYtdlpService(opts YtdlpOpts) *YtdlpService {
	if opts.Format == "" {
		opts.Format = "bestaudio/best"
	}
	return &YtdlpService{proxy: opts.Proxy, format: opts.Format}
}

func (y *YtdlpService) Name() string {
	return "yt-dlp"
}

func (y *YtdlpService) command() *ytdlp.Command {
	cmd := ytdlp.New().NoWarnings().IgnoreConfig()
	if y.proxy != "" {
		cmd.Proxy(y.proxy)
	}
	return cmd
}

// SearchRaw runs "ytsearch{window}:{query}" and parses one hit per output line.
func (y *YtdlpService) SearchRaw(ctx context.Context, query string, window int) ([]models.RawCandidate, error) {
	if window <= 0 {
		return []models.RawCandidate{}, nil
	}

	res, err := y.command().
		FlatPlaylist().
		Print(searchTemplate).
		PlaylistItems(fmt.Sprintf("1-%d", window)).
		Run(ctx, fmt.Sprintf("ytsearch%d:%s", window, query))
	if err != nil {
		return nil, classifyYtdlpError(ctx, res, err)
	}

	hits := parseSearchOutput(res.Stdout)
	if len(hits) > window {
		hits = hits[:window]
	}
	return hits, nil
}

// ResolveStream extracts the direct audio URL and metadata for id.
func (y *YtdlpService) ResolveStream(ctx context.Context, id string) (*models.StreamInfo, error) {
	if err := ValidateVideoID(id); err != nil {
		return nil, err
	}

	res, err := y.command().
		Print(streamTemplate).
		Format(y.format).
		NoPlaylist().
		Run(ctx, "--skip-download", WatchURL(id))
	if err != nil {
		return nil, classifyYtdlpError(ctx, res, err)
	}

	info, err := parseStreamOutput(res.Stdout)
	if err != nil {
		return nil, err
	}
	info.ID = id
	if info.ThumbnailURL == "" {
		info.ThumbnailURL = ThumbnailURL(id)
	}
	return info, nil
}

// parseSearchOutput reads tab separated id/title/channel/duration lines.
//
// Lines with fewer fields or no id are skipped.
func parseSearchOutput(stdout string) []models.RawCandidate {
	hits := []models.RawCandidate{}
	for _, line := range strings.Split(strings.TrimSpace(stdout), "\n") {
		parts := strings.Split(line, "\t")
		if len(parts) < 4 {
			continue
		}

		id := field(parts[0])
		if id == "" {
			continue
		}

		hits = append(hits, models.RawCandidate{
			ID:              id,
			Title:           field(parts[1]),
			Channel:         field(parts[2]),
			DurationSeconds: parseSeconds(parts[3]),
			ThumbnailURL:    ThumbnailURL(id),
		})
	}
	return hits
}

// parseStreamOutput reads the first complete url/title/channel/duration/thumbnail line.
func parseStreamOutput(stdout string) (*models.StreamInfo, error) {
	for _, line := range strings.Split(strings.TrimSpace(stdout), "\n") {
		parts := strings.Split(line, "\t")
		if len(parts) < 5 {
			continue
		}

		streamURL := field(parts[0])
		if streamURL == "" {
			return nil, fmt.Errorf("%w: no playable audio format", shared.ErrNotFound)
		}

		return &models.StreamInfo{
			StreamURL:       streamURL,
			Title:           field(parts[1]),
			Artist:          field(parts[2]),
			DurationSeconds: parseSeconds(parts[3]),
			ThumbnailURL:    field(parts[4]),
		}, nil
	}
	return nil, fmt.Errorf("%w: unexpected yt-dlp output", shared.ErrProviderUnavailable)
}

var notFoundMarkers = []string{
	"video unavailable",
	"private video",
	"has been removed",
	"does not exist",
	"not available",
	"requested format is not available",
	"is not a valid url",
	"incomplete youtube id",
}

// classifyYtdlpError maps a failed run onto the shared error kinds.
func classifyYtdlpError(ctx context.Context, res *ytdlp.Result, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: yt-dlp: %v", shared.ErrTimeout, err)
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}

	stderr := ""
	if res != nil {
		stderr = strings.ToLower(res.Stderr)
	}
	for _, marker := range notFoundMarkers {
		if strings.Contains(stderr, marker) {
			return fmt.Errorf("%w: %s", shared.ErrNotFound, lastLine(stderr))
		}
	}
	return fmt.Errorf("%w: yt-dlp: %v", shared.ErrProviderUnavailable, err)
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndex(s, "\n"); i >= 0 {
		return s[i+1:]
	}
	return s
}
