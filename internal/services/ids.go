package services

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/desertthunder/nextup/internal/shared"
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// NormalizeVideoID accepts a catalog id or a YouTube / YouTube Music URL and returns the id.
//
// Ids are opaque to everything but the backend that issued them: any non-empty string without whitespace
// or control characters is accepted as is. URLs must point at YouTube. Anything else is
// [shared.ErrInvalidInput].
func NormalizeVideoID(input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", fmt.Errorf("%w: empty video id", shared.ErrInvalidInput)
	}

	if strings.Contains(s, "://") {
		id, err := idFromURL(s)
		if err != nil {
			return "", err
		}
		if err := ValidateVideoID(id); err != nil {
			return "", err
		}
		return id, nil
	}

	if strings.IndexFunc(s, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) >= 0 {
		return "", fmt.Errorf("%w: malformed video id %q", shared.ErrInvalidInput, input)
	}
	return s, nil
}

// ValidateVideoID reports whether id is a YouTube video id. Backends that pass ids to yt-dlp on the
// command line require it so an id can never be read as a flag.
func ValidateVideoID(id string) error {
	if !videoIDPattern.MatchString(id) || strings.HasPrefix(id, "-") {
		return fmt.Errorf("%w: malformed video id %q", shared.ErrInvalidInput, id)
	}
	return nil
}

func idFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: invalid URL: %v", shared.ErrInvalidInput, err)
	}

	host := strings.ToLower(u.Host)
	switch {
	case strings.Contains(host, "youtu.be"):
		if id := strings.Trim(u.Path, "/"); id != "" {
			return id, nil
		}
	case strings.Contains(host, "youtube.com"):
		if id := u.Query().Get("v"); id != "" {
			return id, nil
		}
		for _, prefix := range []string{"/embed/", "/v/", "/shorts/", "/live/"} {
			if strings.HasPrefix(u.Path, prefix) {
				if id := strings.Trim(strings.TrimPrefix(u.Path, prefix), "/"); id != "" {
					return id, nil
				}
			}
		}
	}
	return "", fmt.Errorf("%w: no video id in %s", shared.ErrInvalidInput, raw)
}

// WatchURL returns the canonical watch page for id.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

// ThumbnailURL returns the high quality still for id.
func ThumbnailURL(id string) string {
	return "https://i.ytimg.com/vi/" + id + "/hqdefault.jpg"
}

// parseSeconds reads a yt-dlp duration field ("213", "213.0", "NA") as whole seconds; unknown is 0.
func parseSeconds(s string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(math.Round(f))
}

// parseClock reads "m:ss" or "h:mm:ss" as seconds; unknown is 0.
func parseClock(s string) int {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) == 0 || len(parts) > 3 {
		return 0
	}

	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + n
	}
	return total
}

// field returns a yt-dlp template value, mapping its "NA" placeholder to "".
func field(s string) string {
	s = strings.TrimSpace(s)
	if s == "NA" {
		return ""
	}
	return s
}
