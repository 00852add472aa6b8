package services

import (
	"errors"
	"testing"

	"github.com/desertthunder/nextup/internal/shared"
)

func TestNormalizeVideoID(t *testing.T) {
	t.Run("accepts ids and urls", func(t *testing.T) {
		tests := []struct {
			name  string
			input string
			want  string
		}{
			{"bare id", "dQw4w9WgXcQ", "dQw4w9WgXcQ"},
			{"padded id", "  dQw4w9WgXcQ ", "dQw4w9WgXcQ"},
			{"watch url", "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42", "dQw4w9WgXcQ"},
			{"music url", "https://music.youtube.com/watch?v=dQw4w9WgXcQ&list=RD", "dQw4w9WgXcQ"},
			{"short url", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
			{"embed url", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
			{"v url", "https://www.youtube.com/v/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
			{"shorts url", "https://youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
			{"underscore id", "a_b-c", "a_b-c"},
			{"opaque id", "track:42!", "track:42!"},
			{"leading dash", "-leading", "-leading"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := NormalizeVideoID(tt.input)
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if got != tt.want {
					t.Errorf("expected %s, got %s", tt.want, got)
				}
			})
		}
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		for _, input := range []string{"", "   ", "has space", "tab\tid", "nul\x00id", "https://example.com/watch", "https://youtu.be/", "https://youtu.be/bad;id"} {
			if _, err := NormalizeVideoID(input); !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("%q: expected ErrInvalidInput, got %v", input, err)
			}
		}
	})
}

func TestValidateVideoID(t *testing.T) {
	t.Run("accepts youtube ids", func(t *testing.T) {
		for _, id := range []string{"dQw4w9WgXcQ", "a_b-c"} {
			if err := ValidateVideoID(id); err != nil {
				t.Errorf("%q: expected no error, got %v", id, err)
			}
		}
	})

	t.Run("rejects ids yt-dlp could misread", func(t *testing.T) {
		for _, id := range []string{"", "-leading", "--exec=rm", "semi;colon", "track:42!"} {
			if err := ValidateVideoID(id); !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("%q: expected ErrInvalidInput, got %v", id, err)
			}
		}
	})
}

func TestDurationParsing(t *testing.T) {
	t.Run("parseSeconds", func(t *testing.T) {
		tests := map[string]int{"213": 213, "213.0": 213, "212.6": 213, "NA": 0, "": 0, "-4": 0}
		for in, want := range tests {
			if got := parseSeconds(in); got != want {
				t.Errorf("parseSeconds(%q): expected %d, got %d", in, want, got)
			}
		}
	})

	t.Run("parseClock", func(t *testing.T) {
		tests := map[string]int{"3:20": 200, "1:05:20": 3920, "45": 45, "": 0, "live": 0, "1:2:3:4": 0}
		for in, want := range tests {
			if got := parseClock(in); got != want {
				t.Errorf("parseClock(%q): expected %d, got %d", in, want, got)
			}
		}
	})
}
