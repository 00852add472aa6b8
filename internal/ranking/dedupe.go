package ranking

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/desertthunder/nextup/internal/models"
)

// DefaultDurationWindow is the largest duration gap, in seconds, at which two uploads can still be the same track.
const DefaultDurationWindow = 10

var bracketed = regexp.MustCompile(`[\(\[].*?[\)\]]`)

// NormalizeTitle drops bracketed segments like "(Official Video)" or "[HD]", strips everything but
// letters (with their combining marks), digits and whitespace, then lower-cases and trims the ends.
// Inner whitespace is kept as is, so "Artist - Song" and "Artist Song" stay distinct.
func NormalizeTitle(title string) string {
	return clean(bracketed.ReplaceAllString(title, ""))
}

func clean(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsMark(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// titleForms returns the bracket-stripped form and the bracket-kept form of a title.
//
// The second form lets "Song (Remastered)" match "song remastered". Titles that normalize to nothing
// match each other.
type titleForms [2]string

func formsOf(title string) titleForms {
	return titleForms{NormalizeTitle(title), clean(title)}
}

func (f titleForms) matches(o titleForms) bool {
	for _, a := range f {
		for _, b := range o {
			if a == b {
				return true
			}
		}
	}
	return false
}

// IsDuplicate reports whether a and b are the same track: durations within window seconds of each other
// and titles equal after normalization.
func IsDuplicate(a, b models.Candidate, window int) bool {
	if !withinWindow(a.DurationSeconds, b.DurationSeconds, window) {
		return false
	}
	return formsOf(a.Title).matches(formsOf(b.Title))
}

func withinWindow(a, b, window int) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= window
}

// Dedupe keeps the first occurrence of each track, in input order.
//
// Every candidate is compared against all survivors so far, so the output never holds two mutual duplicates
// and running Dedupe on its own output changes nothing.
func Dedupe(cands []models.Candidate, window int) []models.Candidate {
	type survivor struct {
		c     models.Candidate
		forms titleForms
	}

	kept := make([]survivor, 0, len(cands))
	for _, c := range cands {
		forms := formsOf(c.Title)
		dup := false
		for _, s := range kept {
			if withinWindow(c.DurationSeconds, s.c.DurationSeconds, window) && forms.matches(s.forms) {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, survivor{c: c, forms: forms})
		}
	}

	out := make([]models.Candidate, len(kept))
	for i, s := range kept {
		out[i] = s.c
	}
	return out
}
