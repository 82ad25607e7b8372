// Package dates resolves free-form date substrings against a context
// timestamp, handling relative words, day/month order ambiguity, missing
// years, and noise.
package dates

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

var (
	dashDotPattern = regexp.MustCompile(`[–—.]`)
	ordinalPattern = regexp.MustCompile(`(\d+)(st|nd|rd|th)`)
	parenPattern   = regexp.MustCompile(`\(.*?\)`)
)

var (
	errNoTokens      = errors.New("no date tokens")
	errTooManyFields = errors.New("too many date fields")
	errOutOfRange    = errors.New("date component out of range")
)

// Resolve turns a raw date substring into a calendar date using the message
// timestamp as "now". It enumerates up to eight hypotheses (day-first and
// month-first grammars, with and without a context-year suffix), pulls
// implausible years back to the context year, and picks the hypothesis
// closest to the context date. Returns false when nothing parses.
//
// The function is pure: the same (raw, contextEpoch) pair always yields the
// same result. Context timestamps are interpreted in UTC.
func Resolve(raw string, contextEpoch float64) (time.Time, bool) {
	ctx := contextDate(contextEpoch)

	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return time.Time{}, false
	}
	if strings.Contains(raw, "today") {
		return ctx, true
	}

	normalized := normalize(raw)
	if normalized == "" {
		return time.Time{}, false
	}

	year := ctx.Year()
	variants := []string{
		normalized,
		fmt.Sprintf("%s/%d", normalized, year),
		fmt.Sprintf("%s/%d", normalized, year-1),
		fmt.Sprintf("%s/%d", normalized, year+1),
	}

	var best time.Time
	bestDist := -1
	for _, variant := range variants {
		for _, dayFirst := range []bool{true, false} {
			d, err := parseGrammar(variant, dayFirst, ctx)
			if err != nil {
				continue
			}
			d = correctYear(d, ctx)
			if dist := absDays(d, ctx); bestDist < 0 || dist < bestDist {
				best, bestDist = d, dist
			}
		}
	}
	if bestDist < 0 {
		return time.Time{}, false
	}
	return best, true
}

func contextDate(epoch float64) time.Time {
	t := time.Unix(int64(epoch), 0).UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// normalize replaces dash/period separators with slashes, strips ordinal
// suffixes ("1st" -> "1") and removes parenthetical asides.
func normalize(s string) string {
	s = dashDotPattern.ReplaceAllString(s, "/")
	s = ordinalPattern.ReplaceAllString(s, "$1")
	s = parenPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

var monthNames = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// parseGrammar interprets one normalized string under a single grammar.
// Missing components are filled from the context date. Any malformed or
// out-of-range component fails the hypothesis.
func parseGrammar(s string, dayFirst bool, ctx time.Time) (time.Time, error) {
	tokens := strings.FieldsFunc(s, func(r rune) bool {
		return r == '/' || r == '-' || r == ',' || unicode.IsSpace(r)
	})
	if len(tokens) == 0 {
		return time.Time{}, errNoTokens
	}

	month := 0
	monthSeen := false
	var nums []int
	for _, tok := range tokens {
		if m, ok := monthNames[tok]; ok {
			if monthSeen {
				return time.Time{}, errTooManyFields
			}
			month = int(m)
			monthSeen = true
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil {
			return time.Time{}, fmt.Errorf("date token %q: %w", tok, err)
		}
		nums = append(nums, n)
	}

	day, year := 0, 0
	switch {
	case monthSeen:
		switch len(nums) {
		case 0:
			day, year = ctx.Day(), ctx.Year()
		case 1:
			if nums[0] > 31 {
				day, year = ctx.Day(), nums[0]
			} else {
				day, year = nums[0], ctx.Year()
			}
		case 2:
			day, year = nums[0], nums[1]
			if day > 31 {
				day, year = nums[1], nums[0]
			}
		default:
			return time.Time{}, errTooManyFields
		}
	case len(nums) == 1:
		n := nums[0]
		switch {
		case n >= 1000:
			year, month, day = n, int(ctx.Month()), ctx.Day()
		case n >= 1 && n <= 31:
			day, month, year = n, int(ctx.Month()), ctx.Year()
		default:
			return time.Time{}, errOutOfRange
		}
	case len(nums) == 2:
		a, b := nums[0], nums[1]
		switch {
		case a >= 1000:
			// Year leads: year/month, day from context.
			year, month, day = a, b, ctx.Day()
		case b >= 100:
			// Trailing year with a single remaining component.
			year = b
			if !dayFirst && a <= 12 {
				month, day = a, ctx.Day()
			} else {
				day, month = a, int(ctx.Month())
			}
		default:
			if dayFirst {
				day, month = a, b
			} else {
				month, day = a, b
			}
			year = ctx.Year()
		}
	case len(nums) == 3:
		a, b, c := nums[0], nums[1], nums[2]
		if a >= 1000 {
			// A four-digit leading component is a year under either grammar.
			year, month, day = a, b, c
		} else {
			year = c
			if dayFirst {
				day, month = a, b
			} else {
				month, day = a, b
			}
		}
	default:
		return time.Time{}, errTooManyFields
	}

	if year >= 0 && year < 100 {
		if year < 70 {
			year += 2000
		} else {
			year += 1900
		}
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, errOutOfRange
	}

	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Year() != year || d.Month() != time.Month(month) || d.Day() != day {
		return time.Time{}, errOutOfRange
	}
	return d, nil
}

// correctYear recovers dates written without a year that a literal parse
// pinned to an unrelated one: any hypothesis more than a day away from the
// context is pulled into the context year, falling back to day 28 when the
// month/day pair does not exist there (Feb 29 in a non-leap year).
func correctYear(d, ctx time.Time) time.Time {
	if absDays(d, ctx) <= 1 {
		return d
	}
	year := ctx.Year()
	corrected := time.Date(year, d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	if corrected.Month() != d.Month() || corrected.Day() != d.Day() {
		corrected = time.Date(year, d.Month(), 28, 0, 0, 0, 0, time.UTC)
	}
	return corrected
}

func absDays(a, b time.Time) int {
	d := int(a.Sub(b).Hours() / 24)
	if d < 0 {
		return -d
	}
	return d
}
