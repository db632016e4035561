package resolver

import (
	"fmt"
	"strings"
	"time"
)

// SeasonString names the split-year season containing now: from July on it is
// "<year>-<year+1>", before that "<year-1>-<year>".
func SeasonString(now time.Time) string {
	y := now.Year()
	if now.Month() > time.June {
		return fmt.Sprintf("%d-%d", y, y+1)
	}
	return fmt.Sprintf("%d-%d", y-1, y)
}

// CalendarSeason names the single-year season used by leagues like MLS.
func CalendarSeason(now time.Time) string {
	return fmt.Sprintf("%d", now.Year())
}

// civilDate truncates t to midnight UTC of its own calendar day.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// dayDistance is the absolute number of calendar days between a and b.
func dayDistance(a, b time.Time) int {
	days := int(civilDate(a).Sub(civilDate(b)).Hours() / 24)
	if days < 0 {
		return -days
	}
	return days
}

// parseKickoff reads "HH:MM:SS" or "HH:MM", ignoring a trailing zone designator.
func parseKickoff(s string) (hour, minute, second int, ok bool) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "+Z"); i > 0 {
		s = s[:i]
	}
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Hour(), t.Minute(), t.Second(), true
		}
	}
	return 0, 0, 0, false
}
