package pipeline

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	manualTime = regexp.MustCompile(`\b(\d{1,2})[:.](\d{2})\b`)
	spaces     = regexp.MustCompile(`\s+`)
)

// Manual is a user supplied date and time.
type Manual struct {
	Date string
	Time string
}

// ParseManual reads an override such as "22:30", "25 Mart 20.45" or "Cumartesi".
// The last clock token is the time and whatever remains is the date, kept as
// typed. ok is false when s is blank.
func ParseManual(s string) (m Manual, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Manual{}, false
	}
	locs := manualTime.FindAllStringSubmatchIndex(s, -1)
	if len(locs) == 0 {
		return Manual{Date: s}, true
	}
	last := locs[len(locs)-1]
	h, _ := strconv.Atoi(s[last[2]:last[3]])
	m.Time = fmt.Sprintf("%02d:%s", h, s[last[4]:last[5]])
	rest := s[:last[0]] + " " + s[last[1]:]
	m.Date = strings.TrimSpace(spaces.ReplaceAllString(rest, " "))
	return m, true
}

var matchSeparators = []string{" vs. ", " vs ", " - ", " / ", " VS. ", " VS ", " Vs. ", " Vs "}

// noOdds marks a line typed without odds.
var noOdds = map[string]bool{"yok": true, "-": true, "0": true, "oran_yok": true, "no_odds": true}

// ParseMatchLine splits "Home vs Away [odds...]" into a match request. Trailing
// odds columns are dropped.
func ParseMatchLine(line string) (home, away string, err error) {
	line = strings.TrimSpace(line)
	for _, sep := range matchSeparators {
		parts := strings.SplitN(line, sep, 2)
		if len(parts) != 2 {
			continue
		}
		home = strings.TrimSpace(parts[0])
		fields := strings.Fields(parts[1])
		for len(fields) > 1 && isOdds(fields[len(fields)-1]) {
			fields = fields[:len(fields)-1]
		}
		away = strings.Join(fields, " ")
		if home == "" || away == "" {
			return "", "", fmt.Errorf("match line %q: empty team name", line)
		}
		return home, away, nil
	}
	return "", "", fmt.Errorf("match line %q: expected \"Home vs Away\"", line)
}

func isOdds(s string) bool {
	if noOdds[strings.ToLower(s)] {
		return true
	}
	_, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	return err == nil
}
