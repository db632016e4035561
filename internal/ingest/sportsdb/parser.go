package sportsdb

import (
	"strconv"
	"strings"
	"time"

	"github.com/fortuna/matchday/internal/domain"
)

const dateLayout = "2006-01-02"

// ParseTeams extracts teams from a {"teams": [...]} payload. A null list yields nil.
func ParseTeams(data map[string]interface{}) []domain.TeamEntry {
	raw := extractArray(data, "teams")
	teams := make([]domain.TeamEntry, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		team := parseTeam(m)
		if team.ID == "" {
			continue
		}
		teams = append(teams, team)
	}
	return teams
}

func parseTeam(m map[string]interface{}) domain.TeamEntry {
	return domain.TeamEntry{
		ID:             extractID(m, "idTeam"),
		Name:           extractString(m, "strTeam"),
		AlternateNames: splitAlternates(extractString(m, "strAlternate")),
		BadgeURL:       fallbackString(extractString(m, "strBadge"), extractString(m, "strTeamBadge")),
		League:         extractString(m, "strLeague"),
		Sport:          extractString(m, "strSport"),
	}
}

// ParseEvents extracts fixtures from an {"events": [...]} payload. Missing
// dates and times are tolerated; such fields stay zero.
func ParseEvents(data map[string]interface{}) []domain.FixtureCandidate {
	raw := extractArray(data, "events")
	if len(raw) == 0 {
		// eventsnextleague uses "event" on some tiers
		raw = extractArray(data, "event")
	}
	events := make([]domain.FixtureCandidate, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		events = append(events, parseEvent(m))
	}
	return events
}

func parseEvent(m map[string]interface{}) domain.FixtureCandidate {
	ev := domain.FixtureCandidate{
		EventID:      extractID(m, "idEvent"),
		HomeID:       extractID(m, "idHomeTeam"),
		AwayID:       extractID(m, "idAwayTeam"),
		HomeName:     extractString(m, "strHomeTeam"),
		AwayName:     extractString(m, "strAwayTeam"),
		HomeBadgeURL: extractString(m, "strHomeTeamBadge"),
		AwayBadgeURL: extractString(m, "strAwayTeamBadge"),
		League:       extractString(m, "strLeague"),
		Status:       extractString(m, "strStatus"),
		Kickoff:      strings.TrimSpace(extractString(m, "strTime")),
	}

	if d, err := time.Parse(dateLayout, extractString(m, "dateEvent")); err == nil {
		ev.Date = d
	}

	// strTimestamp is UTC and fills whatever dateEvent/strTime left out.
	if ts := extractString(m, "strTimestamp"); ts != "" {
		if t, err := parseTimestamp(ts); err == nil {
			if ev.Date.IsZero() {
				ev.Date = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			}
			if ev.Kickoff == "" {
				ev.Kickoff = t.Format("15:04:05")
			}
		}
	}
	return ev
}

func parseTimestamp(s string) (time.Time, error) {
	layouts := []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"}
	var err error
	for _, layout := range layouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, err
}

func splitAlternates(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func extractString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return ""
}

// extractID tolerates ids encoded as strings or numbers.
func extractID(m map[string]interface{}, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	default:
		return ""
	}
}

func fallbackString(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func extractArray(m map[string]interface{}, key string) []interface{} {
	if v, ok := m[key]; ok {
		if arrVal, ok := v.([]interface{}); ok {
			return arrVal
		}
	}
	return []interface{}{}
}
