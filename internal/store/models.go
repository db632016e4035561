package store

import "time"

// Resolution is one stored pipeline outcome.
type Resolution struct {
	ID            string    `json:"id"`
	RequestedHome string    `json:"requested_home"`
	RequestedAway string    `json:"requested_away"`
	HomeName      string    `json:"home_name"`
	AwayName      string    `json:"away_name"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	HomeBadgeURL  string    `json:"home_badge_url,omitempty"`
	AwayBadgeURL  string    `json:"away_badge_url,omitempty"`
	Source        string    `json:"source"`
	NightRollback bool      `json:"night_rollback"`
	ResolvedAt    time.Time `json:"resolved_at"`
}
