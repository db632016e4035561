package domain

import "time"

// TeamEntry is a team as recorded by the sports directory.
type TeamEntry struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	AlternateNames []string `json:"alternate_names,omitempty"`
	BadgeURL       string   `json:"badge_url,omitempty"`
	League         string   `json:"league,omitempty"`
	Sport          string   `json:"sport,omitempty"`
}

// FixtureCandidate is a directory event considered while disambiguating a match.
// Date is a calendar date at UTC midnight; Kickoff is the source "HH:MM:SS" and may be empty.
type FixtureCandidate struct {
	EventID      string    `json:"event_id"`
	HomeID       string    `json:"home_id,omitempty"`
	AwayID       string    `json:"away_id,omitempty"`
	HomeName     string    `json:"home_name"`
	AwayName     string    `json:"away_name"`
	Date         time.Time `json:"date"`
	Kickoff      string    `json:"kickoff,omitempty"`
	HomeBadgeURL string    `json:"home_badge_url,omitempty"`
	AwayBadgeURL string    `json:"away_badge_url,omitempty"`
	League       string    `json:"league,omitempty"`
	Status       string    `json:"status,omitempty"`
}

// HasDate reports whether the directory supplied a usable date.
func (c FixtureCandidate) HasDate() bool {
	return !c.Date.IsZero()
}

// Source records which tier produced a ResolvedFixture.
type Source string

const (
	SourceDirectory Source = "directory"
	SourceAI        Source = "ai"
	SourceManual    Source = "manual"
	SourceNone      Source = "none"
)

// ResolvedFixture is the output contract of the resolution pipeline.
// Both names come from the same candidate, or both are the caller's input.
type ResolvedFixture struct {
	HomeName     string `json:"home_name"`
	AwayName     string `json:"away_name"`
	Date         string `json:"date,omitempty"`
	Time         string `json:"time,omitempty"`
	HomeBadgeURL string `json:"home_badge_url,omitempty"`
	AwayBadgeURL string `json:"away_badge_url,omitempty"`
	Source       Source `json:"source"`
}

// NotFound reports whether every tier failed.
func (f ResolvedFixture) NotFound() bool {
	return f.Source == SourceNone
}

// Complete reports whether both date and time are known.
func (f ResolvedFixture) Complete() bool {
	return f.Date != "" && f.Time != ""
}

// LogoSource tags the waterfall tier that produced a logo.
type LogoSource string

const (
	LogoCacheExact   LogoSource = "cache_exact"
	LogoCacheFuzzy   LogoSource = "cache_fuzzy"
	LogoDirectory    LogoSource = "directory"
	LogoEncyclopedia LogoSource = "encyclopedia"
	LogoOpenSearch   LogoSource = "open_search"
	LogoSynthetic    LogoSource = "synthetic"
)

// LogoResult is the terminal outcome of a logo lookup. Path always points at a file.
type LogoResult struct {
	Path   string     `json:"path"`
	Source LogoSource `json:"source"`
}

// MatchRequest is one fixture to resolve, as typed by the user.
type MatchRequest struct {
	Home          string `json:"home"`
	Away          string `json:"away"`
	NightRollback bool   `json:"night_rollback"`
	Manual        string `json:"manual,omitempty"`
}

// UpcomingFixture is a league fixture listed with kickoff already in the target timezone.
type UpcomingFixture struct {
	League       string `json:"league"`
	HomeName     string `json:"home_name"`
	AwayName     string `json:"away_name"`
	Date         string `json:"date,omitempty"`
	Time         string `json:"time,omitempty"`
	HomeBadgeURL string `json:"home_badge_url,omitempty"`
	AwayBadgeURL string `json:"away_badge_url,omitempty"`
	Status       string `json:"status,omitempty"`
}
