package resolver

import (
	"fmt"
	"time"

	"github.com/fortuna/matchday/internal/domain"
	"github.com/fortuna/matchday/internal/matching"
)

// Normalizer orients a fixture to the caller's home/away order and converts
// its kickoff into the target timezone and locale.
type Normalizer struct {
	zone        *time.Location
	months      []string
	nightCutoff int
}

// NewNormalizer creates a normalizer. months must hold 12 names, January first.
func NewNormalizer(zone *time.Location, months []string, nightCutoff int) *Normalizer {
	return &Normalizer{zone: zone, months: months, nightCutoff: nightCutoff}
}

// Normalize emits the resolved fixture for candidate. Kickoff is read as UTC and
// converted once; with nightRollback a kickoff before the cutoff hour is listed
// under the previous day.
func (n *Normalizer) Normalize(c domain.FixtureCandidate, requestedHome string, nightRollback bool) domain.ResolvedFixture {
	out := domain.ResolvedFixture{
		HomeName:     c.HomeName,
		AwayName:     c.AwayName,
		HomeBadgeURL: c.HomeBadgeURL,
		AwayBadgeURL: c.AwayBadgeURL,
		Source:       domain.SourceDirectory,
	}
	if !matching.SameSide(requestedHome, c.HomeName) {
		out.HomeName, out.AwayName = c.AwayName, c.HomeName
		out.HomeBadgeURL, out.AwayBadgeURL = c.AwayBadgeURL, c.HomeBadgeURL
	}

	if !c.HasDate() {
		return out
	}

	day := c.Date
	if local, ok := n.localKickoff(c); ok {
		out.Time = local.Format("15:04")
		day = local
		if nightRollback && local.Hour() < n.nightCutoff {
			day = day.AddDate(0, 0, -1)
		}
	}
	out.Date = n.FormatDate(day)
	return out
}

// FormatDate renders t as "<day> <MONTH>".
func (n *Normalizer) FormatDate(t time.Time) string {
	return fmt.Sprintf("%d %s", t.Day(), n.months[t.Month()-1])
}

// Kickoff converts a directory date and time into the target zone.
func (n *Normalizer) Kickoff(c domain.FixtureCandidate) (date, clock string) {
	if !c.HasDate() {
		return "", ""
	}
	local, ok := n.localKickoff(c)
	if !ok {
		return n.FormatDate(c.Date), ""
	}
	return n.FormatDate(local), local.Format("15:04")
}

func (n *Normalizer) localKickoff(c domain.FixtureCandidate) (time.Time, bool) {
	h, m, s, ok := parseKickoff(c.Kickoff)
	if !ok {
		return time.Time{}, false
	}
	d := c.Date
	return time.Date(d.Year(), d.Month(), d.Day(), h, m, s, 0, time.UTC).In(n.zone), true
}

// Today is the current date in the target zone.
func (n *Normalizer) Today(now time.Time) string {
	return n.FormatDate(now.In(n.zone))
}
