package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/fortuna/matchday/internal/domain"
	"github.com/fortuna/matchday/internal/matching"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Fixtures picks the directory fixture meant by a home entry and an away name.
type Fixtures struct {
	dir      Directory
	maxHomes int
	now      func() time.Time
	logger   zerolog.Logger
}

// FixturesOption customizes a Fixtures disambiguator.
type FixturesOption func(*Fixtures)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) FixturesOption {
	return func(f *Fixtures) { f.now = now }
}

// NewFixtures creates a disambiguator that considers up to maxHomes home entries.
func NewFixtures(dir Directory, maxHomes int, logger zerolog.Logger, opts ...FixturesOption) *Fixtures {
	if maxHomes <= 0 {
		maxHomes = 3
	}
	f := &Fixtures{
		dir:      dir,
		maxHomes: maxHomes,
		now:      time.Now,
		logger:   logger.With().Str("component", "fixtures").Logger(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FindFixture searches the fixtures of the top ranked home entries for one that
// involves awayQuery. Entries are fetched concurrently and judged in rank order:
// the first entry with any candidate decides, and among its candidates the one
// closest to today wins (first found on ties). Missing badges are back-filled.
func (f *Fixtures) FindFixture(ctx context.Context, homes []domain.TeamEntry, awayQuery string) (domain.FixtureCandidate, error) {
	if len(homes) > f.maxHomes {
		homes = homes[:f.maxHomes]
	}
	now := f.now().UTC()

	perHome := make([][]domain.FixtureCandidate, len(homes))
	g, gctx := errgroup.WithContext(ctx)
	for i, home := range homes {
		g.Go(func() error {
			perHome[i] = f.candidatesFor(gctx, home, awayQuery, now)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.FixtureCandidate{}, err
	}

	for i, cands := range perHome {
		best, ok := closest(cands, now)
		if !ok {
			continue
		}
		f.logger.Debug().
			Str("home_entry", homes[i].Name).
			Str("event", best.EventID).
			Int("candidates", len(cands)).
			Msg("fixture selected")
		return f.fillBadges(ctx, best), nil
	}

	return domain.FixtureCandidate{}, fmt.Errorf("fixture vs %q: %w", awayQuery, domain.ErrNotFound)
}

// candidatesFor collects fixtures of home that involve awayQuery. Upcoming
// fixtures are tried first; the season list (today onward) is the fallback.
func (f *Fixtures) candidatesFor(ctx context.Context, home domain.TeamEntry, awayQuery string, now time.Time) []domain.FixtureCandidate {
	next, err := f.dir.NextEvents(ctx, home.ID)
	if err != nil {
		f.logger.Warn().Err(err).Str("team_id", home.ID).Msg("upcoming fixtures unavailable")
	}
	if cands := filterParticipants(next, awayQuery); len(cands) > 0 {
		return cands
	}

	today := civilDate(now)
	for _, season := range []string{SeasonString(now), CalendarSeason(now)} {
		events, err := f.dir.SeasonEvents(ctx, home.ID, season)
		if err != nil {
			f.logger.Warn().Err(err).Str("team_id", home.ID).Str("season", season).Msg("season fixtures unavailable")
			continue
		}
		if len(events) == 0 {
			continue
		}
		var future []domain.FixtureCandidate
		for _, ev := range events {
			if ev.HasDate() && !ev.Date.Before(today) {
				future = append(future, ev)
			}
		}
		return filterParticipants(future, awayQuery)
	}
	return nil
}

func filterParticipants(events []domain.FixtureCandidate, target string) []domain.FixtureCandidate {
	var out []domain.FixtureCandidate
	for _, ev := range events {
		if matching.Participates(target, ev.HomeName, ev.AwayName) {
			out = append(out, ev)
		}
	}
	return out
}

// closest returns the dated candidate nearest to now, first found on ties.
// Undated candidates are only returned when no candidate has a date.
func closest(cands []domain.FixtureCandidate, now time.Time) (domain.FixtureCandidate, bool) {
	bestIdx, bestDist := -1, 0
	for i, c := range cands {
		if !c.HasDate() {
			continue
		}
		d := dayDistance(c.Date, now)
		if bestIdx < 0 || d < bestDist {
			bestIdx, bestDist = i, d
		}
	}
	if bestIdx >= 0 {
		return cands[bestIdx], true
	}
	if len(cands) > 0 {
		return cands[0], true
	}
	return domain.FixtureCandidate{}, false
}

// fillBadges looks up missing participant badges by team id, both sides at once.
func (f *Fixtures) fillBadges(ctx context.Context, c domain.FixtureCandidate) domain.FixtureCandidate {
	var g errgroup.Group
	lookup := func(teamID string, dst *string) {
		if *dst != "" || teamID == "" {
			return
		}
		g.Go(func() error {
			team, err := f.dir.LookupTeam(ctx, teamID)
			if err != nil {
				f.logger.Debug().Err(err).Str("team_id", teamID).Msg("badge lookup failed")
				return nil
			}
			*dst = team.BadgeURL
			return nil
		})
	}
	lookup(c.HomeID, &c.HomeBadgeURL)
	lookup(c.AwayID, &c.AwayBadgeURL)
	g.Wait()
	return c
}
