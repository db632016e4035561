package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fortuna/matchday/internal/domain"
	"golang.org/x/sync/errgroup"
)

const upcomingTTL = 10 * time.Minute

// Upcoming lists the next fixtures of the configured leagues, kickoff already
// in the target timezone. Leagues that fail are skipped; an error is returned
// only when every league fails.
func (o *Orchestrator) Upcoming(ctx context.Context) ([]domain.UpcomingFixture, error) {
	if o.deps.Schedule == nil || len(o.leagues) == 0 {
		return nil, nil
	}

	if o.cache != nil {
		var cached []domain.UpcomingFixture
		if err := o.cache.GetJSON(ctx, o.cache.Key("upcoming"), &cached); err == nil {
			return cached, nil
		}
	}
	return o.RefreshUpcoming(ctx)
}

// RefreshUpcoming fetches the listing from the directory, skipping the cache
// read, and stores the result.
func (o *Orchestrator) RefreshUpcoming(ctx context.Context) ([]domain.UpcomingFixture, error) {
	if o.deps.Schedule == nil || len(o.leagues) == 0 {
		return nil, nil
	}

	perLeague := make([][]domain.UpcomingFixture, len(o.leagues))
	errs := make([]error, len(o.leagues))
	g, gctx := errgroup.WithContext(ctx)
	for i, league := range o.leagues {
		g.Go(func() error {
			events, err := o.deps.Schedule.NextLeagueEvents(gctx, league)
			if err != nil {
				errs[i] = fmt.Errorf("league %s: %w", league, err)
				o.logger.Warn().Err(err).Str("league", league).Msg("league schedule unavailable")
				return nil
			}
			perLeague[i] = o.listing(events)
			return nil
		})
	}
	g.Wait()

	var out []domain.UpcomingFixture
	failed := 0
	for i := range o.leagues {
		if errs[i] != nil {
			failed++
			continue
		}
		out = append(out, perLeague[i]...)
	}
	if failed == len(o.leagues) {
		return nil, errors.Join(errs...)
	}

	if o.cache != nil {
		if err := o.cache.SetJSON(ctx, o.cache.Key("upcoming"), out, upcomingTTL); err != nil {
			o.logger.Debug().Err(err).Msg("failed to cache upcoming fixtures")
		}
	}
	return out, nil
}

func (o *Orchestrator) listing(events []domain.FixtureCandidate) []domain.UpcomingFixture {
	if o.perLeague > 0 && len(events) > o.perLeague {
		events = events[:o.perLeague]
	}
	out := make([]domain.UpcomingFixture, 0, len(events))
	for _, ev := range events {
		date, clock := o.deps.Normalizer.Kickoff(ev)
		out = append(out, domain.UpcomingFixture{
			League:       ev.League,
			HomeName:     ev.HomeName,
			AwayName:     ev.AwayName,
			Date:         date,
			Time:         clock,
			HomeBadgeURL: ev.HomeBadgeURL,
			AwayBadgeURL: ev.AwayBadgeURL,
			Status:       ev.Status,
		})
	}
	return out
}
