package resolver

import (
	"context"
	"fmt"

	"github.com/fortuna/matchday/internal/domain"
	"github.com/fortuna/matchday/internal/matching"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Names resolves a free-text team name into directory entries.
type Names struct {
	dir      Directory
	leagues  []string
	suffixes []string
	logger   zerolog.Logger
}

// NewNames creates a name resolver scanning leagues and stripping suffixes.
func NewNames(dir Directory, leagues, suffixes []string, logger zerolog.Logger) *Names {
	return &Names{
		dir:      dir,
		leagues:  leagues,
		suffixes: suffixes,
		logger:   logger.With().Str("component", "names").Logger(),
	}
}

// ResolveCandidates returns entries matching query, deduplicated by id. Direct
// search hits come first, then league-scan hits in league and roster order.
// The league scan runs alongside the direct search regardless of its outcome.
func (n *Names) ResolveCandidates(ctx context.Context, query string) ([]domain.TeamEntry, error) {
	var direct []domain.TeamEntry
	rosters := make([][]domain.TeamEntry, len(n.leagues))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		direct = n.directSearch(gctx, query)
		return nil
	})

	for i, league := range n.leagues {
		g.Go(func() error {
			teams, err := n.dir.LeagueTeams(gctx, league)
			if err != nil {
				n.logger.Warn().Err(err).Str("league", league).Msg("league scan failed")
				return nil
			}
			for _, t := range teams {
				if matching.LeagueMatch(query, t.Name, t.AlternateNames) {
					rosters[i] = append(rosters[i], t)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var merged []domain.TeamEntry
	add := func(teams []domain.TeamEntry) {
		for _, t := range teams {
			if t.ID == "" || seen[t.ID] {
				continue
			}
			seen[t.ID] = true
			merged = append(merged, t)
		}
	}
	add(direct)
	for _, r := range rosters {
		add(r)
	}

	if len(merged) == 0 {
		return nil, fmt.Errorf("team %q: %w", query, domain.ErrNotFound)
	}

	n.logger.Debug().
		Str("query", query).
		Int("direct", len(direct)).
		Int("total", len(merged)).
		Msg("resolved team candidates")
	return merged, nil
}

// directSearch queries the directory, retrying once without a club suffix.
func (n *Names) directSearch(ctx context.Context, query string) []domain.TeamEntry {
	teams, err := n.dir.SearchTeams(ctx, query)
	if err != nil {
		n.logger.Warn().Err(err).Str("query", query).Msg("direct search failed")
	}
	if len(teams) > 0 {
		return teams
	}

	cleaned, changed := matching.StripSuffixes(query, n.suffixes)
	if !changed {
		return nil
	}
	n.logger.Debug().Str("query", query).Str("cleaned", cleaned).Msg("retrying without suffix")

	teams, err = n.dir.SearchTeams(ctx, cleaned)
	if err != nil {
		n.logger.Warn().Err(err).Str("query", cleaned).Msg("suffix-stripped search failed")
		return nil
	}
	return teams
}
