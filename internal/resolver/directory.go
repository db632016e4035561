// Package resolver turns typed team names into a canonical directory fixture.
package resolver

import (
	"context"

	"github.com/fortuna/matchday/internal/domain"
)

// Directory is the subset of the sports directory the resolvers use.
type Directory interface {
	SearchTeams(ctx context.Context, name string) ([]domain.TeamEntry, error)
	LeagueTeams(ctx context.Context, league string) ([]domain.TeamEntry, error)
	LookupTeam(ctx context.Context, teamID string) (domain.TeamEntry, error)
	NextEvents(ctx context.Context, teamID string) ([]domain.FixtureCandidate, error)
	SeasonEvents(ctx context.Context, teamID, season string) ([]domain.FixtureCandidate, error)
}
