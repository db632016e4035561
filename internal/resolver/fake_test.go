package resolver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fortuna/matchday/internal/domain"
)

// fakeDirectory serves canned directory data and records calls.
type fakeDirectory struct {
	mu      sync.Mutex
	calls   []string
	search  map[string][]domain.TeamEntry
	leagues map[string][]domain.TeamEntry
	teams   map[string]domain.TeamEntry
	next    map[string][]domain.FixtureCandidate
	season  map[string][]domain.FixtureCandidate // key: id + "|" + season
	failing map[string]bool                      // key: call name
}

func (f *fakeDirectory) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	for prefix := range f.failing {
		if len(call) >= len(prefix) && call[:len(prefix)] == prefix {
			return domain.Unavailable("fake", fmt.Errorf("%s failed", call))
		}
	}
	return nil
}

func (f *fakeDirectory) callCount(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

func (f *fakeDirectory) SearchTeams(ctx context.Context, name string) ([]domain.TeamEntry, error) {
	if err := f.record("search:" + name); err != nil {
		return nil, err
	}
	return f.search[name], nil
}

func (f *fakeDirectory) LeagueTeams(ctx context.Context, league string) ([]domain.TeamEntry, error) {
	if err := f.record("league:" + league); err != nil {
		return nil, err
	}
	return f.leagues[league], nil
}

func (f *fakeDirectory) LookupTeam(ctx context.Context, teamID string) (domain.TeamEntry, error) {
	if err := f.record("lookup:" + teamID); err != nil {
		return domain.TeamEntry{}, err
	}
	t, ok := f.teams[teamID]
	if !ok {
		return domain.TeamEntry{}, domain.ErrNotFound
	}
	return t, nil
}

func (f *fakeDirectory) NextEvents(ctx context.Context, teamID string) ([]domain.FixtureCandidate, error) {
	if err := f.record("next:" + teamID); err != nil {
		return nil, err
	}
	return f.next[teamID], nil
}

func (f *fakeDirectory) SeasonEvents(ctx context.Context, teamID, season string) ([]domain.FixtureCandidate, error) {
	if err := f.record("season:" + teamID + "|" + season); err != nil {
		return nil, err
	}
	return f.season[teamID+"|"+season], nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
