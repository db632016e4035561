package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/fortuna/matchday/internal/domain"
	"github.com/rs/zerolog"
)

var (
	testLeagues  = []string{"Turkish Super Lig", "English Premier League"}
	testSuffixes = []string{"AFC", "FC", "SK", "FK", "AS", "Calcio", "S.K.", "F.K.", "A.S.", "J.K."}

	kocaelispor = domain.TeamEntry{ID: "1", Name: "Kocaelispor", League: "Turkish Super Lig"}
	antalyaspor = domain.TeamEntry{ID: "2", Name: "Antalyaspor", League: "Turkish Super Lig"}
	arsenal     = domain.TeamEntry{ID: "3", Name: "Arsenal", League: "English Premier League", AlternateNames: []string{"The Gunners"}}
	besiktas    = domain.TeamEntry{ID: "4", Name: "Besiktas", League: "Turkish Super Lig", AlternateNames: []string{"Beşiktaş JK"}}
)

func newTestNames(dir *fakeDirectory) *Names {
	return NewNames(dir, testLeagues, testSuffixes, zerolog.Nop())
}

func TestResolveCandidatesIncludesExactName(t *testing.T) {
	dir := &fakeDirectory{
		leagues: map[string][]domain.TeamEntry{
			"Turkish Super Lig":      {kocaelispor, antalyaspor, besiktas},
			"English Premier League": {arsenal},
		},
	}
	for _, team := range []domain.TeamEntry{kocaelispor, antalyaspor, arsenal, besiktas} {
		got, err := newTestNames(dir).ResolveCandidates(context.Background(), team.Name)
		if err != nil {
			t.Fatalf("%s: %v", team.Name, err)
		}
		found := false
		for _, e := range got {
			if e.ID == team.ID {
				found = true
			}
		}
		if !found {
			t.Errorf("%s: canonical entry missing from %+v", team.Name, got)
		}
	}
}

func TestResolveCandidatesOrderAndDedupe(t *testing.T) {
	dir := &fakeDirectory{
		search: map[string][]domain.TeamEntry{"spor": {antalyaspor}},
		leagues: map[string][]domain.TeamEntry{
			"Turkish Super Lig": {kocaelispor, antalyaspor, besiktas},
		},
	}
	got, err := newTestNames(dir).ResolveCandidates(context.Background(), "spor")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "2" || got[1].ID != "1" {
		t.Fatalf("expected direct hit first then league order without duplicates, got %+v", got)
	}
}

func TestResolveCandidatesSuffixRetry(t *testing.T) {
	dir := &fakeDirectory{
		search: map[string][]domain.TeamEntry{"Arsenal": {arsenal}},
	}
	got, err := newTestNames(dir).ResolveCandidates(context.Background(), "Arsenal FC")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "3" {
		t.Fatalf("unexpected candidates %+v", got)
	}
	if dir.callCount("search:Arsenal FC") != 1 || dir.callCount("search:Arsenal") != 2 {
		t.Errorf("expected one raw search and one stripped retry, calls=%v", dir.calls)
	}
}

func TestResolveCandidatesAlternateAndReverseContainment(t *testing.T) {
	dir := &fakeDirectory{
		leagues: map[string][]domain.TeamEntry{
			"Turkish Super Lig":      {besiktas},
			"English Premier League": {arsenal},
		},
	}
	got, err := newTestNames(dir).ResolveCandidates(context.Background(), "gunners")
	if err != nil || len(got) != 1 || got[0].ID != "3" {
		t.Fatalf("alternate name lookup failed: %+v, %v", got, err)
	}
	got, err = newTestNames(dir).ResolveCandidates(context.Background(), "Besiktas Istanbul")
	if err != nil || len(got) != 1 || got[0].ID != "4" {
		t.Fatalf("name-inside-query lookup failed: %+v, %v", got, err)
	}
}

func TestResolveCandidatesSurvivesSourceFailures(t *testing.T) {
	dir := &fakeDirectory{
		failing: map[string]bool{"search:": true, "league:English": true},
		leagues: map[string][]domain.TeamEntry{"Turkish Super Lig": {kocaelispor}},
	}
	got, err := newTestNames(dir).ResolveCandidates(context.Background(), "Kocaeli")
	if err != nil {
		t.Fatalf("expected league scan to rescue the lookup: %v", err)
	}
	if len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("unexpected candidates %+v", got)
	}
}

func TestResolveCandidatesNotFound(t *testing.T) {
	_, err := newTestNames(&fakeDirectory{}).ResolveCandidates(context.Background(), "Nowhere United")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
