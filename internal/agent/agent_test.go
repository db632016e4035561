package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fortuna/matchday/internal/domain"
	"github.com/fortuna/matchday/internal/ingest/websearch"
	"github.com/fortuna/matchday/internal/llm"
	"github.com/rs/zerolog"
)

var trMonths = []string{"OCAK", "ŞUBAT", "MART", "NİSAN", "MAYIS", "HAZİRAN", "TEMMUZ", "AĞUSTOS", "EYLÜL", "EKİM", "KASIM", "ARALIK"}

type fakeSearch struct {
	byQuery map[string][]websearch.Result
	err     error
	queries []string
}

func (f *fakeSearch) Text(ctx context.Context, query string, max int) ([]websearch.Result, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.byQuery[query], nil
}

type fakeModel struct {
	reply  string
	err    error
	prompt string
	opts   llm.CompletionOpts
}

func (m *fakeModel) Complete(ctx context.Context, prompt string, opts llm.CompletionOpts) (string, error) {
	m.prompt, m.opts = prompt, opts
	return m.reply, m.err
}

func (m *fakeModel) Name() string { return "fake/model" }

var fixedNow = func() time.Time { return time.Date(2026, 3, 18, 12, 0, 0, 0, time.UTC) }

func newTestAgent(s Searcher, m llm.Provider) *Agent {
	return New(s, m, trMonths, 5, zerolog.Nop(), WithClock(fixedNow))
}

var snippet = []websearch.Result{{Title: "Kocaelispor - Antalyaspor", Body: "Match set for 20 MART at 20:00"}}

func TestAskForDateTimeHeuristicOnly(t *testing.T) {
	s := &fakeSearch{byQuery: map[string][]websearch.Result{
		"Kocaelispor vs Antalyaspor fixture date time 2026": snippet,
	}}
	date, clock, err := newTestAgent(s, nil).AskForDateTime(context.Background(), "Kocaelispor", "Antalyaspor")
	if err != nil {
		t.Fatal(err)
	}
	if date != "20 MART" || clock != "20:00" {
		t.Fatalf("got %q %q", date, clock)
	}
}

func TestAskForDateTimeQueryFallbacks(t *testing.T) {
	s := &fakeSearch{byQuery: map[string][]websearch.Result{
		"Kocaelispor Antalyaspor match": snippet,
	}}
	_, _, err := newTestAgent(s, nil).AskForDateTime(context.Background(), "Kocaelispor", "Antalyaspor")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"Kocaelispor vs Antalyaspor fixture date time 2026",
		"Kocaelispor Antalyaspor maç tarihi saati 2026",
		"Kocaelispor Antalyaspor match",
	}
	if len(s.queries) != len(want) {
		t.Fatalf("queries = %v", s.queries)
	}
	for i := range want {
		if s.queries[i] != want[i] {
			t.Errorf("query %d = %q, want %q", i, s.queries[i], want[i])
		}
	}
}

func TestAskForDateTimeNoResults(t *testing.T) {
	s := &fakeSearch{err: errors.New("offline")}
	_, _, err := newTestAgent(s, &fakeModel{}).AskForDateTime(context.Background(), "A", "B")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAskForDateTimeUsesModel(t *testing.T) {
	s := &fakeSearch{byQuery: map[string][]websearch.Result{
		"Kocaelispor vs Antalyaspor fixture date time 2026": {{Title: "Preview", Body: "kickoff 17:00 GMT on 21 March"}},
	}}
	m := &fakeModel{reply: "```json\n{\"date\": \"21 Mart\", \"time\": \"20:00\"}\n```"}
	date, clock, err := newTestAgent(s, m).AskForDateTime(context.Background(), "Kocaelispor", "Antalyaspor")
	if err != nil {
		t.Fatal(err)
	}
	if date != "21 MART" || clock != "20:00" {
		t.Fatalf("got %q %q", date, clock)
	}
	if !m.opts.JSON || m.opts.Temperature != 0 {
		t.Errorf("expected deterministic JSON request, got %+v", m.opts)
	}
	if m.prompt == "" || m.opts.System == "" {
		t.Errorf("prompt and system prompt must be set")
	}
}

func TestAskForDateTimeModelFailuresFallBack(t *testing.T) {
	tests := []struct {
		name  string
		model *fakeModel
	}{
		{"call error", &fakeModel{err: errors.New("quota exceeded")}},
		{"not json", &fakeModel{reply: "The match is on 20 March at 20:00."}},
		{"empty fields", &fakeModel{reply: `{"date":"","time":""}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &fakeSearch{byQuery: map[string][]websearch.Result{
				"Kocaelispor vs Antalyaspor fixture date time 2026": snippet,
			}}
			date, clock, err := newTestAgent(s, tt.model).AskForDateTime(context.Background(), "Kocaelispor", "Antalyaspor")
			if err != nil {
				t.Fatal(err)
			}
			if date != "20 MART" || clock != "20:00" {
				t.Fatalf("got %q %q", date, clock)
			}
		})
	}
}

func TestAskForDateTimePartialModelAnswer(t *testing.T) {
	s := &fakeSearch{byQuery: map[string][]websearch.Result{
		"Kocaelispor vs Antalyaspor fixture date time 2026": {{Title: "t", Body: "Kickoff 19:30, 4 April"}},
	}}
	m := &fakeModel{reply: `{"date":"5 NİSAN","time":""}`}
	date, clock, err := newTestAgent(s, m).AskForDateTime(context.Background(), "Kocaelispor", "Antalyaspor")
	if err != nil {
		t.Fatal(err)
	}
	if date != "5 NİSAN" || clock != "19:30" {
		t.Fatalf("model date should be kept and time filled from snippets, got %q %q", date, clock)
	}
}

func TestAskForDateTimeNothingExtractable(t *testing.T) {
	s := &fakeSearch{byQuery: map[string][]websearch.Result{
		"A vs B fixture date time 2026": {{Title: "no data", Body: "nothing useful"}},
	}}
	_, _, err := newTestAgent(s, nil).AskForDateTime(context.Background(), "A", "B")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
