// Package agent recovers a fixture's date and time from web search snippets,
// asking a generative model first and falling back to pattern matching.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fortuna/matchday/internal/domain"
	"github.com/fortuna/matchday/internal/ingest/websearch"
	"github.com/fortuna/matchday/internal/llm"
	"github.com/rs/zerolog"
)

// Searcher runs a text search.
type Searcher interface {
	Text(ctx context.Context, query string, max int) ([]websearch.Result, error)
}

const systemPrompt = `You are a sports fixtures assistant. From the search results you are given,
find the DATE and KICKOFF TIME of the requested match, expressed in Turkey time (UTC+3).

Reply with a JSON object only:
{"date": "<day> <MONTH>", "time": "HH:MM"}

Rules:
- date is the day number followed by the month name in upper case, using exactly one of: %s
- time is 24-hour HH:MM in Turkey time; add 3 hours to times given in UTC/GMT.
- If the results do not state the date or the time, leave that field empty.`

// Agent is the AI fallback resolver.
type Agent struct {
	search     Searcher
	model      llm.Provider
	extractor  *Extractor
	maxResults int
	now        func() time.Time
	logger     zerolog.Logger
}

// Option customizes an Agent.
type Option func(*Agent)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(a *Agent) { a.now = now }
}

// New creates an agent. model may be nil, in which case only the heuristic runs.
func New(search Searcher, model llm.Provider, months []string, maxResults int, logger zerolog.Logger, opts ...Option) *Agent {
	if maxResults <= 0 {
		maxResults = 5
	}
	a := &Agent{
		search:     search,
		model:      model,
		extractor:  NewExtractor(months),
		maxResults: maxResults,
		now:        time.Now,
		logger:     logger.With().Str("component", "agent").Logger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AskForDateTime searches the web for the fixture and extracts its date and time.
// It returns ErrNotFound when no query yields results or nothing can be extracted.
func (a *Agent) AskForDateTime(ctx context.Context, home, away string) (date, clock string, err error) {
	results := a.gather(ctx, home, away)
	if len(results) == 0 {
		return "", "", fmt.Errorf("search %s vs %s: %w", home, away, domain.ErrNotFound)
	}

	if a.model != nil {
		date, clock, err = a.askModel(ctx, home, away, results)
		if err != nil {
			a.logger.Warn().Err(err).Str("provider", a.model.Name()).Msg("model extraction failed, using heuristic")
		}
	}

	if date == "" || clock == "" {
		hDate, hClock := a.extractor.HeuristicParse(results)
		if date == "" && clock == "" {
			date, clock = hDate, hClock
		} else if date == "" {
			date = hDate
		} else if clock == "" {
			clock = hClock
		}
	}

	if date == "" && clock == "" {
		return "", "", fmt.Errorf("extract %s vs %s: %w", home, away, domain.ErrNotFound)
	}
	a.logger.Info().Str("home", home).Str("away", away).Str("date", date).Str("time", clock).Msg("fixture recovered from search")
	return date, clock, nil
}

// gather tries the English, Turkish and minimal queries in turn.
func (a *Agent) gather(ctx context.Context, home, away string) []websearch.Result {
	year := a.now().Year()
	queries := []string{
		fmt.Sprintf("%s vs %s fixture date time %d", home, away, year),
		fmt.Sprintf("%s %s maç tarihi saati %d", home, away, year),
		fmt.Sprintf("%s %s match", home, away),
	}
	for _, q := range queries {
		results, err := a.search.Text(ctx, q, a.maxResults)
		if err != nil {
			a.logger.Warn().Err(err).Str("query", q).Msg("text search failed")
			continue
		}
		if len(results) > 0 {
			if len(results) > a.maxResults {
				results = results[:a.maxResults]
			}
			return results
		}
	}
	return nil
}

type modelAnswer struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

func (a *Agent) askModel(ctx context.Context, home, away string, results []websearch.Result) (string, string, error) {
	prompt := fmt.Sprintf("Match: %s vs %s\n\nSearch results:\n%s", home, away, websearch.Snippets(results))
	system := fmt.Sprintf(systemPrompt, strings.Join(a.extractor.months, ", "))

	text, err := a.model.Complete(ctx, prompt, llm.CompletionOpts{
		Temperature: 0,
		JSON:        true,
		System:      system,
	})
	if err != nil {
		return "", "", err
	}

	var ans modelAnswer
	if err := json.Unmarshal([]byte(llm.StripFences(text)), &ans); err != nil {
		return "", "", fmt.Errorf("malformed model output %q: %w", text, err)
	}

	date := strings.TrimSpace(ans.Date)
	if date != "" {
		date = a.extractor.CanonicalDate(date)
	}
	clock := a.extractor.FindTime(ans.Time)
	if date == "" && clock == "" {
		return "", "", fmt.Errorf("model returned no date or time")
	}
	return date, clock, nil
}
