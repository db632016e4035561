// Package pipeline sequences the resolvers for one requested fixture and
// merges manual overrides into the result.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fortuna/matchday/internal/config"
	"github.com/fortuna/matchday/internal/domain"
	"github.com/fortuna/matchday/internal/metrics"
	"github.com/fortuna/matchday/internal/resolver"
	"github.com/fortuna/matchday/internal/store"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// CandidateResolver turns a typed name into ranked directory entries.
type CandidateResolver interface {
	ResolveCandidates(ctx context.Context, query string) ([]domain.TeamEntry, error)
}

// FixtureFinder picks the fixture between ranked home entries and an away name.
type FixtureFinder interface {
	FindFixture(ctx context.Context, homes []domain.TeamEntry, awayQuery string) (domain.FixtureCandidate, error)
}

// DateTimeAsker is the AI fallback.
type DateTimeAsker interface {
	AskForDateTime(ctx context.Context, home, away string) (date, clock string, err error)
}

// LogoResolver runs the logo waterfall.
type LogoResolver interface {
	Resolve(ctx context.Context, team, hint string) domain.LogoResult
}

// LeagueSchedule lists the next fixtures of a league.
type LeagueSchedule interface {
	NextLeagueEvents(ctx context.Context, leagueID string) ([]domain.FixtureCandidate, error)
}

// History stores resolution outcomes.
type History interface {
	Save(ctx context.Context, res *store.Resolution) error
}

// Publisher announces resolution outcomes.
type Publisher interface {
	PublishResolution(ctx context.Context, event interface{}) error
	PublishLogo(ctx context.Context, event interface{}) error
}

// Cache keeps short-lived JSON values.
type Cache interface {
	Key(parts ...string) string
	GetJSON(ctx context.Context, key string, dst interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Deps are the resolvers the orchestrator sequences. Agent, Logos and
// Schedule may be nil.
type Deps struct {
	Names      CandidateResolver
	Fixtures   FixtureFinder
	Normalizer *resolver.Normalizer
	Agent      DateTimeAsker
	Logos      LogoResolver
	Schedule   LeagueSchedule
}

// Orchestrator is the external entry point of the resolution pipeline.
type Orchestrator struct {
	deps      Deps
	leagues   []string
	perLeague int
	batchSize int

	history   History
	publisher Publisher
	cache     Cache
	metrics   *metrics.Recorder
	listeners []func(store.Resolution)
	now       func() time.Time
	logger    zerolog.Logger
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithHistory stores every resolution.
func WithHistory(h History) Option {
	return func(o *Orchestrator) { o.history = h }
}

// WithPublisher publishes every resolution.
func WithPublisher(p Publisher) Option {
	return func(o *Orchestrator) { o.publisher = p }
}

// WithCache caches the upcoming fixtures listing.
func WithCache(c Cache) Option {
	return func(o *Orchestrator) { o.cache = c }
}

// WithMetrics counts resolutions by source.
func WithMetrics(m *metrics.Recorder) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// OnResolved registers a callback run after each fixture resolution.
func OnResolved(fn func(store.Resolution)) Option {
	return func(o *Orchestrator) { o.listeners = append(o.listeners, fn) }
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New creates an orchestrator.
func New(cfg *config.Config, deps Deps, logger zerolog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		deps:      deps,
		leagues:   cfg.UpcomingLeagues,
		perLeague: cfg.UpcomingPerLeague,
		batchSize: 4,
		now:       time.Now,
		logger:    logger.With().Str("component", "pipeline").Logger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Resolve runs the tiers for one fixture. It never fails: when every tier comes
// up empty the caller's names are returned verbatim with source none.
func (o *Orchestrator) Resolve(ctx context.Context, req domain.MatchRequest) domain.ResolvedFixture {
	start := o.now()
	req.Home, req.Away = strings.TrimSpace(req.Home), strings.TrimSpace(req.Away)

	out := o.resolve(ctx, req)

	o.metrics.ObserveFixture(out.Source, o.now().Sub(start))
	o.record(ctx, req, out)
	return out
}

func (o *Orchestrator) resolve(ctx context.Context, req domain.MatchRequest) domain.ResolvedFixture {
	log := o.logger.With().Str("home", req.Home).Str("away", req.Away).Logger()

	out := domain.ResolvedFixture{HomeName: req.Home, AwayName: req.Away, Source: domain.SourceNone}
	fixture, found := o.fromDirectory(ctx, req, log)
	if found {
		out = fixture
	}

	if manual, ok := ParseManual(req.Manual); ok {
		if manual.Date != "" {
			out.Date = manual.Date
		}
		if out.Date == "" {
			out.Date = o.deps.Normalizer.Today(o.now())
		}
		switch {
		case manual.Time != "":
			out.Time = manual.Time
		case out.Time == "":
			out.Time = o.askTime(ctx, out, log)
		}
		out.Source = domain.SourceManual
		log.Info().Str("date", out.Date).Str("time", out.Time).Msg("manual override applied")
		return out
	}

	if found && out.Complete() {
		return out
	}

	if o.deps.Agent == nil {
		return out
	}
	date, clock, err := o.deps.Agent.AskForDateTime(ctx, out.HomeName, out.AwayName)
	if err != nil {
		logTier(log, err, "ai fallback found nothing")
		return out
	}
	if out.Date == "" {
		out.Date = date
	}
	if out.Time == "" {
		out.Time = clock
	}
	out.Source = domain.SourceAI
	return out
}

// fromDirectory resolves the home name, finds the fixture and normalizes it.
func (o *Orchestrator) fromDirectory(ctx context.Context, req domain.MatchRequest, log zerolog.Logger) (domain.ResolvedFixture, bool) {
	homes, err := o.deps.Names.ResolveCandidates(ctx, req.Home)
	if err != nil {
		logTier(log, err, "home team not in directory")
		return domain.ResolvedFixture{}, false
	}
	candidate, err := o.deps.Fixtures.FindFixture(ctx, homes, req.Away)
	if err != nil {
		logTier(log, err, "fixture not in directory")
		return domain.ResolvedFixture{}, false
	}
	return o.deps.Normalizer.Normalize(candidate, req.Home, req.NightRollback), true
}

// askTime fills a missing kickoff time from the AI tier.
func (o *Orchestrator) askTime(ctx context.Context, out domain.ResolvedFixture, log zerolog.Logger) string {
	if o.deps.Agent == nil {
		return ""
	}
	_, clock, err := o.deps.Agent.AskForDateTime(ctx, out.HomeName, out.AwayName)
	if err != nil {
		logTier(log, err, "ai fallback found no time")
		return ""
	}
	return clock
}

func logTier(log zerolog.Logger, err error, msg string) {
	ev := log.Info()
	if errors.Is(err, domain.ErrSourceUnavailable) {
		ev = log.Warn()
	}
	ev.Err(err).Msg(msg)
}

// ResolveBatch resolves several fixtures concurrently. Results keep the order of reqs.
func (o *Orchestrator) ResolveBatch(ctx context.Context, reqs []domain.MatchRequest) []domain.ResolvedFixture {
	out := make([]domain.ResolvedFixture, len(reqs))
	var g errgroup.Group
	g.SetLimit(o.batchSize)
	for i, req := range reqs {
		g.Go(func() error {
			out[i] = o.Resolve(ctx, req)
			return nil
		})
	}
	g.Wait()
	return out
}

// ResolveLogo runs the logo waterfall for team.
func (o *Orchestrator) ResolveLogo(ctx context.Context, team, hint string) domain.LogoResult {
	start := o.now()
	res := o.deps.Logos.Resolve(ctx, team, hint)
	o.metrics.ObserveLogo(res.Source, o.now().Sub(start))
	if o.publisher != nil {
		event := struct {
			Team string `json:"team"`
			domain.LogoResult
		}{Team: team, LogoResult: res}
		if err := o.publisher.PublishLogo(ctx, event); err != nil {
			o.logger.Warn().Err(err).Str("team", team).Msg("failed to publish logo")
		}
	}
	return res
}

// ResolveWithLogos resolves a fixture and then both crests, using the
// directory badges as hints.
func (o *Orchestrator) ResolveWithLogos(ctx context.Context, req domain.MatchRequest) (domain.ResolvedFixture, [2]domain.LogoResult) {
	fixture := o.Resolve(ctx, req)
	var logos [2]domain.LogoResult
	var g errgroup.Group
	g.Go(func() error {
		logos[0] = o.ResolveLogo(ctx, fixture.HomeName, fixture.HomeBadgeURL)
		return nil
	})
	g.Go(func() error {
		logos[1] = o.ResolveLogo(ctx, fixture.AwayName, fixture.AwayBadgeURL)
		return nil
	})
	g.Wait()
	return fixture, logos
}

func (o *Orchestrator) record(ctx context.Context, req domain.MatchRequest, out domain.ResolvedFixture) {
	if o.history == nil && o.publisher == nil && len(o.listeners) == 0 {
		return
	}
	res := store.Resolution{
		RequestedHome: req.Home,
		RequestedAway: req.Away,
		HomeName:      out.HomeName,
		AwayName:      out.AwayName,
		Date:          out.Date,
		Time:          out.Time,
		HomeBadgeURL:  out.HomeBadgeURL,
		AwayBadgeURL:  out.AwayBadgeURL,
		Source:        string(out.Source),
		NightRollback: req.NightRollback,
		ResolvedAt:    o.now().UTC(),
	}
	if o.history != nil {
		if err := o.history.Save(ctx, &res); err != nil {
			o.logger.Warn().Err(err).Msg("failed to store resolution")
		}
	}
	if o.publisher != nil {
		if err := o.publisher.PublishResolution(ctx, res); err != nil {
			o.logger.Warn().Err(err).Msg("failed to publish resolution")
		}
	}
	for _, fn := range o.listeners {
		fn(res)
	}
}
