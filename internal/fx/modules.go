package fx

import (
	"context"
	"fmt"

	"github.com/fortuna/matchday/internal/agent"
	"github.com/fortuna/matchday/internal/api/websocket"
	"github.com/fortuna/matchday/internal/cache"
	"github.com/fortuna/matchday/internal/config"
	"github.com/fortuna/matchday/internal/ingest/sportsdb"
	"github.com/fortuna/matchday/internal/ingest/websearch"
	"github.com/fortuna/matchday/internal/ingest/wiki"
	"github.com/fortuna/matchday/internal/llm"
	"github.com/fortuna/matchday/internal/logger"
	"github.com/fortuna/matchday/internal/logos"
	"github.com/fortuna/matchday/internal/metrics"
	"github.com/fortuna/matchday/internal/pipeline"
	"github.com/fortuna/matchday/internal/publisher"
	"github.com/fortuna/matchday/internal/resolver"
	"github.com/fortuna/matchday/internal/store"
	"github.com/fortuna/matchday/internal/store/repository"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// Backends are the optional stateful services. Each field is nil when unconfigured.
type Backends struct {
	DB        *store.Database
	History   *repository.ResolutionRepository
	Cache     *cache.RedisCache
	Publisher *publisher.RedisStreamPublisher
}

// ProvideDirectory builds the TheSportsDB client.
func ProvideDirectory(cfg *config.Config, log zerolog.Logger) *sportsdb.Client {
	return sportsdb.New(cfg.DirectoryURL(), cfg.RequestTimeout, sportsdb.WithLogger(log))
}

// ProvideSearch builds the web search client, with headless Chrome when enabled.
func ProvideSearch(lc fx.Lifecycle, cfg *config.Config, log zerolog.Logger) *websearch.Client {
	opts := []websearch.Option{websearch.WithLogger(log)}
	if cfg.BrowserSearch {
		browser := websearch.NewBrowserFetcher(3 * cfg.RequestTimeout)
		opts = append(opts, websearch.WithBrowser(browser))
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				browser.Close()
				return nil
			},
		})
	}
	return websearch.New(cfg.RequestTimeout, opts...)
}

// ProvideEncyclopedia builds the Wikimedia client.
func ProvideEncyclopedia(cfg *config.Config) *wiki.Client {
	return wiki.New("", "", cfg.RequestTimeout)
}

// ProvideModel returns the configured model, or nil when the AI tier is off.
func ProvideModel(cfg *config.Config) (llm.Provider, error) {
	if cfg.AIProvider == config.ProviderNone {
		return nil, nil
	}
	return llm.NewProvider(llm.Config{
		Provider: string(cfg.AIProvider),
		Model:    cfg.AIModel,
		APIKey:   cfg.AIAPIKey,
		BaseURL:  cfg.AIBaseURL,
	})
}

func ProvideNames(cfg *config.Config, dir *sportsdb.Client, log zerolog.Logger) *resolver.Names {
	return resolver.NewNames(dir, cfg.ScanLeagues, cfg.ClubSuffixes, log)
}

func ProvideFixtures(cfg *config.Config, dir *sportsdb.Client, log zerolog.Logger) *resolver.Fixtures {
	return resolver.NewFixtures(dir, cfg.HomeCandidates, log)
}

func ProvideNormalizer(cfg *config.Config) *resolver.Normalizer {
	return resolver.NewNormalizer(cfg.TargetZone(), cfg.MonthNames, cfg.NightCutoff)
}

func ProvideAgent(cfg *config.Config, search *websearch.Client, model llm.Provider, log zerolog.Logger) *agent.Agent {
	return agent.New(search, model, cfg.MonthNames, cfg.SearchResults, log)
}

func ProvideLogos(cfg *config.Config, dir *sportsdb.Client, names *resolver.Names, enc *wiki.Client, search *websearch.Client, log zerolog.Logger) *logos.Resolver {
	return logos.New(cfg, logos.Sources{
		Directory:    dir,
		Names:        names,
		Encyclopedia: enc,
		Images:       search,
	}, log)
}

// ProvideBackends connects to Postgres and Redis when they are configured.
func ProvideBackends(lc fx.Lifecycle, cfg *config.Config, log zerolog.Logger) (*Backends, error) {
	b := &Backends{}

	if cfg.DSN != "" {
		db, err := store.NewDatabase(cfg.DSN, log)
		if err != nil {
			return nil, fmt.Errorf("history database: %w", err)
		}
		if err := db.RunMigrations(context.Background()); err != nil {
			db.Close()
			return nil, fmt.Errorf("history migrations: %w", err)
		}
		b.DB = db
		b.History = repository.NewResolutionRepository(db)
	}

	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisCache(cfg.RedisURL)
		if err != nil {
			if b.DB != nil {
				b.DB.Close()
			}
			return nil, fmt.Errorf("redis: %w", err)
		}
		b.Cache = rc
		b.Publisher = publisher.NewRedisStreamPublisher(rc.Client())
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			if b.Cache != nil {
				if err := b.Cache.Close(); err != nil {
					log.Warn().Err(err).Msg("error closing redis connection")
				}
			}
			if b.DB != nil {
				if err := b.DB.Close(); err != nil {
					log.Warn().Err(err).Msg("error closing database connection")
				}
			}
			return nil
		},
	})
	return b, nil
}

// OrchestratorParams collects the pipeline's dependencies. Stream is only
// present in the server.
type OrchestratorParams struct {
	fx.In

	Config     *config.Config
	Directory  *sportsdb.Client
	Names      *resolver.Names
	Fixtures   *resolver.Fixtures
	Normalizer *resolver.Normalizer
	Agent      *agent.Agent
	Logos      *logos.Resolver
	Backends   *Backends
	Metrics    *metrics.Recorder
	Stream     *websocket.Server `optional:"true"`
	Logger     zerolog.Logger
}

func ProvideOrchestrator(p OrchestratorParams) *pipeline.Orchestrator {
	opts := []pipeline.Option{pipeline.WithMetrics(p.Metrics)}
	if p.Backends.History != nil {
		opts = append(opts, pipeline.WithHistory(p.Backends.History))
	}
	if p.Backends.Publisher != nil {
		opts = append(opts, pipeline.WithPublisher(p.Backends.Publisher))
	}
	if p.Backends.Cache != nil {
		opts = append(opts, pipeline.WithCache(p.Backends.Cache))
	}
	if p.Stream != nil {
		opts = append(opts, pipeline.OnResolved(p.Stream.BroadcastResolution))
	}

	return pipeline.New(p.Config, pipeline.Deps{
		Names:      p.Names,
		Fixtures:   p.Fixtures,
		Normalizer: p.Normalizer,
		Agent:      p.Agent,
		Logos:      p.Logos,
		Schedule:   p.Directory,
	}, p.Logger, opts...)
}

// Module wires the resolution pipeline and its backends.
var Module = fx.Options(
	fx.Provide(logger.Bootstrap),
	fx.Provide(config.Load),
	// sources
	fx.Provide(ProvideDirectory),
	fx.Provide(ProvideSearch),
	fx.Provide(ProvideEncyclopedia),
	fx.Provide(ProvideModel),
	// resolvers
	fx.Provide(ProvideNames),
	fx.Provide(ProvideFixtures),
	fx.Provide(ProvideNormalizer),
	fx.Provide(ProvideAgent),
	fx.Provide(ProvideLogos),
	// backends
	fx.Provide(ProvideBackends),
	fx.Provide(metrics.NewRecorder),
	fx.Provide(ProvideOrchestrator),
)

// ServerModule adds the live resolution feed.
var ServerModule = fx.Options(
	fx.Provide(websocket.NewServer),
)
