// Package logos resolves team crests through an ordered waterfall of image
// sources and keeps accepted crests in a local cache directory.
package logos

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/fortuna/matchday/internal/config"
	"github.com/fortuna/matchday/internal/domain"
	"github.com/fortuna/matchday/internal/matching"
	"github.com/rs/zerolog"
)

const placeholderDir = "placeholders"

// Sources are the external collaborators of the waterfall. Any of them may be nil,
// which removes the matching tier.
type Sources struct {
	Directory    BadgeDirectory
	Names        CandidateResolver
	Encyclopedia Encyclopedia
	Images       ImageSearcher
}

// Resolver runs the logo waterfall.
type Resolver struct {
	dir        string
	maxDim     int
	strategies []Strategy
	logger     zerolog.Logger
}

// Option customizes a Resolver.
type Option func(*options)

type options struct {
	httpClient *http.Client
	sleep      func(ctx context.Context, d time.Duration) error
	jitter     func(min, max time.Duration) time.Duration
}

// WithHTTPClient sets the client used to download images.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithSleep replaces the pause between image search queries.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(o *options) { o.sleep = sleep }
}

// WithJitter replaces the random pause length picker.
func WithJitter(jitter func(min, max time.Duration) time.Duration) Option {
	return func(o *options) { o.jitter = jitter }
}

// New builds the waterfall in its fixed order: directory hint, exact cache, fuzzy
// cache, directory search, encyclopedia, image search, placeholder.
func New(cfg *config.Config, src Sources, logger zerolog.Logger, opts ...Option) *Resolver {
	o := options{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		sleep:      sleepContext,
		jitter:     randomPause,
	}
	for _, opt := range opts {
		opt(&o)
	}
	logger = logger.With().Str("component", "logos").Logger()
	dl := downloader{http: o.httpClient}

	strategies := []Strategy{
		hintStrategy{dl: dl},
		exactCache{dir: cfg.LogoDir, minBytes: cfg.MinCacheBytes},
		fuzzyCache{dir: cfg.LogoDir},
	}
	if src.Directory != nil || src.Names != nil {
		strategies = append(strategies, directoryStrategy{dir: src.Directory, names: src.Names, dl: dl})
	}
	if src.Encyclopedia != nil {
		strategies = append(strategies, encyclopediaStrategy{wiki: src.Encyclopedia, dl: dl, suffixes: cfg.ClubSuffixes})
	}
	if src.Images != nil {
		strategies = append(strategies, &openSearch{
			search:     src.Images,
			dl:         dl,
			perQuery:   cfg.ImageResultsPerQuery,
			pauseMin:   cfg.ImagePauseMin,
			pauseMax:   cfg.ImagePauseMax,
			limitPause: cfg.RateLimitPause,
			sleep:      o.sleep,
			jitter:     o.jitter,
			logger:     logger,
		})
	}
	strategies = append(strategies, synthetic{size: cfg.PlaceholderSize})

	return &Resolver{
		dir:        cfg.LogoDir,
		maxDim:     cfg.LogoMaxDimension,
		strategies: strategies,
		logger:     logger,
	}
}

// Resolve returns a crest file for team. It always returns a result; the last
// tier draws a placeholder.
func (r *Resolver) Resolve(ctx context.Context, team, hint string) domain.LogoResult {
	req := Request{Team: strings.TrimSpace(team), Hint: hint, Key: CacheKey(team)}
	for _, s := range r.strategies {
		img, err := s.Attempt(ctx, req)
		if err != nil {
			r.logAttempt(s.Source(), req.Team, err)
			continue
		}

		path := r.Path(req.Key)
		if s.Source() == domain.LogoSynthetic {
			path = filepath.Join(r.dir, placeholderDir, req.Key+".png")
		} else {
			img = Process(img, r.maxDim)
		}
		if err := writePNG(path, img); err != nil {
			r.logger.Error().Err(err).Str("team", req.Team).Str("path", path).Msg("failed to store crest")
			if s.Source() == domain.LogoSynthetic {
				return domain.LogoResult{Path: path, Source: s.Source()}
			}
			continue
		}
		r.logger.Info().Str("team", req.Team).Str("source", string(s.Source())).Str("path", path).Msg("crest resolved")
		return domain.LogoResult{Path: path, Source: s.Source()}
	}
	// the placeholder tier always succeeds
	return domain.LogoResult{Path: filepath.Join(r.dir, placeholderDir, req.Key+".png"), Source: domain.LogoSynthetic}
}

// Path is where the crest for a cache key is stored.
func (r *Resolver) Path(key string) string {
	return filepath.Join(r.dir, key+".png")
}

func (r *Resolver) logAttempt(source domain.LogoSource, team string, err error) {
	ev := r.logger.Debug()
	if errors.Is(err, domain.ErrSourceUnavailable) {
		ev = r.logger.Warn()
	}
	ev.Err(err).Str("team", team).Str("tier", string(source)).Msg("tier produced no crest")
}

// CacheKey is the file stem a team's crest is cached under.
func CacheKey(team string) string {
	key := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':':
			return '_'
		}
		return r
	}, matching.Sanitize(team))
	key = strings.Trim(key, ".")
	if key == "" {
		return "team"
	}
	return key
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func randomPause(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}
