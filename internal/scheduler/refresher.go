package scheduler

import (
	"context"
	"time"

	"github.com/fortuna/matchday/internal/domain"
	"github.com/rs/zerolog"
)

// Source rebuilds the upcoming fixtures listing.
type Source interface {
	RefreshUpcoming(ctx context.Context) ([]domain.UpcomingFixture, error)
}

// Config holds scheduler configuration
type Config struct {
	Interval             time.Duration // Default: 10m
	MaxRetries           int           // Default: 3
	RetryDelay           time.Duration // Default: 5s
	MaxConsecutiveErrors int           // Default: 5
	Backoff              time.Duration // extra wait once MaxConsecutiveErrors is reached
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Interval:             10 * time.Minute,
		MaxRetries:           3,
		RetryDelay:           5 * time.Second,
		MaxConsecutiveErrors: 5,
		Backoff:              time.Minute,
	}
}

// Refresher keeps the upcoming listing warm so API reads hit the cache.
type Refresher struct {
	source Source
	config Config
	after  func(time.Duration) <-chan time.Time
	notify func([]domain.UpcomingFixture)
	logger zerolog.Logger

	consecutiveErrors int
	cancel            context.CancelFunc
	done              chan struct{}
}

// NewRefresher creates a refresher. Zero config fields take their defaults.
func NewRefresher(source Source, cfg Config, logger zerolog.Logger) *Refresher {
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = def.RetryDelay
	}
	if cfg.MaxConsecutiveErrors <= 0 {
		cfg.MaxConsecutiveErrors = def.MaxConsecutiveErrors
	}
	return &Refresher{
		source: source,
		config: cfg,
		after:  time.After,
		logger: logger.With().Str("component", "scheduler").Logger(),
	}
}

// OnRefresh registers a callback for every successful refresh.
func (r *Refresher) OnRefresh(fn func([]domain.UpcomingFixture)) {
	r.notify = fn
}

// Start runs the refresh loop in the background until Stop or ctx cancellation.
func (r *Refresher) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	go func() {
		defer close(r.done)
		r.run(ctx)
	}()
}

// Stop cancels the loop and waits for it to exit.
func (r *Refresher) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
}

func (r *Refresher) run(ctx context.Context) {
	r.logger.Info().Dur("interval", r.config.Interval).Msg("upcoming refresh started")

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	// Run immediately on start
	r.refreshWithRetry(ctx)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("upcoming refresh stopped")
			return
		case <-ticker.C:
			r.refreshWithRetry(ctx)
		}
	}
}

// refreshWithRetry reports whether the listing was rebuilt.
func (r *Refresher) refreshWithRetry(ctx context.Context) bool {
	var (
		fixtures []domain.UpcomingFixture
		err      error
	)
	for attempt := 1; attempt <= r.config.MaxRetries; attempt++ {
		fixtures, err = r.source.RefreshUpcoming(ctx)
		if err == nil {
			break
		}
		r.logger.Warn().Err(err).
			Int("attempt", attempt).
			Int("max_retries", r.config.MaxRetries).
			Msg("upcoming refresh failed")

		if attempt < r.config.MaxRetries {
			select {
			case <-ctx.Done():
				return false
			case <-r.after(r.config.RetryDelay):
			}
		}
	}

	if err != nil {
		r.consecutiveErrors++
		r.logger.Error().Err(err).
			Int("consecutive_errors", r.consecutiveErrors).
			Msg("all refresh attempts failed")

		if r.consecutiveErrors >= r.config.MaxConsecutiveErrors && r.config.Backoff > 0 {
			r.logger.Warn().Dur("backoff", r.config.Backoff).Msg("high error rate, slowing refresh")
			select {
			case <-ctx.Done():
			case <-r.after(r.config.Backoff):
			}
		}
		return false
	}

	r.consecutiveErrors = 0
	r.logger.Debug().Int("fixtures", len(fixtures)).Msg("upcoming listing refreshed")
	if r.notify != nil {
		r.notify(fixtures)
	}
	return true
}

// Status reports the scheduler settings and health.
func (r *Refresher) Status() map[string]interface{} {
	return map[string]interface{}{
		"interval":           r.config.Interval.String(),
		"max_retries":        r.config.MaxRetries,
		"consecutive_errors": r.consecutiveErrors,
	}
}
