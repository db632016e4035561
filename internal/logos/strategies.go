package logos

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fortuna/matchday/internal/domain"
	"github.com/fortuna/matchday/internal/ingest/websearch"
	"github.com/fortuna/matchday/internal/matching"
	"github.com/rs/zerolog"
)

// Strategy is one tier of the logo waterfall.
type Strategy interface {
	Source() domain.LogoSource
	Attempt(ctx context.Context, req Request) (image.Image, error)
}

// Request describes the crest being looked up.
type Request struct {
	Team string
	Hint string
	Key  string
}

// BadgeDirectory searches the sports directory by team name.
type BadgeDirectory interface {
	SearchTeams(ctx context.Context, name string) ([]domain.TeamEntry, error)
}

// CandidateResolver is the fuzzy name resolver.
type CandidateResolver interface {
	ResolveCandidates(ctx context.Context, query string) ([]domain.TeamEntry, error)
}

// Encyclopedia looks up crest URLs on Commons and Wikipedia.
type Encyclopedia interface {
	CommonsLogoURL(ctx context.Context, team string) (string, error)
	PageLogoURL(ctx context.Context, team string) (string, error)
}

// ImageSearcher is a general image search backend.
type ImageSearcher interface {
	Images(ctx context.Context, query string, max int) ([]websearch.ImageResult, error)
}

type hintStrategy struct {
	dl downloader
}

func (hintStrategy) Source() domain.LogoSource { return domain.LogoDirectory }

func (s hintStrategy) Attempt(ctx context.Context, req Request) (image.Image, error) {
	if req.Hint == "" {
		return nil, domain.ErrNotFound
	}
	return s.dl.image(ctx, "hint", req.Hint)
}

type exactCache struct {
	dir      string
	minBytes int64
}

func (exactCache) Source() domain.LogoSource { return domain.LogoCacheExact }

func (s exactCache) Attempt(ctx context.Context, req Request) (image.Image, error) {
	for _, name := range exactNames(req.Team, req.Key) {
		path := filepath.Join(s.dir, name)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() || info.Size() <= s.minBytes {
			continue
		}
		img, err := decodeFile(path)
		if err != nil {
			continue
		}
		return img, nil
	}
	return nil, domain.ErrNotFound
}

// exactNames lists the file names a crest may have been cached under.
func exactNames(team, key string) []string {
	stems := []string{key, strings.TrimSpace(team), strings.ReplaceAll(strings.TrimSpace(team), " ", "_")}
	seen := make(map[string]bool)
	var names []string
	for _, ext := range []string{".png", ".webp"} {
		for _, stem := range stems {
			if stem == "" || stem != filepath.Base(stem) || strings.ContainsAny(stem, `/\`) {
				continue
			}
			name := stem + ext
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

type fuzzyCache struct {
	dir string
}

func (fuzzyCache) Source() domain.LogoSource { return domain.LogoCacheFuzzy }

func (s fuzzyCache) Attempt(ctx context.Context, req Request) (image.Image, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		stem, ok := cachedStem(e.Name())
		if !ok || !matching.CompactMatch(req.Team, stem) {
			continue
		}
		img, err := decodeFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			continue
		}
		return img, nil
	}
	return nil, domain.ErrNotFound
}

// cachedStem strips the image extension, including a leftover ".svg" from
// files saved as "crest.svg.png".
func cachedStem(name string) (string, bool) {
	lower := strings.ToLower(name)
	var stem string
	switch {
	case strings.HasSuffix(lower, ".png"):
		stem = name[:len(name)-len(".png")]
	case strings.HasSuffix(lower, ".webp"):
		stem = name[:len(name)-len(".webp")]
	default:
		return "", false
	}
	if strings.HasSuffix(strings.ToLower(stem), ".svg") {
		stem = stem[:len(stem)-len(".svg")]
	}
	return stem, stem != "" && !strings.HasPrefix(stem, ".")
}

type directoryStrategy struct {
	dir   BadgeDirectory
	names CandidateResolver
	dl    downloader
}

func (directoryStrategy) Source() domain.LogoSource { return domain.LogoDirectory }

func (s directoryStrategy) Attempt(ctx context.Context, req Request) (image.Image, error) {
	var errs []error
	if s.dir != nil {
		teams, err := s.dir.SearchTeams(ctx, req.Team)
		if err != nil {
			errs = append(errs, err)
		}
		if url := firstBadge(teams); url != "" {
			img, err := s.dl.image(ctx, "sportsdb", url)
			if err == nil {
				return img, nil
			}
			errs = append(errs, err)
		}
	}
	if s.names != nil {
		teams, err := s.names.ResolveCandidates(ctx, req.Team)
		if err != nil {
			errs = append(errs, err)
		}
		if len(teams) > 0 && teams[0].BadgeURL != "" {
			img, err := s.dl.image(ctx, "sportsdb", teams[0].BadgeURL)
			if err == nil {
				return img, nil
			}
			errs = append(errs, err)
		}
	}
	return nil, notFound(errs)
}

func firstBadge(teams []domain.TeamEntry) string {
	for _, t := range teams {
		if t.BadgeURL != "" {
			return t.BadgeURL
		}
	}
	return ""
}

type encyclopediaStrategy struct {
	wiki     Encyclopedia
	dl       downloader
	suffixes []string
}

func (encyclopediaStrategy) Source() domain.LogoSource { return domain.LogoEncyclopedia }

func (s encyclopediaStrategy) Attempt(ctx context.Context, req Request) (image.Image, error) {
	var errs []error
	try := func(url string, err error, source string) image.Image {
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		img, err := s.dl.image(ctx, source, url)
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		return img
	}
	for _, v := range nameVariations(req.Team, s.suffixes) {
		url, err := s.wiki.CommonsLogoURL(ctx, v)
		if img := try(url, err, "wikimedia"); img != nil {
			return img, nil
		}
	}
	url, err := s.wiki.PageLogoURL(ctx, req.Team)
	if img := try(url, err, "wikipedia"); img != nil {
		return img, nil
	}
	return nil, notFound(errs)
}

// nameVariations returns the team name, the name with " FC" appended and the
// name without a trailing club suffix.
func nameVariations(team string, suffixes []string) []string {
	team = strings.TrimSpace(team)
	out := []string{team, team + " FC"}
	if bare, ok := matching.StripSuffixes(team, suffixes); ok && bare != team {
		out = append(out, bare)
	}
	return out
}

type openSearch struct {
	search     ImageSearcher
	dl         downloader
	perQuery   int
	pauseMin   time.Duration
	pauseMax   time.Duration
	limitPause time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
	jitter     func(min, max time.Duration) time.Duration
	logger     zerolog.Logger
}

func (*openSearch) Source() domain.LogoSource { return domain.LogoOpenSearch }

func searchQueries(team string) []string {
	return []string{
		team + " logo png transparent",
		team + " football club logo",
		team + " crest png",
		team + " logo",
		team + " arması",
	}
}

func (s *openSearch) Attempt(ctx context.Context, req Request) (image.Image, error) {
	queries := searchQueries(req.Team)
	for i, q := range queries {
		results, err := s.search.Images(ctx, q, s.perQuery)
		if errors.Is(err, websearch.ErrRateLimited) {
			s.logger.Warn().Str("query", q).Dur("pause", s.limitPause).Msg("image search rate limited")
			if err := s.sleep(ctx, s.limitPause); err != nil {
				return nil, err
			}
			continue
		}
		if err != nil {
			s.logger.Warn().Err(err).Str("query", q).Msg("image search failed")
			continue
		}
		for _, r := range results {
			if r.Image == "" {
				continue
			}
			img, err := s.dl.image(ctx, "image_search", r.Image)
			if err != nil {
				s.logger.Debug().Err(err).Str("url", r.Image).Msg("candidate rejected")
				continue
			}
			s.logger.Info().Str("team", req.Team).Str("url", r.Image).Msg("crest found by image search")
			return img, nil
		}
		if i < len(queries)-1 {
			if err := s.sleep(ctx, s.jitter(s.pauseMin, s.pauseMax)); err != nil {
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("image search for %q: %w", req.Team, domain.ErrNotFound)
}

type synthetic struct {
	size int
}

func (synthetic) Source() domain.LogoSource { return domain.LogoSynthetic }

func (s synthetic) Attempt(ctx context.Context, req Request) (image.Image, error) {
	return Placeholder(req.Team, s.size), nil
}

// notFound folds tier errors into one that still matches ErrNotFound.
func notFound(errs []error) error {
	if len(errs) == 0 {
		return domain.ErrNotFound
	}
	return fmt.Errorf("%w: %w", domain.ErrNotFound, errors.Join(errs...))
}
