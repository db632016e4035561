package sportsdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/fortuna/matchday/internal/domain"
	"github.com/rs/zerolog"
)

const (
	// BaseURL is the public v1 endpoint including the free test key.
	BaseURL = "https://www.thesportsdb.com/api/v1/json/478143"

	sourceName = "sportsdb"
	userAgent  = "matchday/1.0"
)

// Client issues lookups against TheSportsDB and normalizes the results.
type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger attaches a logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l.With().Str("component", sourceName).Logger() }
}

// New creates a directory client rooted at baseURL (which must include the key segment).
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = BaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchTeams runs the directory's substring team search.
func (c *Client) SearchTeams(ctx context.Context, name string) ([]domain.TeamEntry, error) {
	data, err := c.fetch(ctx, "searchteams.php", url.Values{"t": {name}})
	if err != nil {
		return nil, err
	}
	return ParseTeams(data), nil
}

// LeagueTeams lists the roster of a league by its display name.
func (c *Client) LeagueTeams(ctx context.Context, league string) ([]domain.TeamEntry, error) {
	data, err := c.fetch(ctx, "search_all_teams.php", url.Values{"l": {league}})
	if err != nil {
		return nil, err
	}
	return ParseTeams(data), nil
}

// LookupTeam fetches a single team by id. Returns ErrNotFound when the id is unknown.
func (c *Client) LookupTeam(ctx context.Context, teamID string) (domain.TeamEntry, error) {
	data, err := c.fetch(ctx, "lookupteam.php", url.Values{"id": {teamID}})
	if err != nil {
		return domain.TeamEntry{}, err
	}
	teams := ParseTeams(data)
	if len(teams) == 0 {
		return domain.TeamEntry{}, fmt.Errorf("team %s: %w", teamID, domain.ErrNotFound)
	}
	return teams[0], nil
}

// NextEvents lists a team's upcoming fixtures.
func (c *Client) NextEvents(ctx context.Context, teamID string) ([]domain.FixtureCandidate, error) {
	data, err := c.fetch(ctx, "eventsnext.php", url.Values{"id": {teamID}})
	if err != nil {
		return nil, err
	}
	return ParseEvents(data), nil
}

// SeasonEvents lists every fixture of a team in season ("2025-2026" or "2026").
func (c *Client) SeasonEvents(ctx context.Context, teamID, season string) ([]domain.FixtureCandidate, error) {
	data, err := c.fetch(ctx, "eventsseason.php", url.Values{"id": {teamID}, "s": {season}})
	if err != nil {
		return nil, err
	}
	return ParseEvents(data), nil
}

// NextLeagueEvents lists the upcoming fixtures of a league by id.
func (c *Client) NextLeagueEvents(ctx context.Context, leagueID string) ([]domain.FixtureCandidate, error) {
	data, err := c.fetch(ctx, "eventsnextleague.php", url.Values{"id": {leagueID}})
	if err != nil {
		return nil, err
	}
	return ParseEvents(data), nil
}

// fetch makes a GET request and decodes the JSON body into an untyped map.
func (c *Client) fetch(ctx context.Context, endpoint string, params url.Values) (map[string]interface{}, error) {
	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("url", reqURL).Msg("directory request")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, domain.Unavailable(sourceName, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.Unavailable(sourceName, fmt.Errorf("reading body: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, domain.Unavailable(sourceName, fmt.Errorf("status %d: %s", resp.StatusCode, snippet(body)))
	}

	// Rate-limited or broken responses come back as an HTML page.
	if len(body) > 0 && body[0] == '<' {
		return nil, domain.Unavailable(sourceName, fmt.Errorf("HTML error page: %s", snippet(body)))
	}

	// An empty body is how the free tier answers some unknown ids.
	if len(body) == 0 {
		return map[string]interface{}{}, nil
	}

	var result map[string]interface{}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, domain.Unavailable(sourceName, fmt.Errorf("decoding response: %w (body: %s)", err, snippet(body)))
	}
	return result, nil
}

func snippet(b []byte) string {
	return string(b[:min(len(b), 200)])
}
