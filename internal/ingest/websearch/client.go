package websearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/fortuna/matchday/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	// HTMLURL is DuckDuckGo's script-free results page.
	HTMLURL = "https://html.duckduckgo.com/html/"
	// TokenURL issues the vqd token the image endpoint requires.
	TokenURL = "https://duckduckgo.com/"
	// ImageURL is the JSON image search endpoint.
	ImageURL = "https://duckduckgo.com/i.js"

	// UserAgent for requests
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

	// MinRequestInterval to prevent rate limiting
	MinRequestInterval = time.Second

	sourceName = "duckduckgo"
)

// ErrRateLimited marks a 403/429 answer. It also matches domain.ErrSourceUnavailable.
var ErrRateLimited = errors.New("rate limited")

// Result is one text search hit.
type Result struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
}

// ImageResult is one image search hit.
type ImageResult struct {
	Title     string `json:"title"`
	Image     string `json:"image"`
	Thumbnail string `json:"thumbnail"`
	Source    string `json:"source"`
}

// PageFetcher returns the rendered HTML of a page.
type PageFetcher interface {
	FetchHTML(ctx context.Context, pageURL string) (string, error)
}

// Client searches DuckDuckGo for text snippets and images.
type Client struct {
	htmlURL  string
	tokenURL string
	imageURL string

	http    *http.Client
	limiter *rate.Limiter
	browser PageFetcher
	logger  zerolog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithEndpoints points the client at alternate endpoints, mainly for tests.
func WithEndpoints(htmlURL, tokenURL, imageURL string) Option {
	return func(c *Client) {
		c.htmlURL, c.tokenURL, c.imageURL = htmlURL, tokenURL, imageURL
	}
}

// WithHTTPClient replaces the transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLimiter replaces the outbound rate limiter.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithBrowser enables the rendered-page fallback for text search.
func WithBrowser(b PageFetcher) Option {
	return func(c *Client) { c.browser = b }
}

// WithLogger attaches a logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l.With().Str("component", "websearch").Logger() }
}

// New creates a search client.
func New(timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		htmlURL:  HTMLURL,
		tokenURL: TokenURL,
		imageURL: ImageURL,
		http:     &http.Client{Timeout: timeout},
		limiter:  rate.NewLimiter(rate.Every(MinRequestInterval), 2),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Text returns up to max results for query. The plain HTML page is tried first;
// when it fails or comes back empty and a browser is configured, the page is rendered.
func (c *Client) Text(ctx context.Context, query string, max int) ([]Result, error) {
	pageURL := c.htmlURL + "?" + url.Values{"q": {query}}.Encode()

	results, err := c.textHTTP(ctx, pageURL, max)
	if err == nil && len(results) > 0 {
		return results, nil
	}
	if c.browser == nil {
		return results, err
	}

	c.logger.Debug().Err(err).Str("query", query).Msg("plain search failed, rendering page")
	html, berr := c.browser.FetchHTML(ctx, pageURL)
	if berr != nil {
		if err != nil {
			return nil, err
		}
		return nil, domain.Unavailable(sourceName, berr)
	}
	doc, perr := ParseHTML(html)
	if perr != nil {
		return nil, domain.Unavailable(sourceName, perr)
	}
	return ParseResults(doc, max), nil
}

func (c *Client) textHTTP(ctx context.Context, pageURL string, max int) ([]Result, error) {
	body, err := c.get(ctx, pageURL, "text/html", "")
	if err != nil {
		return nil, err
	}
	doc, err := ParseHTML(string(body))
	if err != nil {
		return nil, domain.Unavailable(sourceName, err)
	}
	return ParseResults(doc, max), nil
}

// Images returns up to max image hits for query.
func (c *Client) Images(ctx context.Context, query string, max int) ([]ImageResult, error) {
	vqd, err := c.token(ctx, query)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("o", "json")
	params.Set("vqd", vqd)
	params.Set("f", ",,,,,")
	params.Set("p", "1")

	body, err := c.get(ctx, c.imageURL+"?"+params.Encode(), "application/json", "https://duckduckgo.com/")
	if err != nil {
		return nil, err
	}

	var data struct {
		Results []ImageResult `json:"results"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, domain.Unavailable(sourceName, fmt.Errorf("decoding images: %w", err))
	}

	if max <= 0 {
		max = len(data.Results)
	}
	out := make([]ImageResult, 0, max)
	for _, r := range data.Results {
		if r.Image == "" {
			continue
		}
		out = append(out, r)
		if len(out) >= max {
			break
		}
	}
	return out, nil
}

var vqdPattern = regexp.MustCompile(`vqd=["']?([\d-]+)["']?`)

// token extracts the vqd token embedded in the landing page for query.
func (c *Client) token(ctx context.Context, query string) (string, error) {
	body, err := c.get(ctx, c.tokenURL+"?"+url.Values{"q": {query}}.Encode(), "text/html", "")
	if err != nil {
		return "", err
	}
	m := vqdPattern.FindSubmatch(body)
	if m == nil {
		return "", domain.Unavailable(sourceName, fmt.Errorf("vqd token not found"))
	}
	return string(m[1]), nil
}

func (c *Client) get(ctx context.Context, reqURL, accept, referer string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, domain.Unavailable(sourceName, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", accept)
	if referer != "" {
		req.Header.Set("Referer", referer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, domain.Unavailable(sourceName, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		return nil, domain.Unavailable(sourceName, fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, domain.Unavailable(sourceName, fmt.Errorf("status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, domain.Unavailable(sourceName, fmt.Errorf("reading body: %w", err))
	}
	return body, nil
}

// Snippets renders results as the "- title: body" context block fed to a model.
func Snippets(results []Result) string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		lines = append(lines, fmt.Sprintf("- %s: %s", r.Title, r.Body))
	}
	return strings.Join(lines, "\n")
}
