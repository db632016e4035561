// Package wiki looks up team crests on Wikimedia Commons and Wikipedia.
package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/fortuna/matchday/internal/domain"
)

const (
	CommonsAPI   = "https://commons.wikimedia.org/w/api.php"
	PageBaseURL  = "https://tr.wikipedia.org/wiki/"
	userAgent    = "MatchdayBot/1.0"
	commonsName  = "wikimedia"
	wikipediaTag = "wikipedia"
)

var imageExt = regexp.MustCompile(`(?i)\.(png|svg|jpg|jpeg)$`)

// Client queries the two encyclopedia sources.
type Client struct {
	commonsURL string
	pageURL    string
	http       *http.Client
}

// New creates a client. Empty URLs select the public endpoints.
func New(commonsURL, pageURL string, timeout time.Duration) *Client {
	if commonsURL == "" {
		commonsURL = CommonsAPI
	}
	if pageURL == "" {
		pageURL = PageBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{commonsURL: commonsURL, pageURL: pageURL, http: &http.Client{Timeout: timeout}}
}

type commonsResponse struct {
	Query struct {
		Pages map[string]struct {
			Title     string `json:"title"`
			ImageInfo []struct {
				URL string `json:"url"`
			} `json:"imageinfo"`
		} `json:"pages"`
	} `json:"query"`
}

// CommonsLogoURL searches the File namespace for "<team> logo" PNGs.
func (c *Client) CommonsLogoURL(ctx context.Context, team string) (string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("generator", "search")
	params.Set("gsrnamespace", "6")
	params.Set("gsrsearch", team+" logo filetype:png")
	params.Set("gsrlimit", "1")
	params.Set("prop", "imageinfo")
	params.Set("iiprop", "url")

	body, err := c.get(ctx, commonsName, c.commonsURL+"?"+params.Encode())
	if err != nil {
		return "", err
	}

	var data commonsResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return "", domain.Unavailable(commonsName, fmt.Errorf("decoding response: %w", err))
	}
	for _, page := range data.Query.Pages {
		for _, info := range page.ImageInfo {
			if info.URL != "" {
				return info.URL, nil
			}
		}
	}
	return "", fmt.Errorf("commons %q: %w", team, domain.ErrNotFound)
}

// PageLogoURL scrapes the team's article for its first crest-like image.
// The infobox is preferred over the rest of the page.
func (c *Client) PageLogoURL(ctx context.Context, team string) (string, error) {
	title := strings.ReplaceAll(strings.TrimSpace(team), " ", "_")
	body, err := c.get(ctx, wikipediaTag, c.pageURL+url.PathEscape(title))
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return "", domain.Unavailable(wikipediaTag, fmt.Errorf("parsing page: %w", err))
	}

	src := firstImage(doc.Find(".infobox img"))
	if src == "" {
		src = firstImage(doc.Find("img"))
	}
	if src == "" {
		return "", fmt.Errorf("wikipedia %q: %w", team, domain.ErrNotFound)
	}
	if strings.HasPrefix(src, "//") {
		src = "https:" + src
	}
	return src, nil
}

func firstImage(sel *goquery.Selection) string {
	var found string
	sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, ok := s.Attr("src")
		if ok && imageExt.MatchString(src) {
			found = src
			return false
		}
		return true
	})
	return found
}

func (c *Client) get(ctx context.Context, source, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, domain.Unavailable(source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s page: %w", source, domain.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, domain.Unavailable(source, fmt.Errorf("status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, domain.Unavailable(source, err)
	}
	return body, nil
}
