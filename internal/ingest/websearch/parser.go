package websearch

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParseHTML converts raw HTML to a goquery Document for parsing
func ParseHTML(htmlContent string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// ParseResults reads organic hits from a DuckDuckGo HTML results page. Ads are skipped.
func ParseResults(doc *goquery.Document, max int) []Result {
	var results []Result
	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.HasClass("result--ad") {
			return true
		}
		link := s.Find(".result__a").First()
		title := cleanText(link.Text())
		body := cleanText(s.Find(".result__snippet").First().Text())
		if title == "" && body == "" {
			return true
		}
		href, _ := link.Attr("href")
		results = append(results, Result{Title: title, Body: body, URL: href})
		return max <= 0 || len(results) < max
	})
	return results
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
