// Package ubn scrapes the university repository's discovery UI. The
// repository has no API; results are located by searching, validating the
// result title against the known article title, and following the document
// link. The session holds cookie and search state, so at most one DOI may
// drive it at a time; this tier is the concurrency bottleneck of the
// pipeline by design.
package ubn

import (
	"bytes"
	"context"
	"net/url"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/agnivade/levenshtein"

	"github.com/labsignal/evidence-service/internal/domain"
	"github.com/labsignal/evidence-service/internal/fulltext"
)

// titleSimilarityThreshold is the minimum normalized edit-distance ratio
// for a result title to count as the article we are looking for.
const titleSimilarityThreshold = 0.8

// result is one entry scraped from a discovery result page.
type result struct {
	Title string
	Link  string
}

// Session is the exclusive scraping handle. Acquire serializes callers;
// every search and page fetch goes through the shared retrying client so
// repository requests obey the global rate ceiling.
type Session struct {
	mu      sync.Mutex
	client  *fulltext.Client
	baseURL string
}

// NewSession creates a repository session rooted at baseURL. The client
// should have cookies enabled; the repository tracks search context in a
// session cookie.
func NewSession(client *fulltext.Client, baseURL string) *Session {
	return &Session{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Enabled reports whether a repository URL is configured.
func (s *Session) Enabled() bool { return s.baseURL != "" }

// acquire takes exclusive ownership of the session, respecting context
// cancellation while waiting. The returned release function must be called.
func (s *Session) acquire(ctx context.Context) (func(), error) {
	locked := make(chan struct{})
	go func() {
		s.mu.Lock()
		close(locked)
	}()
	select {
	case <-ctx.Done():
		// The goroutine will take and immediately give back the lock.
		go func() {
			<-locked
			s.mu.Unlock()
		}()
		return nil, ctx.Err()
	case <-locked:
		return s.mu.Unlock, nil
	}
}

// search runs a discovery query and scrapes the result list.
func (s *Session) search(ctx context.Context, params url.Values) ([]result, error) {
	body, err := s.client.Get(ctx, s.baseURL+"/discover", params)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, domain.NewParseError("ubn", "malformed result page", err)
	}

	var results []result
	doc.Find("div.artifact-description").Each(func(_ int, sel *goquery.Selection) {
		title := strings.TrimSpace(sel.Find("h4").First().Text())
		link, _ := sel.Find("a").First().Attr("href")
		if title == "" || link == "" {
			return
		}
		results = append(results, result{Title: title, Link: s.absolute(link)})
	})
	return results, nil
}

// searchByDOI runs the primary discovery query.
func (s *Session) searchByDOI(ctx context.Context, doi string) ([]result, error) {
	return s.search(ctx, url.Values{"query": {doi}})
}

// searchByTitle runs the fallback query filtered to title text.
func (s *Session) searchByTitle(ctx context.Context, title string) ([]result, error) {
	return s.search(ctx, url.Values{
		"query":                      {title},
		"filtertype":                 {"title"},
		"filter_relational_operator": {"contains"},
		"filter":                     {title},
	})
}

// documentURL scrapes an item page for its primary document link.
func (s *Session) documentURL(ctx context.Context, itemURL string) (string, error) {
	body, err := s.client.Get(ctx, itemURL, nil)
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", domain.NewParseError("ubn", "malformed item page", err)
	}

	link, ok := doc.Find("a.image-link").First().Attr("href")
	if !ok {
		link, ok = doc.Find(`a[href$=".pdf"]`).First().Attr("href")
	}
	if !ok || link == "" {
		return "", domain.NewParseError("ubn", "no document link on item page", nil)
	}
	return s.absolute(link), nil
}

func (s *Session) absolute(link string) string {
	if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link
	}
	return s.baseURL + "/" + strings.TrimPrefix(link, "/")
}

// titleStopwords are dropped before comparison; repositories and publishers
// disagree on connective words far more than on content words.
var titleStopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "of": {}, "in": {}, "on": {},
	"and": {}, "or": {}, "for": {}, "with": {}, "to": {}, "by": {},
}

// normalizeTitle lowercases, strips non-alphanumeric characters, removes
// stopwords and sorts the remaining words, so the similarity metric is
// insensitive to word order and connective phrasing.
func normalizeTitle(title string) string {
	title = strings.ToLower(title)
	fields := strings.FieldsFunc(title, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	words := make([]string, 0, len(fields))
	for _, w := range fields {
		if _, ok := titleStopwords[w]; ok {
			continue
		}
		words = append(words, w)
	}
	sort.Strings(words)
	return strings.Join(words, " ")
}

// titleSimilarity is the normalized edit-distance ratio between two
// normalized titles, in [0, 1].
func titleSimilarity(a, b string) float64 {
	a = normalizeTitle(a)
	b = normalizeTitle(b)
	if a == "" || b == "" {
		return 0
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	distance := levenshtein.ComputeDistance(a, b)
	return 1 - float64(distance)/float64(longest)
}
