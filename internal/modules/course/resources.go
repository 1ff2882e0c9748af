package course

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/skillpath/core/internal/config"
	"github.com/skillpath/core/internal/pkg/redis"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

const (
	maxVideosPerQuery = 3
	maxWebPerQuery    = 3

	resourceCachePrefix = "ressearch"
)

// ResourceFinder resolves the model's suggested search queries into
// concrete learning resources. Failures here never fail a day: the
// caller degrades to an empty resource list.
type ResourceFinder interface {
	Find(ctx context.Context, queries []ResourceQuery) ([]Resource, error)
}

type webFinder struct {
	cfg    config.ResourcesConfig
	rdb    *redis.Client
	client *http.Client
	logger *zap.Logger

	// round-robin cursor over invidious instances, shared across
	// concurrent Find calls
	instanceCursor atomic.Int64
}

// NewWebFinder builds the default ResourceFinder backed by Invidious
// for video queries and DuckDuckGo HTML search for web queries. rdb may
// be nil, which disables result caching.
func NewWebFinder(cfg config.ResourcesConfig, rdb *redis.Client, logger *zap.Logger) ResourceFinder {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &webFinder{
		cfg:    cfg,
		rdb:    rdb,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

func (f *webFinder) Find(ctx context.Context, queries []ResourceQuery) ([]Resource, error) {
	if !f.cfg.Enable {
		return []Resource{}, nil
	}

	resources := make([]Resource, 0, maxResourceURLs)
	for _, q := range queries {
		if len(resources) >= maxResourceURLs {
			break
		}

		found, err := f.search(ctx, q)
		if err != nil {
			f.logger.Warn("resource search failed",
				zap.String("query", q.Query),
				zap.String("source", q.Source),
				zap.Error(err))
			continue
		}
		for _, r := range found {
			if len(resources) >= maxResourceURLs {
				break
			}
			resources = append(resources, r)
		}
	}

	// Never return zero results silently: fall back to plain search
	// links so every day still carries something clickable.
	if len(resources) == 0 {
		for _, q := range queries {
			if len(resources) >= maxResourceURLs {
				break
			}
			resources = append(resources, fallbackResource(q))
		}
	}
	return resources, nil
}

func (f *webFinder) search(ctx context.Context, q ResourceQuery) ([]Resource, error) {
	if cached, ok := f.cacheGet(ctx, q); ok {
		return cached, nil
	}

	var (
		found []Resource
		err   error
	)
	if q.Source == "youtube" {
		found, err = f.searchInvidious(ctx, q.Query)
	} else {
		found, err = f.searchDuckDuckGo(ctx, q.Query)
	}
	if err != nil {
		return nil, err
	}

	f.cachePut(ctx, q, found)
	return found, nil
}

func (f *webFinder) cacheKey(q ResourceQuery) string {
	return fmt.Sprintf("%s:%s:%s", resourceCachePrefix, q.Source, strings.ToLower(strings.TrimSpace(q.Query)))
}

func (f *webFinder) cacheGet(ctx context.Context, q ResourceQuery) ([]Resource, bool) {
	if f.rdb == nil {
		return nil, false
	}
	raw, err := f.rdb.Get(ctx, f.cacheKey(q))
	if err != nil || raw == "" {
		return nil, false
	}
	var out []Resource
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, false
	}
	return out, true
}

func (f *webFinder) cachePut(ctx context.Context, q ResourceQuery, resources []Resource) {
	if f.rdb == nil || len(resources) == 0 {
		return
	}
	raw, err := json.Marshal(resources)
	if err != nil {
		return
	}
	ttl := time.Duration(f.cfg.CacheTTLSeconds) * time.Second
	if err := f.rdb.Set(ctx, f.cacheKey(q), string(raw), ttl); err != nil {
		f.logger.Warn("resource cache write failed", zap.Error(err))
	}
}

func (f *webFinder) searchInvidious(ctx context.Context, query string) ([]Resource, error) {
	instances := f.cfg.InvidiousInstances
	if len(instances) == 0 {
		return nil, fmt.Errorf("no invidious instances configured")
	}

	var lastErr error
	for range instances {
		cursor := f.instanceCursor.Add(1) - 1
		instance := instances[int(cursor)%len(instances)]

		videos, err := f.queryInvidiousInstance(ctx, instance, query)
		if err != nil {
			lastErr = err
			continue
		}
		return videos, nil
	}
	return nil, lastErr
}

func (f *webFinder) queryInvidiousInstance(ctx context.Context, instance, query string) ([]Resource, error) {
	endpoint := strings.TrimRight(instance, "/") + "/api/v1/search?q=" + neturl.QueryEscape(query) + "&type=video"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("invidious search: %s returned %d", instance, resp.StatusCode)
	}

	var results []struct {
		Title   string `json:"title"`
		VideoID string `json:"videoId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, err
	}

	resources := make([]Resource, 0, maxVideosPerQuery)
	for _, item := range results {
		if len(resources) >= maxVideosPerQuery {
			break
		}
		if item.VideoID == "" || strings.TrimSpace(item.Title) == "" {
			continue
		}
		resources = append(resources, Resource{
			Title: strings.TrimSpace(item.Title),
			URL:   "https://www.youtube.com/watch?v=" + item.VideoID,
			// i.ytimg.com serves thumbnails regardless of which
			// invidious instance answered the search.
			Thumbnail: "https://i.ytimg.com/vi/" + item.VideoID + "/mqdefault.jpg",
			Source:    "youtube",
		})
	}
	return resources, nil
}

func (f *webFinder) searchDuckDuckGo(ctx context.Context, query string) ([]Resource, error) {
	endpoint := "https://html.duckduckgo.com/html/?q=" + neturl.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo search returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, err
	}
	return parseDuckDuckGoResults(body), nil
}

// parseDuckDuckGoResults walks the html.duckduckgo.com result page and
// collects result__a anchors, unwrapping the uddg redirect parameter.
func parseDuckDuckGoResults(body []byte) []Resource {
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil
	}

	var resources []Resource
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(resources) >= maxWebPerQuery {
			return
		}
		if n.Type == html.ElementNode && n.Data == "a" && hasClass(n, "result__a") {
			href := attrValue(n, "href")
			title := strings.TrimSpace(textContent(n))
			if url := resolveResultURL(href); url != "" && title != "" {
				resources = append(resources, Resource{
					Title:  title,
					URL:    url,
					Source: "web",
				})
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return resources
}

func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(attr.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return b.String()
}

// resolveResultURL unwraps DuckDuckGo's //duckduckgo.com/l/?uddg=...
// redirect links to the destination URL.
func resolveResultURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}

	parsed, err := neturl.Parse(href)
	if err != nil {
		return ""
	}
	if uddg := parsed.Query().Get("uddg"); uddg != "" {
		if target, err := neturl.QueryUnescape(uddg); err == nil {
			href = target
		}
	}
	if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
		return ""
	}
	return href
}

func fallbackResource(q ResourceQuery) Resource {
	if q.Source == "youtube" {
		return Resource{
			Title:  "YouTube search: " + q.Query,
			URL:    "https://www.youtube.com/results?search_query=" + neturl.QueryEscape(q.Query),
			Source: "youtube",
		}
	}
	return Resource{
		Title:  "Search: " + q.Query,
		URL:    "https://duckduckgo.com/?q=" + neturl.QueryEscape(q.Query),
		Source: "web",
	}
}
