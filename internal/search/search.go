// Package search queries the entscheidsuche.ch case-law index for decisions containing all of a set of keywords.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/codalotl/legallens/internal/cache"
	"github.com/codalotl/legallens/internal/q/health"
	"go.uber.org/zap"
)

const (
	DefaultEndpoint = "https://entscheidsuche.ch/_search.php"
	DefaultField    = "attachment.content"
	DefaultSize     = 1000

	// CacheTag prefixes the canonical keyword list when deriving cache keys.
	CacheTag = "court_decisions"
)

// Client issues one synchronous request per uncached keyword set. There is no retry, no pagination, and no client-side timeout beyond what HTTP carries.
type Client struct {
	HTTP         *http.Client // nil means http.DefaultClient
	Endpoint     string       // "" means DefaultEndpoint
	DefaultField string       // "" means DefaultField
	Size         int          // 0 means DefaultSize
	Cache        cache.Store  // nil disables caching
	Logger       *zap.Logger
}

type requestBody struct {
	From  int               `json:"from"`
	Size  int               `json:"size"`
	Query requestQuery      `json:"query"`
	Sort  map[string]string `json:"sort"`
}

type requestQuery struct {
	QueryString queryString `json:"query_string"`
}

type queryString struct {
	DefaultField string `json:"default_field"`
	Query        string `json:"query"`
}

// BuildQuery returns a query requiring every keyword as a quoted phrase: "A" AND "B".
func BuildQuery(keywords []string) string {
	quoted := make([]string, len(keywords))
	for i, k := range keywords {
		quoted[i] = `"` + k + `"`
	}
	return strings.Join(quoted, " AND ")
}

// CanonicalKeywords is the cache identity of a keyword list. Keywords are sorted, so reordered lists share a cache entry.
func CanonicalKeywords(keywords []string) string {
	sorted := append([]string(nil), keywords...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

// CacheKey returns the cache key Search uses for keywords.
func CacheKey(keywords []string) string {
	return cache.Key(CacheTag, CanonicalKeywords(keywords))
}

// Search returns the parsed response for decisions containing all keywords, newest first. The raw body is cached only for 2xx responses.
func (c *Client) Search(ctx context.Context, keywords []string) (*Response, error) {
	hctx := health.NewCtx(c.logger())
	if len(keywords) == 0 {
		return nil, errors.New("search: at least one keyword is required")
	}

	var raw string
	var hit bool
	var err error
	if c.Cache == nil {
		raw, err = c.fetch(ctx, keywords)
	} else {
		raw, hit, err = cache.Fetch(c.Cache, CacheKey(keywords), func() (string, error) {
			return c.fetch(ctx, keywords)
		})
	}
	if err != nil {
		return nil, hctx.LogWrappedErr("search: fetch", err, zap.Strings("keywords", keywords))
	}
	hctx.Debug("search response", zap.Strings("keywords", keywords), zap.Bool("cache_hit", hit), zap.Int("bytes", len(raw)))

	var resp Response
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, hctx.LogWrappedErr("search: parse response", err, zap.Strings("keywords", keywords))
	}
	return &resp, nil
}

// RequestBody returns the JSON body sent for keywords.
func (c *Client) RequestBody(keywords []string) ([]byte, error) {
	return json.Marshal(requestBody{
		From: 0,
		Size: c.size(),
		Query: requestQuery{QueryString: queryString{
			DefaultField: c.field(),
			Query:        BuildQuery(keywords),
		}},
		Sort: map[string]string{"date": "desc"},
	})
}

// fetch sends the query. The service expects a GET carrying a JSON body.
func (c *Client) fetch(ctx context.Context, keywords []string) (string, error) {
	body, err := c.RequestBody(keywords)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(b), 200))
	}
	return string(b), nil
}

func (c *Client) endpoint() string {
	if c.Endpoint == "" {
		return DefaultEndpoint
	}
	return c.Endpoint
}

func (c *Client) field() string {
	if c.DefaultField == "" {
		return DefaultField
	}
	return c.DefaultField
}

func (c *Client) size() int {
	if c.Size <= 0 {
		return DefaultSize
	}
	return c.Size
}

func (c *Client) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
