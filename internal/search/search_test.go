package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/codalotl/legallens/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const responseJSON = `{
  "hits": {
    "total": {"value": 2},
    "hits": [
      {
        "_id": "CH_BGer_004_4C-180-2005_2005-09-14",
        "_source": {
          "source": "CH_BGer",
          "hierarchy": ["CH", "CH_BGer", "CH_BGer_004"],
          "title": {"de": "Kaufvertrag", "fr": "Contrat de vente"},
          "canton": "CH",
          "date": "2005-09-14",
          "attachment": {"content": "Vögel\nZucht"},
          "reference": ["4C.180/2005"]
        }
      },
      {
        "_id": "other",
        "_source": {"source": "ZH_OG", "title": {"de": "Urteil"}, "canton": "ZH", "attachment": {"content": "x"}, "reference": []}
      }
    ]
  }
}`

type fakeService struct {
	calls  atomic.Int32
	status atomic.Int32

	mu     sync.Mutex
	bodies []map[string]any
	method string
	ctype  string
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.calls.Add(1)
	b, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = json.Unmarshal(b, &body)
	f.mu.Lock()
	f.method = r.Method
	f.ctype = r.Header.Get("Content-Type")
	f.bodies = append(f.bodies, body)
	f.mu.Unlock()

	if status := f.status.Load(); status != 0 {
		w.WriteHeader(int(status))
		_, _ = io.WriteString(w, "service unavailable")
		return
	}
	_, _ = io.WriteString(w, responseJSON)
}

func newClient(t *testing.T, svc *fakeService, store cache.Store) *Client {
	srv := httptest.NewServer(svc)
	t.Cleanup(srv.Close)
	return &Client{Endpoint: srv.URL, Cache: store, Logger: zaptest.NewLogger(t)}
}

func TestBuildQuery(t *testing.T) {
	assert.Equal(t, `"Vögel" AND "Zucht"`, BuildQuery([]string{"Vögel", "Zucht"}))
	assert.Equal(t, `"Recht"`, BuildQuery([]string{"Recht"}))
}

func TestSearch_RequestShape(t *testing.T) {
	svc := &fakeService{}
	c := newClient(t, svc, nil)

	resp, err := c.Search(context.Background(), []string{"Vögel", "Zucht"})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Hits.Total.Value)
	require.Len(t, resp.Hits.Hits, 2)

	svc.mu.Lock()
	defer svc.mu.Unlock()
	assert.Equal(t, http.MethodGet, svc.method)
	assert.Equal(t, "application/json", svc.ctype)
	require.Len(t, svc.bodies, 1)
	want := map[string]any{
		"from": float64(0),
		"size": float64(1000),
		"query": map[string]any{
			"query_string": map[string]any{
				"default_field": "attachment.content",
				"query":         `"Vögel" AND "Zucht"`,
			},
		},
		"sort": map[string]any{"date": "desc"},
	}
	assert.Equal(t, want, svc.bodies[0])
}

func TestSearch_SecondCallIsCached(t *testing.T) {
	svc := &fakeService{}
	c := newClient(t, svc, cache.NewMemory())

	first, err := c.Search(context.Background(), []string{"Vögel", "Zucht"})
	require.NoError(t, err)
	second, err := c.Search(context.Background(), []string{"Vögel", "Zucht"})
	require.NoError(t, err)

	assert.EqualValues(t, 1, svc.calls.Load())
	assert.Equal(t, first, second)
}

func TestSearch_KeywordOrderSharesCacheEntry(t *testing.T) {
	assert.Equal(t, CacheKey([]string{"A", "B"}), CacheKey([]string{"B", "A"}))
	assert.NotEqual(t, CacheKey([]string{"A", "B"}), CacheKey([]string{"A", "C"}))

	svc := &fakeService{}
	c := newClient(t, svc, cache.NewMemory())
	_, err := c.Search(context.Background(), []string{"Zucht", "Vögel"})
	require.NoError(t, err)
	_, err = c.Search(context.Background(), []string{"Vögel", "Zucht"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, svc.calls.Load())

	// The query itself keeps the caller's order.
	svc.mu.Lock()
	defer svc.mu.Unlock()
	q := svc.bodies[0]["query"].(map[string]any)["query_string"].(map[string]any)["query"]
	assert.Equal(t, `"Zucht" AND "Vögel"`, q)
}

func TestSearch_ErrorStatusIsNotCached(t *testing.T) {
	svc := &fakeService{}
	svc.status.Store(http.StatusServiceUnavailable)
	store := cache.NewMemory()
	c := newClient(t, svc, store)

	_, err := c.Search(context.Background(), []string{"Vögel"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Equal(t, 0, store.Puts())

	svc.status.Store(0)
	_, err = c.Search(context.Background(), []string{"Vögel"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, svc.calls.Load())
}

func TestSearch_MalformedBodyErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html>oops</html>")
	}))
	defer srv.Close()
	c := &Client{Endpoint: srv.URL}
	_, err := c.Search(context.Background(), []string{"x"})
	assert.ErrorContains(t, err, "parse response")
}

func TestSearch_NoKeywords(t *testing.T) {
	c := &Client{}
	_, err := c.Search(context.Background(), nil)
	assert.Error(t, err)
}

func TestHit_PromptText(t *testing.T) {
	var resp Response
	require.NoError(t, json.Unmarshal([]byte(responseJSON), &resp))
	h := resp.Hits.Hits[0]

	assert.Equal(t, "Kaufvertrag", h.Title())
	assert.True(t, h.HasReference("4C.180/2005"))
	assert.False(t, resp.Hits.Hits[1].HasReference("4C.180/2005"))
	assert.Equal(t, "ID: CH_BGer\nHierarchy: ['CH', 'CH_BGer', 'CH_BGer_004']\nTitle: Kaufvertrag\nCanton: CH\nContent:\nVögel\nZucht", h.PromptText())
}
