// ABOUTME: Tests for the Notion adapter against a fake API server
// ABOUTME: Covers block mapping, row summaries, pagination, and API errors
package notion

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/harper/notion-rag/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// rewriteTransport sends every request to the test server
type rewriteTransport struct {
	target *url.URL
}

func (rt rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = rt.target.Scheme
	req.URL.Host = rt.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

func richText(s string) string {
	return `[{"type":"text","text":{"content":` + quote(s) + `},"plain_text":` + quote(s) + `}]`
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

const childrenPage1 = `{
  "object": "list",
  "results": [
    {"object":"block","id":"b1","type":"paragraph","paragraph":{"rich_text":%s}},
    {"object":"block","id":"b2","type":"heading_2","heading_2":{"rich_text":%s}},
    {"object":"block","id":"b3","type":"divider","divider":{}}
  ],
  "has_more": true,
  "next_cursor": "cursor-2"
}`

const childrenPage2 = `{
  "object": "list",
  "results": [
    {"object":"block","id":"b4","type":"bulleted_list_item","bulleted_list_item":{"rich_text":%s}},
    {"object":"block","id":"b5","type":"child_page","child_page":{"title":"Nested"}},
    {"object":"block","id":"b6","type":"child_database","child_database":{"title":"People"}}
  ],
  "has_more": false,
  "next_cursor": null
}`

const databaseRows = `{
  "object": "list",
  "results": [
    {
      "object": "page",
      "id": "row-1",
      "properties": {
        "Name": {"id":"title","type":"title","title":%s},
        "Role": {"id":"r","type":"rich_text","rich_text":%s},
        "Tags": {"id":"t","type":"multi_select","multi_select":[{"id":"1","name":"go"},{"id":"2","name":"rag"}]},
        "Location": {"id":"l","type":"rich_text","rich_text":%s}
      }
    },
    {
      "object": "page",
      "id": "row-2",
      "properties": {
        "Name": {"id":"title","type":"title","title":%s}
      }
    }
  ],
  "has_more": false,
  "next_cursor": null
}`

func sprintf(format string, args ...string) string {
	for _, a := range args {
		format = strings.Replace(format, "%s", a, 1)
	}
	return format
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	target, err := url.Parse(srv.URL)
	require.NoError(t, err)

	c, err := NewClient("secret-token", Options{
		RequestsPerSecond: 1000,
		Burst:             10,
		HTTPClient:        &http.Client{Transport: rewriteTransport{target: target}},
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return c
}

func TestNewClient_RequiresToken(t *testing.T) {
	_, err := NewClient("  ", Options{}, nil)
	assert.Error(t, err)
}

func TestListChildren_PaginatesAndMaps(t *testing.T) {
	var mu sync.Mutex
	var cursors []string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/blocks/page-a/children", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))

		cursor := r.URL.Query().Get("start_cursor")
		mu.Lock()
		cursors = append(cursors, cursor)
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if cursor == "" {
			_, _ = io.WriteString(w, sprintf(childrenPage1, richText("Hello World"), richText("Overview")))
			return
		}
		_, _ = io.WriteString(w, sprintf(childrenPage2, richText("first item")))
	}))

	blocks, err := c.ListChildren(t.Context(), "page-a")
	require.NoError(t, err)

	mu.Lock()
	assert.Equal(t, []string{"", "cursor-2"}, cursors)
	mu.Unlock()
	assert.Equal(t, []models.Block{
		{ID: "b1", Type: models.BlockParagraph, Text: "Hello World"},
		{ID: "b2", Type: models.BlockHeading, Text: "Overview"},
		{ID: "b3", Type: models.BlockOther},
		{ID: "b4", Type: models.BlockListItem, Text: "first item"},
		{ID: "b5", Type: models.BlockChildPage},
		{ID: "b6", Type: models.BlockChildDatabase},
	}, blocks)
}

func TestQueryDatabase_MapsRows(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/databases/db-1/query", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, sprintf(databaseRows,
			richText("Ada Lovelace"), richText("Engineer"), richText("London"), richText("Grace")))
	}))

	rows, err := c.QueryDatabase(t.Context(), "db-1")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, models.Row{
		ID:       "row-1",
		Name:     "Ada Lovelace",
		Role:     "Engineer",
		Tags:     []string{"go", "rag"},
		Location: "London",
	}, rows[0])
	assert.Equal(t, "Ada Lovelace — Engineer. Tags: go, rag. Location: London", rows[0].Summary())

	assert.Equal(t, "row-2", rows[1].ID)
	assert.Equal(t, "Grace", rows[1].Name)
	assert.Empty(t, rows[1].Role)
	assert.Empty(t, rows[1].Tags)
}

func TestListChildren_APIError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"object":"error","status":404,"code":"object_not_found","message":"Could not find block"}`)
	}))

	_, err := c.ListChildren(t.Context(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}
