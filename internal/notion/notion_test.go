package notion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func titleProp(text string) Property {
	return Property{Title: []RichText{{PlainText: text}}}
}

func taskRow(id, name, date, kind, groupID string) Page {
	return Page{
		ID: id,
		Properties: map[string]Property{
			propName:  titleProp(name),
			propDate:  {Date: &DateValue{Start: date}},
			propType:  {Select: &SelectValue{Name: kind}},
			propClass: {Relation: []RelationRef{{ID: groupID}}},
		},
	}
}

// fakeAPI serves the two endpoints the client uses. Group pages are
// keyed by ID; a missing ID yields the API's 404 error shape.
type fakeAPI struct {
	rows        []Page
	groups      map[string]string
	lastQuery   map[string]any
	pageFetches atomic.Int64
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/databases/", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.lastQuery = body
		_ = json.NewEncoder(w).Encode(queryResponse{Object: "list", Results: f.rows})
	})
	mux.HandleFunc("GET /v1/pages/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.pageFetches.Add(1)
		id := r.PathValue("id")
		name, ok := f.groups[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"object": "error", "status": 404,
				"code": "object_not_found", "message": "Could not find page",
			})
			return
		}
		_ = json.NewEncoder(w).Encode(Page{
			ID:         id,
			Properties: map[string]Property{propClass: titleProp(name)},
		})
	})
	return mux
}

func newFakeClient(t *testing.T, api *fakeAPI, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)
	opts = append([]Option{WithBaseURL(srv.URL)}, opts...)
	return NewClient("secret", "db1", opts...)
}

func TestQueryIncompleteFilter(t *testing.T) {
	api := &fakeAPI{rows: []Page{taskRow("p1", "Essay", "2024-07-03", "assignment", "g1")}}
	c := newFakeClient(t, api)

	rows, err := c.QueryIncomplete(context.Background(), 25)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	assert.Equal(t, float64(25), api.lastQuery["page_size"])
	filter := api.lastQuery["filter"].(map[string]any)
	assert.Equal(t, propComplete, filter["property"])
	checkbox := filter["checkbox"].(map[string]any)
	assert.Equal(t, false, checkbox["equals"])
}

func TestQueryIncompleteDefaultLimit(t *testing.T) {
	api := &fakeAPI{}
	c := newFakeClient(t, api)

	_, err := c.QueryIncomplete(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, float64(defaultPageSize), api.lastQuery["page_size"])
}

func TestQueryDueByTomorrow(t *testing.T) {
	api := &fakeAPI{}
	now := time.Date(2024, 7, 3, 15, 0, 0, 0, time.UTC)
	c := newFakeClient(t, api, WithNow(func() time.Time { return now }))

	_, err := c.QueryDueByTomorrow(context.Background())
	require.NoError(t, err)

	filter := api.lastQuery["filter"].(map[string]any)
	and := filter["and"].([]any)
	require.Len(t, and, 2)
	dateFilter := and[1].(map[string]any)
	assert.Equal(t, propDate, dateFilter["property"])
	assert.Equal(t, "2024-07-04", dateFilter["date"].(map[string]any)["before"])

	sorts := api.lastQuery["sorts"].([]any)
	require.Len(t, sorts, 1)
	assert.Equal(t, "ascending", sorts[0].(map[string]any)["direction"])
}

func TestTasksResolvesGroups(t *testing.T) {
	api := &fakeAPI{
		rows: []Page{
			taskRow("p1", "Problem set 4", "2024-07-03T10:00:00Z", "assignment", "g1"),
		},
		groups: map[string]string{"g1": "Linear Algebra"},
	}
	c := newFakeClient(t, api)

	tasks := c.Tasks(context.Background(), api.rows)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Problem set 4", tasks[0].Name)
	assert.Equal(t, "assignment", tasks[0].Kind)
	assert.Equal(t, "Linear Algebra", tasks[0].Group)
	assert.Equal(t, 10, tasks[0].Due.Hour())
}

func TestTasksDropsUnresolvedGroupKeepsSiblings(t *testing.T) {
	api := &fakeAPI{
		rows: []Page{
			taskRow("p1", "Essay", "2024-07-03", "assignment", "missing"),
			taskRow("p2", "Quiz prep", "2024-07-04", "study", "g1"),
		},
		groups: map[string]string{"g1": "History"},
	}
	c := newFakeClient(t, api)

	tasks := c.Tasks(context.Background(), api.rows)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Quiz prep", tasks[0].Name)
}

func TestTasksDeduplicatesGroupLookups(t *testing.T) {
	api := &fakeAPI{
		rows: []Page{
			taskRow("p1", "Essay", "2024-07-03", "assignment", "g1"),
			taskRow("p2", "Reading", "2024-07-04", "assignment", "g1"),
			taskRow("p3", "Lab", "2024-07-05", "assignment", "g1"),
		},
		groups: map[string]string{"g1": "Chemistry"},
	}
	c := newFakeClient(t, api)

	tasks := c.Tasks(context.Background(), api.rows)
	assert.Len(t, tasks, 3)
	assert.Equal(t, int64(1), api.pageFetches.Load())
}

func TestTasksSkipsMalformedRows(t *testing.T) {
	noDate := taskRow("p1", "Essay", "2024-07-03", "assignment", "g1")
	delete(noDate.Properties, propDate)
	badDate := taskRow("p2", "Quiz", "someday", "study", "g1")

	api := &fakeAPI{
		rows:   []Page{noDate, badDate, taskRow("p3", "Lab", "2024-07-05", "lab", "g1")},
		groups: map[string]string{"g1": "Chemistry"},
	}
	c := newFakeClient(t, api)

	tasks := c.Tasks(context.Background(), api.rows)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Lab", tasks[0].Name)
}

func TestDisplayStrings(t *testing.T) {
	api := &fakeAPI{
		rows:   []Page{taskRow("p1", "Problem set 4", "2024-07-03T10:00:00Z", "assignment", "g1")},
		groups: map[string]string{"g1": "Linear Algebra"},
	}
	c := newFakeClient(t, api)

	lines := c.DisplayStrings(context.Background(), api.rows)
	require.Len(t, lines, 1)
	assert.Equal(t,
		"Problem set 4, a assignment for Linear Algebra due on 2024-07-03 10:00",
		lines[0])
}

func TestQueryAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "error", "status": 401,
			"code": "unauthorized", "message": "API token is invalid.",
		})
	}))
	t.Cleanup(srv.Close)
	c := NewClient("bad", "db1", WithBaseURL(srv.URL))

	_, err := c.QueryIncomplete(context.Background(), 10)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "unauthorized", apiErr.Code)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestQueryFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()
	c := NewClient("k", "db1", WithBaseURL(srv.URL))

	_, err := c.QueryIncomplete(context.Background(), 10)
	var ferr *FetchError
	assert.True(t, errors.As(err, &ferr))
}

func TestAuthHeadersSent(t *testing.T) {
	var gotAuth, gotVersion string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotVersion = r.Header.Get("Notion-Version")
		_ = json.NewEncoder(w).Encode(queryResponse{Object: "list"})
	}))
	t.Cleanup(srv.Close)
	c := NewClient("secret_abc", "db1", WithBaseURL(srv.URL))

	_, err := c.QueryIncomplete(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret_abc", gotAuth)
	assert.Equal(t, apiVersion, gotVersion)
}
