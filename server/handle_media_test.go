package server

import (
	"net/http"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func searchHit(m map[string]any) map[string]any {
	return map[string]any{"score": 1.0, "Metadata": m}
}

// searchPlex answers /library/search with hits and keeps the last query.
func searchPlex(t *testing.T, hits ...map[string]any) (*Server, func() url.Values) {
	t.Helper()
	var (
		mu   sync.Mutex
		last url.Values
	)
	results := make([]any, len(hits))
	for i, h := range hits {
		results[i] = searchHit(h)
	}
	srv := fakePlex(t, map[string]http.HandlerFunc{
		"/library/search": func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			last = r.URL.Query()
			mu.Unlock()
			container(w, map[string]any{"SearchResult": results})
		},
	})
	return testServer(t, srv.URL), func() url.Values {
		mu.Lock()
		defer mu.Unlock()
		return last
	}
}

func TestMediaSearch_GroupsInDisplayOrder(t *testing.T) {
	s, _ := searchPlex(t,
		map[string]any{"ratingKey": "1", "type": "movie", "title": "Alien", "year": 1979},
		map[string]any{"ratingKey": "2", "type": "episode", "title": "Alien Signal", "grandparentTitle": "Space", "parentIndex": 1, "index": 3},
		map[string]any{"ratingKey": "3", "type": "track", "title": "Alien Song", "grandparentTitle": "Band", "parentTitle": "LP"},
		map[string]any{"ratingKey": "4", "type": "collection", "title": "Alien Collection"},
		map[string]any{"ratingKey": "5", "type": "movie", "title": "Aliens", "year": 1986},
		map[string]any{"ratingKey": "6", "type": "clip", "title": "Alien Trailer"},
	)

	out, res := call(t, s, "media_search", map[string]any{"query": "alien"})
	require.False(t, res.IsError, out["message"])
	assert.EqualValues(t, 6, out["total_count"])
	assert.Equal(t, []any{"track", "movie", "episode", "clip", "collection"}, out["type_order"])

	groups := out["results_by_type"].(map[string]any)
	assert.Len(t, groups["movie"], 2)
	episode := groups["episode"].([]any)[0].(map[string]any)
	assert.Equal(t, "Space", episode["show_title"])
	assert.EqualValues(t, 3, episode["episode_number"])
}

func TestMediaSearch_MappedContentType(t *testing.T) {
	s, query := searchPlex(t,
		map[string]any{"ratingKey": "1", "type": "movie", "title": "Alien"},
		map[string]any{"ratingKey": "2", "type": "show", "title": "Alien Worlds"},
	)

	out, res := call(t, s, "media_search", map[string]any{"query": "alien", "content_type": "movie"})
	require.False(t, res.IsError)

	q := query()
	assert.Equal(t, "movies", q.Get("searchTypes"))
	assert.Equal(t, "movie", q.Get("type"))
	assert.EqualValues(t, 1, out["total_count"])
	assert.Equal(t, []any{"movie"}, out["type_order"])
}

func TestMediaSearch_UnmappedContentTypeSentAsType(t *testing.T) {
	s, query := searchPlex(t,
		map[string]any{"ratingKey": "7", "type": "season", "title": "Season 1", "parentTitle": "Space", "index": 1},
	)

	out, res := call(t, s, "media_search", map[string]any{"query": "space", "content_type": "season"})
	require.False(t, res.IsError)

	q := query()
	assert.Equal(t, "season", q.Get("type"))
	assert.False(t, q.Has("searchTypes"))

	season := out["results_by_type"].(map[string]any)["season"].([]any)[0].(map[string]any)
	assert.Equal(t, "Space", season["show_title"])
}

func TestMediaSearch_ContentTypeListSentAsSearchTypes(t *testing.T) {
	s, query := searchPlex(t,
		map[string]any{"ratingKey": "1", "type": "movie", "title": "Alien"},
		map[string]any{"ratingKey": "2", "type": "show", "title": "Alien Worlds"},
	)

	out, res := call(t, s, "media_search", map[string]any{"query": "alien", "content_type": "movies,tv"})
	require.False(t, res.IsError)

	q := query()
	assert.Equal(t, "movies,tv", q.Get("searchTypes"))
	assert.False(t, q.Has("type"))
	assert.EqualValues(t, 2, out["total_count"])
}

func TestMediaSearch_NoResults(t *testing.T) {
	s, _ := searchPlex(t)

	out, res := call(t, s, "media_search", map[string]any{"query": "nothing"})
	require.False(t, res.IsError)
	assert.EqualValues(t, 0, out["total_count"])
	assert.Equal(t, "No results found for 'nothing'.", out["message"])
	assert.Equal(t, []any{}, out["type_order"])
}
