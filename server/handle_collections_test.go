package server

import (
	"net/http"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var movieSections = respond(map[string]any{"Directory": []any{
	map[string]any{"key": "1", "type": "movie", "title": "Movies"},
	map[string]any{"key": "2", "type": "show", "title": "TV Shows"},
}})

// sectionSearch answers a section's /all listing by title.
func sectionSearch(byTitle map[string][]any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		container(w, map[string]any{"Metadata": byTitle[r.URL.Query().Get("title")]})
	}
}

func TestCollectionCreate_PossibleMatches(t *testing.T) {
	var created atomic.Int32
	srv := fakePlex(t, map[string]http.HandlerFunc{
		"/library/sections":               movieSections,
		"/library/sections/1/collections": respond(map[string]any{"size": 0}),
		"/library/sections/1/all": sectionSearch(map[string][]any{
			"Alien": {
				map[string]any{"ratingKey": "11", "type": "movie", "title": "Aliens", "year": 1986},
				map[string]any{"ratingKey": "12", "type": "movie", "title": "Alien 3", "year": 1992},
			},
		}),
		"POST /library/collections": func(w http.ResponseWriter, r *http.Request) {
			created.Add(1)
		},
	})

	out, res := call(t, testServer(t, srv.URL), "collection_create", map[string]any{
		"collection_title": "Xenomorphs",
		"library_name":     "Movies",
		"item_titles":      []string{"Alien"},
	})
	require.False(t, res.IsError)
	assert.Equal(t, "error", out["status"])
	assert.Equal(t, false, out["created"])
	assert.Equal(t, "No exact matches found. See possible_matches.", out["message"])

	possible := out["possible_matches"].([]any)
	require.Len(t, possible, 2)
	first := possible[0].(map[string]any)
	assert.Equal(t, "Aliens", first["title"])
	assert.EqualValues(t, 11, first["id"])
	assert.EqualValues(t, 1986, first["year"])
	assert.Zero(t, created.Load())
}

func TestCollectionCreate_ExistingCollection(t *testing.T) {
	srv := fakePlex(t, map[string]http.HandlerFunc{
		"/library/sections": movieSections,
		"/library/sections/1/collections": respond(map[string]any{"Metadata": []any{
			map[string]any{"ratingKey": "90", "type": "collection", "title": "xenomorphs", "childCount": 2},
		}}),
	})

	out, res := call(t, testServer(t, srv.URL), "collection_create", map[string]any{
		"collection_title": "Xenomorphs",
		"library_name":     "Movies",
		"item_ids":         []any{11},
	})
	assert.True(t, res.IsError)
	assert.Equal(t, "collection 'Xenomorphs' already exists in library 'Movies'", out["message"])
}

func TestCollectionCreate_FromExactTitles(t *testing.T) {
	sent := make(chan url.Values, 1)
	srv := fakePlex(t, map[string]http.HandlerFunc{
		"/library/sections":               movieSections,
		"/library/sections/1/collections": respond(map[string]any{"size": 0}),
		"/library/sections/1/all": sectionSearch(map[string][]any{
			"alien": {
				map[string]any{"ratingKey": "12", "type": "movie", "title": "Alien 3"},
				map[string]any{"ratingKey": "10", "type": "movie", "title": "Alien"},
			},
		}),
		"POST /library/collections": func(w http.ResponseWriter, r *http.Request) {
			sent <- r.URL.Query()
			container(w, map[string]any{"Metadata": []any{
				map[string]any{"ratingKey": "91", "type": "collection", "title": "Xenomorphs"},
			}})
		},
	})

	out, res := call(t, testServer(t, srv.URL), "collection_create", map[string]any{
		"collection_title": "Xenomorphs",
		"library_name":     "Movies",
		"item_titles":      []string{"alien", "Predator"},
	})
	require.False(t, res.IsError, out["message"])
	assert.Equal(t, "success", out["status"])
	assert.EqualValues(t, 91, out["id"])
	assert.EqualValues(t, 1, out["items_added"])
	assert.Equal(t, []any{"Predator"}, out["items_not_found"])
	q := <-sent
	assert.Equal(t, "Xenomorphs", q.Get("title"))
	assert.Equal(t, "1", q.Get("type"))
	assert.Equal(t, "server://server-1/com.plexapp.plugins.library/library/metadata/10", q.Get("uri"))
}

func TestCollectionAddTo_MultipleMatches(t *testing.T) {
	srv := fakePlex(t, map[string]http.HandlerFunc{
		"/library/sections": movieSections,
		"/library/sections/1/collections": respond(map[string]any{"Metadata": []any{
			map[string]any{"ratingKey": "90", "type": "collection", "title": "Favourites", "childCount": 4},
			map[string]any{"ratingKey": "91", "type": "collection", "title": "favourites", "childCount": 1},
			map[string]any{"ratingKey": "92", "type": "collection", "title": "Other"},
		}}),
	})

	out, res := call(t, testServer(t, srv.URL), "collection_add_to", map[string]any{
		"collection_title": "Favourites",
		"library_name":     "Movies",
		"item_ids":         []any{"11"},
	})
	require.False(t, res.IsError)
	assert.Equal(t, "multiple_matches", out["status"])

	refs := out["multiple_collections"].([]any)
	require.Len(t, refs, 2)
	assert.Equal(t, map[string]any{"title": "Favourites", "id": float64(90), "items": float64(4)}, refs[0])
	assert.Equal(t, map[string]any{"title": "favourites", "id": float64(91), "items": float64(1)}, refs[1])
}

func TestCollectionAddTo_NeedsLibraryForTitle(t *testing.T) {
	srv := fakePlex(t, nil)
	out, res := call(t, testServer(t, srv.URL), "collection_add_to", map[string]any{
		"collection_title": "Favourites",
		"item_ids":         []any{11},
	})
	assert.True(t, res.IsError)
	assert.Equal(t, "library name is required when adding items by collection title", out["message"])
}
