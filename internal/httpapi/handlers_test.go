package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokedexlabs/pokedex/internal/catalog"
	"github.com/pokedexlabs/pokedex/internal/pokeapi"
)

func newTestServer(t *testing.T, seed int) (*httptest.Server, *catalog.Store) {
	t.Helper()
	st := catalog.New()
	if seed > 0 {
		st.Seed(seed)
	}
	srv := httptest.NewServer((&Server{Store: st}).Routes())
	t.Cleanup(srv.Close)
	return srv, st
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp.StatusCode
}

func TestHandleList_Pagination(t *testing.T) {
	srv, _ := newTestServer(t, 45)

	var page pokeapi.Page
	status := getJSON(t, srv.URL+"/api/v2/pokemon?limit=20&offset=0", &page)
	require.Equal(t, http.StatusOK, status)

	assert.Equal(t, 45, page.Count)
	assert.Len(t, page.Results, 20)
	assert.NotEmpty(t, page.Next)
	assert.Empty(t, page.Previous, "first page has no previous cursor")

	var last pokeapi.Page
	status = getJSON(t, srv.URL+"/api/v2/pokemon?limit=20&offset=40", &last)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, last.Results, 5)
	assert.Empty(t, last.Next, "terminal page has no next cursor")
	assert.NotEmpty(t, last.Previous)
}

func TestHandleList_DefaultsAndBadParams(t *testing.T) {
	srv, _ := newTestServer(t, 30)

	var page pokeapi.Page
	status := getJSON(t, srv.URL+"/api/v2/pokemon?limit=bogus&offset=-5", &page)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, page.Results, pokeapi.DefaultPageSize)
}

func TestHandleGet_ByNameAndID(t *testing.T) {
	srv, st := newTestServer(t, 0)
	st.Put(pokeapi.Pokemon{ID: 25, Name: "pikachu"})

	var p pokeapi.Pokemon
	status := getJSON(t, srv.URL+"/api/v2/pokemon/pikachu", &p)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 25, p.ID)

	status = getJSON(t, srv.URL+"/api/v2/pokemon/25/", &p)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "pikachu", p.Name)
}

func TestHandleGet_NotFound(t *testing.T) {
	srv, _ := newTestServer(t, 5)

	var body map[string]any
	status := getJSON(t, srv.URL+"/api/v2/pokemon/mewtwo", &body)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Not Found", body["error"])
}

func TestHandleSeed(t *testing.T) {
	srv, st := newTestServer(t, 0)

	resp, err := http.Post(srv.URL+"/admin/v1/seed?count=30", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 30, st.Len())

	// Seeding is POST-only.
	getResp, err := http.Get(srv.URL + "/admin/v1/seed")
	require.NoError(t, err)
	getResp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, getResp.StatusCode)
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, 10)

	var health map[string]any
	status := getJSON(t, srv.URL+"/healthz", &health)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", health["status"])

	var ready map[string]any
	status = getJSON(t, srv.URL+"/readyz", &ready)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, ready["loaded"])
}

func TestServerSpeaksClientWireFormat(t *testing.T) {
	srv, st := newTestServer(t, 0)
	st.Seed(25)

	client := pokeapi.New(srv.URL + "/api/v2")
	ctx := context.Background()

	page, err := client.List(ctx, pokeapi.ListParams{Limit: 20})
	require.NoError(t, err)
	require.Len(t, page.Results, 20)
	assert.True(t, page.HasNext())

	p, err := client.Get(ctx, page.Results[0].Name)
	require.NoError(t, err)
	assert.Equal(t, 1, p.ID)

	_, err = client.Get(ctx, "definitely-not-real")
	assert.ErrorIs(t, err, pokeapi.ErrPokemonNotFound)
}
