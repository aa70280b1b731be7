package search

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokedexlabs/pokedex/internal/pokeapi"
)

// fakeCatalog serves a fixed set of pokemon and counts calls.
type fakeCatalog struct {
	mu        sync.Mutex
	pokemon   map[string]pokeapi.Pokemon
	listErr   error
	getErrFor map[string]error
	listCalls int
	getCalls  int
}

func newFakeCatalog(names ...string) *fakeCatalog {
	c := &fakeCatalog{pokemon: make(map[string]pokeapi.Pokemon), getErrFor: make(map[string]error)}
	for i, name := range names {
		c.pokemon[name] = pokeapi.Pokemon{ID: i + 1, Name: name}
	}
	return c
}

func (c *fakeCatalog) List(_ context.Context, params pokeapi.ListParams) (*pokeapi.Page, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listCalls++
	if c.listErr != nil {
		return nil, c.listErr
	}

	refs := make([]pokeapi.NamedRef, 0, len(c.pokemon))
	for name, p := range c.pokemon {
		refs = append(refs, pokeapi.NamedRef{
			Name: name,
			URL:  fmt.Sprintf("https://pokeapi.co/api/v2/pokemon/%d/", p.ID),
		})
	}
	// Map order is fine for these tests; slice to the window anyway.
	if params.Offset >= len(refs) {
		refs = nil
	} else {
		refs = refs[params.Offset:]
	}
	if params.Limit > 0 && len(refs) > params.Limit {
		refs = refs[:params.Limit]
	}

	page := &pokeapi.Page{Count: len(c.pokemon), Results: refs}
	if params.Limit > 0 && params.Offset+params.Limit < page.Count {
		page.Next = fmt.Sprintf("https://pokeapi.co/api/v2/pokemon?offset=%d&limit=%d", params.Offset+params.Limit, params.Limit)
	}
	return page, nil
}

func (c *fakeCatalog) Get(_ context.Context, nameOrID string) (*pokeapi.Pokemon, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getCalls++
	if err, ok := c.getErrFor[nameOrID]; ok {
		return nil, err
	}
	if p, ok := c.pokemon[nameOrID]; ok {
		return &p, nil
	}
	if id, err := strconv.Atoi(nameOrID); err == nil {
		for _, p := range c.pokemon {
			if p.ID == id {
				return &p, nil
			}
		}
	}
	return nil, pokeapi.ErrPokemonNotFound
}

func names(results []pokeapi.Pokemon) []string {
	out := make([]string, len(results))
	for i, p := range results {
		out[i] = p.Name
	}
	return out
}

func TestSearcher_ShortTermSkipsNetwork(t *testing.T) {
	cat := newFakeCatalog("pikachu")
	s := NewSearcher(cat)

	for _, term := range []string{"", "p", "  p  "} {
		results, err := s.Search(context.Background(), term)
		require.NoError(t, err)
		assert.Empty(t, results)
	}
	assert.Equal(t, 0, cat.listCalls)
	assert.Equal(t, 0, cat.getCalls)
}

func TestSearcher_SubstringMatches(t *testing.T) {
	cat := newFakeCatalog("pikachu", "pichu", "raichu", "charizard")
	s := NewSearcher(cat)

	results, err := s.Search(context.Background(), "chu")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"pikachu", "pichu", "raichu"}, names(results))
}

func TestSearcher_ExactMatchSortsFirstWithoutDuplicate(t *testing.T) {
	cat := newFakeCatalog("pichu", "pikachu")
	s := NewSearcher(cat)

	results, err := s.Search(context.Background(), "pichu")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "pichu", results[0].Name, "direct hit leads")

	// pichu matched both stages; it must appear once.
	assert.Equal(t, []string{"pichu", "pikachu"}, names(results))
}

func TestSearcher_TermNormalized(t *testing.T) {
	cat := newFakeCatalog("pikachu")
	s := NewSearcher(cat)

	results, err := s.Search(context.Background(), "  PIKA  ")
	require.NoError(t, err)
	assert.Equal(t, []string{"pikachu"}, names(results))
}

func TestSearcher_NoMatches(t *testing.T) {
	cat := newFakeCatalog("pikachu", "charizard")
	s := NewSearcher(cat)

	results, err := s.Search(context.Background(), "mewtwo")
	require.NoError(t, err)
	assert.Empty(t, results, "a failed direct lookup is not an error")
}

func TestSearcher_HydrationFailureDropsEntry(t *testing.T) {
	cat := newFakeCatalog("pikachu", "pichu")
	cat.getErrFor["pichu"] = errors.New("boom")
	s := NewSearcher(cat)

	results, err := s.Search(context.Background(), "chu")
	require.NoError(t, err)
	assert.Equal(t, []string{"pikachu"}, names(results))
}

func TestSearcher_ListFailureSurfaced(t *testing.T) {
	cat := newFakeCatalog("pikachu")
	cat.listErr = errors.New("catalog down")
	s := NewSearcher(cat)

	_, err := s.Search(context.Background(), "chu")
	assert.ErrorContains(t, err, "catalog down")
}

func TestSearcher_ListFailureToleratedOnDirectHit(t *testing.T) {
	cat := newFakeCatalog("pikachu")
	cat.listErr = errors.New("catalog down")
	s := NewSearcher(cat)

	results, err := s.Search(context.Background(), "pikachu")
	require.NoError(t, err)
	assert.Equal(t, []string{"pikachu"}, names(results))
}

func TestSearcher_MatchCap(t *testing.T) {
	all := make([]string, 0, maxMatches+10)
	for i := 0; i < maxMatches+10; i++ {
		all = append(all, fmt.Sprintf("chu-%d", i))
	}
	cat := newFakeCatalog(all...)
	s := NewSearcher(cat)

	results, err := s.Search(context.Background(), "chu")
	require.NoError(t, err)
	assert.Len(t, results, maxMatches)
}

func TestPaginator_LoadMoreAccumulates(t *testing.T) {
	names := make([]string, 0, 45)
	for i := 0; i < 45; i++ {
		names = append(names, fmt.Sprintf("mon-%02d", i))
	}
	cat := newFakeCatalog(names...)
	p := NewPaginator(cat, 20)
	ctx := context.Background()

	require.True(t, p.HasNext())

	batch, err := p.LoadMore(ctx)
	require.NoError(t, err)
	assert.Len(t, batch, 20)
	assert.Equal(t, 20, p.Loaded())
	assert.Equal(t, 45, p.Total())
	assert.True(t, p.HasNext())

	_, err = p.LoadMore(ctx)
	require.NoError(t, err)
	batch, err = p.LoadMore(ctx)
	require.NoError(t, err)
	assert.Len(t, batch, 5)
	assert.Equal(t, 45, p.Loaded())
	assert.False(t, p.HasNext())

	// Exhausted: further loads are no-ops.
	batch, err = p.LoadMore(ctx)
	require.NoError(t, err)
	assert.Nil(t, batch)
	assert.Equal(t, 45, p.Loaded())
}

func TestPaginator_Reset(t *testing.T) {
	cat := newFakeCatalog("pikachu", "charizard")
	p := NewPaginator(cat, 1)
	ctx := context.Background()

	_, err := p.LoadMore(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, p.Loaded())

	p.Reset()
	assert.Zero(t, p.Loaded())
	assert.True(t, p.HasNext())

	_, err = p.LoadMore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Loaded())
}
