package favorites

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokedexlabs/pokedex/internal/query"
)

// staticIdent is a fixed-uid Identity.
type staticIdent struct{ uid string }

func (s staticIdent) UID() string { return s.uid }

// countingStore wraps a Store and counts calls, to verify that disabled
// queries never touch the store.
type countingStore struct {
	Store
	addCalls  int
	findCalls int
	listCalls int
}

func (c *countingStore) Add(ctx context.Context, ownerID string, fav Favorite) (string, error) {
	c.addCalls++
	return c.Store.Add(ctx, ownerID, fav)
}

func (c *countingStore) Find(ctx context.Context, ownerID string, pokemonID int) (*Record, error) {
	c.findCalls++
	return c.Store.Find(ctx, ownerID, pokemonID)
}

func (c *countingStore) ListByOwner(ctx context.Context, ownerID string) ([]Record, error) {
	c.listCalls++
	return c.Store.ListByOwner(ctx, ownerID)
}

func newTestService(uid string) (*Service, *countingStore) {
	st := &countingStore{Store: NewMemoryStore()}
	return NewService(st, query.New(), staticIdent{uid: uid}), st
}

func TestService_UnauthenticatedMutationsFailFast(t *testing.T) {
	svc, st := newTestService("")
	ctx := context.Background()

	_, err := svc.Add(ctx, Favorite{PokemonID: 1, PokemonName: "bulbasaur"})
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Equal(t, 0, st.addCalls, "no store call may be attempted")

	err = svc.Remove(ctx, "some-id", 1)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, _, err = svc.Watch(ctx)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestService_UnauthenticatedReadsDisabled(t *testing.T) {
	svc, st := newTestService("")
	ctx := context.Background()

	records, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, 0, st.listCalls)

	status, err := svc.IsFavorited(ctx, 25)
	require.NoError(t, err)
	assert.False(t, status.Favorited)
	assert.Equal(t, 0, st.findCalls)
}

func TestService_IsFavoritedDisabledForZeroID(t *testing.T) {
	svc, st := newTestService("u1")
	status, err := svc.IsFavorited(context.Background(), 0)
	require.NoError(t, err)
	assert.False(t, status.Favorited)
	assert.Empty(t, status.FavoriteID)
	assert.Equal(t, 0, st.findCalls)
}

func TestService_AddListRoundTrip(t *testing.T) {
	svc, _ := newTestService("u1")
	ctx := context.Background()

	id, err := svc.Add(ctx, Favorite{PokemonID: 25, PokemonName: "pikachu", ImageURL: "pika.png"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	records, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 25, records[0].PokemonID)

	status, err := svc.IsFavorited(ctx, 25)
	require.NoError(t, err)
	assert.True(t, status.Favorited)
	assert.Equal(t, id, status.FavoriteID)
}

func TestService_MutationInvalidatesCachedQueries(t *testing.T) {
	svc, st := newTestService("u1")
	ctx := context.Background()

	// Prime the caches.
	_, err := svc.List(ctx)
	require.NoError(t, err)
	_, err = svc.IsFavorited(ctx, 25)
	require.NoError(t, err)
	require.Equal(t, 1, st.listCalls)
	require.Equal(t, 1, st.findCalls)

	// Cached: no extra store calls.
	_, _ = svc.List(ctx)
	_, _ = svc.IsFavorited(ctx, 25)
	require.Equal(t, 1, st.listCalls)
	require.Equal(t, 1, st.findCalls)

	// Mutation invalidates both the list and the touched detail.
	id, err := svc.Add(ctx, Favorite{PokemonID: 25, PokemonName: "pikachu"})
	require.NoError(t, err)

	records, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 2, st.listCalls)

	status, err := svc.IsFavorited(ctx, 25)
	require.NoError(t, err)
	assert.True(t, status.Favorited)
	assert.Equal(t, id, status.FavoriteID)
	assert.Equal(t, 2, st.findCalls)
}

func TestService_RemoveUnknownPokemonInvalidatesAllDetails(t *testing.T) {
	svc, st := newTestService("u1")
	ctx := context.Background()

	id, err := svc.Add(ctx, Favorite{PokemonID: 25, PokemonName: "pikachu"})
	require.NoError(t, err)

	// Prime two detail queries.
	_, err = svc.IsFavorited(ctx, 25)
	require.NoError(t, err)
	_, err = svc.IsFavorited(ctx, 6)
	require.NoError(t, err)
	calls := st.findCalls

	// Remove without a pokemon id: the coarse invalidation drops every
	// detail entry for the user.
	require.NoError(t, svc.Remove(ctx, id, 0))

	_, err = svc.IsFavorited(ctx, 25)
	require.NoError(t, err)
	_, err = svc.IsFavorited(ctx, 6)
	require.NoError(t, err)
	assert.Equal(t, calls+2, st.findCalls)
}

func TestService_Toggle(t *testing.T) {
	svc, _ := newTestService("u1")
	ctx := context.Background()

	fav := Favorite{PokemonID: 25, PokemonName: "pikachu"}

	// Not favorited: toggle adds.
	id, err := svc.Toggle(ctx, fav, Status{})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	status, err := svc.IsFavorited(ctx, 25)
	require.NoError(t, err)
	require.True(t, status.Favorited)

	// Favorited: toggle removes.
	out, err := svc.Toggle(ctx, fav, status)
	require.NoError(t, err)
	assert.Empty(t, out)

	status, err = svc.IsFavorited(ctx, 25)
	require.NoError(t, err)
	assert.False(t, status.Favorited)
}

func TestService_WatchRefreshesCache(t *testing.T) {
	svc, st := newTestService("u1")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, stop, err := svc.Watch(ctx)
	require.NoError(t, err)
	defer stop()

	recv := func() []Record {
		t.Helper()
		select {
		case records := <-ch:
			return records
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for watch update")
			return nil
		}
	}

	// The subscription replays the current (empty) list first.
	require.Empty(t, recv())

	_, err = svc.Add(ctx, Favorite{PokemonID: 25, PokemonName: "pikachu"})
	require.NoError(t, err)
	require.Len(t, recv(), 1)

	// The push already refreshed the cached list; List serves it
	// without another store read.
	listCalls := st.listCalls
	records, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, listCalls, st.listCalls)
}
