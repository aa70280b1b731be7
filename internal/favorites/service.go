package favorites

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pokedexlabs/pokedex/internal/query"
)

// Identity supplies the acting user. Satisfied by auth.Session.
type Identity interface {
	// UID returns the signed-in user's id, or "" when signed out.
	UID() string
}

// Status is the result of a point favorited-check.
type Status struct {
	Favorited  bool
	FavoriteID string
}

// Service layers the query cache and auth gating over a Store. Reads
// for a signed-out user are disabled (empty results, no store calls);
// mutations fail fast with ErrNotAuthenticated.
type Service struct {
	store Store
	cache *query.Cache
	ident Identity
}

// NewService creates a favorites service.
func NewService(store Store, cache *query.Cache, ident Identity) *Service {
	return &Service{store: store, cache: cache, ident: ident}
}

func listKey(uid string) query.Key {
	return query.NewKey("favorites", uid, "list")
}

func detailKey(uid string, pokemonID int) query.Key {
	return query.NewKey("favorites", uid, "detail", strconv.Itoa(pokemonID))
}

func detailPrefix(uid string) query.Key {
	return query.NewKey("favorites", uid, "detail")
}

// List returns the user's favorites, newest first. Signed out: empty.
func (s *Service) List(ctx context.Context) ([]Record, error) {
	uid := s.ident.UID()
	if uid == "" {
		return nil, nil
	}
	return query.FetchAs(ctx, s.cache, listKey(uid), func(ctx context.Context) ([]Record, error) {
		return s.store.ListByOwner(ctx, uid)
	})
}

// IDs returns the pokemon ids the user has favorited. Signed out: empty.
func (s *Service) IDs(ctx context.Context) ([]int, error) {
	records, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.PokemonID)
	}
	return ids, nil
}

// IsFavorited reports whether the user has favorited the pokemon.
// Disabled (negative, no store call) when signed out or pokemonID is 0.
func (s *Service) IsFavorited(ctx context.Context, pokemonID int) (Status, error) {
	uid := s.ident.UID()
	if uid == "" || pokemonID == 0 {
		return Status{}, nil
	}
	return query.FetchAs(ctx, s.cache, detailKey(uid, pokemonID), func(ctx context.Context) (Status, error) {
		rec, err := s.store.Find(ctx, uid, pokemonID)
		if err != nil {
			return Status{}, err
		}
		if rec == nil {
			return Status{}, nil
		}
		return Status{Favorited: true, FavoriteID: rec.ID}, nil
	})
}

// Add creates a favorite for the signed-in user and invalidates the
// affected queries.
func (s *Service) Add(ctx context.Context, fav Favorite) (string, error) {
	uid := s.ident.UID()
	if uid == "" {
		return "", ErrNotAuthenticated
	}

	id, err := s.store.Add(ctx, uid, fav)
	if err != nil {
		return "", fmt.Errorf("add favorite: %w", err)
	}

	s.cache.Invalidate(listKey(uid))
	s.cache.Invalidate(detailKey(uid, fav.PokemonID))
	return id, nil
}

// Remove deletes a favorite by record id. pokemonID scopes the detail
// invalidation; pass 0 when unknown and every detail query for the user
// is invalidated instead (coarser, but safe).
func (s *Service) Remove(ctx context.Context, favoriteID string, pokemonID int) error {
	uid := s.ident.UID()
	if uid == "" {
		return ErrNotAuthenticated
	}

	if err := s.store.Remove(ctx, favoriteID); err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}

	s.cache.Invalidate(listKey(uid))
	if pokemonID != 0 {
		s.cache.Invalidate(detailKey(uid, pokemonID))
	} else {
		s.cache.InvalidatePrefix(detailPrefix(uid))
	}
	return nil
}

// Toggle adds or removes based on the caller-observed state.
// Returns the new favorite id when adding, "" when removing.
func (s *Service) Toggle(ctx context.Context, fav Favorite, status Status) (string, error) {
	if status.Favorited {
		return "", s.Remove(ctx, status.FavoriteID, fav.PokemonID)
	}
	return s.Add(ctx, fav)
}

// Watch opens a live subscription on the signed-in user's favorites.
// The current list is delivered as the first push, then one push per
// change. Each push refreshes the cached list and drops stale detail
// entries. The returned stop func must be called to release the
// subscription.
func (s *Service) Watch(ctx context.Context) (<-chan []Record, func(), error) {
	uid := s.ident.UID()
	if uid == "" {
		return nil, nil, ErrNotAuthenticated
	}

	raw, unsubscribe := s.store.Watch(uid)
	out := make(chan []Record, 1)

	// Initial snapshot. A store push that lands between the subscribe
	// and this read supersedes it in the loop below.
	if initial, err := s.store.ListByOwner(ctx, uid); err == nil {
		s.cache.Put(listKey(uid), initial)
		out <- initial
	}

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case records, ok := <-raw:
				if !ok {
					return
				}
				s.cache.Put(listKey(uid), records)
				s.cache.InvalidatePrefix(detailPrefix(uid))
				select {
				case out <- records:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, unsubscribe, nil
}
