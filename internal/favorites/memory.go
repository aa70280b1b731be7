package favorites

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store. Used by tests and as the fallback
// when no data directory is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record // keyed by record id
	hub     *watchHub
	now     func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]Record),
		hub:     newWatchHub(),
		now:     time.Now,
	}
}

// Add inserts a record. Returns ErrAlreadyFavorited for a duplicate
// (owner, pokemon) pair.
func (s *MemoryStore) Add(_ context.Context, ownerID string, fav Favorite) (string, error) {
	s.mu.Lock()
	for _, r := range s.records {
		if r.OwnerID == ownerID && r.PokemonID == fav.PokemonID {
			s.mu.Unlock()
			return "", ErrAlreadyFavorited
		}
	}

	rec := Record{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		PokemonID:   fav.PokemonID,
		PokemonName: fav.PokemonName,
		ImageURL:    fav.ImageURL,
		CreatedAt:   s.now().UTC(),
	}
	s.records[rec.ID] = rec
	list := s.listLocked(ownerID)
	s.mu.Unlock()

	s.hub.broadcast(ownerID, list)
	return rec.ID, nil
}

// Remove deletes by id. Unknown ids are a no-op.
func (s *MemoryStore) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	rec, ok := s.records[id]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	delete(s.records, id)
	list := s.listLocked(rec.OwnerID)
	s.mu.Unlock()

	s.hub.broadcast(rec.OwnerID, list)
	return nil
}

// ListByOwner returns the owner's records, newest first.
func (s *MemoryStore) ListByOwner(_ context.Context, ownerID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked(ownerID), nil
}

// Find returns the owner's record for the pokemon, or nil.
func (s *MemoryStore) Find(_ context.Context, ownerID string, pokemonID int) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if r.OwnerID == ownerID && r.PokemonID == pokemonID {
			rec := r
			return &rec, nil
		}
	}
	return nil, nil
}

// IDsByOwner returns the pokemon ids the owner has favorited.
func (s *MemoryStore) IDsByOwner(ctx context.Context, ownerID string) ([]int, error) {
	records, err := s.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.PokemonID)
	}
	return ids, nil
}

// Watch subscribes to the owner's records.
func (s *MemoryStore) Watch(ownerID string) (<-chan []Record, func()) {
	return s.hub.watch(ownerID)
}

// listLocked collects and sorts the owner's records. Caller holds s.mu.
func (s *MemoryStore) listLocked(ownerID string) []Record {
	out := make([]Record, 0)
	for _, r := range s.records {
		if r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].PokemonID < out[j].PokemonID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
