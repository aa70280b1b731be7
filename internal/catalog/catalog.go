// Package catalog provides the in-memory pokemon store behind the
// local catalog server, for demos and offline development against a
// PokeAPI-compatible surface.
package catalog

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/pokedexlabs/pokedex/internal/pokeapi"
)

// typeNames is the pool of elemental types used when seeding.
var typeNames = []string{
	"normal", "fire", "water", "electric", "grass", "ice",
	"fighting", "poison", "ground", "flying", "psychic", "bug",
	"rock", "ghost", "dragon", "dark", "steel", "fairy",
}

// statNames in canonical API order.
var statNames = []string{
	"hp", "attack", "defense", "special-attack", "special-defense", "speed",
}

// Store is a thread-safe in-memory pokemon catalog.
type Store struct {
	mu     sync.RWMutex
	byName map[string]pokeapi.Pokemon
	byID   map[int]pokeapi.Pokemon
	order  []string // names sorted by id
}

// New creates a new empty Store.
func New() *Store {
	return &Store{
		byName: make(map[string]pokeapi.Pokemon),
		byID:   make(map[int]pokeapi.Pokemon),
	}
}

// Put adds or replaces an entry.
func (s *Store) Put(p pokeapi.Pokemon) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.Name = strings.ToLower(p.Name)
	if old, ok := s.byID[p.ID]; ok {
		delete(s.byName, old.Name)
	}
	s.byName[p.Name] = p
	s.byID[p.ID] = p
	s.reorderLocked()
}

func (s *Store) reorderLocked() {
	s.order = s.order[:0]
	for name := range s.byName {
		s.order = append(s.order, name)
	}
	sort.Slice(s.order, func(i, j int) bool {
		return s.byName[s.order[i]].ID < s.byName[s.order[j]].ID
	})
}

// Seed populates the store with count fake pokemon.
func (s *Store) Seed(count int) {
	gofakeit.Seed(time.Now().UnixNano())

	s.mu.Lock()
	defer s.mu.Unlock()

	s.byName = make(map[string]pokeapi.Pokemon, count)
	s.byID = make(map[int]pokeapi.Pokemon, count)
	s.order = make([]string, 0, count)

	for id := 1; id <= count; id++ {
		p := fakePokemon(id)
		for _, taken := s.byName[p.Name]; taken; _, taken = s.byName[p.Name] {
			p.Name += "-" + strconv.Itoa(id)
		}
		s.byName[p.Name] = p
		s.byID[id] = p
		s.order = append(s.order, p.Name)
	}
}

func fakePokemon(id int) pokeapi.Pokemon {
	name := strings.ToLower(gofakeit.AdjectiveDescriptive() + "-" + gofakeit.Animal())
	name = strings.ReplaceAll(name, " ", "-")

	count := 1 + gofakeit.Number(0, 1)
	types := make([]pokeapi.TypeSlot, 0, count)
	seen := make(map[string]struct{}, count)
	for len(types) < count {
		tn := typeNames[gofakeit.Number(0, len(typeNames)-1)]
		if _, dup := seen[tn]; dup {
			continue
		}
		seen[tn] = struct{}{}
		types = append(types, pokeapi.TypeSlot{
			Slot: len(types) + 1,
			Type: pokeapi.NamedRef{Name: tn},
		})
	}

	stats := make([]pokeapi.Stat, 0, len(statNames))
	for _, sn := range statNames {
		stats = append(stats, pokeapi.Stat{
			BaseStat: gofakeit.Number(20, 160),
			Stat:     pokeapi.NamedRef{Name: sn},
		})
	}

	idStr := strconv.Itoa(id)
	return pokeapi.Pokemon{
		ID:     id,
		Name:   name,
		Height: gofakeit.Number(1, 50),
		Weight: gofakeit.Number(10, 5000),
		Types:  types,
		Stats:  stats,
		Sprites: pokeapi.Sprites{
			FrontDefault: "https://sprites.pokedexlabs.dev/" + idStr + ".png",
			Other: pokeapi.OtherSprites{
				OfficialArtwork: pokeapi.ArtworkSprites{
					FrontDefault: "https://sprites.pokedexlabs.dev/art/" + idStr + ".png",
				},
			},
		},
		Abilities: []pokeapi.Ability{
			{Ability: pokeapi.NamedRef{Name: strings.ToLower(gofakeit.HackerVerb())}},
		},
	}
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// List returns one window of the catalog ordered by id, plus the total
// entry count.
func (s *Store) List(limit, offset int) ([]pokeapi.Pokemon, int) {
	if limit <= 0 {
		limit = pokeapi.DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	total := len(s.order)
	if offset >= total {
		return nil, total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	out := make([]pokeapi.Pokemon, 0, end-offset)
	for _, name := range s.order[offset:end] {
		out = append(out, s.byName[name])
	}
	return out, total
}

// Get retrieves an entry by name or numeric id.
func (s *Store) Get(key string) (pokeapi.Pokemon, bool) {
	key = strings.ToLower(strings.TrimSpace(key))

	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.byName[key]; ok {
		return p, true
	}
	if id, err := strconv.Atoi(key); err == nil {
		p, ok := s.byID[id]
		return p, ok
	}
	return pokeapi.Pokemon{}, false
}
