package search

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pokedexlabs/pokedex/internal/pokeapi"
)

const (
	// scanLimit is how many catalog entries the substring stage scans.
	scanLimit = 1000
	// maxMatches caps how many scan hits get hydrated.
	maxMatches = 20
)

// Searcher resolves free-text terms against the catalog in two stages:
// an exact name-or-id lookup and a substring scan over the entry index,
// with the scan's hits hydrated into full records in parallel.
type Searcher struct {
	catalog pokeapi.Catalog
}

// NewSearcher creates a searcher over the catalog.
func NewSearcher(catalog pokeapi.Catalog) *Searcher {
	return &Searcher{catalog: catalog}
}

// Search returns the merged, deduplicated matches for term. Terms
// shorter than MinTermLength return nil without touching the network.
// An exact match sorts first.
func (s *Searcher) Search(ctx context.Context, term string) ([]pokeapi.Pokemon, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if len(term) < MinTermLength {
		return nil, nil
	}

	var (
		wg      sync.WaitGroup
		direct  *pokeapi.Pokemon
		page    *pokeapi.Page
		listErr error
	)

	// The direct lookup and the index scan are independent. A failed
	// direct lookup is just "no exact match": most terms are not full
	// names or ids.
	wg.Add(2)
	go func() {
		defer wg.Done()
		if p, err := s.catalog.Get(ctx, term); err == nil {
			direct = p
		}
	}()
	go func() {
		defer wg.Done()
		page, listErr = s.catalog.List(ctx, pokeapi.ListParams{Limit: scanLimit})
	}()
	wg.Wait()

	if listErr != nil {
		if direct != nil {
			return []pokeapi.Pokemon{*direct}, nil
		}
		return nil, fmt.Errorf("search %q: %w", term, listErr)
	}

	matches := filterRefs(page.Results, term)
	hydrated := s.hydrate(ctx, matches)

	return merge(direct, hydrated), nil
}

// filterRefs returns up to maxMatches refs whose name contains term.
func filterRefs(refs []pokeapi.NamedRef, term string) []pokeapi.NamedRef {
	var out []pokeapi.NamedRef
	for _, ref := range refs {
		if strings.Contains(strings.ToLower(ref.Name), term) {
			out = append(out, ref)
			if len(out) == maxMatches {
				break
			}
		}
	}
	return out
}

// hydrate fetches full records for the refs in parallel, preserving
// order. Individual failures drop the ref rather than failing the
// whole search.
func (s *Searcher) hydrate(ctx context.Context, refs []pokeapi.NamedRef) []pokeapi.Pokemon {
	results := make([]*pokeapi.Pokemon, len(refs))

	var wg sync.WaitGroup
	for i, ref := range refs {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			if p, err := s.catalog.Get(ctx, name); err == nil {
				results[i] = p
			}
		}(i, ref.Name)
	}
	wg.Wait()

	out := make([]pokeapi.Pokemon, 0, len(refs))
	for _, p := range results {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out
}

// merge prepends the direct hit and drops id duplicates.
func merge(direct *pokeapi.Pokemon, hydrated []pokeapi.Pokemon) []pokeapi.Pokemon {
	seen := make(map[int]struct{}, len(hydrated)+1)
	out := make([]pokeapi.Pokemon, 0, len(hydrated)+1)

	if direct != nil {
		seen[direct.ID] = struct{}{}
		out = append(out, *direct)
	}
	for _, p := range hydrated {
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}
