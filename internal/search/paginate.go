package search

import (
	"context"
	"fmt"
	"sync"

	"github.com/pokedexlabs/pokedex/internal/pokeapi"
)

// Paginator accumulates catalog pages for infinite scrolling. Each
// LoadMore fetches the next fixed-size page and appends it; HasNext
// mirrors the presence of a next cursor on the last page seen.
type Paginator struct {
	mu       sync.Mutex
	catalog  pokeapi.Catalog
	pageSize int
	pages    int
	total    int
	items    []pokeapi.NamedRef
	hasNext  bool
}

// NewPaginator creates a paginator over the catalog.
func NewPaginator(catalog pokeapi.Catalog, pageSize int) *Paginator {
	if pageSize <= 0 {
		pageSize = pokeapi.DefaultPageSize
	}
	return &Paginator{catalog: catalog, pageSize: pageSize, hasNext: true}
}

// LoadMore fetches the next page and returns the newly appended refs.
// Returns nil once the catalog is exhausted.
func (p *Paginator) LoadMore(ctx context.Context) ([]pokeapi.NamedRef, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.hasNext {
		return nil, nil
	}

	page, err := p.catalog.List(ctx, pokeapi.ListParams{
		Limit:  p.pageSize,
		Offset: p.pages * p.pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("load page %d: %w", p.pages, err)
	}

	p.pages++
	p.total = page.Count
	p.hasNext = page.HasNext()
	p.items = append(p.items, page.Results...)
	return page.Results, nil
}

// Items returns every ref loaded so far.
func (p *Paginator) Items() []pokeapi.NamedRef {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]pokeapi.NamedRef, len(p.items))
	copy(out, p.items)
	return out
}

// HasNext reports whether another page is available.
func (p *Paginator) HasNext() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasNext
}

// Total returns the catalog-wide entry count from the last page.
func (p *Paginator) Total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total
}

// Loaded returns how many refs are loaded.
func (p *Paginator) Loaded() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}

// Reset drops the loaded pages so iteration starts over.
func (p *Paginator) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pages = 0
	p.total = 0
	p.items = nil
	p.hasNext = true
}
