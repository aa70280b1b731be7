package pokeapi

import (
	"context"
	"strconv"
	"strings"

	"github.com/pokedexlabs/pokedex/internal/query"
	"github.com/pokedexlabs/pokedex/internal/retry"
)

// Catalog is the read surface shared by Client and Service.
type Catalog interface {
	List(ctx context.Context, params ListParams) (*Page, error)
	Get(ctx context.Context, nameOrID string) (*Pokemon, error)
}

var (
	_ Catalog = (*Client)(nil)
	_ Catalog = (*Service)(nil)
)

// Service layers the query cache and the read retry policy over a
// Client. Catalog data is immutable from our perspective, so every
// query is safely cacheable.
type Service struct {
	client *Client
	cache  *query.Cache
	read   retry.Policy
}

// NewService creates a cached, retrying catalog service.
func NewService(client *Client, cache *query.Cache) *Service {
	return &Service{client: client, cache: cache, read: retry.ReadPolicy()}
}

// List fetches one catalog page through the cache.
func (s *Service) List(ctx context.Context, params ListParams) (*Page, error) {
	if params.Limit <= 0 {
		params.Limit = DefaultPageSize
	}
	key := query.NewKey("pokemon", "list", strconv.Itoa(params.Limit), strconv.Itoa(params.Offset))
	return query.FetchAs(ctx, s.cache, key, func(ctx context.Context) (*Page, error) {
		return retry.DoValue(ctx, s.read, func() (*Page, error) {
			return s.client.List(ctx, params)
		})
	})
}

// Get fetches one pokemon through the cache. ErrPokemonNotFound is
// final: the retry policy only re-attempts transient HTTP failures.
func (s *Service) Get(ctx context.Context, nameOrID string) (*Pokemon, error) {
	cacheKey := strings.ToLower(strings.TrimSpace(nameOrID))
	key := query.NewKey("pokemon", "detail", cacheKey)
	return query.FetchAs(ctx, s.cache, key, func(ctx context.Context) (*Pokemon, error) {
		return retry.DoValue(ctx, s.read, func() (*Pokemon, error) {
			return s.client.Get(ctx, nameOrID)
		})
	})
}
