// Package pokeapi provides a read-only client for a PokeAPI-compatible
// catalog (the public pokeapi.co instance or a local pokedexd mirror).
package pokeapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/pokedexlabs/pokedex/internal/httpclient"
)

// DefaultBaseURL is the public PokeAPI endpoint.
const DefaultBaseURL = "https://pokeapi.co/api/v2"

// DefaultPageSize is the catalog page size used for browsing.
const DefaultPageSize = 20

// ErrPokemonNotFound is returned when a pokemon doesn't exist.
var ErrPokemonNotFound = errors.New("pokemon not found")

// Client is a read-only catalog client.
type Client struct {
	http *httpclient.Client
}

// New creates a catalog client. An empty baseURL selects the public API.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{http: httpclient.New(baseURL)}
}

// NewWithHTTP creates a catalog client over an existing httpclient.Client.
func NewWithHTTP(hc *httpclient.Client) *Client {
	return &Client{http: hc}
}

// BaseURL returns the configured base endpoint.
func (c *Client) BaseURL() string {
	return c.http.BaseURL
}

// ListParams control catalog pagination.
type ListParams struct {
	Limit  int
	Offset int
}

// List fetches one page of the catalog.
func (c *Client) List(ctx context.Context, params ListParams) (*Page, error) {
	if params.Limit <= 0 {
		params.Limit = DefaultPageSize
	}

	var page Page
	opts := &httpclient.Options{Params: map[string]string{
		"limit":  strconv.Itoa(params.Limit),
		"offset": strconv.Itoa(params.Offset),
	}}
	if err := c.http.Get(ctx, "pokemon", opts, &page); err != nil {
		return nil, fmt.Errorf("list pokemon: %w", err)
	}
	return &page, nil
}

// Get fetches a single pokemon by name or numeric id.
// Returns ErrPokemonNotFound for a 404.
func (c *Client) Get(ctx context.Context, nameOrID string) (*Pokemon, error) {
	key := strings.ToLower(strings.TrimSpace(nameOrID))
	if key == "" {
		return nil, ErrPokemonNotFound
	}

	var p Pokemon
	if err := c.http.Get(ctx, "pokemon/"+key, nil, &p); err != nil {
		if apiErr, ok := httpclient.AsAPIError(err); ok && apiErr.Status == http.StatusNotFound {
			return nil, ErrPokemonNotFound
		}
		return nil, fmt.Errorf("get pokemon %q: %w", key, err)
	}
	return &p, nil
}

// Exists checks whether a pokemon with the given name or id exists.
func (c *Client) Exists(ctx context.Context, nameOrID string) (bool, error) {
	_, err := c.Get(ctx, nameOrID)
	if errors.Is(err, ErrPokemonNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
