// Package favorites provides the user-scoped favorites store: CRUD
// against a local collection plus a push-based subscription for each
// owner's records.
package favorites

import (
	"context"
	"errors"
	"time"
)

// Record is one persisted favorite. Records are created and deleted,
// never updated in place. At most one record exists per
// (owner, pokemon) pair - the store enforces it.
type Record struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	PokemonID   int       `json:"pokemon_id"`
	PokemonName string    `json:"pokemon_name"`
	ImageURL    string    `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// Favorite is the caller-supplied part of a record; the store assigns
// the id and creation timestamp.
type Favorite struct {
	PokemonID   int
	PokemonName string
	ImageURL    string
}

// Errors.
var (
	// ErrNotAuthenticated is returned by mutations invoked without a
	// signed-in user, before any store call is attempted.
	ErrNotAuthenticated = errors.New("user not authenticated")

	// ErrAlreadyFavorited is returned when adding a (owner, pokemon)
	// pair that already has a record.
	ErrAlreadyFavorited = errors.New("already favorited")
)

// Store is the favorites data-access interface.
type Store interface {
	// Add inserts a record with a store-assigned id and timestamp and
	// returns the new id.
	Add(ctx context.Context, ownerID string, fav Favorite) (string, error)

	// Remove deletes by record id. Removing an unknown id is a no-op.
	Remove(ctx context.Context, id string) error

	// ListByOwner returns all of the owner's records, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]Record, error)

	// Find returns the owner's record for the given pokemon, or nil
	// when none exists.
	Find(ctx context.Context, ownerID string, pokemonID int) (*Record, error)

	// IDsByOwner returns the pokemon ids the owner has favorited.
	IDsByOwner(ctx context.Context, ownerID string) ([]int, error)

	// Watch subscribes to the owner's records. The channel receives the
	// full current list after every change, including changes made by
	// this same process. The returned func unsubscribes.
	Watch(ownerID string) (<-chan []Record, func())
}
