package favorites

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SQLiteStore persists favorites in the shared embedded database.
// The UNIQUE(owner_id, pokemon_id) constraint guarantees at most one
// record per pair.
type SQLiteStore struct {
	db  *sql.DB
	hub *watchHub
	now func() time.Time
}

var _ Store = (*SQLiteStore)(nil)

const favoritesSchema = `
CREATE TABLE IF NOT EXISTS favorites (
	id           TEXT PRIMARY KEY,
	owner_id     TEXT NOT NULL,
	pokemon_id   INTEGER NOT NULL,
	pokemon_name TEXT NOT NULL,
	image_url    TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMP NOT NULL,
	UNIQUE(owner_id, pokemon_id)
);
CREATE INDEX IF NOT EXISTS idx_favorites_owner ON favorites(owner_id);
`

// NewSQLiteStore creates the favorites table if needed.
func NewSQLiteStore(conn *sql.DB) (*SQLiteStore, error) {
	if _, err := conn.Exec(favoritesSchema); err != nil {
		return nil, fmt.Errorf("init favorites schema: %w", err)
	}
	return &SQLiteStore{db: conn, hub: newWatchHub(), now: time.Now}, nil
}

// Add inserts a record with a store-assigned id and timestamp.
func (s *SQLiteStore) Add(ctx context.Context, ownerID string, fav Favorite) (string, error) {
	id := uuid.NewString()
	createdAt := s.now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO favorites (id, owner_id, pokemon_id, pokemon_name, image_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, ownerID, fav.PokemonID, fav.PokemonName, fav.ImageURL, createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return "", ErrAlreadyFavorited
		}
		return "", fmt.Errorf("insert favorite: %w", err)
	}

	s.notify(ctx, ownerID)
	return id, nil
}

// Remove deletes by id. Deleting an unknown id succeeds.
func (s *SQLiteStore) Remove(ctx context.Context, id string) error {
	var ownerID string
	err := s.db.QueryRowContext(ctx, `SELECT owner_id FROM favorites WHERE id = ?`, id).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup favorite: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM favorites WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}

	s.notify(ctx, ownerID)
	return nil
}

// ListByOwner returns the owner's records, newest first.
func (s *SQLiteStore) ListByOwner(ctx context.Context, ownerID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, pokemon_id, pokemon_name, image_url, created_at
		FROM favorites
		WHERE owner_id = ?
		ORDER BY created_at DESC, pokemon_id ASC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query favorites: %w", err)
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		rec, scanErr := scanRecord(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate favorites: %w", err)
	}
	return out, nil
}

// Find returns the owner's record for the pokemon, or nil.
func (s *SQLiteStore) Find(ctx context.Context, ownerID string, pokemonID int) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, pokemon_id, pokemon_name, image_url, created_at
		FROM favorites
		WHERE owner_id = ? AND pokemon_id = ?`,
		ownerID, pokemonID,
	)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// IDsByOwner returns the pokemon ids the owner has favorited.
func (s *SQLiteStore) IDsByOwner(ctx context.Context, ownerID string) ([]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT pokemon_id FROM favorites WHERE owner_id = ? ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query favorite ids: %w", err)
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan favorite id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Watch subscribes to the owner's records.
func (s *SQLiteStore) Watch(ownerID string) (<-chan []Record, func()) {
	return s.hub.watch(ownerID)
}

// notify pushes the owner's current list to subscribers. Best effort:
// a read failure here only costs a notification, not correctness.
func (s *SQLiteStore) notify(ctx context.Context, ownerID string) {
	list, err := s.ListByOwner(ctx, ownerID)
	if err != nil {
		return
	}
	s.hub.broadcast(ownerID, list)
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	var createdAt string
	if err := row.Scan(&rec.ID, &rec.OwnerID, &rec.PokemonID, &rec.PokemonName, &rec.ImageURL, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("scan favorite: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Record{}, fmt.Errorf("parse created_at: %w", err)
	}
	rec.CreatedAt = ts
	return rec, nil
}

// isUniqueViolation detects the UNIQUE(owner_id, pokemon_id) constraint
// firing. modernc.org/sqlite reports constraint failures in the error
// text.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
