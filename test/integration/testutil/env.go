// Package testutil provides the shared in-process environment for
// integration tests: a pokedexd-shaped HTTP server, a temp-dir SQLite
// database, and the wired client stack.
package testutil

import (
	"database/sql"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pokedexlabs/pokedex/internal/auth"
	"github.com/pokedexlabs/pokedex/internal/catalog"
	"github.com/pokedexlabs/pokedex/internal/db"
	"github.com/pokedexlabs/pokedex/internal/favorites"
	"github.com/pokedexlabs/pokedex/internal/httpapi"
	"github.com/pokedexlabs/pokedex/internal/pokeapi"
	"github.com/pokedexlabs/pokedex/internal/query"
	"github.com/pokedexlabs/pokedex/internal/search"
)

// DefaultSeedCount is the number of pokemon seeded into the catalog.
const DefaultSeedCount = 50

// Env bundles everything an integration test needs. Create one per
// test with SetupTestEnv; state is not shared between envs.
type Env struct {
	// Server side
	Store  *catalog.Store
	Server *httptest.Server

	// Client side
	Cache     *query.Cache
	Client    *pokeapi.Client
	Service   *pokeapi.Service
	Searcher  *search.Searcher
	DB        *sql.DB
	Session   *auth.Session
	Favorites *favorites.Service
}

// EnvConfig configures the test environment.
type EnvConfig struct {
	// SeedCount is the number of pokemon to seed. Defaults to
	// DefaultSeedCount.
	SeedCount int
}

// SetupTestEnv starts an in-process catalog server and wires the full
// client stack against it. Cleanup is registered on t automatically.
func SetupTestEnv(t *testing.T, cfg EnvConfig) *Env {
	t.Helper()

	if cfg.SeedCount == 0 {
		cfg.SeedCount = DefaultSeedCount
	}

	st := catalog.New()
	st.Seed(cfg.SeedCount)

	api := &httpapi.Server{Store: st}
	srv := httptest.NewServer(api.Routes())
	api.BaseURL = srv.URL
	t.Cleanup(srv.Close)

	dataDir := t.TempDir()
	conn, err := db.Open(dataDir)
	if err != nil {
		srv.Close()
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	// Always the file store; the OS keyring is unavailable in CI.
	provider, err := auth.NewLocalProvider(conn, auth.NewFileTokenStore(dataDir))
	if err != nil {
		t.Fatalf("init auth provider: %v", err)
	}
	session := auth.NewSession(provider)
	session.Start()
	t.Cleanup(session.Close)

	store, err := favorites.NewSQLiteStore(conn)
	if err != nil {
		t.Fatalf("init favorites store: %v", err)
	}

	cache := query.New()
	client := pokeapi.New(srv.URL + "/api/v2")
	service := pokeapi.NewService(client, cache)

	return &Env{
		Store:     st,
		Server:    srv,
		Cache:     cache,
		Client:    client,
		Service:   service,
		Searcher:  search.NewSearcher(service),
		DB:        conn,
		Session:   session,
		Favorites: favorites.NewService(store, cache, session),
	}
}

// UniqueEmail returns an email address that is unique within the test.
func UniqueEmail(t *testing.T, n int) string {
	t.Helper()
	name := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '-'
	}, t.Name())
	return fmt.Sprintf("%s-%d@example.com", name, n)
}
