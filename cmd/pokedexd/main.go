// Package main provides the entry point for the pokedexd catalog mirror.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/pokedexlabs/pokedex/internal/catalog"
	"github.com/pokedexlabs/pokedex/internal/httpapi"
)

func main() {
	var (
		listen    = flag.String("listen", ":8080", "listen address")
		seedCount = flag.Int("seed", 200, "seed pokemon count")
		baseURL   = flag.String("base-url", "", "external base URL used in pagination cursors (defaults to http://localhost<listen>)")
	)
	flag.Parse()

	st := catalog.New()
	st.Seed(*seedCount)
	log.Printf("seeded catalog with %d pokemon", st.Len())

	external := *baseURL
	if external == "" {
		external = "http://localhost" + normalizeListen(*listen)
	}

	s := &httpapi.Server{Store: st, BaseURL: external}

	srv := &http.Server{
		Addr:         *listen,
		Handler:      s.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("starting pokedexd on http://localhost%s (api at %s/api/v2)", normalizeListen(*listen), external)
	log.Fatal(srv.ListenAndServe())
}

// normalizeListen turns a bare port into a :port address for display.
func normalizeListen(addr string) string {
	if strings.Contains(addr, ":") {
		return addr
	}
	return fmt.Sprintf(":%s", addr)
}
