// Package main provides the CLI entry point for pokectl.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/pokedexlabs/pokedex/internal/auth"
	"github.com/pokedexlabs/pokedex/internal/config"
	"github.com/pokedexlabs/pokedex/internal/db"
	"github.com/pokedexlabs/pokedex/internal/favorites"
	"github.com/pokedexlabs/pokedex/internal/pokeapi"
	"github.com/pokedexlabs/pokedex/internal/query"
	"github.com/pokedexlabs/pokedex/internal/search"
	"github.com/pokedexlabs/pokedex/internal/stringutil"
	"github.com/pokedexlabs/pokedex/internal/tui"
)

// Output format constants.
const (
	outputJSON = "json"
	outputYAML = "yaml"
	outputText = "text"
)

const commandTimeout = 30 * time.Second

var (
	// Global flags
	flagMode       string
	flagBaseURL    string
	flagDataDir    string
	flagConfigPath string

	// Search flags
	searchOutput string

	// Get flags
	getOutput string

	// Browse flags
	browsePage     int
	browsePageSize int
	browseOutput   string

	// Favorites flags
	favoritesOutput string

	// Config show flags
	configShowOutput string

	// Register flags
	registerDisplayName string

	// Global config (loaded once, used by all commands)
	cfg *config.Config

	// Lazy singletons
	catalogSvc *pokeapi.Service
	searcher   *search.Searcher
	queryCache *query.Cache
	dbConn     *sql.DB
	session    *auth.Session
	favSvc     *favorites.Service
)

// Exit codes.
//   - exitValidation: invalid input or configuration
//   - exitNotFound: the requested pokemon or favorite does not exist
//   - exitAuth: the operation requires a signed-in user
const (
	exitValidation = 1
	exitNotFound   = 2
	exitAuth       = 3
)

// ExitError is an error that carries a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

func exitErr(code int, msg string) error {
	return &ExitError{Code: code, Message: msg}
}

func main() {
	err := rootCmd.Execute()
	closeApp()
	if err != nil {
		var exitError *ExitError
		if errors.As(err, &exitError) {
			fmt.Fprintln(os.Stderr, exitError.Message)
			os.Exit(exitError.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pokectl",
	Short: "Pokedex CLI - browse the pokemon catalog and keep favorites",
	Long: `pokectl is a command-line pokedex. It browses a PokeAPI-compatible
catalog (the public API or a local pokedexd mirror), searches it with
fuzzy name matching, and keeps a per-account favorites list with live
updates in the TUI.

Catalog commands (search, get, browse, tui) work signed out.
Favorites and account commands require login.`,
}

// initConfig loads the configuration with proper precedence.
func initConfig() error {
	if cfg != nil {
		return nil
	}

	var err error
	cfg, err = config.Load(config.LoadOptions{ExplicitPath: flagConfigPath})
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	cfg.ApplyCLIOverrides(config.CLIOverrides{
		Mode:    flagMode,
		BaseURL: flagBaseURL,
		DataDir: flagDataDir,
	})

	if err := cfg.Validate(); err != nil {
		return exitErr(exitValidation, fmt.Sprintf("invalid config: %v", err))
	}
	return nil
}

// initCatalog wires the catalog client, cache and searcher.
func initCatalog() error {
	if catalogSvc != nil {
		return nil
	}
	if err := initConfig(); err != nil {
		return err
	}

	queryCache = query.New(
		query.WithFreshFor(cfg.CacheFreshFor()),
		query.WithEvictAfter(cfg.CacheEvictAfter()),
	)
	catalogSvc = pokeapi.NewService(pokeapi.New(cfg.BaseURL()), queryCache)
	searcher = search.NewSearcher(catalogSvc)
	return nil
}

// initAccount opens the local database and restores the session.
func initAccount() error {
	if session != nil {
		return nil
	}
	if err := initCatalog(); err != nil {
		return err
	}

	dataDir, err := cfg.DataDir()
	if err != nil {
		return err
	}
	dbConn, err = db.Open(dataDir)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	provider, err := auth.NewLocalProvider(dbConn, auth.DefaultTokenStore(dataDir))
	if err != nil {
		return fmt.Errorf("init auth: %w", err)
	}
	session = auth.NewSession(provider)
	session.Start()

	store, err := favorites.NewSQLiteStore(dbConn)
	if err != nil {
		return fmt.Errorf("init favorites: %w", err)
	}
	favSvc = favorites.NewService(store, queryCache, session)
	return nil
}

func closeApp() {
	if session != nil {
		session.Close()
	}
	if dbConn != nil {
		_ = dbConn.Close()
	}
}

// requireLogin converts the not-authenticated error into the auth exit code.
func requireLogin(err error) error {
	if errors.Is(err, favorites.ErrNotAuthenticated) {
		return exitErr(exitAuth, "not signed in. Run 'pokectl login' first")
	}
	return err
}

// writeOut renders v as JSON or YAML; text rendering stays in the command.
func writeOut(format string, v any) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		return yaml.NewEncoder(os.Stdout).Encode(v)
	default:
		return nil
	}
}

var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search pokemon by name",
	Long: `Search the catalog with the same pipeline the TUI uses: an exact
name-or-id lookup plus a fuzzy substring scan, merged with the exact
match first. Terms shorter than 2 characters return nothing.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return initCatalog()
	},
	RunE: func(_ *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		results, err := searcher.Search(ctx, args[0])
		if err != nil {
			return err
		}

		if searchOutput != outputText {
			return writeOut(searchOutput, results)
		}
		if len(results) == 0 {
			fmt.Println("No pokemon found.")
			return nil
		}
		for _, p := range results {
			fmt.Printf("#%-5d %-20s %s\n", p.ID, p.Name, strings.Join(p.TypeNames(), ", "))
		}
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get <name-or-id>",
	Short: "Show one pokemon",
	Args:  cobra.ExactArgs(1),
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return initCatalog()
	},
	RunE: func(_ *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		p, err := catalogSvc.Get(ctx, args[0])
		if err != nil {
			if errors.Is(err, pokeapi.ErrPokemonNotFound) {
				return exitErr(exitNotFound, fmt.Sprintf("pokemon %q not found", args[0]))
			}
			return err
		}

		if getOutput != outputText {
			return writeOut(getOutput, p)
		}

		fmt.Printf("#%d %s\n", p.ID, stringutil.DisplayName(p.Name))
		fmt.Printf("Types:   %s\n", strings.Join(p.TypeNames(), ", "))
		fmt.Printf("Height:  %.1f m\n", float64(p.Height)/10)
		fmt.Printf("Weight:  %.1f kg\n", float64(p.Weight)/10)
		for _, st := range p.Stats {
			fmt.Printf("  %-16s %d\n", st.Stat.Name, st.BaseStat)
		}
		if img := p.Sprites.Image(); img != "" {
			fmt.Printf("Artwork: %s\n", img)
		}
		return nil
	},
}

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "List the catalog page by page",
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return initCatalog()
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		size := browsePageSize
		if size <= 0 {
			size = cfg.PageSize()
		}
		page, err := catalogSvc.List(ctx, pokeapi.ListParams{
			Limit:  size,
			Offset: browsePage * size,
		})
		if err != nil {
			return err
		}

		if browseOutput != outputText {
			return writeOut(browseOutput, page)
		}

		for _, ref := range page.Results {
			fmt.Printf("#%-5d %s\n", pokeapi.ExtractIDFromURL(ref.URL), ref.Name)
		}
		fmt.Printf("\nPage %d (%d total", browsePage, page.Count)
		if page.HasNext() {
			fmt.Printf(", more with --page %d", browsePage+1)
		}
		fmt.Println(")")
		return nil
	},
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Interactive pokedex",
	Long: `Launch the interactive pokedex.

Navigation:
  type         Search (debounced, fuzzy)
  up/down      Navigate list
  Enter        Open detail view
  Ctrl+F / f   Toggle favorite
  Tab          Switch to favorites view
  x            Remove favorite (favorites view)
  Esc          Clear search, go back, or quit

Favoriting prompts for login when signed out. The favorites view
updates live when favorites change elsewhere.`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return initAccount()
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return tui.Run(tui.Options{
			Catalog:       catalogSvc,
			Searcher:      searcher,
			Favorites:     favSvc,
			Session:       session,
			PageSize:      cfg.PageSize(),
			DebounceDelay: cfg.SearchDebounce(),
		})
	},
}

var favoritesCmd = &cobra.Command{
	Use:   "favorites",
	Short: "Manage the signed-in user's favorites",
}

var favoritesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List favorites, newest first",
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return initAccount()
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		if session.UID() == "" {
			return exitErr(exitAuth, "not signed in. Run 'pokectl login' first")
		}

		records, err := favSvc.List(ctx)
		if err != nil {
			return err
		}

		if favoritesOutput != outputText {
			return writeOut(favoritesOutput, records)
		}
		if len(records) == 0 {
			fmt.Println("No favorites yet.")
			return nil
		}
		for _, rec := range records {
			fmt.Printf("#%-5d %-20s added %s\n", rec.PokemonID, rec.PokemonName,
				rec.CreatedAt.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var favoritesAddCmd = &cobra.Command{
	Use:   "add <name-or-id>",
	Short: "Add a pokemon to favorites",
	Args:  cobra.ExactArgs(1),
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return initAccount()
	},
	RunE: func(_ *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		p, err := catalogSvc.Get(ctx, args[0])
		if err != nil {
			if errors.Is(err, pokeapi.ErrPokemonNotFound) {
				return exitErr(exitNotFound, fmt.Sprintf("pokemon %q not found", args[0]))
			}
			return err
		}

		_, err = favSvc.Add(ctx, favorites.Favorite{
			PokemonID:   p.ID,
			PokemonName: p.Name,
			ImageURL:    p.Sprites.Image(),
		})
		if err != nil {
			if errors.Is(err, favorites.ErrAlreadyFavorited) {
				fmt.Printf("%s is already a favorite.\n", p.Name)
				return nil
			}
			return requireLogin(err)
		}
		fmt.Printf("Added %s to favorites.\n", p.Name)
		return nil
	},
}

var favoritesRemoveCmd = &cobra.Command{
	Use:   "remove <name-or-id>",
	Short: "Remove a pokemon from favorites",
	Args:  cobra.ExactArgs(1),
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return initAccount()
	},
	RunE: func(_ *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		p, err := catalogSvc.Get(ctx, args[0])
		if err != nil {
			if errors.Is(err, pokeapi.ErrPokemonNotFound) {
				return exitErr(exitNotFound, fmt.Sprintf("pokemon %q not found", args[0]))
			}
			return err
		}

		status, err := favSvc.IsFavorited(ctx, p.ID)
		if err != nil {
			return requireLogin(err)
		}
		if !status.Favorited {
			if session.UID() == "" {
				return exitErr(exitAuth, "not signed in. Run 'pokectl login' first")
			}
			fmt.Printf("%s is not a favorite.\n", p.Name)
			return nil
		}

		if err := favSvc.Remove(ctx, status.FavoriteID, p.ID); err != nil {
			return requireLogin(err)
		}
		fmt.Printf("Removed %s from favorites.\n", p.Name)
		return nil
	},
}

var favoritesToggleCmd = &cobra.Command{
	Use:   "toggle <name-or-id>",
	Short: "Toggle the favorite state of a pokemon",
	Args:  cobra.ExactArgs(1),
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return initAccount()
	},
	RunE: func(_ *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		p, err := catalogSvc.Get(ctx, args[0])
		if err != nil {
			if errors.Is(err, pokeapi.ErrPokemonNotFound) {
				return exitErr(exitNotFound, fmt.Sprintf("pokemon %q not found", args[0]))
			}
			return err
		}

		status, err := favSvc.IsFavorited(ctx, p.ID)
		if err != nil {
			return requireLogin(err)
		}

		id, err := favSvc.Toggle(ctx, favorites.Favorite{
			PokemonID:   p.ID,
			PokemonName: p.Name,
			ImageURL:    p.Sprites.Image(),
		}, status)
		if err != nil {
			return requireLogin(err)
		}

		if id != "" {
			fmt.Printf("Added %s to favorites.\n", p.Name)
		} else {
			fmt.Printf("Removed %s from favorites.\n", p.Name)
		}
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Sign in with email and password",
	Args:  cobra.ExactArgs(1),
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return initAccount()
	},
	RunE: func(_ *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		password, err := readPassword("Password: ")
		if err != nil {
			return err
		}

		if err := session.Login(ctx, args[0], password); err != nil {
			return exitErr(exitAuth, auth.HumanizeError(err))
		}

		u := session.CurrentUser()
		name := u.Email
		if u.DisplayName != "" {
			name = u.DisplayName
		}
		fmt.Printf("Signed in as %s.\n", name)
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register <email>",
	Short: "Create an account and sign in",
	Args:  cobra.ExactArgs(1),
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return initAccount()
	},
	RunE: func(_ *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		password, err := readPassword("Password: ")
		if err != nil {
			return err
		}
		confirm, err := readPassword("Confirm password: ")
		if err != nil {
			return err
		}
		if password != confirm {
			return exitErr(exitValidation, "passwords do not match")
		}

		err = session.Register(ctx, auth.RegisterData{
			Email:       args[0],
			Password:    password,
			DisplayName: registerDisplayName,
		})
		if err != nil {
			return exitErr(exitAuth, auth.HumanizeError(err))
		}
		fmt.Println("Account created. You are signed in.")
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out",
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return initAccount()
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		if err := session.Logout(ctx); err != nil {
			return err
		}
		fmt.Println("Signed out.")
		return nil
	},
}

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Account information",
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current session",
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return initAccount()
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		u := session.CurrentUser()
		if u == nil {
			fmt.Println("Signed out.")
			return nil
		}
		fmt.Printf("Email:        %s\n", u.Email)
		if u.DisplayName != "" {
			fmt.Printf("Display name: %s\n", stringutil.Truncate(u.DisplayName, 60))
		}
		fmt.Printf("User id:      %s\n", u.UID)
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return initConfig()
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		if configShowOutput == outputJSON {
			return writeOut(outputJSON, cfg)
		}
		fmt.Print(cfg.String())

		global, project := config.DiscoveredPaths()
		if global != "" {
			fmt.Printf("# global:  %s\n", global)
		}
		if project != "" {
			fmt.Printf("# project: %s\n", project)
		}
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config to ~/.config/pokectl/config.yaml",
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return initConfig()
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := cfg.SaveGlobal(); err != nil {
			return err
		}
		fmt.Println("Config written.")
		return nil
	},
}

// readPassword reads a line from stdin without echo when attached to a
// terminal, falling back to plain reads (tests, pipes).
func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(raw), nil
	}

	var line string
	if _, err := fmt.Scanln(&line); err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(line), nil
}

//nolint:gochecknoinits // Cobra command wiring
func init() {
	rootCmd.PersistentFlags().StringVar(&flagMode, "mode", "", "catalog mode: remote or local")
	rootCmd.PersistentFlags().StringVar(&flagBaseURL, "base-url", "", "catalog base URL override")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "local data directory override")
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")

	searchCmd.Flags().StringVarP(&searchOutput, "output", "o", outputText, "output format: text, json, yaml")
	getCmd.Flags().StringVarP(&getOutput, "output", "o", outputText, "output format: text, json, yaml")

	browseCmd.Flags().IntVar(&browsePage, "page", 0, "page number (0-based)")
	browseCmd.Flags().IntVar(&browsePageSize, "page-size", 0, "entries per page")
	browseCmd.Flags().StringVarP(&browseOutput, "output", "o", outputText, "output format: text, json, yaml")

	favoritesListCmd.Flags().StringVarP(&favoritesOutput, "output", "o", outputText, "output format: text, json, yaml")
	favoritesCmd.AddCommand(favoritesListCmd, favoritesAddCmd, favoritesRemoveCmd, favoritesToggleCmd)

	registerCmd.Flags().StringVar(&registerDisplayName, "display-name", "", "display name shown instead of email")

	configShowCmd.Flags().StringVarP(&configShowOutput, "output", "o", outputText, "output format: text, json")
	configCmd.AddCommand(configShowCmd, configInitCmd)

	authCmd.AddCommand(authStatusCmd)

	rootCmd.AddCommand(searchCmd, getCmd, browseCmd, tuiCmd, favoritesCmd,
		loginCmd, registerCmd, logoutCmd, authCmd, configCmd)
}
