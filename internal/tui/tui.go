// Package tui provides the interactive pokedex terminal UI using Bubble Tea.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pokedexlabs/pokedex/internal/auth"
	"github.com/pokedexlabs/pokedex/internal/favorites"
	"github.com/pokedexlabs/pokedex/internal/pokeapi"
	"github.com/pokedexlabs/pokedex/internal/search"
	"github.com/pokedexlabs/pokedex/internal/stringutil"
)

const (
	visibleItems   = 12
	requestTimeout = 10 * time.Second
)

// Color constants to avoid duplication (DRY).
const (
	colorPrimary = "#7D56F4"
	colorDim     = "#666666"
	colorError   = "#FF5F87"
	colorHelp    = "#626262"
	colorWhite   = "#FFFFFF"
	colorGreen   = "#87D787"
	colorYellow  = "#FFD787"
)

// Styles for the TUI (SST - single source of truth for styling).
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorPrimary)).
			MarginBottom(1)

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorPrimary)).
			Bold(true)

	itemNormalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorWhite))

	itemDimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorDim))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorError)).
			MarginTop(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorHelp)).
			MarginTop(1)

	favoriteMarkStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(colorYellow)).
				Bold(true)

	signedInStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorGreen))

	detailBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(colorPrimary)).
			Padding(1, 2)

	statBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorPrimary))
)

// State represents the current UI state.
type State int

// State constants for the TUI lifecycle.
const (
	StateBrowse State = iota
	StateFavorites
	StateDetail
	StateAuth // Login/register form view
	StateQuitting
)

// ErrTUIUnexpectedModel is returned when the TUI returns an unexpected model type.
var ErrTUIUnexpectedModel = errors.New("unexpected TUI model type")

// Options wires the TUI to the application services.
type Options struct {
	Catalog       pokeapi.Catalog
	Searcher      *search.Searcher
	Favorites     *favorites.Service
	Session       *auth.Session
	PageSize      int
	DebounceDelay time.Duration
}

// listEntry is one row of the browse or search list.
type listEntry struct {
	id   int
	name string
}

// Model is the Bubble Tea model for the pokedex TUI.
type Model struct {
	catalog  pokeapi.Catalog
	searcher *search.Searcher
	favs     *favorites.Service
	session  *auth.Session

	textInput textinput.Model
	state     State
	prevState State // Where to return after detail/auth

	// Browse state
	paginator *search.Paginator
	browse    []listEntry
	total     int

	// Search state. Keystrokes feed the debouncer; committed terms come
	// back through commitCh like favorites pushes come through favCh.
	results    []listEntry
	searchTerm string // Committed term currently displayed
	lastQuery  string
	debouncer  *search.Debouncer
	commitCh   chan string

	// Favorites state
	favRecords []favorites.Record
	favIDs     map[int]string // pokemon id -> favorite record id
	favCh      <-chan []favorites.Record
	favStop    func()

	// Detail state
	detail       *pokeapi.Pokemon
	detailStatus favorites.Status

	formModel *FormModel

	cursorIndex int
	loading     bool
	err         error
	width       int
	height      int
}

// Message types.
type searchCommitMsg struct {
	term string
}

type searchResultsMsg struct {
	term    string
	results []pokeapi.Pokemon
	err     error
}

type pageMsg struct {
	refs []pokeapi.NamedRef
	err  error
}

type detailMsg struct {
	pokemon *pokeapi.Pokemon
	status  favorites.Status
	err     error
}

type favoritesPushMsg struct {
	records []favorites.Record
}

type favoritesClosedMsg struct{}

type toggleDoneMsg struct {
	err error
}

type watchStartedMsg struct {
	ch   <-chan []favorites.Record
	stop func()
	err  error
}

// New creates a new TUI model.
func New(opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "Search pokemon..."
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 40
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(colorPrimary))
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(colorWhite))

	// Committed terms cross from the debouncer's timer goroutine into
	// the Bubble Tea loop through this channel, latest-wins.
	commitCh := make(chan string, 1)
	debouncer := search.NewDebouncer(opts.DebounceDelay, func(term string) {
		select {
		case <-commitCh:
		default:
		}
		select {
		case commitCh <- term:
		default:
		}
	})

	return Model{
		catalog:   opts.Catalog,
		searcher:  opts.Searcher,
		favs:      opts.Favorites,
		session:   opts.Session,
		textInput: ti,
		state:     StateBrowse,
		prevState: StateBrowse,
		paginator: search.NewPaginator(opts.Catalog, opts.PageSize),
		favIDs:    make(map[int]string),
		debouncer: debouncer,
		commitCh:  commitCh,
		width:     80,
		height:    24,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textinput.Blink,
		m.loadMoreCmd(),
		m.waitForCommitCmd(),
	}
	if m.session != nil && m.session.UID() != "" {
		cmds = append(cmds, m.startWatchCmd())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Forward everything to the auth form while it is active.
	if m.state == StateAuth && m.formModel != nil {
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == keyCtrlC {
			return m.quit()
		}

		cmd := m.formModel.Update(msg)

		if m.formModel.Done() {
			m.state = m.prevState
			m.formModel = nil
			// Signed in now: open the live favorites subscription.
			return m, m.startWatchCmd()
		}
		if m.formModel.Cancelled() {
			m.state = m.prevState
			m.formModel = nil
			return m, nil
		}
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case searchCommitMsg:
		// An empty commit means the term dropped below the minimum; the
		// keystroke handler already cleared the results synchronously.
		// A commit that no longer matches the input was superseded.
		if msg.term == "" || !strings.EqualFold(msg.term, m.lastCommittedTerm()) {
			return m, m.waitForCommitCmd()
		}
		m.searchTerm = msg.term
		return m, tea.Batch(m.waitForCommitCmd(), m.searchCmd(msg.term))

	case searchResultsMsg:
		if msg.term != m.lastCommittedTerm() {
			return m, nil // Stale response from a superseded term
		}
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.results = make([]listEntry, len(msg.results))
		for i, p := range msg.results {
			m.results[i] = listEntry{id: p.ID, name: p.Name}
		}
		if m.cursorIndex >= len(m.results) {
			m.cursorIndex = 0
		}
		return m, nil

	case pageMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		for _, ref := range msg.refs {
			m.browse = append(m.browse, listEntry{
				id:   pokeapi.ExtractIDFromURL(ref.URL),
				name: ref.Name,
			})
		}
		m.total = m.paginator.Total()
		return m, nil

	case detailMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.state = m.prevState
			return m, nil
		}
		m.err = nil
		m.detail = msg.pokemon
		m.detailStatus = msg.status
		m.state = StateDetail
		return m, nil

	case watchStartedMsg:
		if msg.err != nil {
			// Signed out or store failure: badges stay empty.
			return m, nil
		}
		m.favCh = msg.ch
		m.favStop = msg.stop
		return m, tea.Batch(m.waitForPushCmd(), m.refreshFavoritesCmd())

	case favoritesPushMsg:
		m.applyFavorites(msg.records)
		return m, m.waitForPushCmd()

	case favoritesClosedMsg:
		m.favCh = nil
		m.favStop = nil
		return m, nil

	case toggleDoneMsg:
		if msg.err != nil {
			if errors.Is(msg.err, favorites.ErrNotAuthenticated) {
				// Favoriting requires an account; open the form.
				m.prevState = m.state
				m.state = StateAuth
				m.formModel = NewFormModel(m.session)
				return m, m.formModel.Init()
			}
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		if m.state == StateDetail && m.detail != nil {
			return m, m.detailCmd(m.detail.Name)
		}
		return m, nil
	}

	return m, nil
}

// handleKeyMsg processes keyboard input based on current state.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == keyCtrlC {
		return m.quit()
	}

	switch m.state {
	case StateDetail:
		return m.handleDetailKeys(msg)
	case StateFavorites:
		return m.handleFavoritesKeys(msg)
	case StateBrowse:
		return m.handleBrowseKeys(msg)
	default:
		return m, nil
	}
}

func (m Model) handleBrowseKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case keyEsc:
		// Clear an active search first; quit from a clean browse view.
		if m.textInput.Value() != "" {
			m.textInput.SetValue("")
			m.lastQuery = ""
			m.results = nil
			m.searchTerm = ""
			m.debouncer.SetTerm("")
			m.cursorIndex = 0
			return m, nil
		}
		return m.quit()

	case keyTab:
		m.state = StateFavorites
		m.cursorIndex = 0
		return m, nil

	case "enter":
		if entry, ok := m.currentEntry(); ok {
			m.prevState = StateBrowse
			m.loading = true
			return m, m.detailCmd(entry.name)
		}
		return m, nil

	case keyCtrlF:
		if entry, ok := m.currentEntry(); ok {
			return m, m.toggleCmd(entry)
		}
		return m, nil
	}

	//nolint:exhaustive // Only arrows navigate; everything else is input
	switch msg.Type {
	case tea.KeyUp:
		if m.cursorIndex > 0 {
			m.cursorIndex--
		}
		return m, nil
	case tea.KeyDown:
		return m.navigateDown()
	default:
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)

	newQuery := m.textInput.Value()
	if newQuery != m.lastQuery {
		m.lastQuery = newQuery
		m.cursorIndex = 0
		m.debouncer.SetTerm(newQuery)

		if len(strings.TrimSpace(newQuery)) < search.MinTermLength {
			// Below the minimum: drop results immediately, no request.
			m.results = nil
			m.searchTerm = ""
			m.loading = false
			return m, cmd
		}

		m.loading = true
	}

	return m, cmd
}

// navigateDown moves the cursor and triggers the next page near the end.
func (m Model) navigateDown() (tea.Model, tea.Cmd) {
	entries := m.visibleEntries()
	if len(entries) == 0 {
		return m, nil
	}
	if m.cursorIndex < len(entries)-1 {
		m.cursorIndex++
	}

	// Infinite pagination: fetch the next page when browsing near the
	// bottom of what is loaded.
	if !m.isSearching() && m.paginator.HasNext() && !m.loading &&
		m.cursorIndex >= len(m.browse)-3 {
		m.loading = true
		return m, m.loadMoreCmd()
	}
	return m, nil
}

func (m Model) handleFavoritesKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case keyEsc, keyTab:
		m.state = StateBrowse
		m.cursorIndex = 0
		return m, nil

	case "enter":
		if m.cursorIndex < len(m.favRecords) {
			rec := m.favRecords[m.cursorIndex]
			m.prevState = StateFavorites
			m.loading = true
			return m, m.detailCmd(rec.PokemonName)
		}
		return m, nil

	case "x", "backspace":
		if m.cursorIndex < len(m.favRecords) {
			rec := m.favRecords[m.cursorIndex]
			return m, m.removeCmd(rec)
		}
		return m, nil
	}

	//nolint:exhaustive // Only arrows matter here
	switch msg.Type {
	case tea.KeyUp:
		if m.cursorIndex > 0 {
			m.cursorIndex--
		}
	case tea.KeyDown:
		if m.cursorIndex < len(m.favRecords)-1 {
			m.cursorIndex++
		}
	default:
	}
	return m, nil
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case keyEsc, "q":
		m.state = m.prevState
		m.detail = nil
		return m, nil

	case "f":
		if m.detail != nil {
			entry := listEntry{id: m.detail.ID, name: m.detail.Name}
			return m, m.toggleCmd(entry)
		}
	}
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.favStop != nil {
		m.favStop()
	}
	m.debouncer.Cancel()
	m.state = StateQuitting
	return m, tea.Quit
}

// isSearching reports whether the list shows search results.
func (m Model) isSearching() bool {
	return m.searchTerm != "" || m.loadingSearch()
}

func (m Model) loadingSearch() bool {
	return len(strings.TrimSpace(m.textInput.Value())) >= search.MinTermLength
}

func (m Model) lastCommittedTerm() string {
	return strings.ToLower(strings.TrimSpace(m.textInput.Value()))
}

func (m Model) visibleEntries() []listEntry {
	if m.isSearching() {
		return m.results
	}
	return m.browse
}

func (m Model) currentEntry() (listEntry, bool) {
	entries := m.visibleEntries()
	if len(entries) == 0 || m.cursorIndex >= len(entries) {
		return listEntry{}, false
	}
	return entries[m.cursorIndex], true
}

// applyFavorites updates the favorites list and the id badge index.
func (m *Model) applyFavorites(records []favorites.Record) {
	m.favRecords = records
	m.favIDs = make(map[int]string, len(records))
	for _, r := range records {
		m.favIDs[r.PokemonID] = r.ID
	}
	if m.state == StateFavorites && m.cursorIndex >= len(records) && len(records) > 0 {
		m.cursorIndex = len(records) - 1
	}
}

// View renders the UI.
func (m Model) View() string {
	switch m.state {
	case StateQuitting:
		return ""
	case StateAuth:
		if m.formModel != nil {
			return m.formModel.View()
		}
		return ""
	case StateDetail:
		return m.viewDetail()
	case StateFavorites:
		return m.viewFavorites()
	default:
		return m.viewBrowse()
	}
}

func (m Model) viewBrowse() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Pokedex"))
	b.WriteString("  ")
	b.WriteString(m.viewSessionBadge())
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	entries := m.visibleEntries()
	switch {
	case m.loading && len(entries) == 0:
		b.WriteString(itemDimStyle.Render("Loading..."))
		b.WriteString("\n")
	case m.err != nil:
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	case len(entries) == 0 && m.isSearching():
		b.WriteString(itemDimStyle.Render("No pokemon match \"" + m.lastCommittedTerm() + "\""))
		b.WriteString("\n")
	case len(entries) == 0:
		b.WriteString(itemDimStyle.Render("Catalog is empty"))
		b.WriteString("\n")
	default:
		b.WriteString(m.renderEntryList(entries))
	}

	if !m.isSearching() && m.total > 0 {
		b.WriteString("\n")
		b.WriteString(itemDimStyle.Render(fmt.Sprintf("%d of %d loaded", len(m.browse), m.total)))
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("up/down: navigate - enter: detail - ctrl+f: favorite - tab: favorites - esc: quit"))

	return b.String()
}

func (m Model) viewFavorites() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Favorites"))
	b.WriteString("  ")
	b.WriteString(m.viewSessionBadge())
	b.WriteString("\n\n")

	switch {
	case m.session == nil || m.session.UID() == "":
		b.WriteString(itemDimStyle.Render("Sign in to keep favorites (ctrl+f on any pokemon)"))
		b.WriteString("\n")
	case len(m.favRecords) == 0:
		b.WriteString(itemDimStyle.Render("No favorites yet"))
		b.WriteString("\n")
	default:
		for i, rec := range m.favRecords {
			line := fmt.Sprintf("%s #%d %s", favoriteMarkStyle.Render("*"), rec.PokemonID, rec.PokemonName)
			if i == m.cursorIndex {
				b.WriteString(cursorStyle.Render("> " + line))
			} else {
				b.WriteString(itemNormalStyle.Render("  " + line))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter: detail - x: remove - tab/esc: back"))

	return b.String()
}

func (m Model) viewDetail() string {
	if m.detail == nil {
		return itemDimStyle.Render("Loading...")
	}
	p := m.detail

	var b strings.Builder

	name := titleStyle.Render(fmt.Sprintf("#%d %s", p.ID, stringutil.DisplayName(p.Name)))
	b.WriteString(name)
	if m.detailStatus.Favorited {
		b.WriteString("  " + favoriteMarkStyle.Render("* favorited"))
	}
	b.WriteString("\n\n")

	// Type badges in their canonical colors.
	badges := make([]string, 0, len(p.Types))
	for _, tn := range p.TypeNames() {
		style := lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorWhite)).
			Background(pokeapi.TypeColor(tn)).
			Padding(0, 1)
		badges = append(badges, style.Render(tn))
	}
	b.WriteString(strings.Join(badges, " "))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("Height: %.1f m    Weight: %.1f kg\n\n", float64(p.Height)/10, float64(p.Weight)/10))

	for _, st := range p.Stats {
		label := fmt.Sprintf("%-16s %3d ", st.Stat.Name, st.BaseStat)
		bar := statBarStyle.Render(strings.Repeat("#", st.BaseStat/8))
		b.WriteString(label + bar + "\n")
	}

	if len(p.Abilities) > 0 {
		names := make([]string, 0, len(p.Abilities))
		for _, a := range p.Abilities {
			names = append(names, a.Ability.Name)
		}
		b.WriteString("\nAbilities: " + stringutil.Truncate(strings.Join(names, ", "), 60) + "\n")
	}

	box := detailBoxStyle.Render(b.String())
	return box + "\n" + helpStyle.Render("f: toggle favorite - esc: back")
}

func (m Model) viewSessionBadge() string {
	if m.session == nil {
		return ""
	}
	if u := m.session.CurrentUser(); u != nil {
		name := u.DisplayName
		if name == "" {
			name = u.Email
		}
		return signedInStyle.Render("@" + name)
	}
	return itemDimStyle.Render("signed out")
}

func (m Model) renderEntryList(entries []listEntry) string {
	var b strings.Builder

	start, end := m.calculateVisibleRange(len(entries))

	if start > 0 {
		b.WriteString(itemDimStyle.Render(fmt.Sprintf("  ^ %d more above", start)))
		b.WriteString("\n")
	}

	for i := start; i < end; i++ {
		entry := entries[i]

		mark := "  "
		if _, fav := m.favIDs[entry.id]; fav {
			mark = favoriteMarkStyle.Render("* ")
		}

		content := fmt.Sprintf("%s#%-5d %s", mark, entry.id, entry.name)
		if i == m.cursorIndex {
			b.WriteString(cursorStyle.Render("> " + content))
		} else {
			b.WriteString(itemNormalStyle.Render("  " + content))
		}
		b.WriteString("\n")
	}

	remaining := len(entries) - end
	if remaining > 0 {
		b.WriteString(itemDimStyle.Render(fmt.Sprintf("  v %d more below", remaining)))
		b.WriteString("\n")
	}

	return b.String()
}

// calculateVisibleRange keeps the cursor visible with scrolling.
func (m Model) calculateVisibleRange(total int) (start, end int) {
	if total == 0 {
		return 0, 0
	}
	if total <= visibleItems {
		return 0, total
	}

	half := visibleItems / 2
	start = m.cursorIndex - half
	if start < 0 {
		start = 0
	}

	end = start + visibleItems
	if end > total {
		end = total
		start = end - visibleItems
		if start < 0 {
			start = 0
		}
	}

	return start, end
}

// waitForCommitCmd blocks until the debouncer commits the next term.
// Re-issued after every searchCommitMsg, mirroring waitForPushCmd.
func (m Model) waitForCommitCmd() tea.Cmd {
	ch := m.commitCh
	return func() tea.Msg {
		return searchCommitMsg{term: <-ch}
	}
}

// searchCmd runs the multi-stage search off the UI loop.
func (m Model) searchCmd(term string) tea.Cmd {
	searcher := m.searcher
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		results, err := searcher.Search(ctx, term)
		return searchResultsMsg{term: strings.ToLower(strings.TrimSpace(term)), results: results, err: err}
	}
}

// loadMoreCmd fetches the next browse page.
func (m Model) loadMoreCmd() tea.Cmd {
	p := m.paginator
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		refs, err := p.LoadMore(ctx)
		return pageMsg{refs: refs, err: err}
	}
}

// detailCmd fetches one pokemon plus its favorited status.
func (m Model) detailCmd(nameOrID string) tea.Cmd {
	catalog := m.catalog
	favs := m.favs
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		p, err := catalog.Get(ctx, nameOrID)
		if err != nil {
			return detailMsg{err: err}
		}

		var status favorites.Status
		if favs != nil {
			// Status is advisory; a lookup failure just hides the badge.
			status, _ = favs.IsFavorited(ctx, p.ID)
		}
		return detailMsg{pokemon: p, status: status}
	}
}

// toggleCmd flips the favorite state of an entry.
func (m Model) toggleCmd(entry listEntry) tea.Cmd {
	favs := m.favs
	catalog := m.catalog
	return func() tea.Msg {
		if favs == nil {
			return toggleDoneMsg{err: favorites.ErrNotAuthenticated}
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		status, err := favs.IsFavorited(ctx, entry.id)
		if err != nil {
			return toggleDoneMsg{err: err}
		}

		fav := favorites.Favorite{PokemonID: entry.id, PokemonName: entry.name}
		if !status.Favorited {
			if p, getErr := catalog.Get(ctx, entry.name); getErr == nil {
				fav.ImageURL = p.Sprites.Image()
			}
		}

		_, err = favs.Toggle(ctx, fav, status)
		return toggleDoneMsg{err: err}
	}
}

// removeCmd deletes a favorite record.
func (m Model) removeCmd(rec favorites.Record) tea.Cmd {
	favs := m.favs
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		return toggleDoneMsg{err: favs.Remove(ctx, rec.ID, rec.PokemonID)}
	}
}

// startWatchCmd opens the live favorites subscription.
func (m Model) startWatchCmd() tea.Cmd {
	favs := m.favs
	return func() tea.Msg {
		if favs == nil {
			return watchStartedMsg{err: favorites.ErrNotAuthenticated}
		}
		ch, stop, err := favs.Watch(context.Background())
		return watchStartedMsg{ch: ch, stop: stop, err: err}
	}
}

// waitForPushCmd blocks on the subscription channel for the next update.
func (m Model) waitForPushCmd() tea.Cmd {
	ch := m.favCh
	return func() tea.Msg {
		records, ok := <-ch
		if !ok {
			return favoritesClosedMsg{}
		}
		return favoritesPushMsg{records: records}
	}
}

// refreshFavoritesCmd primes the list without waiting for a push.
func (m Model) refreshFavoritesCmd() tea.Cmd {
	favs := m.favs
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		records, err := favs.List(ctx)
		if err != nil {
			return favoritesPushMsg{}
		}
		return favoritesPushMsg{records: records}
	}
}

// Run starts the TUI and blocks until it exits.
func Run(opts Options) error {
	model := New(opts)
	p := tea.NewProgram(model, tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	if _, ok := finalModel.(Model); !ok {
		return ErrTUIUnexpectedModel
	}
	return nil
}
