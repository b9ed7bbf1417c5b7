package tui

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/bunchhieng/uuidspace/internal/model"
	"github.com/bunchhieng/uuidspace/internal/search"
	"github.com/bunchhieng/uuidspace/internal/space"
	"github.com/atotto/clipboard"
	"github.com/bunchhieng/uuidspace/internal/storage"
	tea "github.com/charmbracelet/bubbletea"
)

// Options configures the browser.
type Options struct {
	Search search.Options
	Page   int // rows shown before the first resize message
}

type appModel struct {
	space    *space.Space
	storage  storage.Storage
	engine   *search.Engine
	top      *big.Int // index of the first visible row
	selected int      // row within the page
	entries  []model.Entry
	starred  map[string]bool

	searchMode  bool
	searchQuery string

	favMode     bool
	favorites   []*model.Favorite
	favSelected int

	page   int
	width  int
	height int
	err    error

	statusMsg string
}

type loadFavoritesMsg struct {
	favorites []*model.Favorite
	err       error
}

type favoriteToggledMsg struct {
	identifier string
	starred    bool
	err        error
}

type statusMsg struct {
	message string
}

func initialModel(sp *space.Space, s storage.Storage, opts Options) appModel {
	page := opts.Page
	if page <= 0 {
		page = 20
	}
	m := appModel{
		space:   sp,
		storage: s,
		engine:  search.New(sp, opts.Search),
		top:     new(big.Int),
		starred: make(map[string]bool),
		page:    page,
		width:   80,
		height:  page + 4,
	}
	m.refresh()
	return m
}

func (m appModel) Init() tea.Cmd {
	return loadFavorites(m.storage, m.space.Name())
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if page := msg.Height - 4; page > 0 {
			m.page = page
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if m.searchMode {
			return m.handleSearchInput(msg)
		}
		if m.favMode {
			return m.handleFavoritesInput(msg)
		}
		return m.handleKey(msg)

	case loadFavoritesMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.favorites = msg.favorites
		m.starred = make(map[string]bool, len(msg.favorites))
		for _, f := range msg.favorites {
			m.starred[f.Identifier] = true
		}
		if m.favSelected >= len(m.favorites) {
			m.favSelected = max(len(m.favorites)-1, 0)
		}
		return m, nil

	case favoriteToggledMsg:
		if msg.err != nil {
			return m, status(fmt.Sprintf("Error: %v", msg.err))
		}
		verb := "Unstarred"
		if msg.starred {
			verb = "Starred"
		}
		return m, tea.Batch(
			status(fmt.Sprintf("%s %s", verb, msg.identifier)),
			loadFavorites(m.storage, m.space.Name()),
		)

	case statusMsg:
		m.statusMsg = msg.message
		if msg.message == "" {
			return m, nil
		}
		return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg {
			return statusMsg{""}
		})
	}

	return m, nil
}

func (m appModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "j", "down":
		m.moveBy(1)
	case "k", "up":
		m.moveBy(-1)
	case "pgdown", "ctrl+f", " ":
		m.moveBy(m.page)
	case "pgup", "ctrl+b":
		m.moveBy(-m.page)

	case "g", "home":
		m.jumpTo(new(big.Int))
	case "G", "end":
		m.jumpTo(m.space.Max())

	case "/":
		m.searchMode = true
		m.searchQuery = m.engine.Fragment()
	case "esc":
		m.engine.Reset()
		m.searchQuery = ""
		return m, status("Search cleared")

	case "n":
		cmd := m.step(m.engine.Next)
		return m, cmd
	case "N":
		cmd := m.step(m.engine.Previous)
		return m, cmd

	case "f":
		return m, m.toggleFavorite()
	case "F":
		m.favMode = true
		return m, loadFavorites(m.storage, m.space.Name())

	case "y":
		if e, ok := m.selectedEntry(); ok {
			return m, status(fmt.Sprintf("Index %s", e.Index))
		}

	case "c":
		if e, ok := m.selectedEntry(); ok {
			return m, copyIdentifier(e.Identifier)
		}

	case "?":
		return m, status("j/k move  g/G home/end  / search  n/N next/prev  f star  F favorites  y index  c copy  q quit")
	}
	return m, nil
}

func (m appModel) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searchMode = false
		return m, nil

	case "enter":
		m.searchMode = false
		return m, nil

	case "backspace":
		if len(m.searchQuery) > 0 {
			m.searchQuery = m.searchQuery[:len(m.searchQuery)-1]
			cmd := m.runSearch()
			return m, cmd
		}
		return m, nil

	default:
		if len(msg.Runes) > 0 {
			m.searchQuery += string(msg.Runes)
			cmd := m.runSearch()
			return m, cmd
		}
		return m, nil
	}
}

func (m appModel) handleFavoritesInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "F":
		m.favMode = false
	case "j", "down":
		if m.favSelected < len(m.favorites)-1 {
			m.favSelected++
		}
	case "k", "up":
		if m.favSelected > 0 {
			m.favSelected--
		}
	case "enter":
		if m.favSelected < len(m.favorites) {
			fav := m.favorites[m.favSelected]
			idx := fav.Ordinal()
			if idx == nil {
				var err error
				if idx, err = m.space.IdentifierToIndex(fav.Identifier); err != nil {
					return m, status(fmt.Sprintf("Error: %v", err))
				}
			}
			m.favMode = false
			m.jumpTo(idx)
		}
	case "d", "f":
		if m.favSelected < len(m.favorites) {
			return m, toggle(m.storage, m.space, m.favorites[m.favSelected].Identifier, true)
		}
	}
	return m, nil
}

func (m *appModel) view() search.View {
	ref := new(big.Int).Add(m.top, big.NewInt(int64(m.selected)))
	return search.View{Reference: ref, Visible: m.entries}
}

// runSearch applies the current query; an empty query resets the engine.
func (m *appModel) runSearch() tea.Cmd {
	if m.searchQuery == "" {
		m.engine.Reset()
		return nil
	}
	res, err := m.engine.Search(m.searchQuery, m.view())
	if errors.Is(err, model.ErrUnsatisfiableFragment) {
		return status(fmt.Sprintf("%q cannot appear in %s", m.searchQuery, m.space.Codec().Template()))
	}
	if err != nil {
		return status(fmt.Sprintf("Error: %v", err))
	}
	m.show(res)
	return nil
}

func (m *appModel) step(move func(search.View) (search.Result, error)) tea.Cmd {
	res, err := move(m.view())
	if errors.Is(err, model.ErrNoActiveSearch) {
		return status("No active search; press / to search")
	}
	if err != nil {
		return status(fmt.Sprintf("Error: %v", err))
	}
	m.show(res)
	return nil
}

func (m *appModel) show(res search.Result) {
	m.jumpTo(res.Entry.Index)
	if res.Exhausted {
		m.statusMsg = "No closer match in that direction"
	} else {
		m.statusMsg = ""
	}
}

func (m *appModel) toggleFavorite() tea.Cmd {
	e, ok := m.selectedEntry()
	if !ok {
		return nil
	}
	return toggle(m.storage, m.space, e.Identifier, m.starred[e.Identifier])
}

func (m *appModel) selectedEntry() (model.Entry, bool) {
	if m.selected < 0 || m.selected >= len(m.entries) {
		return model.Entry{}, false
	}
	return m.entries[m.selected], true
}

// moveBy moves the selection by delta rows, scrolling when it leaves the page.
func (m *appModel) moveBy(delta int) {
	target := new(big.Int).Add(m.top, big.NewInt(int64(m.selected+delta)))
	target = m.space.Clamp(target)

	offset := new(big.Int).Sub(target, m.top)
	if offset.Sign() >= 0 && offset.Cmp(big.NewInt(int64(m.page))) < 0 {
		m.selected = int(offset.Int64())
		return
	}
	if offset.Sign() < 0 {
		m.top = target
		m.selected = 0
	} else {
		m.top = new(big.Int).Sub(target, big.NewInt(int64(m.page-1)))
		m.selected = m.page - 1
	}
	m.refresh()
}

// jumpTo scrolls so idx is on screen, centred when possible.
func (m *appModel) jumpTo(idx *big.Int) {
	idx = m.space.Clamp(idx)
	top := new(big.Int).Sub(idx, big.NewInt(int64(m.page/2)))
	if top.Sign() < 0 {
		top.SetInt64(0)
	}
	last := new(big.Int).Sub(m.space.Size(), big.NewInt(int64(m.page)))
	if last.Sign() < 0 {
		last.SetInt64(0)
	}
	if top.Cmp(last) > 0 {
		top = last
	}
	m.top = top
	m.selected = int(new(big.Int).Sub(idx, top).Int64())
	m.refresh()
}

func (m *appModel) refresh() {
	entries, err := m.space.Window(m.top, m.page)
	if err != nil {
		m.err = err
		return
	}
	m.entries = entries
	if m.selected >= len(m.entries) {
		m.selected = len(m.entries) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func status(message string) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{message}
	}
}

func copyIdentifier(identifier string) tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.WriteAll(identifier); err != nil {
			return statusMsg{fmt.Sprintf("Clipboard unavailable: %v", err)}
		}
		return statusMsg{"Copied " + identifier}
	}
}

func loadFavorites(s storage.Storage, format string) tea.Cmd {
	return func() tea.Msg {
		favs, err := s.List(context.Background(), storage.ListOptions{Format: format})
		return loadFavoritesMsg{favorites: favs, err: err}
	}
}

func toggle(s storage.Storage, sp *space.Space, identifier string, starred bool) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if starred {
			err := s.Remove(ctx, identifier)
			return favoriteToggledMsg{identifier: identifier, starred: false, err: err}
		}
		idx, err := sp.IdentifierToIndex(identifier)
		if err != nil {
			return favoriteToggledMsg{identifier: identifier, err: err}
		}
		_, err = s.Add(ctx, &model.Favorite{Identifier: identifier, Format: sp.Name(), Index: idx.String()})
		return favoriteToggledMsg{identifier: identifier, starred: true, err: err}
	}
}

// Run starts the browser.
func Run(sp *space.Space, s storage.Storage, opts Options) error {
	p := tea.NewProgram(initialModel(sp, s, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
