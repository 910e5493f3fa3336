package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bunchhieng/linkdir/internal/catalog"
	"github.com/bunchhieng/linkdir/internal/links"
	"github.com/bunchhieng/linkdir/internal/logging"
	"github.com/bunchhieng/linkdir/internal/model"
	tea "github.com/charmbracelet/bubbletea"
)

const statusTTL = 3 * time.Second

type appModel struct {
	store      *links.Store
	site       catalog.SiteInfo
	categories []model.Category
	open       func(url string) error
	log        *slog.Logger

	filtered   []model.LinkRecord
	selected   int
	catIndex   int // 0 is "all", i+1 is categories[i]
	query      string
	searchMode bool
	fetching   bool
	width      int
	height     int
	statusMsg  string
	statusSeq  int
}

// storeChangedMsg carries a store event into the program.
type storeChangedMsg struct {
	event links.Event
}

type statusMsg struct {
	message string
}

type clearStatusMsg struct {
	seq int
}

type fetchDoneMsg struct {
	added int
}

func initialModel(store *links.Store, loader *catalog.Loader, open func(string) error) appModel {
	m := appModel{
		store:      store,
		site:       loader.SiteInfo(),
		categories: loader.Categories(),
		open:       open,
		log:        logging.Component("tui"),
		query:      store.SearchQuery(),
		width:      80,
		height:     24,
	}
	for i, c := range m.categories {
		if c.ID == store.SelectedCategory() {
			m.catIndex = i + 1
		}
	}
	m.refresh()
	return m
}

func (m appModel) Init() tea.Cmd {
	return nil
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.searchMode {
			return m.handleSearchInput(msg)
		}

		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "j", "down":
			m.moveDown()

		case "k", "up":
			m.moveUp()

		case "g", "home":
			m.selected = 0

		case "G", "end":
			m.selected = max(len(m.filtered)-1, 0)

		case "o", "enter":
			return m, m.openLink()

		case "f":
			cmd := m.fetch()
			return m, cmd

		case "/":
			m.searchMode = true

		case "esc":
			m.setQuery("")

		case "tab":
			m.cycleCategory(1)

		case "shift+tab":
			m.cycleCategory(-1)
		}
		return m, nil

	case storeChangedMsg:
		m.refresh()
		return m, nil

	case fetchDoneMsg:
		m.fetching = false
		m.refresh()
		if msg.added == 0 {
			return m.setStatus("No new repositories")
		}
		return m.setStatus(fmt.Sprintf("Imported %d repositories", msg.added))

	case statusMsg:
		return m.setStatus(msg.message)

	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			m.statusMsg = ""
		}
		return m, nil
	}

	return m, nil
}

func (m appModel) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	if m.searchMode || m.query != "" {
		b.WriteString(m.renderSearchBar())
		b.WriteString("\n")
	}

	b.WriteString(m.renderList())
	b.WriteString("\n")

	b.WriteString(m.renderStatusBar())

	return b.String()
}

func (m *appModel) refresh() {
	m.filtered = m.store.FilteredLinks()
	if m.selected >= len(m.filtered) {
		m.selected = len(m.filtered) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m *appModel) moveDown() {
	if m.selected < len(m.filtered)-1 {
		m.selected++
	}
}

func (m *appModel) moveUp() {
	if m.selected > 0 {
		m.selected--
	}
}

func (m *appModel) currentCategory() string {
	if m.catIndex == 0 {
		return ""
	}
	return m.categories[m.catIndex-1].ID
}

func (m *appModel) cycleCategory(step int) {
	n := len(m.categories) + 1
	m.catIndex = ((m.catIndex+step)%n + n) % n
	m.selected = 0
	m.store.SetSelectedCategory(m.currentCategory())
	m.refresh()
}

func (m *appModel) setQuery(q string) {
	m.query = q
	m.store.SetSearchQuery(q)
	m.refresh()
}

func (m appModel) setStatus(message string) (tea.Model, tea.Cmd) {
	m.statusSeq++
	m.statusMsg = message
	seq := m.statusSeq
	return m, tea.Tick(statusTTL, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}

func (m appModel) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.searchMode = false
		m.setQuery("")

	case tea.KeyEnter:
		m.searchMode = false

	case tea.KeyBackspace:
		if r := []rune(m.query); len(r) > 0 {
			m.setQuery(string(r[:len(r)-1]))
		}

	case tea.KeyCtrlC:
		return m, tea.Quit

	case tea.KeyRunes, tea.KeySpace:
		m.setQuery(m.query + string(msg.Runes))
	}
	return m, nil
}

func (m *appModel) openLink() tea.Cmd {
	if len(m.filtered) == 0 || m.selected >= len(m.filtered) {
		return nil
	}

	link := m.filtered[m.selected]
	open := m.open
	store := m.store
	log := m.log
	return func() tea.Msg {
		if err := open(link.URL); err != nil {
			log.Warn("open link failed", "id", link.ID, "error", err)
			return statusMsg{fmt.Sprintf("Error: %v", err)}
		}
		stat := store.IncrementClickCount(link.ID)
		return statusMsg{fmt.Sprintf("Opened: %s (%d)", link.URL, stat.Count)}
	}
}

func (m *appModel) fetch() tea.Cmd {
	if m.fetching || m.store.HasExternal() {
		return func() tea.Msg { return statusMsg{"GitHub repositories already loaded"} }
	}
	m.fetching = true
	store := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		return fetchDoneMsg{added: store.FetchGitHubRepos(ctx)}
	}
}

// Run starts the TUI application.
func Run(store *links.Store, loader *catalog.Loader, open func(url string) error) error {
	p := tea.NewProgram(initialModel(store, loader, open), tea.WithAltScreen())

	// Send from a fresh goroutine: events raised inside Update would
	// otherwise block on the program's own message loop.
	cancel := store.Subscribe(func(e links.Event) {
		go p.Send(storeChangedMsg{event: e})
	})
	defer cancel()

	_, err := p.Run()
	return err
}
