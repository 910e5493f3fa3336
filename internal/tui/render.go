package tui

import (
	"fmt"
	"strings"

	"github.com/bunchhieng/linkdir/internal/model"
	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Background(lipgloss.Color("236")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("230")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	hostStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33"))

	clickStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	searchStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("230")).
			Padding(0, 1)
)

func (m appModel) categoryLabel() string {
	if m.catIndex == 0 {
		return "All"
	}
	c := m.categories[m.catIndex-1]
	return c.Icon + " " + c.Name
}

func (m appModel) renderHeader() string {
	title := m.site.Title
	if title == "" {
		title = "linkdir"
	}
	header := fmt.Sprintf("%s  [%s]  [%d links]", title, m.categoryLabel(), len(m.filtered))
	if m.fetching {
		header += "  fetching GitHub..."
	}
	return headerStyle.Render(header)
}

func (m appModel) renderSearchBar() string {
	prompt := "/" + m.query
	if m.searchMode {
		prompt += "█"
	}
	return searchStyle.Width(max(m.width-2, 10)).Render(prompt)
}

func (m appModel) renderList() string {
	if len(m.filtered) == 0 {
		return "No links found. Press / to search, tab to change category or q to quit."
	}

	var b strings.Builder
	listHeight := max(m.height-4, 1)

	// Keep the selection visible.
	start := 0
	if m.selected >= listHeight {
		start = m.selected - listHeight + 1
	}

	for i := start; i < len(m.filtered) && i < start+listHeight; i++ {
		b.WriteString(m.renderLink(m.filtered[i], i == m.selected))
		b.WriteString("\n")
	}

	return b.String()
}

func (m appModel) renderLink(link model.LinkRecord, selected bool) string {
	title := link.Title
	if r := []rune(title); len(r) > 40 {
		title = string(r[:37]) + "..."
	}

	clicks := ""
	if link.ClickCount > 0 {
		clicks = fmt.Sprintf(" ★%d", link.ClickCount)
	}

	line := fmt.Sprintf("%s %s %s %s%s",
		link.Icon,
		titleStyle.Render(title),
		hostStyle.Render(link.Host()),
		dimStyle.Render(link.CategoryID),
		clickStyle.Render(clicks),
	)

	if selected {
		return selectedStyle.Render(line)
	}
	return " " + line
}

func (m appModel) renderStatusBar() string {
	var parts []string

	if m.statusMsg != "" {
		parts = append(parts, m.statusMsg)
	} else {
		parts = append(parts, fmt.Sprintf("%d/%d", min(m.selected+1, len(m.filtered)), len(m.filtered)))
	}

	parts = append(parts, "[enter]open [/]search [tab]category [f]etch GitHub [q]uit")

	return statusBarStyle.Width(m.width).Render(strings.Join(parts, "  |  "))
}
