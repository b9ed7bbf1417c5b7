package tui

import (
	"fmt"
	"strings"

	"github.com/bunchhieng/uuidspace/internal/model"
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

	indexStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	identifierStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33"))

	matchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	starStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	searchStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("230")).
			Padding(0, 1)
)

func (m appModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err)
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	if m.searchMode {
		b.WriteString(m.renderSearchBar())
		b.WriteString("\n")
	}

	if m.favMode {
		b.WriteString(m.renderFavorites())
	} else {
		b.WriteString(m.renderList())
	}
	b.WriteString("\n")

	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m appModel) renderHeader() string {
	header := fmt.Sprintf("uuidspace  [%s %s]  [2^%d identifiers]",
		m.space.Name(), m.space.Codec().Template(), m.space.Codec().Spec().Width)
	if frag := m.engine.Fragment(); frag != "" {
		header += fmt.Sprintf("  [search: %s, %d in history]", frag, len(m.engine.History()))
	}
	return headerStyle.Render(header)
}

func (m appModel) renderSearchBar() string {
	return searchStyle.Width(max(m.width-2, 10)).Render("/" + m.searchQuery)
}

func (m appModel) renderList() string {
	indexWidth := len(m.space.Max().String())
	frag := m.engine.Fragment()

	var b strings.Builder
	for i, e := range m.entries {
		b.WriteString(m.renderEntry(e, indexWidth, frag, i == m.selected))
		b.WriteString("\n")
	}
	return b.String()
}

func (m appModel) renderEntry(e model.Entry, indexWidth int, frag string, selected bool) string {
	star := " "
	if m.starred[e.Identifier] {
		star = "★"
	}

	line := fmt.Sprintf("%s %s %s",
		indexStyle.Render(fmt.Sprintf("%*s", indexWidth, e.Index.String())),
		highlight(e.Identifier, frag),
		starStyle.Render(star),
	)

	if selected {
		return selectedStyle.Render(line)
	}
	return " " + line
}

// highlight renders the first occurrence of frag in id.
func highlight(id, frag string) string {
	at := -1
	if frag != "" {
		at = strings.Index(id, frag)
	}
	if at < 0 {
		return identifierStyle.Render(id)
	}
	return identifierStyle.Render(id[:at]) +
		matchStyle.Render(id[at:at+len(frag)]) +
		identifierStyle.Render(id[at+len(frag):])
}

func (m appModel) renderFavorites() string {
	if len(m.favorites) == 0 {
		return "No favorites for this format. Press 'f' on a row to star it, esc to go back."
	}

	var b strings.Builder
	for i, f := range m.favorites {
		line := fmt.Sprintf("%s %s %s",
			starStyle.Render("★"),
			identifierStyle.Render(f.Identifier),
			indexStyle.Render(f.Note),
		)
		if i == m.favSelected {
			line = selectedStyle.Render(line)
		} else {
			line = " " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m appModel) renderStatusBar() string {
	var parts []string

	if m.statusMsg != "" {
		parts = append(parts, m.statusMsg)
	} else if e, ok := m.selectedEntry(); ok {
		parts = append(parts, fmt.Sprintf("#%s", e.Index))
	}

	if m.favMode {
		parts = append(parts, "[enter]jump [d]unstar [esc]back [q]uit")
	} else {
		parts = append(parts, "[/]search [n/N]next/prev [f]star [F]favorites [y]index [c]opy [q]uit")
	}

	return statusBarStyle.Width(m.width).Render(strings.Join(parts, "  |  "))
}
