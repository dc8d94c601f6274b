package cli

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/pkgdocs/pkg/docs"
)

// List styles
var (
	listNormalStyle = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
)

// depEntry is one row in the dependency browser.
type depEntry struct {
	Name  string
	Range string
	Dev   bool
}

// DepListModel is the bubbletea model for interactive dependency selection.
type DepListModel struct {
	Package  string
	Deps     []depEntry
	Cursor   int
	Selected string
	Height   int
	Offset   int
}

// NewDepListModel builds the model from a package's dependency maps.
// Runtime dependencies sort before dev dependencies, alphabetically within
// each group.
func NewDepListModel(doc *docs.Documentation) DepListModel {
	var deps []depEntry
	for name, rng := range doc.Dependencies {
		deps = append(deps, depEntry{Name: name, Range: rng})
	}
	for name, rng := range doc.DevDependencies {
		deps = append(deps, depEntry{Name: name, Range: rng, Dev: true})
	}
	sort.Slice(deps, func(i, j int) bool {
		if deps[i].Dev != deps[j].Dev {
			return !deps[i].Dev
		}
		return deps[i].Name < deps[j].Name
	})

	return DepListModel{
		Package: doc.Name,
		Deps:    deps,
		Height:  15,
	}
}

func (m DepListModel) Init() tea.Cmd {
	return nil
}

func (m DepListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Deps)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			m.Selected = m.Deps[m.Cursor].Name
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m DepListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(fmt.Sprintf("Dependencies of %s", m.Package)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ look up  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Deps) {
		end = len(m.Deps)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		d := m.Deps[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		kind := "runtime"
		if d.Dev {
			kind = "dev"
		}

		rows = append(rows, []string{cursor, d.Name, d.Range, kind})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Package", "Range", "Kind").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}

			actualIdx := m.Offset + row
			if actualIdx >= len(m.Deps) {
				return lipgloss.NewStyle()
			}
			d := m.Deps[actualIdx]

			base := listNormalStyle
			if d.Dev {
				base = listDimStyle
			}
			if actualIdx == m.Cursor {
				return base.Foreground(colorCyan).Bold(true)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Deps))))

	return b.String()
}

// selectDependency runs the interactive browser and returns the chosen
// dependency name, or "" when the user quits without selecting.
func selectDependency(doc *docs.Documentation) (string, error) {
	model := NewDepListModel(doc)
	if len(model.Deps) == 0 {
		return "", nil
	}

	final, err := tea.NewProgram(model).Run()
	if err != nil {
		return "", fmt.Errorf("dependency browser: %w", err)
	}
	if m, ok := final.(DepListModel); ok {
		return m.Selected, nil
	}
	return "", nil
}
