package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/pkgdocs/pkg/docs"
)

func browserDoc() *docs.Documentation {
	return &docs.Documentation{
		Name:            "express",
		Dependencies:    map[string]string{"qs": "6.11.0", "accepts": "~1.3.8"},
		DevDependencies: map[string]string{"mocha": "10.2.0"},
	}
}

func TestNewDepListModel_Ordering(t *testing.T) {
	m := NewDepListModel(browserDoc())

	if len(m.Deps) != 3 {
		t.Fatalf("deps = %d, want 3", len(m.Deps))
	}

	// Runtime deps alphabetically, then dev deps.
	want := []string{"accepts", "qs", "mocha"}
	for i, name := range want {
		if m.Deps[i].Name != name {
			t.Errorf("deps[%d] = %q, want %q", i, m.Deps[i].Name, name)
		}
	}
	if !m.Deps[2].Dev {
		t.Error("mocha should be marked as a dev dependency")
	}
}

func TestDepListModel_Navigation(t *testing.T) {
	m := NewDepListModel(browserDoc())

	key := func(s string) tea.Msg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

	next, _ := m.Update(key("j"))
	m = next.(DepListModel)
	if m.Cursor != 1 {
		t.Errorf("cursor = %d after one down, want 1", m.Cursor)
	}

	next, _ = m.Update(key("k"))
	m = next.(DepListModel)
	if m.Cursor != 0 {
		t.Errorf("cursor = %d after down+up, want 0", m.Cursor)
	}

	// Moving above the top is a no-op.
	next, _ = m.Update(key("k"))
	m = next.(DepListModel)
	if m.Cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.Cursor)
	}
}

func TestDepListModel_Select(t *testing.T) {
	m := NewDepListModel(browserDoc())

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(DepListModel)

	if m.Selected != "accepts" {
		t.Errorf("Selected = %q, want accepts", m.Selected)
	}
	if cmd == nil {
		t.Error("enter should quit the program")
	}
}

func TestDepListModel_View(t *testing.T) {
	m := NewDepListModel(browserDoc())
	view := m.View()

	for _, want := range []string{"Dependencies of express", "accepts", "qs", "mocha"} {
		if !strings.Contains(view, want) {
			t.Errorf("view is missing %q", want)
		}
	}
}
