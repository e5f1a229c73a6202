package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/stagehand-dev/stagehand/pkg/scene"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// LayoutListModel - Interactive layout file selection
// =============================================================================

// layoutEntry is one selectable layout file with its preview metadata.
type layoutEntry struct {
	Path    string
	Name    string
	Room    string // formatted room dimensions, empty when unreadable
	Objects int
	Valid   bool
}

// LayoutListModel is the bubbletea model for interactive layout selection.
type LayoutListModel struct {
	Entries  []layoutEntry
	Cursor   int
	Selected *layoutEntry
}

// NewLayoutListModel creates a layout list model from the given entries.
func NewLayoutListModel(entries []layoutEntry) LayoutListModel {
	return LayoutListModel{Entries: entries}
}

func (m LayoutListModel) Init() tea.Cmd {
	return nil
}

func (m LayoutListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < len(m.Entries)-1 {
				m.Cursor++
			}
		case "enter":
			entry := m.Entries[m.Cursor]
			if !entry.Valid {
				return m, nil
			}
			m.Selected = &entry
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m LayoutListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Layout"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	for i, entry := range m.Entries {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		detail := StyleDim.Render("unreadable")
		if entry.Valid {
			detail = listDimStyle.Render(fmt.Sprintf("%s · %d objects", entry.Room, entry.Objects))
		}

		line := fmt.Sprintf("%s%-30s  %s", cursor, entry.Name, detail)
		switch {
		case i == m.Cursor:
			b.WriteString(listSelectedStyle.Render(line))
		case !entry.Valid:
			b.WriteString(listDimStyle.Render(line))
		default:
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Entries))))

	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

// scanLayouts lists the JSON layouts in dir with preview metadata, sorted
// by name.
func scanLayouts(dir string) ([]layoutEntry, error) {
	names, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var entries []layoutEntry
	for _, de := range names {
		if de.IsDir() || filepath.Ext(de.Name()) != ".json" {
			continue
		}
		path := filepath.Join(dir, de.Name())
		entry := layoutEntry{Path: path, Name: de.Name()}
		if l, err := scene.ReadLayoutFile(path); err == nil && l.Room.Valid() {
			entry.Valid = true
			entry.Room = fmt.Sprintf("%g×%g×%gm", l.Room.Width, l.Room.Depth, l.Room.Height)
			entry.Objects = len(l.Objects)
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// pickLayout runs the interactive picker over dir and returns the chosen
// layout path. Returns "" when the user quit without selecting.
func pickLayout(dir string) (string, error) {
	entries, err := scanLayouts(dir)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", fmt.Errorf("no layout files in %s", dir)
	}

	final, err := tea.NewProgram(NewLayoutListModel(entries)).Run()
	if err != nil {
		return "", err
	}
	model, ok := final.(LayoutListModel)
	if !ok || model.Selected == nil {
		return "", nil
	}
	return model.Selected.Path, nil
}
