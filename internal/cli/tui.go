package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/ondemand/pkg/project"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// UnitPickerModel - Interactive unit selection
// =============================================================================

// UnitPickerModel is the bubbletea model for choosing which units take part
// in a build session. All units start selected.
type UnitPickerModel struct {
	Units     []*project.Unit
	Chosen    []bool
	Cursor    int
	Height    int
	Offset    int
	Confirmed bool
}

// NewUnitPickerModel creates a picker over units.
func NewUnitPickerModel(units []*project.Unit) UnitPickerModel {
	chosen := make([]bool, len(units))
	for i := range chosen {
		chosen[i] = true
	}
	return UnitPickerModel{
		Units:  units,
		Chosen: chosen,
		Height: 15,
	}
}

func (m UnitPickerModel) Init() tea.Cmd {
	return nil
}

func (m UnitPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if m.Cursor < len(m.Units)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case " ", "space", "x":
			if len(m.Units) > 0 {
				m.Chosen[m.Cursor] = !m.Chosen[m.Cursor]
			}
		case "a":
			all := !m.allChosen()
			for i := range m.Chosen {
				m.Chosen[i] = all
			}
		case "enter":
			m.Confirmed = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 7
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m UnitPickerModel) allChosen() bool {
	for _, c := range m.Chosen {
		if !c {
			return false
		}
	}
	return true
}

// Selected returns the chosen units in their original order, or nil when
// the picker was dismissed.
func (m UnitPickerModel) Selected() []*project.Unit {
	if !m.Confirmed {
		return nil
	}
	var out []*project.Unit
	for i, u := range m.Units {
		if m.Chosen[i] {
			out = append(out, u)
		}
	}
	return out
}

func (m UnitPickerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Units"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  space toggle  a all  ⏎ build  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Units))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		u := m.Units[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		mark := "[ ]"
		if m.Chosen[i] {
			mark = "[x]"
		}
		parent := u.ParentArtifactID()
		if parent == "" {
			parent = "—"
		}
		rows = append(rows, []string{cursor + mark, u.Key().String(), u.Version, parent})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Unit", "Version", "Parent").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			idx := m.Offset + row
			if idx >= len(m.Units) {
				return lipgloss.NewStyle()
			}
			base := lipgloss.NewStyle()
			if idx == m.Cursor {
				base = base.Bold(true)
			}
			if m.Chosen[idx] {
				return base.Foreground(colorGreen)
			}
			return base.Foreground(colorDim)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	count := 0
	for _, c := range m.Chosen {
		if c {
			count++
		}
	}
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]  %d selected", m.Cursor+1, len(m.Units), count)))

	return b.String()
}

// pickUnits runs the picker and returns the chosen units. It returns nil
// when the user quits without confirming.
func pickUnits(units []*project.Unit) ([]*project.Unit, error) {
	final, err := tea.NewProgram(NewUnitPickerModel(units)).Run()
	if err != nil {
		return nil, fmt.Errorf("unit picker: %w", err)
	}
	return final.(UnitPickerModel).Selected(), nil
}
