package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// HelpModel is the help screen model
type HelpModel struct{}

// NewHelpModel creates a new help model
func NewHelpModel() HelpModel {
	return HelpModel{}
}

// Init initializes the help screen
func (m HelpModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m HelpModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m, nil
}

type keyHelp struct {
	key  string
	desc string
}

// View renders the help screen
func (m HelpModel) View() string {
	sections := []string{
		cardTitleStyle.Render("Keyboard Shortcuts"),
		m.renderSection("Navigation", []keyHelp{
			{"f1", "Planner"},
			{"f2", "Saved plans"},
			{"f3 / ?", "Help (this screen)"},
			{"esc", "Close help"},
			{"q", "Quit (outside the planner)"},
			{"ctrl+c", "Quit"},
		}),
		m.renderSection("Planner", []keyHelp{
			{"tab / down", "Next input"},
			{"shift+tab / up", "Previous input"},
			{"pgup / pgdn", "Scroll segment table"},
			{"ctrl+s", "Save plan and rider profile"},
		}),
		m.renderSection("Saved Plans", []keyHelp{
			{"j / k", "Move cursor"},
			{"enter", "Open plan"},
			{"d", "Delete plan"},
			{"r", "Refresh list"},
		}),
		m.renderTermsHelp(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m HelpModel) renderSection(title string, keys []keyHelp) string {
	lines := []string{"", sectionStyle.Render(title)}
	for _, k := range keys {
		lines = append(lines, "  "+RenderKeyHelp(k.key, k.desc))
	}
	return strings.Join(lines, "\n")
}

func (m HelpModel) renderTermsHelp() string {
	lines := []string{"", sectionStyle.Render("How the plan works"), ""}

	terms := []struct {
		name string
		desc string
	}{
		{"FTP", "Power you can hold for about an hour. Power above it drains W′."},
		{"W′", "Finite energy reserve above FTP, in joules. Refills below FTP."},
		{"Intensity", "Scale applied to the base policy. Highest value that never empties W′."},
		{"Base policy", "FTP plus 2% per point of grade above 7.5%, less on easier grades."},
		{"Infeasible", "Even the easiest intensity empties W′. The plan shown is that easiest one."},
	}

	for _, t := range terms {
		lines = append(lines, "  "+helpKeyStyle.Render(t.name))
		lines = append(lines, "  "+helpDescStyle.Render(t.desc))
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
