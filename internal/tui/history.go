package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"climb-pacer/internal/service"
)

// HistoryModel lists saved plans and shows one in detail
type HistoryModel struct {
	plans *service.PlanService
	units Units

	rows    []service.HistoryRow
	cursor  int
	loading bool
	err     error

	// Detail view of the selected plan
	detail   *service.PlanDisplay
	viewport viewport.Model
	width    int
	height   int
}

// NewHistoryModel creates a new history model
func NewHistoryModel(plans *service.PlanService, units Units, width, height int) HistoryModel {
	m := HistoryModel{
		plans:   plans,
		units:   units,
		loading: true,
		width:   width,
		height:  height,
	}
	m.viewport = viewport.New(width, max(5, height-6))
	return m
}

type historyLoadedMsg struct {
	rows []service.HistoryRow
	err  error
}

type planLoadedMsg struct {
	display *service.PlanDisplay
	err     error
}

// Init loads saved plans
func (m HistoryModel) Init() tea.Cmd {
	return m.load
}

func (m HistoryModel) load() tea.Msg {
	plans, err := m.plans.History(service.DefaultHistoryLimit)
	if err != nil {
		return historyLoadedMsg{err: err}
	}
	return historyLoadedMsg{rows: service.NewHistoryRows(plans, time.Now())}
}

func (m HistoryModel) open(id string) tea.Cmd {
	plans, miles := m.plans, m.units.IsMiles()
	return func() tea.Msg {
		saved, err := plans.Get(id)
		if err != nil {
			return planLoadedMsg{err: err}
		}
		d := service.NewSavedPlanDisplay(saved, miles)
		return planLoadedMsg{display: &d}
	}
}

func (m HistoryModel) remove(id string) tea.Cmd {
	plans := m.plans
	return func() tea.Msg {
		if err := plans.Delete(id); err != nil {
			return historyLoadedMsg{err: err}
		}
		return m.load()
	}
}

// Update handles messages
func (m HistoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.rows = msg.rows
		if m.cursor >= len(m.rows) {
			m.cursor = max(0, len(m.rows)-1)
		}

	case planLoadedMsg:
		m.err = msg.err
		m.detail = msg.display
		if m.detail != nil {
			m.viewport.SetContent(m.renderDetail())
			m.viewport.GotoTop()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(5, msg.Height-6)
		if m.detail != nil {
			m.viewport.SetContent(m.renderDetail())
		}

	case tea.KeyMsg:
		if m.detail != nil {
			if msg.String() == "esc" || msg.String() == "backspace" {
				m.detail = nil
				return m, nil
			}
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
			}
		case "enter":
			if len(m.rows) > 0 {
				return m, m.open(m.rows[m.cursor].ID)
			}
		case "d":
			if len(m.rows) > 0 {
				return m, m.remove(m.rows[m.cursor].ID)
			}
		case "r":
			m.loading = true
			return m, m.load
		}
	}
	return m, nil
}

// View renders the history screen
func (m HistoryModel) View() string {
	if m.detail != nil {
		footer := statusStyle.Render("esc: back to list  ↑/↓: scroll")
		return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), footer)
	}

	if m.loading {
		return "\n  Loading saved plans..."
	}
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}
	if len(m.rows) == 0 {
		return "\n  No saved plans yet. Press ctrl+s on the planner to save one."
	}

	header := tableHeaderStyle.Render(fmt.Sprintf("%-24s  %-16s  %-16s  %8s  %9s  %s",
		"Course", "Saved", "Rider", "Time", "Intensity", ""))
	lines := []string{cardTitleStyle.Render("Saved Plans"), header}

	for i, r := range m.rows {
		flag := ""
		if !r.Feasible {
			flag = "infeasible"
		}
		line := fmt.Sprintf("%-24s  %-16s  %-16s  %8s  %9s  %s",
			truncateName(r.Course, 24), r.Saved, r.Rider, r.TotalTime, r.Intensity, flag)
		if i == m.cursor {
			lines = append(lines, tableSelectedStyle.Render(line))
		} else {
			lines = append(lines, tableRowStyle.Render(line))
		}
	}

	lines = append(lines, statusStyle.Render("enter: open  d: delete  r: refresh"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m HistoryModel) renderDetail() string {
	d := m.detail
	lines := []string{
		cardTitleStyle.Render(d.CourseName),
		RenderMetric("Rider", d.Rider),
		RenderMetric("Finish time", d.TotalTime),
		RenderMetric("Intensity", d.Intensity),
		RenderMetric("Avg power", d.AveragePower),
		RenderMetric("Lowest W′", d.MinBalance),
	}
	if d.Warning != "" {
		lines = append(lines, warningStyle.Render("⚠ "+d.Warning))
	}
	lines = append(lines, renderCharts(d, m.width))

	for _, r := range d.Rows {
		lines = append(lines, tableRowStyle.Render(fmt.Sprintf("%3d  %8s  %6s  %6s  %9s  %6s  %s",
			r.Number, r.Distance, r.Grade, r.Power, r.Speed, r.Elapsed, r.WBalance)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// truncateName shortens a name to fit a column
func truncateName(name string, maxLen int) string {
	runes := []rune(name)
	if len(runes) <= maxLen {
		return name
	}
	return string(runes[:maxLen-3]) + "..."
}
