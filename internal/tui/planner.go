package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"climb-pacer/internal/pacing"
	"climb-pacer/internal/service"
)

const (
	inputFTP = iota
	inputWPrime
	inputMass
)

// PlannerModel is the interactive planning screen. Editing any rider field
// recomputes the plan in the background.
type PlannerModel struct {
	plans   *service.PlanService
	profile *service.ProfileService
	course  pacing.CourseProfile
	units   Units

	inputs []textinput.Model
	focus  int

	// seq identifies the latest request; results with another seq are stale
	seq       int
	computing bool
	result    *service.PlanResult
	display   *service.PlanDisplay
	err       error
	status    string

	table  viewport.Model
	width  int
	height int
}

type planComputedMsg struct {
	seq    int
	result *service.PlanResult
	err    error
}

type planSavedMsg struct {
	id  string
	err error
}

// NewPlannerModel creates the planner for a course, prefilled with rider
func NewPlannerModel(plans *service.PlanService, profile *service.ProfileService, course pacing.CourseProfile, rider pacing.RiderProfile, units Units) PlannerModel {
	m := PlannerModel{
		plans:   plans,
		profile: profile,
		course:  course,
		units:   units,
		table:   viewport.New(80, 10),
	}

	values := []struct {
		placeholder string
		value       float64
	}{
		{"FTP (W)", rider.FTP},
		{"W′ (J)", rider.WPrime},
		{"Weight (kg)", rider.BodyMass},
	}
	for _, v := range values {
		ti := textinput.New()
		ti.Placeholder = v.placeholder
		ti.CharLimit = 7
		ti.Width = 8
		ti.Prompt = ""
		ti.SetValue(strconv.FormatFloat(v.value, 'f', -1, 64))
		m.inputs = append(m.inputs, ti)
	}
	m.inputs[inputFTP].Focus()

	m.seq = 1
	if _, err := m.rider(); err != nil {
		m.err = err
	} else {
		m.computing = true
	}
	return m
}

// Init computes the initial plan
func (m PlannerModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.computeCmd())
}

// requestPlan starts a new request, superseding any in flight
func (m *PlannerModel) requestPlan() tea.Cmd {
	m.seq++

	if _, err := m.rider(); err != nil {
		m.err = err
		m.computing = false
		return nil
	}

	m.err = nil
	m.computing = true
	return m.computeCmd()
}

// computeCmd computes the plan for the current inputs, tagged with the current seq
func (m PlannerModel) computeCmd() tea.Cmd {
	rider, err := m.rider()
	if err != nil {
		return nil
	}

	seq, plans, course := m.seq, m.plans, m.course
	return func() tea.Msg {
		result, err := plans.Compute(rider, course)
		return planComputedMsg{seq: seq, result: result, err: err}
	}
}

func (m PlannerModel) rider() (pacing.RiderProfile, error) {
	names := []string{"FTP", "W′", "weight"}
	vals := make([]float64, len(m.inputs))
	for i, in := range m.inputs {
		v, err := strconv.ParseFloat(strings.TrimSpace(in.Value()), 64)
		if err != nil || v <= 0 {
			return pacing.RiderProfile{}, fmt.Errorf("%s must be a positive number", names[i])
		}
		vals[i] = v
	}
	return pacing.RiderProfile{FTP: vals[inputFTP], WPrime: vals[inputWPrime], BodyMass: vals[inputMass]}, nil
}

// Update handles messages
func (m PlannerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case planComputedMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.computing = false
		m.err = msg.err
		m.result = msg.result
		if msg.result != nil {
			d := service.NewPlanDisplay(msg.result, m.units.IsMiles())
			m.display = &d
			m.table.SetContent(m.renderTable())
		}
		return m, nil

	case planSavedMsg:
		if msg.err != nil {
			m.status = errorStyle.Render("Save failed: " + msg.err.Error())
		} else {
			m.status = successStyle.Render("Saved plan " + msg.id[:8])
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.Width = msg.Width
		m.table.Height = max(5, msg.Height-32)
		if m.display != nil {
			m.table.SetContent(m.renderTable())
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "down":
			m.setFocus((m.focus + 1) % len(m.inputs))
			return m, nil
		case "shift+tab", "up":
			m.setFocus((m.focus + len(m.inputs) - 1) % len(m.inputs))
			return m, nil
		case "pgdown", "pgup":
			var cmd tea.Cmd
			m.table, cmd = m.table.Update(msg)
			return m, cmd
		case "ctrl+s":
			return m, m.save()
		}

		before := m.inputs[m.focus].Value()
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		if m.inputs[m.focus].Value() != before {
			m.status = ""
			return m, tea.Batch(cmd, m.requestPlan())
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *PlannerModel) setFocus(i int) {
	m.inputs[m.focus].Blur()
	m.focus = i
	m.inputs[m.focus].Focus()
}

func (m PlannerModel) save() tea.Cmd {
	if m.result == nil || m.computing {
		return nil
	}
	result, plans, profile := m.result, m.plans, m.profile
	return func() tea.Msg {
		if profile != nil {
			if err := profile.Save(result.Rider); err != nil {
				return planSavedMsg{err: err}
			}
		}
		id, err := plans.Save(result)
		return planSavedMsg{id: id, err: err}
	}
}

// View renders the planner
func (m PlannerModel) View() string {
	var sections []string

	top := lipgloss.JoinHorizontal(lipgloss.Top, m.renderInputs(), "  ", m.renderSummary())
	sections = append(sections, top)

	if m.display != nil && m.display.Warning != "" {
		sections = append(sections, warningStyle.Render("⚠ "+m.display.Warning))
	}

	if m.display != nil {
		sections = append(sections, renderCharts(m.display, m.width))
		sections = append(sections, m.table.View())
	}

	help := "tab: next field  ctrl+s: save plan  pgup/pgdn: scroll segments"
	sections = append(sections, statusStyle.Render(help))
	if m.status != "" {
		sections = append(sections, m.status)
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m PlannerModel) renderInputs() string {
	labels := []string{"FTP", "W′", "Weight"}
	units := []string{"W", "J", "kg"}

	lines := []string{cardTitleStyle.Render("Rider")}
	for i, in := range m.inputs {
		label := inputLabelStyle.Render(labels[i])
		if i == m.focus {
			label = inputLabelStyle.Inherit(inputFocusedStyle).Render("› " + labels[i])
		}
		lines = append(lines, label+in.View()+" "+helpDescStyle.Render(units[i]))
	}
	return cardStyle.Width(30).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m PlannerModel) renderSummary() string {
	title := cardTitleStyle.Render(m.course.Name)

	switch {
	case m.err != nil:
		return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, errorStyle.Render(m.err.Error())))
	case m.display == nil:
		return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, "Computing..."))
	}

	d := m.display
	lines := []string{
		RenderMetric("Course", fmt.Sprintf("%s, %s, %s avg", d.Distance, d.Climbing, d.AverageGrade)),
		RenderMetric("Finish time", d.TotalTime),
		RenderMetric("Intensity", d.Intensity),
		RenderMetric("Avg power", d.AveragePower),
		RenderMetric("Avg speed", d.AverageSpeed),
		RenderMetric("Lowest W′", d.MinBalance),
	}
	if m.computing {
		lines = append(lines, helpDescStyle.Render("updating..."))
	}
	return cardStyle.Width(48).Render(lipgloss.JoinVertical(lipgloss.Left, append([]string{title}, lines...)...))
}

func (m PlannerModel) renderTable() string {
	header := tableHeaderStyle.Render(fmt.Sprintf("%3s  %8s  %6s  %6s  %9s  %6s  %7s  %-10s  %s",
		"#", "Dist", "Grade", "Power", "Speed", "Time", "Elapsed", "W′", ""))

	rows := []string{header}
	for _, r := range m.display.Rows {
		line := fmt.Sprintf("%3d  %8s  %6s  %6s  %9s  %6s  %7s  %-10s  %s",
			r.Number, r.Distance, r.Grade, r.Power, r.Speed, r.Time, r.Elapsed, r.WBalance,
			RenderReserveBar(r.WBalancePct, 12, r.LowReserve))
		if r.Clamped {
			line += " *"
		}

		style := tableRowStyle
		switch {
		case r.LowReserve:
			style = lowReserveStyle
		case r.AboveFTP:
			style = aboveFTPStyle
		}
		rows = append(rows, style.Render(line))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
