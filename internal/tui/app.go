package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"climb-pacer/internal/pacing"
	"climb-pacer/internal/service"
)

// Screen identifiers
type Screen int

const (
	ScreenPlanner Screen = iota
	ScreenHistory
	ScreenHelp
)

// App is the root Bubble Tea model
type App struct {
	screen     Screen
	prevScreen Screen

	// Screen models
	planner PlannerModel
	history HistoryModel
	help    HelpModel

	plans *service.PlanService
	units Units

	// Window dimensions
	width  int
	height int
}

// NewApp creates a new App with all dependencies
func NewApp(plans *service.PlanService, profile *service.ProfileService, course pacing.CourseProfile, rider pacing.RiderProfile, units Units) *App {
	return &App{
		screen:  ScreenPlanner,
		plans:   plans,
		units:   units,
		planner: NewPlannerModel(plans, profile, course, rider, units),
		history: NewHistoryModel(plans, units, 0, 0),
		help:    NewHelpModel(),
	}
}

// Init initializes the app
func (a *App) Init() tea.Cmd {
	return a.planner.Init()
}

// Update handles messages
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "f1":
			a.screen = ScreenPlanner
			return a, nil
		case "f2":
			a.screen = ScreenHistory
			a.history = NewHistoryModel(a.plans, a.units, a.width, a.height)
			return a, a.history.Init()
		case "f3":
			a.openHelp()
			return a, nil
		}

		// Printable shortcuts belong to the inputs while planning
		if a.screen != ScreenPlanner {
			switch msg.String() {
			case "q":
				if a.screen != ScreenHistory || a.history.detail == nil {
					return a, tea.Quit
				}
			case "?":
				a.openHelp()
				return a, nil
			case "esc":
				if a.screen == ScreenHelp {
					a.screen = a.prevScreen
					return a, nil
				}
			}
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		var cmds []tea.Cmd
		var m tea.Model
		var cmd tea.Cmd
		m, cmd = a.planner.Update(msg)
		a.planner = m.(PlannerModel)
		cmds = append(cmds, cmd)
		m, cmd = a.history.Update(msg)
		a.history = m.(HistoryModel)
		cmds = append(cmds, cmd)
		return a, tea.Batch(cmds...)

	// Results are routed to their screen even when it is not shown
	case planComputedMsg, planSavedMsg:
		m, cmd := a.planner.Update(msg)
		a.planner = m.(PlannerModel)
		return a, cmd

	case historyLoadedMsg, planLoadedMsg:
		m, cmd := a.history.Update(msg)
		a.history = m.(HistoryModel)
		return a, cmd
	}

	// Delegate to current screen
	var cmd tea.Cmd
	switch a.screen {
	case ScreenPlanner:
		var m tea.Model
		m, cmd = a.planner.Update(msg)
		a.planner = m.(PlannerModel)
	case ScreenHistory:
		var m tea.Model
		m, cmd = a.history.Update(msg)
		a.history = m.(HistoryModel)
	case ScreenHelp:
		var m tea.Model
		m, cmd = a.help.Update(msg)
		a.help = m.(HelpModel)
	}

	return a, cmd
}

func (a *App) openHelp() {
	if a.screen != ScreenHelp {
		a.prevScreen = a.screen
	}
	a.screen = ScreenHelp
}

// View renders the app
func (a *App) View() string {
	var content string
	switch a.screen {
	case ScreenPlanner:
		content = a.planner.View()
	case ScreenHistory:
		content = a.history.View()
	case ScreenHelp:
		content = a.help.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, a.renderHeader(), a.renderNav(), content)
}

func (a *App) renderHeader() string {
	return headerStyle.Render("Climb Pacer · " + a.planner.course.Name)
}

func (a *App) renderNav() string {
	items := []struct {
		key    string
		label  string
		screen Screen
	}{
		{"f1", "Planner", ScreenPlanner},
		{"f2", "Saved Plans", ScreenHistory},
		{"f3", "Help", ScreenHelp},
	}

	var nav string
	for i, item := range items {
		if i > 0 {
			nav += "  "
		}

		label := "[" + item.key + "] " + item.label
		if a.screen == item.screen {
			nav += navActiveStyle.Render(label)
		} else {
			nav += navInactiveStyle.Render(label)
		}
	}

	nav += "  " + navInactiveStyle.Render("[ctrl+c] Quit")

	return navStyle.Render(nav)
}
