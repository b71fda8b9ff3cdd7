package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"climb-pacer/internal/service"
)

const chartHeight = 8

// renderCharts draws target power and W′ balance along the climb
func renderCharts(d *service.PlanDisplay, width int) string {
	if len(d.Powers) < 2 {
		return ""
	}

	chartWidth := width - 16
	if chartWidth < 24 {
		chartWidth = 24
	}
	if chartWidth > 90 {
		chartWidth = 90
	}

	power := asciigraph.Plot(d.Powers,
		asciigraph.Height(chartHeight),
		asciigraph.Width(chartWidth),
		asciigraph.Precision(0),
		asciigraph.SeriesColors(asciigraph.Goldenrod),
		asciigraph.Caption("Target power (W) by segment"),
	)

	balance := asciigraph.Plot(d.Balances,
		asciigraph.Height(chartHeight),
		asciigraph.Width(chartWidth),
		asciigraph.Precision(0),
		asciigraph.LowerBound(0),
		asciigraph.SeriesColors(asciigraph.MediumSeaGreen),
		asciigraph.Caption("W′ balance (J) after each segment"),
	)

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, power, "", balance))
}
