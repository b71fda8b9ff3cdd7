package export

import (
	"bufio"
	"errors"
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"climb-pacer/internal/pacing"
)

// Chart image size
const (
	chartWidth  = 8 * vg.Inch
	chartHeight = 8 * vg.Inch
	chartDPI    = 96
)

var (
	powerColor   = color.RGBA{R: 0xFC, G: 0x4C, B: 0x02, A: 0xFF}
	ftpColor     = color.RGBA{R: 0x6B, G: 0x72, B: 0x80, A: 0xFF}
	balanceColor = color.RGBA{R: 0x10, G: 0xB9, B: 0x81, A: 0xFF}
)

// WriteCharts renders target power and W′ balance against distance as a PNG
func WriteCharts(w io.Writer, title string, rider pacing.RiderProfile, plan *pacing.PacingPlan) error {
	rows := Rows(plan)
	if len(rows) == 0 {
		return errors.New("plan has no segments")
	}

	power := plot.New()
	power.Title.Text = title
	power.Y.Label.Text = "power (W)"
	stylePlot(power)

	balance := plot.New()
	balance.X.Label.Text = "distance (km)"
	balance.Y.Label.Text = "W′ balance (kJ)"
	balance.Y.Min = 0
	stylePlot(balance)

	// Power is constant over a segment so it is drawn as steps
	powerPts := make(plotter.XYs, 0, 2*len(rows))
	balancePts := make(plotter.XYs, 0, len(rows)+1)
	balancePts = append(balancePts, plotter.XY{X: 0, Y: rider.WPrime / 1000})
	start := 0.0
	for _, r := range rows {
		end := r.DistanceM / 1000
		powerPts = append(powerPts, plotter.XY{X: start, Y: r.PowerW}, plotter.XY{X: end, Y: r.PowerW})
		balancePts = append(balancePts, plotter.XY{X: end, Y: r.WBalanceJ / 1000})
		start = end
	}

	powerLine, err := plotter.NewLine(powerPts)
	if err != nil {
		return fmt.Errorf("power line: %w", err)
	}
	powerLine.LineStyle.Width = vg.Points(2)
	powerLine.LineStyle.Color = powerColor
	power.Add(powerLine)

	ftpLine, err := plotter.NewLine(plotter.XYs{{X: 0, Y: rider.FTP}, {X: start, Y: rider.FTP}})
	if err != nil {
		return fmt.Errorf("ftp line: %w", err)
	}
	ftpLine.LineStyle.Color = ftpColor
	ftpLine.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
	power.Add(ftpLine)
	power.Legend.Add("target", powerLine)
	power.Legend.Add("FTP", ftpLine)
	power.Legend.Top = true

	balanceLine, err := plotter.NewLine(balancePts)
	if err != nil {
		return fmt.Errorf("balance line: %w", err)
	}
	balanceLine.LineStyle.Width = vg.Points(2)
	balanceLine.LineStyle.Color = balanceColor
	balance.Add(balanceLine)

	c := vgimg.NewWith(vgimg.UseWH(chartWidth, chartHeight), vgimg.UseDPI(chartDPI))
	dc := draw.New(c)
	tiles := draw.Tiles{Rows: 2, Cols: 1, PadY: vg.Points(10)}
	canvases := plot.Align([][]*plot.Plot{{power}, {balance}}, tiles, dc)
	power.Draw(canvases[0][0])
	balance.Draw(canvases[1][0])

	bw := bufio.NewWriter(w)
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(bw); err != nil {
		return fmt.Errorf("writing png: %w", err)
	}
	return bw.Flush()
}

func stylePlot(p *plot.Plot) {
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.TextStyle.Font.Size = vg.Points(12)
	p.Y.Label.TextStyle.Font.Size = vg.Points(12)
	p.X.Min = 0
	p.Add(plotter.NewGrid())
}
