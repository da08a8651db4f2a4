package report

import (
	"errors"
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"kakeibo/internal/core"
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("no category totals to chart")

var sliceColors = []drawing.Color{
	{R: 0x00, G: 0x88, B: 0xFE, A: 0xFF},
	{R: 0x00, G: 0xC4, B: 0x9F, A: 0xFF},
	{R: 0xFF, G: 0xBB, B: 0x28, A: 0xFF},
	{R: 0xFF, G: 0x80, B: 0x42, A: 0xFF},
	{R: 0xAF, G: 0x19, B: 0xFF, A: 0xFF},
	{R: 0xFF, G: 0x4D, B: 0x4F, A: 0xFF},
}

// WritePieChart renders the share of each category as a PNG. Slices use the
// magnitude of each total so income and expense categories sit side by side.
func WritePieChart(w io.Writer, totals []core.CategoryTotal) error {
	var values []chart.Value
	for i, ct := range totals {
		v := ct.Amount.Abs().InexactFloat64()
		if v == 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s %s", ct.Name, ct.Amount.Abs().String()),
			Value: v,
			Style: chart.Style{
				FillColor:   sliceColors[i%len(sliceColors)],
				StrokeColor: drawing.ColorWhite,
				StrokeWidth: 1,
			},
		})
	}
	if len(values) == 0 {
		return ErrNoData
	}

	pie := chart.PieChart{
		Width:  512,
		Height: 512,
		Background: chart.Style{
			Padding: chart.Box{Top: 20, Left: 20, Right: 20, Bottom: 20},
		},
		Values: values,
	}
	if err := pie.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render pie chart: %w", err)
	}
	return nil
}
