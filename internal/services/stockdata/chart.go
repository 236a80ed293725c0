package stockdata

import (
	"bytes"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/stockdeck/internal/models"
)

// RenderPriceChart renders a symbol's closing prices as a PNG line chart.
// Returns raw PNG bytes.
func RenderPriceChart(symbol string, series *models.SymbolSeries) ([]byte, error) {
	if series == nil {
		return nil, fmt.Errorf("no series for %s", symbol)
	}
	if len(series.Close) < 2 {
		return nil, fmt.Errorf("need at least 2 data points, got %d", len(series.Close))
	}
	if len(series.Timestamps) != len(series.Close) {
		return nil, fmt.Errorf("series length mismatch: %d timestamps, %d closes",
			len(series.Timestamps), len(series.Close))
	}

	xValues := make([]time.Time, len(series.Close))
	for i, ts := range series.Timestamps {
		xValues[i] = time.UnixMilli(ts)
	}

	layout := timeAxisFormat(xValues[len(xValues)-1].Sub(xValues[0]))

	closeSeries := chart.TimeSeries{
		Name: symbol + " Close",
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("2563eb"), // blue-600
			StrokeWidth: 2.5,
		},
		XValues: xValues,
		YValues: series.Close,
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("%s Price History", symbol),
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format(layout)
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("$%.2f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{
			closeSeries,
		},
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}

// timeAxisFormat picks a tick label layout suited to the series span.
// Intraday series label by time of day, longer spans by date.
func timeAxisFormat(span time.Duration) string {
	switch {
	case span <= 48*time.Hour:
		return "15:04"
	case span <= 120*24*time.Hour:
		return "Jan 2"
	default:
		return "Jan 06"
	}
}
