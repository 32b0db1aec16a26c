package charts

import (
	"fmt"
	"io"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"winddash/internal/models"
)

var (
	pngPrimary  = drawing.Color{R: 55, G: 141, B: 252, A: 255}
	pngDarkBlue = drawing.Color{R: 0, G: 72, B: 170, A: 255}
	pngOrange   = drawing.Color{R: 253, G: 126, B: 20, A: 255}
	pngBand     = drawing.Color{R: 55, G: 141, B: 252, A: 25}
)

// arrow scale in minutes along x and m/s along y
const (
	arrowScaleX = 25
	arrowScaleY = 0.65
	arrowBaseY  = -1
)

// PNG renders a static version of the chart
func (c WindChart) PNG(w io.Writer) error {
	if len(c.Forecast) == 0 {
		return ErrNoForecast
	}
	yMax := c.yMax()
	first := c.Forecast[0].FromDatetime
	last := c.Forecast[len(c.Forecast)-1].FromDatetime
	if !last.After(first) {
		last = first.Add(time.Hour)
	}

	var series []chart.Series

	// day bands fill from the top of the range down
	for _, band := range DayBands(c.Forecast) {
		series = append(series, chart.TimeSeries{
			Style: chart.Style{
				StrokeColor: pngBand,
				FillColor:   pngBand,
			},
			XValues: []time.Time{c.Forecast[band[0]].FromDatetime, c.Forecast[band[1]].FromDatetime},
			YValues: []float64{yMax, yMax},
		})
	}

	xs := make([]time.Time, len(c.Forecast))
	speed := make([]float64, len(c.Forecast))
	gust := make([]float64, len(c.Forecast))
	for i, row := range c.Forecast {
		xs[i] = row.FromDatetime
		speed[i] = row.WindSpeed()
		gust[i] = row.GustWindSpeed10m()
		series = append(series, arrowSeries(row.FromDatetime, row.WindDir(), pngPrimary))
	}

	series = append(series,
		chart.TimeSeries{
			Name: "Mean wind speed [m/s]",
			Style: chart.Style{
				StrokeColor: pngPrimary,
				StrokeWidth: 2,
				FillColor:   pngPrimary.WithAlpha(80),
			},
			XValues: xs,
			YValues: speed,
		},
		chart.TimeSeries{
			Name: "Gust wind speed [m/s]",
			Style: chart.Style{
				StrokeColor:     pngDarkBlue,
				StrokeWidth:     2,
				StrokeDashArray: []float64{5, 5},
			},
			XValues: xs,
			YValues: gust,
		},
	)

	if len(c.Observations) > 0 {
		series = append(series, c.observationSeries(yMax)...)
	}

	graph := chart.Chart{
		Title:  c.title(),
		Width:  1200,
		Height: 450,
		TitleStyle: chart.Style{
			FontSize:  14,
			FontColor: drawing.ColorBlack,
		},
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 10, Bottom: 10},
		},
		XAxis: chart.XAxis{
			Style:          chart.Style{FontSize: 9},
			ValueFormatter: chart.TimeHourValueFormatter,
			Range:          &chart.ContinuousRange{Min: chart.TimeToFloat64(first), Max: chart.TimeToFloat64(last)},
			Ticks:          timeTicks(c.Forecast),
		},
		YAxis: chart.YAxis{
			Name:  "m/s",
			Style: chart.Style{FontSize: 9},
			Range: &chart.ContinuousRange{Min: -2, Max: yMax},
			Ticks: speedTicks(yMax),
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render wind chart: %w", err)
	}
	return nil
}

func (c WindChart) observationSeries(yMax float64) []chart.Series {
	var xs []time.Time
	var speed []float64
	var series []chart.Series
	for _, row := range c.Observations {
		if row.MapForecastTime.IsZero() {
			continue
		}
		xs = append(xs, row.MapForecastTime)
		speed = append(speed, row.Value(models.ParamMeanWindSpeed))
		if !row.Padded {
			series = append(series, arrowSeries(row.MapForecastTime, row.Value(models.ParamMeanWindDir), pngOrange.WithAlpha(180)))
		}
	}
	if len(xs) == 0 {
		return nil
	}

	series = append(series, chart.TimeSeries{
		Name: "Observed mean wind speed [m/s]",
		Style: chart.Style{
			StrokeColor: pngOrange,
			StrokeWidth: 2,
			FillColor:   pngOrange.WithAlpha(100),
		},
		XValues: xs,
		YValues: speed,
	})

	for _, t := range ObservationMidnights(c.Observations) {
		series = append(series, verticalLine(t, yMax, 1))
	}
	if at, ok := AnchorPosition(c.Observations, c.Anchor); ok {
		series = append(series, verticalLine(at, yMax, 4))
	}
	return series
}

// arrowSeries draws a short segment centred on the hour, head marked with a dot
func arrowSeries(at time.Time, deg float64, color drawing.Color) chart.TimeSeries {
	dx, dy := ArrowVector(deg)
	offset := time.Duration(dx*arrowScaleX) * time.Minute
	return chart.TimeSeries{
		Style: chart.Style{
			StrokeColor: color,
			StrokeWidth: 1.1,
			DotColor:    color,
			DotWidthProvider: func(_, _ chart.Range, index int, _, _ float64) float64 {
				if index == 1 {
					return 2.5
				}
				return 0
			},
		},
		XValues: []time.Time{at.Add(offset), at.Add(-offset)},
		YValues: []float64{arrowBaseY - dy*arrowScaleY, arrowBaseY + dy*arrowScaleY},
	}
}

func verticalLine(at time.Time, yMax, width float64) chart.TimeSeries {
	return chart.TimeSeries{
		Style: chart.Style{
			StrokeColor:     pngOrange.WithAlpha(150),
			StrokeWidth:     width,
			StrokeDashArray: []float64{4, 4},
		},
		XValues: []time.Time{at, at},
		YValues: []float64{-2, yMax},
	}
}

// timeTicks puts a tick every three hours
func timeTicks(rows []models.ForecastRow) []chart.Tick {
	var ticks []chart.Tick
	for _, row := range rows {
		t := row.FromDatetime
		if t.Hour()%3 != 0 {
			continue
		}
		label := t.Format("15:04")
		if t.Hour() == 0 {
			label = t.Format("Jan 02")
		}
		ticks = append(ticks, chart.Tick{Value: chart.TimeToFloat64(t), Label: label})
	}
	return ticks
}

func speedTicks(yMax float64) []chart.Tick {
	var ticks []chart.Tick
	for v := 0.0; v < yMax; v += 2 {
		ticks = append(ticks, chart.Tick{Value: v, Label: fmt.Sprintf("%.0f", v)})
	}
	if n := len(ticks); n > 0 {
		ticks[n-1].Label += " m/s"
	}
	return ticks
}
