package charts

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"winddash/internal/models"
)

// Colours shared by the interactive and static renderers
const (
	colorPrimary  = "rgb(55, 141, 252)"
	colorDarkBlue = "rgb(0, 72, 170)"
	colorOrange   = "rgb(253, 126, 20)"
	colorBand     = "rgba(55, 141, 252, 0.1)"
)

const labelLayout = "Mon 02 Jan 15:04"

// ErrNoForecast is returned when a chart has no forecast rows to draw
var ErrNoForecast = errors.New("no forecast rows to chart")

// WindChart is the forecast bar chart with an optional observation overlay
type WindChart struct {
	Title        string
	Forecast     []models.ForecastRow
	Observations []models.ObservationRow // aligned, carrying MapForecastTime
	Anchor       time.Time               // zero when there is no observation overlay
}

// HTML renders the chart as a standalone interactive page
func (c WindChart) HTML(w io.Writer) error {
	if len(c.Forecast) == 0 {
		return ErrNoForecast
	}

	labels := make([]string, len(c.Forecast))
	index := make(map[int64]int, len(c.Forecast))
	for i, row := range c.Forecast {
		labels[i] = row.FromDatetime.Format(labelLayout)
		index[row.FromDatetime.UnixNano()] = i
	}
	yMax := c.yMax()

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: c.title(),
			Theme:     types.ThemeWesteros,
			Width:     "1200px",
			Height:    "450px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title: c.title(),
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "m/s",
			Min:  -2,
			Max:  yMax,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    true,
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: true,
		}),
	)
	bar.SetXAxis(labels)

	speed := make([]opts.BarData, len(c.Forecast))
	gust := make([]opts.LineData, len(c.Forecast))
	arrows := make([]opts.ScatterData, len(c.Forecast))
	for i, row := range c.Forecast {
		speed[i] = opts.BarData{Value: row.WindSpeed()}
		gust[i] = opts.LineData{Value: row.GustWindSpeed10m()}
		arrows[i] = arrowPoint(labels[i], row.WindDir(), 16)
	}

	bar.AddSeries("Mean wind speed [m/s]", speed,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: colorPrimary}),
		charts.WithMarkAreaNameCoordItemOpts(c.dayBands(labels)...),
	)

	if len(c.Observations) > 0 {
		obsSpeed := make([]opts.BarData, len(c.Forecast))
		for i := range obsSpeed {
			obsSpeed[i] = opts.BarData{Value: 0.0}
		}
		obsArrows := make([]opts.ScatterData, 0, len(c.Observations))
		for _, row := range c.Observations {
			i, ok := index[row.MapForecastTime.UnixNano()]
			if !ok {
				continue
			}
			obsSpeed[i] = opts.BarData{Value: row.Value(models.ParamMeanWindSpeed)}
			if !row.Padded {
				obsArrows = append(obsArrows, arrowPoint(labels[i], row.Value(models.ParamMeanWindDir), 12))
			}
		}

		bar.AddSeries("Observed mean wind speed [m/s]", obsSpeed,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: colorOrange, Opacity: 0.4}),
			charts.WithBarChartOpts(opts.BarChart{BarGap: "-100%"}),
			charts.WithMarkLineNameXAxisItemOpts(c.observationLines(labels, index)...),
			charts.WithMarkLineStyleOpts(opts.MarkLineStyle{Symbol: []string{"none", "none"}}),
		)

		obsScatter := charts.NewScatter()
		obsScatter.SetXAxis(labels).AddSeries("Observed direction", obsArrows,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: colorOrange, Opacity: 0.7}))
		bar.Overlap(obsScatter)
	}

	line := charts.NewLine()
	line.SetXAxis(labels).AddSeries("Gust wind speed [m/s]", gust,
		charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed", Width: 2, Color: colorDarkBlue}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: colorDarkBlue}),
	)

	scatter := charts.NewScatter()
	scatter.SetXAxis(labels).AddSeries("Wind direction", arrows,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: colorPrimary}))

	bar.Overlap(line, scatter)

	if err := bar.Render(w); err != nil {
		return fmt.Errorf("failed to render wind chart: %w", err)
	}
	return nil
}

func (c WindChart) title() string {
	if c.Title != "" {
		return c.Title
	}
	return "Wind forecast"
}

func (c WindChart) yMax() float64 {
	values := make([]float64, 0, 2*len(c.Forecast)+len(c.Observations))
	for _, row := range c.Forecast {
		values = append(values, row.WindSpeed(), row.GustWindSpeed10m())
	}
	for _, row := range c.Observations {
		values = append(values, row.Value(models.ParamMeanWindSpeed))
	}
	return AxisMax(values...)
}

// dayBands shades every other day, labelled with its date
func (c WindChart) dayBands(labels []string) []opts.MarkAreaNameCoordItem {
	var items []opts.MarkAreaNameCoordItem
	for _, band := range DayBands(c.Forecast) {
		items = append(items, opts.MarkAreaNameCoordItem{
			Name:        c.Forecast[band[0]].FromDatetime.Format("2006-01-02"),
			Coordinate0: []interface{}{labels[band[0]]},
			Coordinate1: []interface{}{labels[band[1]]},
			ItemStyle:   &opts.ItemStyle{Color: colorBand},
		})
	}
	return items
}

// observationLines marks observation midnights and the anchor hour on the forecast axis
func (c WindChart) observationLines(labels []string, index map[int64]int) []opts.MarkLineNameXAxisItem {
	var items []opts.MarkLineNameXAxisItem
	for _, t := range ObservationMidnights(c.Observations) {
		if i, ok := index[t.UnixNano()]; ok {
			items = append(items, opts.MarkLineNameXAxisItem{Name: "Observation midnight", XAxis: labels[i]})
		}
	}
	if at, ok := AnchorPosition(c.Observations, c.Anchor); ok {
		if i, ok := index[at.UnixNano()]; ok {
			items = append(items, opts.MarkLineNameXAxisItem{
				Name:  "Observation " + c.Anchor.Format("2006-01-02 15:04"),
				XAxis: labels[i],
			})
		}
	}
	return items
}

func arrowPoint(label string, deg float64, size int) opts.ScatterData {
	return opts.ScatterData{
		Name:         fmt.Sprintf("%s (%.0f°)", CardinalDirection(deg), deg),
		Value:        []interface{}{label, -1},
		Symbol:       "arrow",
		SymbolSize:   size,
		SymbolRotate: ArrowRotation(deg),
	}
}
