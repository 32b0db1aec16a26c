package charts

import (
	"math"
	"time"

	"winddash/internal/models"
)

var cardinalDirections = [...]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// axisBins are the y-axis ceilings a chart snaps to
var axisBins = [...]float64{0, 15, 20, 25}

// CardinalDirection converts a bearing in degrees to a 16-point compass label
func CardinalDirection(deg float64) string {
	n := len(cardinalDirections)
	ix := int(math.RoundToEven(deg/(360.0/float64(n)))) % n
	if ix < 0 {
		ix += n
	}
	return cardinalDirections[ix]
}

// ArrowVector returns the tail offset of a wind arrow relative to its centre,
// in screen orientation: a northerly wind gives (0, -1) and the arrow points south.
func ArrowVector(deg float64) (float64, float64) {
	rad := deg * math.Pi / 180
	return round2(math.Sin(rad)), -round2(math.Cos(rad))
}

// ArrowRotation is the counter-clockwise rotation of an upward arrow symbol
// that makes it point the way the wind blows
func ArrowRotation(deg float64) int {
	r := int(math.Round(180-deg)) % 360
	if r < 0 {
		r += 360
	}
	return r
}

// AxisMax returns the y-axis maximum for a set of wind speeds
func AxisMax(values ...float64) float64 {
	if len(values) == 0 {
		return axisBins[1] + 2
	}
	top := values[0]
	for _, v := range values[1:] {
		top = math.Max(top, v)
	}

	// first bin edge above the maximum; speeds past the last edge share its ceiling
	i := 0
	for i < len(axisBins) && axisBins[i] <= top {
		i++
	}
	if i == len(axisBins) {
		i--
	}
	return axisBins[i] + 2
}

// DayBands returns index pairs [start, end] of the alternating background bands:
// boundaries are the first row, every local midnight and the last row.
func DayBands(rows []models.ForecastRow) [][2]int {
	if len(rows) == 0 {
		return nil
	}
	var edges []int
	for i, row := range rows {
		if i == 0 || i == len(rows)-1 || row.FromDatetime.Hour() == 0 {
			edges = append(edges, i)
		}
	}

	var bands [][2]int
	for i := 0; i+1 < len(edges); i += 2 {
		bands = append(bands, [2]int{edges[i], edges[i+1]})
	}
	return bands
}

// ObservationMidnights returns the forecast-axis positions of observation rows at local midnight
func ObservationMidnights(rows []models.ObservationRow) []time.Time {
	var out []time.Time
	for _, row := range rows {
		if row.FromDatetime.Hour() == 0 && !row.MapForecastTime.IsZero() {
			out = append(out, row.MapForecastTime)
		}
	}
	return out
}

// AnchorPosition returns the forecast-axis position of the anchor row, if it is in the series
func AnchorPosition(rows []models.ObservationRow, anchor time.Time) (time.Time, bool) {
	for _, row := range rows {
		if row.FromDatetime.Equal(anchor) && !row.MapForecastTime.IsZero() {
			return row.MapForecastTime, true
		}
	}
	return time.Time{}, false
}

func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}
