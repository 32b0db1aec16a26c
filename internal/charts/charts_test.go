package charts

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"winddash/internal/models"
)

func TestCardinalDirection(t *testing.T) {
	tests := []struct {
		deg  float64
		want string
	}{
		{0, "N"},
		{11, "N"},
		{12, "NNE"},
		{22.5, "NNE"},
		{45, "NE"},
		{90, "E"},
		{180, "S"},
		{270, "W"},
		{337.5, "NNW"},
		{350, "N"},
		{360, "N"},
	}
	for _, tt := range tests {
		if got := CardinalDirection(tt.deg); got != tt.want {
			t.Errorf("CardinalDirection(%v): expected %s, got %s", tt.deg, tt.want, got)
		}
	}
}

func TestArrowVector(t *testing.T) {
	tests := []struct {
		deg    float64
		wx, wy float64
	}{
		{0, 0, -1},
		{90, 1, 0},
		{180, 0, 1},
		{270, -1, 0},
		{45, 0.71, -0.71},
	}
	for _, tt := range tests {
		x, y := ArrowVector(tt.deg)
		if x != tt.wx || y != tt.wy {
			t.Errorf("ArrowVector(%v): expected (%v, %v), got (%v, %v)", tt.deg, tt.wx, tt.wy, x, y)
		}
	}
}

func TestArrowRotation(t *testing.T) {
	tests := map[float64]int{0: 180, 90: 90, 180: 0, 270: 270, 360: 180}
	for deg, want := range tests {
		if got := ArrowRotation(deg); got != want {
			t.Errorf("ArrowRotation(%v): expected %d, got %d", deg, want, got)
		}
	}
}

func TestAxisMax(t *testing.T) {
	tests := []struct {
		values []float64
		want   float64
	}{
		{nil, 17},
		{[]float64{-1}, 2},
		{[]float64{0, 3.2}, 17},
		{[]float64{14.9}, 17},
		{[]float64{4, 15}, 22},
		{[]float64{19.99}, 22},
		{[]float64{20}, 27},
		{[]float64{25}, 27},
		{[]float64{31, 2}, 27},
	}
	for _, tt := range tests {
		if got := AxisMax(tt.values...); got != tt.want {
			t.Errorf("AxisMax(%v): expected %v, got %v", tt.values, tt.want, got)
		}
	}
}

func testForecast(t *testing.T, start time.Time, n int) []models.ForecastRow {
	t.Helper()
	rows := make([]models.ForecastRow, n)
	for i := range rows {
		rows[i] = models.ForecastRow{
			FromDatetime: start.Add(time.Duration(i) * time.Hour),
			Values: map[string]float64{
				models.ColumnWindSpeed:        float64(i % 12),
				models.ColumnWindDir:          float64(i * 15 % 360),
				models.ColumnGustWindSpeed10m: float64(i%12) + 4,
			},
			Longitude: 12.374,
			Latitude:  56.078,
		}
	}
	return rows
}

func TestDayBands(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Copenhagen")
	if err != nil {
		t.Fatalf("Failed to load location: %v", err)
	}
	// 10:00 on day one through 09:00 on day three: edges at 0, 14, 38, 47
	rows := testForecast(t, time.Date(2024, 5, 1, 10, 0, 0, 0, loc), 48)

	bands := DayBands(rows)
	if len(bands) != 2 {
		t.Fatalf("Expected 2 bands, got %v", bands)
	}
	if bands[0] != [2]int{0, 14} || bands[1] != [2]int{38, 47} {
		t.Errorf("Unexpected bands: %v", bands)
	}
	if DayBands(nil) != nil {
		t.Error("Expected no bands for no rows")
	}
}

func overlay(forecast []models.ForecastRow, anchor time.Time) []models.ObservationRow {
	obs := make([]models.ObservationRow, len(forecast))
	start := anchor.Add(-time.Duration(len(forecast)/2) * time.Hour)
	for i := range obs {
		obs[i] = models.ObservationRow{
			FromDatetime:    start.Add(time.Duration(i+1) * time.Hour),
			Values:          map[string]float64{models.ParamMeanWindSpeed: 6, models.ParamMeanWindDir: 200},
			MapForecastTime: forecast[i].FromDatetime,
			Padded:          i < 3,
		}
	}
	return obs
}

func TestObservationMarkers(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Copenhagen")
	if err != nil {
		t.Fatalf("Failed to load location: %v", err)
	}
	forecast := testForecast(t, time.Date(2024, 5, 1, 10, 0, 0, 0, loc), 10)
	anchor := time.Date(2023, 1, 2, 3, 0, 0, 0, loc)
	obs := overlay(forecast, anchor)

	midnights := ObservationMidnights(obs)
	if len(midnights) != 1 || !midnights[0].Equal(forecast[1].FromDatetime) {
		t.Errorf("Expected one midnight mapped to the second forecast hour, got %v", midnights)
	}

	at, ok := AnchorPosition(obs, anchor)
	if !ok || !at.Equal(forecast[4].FromDatetime) {
		t.Errorf("Expected anchor mapped to the fifth forecast hour, got %v (%v)", at, ok)
	}
	if _, ok := AnchorPosition(obs, anchor.Add(72*time.Hour)); ok {
		t.Error("Expected no position for an anchor outside the series")
	}
}

func TestWindChartHTML(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Copenhagen")
	if err != nil {
		t.Fatalf("Failed to load location: %v", err)
	}
	forecast := testForecast(t, time.Date(2024, 5, 1, 10, 0, 0, 0, loc), 47)
	anchor := time.Date(2023, 1, 2, 12, 0, 0, 0, loc)

	var buf bytes.Buffer
	c := WindChart{Title: "10km_622_71", Forecast: forecast, Observations: overlay(forecast, anchor), Anchor: anchor}
	if err := c.HTML(&buf); err != nil {
		t.Fatalf("HTML failed: %v", err)
	}

	html := buf.String()
	for _, want := range []string{"10km_622_71", "Mean wind speed [m/s]", "Observed mean wind speed [m/s]", "Gust wind speed [m/s]", "echarts"} {
		if !strings.Contains(html, want) {
			t.Errorf("Expected HTML to contain %q", want)
		}
	}
}

func TestWindChartHTMLForecastOnly(t *testing.T) {
	forecast := testForecast(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), 12)

	var buf bytes.Buffer
	if err := (WindChart{Forecast: forecast}).HTML(&buf); err != nil {
		t.Fatalf("HTML failed: %v", err)
	}
	if strings.Contains(buf.String(), "Observed mean wind speed") {
		t.Error("Expected no observation series without observations")
	}
	if !strings.Contains(buf.String(), "Wind forecast") {
		t.Error("Expected default title")
	}
}

func TestWindChartPNG(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Copenhagen")
	if err != nil {
		t.Fatalf("Failed to load location: %v", err)
	}
	forecast := testForecast(t, time.Date(2024, 5, 1, 10, 0, 0, 0, loc), 24)
	anchor := time.Date(2023, 1, 2, 12, 0, 0, 0, loc)

	var buf bytes.Buffer
	c := WindChart{Forecast: forecast, Observations: overlay(forecast, anchor), Anchor: anchor}
	if err := c.PNG(&buf); err != nil {
		t.Fatalf("PNG failed: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Error("Expected PNG signature")
	}
}

func TestWindChartEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := (WindChart{}).HTML(&buf); !errors.Is(err, ErrNoForecast) {
		t.Errorf("Expected ErrNoForecast from HTML, got %v", err)
	}
	if err := (WindChart{}).PNG(&buf); !errors.Is(err, ErrNoForecast) {
		t.Errorf("Expected ErrNoForecast from PNG, got %v", err)
	}
}
