package mocks

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	geojson "github.com/paulmach/go.geojson"

	"winddash/internal/fetchers"
	"winddash/internal/logger"
)

//go:embed data/*.json
var fixtures embed.FS

// malformedSuffix reproduces the upstream defect: a spurious midnight row with microseconds
const malformedSuffix = "T00:00:00.001000+00:00"

// MockService serves embedded DMI payloads instead of calling the API.
// Timestamps are restamped so the forecast starts at the current hour and
// observations cover the requested date range.
type MockService struct {
	forecast    map[string]interface{}
	observation *geojson.FeatureCollection
	location    *time.Location
	now         func() time.Time
	log         *logger.Logger
}

var _ fetchers.DataSource = (*MockService)(nil)

// NewMockService loads the embedded fixtures
func NewMockService(loc *time.Location, now func() time.Time) (*MockService, error) {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}

	forecastData, err := fixtures.ReadFile("data/forecast.json")
	if err != nil {
		return nil, fmt.Errorf("failed to read mock forecast: %w", err)
	}
	var forecast map[string]interface{}
	if err := json.Unmarshal(forecastData, &forecast); err != nil {
		return nil, fmt.Errorf("failed to unmarshal mock forecast: %w", err)
	}

	observationData, err := fixtures.ReadFile("data/observation.json")
	if err != nil {
		return nil, fmt.Errorf("failed to read mock observations: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(observationData)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal mock observations: %w", err)
	}

	return &MockService{
		forecast:    forecast,
		observation: fc,
		location:    loc,
		now:         now,
		log:         logger.Component("mocks"),
	}, nil
}

// FetchForecast returns the fixture forecast starting at the current whole hour
func (m *MockService) FetchForecast(ctx context.Context, p fetchers.ForecastFetchParams) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	domain, _ := m.forecast["domain"].(map[string]interface{})
	axes, _ := domain["axes"].(map[string]interface{})
	tAxis, _ := axes["t"].(map[string]interface{})
	times, _ := tAxis["values"].([]interface{})
	ranges, _ := m.forecast["ranges"].(map[string]interface{})
	if len(times) == 0 || ranges == nil {
		return nil, fmt.Errorf("mock forecast fixture is missing its time axis")
	}

	outRanges := make(map[string]interface{})
	for _, param := range p.EffectiveParameters() {
		r, ok := ranges[param]
		if !ok {
			return nil, fmt.Errorf("%w: mock data has no forecast parameter %q", fetchers.ErrInvalidParams, param)
		}
		outRanges[param] = r
	}

	start := m.now().UTC().Truncate(time.Hour)
	stamped := make([]string, len(times))
	for i := range times {
		stamped[i] = start.Add(time.Duration(i) * time.Hour).Format("2006-01-02T15:04:05.000Z")
	}

	payload := map[string]interface{}{
		"type": "Coverage",
		"domain": map[string]interface{}{
			"type":       "Domain",
			"domainType": "PointSeries",
			"axes": map[string]interface{}{
				"t": map[string]interface{}{"values": stamped},
				"x": map[string]interface{}{"values": []float64{p.Longitude}},
				"y": map[string]interface{}{"values": []float64{p.Latitude}},
			},
		},
		"ranges": outRanges,
	}

	m.log.Debug("serving mock forecast", logger.Fields{"rows": len(stamped)})
	return json.Marshal(payload)
}

// FetchObservation returns fixture observations restamped onto the requested range
func (m *MockService) FetchObservation(ctx context.Context, p fetchers.ObservationFetchParams) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	from, _, err := fetchers.ObservationRange(p.DateFrom, p.NHours, m.location)
	if err != nil {
		return nil, err
	}

	// group fixture features by their hour slot
	slots := make(map[time.Time][]*geojson.Feature)
	for _, f := range m.observation.Features {
		raw, _ := f.Properties["from"].(string)
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil || t.Nanosecond() != 0 {
			continue
		}
		slots[t] = append(slots[t], f)
	}
	hours := make([]time.Time, 0, len(slots))
	for t := range slots {
		hours = append(hours, t)
	}
	sort.Slice(hours, func(i, j int) bool { return hours[i].Before(hours[j]) })
	if len(hours) == 0 {
		return nil, fmt.Errorf("mock observation fixture is empty")
	}

	out := geojson.NewFeatureCollection()
	for k := 0; k < p.NHours; k++ {
		at := from.Add(time.Duration(k) * time.Hour)
		for _, src := range slots[hours[k%len(hours)]] {
			out.AddFeature(restamp(src, p.CellID, at))
		}
		if at.Hour() == 0 {
			defect := restamp(slots[hours[k%len(hours)]][0], p.CellID, at)
			defect.Properties["from"] = at.Format("2006-01-02") + malformedSuffix
			out.AddFeature(defect)
		}
	}

	m.log.Debug("serving mock observations", logger.Fields{"features": len(out.Features), "cell_id": p.CellID})
	return out.MarshalJSON()
}

func restamp(src *geojson.Feature, cellID string, at time.Time) *geojson.Feature {
	f := geojson.NewFeature(src.Geometry)
	for k, v := range src.Properties {
		f.Properties[k] = v
	}
	f.Properties["cellId"] = cellID
	f.Properties["from"] = at.Format("2006-01-02T15:04:05+00:00")
	f.Properties["to"] = at.Add(time.Hour).Format("2006-01-02T15:04:05+00:00")
	return f
}
