package parser

import (
	"encoding/json"
	"errors"
	"fmt"

	"winddash/internal/models"
)

// ErrMalformedPayload is returned when a payload lacks expected keys or its arrays disagree in length
var ErrMalformedPayload = errors.New("malformed payload")

// coverage mirrors the parts of a CoverageJSON point series we read
type coverage struct {
	Domain *struct {
		Axes *struct {
			T *axis `json:"t"`
			X *axis `json:"x"`
			Y *axis `json:"y"`
		} `json:"axes"`
	} `json:"domain"`
	Ranges map[string]struct {
		Values []*float64 `json:"values"`
	} `json:"ranges"`
}

type axis struct {
	Values json.RawMessage `json:"values"`
}

// ParseForecast converts a point-series forecast payload into one record per time step.
// Parameter names are kept as the API spells them; the normalizer renames columns.
func ParseForecast(payload []byte, params []string) ([]models.ForecastRecord, error) {
	var cov coverage
	if err := json.Unmarshal(payload, &cov); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if cov.Domain == nil || cov.Domain.Axes == nil {
		return nil, fmt.Errorf("%w: missing domain.axes", ErrMalformedPayload)
	}
	axes := cov.Domain.Axes

	var times []string
	if err := decodeAxis(axes.T, "t", &times); err != nil {
		return nil, err
	}
	var xs, ys []float64
	if err := decodeAxis(axes.X, "x", &xs); err != nil {
		return nil, err
	}
	if err := decodeAxis(axes.Y, "y", &ys); err != nil {
		return nil, err
	}
	if len(xs) == 0 || len(ys) == 0 {
		return nil, fmt.Errorf("%w: empty coordinate axis", ErrMalformedPayload)
	}
	if cov.Ranges == nil {
		return nil, fmt.Errorf("%w: missing ranges", ErrMalformedPayload)
	}

	columns := make(map[string][]*float64, len(params))
	for _, p := range params {
		r, ok := cov.Ranges[p]
		if !ok {
			return nil, fmt.Errorf("%w: missing range for parameter %q", ErrMalformedPayload, p)
		}
		if len(r.Values) != len(times) {
			return nil, fmt.Errorf("%w: parameter %q has %d values for %d time steps",
				ErrMalformedPayload, p, len(r.Values), len(times))
		}
		columns[p] = r.Values
	}

	records := make([]models.ForecastRecord, len(times))
	for i, ts := range times {
		values := make(map[string]float64, len(params))
		for p, col := range columns {
			// null steps read as zero, like padded observation hours
			values[p] = 0
			if col[i] != nil {
				values[p] = *col[i]
			}
		}
		records[i] = models.ForecastRecord{
			Time:      ts,
			Values:    values,
			Longitude: xs[0],
			Latitude:  ys[0],
		}
	}
	return records, nil
}

func decodeAxis(a *axis, name string, dst interface{}) error {
	if a == nil || len(a.Values) == 0 {
		return fmt.Errorf("%w: missing domain.axes.%s.values", ErrMalformedPayload, name)
	}
	if err := json.Unmarshal(a.Values, dst); err != nil {
		return fmt.Errorf("%w: domain.axes.%s.values: %v", ErrMalformedPayload, name, err)
	}
	return nil
}
