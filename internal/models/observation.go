package models

import (
	"encoding/json"
	"time"
)

// ObservationRecord is one (timestamp, parameter, value) triple reported for a grid cell.
// From and To are kept as the raw strings the API sent.
type ObservationRecord struct {
	CellID      string  `json:"cell_id"`
	From        string  `json:"from"`
	To          string  `json:"to"`
	ParameterID string  `json:"parameter_id"`
	Value       float64 `json:"value"`
}

// ObservationRow is a wide observation row: every parameter sharing one FromDatetime
type ObservationRow struct {
	FromDatetime    time.Time
	Values          map[string]float64 // keyed by parameter id
	Padded          bool               // synthetic zero-filled row
	MapForecastTime time.Time          // forecast axis position, set by alignment
}

// Value returns the value of a parameter, zero when absent
func (r ObservationRow) Value(parameterID string) float64 {
	return r.Values[parameterID]
}

// MarshalJSON flattens the row into a single table-like object
func (r ObservationRow) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(r.Values)+3)
	for k, v := range r.Values {
		out[k] = v
	}
	out["from_datetime"] = r.FromDatetime.Format(time.RFC3339)
	out["padded"] = r.Padded
	if !r.MapForecastTime.IsZero() {
		out["map_forecast_time"] = r.MapForecastTime.Format(time.RFC3339)
	}
	return json.Marshal(out)
}
