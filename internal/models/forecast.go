package models

import (
	"encoding/json"
	"time"
)

// ForecastRecord is one entry of a parsed point forecast before time zone conversion
type ForecastRecord struct {
	Time      string             `json:"time"`
	Values    map[string]float64 `json:"values"`
	Longitude float64            `json:"longitude"`
	Latitude  float64            `json:"latitude"`
}

// ForecastRow is one forecast timestamp for a fixed point, in local time
type ForecastRow struct {
	FromDatetime time.Time
	Values       map[string]float64 // keyed by column name, e.g. wind_speed
	Longitude    float64
	Latitude     float64
}

// WindSpeed returns the forecast mean wind speed in m/s
func (r ForecastRow) WindSpeed() float64 { return r.Values[ColumnWindSpeed] }

// WindDir returns the forecast wind direction in degrees
func (r ForecastRow) WindDir() float64 { return r.Values[ColumnWindDir] }

// GustWindSpeed10m returns the forecast 10 m gust speed in m/s
func (r ForecastRow) GustWindSpeed10m() float64 { return r.Values[ColumnGustWindSpeed10m] }

// MarshalJSON flattens the row into a single table-like object
func (r ForecastRow) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(r.Values)+3)
	for k, v := range r.Values {
		out[k] = v
	}
	out["from_datetime"] = r.FromDatetime.Format(time.RFC3339)
	out["longitude"] = r.Longitude
	out["latitude"] = r.Latitude
	return json.Marshal(out)
}
