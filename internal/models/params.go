package models

import "strings"

// Forecast parameter names as the EDR API spells them
const (
	ParamWindSpeed        = "wind-speed"
	ParamWindDir          = "wind-dir"
	ParamGustWindSpeed10m = "gust-wind-speed-10m"
)

// Observation parameter ids as the climate data API spells them
const (
	ParamMeanTemp          = "mean_temp"
	ParamMeanDailyMaxTemp  = "mean_daily_max_temp"
	ParamMeanDailyMinTemp  = "mean_daily_min_temp"
	ParamMeanWindSpeed     = "mean_wind_speed"
	ParamMaxWindSpeed10min = "max_wind_speed_10min"
	ParamMaxWindSpeed3sec  = "max_wind_speed_3sec"
	ParamMeanWindDir       = "mean_wind_dir"
	ParamMeanPressure      = "mean_pressure"
)

// Forecast table columns after renaming
const (
	ColumnWindSpeed        = "wind_speed"
	ColumnWindDir          = "wind_dir"
	ColumnGustWindSpeed10m = "gust_wind_speed_10m"
)

var defaultWindParameters = [...]string{
	ParamWindSpeed,
	ParamWindDir,
	ParamGustWindSpeed10m,
}

var waveParameters = [...]string{
	"significant-wave-height",
	"dominant-wave-period",
	"mean-wave-period",
	"mean-wave-dir",
	"significant-windwave-height",
	"mean-windwave-period",
	"mean-windwave-dir",
	"significant-totalswell-height",
	"mean-totalswell-period",
	"mean-totalswell-dir",
}

var observationParameters = [...]string{
	ParamMeanTemp,
	ParamMeanDailyMaxTemp,
	ParamMeanDailyMinTemp,
	ParamMeanWindSpeed,
	ParamMaxWindSpeed10min,
	ParamMaxWindSpeed3sec,
	ParamMeanWindDir,
	ParamMeanPressure,
}

// DefaultWindParameters returns a fresh copy of the default forecast parameter set
func DefaultWindParameters() []string {
	return append([]string(nil), defaultWindParameters[:]...)
}

// WaveParameters returns a fresh copy of the wave forecast parameter set
func WaveParameters() []string {
	return append([]string(nil), waveParameters[:]...)
}

// ObservationParameters returns a fresh copy of the recognized observation parameter ids
func ObservationParameters() []string {
	return append([]string(nil), observationParameters[:]...)
}

// IsObservationParameter reports whether id is in the recognized observation set
func IsObservationParameter(id string) bool {
	for _, p := range observationParameters {
		if p == id {
			return true
		}
	}
	return false
}

// ColumnName converts a hyphenated API parameter name to a table column name
func ColumnName(param string) string {
	return strings.ReplaceAll(param, "-", "_")
}
