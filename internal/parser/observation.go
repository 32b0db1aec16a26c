package parser

import (
	"fmt"

	geojson "github.com/paulmach/go.geojson"

	"winddash/internal/models"
)

// ParseObservations flattens a grid-cell FeatureCollection into one record per feature,
// keeping only the recognized observation parameters. Timestamps stay raw strings.
func ParseObservations(payload []byte) ([]models.ObservationRecord, error) {
	fc, err := geojson.UnmarshalFeatureCollection(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if fc.Features == nil {
		return nil, fmt.Errorf("%w: missing features", ErrMalformedPayload)
	}

	records := make([]models.ObservationRecord, 0, len(fc.Features))
	for i, f := range fc.Features {
		if f == nil {
			return nil, fmt.Errorf("%w: feature %d is null", ErrMalformedPayload, i)
		}
		parameterID, err := f.PropertyString("parameterId")
		if err != nil {
			return nil, fmt.Errorf("%w: feature %d: %v", ErrMalformedPayload, i, err)
		}
		if !models.IsObservationParameter(parameterID) {
			continue
		}

		record := models.ObservationRecord{ParameterID: parameterID}
		if record.CellID, err = f.PropertyString("cellId"); err != nil {
			return nil, fmt.Errorf("%w: feature %d: %v", ErrMalformedPayload, i, err)
		}
		if record.From, err = f.PropertyString("from"); err != nil {
			return nil, fmt.Errorf("%w: feature %d: %v", ErrMalformedPayload, i, err)
		}
		if record.To, err = f.PropertyString("to"); err != nil {
			return nil, fmt.Errorf("%w: feature %d: %v", ErrMalformedPayload, i, err)
		}
		if record.Value, err = f.PropertyFloat64("value"); err != nil {
			return nil, fmt.Errorf("%w: feature %d: %v", ErrMalformedPayload, i, err)
		}
		records = append(records, record)
	}
	return records, nil
}
