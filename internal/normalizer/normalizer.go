package normalizer

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	_ "time/tzdata"

	"winddash/internal/logger"
	"winddash/internal/models"
)

// DefectMarker identifies the spurious midnight row DMI injects per cell per day
const DefectMarker = "00:00:00.001000"

// ErrTimestampParse is returned for a timestamp that is not an offset-qualified ISO-8601 instant
var ErrTimestampParse = errors.New("timestamp parse failed")

// Normalizer converts parsed records into local-time rows
type Normalizer struct {
	location *time.Location
	log      *logger.Logger
}

// New creates a normalizer converting into loc
func New(loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	return &Normalizer{
		location: loc,
		log:      logger.Component("normalizer"),
	}
}

// Location returns the zone rows are converted into
func (n *Normalizer) Location() *time.Location {
	return n.location
}

// Observations drops defect rows, converts timestamps to local time and pivots
// the long records into one row per from-time, sorted ascending.
func (n *Normalizer) Observations(records []models.ObservationRecord) ([]models.ObservationRow, error) {
	byTime := make(map[int64]*models.ObservationRow)
	dropped := 0

	for _, rec := range records {
		if IsDefect(rec.From) {
			dropped++
			continue
		}
		from, err := n.parse(rec.From)
		if err != nil {
			return nil, err
		}
		// the interval end is validated even though rows are keyed by from
		if _, err := n.parse(rec.To); err != nil {
			return nil, err
		}

		key := from.UnixNano()
		row, ok := byTime[key]
		if !ok {
			row = &models.ObservationRow{
				FromDatetime: from,
				Values:       make(map[string]float64),
			}
			byTime[key] = row
		}
		if _, dup := row.Values[rec.ParameterID]; dup {
			n.log.Debug("duplicate observation value, keeping the last", logger.Fields{
				"from":      rec.From,
				"parameter": rec.ParameterID,
			})
		}
		row.Values[rec.ParameterID] = rec.Value
	}

	rows := make([]models.ObservationRow, 0, len(byTime))
	for _, row := range byTime {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].FromDatetime.Before(rows[j].FromDatetime)
	})

	if dropped > 0 {
		n.log.Debug("dropped defective observation rows", logger.Fields{"count": dropped})
	}
	return rows, nil
}

// Forecast converts forecast records to local time and renames parameter columns
func (n *Normalizer) Forecast(records []models.ForecastRecord) ([]models.ForecastRow, error) {
	rows := make([]models.ForecastRow, len(records))
	for i, rec := range records {
		from, err := n.parse(rec.Time)
		if err != nil {
			return nil, err
		}
		values := make(map[string]float64, len(rec.Values))
		for p, v := range rec.Values {
			values[models.ColumnName(p)] = v
		}
		rows[i] = models.ForecastRow{
			FromDatetime: from,
			Values:       values,
			Longitude:    rec.Longitude,
			Latitude:     rec.Latitude,
		}
	}
	return rows, nil
}

// IsDefect reports whether a raw from-timestamp carries the known microsecond defect
func IsDefect(raw string) bool {
	return strings.Contains(raw, DefectMarker)
}

func (n *Normalizer) parse(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrTimestampParse, raw, err)
	}
	return t.In(n.location), nil
}
