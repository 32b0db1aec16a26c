package aligner

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"winddash/internal/logger"
	"winddash/internal/models"
)

var validate = validator.New()

var (
	// ErrAlignmentMismatch is returned when the aligned series and the forecast differ in length
	ErrAlignmentMismatch = errors.New("aligned observation length does not match forecast")
	// ErrInvalidAlignment is returned when alignment parameters fail validation
	ErrInvalidAlignment = errors.New("invalid alignment parameters")
)

// AlignmentError reports the expected and actual row counts of a failed mapping
type AlignmentError struct {
	Want int
	Got  int
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("%s: want %d rows, got %d", ErrAlignmentMismatch, e.Want, e.Got)
}

func (e *AlignmentError) Unwrap() error {
	return ErrAlignmentMismatch
}

// AlignmentParams describes the display window and where the observation anchor sits in it
type AlignmentParams struct {
	// ObsDatetime is the anchor instant on the observation series
	ObsDatetime time.Time `validate:"required"`
	// RefPosition shifts the anchor later (positive) or earlier (negative) within the window
	RefPosition int
	StartHour   int `validate:"gte=0"`
	EndHour     int `validate:"gtfield=StartHour"`
}

// Validate checks the window bounds
func (p AlignmentParams) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAlignment, err)
	}
	return nil
}

// Hours is the window length in rows
func (p AlignmentParams) Hours() int {
	return p.EndHour - p.StartHour
}

// RowsBefore is the number of rows up to and including the anchor
func (p AlignmentParams) RowsBefore() int {
	n := p.Hours()
	return (n+1)/2 + p.RefPosition
}

// RowsAfter is the number of rows after the anchor
func (p AlignmentParams) RowsAfter() int {
	return p.Hours() - p.RowsBefore()
}

// Window returns the half-open interval (lo, hi] of instants the aligned series covers
func (p AlignmentParams) Window() (time.Time, time.Time) {
	lo := p.ObsDatetime.Add(-time.Duration(p.RowsBefore()) * time.Hour)
	hi := p.ObsDatetime.Add(time.Duration(p.RowsAfter()) * time.Hour)
	return lo, hi
}

// Anchor combines an observation date and an HH:MM reference hour into a local instant.
// Minutes are ignored; the series is hourly.
func Anchor(obsDate, referenceHour string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	day, err := time.ParseInLocation("2006-01-02", obsDate, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid observation date %q", ErrInvalidAlignment, obsDate)
	}
	hourPart, _, _ := strings.Cut(referenceHour, ":")
	hour, err := strconv.Atoi(hourPart)
	if err != nil || hour < 0 || hour > 23 {
		return time.Time{}, fmt.Errorf("%w: invalid reference hour %q", ErrInvalidAlignment, referenceHour)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, loc), nil
}

// FilterAndCenter selects the observation rows around the anchor and pads them with
// zero-valued rows so the result has exactly EndHour-StartHour rows sorted by time.
// Rows must be sorted ascending. The anchor, when inside the window, is the last
// row of the "before" half.
func FilterAndCenter(rows []models.ObservationRow, p AlignmentParams) ([]models.ObservationRow, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	log := logger.Component("aligner")

	lo, hi := p.Window()
	// an anchor pushed out of the window by RefPosition leaves one half empty
	pivot := p.ObsDatetime
	if pivot.Before(lo) {
		pivot = lo
	}
	if pivot.After(hi) {
		pivot = hi
	}
	wantBefore := int(pivot.Sub(lo) / time.Hour)
	wantAfter := p.Hours() - wantBefore

	var before, after []models.ObservationRow
	for _, row := range rows {
		t := row.FromDatetime
		switch {
		case t.After(lo) && !t.After(pivot):
			before = append(before, row)
		case t.After(pivot) && !t.After(hi):
			after = append(after, row)
		}
	}

	loc := p.ObsDatetime.Location()
	realRows := len(before) + len(after)

	// keep the rows nearest the anchor if the series is denser than hourly
	if len(before) > wantBefore {
		before = before[len(before)-wantBefore:]
	}
	if len(after) > wantAfter {
		after = after[:wantAfter]
	}

	if missing := wantBefore - len(before); missing > 0 {
		start := pivot.Add(time.Hour)
		if len(before) > 0 {
			start = before[0].FromDatetime
		}
		pad := make([]models.ObservationRow, missing)
		for i := range pad {
			pad[i] = paddingRow(start.Add(-time.Duration(missing-i)*time.Hour), loc)
		}
		before = append(pad, before...)
	}

	if missing := wantAfter - len(after); missing > 0 {
		start := pivot
		if len(after) > 0 {
			start = after[len(after)-1].FromDatetime
		}
		for i := 1; i <= missing; i++ {
			after = append(after, paddingRow(start.Add(time.Duration(i)*time.Hour), loc))
		}
	}

	out := make([]models.ObservationRow, 0, p.Hours())
	out = append(out, before...)
	out = append(out, after...)

	log.Debug("centered observations", logger.Fields{
		"anchor":      p.ObsDatetime.Format(time.RFC3339),
		"rows_before": wantBefore,
		"rows_after":  wantAfter,
		"real_rows":   realRows,
	})
	return out, nil
}

// MapOntoForecast assigns each aligned observation row the forecast time at the same position
func MapOntoForecast(obs []models.ObservationRow, forecast []models.ForecastRow) ([]models.ObservationRow, error) {
	if len(obs) != len(forecast) {
		return nil, &AlignmentError{Want: len(forecast), Got: len(obs)}
	}
	out := make([]models.ObservationRow, len(obs))
	for i, row := range obs {
		row.MapForecastTime = forecast[i].FromDatetime
		out[i] = row
	}
	return out, nil
}

// CountReal returns the number of rows that carry observed data
func CountReal(rows []models.ObservationRow) int {
	n := 0
	for _, row := range rows {
		if !row.Padded {
			n++
		}
	}
	return n
}

func paddingRow(at time.Time, loc *time.Location) models.ObservationRow {
	values := make(map[string]float64)
	for _, p := range models.ObservationParameters() {
		values[p] = 0
	}
	return models.ObservationRow{
		FromDatetime: at.In(loc),
		Values:       values,
		Padded:       true,
	}
}
