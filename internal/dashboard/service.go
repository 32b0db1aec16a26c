package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"winddash/internal/aligner"
	"winddash/internal/charts"
	"winddash/internal/fetchers"
	"winddash/internal/logger"
	"winddash/internal/models"
	"winddash/internal/normalizer"
	"winddash/internal/parser"
)

// Status messages shown next to the chart
const (
	StatusObservationsShown = "Observational data is shown"
	StatusNoObservations    = "No observational data loaded"
	StatusNoDate            = "No date given for observational data"
	StatusForecastOnly      = "Forecast only"
)

// DefaultReferenceHour is the anchor hour used when none is given
const DefaultReferenceHour = "12:00"

// ErrInvalidRequest is returned when a view request fails validation
var ErrInvalidRequest = errors.New("invalid view request")

var validate = validator.New()

// Options configures the dashboard service
type Options struct {
	ForecastAPIKey    string
	ObservationAPIKey string
	// ForecastHours is the default window end when a request leaves EndHour unset
	ForecastHours int
	Location      *time.Location
}

// ViewRequest carries the UI selections for one chart
type ViewRequest struct {
	CellID    string  `validate:"required"`
	Longitude float64 `validate:"gte=-180,lte=180"`
	Latitude  float64 `validate:"gte=-90,lte=90"`
	// ObsDate is the historical observation date, YYYY-MM-DD; empty means none chosen
	ObsDate string `validate:"omitempty,datetime=2006-01-02"`
	// ReferenceHour is HH:MM on ObsDate; minutes are ignored
	ReferenceHour    string `validate:"omitempty,datetime=15:04"`
	StartHour        int    `validate:"gte=0"`
	EndHour          int    `validate:"omitempty,gtfield=StartHour"`
	RefPosition      int
	ShowObservations bool
}

// View is everything the chart layer needs
type View struct {
	CellID       string                  `json:"cell_id"`
	Forecast     []models.ForecastRow    `json:"forecast"`
	Observations []models.ObservationRow `json:"observations,omitempty"`
	Status       string                  `json:"status"`
	Anchor       *time.Time              `json:"anchor,omitempty"`
}

// Chart returns the wind chart for the view
func (v *View) Chart() charts.WindChart {
	c := charts.WindChart{
		Title:        v.CellID,
		Forecast:     v.Forecast,
		Observations: v.Observations,
	}
	if v.Anchor != nil {
		c.Anchor = *v.Anchor
	}
	return c
}

// Service runs the fetch, parse, normalize and align pipeline for a view
type Service struct {
	source     fetchers.DataSource
	normalizer *normalizer.Normalizer
	opts       Options
	log        *logger.Logger
}

// NewService creates a new dashboard service
func NewService(source fetchers.DataSource, opts Options) *Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.ForecastHours <= 0 {
		opts.ForecastHours = 48
	}
	return &Service{
		source:     source,
		normalizer: normalizer.New(opts.Location),
		opts:       opts,
		log:        logger.Component("dashboard"),
	}
}

// BuildView fetches the forecast for the request's point and, when asked for,
// the observations aligned under it
func (s *Service) BuildView(ctx context.Context, req ViewRequest) (*View, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if req.EndHour == 0 {
		req.EndHour = s.opts.ForecastHours
	}
	if req.ReferenceHour == "" {
		req.ReferenceHour = DefaultReferenceHour
	}

	forecast, err := s.forecast(ctx, req)
	if err != nil {
		return nil, err
	}

	// the window cannot extend past the forecast the API returned
	if req.EndHour > len(forecast) {
		req.EndHour = len(forecast)
	}
	if req.StartHour >= req.EndHour {
		return nil, fmt.Errorf("%w: window [%d, %d) is empty for a %d hour forecast",
			ErrInvalidRequest, req.StartHour, req.EndHour, len(forecast))
	}
	window := forecast[req.StartHour:req.EndHour]

	view := &View{CellID: req.CellID, Forecast: window, Status: StatusForecastOnly}
	if !req.ShowObservations {
		return view, nil
	}
	if strings.TrimSpace(req.ObsDate) == "" {
		view.Status = StatusNoDate
		return view, nil
	}

	anchor, err := aligner.Anchor(req.ObsDate, req.ReferenceHour, s.opts.Location)
	if err != nil {
		return nil, err
	}
	params := aligner.AlignmentParams{
		ObsDatetime: anchor,
		RefPosition: req.RefPosition,
		StartHour:   req.StartHour,
		EndHour:     req.EndHour,
	}

	rows, err := s.observations(ctx, req.CellID, params)
	if err != nil {
		return nil, err
	}
	centered, err := aligner.FilterAndCenter(rows, params)
	if err != nil {
		return nil, err
	}
	mapped, err := aligner.MapOntoForecast(centered, window)
	if err != nil {
		return nil, err
	}

	view.Observations = mapped
	view.Anchor = &anchor
	if aligner.CountReal(mapped) == 0 {
		view.Status = StatusNoObservations
	} else {
		view.Status = StatusObservationsShown
	}

	s.log.Info("built view", logger.Fields{
		"cell_id":   req.CellID,
		"obs_date":  req.ObsDate,
		"real_rows": aligner.CountReal(mapped),
		"rows":      len(mapped),
	})
	return view, nil
}

func (s *Service) forecast(ctx context.Context, req ViewRequest) ([]models.ForecastRow, error) {
	p := fetchers.ForecastFetchParams{
		APIKey:     s.opts.ForecastAPIKey,
		Longitude:  req.Longitude,
		Latitude:   req.Latitude,
		Collection: fetchers.CollectionWind,
	}
	payload, err := s.source.FetchForecast(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch forecast: %w", err)
	}
	records, err := parser.ParseForecast(payload, p.EffectiveParameters())
	if err != nil {
		return nil, err
	}
	return s.normalizer.Forecast(records)
}

// observations fetches whole local days covering the alignment window
func (s *Service) observations(ctx context.Context, cellID string, params aligner.AlignmentParams) ([]models.ObservationRow, error) {
	lo, hi := params.Window()
	first := lo.Add(time.Hour).In(s.opts.Location)
	midnight := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, s.opts.Location)
	nHours := int(hi.Sub(midnight)/time.Hour) + 1

	payload, err := s.source.FetchObservation(ctx, fetchers.ObservationFetchParams{
		APIKey:   s.opts.ObservationAPIKey,
		CellID:   cellID,
		DateFrom: midnight.Format("2006-01-02"),
		NHours:   nHours,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch observations: %w", err)
	}
	records, err := parser.ParseObservations(payload)
	if err != nil {
		return nil, err
	}
	return s.normalizer.Observations(records)
}
