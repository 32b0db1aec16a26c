package fetchers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"winddash/internal/cache"
	"winddash/internal/logger"
)

const (
	// DefaultForecastBaseURL is the EDR forecast collections root
	DefaultForecastBaseURL = "https://dmigw.govcloud.dk/v1/forecastedr/collections/"
	// DefaultObservationBaseURL is the 10 km grid climate data endpoint
	DefaultObservationBaseURL = "https://dmigw.govcloud.dk/v2/climateData/collections/10kmGridValue/items"

	breakerOpenTimeout = 30 * time.Second
)

// DataSource provides raw forecast and observation payloads
type DataSource interface {
	FetchForecast(ctx context.Context, p ForecastFetchParams) ([]byte, error)
	FetchObservation(ctx context.Context, p ObservationFetchParams) ([]byte, error)
}

// ClientConfig holds DMI client settings
type ClientConfig struct {
	ForecastBaseURL    string
	ObservationBaseURL string
	// Timeout of zero leaves the HTTP client without a timeout
	Timeout            time.Duration
	Location           *time.Location
	RateLimitRPS       float64
	BreakerMaxFailures uint32
	// Now overrides the clock used for the forecast cache bucket
	Now func() time.Time
}

// DMIClient fetches raw payloads from the DMI API through the response cache
type DMIClient struct {
	client             *resty.Client
	cache              *cache.Store
	forecastBaseURL    string
	observationBaseURL string
	location           *time.Location
	now                func() time.Time
	guard              *guard
	log                *logger.Logger
}

var _ DataSource = (*DMIClient)(nil)

// NewDMIClient creates a new DMI client instance
func NewDMIClient(store *cache.Store, cfg ClientConfig) *DMIClient {
	client := resty.New()
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	if cfg.ForecastBaseURL == "" {
		cfg.ForecastBaseURL = DefaultForecastBaseURL
	}
	if cfg.ObservationBaseURL == "" {
		cfg.ObservationBaseURL = DefaultObservationBaseURL
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &DMIClient{
		client:             client,
		cache:              store,
		forecastBaseURL:    cfg.ForecastBaseURL,
		observationBaseURL: cfg.ObservationBaseURL,
		location:           cfg.Location,
		now:                cfg.Now,
		guard:              newGuard(cfg.RateLimitRPS, cfg.BreakerMaxFailures, breakerOpenTimeout),
		log:                logger.Component("dmi"),
	}
}

// ForecastURL builds the point query URL for a forecast request
func (c *DMIClient) ForecastURL(p ForecastFetchParams) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	apiName, _ := p.Collection.APIName()

	coords := fmt.Sprintf("POINT(%s %s)", formatCoord(p.Longitude), formatCoord(p.Latitude))
	params := p.EffectiveParameters()
	for i, name := range params {
		params[i] = url.QueryEscape(name)
	}
	return fmt.Sprintf("%s%s/position?coords=%s&crs=crs84&parameter-name=%s&api-key=%s",
		c.forecastBaseURL,
		apiName,
		url.QueryEscape(coords),
		strings.Join(params, ","),
		url.QueryEscape(p.APIKey),
	), nil
}

// ObservationURL builds the grid-cell query URL. The local civil midnight of
// DateFrom is converted to UTC; the API interval is inclusive, so the range
// ends NHours-1 hours later.
func (c *DMIClient) ObservationURL(p ObservationFetchParams) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	fromUTC, toUTC, err := ObservationRange(p.DateFrom, p.NHours, c.location)
	if err != nil {
		return "", err
	}

	const layout = "2006-01-02T15:04:05"
	datetime := fromUTC.Format(layout) + "Z/" + toUTC.Format(layout) + "Z"
	return fmt.Sprintf("%s?cellId=%s&datetime=%s&api-key=%s",
		c.observationBaseURL,
		url.QueryEscape(p.CellID),
		datetime,
		url.QueryEscape(p.APIKey),
	), nil
}

// ObservationRange converts a local date and hour count to the inclusive UTC range
func ObservationRange(dateFrom string, nHours int, loc *time.Location) (time.Time, time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", dateFrom, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid date %q: %v", ErrInvalidParams, dateFrom, err)
	}
	from := day.UTC()
	to := from.Add(time.Duration(nHours-1) * time.Hour)
	return from, to, nil
}

// FetchForecast returns the raw forecast payload, cached per three-hour bucket
func (c *DMIClient) FetchForecast(ctx context.Context, p ForecastFetchParams) ([]byte, error) {
	queryURL, err := c.ForecastURL(p)
	if err != nil {
		return nil, err
	}
	fingerprint := cache.ForecastFingerprint(queryURL, c.now().In(c.location))

	return c.cache.GetOrFetch(ctx, fingerprint, func(ctx context.Context) ([]byte, error) {
		return c.get(ctx, queryURL)
	})
}

// FetchObservation returns the raw observation payload, cached by query
func (c *DMIClient) FetchObservation(ctx context.Context, p ObservationFetchParams) ([]byte, error) {
	queryURL, err := c.ObservationURL(p)
	if err != nil {
		return nil, err
	}
	fingerprint := cache.ObservationFingerprint(queryURL)

	return c.cache.GetOrFetch(ctx, fingerprint, func(ctx context.Context) ([]byte, error) {
		return c.get(ctx, queryURL)
	})
}

func (c *DMIClient) get(ctx context.Context, queryURL string) ([]byte, error) {
	redacted := redactURL(queryURL)

	return c.guard.do(ctx, queryURL, func() ([]byte, error) {
		c.log.Info("fetching data from API", logger.Fields{"url": redacted})

		resp, err := c.client.R().
			SetContext(ctx).
			SetHeader("Accept", "application/json").
			Get(queryURL)
		if err != nil {
			return nil, &RemoteRequestError{Message: scrubKey(err.Error(), queryURL), URL: redacted, Err: err}
		}

		if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
			reqErr := &RemoteRequestError{
				Status:  resp.StatusCode(),
				Message: upstreamMessage(resp.Body(), resp.Status()),
				URL:     redacted,
			}
			c.log.Warn("upstream returned an error", logger.Fields{"url": redacted, "status": resp.StatusCode()})
			return nil, reqErr
		}

		body := resp.Body()
		if !json.Valid(body) {
			return nil, &RemoteRequestError{
				Status:  resp.StatusCode(),
				Message: "response body is not valid JSON",
				URL:     redacted,
			}
		}
		return body, nil
	})
}

// upstreamMessage extracts a readable message from an error body
func upstreamMessage(body []byte, status string) string {
	var parsed struct {
		Message     string `json:"message"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Description != "" {
			return parsed.Description
		}
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		return status
	}
	const maxLen = 300
	if len(text) > maxLen {
		text = text[:maxLen] + "..."
	}
	return text
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
