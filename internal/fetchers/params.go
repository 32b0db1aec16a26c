package fetchers

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"winddash/internal/models"
)

var validate = validator.New()

// Collection selects one of the upstream forecast collections
type Collection string

const (
	CollectionWind  Collection = "wind"
	CollectionWaves Collection = "waves"
)

var collections = map[Collection]string{
	CollectionWind:  "harmonie_dini_sf",
	CollectionWaves: "wam_dw",
}

// CollectionNames returns the valid collection names, sorted
func CollectionNames() []string {
	names := make([]string, 0, len(collections))
	for c := range collections {
		names = append(names, string(c))
	}
	sort.Strings(names)
	return names
}

// APIName returns the upstream collection id
func (c Collection) APIName() (string, error) {
	name, ok := collections[c]
	if !ok {
		return "", fmt.Errorf("%w: collection type has to be one of %v, %q not valid",
			ErrInvalidCollection, CollectionNames(), string(c))
	}
	return name, nil
}

// ForecastFetchParams describes a point forecast request
type ForecastFetchParams struct {
	APIKey     string     `validate:"required"`
	Longitude  float64    `validate:"gte=-180,lte=180"`
	Latitude   float64    `validate:"gte=-90,lte=90"`
	Collection Collection `validate:"required"`
	// Parameters defaults to models.DefaultWindParameters when empty
	Parameters []string `validate:"omitempty,dive,required,excludesall=0x2C"`
}

// EffectiveParameters returns the requested parameters or a fresh copy of the defaults
func (p ForecastFetchParams) EffectiveParameters() []string {
	if len(p.Parameters) == 0 {
		return models.DefaultWindParameters()
	}
	return append([]string(nil), p.Parameters...)
}

// Validate checks the request before any network or cache access
func (p ForecastFetchParams) Validate() error {
	if _, err := p.Collection.APIName(); err != nil {
		return err
	}
	return validationError(validate.Struct(p))
}

// ObservationFetchParams describes a grid-cell observation request
type ObservationFetchParams struct {
	APIKey string `validate:"required"`
	CellID string `validate:"required"`
	// DateFrom is a local calendar date, YYYY-MM-DD
	DateFrom string `validate:"required,datetime=2006-01-02"`
	NHours   int    `validate:"gt=0"`
}

// Validate checks the request before any network or cache access
func (p ObservationFetchParams) Validate() error {
	return validationError(validate.Struct(p))
}

func validationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", ErrInvalidParams, strings.Join(msgs, "; "))
	}
	return fmt.Errorf("%w: %v", ErrInvalidParams, err)
}
