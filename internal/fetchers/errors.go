package fetchers

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrRemoteRequest marks any failed call to the DMI API
	ErrRemoteRequest = errors.New("remote request failed")
	// ErrInvalidCollection is returned for an unsupported forecast collection
	ErrInvalidCollection = errors.New("invalid collection type")
	// ErrInvalidParams is returned when fetch parameters fail validation
	ErrInvalidParams = errors.New("invalid fetch parameters")
)

// RemoteRequestError carries the upstream status and message of a failed request.
// Status is 0 for transport failures.
type RemoteRequestError struct {
	Status  int
	Message string
	URL     string
	Err     error
}

func (e *RemoteRequestError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s (%s)", ErrRemoteRequest, e.Message, e.URL)
	}
	return fmt.Sprintf("%s: status %d: %s (%s)", ErrRemoteRequest, e.Status, e.Message, e.URL)
}

// Is makes errors.Is(err, ErrRemoteRequest) hold for every RemoteRequestError
func (e *RemoteRequestError) Is(target error) bool {
	return target == ErrRemoteRequest
}

func (e *RemoteRequestError) Unwrap() error {
	return e.Err
}

// redactURL hides the api-key query value so URLs can be logged and returned in errors
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<unparseable url>"
	}
	q := u.Query()
	if q.Has("api-key") {
		q.Set("api-key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// scrubKey removes the api-key value of rawURL from msg
func scrubKey(msg, rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return msg
	}
	key := u.Query().Get("api-key")
	if key == "" {
		return msg
	}
	msg = strings.ReplaceAll(msg, url.QueryEscape(key), "REDACTED")
	return strings.ReplaceAll(msg, key, "REDACTED")
}
