package fetchers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// guard optionally throttles and short-circuits outbound calls. A zero guard
// passes every call straight through. It never retries.
type guard struct {
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

func newGuard(rps float64, maxFailures uint32, openTimeout time.Duration) *guard {
	g := &guard{}
	if rps > 0 {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	if maxFailures > 0 {
		g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "dmi",
			MaxRequests: 1,
			Timeout:     openTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
		})
	}
	return g
}

// do runs call under the limiter and breaker
func (g *guard) do(ctx context.Context, requestURL string, call func() ([]byte, error)) ([]byte, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait canceled: %w", err)
		}
	}

	if g.breaker == nil {
		return call()
	}

	result, err := g.breaker.Execute(func() (interface{}, error) {
		return call()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &RemoteRequestError{
				Message: "circuit breaker open, not calling upstream",
				URL:     redactURL(requestURL),
				Err:     err,
			}
		}
		return nil, err
	}
	return result.([]byte), nil
}
