package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// BreakerConfig controls when a provider stops calling its upstream for a while.
// A tripped breaker fails fast; nothing is ever retried.
type BreakerConfig struct {
	MaxConsecutiveFailures uint32
	OpenTimeout            time.Duration
}

// HTTPClientConfig bundles the shared HTTP client with the per-provider
// politeness settings.
type HTTPClientConfig struct {
	Client  *http.Client
	Limiter *rate.Limiter
	Breaker BreakerConfig
}

var (
	ErrRateLimited    = errors.New("rate limited")
	ErrServerError    = errors.New("server error")
	ErrUnexpected     = errors.New("unexpected status code")
	ErrCircuitOpen    = errors.New("circuit breaker open")
	ErrNoHTTPClient   = errors.New("http client not configured")
	ErrInvalidPayload = errors.New("invalid payload")
)

var validate = validator.New()

func newCircuitBreaker(name string, cfg BreakerConfig) *gobreaker.CircuitBreaker {
	maxFailures := cfg.MaxConsecutiveFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	timeout := cfg.OpenTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
	})
}

// doRequest executes a single HTTP attempt through the circuit breaker,
// waiting on the rate limiter first when one is configured. Non-2xx responses
// are turned into errors and their bodies closed.
func doRequest(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	buildRequest func() (*http.Request, error),
) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, ErrNoHTTPClient
	}

	if cfg.Limiter != nil {
		if err := cfg.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait canceled: %w", err)
		}
	}

	req, err := buildRequest()
	if err != nil {
		return nil, err
	}
	req = req.WithContext(ctx)

	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := cfg.Client.Do(req)
		if execErr != nil {
			return nil, execErr
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			switch {
			case resp.StatusCode == http.StatusTooManyRequests:
				return nil, ErrRateLimited
			case resp.StatusCode >= 500:
				return nil, fmt.Errorf("%w: %d", ErrServerError, resp.StatusCode)
			default:
				return nil, fmt.Errorf("%w: %d", ErrUnexpected, resp.StatusCode)
			}
		}

		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}
		return nil, err
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return resp, nil
}

// decodePayload decodes JSON into v and validates its struct tags.
func decodePayload(r io.Reader, v interface{}) error {
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}
