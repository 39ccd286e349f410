package providers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker"

	"github.com/i474232898/travel-viability/internal/travel"
)

// DefaultExchangeRateURL returns USD-based rates without authentication.
const DefaultExchangeRateURL = "https://api.exchangerate-api.com/v4/latest/USD"

// DefaultRateFallback is substituted when the exchange API cannot be used.
func DefaultRateFallback() map[string]float64 {
	return map[string]float64{
		"USD": 1.0,
		"GBP": 0.78,
		"JPY": 149.50,
		"BRL": 5.45,
		"AUD": 1.55,
	}
}

// ExchangeRateProvider implements travel.RateProvider for exchangerate-api.com.
type ExchangeRateProvider struct {
	name     string
	baseURL  string
	httpCfg  HTTPClientConfig
	circuit  *gobreaker.CircuitBreaker
	fallback map[string]float64
}

var _ travel.RateProvider = (*ExchangeRateProvider)(nil)

// NewExchangeRateProvider creates the provider. A nil fallback uses DefaultRateFallback.
func NewExchangeRateProvider(cfg HTTPClientConfig, baseURL string, fallback map[string]float64) *ExchangeRateProvider {
	if baseURL == "" {
		baseURL = DefaultExchangeRateURL
	}
	if fallback == nil {
		fallback = DefaultRateFallback()
	}
	return &ExchangeRateProvider{
		name:     "exchangerate-api",
		baseURL:  baseURL,
		httpCfg:  cfg,
		circuit:  newCircuitBreaker("exchangerate-api", cfg.Breaker),
		fallback: fallback,
	}
}

func (p *ExchangeRateProvider) Name() string {
	return p.name
}

type exchangeRatePayload struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates" validate:"required,min=1,dive,gt=0"`
}

// Rates never fails; see travel.RateProvider.
func (p *ExchangeRateProvider) Rates(ctx context.Context) travel.RateTable {
	table, err := p.fetch(ctx)
	if err != nil {
		return p.fallbackTable(err)
	}
	return table
}

func (p *ExchangeRateProvider) fetch(ctx context.Context) (travel.RateTable, error) {
	buildRequest := func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, p.baseURL, nil)
	}

	resp, err := doRequest(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return travel.RateTable{}, err
	}
	defer resp.Body.Close()

	var payload exchangeRatePayload
	if err := decodePayload(resp.Body, &payload); err != nil {
		return travel.RateTable{}, err
	}

	base := payload.Base
	if base == "" {
		base = "USD"
	}
	return travel.RateTable{
		Base:   base,
		Rates:  payload.Rates,
		Source: travel.SourceLive,
	}, nil
}

func (p *ExchangeRateProvider) fallbackTable(cause error) travel.RateTable {
	rates := make(map[string]float64, len(p.fallback))
	for k, v := range p.fallback {
		rates[k] = v
	}
	return travel.RateTable{
		Base:   "USD",
		Rates:  rates,
		Source: travel.SourceFallback,
		Err:    fmt.Errorf("%s: %w", p.name, cause),
	}
}
