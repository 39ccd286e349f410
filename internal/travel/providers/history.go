package providers

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/i474232898/travel-viability/internal/common"
	"github.com/i474232898/travel-viability/internal/travel"
)

// DefaultHistoryJitter is the maximum relative deviation of a simulated day.
const DefaultHistoryJitter = 0.02

// SimulatedHistory implements travel.HistorySource without a historical API:
// each past day is the current rate perturbed by a uniform jitter.
type SimulatedHistory struct {
	jitter float64

	mu  sync.Mutex
	rng *rand.Rand
}

var _ travel.HistorySource = (*SimulatedHistory)(nil)

// NewSimulatedHistory creates the source. A zero seed seeds from the clock.
func NewSimulatedHistory(jitter float64, seed int64) *SimulatedHistory {
	if jitter <= 0 {
		jitter = DefaultHistoryJitter
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SimulatedHistory{
		jitter: jitter,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// History returns days tables ordered oldest to newest. Rates are rounded to
// four decimals.
func (h *SimulatedHistory) History(_ context.Context, current travel.RateTable, days int) []travel.RateTable {
	if days <= 0 || len(current.Rates) == 0 {
		return nil
	}

	currencies := make([]string, 0, len(current.Rates))
	for c := range current.Rates {
		currencies = append(currencies, c)
	}
	sort.Strings(currencies)

	h.mu.Lock()
	defer h.mu.Unlock()

	history := make([]travel.RateTable, 0, days)
	for d := 0; d < days; d++ {
		rates := make(map[string]float64, len(currencies))
		for _, c := range currencies {
			factor := 1 + (h.rng.Float64()*2-1)*h.jitter
			rates[c] = common.Round(current.Rates[c]*factor, 4)
		}
		history = append(history, travel.RateTable{
			Base:   current.Base,
			Rates:  rates,
			Source: current.Source,
		})
	}
	return history
}
