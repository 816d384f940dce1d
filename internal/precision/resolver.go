// Package precision resolves per-instrument step sizes and rounds quantities
// and prices to exchange-legal granularity.
package precision

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"cryptoFuturesBot/internal/ports"
)

// MetadataSource is the slice of the exchange client the resolver needs.
type MetadataSource interface {
	GetSymbolFilters(ctx context.Context, symbol string) (*ports.SymbolFilters, error)
}

// Steps holds the parsed quantization units for one instrument.
type Steps struct {
	Quantity    decimal.Decimal // minimum quantity increment
	Price       decimal.Decimal // minimum price increment (tick size)
	MinQuantity decimal.Decimal
	MaxQuantity decimal.Decimal
}

// Resolver fetches and caches instrument step sizes. Step sizes change rarely,
// so entries are cached for the process lifetime; a miss costs one metadata
// fetch. A failed fetch is returned as an error and must be treated as fatal
// for that symbol's trade.
type Resolver struct {
	source MetadataSource
	logger ports.Logger

	mu    sync.Mutex
	cache map[string]Steps
}

// NewResolver creates a step-size resolver backed by the given metadata source.
func NewResolver(source MetadataSource, logger ports.Logger) (*Resolver, error) {
	if source == nil || logger == nil {
		return nil, fmt.Errorf("metadata source and logger are required for precision resolver")
	}
	return &Resolver{
		source: source,
		logger: logger,
		cache:  make(map[string]Steps),
	}, nil
}

// Resolve returns the quantity and price steps for a symbol, fetching and
// caching instrument metadata on first use.
func (r *Resolver) Resolve(ctx context.Context, symbol string) (Steps, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if steps, ok := r.cache[symbol]; ok {
		return steps, nil
	}

	filters, err := r.source.GetSymbolFilters(ctx, symbol)
	if err != nil {
		return Steps{}, fmt.Errorf("resolving instrument metadata for %s: %w", symbol, err)
	}

	steps, err := parseSteps(filters)
	if err != nil {
		return Steps{}, fmt.Errorf("parsing instrument metadata for %s: %w", symbol, err)
	}

	r.cache[symbol] = steps
	r.logger.Info(ctx, "Instrument steps resolved", map[string]interface{}{
		"symbol":       symbol,
		"quantityStep": steps.Quantity.String(),
		"priceStep":    steps.Price.String(),
	})
	return steps, nil
}

func parseSteps(filters *ports.SymbolFilters) (Steps, error) {
	qtyStep, err := decimal.NewFromString(filters.QuantityStep)
	if err != nil {
		return Steps{}, fmt.Errorf("invalid quantity step %q: %w", filters.QuantityStep, err)
	}
	priceStep, err := decimal.NewFromString(filters.PriceStep)
	if err != nil {
		return Steps{}, fmt.Errorf("invalid price step %q: %w", filters.PriceStep, err)
	}
	if qtyStep.Sign() <= 0 || priceStep.Sign() <= 0 {
		return Steps{}, fmt.Errorf("non-positive step sizes (quantity %s, price %s)", filters.QuantityStep, filters.PriceStep)
	}

	// Min/max bounds are optional in the metadata; zero means unbounded.
	minQty, err := decimal.NewFromString(orZero(filters.MinQuantity))
	if err != nil {
		return Steps{}, fmt.Errorf("invalid min quantity %q: %w", filters.MinQuantity, err)
	}
	maxQty, err := decimal.NewFromString(orZero(filters.MaxQuantity))
	if err != nil {
		return Steps{}, fmt.Errorf("invalid max quantity %q: %w", filters.MaxQuantity, err)
	}

	return Steps{Quantity: qtyStep, Price: priceStep, MinQuantity: minQty, MaxQuantity: maxQty}, nil
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

// RoundToStep truncates value down to the nearest non-negative multiple of
// step. The step itself is the quantization unit, not a fixed decimal count,
// and the arithmetic is exact so a result never lands off-grid by a float
// epsilon. Truncation never rounds up: quantities must not exceed the risk
// budget and prices must not cross their intended level.
func RoundToStep(value float64, step decimal.Decimal) float64 {
	d := quantize(value, step)
	f, _ := d.Float64()
	return f
}

// FormatToStep renders value truncated to step as a string with exactly the
// step's decimal places, the form exchange APIs expect.
func FormatToStep(value float64, step decimal.Decimal) string {
	places := int32(0)
	if step.Exponent() < 0 {
		places = -step.Exponent()
	}
	return quantize(value, step).StringFixed(places)
}

func quantize(value float64, step decimal.Decimal) decimal.Decimal {
	if step.Sign() <= 0 || value <= 0 {
		return decimal.Zero
	}
	v := decimal.NewFromFloat(value)
	return v.Div(step).Floor().Mul(step)
}

// RoundQuantity truncates a quantity to the instrument's quantity step and
// clamps it to the exchange's maximum order size when one is defined.
func (s Steps) RoundQuantity(value float64) float64 {
	q := quantize(value, s.Quantity)
	if s.MaxQuantity.Sign() > 0 && q.GreaterThan(s.MaxQuantity) {
		q = s.MaxQuantity
	}
	f, _ := q.Float64()
	return f
}

// RoundPrice truncates a price to the instrument's tick size.
func (s Steps) RoundPrice(value float64) float64 {
	return RoundToStep(value, s.Price)
}

// FormatQuantity renders a quantity truncated to the quantity step.
func (s Steps) FormatQuantity(value float64) string {
	if s.MaxQuantity.Sign() > 0 {
		value = s.RoundQuantity(value)
	}
	return FormatToStep(value, s.Quantity)
}

// FormatPrice renders a price truncated to the tick size.
func (s Steps) FormatPrice(value float64) string {
	return FormatToStep(value, s.Price)
}
