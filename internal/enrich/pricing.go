package enrich

import (
	"context"
	"errors"
	"fmt"
	"math"

	"optioncatalog/internal/models"
)

// ErrInsufficientData is returned when the option or its underlying has no
// quote at or before the requested time.
var ErrInsufficientData = errors.New("insufficient data")

// PricingInput is what a pricing model needs for one option at one instant.
type PricingInput struct {
	Contract   models.Contract
	Option     models.Quote
	Underlying models.Quote
	Ts         int64
}

// Greeks as returned by a pricing model.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

// PricingModel computes Greeks. Implementations live outside the catalog.
type PricingModel interface {
	Greeks(ctx context.Context, in PricingInput) (Greeks, error)
}

// PricingInputs returns the latest option and underlying quotes at or
// before ts, honouring the spot lookback for both.
func (e *Enricher) PricingInputs(ctx context.Context, option models.InstrumentID, ts int64) (PricingInput, error) {
	c, err := e.cat.Contracts.GetCached(ctx, option)
	if err != nil {
		return PricingInput{}, err
	}
	if c.Kind != models.KindOption {
		return PricingInput{}, fmt.Errorf("%s is a %s, not an option", option, c.Kind)
	}
	u, err := c.UnderlyingID()
	if err != nil {
		return PricingInput{}, err
	}

	in := PricingInput{Contract: c, Ts: ts}
	var ok bool
	if in.Option, ok, err = e.latestQuote(ctx, option, ts); err != nil {
		return PricingInput{}, err
	} else if !ok {
		return PricingInput{}, fmt.Errorf("option %s at %d: %w", option, ts, ErrInsufficientData)
	}
	if in.Underlying, ok, err = e.latestQuote(ctx, u, ts); err != nil {
		return PricingInput{}, err
	} else if !ok {
		return PricingInput{}, fmt.Errorf("underlying %s at %d: %w", u, ts, ErrInsufficientData)
	}
	return in, nil
}

// Price feeds the pricing inputs of option at ts to model.
func (e *Enricher) Price(ctx context.Context, model PricingModel, option models.InstrumentID, ts int64) (Greeks, error) {
	in, err := e.PricingInputs(ctx, option, ts)
	if err != nil {
		return Greeks{}, err
	}
	return model.Greeks(ctx, in)
}

func (e *Enricher) latestQuote(ctx context.Context, inst models.InstrumentID, ts int64) (models.Quote, bool, error) {
	lo := int64(math.MinInt64)
	if e.lookback > 0 {
		lo = ts - e.lookback.Nanoseconds()
	}
	quotes, err := collect(ctx, e.cat.Quotes, inst.String(), lo, ts)
	if err != nil {
		return models.Quote{}, false, err
	}
	q, ok := latest(quotes, ts, e.lookback)
	return q, ok, nil
}
