package symbols

import (
	"fmt"
	"time"

	"optioncatalog/internal/fixedpoint"
	"optioncatalog/internal/models"
)

const (
	optionActivation = 30 * 24 * time.Hour
	futureActivation = 90 * 24 * time.Hour
	currency         = "INR"
	pricePrecision   = 2
)

var (
	priceIncrement = fixedpoint.New(5, 2)

	continuousActivation = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	continuousExpiration = time.Date(2099, time.December, 31, 0, 0, 0, 0, time.UTC)
)

// OptionSpec describes an option contract to build.
type OptionSpec struct {
	Symbol     string
	Underlying string
	Strike     fixedpoint.Value
	Expiry     time.Time
	Kind       models.OptionKind
	// LotSize overrides the table lookup when positive.
	LotSize int64
	Venue   string
}

// NewOption builds option metadata. Activation is 30 days before expiry and
// index options reference the spot index as their underlying.
func NewOption(s OptionSpec) (models.Contract, error) {
	venue := orDefault(s.Venue)
	id, err := models.NewInstrumentID(s.Symbol, venue)
	if err != nil {
		return models.Contract{}, err
	}
	lot := s.LotSize
	if lot <= 0 {
		lot = LotSize(s.Underlying)
	}
	strike, err := s.Strike.Rescale(pricePrecision)
	if err != nil {
		return models.Contract{}, fmt.Errorf("strike %s: %w", s.Strike, err)
	}
	exp := s.Expiry.UTC()
	c := models.Contract{
		Instrument:     id,
		Kind:           models.KindOption,
		RawSymbol:      id.Symbol(),
		AssetClass:     AssetClassOf(s.Underlying),
		Venue:          venue,
		Underlying:     IndexSymbol(s.Underlying),
		ActivationNs:   exp.Add(-optionActivation).UnixNano(),
		ExpirationNs:   exp.UnixNano(),
		Strike:         strike,
		OptionKind:     s.Kind,
		Currency:       currency,
		PricePrecision: pricePrecision,
		PriceIncrement: priceIncrement,
		Multiplier:     fixedpoint.New(lot, 0),
		LotSize:        fixedpoint.New(lot, 0),
	}
	return c, c.Validate()
}

// NewOptionFromSymbol parses sym and builds its option metadata.
func NewOptionFromSymbol(sym, venue string) (models.Contract, error) {
	o, err := ParseOptionSymbol(sym)
	if err != nil {
		return models.Contract{}, err
	}
	return NewOption(OptionSpec{
		Symbol:     sym,
		Underlying: o.Underlying,
		Strike:     o.Strike,
		Expiry:     o.Expiry,
		Kind:       o.Kind,
		Venue:      venue,
	})
}

// NewFuture builds dated future metadata active 90 days before expiry.
func NewFuture(symbol, underlying string, expiry time.Time, venue string) (models.Contract, error) {
	exp := expiry.UTC()
	return future(symbol, underlying, exp.Add(-futureActivation), exp, venue)
}

// NewContinuousFuture builds metadata for a rolling -I style contract.
func NewContinuousFuture(symbol, underlying, venue string) (models.Contract, error) {
	return future(symbol, underlying, continuousActivation, continuousExpiration, venue)
}

func future(symbol, underlying string, activation, expiration time.Time, venue string) (models.Contract, error) {
	venue = orDefault(venue)
	id, err := models.NewInstrumentID(symbol, venue)
	if err != nil {
		return models.Contract{}, err
	}
	lot := LotSize(underlying)
	c := models.Contract{
		Instrument:     id,
		Kind:           models.KindFuture,
		RawSymbol:      id.Symbol(),
		AssetClass:     AssetClassOf(underlying),
		Venue:          venue,
		Underlying:     underlying,
		ActivationNs:   activation.UnixNano(),
		ExpirationNs:   expiration.UnixNano(),
		Currency:       currency,
		PricePrecision: pricePrecision,
		PriceIncrement: priceIncrement,
		Multiplier:     fixedpoint.Unit(),
		LotSize:        fixedpoint.New(lot, 0),
	}
	return c, c.Validate()
}

// NewIndex builds metadata for a spot index such as NIFTY-INDEX. It has no
// expiry of its own, so it spans the continuous contract window.
func NewIndex(underlying, venue string) (models.Contract, error) {
	venue = orDefault(venue)
	id, err := models.NewInstrumentID(IndexSymbol(underlying), venue)
	if err != nil {
		return models.Contract{}, err
	}
	c := models.Contract{
		Instrument:     id,
		Kind:           models.KindIndex,
		RawSymbol:      id.Symbol(),
		AssetClass:     models.Index,
		Venue:          venue,
		ActivationNs:   continuousActivation.UnixNano(),
		ExpirationNs:   continuousExpiration.UnixNano(),
		Currency:       currency,
		PricePrecision: pricePrecision,
		PriceIncrement: priceIncrement,
		Multiplier:     fixedpoint.Unit(),
		LotSize:        fixedpoint.Unit(),
	}
	return c, c.Validate()
}

func orDefault(venue string) string {
	if venue == "" {
		return DefaultVenue
	}
	return venue
}
