// Package quotes derives top-of-book quotes from bars.
package quotes

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"optioncatalog/internal/fixedpoint"
	"optioncatalog/internal/models"
)

// ErrContractMismatch is returned when the metadata handed to Derive is for
// another instrument.
var ErrContractMismatch = errors.New("contract does not match bars")

var half = decimal.New(5, -1)

// Derive emits one quote per bar, in input order, with the bar's
// timestamps. Sizes are one unit. Under ZeroSpread bid and ask equal the
// close; otherwise they sit exactly half the estimated spread either side
// of it, sharing a precision no coarser than the close and the contract's
// price precision. With RoundToTick the bid is rounded down and the ask up
// to that precision instead.
func Derive(bars []models.Bar, contract models.Contract, policy Policy) ([]models.Quote, error) {
	out := make([]models.Quote, len(bars))
	window := policy.Window
	if window < 1 {
		window = 1
	}

	for i, b := range bars {
		if contract.Instrument != "" && b.Instrument != contract.Instrument {
			return nil, fmt.Errorf("bar %d %s: %w %s", i, b.Instrument, ErrContractMismatch, contract.Instrument)
		}
		q := models.Quote{
			Instrument: b.Instrument,
			Bid:        b.Close,
			Ask:        b.Close,
			BidSize:    fixedpoint.Unit(),
			AskSize:    fixedpoint.Unit(),
			TsEvent:    b.TsEvent,
			TsInit:     b.TsInit,
		}

		if policy.Estimator != nil {
			lo := i - window + 1
			if lo < 0 {
				lo = 0
			}
			spread, err := policy.Estimator.Estimate(bars[lo : i+1])
			if err != nil {
				return nil, fmt.Errorf("bar %d: estimate spread: %w", i, err)
			}
			if spread.IsNegative() {
				return nil, fmt.Errorf("bar %d: %w: %s", i, ErrNegativeSpread, spread)
			}
			if q.Bid, q.Ask, err = around(b.Close, spread, contract.PricePrecision, policy.RoundToTick); err != nil {
				return nil, fmt.Errorf("bar %d: %w", i, err)
			}
		}
		out[i] = q
	}
	return out, nil
}

func around(mid, spread fixedpoint.Value, precision uint8, tick bool) (fixedpoint.Value, fixedpoint.Value, error) {
	places := max(mid.Precision, precision)
	h := spread.Decimal().Mul(half)
	m := mid.Decimal()
	lo, hi := m.Sub(h), m.Add(h)
	if tick {
		lo, hi = lo.RoundFloor(int32(places)), hi.RoundCeil(int32(places))
	}

	bid, err := fixedpoint.FromDecimal(lo)
	if err != nil {
		return fixedpoint.Value{}, fixedpoint.Value{}, fmt.Errorf("bid: %w", err)
	}
	ask, err := fixedpoint.FromDecimal(hi)
	if err != nil {
		return fixedpoint.Value{}, fixedpoint.Value{}, fmt.Errorf("ask: %w", err)
	}
	bid, ask = bid.Normalize(), ask.Normalize()
	places = max(places, bid.Precision, ask.Precision)
	if bid, err = bid.Rescale(places); err != nil {
		return fixedpoint.Value{}, fixedpoint.Value{}, fmt.Errorf("bid: %w", err)
	}
	if ask, err = ask.Rescale(places); err != nil {
		return fixedpoint.Value{}, fixedpoint.Value{}, fmt.Errorf("ask: %w", err)
	}
	return bid, ask, nil
}
