package quotes

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"optioncatalog/config"
	"optioncatalog/internal/fixedpoint"
	"optioncatalog/internal/models"
)

// ErrNegativeSpread is returned when an estimator yields a spread below zero.
var ErrNegativeSpread = errors.New("negative spread")

// Estimator turns a trailing window of bars into a spread. The last bar of
// the window is the one being quoted. Implementations must not keep state
// between calls.
type Estimator interface {
	Estimate(window []models.Bar) (fixedpoint.Value, error)
}

// EstimatorFunc adapts a function to Estimator.
type EstimatorFunc func(window []models.Bar) (fixedpoint.Value, error)

func (f EstimatorFunc) Estimate(window []models.Bar) (fixedpoint.Value, error) { return f(window) }

// FixedSpread quotes a constant spread.
type FixedSpread struct {
	Spread fixedpoint.Value
}

func (f FixedSpread) Estimate([]models.Bar) (fixedpoint.Value, error) {
	return f.Spread, nil
}

// RangeFraction quotes a fraction of the mean high-low range of the window.
type RangeFraction struct {
	Fraction decimal.Decimal
}

func (r RangeFraction) Estimate(window []models.Bar) (fixedpoint.Value, error) {
	if len(window) == 0 {
		return fixedpoint.Value{}, nil
	}
	sum := decimal.Zero
	for _, b := range window {
		sum = sum.Add(b.High.Decimal().Sub(b.Low.Decimal()))
	}
	mean := sum.Div(decimal.NewFromInt(int64(len(window))))
	return bounded(mean.Mul(r.Fraction), r.places(window))
}

// extraPlaces is how many digits past the inputs a non-terminating mean
// keeps.
const extraPlaces = 4

func (r RangeFraction) places(window []models.Bar) int32 {
	var p int32
	for _, b := range window {
		p = max(p, int32(b.High.Precision), int32(b.Low.Precision))
	}
	if e := -r.Fraction.Exponent(); e > 0 {
		p += e
	}
	return min(p+extraPlaces, int32(fixedpoint.MaxPrecision))
}

// bounded rounds d to at most places digits, giving up digits while the
// mantissa does not fit.
func bounded(d decimal.Decimal, places int32) (fixedpoint.Value, error) {
	for ; ; places-- {
		v, err := fixedpoint.FromDecimal(d.Round(places))
		if err == nil {
			return v.Normalize(), nil
		}
		if !errors.Is(err, fixedpoint.ErrMantissaOverflow) || places == 0 {
			return fixedpoint.Value{}, err
		}
	}
}

// Policy selects how bid and ask are placed around the close. The zero
// Policy is ZeroSpread.
type Policy struct {
	Estimator Estimator
	// Window is the number of bars, current included, handed to the
	// estimator. Values below one mean one.
	Window int
	// RoundToTick floors the bid and ceils the ask to the quoting
	// precision, widening the spread. Off, both sit exactly half the
	// spread from the close.
	RoundToTick bool
}

// ZeroSpread quotes bid = ask = close.
func ZeroSpread() Policy { return Policy{} }

// WithEstimator quotes around the close using e over a trailing window.
func WithEstimator(e Estimator, window int) Policy {
	return Policy{Estimator: e, Window: window}
}

func (p Policy) String() string {
	var name string
	switch e := p.Estimator.(type) {
	case nil:
		return "zero"
	case FixedSpread:
		name = "fixed(" + e.Spread.String() + ")"
	case RangeFraction:
		name = fmt.Sprintf("range(%s,%d)", e.Fraction, p.Window)
	default:
		name = fmt.Sprintf("custom(%d)", p.Window)
	}
	if p.RoundToTick {
		name += "+tick"
	}
	return name
}

// PolicyFromConfig builds the policy named in the synthesis section.
func PolicyFromConfig(cfg config.SynthesisConfig) (Policy, error) {
	switch strings.ToLower(cfg.Policy) {
	case "", "zero":
		return ZeroSpread(), nil
	case "fixed":
		v, err := fixedpoint.Parse(cfg.FixedSpread)
		if err != nil {
			return Policy{}, fmt.Errorf("fixed_spread: %w", err)
		}
		if v.IsNegative() {
			return Policy{}, fmt.Errorf("fixed_spread: %w", ErrNegativeSpread)
		}
		p := WithEstimator(FixedSpread{Spread: v}, 1)
		p.RoundToTick = cfg.RoundToTick
		return p, nil
	case "range":
		f, err := decimal.NewFromString(cfg.RangeFraction)
		if err != nil {
			return Policy{}, fmt.Errorf("range_fraction: %w", err)
		}
		if f.IsNegative() {
			return Policy{}, fmt.Errorf("range_fraction: %w", ErrNegativeSpread)
		}
		p := WithEstimator(RangeFraction{Fraction: f}, cfg.Window)
		p.RoundToTick = cfg.RoundToTick
		return p, nil
	}
	return Policy{}, fmt.Errorf("unknown spread policy %q", cfg.Policy)
}
