package fixedpoint

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

var (
	ErrPrecisionMismatch = errors.New("precision mismatch")
	ErrInexactRescale    = errors.New("rescale would drop non-zero digits")
)

var pow10 = [...]int64{
	1, 10, 100, 1_000, 10_000, 100_000, 1_000_000, 10_000_000, 100_000_000,
	1_000_000_000, 10_000_000_000, 100_000_000_000, 1_000_000_000_000,
	10_000_000_000_000, 100_000_000_000_000, 1_000_000_000_000_000,
	10_000_000_000_000_000, 100_000_000_000_000_000, 1_000_000_000_000_000_000,
}

// Value is a decimal number equal to Mantissa / 10^Precision.
type Value struct {
	Mantissa  int64
	Precision uint8
}

// New returns a Value without validating it. Use Validate or Encode to check bounds.
func New(mantissa int64, precision uint8) Value {
	return Value{Mantissa: mantissa, Precision: precision}
}

// Unit is the quantity 1 at precision 0.
func Unit() Value { return Value{Mantissa: 1} }

// Validate reports whether the value fits the fixed 16 byte format.
func (v Value) Validate() error {
	if err := check(v.Mantissa, v.Precision); err != nil {
		return &EncodingError{Op: "validate", Mantissa: v.Mantissa, Precision: v.Precision, Err: err}
	}
	return nil
}

// Equal compares mantissa and precision field by field. Values with different
// precisions are never equal; align them first.
func (v Value) Equal(o Value) bool {
	return v.Mantissa == o.Mantissa && v.Precision == o.Precision
}

func (v Value) IsZero() bool     { return v.Mantissa == 0 }
func (v Value) IsNegative() bool { return v.Mantissa < 0 }

// Rescale changes the precision. Scaling up fails when the mantissa would
// overflow; scaling down fails unless the dropped digits are all zero.
func (v Value) Rescale(precision uint8) (Value, error) {
	if precision > MaxPrecision {
		return Value{}, &EncodingError{Op: "rescale", Mantissa: v.Mantissa, Precision: precision, Err: ErrPrecisionOverflow}
	}
	switch {
	case precision == v.Precision:
		return v, nil
	case precision > v.Precision:
		factor := pow10[precision-v.Precision]
		limit := MaxMantissa / factor
		if v.Mantissa > limit || v.Mantissa < -limit {
			return Value{}, &EncodingError{Op: "rescale", Mantissa: v.Mantissa, Precision: precision, Err: ErrMantissaOverflow}
		}
		return Value{Mantissa: v.Mantissa * factor, Precision: precision}, nil
	default:
		factor := pow10[v.Precision-precision]
		if v.Mantissa%factor != 0 {
			return Value{}, fmt.Errorf("rescale %s to precision %d: %w", v, precision, ErrInexactRescale)
		}
		return Value{Mantissa: v.Mantissa / factor, Precision: precision}, nil
	}
}

// Normalize strips trailing zero digits so that equal numbers share one representation.
func (v Value) Normalize() Value {
	if v.Mantissa == 0 {
		return Value{}
	}
	for v.Precision > 0 && v.Mantissa%10 == 0 {
		v.Mantissa /= 10
		v.Precision--
	}
	return v
}

// Align rescales both values to the larger of their precisions.
func Align(a, b Value) (Value, Value, error) {
	p := a.Precision
	if b.Precision > p {
		p = b.Precision
	}
	ra, err := a.Rescale(p)
	if err != nil {
		return Value{}, Value{}, err
	}
	rb, err := b.Rescale(p)
	if err != nil {
		return Value{}, Value{}, err
	}
	return ra, rb, nil
}

// Compare returns -1, 0 or 1. Both values must already share a precision.
func Compare(a, b Value) (int, error) {
	if a.Precision != b.Precision {
		return 0, fmt.Errorf("compare %s with %s: %w", a, b, ErrPrecisionMismatch)
	}
	switch {
	case a.Mantissa < b.Mantissa:
		return -1, nil
	case a.Mantissa > b.Mantissa:
		return 1, nil
	}
	return 0, nil
}

// Decimal converts to an arbitrary precision decimal for arithmetic.
func (v Value) Decimal() decimal.Decimal {
	return decimal.New(v.Mantissa, -int32(v.Precision))
}

// FromDecimal converts d into a Value, keeping every significant digit.
func FromDecimal(d decimal.Decimal) (Value, error) {
	coef := new(big.Int).Set(d.Coefficient())
	exp := d.Exponent()
	if exp > 0 {
		coef.Mul(coef, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil))
		exp = 0
	}
	ten := big.NewInt(10)
	mod := new(big.Int)
	for -exp > int32(MaxPrecision) {
		q, r := new(big.Int).QuoRem(coef, ten, mod)
		if r.Sign() != 0 {
			return Value{}, &EncodingError{Op: "from_decimal", Precision: uint8(min32(-exp, 255)), Err: ErrPrecisionOverflow}
		}
		coef = q
		exp++
	}
	if !coef.IsInt64() {
		return Value{}, &EncodingError{Op: "from_decimal", Precision: uint8(-exp), Err: ErrMantissaOverflow}
	}
	v := Value{Mantissa: coef.Int64(), Precision: uint8(-exp)}
	if err := v.Validate(); err != nil {
		return Value{}, err
	}
	return v, nil
}

// Parse reads a plain decimal string such as "21400.05".
func Parse(s string) (Value, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Value{}, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return FromDecimal(d)
}

// MustParse is Parse for constants and tests.
func MustParse(s string) Value {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func (v Value) String() string {
	return v.Decimal().StringFixed(int32(v.Precision))
}

// Fixed encodes the value.
func (v Value) Fixed() (FixedBytes, error) {
	return Encode(v.Mantissa, v.Precision)
}

// FromFixed decodes a value.
func FromFixed(b FixedBytes) (Value, error) {
	m, p, err := Decode(b)
	if err != nil {
		return Value{}, err
	}
	return Value{Mantissa: m, Precision: p}, nil
}

func min32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}
