// Package fixedpoint stores decimal prices and quantities as an integer
// mantissa plus a decimal precision, and encodes them into a constant-width
// 16 byte block for columnar storage.
//
// Layout of an encoded value:
//
//	bytes 0..7   mantissa, little-endian two's complement int64
//	byte  8      precision (digits after the decimal point)
//	bytes 9..15  zero padding
package fixedpoint

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// Width is the size of an encoded value in bytes.
	Width = 16
	// MaxPrecision is the largest precision the format accepts.
	MaxPrecision uint8 = 18
	// MaxMantissa bounds the mantissa magnitude to 18 decimal digits.
	MaxMantissa int64 = 999_999_999_999_999_999

	precisionOffset = 8
	paddingOffset   = 9
)

var (
	ErrPrecisionOverflow = errors.New("precision overflow")
	ErrMantissaOverflow  = errors.New("mantissa overflow")
	ErrCorruptPadding    = errors.New("non-zero padding")
	ErrInvalidLength     = errors.New("invalid encoded length")
)

// EncodingError reports a value that could not be encoded or decoded. It is
// scoped to a single value so batch callers can skip the record and go on.
type EncodingError struct {
	Op        string
	Mantissa  int64
	Precision uint8
	Err       error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("fixedpoint %s (mantissa=%d precision=%d): %v", e.Op, e.Mantissa, e.Precision, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// FixedBytes is the encoded form of a decimal value.
type FixedBytes [Width]byte

// Encode packs mantissa and precision into the fixed 16 byte layout.
func Encode(mantissa int64, precision uint8) (FixedBytes, error) {
	var out FixedBytes
	if err := check(mantissa, precision); err != nil {
		return out, &EncodingError{Op: "encode", Mantissa: mantissa, Precision: precision, Err: err}
	}
	binary.LittleEndian.PutUint64(out[:precisionOffset], uint64(mantissa))
	out[precisionOffset] = precision
	return out, nil
}

// Decode is the exact inverse of Encode.
func Decode(b FixedBytes) (int64, uint8, error) {
	mantissa := int64(binary.LittleEndian.Uint64(b[:precisionOffset]))
	precision := b[precisionOffset]
	for _, p := range b[paddingOffset:] {
		if p != 0 {
			return 0, 0, &EncodingError{Op: "decode", Mantissa: mantissa, Precision: precision, Err: ErrCorruptPadding}
		}
	}
	if err := check(mantissa, precision); err != nil {
		return 0, 0, &EncodingError{Op: "decode", Mantissa: mantissa, Precision: precision, Err: err}
	}
	return mantissa, precision, nil
}

// DecodeBytes decodes a slice that must be exactly Width bytes long.
func DecodeBytes(b []byte) (int64, uint8, error) {
	if len(b) != Width {
		return 0, 0, &EncodingError{Op: "decode", Err: fmt.Errorf("%w: got %d bytes", ErrInvalidLength, len(b))}
	}
	var fb FixedBytes
	copy(fb[:], b)
	return Decode(fb)
}

func check(mantissa int64, precision uint8) error {
	if precision > MaxPrecision {
		return ErrPrecisionOverflow
	}
	if mantissa > MaxMantissa || mantissa < -MaxMantissa {
		return ErrMantissaOverflow
	}
	return nil
}
