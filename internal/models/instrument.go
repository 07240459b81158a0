package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidInstrument marks identifiers that are not SYMBOL.VENUE.
var ErrInvalidInstrument = errors.New("invalid instrument id")

// InstrumentID is an uppercase SYMBOL.VENUE identifier. The venue is the
// text after the last dot, so symbols may themselves contain dots.
type InstrumentID string

// ParseInstrumentID normalises s to uppercase and checks that both symbol
// and venue are present.
func ParseInstrumentID(s string) (InstrumentID, error) {
	id := strings.ToUpper(strings.TrimSpace(s))
	i := strings.LastIndexByte(id, '.')
	if i <= 0 || i == len(id)-1 {
		return "", fmt.Errorf("%w: %q", ErrInvalidInstrument, s)
	}
	if strings.ContainsAny(id, " /\\*") {
		return "", fmt.Errorf("%w: %q", ErrInvalidInstrument, s)
	}
	return InstrumentID(id), nil
}

// MustInstrumentID is ParseInstrumentID for literals known to be valid.
func MustInstrumentID(s string) InstrumentID {
	id, err := ParseInstrumentID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// NewInstrumentID joins a symbol and venue.
func NewInstrumentID(symbol, venue string) (InstrumentID, error) {
	return ParseInstrumentID(symbol + "." + venue)
}

// Symbol returns the part before the venue.
func (id InstrumentID) Symbol() string {
	s := string(id)
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		return s[:i]
	}
	return s
}

// Venue returns the part after the last dot.
func (id InstrumentID) Venue() string {
	s := string(id)
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		return s[i+1:]
	}
	return ""
}

func (id InstrumentID) String() string { return string(id) }
