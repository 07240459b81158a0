package models

import (
	"errors"
	"fmt"
	"strings"

	"optioncatalog/internal/fixedpoint"
)

// ContractKind discriminates the contract metadata variants.
type ContractKind uint8

const (
	KindOption ContractKind = iota + 1
	KindFuture
	// KindIndex describes a spot instrument that options and futures
	// reference as their underlying.
	KindIndex
)

func (k ContractKind) String() string {
	switch k {
	case KindOption:
		return "Option"
	case KindFuture:
		return "Future"
	case KindIndex:
		return "Index"
	}
	return "Unknown"
}

// ParseContractKind is the inverse of ContractKind.String.
func ParseContractKind(s string) (ContractKind, error) {
	switch s {
	case "Option":
		return KindOption, nil
	case "Future":
		return KindFuture, nil
	case "Index":
		return KindIndex, nil
	}
	return 0, fmt.Errorf("unknown contract kind %q", s)
}

// OptionKind is call or put. Zero means not an option.
type OptionKind uint8

const (
	Call OptionKind = iota + 1
	Put
)

func (k OptionKind) String() string {
	switch k {
	case Call:
		return "CALL"
	case Put:
		return "PUT"
	}
	return ""
}

// ParseOptionKind accepts CALL, PUT and the exchange codes CE and PE.
func ParseOptionKind(s string) (OptionKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CALL", "CE", "C":
		return Call, nil
	case "PUT", "PE", "P":
		return Put, nil
	case "":
		return 0, nil
	}
	return 0, fmt.Errorf("unknown option kind %q", s)
}

// AssetClass of the underlying.
type AssetClass string

const (
	Equity    AssetClass = "EQUITY"
	Commodity AssetClass = "COMMODITY"
	Index     AssetClass = "INDEX"
)

var (
	// ErrInvalidContract is returned by Contract.Validate.
	ErrInvalidContract = errors.New("invalid contract")
)

// Contract is static metadata for one instrument. Strike and OptionKind are
// only meaningful for KindOption. Underlying is a name reference resolved by
// lookup, never an ownership link.
type Contract struct {
	Instrument     InstrumentID
	Kind           ContractKind
	RawSymbol      string
	AssetClass     AssetClass
	Venue          string
	Underlying     string
	ActivationNs   int64
	ExpirationNs   int64
	Strike         fixedpoint.Value
	OptionKind     OptionKind
	Currency       string
	PricePrecision uint8
	PriceIncrement fixedpoint.Value
	Multiplier     fixedpoint.Value
	LotSize        fixedpoint.Value
	TsEvent        int64
	TsInit         int64
}

// Validate checks the structural invariants of the metadata record.
func (c Contract) Validate() error {
	if _, err := ParseInstrumentID(string(c.Instrument)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidContract, err)
	}
	switch c.Kind {
	case KindOption:
		if c.OptionKind != Call && c.OptionKind != Put {
			return fmt.Errorf("%w: %s: option kind missing", ErrInvalidContract, c.Instrument)
		}
		if c.Strike.IsNegative() || c.Strike.IsZero() {
			return fmt.Errorf("%w: %s: strike must be positive", ErrInvalidContract, c.Instrument)
		}
	case KindFuture, KindIndex:
		if c.OptionKind != 0 {
			return fmt.Errorf("%w: %s: option kind on %s", ErrInvalidContract, c.Instrument, c.Kind)
		}
	default:
		return fmt.Errorf("%w: %s: unknown kind %d", ErrInvalidContract, c.Instrument, c.Kind)
	}
	if c.ActivationNs >= c.ExpirationNs {
		return fmt.Errorf("%w: %s: activation %d not before expiration %d",
			ErrInvalidContract, c.Instrument, c.ActivationNs, c.ExpirationNs)
	}
	return nil
}

// UnderlyingID resolves the underlying reference to an instrument id. Bare
// symbols inherit the contract's venue.
func (c Contract) UnderlyingID() (InstrumentID, error) {
	if c.Underlying == "" {
		return "", fmt.Errorf("%w: %s has no underlying", ErrInvalidInstrument, c.Instrument)
	}
	if strings.Contains(c.Underlying, ".") {
		return ParseInstrumentID(c.Underlying)
	}
	venue := c.Venue
	if venue == "" {
		venue = c.Instrument.Venue()
	}
	return NewInstrumentID(c.Underlying, venue)
}
