package enrich

import (
	"optioncatalog/internal/fixedpoint"
	"optioncatalog/internal/models"
)

// Moneyness of an option against its underlying spot.
type Moneyness uint8

const (
	Unknown Moneyness = iota
	ATM
	ITM
	OTM
)

func (m Moneyness) String() string {
	switch m {
	case ATM:
		return "ATM"
	case ITM:
		return "ITM"
	case OTM:
		return "OTM"
	}
	return "UNKNOWN"
}

func (m Moneyness) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// Classify compares strike with spot at their common precision. Calls are
// ITM below spot, puts above. Anything that is not a call or put, or a pair
// whose common precision overflows, is Unknown.
func Classify(strike, spot fixedpoint.Value, kind models.OptionKind) Moneyness {
	if kind != models.Call && kind != models.Put {
		return Unknown
	}
	strike, spot, err := fixedpoint.Align(strike, spot)
	if err != nil {
		return Unknown
	}
	c, err := fixedpoint.Compare(strike, spot)
	if err != nil {
		return Unknown
	}
	switch {
	case c == 0:
		return ATM
	case (c < 0) == (kind == models.Call):
		return ITM
	default:
		return OTM
	}
}
