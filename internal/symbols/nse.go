package symbols

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"optioncatalog/internal/fixedpoint"
	"optioncatalog/internal/models"
)

// DefaultVenue for contracts built without an explicit venue.
const DefaultVenue = "NSE"

// lotSizes per underlying as of 2024.
var lotSizes = map[string]int64{
	"NIFTY":      25,
	"BANKNIFTY":  15,
	"FINNIFTY":   25,
	"MIDCPNIFTY": 50,
	"SENSEX":     10,
	"BANKEX":     15,

	"CRUDEOIL":   100,
	"NATURALGAS": 1250,
	"GOLD":       100,
	"SILVER":     30,
	"COPPER":     1000,
	"ZINC":       1000,
	"LEAD":       1000,
	"ALUMINIUM":  1000,
	"NICKEL":     250,
}

var commodities = map[string]struct{}{
	"CRUDEOIL": {}, "NATURALGAS": {}, "GOLD": {}, "SILVER": {}, "COPPER": {},
	"ZINC": {}, "LEAD": {}, "ALUMINIUM": {}, "NICKEL": {},
}

var indexUnderlyings = map[string]struct{}{
	"NIFTY": {}, "BANKNIFTY": {}, "FINNIFTY": {}, "MIDCPNIFTY": {}, "SENSEX": {}, "BANKEX": {},
}

// LotSize returns the exchange lot size for underlying, 1 if unknown.
func LotSize(underlying string) int64 {
	if n, ok := lotSizes[strings.ToUpper(underlying)]; ok {
		return n
	}
	return 1
}

// AssetClassOf classifies an underlying. Indices and stocks are equity.
func AssetClassOf(underlying string) models.AssetClass {
	if _, ok := commodities[strings.ToUpper(underlying)]; ok {
		return models.Commodity
	}
	return models.Equity
}

// IsIndex reports whether underlying is a traded index.
func IsIndex(underlying string) bool {
	_, ok := indexUnderlyings[strings.ToUpper(underlying)]
	return ok
}

// ErrBadSymbol is returned when a raw option symbol cannot be parsed.
var ErrBadSymbol = errors.New("unrecognised option symbol")

var optionSymbol = regexp.MustCompile(`^([A-Z&-]+?)(\d{2}[A-Z]{3}\d{2})(\d+(?:\.\d+)?)(CE|PE)$`)

// OptionSymbol is a parsed {UNDERLYING}{DDMMMYY}{STRIKE}{CE|PE} symbol.
type OptionSymbol struct {
	Underlying string
	Expiry     time.Time
	Strike     fixedpoint.Value
	Kind       models.OptionKind
}

// ParseOptionSymbol splits an NSE option symbol such as
// BANKNIFTY28OCT2548000CE.
func ParseOptionSymbol(sym string) (OptionSymbol, error) {
	m := optionSymbol.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(sym)))
	if m == nil {
		return OptionSymbol{}, fmt.Errorf("%w: %q", ErrBadSymbol, sym)
	}
	expiry, err := time.Parse("02Jan06", m[2])
	if err != nil {
		return OptionSymbol{}, fmt.Errorf("%w: %q: %v", ErrBadSymbol, sym, err)
	}
	strike, err := fixedpoint.Parse(m[3])
	if err != nil {
		return OptionSymbol{}, fmt.Errorf("%w: %q: %v", ErrBadSymbol, sym, err)
	}
	kind, _ := models.ParseOptionKind(m[4])
	return OptionSymbol{Underlying: m[1], Expiry: expiry.UTC(), Strike: strike, Kind: kind}, nil
}

// Format renders the symbol back in exchange form.
func (o OptionSymbol) Format() string {
	code := "CE"
	if o.Kind == models.Put {
		code = "PE"
	}
	return o.Underlying + strings.ToUpper(o.Expiry.Format("02Jan06")) + o.Strike.Normalize().String() + code
}
