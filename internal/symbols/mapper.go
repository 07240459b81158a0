package symbols

import (
	"strings"

	"optioncatalog/internal/models"
)

// Canonical converts provider specific underlying names to the symbol used
// in instrument ids. Names are uppercased and stripped of spaces.
// Currently supported venues: nse, bse, mcx.
func Canonical(venue, sym string) string {
	sym = strings.ToUpper(strings.TrimSpace(sym))
	switch strings.ToLower(venue) {
	case "nse":
		switch sym {
		case "NIFTY 50", "NIFTY50":
			sym = "NIFTY"
		case "NIFTY BANK":
			sym = "BANKNIFTY"
		case "NIFTY FIN SERVICE", "NIFTY FINANCIAL SERVICES":
			sym = "FINNIFTY"
		case "NIFTY MID SELECT", "NIFTY MIDCAP SELECT":
			sym = "MIDCPNIFTY"
		}
	case "bse":
		switch sym {
		case "S&P BSE SENSEX", "BSE SENSEX":
			sym = "SENSEX"
		case "S&P BSE BANKEX", "BSE BANKEX":
			sym = "BANKEX"
		}
	case "mcx":
		if sym == "ALUMINUM" {
			sym = "ALUMINIUM"
		}
		// mini contracts carry a trailing M
		if base := strings.TrimSuffix(sym, "M"); base != sym {
			if _, ok := lotSizes[base]; ok {
				sym = base
			}
		}
	default:
		// others already use the desired format
	}
	return strings.ReplaceAll(sym, " ", "")
}

// Instrument builds a normalised instrument id from a raw symbol and venue.
func Instrument(venue, sym string) (models.InstrumentID, error) {
	return models.NewInstrumentID(Canonical(venue, sym), venue)
}

// IndexSymbol returns the spot index symbol an option on underlying prices
// against, or underlying itself when it is not an index.
func IndexSymbol(underlying string) string {
	u := strings.ToUpper(underlying)
	if _, ok := indexUnderlyings[u]; ok {
		return u + "-INDEX"
	}
	return u
}
