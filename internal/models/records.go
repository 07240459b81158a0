package models

import (
	"github.com/shopspring/decimal"

	"optioncatalog/internal/fixedpoint"
)

var half = decimal.New(5, -1)

// Bar is a price aggregate over one interval. Timestamps are UTC epoch
// nanoseconds; TsEvent drives ordering inside the catalog.
type Bar struct {
	Instrument InstrumentID
	Open       fixedpoint.Value
	High       fixedpoint.Value
	Low        fixedpoint.Value
	Close      fixedpoint.Value
	Volume     fixedpoint.Value
	TsEvent    int64
	TsInit     int64
}

// Quote is a top of book snapshot.
type Quote struct {
	Instrument InstrumentID
	Bid        fixedpoint.Value
	Ask        fixedpoint.Value
	BidSize    fixedpoint.Value
	AskSize    fixedpoint.Value
	TsEvent    int64
	TsInit     int64
}

// Mid returns (bid+ask)/2 at the larger input precision, with one more
// digit only when the halving needs it.
func (q Quote) Mid() (fixedpoint.Value, error) {
	bid, ask, err := fixedpoint.Align(q.Bid, q.Ask)
	if err != nil {
		return fixedpoint.Value{}, err
	}
	mid, err := fixedpoint.FromDecimal(bid.Decimal().Add(ask.Decimal()).Mul(half))
	if err != nil {
		return fixedpoint.Value{}, err
	}
	mid = mid.Normalize()
	if mid.Precision < bid.Precision {
		return mid.Rescale(bid.Precision)
	}
	return mid, nil
}

// OIVariant tags which contract family an open interest observation is for.
type OIVariant uint8

const (
	OIOption OIVariant = iota + 1
	OIFuture
)

func (v OIVariant) String() string {
	switch v {
	case OIOption:
		return "OptionOI"
	case OIFuture:
		return "FutureOI"
	}
	return "Unknown"
}

// ParseOIVariant is the inverse of OIVariant.String.
func ParseOIVariant(s string) (OIVariant, bool) {
	switch s {
	case "OptionOI":
		return OIOption, true
	case "FutureOI":
		return OIFuture, true
	}
	return 0, false
}

// OpenInterest is one open interest observation. COI is the change from the
// previous observation of the same instrument.
type OpenInterest struct {
	Instrument InstrumentID
	Variant    OIVariant
	OI         int64
	COI        int64
	TsEvent    int64
	TsInit     int64
}

// OpenInterestSeries fills COI for a time ordered run of observations of one
// instrument. The first observation is measured against zero.
func OpenInterestSeries(obs []OpenInterest) []OpenInterest {
	out := make([]OpenInterest, len(obs))
	var prev int64
	for i, o := range obs {
		o.COI = o.OI - prev
		prev = o.OI
		out[i] = o
	}
	return out
}
