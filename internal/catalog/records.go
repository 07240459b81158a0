package catalog

import (
	"fmt"

	"optioncatalog/internal/models"
)

// Row layouts. Decimal columns are 16-byte fixed-width cells.

type barRow struct {
	Instrument string `parquet:"name=instrument_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Open       string `parquet:"name=open, type=FIXED_LEN_BYTE_ARRAY, length=16"`
	High       string `parquet:"name=high, type=FIXED_LEN_BYTE_ARRAY, length=16"`
	Low        string `parquet:"name=low, type=FIXED_LEN_BYTE_ARRAY, length=16"`
	Close      string `parquet:"name=close, type=FIXED_LEN_BYTE_ARRAY, length=16"`
	Volume     string `parquet:"name=volume, type=FIXED_LEN_BYTE_ARRAY, length=16"`
	TsEvent    int64  `parquet:"name=ts_event, type=INT64"`
	TsInit     int64  `parquet:"name=ts_init, type=INT64"`
}

type quoteRow struct {
	Instrument string `parquet:"name=instrument_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Bid        string `parquet:"name=bid_price, type=FIXED_LEN_BYTE_ARRAY, length=16"`
	Ask        string `parquet:"name=ask_price, type=FIXED_LEN_BYTE_ARRAY, length=16"`
	BidSize    string `parquet:"name=bid_size, type=FIXED_LEN_BYTE_ARRAY, length=16"`
	AskSize    string `parquet:"name=ask_size, type=FIXED_LEN_BYTE_ARRAY, length=16"`
	TsEvent    int64  `parquet:"name=ts_event, type=INT64"`
	TsInit     int64  `parquet:"name=ts_init, type=INT64"`
}

type contractRow struct {
	Instrument     string `parquet:"name=instrument_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Kind           string `parquet:"name=kind, type=BYTE_ARRAY, convertedtype=UTF8"`
	RawSymbol      string `parquet:"name=raw_symbol, type=BYTE_ARRAY, convertedtype=UTF8"`
	AssetClass     string `parquet:"name=asset_class, type=BYTE_ARRAY, convertedtype=UTF8"`
	Venue          string `parquet:"name=venue, type=BYTE_ARRAY, convertedtype=UTF8"`
	Underlying     string `parquet:"name=underlying, type=BYTE_ARRAY, convertedtype=UTF8"`
	ActivationNs   int64  `parquet:"name=activation_ns, type=INT64"`
	ExpirationNs   int64  `parquet:"name=expiration_ns, type=INT64"`
	Strike         string `parquet:"name=strike_price, type=FIXED_LEN_BYTE_ARRAY, length=16"`
	OptionKind     string `parquet:"name=option_kind, type=BYTE_ARRAY, convertedtype=UTF8"`
	Currency       string `parquet:"name=currency, type=BYTE_ARRAY, convertedtype=UTF8"`
	PricePrecision int32  `parquet:"name=price_precision, type=INT32"`
	PriceIncrement string `parquet:"name=price_increment, type=FIXED_LEN_BYTE_ARRAY, length=16"`
	Multiplier     string `parquet:"name=multiplier, type=FIXED_LEN_BYTE_ARRAY, length=16"`
	LotSize        string `parquet:"name=lot_size, type=FIXED_LEN_BYTE_ARRAY, length=16"`
	TsEvent        int64  `parquet:"name=ts_event, type=INT64"`
	TsInit         int64  `parquet:"name=ts_init, type=INT64"`
}

// oiRow keeps the variant as a type tag so option and future open interest
// share one tier.
type oiRow struct {
	Instrument string `parquet:"name=instrument_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Type       string `parquet:"name=type, type=BYTE_ARRAY, convertedtype=UTF8"`
	OI         int64  `parquet:"name=oi, type=INT64"`
	COI        int64  `parquet:"name=coi, type=INT64"`
	TsEvent    int64  `parquet:"name=ts_event, type=INT64"`
	TsInit     int64  `parquet:"name=ts_init, type=INT64"`
}

func barToRow(b models.Bar) (barRow, error) {
	row := barRow{Instrument: b.Instrument.String(), TsEvent: b.TsEvent, TsInit: b.TsInit}
	var err error
	if row.Open, err = fixed("open", b.Open); err != nil {
		return row, err
	}
	if row.High, err = fixed("high", b.High); err != nil {
		return row, err
	}
	if row.Low, err = fixed("low", b.Low); err != nil {
		return row, err
	}
	if row.Close, err = fixed("close", b.Close); err != nil {
		return row, err
	}
	if row.Volume, err = fixed("volume", b.Volume); err != nil {
		return row, err
	}
	return row, nil
}

func rowToBar(r barRow) (models.Bar, error) {
	b := models.Bar{Instrument: models.InstrumentID(r.Instrument), TsEvent: r.TsEvent, TsInit: r.TsInit}
	var err error
	if b.Open, err = unfixed("open", r.Open); err != nil {
		return b, err
	}
	if b.High, err = unfixed("high", r.High); err != nil {
		return b, err
	}
	if b.Low, err = unfixed("low", r.Low); err != nil {
		return b, err
	}
	if b.Close, err = unfixed("close", r.Close); err != nil {
		return b, err
	}
	if b.Volume, err = unfixed("volume", r.Volume); err != nil {
		return b, err
	}
	return b, nil
}

func quoteToRow(q models.Quote) (quoteRow, error) {
	row := quoteRow{Instrument: q.Instrument.String(), TsEvent: q.TsEvent, TsInit: q.TsInit}
	var err error
	if row.Bid, err = fixed("bid_price", q.Bid); err != nil {
		return row, err
	}
	if row.Ask, err = fixed("ask_price", q.Ask); err != nil {
		return row, err
	}
	if row.BidSize, err = fixed("bid_size", q.BidSize); err != nil {
		return row, err
	}
	if row.AskSize, err = fixed("ask_size", q.AskSize); err != nil {
		return row, err
	}
	return row, nil
}

func rowToQuote(r quoteRow) (models.Quote, error) {
	q := models.Quote{Instrument: models.InstrumentID(r.Instrument), TsEvent: r.TsEvent, TsInit: r.TsInit}
	var err error
	if q.Bid, err = unfixed("bid_price", r.Bid); err != nil {
		return q, err
	}
	if q.Ask, err = unfixed("ask_price", r.Ask); err != nil {
		return q, err
	}
	if q.BidSize, err = unfixed("bid_size", r.BidSize); err != nil {
		return q, err
	}
	if q.AskSize, err = unfixed("ask_size", r.AskSize); err != nil {
		return q, err
	}
	return q, nil
}

func contractToRow(c models.Contract) (contractRow, error) {
	if err := c.Validate(); err != nil {
		return contractRow{}, err
	}
	row := contractRow{
		Instrument:     c.Instrument.String(),
		Kind:           c.Kind.String(),
		RawSymbol:      c.RawSymbol,
		AssetClass:     string(c.AssetClass),
		Venue:          c.Venue,
		Underlying:     c.Underlying,
		ActivationNs:   c.ActivationNs,
		ExpirationNs:   c.ExpirationNs,
		Currency:       c.Currency,
		PricePrecision: int32(c.PricePrecision),
		TsEvent:        c.TsEvent,
		TsInit:         c.TsInit,
	}
	if c.OptionKind != 0 {
		row.OptionKind = c.OptionKind.String()
	}
	var err error
	if row.Strike, err = fixed("strike_price", c.Strike); err != nil {
		return row, err
	}
	if row.PriceIncrement, err = fixed("price_increment", c.PriceIncrement); err != nil {
		return row, err
	}
	if row.Multiplier, err = fixed("multiplier", c.Multiplier); err != nil {
		return row, err
	}
	if row.LotSize, err = fixed("lot_size", c.LotSize); err != nil {
		return row, err
	}
	return row, nil
}

func rowToContract(r contractRow) (models.Contract, error) {
	c := models.Contract{
		Instrument:     models.InstrumentID(r.Instrument),
		RawSymbol:      r.RawSymbol,
		AssetClass:     models.AssetClass(r.AssetClass),
		Venue:          r.Venue,
		Underlying:     r.Underlying,
		ActivationNs:   r.ActivationNs,
		ExpirationNs:   r.ExpirationNs,
		Currency:       r.Currency,
		PricePrecision: uint8(r.PricePrecision),
		TsEvent:        r.TsEvent,
		TsInit:         r.TsInit,
	}
	var err error
	if c.Kind, err = models.ParseContractKind(r.Kind); err != nil {
		return c, err
	}
	if c.OptionKind, err = models.ParseOptionKind(r.OptionKind); err != nil {
		return c, err
	}
	if c.Strike, err = unfixed("strike_price", r.Strike); err != nil {
		return c, err
	}
	if c.PriceIncrement, err = unfixed("price_increment", r.PriceIncrement); err != nil {
		return c, err
	}
	if c.Multiplier, err = unfixed("multiplier", r.Multiplier); err != nil {
		return c, err
	}
	if c.LotSize, err = unfixed("lot_size", r.LotSize); err != nil {
		return c, err
	}
	return c, nil
}

func oiToRow(o models.OpenInterest) (oiRow, error) {
	if o.Variant != models.OIOption && o.Variant != models.OIFuture {
		return oiRow{}, fmt.Errorf("unknown open interest variant %d", o.Variant)
	}
	return oiRow{
		Instrument: o.Instrument.String(),
		Type:       o.Variant.String(),
		OI:         o.OI,
		COI:        o.COI,
		TsEvent:    o.TsEvent,
		TsInit:     o.TsInit,
	}, nil
}

func rowToOI(r oiRow) (models.OpenInterest, error) {
	v, ok := models.ParseOIVariant(r.Type)
	if !ok {
		return models.OpenInterest{}, fmt.Errorf("unknown open interest type %q", r.Type)
	}
	return models.OpenInterest{
		Instrument: models.InstrumentID(r.Instrument),
		Variant:    v,
		OI:         r.OI,
		COI:        r.COI,
		TsEvent:    r.TsEvent,
		TsInit:     r.TsInit,
	}, nil
}
