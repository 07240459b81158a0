package enrich

import (
	"context"
	"errors"
	"testing"
	"time"

	"optioncatalog/internal/calendar"
	"optioncatalog/internal/catalog"
	"optioncatalog/internal/expiry"
	"optioncatalog/internal/fixedpoint"
	"optioncatalog/internal/models"
	"optioncatalog/internal/storage"
	"optioncatalog/internal/symbols"
)

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		strike, spot string
		kind         models.OptionKind
		want         Moneyness
	}{
		{"21400", "21400", models.Call, ATM},
		{"21300", "21400", models.Call, ITM},
		{"21300", "21400", models.Put, OTM},
		{"21500", "21400", models.Call, OTM},
		{"21500", "21400", models.Put, ITM},
		{"21400.00", "21400", models.Put, ATM},
		{"21300.00", "21400.000", models.Call, ITM},
		{"21399.95", "21400.0", models.Put, OTM},
		{"21400", "21400", 0, Unknown},
	}
	for _, tc := range cases {
		got := Classify(fixedpoint.MustParse(tc.strike), fixedpoint.MustParse(tc.spot), tc.kind)
		if got != tc.want {
			t.Errorf("Classify(%s, %s, %s) = %s, want %s", tc.strike, tc.spot, tc.kind, got, tc.want)
		}
	}
}

func TestClassifyAgainstQuoteMid(t *testing.T) {
	spot := models.Quote{Bid: fixedpoint.MustParse("21400.00"), Ask: fixedpoint.MustParse("21400.00")}
	mid, err := spot.Mid()
	if err != nil {
		t.Fatal(err)
	}
	strike := fixedpoint.MustParse("21300.00")
	if got := Classify(strike, mid, models.Call); got != ITM {
		t.Fatalf("Classify(%s, %s, CALL) = %s, want ITM", strike, mid, got)
	}
	if got := Classify(fixedpoint.MustParse("21400"), mid, models.Call); got != ATM {
		t.Fatalf("Classify(21400, %s, CALL) = %s, want ATM", mid, got)
	}
	if got := Classify(fixedpoint.New(1, 18), fixedpoint.MustParse("999999999999999999"), models.Call); got != Unknown {
		t.Fatalf("overflowing pair = %s, want UNKNOWN", got)
	}
}

type fixture struct {
	cat    *catalog.Catalog
	engine *expiry.Engine
	option models.Contract
	index  models.Contract
	t0     int64
}

func setup(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	cat, err := catalog.New(ctx, storage.NewStore(storage.NewMemoryBlob()))
	if err != nil {
		t.Fatal(err)
	}
	cal, err := calendar.New(calendar.NewHolidaySet())
	if err != nil {
		t.Fatal(err)
	}
	engine, err := expiry.NewNSE(cal)
	if err != nil {
		t.Fatal(err)
	}

	option, err := symbols.NewOptionFromSymbol("NIFTY25JAN2421500CE", "NSE")
	if err != nil {
		t.Fatal(err)
	}
	index, err := symbols.NewIndex("NIFTY", "NSE")
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range []models.Contract{option, index} {
		if err := cat.Contracts.Put(ctx, c); err != nil {
			t.Fatal(err)
		}
	}

	t0 := time.Date(2024, 1, 15, 4, 0, 0, 0, time.UTC).UnixNano()
	minute := time.Minute.Nanoseconds()
	var bars []models.Bar
	var quotes []models.Quote
	for i := int64(0); i < 3; i++ {
		ts := t0 + i*minute
		p := fixedpoint.MustParse("120.50")
		bars = append(bars, models.Bar{Instrument: option.Instrument, Open: p, High: p, Low: p, Close: p, Volume: fixedpoint.New(50, 0), TsEvent: ts, TsInit: ts})
		quotes = append(quotes, models.Quote{Instrument: option.Instrument, Bid: p, Ask: p, BidSize: fixedpoint.Unit(), AskSize: fixedpoint.Unit(), TsEvent: ts, TsInit: ts})
	}
	if _, err := cat.Bars.Write(ctx, option.Instrument, bars); err != nil {
		t.Fatal(err)
	}
	if _, err := cat.Quotes.Write(ctx, option.Instrument, quotes); err != nil {
		t.Fatal(err)
	}
	oi := []models.OpenInterest{{Instrument: option.Instrument, Variant: models.OIOption, OI: 1000, COI: 50, TsEvent: t0 + minute, TsInit: t0 + minute}}
	if _, err := cat.OpenInterest.Write(ctx, option.Instrument, oi); err != nil {
		t.Fatal(err)
	}

	// The spot only starts quoting at the second minute.
	spot := fixedpoint.MustParse("21450.00")
	spotQuote := models.Quote{Instrument: index.Instrument, Bid: spot, Ask: spot, BidSize: fixedpoint.Unit(), AskSize: fixedpoint.Unit(), TsEvent: t0 + minute - 1, TsInit: t0 + minute}
	if _, err := cat.Quotes.Write(ctx, index.Instrument, []models.Quote{spotQuote}); err != nil {
		t.Fatal(err)
	}
	return fixture{cat: cat, engine: engine, option: option, index: index, t0: t0}
}

func TestEnrichQuery(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	e := New(f.cat, f.engine)

	rows, err := e.Query(ctx, "NIFTY25JAN24*", f.t0, f.t0+time.Hour.Nanoseconds(), calendar.Date(2024, 1, 15))
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	wantDTE := 0
	for d := calendar.Date(2024, 1, 15); d.Before(calendar.Date(2024, 1, 25)); d = d.AddDate(0, 0, 1) {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			wantDTE++
		}
	}
	for i, r := range rows {
		if r.Quote == nil || r.Contract == nil {
			t.Fatalf("row %d: missing joined quote or contract", i)
		}
		if !r.HasExpiry || r.DTE != wantDTE || r.Bucket != expiry.ClassifyBucket(wantDTE) {
			t.Errorf("row %d: dte %d bucket %s, want %d", i, r.DTE, r.Bucket, wantDTE)
		}
	}
	if rows[1].OI == nil || rows[1].OI.OI != 1000 || rows[0].OI != nil {
		t.Errorf("open interest joined on the wrong rows")
	}

	if rows[0].Moneyness != Unknown || rows[0].Spot != nil {
		t.Errorf("row 0 precedes every spot quote, got %s", rows[0].Moneyness)
	}
	for _, r := range rows[1:] {
		if r.Moneyness != OTM {
			t.Errorf("ts %d: moneyness %s, want OTM", r.TsEvent, r.Moneyness)
		}
	}
}

func TestEnrichSpotLookback(t *testing.T) {
	f := setup(t)
	e := New(f.cat, f.engine, WithSpotLookback(30*time.Second))
	rows, err := e.Query(context.Background(), f.option.Instrument.String(), f.t0, f.t0+time.Hour.Nanoseconds(), time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if rows[1].Moneyness != OTM {
		t.Errorf("fresh spot should resolve, got %s", rows[1].Moneyness)
	}
	if rows[2].Moneyness != Unknown {
		t.Errorf("spot older than the lookback must be ignored, got %s", rows[2].Moneyness)
	}
}

func TestEnrichMissingContract(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	other := models.MustInstrumentID("FINNIFTY.NSE")
	p := fixedpoint.MustParse("1")
	if _, err := f.cat.Bars.Write(ctx, other, []models.Bar{{Instrument: other, Open: p, High: p, Low: p, Close: p, Volume: p, TsEvent: f.t0}}); err != nil {
		t.Fatal(err)
	}
	rows, err := New(f.cat, f.engine).Query(ctx, other.String(), f.t0, f.t0, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Contract != nil || rows[0].HasExpiry || rows[0].Moneyness != Unknown {
		t.Fatalf("unexpected row %+v", rows)
	}
}

func TestUnderlyingResolution(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	e := New(f.cat, f.engine)
	u, err := e.Underlying(ctx, f.option.Instrument)
	if err != nil {
		t.Fatalf("Underlying: %v", err)
	}
	if u.Instrument != f.index.Instrument {
		t.Fatalf("underlying %s, want %s", u.Instrument, f.index.Instrument)
	}

	dangling, err := symbols.NewOptionFromSymbol("BANKNIFTY25JAN2448000PE", "NSE")
	if err != nil {
		t.Fatal(err)
	}
	if err := f.cat.Contracts.Put(ctx, dangling); err != nil {
		t.Fatal(err)
	}
	if err := f.cat.Contracts.Reload(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Underlying(ctx, dangling.Instrument); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected not found for dangling underlying, got %v", err)
	}
}

type stubModel struct{ seen PricingInput }

func (m *stubModel) Greeks(_ context.Context, in PricingInput) (Greeks, error) {
	m.seen = in
	return Greeks{Delta: 0.4}, nil
}

func TestPricingInputs(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	e := New(f.cat, f.engine)

	if _, err := e.PricingInputs(ctx, f.option.Instrument, f.t0); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected insufficient data before the first spot quote, got %v", err)
	}

	model := &stubModel{}
	g, err := e.Price(ctx, model, f.option.Instrument, f.t0+2*time.Minute.Nanoseconds())
	if err != nil {
		t.Fatalf("Price: %v", err)
	}
	if g.Delta != 0.4 {
		t.Errorf("delta %v", g.Delta)
	}
	if model.seen.Underlying.Instrument != f.index.Instrument || model.seen.Option.TsEvent != f.t0+2*time.Minute.Nanoseconds() {
		t.Errorf("unexpected inputs %+v", model.seen)
	}

	if _, err := e.PricingInputs(ctx, f.index.Instrument, f.t0); err == nil {
		t.Fatal("expected error for a non-option")
	}
	if _, err := e.PricingInputs(ctx, models.MustInstrumentID("NOPE.NSE"), f.t0); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
