package models

import (
	"errors"
	"testing"

	"optioncatalog/internal/fixedpoint"
)

func TestParseInstrumentID(t *testing.T) {
	tests := []struct {
		in      string
		want    InstrumentID
		wantErr bool
	}{
		{"nifty24jan21400ce.nse", "NIFTY24JAN21400CE.NSE", false},
		{" NIFTY-INDEX.NSE ", "NIFTY-INDEX.NSE", false},
		{"NIFTY", "", true},
		{".NSE", "", true},
		{"NIFTY.", "", true},
		{"NI FTY.NSE", "", true},
	}
	for _, tt := range tests {
		got, err := ParseInstrumentID(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidInstrument) {
				t.Errorf("ParseInstrumentID(%q) err = %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseInstrumentID(%q) = %q, %v", tt.in, got, err)
		}
	}
	id := MustInstrumentID("BRK.B.NYSE")
	if id.Symbol() != "BRK.B" || id.Venue() != "NYSE" {
		t.Fatalf("split = %q %q", id.Symbol(), id.Venue())
	}
}

func TestOpenInterestSeries(t *testing.T) {
	obs := []OpenInterest{{OI: 100}, {OI: 150}, {OI: 120}}
	got := OpenInterestSeries(obs)
	want := []int64{100, 50, -30}
	for i := range want {
		if got[i].COI != want[i] {
			t.Errorf("COI[%d] = %d, want %d", i, got[i].COI, want[i])
		}
	}
	if obs[1].COI != 0 {
		t.Error("input was modified")
	}
}

func TestContractValidate(t *testing.T) {
	c := Contract{
		Instrument:   "NIFTY25JAN2421400CE.NSE",
		Kind:         KindOption,
		OptionKind:   Call,
		Strike:       fixedpoint.MustParse("21400.00"),
		ActivationNs: 1,
		ExpirationNs: 2,
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	c.ActivationNs = 2
	if err := c.Validate(); !errors.Is(err, ErrInvalidContract) {
		t.Fatalf("err = %v", err)
	}
	c.ActivationNs = 1
	c.OptionKind = 0
	if err := c.Validate(); !errors.Is(err, ErrInvalidContract) {
		t.Fatalf("err = %v", err)
	}
}

func TestUnderlyingID(t *testing.T) {
	c := Contract{Instrument: "NIFTY25JAN2421400CE.NSE", Underlying: "NIFTY-INDEX"}
	got, err := c.UnderlyingID()
	if err != nil || got != "NIFTY-INDEX.NSE" {
		t.Fatalf("UnderlyingID = %q, %v", got, err)
	}
	c.Underlying = "nifty-index.bse"
	got, err = c.UnderlyingID()
	if err != nil || got != "NIFTY-INDEX.BSE" {
		t.Fatalf("UnderlyingID = %q, %v", got, err)
	}
}

func TestQuoteMid(t *testing.T) {
	q := Quote{Bid: fixedpoint.MustParse("100.05"), Ask: fixedpoint.MustParse("100.1")}
	mid, err := q.Mid()
	if err != nil {
		t.Fatalf("Mid: %v", err)
	}
	if !mid.Equal(fixedpoint.New(100075, 3)) {
		t.Fatalf("Mid = %s (%d/%d)", mid, mid.Mantissa, mid.Precision)
	}

	q = Quote{Bid: fixedpoint.MustParse("21400.00"), Ask: fixedpoint.MustParse("21400.00")}
	if mid, err = q.Mid(); err != nil || !mid.Equal(fixedpoint.New(2140000, 2)) {
		t.Fatalf("Mid = %s (%d/%d), %v", mid, mid.Mantissa, mid.Precision, err)
	}
}

func TestValidateBar(t *testing.T) {
	good := Bar{
		Open: fixedpoint.MustParse("100.00"), High: fixedpoint.MustParse("101.0"),
		Low: fixedpoint.MustParse("99.5"), Close: fixedpoint.MustParse("100.25"),
		Volume: fixedpoint.MustParse("0"),
	}
	if issues := ValidateBar(good); len(issues) != 0 {
		t.Fatalf("issues = %v", issues)
	}
	bad := good
	bad.Close = fixedpoint.MustParse("101.5")
	bad.Volume = fixedpoint.MustParse("-1")
	issues := ValidateBar(bad)
	if len(issues) != 2 {
		t.Fatalf("issues = %v", issues)
	}
	if !bad.Close.Equal(fixedpoint.MustParse("101.5")) {
		t.Fatal("bar was modified")
	}
}

func TestParseOptionKind(t *testing.T) {
	for in, want := range map[string]OptionKind{"CE": Call, "put": Put, "CALL": Call, "PE": Put} {
		got, err := ParseOptionKind(in)
		if err != nil || got != want {
			t.Errorf("ParseOptionKind(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseOptionKind("X"); err == nil {
		t.Error("expected error")
	}
}
