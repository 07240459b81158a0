package expiry

import (
	"errors"
	"testing"
	"time"

	"optioncatalog/internal/calendar"
)

func engine(t *testing.T, holidays calendar.HolidaySet) *Engine {
	t.Helper()
	cal, err := calendar.New(holidays)
	if err != nil {
		t.Fatalf("calendar.New: %v", err)
	}
	e, err := NewNSE(cal)
	if err != nil {
		t.Fatalf("NewNSE: %v", err)
	}
	return e
}

func TestMonthlyLastThursday(t *testing.T) {
	e := engine(t, nil)
	tests := []struct {
		year  int
		month time.Month
		want  time.Time
	}{
		{2024, time.January, calendar.Date(2024, time.January, 25)},
		{2024, time.February, calendar.Date(2024, time.February, 29)},
		{2024, time.October, calendar.Date(2024, time.October, 31)},
		{2024, time.December, calendar.Date(2024, time.December, 26)},
	}
	for _, tt := range tests {
		got, err := e.Monthly(tt.year, tt.month)
		if err != nil {
			t.Fatalf("Monthly(%d, %s): %v", tt.year, tt.month, err)
		}
		if !got.Equal(tt.want) {
			t.Errorf("Monthly(%d, %s) = %s, want %s", tt.year, tt.month, got, tt.want)
		}
	}
}

func TestMonthlyAdjustsBackward(t *testing.T) {
	unadjusted := calendar.Date(2024, time.January, 25)
	e := engine(t, calendar.NewHolidaySet(calendar.Holiday{Date: unadjusted, Reason: "closure"}))
	got, err := e.Monthly(2024, time.January)
	if err != nil {
		t.Fatalf("Monthly: %v", err)
	}
	if !got.Before(unadjusted) || !e.Calendar().IsTradingDay(got) {
		t.Fatalf("Monthly = %s, want a trading day before %s", got, unadjusted)
	}
	if !got.Equal(calendar.Date(2024, time.January, 24)) {
		t.Fatalf("Monthly = %s, want 2024-01-24", got)
	}

	// Consecutive holidays step back repeatedly.
	set := calendar.NewHolidaySet(
		calendar.Holiday{Date: unadjusted},
		calendar.Holiday{Date: calendar.Date(2024, time.January, 24)},
		calendar.Holiday{Date: calendar.Date(2024, time.January, 23)},
	)
	e = engine(t, set)
	got, err = e.Monthly(2024, time.January)
	if err != nil {
		t.Fatalf("Monthly: %v", err)
	}
	if !got.Equal(calendar.Date(2024, time.January, 22)) {
		t.Fatalf("Monthly = %s, want 2024-01-22", got)
	}
}

func TestMonthlyClosedMonth(t *testing.T) {
	set := make(calendar.HolidaySet)
	for d := calendar.Date(2024, time.February, 1); d.Before(calendar.Date(2024, time.March, 1)); d = d.AddDate(0, 0, 1) {
		set.Add(d, "closure")
	}
	e := engine(t, set)
	if _, err := e.Monthly(2024, time.February); !errors.Is(err, calendar.ErrCalendarMisuse) {
		t.Fatalf("err = %v, want ErrCalendarMisuse", err)
	}
	if e.IsMonthlyExpiryDay(calendar.Date(2024, time.February, 29)) {
		t.Fatal("closed month has no expiry day")
	}
}

func TestWeekly(t *testing.T) {
	e := engine(t, nil)
	for _, ref := range []time.Time{
		calendar.Date(2024, time.January, 15),
		calendar.Date(2024, time.January, 18),
		calendar.Date(2024, time.January, 21),
	} {
		got, err := e.Weekly(ref)
		if err != nil {
			t.Fatalf("Weekly: %v", err)
		}
		if !got.Equal(calendar.Date(2024, time.January, 18)) {
			t.Errorf("Weekly(%s) = %s, want 2024-01-18", ref, got)
		}
	}

	nse, err := calendar.NewNSE()
	if err != nil {
		t.Fatalf("NewNSE: %v", err)
	}
	e, err = NewNSE(nse)
	if err != nil {
		t.Fatalf("NewNSE: %v", err)
	}
	// Ram Navami fell on Thursday 2023-03-30; expiry moves to Wednesday.
	got, err := e.Weekly(calendar.Date(2023, time.March, 27))
	if err != nil {
		t.Fatalf("Weekly: %v", err)
	}
	if !got.Equal(calendar.Date(2023, time.March, 29)) {
		t.Fatalf("Weekly = %s, want 2023-03-29", got)
	}
}

func TestWeeklyExpiries(t *testing.T) {
	e := engine(t, nil)
	got, err := e.WeeklyExpiries(2024, time.January)
	if err != nil {
		t.Fatalf("WeeklyExpiries: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("len = %d, want 4", len(got))
	}
	for _, d := range got {
		if d.Weekday() != time.Thursday {
			t.Errorf("%s is not a Thursday", d)
		}
	}
}

func TestMonthlyExpiries(t *testing.T) {
	e := engine(t, nil)
	got, err := e.MonthlyExpiries(2024)
	if err != nil {
		t.Fatalf("MonthlyExpiries: %v", err)
	}
	if len(got) != 12 {
		t.Fatalf("len = %d", len(got))
	}
	if !got[time.December].Equal(calendar.Date(2024, time.December, 26)) {
		t.Fatalf("December = %s", got[time.December])
	}
	if !e.IsMonthlyExpiryDay(calendar.Date(2024, time.January, 25)) || e.IsMonthlyExpiryDay(calendar.Date(2024, time.January, 24)) {
		t.Fatal("IsMonthlyExpiryDay mismatch")
	}
}

func TestDTE(t *testing.T) {
	e := engine(t, nil)
	asOf := calendar.Date(2024, time.January, 15)
	expiry := calendar.Date(2024, time.January, 25)
	want := 0
	for d := asOf; d.Before(expiry); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			want++
		}
	}
	if got := e.DTE(expiry, asOf); got != want {
		t.Fatalf("DTE = %d, want %d", got, want)
	}
	if got := e.DTE(asOf, expiry); got != -want {
		t.Fatalf("expired DTE = %d, want %d", got, -want)
	}
}

func TestNewRejectsWeekendExpiry(t *testing.T) {
	cal, err := calendar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := New(cal, time.Saturday); !errors.Is(err, calendar.ErrCalendarMisuse) {
		t.Fatalf("err = %v", err)
	}
}

func TestClassifyBucketPartition(t *testing.T) {
	for dte := -5; dte <= 100; dte++ {
		var want Bucket
		switch {
		case dte <= 7:
			want = CurrentWeek
		case dte >= 8 && dte <= 14:
			want = NextWeek
		case dte >= 15 && dte <= 30:
			want = CurrentMonth
		default:
			want = NextMonth
		}
		got := ClassifyBucket(dte)
		if got != want {
			t.Fatalf("ClassifyBucket(%d) = %s, want %s", dte, got, want)
		}
		matches := 0
		for _, b := range Buckets {
			if b == got {
				matches++
			}
		}
		if matches != 1 {
			t.Fatalf("ClassifyBucket(%d) matched %d buckets", dte, matches)
		}
	}
}

func TestBucketCodes(t *testing.T) {
	for _, b := range Buckets {
		got, ok := ParseBucket(b.Code())
		if !ok || got != b {
			t.Errorf("ParseBucket(%q) = %v, %v", b.Code(), got, ok)
		}
	}
	if CurrentWeek.Description() == "Unknown bucket" {
		t.Error("missing description")
	}
}
