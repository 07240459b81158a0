package calendar

import (
	"errors"
	"math/rand"
	"testing"
	"time"
)

func weekendOnly(t *testing.T) *Calendar {
	t.Helper()
	c, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func nse(t *testing.T) *Calendar {
	t.Helper()
	c, err := NewNSE()
	if err != nil {
		t.Fatalf("NewNSE: %v", err)
	}
	return c
}

func TestIsTradingDay(t *testing.T) {
	c := nse(t)
	tests := []struct {
		date time.Time
		want bool
	}{
		{Date(2024, time.January, 26), false}, // Republic Day
		{Date(2024, time.January, 15), true},
		{Date(2024, time.January, 20), false}, // Saturday
		{Date(2024, time.January, 21), false}, // Sunday
		{time.Date(2024, time.January, 25, 15, 30, 0, 0, time.UTC), true},
	}
	for _, tt := range tests {
		if got := c.IsTradingDay(tt.date); got != tt.want {
			t.Errorf("IsTradingDay(%s) = %v, want %v", tt.date.Format("2006-01-02"), got, tt.want)
		}
	}
}

// countWeekdays walks the interval one day at a time, independent of the
// week arithmetic TradingDaysBetween uses.
func countWeekdays(start, end time.Time) int {
	n := 0
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			n++
		}
	}
	return n
}

func TestTradingDaysBetweenWeekendCalendar(t *testing.T) {
	c := weekendOnly(t)
	asOf := Date(2024, time.January, 15)
	expiry := Date(2024, time.January, 25)
	want := countWeekdays(asOf, expiry)
	if got := c.TradingDaysBetween(asOf, expiry); got != want {
		t.Fatalf("TradingDaysBetween = %d, want %d", got, want)
	}
	if got := c.TradingDaysBetween(expiry, asOf); got != -want {
		t.Fatalf("reversed TradingDaysBetween = %d, want %d", got, -want)
	}
	if got := c.TradingDaysBetween(asOf, asOf); got != 0 {
		t.Fatalf("empty interval = %d, want 0", got)
	}
}

func TestTradingDaysBetweenSkipsHolidays(t *testing.T) {
	c := nse(t)
	// Jan 26 2024 is a Friday holiday.
	got := c.TradingDaysBetween(Date(2024, time.January, 22), Date(2024, time.January, 29))
	if got != 4 {
		t.Fatalf("TradingDaysBetween = %d, want 4", got)
	}
}

func TestTradingDaysBetweenAdditive(t *testing.T) {
	c := nse(t)
	rng := rand.New(rand.NewSource(7))
	base := Date(2017, time.December, 1)
	for i := 0; i < 200; i++ {
		days := []int{rng.Intn(2800), rng.Intn(2800), rng.Intn(2800)}
		if days[0] > days[1] {
			days[0], days[1] = days[1], days[0]
		}
		if days[1] > days[2] {
			days[1], days[2] = days[2], days[1]
		}
		if days[0] > days[1] {
			days[0], days[1] = days[1], days[0]
		}
		a, b, cc := base.AddDate(0, 0, days[0]), base.AddDate(0, 0, days[1]), base.AddDate(0, 0, days[2])
		if c.TradingDaysBetween(a, b)+c.TradingDaysBetween(b, cc) != c.TradingDaysBetween(a, cc) {
			t.Fatalf("additivity broken for %s, %s, %s", a, b, cc)
		}
	}
}

func TestTradingDaysBetweenMatchesDayWalk(t *testing.T) {
	c := nse(t)
	start := Date(2023, time.October, 3)
	end := Date(2024, time.February, 14)
	want := 0
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		if c.IsTradingDay(d) {
			want++
		}
	}
	if got := c.TradingDaysBetween(start, end); got != want {
		t.Fatalf("TradingDaysBetween = %d, day walk = %d", got, want)
	}
}

func TestNextTradingDay(t *testing.T) {
	c := nse(t)
	got := c.NextTradingDay(Date(2024, time.January, 26))
	if !got.Equal(Date(2024, time.January, 29)) {
		t.Fatalf("NextTradingDay = %s, want 2024-01-29", got)
	}

	start := Date(2018, time.January, 1)
	for i := 0; i < 2500; i++ {
		d := start.AddDate(0, 0, i)
		next := c.NextTradingDay(d)
		if !next.After(d) || !c.IsTradingDay(next) {
			t.Fatalf("NextTradingDay(%s) = %s", d, next)
		}
	}
}

func TestPreviousTradingDay(t *testing.T) {
	c := nse(t)
	got := c.PreviousTradingDay(Date(2024, time.January, 26))
	if !got.Equal(Date(2024, time.January, 25)) {
		t.Fatalf("PreviousTradingDay = %s, want 2024-01-25", got)
	}
}

func TestTradingDaysInMonth(t *testing.T) {
	c := nse(t)
	days := c.TradingDaysInMonth(2024, time.January)
	// 23 weekdays in January 2024, minus Republic Day.
	if len(days) != 22 {
		t.Fatalf("len = %d, want 22", len(days))
	}
}

func TestCustomWeekend(t *testing.T) {
	c, err := New(nil, WithWeekend(time.Friday, time.Saturday))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.IsTradingDay(Date(2024, time.January, 19)) {
		t.Error("Friday should be a weekend day")
	}
	if !c.IsTradingDay(Date(2024, time.January, 21)) {
		t.Error("Sunday should be a trading day")
	}
}

func TestNewRejectsMisuse(t *testing.T) {
	all := []time.Weekday{time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday}
	if _, err := New(nil, WithWeekend(all...)); !errors.Is(err, ErrCalendarMisuse) {
		t.Errorf("full weekend: err = %v", err)
	}
	if _, err := New(nil, WithWeekend(time.Sunday, time.Sunday)); !errors.Is(err, ErrCalendarMisuse) {
		t.Errorf("duplicate weekend: err = %v", err)
	}
	if _, err := New(nil, WithWeekend(time.Weekday(9))); !errors.Is(err, ErrCalendarMisuse) {
		t.Errorf("invalid weekday: err = %v", err)
	}

	long := make(HolidaySet)
	for d := Date(2024, time.January, 1); d.Before(Date(2025, time.March, 1)); d = d.AddDate(0, 0, 1) {
		long.Add(d, "closure")
	}
	if _, err := New(long); !errors.Is(err, ErrCalendarMisuse) {
		t.Errorf("unbounded holiday run: err = %v", err)
	}

	month := make(HolidaySet)
	for d := Date(2024, time.February, 1); d.Before(Date(2024, time.March, 1)); d = d.AddDate(0, 0, 1) {
		month.Add(d, "closure")
	}
	if _, err := New(month); err != nil {
		t.Errorf("a closed month is a bounded run: %v", err)
	}
}

func TestParseHolidays(t *testing.T) {
	data := []byte(`holidays:
  - date: 2024-01-26
    reason: Republic Day
  - date: "2024-03-08"
    reason: Maha Shivaratri
`)
	set, err := ParseHolidays(data)
	if err != nil {
		t.Fatalf("ParseHolidays: %v", err)
	}
	if r, ok := set.Reason(Date(2024, time.January, 26)); !ok || r != "Republic Day" {
		t.Fatalf("Reason = %q, %v", r, ok)
	}
	if len(set) != 2 {
		t.Fatalf("len = %d, want 2", len(set))
	}

	if _, err := ParseHolidays([]byte("holidays:\n  - date: 26/01/2024\n")); !errors.Is(err, ErrCalendarMisuse) {
		t.Fatalf("expected ErrCalendarMisuse, got %v", err)
	}
}

func TestParseWeekdays(t *testing.T) {
	days, err := ParseWeekdays([]string{"Saturday", "sun"})
	if err != nil {
		t.Fatalf("ParseWeekdays: %v", err)
	}
	if days[0] != time.Saturday || days[1] != time.Sunday {
		t.Fatalf("days = %v", days)
	}
	if _, err := ParseWeekday("someday"); err == nil {
		t.Fatal("expected error")
	}
}
