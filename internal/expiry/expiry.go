// Package expiry computes exchange expiry dates from a trading calendar and
// classifies contracts by their remaining trading days.
package expiry

import (
	"fmt"
	"time"

	"optioncatalog/internal/calendar"
)

// Engine applies one exchange's expiry rule on top of a calendar.
type Engine struct {
	cal     *calendar.Calendar
	weekday time.Weekday
}

// New returns an engine expiring contracts on weekday. Weekend weekdays are
// rejected since no expiry could ever fall on them unadjusted.
func New(cal *calendar.Calendar, weekday time.Weekday) (*Engine, error) {
	if cal == nil {
		return nil, fmt.Errorf("%w: nil calendar", calendar.ErrCalendarMisuse)
	}
	if weekday < time.Sunday || weekday > time.Saturday {
		return nil, fmt.Errorf("%w: invalid expiry weekday %d", calendar.ErrCalendarMisuse, weekday)
	}
	if cal.IsWeekend(nextWeekday(calendar.Date(2000, time.January, 1), weekday)) {
		return nil, fmt.Errorf("%w: expiry weekday %s is a weekend day", calendar.ErrCalendarMisuse, weekday)
	}
	return &Engine{cal: cal, weekday: weekday}, nil
}

// NewNSE returns the Thursday expiry rule used by NSE derivatives.
func NewNSE(cal *calendar.Calendar) (*Engine, error) {
	return New(cal, time.Thursday)
}

// Calendar returns the calendar the engine counts on.
func (e *Engine) Calendar() *calendar.Calendar { return e.cal }

// Weekday returns the designated expiry weekday.
func (e *Engine) Weekday() time.Weekday { return e.weekday }

func nextWeekday(d time.Time, w time.Weekday) time.Time {
	return d.AddDate(0, 0, (int(w)-int(d.Weekday())+7)%7)
}

// adjust steps backward from d until a trading day is found. The result
// must not be before floor.
func (e *Engine) adjust(d, floor time.Time) (time.Time, error) {
	unadjusted := d
	for !e.cal.IsTradingDay(d) {
		d = d.AddDate(0, 0, -1)
		if d.Before(floor) {
			return time.Time{}, fmt.Errorf("%w: no trading day on or before %s after %s",
				calendar.ErrCalendarMisuse, unadjusted.Format("2006-01-02"), floor.Format("2006-01-02"))
		}
	}
	return d, nil
}

// Monthly returns the last designated weekday of the month, moved back to
// the nearest earlier trading day when it is not a session. A month with no
// trading day on or before that weekday is a calendar misuse.
func (e *Engine) Monthly(year int, month time.Month) (time.Time, error) {
	first := calendar.Date(year, month, 1)
	last := first.AddDate(0, 1, -1)
	back := (int(last.Weekday()) - int(e.weekday) + 7) % 7
	return e.adjust(last.AddDate(0, 0, -back), first)
}

// Weekly returns the designated weekday of the Monday-based week containing
// ref, moved back to an earlier trading day of the same week if needed.
func (e *Engine) Weekly(ref time.Time) (time.Time, error) {
	d := calendar.Truncate(ref)
	monday := d.AddDate(0, 0, -((int(d.Weekday()) + 6) % 7))
	offset := (int(e.weekday) + 6) % 7
	return e.adjust(monday.AddDate(0, 0, offset), monday)
}

// WeeklyExpiries lists every designated weekday of the month, each adjusted
// as Weekly does.
func (e *Engine) WeeklyExpiries(year int, month time.Month) ([]time.Time, error) {
	first := calendar.Date(year, month, 1)
	next := first.AddDate(0, 1, 0)
	var out []time.Time
	for d := nextWeekday(first, e.weekday); d.Before(next); d = d.AddDate(0, 0, 7) {
		exp, err := e.Weekly(d)
		if err != nil {
			return nil, err
		}
		out = append(out, exp)
	}
	return out, nil
}

// MonthlyExpiries maps every month of year to its monthly expiry.
func (e *Engine) MonthlyExpiries(year int) (map[time.Month]time.Time, error) {
	out := make(map[time.Month]time.Time, 12)
	for m := time.January; m <= time.December; m++ {
		exp, err := e.Monthly(year, m)
		if err != nil {
			return nil, err
		}
		out[m] = exp
	}
	return out, nil
}

// IsMonthlyExpiryDay reports whether date is the monthly expiry of its month.
func (e *Engine) IsMonthlyExpiryDay(date time.Time) bool {
	d := calendar.Truncate(date)
	exp, err := e.Monthly(d.Year(), d.Month())
	return err == nil && exp.Equal(d)
}

// DTE counts trading days from asOf up to expiry. A negative result means
// the contract has already expired; it is returned as is.
func (e *Engine) DTE(expiry, asOf time.Time) int {
	return e.cal.TradingDaysBetween(asOf, expiry)
}
