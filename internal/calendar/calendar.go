// Package calendar answers trading-day questions for an exchange: whether a
// date is a session, how many sessions lie between two dates and which
// session comes next.
package calendar

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// MaxNonTradingRun is the longest stretch of consecutive non-trading days a
// calendar accepts. Longer stretches are treated as malformed input.
const MaxNonTradingRun = 366

// ErrCalendarMisuse marks holiday or weekend input that would make calendar
// arithmetic unbounded or meaningless.
var ErrCalendarMisuse = errors.New("calendar misuse")

const secondsPerDay = 24 * 60 * 60

// Date returns the UTC midnight of the given calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Truncate drops the time of day, keeping the calendar date t has in its own location.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// FromUnixNano returns the UTC calendar date of an epoch nanosecond timestamp.
func FromUnixNano(ns int64) time.Time {
	return Truncate(time.Unix(0, ns).UTC())
}

func daysBetween(start, end time.Time) int {
	return int((end.Unix() - start.Unix()) / secondsPerDay)
}

// Calendar is immutable after construction and safe for concurrent use.
type Calendar struct {
	holidays       HolidaySet
	weekend        [7]bool
	tradingPerWeek int
}

type options struct {
	weekend []time.Weekday
}

// Option customises a Calendar.
type Option func(*options)

// WithWeekend replaces the default Saturday/Sunday weekend.
func WithWeekend(days ...time.Weekday) Option {
	return func(o *options) {
		o.weekend = append([]time.Weekday(nil), days...)
	}
}

// New builds a calendar from a holiday set. An empty or nil set gives a pure
// weekend calendar.
func New(holidays HolidaySet, opts ...Option) (*Calendar, error) {
	o := options{weekend: []time.Weekday{time.Saturday, time.Sunday}}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Calendar{holidays: make(HolidaySet, len(holidays))}
	for _, d := range o.weekend {
		if d < time.Sunday || d > time.Saturday {
			return nil, fmt.Errorf("%w: invalid weekday %d", ErrCalendarMisuse, int(d))
		}
		if c.weekend[d] {
			return nil, fmt.Errorf("%w: duplicate weekend day %s", ErrCalendarMisuse, d)
		}
		c.weekend[d] = true
	}
	c.tradingPerWeek = 7 - len(o.weekend)
	if c.tradingPerWeek == 0 {
		return nil, fmt.Errorf("%w: weekend covers every day of the week", ErrCalendarMisuse)
	}
	for d, reason := range holidays {
		c.holidays[Truncate(d)] = reason
	}
	if run := c.longestNonTradingRun(); run > MaxNonTradingRun {
		return nil, fmt.Errorf("%w: %d consecutive non-trading days exceeds %d", ErrCalendarMisuse, run, MaxNonTradingRun)
	}
	return c, nil
}

// NewNSE returns the National Stock Exchange of India calendar with the
// built-in holiday table and a Saturday/Sunday weekend.
func NewNSE() (*Calendar, error) {
	return New(NSEHolidays())
}

// longestNonTradingRun walks the sorted holidays and measures how far each
// run of holidays extends through adjacent weekend days.
func (c *Calendar) longestNonTradingRun() int {
	dates := c.holidays.Dates()
	longest := 0
	for i := 0; i < len(dates); {
		runStart := dates[i]
		for d := runStart.AddDate(0, 0, -1); c.weekend[d.Weekday()]; d = d.AddDate(0, 0, -1) {
			runStart = d
		}
		runEnd := dates[i]
		i++
		for i < len(dates) && c.onlyWeekendBetween(runEnd, dates[i]) {
			runEnd = dates[i]
			i++
		}
		for d := runEnd.AddDate(0, 0, 1); c.weekend[d.Weekday()]; d = d.AddDate(0, 0, 1) {
			runEnd = d
		}
		if n := daysBetween(runStart, runEnd) + 1; n > longest {
			longest = n
		}
	}
	return longest
}

func (c *Calendar) onlyWeekendBetween(a, b time.Time) bool {
	if daysBetween(a, b) > 7 {
		return false
	}
	for d := a.AddDate(0, 0, 1); d.Before(b); d = d.AddDate(0, 0, 1) {
		if !c.weekend[d.Weekday()] {
			return false
		}
	}
	return true
}

// IsWeekend reports whether the weekday of date is a weekend day.
func (c *Calendar) IsWeekend(date time.Time) bool {
	return c.weekend[date.Weekday()]
}

// IsHoliday reports whether date is in the holiday set.
func (c *Calendar) IsHoliday(date time.Time) bool {
	return c.holidays.Contains(date)
}

// IsTradingDay is false for weekend days and holidays.
func (c *Calendar) IsTradingDay(date time.Time) bool {
	d := Truncate(date)
	return !c.weekend[d.Weekday()] && !c.holidays.Contains(d)
}

// TradingDaysBetween counts trading days in [start, end). When end is before
// start the count of [end, start) is returned negated.
func (c *Calendar) TradingDaysBetween(start, end time.Time) int {
	s, e := Truncate(start), Truncate(end)
	if e.Before(s) {
		return -c.TradingDaysBetween(e, s)
	}
	days := daysBetween(s, e)
	full := days / 7
	count := full * c.tradingPerWeek
	for d := s.AddDate(0, 0, full*7); d.Before(e); d = d.AddDate(0, 0, 1) {
		if !c.weekend[d.Weekday()] {
			count++
		}
	}
	for h := range c.holidays {
		if !h.Before(s) && h.Before(e) && !c.weekend[h.Weekday()] {
			count--
		}
	}
	return count
}

// NextTradingDay returns the first trading day strictly after date.
// Termination is guaranteed by the run-length check done in New.
func (c *Calendar) NextTradingDay(date time.Time) time.Time {
	d := Truncate(date).AddDate(0, 0, 1)
	for !c.IsTradingDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// PreviousTradingDay returns the last trading day strictly before date.
func (c *Calendar) PreviousTradingDay(date time.Time) time.Time {
	d := Truncate(date).AddDate(0, 0, -1)
	for !c.IsTradingDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// TradingDaysInMonth lists the trading days of a month in ascending order.
func (c *Calendar) TradingDaysInMonth(year int, month time.Month) []time.Time {
	first := Date(year, month, 1)
	next := first.AddDate(0, 1, 0)
	days := make([]time.Time, 0, 23)
	for d := first; d.Before(next); d = d.AddDate(0, 0, 1) {
		if c.IsTradingDay(d) {
			days = append(days, d)
		}
	}
	return days
}

// Weekend returns the configured weekend days in weekday order.
func (c *Calendar) Weekend() []time.Weekday {
	out := make([]time.Weekday, 0, 7-c.tradingPerWeek)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if c.weekend[d] {
			out = append(out, d)
		}
	}
	return out
}

// Holidays returns a copy of the holiday set.
func (c *Calendar) Holidays() HolidaySet {
	out := make(HolidaySet, len(c.holidays))
	for d, r := range c.holidays {
		out[d] = r
	}
	return out
}

// HolidaySet maps non-trading dates to a diagnostic reason.
type HolidaySet map[time.Time]string

// Holiday is one entry of a HolidaySet.
type Holiday struct {
	Date   time.Time
	Reason string
}

// NewHolidaySet builds a set from a list of holidays.
func NewHolidaySet(holidays ...Holiday) HolidaySet {
	set := make(HolidaySet, len(holidays))
	for _, h := range holidays {
		set.Add(h.Date, h.Reason)
	}
	return set
}

func (h HolidaySet) Add(date time.Time, reason string) {
	h[Truncate(date)] = reason
}

func (h HolidaySet) Contains(date time.Time) bool {
	_, ok := h[Truncate(date)]
	return ok
}

// Reason returns the annotation of a holiday.
func (h HolidaySet) Reason(date time.Time) (string, bool) {
	r, ok := h[Truncate(date)]
	return r, ok
}

// Dates returns the holidays in ascending order.
func (h HolidaySet) Dates() []time.Time {
	out := make([]time.Time, 0, len(h))
	for d := range h {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
