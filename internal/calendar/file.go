package calendar

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type holidayFile struct {
	Holidays []struct {
		Date   string `yaml:"date"`
		Reason string `yaml:"reason"`
	} `yaml:"holidays"`
}

// LoadHolidays reads a YAML holiday list:
//
//	holidays:
//	  - date: 2024-01-26
//	    reason: Republic Day
func LoadHolidays(path string) (HolidaySet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read holiday file: %w", err)
	}
	return ParseHolidays(data)
}

// ParseHolidays decodes the YAML holiday list format.
func ParseHolidays(data []byte) (HolidaySet, error) {
	var raw holidayFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse holiday file: %w", err)
	}
	set := make(HolidaySet, len(raw.Holidays))
	for i, h := range raw.Holidays {
		d, err := time.Parse("2006-01-02", strings.TrimSpace(h.Date))
		if err != nil {
			return nil, fmt.Errorf("%w: holiday %d has invalid date %q", ErrCalendarMisuse, i, h.Date)
		}
		set.Add(d, h.Reason)
	}
	return set, nil
}

// ParseWeekdays maps names such as "saturday" or "sat" to weekdays.
func ParseWeekdays(names []string) ([]time.Weekday, error) {
	out := make([]time.Weekday, 0, len(names))
	for _, n := range names {
		d, err := ParseWeekday(n)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// ParseWeekday maps a single weekday name to time.Weekday.
func ParseWeekday(name string) (time.Weekday, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if n == full || n == full[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown weekday %q", ErrCalendarMisuse, name)
}
