package models

import (
	"fmt"

	"optioncatalog/internal/fixedpoint"
)

// BarIssue describes one data quality problem found in a bar.
type BarIssue struct {
	Field   string
	Message string
}

func (i BarIssue) String() string { return i.Field + ": " + i.Message }

// ValidateBar reports violations of low <= open, close <= high and of a
// non-negative volume. The bar is never modified.
func ValidateBar(b Bar) []BarIssue {
	var issues []BarIssue
	cmp := func(a, c fixedpoint.Value) (int, bool) {
		x, y, err := fixedpoint.Align(a, c)
		if err != nil {
			issues = append(issues, BarIssue{Field: "precision", Message: err.Error()})
			return 0, false
		}
		r, _ := fixedpoint.Compare(x, y)
		return r, true
	}
	if r, ok := cmp(b.Low, b.High); ok && r > 0 {
		issues = append(issues, BarIssue{Field: "low", Message: fmt.Sprintf("low %s above high %s", b.Low, b.High)})
	}
	for _, f := range []struct {
		name string
		v    fixedpoint.Value
	}{{"open", b.Open}, {"close", b.Close}} {
		if r, ok := cmp(f.v, b.Low); ok && r < 0 {
			issues = append(issues, BarIssue{Field: f.name, Message: fmt.Sprintf("%s %s below low %s", f.name, f.v, b.Low)})
		}
		if r, ok := cmp(f.v, b.High); ok && r > 0 {
			issues = append(issues, BarIssue{Field: f.name, Message: fmt.Sprintf("%s %s above high %s", f.name, f.v, b.High)})
		}
	}
	if b.Volume.IsNegative() {
		issues = append(issues, BarIssue{Field: "volume", Message: "negative volume " + b.Volume.String()})
	}
	if b.TsInit < b.TsEvent {
		issues = append(issues, BarIssue{Field: "ts_init", Message: "ingestion before event"})
	}
	return issues
}
