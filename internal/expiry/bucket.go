package expiry

// Bucket is a coarse classification of a contract's remaining trading days.
type Bucket uint8

const (
	CurrentWeek Bucket = iota
	NextWeek
	CurrentMonth
	NextMonth
)

// Buckets lists every bucket from shortest to longest horizon.
var Buckets = []Bucket{CurrentWeek, NextWeek, CurrentMonth, NextMonth}

// ClassifyBucket partitions DTE at 7, 14 and 30. Each boundary belongs to the
// shorter horizon, and expired contracts fall in CurrentWeek.
func ClassifyBucket(dte int) Bucket {
	switch {
	case dte <= 7:
		return CurrentWeek
	case dte <= 14:
		return NextWeek
	case dte <= 30:
		return CurrentMonth
	default:
		return NextMonth
	}
}

// Code returns the short bucket code (CW, NW, CM, NM).
func (b Bucket) Code() string {
	switch b {
	case CurrentWeek:
		return "CW"
	case NextWeek:
		return "NW"
	case CurrentMonth:
		return "CM"
	case NextMonth:
		return "NM"
	}
	return "UNKNOWN"
}

func (b Bucket) String() string {
	switch b {
	case CurrentWeek:
		return "CurrentWeek"
	case NextWeek:
		return "NextWeek"
	case CurrentMonth:
		return "CurrentMonth"
	case NextMonth:
		return "NextMonth"
	}
	return "Unknown"
}

// Description is a human readable summary of the bucket's horizon.
func (b Bucket) Description() string {
	switch b {
	case CurrentWeek:
		return "Current Week (<=7 DTE) - 0DTE strategies, weekly spreads"
	case NextWeek:
		return "Next Week (8-14 DTE) - short-term credit spreads"
	case CurrentMonth:
		return "Current Month (15-30 DTE) - monthly iron condors"
	case NextMonth:
		return "Next Month (31+ DTE) - LEAPS, diagonal spreads"
	}
	return "Unknown bucket"
}

// ParseBucket maps a bucket code back to a Bucket.
func ParseBucket(code string) (Bucket, bool) {
	for _, b := range Buckets {
		if b.Code() == code {
			return b, true
		}
	}
	return 0, false
}

// MarshalText encodes the bucket as its code.
func (b Bucket) MarshalText() ([]byte, error) {
	return []byte(b.Code()), nil
}
