package dateinfer

import (
	"fmt"
	"time"
)

// defaultPivot defines how 2-digit years are interpreted by the fallback
// parser. Years that would land more than this many years after the reference
// year are moved to the previous century.
const defaultPivot = 20

// Date layouts split by year format for proper 2-digit year handling.
var (
	fourDigitYearLayouts = []string{
		"2006-01-02", "2006/01/02", "2006.01.02",
		"2006-1-2", "2006/1/2",
		"02/01/2006", "2/1/2006", "02-01-2006", "2-1-2006", "02.01.2006", "2.1.2006",
		"02-Jan-2006", "2-Jan-2006", "02 Jan 2006", "2 Jan 2006", "Jan 2, 2006", "January 2, 2006",
		"20060102",
	}
	timestampLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04:05Z07:00",
		"02.01.2006 15:04:05",
	}
	twoDigitYearLayouts = []string{
		"02/01/06", "2/1/06", "02-01-06", "2-1-06", "02.01.06", "2.1.06",
		"02-Jan-06", "2-Jan-06",
	}
)

// Fallback is the format-unaware parser used when a column's pattern cannot
// be inferred. It tries a fixed list of layouts and returns the first match.
//
// Numeric day/month ambiguity is resolved day-first, matching the
// day-before-month default applied to inferred year-last layouts.
type Fallback struct {
	// Now supplies the reference year for the 2-digit pivot. Defaults to
	// time.Now.
	Now func() time.Time
	// Pivot is the 2-digit year window. Zero means 20.
	Pivot int
}

// Parse implements Parser.
func (f Fallback) Parse(s string) (time.Time, error) {
	s = Normalize(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("fallback: empty value")
	}

	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}

	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	pivot := defaultPivot
	if f.Pivot != 0 {
		pivot = f.Pivot
	}
	pivotYear := now().Year() + pivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("fallback: %q is not in a supported format", s)
}
