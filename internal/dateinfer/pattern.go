package dateinfer

import (
	"fmt"
	"strings"
	"time"
)

// Pattern is a synthesized date format. It is derived once per batch and
// never changes afterwards.
type Pattern struct {
	Sep        Separator
	Order      [3]Role
	YearWidth  int
	NamedMonth bool
}

// Synthesize builds the Pattern for a classified batch.
//
// Tokens keep their observed order. A year in the middle position is
// rejected. Between the two remaining positions, a position whose largest
// value exceeds 12 can only be a day, so the larger one becomes the day. When
// neither ever exceeds 12 the order defaults to month-before-day after a
// leading year and day-before-month before a trailing year.
func Synthesize(c Classification, sep Separator) (Pattern, error) {
	p := Pattern{Sep: sep, YearWidth: c.YearWidth, NamedMonth: c.NamedMonth}
	if p.YearWidth == 0 {
		p.YearWidth = 4
	}

	if c.NamedMonth {
		p.Order = [3]Role{RoleDay, RoleMonth, RoleYear}
		return p, nil
	}
	if len(c.Roles) != 3 {
		return Pattern{}, ErrTokenCount
	}

	yearPos := c.YearPos()
	var a, b int
	switch yearPos {
	case 0:
		a, b = 1, 2
	case 2:
		a, b = 0, 1
	case 1:
		return Pattern{}, ErrYearInMiddle
	default:
		return Pattern{}, ErrYearNotFound
	}
	for _, pos := range []int{a, b} {
		if r := c.Roles[pos]; r != RoleMonth && r != RoleDay {
			return Pattern{}, fmt.Errorf("%w: position %d", ErrUnassignedPosition, pos)
		}
	}

	p.Order[yearPos] = RoleYear
	switch {
	case (c.Max[a] > 12 || c.Max[b] > 12) && c.Max[a] > c.Max[b]:
		p.Order[a], p.Order[b] = RoleDay, RoleMonth
	case (c.Max[a] > 12 || c.Max[b] > 12) && c.Max[b] > c.Max[a]:
		p.Order[a], p.Order[b] = RoleMonth, RoleDay
	case yearPos == 0:
		p.Order[a], p.Order[b] = RoleMonth, RoleDay
	default:
		p.Order[a], p.Order[b] = RoleDay, RoleMonth
	}
	return p, nil
}

// String renders p as a strftime-style pattern such as "%Y/%m/%d".
func (p Pattern) String() string {
	parts := make([]string, 0, 3)
	for _, r := range p.Order {
		switch r {
		case RoleYear:
			if p.YearWidth == 2 {
				parts = append(parts, "%y")
			} else {
				parts = append(parts, "%Y")
			}
		case RoleMonth:
			if p.NamedMonth {
				parts = append(parts, "%b")
			} else {
				parts = append(parts, "%m")
			}
		case RoleDay:
			parts = append(parts, "%d")
		}
	}
	return strings.Join(parts, p.Sep.String())
}

// Layout renders p as a Go time layout. Day and numeric month accept one or
// two digits.
func (p Pattern) Layout() string {
	parts := make([]string, 0, 3)
	for _, r := range p.Order {
		switch r {
		case RoleYear:
			if p.YearWidth == 2 {
				parts = append(parts, "06")
			} else {
				parts = append(parts, "2006")
			}
		case RoleMonth:
			if p.NamedMonth {
				parts = append(parts, "Jan")
			} else {
				parts = append(parts, "1")
			}
		case RoleDay:
			parts = append(parts, "2")
		}
	}
	return strings.Join(parts, p.Sep.String())
}

// Parse parses s with p's layout and returns the date at UTC midnight.
func (p Pattern) Parse(s string) (time.Time, error) {
	t, err := time.Parse(p.Layout(), Normalize(s))
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
