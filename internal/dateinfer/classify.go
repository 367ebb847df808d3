package dateinfer

import (
	"errors"
	"strconv"
	"strings"
)

// Structural inference failures. Each one sends the column to the fallback
// parser; none of them aborts a table conversion.
var (
	ErrNoSamples          = errors.New("dateinfer: no samples")
	ErrTokenCount         = errors.New("dateinfer: inconsistent token count")
	ErrYearNotFound       = errors.New("dateinfer: cannot find year in date string")
	ErrAmbiguousYear      = errors.New("dateinfer: more than one position looks like a year")
	ErrYearInMiddle       = errors.New("dateinfer: year in the middle of date separators")
	ErrUnassignedPosition = errors.New("dateinfer: token position matches no date role")
)

// Role is the meaning of one token position.
type Role int

const (
	RoleNone Role = iota
	RoleYear
	RoleMonth
	RoleDay
)

func (r Role) String() string {
	switch r {
	case RoleYear:
		return "year"
	case RoleMonth:
		return "month"
	case RoleDay:
		return "day"
	default:
		return "none"
	}
}

// Classification is the per-position outcome of Classify.
type Classification struct {
	// Roles holds the role observed for each token position. Two positions may
	// both read RoleMonth or RoleDay here; Synthesize resolves that.
	Roles []Role
	// Max is the largest value seen at each position (numeric layouts only).
	Max []int
	// NamedMonth marks the fixed [day, month name, year] layout.
	NamedMonth bool
	// YearWidth is 4 or 2.
	YearWidth int
}

// YearPos returns the index of the year position, or -1.
func (c Classification) YearPos() int {
	for i, r := range c.Roles {
		if r == RoleYear {
			return i
		}
	}
	return -1
}

// Classify assigns a role to every token position of samples.
//
// All samples must split into the same number of tokens. If any token of any
// sample is not an integer, the batch is read as the named-month layout
// [day, month, year]. Otherwise each position is classified over the whole
// sample: year when every value is above 1000, month when every value is at
// most 12, day when every value is at most 31.
func Classify(samples []string) (Classification, error) {
	if len(samples) == 0 {
		return Classification{}, ErrNoSamples
	}

	tokens := make([][]string, len(samples))
	width := -1
	for i, s := range samples {
		tok := splitTokens(s)
		for j := range tok {
			tok[j] = strings.TrimSpace(tok[j])
		}
		if width >= 0 && len(tok) != width {
			return Classification{}, ErrTokenCount
		}
		width = len(tok)
		tokens[i] = tok
	}
	if width == 0 {
		return Classification{}, ErrTokenCount
	}

	nums := make([][]int, len(tokens))
	for i, tok := range tokens {
		row := make([]int, width)
		for j, t := range tok {
			n, err := strconv.Atoi(t)
			if err != nil {
				return classifyNamed(tokens)
			}
			row[j] = n
		}
		nums[i] = row
	}

	c := Classification{
		Roles:     make([]Role, width),
		Max:       make([]int, width),
		YearWidth: 4,
	}
	years := 0
	for pos := 0; pos < width; pos++ {
		allYear, allMonth, allDay := true, true, true
		for _, row := range nums {
			v := row[pos]
			if v > c.Max[pos] {
				c.Max[pos] = v
			}
			allYear = allYear && v > 1000
			allMonth = allMonth && v <= 12
			allDay = allDay && v <= 31
		}
		switch {
		case allYear:
			c.Roles[pos] = RoleYear
			years++
		case allMonth:
			c.Roles[pos] = RoleMonth
		case allDay:
			c.Roles[pos] = RoleDay
		}
	}

	switch {
	case years == 0:
		return c, ErrYearNotFound
	case years > 1:
		return c, ErrAmbiguousYear
	}
	return c, nil
}

// classifyNamed handles batches with a non-numeric token. The month name sits
// in the middle and the year last; the year position must be numeric.
func classifyNamed(tokens [][]string) (Classification, error) {
	c := Classification{
		Roles:      []Role{RoleDay, RoleMonth, RoleYear},
		NamedMonth: true,
		YearWidth:  4,
	}
	for _, tok := range tokens {
		if len(tok) != 3 {
			return c, ErrTokenCount
		}
	}
	for _, tok := range tokens {
		y, err := strconv.Atoi(tok[2])
		if err != nil {
			return c, ErrYearNotFound
		}
		if y <= 1000 {
			c.YearWidth = 2
		}
	}
	return c, nil
}
