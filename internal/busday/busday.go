// Package busday finds previous business dates on a weekday calendar with an
// explicit holiday list.
package busday

import (
	"errors"
	"time"
)

// ErrNoHolidays is returned when no holiday list is supplied. An empty,
// non-nil list is accepted and means "weekends only".
var ErrNoHolidays = errors.New("busday: holiday list is required")

// Calendar treats Saturdays, Sundays and the listed holidays as non-business
// days. Times are compared by calendar date in UTC.
type Calendar struct {
	holidays map[time.Time]struct{}
}

// NewCalendar builds a Calendar from holidays.
func NewCalendar(holidays []time.Time) (*Calendar, error) {
	if holidays == nil {
		return nil, ErrNoHolidays
	}
	c := &Calendar{holidays: make(map[time.Time]struct{}, len(holidays))}
	for _, h := range holidays {
		c.holidays[truncate(h)] = struct{}{}
	}
	return c, nil
}

// IsBusinessDay reports whether d is neither a weekend day nor a holiday.
func (c *Calendar) IsBusinessDay(d time.Time) bool {
	d = truncate(d)
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	_, holiday := c.holidays[d]
	return !holiday
}

// LastBusinessDate returns the business date before d. When d is itself a
// weekend day or a holiday, the preceding business day is returned instead,
// so a Saturday and a Sunday both yield the Friday before.
func (c *Calendar) LastBusinessDate(d time.Time) time.Time {
	d = truncate(d)
	if c.IsBusinessDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	for !c.IsBusinessDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// LookBack returns n successive last business dates, starting from start and
// walking backwards.
func (c *Calendar) LookBack(n int, start time.Time) []time.Time {
	if n <= 0 {
		return nil
	}
	out := make([]time.Time, 0, n)
	d := start
	for i := 0; i < n; i++ {
		d = c.LastBusinessDate(d)
		out = append(out, d)
	}
	return out
}

// LastBusinessDate is the one-off form of Calendar.LastBusinessDate.
func LastBusinessDate(d time.Time, holidays []time.Time) (time.Time, error) {
	c, err := NewCalendar(holidays)
	if err != nil {
		return time.Time{}, err
	}
	return c.LastBusinessDate(d), nil
}

// LookBack is the one-off form of Calendar.LookBack.
func LookBack(n int, holidays []time.Time, start time.Time) ([]time.Time, error) {
	c, err := NewCalendar(holidays)
	if err != nil {
		return nil, err
	}
	return c.LookBack(n, start), nil
}

func truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
