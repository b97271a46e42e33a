// Package period models the bi-monthly OKR cycle ("2026-01/02" is Jan-Feb 2026)
// and the week numbering check-ins use within it.
package period

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrInvalidPeriod is returned when a period string cannot be parsed.
var ErrInvalidPeriod = errors.New("invalid period")

var monthNames = [...]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// Period is a two-month OKR cycle starting on an odd month.
type Period struct {
	Year       int
	StartMonth time.Month
}

// Current returns the period containing now.
func Current(now time.Time) Period {
	m := now.Month()
	if m%2 == 0 {
		m--
	}
	return Period{Year: now.Year(), StartMonth: m}
}

// Parse reads the "YYYY-MM/MM" form.
func Parse(s string) (Period, error) {
	if len(s) != 10 || s[4] != '-' || s[7] != '/' {
		return Period{}, fmt.Errorf("%w %q: want YYYY-MM/MM", ErrInvalidPeriod, s)
	}
	year, err1 := strconv.Atoi(s[0:4])
	start, err2 := strconv.Atoi(s[5:7])
	end, err3 := strconv.Atoi(s[8:10])
	if err := errors.Join(err1, err2, err3); err != nil {
		return Period{}, fmt.Errorf("%w %q: %v", ErrInvalidPeriod, s, err)
	}
	if start < 1 || start > 11 || start%2 == 0 || end != start+1 {
		return Period{}, fmt.Errorf("%w %q: months must be an odd month and its successor", ErrInvalidPeriod, s)
	}
	return Period{Year: year, StartMonth: time.Month(start)}, nil
}

// String returns the canonical "YYYY-MM/MM" form.
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d/%02d", p.Year, int(p.StartMonth), int(p.StartMonth)+1)
}

// Label returns the display form, e.g. "Jan-Feb 2026".
func (p Period) Label() string {
	return fmt.Sprintf("%s-%s %d", monthNames[p.StartMonth-1], monthNames[p.StartMonth], p.Year)
}

// Start is midnight UTC on the first day of the period.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.StartMonth, 1, 0, 0, 0, 0, time.UTC)
}

// End is midnight UTC on the first day after the period.
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 2, 0)
}

// Weeks is the number of check-in weeks in the period, counting a trailing partial week.
func (p Period) Weeks() int {
	days := int(p.End().Sub(p.Start()).Hours() / 24)
	return (days + 6) / 7
}

// WeekOf returns the 1-based week of t within the period, clamped to [1, Weeks].
func (p Period) WeekOf(t time.Time) int {
	t = t.UTC()
	if t.Before(p.Start()) {
		return 1
	}
	week := int(t.Sub(p.Start()).Hours()/24)/7 + 1
	if w := p.Weeks(); week > w {
		return w
	}
	return week
}

// Contains reports whether t falls within the period.
func (p Period) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(p.Start()) && t.Before(p.End())
}

// Prev returns the preceding period.
func (p Period) Prev() Period {
	return Current(p.Start().AddDate(0, -2, 0))
}

// Next returns the following period.
func (p Period) Next() Period {
	return Current(p.End())
}

// Kind classifies a period relative to today for the period selector.
type Kind string

const (
	KindPast    Kind = "past"
	KindCurrent Kind = "current"
	KindNext    Kind = "next"
)

// Option is one entry in the period selector.
type Option struct {
	Period string `json:"period"`
	Label  string `json:"label"`
	Kind   Kind   `json:"type"`
	Weeks  int    `json:"weeks"`
}

// Available lists the previous, current, and next periods relative to now.
func Available(now time.Time) []Option {
	cur := Current(now)
	opts := make([]Option, 0, 3)
	for _, e := range []struct {
		p    Period
		kind Kind
	}{{cur.Prev(), KindPast}, {cur, KindCurrent}, {cur.Next(), KindNext}} {
		opts = append(opts, Option{Period: e.p.String(), Label: e.p.Label(), Kind: e.kind, Weeks: e.p.Weeks()})
	}
	return opts
}
