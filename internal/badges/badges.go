package badges

import (
	"fmt"
	"strings"
	"time"
)

// Span is a calendar difference between two dates.
type Span struct {
	Years  int `json:"years"`
	Months int `json:"months"`
	Days   int `json:"days"`
}

// TotalMonths returns the span in whole months.
func (s Span) TotalMonths() int {
	return s.Years*12 + s.Months
}

// String formats the span as "1 year, 2 months, 3 days", omitting zero
// components. A zero span is "0 days".
func (s Span) String() string {
	var parts []string
	for _, p := range []struct {
		n    int
		unit string
	}{{s.Years, "year"}, {s.Months, "month"}, {s.Days, "day"}} {
		if p.n == 0 {
			continue
		}
		unit := p.unit
		if p.n != 1 {
			unit += "s"
		}
		parts = append(parts, fmt.Sprintf("%d %s", p.n, unit))
	}
	if len(parts) == 0 {
		return "0 days"
	}
	return strings.Join(parts, ", ")
}

// Tier is a tenure badge earned after a number of months.
type Tier struct {
	Name   string `json:"name"`
	Months int    `json:"months"`
	Icon   string `json:"icon,omitempty"`
}

// Elapsed returns the calendar span from since to now, both taken as UTC
// dates. A since after now yields the zero span. Month ends clamp, so
// Jan 31 to Feb 28 is one month.
func Elapsed(since, now time.Time) Span {
	from := dateOf(since)
	to := dateOf(now)
	if !from.Before(to) {
		return Span{}
	}

	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	anchor := addMonths(from, months)
	if anchor.After(to) {
		months--
		anchor = addMonths(from, months)
	}

	return Span{
		Years:  months / 12,
		Months: months % 12,
		Days:   int(to.Sub(anchor).Hours() / 24),
	}
}

// Earned returns the highest tier reached by span, or nil if none.
// Tiers need not be sorted.
func Earned(span Span, tiers []Tier) *Tier {
	var best *Tier
	total := span.TotalMonths()
	for i := range tiers {
		t := &tiers[i]
		if t.Months > total {
			continue
		}
		if best == nil || t.Months > best.Months {
			best = t
		}
	}
	return best
}

// Next returns the lowest tier not yet reached, or nil if all are earned.
func Next(span Span, tiers []Tier) *Tier {
	var next *Tier
	total := span.TotalMonths()
	for i := range tiers {
		t := &tiers[i]
		if t.Months <= total {
			continue
		}
		if next == nil || t.Months < next.Months {
			next = t
		}
	}
	return next
}

func dateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func addMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}
