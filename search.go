package cron

import (
	"time"

	"github.com/cockroachdb/errors"
)

// direction of a search.
type direction int

const (
	forward direction = iota
	backward
)

func (d direction) String() string {
	if d == backward {
		return "previous"
	}
	return "next"
}

// errOutOfRange ends a search whose year constraint has no value left.
var errOutOfRange = errors.Wrap(ErrUnsatisfiable, "year out of range")

// searcher runs one query. It is created per call and never shared.
type searcher struct {
	ev      evaluator
	budget  int // passes, carries and period hops combined
	horizon int // years, 0 for none
	origin  int // year the search started in
	used    int
}

// spend charges one pass against the budget.
func (s *searcher) spend(year int) error {
	s.used++
	if s.used > s.budget {
		return errors.Wrapf(ErrUnsatisfiable, "search budget of %d passes exhausted", s.budget)
	}
	if s.horizon > 0 && (year-s.origin > s.horizon || s.origin-year > s.horizon) {
		return errors.Wrapf(ErrUnsatisfiable, "no match within %d years", s.horizon)
	}
	return nil
}

// find returns the first matching instant strictly after (forward) or before
// (backward) ref, evaluated in loc.
//
// The timeline is walked one offset period at a time. Within a period wall
// time and instants move together, so a plain civil search finds the
// candidate; when the candidate lies outside the period the search continues
// from the neighbouring period. Wall times skipped by a transition are never
// produced, and wall times repeated by one are produced once per offset.
func (s *searcher) find(ref time.Time, loc *time.Location, dir direction) (time.Time, error) {
	cal := s.ev.cal
	t := ref.In(loc)
	start := t.Truncate(time.Second)
	switch {
	case dir == forward:
		start = start.Add(time.Second)
	case start.Equal(t):
		start = start.Add(-time.Second)
	}
	s.origin = start.Year()

	for {
		p := cal.Period(start)
		if !p.Contains(start) {
			return time.Time{}, errors.Wrapf(ErrCalendarResolution,
				"offset period %s..%s in %s does not contain %s", p.Start.Format(time.RFC3339),
				p.End.Format(time.RFC3339), loc, start.Format(time.RFC3339))
		}
		var (
			c   Civil
			err error
		)
		if dir == forward {
			c, err = s.nextCivil(CivilOf(start))
		} else {
			c, err = s.prevCivil(CivilOf(start))
		}
		if err != nil {
			return time.Time{}, err
		}

		inst := cal.Instant(c, loc, p.Offset)
		if p.Contains(inst) {
			if CivilOf(inst) != c || !s.ev.matches(c) {
				return time.Time{}, errors.Wrapf(ErrCalendarResolution,
					"%s in %s materialised as %s", c, loc, inst.Format(time.RFC3339))
			}
			return inst, nil
		}

		if dir == forward {
			start = p.End
		} else {
			start = p.Start.Add(-time.Second)
		}
		if err := s.spend(start.Year()); err != nil {
			return time.Time{}, err
		}
	}
}

// nextCivil returns the smallest matching wall time >= c.
func (s *searcher) nextCivil(c Civil) (Civil, error) {
	ev := s.ev
	for {
		if err := s.spend(c.Year); err != nil {
			return Civil{}, err
		}

		y, ok := ev.ceil(Year, c.Year)
		if !ok {
			return Civil{}, errOutOfRange
		}
		if y != c.Year {
			c = Civil{Year: y, Month: 1, Day: 1}
		}

		mo, ok := ev.ceil(Month, c.Month)
		if !ok {
			c = Civil{Year: c.Year + 1, Month: 1, Day: 1}
			continue
		}
		if mo != c.Month {
			c = Civil{Year: c.Year, Month: mo, Day: 1}
		}

		d, ok := ev.days(ev.month(c.Year, c.Month)).ceil(c.Day)
		if !ok {
			c = normalize(Civil{Year: c.Year, Month: c.Month + 1, Day: 1})
			continue
		}
		if d != c.Day {
			c = Civil{Year: c.Year, Month: c.Month, Day: d}
		}

		h, ok := ev.ceil(Hour, c.Hour)
		if !ok {
			c = normalize(Civil{Year: c.Year, Month: c.Month, Day: c.Day + 1})
			continue
		}
		if h != c.Hour {
			c.Hour, c.Minute, c.Second = h, 0, 0
		}

		mi, ok := ev.ceil(Minute, c.Minute)
		if !ok {
			c = normalize(Civil{Year: c.Year, Month: c.Month, Day: c.Day, Hour: c.Hour + 1})
			continue
		}
		if mi != c.Minute {
			c.Minute, c.Second = mi, 0
		}

		sec, ok := ev.ceil(Second, c.Second)
		if !ok {
			c = normalize(Civil{Year: c.Year, Month: c.Month, Day: c.Day, Hour: c.Hour, Minute: c.Minute + 1})
			continue
		}
		c.Second = sec
		return c, nil
	}
}

// prevCivil returns the largest matching wall time <= c.
func (s *searcher) prevCivil(c Civil) (Civil, error) {
	ev := s.ev
	cal := ev.cal
	for {
		if err := s.spend(c.Year); err != nil {
			return Civil{}, err
		}

		y, ok := ev.floor(Year, c.Year)
		if !ok {
			return Civil{}, errOutOfRange
		}
		if y != c.Year {
			c = Civil{y, 12, 31, 23, 59, 59}
		}

		mo, ok := ev.floor(Month, c.Month)
		if !ok {
			c = Civil{c.Year - 1, 12, 31, 23, 59, 59}
			continue
		}
		if mo != c.Month {
			c = Civil{c.Year, mo, cal.DaysIn(c.Year, mo), 23, 59, 59}
		}

		d, ok := ev.days(ev.month(c.Year, c.Month)).floor(c.Day)
		if !ok {
			c = justBefore(Civil{Year: c.Year, Month: c.Month, Day: 1})
			continue
		}
		if d != c.Day {
			c = Civil{c.Year, c.Month, d, 23, 59, 59}
		}

		h, ok := ev.floor(Hour, c.Hour)
		if !ok {
			c = justBefore(Civil{Year: c.Year, Month: c.Month, Day: c.Day})
			continue
		}
		if h != c.Hour {
			c.Hour, c.Minute, c.Second = h, 59, 59
		}

		mi, ok := ev.floor(Minute, c.Minute)
		if !ok {
			c = justBefore(Civil{Year: c.Year, Month: c.Month, Day: c.Day, Hour: c.Hour})
			continue
		}
		if mi != c.Minute {
			c.Minute, c.Second = mi, 59
		}

		sec, ok := ev.floor(Second, c.Second)
		if !ok {
			c = justBefore(Civil{Year: c.Year, Month: c.Month, Day: c.Day, Hour: c.Hour, Minute: c.Minute})
			continue
		}
		c.Second = sec
		return c, nil
	}
}

// normalize carries out of range fields into the larger ones.
func normalize(c Civil) Civil {
	return CivilOf(c.utc())
}

// justBefore returns the wall time one second before c.
func justBefore(c Civil) Civil {
	return CivilOf(c.utc().Add(-time.Second))
}
