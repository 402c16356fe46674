package cron

import (
	"fmt"
	"math/bits"
	"time"
)

// monthContext is what the day fields need to know about one month.
type monthContext struct {
	year, month int
	days        int
	first       time.Weekday // weekday of the 1st
}

func (m monthContext) weekday(day int) time.Weekday {
	return time.Weekday((int(m.first) + day - 1) % 7)
}

// dayMask has bit d set for each matching day d of a month.
type dayMask uint64

const allDays dayMask = 1<<32 - 2 // days 1 to 31

func (m dayMask) has(day int) bool {
	return day >= 1 && day <= 31 && m&(1<<uint(day)) != 0
}

// ceil returns the first day >= lower in the mask.
func (m dayMask) ceil(lower int) (int, bool) {
	if lower < 1 {
		lower = 1
	}
	if lower > 31 {
		return 0, false
	}
	rest := m &^ (1<<uint(lower) - 1)
	if rest == 0 {
		return 0, false
	}
	return bits.TrailingZeros64(uint64(rest)), true
}

// floor returns the last day <= upper in the mask.
func (m dayMask) floor(upper int) (int, bool) {
	if upper > 31 {
		upper = 31
	}
	if upper < 1 {
		return 0, false
	}
	rest := m & (1<<uint(upper+1) - 1)
	if rest == 0 {
		return 0, false
	}
	return 63 - bits.LeadingZeros64(uint64(rest)), true
}

// evaluator answers per-field questions for one expression under one
// calendar.
type evaluator struct {
	expr *Expression
	cal  Calendar
}

func (ev evaluator) month(year, month int) monthContext {
	return monthContext{
		year:  year,
		month: month,
		days:  ev.cal.DaysIn(year, month),
		first: ev.cal.Weekday(year, month, 1),
	}
}

// days resolves DayOfMonth and DayOfWeek into the set of matching days of m,
// combining them by the dialect's day rule.
func (ev evaluator) days(m monthContext) dayMask {
	e := ev.expr
	dom := e.fields[DayOfMonth]
	dow := e.fields[DayOfWeek]
	valid := allDays & (1<<uint(m.days+1) - 1)

	var mask dayMask
	switch _, domU := dom.(Unspecified); {
	case domU:
		mask = ev.daysOfWeek(dow, m)
	case isUnspecified(dow):
		mask = ev.daysOfMonth(dom, m)
	case e.dialect.DayRule == DayRuleUnion && e.domConcrete && e.dowConcrete:
		mask = ev.daysOfMonth(dom, m) | ev.daysOfWeek(dow, m)
	default:
		mask = ev.daysOfMonth(dom, m) & ev.daysOfWeek(dow, m)
	}
	return mask & valid
}

func isUnspecified(c Constraint) bool {
	_, ok := c.(Unspecified)
	return ok
}

func (ev evaluator) daysOfMonth(c Constraint, m monthContext) dayMask {
	switch c := c.(type) {
	case Always, Unspecified:
		return allDays
	case Composite:
		var mask dayMask
		for _, item := range c.Items {
			mask |= ev.daysOfMonth(item, m)
		}
		return mask
	case LastDayOfMonth:
		return single(m.days - c.Offset)
	case NearestWeekday:
		return single(nearestWeekday(c.Day, m))
	case LastBusinessDay:
		day := m.days
		for isWeekend(m.weekday(day)) {
			day--
		}
		return single(day)
	case Single, Range, Every:
		var mask dayMask
		for day := 1; day <= m.days; day++ {
			if matchValue(c, day, ev.expr.domains[DayOfMonth].max) {
				mask |= 1 << uint(day)
			}
		}
		return mask
	}
	panic(fmt.Sprintf("cron: unexpected day_of_month constraint %T", c))
}

func (ev evaluator) daysOfWeek(c Constraint, m monthContext) dayMask {
	d := ev.expr.dialect
	switch c := c.(type) {
	case Always, Unspecified:
		return allDays
	case Composite:
		var mask dayMask
		for _, item := range c.Items {
			mask |= ev.daysOfWeek(item, m)
		}
		return mask
	case NthWeekday:
		w := d.weekdayOf(c.Weekday)
		first := 1 + (int(w)-int(m.first)+7)%7
		day := first + (c.N-1)*7
		if day > m.days {
			return 0
		}
		return single(day)
	case LastWeekday:
		w := d.weekdayOf(c.Weekday)
		return single(m.days - (int(m.weekday(m.days))-int(w)+7)%7)
	case Single, Range, Every:
		max := ev.expr.domains[DayOfWeek].max
		alias, hasAlias := d.sundayAlias()
		var mask dayMask
		for day := 1; day <= m.days; day++ {
			wd := m.weekday(day)
			ok := matchValue(c, d.weekdayValue(wd), max)
			if !ok && wd == time.Sunday && hasAlias {
				ok = matchValue(c, alias, max)
			}
			if ok {
				mask |= 1 << uint(day)
			}
		}
		return mask
	}
	panic(fmt.Sprintf("cron: unexpected day_of_week constraint %T", c))
}

func single(day int) dayMask {
	if day < 1 || day > 31 {
		return 0
	}
	return 1 << uint(day)
}

func isWeekend(w time.Weekday) bool {
	return w == time.Saturday || w == time.Sunday
}

// nearestWeekday returns the Monday to Friday closest to day without leaving
// the month, or 0 when the month is too short.
func nearestWeekday(day int, m monthContext) int {
	if day > m.days {
		return 0
	}
	switch m.weekday(day) {
	case time.Saturday:
		if day == 1 {
			return day + 2
		}
		return day - 1
	case time.Sunday:
		if day == m.days {
			return day - 2
		}
		return day + 1
	}
	return day
}

// matchValue reports whether v satisfies a plain constraint. max is the top
// of the field's domain.
func matchValue(c Constraint, v, max int) bool {
	switch c := c.(type) {
	case Always, Unspecified:
		return true
	case Single:
		return v == c.Value
	case Range:
		if c.From <= c.To {
			return v >= c.From && v <= c.To
		}
		return v >= c.From || v <= c.To
	case Every:
		end := c.End
		if end == 0 {
			end = max
		}
		return v >= c.Start && v <= end && (v-c.Start)%c.Period == 0
	case Composite:
		for _, item := range c.Items {
			if matchValue(item, v, max) {
				return true
			}
		}
		return false
	}
	panic(fmt.Sprintf("cron: unexpected constraint %T", c))
}

// ceilValue returns the smallest v in [lower, b.max] satisfying c.
func ceilValue(c Constraint, lower int, b bounds) (int, bool) {
	if lower < b.min {
		lower = b.min
	}
	if lower > b.max {
		return 0, false
	}
	switch c := c.(type) {
	case Always, Unspecified:
		return lower, true
	case Single:
		return c.Value, c.Value >= lower
	case Range:
		if c.From > c.To && lower <= c.To {
			return lower, true
		}
		v := max(lower, c.From)
		if c.From <= c.To && v > c.To {
			return 0, false
		}
		return v, v <= b.max
	case Every:
		end := c.End
		if end == 0 {
			end = b.max
		}
		v := c.Start
		if lower > c.Start {
			v += (lower - c.Start + c.Period - 1) / c.Period * c.Period
		}
		return v, v <= end
	case Composite:
		best, found := 0, false
		for _, item := range c.Items {
			if v, ok := ceilValue(item, lower, b); ok && (!found || v < best) {
				best, found = v, true
			}
		}
		return best, found
	}
	panic(fmt.Sprintf("cron: unexpected constraint %T", c))
}

// floorValue returns the largest v in [b.min, upper] satisfying c.
func floorValue(c Constraint, upper int, b bounds) (int, bool) {
	if upper > b.max {
		upper = b.max
	}
	if upper < b.min {
		return 0, false
	}
	switch c := c.(type) {
	case Always, Unspecified:
		return upper, true
	case Single:
		return c.Value, c.Value <= upper
	case Range:
		if c.From > c.To && upper >= c.From {
			return upper, true
		}
		v := min(upper, c.To)
		if c.From <= c.To && v < c.From {
			return 0, false
		}
		return v, v >= b.min
	case Every:
		end := c.End
		if end == 0 {
			end = b.max
		}
		top := min(upper, end)
		if top < c.Start {
			return 0, false
		}
		return c.Start + (top-c.Start)/c.Period*c.Period, true
	case Composite:
		best, found := 0, false
		for _, item := range c.Items {
			if v, ok := floorValue(item, upper, b); ok && (!found || v > best) {
				best, found = v, true
			}
		}
		return best, found
	}
	panic(fmt.Sprintf("cron: unexpected constraint %T", c))
}

func (ev evaluator) ceil(f Field, lower int) (int, bool) {
	return ceilValue(ev.expr.fields[f], lower, ev.expr.domains[f])
}

func (ev evaluator) floor(f Field, upper int) (int, bool) {
	return floorValue(ev.expr.fields[f], upper, ev.expr.domains[f])
}

// matches evaluates every constraint on the wall-clock fields of c.
func (ev evaluator) matches(c Civil) bool {
	e := ev.expr
	for _, p := range [...]struct {
		f Field
		v int
	}{{Year, c.Year}, {Month, c.Month}, {Hour, c.Hour}, {Minute, c.Minute}, {Second, c.Second}} {
		b := e.domains[p.f]
		if !b.contains(p.v) || !matchValue(e.fields[p.f], p.v, b.max) {
			return false
		}
	}
	return ev.days(ev.month(c.Year, c.Month)).has(c.Day)
}
