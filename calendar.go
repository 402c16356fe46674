package cron

import "time"

// Civil is a wall-clock date and time with no location attached.
type Civil struct {
	Year, Month, Day, Hour, Minute, Second int
}

// CivilOf returns the wall-clock fields of t in its own location.
func CivilOf(t time.Time) Civil {
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()
	return Civil{y, int(m), d, hh, mm, ss}
}

// Before reports whether c is earlier than o on the wall clock.
func (c Civil) Before(o Civil) bool {
	return c.compare(o) < 0
}

// After reports whether c is later than o on the wall clock.
func (c Civil) After(o Civil) bool {
	return c.compare(o) > 0
}

func (c Civil) compare(o Civil) int {
	a := [...]int{c.Year, c.Month, c.Day, c.Hour, c.Minute, c.Second}
	b := [...]int{o.Year, o.Month, o.Day, o.Hour, o.Minute, o.Second}
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func (c Civil) String() string {
	return c.utc().Format("2006-01-02T15:04:05")
}

// utc interprets c as a UTC wall clock. time.Date normalises out of range
// fields, which the search relies on for carries.
func (c Civil) utc() time.Time {
	return time.Date(c.Year, time.Month(c.Month), c.Day, c.Hour, c.Minute, c.Second, 0, time.UTC)
}

// Period is a maximal interval during which a location keeps one UTC offset.
// Start is inclusive and End exclusive; either is zero when the interval is
// unbounded on that side.
type Period struct {
	Offset     int // seconds east of UTC
	Start, End time.Time
}

// Contains reports whether t lies within the period.
func (p Period) Contains(t time.Time) bool {
	if !p.Start.IsZero() && t.Before(p.Start) {
		return false
	}
	if !p.End.IsZero() && !t.Before(p.End) {
		return false
	}
	return true
}

// Calendar answers the calendar questions the search needs. SystemCalendar
// is the implementation used unless WithCalendar says otherwise.
type Calendar interface {
	// DaysIn returns the number of days of month (1-12) in year.
	DaysIn(year, month int) int
	IsLeapYear(year int) bool
	Weekday(year, month, day int) time.Weekday

	// Period returns the offset period containing t.
	Period(t time.Time) Period

	// Instant materialises c under the given UTC offset, in loc.
	Instant(c Civil, loc *time.Location, offset int) time.Time

	// Resolve maps c to the nearest valid instant in loc. Wall times inside
	// a gap move forward by the length of the gap; wall times inside a fold
	// take the earlier of the two instants.
	Resolve(c Civil, loc *time.Location) time.Time
}

// SystemCalendar is the proleptic Gregorian calendar with the time zone
// database available to the time package.
type SystemCalendar struct{}

var _ Calendar = SystemCalendar{}

func (SystemCalendar) DaysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (SystemCalendar) IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func (SystemCalendar) Weekday(year, month, day int) time.Weekday {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).Weekday()
}

// Period trusts time.Time.ZoneBounds only when its answer holds up: in years
// governed by a zone's rule string the time package can report a period that
// ends before t. The bounds are then found by scanning offsets around t.
func (SystemCalendar) Period(t time.Time) Period {
	_, offset := t.Zone()
	start, end := t.ZoneBounds()
	p := Period{Offset: offset, Start: start, End: end}
	if p.Contains(t) && offsetAt(start, offset) && offsetAt(end.Add(-time.Second), offset) {
		return p
	}
	p.Start = scanBound(t, offset, -1)
	p.End = scanBound(t, offset, 1)
	return p
}

// periodScanDays caps the scan for a transition. A period longer than that
// is reported in slices, which the search walks like any other boundary.
const periodScanDays = 400

// offsetAt reports whether t, if set, is observed at offset.
func offsetAt(t time.Time, offset int) bool {
	if t.IsZero() || t.Year() <= 1 {
		return true
	}
	_, o := t.Zone()
	return o == offset
}

// scanBound walks from t a day at a time in direction dir until the offset
// changes, then bisects to the second. Forward it returns the first instant
// past the period, backward the first instant of it.
func scanBound(t time.Time, offset, dir int) time.Time {
	loc := t.Location()
	at := func(u int64) int {
		_, o := time.Unix(u, 0).In(loc).Zone()
		return o
	}
	inside := t.Unix()
	for i := 1; i <= periodScanDays; i++ {
		outside := t.Unix() + int64(dir*i*86400)
		if at(outside) == offset {
			inside = outside
			continue
		}
		for outside-inside > 1 || inside-outside > 1 {
			mid := inside + (outside-inside)/2
			if at(mid) == offset {
				inside = mid
			} else {
				outside = mid
			}
		}
		if dir > 0 {
			return time.Unix(outside, 0).In(loc)
		}
		return time.Unix(inside, 0).In(loc)
	}
	return time.Unix(t.Unix()+int64(dir*periodScanDays*86400), 0).In(loc)
}

func (SystemCalendar) Instant(c Civil, loc *time.Location, offset int) time.Time {
	return time.Unix(c.utc().Unix()-int64(offset), 0).In(loc)
}

func (cal SystemCalendar) Resolve(c Civil, loc *time.Location) time.Time {
	wall := c.utc().Unix()

	// Offsets in force a day either side of the wall time cover both sides
	// of any transition close to it.
	_, before := time.Unix(wall-86400, 0).In(loc).Zone()
	_, after := time.Unix(wall+86400, 0).In(loc).Zone()

	var best time.Time
	for _, offset := range []int{before, after} {
		t := cal.Instant(c, loc, offset)
		if CivilOf(t) != c {
			continue
		}
		if best.IsZero() || t.Before(best) {
			best = t
		}
	}
	if !best.IsZero() {
		return best
	}
	// Gap: the pre-transition offset pushes the wall time past the jump.
	return cal.Instant(c, loc, before)
}
