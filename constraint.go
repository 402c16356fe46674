package cron

import (
	"strconv"
	"strings"
)

// Constraint describes the set of legal values for one field of an
// expression. The set of implementations is closed: Always, Unspecified,
// Single, Range, Every, Composite, LastDayOfMonth, NearestWeekday,
// LastBusinessDay, NthWeekday and LastWeekday.
//
// Constraints are plain values. They are checked against a dialect's field
// domains when an Expression is built, never while searching.
type Constraint interface {
	// String renders the constraint in cron syntax.
	String() string

	constraint()
}

// Always matches every legal value of the field ("*").
type Always struct{}

// Unspecified is the "?" token. It is only legal on DayOfMonth and DayOfWeek
// and defers the day decision to the other field of the pair.
type Unspecified struct{}

// Single matches exactly Value.
type Single struct {
	Value int
}

// Range matches From through To inclusive. A To smaller than From wraps
// around the end of the domain, so hours 22-2 match 22, 23, 0, 1 and 2.
type Range struct {
	From, To int
}

// Every matches Start, Start+Period, Start+2*Period, ... up to End inclusive.
// A zero End stands for the top of the field's domain.
type Every struct {
	Start, End, Period int
}

// Composite is the union of its items (a comma separated list).
type Composite struct {
	Items []Constraint
}

// LastDayOfMonth matches the last day of the month minus Offset ("L", "L-3").
type LastDayOfMonth struct {
	Offset int
}

// NearestWeekday matches the weekday (Monday to Friday) closest to Day
// without leaving the month ("15W").
type NearestWeekday struct {
	Day int
}

// LastBusinessDay matches the last weekday (Monday to Friday) of the month
// ("LW").
type LastBusinessDay struct{}

// NthWeekday matches the N-th occurrence of Weekday in the month ("FRI#3").
// Weekday uses the dialect's day-of-week numbering.
type NthWeekday struct {
	Weekday, N int
}

// LastWeekday matches the last occurrence of Weekday in the month ("5L",
// "FRI#L"). Weekday uses the dialect's day-of-week numbering.
type LastWeekday struct {
	Weekday int
}

func (Always) constraint()          {}
func (Unspecified) constraint()     {}
func (Single) constraint()          {}
func (Range) constraint()           {}
func (Every) constraint()           {}
func (Composite) constraint()       {}
func (LastDayOfMonth) constraint()  {}
func (NearestWeekday) constraint()  {}
func (LastBusinessDay) constraint() {}
func (NthWeekday) constraint()      {}
func (LastWeekday) constraint()     {}

func (Always) String() string      { return "*" }
func (Unspecified) String() string { return "?" }
func (c Single) String() string    { return strconv.Itoa(c.Value) }
func (c Range) String() string     { return strconv.Itoa(c.From) + "-" + strconv.Itoa(c.To) }

func (c Every) String() string {
	if c.End == 0 {
		return strconv.Itoa(c.Start) + "/" + strconv.Itoa(c.Period)
	}
	return strconv.Itoa(c.Start) + "-" + strconv.Itoa(c.End) + "/" + strconv.Itoa(c.Period)
}

func (c Composite) String() string {
	parts := make([]string, len(c.Items))
	for i, item := range c.Items {
		parts[i] = item.String()
	}
	return strings.Join(parts, ",")
}

func (c LastDayOfMonth) String() string {
	if c.Offset == 0 {
		return "L"
	}
	return "L-" + strconv.Itoa(c.Offset)
}

func (c NearestWeekday) String() string { return strconv.Itoa(c.Day) + "W" }
func (LastBusinessDay) String() string  { return "LW" }
func (c NthWeekday) String() string     { return strconv.Itoa(c.Weekday) + "#" + strconv.Itoa(c.N) }
func (c LastWeekday) String() string    { return strconv.Itoa(c.Weekday) + "L" }

// NewComposite returns the union of items. Nested composites are flattened
// and a single item is returned unwrapped.
func NewComposite(items ...Constraint) Constraint {
	flat := make([]Constraint, 0, len(items))
	for _, item := range items {
		if c, ok := item.(Composite); ok {
			flat = append(flat, c.Items...)
			continue
		}
		flat = append(flat, item)
	}
	if len(flat) == 1 {
		return flat[0]
	}
	return Composite{Items: flat}
}

// isConcrete reports whether c restricts the field, i.e. it is neither "*"
// nor "?".
func isConcrete(c Constraint) bool {
	switch c.(type) {
	case Always, Unspecified:
		return false
	}
	return true
}
