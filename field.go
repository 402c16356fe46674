package cron

import (
	"math"
	"strconv"
)

// Field identifies one component of a cron expression.
type Field int

// The fields a dialect may define, in increasing order of significance except
// for DayOfWeek, which shares the day slot with DayOfMonth.
const (
	Second Field = iota
	Minute
	Hour
	DayOfMonth
	Month
	DayOfWeek
	Year

	numFields = int(Year) + 1
)

var fieldNames = [numFields]string{
	"second",
	"minute",
	"hour",
	"day_of_month",
	"month",
	"day_of_week",
	"year",
}

// String returns the snake_case name of the field, e.g. "day_of_month".
func (f Field) String() string {
	if f < 0 || int(f) >= numFields {
		return "field(" + strconv.Itoa(int(f)) + ")"
	}
	return fieldNames[f]
}

// bounds provides a range of acceptable values (plus a map of name to value).
type bounds struct {
	min, max int
	names    map[string]int
}

func (b bounds) contains(v int) bool {
	return v >= b.min && v <= b.max
}

// The default bounds for each field. DayOfWeek and Year are overridden per
// dialect.
var (
	seconds = bounds{0, 59, nil}
	minutes = bounds{0, 59, nil}
	hours   = bounds{0, 23, nil}
	dom     = bounds{1, 31, nil}
	months  = bounds{1, 12, map[string]int{
		"jan": 1,
		"feb": 2,
		"mar": 3,
		"apr": 4,
		"may": 5,
		"jun": 6,
		"jul": 7,
		"aug": 8,
		"sep": 9,
		"oct": 10,
		"nov": 11,
		"dec": 12,
	}}
	dow   = bounds{0, 7, nil}
	years = bounds{1, math.MaxInt32, nil}
)

var defaultBounds = [numFields]bounds{
	Second:     seconds,
	Minute:     minutes,
	Hour:       hours,
	DayOfMonth: dom,
	Month:      months,
	DayOfWeek:  dow,
	Year:       years,
}

var weekdayNames = [7]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}
