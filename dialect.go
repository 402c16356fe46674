package cron

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// DayRule decides how DayOfMonth and DayOfWeek combine.
type DayRule int

const (
	// DayRuleUnion matches a day when either field matches, provided both are
	// restricted. If one of them is "*" or "?", only the other one counts.
	// This is the classic Vixie cron behaviour.
	DayRuleUnion DayRule = iota

	// DayRuleExclusive requires exactly one of the two fields to be "?" and
	// evaluates the other one (Quartz).
	DayRuleExclusive

	// DayRuleIntersect requires both fields to match.
	DayRuleIntersect
)

var dayRuleNames = map[DayRule]string{
	DayRuleUnion:     "union",
	DayRuleExclusive: "exclusive",
	DayRuleIntersect: "intersect",
}

func (r DayRule) String() string {
	if name, ok := dayRuleNames[r]; ok {
		return name
	}
	return "unknown"
}

// Special is a set of optional tokens a dialect accepts.
type Special uint

// Special tokens.
const (
	SpecialUnspecified     Special = 1 << iota // "?" in day-of-month or day-of-week
	SpecialLastDay                             // "L" and "L-n" in day-of-month
	SpecialNearestWeekday                      // "nW" in day-of-month
	SpecialLastBusinessDay                     // "LW" in day-of-month
	SpecialNthWeekday                          // "d#n" in day-of-week
	SpecialLastWeekday                         // "dL" and "d#L" in day-of-week

	SpecialAll = SpecialUnspecified | SpecialLastDay | SpecialNearestWeekday |
		SpecialLastBusinessDay | SpecialNthWeekday | SpecialLastWeekday
)

// FieldSpec declares one field of a dialect and its legal domain.
type FieldSpec struct {
	Field    Field
	Min, Max int
	// Optional fields may be omitted from the end of an expression.
	Optional bool
}

// Dialect describes a cron variant: which fields exist and in which order,
// how days of the week are numbered, how the two day fields combine and
// which special tokens are accepted.
//
// Dialects are configuration values. The predefined ones must not be
// modified; derive a copy instead.
type Dialect struct {
	Name   string
	Fields []FieldSpec

	// Monday is the numeric value of Monday in the day-of-week field. Sunday
	// is Monday-1 and, when the domain reaches Monday+6, also Monday+6. A
	// domain starting at Monday numbers Sunday Monday+6 only.
	Monday int

	DayRule  DayRule
	Specials Special

	// Descriptors enables @yearly, @monthly, @weekly, @daily, @midnight and
	// @hourly.
	Descriptors bool
}

// The predefined dialects.
var (
	// Unix is the classic five field crontab: minute hour dom month dow.
	Unix = Dialect{
		Name: "unix",
		Fields: []FieldSpec{
			{Field: Minute, Min: 0, Max: 59},
			{Field: Hour, Min: 0, Max: 23},
			{Field: DayOfMonth, Min: 1, Max: 31},
			{Field: Month, Min: 1, Max: 12},
			{Field: DayOfWeek, Min: 0, Max: 7},
		},
		Monday:      1,
		DayRule:     DayRuleUnion,
		Descriptors: true,
	}

	// Cron4j is the five field format of the cron4j scheduler, which also
	// accepts "L" in the day-of-month field.
	Cron4j = Dialect{
		Name: "cron4j",
		Fields: []FieldSpec{
			{Field: Minute, Min: 0, Max: 59},
			{Field: Hour, Min: 0, Max: 23},
			{Field: DayOfMonth, Min: 1, Max: 31},
			{Field: Month, Min: 1, Max: 12},
			{Field: DayOfWeek, Min: 0, Max: 6},
		},
		Monday:   1,
		DayRule:  DayRuleUnion,
		Specials: SpecialLastDay,
	}

	// Quartz is the Quartz scheduler format: second minute hour dom month dow
	// [year], with Sunday=1 and a mandatory "?" in one of the day fields.
	Quartz = Dialect{
		Name: "quartz",
		Fields: []FieldSpec{
			{Field: Second, Min: 0, Max: 59},
			{Field: Minute, Min: 0, Max: 59},
			{Field: Hour, Min: 0, Max: 23},
			{Field: DayOfMonth, Min: 1, Max: 31},
			{Field: Month, Min: 1, Max: 12},
			{Field: DayOfWeek, Min: 1, Max: 7},
			{Field: Year, Min: 1970, Max: 2099, Optional: true},
		},
		Monday:   2,
		DayRule:  DayRuleExclusive,
		Specials: SpecialAll,
	}

	// Spring is the six field format of Spring's CronExpression: second
	// minute hour dom month dow.
	Spring = Dialect{
		Name: "spring",
		Fields: []FieldSpec{
			{Field: Second, Min: 0, Max: 59},
			{Field: Minute, Min: 0, Max: 59},
			{Field: Hour, Min: 0, Max: 23},
			{Field: DayOfMonth, Min: 1, Max: 31},
			{Field: Month, Min: 1, Max: 12},
			{Field: DayOfWeek, Min: 0, Max: 7},
		},
		Monday:      1,
		DayRule:     DayRuleUnion,
		Specials:    SpecialAll,
		Descriptors: true,
	}
)

var predefinedDialects = []Dialect{Unix, Cron4j, Quartz, Spring}

// Dialects returns the predefined dialects.
func Dialects() []Dialect {
	out := make([]Dialect, len(predefinedDialects))
	copy(out, predefinedDialects)
	return out
}

// DialectByName looks up a predefined dialect, ignoring case.
func DialectByName(name string) (Dialect, bool) {
	for _, d := range predefinedDialects {
		if strings.EqualFold(d.Name, name) {
			return d, true
		}
	}
	return Dialect{}, false
}

// Allows reports whether the dialect accepts all of the given special tokens.
func (d Dialect) Allows(s Special) bool {
	return d.Specials&s == s
}

// Spec returns the declaration of f, if the dialect defines it.
func (d Dialect) Spec(f Field) (FieldSpec, bool) {
	for _, fs := range d.Fields {
		if fs.Field == f {
			return fs, true
		}
	}
	return FieldSpec{}, false
}

// bounds returns the domain of f in this dialect, including names.
func (d Dialect) bounds(f Field) bounds {
	b := defaultBounds[f]
	if fs, ok := d.Spec(f); ok {
		b.min, b.max = fs.Min, fs.Max
	}
	if f == DayOfWeek {
		b.names = make(map[string]int, len(weekdayNames))
		for w, name := range weekdayNames {
			b.names[name] = d.weekdayValue(time.Weekday(w))
		}
	}
	return b
}

// weekdayValue returns the canonical numeric value of w. Sunday is
// Monday-1 unless the domain starts at Monday.
func (d Dialect) weekdayValue(w time.Weekday) int {
	if w != time.Sunday {
		return d.Monday + int(w) - 1
	}
	if fs, ok := d.Spec(DayOfWeek); ok && d.Monday-1 < fs.Min {
		return d.Monday + 6
	}
	return d.Monday - 1
}

// sundayAlias returns the second value for Sunday, if the domain has one.
func (d Dialect) sundayAlias() (int, bool) {
	b := defaultBounds[DayOfWeek]
	if fs, ok := d.Spec(DayOfWeek); ok {
		b.max = fs.Max
	}
	alias := d.Monday + 6
	return alias, alias <= b.max
}

// weekdayOf maps a day-of-week value back to a weekday.
func (d Dialect) weekdayOf(v int) time.Weekday {
	if v == d.Monday-1 || v == d.Monday+6 {
		return time.Sunday
	}
	return time.Weekday(v - d.Monday + 1)
}

// validate checks that the dialect itself is coherent. The predefined
// dialects always are; custom ones are checked when loaded. Failures match
// ErrInvalidConstraint.
func (d Dialect) validate() error {
	if err := d.check(); err != nil {
		return errors.Mark(err, ErrInvalidConstraint)
	}
	return nil
}

func (d Dialect) check() error {
	if len(d.Fields) == 0 {
		return errors.Newf("dialect %q defines no fields", d.Name)
	}
	seenOptional := false
	for i, fs := range d.Fields {
		if fs.Field < 0 || int(fs.Field) >= numFields {
			return errors.Newf("dialect %q: unknown field %d", d.Name, fs.Field)
		}
		if i > 0 && fs.Field <= d.Fields[i-1].Field {
			return errors.Newf("dialect %q: fields must be declared in order second, minute, hour, day_of_month, month, day_of_week, year", d.Name)
		}
		if fs.Optional {
			seenOptional = true
		} else if seenOptional {
			return errors.Newf("dialect %q: optional fields must come last", d.Name)
		}
		if fs.Min > fs.Max {
			return errors.Newf("dialect %q: %s domain %d-%d is empty", d.Name, fs.Field, fs.Min, fs.Max)
		}
		if fs.Field != DayOfWeek && fs.Field != Year {
			def := defaultBounds[fs.Field]
			if fs.Min != def.min || fs.Max != def.max {
				return errors.Newf("dialect %q: %s domain must be %d-%d", d.Name, fs.Field, def.min, def.max)
			}
		}
		if fs.Field == Year && fs.Min < years.min {
			return errors.Newf("dialect %q: year floor %d below %d", d.Name, fs.Min, years.min)
		}
		if fs.Field == DayOfWeek && (d.Monday < fs.Min || d.Monday+5 > fs.Max ||
			d.Monday-1 < fs.Min && d.Monday+6 > fs.Max) {
			return errors.Newf("dialect %q: day_of_week domain %d-%d cannot number a week starting Monday=%d",
				d.Name, fs.Min, fs.Max, d.Monday)
		}
	}
	if d.DayRule == DayRuleExclusive {
		_, hasDom := d.Spec(DayOfMonth)
		_, hasDow := d.Spec(DayOfWeek)
		if !hasDom || !hasDow || !d.Allows(SpecialUnspecified) {
			return errors.Newf("dialect %q: exclusive day rule needs both day fields and the '?' token", d.Name)
		}
	}
	if _, ok := dayRuleNames[d.DayRule]; !ok {
		return errors.Newf("dialect %q: unknown day rule %d", d.Name, d.DayRule)
	}
	return nil
}
