package cron

import (
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// Expression is a validated cron expression: one constraint per field of a
// dialect. It is immutable and may be shared between goroutines.
type Expression struct {
	dialect  Dialect
	fields   [numFields]Constraint
	location *time.Location
	source   string
	domains  [numFields]bounds

	// day pair, resolved once from the dialect's rule
	domConcrete, dowConcrete bool
}

// ExpressionOption configures an Expression under construction.
type ExpressionOption func(*Expression)

// WithLocation evaluates the expression in loc instead of the location of
// each reference time. Results are converted back to the reference's
// location.
func WithLocation(loc *time.Location) ExpressionOption {
	return func(e *Expression) {
		e.location = loc
	}
}

// WithSource records the text the expression was parsed from.
func WithSource(spec string) ExpressionOption {
	return func(e *Expression) {
		e.source = spec
	}
}

// NewExpression builds an Expression for dialect d. Fields the dialect
// declares as required must be present in fields; optional and undeclared
// fields take their defaults (0 for time fields, "*" for the others).
// Supplying a field the dialect does not declare is an error.
//
// Every constraint is checked against its field's domain and the dialect's
// special tokens. Violations are reported as ErrInvalidConstraint.
func NewExpression(d Dialect, fields map[Field]Constraint, opts ...ExpressionOption) (*Expression, error) {
	e := &Expression{dialect: d}
	for _, opt := range opts {
		opt(e)
	}

	for f := Field(0); int(f) < numFields; f++ {
		fs, declared := d.Spec(f)
		c, given := fields[f]
		switch {
		case !declared && given:
			return nil, invalidf(f, constraintText(c), "field not defined by dialect %q", d.Name)
		case !declared, !given && fs.Optional:
			c = defaultConstraint(f)
		case !given || c == nil:
			return nil, invalidf(f, "", "required field missing")
		}
		if comp, ok := c.(Composite); ok {
			c = NewComposite(comp.Items...)
		}
		if err := validateConstraint(d, f, c, false); err != nil {
			return nil, err
		}
		e.fields[f] = c
		e.domains[f] = d.bounds(f)
	}

	if err := e.validateDayPair(); err != nil {
		return nil, err
	}
	e.domConcrete = isConcrete(e.fields[DayOfMonth])
	e.dowConcrete = isConcrete(e.fields[DayOfWeek])
	return e, nil
}

func defaultConstraint(f Field) Constraint {
	switch f {
	case Second, Minute, Hour:
		return Single{Value: 0}
	}
	return Always{}
}

func constraintText(c Constraint) string {
	if c == nil {
		return ""
	}
	return c.String()
}

func (e *Expression) validateDayPair() error {
	_, domU := e.fields[DayOfMonth].(Unspecified)
	_, dowU := e.fields[DayOfWeek].(Unspecified)
	if domU && dowU {
		return errors.WithHint(
			invalidf(DayOfWeek, "?", "'?' may not be used in both day_of_month and day_of_week"),
			"replace one of them with '*' or a concrete value")
	}
	if e.dialect.DayRule == DayRuleExclusive && !domU && !dowU {
		return errors.WithHintf(
			invalidf(DayOfWeek, e.fields[DayOfWeek].String(),
				"one of day_of_month and day_of_week must be '?'"),
			"dialect %q requires '?' in exactly one of the day fields, e.g. \"0 0 12 ? * MON\"",
			e.dialect.Name)
	}
	return nil
}

func validateConstraint(d Dialect, f Field, c Constraint, nested bool) error {
	b := d.bounds(f)
	inDomain := func(v int, what string) error {
		if v < b.min {
			return invalidf(f, constraintText(c), "%s (%d) below minimum (%d)", what, v, b.min)
		}
		if v > b.max {
			return invalidf(f, constraintText(c), "%s (%d) above maximum (%d)", what, v, b.max)
		}
		return nil
	}
	onlyOn := func(want Field, token Special, name string) error {
		if f != want {
			return invalidf(f, constraintText(c), "%s is only allowed in %s", name, want)
		}
		if !d.Allows(token) {
			return invalidf(f, constraintText(c), "dialect %q does not accept %s", d.Name, name)
		}
		return nil
	}

	switch c := c.(type) {
	case nil:
		return invalidf(f, "", "missing constraint")
	case Always:
		return nil
	case Unspecified:
		if nested {
			return invalidf(f, "?", "'?' cannot be part of a list")
		}
		if f != DayOfMonth && f != DayOfWeek {
			return errors.WithHint(
				invalidf(f, "?", "'?' is only allowed in day_of_month or day_of_week"),
				"use '*' to match every value")
		}
		if !d.Allows(SpecialUnspecified) {
			return errors.WithHint(
				invalidf(f, "?", "dialect %q does not accept '?'", d.Name),
				"use '*' instead")
		}
		return nil
	case Single:
		return inDomain(c.Value, "value")
	case Range:
		if err := inDomain(c.From, "beginning of range"); err != nil {
			return err
		}
		if err := inDomain(c.To, "end of range"); err != nil {
			return err
		}
		if c.To < c.From && f == Year {
			return invalidf(f, c.String(), "beginning of range (%d) beyond end of range (%d)", c.From, c.To)
		}
		return nil
	case Every:
		if c.Period <= 0 {
			return invalidf(f, c.String(), "step of range must be a positive number")
		}
		if err := inDomain(c.Start, "beginning of range"); err != nil {
			return err
		}
		if c.End != 0 {
			if err := inDomain(c.End, "end of range"); err != nil {
				return err
			}
			if c.End < c.Start {
				return invalidf(f, c.String(), "beginning of range (%d) beyond end of range (%d)", c.Start, c.End)
			}
		}
		return nil
	case Composite:
		if len(c.Items) == 0 {
			return invalidf(f, "", "empty list")
		}
		for _, item := range c.Items {
			if _, ok := item.(Composite); ok {
				return invalidf(f, c.String(), "nested list")
			}
			if err := validateConstraint(d, f, item, true); err != nil {
				return err
			}
		}
		return nil
	case LastDayOfMonth:
		if err := onlyOn(DayOfMonth, SpecialLastDay, "'L'"); err != nil {
			return err
		}
		if c.Offset < 0 || c.Offset > 30 {
			return invalidf(f, c.String(), "offset from last day must be between 0 and 30")
		}
		return nil
	case NearestWeekday:
		if err := onlyOn(DayOfMonth, SpecialNearestWeekday, "'W'"); err != nil {
			return err
		}
		return inDomain(c.Day, "day")
	case LastBusinessDay:
		return onlyOn(DayOfMonth, SpecialLastBusinessDay, "'LW'")
	case NthWeekday:
		if err := onlyOn(DayOfWeek, SpecialNthWeekday, "'#'"); err != nil {
			return err
		}
		if c.N < 1 || c.N > 5 {
			return invalidf(f, c.String(), "occurrence (%d) must be between 1 and 5", c.N)
		}
		return inDomain(c.Weekday, "weekday")
	case LastWeekday:
		if err := onlyOn(DayOfWeek, SpecialLastWeekday, "'L'"); err != nil {
			return err
		}
		return inDomain(c.Weekday, "weekday")
	default:
		return invalidf(f, "", "unsupported constraint %T", c)
	}
}

// Dialect returns the dialect the expression was built for.
func (e *Expression) Dialect() Dialect {
	return e.dialect
}

// Constraint returns the constraint of field f. Fields the dialect does not
// declare report their defaults.
func (e *Expression) Constraint(f Field) Constraint {
	return e.fields[f]
}

// Location returns the location override, or nil when the expression is
// evaluated in each reference time's own location.
func (e *Expression) Location() *time.Location {
	return e.location
}

// String returns the source text, or a canonical rendering when the
// expression was built programmatically.
func (e *Expression) String() string {
	if e.source != "" {
		return e.source
	}
	var sb strings.Builder
	if e.location != nil {
		sb.WriteString("CRON_TZ=" + e.location.String() + " ")
	}
	for i, fs := range e.dialect.Fields {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(e.fields[fs.Field].String())
	}
	return sb.String()
}

// GoString helps when expressions show up in test failures.
func (e *Expression) GoString() string {
	return "cron.Expression(" + strconv.Quote(e.String()) + ")"
}
