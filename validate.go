package cron

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// SpecAnalysis contains detailed information about a parsed cron specification.
type SpecAnalysis struct {
	// Valid indicates whether the spec was successfully parsed.
	Valid bool

	// Error contains the parsing error if Valid is false.
	Error error

	// Dialect is the name of the dialect the spec was parsed with.
	Dialect string

	// NextRun is the next execution time from now.
	// Zero if the spec is invalid or never fires again.
	NextRun time.Time

	// Location is the timezone for the schedule: the TZ= or CRON_TZ= prefix
	// if given, otherwise the location of the clock's current time.
	Location *time.Location

	// Fields maps field names ("second", "minute", ..., "year") to the
	// constraint of each field the dialect declares, in cron syntax.
	Fields map[string]string

	// IsDescriptor indicates if the spec uses a descriptor (@hourly, ...).
	IsDescriptor bool

	// Expression is the parsed expression. Nil if the spec is invalid.
	Expression *Expression

	// Warnings contains non-fatal warnings about the schedule.
	// These don't prevent parsing but may indicate unexpected behavior.
	Warnings []string
}

// ValidateSpec validates a cron expression of dialect d without evaluating
// it. It returns nil if the spec is valid, or an error describing the
// problem.
//
// Example:
//
//	if err := cron.ValidateSpec(userInput, cron.Quartz); err != nil {
//	    return fmt.Errorf("invalid cron expression: %w", err)
//	}
func ValidateSpec(spec string, d Dialect) error {
	parser, err := TryNewParser(d)
	if err != nil {
		return err
	}
	_, err = parser.Parse(spec)
	return err
}

// ValidateSpecWith validates a cron expression using a pre-configured
// Parser, such as one with caching enabled.
func ValidateSpecWith(spec string, parser Parser) error {
	if parser.dialect.Fields == nil {
		return errors.Mark(errors.New("cron: parser has no dialect"), ErrInvalidConstraint)
	}
	_, err := parser.Parse(spec)
	return err
}

// ValidateSpecs validates multiple cron expressions at once.
// It returns a map of index to error for any invalid specs.
// If all specs are valid, returns an empty map (not nil).
//
// This is useful for:
//   - Validating configuration files before deployment
//   - Bulk validation with detailed error reporting
//
// Example:
//
//	specs := []string{"* * * * *", "invalid", "0 9 * * MON-FRI", "bad"}
//	errs := cron.ValidateSpecs(specs, cron.Unix)
//	for idx, err := range errs {
//	    log.Printf("Spec %d is invalid: %v", idx, err)
//	}
func ValidateSpecs(specs []string, d Dialect) map[int]error {
	errs := make(map[int]error)
	parser, err := TryNewParser(d)
	if err != nil {
		for i := range specs {
			errs[i] = err
		}
		return errs
	}

	for i, spec := range specs {
		if _, err := parser.Parse(spec); err != nil {
			errs[i] = err
		}
	}

	return errs
}

// AnalyzeSpec provides detailed analysis of a cron expression of dialect d.
// The options configure the ExecutionTime used to find NextRun; WithClock
// controls what "now" is.
//
// Example:
//
//	result := cron.AnalyzeSpec("0 9 * * MON-FRI", cron.Unix)
//	if !result.Valid {
//	    log.Printf("Invalid: %v", result.Error)
//	} else {
//	    log.Printf("Next run: %v", result.NextRun)
//	    log.Printf("Fields: %v", result.Fields)
//	}
func AnalyzeSpec(spec string, d Dialect, opts ...Option) SpecAnalysis {
	result := SpecAnalysis{
		Dialect: d.Name,
		Fields:  make(map[string]string),
	}

	if len(strings.TrimSpace(spec)) == 0 {
		result.Error = ErrEmptySpec
		return result
	}

	parser, err := TryNewParser(d)
	if err != nil {
		result.Error = err
		return result
	}
	expr, err := parser.Parse(spec)
	if err != nil {
		result.Error = err
		return result
	}

	result.Valid = true
	result.Expression = expr
	_, rest, _ := parseTimezone(strings.TrimSpace(spec))
	result.IsDescriptor = strings.HasPrefix(rest, "@")
	for _, fs := range d.Fields {
		result.Fields[fs.Field.String()] = expr.Constraint(fs.Field).String()
	}

	et := NewExecutionTime(expr, opts...)
	now := et.clock.Now()
	result.Location = expr.Location()
	if result.Location == nil {
		result.Location = now.Location()
	}

	result.checkDayWarnings()

	next, err := et.Next(now)
	if err != nil {
		result.Warnings = append(result.Warnings, "no upcoming execution: "+err.Error())
	} else {
		result.NextRun = next
	}

	return result
}

// checkDayWarnings explains day-of-month/day-of-week interactions that
// commonly surprise people.
func (r *SpecAnalysis) checkDayWarnings() {
	e := r.Expression
	if e.domConcrete && e.dowConcrete {
		switch e.dialect.DayRule {
		case DayRuleUnion:
			r.Warnings = append(r.Warnings,
				"both day-of-month and day-of-week are restricted - a day matches when either of them does (OR logic)")
		case DayRuleIntersect:
			r.Warnings = append(r.Warnings,
				"both day-of-month and day-of-week are restricted - a day matches only when both do (AND logic)")
		}
	}
	if v, ok := highestDay(e.fields[DayOfMonth]); ok && v > 28 {
		r.Warnings = append(r.Warnings,
			"day-of-month "+e.fields[DayOfMonth].String()+" does not occur in every month; shorter months are skipped")
	}
}

// highestDay returns the largest plain day-of-month value c can match, if c
// names days explicitly.
func highestDay(c Constraint) (int, bool) {
	switch c := c.(type) {
	case Single:
		return c.Value, true
	case Range:
		if c.From > c.To {
			return 0, false
		}
		return c.To, true
	case Composite:
		best, found := 0, false
		for _, item := range c.Items {
			if v, ok := highestDay(item); ok && v > best {
				best, found = v, true
			}
		}
		return best, found
	}
	return 0, false
}
