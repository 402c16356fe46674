package cron

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
)

// Parser turns spec strings of one dialect into Expressions.
type Parser struct {
	dialect Dialect
	cache   *sync.Map // optional cache: spec string -> cacheEntry
}

// cacheEntry holds a cached parse result.
type cacheEntry struct {
	expr *Expression
	err  error
}

// TryNewParser creates a Parser for d, returning an error if the dialect is
// not coherent. Use it when dialects come from configuration.
func TryNewParser(d Dialect) (Parser, error) {
	if err := d.validate(); err != nil {
		return Parser{}, err
	}
	return Parser{dialect: d}, nil
}

// NewParser creates a Parser for d. It panics if the dialect is not
// coherent, which for the predefined dialects never happens.
//
// Examples
//
//	// Quartz expressions with seconds and an optional year
//	p := NewParser(Quartz)
//	expr, err := p.Parse("0 15 10 ? * MON-FRI")
//
//	// Spring expressions
//	expr, err := NewParser(Spring).Parse("0 0 9-17 * * MON-FRI")
func NewParser(d Dialect) Parser {
	p, err := TryNewParser(d)
	if err != nil {
		panic(err)
	}
	return p
}

// Dialect returns the dialect the parser accepts.
func (p Parser) Dialect() Dialect {
	return p.dialect
}

// WithCache returns a new Parser with caching enabled for parsed expressions.
// When caching is enabled, repeated calls to Parse with the same spec string
// return the cached result instead of re-parsing. Expressions are immutable,
// so sharing them is safe.
//
// The cache is thread-safe and grows unbounded. For applications with many
// unique spec strings, consider using a single shared parser instance.
func (p Parser) WithCache() Parser {
	p.cache = &sync.Map{}
	return p
}

// MaxSpecLength is the maximum allowed length for a cron spec string.
// This limit prevents potential resource exhaustion from extremely long inputs.
const MaxSpecLength = 1024

// parseTimezone extracts and validates the timezone from a spec string.
// Returns the location (nil when there is no prefix), the remaining spec
// string, and any error.
func parseTimezone(spec string) (*time.Location, string, error) {
	if !strings.HasPrefix(spec, "TZ=") && !strings.HasPrefix(spec, "CRON_TZ=") {
		return nil, spec, nil
	}

	i := strings.Index(spec, " ")
	if i == -1 {
		return nil, "", syntaxErrorf("missing fields after timezone in spec %q", spec)
	}

	eq := strings.Index(spec, "=")
	tzName := spec[eq+1 : i]

	if err := validateTimezone(tzName); err != nil {
		return nil, "", errors.Mark(errors.Wrapf(err, "invalid timezone %q", tzName), ErrSyntax)
	}

	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, "", errors.Mark(errors.Wrapf(err, "unknown time zone %q", tzName), ErrSyntax)
	}

	remaining := strings.TrimSpace(spec[i:])
	if len(remaining) == 0 {
		return nil, "", syntaxErrorf("missing fields after timezone %q", tzName)
	}

	return loc, remaining, nil
}

// Parse returns the Expression represented by spec, or a descriptive error.
// Lexical problems are reported as ErrSyntax, values the dialect does not
// allow as ErrInvalidConstraint.
//
// If caching is enabled via WithCache(), repeated calls with the same spec
// will return the cached result.
func (p Parser) Parse(spec string) (*Expression, error) {
	if p.cache != nil {
		if cached, ok := p.cache.Load(spec); ok {
			if entry, ok := cached.(cacheEntry); ok {
				return entry.expr, entry.err
			}
		}
	}

	expr, err := p.parse(spec)

	if p.cache != nil {
		p.cache.Store(spec, cacheEntry{expr: expr, err: err})
	}

	return expr, err
}

func (p Parser) parse(spec string) (*Expression, error) {
	source := strings.TrimSpace(spec)
	if len(source) == 0 {
		return nil, ErrEmptySpec
	}
	if len(spec) > MaxSpecLength {
		return nil, syntaxErrorf("spec too long: %d > %d", len(spec), MaxSpecLength)
	}

	loc, rest, err := parseTimezone(source)
	if err != nil {
		return nil, err
	}
	opts := []ExpressionOption{WithSource(source)}
	if loc != nil {
		opts = append(opts, WithLocation(loc))
	}

	d := p.dialect
	if strings.HasPrefix(rest, "@") {
		if !d.Descriptors {
			return nil, syntaxErrorf("dialect %q does not accept descriptors: %q", d.Name, rest)
		}
		fields, err := parseDescriptor(d, rest)
		if err != nil {
			return nil, err
		}
		return NewExpression(d, fields, opts...)
	}

	tokens := strings.Fields(rest)
	required := 0
	for _, fs := range d.Fields {
		if !fs.Optional {
			required++
		}
	}
	if count := len(tokens); count < required || count > len(d.Fields) {
		if required == len(d.Fields) {
			return nil, syntaxErrorf("expected exactly %d fields, found %d: %s", required, count, tokens)
		}
		return nil, syntaxErrorf("expected %d to %d fields, found %d: %s", required, len(d.Fields), count, tokens)
	}

	fields := make(map[Field]Constraint, len(tokens))
	for i, tok := range tokens {
		f := d.Fields[i].Field
		c, err := parseField(d, f, tok)
		if err != nil {
			return nil, err
		}
		fields[f] = c
	}
	return NewExpression(d, fields, opts...)
}

// parseField parses a comma-separated list of items.
func parseField(d Dialect, f Field, field string) (Constraint, error) {
	if field == "?" {
		return Unspecified{}, nil
	}
	b := d.bounds(f)
	items := strings.Split(field, ",")
	out := make([]Constraint, 0, len(items))
	for _, item := range items {
		if item == "" {
			return nil, syntaxf(f, field, "empty list item")
		}
		c, err := parseItem(d, f, item, b)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return NewComposite(out...), nil
}

// parseItem parses one list item:
//
//	"*" | "?" | value [ "-" value ] [ "/" number ] | "*/" number | special
//
// where special is one of the day tokens L, L-n, nW, LW, d#n, d#L and dL.
func parseItem(d Dialect, f Field, expr string, b bounds) (Constraint, error) {
	upper := strings.ToUpper(expr)
	switch f {
	case DayOfMonth:
		if c, ok, err := parseDayOfMonthSpecial(f, expr, upper); ok || err != nil {
			return c, err
		}
	case DayOfWeek:
		if c, ok, err := parseDayOfWeekSpecial(d, f, expr, upper, b); ok || err != nil {
			return c, err
		}
	}

	if expr == "?" {
		return Unspecified{}, nil
	}

	rangeAndStep := strings.Split(expr, "/")
	if len(rangeAndStep) > 2 {
		return nil, syntaxf(f, expr, "too many slashes")
	}
	lowAndHigh := strings.Split(rangeAndStep[0], "-")
	if len(lowAndHigh) > 2 {
		return nil, syntaxf(f, expr, "too many hyphens")
	}

	if len(rangeAndStep) == 1 {
		if lowAndHigh[0] == "*" {
			if len(lowAndHigh) > 1 {
				return nil, syntaxf(f, expr, "unexpected range after '*'")
			}
			return Always{}, nil
		}
		start, err := parseIntOrName(f, lowAndHigh[0], b.names)
		if err != nil {
			return nil, err
		}
		if len(lowAndHigh) == 1 {
			return Single{Value: start}, nil
		}
		end, err := parseIntOrName(f, lowAndHigh[1], b.names)
		if err != nil {
			return nil, err
		}
		return Range{From: start, To: end}, nil
	}

	step, err := parseInt(f, rangeAndStep[1])
	if err != nil {
		return nil, err
	}
	if step == 0 {
		return nil, invalidf(f, expr, "step of range must be a positive number")
	}

	// "*/s" and "n/s" run to the top of the domain. "*/1" is "*", which
	// matters to the day-of-month/day-of-week union rule.
	if lowAndHigh[0] == "*" {
		if len(lowAndHigh) > 1 {
			return nil, syntaxf(f, expr, "unexpected range after '*'")
		}
		if step == 1 {
			return Always{}, nil
		}
		return Every{Start: b.min, Period: step}, nil
	}
	start, err := parseIntOrName(f, lowAndHigh[0], b.names)
	if err != nil {
		return nil, err
	}
	if len(lowAndHigh) == 1 {
		return Every{Start: start, Period: step}, nil
	}
	end, err := parseIntOrName(f, lowAndHigh[1], b.names)
	if err != nil {
		return nil, err
	}
	if end < start || end == 0 {
		if end == start {
			return Single{Value: start}, nil
		}
		return nil, invalidf(f, expr, "beginning of range (%d) beyond end of range (%d)", start, end)
	}
	return Every{Start: start, End: end, Period: step}, nil
}

func parseDayOfMonthSpecial(f Field, expr, upper string) (Constraint, bool, error) {
	switch {
	case upper == "L":
		return LastDayOfMonth{}, true, nil
	case upper == "LW":
		return LastBusinessDay{}, true, nil
	case strings.HasPrefix(upper, "L-"):
		n, err := parseInt(f, expr[2:])
		if err != nil {
			return nil, true, err
		}
		return LastDayOfMonth{Offset: n}, true, nil
	case len(upper) > 1 && strings.HasSuffix(upper, "W"):
		n, err := parseInt(f, expr[:len(expr)-1])
		if err != nil {
			return nil, true, err
		}
		return NearestWeekday{Day: n}, true, nil
	}
	return nil, false, nil
}

func parseDayOfWeekSpecial(d Dialect, f Field, expr, upper string, b bounds) (Constraint, bool, error) {
	if upper == "L" {
		if !d.Allows(SpecialLastWeekday) {
			return nil, true, invalidf(f, expr, "dialect %q does not accept 'L'", d.Name)
		}
		return Single{Value: d.weekdayValue(time.Saturday)}, true, nil
	}
	if i := strings.Index(expr, "#"); i >= 0 {
		wd, err := parseIntOrName(f, expr[:i], b.names)
		if err != nil {
			return nil, true, err
		}
		if upper[i+1:] == "L" {
			return LastWeekday{Weekday: wd}, true, nil
		}
		n, err := parseInt(f, expr[i+1:])
		if err != nil {
			return nil, true, err
		}
		return NthWeekday{Weekday: wd, N: n}, true, nil
	}
	if len(upper) > 1 && strings.HasSuffix(upper, "L") {
		wd, err := parseIntOrName(f, expr[:len(expr)-1], b.names)
		if err != nil {
			return nil, true, err
		}
		return LastWeekday{Weekday: wd}, true, nil
	}
	return nil, false, nil
}

// parseDescriptor returns the fields of a predefined schedule.
func parseDescriptor(d Dialect, descriptor string) (map[Field]Constraint, error) {
	var (
		hour       Constraint = Single{Value: 0}
		dayOfMonth Constraint = Always{}
		month      Constraint = Always{}
		dayOfWeek  Constraint = Always{}
	)
	switch strings.ToLower(descriptor) {
	case "@yearly", "@annually":
		dayOfMonth, month = Single{Value: 1}, Single{Value: 1}
	case "@monthly":
		dayOfMonth = Single{Value: 1}
	case "@weekly":
		dayOfWeek = Single{Value: d.weekdayValue(time.Sunday)}
	case "@daily", "@midnight":
	case "@hourly":
		hour = Always{}
	default:
		if strings.HasPrefix(descriptor, "@every") {
			return nil, errors.WithHint(
				syntaxErrorf("interval descriptors are not cron expressions: %q", descriptor),
				"use a step such as \"*/15\" in the minute field")
		}
		return nil, syntaxErrorf("unrecognized descriptor: %q", descriptor)
	}

	if d.DayRule == DayRuleExclusive {
		if isConcrete(dayOfWeek) {
			dayOfMonth = Unspecified{}
		} else {
			dayOfWeek = Unspecified{}
		}
	}

	all := map[Field]Constraint{
		Second:     Single{Value: 0},
		Minute:     Single{Value: 0},
		Hour:       hour,
		DayOfMonth: dayOfMonth,
		Month:      month,
		DayOfWeek:  dayOfWeek,
	}
	fields := make(map[Field]Constraint, len(d.Fields))
	for _, fs := range d.Fields {
		if c, ok := all[fs.Field]; ok {
			fields[fs.Field] = c
		}
	}
	return fields, nil
}

// parseIntOrName returns the (possibly-named) integer contained in expr.
func parseIntOrName(f Field, expr string, names map[string]int) (int, error) {
	if names != nil {
		if namedInt, ok := names[strings.ToLower(expr)]; ok {
			return namedInt, nil
		}
	}
	return parseInt(f, expr)
}

// parseInt parses a non-negative decimal number.
func parseInt(f Field, expr string) (int, error) {
	num, err := strconv.Atoi(expr)
	if err != nil {
		return 0, syntaxf(f, expr, "failed to parse int")
	}
	if num < 0 {
		return 0, syntaxf(f, expr, "negative number (%d) not allowed", num)
	}
	return num, nil
}

// isValidTimezoneChar returns true if r is a valid character in a timezone name.
// Valid chars: letters, digits, slash, underscore, hyphen, plus, colon.
func isValidTimezoneChar(r rune) bool {
	if r >= 'A' && r <= 'Z' {
		return true
	}
	if r >= 'a' && r <= 'z' {
		return true
	}
	if r >= '0' && r <= '9' {
		return true
	}
	return r == '/' || r == '_' || r == '-' || r == '+' || r == ':'
}

// validateTimezone checks if the timezone string is safe to pass to time.LoadLocation.
// It enforces length limits and character restrictions to prevent DoS attacks via
// crafted timezone strings.
func validateTimezone(tz string) error {
	const maxTimezoneLen = 64 // IANA timezone names are well under this limit
	if len(tz) == 0 {
		return errors.New("empty timezone string")
	}
	if len(tz) > maxTimezoneLen {
		return errors.Newf("timezone string too long (max %d chars)", maxTimezoneLen)
	}
	for i, r := range tz {
		if !isValidTimezoneChar(r) {
			return errors.Newf("invalid character %q at position %d in timezone", r, i)
		}
	}
	return nil
}

var (
	standardParser = NewParser(Unix)
	quartzParser   = NewParser(Quartz)
)

// StandardParser returns a copy of the parser used by ParseStandard.
func StandardParser() Parser {
	return standardParser
}

// ParseStandard returns the Expression represented by a standard crontab
// spec (https://en.wikipedia.org/wiki/Cron). It requires 5 entries
// representing: minute, hour, day of month, month and day of week, in that
// order. It returns a descriptive error if the spec is not valid.
//
// It accepts
//   - Standard crontab specs, e.g. "* * * * *"
//   - Descriptors, e.g. "@midnight"
func ParseStandard(standardSpec string) (*Expression, error) {
	return standardParser.Parse(standardSpec)
}

// ParseQuartz returns the Expression represented by a Quartz spec, e.g.
// "0 0 12 ? * WED" or "0 15 10 L * ? 2030".
func ParseQuartz(spec string) (*Expression, error) {
	return quartzParser.Parse(spec)
}

// MustParse is like Parser.Parse for dialect d but panics if the spec cannot
// be parsed. It simplifies safe initialization of global variables.
func MustParse(d Dialect, spec string) *Expression {
	expr, err := NewParser(d).Parse(spec)
	if err != nil {
		panic(err)
	}
	return expr
}
