package cron

import (
	"time"

	"github.com/cockroachdb/errors"
)

// DefaultMaxIterations bounds the work a single query may do: every carry
// between fields and every hop across a UTC offset change costs one pass.
const DefaultMaxIterations = 10000

// ExecutionTime answers scheduling questions for one Expression.
//
// All methods are pure functions of the expression and the reference time
// they are given; an ExecutionTime may be used from many goroutines at once.
// Results are returned in the location of the reference time.
type ExecutionTime struct {
	expr          *Expression
	calendar      Calendar
	logger        Logger
	clock         Clock
	maxIterations int
	maxYears      int
}

// Option represents a modification to the default behavior of an
// ExecutionTime.
type Option func(*ExecutionTime)

// WithCalendar replaces the calendar used to lay out months and UTC offsets.
func WithCalendar(cal Calendar) Option {
	return func(et *ExecutionTime) {
		et.calendar = cal
	}
}

// WithLogger uses the provided logger. Failed searches are logged at error
// level; nothing is logged on success.
func WithLogger(logger Logger) Option {
	return func(et *ExecutionTime) {
		et.logger = logger
	}
}

// WithClock uses the provided Clock wherever "now" is needed, such as in
// AnalyzeSpec.
func WithClock(clock Clock) Option {
	return func(et *ExecutionTime) {
		et.clock = clock
	}
}

// WithMaxIterations sets the number of passes a single Next or Last may
// spend before giving up with ErrUnsatisfiable. Values below 1 restore the
// default.
func WithMaxIterations(n int) Option {
	return func(et *ExecutionTime) {
		et.maxIterations = n
	}
}

// WithMaxSearchYears limits how many years away from the reference time a
// search may look. Zero, the default, leaves only the iteration budget.
//
// Expressions that fire once in a long while (a leap day that must also be
// a Monday fires every 5 to 11 years) need a generous horizon.
func WithMaxSearchYears(years int) Option {
	return func(et *ExecutionTime) {
		et.maxYears = years
	}
}

// NewExecutionTime returns an ExecutionTime for expr.
func NewExecutionTime(expr *Expression, opts ...Option) *ExecutionTime {
	et := &ExecutionTime{
		expr:          expr,
		calendar:      SystemCalendar{},
		logger:        DiscardLogger,
		clock:         RealClock{},
		maxIterations: DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(et)
	}
	if et.maxIterations < 1 {
		et.maxIterations = DefaultMaxIterations
	}
	if et.maxYears < 0 {
		et.maxYears = 0
	}
	if et.calendar == nil {
		et.calendar = SystemCalendar{}
	}
	if et.logger == nil {
		et.logger = DiscardLogger
	}
	if et.clock == nil {
		et.clock = RealClock{}
	}
	return et
}

// Expression returns the expression being evaluated.
func (et *ExecutionTime) Expression() *Expression {
	return et.expr
}

// Next returns the first time strictly after ref that matches the
// expression.
//
// Wall times that do not exist because of a daylight saving gap never match.
// Wall times that occur twice because of a fold match at both instants.
func (et *ExecutionTime) Next(ref time.Time) (time.Time, error) {
	return et.search(ref, forward)
}

// Last returns the latest time strictly before ref that matches the
// expression.
func (et *ExecutionTime) Last(ref time.Time) (time.Time, error) {
	return et.search(ref, backward)
}

// TimeToNext returns the duration from ref to Next(ref).
func (et *ExecutionTime) TimeToNext(ref time.Time) (time.Duration, error) {
	next, err := et.Next(ref)
	if err != nil {
		return 0, err
	}
	return next.Sub(ref), nil
}

// TimeFromLast returns the duration from Last(ref) to ref.
func (et *ExecutionTime) TimeFromLast(ref time.Time) (time.Duration, error) {
	last, err := et.Last(ref)
	if err != nil {
		return 0, err
	}
	return ref.Sub(last), nil
}

// IsMatch reports whether ref, ignoring its sub-second part, matches the
// expression.
func (et *ExecutionTime) IsMatch(ref time.Time) bool {
	ev := evaluator{expr: et.expr, cal: et.calendar}
	return ev.matches(CivilOf(ref.In(et.location(ref))))
}

// NextN returns the next n matches after ref in increasing order. It stops at
// the first failure and returns the matches found so far with the error.
func (et *ExecutionTime) NextN(ref time.Time, n int) ([]time.Time, error) {
	return et.chain(ref, n, et.Next)
}

// LastN returns the previous n matches before ref in decreasing order. It
// stops at the first failure and returns the matches found so far with the
// error.
func (et *ExecutionTime) LastN(ref time.Time, n int) ([]time.Time, error) {
	return et.chain(ref, n, et.Last)
}

func (et *ExecutionTime) chain(ref time.Time, n int, step func(time.Time) (time.Time, error)) ([]time.Time, error) {
	out := make([]time.Time, 0, max(n, 0))
	for range n {
		t, err := step(ref)
		if err != nil {
			return out, err
		}
		out = append(out, t)
		ref = t
	}
	return out, nil
}

func (et *ExecutionTime) location(ref time.Time) *time.Location {
	if loc := et.expr.location; loc != nil {
		return loc
	}
	return ref.Location()
}

func (et *ExecutionTime) search(ref time.Time, dir direction) (time.Time, error) {
	s := &searcher{
		ev:      evaluator{expr: et.expr, cal: et.calendar},
		budget:  et.maxIterations,
		horizon: et.maxYears,
	}
	t, err := s.find(ref, et.location(ref), dir)
	if err != nil {
		err = errors.WithDetailf(err, "expression %q, reference %s, %d passes",
			et.expr.String(), ref.Format(time.RFC3339Nano), s.used)
		et.logger.Error(err, "search failed",
			"direction", dir.String(),
			"expression", et.expr.String(),
			"reference", ref,
			"passes", s.used)
		return time.Time{}, err
	}
	et.logger.Info("search",
		"direction", dir.String(),
		"expression", et.expr.String(),
		"reference", ref,
		"result", t,
		"passes", s.used)
	return t.In(ref.Location()), nil
}
