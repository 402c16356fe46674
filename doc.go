/*
Package cron parses cron expressions of several dialects and computes when
they fire: the next and previous matching times, the time until the next
one, the time since the last one, and whether a given time matches.

# Installation

To download the package, run:

	go get github.com/deb-sandeep/cron-utils

Import it in your program as:

	import cron "github.com/deb-sandeep/cron-utils"

It requires Go 1.25 or later.

# Usage

Parse an expression with the parser of its dialect and ask an ExecutionTime
about it:

	expr, err := cron.ParseQuartz("0 0/15 9-17 ? * MON-FRI")
	if err != nil {
		return err
	}
	et := cron.NewExecutionTime(expr)
	next, err := et.Next(time.Now())      // strictly after now
	last, err := et.Last(time.Now())      // strictly before now
	wait, err := et.TimeToNext(time.Now())
	ok := et.IsMatch(time.Now())          // sub-second part ignored

Queries are pure: they depend only on the expression and the reference time,
never on a clock, and an ExecutionTime may be shared between goroutines.
Results are returned in the location of the reference time.

# Dialects

A Dialect fixes the field layout and the rules of one cron variant.

	Dialect | Fields                                | Day of week      | Day rule
	------- | ------------------------------------- | ---------------- | ---------
	Unix    | min hour dom month dow                | 0-7, Sunday=0/7  | union
	Cron4j  | min hour dom month dow                | 0-6, Sunday=0    | union
	Quartz  | sec min hour dom month dow [year]     | 1-7, Sunday=1    | exclusive
	Spring  | sec min hour dom month dow            | 0-7, Sunday=0/7  | union

With the union rule a day matches when either day-of-month or day-of-week
matches, provided both are restricted; if one of them is "*" only the other
counts. The exclusive rule requires "?" in exactly one of the two fields.
Custom dialects may also use the intersect rule, where both must match.

Custom dialects can be declared in code or loaded with LoadDialectYAML.

# CRON Expression Format

Month and day-of-week names ("JAN", "mon") are case insensitive.

	Field name   | Allowed values    | Allowed special characters
	----------   | --------------    | --------------------------
	Seconds      | 0-59              | * / , -
	Minutes      | 0-59              | * / , -
	Hours        | 0-23              | * / , -
	Day of month | 1-31              | * / , - ? L W
	Month        | 1-12 or JAN-DEC   | * / , -
	Day of week  | dialect, SUN-SAT  | * / , - ? L #
	Year         | dialect           | * / , -

# Special Characters

Asterisk ( * ) matches every value of the field.

Slash ( / ) describes increments: 3-59/15 in the minute field means minute 3
and every 15 minutes thereafter up to 59. "*\/15" starts at the first value of
the field and "N/15" at N; both run to the end of the field and do not wrap.

Comma ( , ) separates list items: "MON,WED,FRI".

Hyphen ( - ) defines inclusive ranges: 9-17. A range whose end is below its
start wraps around the end of the field, so 22-2 in the hour field means
22, 23, 0, 1 and 2. Years never wrap.

Question mark ( ? ) leaves day-of-month or day-of-week unspecified, deferring
the day decision to the other field.

The following are available when the dialect accepts them:

	L        - Last day of the month (day of month)
	L-3      - Third from last day of the month
	15W      - Weekday nearest the 15th, never leaving the month
	LW       - Last weekday of the month
	FRI#3    - Third Friday of the month (day of week)
	FRI#L    - Last Friday of the month, also written 6L in Quartz numbering
	L        - Saturday (day of week)

# Predefined schedules

Dialects with descriptors accept:

	Entry                  | Description                                | Equivalent To
	-----                  | -----------                                | -------------
	@yearly (or @annually) | Run once a year, midnight, Jan. 1st        | 0 0 1 1 *
	@monthly               | Run once a month, midnight, first of month | 0 0 1 * *
	@weekly                | Run once a week, midnight between Sat/Sun  | 0 0 * * 0
	@daily (or @midnight)  | Run once a day, midnight                   | 0 0 * * *
	@hourly                | Run once an hour, beginning of hour        | 0 * * * *

# Time zones

An expression is evaluated in the location of each reference time unless it
carries a "CRON_TZ=Asia/Tokyo" prefix (or the legacy "TZ=Asia/Tokyo"), in which
case it is evaluated in that zone and results are converted back.

# Daylight Saving Time (DST) Handling

Matches are computed on the local wall clock and then mapped to instants:

  - Wall times skipped by a spring-forward transition do not exist and never
    match. A daily 02:30 job in New York does not fire on the day clocks jump
    from 02:00 to 03:00.
  - Wall times repeated by a fall-back transition exist twice and match at
    both instants, in order. Use CRON_TZ=UTC for jobs that must run exactly
    once per wall-clock slot.

# Error Handling

Errors match one of ErrSyntax, ErrInvalidConstraint, ErrUnsatisfiable or
ErrCalendarResolution under errors.Is. Parse errors are *ValidationError
values naming the field and the offending text; many carry a hint that
errors.FlattenHints from github.com/cockroachdb/errors renders.

A search that exhausts its budget (WithMaxIterations) or horizon
(WithMaxSearchYears) fails with ErrUnsatisfiable, as does an expression whose
years all lie in the past.
*/
package cron
