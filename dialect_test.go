package cron

import (
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredefinedDialects(t *testing.T) {
	names := make([]string, 0, 4)
	for _, d := range Dialects() {
		require.NoError(t, d.validate(), d.Name)
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"unix", "cron4j", "quartz", "spring"}, names)

	d, ok := DialectByName("Quartz")
	require.True(t, ok)
	assert.Equal(t, DayRuleExclusive, d.DayRule)
	assert.Equal(t, 2, d.Monday)

	_, ok = DialectByName("vixie")
	assert.False(t, ok)
}

func TestDialectsReturnsACopy(t *testing.T) {
	ds := Dialects()
	ds[0].Name = "changed"
	assert.Equal(t, "unix", Dialects()[0].Name)
}

func TestDialectAllows(t *testing.T) {
	assert.True(t, Quartz.Allows(SpecialUnspecified|SpecialNthWeekday))
	assert.True(t, Cron4j.Allows(SpecialLastDay))
	assert.False(t, Cron4j.Allows(SpecialLastDay|SpecialNearestWeekday))
	assert.False(t, Unix.Allows(SpecialUnspecified))
}

func TestDialectSpecAndBounds(t *testing.T) {
	fs, ok := Quartz.Spec(Year)
	require.True(t, ok)
	assert.True(t, fs.Optional)
	assert.Equal(t, 1970, fs.Min)

	_, ok = Unix.Spec(Second)
	assert.False(t, ok)

	b := Quartz.bounds(DayOfWeek)
	assert.Equal(t, 1, b.min)
	assert.Equal(t, 7, b.max)
	assert.Equal(t, 1, b.names["sun"])
	assert.Equal(t, 2, b.names["mon"])

	b = Unix.bounds(DayOfWeek)
	assert.Equal(t, 0, b.names["sun"])
	assert.Equal(t, 6, b.names["sat"])
}

func TestDialectValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Dialect)
		msg    string
	}{
		{"no fields", func(d *Dialect) { d.Fields = nil }, "defines no fields"},
		{"out of order", func(d *Dialect) {
			d.Fields = []FieldSpec{{Field: Hour, Max: 23}, {Field: Minute, Max: 59}}
		}, "must be declared in order"},
		{"optional not last", func(d *Dialect) {
			d.Fields = []FieldSpec{{Field: Minute, Max: 59, Optional: true}, {Field: Hour, Max: 23}}
		}, "optional fields must come last"},
		{"empty domain", func(d *Dialect) {
			d.Fields = []FieldSpec{{Field: DayOfWeek, Min: 6, Max: 0}}
		}, "is empty"},
		{"narrowed hours", func(d *Dialect) {
			d.Fields = []FieldSpec{{Field: Hour, Min: 0, Max: 11}}
		}, "hour domain must be 0-23"},
		{"year before 1", func(d *Dialect) {
			d.Fields = []FieldSpec{{Field: Year, Min: 0, Max: 3000}}
		}, "year floor"},
		{"week does not fit", func(d *Dialect) {
			d.Monday = 3
			d.Fields = []FieldSpec{{Field: DayOfWeek, Min: 0, Max: 7}}
		}, "cannot number a week"},
		{"exclusive without ?", func(d *Dialect) {
			d.DayRule = DayRuleExclusive
			d.Specials = 0
		}, "exclusive day rule"},
		{"unknown rule", func(d *Dialect) { d.DayRule = DayRule(42) }, "unknown day rule"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Unix
			d.Fields = append([]FieldSpec(nil), Unix.Fields...)
			tt.mutate(&d)
			err := d.validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
			assert.True(t, errors.Is(err, ErrInvalidConstraint), "%v is not an invalid constraint", err)
			assert.False(t, errors.Is(err, ErrSyntax))
		})
	}
}

func TestCustomDialect(t *testing.T) {
	// A Monday-first week numbered 1-7 with Quartz-style specials but the
	// classic OR day rule.
	d := Dialect{
		Name: "iso",
		Fields: []FieldSpec{
			{Field: Minute, Min: 0, Max: 59},
			{Field: Hour, Min: 0, Max: 23},
			{Field: DayOfMonth, Min: 1, Max: 31},
			{Field: Month, Min: 1, Max: 12},
			{Field: DayOfWeek, Min: 1, Max: 7},
		},
		Monday:   1,
		DayRule:  DayRuleUnion,
		Specials: SpecialAll,
	}
	p, err := TryNewParser(d)
	require.NoError(t, err)

	e, err := p.Parse("0 0 * * 7")
	require.NoError(t, err)
	got, err := NewExecutionTime(e).Next(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, time.Sunday, got.Weekday())

	_, err = p.Parse("0 0 * * 0")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "below minimum"))
}
