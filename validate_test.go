package cron

import (
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSpec(t *testing.T) {
	tests := []struct {
		d       Dialect
		spec    string
		wantErr bool
	}{
		{Unix, "* * * * *", false},
		{Unix, "0 9 * * MON-FRI", false},
		{Unix, "@daily", false},
		{Unix, "TZ=UTC 0 0 * * *", false},
		{Unix, "0 0 30 2 *", false}, // never fires, but well formed
		{Unix, "", true},
		{Unix, "* * * *", true},
		{Unix, "60 * * * *", true},
		{Quartz, "0 0 12 ? * WED", false},
		{Quartz, "0 0 12 * * WED", true},
		{Cron4j, "0 12 L * *", false},
		{Cron4j, "0 12 LW * *", true},
		{Spring, "0 0 0 L-2 * *", false},
	}

	for _, tt := range tests {
		t.Run(tt.d.Name+"/"+tt.spec, func(t *testing.T) {
			err := ValidateSpec(tt.spec, tt.d)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSpec(%q) error = %v, wantErr %v", tt.spec, err, tt.wantErr)
			}
		})
	}
}

func TestValidateSpecInvalidDialect(t *testing.T) {
	err := ValidateSpec("* * * * *", Dialect{Name: "empty"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "defines no fields")
}

func TestValidateSpecWith(t *testing.T) {
	parser := NewParser(Quartz).WithCache()
	assert.NoError(t, ValidateSpecWith("0 0 12 ? * WED", parser))
	assert.Error(t, ValidateSpecWith("0 0 12 * * WED", parser))
	err := ValidateSpecWith("* * * * *", Parser{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConstraint))
}

func TestValidateSpecs(t *testing.T) {
	specs := []string{"* * * * *", "invalid", "0 9 * * MON-FRI", "bad spec here"}
	errs := ValidateSpecs(specs, Unix)

	require.Len(t, errs, 2)
	assert.Contains(t, errs, 1)
	assert.Contains(t, errs, 3)

	errs = ValidateSpecs([]string{"@hourly"}, Unix)
	assert.NotNil(t, errs)
	assert.Empty(t, errs)

	errs = ValidateSpecs([]string{"a", "b"}, Dialect{})
	assert.Len(t, errs, 2, "an unusable dialect fails every spec")
}

func TestAnalyzeSpec(t *testing.T) {
	clock := NewFakeClock(time.Date(2024, 6, 1, 10, 7, 0, 0, time.UTC))

	r := AnalyzeSpec("0 9 * * MON-FRI", Unix, WithClock(clock))
	require.True(t, r.Valid, "error: %v", r.Error)
	assert.Nil(t, r.Error)
	assert.Equal(t, "unix", r.Dialect)
	assert.False(t, r.IsDescriptor)
	assert.Equal(t, time.UTC, r.Location)
	assert.True(t, r.NextRun.Equal(time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)))
	assert.Equal(t, map[string]string{
		"minute":       "0",
		"hour":         "9",
		"day_of_month": "*",
		"month":        "*",
		"day_of_week":  "1-5",
	}, r.Fields)
	assert.Empty(t, r.Warnings)
	assert.Equal(t, "0 9 * * MON-FRI", r.Expression.String())
}

func TestAnalyzeSpecDescriptorAndTimezone(t *testing.T) {
	tokyo := mustLoad(t, "Asia/Tokyo")
	clock := NewFakeClock(time.Date(2024, 6, 1, 10, 7, 0, 0, time.UTC))

	r := AnalyzeSpec("CRON_TZ=Asia/Tokyo @daily", Unix, WithClock(clock))
	require.True(t, r.Valid, "error: %v", r.Error)
	assert.True(t, r.IsDescriptor)
	assert.Equal(t, tokyo.String(), r.Location.String())
	assert.True(t, r.NextRun.Equal(time.Date(2024, 6, 2, 0, 0, 0, 0, tokyo)))
}

func TestAnalyzeSpecWarnings(t *testing.T) {
	clock := NewFakeClock(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	tests := []struct {
		name  string
		d     Dialect
		spec  string
		warns []string
	}{
		{"both day fields", Unix, "0 0 1 * MON", []string{"OR logic"}},
		{"short months", Unix, "0 0 31 * *", []string{"does not occur in every month"}},
		{"never fires", Unix, "0 0 30 2 *", []string{"does not occur in every month", "no upcoming execution"}},
		{"quartz day fields are exclusive", Quartz, "0 0 0 ? * MON", nil},
		{"star day of week", Unix, "0 0 15 * *", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := AnalyzeSpec(tt.spec, tt.d, WithClock(clock))
			require.True(t, r.Valid, "error: %v", r.Error)
			require.Len(t, r.Warnings, len(tt.warns), "warnings: %v", r.Warnings)
			for i, w := range tt.warns {
				assert.Contains(t, r.Warnings[i], w)
			}
		})
	}
}

func TestAnalyzeSpecIntersectWarning(t *testing.T) {
	d := Unix
	d.Name = "unix-and"
	d.DayRule = DayRuleIntersect

	r := AnalyzeSpec("0 0 1-7 * FRI", d, WithClock(NewFakeClock(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))))
	require.True(t, r.Valid)
	require.Len(t, r.Warnings, 1)
	assert.Contains(t, r.Warnings[0], "AND logic")
	assert.True(t, r.NextRun.Equal(time.Date(2024, 6, 7, 0, 0, 0, 0, time.UTC)))
}

func TestAnalyzeSpecInvalid(t *testing.T) {
	tests := []struct {
		spec string
		kind error
	}{
		{"", ErrSyntax},
		{"   ", ErrSyntax},
		{"not a cron", ErrSyntax},
		{"0 25 * * *", ErrInvalidConstraint},
	}
	for _, tt := range tests {
		r := AnalyzeSpec(tt.spec, Unix)
		assert.False(t, r.Valid, tt.spec)
		assert.Nil(t, r.Expression)
		assert.True(t, errors.Is(r.Error, tt.kind), "%q: got %v", tt.spec, r.Error)
		assert.True(t, r.NextRun.IsZero())
	}

	r := AnalyzeSpec("", Unix)
	assert.True(t, errors.Is(r.Error, ErrEmptySpec))
	assert.True(t, strings.Contains(r.Error.Error(), "empty"))
}
