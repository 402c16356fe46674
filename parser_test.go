package cron

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"
)

// fieldsOf returns the constraints of every field d declares.
func fieldsOf(e *Expression) map[Field]Constraint {
	out := make(map[Field]Constraint, len(e.dialect.Fields))
	for _, fs := range e.dialect.Fields {
		out[fs.Field] = e.fields[fs.Field]
	}
	return out
}

func TestParseItems(t *testing.T) {
	tests := []struct {
		spec string
		f    Field
		want Constraint
	}{
		{"5 * * * *", Minute, Single{5}},
		{"* * * * *", Minute, Always{}},
		{"5-10 * * * *", Minute, Range{5, 10}},
		{"*/15 * * * *", Minute, Every{Start: 0, Period: 15}},
		{"5/15 * * * *", Minute, Every{Start: 5, Period: 15}},
		{"*/1 * * * *", Minute, Always{}},
		{"0 0 */1 * MON", DayOfMonth, Always{}},
		{"5-40/15 * * * *", Minute, Every{Start: 5, End: 40, Period: 15}},
		{"0-0/5 * * * *", Minute, Single{0}},
		{"1,2,5-7 * * * *", Minute, Composite{[]Constraint{Single{1}, Single{2}, Range{5, 7}}}},
		{"0 22-2 * * *", Hour, Range{22, 2}},
		{"0 0 * JAN-mar *", Month, Range{1, 3}},
		{"0 0 * * mon-FRI", DayOfWeek, Range{1, 5}},
		{"0 0 * * SUN", DayOfWeek, Single{0}},
		{"0 0 * * 7", DayOfWeek, Single{7}},
		{"0 0 * * 5-0", DayOfWeek, Range{5, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			e, err := ParseStandard(tt.spec)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, e.Constraint(tt.f)); diff != "" {
				t.Errorf("%s mismatch (-want +got):\n%s", tt.f, diff)
			}
		})
	}
}

func TestParseQuartzFields(t *testing.T) {
	e, err := ParseQuartz("0 15 10 ? * MON-FRI 2025-2030")
	if err != nil {
		t.Fatal(err)
	}
	want := map[Field]Constraint{
		Second:     Single{0},
		Minute:     Single{15},
		Hour:       Single{10},
		DayOfMonth: Unspecified{},
		Month:      Always{},
		DayOfWeek:  Range{2, 6}, // Sunday=1
		Year:       Range{2025, 2030},
	}
	if diff := cmp.Diff(want, fieldsOf(e)); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}

	// The year is optional and defaults to every year.
	e, err = ParseQuartz("0 0 12 ? * WED")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Always{}, e.Constraint(Year)); diff != "" {
		t.Errorf("year mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(Single{4}, e.Constraint(DayOfWeek)); diff != "" {
		t.Errorf("WED mismatch (-want +got):\n%s", diff)
	}
}

func TestParseUndeclaredFieldsDefault(t *testing.T) {
	e := MustParse(Unix, "30 6 * * *")
	if diff := cmp.Diff(Single{0}, e.Constraint(Second)); diff != "" {
		t.Errorf("second mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(Always{}, e.Constraint(Year)); diff != "" {
		t.Errorf("year mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSpecials(t *testing.T) {
	tests := []struct {
		spec string
		f    Field
		want Constraint
	}{
		{"0 0 0 L * ?", DayOfMonth, LastDayOfMonth{}},
		{"0 0 0 L-3 * ?", DayOfMonth, LastDayOfMonth{Offset: 3}},
		{"0 0 0 15W * ?", DayOfMonth, NearestWeekday{Day: 15}},
		{"0 0 0 lw * ?", DayOfMonth, LastBusinessDay{}},
		{"0 0 0 ? * FRI#3", DayOfWeek, NthWeekday{Weekday: 6, N: 3}},
		{"0 0 0 ? * 6L", DayOfWeek, LastWeekday{Weekday: 6}},
		{"0 0 0 ? * FRI#L", DayOfWeek, LastWeekday{Weekday: 6}},
		{"0 0 0 ? * L", DayOfWeek, Single{7}},
		{"0 0 0 1,L * ?", DayOfMonth, Composite{[]Constraint{Single{1}, LastDayOfMonth{}}}},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			e, err := ParseQuartz(tt.spec)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, e.Constraint(tt.f)); diff != "" {
				t.Errorf("%s mismatch (-want +got):\n%s", tt.f, diff)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		d    Dialect
		spec string
		kind error
		msg  string
	}{
		{Unix, "", ErrSyntax, "empty spec string"},
		{Unix, "   ", ErrSyntax, "empty spec string"},
		{Unix, "* * * *", ErrSyntax, "expected exactly 5 fields"},
		{Unix, "* * * * * *", ErrSyntax, "expected exactly 5 fields"},
		{Quartz, "* * * ? *", ErrSyntax, "expected 6 to 7 fields"},
		{Unix, "* 5 j * *", ErrSyntax, "failed to parse int"},
		{Unix, "1-2-3 * * * *", ErrSyntax, "too many hyphens"},
		{Unix, "1/2/3 * * * *", ErrSyntax, "too many slashes"},
		{Unix, "1,,2 * * * *", ErrSyntax, "empty list item"},
		{Unix, "*-5 * * * *", ErrSyntax, "unexpected range after '*'"},
		{Unix, "@unrecognized", ErrSyntax, "unrecognized descriptor"},
		{Unix, "@every 5m", ErrSyntax, "interval descriptors"},
		{Quartz, "@hourly", ErrSyntax, "does not accept descriptors"},
		{Unix, "TZ=Mars/Olympus * * * * *", ErrSyntax, "unknown time zone"},
		{Unix, "TZ=UTC", ErrSyntax, "missing fields after timezone"},
		{Unix, "CRON_TZ=../etc * * * * *", ErrSyntax, "invalid timezone"},

		{Unix, "60 * * * *", ErrInvalidConstraint, "above maximum"},
		{Unix, "* 24 * * *", ErrInvalidConstraint, "above maximum"},
		{Unix, "* * 0 * *", ErrInvalidConstraint, "below minimum"},
		{Unix, "* * * 13 *", ErrInvalidConstraint, "above maximum"},
		{Unix, "* * * * 8", ErrInvalidConstraint, "above maximum"},
		{Unix, "*/0 * * * *", ErrInvalidConstraint, "step of range must be a positive number"},
		{Unix, "10-5/2 * * * *", ErrInvalidConstraint, "beyond end of range"},
		{Unix, "* * ? * *", ErrInvalidConstraint, "does not accept '?'"},
		{Unix, "* * L * *", ErrInvalidConstraint, "does not accept 'L'"},
		{Unix, "* * * * 5#2", ErrInvalidConstraint, "does not accept '#'"},
		{Unix, "* * * * L", ErrInvalidConstraint, "does not accept 'L'"},
		{Cron4j, "* * 15W * *", ErrInvalidConstraint, "does not accept 'W'"},
		{Quartz, "0 0 0 * * MON", ErrInvalidConstraint, "must be '?'"},
		{Quartz, "0 0 0 ? * ?", ErrInvalidConstraint, "both day_of_month and day_of_week"},
		{Quartz, "? 0 0 ? * MON", ErrInvalidConstraint, "only allowed in day_of_month or day_of_week"},
		{Quartz, "0 0 0 ? * 0", ErrInvalidConstraint, "below minimum"},
		{Quartz, "0 0 0 ? * 2#6", ErrInvalidConstraint, "occurrence (6)"},
		{Quartz, "0 0 0 L-31 * ?", ErrInvalidConstraint, "offset from last day"},
		{Quartz, "0 0 0 1 * ? 1969", ErrInvalidConstraint, "below minimum"},
		{Quartz, "0 0 0 1 * ? 2100", ErrInvalidConstraint, "above maximum"},
		{Quartz, "0 0 0 1 * ? 2030-2025", ErrInvalidConstraint, "beyond end of range"},
		{Quartz, "0 0 0 1,? * ?", ErrInvalidConstraint, "part of a list"},
	}

	for _, tt := range tests {
		t.Run(tt.d.Name+"/"+tt.spec, func(t *testing.T) {
			expr, err := NewParser(tt.d).Parse(tt.spec)
			if err == nil {
				t.Fatalf("expected error, got %v", expr)
			}
			if expr != nil {
				t.Errorf("expected nil expression on error, got %v", expr)
			}
			if !errors.Is(err, tt.kind) {
				t.Errorf("expected %v, got %v", tt.kind, err)
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("expected error containing %q, got %q", tt.msg, err)
			}
		})
	}
}

func TestParseErrorKindsAreExclusive(t *testing.T) {
	for _, spec := range []string{"", "* * *", "60 * * * *", "* * ? * *"} {
		_, err := ParseStandard(spec)
		syntax, invalid := errors.Is(err, ErrSyntax), errors.Is(err, ErrInvalidConstraint)
		if syntax == invalid {
			t.Errorf("%q: expected exactly one error kind, got syntax=%v invalid=%v", spec, syntax, invalid)
		}
	}
}

func TestParseValidationErrorFields(t *testing.T) {
	_, err := ParseStandard("* 24 * * *")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if ve.Field != "hour" || ve.Value != "24" {
		t.Errorf("expected hour/24, got %s/%s", ve.Field, ve.Value)
	}
}

func TestParseSpecLengthLimit(t *testing.T) {
	overLimit := strings.Repeat("*", MaxSpecLength+1)
	_, err := standardParser.Parse(overLimit)
	if err == nil || !strings.Contains(err.Error(), "spec too long") {
		t.Errorf("expected 'spec too long' error, got: %v", err)
	}

	if _, err := standardParser.Parse("* * * * *"); err != nil {
		t.Errorf("normal spec should work: %v", err)
	}
}

func TestParseDescriptors(t *testing.T) {
	tests := []struct {
		d    Dialect
		spec string
		want map[Field]Constraint
	}{
		{Unix, "@yearly", map[Field]Constraint{
			Minute: Single{0}, Hour: Single{0}, DayOfMonth: Single{1}, Month: Single{1}, DayOfWeek: Always{},
		}},
		{Unix, "@annually", map[Field]Constraint{
			Minute: Single{0}, Hour: Single{0}, DayOfMonth: Single{1}, Month: Single{1}, DayOfWeek: Always{},
		}},
		{Unix, "@monthly", map[Field]Constraint{
			Minute: Single{0}, Hour: Single{0}, DayOfMonth: Single{1}, Month: Always{}, DayOfWeek: Always{},
		}},
		{Unix, "@weekly", map[Field]Constraint{
			Minute: Single{0}, Hour: Single{0}, DayOfMonth: Always{}, Month: Always{}, DayOfWeek: Single{0},
		}},
		{Unix, "@midnight", map[Field]Constraint{
			Minute: Single{0}, Hour: Single{0}, DayOfMonth: Always{}, Month: Always{}, DayOfWeek: Always{},
		}},
		{Unix, "@HOURLY", map[Field]Constraint{
			Minute: Single{0}, Hour: Always{}, DayOfMonth: Always{}, Month: Always{}, DayOfWeek: Always{},
		}},
		{Spring, "@daily", map[Field]Constraint{
			Second: Single{0}, Minute: Single{0}, Hour: Single{0}, DayOfMonth: Always{}, Month: Always{}, DayOfWeek: Always{},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.d.Name+"/"+tt.spec, func(t *testing.T) {
			e, err := NewParser(tt.d).Parse(tt.spec)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, fieldsOf(e)); diff != "" {
				t.Errorf("fields mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseDescriptorExclusiveRule(t *testing.T) {
	d := Quartz
	d.Name = "quartz-descriptors"
	d.Descriptors = true

	e, err := NewParser(d).Parse("@weekly")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Unspecified{}, e.Constraint(DayOfMonth)); diff != "" {
		t.Errorf("day_of_month mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(Single{1}, e.Constraint(DayOfWeek)); diff != "" {
		t.Errorf("day_of_week mismatch (-want +got):\n%s", diff)
	}

	e, err = NewParser(d).Parse("@monthly")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Unspecified{}, e.Constraint(DayOfWeek)); diff != "" {
		t.Errorf("day_of_week mismatch (-want +got):\n%s", diff)
	}
}

func TestParseTimezone(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skip("tzdata not available")
	}

	tests := []struct {
		spec string
		want *time.Location
	}{
		{"5 * * * *", nil},
		{"CRON_TZ=UTC  5 * * * *", time.UTC},
		{"TZ=Asia/Tokyo 5 * * * *", tokyo},
		{"TZ=Asia/Tokyo @midnight", tokyo},
	}
	for _, tt := range tests {
		e, err := ParseStandard(tt.spec)
		if err != nil {
			t.Fatalf("%s => unexpected error %v", tt.spec, err)
		}
		if e.Location() != tt.want && e.Location().String() != tt.want.String() {
			t.Errorf("%s => expected location %v, got %v", tt.spec, tt.want, e.Location())
		}
		if e.String() != strings.TrimSpace(tt.spec) {
			t.Errorf("%s => expected source to be kept, got %q", tt.spec, e.String())
		}
	}
}

func TestValidateTimezone(t *testing.T) {
	tests := []struct {
		tz      string
		wantErr bool
	}{
		{"UTC", false},
		{"America/New_York", false},
		{"Etc/GMT+5", false},
		{"", true},
		{strings.Repeat("A", 65), true},
		{"../../etc/passwd", true},
		{"UTC;rm", true},
	}
	for _, tt := range tests {
		err := validateTimezone(tt.tz)
		if (err != nil) != tt.wantErr {
			t.Errorf("validateTimezone(%q) error = %v, wantErr %v", tt.tz, err, tt.wantErr)
		}
	}
}

func TestTryNewParser(t *testing.T) {
	for _, d := range Dialects() {
		if _, err := TryNewParser(d); err != nil {
			t.Errorf("%s: unexpected error %v", d.Name, err)
		}
	}

	bad := Unix
	bad.Fields = nil
	if _, err := TryNewParser(bad); err == nil {
		t.Error("expected error for a dialect without fields")
	}

	defer func() {
		if recover() == nil {
			t.Error("NewParser should panic on an incoherent dialect")
		}
	}()
	NewParser(bad)
}

func TestMustParsePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustParse should panic on an invalid spec")
		}
	}()
	MustParse(Unix, "not a cron")
}

func TestParserWithCache(t *testing.T) {
	t.Run("returns same expression for repeated parse", func(t *testing.T) {
		parser := NewParser(Unix).WithCache()

		e1, err := parser.Parse("0 * * * *")
		if err != nil {
			t.Fatalf("first parse failed: %v", err)
		}
		e2, err := parser.Parse("0 * * * *")
		if err != nil {
			t.Fatalf("second parse failed: %v", err)
		}
		if e1 != e2 {
			t.Error("cached parser should return same expression instance")
		}
	})

	t.Run("caches errors too", func(t *testing.T) {
		parser := NewParser(Unix).WithCache()

		_, err1 := parser.Parse("invalid spec")
		_, err2 := parser.Parse("invalid spec")
		if err1 == nil || err2 == nil {
			t.Fatal("both parses should fail")
		}
		if err1 != err2 {
			t.Errorf("cached error mismatch: %v vs %v", err1, err2)
		}
	})

	t.Run("parser without cache returns new expressions", func(t *testing.T) {
		parser := NewParser(Unix)

		e1, _ := parser.Parse("0 * * * *")
		e2, _ := parser.Parse("0 * * * *")
		if e1 == e2 {
			t.Error("non-cached parser should return new expression instances")
		}
	})

	t.Run("concurrent access is safe", func(t *testing.T) {
		parser := NewParser(Unix).WithCache()
		specs := []string{"0 * * * *", "30 * * * *", "@hourly", "@daily"}

		var wg sync.WaitGroup
		for i := range 100 {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				_, _ = parser.Parse(specs[idx%len(specs)])
			}(i)
		}
		wg.Wait()
	})
}
