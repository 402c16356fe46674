package cron

import (
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// dialectDoc is the YAML form of a Dialect:
//
//	name: quartz-sunday-first
//	monday: 2
//	day_rule: exclusive
//	descriptors: false
//	specials: [unspecified, last_day, nth_weekday]
//	fields:
//	  - {field: second}
//	  - {field: minute}
//	  - {field: hour}
//	  - {field: day_of_month}
//	  - {field: month}
//	  - {field: day_of_week, min: 1, max: 7}
//	  - {field: year, min: 1970, max: 2199, optional: true}
//
// Omitted bounds default to the field's standard domain.
type dialectDoc struct {
	Name        string     `yaml:"name"`
	Monday      *int       `yaml:"monday"`
	DayRule     string     `yaml:"day_rule"`
	Descriptors bool       `yaml:"descriptors"`
	Specials    []string   `yaml:"specials"`
	Fields      []fieldDoc `yaml:"fields"`
}

type fieldDoc struct {
	Field    string `yaml:"field"`
	Min      *int   `yaml:"min"`
	Max      *int   `yaml:"max"`
	Optional bool   `yaml:"optional"`
}

var specialNames = map[string]Special{
	"unspecified":       SpecialUnspecified,
	"last_day":          SpecialLastDay,
	"nearest_weekday":   SpecialNearestWeekday,
	"last_business_day": SpecialLastBusinessDay,
	"nth_weekday":       SpecialNthWeekday,
	"last_weekday":      SpecialLastWeekday,
	"all":               SpecialAll,
}

// LoadDialectYAML reads a custom dialect from a YAML document. The result is
// checked for coherence the same way TryNewParser checks it.
func LoadDialectYAML(r io.Reader) (Dialect, error) {
	var doc dialectDoc
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return Dialect{}, errors.Mark(errors.Wrap(err, "decoding dialect"), ErrSyntax)
	}

	if doc.Name == "" {
		return Dialect{}, errors.Mark(errors.New("dialect has no name"), ErrInvalidConstraint)
	}
	d := Dialect{
		Name:        doc.Name,
		Monday:      1,
		Descriptors: doc.Descriptors,
	}
	if doc.Monday != nil {
		d.Monday = *doc.Monday
	}

	rule, ok := dayRuleByName(doc.DayRule)
	if !ok {
		return Dialect{}, errors.Mark(errors.Newf("dialect %q: unknown day rule %q", d.Name, doc.DayRule), ErrInvalidConstraint)
	}
	d.DayRule = rule

	for _, name := range doc.Specials {
		s, ok := specialNames[strings.ToLower(name)]
		if !ok {
			return Dialect{}, errors.WithHint(
				errors.Mark(errors.Newf("dialect %q: unknown special token %q", d.Name, name), ErrInvalidConstraint),
				"known tokens: all, unspecified, last_day, nearest_weekday, last_business_day, nth_weekday, last_weekday")
		}
		d.Specials |= s
	}

	for _, fd := range doc.Fields {
		f, ok := fieldByName(fd.Field)
		if !ok {
			return Dialect{}, errors.Mark(errors.Newf("dialect %q: unknown field %q", d.Name, fd.Field), ErrInvalidConstraint)
		}
		fs := FieldSpec{
			Field:    f,
			Min:      defaultBounds[f].min,
			Max:      defaultBounds[f].max,
			Optional: fd.Optional,
		}
		if fd.Min != nil {
			fs.Min = *fd.Min
		}
		if fd.Max != nil {
			fs.Max = *fd.Max
		}
		d.Fields = append(d.Fields, fs)
	}

	if err := d.validate(); err != nil {
		return Dialect{}, err
	}
	return d, nil
}

func dayRuleByName(name string) (DayRule, bool) {
	if name == "" {
		return DayRuleUnion, true
	}
	for rule, n := range dayRuleNames {
		if strings.EqualFold(n, name) {
			return rule, true
		}
	}
	return 0, false
}

func fieldByName(name string) (Field, bool) {
	for f, n := range fieldNames {
		if strings.EqualFold(n, name) {
			return Field(f), true
		}
	}
	return 0, false
}
