package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"

	cron "github.com/deb-sandeep/cron-utils"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(v), "encoding JSON")
}

func writeTable(w io.Writer, data pterm.TableData) error {
	s, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return errors.Wrap(err, "rendering table")
	}
	_, err = fmt.Fprintln(w, s)
	return err
}

type timesResult struct {
	Expression string      `json:"expression"`
	Reference  time.Time   `json:"reference"`
	Times      []time.Time `json:"times"`
}

func writeTimes(w io.Writer, asJSON bool, expr string, ref time.Time, times []time.Time) error {
	if asJSON {
		return writeJSON(w, timesResult{Expression: expr, Reference: ref, Times: times})
	}
	for _, t := range times {
		if _, err := fmt.Fprintln(w, t.Format(time.RFC3339)); err != nil {
			return err
		}
	}
	return nil
}

type matchResult struct {
	Expression string    `json:"expression"`
	Time       time.Time `json:"time"`
	Match      bool      `json:"match"`
}

func writeMatch(w io.Writer, asJSON bool, expr string, ref time.Time, matched bool) error {
	if asJSON {
		return writeJSON(w, matchResult{Expression: expr, Time: ref, Match: matched})
	}
	_, err := fmt.Fprintf(w, "%s %s\n", ref.Format(time.RFC3339), yesNo(matched))
	return err
}

type analysisResult struct {
	Expression string            `json:"expression"`
	Valid      bool              `json:"valid"`
	Error      string            `json:"error,omitempty"`
	Hint       string            `json:"hint,omitempty"`
	Canonical  string            `json:"canonical,omitempty"`
	NextRun    *time.Time        `json:"next_run,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
	Warnings   []string          `json:"warnings,omitempty"`
}

func writeAnalyses(w io.Writer, asJSON bool, specs []string, results []cron.SpecAnalysis, loc *time.Location) error {
	out := make([]analysisResult, len(results))
	for i, r := range results {
		ar := analysisResult{Expression: specs[i], Valid: r.Valid, Warnings: r.Warnings}
		if r.Valid {
			ar.Canonical = r.Expression.String()
			ar.Fields = r.Fields
			if !r.NextRun.IsZero() {
				next := r.NextRun.In(loc)
				ar.NextRun = &next
			}
		} else {
			ar.Error = r.Error.Error()
			ar.Hint = errors.FlattenHints(r.Error)
		}
		out[i] = ar
	}

	if asJSON {
		return writeJSON(w, out)
	}

	data := pterm.TableData{{"Expression", "Valid", "Next run", "Notes"}}
	for _, r := range out {
		next := "-"
		if r.NextRun != nil {
			next = r.NextRun.Format(time.RFC3339)
		}
		notes := r.Warnings
		if !r.Valid {
			notes = []string{r.Error}
			if r.Hint != "" {
				notes = append(notes, r.Hint)
			}
		}
		data = append(data, []string{r.Expression, yesNo(r.Valid), next, strings.Join(notes, "; ")})
	}
	return writeTable(w, data)
}

type dialectResult struct {
	Name        string   `json:"name"`
	Fields      []string `json:"fields"`
	Monday      int      `json:"monday"`
	DayRule     string   `json:"day_rule"`
	Specials    []string `json:"specials,omitempty"`
	Descriptors bool     `json:"descriptors"`
}

var specialTokens = []struct {
	special cron.Special
	token   string
}{
	{cron.SpecialUnspecified, "?"},
	{cron.SpecialLastDay, "L"},
	{cron.SpecialNearestWeekday, "W"},
	{cron.SpecialLastBusinessDay, "LW"},
	{cron.SpecialNthWeekday, "#"},
	{cron.SpecialLastWeekday, "dL"},
}

func describeDialect(d cron.Dialect) dialectResult {
	r := dialectResult{
		Name:        d.Name,
		Monday:      d.Monday,
		DayRule:     d.DayRule.String(),
		Descriptors: d.Descriptors,
	}
	for _, fs := range d.Fields {
		f := fs.Field.String() + " " + strconv.Itoa(fs.Min) + "-" + strconv.Itoa(fs.Max)
		if fs.Optional {
			f += " (optional)"
		}
		r.Fields = append(r.Fields, f)
	}
	for _, st := range specialTokens {
		if d.Allows(st.special) {
			r.Specials = append(r.Specials, st.token)
		}
	}
	return r
}

func writeDialects(w io.Writer, asJSON bool, dialects []cron.Dialect) error {
	out := make([]dialectResult, len(dialects))
	for i, d := range dialects {
		out[i] = describeDialect(d)
	}
	if asJSON {
		return writeJSON(w, out)
	}

	data := pterm.TableData{{"Dialect", "Fields", "Monday", "Day rule", "Specials", "Descriptors"}}
	for _, r := range out {
		data = append(data, []string{
			r.Name,
			strings.Join(r.Fields, ", "),
			strconv.Itoa(r.Monday),
			r.DayRule,
			strings.Join(r.Specials, " "),
			yesNo(r.Descriptors),
		})
	}
	return writeTable(w, data)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
