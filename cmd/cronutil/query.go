package main

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

func newQueryCmd(a *app, name, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   name + " <expression>",
		Short: short,
		Long: short + `.

The expression may be given as one quoted argument or as separate words.
Times are printed in --tz.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expr, err := a.parse(joinSpec(args))
			if err != nil {
				return err
			}
			ref, err := a.reference()
			if err != nil {
				return err
			}

			et := a.executionTime(expr)
			var times []time.Time
			if name == "next" {
				times, err = et.NextN(ref, a.cfg.Count)
			} else {
				times, err = et.LastN(ref, a.cfg.Count)
			}
			// A partial result is still worth printing before the error.
			if len(times) > 0 {
				if werr := writeTimes(cmd.OutOrStdout(), a.cfg.JSON, expr.String(), ref, times); werr != nil {
					return werr
				}
			}
			if err != nil {
				return errors.Wrapf(err, "after %d result(s)", len(times))
			}
			return nil
		},
	}
	cmd.Flags().IntP("count", "n", 1, "number of times to print")
	return cmd
}

func newMatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "match <expression>",
		Short: "Report whether the reference time matches an expression",
		Long: `Report whether the reference time (--from, default now) matches an
expression, to the second. The command exits with an error when it does not,
so it can guard shell scripts:

  cronutil match "0 2 * * SUN" && run-backup`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expr, err := a.parse(joinSpec(args))
			if err != nil {
				return err
			}
			ref, err := a.reference()
			if err != nil {
				return err
			}

			matched := a.executionTime(expr).IsMatch(ref)
			if err := writeMatch(cmd.OutOrStdout(), a.cfg.JSON, expr.String(), ref, matched); err != nil {
				return err
			}
			if !matched {
				return errors.Newf("%s does not match %q", ref.Format(time.RFC3339), expr.String())
			}
			return nil
		},
	}
}
