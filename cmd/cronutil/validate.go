package main

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	cron "github.com/deb-sandeep/cron-utils"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <expression>...",
		Short: "Check expressions and explain what they do",
		Long: `Check one or more expressions. Each argument is a complete expression,
so quote expressions that contain spaces. Valid expressions are listed with
their next run and any warnings about surprising day-of-month/day-of-week
combinations.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := append(a.cfg.SearchOptions(),
				cron.WithLogger(cron.NewZapLogger(a.log)),
				cron.WithClock(a.clock),
			)

			results := make([]cron.SpecAnalysis, 0, len(args))
			invalid := 0
			for _, spec := range args {
				r := cron.AnalyzeSpec(spec, a.dialect, opts...)
				if !r.Valid {
					invalid++
					a.log.Sugar().Debugw("invalid expression", "spec", spec, "error", r.Error)
				}
				results = append(results, r)
			}

			if err := writeAnalyses(cmd.OutOrStdout(), a.cfg.JSON, args, results, a.loc); err != nil {
				return err
			}
			if invalid > 0 {
				return errors.Newf("%d of %d expression(s) invalid", invalid, len(args))
			}
			return nil
		},
	}
}

func newDialectsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dialects",
		Short: "List the predefined dialects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeDialects(cmd.OutOrStdout(), a.cfg.JSON, cron.Dialects())
		},
	}
}
