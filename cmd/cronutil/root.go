package main

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	cron "github.com/deb-sandeep/cron-utils"
	"github.com/deb-sandeep/cron-utils/internal/config"
	"github.com/deb-sandeep/cron-utils/internal/logging"
)

// app is the state shared by all subcommands, set up before each run.
type app struct {
	clock   cron.Clock
	cfg     *config.Config
	log     *zap.Logger
	dialect cron.Dialect
	loc     *time.Location
	from    string
}

func newRootCmd(clock cron.Clock) *cobra.Command {
	a := &app{clock: clock}
	var configFile string

	root := &cobra.Command{
		Use:   "cronutil",
		Short: "Evaluate cron expressions",
		Long: `cronutil answers questions about cron expressions: when they fire
next, when they last fired, whether a time matches, and whether they are
valid at all.

Expressions are read in the dialect selected with --dialect (unix, cron4j,
quartz or spring) or loaded from a YAML dialect file. Settings may also come
from cronutil.yaml and CRONUTIL_* environment variables.

Examples:
  cronutil next "0 9 * * MON-FRI" --count 5
  cronutil last --dialect quartz "0 0 12 ? * WED"
  cronutil match "*/15 * * * *" --from "2024-06-01 10:45"
  cronutil validate "0 0 31 2 *" "@hourly"`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.New(configFile)
			if err != nil {
				return err
			}
			if err := bindFlags(v, cmd); err != nil {
				return err
			}
			return a.setup(v)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default: ./cronutil.yaml or ~/.config/cronutil/cronutil.yaml)")
	flags.String("dialect", "unix", "expression dialect: unix, cron4j, quartz, spring")
	flags.String("dialect-file", "", "YAML file describing a custom dialect")
	flags.String("tz", "Local", "time zone of --from and of printed times")
	flags.StringVar(&a.from, "from", "", "reference time, RFC 3339 or \"2006-01-02 15:04[:05]\" (default: now)")
	flags.Bool("json", false, "print results as JSON")
	flags.Bool("log-json", false, "write diagnostics as JSON")
	flags.String("log-level", "warn", "diagnostic log level")

	root.AddCommand(
		newQueryCmd(a, "next", "Print the next times an expression fires"),
		newQueryCmd(a, "last", "Print the previous times an expression fired"),
		newMatchCmd(a),
		newValidateCmd(a),
		newDialectsCmd(a),
	)
	return root
}

// bindFlags lets explicitly set flags override file and environment values.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for key, flag := range map[string]string{
		"dialect":      "dialect",
		"dialect_file": "dialect-file",
		"timezone":     "tz",
		"json":         "json",
		"count":        "count",
		"log.json":     "log-json",
		"log.level":    "log-level",
	} {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return errors.Wrapf(err, "binding --%s", flag)
		}
	}
	return nil
}

func (a *app) setup(v *viper.Viper) error {
	cfg, err := config.LoadWithViper(v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.log, err = logging.New(cfg.Log.JSON, cfg.Log.Level)
	if err != nil {
		return err
	}

	if a.loc, err = cfg.Location(); err != nil {
		return err
	}
	a.dialect, err = cfg.ResolveDialect()
	return err
}

func (a *app) parse(spec string) (*cron.Expression, error) {
	p, err := cron.TryNewParser(a.dialect)
	if err != nil {
		return nil, err
	}
	expr, err := p.Parse(spec)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %q as %s", spec, a.dialect.Name)
	}
	return expr, nil
}

func (a *app) executionTime(expr *cron.Expression) *cron.ExecutionTime {
	opts := append(a.cfg.SearchOptions(),
		cron.WithLogger(cron.NewZapLogger(a.log)),
		cron.WithClock(a.clock),
	)
	return cron.NewExecutionTime(expr, opts...)
}

// civilLayouts are accepted for --from in addition to RFC 3339; they are
// read as wall clock times in --tz.
var civilLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// reference returns the time queries are made against.
func (a *app) reference() (time.Time, error) {
	if a.from == "" {
		return a.clock.Now().In(a.loc), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, a.from); err == nil {
		return t.In(a.loc), nil
	}
	for _, layout := range civilLayouts {
		t, err := time.Parse(layout, a.from)
		if err != nil {
			continue
		}
		// Wall times inside a DST gap move forward, like a clock would.
		return cron.SystemCalendar{}.Resolve(cron.CivilOf(t), a.loc), nil
	}
	return time.Time{}, errors.WithHint(
		errors.Newf("cannot parse --from %q", a.from),
		"use RFC 3339 (2024-06-01T10:45:00Z) or a wall clock time such as \"2024-06-01 10:45\"")
}

func joinSpec(args []string) string {
	return strings.Join(args, " ")
}
