// Command cronutil evaluates cron expressions from the command line.
//
//	cronutil next "0 9 * * MON-FRI" --count 5
//	cronutil last --dialect quartz "0 0 12 ? * WED" --from 2024-06-01T00:00:00Z
//	cronutil match "*/15 * * * *" --from "2024-06-01 10:45"
//	cronutil validate "0 0 31 2 *" "@hourly"
//	cronutil dialects
package main

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"

	cron "github.com/deb-sandeep/cron-utils"
)

func main() {
	root := newRootCmd(cron.RealClock{})
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if hint := errors.FlattenHints(err); hint != "" {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
		}
		os.Exit(1)
	}
}
