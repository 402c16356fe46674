// Package logging builds the zap logger used by cronutil for diagnostics.
// Command output goes to stdout; logs go to stderr so they never mix with
// results that scripts parse.
package logging

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger writing to stderr.
func New(jsonOutput bool, level string) (*zap.Logger, error) {
	return NewWithWriter(os.Stderr, jsonOutput, level)
}

// NewWithWriter returns a logger writing to w: JSON for machine consumption,
// a plain console encoding otherwise.
func NewWithWriter(w io.Writer, jsonOutput bool, level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid log level %q", level)
	}

	var enc zapcore.Encoder
	if jsonOutput {
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.TimeKey = "" // results already carry timestamps
		enc = zapcore.NewConsoleEncoder(cfg)
	}

	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), lvl)), nil
}
