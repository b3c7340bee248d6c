// Package logging configures the process-wide logrus logger used for
// internal lifecycle diagnostics (session admission and closure, failed
// response writes). It never touches the operator
// protocol's literal stdout output (spec.md §6), which is written
// directly with fmt.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds a logrus logger at the given level (one of logrus's level
// names: "debug", "info", "warn", "error"; unrecognized values fall back
// to "info").
func New(level string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)

	return log
}
