// Package log configures the process-wide logrus logger.
package log

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Setup applies level and format. An unknown level falls back to info.
func Setup(level string, json bool) {
	SetupTo(os.Stderr, level, json)
}

// SetupTo is Setup with an explicit destination.
func SetupTo(out io.Writer, level string, json bool) {
	logrus.SetOutput(out)

	if json {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logrus.SetLevel(parsed)
}
