package logger

import (
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type LogOptions struct {
	// Verbose turns on debug logging.
	Verbose bool
	// Trace turns on per-visit logging; implies Verbose.
	Trace bool
	// Format is "text" or "json".
	Format string
	// DisableColor if true will disable outputting colors.
	DisableColor bool
	// HideTime drops timestamps from text output.
	HideTime bool
	// Output defaults to stderr.
	Output io.Writer
}

func Init(options LogOptions) error {
	switch {
	case options.Trace:
		logrus.SetLevel(logrus.TraceLevel)
	case options.Verbose:
		logrus.SetLevel(logrus.DebugLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}

	switch options.Format {
	case "", "text":
		logrus.SetFormatter(&logrus.TextFormatter{
			DisableColors:    options.DisableColor,
			DisableTimestamp: options.HideTime,
			FullTimestamp:    true,
			TimestampFormat:  "2006-01-02 15:04:05.000",
		})
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		return errors.Errorf("unknown log format %q", options.Format)
	}

	if options.Output != nil {
		logrus.SetOutput(options.Output)
	}
	return nil
}
