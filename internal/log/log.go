package log

import (
	"os"

	"github.com/sirupsen/logrus"
)

// LogTimestampFormat defines the timestamp format in log lines.
const LogTimestampFormat = "2006-01-02T15:04:05.000Z"

var defaultLogger = logrus.StandardLogger()

func init() {
	// Log statements that occur before the configuration has been loaded
	// go to stdout instead of stderr.
	defaultLogger.Out = os.Stdout
}

// Configure sets the format and level of the default logger and returns it
// as an entry. An unknown level falls back to info.
func Configure(format string, level string) *logrus.Entry {
	var formatter logrus.Formatter
	switch format {
	case "json":
		formatter = &logrus.JSONFormatter{TimestampFormat: LogTimestampFormat}
	case "text":
		formatter = &logrus.TextFormatter{TimestampFormat: LogTimestampFormat}
	case "":
		// Just stick with the default
	default:
		logrus.WithField("format", format).Fatal("invalid logger format")
	}

	logrusLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logrusLevel = logrus.InfoLevel
	}

	defaultLogger.SetLevel(logrusLevel)
	if formatter != nil {
		defaultLogger.Formatter = formatter
	}

	return Default()
}

// Default is the default logrus logger.
func Default() *logrus.Entry { return defaultLogger.WithField("pid", os.Getpid()) }
