package log

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestConfigure(t *testing.T) {
	for _, tc := range []struct {
		desc      string
		format    string
		level     string
		formatter logrus.Formatter
		logLevel  logrus.Level
	}{
		{
			desc:      "json format with info level",
			format:    "json",
			formatter: &logrus.JSONFormatter{TimestampFormat: LogTimestampFormat},
			logLevel:  logrus.InfoLevel,
		},
		{
			desc:      "text format with info level",
			format:    "text",
			formatter: &logrus.TextFormatter{TimestampFormat: LogTimestampFormat},
			logLevel:  logrus.InfoLevel,
		},
		{
			desc:     "empty format keeps the current formatter",
			logLevel: logrus.InfoLevel,
		},
		{
			desc:      "text format with debug level",
			format:    "text",
			level:     "debug",
			formatter: &logrus.TextFormatter{TimestampFormat: LogTimestampFormat},
			logLevel:  logrus.DebugLevel,
		},
		{
			desc:      "text format with invalid level",
			format:    "text",
			level:     "invalid-level",
			formatter: &logrus.TextFormatter{TimestampFormat: LogTimestampFormat},
			logLevel:  logrus.InfoLevel,
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			entry := Configure(tc.format, tc.level)
			require.NotNil(t, entry)

			if tc.formatter != nil {
				require.Equal(t, tc.formatter, defaultLogger.Formatter)
			}
			require.Equal(t, tc.logLevel, defaultLogger.Level)
		})
	}
}
