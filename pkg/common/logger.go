package common

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// LevelForVerbosity maps the number of -v flags to a log level
func LevelForVerbosity(verbosity int) logrus.Level {
	switch {
	case verbosity <= 0:
		return logrus.WarnLevel
	case verbosity == 1:
		return logrus.InfoLevel
	case verbosity == 2:
		return logrus.DebugLevel
	default:
		return logrus.TraceLevel
	}
}

// NewLogger creates the console logger writing to out
func NewLogger(out io.Writer, verbosity int) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(LevelForVerbosity(verbosity))
	logger.SetFormatter(&ConsoleFormatter{})
	return logger
}

// ConsoleFormatter prints one colored line per entry: errors in red,
// warnings in yellow and everything else in white. Fields are appended as
// key=value pairs.
type ConsoleFormatter struct{}

var levelColors = map[logrus.Level]*color.Color{
	logrus.PanicLevel: color.New(color.FgRed, color.Bold),
	logrus.FatalLevel: color.New(color.FgRed, color.Bold),
	logrus.ErrorLevel: color.New(color.FgRed),
	logrus.WarnLevel:  color.New(color.FgYellow),
	logrus.InfoLevel:  color.New(color.FgWhite),
	logrus.DebugLevel: color.New(color.FgWhite),
	logrus.TraceLevel: color.New(color.FgHiBlack),
}

// Format implements logrus.Formatter
func (f *ConsoleFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for key := range entry.Data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&buf, " %s=%v", key, entry.Data[key])
	}

	line := buf.String()
	if c, ok := levelColors[entry.Level]; ok {
		line = c.Sprint(line)
	}
	return []byte(line + "\n"), nil
}
