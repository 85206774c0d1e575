package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is the process-wide logger. It is usable before InitLogger is
// called and then writes info and above to stderr.
var Logger = newLogger(logrus.InfoLevel, os.Stderr)

// LogConfig configures the logger.
type LogConfig struct {
	LogPath  string
	LogLevel string
}

// lineFormatter renders one line per entry: [time] [LEVL] message key=value...
type lineFormatter struct {
	TimestampFormat string
}

func (f *lineFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	level := strings.ToUpper(entry.Level.String())
	if len(level) > 4 {
		level = level[:4]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] [%s] %s", entry.Time.Format(f.TimestampFormat), level, entry.Message)
	for k, v := range entry.Data {
		fmt.Fprintf(&b, " %s=%v", k, v)
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

func newLogger(level logrus.Level, out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&lineFormatter{TimestampFormat: "15:04:05.000 2006/01/02"})
	l.SetLevel(level)
	l.SetOutput(out)
	return l
}

// ParseLevel maps a config string to a logrus level, defaulting to info.
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// InitLogger replaces Logger according to config. When LogPath is set the
// output goes to both stderr and the file.
func InitLogger(config LogConfig) error {
	var out io.Writer = os.Stderr
	if config.LogPath != "" {
		f, err := openLogFile(config.LogPath)
		if err != nil {
			return fmt.Errorf("open log file %s: %w", config.LogPath, err)
		}
		out = io.MultiWriter(os.Stderr, f)
	}
	Logger = newLogger(ParseLevel(config.LogLevel), out)
	return nil
}

// SetOutput redirects the current logger, mostly for tests.
func SetOutput(w io.Writer) {
	Logger.SetOutput(w)
}

func openLogFile(logPath string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}

// WithField returns an entry carrying one structured field.
func WithField(key string, value interface{}) *logrus.Entry {
	return Logger.WithField(key, value)
}

func Debugf(format string, args ...interface{}) {
	Logger.Debugf(format, args...)
}

func Infof(format string, args ...interface{}) {
	Logger.Infof(format, args...)
}

func Warnf(format string, args ...interface{}) {
	Logger.Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	Logger.Errorf(format, args...)
}
