// Package logger provides the levelled logger used across bioplanes.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
)

// LogLevel orders messages by importance. A logger drops messages below
// its configured level.
type LogLevel int

const (
	LogDebug LogLevel = iota
	LogInfo
	LogError // logged only, the process keeps running
)

func (l LogLevel) String() string {
	switch l {
	case LogDebug:
		return "DEBUG"
	case LogInfo:
		return "INFO"
	case LogError:
		return "ERROR"
	}
	return fmt.Sprintf("LogLevel(%d)", int(l))
}

// ParseLevel converts "debug", "info" or "error" to a LogLevel. Anything
// else is treated as info.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LogDebug
	case "error":
		return LogError
	}
	return LogInfo
}

// ILogger is what readers and decorators log through
type ILogger interface {
	Printf(level LogLevel, format string, a ...interface{})
	Debugf(format string, a ...interface{})
	Infof(format string, a ...interface{})
	Errorf(format string, a ...interface{})
}

// Config selects the log level and, optionally, a rotating log file.
type Config struct {
	Level   string `yaml:"level" toml:"level"`
	Logfile string `yaml:"logfile" toml:"logfile"`
	MaxSize int    `yaml:"maxSize" toml:"max_log_size"` // megabytes
	MaxAge  int    `yaml:"maxAge" toml:"max_log_age"`   // days
}

// ZeroLogger writes through zerolog.
type ZeroLogger struct {
	log      zerolog.Logger
	logLevel LogLevel
	closer   io.Closer
}

// New creates a logger from cfg. Without a log file, messages go to stderr.
func New(cfg Config) *ZeroLogger {
	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true}
	var closer io.Closer
	if cfg.Logfile != "" {
		l := &lumberjack.Logger{
			Filename: cfg.Logfile,
			MaxSize:  cfg.MaxSize,
			MaxAge:   cfg.MaxAge,
		}
		out = l
		closer = l
	}
	return NewWithWriter(out, ParseLevel(cfg.Level), closer)
}

// NewWithWriter creates a logger writing JSON lines (or console output) to w.
func NewWithWriter(w io.Writer, level LogLevel, closer io.Closer) *ZeroLogger {
	return &ZeroLogger{
		log:      zerolog.New(w).With().Timestamp().Logger(),
		logLevel: level,
		closer:   closer,
	}
}

// Printf logs at level, unless level is below the logger's own
func (l *ZeroLogger) Printf(level LogLevel, format string, a ...interface{}) {
	if level < l.logLevel {
		return
	}
	var ev *zerolog.Event
	switch level {
	case LogDebug:
		ev = l.log.Debug()
	case LogError:
		ev = l.log.Error()
	default:
		ev = l.log.Info()
	}
	ev.Msg(fmt.Sprintf(format, a...))
}
func (l *ZeroLogger) Debugf(format string, a ...interface{}) { l.Printf(LogDebug, format, a...) }
func (l *ZeroLogger) Infof(format string, a ...interface{})  { l.Printf(LogInfo, format, a...) }
func (l *ZeroLogger) Errorf(format string, a ...interface{}) { l.Printf(LogError, format, a...) }

// Close releases the log file, if any.
func (l *ZeroLogger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// NullLogger discards everything. Readers built without a logger use it.
type NullLogger struct{}

func (NullLogger) Printf(LogLevel, string, ...interface{}) {}
func (NullLogger) Debugf(string, ...interface{})           {}
func (NullLogger) Infof(string, ...interface{})            {}
func (NullLogger) Errorf(string, ...interface{})           {}

// OrNull returns l, or a NullLogger when l is nil.
func OrNull(l ILogger) ILogger {
	if l == nil {
		return &NullLogger{}
	}
	return l
}
