// Package util provides low-level helpers shared by all other packages.
package util

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// LogLevel controls output verbosity.
type LogLevel int

const (
	LogQuiet   LogLevel = 0
	LogNormal  LogLevel = 1
	LogVerbose LogLevel = 2
	LogDebug   LogLevel = 3
)

// zerolog has no "verbose" level, so the two chattiest levels are shifted
// down by one: Verbose is written as debug and Debug as trace.
func (l LogLevel) zerolog() zerolog.Level {
	switch {
	case l <= LogQuiet:
		return zerolog.ErrorLevel
	case l == LogNormal:
		return zerolog.InfoLevel
	case l == LogVerbose:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

var levelTags = map[string]string{
	zerolog.LevelTraceValue: "[DBG]",
	zerolog.LevelDebugValue: "[VRB]",
	zerolog.LevelInfoValue:  "[INF]",
	zerolog.LevelWarnValue:  "[WRN]",
	zerolog.LevelErrorValue: "[ERR]",
}

// Logger writes levelled messages to stderr with optional timestamps
// and level prefixes.
type Logger struct {
	level      LogLevel
	output     io.Writer
	timestamps bool // if true, prepend 15:04:05.000 timestamps
	fields     []field
	zl         zerolog.Logger
}

type field struct{ key, value string }

// NewLogger returns a Logger that prints messages at or below the given
// verbosity (0 = quiet, 1 = normal, 2 = verbose, 3 = debug).
func NewLogger(verbosity int) *Logger {
	l := &Logger{
		level:      LogLevel(verbosity),
		output:     os.Stderr,
		timestamps: verbosity >= 3, // auto-enable timestamps in debug mode
	}
	l.rebuild()
	return l
}

// SetTimestamps enables or disables timestamp prefixes.
func (l *Logger) SetTimestamps(on bool) {
	l.timestamps = on
	l.rebuild()
}

// SetOutput overrides the output writer (default: os.Stderr).
func (l *Logger) SetOutput(w io.Writer) {
	l.output = w
	l.rebuild()
}

// Level returns the current log level.
func (l *Logger) Level() LogLevel { return l.level }

// With returns a child logger that appends key=value to every line.
// The child shares the parent's output.
func (l *Logger) With(key, value string) *Logger {
	child := &Logger{
		level:      l.level,
		output:     l.output,
		timestamps: l.timestamps,
		fields:     append(append([]field(nil), l.fields...), field{key, value}),
	}
	child.zl = l.zl.With().Str(key, value).Logger()
	return child
}

// Info prints when verbosity ≥ 1.  Prefixed with [INF].
func (l *Logger) Info(format string, args ...interface{}) {
	l.zl.Info().Msgf(format, args...)
}

// Warn prints when verbosity ≥ 1.  Prefixed with [WRN].
func (l *Logger) Warn(format string, args ...interface{}) {
	l.zl.Warn().Msgf(format, args...)
}

// Verbose prints when verbosity ≥ 2.  Prefixed with [VRB].
func (l *Logger) Verbose(format string, args ...interface{}) {
	l.zl.Debug().Msgf(format, args...)
}

// Debug prints when verbosity ≥ 3.  Prefixed with [DBG].
func (l *Logger) Debug(format string, args ...interface{}) {
	l.zl.Trace().Msgf(format, args...)
}

// Error always prints regardless of verbosity.  Prefixed with [ERR].
func (l *Logger) Error(format string, args ...interface{}) {
	l.zl.Error().Msgf(format, args...)
}

func (l *Logger) rebuild() {
	cw := zerolog.ConsoleWriter{
		Out:        zerolog.SyncWriter(l.output),
		NoColor:    !isTerminal(l.output),
		TimeFormat: "15:04:05.000",
		FormatLevel: func(i interface{}) string {
			if s, ok := i.(string); ok {
				if tag, ok := levelTags[s]; ok {
					return tag
				}
				return "[" + strings.ToUpper(s) + "]"
			}
			return "[???]"
		},
	}
	if !l.timestamps {
		cw.PartsExclude = []string{zerolog.TimestampFieldName}
	}

	ctx := zerolog.New(cw).Level(l.level.zerolog()).With()
	if l.timestamps {
		ctx = ctx.Timestamp()
	}
	for _, f := range l.fields {
		ctx = ctx.Str(f.key, f.value)
	}
	l.zl = ctx.Logger()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func init() {
	// Millisecond precision so the console writer can render 15:04:05.000.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
}
