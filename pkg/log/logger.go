package log

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// The first stack line ("goroutine 123 [running]:") fits comfortably.
	minStackBufSize = 32
	// Minimum expected stack trace length for valid goroutine info.
	minStackTraceLen = 12
	// Number of characters to skip: "goroutine " (10 chars).
	goroutinePrefixLen = 10

	FormatConsole = "console"
	FormatJSON    = "json"
)

var (
	Logger        zerolog.Logger
	goroutinePool sync.Pool
)

func init() {
	goroutinePool.New = func() interface{} {
		return make([]byte, minStackBufSize)
	}

	Logger = newLogger(consoleWriter(os.Stderr), zerolog.InfoLevel)
	log.Logger = Logger
}

// goroutineID extracts the current goroutine ID from the first stack line.
func goroutineID() string {
	buf, ok := goroutinePool.Get().([]byte)
	if !ok {
		return "unknown"
	}
	defer goroutinePool.Put(buf) //nolint:staticcheck // buf is a slice, this is the correct usage

	stackLen := runtime.Stack(buf, false)
	if stackLen < minStackTraceLen {
		return "unknown"
	}

	idx := goroutinePrefixLen
	start := idx
	for idx < stackLen && buf[idx] >= '0' && buf[idx] <= '9' {
		idx++
	}

	if idx > start {
		return string(buf[start:idx])
	}
	return "unknown"
}

func consoleWriter(out io.Writer) io.Writer {
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "15:04:05",
	}
}

func newLogger(out io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Logger().
		Hook(zerolog.HookFunc(func(e *zerolog.Event, _ zerolog.Level, _ string) {
			e.Str("goid", goroutineID())
		}))
}

// Configure rebuilds the global logger from a level name ("debug", "info", ...)
// and an output format ("console" or "json").
func Configure(level, format string) error {
	return ConfigureOutput(os.Stderr, level, format)
}

// ConfigureOutput is Configure with an explicit destination.
func ConfigureOutput(out io.Writer, level, format string) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	var writer io.Writer
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatConsole:
		writer = consoleWriter(out)
	case FormatJSON:
		writer = out
	default:
		return fmt.Errorf("invalid log format %q", format)
	}

	Logger = newLogger(writer, lvl)
	log.Logger = Logger
	return nil
}

// Info logs an info message with goroutine ID.
func Info() *zerolog.Event {
	return Logger.Info()
}

// Error logs an error message with goroutine ID.
func Error() *zerolog.Event {
	return Logger.Error()
}

// Warn logs a warning message with goroutine ID.
func Warn() *zerolog.Event {
	return Logger.Warn()
}

// Debug logs a debug message with goroutine ID.
func Debug() *zerolog.Event {
	return Logger.Debug()
}

// Fatal logs a fatal message with goroutine ID and exits.
func Fatal() *zerolog.Event {
	return Logger.Fatal()
}

// SetDebugMode switches the logger to debug level.
func SetDebugMode() {
	Logger = Logger.Level(zerolog.DebugLevel)
	log.Logger = Logger
}
