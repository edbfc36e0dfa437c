package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var log = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Init configures the process-wide logger. Console output is used unless
// jsonOutput is set.
func Init(level string, jsonOutput bool) {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var out io.Writer = os.Stdout
	if !jsonOutput {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	log = New(out, level).With().Str("service", "mentorbook").Logger()
}

// New builds a logger writing to w at the given level ("debug", "info", ...).
// Unknown levels fall back to info.
func New(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// Set replaces the process-wide logger. Used by tests.
func Set(l zerolog.Logger) {
	log = l
}

// Entry is a logger carrying pre-bound fields.
type Entry struct {
	l zerolog.Logger
}

func WithError(err error) Entry {
	return Entry{l: log.With().Err(err).Logger()}
}

func WithFields(fields map[string]interface{}) Entry {
	return Entry{l: log.With().Fields(fields).Logger()}
}

func (e Entry) Info(msg string, kv ...interface{})  { e.l.Info().Fields(kv).Msg(msg) }
func (e Entry) Warn(msg string, kv ...interface{})  { e.l.Warn().Fields(kv).Msg(msg) }
func (e Entry) Error(msg string, kv ...interface{}) { e.l.Error().Fields(kv).Msg(msg) }
func (e Entry) Debug(msg string, kv ...interface{}) { e.l.Debug().Fields(kv).Msg(msg) }

// Info logs msg with optional key/value pairs.
func Info(msg string, kv ...interface{}) {
	log.Info().Fields(kv).Msg(msg)
}

func Infof(format string, v ...interface{}) {
	log.Info().Msg(fmt.Sprintf(format, v...))
}

func Warn(msg string, kv ...interface{}) {
	log.Warn().Fields(kv).Msg(msg)
}

func Error(msg string, kv ...interface{}) {
	log.Error().Fields(kv).Msg(msg)
}

func Errorf(format string, v ...interface{}) {
	log.Error().Msg(fmt.Sprintf(format, v...))
}

func Debug(msg string, kv ...interface{}) {
	log.Debug().Fields(kv).Msg(msg)
}

func Debugf(format string, v ...interface{}) {
	log.Debug().Msg(fmt.Sprintf(format, v...))
}

func Fatalf(format string, v ...interface{}) {
	log.Fatal().Msg(fmt.Sprintf(format, v...))
}
