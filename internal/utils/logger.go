package utils

import (
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/benmeehan/airpurifier2mqtt/internal/constants"
)

// Log output formats.
const (
	LogFormatJSON    = "json"
	LogFormatConsole = "console"
)

var errEmptyLevel = errors.New("empty log level")

// ParseLevel parses a level name. "warning" is accepted as an alias of "warn".
func ParseLevel(level string) (zerolog.Level, error) {
	name := strings.ToLower(strings.TrimSpace(level))
	if name == "warning" {
		name = "warn"
	}
	if name == "" {
		return zerolog.NoLevel, errEmptyLevel
	}
	return zerolog.ParseLevel(name)
}

// LoggerFactory hands out named loggers whose levels come from the logging section.
// A name matches a configured key when it equals the key or extends it with ".".
// The longest matching key wins and "root" is the fallback.
type LoggerFactory struct {
	base   zerolog.Logger
	root   zerolog.Level
	levels map[string]zerolog.Level
}

// NewLoggerFactory builds the base logger for the given output format.
// Unparseable levels are rejected by Config.Validate, here they are skipped.
func NewLoggerFactory(out io.Writer, format string, levels map[string]string) *LoggerFactory {
	if out == nil {
		out = os.Stdout
	}
	if format == LogFormatConsole {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	f := &LoggerFactory{
		base:   zerolog.New(out).With().Timestamp().Logger(),
		root:   zerolog.InfoLevel,
		levels: make(map[string]zerolog.Level, len(levels)),
	}

	for name, level := range levels {
		lvl, err := ParseLevel(level)
		if err != nil {
			continue
		}
		if name == constants.LoggerRootKey {
			f.root = lvl
			continue
		}
		f.levels[name] = lvl
	}

	return f
}

// Logger returns the logger called name.
func (f *LoggerFactory) Logger(name string) zerolog.Logger {
	return f.base.Level(f.LevelFor(name)).With().Str("logger", name).Logger()
}

// LevelFor resolves the effective level of name.
func (f *LoggerFactory) LevelFor(name string) zerolog.Level {
	best := -1
	level := f.root
	for key, lvl := range f.levels {
		if name != key && !strings.HasPrefix(name, key+".") {
			continue
		}
		if len(key) > best {
			best = len(key)
			level = lvl
		}
	}
	return level
}
