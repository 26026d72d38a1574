package logx

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Thin leveled facade over zerolog so callers keep the familiar
// Debugf/Infof/Warnf/Errorf shape. Interactive prompts and result tables go
// to stdout with fmt; everything diagnostic goes through here to stderr.
var (
	mu      sync.Mutex
	level   = zerolog.InfoLevel
	logger  = newLogger(os.Stderr, level)
	noColor = false
)

func newLogger(w io.Writer, lvl zerolog.Level) zerolog.Logger {
	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05", NoColor: noColor}
	return zerolog.New(cw).Level(lvl).With().Timestamp().Logger()
}

// SetOutput redirects log output (tests use a buffer; color is disabled so
// output stays parseable).
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	noColor = true
	logger = newLogger(w, level)
}

// SetLevelByName sets the level from its flag spelling (debug|info|warn|
// error). Unknown names keep the current level and report an error.
func SetLevelByName(name string) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	level = lvl
	logger = logger.Level(lvl)
	return nil
}

// Level returns the current log level.
func Level() zerolog.Level {
	mu.Lock()
	defer mu.Unlock()
	return level
}

func Debugf(format string, args ...interface{}) {
	mu.Lock()
	l := logger
	mu.Unlock()
	l.Debug().Msgf(format, args...)
}

func Infof(format string, args ...interface{}) {
	mu.Lock()
	l := logger
	mu.Unlock()
	l.Info().Msgf(format, args...)
}

func Warnf(format string, args ...interface{}) {
	mu.Lock()
	l := logger
	mu.Unlock()
	l.Warn().Msgf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	mu.Lock()
	l := logger
	mu.Unlock()
	l.Error().Msgf(format, args...)
}

// TimeTrack logs elapsed time at debug level; call as
// defer TimeTrack(time.Now(), "export").
func TimeTrack(start time.Time, label string) {
	Debugf("%s took %s", label, time.Since(start))
}
