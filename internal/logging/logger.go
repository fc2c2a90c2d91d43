package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New construit le logger du service. En développement la sortie est lisible
// (ConsoleWriter), sinon une ligne JSON par événement.
func New(environment, level string) zerolog.Logger {
	return NewWithWriter(os.Stdout, environment, level)
}

// NewWithWriter est New avec une sortie explicite, utilisé par les tests
func NewWithWriter(out io.Writer, environment, level string) zerolog.Logger {
	lvl := ParseLevel(level)

	if environment == "development" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).
		Level(lvl).
		With().
		Timestamp().
		Str("service", "ocf-deckgen").
		Logger()
}

// ParseLevel convertit LOG_LEVEL ; une valeur inconnue retombe sur info
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}
