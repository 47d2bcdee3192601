package support

import (
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
)

// NewLogger builds the application logger and aligns logrus, which the access log uses, with
// the same level and format.
func NewLogger(cfg Config, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if lvl, err := logrus.ParseLevel(level.String()); err == nil {
		logrus.SetLevel(lvl)
	}
	logrus.SetOutput(w)

	var out io.Writer = w
	if cfg.LogFormat == ConsoleLogs {
		out = zerolog.ConsoleWriter{Out: w}
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
