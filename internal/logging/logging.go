// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// L is the shared logger. It is usable before Setup runs.
var L = logrus.New()

type Fields = logrus.Fields

type Options struct {
	Level  string
	Format string // text|json
	File   string // optional rotating log file, written alongside stderr
}

// Setup applies opts to L. An unknown level is reported and leaves the level
// at info.
func Setup(opts Options) {
	L.SetOutput(os.Stderr)
	L.SetLevel(logrus.InfoLevel)
	if opts.Level != "" {
		lv, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			L.WithError(err).Warn("invalid log level, using info")
		} else {
			L.SetLevel(lv)
		}
	}

	switch strings.ToLower(opts.Format) {
	case "json":
		L.SetFormatter(&logrus.JSONFormatter{})
	default:
		L.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if opts.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    100, // megabytes
			MaxBackups: 4,
			MaxAge:     7, // days
			LocalTime:  true,
		}
		L.SetOutput(io.MultiWriter(os.Stderr, rotating))
	}
}

// WithMatch returns an entry tagged with the match id.
func WithMatch(matchID int64) *logrus.Entry {
	return L.WithField("match_id", matchID)
}
