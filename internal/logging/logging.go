package logging

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// Level maps a verbosity count to a log level: 0 warnings and errors only,
// 1 info, 2 debug, 3 and above trace.
func Level(verbose int) zerolog.Level {
	switch {
	case verbose <= 0:
		return zerolog.WarnLevel
	case verbose == 1:
		return zerolog.InfoLevel
	case verbose == 2:
		return zerolog.DebugLevel
	}
	return zerolog.TraceLevel
}

// New returns a human readable logger writing to w.
func New(w io.Writer, verbose int) zerolog.Logger {
	console := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	return zerolog.New(console).Level(Level(verbose)).With().Timestamp().Logger()
}

// ForProcess tags every entry with the process name.
func ForProcess(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("process", name).Logger()
}
