package vrpspd

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel maps the numeric verbosity of the command line tools onto zerolog:
// 1 errors, 2 info, 3 debug, 4 spam.
func LogLevel(lvl int) zerolog.Level {
	switch {
	case lvl <= 1:
		return zerolog.ErrorLevel
	case lvl == 2:
		return zerolog.InfoLevel
	case lvl == 3:
		return zerolog.DebugLevel
	}
	return zerolog.TraceLevel
}

// NewLogger writes human readable lines to w.
func NewLogger(w io.Writer, lvl int) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.DateTime}
	return zerolog.New(out).Level(LogLevel(lvl)).With().Timestamp().Logger()
}
