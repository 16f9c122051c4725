// Package logger wraps zerolog behind the small leveled surface the rest of
// the engine uses. Output goes to stdout by default; InitLogger adds a file
// sink for long migration runs.
package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

var (
	log     = zerolog.New(os.Stdout).With().Timestamp().Logger()
	logFile *os.File
)

// InitLogger routes log output to both stdout and the given file.
func InitLogger(filename string) error {
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
	if err != nil {
		return err
	}
	logFile = f
	w := io.MultiWriter(os.Stdout, zerolog.SyncWriter(f))
	log = zerolog.New(w).With().Timestamp().Logger()
	return nil
}

// SetOutput redirects all log output, used by tests to capture or silence it.
func SetOutput(w io.Writer) {
	log = zerolog.New(w).With().Timestamp().Logger()
}

func Close() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

func Info(msg string) {
	log.Info().Msg(msg)
}

func Infof(format string, v ...any) {
	log.Info().Msgf(format, v...)
}

func Warnf(format string, v ...any) {
	log.Warn().Msgf(format, v...)
}

func Errorf(format string, v ...any) {
	log.Error().Msgf(format, v...)
}
