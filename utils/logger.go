package utils

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var (
	InfoLogger  *logrus.Logger
	ErrorLogger *logrus.Logger
)

// InitLogger sets up the two process loggers with text output. Call
// ConfigureLogger afterwards to apply the environment settings.
func InitLogger() {
	// InfoLogger ke stdout, ErrorLogger ke stderr
	InfoLogger = newLogger(os.Stdout, logrus.InfoLevel)
	ErrorLogger = newLogger(os.Stderr, logrus.WarnLevel)
}

// ConfigureLogger switches to JSON lines in production and applies level to
// the info logger. An unknown level leaves the current one in place.
func ConfigureLogger(production bool, level string) error {
	if production {
		for _, l := range []*logrus.Logger{InfoLogger, ErrorLogger} {
			l.SetFormatter(&logrus.JSONFormatter{})
		}
	}
	if level == "" {
		return nil
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	InfoLogger.SetLevel(lvl)
	return nil
}

func newLogger(out io.Writer, level logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	l.SetLevel(level)
	return l
}
