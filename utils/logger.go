package utils

import (
	"os"

	"github.com/sirupsen/logrus"
)

var (
	InfoLogger  *logrus.Logger
	ErrorLogger *logrus.Logger
)

func init() {
	// usable before InitLogger runs, e.g. in tests
	InfoLogger = newLogger(os.Stdout, logrus.InfoLevel)
	ErrorLogger = newLogger(os.Stderr, logrus.ErrorLevel)
}

// InitLogger sets up InfoLogger (stdout) and ErrorLogger (stderr). level is
// a logrus level name such as "debug" or "info".
func InitLogger(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	InfoLogger = newLogger(os.Stdout, lvl)
	ErrorLogger = newLogger(os.Stderr, logrus.ErrorLevel)
	return nil
}

func newLogger(out *os.File, lvl logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	l.SetLevel(lvl)
	return l
}
