package amgp

import (
	"strings"

	"github.com/hhkbp2/go-logging"
)

const loggerName = "amgp"

const (
	logFormat     = "%(asctime)s %(levelname)s %(name)s %(message)s"
	logDateFormat = "%Y-%m-%d %H:%M:%S"
)

// LogLevels lists the accepted values of the --log flag.
var LogLevels = []string{"DEBUG", "INFO", "WARN", "ERROR", "CRITICAL"}

func logger() logging.Logger {
	return logging.GetLogger(loggerName)
}

// SetupLogging attaches a stdout handler to the amgp logger and sets its level.
func SetupLogging(level string) {
	l := logger()
	handler := logging.NewStdoutHandler()
	handler.SetFormatter(logging.NewStandardFormatter(logFormat, logDateFormat))
	l.AddHandler(handler)

	switch strings.ToUpper(level) {
	case "DEBUG":
		l.SetLevel(logging.LevelDebug)
	case "INFO":
		l.SetLevel(logging.LevelInfo)
	case "WARN":
		l.SetLevel(logging.LevelWarn)
	case "ERROR":
		l.SetLevel(logging.LevelError)
	case "CRITICAL":
		l.SetLevel(logging.LevelCritical)
	default:
		l.SetLevel(logging.LevelWarn)
	}
}

// ShutdownLogging flushes pending log records.
func ShutdownLogging() {
	logging.Shutdown()
}
