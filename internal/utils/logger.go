package utils

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
)

// SetupLogging configures the standard logrus logger. When file is set, output
// goes to stdout and a rotating log file.
func SetupLogging(level, file string) {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	if strings.TrimSpace(file) == "" {
		logrus.SetOutput(os.Stdout)
		return
	}
	rotator := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    10, // megabytes
		MaxBackups: 7,
		MaxAge:     7, // days
		Compress:   true,
	}
	logrus.SetOutput(io.MultiWriter(os.Stdout, rotator))
}

// LogEvent prints standardized log line with module/action/request_id.
// Avoid logging sensitive payload; message should be summarized.
func LogEvent(requestID, module, action, message string) {
	logEntry(requestID, module, action).Info(message)
}

// LogError is LogEvent at error level with the error attached.
func LogError(requestID, module, action string, err error) {
	logEntry(requestID, module, action).WithError(err).Error(action + " failed")
}

func logEntry(requestID, module, action string) *logrus.Entry {
	return logrus.WithFields(logrus.Fields{
		"module":     strings.ToUpper(module),
		"action":     action,
		"request_id": strings.TrimSpace(requestID),
	})
}
