// Package logging builds the logrus logger used by the function.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a logger writing to stdout, where Lambda forwards it to
// CloudWatch Logs. An unknown level falls back to info.
func New(level, format string) *logrus.Logger {
	return NewWithWriter(os.Stdout, level, format)
}

func NewWithWriter(w io.Writer, level, format string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	if format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyMsg: "message",
			},
		})
	}

	if err != nil {
		logger.WithField("level", level).Warn("unknown log level, using info")
	}
	return logger
}

// DebugOnly forwards every message at debug level. stripe-go logs each
// request at info and each failed request at error; the handler already logs
// failures once, so the client's own lines stay out of the default output.
type DebugOnly struct {
	Log logrus.FieldLogger
}

func (d DebugOnly) Debugf(format string, v ...interface{}) { d.Log.Debugf(format, v...) }
func (d DebugOnly) Infof(format string, v ...interface{})  { d.Log.Debugf(format, v...) }
func (d DebugOnly) Warnf(format string, v ...interface{})  { d.Log.Debugf(format, v...) }
func (d DebugOnly) Errorf(format string, v ...interface{}) { d.Log.Debugf(format, v...) }
