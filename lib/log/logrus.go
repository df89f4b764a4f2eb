package log

import (
	"io"

	"github.com/sirupsen/logrus"
)

func Init(level string, formatter string) {
	SetLevel(level)
	SetFormatter(formatter)
}

var DEFAULT_LOG_FORMATTER = &logrus.TextFormatter{
	FullTimestamp: true,
}

func SetFormatter(formatter string) {
	switch formatter {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})

	case "json-pretty":
		logrus.SetFormatter(&logrus.JSONFormatter{PrettyPrint: true})

	case "text", "std":
		logrus.SetFormatter(&logrus.TextFormatter{})

	default:
		logrus.SetFormatter(DEFAULT_LOG_FORMATTER)
	}
}

var DEFAULT_LOG_LEVEL = logrus.InfoLevel

// SetLevel
// sets minimal verbosity level
// Available level names are:
// "panic"
// "fatal"
// "error"
// "warn" or "warning"
// "info"
// "debug"
// "trace"
func SetLevel(level string) {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = DEFAULT_LOG_LEVEL
	}
	logrus.SetLevel(parsed)
}

func SetOutput(w io.Writer) {
	logrus.SetOutput(w)
}

func Println(args ...interface{}) {
	logrus.Println(args...)
}

func Info(args ...interface{}) {
	logrus.Infoln(args...)
}

func Warn(args ...interface{}) {
	logrus.Warnln(args...)
}

func Error(args ...interface{}) {
	logrus.Errorln(args...)
}

func Fatal(args ...interface{}) {
	logrus.Fatalln(args...)
}

func Debug(args ...interface{}) {
	logrus.Debugln(args...)
}

func WithFields(fields map[string]interface{}) *logrus.Entry {
	return logrus.WithFields(fields)
}

type Fields = logrus.Fields
