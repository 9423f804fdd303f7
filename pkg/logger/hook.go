package logger

import (
	"io"

	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

type rotateFileHook struct {
	writer    io.Writer
	level     logrus.Level
	formatter logrus.Formatter
}

func newRotateFileHook(w io.Writer, level logrus.Level) logrus.Hook {
	return &rotateFileHook{
		writer: w,
		level:  level,
		formatter: &prefixed.TextFormatter{
			DisableColors:   true,
			ForceFormatting: true,
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		},
	}
}

func (h *rotateFileHook) Levels() []logrus.Level {
	return logrus.AllLevels[:h.level+1]
}

func (h *rotateFileHook) Fire(entry *logrus.Entry) error {
	b, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}

	_, err = h.writer.Write(b)
	return err
}
