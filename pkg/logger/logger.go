package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"github.com/luckylittle/qbrecon/pkg/stringutils"
)

type Config struct {
	File      string
	Verbosity int
	MaxSize   int
	MaxAge    int
	MaxFiles  int
}

var (
	prefixLen = 8
)

/* Public */

func Init(cfg Config) error {
	// set log level
	logLevel := logrus.InfoLevel
	switch {
	case cfg.Verbosity == 1:
		logLevel = logrus.DebugLevel
	case cfg.Verbosity > 1:
		logLevel = logrus.TraceLevel
	}

	logrus.SetLevel(logLevel)
	logrus.SetOutput(os.Stdout)
	logrus.SetFormatter(&prefixed.TextFormatter{
		ForceColors:     true,
		ForceFormatting: true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if cfg.File == "" {
		return nil
	}

	// rotating file output
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	logrus.AddHook(newRotateFileHook(&lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    withDefault(cfg.MaxSize, 5),
		MaxAge:     withDefault(cfg.MaxAge, 14),
		MaxBackups: withDefault(cfg.MaxFiles, 5),
	}, logLevel))

	return nil
}

func GetLogger(prefix string) *logrus.Entry {
	if len(prefix) > prefixLen {
		prefixLen = len(prefix)
	}

	return logrus.WithFields(logrus.Fields{"prefix": stringutils.LeftJust(prefix, " ", prefixLen)})
}

/* Private */

func withDefault(v int, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
