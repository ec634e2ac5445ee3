// Package logger configures the process-wide logrus logger.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/Domenick1991/equb/config"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup applies level, format and output from cfg. When a file is
// configured, output goes to both stderr and a size-rotated file.
func Setup(cfg config.LogConfig) error {
	level, err := log.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return err
	}
	log.SetLevel(level)
	log.SetFormatter(formatter(cfg.Format))
	log.SetOutput(output(cfg))
	return nil
}

func formatter(format string) log.Formatter {
	if strings.EqualFold(format, "json") {
		return &log.JSONFormatter{}
	}
	return &log.TextFormatter{FullTimestamp: true}
}

func output(cfg config.LogConfig) io.Writer {
	if cfg.File == "" {
		return os.Stderr
	}
	return io.MultiWriter(os.Stderr, &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	})
}
