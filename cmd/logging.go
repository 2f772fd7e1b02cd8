package cmd

import (
	"io"
	"os"

	"raffler/config"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// configureLogging applies the configured level and, when LOG_FILE is set,
// tees output into a size-rotated file. The returned func closes the file.
func configureLogging(cfg *config.Config) func() {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Environment == "production" {
		log.SetFormatter(&log.JSONFormatter{})
	}

	if cfg.LogFile == "" {
		return func() {}
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    100, // megabytes
		MaxBackups: 5,
		MaxAge:     28, // days
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, rotator))
	log.WithField("file", cfg.LogFile).Info("Logging to rotated file")

	return func() {
		log.SetOutput(os.Stderr)
		_ = rotator.Close()
	}
}
