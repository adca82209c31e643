package logger

import (
	"io"
	"os"
	"time"

	"github.com/gopass/dashboard/pkg/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup points the global zerolog logger at stdout, and additionally at a rotated
// log file when one is configured
func Setup(settings config.LogSettings) {
	log.Logger = zerolog.New(Writer(settings, os.Stdout)).
		With().
		Timestamp().
		Logger().
		Level(settings.GetLogLevel())
}

func Writer(settings config.LogSettings, stdout io.Writer) io.Writer {
	var console io.Writer = stdout
	if settings.Format != "JSON" {
		console = zerolog.ConsoleWriter{Out: stdout, TimeFormat: time.RFC3339}
	}

	if settings.FilePath == "" {
		return console
	}

	fileLogger := &lumberjack.Logger{
		Filename:   settings.FilePath,
		MaxSize:    100,
		MaxBackups: 30,
		MaxAge:     settings.FileMaxAgeDays,
		Compress:   true,
	}

	return zerolog.MultiLevelWriter(console, fileLogger)
}
