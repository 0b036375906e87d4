package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"
	"github.com/wheelibin/lanlight/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

var levels = map[string]log.Level{
	"debug": log.DebugLevel,
	"info":  log.InfoLevel,
	"warn":  log.WarnLevel,
	"error": log.ErrorLevel,
	"fatal": log.FatalLevel,
}

// New builds the application logger. Output goes to a rotated file when
// cfg.File is set, otherwise to stderr.
func New(cfg config.LoggingConfig, prefix string) (*log.Logger, error) {
	level, ok := levels[strings.ToLower(cfg.Level)]
	if !ok {
		return nil, fmt.Errorf("invalid log level %q, expected one of %v", cfg.Level, lo.Keys(levels))
	}

	var out io.Writer = os.Stderr
	opts := log.Options{
		Level:           level,
		Prefix:          prefix,
		ReportTimestamp: true,
		ReportCaller:    level == log.DebugLevel,
	}
	if cfg.File != "" {
		out = &lumberjack.Logger{
			Filename: cfg.File,
			MaxAge:   cfg.MaxAge,
		}
		opts.TimeFormat = "2006/01/02 15:04:05"
	}

	return log.NewWithOptions(out, opts), nil
}
