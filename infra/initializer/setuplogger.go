package initializer

import (
	"io"
	"log/slog"
	"os"

	"github.com/atollmatch/atollmatch/pkg/config"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

var (
	infoColor  = lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#04B575"}
	warnColor  = lipgloss.AdaptiveColor{Light: "#EE6FF8", Dark: "#EE6FF8"}
	errorColor = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF6B6B"}
	debugColor = lipgloss.AdaptiveColor{Light: "#7E57C2", Dark: "#7E57C2"}
)

func setupLogger(cfg *config.Log) *slog.Logger {
	logger := newLogger(os.Stdout, cfg)
	slog.SetDefault(logger)
	return logger
}

// newLogger builds the process logger on top of charmbracelet/log. The
// level follows slog numbering: -4 debug, 0 info, 4 warn, 8 error.
func newLogger(w io.Writer, cfg *config.Log) *slog.Logger {
	if cfg == nil {
		cfg = &config.Log{Format: "text"}
	}

	styles := log.DefaultStyles()
	for level, badge := range map[log.Level]struct {
		icon  string
		color lipgloss.AdaptiveColor
	}{
		log.ErrorLevel: {"❌", errorColor},
		log.WarnLevel:  {"⚠️", warnColor},
		log.InfoLevel:  {"ℹ️", infoColor},
		log.DebugLevel: {"🐛", debugColor},
	} {
		styles.Levels[level] = lipgloss.NewStyle().
			SetString(badge.icon).
			Bold(true).
			Padding(0, 1).
			Foreground(badge.color)
	}
	for key, color := range map[string]lipgloss.AdaptiveColor{
		"error":   errorColor,
		"userID":  infoColor,
		"adminID": warnColor,
		"topupID": infoColor,
		"prefix":  debugColor,
		"caller":  debugColor,
		"time":    debugColor,
	} {
		styles.Keys[key] = lipgloss.NewStyle().Foreground(color)
		styles.Values[key] = lipgloss.NewStyle().Bold(true)
	}

	formatter := log.TextFormatter
	switch cfg.Format {
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	}

	logger := log.NewWithOptions(w, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		TimeFormat:      cfg.TimeFormat,
		Level:           log.Level(cfg.Level),
		Prefix:          cfg.Prefix,
		Formatter:       formatter,
	})
	logger.SetStyles(styles)
	return slog.New(logger)
}
