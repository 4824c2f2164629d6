package utils

import (
	"io"
	"os"
	"strings"

	"github.com/pterm/pterm"
)

// NewLogger builds the structured logger shared by every component.
// Unknown levels fall back to info.
func NewLogger(level string, writer io.Writer) *pterm.Logger {
	if writer == nil {
		writer = os.Stderr
	}
	return pterm.DefaultLogger.
		WithLevel(ParseLogLevel(level)).
		WithWriter(writer).
		WithTime(false)
}

func ParseLogLevel(level string) pterm.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return pterm.LogLevelTrace
	case "debug":
		return pterm.LogLevelDebug
	case "warn", "warning":
		return pterm.LogLevelWarn
	case "error":
		return pterm.LogLevelError
	case "disabled", "off":
		return pterm.LogLevelDisabled
	default:
		return pterm.LogLevelInfo
	}
}
