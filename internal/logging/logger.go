package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/genchadt/damnsimple-blackjack/internal/types"
)

// New builds the application logger. Development gets debug-level
// human-readable output; production logs info and above.
func New(environment string) *log.Logger {
	return NewWithWriter(os.Stderr, environment)
}

// NewWithWriter builds a logger writing to w
func NewWithWriter(w io.Writer, environment string) *log.Logger {
	level := log.InfoLevel
	if environment == "development" {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
	})
}

// LogError logs err with its GameError context when it carries one
func LogError(logger *log.Logger, err error) {
	var gameErr *types.GameError
	if types.As(err, &gameErr) {
		fields := []interface{}{"code", gameErr.Code, "message", gameErr.Message}
		if gameErr.Err != nil {
			fields = append(fields, "cause", gameErr.Err)
		}
		logger.Error("game error", fields...)
		return
	}
	logger.Error("unexpected error", "err", err)
}

// Redact masks secrets in log-bound configuration values
func Redact(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return fmt.Sprintf("%s%s", value[:2], strings.Repeat("*", len(value)-2))
}
