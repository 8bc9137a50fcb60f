package cli

import (
	"log/slog"

	"github.com/vvka-141/budgetbuddy/internal/logging"
)

func discardLogger() *slog.Logger {
	return logging.Discard()
}
