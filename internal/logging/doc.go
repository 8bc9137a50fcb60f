// Package logging builds the slog loggers used across budgetbuddy.
//
// Available handlers:
//   - text: tint console handler, coloured only when writing to a terminal
//   - json: slog.JSONHandler for log collectors
//
// All loggers are safe for concurrent use by multiple goroutines.
package logging
