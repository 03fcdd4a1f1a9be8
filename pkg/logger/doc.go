// Package logger builds the application slog.Logger: JSON in prod,
// colorized tint output everywhere else.
package logger
