// Package logger configures the process-wide slog JSON logger and carries
// request-scoped loggers (trace and account attributes) through context.
package logger
