// Package logger provides structured logging for the application using the
// standard library log/slog package. Loggers travel through request contexts
// so that handlers and background tasks log with request-scoped attributes
// such as the trace ID.
package logger
