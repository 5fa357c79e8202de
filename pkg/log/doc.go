// Package log provides structured logging for corebooks.
//
// The package exposes a small Logger interface with leveled methods and
// key-value context, a zap-backed implementation configured through the
// environment (LOG_FORMAT, LOG_LEVEL, LOG_OUTPUT), a no-op implementation
// for tests, and helpers for carrying a logger through a context.Context.
//
// Typical usage:
//
//	lg := log.NewZapLogger(cfg).WithName("reports")
//	lg.Info("trial balance generated", "accounts", n, "balanced", ok)
package log
