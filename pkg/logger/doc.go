// Package logger builds the structured logger used by mailshot.
//
// It wraps log/slog with two additions: attributes carried in the context
// (run id, row number, recipient) are attached to every record logged with
// that context, and records at warning level and above can be fanned out to
// Sentry when a DSN is configured.
//
// # Basic Usage
//
//	log := logger.New(os.Stderr, logger.Config{Level: "info", Format: "text"})
//
//	ctx = logger.WithAttrs(ctx, slog.String("run_id", runID))
//	log.InfoContext(ctx, "sending email", slog.String("email", "x@acme.com"))
//	// time=... level=INFO msg="sending email" email=x@acme.com run_id=...
//
// # Sentry Integration
//
// Set Config.Sentry.DSN (SENTRY_DSN) to forward errors as Sentry issues and
// warnings as Sentry logs. An empty DSN keeps logging local, so the same code
// path works in development. Call Flush before the process exits so buffered
// events are delivered.
//
// # Tests
//
// NewNope returns a logger that discards everything.
package logger
