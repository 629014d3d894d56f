package dispatch

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// Reauthorizer forces a credential refresh after the provider rejected the
// current one.
type Reauthorizer interface {
	Refresh(ctx context.Context) error
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithReauthorizer enables one refresh-and-retry per recipient when the
// provider reports mailer.ErrUnauthorized.
func WithReauthorizer(r Reauthorizer) Option {
	return func(d *Dispatcher) {
		d.reauth = r
	}
}

// WithRateLimit throttles sends to perSecond with the given burst.
// A non-positive perSecond disables throttling.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(d *Dispatcher) {
		if perSecond <= 0 {
			d.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		d.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithConfig applies cfg.
func WithConfig(cfg Config) Option {
	return WithRateLimit(cfg.Rate, cfg.Burst)
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// WithClock replaces time.Now in reports.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

// WithRunID replaces the run id generator.
func WithRunID(fn func() string) Option {
	return func(d *Dispatcher) {
		d.newRunID = fn
	}
}
