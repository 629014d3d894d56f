package gmail

import (
	"log/slog"
	"net/http"
	"time"
)

// loggingTransport records method, URL path, status and latency of Gmail API
// calls at debug level. Bodies are never logged.
type loggingTransport struct {
	base   http.RoundTripper
	logger *slog.Logger
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	rt := t.base
	if rt == nil {
		rt = http.DefaultTransport
	}
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.logger.DebugContext(req.Context(), "gmail api request failed",
			slog.String("method", req.Method),
			slog.String("path", req.URL.Path),
			slog.Duration("elapsed", time.Since(start)),
			slog.Any("error", err),
		)
		return resp, err
	}

	t.logger.DebugContext(req.Context(), "gmail api request",
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)),
	)
	return resp, nil
}
