package httpclient

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// LoggingRoundTripper logs every outbound request at debug level and every
// transport failure at error level. Headers and bodies are never logged.
type LoggingRoundTripper struct {
	// Proxied is the underlying RoundTripper to execute the request.
	Proxied http.RoundTripper
	Log     zerolog.Logger
}

func (lrt *LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	resp, err := lrt.Proxied.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		lrt.Log.Error().
			Err(err).
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Dur("duration", duration).
			Msg("http request failed")
		return nil, err
	}

	lrt.Log.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status_code", resp.StatusCode).
		Dur("duration", duration).
		Msg("http request completed")
	return resp, nil
}

// NewClient returns an http.Client with logging middleware.
func NewClient(timeout time.Duration, log zerolog.Logger) *http.Client {
	return &http.Client{
		Transport: &LoggingRoundTripper{
			Proxied: http.DefaultTransport,
			Log:     log,
		},
		Timeout: timeout,
	}
}
