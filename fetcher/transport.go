package fetcher

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-pkgz/requester/middleware"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// LoggingRoundTripper logs every outgoing request and its outcome at
// debug level. Values of secretHeaders are masked.
func LoggingRoundTripper(lg zerolog.Logger, secretHeaders ...string) middleware.RoundTripperHandler {
	return func(next http.RoundTripper) http.RoundTripper {
		return middleware.RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			lg.Debug().
				Str("method", req.Method).
				Str("url", req.URL.String()).
				Interface("headers", maskHeaders(req.Header, secretHeaders)).
				Msg("request sent")

			start := time.Now()
			resp, err := next.RoundTrip(req)

			ev := lg.Debug().
				Str("url", req.URL.String()).
				Dur("elapsed", time.Since(start))
			if err != nil {
				ev.Err(err).Msg("request failed")
				return resp, err
			}

			ev.Int("status", resp.StatusCode).
				Int64("length", resp.ContentLength).
				Str("content_type", resp.Header.Get("Content-Type")).
				Msg("response received")

			return resp, nil
		})
	}
}

func maskHeaders(h http.Header, secret []string) map[string]string {
	out := make(map[string]string, len(h))
	for k, vals := range h {
		if lo.Contains(secret, k) {
			out[k] = "***"
			continue
		}
		out[k] = strings.Join(vals, ",")
	}
	return out
}
