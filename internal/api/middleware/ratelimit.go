package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/dmelnik/twin-backend/internal/pkg/ratelimit"
	"github.com/dmelnik/twin-backend/internal/pkg/response"
)

// KeyFunc derives the rate-limit counter key from a request.
type KeyFunc func(r *http.Request) string

// ClientIP returns a key func deriving the caller's address. The first
// X-Forwarded-For hop is honored only when trustForwarded is set; a
// directly reachable server must key on RemoteAddr, since clients can put
// anything in the header and rotate it to escape their window.
func ClientIP(trustForwarded bool) KeyFunc {
	return func(r *http.Request) string {
		if trustForwarded {
			if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
				if first, _, ok := strings.Cut(forwarded, ","); ok {
					return strings.TrimSpace(first)
				}
				return strings.TrimSpace(forwarded)
			}
		}

		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			return r.RemoteAddr
		}
		return host
	}
}

// GlobalKey keys every request into one shared counter.
func GlobalKey(*http.Request) string {
	return "global"
}

// RateLimit gates requests through a fixed-window limiter. Requests over
// the cap get a 429 with the given body. A consumed unit is refunded when
// the response status is an error, so failed requests do not count against
// the quota.
func RateLimit(limiter *ratelimit.Limiter, key KeyFunc, limitedBody any) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)

			if !limiter.Allow(k) {
				ctxzap.Info(r.Context(), "rate limit exceeded",
					zap.String("key", k),
					zap.String("path", r.URL.Path),
				)
				response.JSON(w, http.StatusTooManyRequests, limitedBody)
				return
			}

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			if ww.Status() >= http.StatusBadRequest {
				limiter.Refund(k)
			}
		})
	}
}
