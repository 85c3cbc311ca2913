package router

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/shandysiswandi/adminauth/internal/pkg/instrument"
	"github.com/shandysiswandi/adminauth/internal/pkg/ratelimit"
)

const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
	HeaderRetryAfter         = "Retry-After"
)

var limitMessages = map[string]string{
	ratelimit.RuleOTP:  "Too many OTP attempts from this IP, please try again later",
	ratelimit.RuleAuth: "Too many authentication attempts from this IP, please try again later",
	ratelimit.RuleAPI:  "Too many requests from this IP, please try again later",
}

// Limiter counts requests for a rule and key.
type Limiter interface {
	Take(ctx context.Context, rule, key string) (ratelimit.Result, error)
}

// middlewareRateLimit applies the route's rule to the client IP. Limiter
// failures let the request through.
func middlewareRateLimit(lim Limiter, now func() time.Time) Middleware {
	return func(next http.Handler) http.Handler {
		if lim == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			meta := routeMetaOf(r.Method, matchedRoutePath(r))

			res, err := lim.Take(r.Context(), meta.rule, clientIP(r))
			if err != nil {
				instrument.Log(meta.category).WarnContext(r.Context(), "rate limiter unavailable", "rule", meta.rule, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set(HeaderRateLimitLimit, strconv.FormatInt(res.Limit, 10))
			h.Set(HeaderRateLimitRemaining, strconv.FormatInt(res.Remaining, 10))
			h.Set(HeaderRateLimitReset, strconv.FormatInt(res.Reset, 10))

			if res.Reached {
				h.Set(HeaderRetryAfter, retryAfterSeconds(res.RetryAfter(now())))
				writeJSON(w, errorResponse{Message: limitMessages[meta.rule]}, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func retryAfterSeconds(d time.Duration) string {
	secs := int64((d + time.Second - 1) / time.Second)
	return strconv.FormatInt(max(secs, 1), 10)
}
