package router

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/adminauth/internal/pkg/instrument"
	"github.com/shandysiswandi/adminauth/internal/pkg/uid"
)

const (
	// HeaderCorrelationID carries the id that ties a request to its logs,
	// spans and the cID header of published OTP events.
	HeaderCorrelationID = "X-Correlation-ID"
	// HeaderRequestID is accepted from proxies that only set this one.
	HeaderRequestID = "X-Request-ID"

	maxCorrelationIDLen = 128
)

// normalizeCID keeps an inbound id only if it is visible ASCII, truncating
// it to maxCorrelationIDLen. Anything else is dropped so it cannot forge log lines.
func normalizeCID(v string) string {
	v = strings.TrimSpace(v)
	if strings.IndexFunc(v, func(r rune) bool { return r <= ' ' || r > '~' }) >= 0 {
		return ""
	}
	if len(v) > maxCorrelationIDLen {
		v = v[:maxCorrelationIDLen]
	}
	return v
}

func middlewareCorrelationID(gen uid.StringID) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var cid string
			for _, h := range []string{HeaderCorrelationID, HeaderRequestID} {
				if cid = normalizeCID(r.Header.Get(h)); cid != "" {
					break
				}
			}
			if cid == "" && gen != nil {
				cid = gen.Generate()
			}

			if cid != "" {
				w.Header().Set(HeaderCorrelationID, cid)
				r = r.WithContext(instrument.SetCorrelationID(r.Context(), cid))
			}

			next.ServeHTTP(w, r)
		})
	}
}
