package router

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/adminauth/internal/pkg/config"
)

// middlewareMaintenance answers 503 for routes listed in app.maintenance.endpoints.
// An entry is either a route ("/api/v1/auth/login") or a method and route
// ("POST /api/v1/auth/otp/send"). The list is read on every request so a hot
// reloaded config takes effect immediately.
func middlewareMaintenance(cfg config.Config) Middleware {
	return func(next http.Handler) http.Handler {
		if cfg == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := matchedRoutePath(r)
			for _, entry := range cfg.GetArray("app.maintenance.endpoints") {
				entry = strings.TrimSpace(entry)
				if entry == route || entry == r.Method+" "+route {
					writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
