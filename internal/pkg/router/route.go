package router

import (
	"net/http"

	"github.com/samber/lo"
	"github.com/shandysiswandi/adminauth/internal/pkg/instrument"
	"github.com/shandysiswandi/adminauth/internal/pkg/ratelimit"
)

const (
	RouteOTPSend   = "/api/v1/auth/otp/send"
	RouteOTPVerify = "/api/v1/auth/otp/verify"
	RouteOTPStats  = "/api/v1/auth/otp/stats"
	RouteLogin     = "/api/v1/auth/login"

	RouteRegister       = "/api/v1/auth/register"
	RouteForgotPassword = "/api/v1/auth/forgot-password"
)

// routeMeta binds a route to its rate limit rule and log category.
type routeMeta struct {
	rule     string
	category instrument.Category
}

var defaultRouteMeta = routeMeta{rule: ratelimit.RuleAPI, category: instrument.CategoryHTTP}

var routeMetas = map[string]routeMeta{
	http.MethodPost + " " + RouteOTPSend:   {rule: ratelimit.RuleOTP, category: instrument.CategoryOTP},
	http.MethodPost + " " + RouteOTPVerify: {rule: ratelimit.RuleOTP, category: instrument.CategoryOTP},
	http.MethodGet + " " + RouteOTPStats:   {rule: ratelimit.RuleAPI, category: instrument.CategoryOTP},
	http.MethodPost + " " + RouteLogin:     {rule: ratelimit.RuleAuth, category: instrument.CategoryAuth},

	http.MethodPost + " " + RouteRegister:       {rule: ratelimit.RuleAuth, category: instrument.CategoryAuth},
	http.MethodPost + " " + RouteForgotPassword: {rule: ratelimit.RuleAuth, category: instrument.CategoryAuth},
}

func routeMetaOf(method, route string) routeMeta {
	return lo.ValueOr(routeMetas, method+" "+route, defaultRouteMeta)
}

var publicEndpoints = map[string]map[string]struct{}{
	http.MethodGet: {
		"/":       {},
		"/health": {},
	},
	http.MethodPost: {
		RouteOTPSend:   {},
		RouteOTPVerify: {},
		RouteLogin:     {},

		RouteRegister:       {},
		RouteForgotPassword: {},
	},
}
