package app

// defaults apply when a key is absent from the config file and its
// environment override.
var defaults = map[string]any{
	"app.tz":                                      "UTC",
	"app.server.max_goroutine":                    100,
	"app.server.http.address":                     ":8080",
	"app.server.http.read_timeout_seconds":        10,
	"app.server.http.read_header_timeout_seconds": 5,
	"app.server.http.write_timeout_seconds":       15,
	"app.server.http.idle_timeout_seconds":        60,

	"instrument.enabled":                 false,
	"instrument.service_name":            "adminauth",
	"instrument.log_level":               "info",
	"instrument.trace_sample_ratio":      1.0,
	"instrument.metric_interval_seconds": 30,

	"hash.bcrypt.cost": 10,
	"jwt.issuer":       "adminauth",
	"jwt.ttl_minutes":  60,

	"database.pool.max_conns":                   10,
	"database.pool.min_conns":                   1,
	"database.pool.max_conn_lifetime_seconds":   3600,
	"database.pool.max_conn_idle_seconds":       300,
	"database.pool.health_check_period_seconds": 30,

	"redis.enabled": false,

	"ratelimit.enabled":                   true,
	"ratelimit.store":                     "memory",
	"ratelimit.prefix":                    "ratelimit",
	"ratelimit.rules.otp.limit":           5,
	"ratelimit.rules.otp.period_seconds":  300,
	"ratelimit.rules.auth.limit":          5,
	"ratelimit.rules.auth.period_seconds": 300,
	"ratelimit.rules.api.limit":           100,
	"ratelimit.rules.api.period_seconds":  900,

	"timezone.default":                 "Asia/Kolkata",
	"timezone.geoip.source":            "none",
	"timezone.geoip.cache_ttl_seconds": 3600,

	"mail.driver": "log",

	"messaging.driver":                      "none",
	"messaging.kafka.batch_timeout_ms":      10,
	"messaging.nats.max_reconnects":         10,
	"messaging.nats.timeout_seconds":        5,
	"messaging.nats.reconnect_wait_seconds": 2,

	"casbin.table": "admin_policies",

	// Each policy is a whitespace separated casbin rule, ptype first.
	"casbin.policies": []string{
		"p super_admin otp_stats read",
		"g auditor super_admin",
	},

	"modules.auth.enabled":                       true,
	"modules.auth.mail.product_name":             "Admin Panel",
	"modules.auth.otp.length":                    6,
	"modules.auth.otp.expiry_minutes":            5,
	"modules.auth.otp.max_attempts":              5,
	"modules.auth.otp.max_verification_attempts": 3,
	"modules.auth.otp.resend_cooldown_seconds":   60,
	"modules.auth.otp.quota_window_minutes":      5,
	"modules.auth.otp.retention_hours":           24,
	"modules.auth.otp.verified_grace_minutes":    15,
	"modules.auth.sweeper.enabled":               true,
	"modules.auth.sweeper.eager":                 true,
	"modules.auth.sweeper.interval_minutes":      5,
}
