package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/nsqio/go-nsq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/samber/lo"
	"github.com/segmentio/kafka-go"
	"github.com/shandysiswandi/adminauth/internal/pkg/clock"
	"github.com/shandysiswandi/adminauth/internal/pkg/config"
	"github.com/shandysiswandi/adminauth/internal/pkg/goroutine"
	"github.com/shandysiswandi/adminauth/internal/pkg/hash"
	"github.com/shandysiswandi/adminauth/internal/pkg/idempotency"
	"github.com/shandysiswandi/adminauth/internal/pkg/instrument"
	"github.com/shandysiswandi/adminauth/internal/pkg/jwt"
	"github.com/shandysiswandi/adminauth/internal/pkg/mail"
	"github.com/shandysiswandi/adminauth/internal/pkg/messaging"
	"github.com/shandysiswandi/adminauth/internal/pkg/pgxcasbin"
	"github.com/shandysiswandi/adminauth/internal/pkg/ratelimit"
	"github.com/shandysiswandi/adminauth/internal/pkg/router"
	"github.com/shandysiswandi/adminauth/internal/pkg/storage"
	"github.com/shandysiswandi/adminauth/internal/pkg/tzresolver"
	"github.com/shandysiswandi/adminauth/internal/pkg/uid"
	"github.com/shandysiswandi/adminauth/internal/pkg/validator"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`

func (a *App) initConfig() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "/config/config.yaml"
		if os.Getenv("LOCAL") == "true" {
			path = "./config/config.yaml"
		}
	}

	cfg, err := config.NewViper(path, config.WithDefaults(defaults))
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	//nolint:errcheck,gosec // ignore error
	os.Setenv("TZ", cfg.GetString("app.tz"))

	a.config = cfg
}

func (a *App) initInstrument() {
	ins, err := instrument.New(context.Background(), &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
		LogLevel:         a.config.GetString("instrument.log_level"),
		CategoryLevels:   a.config.GetMap("instrument.category_levels"),
	})
	if err != nil {
		slog.Error("failed to init instrumentation", "error", err)
		os.Exit(1)
	}
	a.ins = ins
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.server.max_goroutine"))
	a.hmac = hash.NewHMACSHA256(a.config.GetString("hash.hmac.secret"))
	a.bcrypt = hash.NewBcrypt(a.config.GetInt("hash.bcrypt.cost"), a.config.GetString("hash.bcrypt.pepper"))

	validator, err := validator.NewV10Validator()
	if err != nil {
		slog.Error("failed to init validation v10 validator", "error", err)
		os.Exit(1)
	}
	a.validator = validator

	snow, err := uid.NewSnowflake(a.config.GetInt64("app.node_id"))
	if err != nil {
		slog.Error("failed to init uid number snowflake", "error", err)
		os.Exit(1)
	}
	a.uid = snow
}

func (a *App) initJWT() {
	defaultJWT, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(a.config.GetString("jwt.secret")),
		Issuer:    a.config.GetString("jwt.issuer"),
		Audiences: a.config.GetArray("jwt.audiences"),
		TTL:       a.config.GetMinute("jwt.ttl_minutes"),
		Clock:     a.clock,
		UUID:      a.uuid,
	})
	if err != nil {
		slog.Error("failed to init jwt token", "error", err)
		os.Exit(1)
	}
	a.jwt = defaultJWT
}

func (a *App) initDatabase() {
	config, err := pgxpool.ParseConfig(a.config.GetString("database.url"))
	if err != nil {
		slog.Error("failed to parse DB connection string.", "error", err)
		os.Exit(1)
	}

	config.MaxConns = int32(a.config.GetInt("database.pool.max_conns")) //nolint:gosec // small config value
	config.MinConns = int32(a.config.GetInt("database.pool.min_conns")) //nolint:gosec // small config value
	config.MaxConnLifetime = a.config.GetSecond("database.pool.max_conn_lifetime_seconds")
	config.MaxConnIdleTime = a.config.GetSecond("database.pool.max_conn_idle_seconds")
	config.HealthCheckPeriod = a.config.GetSecond("database.pool.health_check_period_seconds")

	pool, err := pgxpool.NewWithConfig(a.ctx, config)
	if err != nil {
		slog.Error("failed to create DB connection pool", "error", err)
		os.Exit(1)
	}

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		slog.Error("failed to ping DB", "error", err)
		os.Exit(1)
	}

	a.dbConn = pool
}

// initCache connects redis when enabled. Without it the rate limiter keeps
// counters in memory, timezone answers are not cached and every replica sweeps.
func (a *App) initCache() {
	if !a.config.GetBool("redis.enabled") {
		slog.Info("redis disabled, running with process local state")
		return
	}

	opt, err := redis.ParseURL(a.config.GetString("redis.url"))
	if err != nil {
		slog.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Error("failed to init redis", "error", err)
		os.Exit(1)
	}

	a.cacheConn = rdb
	a.idemp = idempotency.New(a.cacheConn, "adminauth:")
}

func (a *App) initRateLimit() {
	if !a.config.GetBool("ratelimit.enabled") {
		return
	}

	rules := lo.SliceToMap([]string{ratelimit.RuleOTP, ratelimit.RuleAuth, ratelimit.RuleAPI}, func(name string) (string, ratelimit.Rule) {
		return name, ratelimit.Rule{
			Limit:  a.config.GetInt64("ratelimit.rules." + name + ".limit"),
			Period: a.config.GetSecond("ratelimit.rules." + name + ".period_seconds"),
		}
	})

	cfg := ratelimit.Config{Rules: rules, Prefix: a.config.GetString("ratelimit.prefix")}
	if a.config.GetString("ratelimit.store") == "redis" {
		if a.cacheConn == nil {
			slog.Error("ratelimit store redis requires redis.enabled")
			os.Exit(1)
		}
		cfg.Redis = a.cacheConn
	}

	lim, err := ratelimit.New(cfg)
	if err != nil {
		slog.Error("failed to init rate limiter", "error", err)
		os.Exit(1)
	}
	a.limiter = lim
}

// initStorage connects object storage, used to fetch the GeoIP database. An
// empty driver leaves storage unset.
//
//nolint:gocognit // it's fine
func (a *App) initStorage() {
	driver := strings.TrimSpace(a.config.GetString("storage.driver"))
	if driver == "" {
		return
	}

	var gcsClient *gcs.Client
	if driver == storage.DriverGCS {
		gcsOptions := []option.ClientOption{}
		if a.config.GetBool("storage.gcs.without_auth") {
			gcsOptions = append(gcsOptions, option.WithoutAuthentication())
		}
		if v := strings.TrimSpace(a.config.GetString("storage.gcs.credentials_file")); v != "" {
			// #nosec G304 -- path is from trusted config file.
			credsJSON, err := os.ReadFile(v)
			if err != nil {
				slog.Error("failed to read gcs credentials file", "error", err)
				os.Exit(1)
			}
			creds, err := google.CredentialsFromJSON(a.ctx, credsJSON, gcs.ScopeReadOnly)
			if err != nil {
				slog.Error("failed to parse gcs credentials file", "error", err)
				os.Exit(1)
			}
			gcsOptions = append(gcsOptions, option.WithCredentials(creds))
		}
		if v := a.config.GetBinary("storage.gcs.credentials_json"); len(v) > 0 {
			creds, err := google.CredentialsFromJSON(a.ctx, v, gcs.ScopeReadOnly)
			if err != nil {
				slog.Error("failed to parse gcs credentials json", "error", err)
				os.Exit(1)
			}
			gcsOptions = append(gcsOptions, option.WithCredentials(creds))
		}
		if v := strings.TrimSpace(a.config.GetString("storage.gcs.endpoint")); v != "" {
			gcsOptions = append(gcsOptions, option.WithEndpoint(v))
		}
		if len(gcsOptions) > 0 {
			client, err := gcs.NewClient(a.ctx, gcsOptions...)
			if err != nil {
				slog.Error("failed to init gcs client", "error", err)
				os.Exit(1)
			}
			gcsClient = client
		}
	}

	stg, err := storage.NewFromDriver(a.ctx, driver, storage.FactoryOptions{
		S3: storage.S3Options{
			Region:       strings.TrimSpace(a.config.GetString("storage.s3.region")),
			Endpoint:     strings.TrimSpace(a.config.GetString("storage.s3.endpoint")),
			AccessKey:    strings.TrimSpace(a.config.GetString("storage.s3.access_key")),
			SecretKey:    strings.TrimSpace(a.config.GetString("storage.s3.secret_key")),
			SessionToken: strings.TrimSpace(a.config.GetString("storage.s3.session_token")),
			UsePathStyle: a.config.GetBool("storage.s3.use_path_style"),
		},
		GCS: storage.GCSOptions{
			Client: gcsClient,
		},
		MinIO: storage.MinIOOptions{
			Region:       strings.TrimSpace(a.config.GetString("storage.minio.region")),
			Endpoint:     strings.TrimSpace(a.config.GetString("storage.minio.endpoint")),
			AccessKey:    strings.TrimSpace(a.config.GetString("storage.minio.access_key")),
			SecretKey:    strings.TrimSpace(a.config.GetString("storage.minio.secret_key")),
			SessionToken: strings.TrimSpace(a.config.GetString("storage.minio.session_token")),
			UseSSL:       a.config.GetBool("storage.minio.use_ssl"),
		},
	})
	if err != nil {
		slog.Error("failed to init storage", "error", err)
		os.Exit(1)
	}

	a.storage = stg
}

// initTimezone builds the IP to timezone resolver. The GeoIP database comes
// from a local file or object storage; without one every IP maps to the
// default zone.
func (a *App) initTimezone() {
	var err error
	switch source := a.config.GetString("timezone.geoip.source"); source {
	case "file":
		a.geoip, err = tzresolver.OpenGeoIP(a.config.GetString("timezone.geoip.path"))
	case "storage":
		if a.storage == nil {
			slog.Error("timezone geoip source storage requires storage.driver")
			os.Exit(1)
		}
		a.geoip, err = tzresolver.LoadGeoIPFromStorage(a.ctx, a.storage,
			a.config.GetString("timezone.geoip.bucket"),
			a.config.GetString("timezone.geoip.key"),
		)
	case "", "none":
		slog.Warn("no geoip database configured, every client uses the default timezone")
	default:
		slog.Error("unknown timezone geoip source", "source", source)
		os.Exit(1)
	}
	if err != nil {
		slog.Error("failed to load geoip database", "error", err)
		os.Exit(1)
	}

	cfg := tzresolver.Config{
		Default:  a.config.GetString("timezone.default"),
		CacheTTL: a.config.GetSecond("timezone.geoip.cache_ttl_seconds"),
		Clock:    a.clock,
	}
	if a.geoip != nil {
		cfg.Locator = a.geoip
	}
	if a.cacheConn != nil {
		cfg.Cache = a.cacheConn
	}

	resolver, err := tzresolver.New(cfg)
	if err != nil {
		slog.Error("failed to init timezone resolver", "error", err)
		os.Exit(1)
	}
	a.timezone = resolver
}

func (a *App) initMail() {
	if a.config.GetString("mail.driver") != "smtp" {
		slog.Warn("mail driver is not smtp, OTP emails are only logged")
		a.mail = mail.NewLog()
		return
	}

	mail, err := mail.NewSMTP(mail.SMTPConfig{
		Host:     a.config.GetString("mail.host"),
		Port:     a.config.GetInt("mail.port"),
		Username: a.config.GetString("mail.username"),
		Password: a.config.GetString("mail.password"),
		From:     a.config.GetString("mail.from"),
	})
	if err != nil {
		slog.Error("failed to init mail", "error", err)
		os.Exit(1)
	}

	a.mail = mail
}

func (a *App) initMessaging() {
	var pubsubOpts []option.ClientOption
	if v := a.config.GetString("messaging.pubsub.endpoint"); v != "" {
		pubsubOpts = append(pubsubOpts, option.WithEndpoint(v))
	}

	driver := a.config.GetString("messaging.driver")
	client, err := messaging.NewFromDriver(a.ctx, driver, messaging.FactoryOptions{
		NSQ: messaging.NSQConfig{
			ProducerAddr: a.config.GetString("messaging.nsq.producer_addr"),
			ProducerConfig: func() *nsq.Config {
				cfg := nsq.NewConfig()
				if v := a.config.GetSecond("messaging.nsq.dial_timeout_seconds"); v > 0 {
					cfg.DialTimeout = v
				}
				if v := a.config.GetSecond("messaging.nsq.write_timeout_seconds"); v > 0 {
					cfg.WriteTimeout = v
				}
				return cfg
			}(),
		},
		NATS: messaging.NATSConfig{
			URL: a.config.GetString("messaging.nats.url"),
			Options: []nats.Option{
				nats.Name(a.config.GetString("instrument.service_name")),
				nats.MaxReconnects(a.config.GetInt("messaging.nats.max_reconnects")),
				nats.Timeout(a.config.GetSecond("messaging.nats.timeout_seconds")),
				nats.ReconnectWait(a.config.GetSecond("messaging.nats.reconnect_wait_seconds")),
				nats.RetryOnFailedConnect(a.config.GetBool("messaging.nats.retry_on_failed_connect")),
			},
		},
		Kafka: messaging.KafkaConfig{
			Brokers:      a.config.GetArray("messaging.kafka.brokers"),
			Dialer:       &kafka.Dialer{Timeout: 10 * time.Second, DualStack: true, ClientID: a.config.GetString("instrument.service_name")},
			BatchTimeout: time.Duration(a.config.GetInt("messaging.kafka.batch_timeout_ms")) * time.Millisecond,
		},
		PubSub: messaging.PubSubConfig{
			ProjectID: a.config.GetString("messaging.pubsub.project_id"),
			ClientOptions: pubsubOpts,
		},
	})
	if err != nil {
		slog.Error("failed to init messaging", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.messaging = client
}

// initCasbin seeds the configured policies into the policy table and loads
// the enforcer from it, so rules added directly in the table also apply.
func (a *App) initCasbin() {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		slog.Error("failed to create model casbin", "error", err)
		os.Exit(1)
	}

	adapter, err := pgxcasbin.NewAdapter(a.ctx, a.dbConn, pgxcasbin.WithTableName(a.config.GetString("casbin.table")))
	if err != nil {
		slog.Error("failed to create adapter casbin", "error", err)
		os.Exit(1)
	}

	if err := adapter.Seed(a.ctx, parsePolicies(a.config.GetArray("casbin.policies"))); err != nil {
		slog.Error("failed to seed casbin policies", "error", err)
		os.Exit(1)
	}

	e, err := casbin.NewEnforcer(m, adapter)
	if err != nil {
		slog.Error("failed to init casbin", "error", err)
		os.Exit(1)
	}

	a.casbin = e
}

func (a *App) initHTTPServer() {
	cfg := router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		JWT:        a.jwt,
		Instrument: a.ins,
		Now:        a.clock.Now,
	}
	if a.limiter != nil {
		cfg.Limiter = a.limiter
	}
	a.router = router.NewRouter(cfg)

	routerWithCORS := cors.New(cors.Options{
		AllowedOrigins: a.config.GetArray("app.server.cors"),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{router.HeaderRateLimitLimit, router.HeaderRateLimitRemaining, router.HeaderRateLimitReset, router.HeaderRetryAfter},
		AllowCredentials: true,
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("app.server.http.address"),
		Handler:           routerWithCORS,
		ReadTimeout:       a.config.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("app.server.http.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.http.idle_timeout_seconds"),
	}
}

func (a *App) initClosers() {
	a.closers = []struct {
		name string
		fn   func(context.Context) error
	}{
		{
			name: "Instrument",
			fn: func(ctx context.Context) error {
				return a.ins.Shutdown(ctx)
			},
		},
		{
			name: "Messaging",
			fn: func(context.Context) error {
				return a.messaging.Close()
			},
		},
		{
			name: "Mail",
			fn: func(context.Context) error {
				return a.mail.Close()
			},
		},
		{
			name: "GeoIP",
			fn: func(context.Context) error {
				if a.geoip == nil {
					return nil
				}
				return a.geoip.Close()
			},
		},
		{
			name: "Redis",
			fn: func(context.Context) error {
				if a.cacheConn == nil {
					return nil
				}
				return a.cacheConn.Close()
			},
		},
		{
			name: "Database",
			fn: func(context.Context) error {
				a.dbConn.Close()

				return nil
			},
		},
		{
			name: "Storage",
			fn: func(context.Context) error {
				if a.storage == nil {
					return nil
				}
				return a.storage.Close()
			},
		},
		{
			name: "Config",
			fn: func(context.Context) error {
				return a.config.Close()
			},
		},
	}
}

// parsePolicies turns "p super_admin otp_stats read" lines into casbin rules.
// Lines with fewer than three fields are ignored.
func parsePolicies(lines []string) [][]string {
	return lo.FilterMap(lines, func(line string, _ int) ([]string, bool) {
		fields := strings.Fields(line)
		return fields, len(fields) >= 3
	})
}
