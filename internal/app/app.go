package app

import (
	"context"
	"net/http"

	"github.com/casbin/casbin/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/adminauth/internal/auth"
	"github.com/shandysiswandi/adminauth/internal/pkg/clock"
	"github.com/shandysiswandi/adminauth/internal/pkg/config"
	"github.com/shandysiswandi/adminauth/internal/pkg/goroutine"
	"github.com/shandysiswandi/adminauth/internal/pkg/hash"
	"github.com/shandysiswandi/adminauth/internal/pkg/idempotency"
	"github.com/shandysiswandi/adminauth/internal/pkg/instrument"
	"github.com/shandysiswandi/adminauth/internal/pkg/jwt"
	"github.com/shandysiswandi/adminauth/internal/pkg/mail"
	"github.com/shandysiswandi/adminauth/internal/pkg/messaging"
	"github.com/shandysiswandi/adminauth/internal/pkg/ratelimit"
	"github.com/shandysiswandi/adminauth/internal/pkg/router"
	"github.com/shandysiswandi/adminauth/internal/pkg/storage"
	"github.com/shandysiswandi/adminauth/internal/pkg/tzresolver"
	"github.com/shandysiswandi/adminauth/internal/pkg/uid"
	"github.com/shandysiswandi/adminauth/internal/pkg/validator"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	hmac      hash.Hash
	bcrypt    hash.Hash
	uid       uid.NumberID
	uuid      uid.StringID
	jwt       jwt.JWT

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	idemp     idempotency.Idempotency
	limiter   *ratelimit.Limiter
	geoip     *tzresolver.GeoIP
	timezone  *tzresolver.Resolver
	mail      mail.Mail
	messaging messaging.Publisher
	storage   storage.Storage
	casbin    *casbin.Enforcer

	// server
	router     *router.Router
	httpServer *http.Server

	// modules
	auth *auth.Module

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initRateLimit()
	app.initStorage()
	app.initTimezone()
	app.initMail()
	app.initMessaging()
	app.initCasbin()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
