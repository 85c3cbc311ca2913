package auth

import (
	"context"

	"github.com/casbin/casbin/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/adminauth/internal/auth/inbound"
	"github.com/shandysiswandi/adminauth/internal/auth/outbound/db"
	"github.com/shandysiswandi/adminauth/internal/auth/outbound/email"
	"github.com/shandysiswandi/adminauth/internal/auth/outbound/mq"
	"github.com/shandysiswandi/adminauth/internal/auth/usecase"
	"github.com/shandysiswandi/adminauth/internal/pkg/clock"
	"github.com/shandysiswandi/adminauth/internal/pkg/config"
	"github.com/shandysiswandi/adminauth/internal/pkg/goroutine"
	"github.com/shandysiswandi/adminauth/internal/pkg/hash"
	"github.com/shandysiswandi/adminauth/internal/pkg/idempotency"
	"github.com/shandysiswandi/adminauth/internal/pkg/instrument"
	"github.com/shandysiswandi/adminauth/internal/pkg/jwt"
	"github.com/shandysiswandi/adminauth/internal/pkg/mail"
	"github.com/shandysiswandi/adminauth/internal/pkg/messaging"
	"github.com/shandysiswandi/adminauth/internal/pkg/router"
	"github.com/shandysiswandi/adminauth/internal/pkg/tzresolver"
	"github.com/shandysiswandi/adminauth/internal/pkg/uid"
	"github.com/shandysiswandi/adminauth/internal/pkg/validator"
)

type Dependency struct {
	Ctx        context.Context            `validate:"required"`
	DBConn     *pgxpool.Pool              `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Enforcer   *casbin.Enforcer           `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Timezone   *tzresolver.Resolver       `validate:"required"`
	Messaging  messaging.Publisher        `validate:"required"`
	Mail       mail.Mail                  `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	HMAC       hash.Hash                  `validate:"required"`
	Bcrypt     hash.Hash                  `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	JWT        jwt.JWT                    `validate:"required"`
	// SweepLock is nil when no redis is configured; every replica then sweeps.
	SweepLock idempotency.Idempotency
}

// Module is the running auth module. Stop halts its background sweeper.
type Module struct {
	sweeper *goroutine.Task
}

func New(dep Dependency) (*Module, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:        db.NewDB(dep.DBConn, dep.Instrument),
		RepoMail:      email.New(dep.Mail, dep.Instrument, dep.Config.GetString("modules.auth.mail.product_name")),
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Instrument),
		Timezone:      dep.Timezone,
		Validator:     dep.Validator,
		Config:        dep.Config,
		HMAC:          dep.HMAC,
		Bcrypt:        dep.Bcrypt,
		UID:           dep.UID,
		Clock:         dep.Clock,
		JWT:           dep.JWT,
		Instrument:    dep.Instrument,
		Enforcer:      dep.Enforcer,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	m := &Module{}
	if dep.Config.GetBool("modules.auth.sweeper.enabled") {
		cfg := inbound.SweeperConfig{
			Interval: dep.Config.GetMinute("modules.auth.sweeper.interval_minutes"),
			Eager:    dep.Config.GetBool("modules.auth.sweeper.eager"),
			Clock:    dep.Clock,
		}
		if dep.SweepLock != nil {
			cfg.Lock = dep.SweepLock
		}
		m.sweeper = inbound.StartSweeper(dep.Ctx, dep.Goroutine, uc, cfg)
	}

	return m, nil
}

// Stop cancels the sweeper and waits for an in-flight run to finish.
func (m *Module) Stop() {
	if m == nil || m.sweeper == nil {
		return
	}
	m.sweeper.Stop()
	<-m.sweeper.Done()
}
