package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/adminauth/internal/auth"
)

func (a *App) initModules() {
	if !a.config.GetBool("modules.auth.enabled") {
		slog.Warn("module auth disabled, no routes registered")
		return
	}

	dep := auth.Dependency{
		Ctx:        a.ctx,
		DBConn:     a.dbConn,
		Goroutine:  a.goroutine,
		Enforcer:   a.casbin,
		Router:     a.router,
		Timezone:   a.timezone,
		Messaging:  a.messaging,
		Mail:       a.mail,
		Config:     a.config,
		Instrument: a.ins,
		UID:        a.uid,
		HMAC:       a.hmac,
		Bcrypt:     a.bcrypt,
		Clock:      a.clock,
		Validator:  a.validator,
		JWT:        a.jwt,
	}
	if a.idemp != nil {
		dep.SweepLock = a.idemp
	}

	m, err := auth.New(dep)
	if err != nil {
		slog.Error("failed to init module auth", "error", err)
		os.Exit(1)
	}
	a.auth = m
}
