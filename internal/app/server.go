package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/shandysiswandi/adminauth/internal/pkg/instrument"
)

// Start binds the HTTP listener, serves in the background and returns a
// channel that is closed once a termination signal arrives.
func (a *App) Start() <-chan struct{} {
	log := instrument.Log(instrument.CategorySystem)

	l, err := net.Listen("tcp", a.httpServer.Addr)
	if err != nil {
		log.Error("failed to bind http listener", "address", a.httpServer.Addr, "error", err)
		os.Exit(1)
	}

	go func() {
		if err := <-a.Serve(l); !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to serve http", "error", err)
			os.Exit(1)
		}
	}()

	terminated := make(chan struct{})
	go func() {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
		defer stop()

		<-ctx.Done()
		log.Info("termination signal received, shutting down")
		close(terminated)
	}()

	return terminated
}

// Serve runs the HTTP server on l. The channel yields the result of
// http.Server.Serve once it returns.
func (a *App) Serve(l net.Listener) <-chan error {
	instrument.Log(instrument.CategorySystem).Info("http server listening", "address", l.Addr().String())

	errChan := make(chan error, 1)
	go func() {
		errChan <- a.httpServer.Serve(l)
		close(errChan)
	}()

	return errChan
}

// Stop drains in-flight requests, stops the OTP sweeper, waits for background
// goroutines and finally runs the closers in registration order.
func (a *App) Stop(ctx context.Context) {
	log := instrument.Log(instrument.CategorySystem)

	if err := a.httpServer.Shutdown(ctx); err != nil {
		log.ErrorContext(ctx, "failed to close resources", "name", "HTTP Server", "error", err)
	}

	if a.cancel != nil {
		a.cancel()
	}

	// No sweep may start against a closing pool.
	a.auth.Stop()

	if err := a.goroutine.Wait(); err != nil {
		log.ErrorContext(ctx, "background goroutine failed", "error", err)
	}

	for _, closer := range a.closers {
		if err := closer.fn(ctx); err != nil {
			log.ErrorContext(ctx, "failed to close resources", "name", closer.name, "error", err)
		}
	}

	log.InfoContext(ctx, "application stopped")
}
