package server

import (
	"context"
	"sync"

	"FinSignal/pkg/config"
	xhttp "FinSignal/pkg/http"
	applogger "FinSignal/pkg/logger"
)

// Runner is a long-lived loop that stops when its context is cancelled.
type Runner interface {
	Run(ctx context.Context)
}

// Broadcaster is the part of the event hub the app shuts down.
type Broadcaster interface {
	Close()
}

// HealthChecker pings a backing store.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	httpServer *xhttp.Server
	scheduler  Runner
	ticker     Runner
	hub        Broadcaster
	store      HealthChecker
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	scheduler Runner,
	ticker Runner,
	hub Broadcaster,
	store HealthChecker,
) *App {
	return &App{
		cfg:        cfg,
		l:          l,
		httpServer: httpServer,
		scheduler:  scheduler,
		ticker:     ticker,
		hub:        hub,
		store:      store,
	}
}

// Run starts every loop and the HTTP server, then blocks until ctx ends.
func (a *App) Run(ctx context.Context) error {
	if err := a.store.Health(ctx); err != nil {
		a.l.Warn("signal store unhealthy at startup", applogger.Error(err))
	}

	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	start := func(name string, r Runner) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Run(loopCtx)
			a.l.Info("loop stopped", applogger.String("loop", name))
		}()
	}

	if a.cfg.Scanner.Disabled {
		a.l.Info("scan scheduler disabled")
	} else {
		start("scheduler", a.scheduler)
	}
	start("price_ticker", a.ticker)

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}

	<-ctx.Done()
	a.l.Info("shutdown signal received")
	return a.shutdown(cancel, &wg)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(cancel context.CancelFunc, wg *sync.WaitGroup) error {
	shutdownCtx, done := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer done()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	cancel()
	a.hub.Close()

	stopped := make(chan struct{})
	go func() {
		wg.Wait()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-shutdownCtx.Done():
		a.l.Warn("loops did not stop before shutdown timeout")
	}

	a.l.Info("shutdown complete")
	return nil
}
