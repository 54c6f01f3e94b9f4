package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/pkg/config"
	xhttp "github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/pkg/http"
	applogger "github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/pkg/logger"
)

// Runner is the long-running core of the process. It must return once ctx ends.
type Runner interface {
	Run(ctx context.Context) error
}

type namedCloser struct {
	name string
	c    io.Closer
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	runner     Runner
	httpServer *xhttp.Server
	closers    []namedCloser
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, l *applogger.Logger, runner Runner, httpServer *xhttp.Server) *App {
	if l == nil {
		l = applogger.Nop()
	}
	return &App{cfg: cfg, logger: l, runner: runner, httpServer: httpServer}
}

// OnShutdown registers c to be closed after the runner and HTTP server have
// stopped. Closers run in reverse registration order.
func (a *App) OnShutdown(name string, c io.Closer) {
	if c != nil {
		a.closers = append(a.closers, namedCloser{name: name, c: c})
	}
}

// Run starts the application and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext blocks until ctx ends or the runner fails, then shuts down.
func (a *App) RunContext(ctx context.Context) error {
	if a.httpServer != nil {
		if err := a.httpServer.Start(); err != nil {
			a.logger.Error("http server start error", applogger.Error(err))
			a.closeAll()
			return err
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg     sync.WaitGroup
		runErr error
	)
	done := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(done)
		runErr = a.runner.Run(runCtx)
	}()
	a.logger.Info("application started", applogger.String("env", a.cfg.Environment))

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case <-done:
		if runErr != nil {
			a.logger.Error("runner stopped", applogger.Error(runErr))
		}
	}
	cancel()
	wg.Wait()

	return errors.Join(runErr, a.shutdown())
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	a.logger.Info("shutting down...")

	var errs []error
	if a.httpServer != nil {
		if err := a.httpServer.Stop(context.Background()); err != nil {
			a.logger.Error("http shutdown error", applogger.Error(err))
			errs = append(errs, err)
		}
	}

	// Flush the error digest while its publisher is still open.
	a.logger.RemoveCollector()
	errs = append(errs, a.closeAll())

	a.logger.Info("shutdown complete")
	return errors.Join(errs...)
}

func (a *App) closeAll() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		nc := a.closers[i]
		if err := nc.c.Close(); err != nil {
			a.logger.Warn("close error", applogger.String("resource", nc.name), applogger.Error(err))
			errs = append(errs, fmt.Errorf("close %s: %w", nc.name, err))
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
