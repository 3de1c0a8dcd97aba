// Package app wires the modules into a single binary: span store,
// overrides, ingestion front, and the read surface, all managed as
// dskit services behind one HTTP server.
package app

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-kit/log/level"
	"github.com/gorilla/mux"
	"github.com/grafana/dskit/middleware"
	"github.com/grafana/dskit/services"
	"github.com/pkg/errors"

	"github.com/nexarch/nexarch/modules/distributor"
	"github.com/nexarch/nexarch/modules/overrides"
	"github.com/nexarch/nexarch/modules/querier"
	"github.com/nexarch/nexarch/modules/storage"
	"github.com/nexarch/nexarch/pkg/util/log"
)

// App is the assembled process.
type App struct {
	cfg Config

	router             *mux.Router
	httpAuthMiddleware middleware.Interface

	store       storage.Store
	overrides   *overrides.Overrides
	distributor *distributor.Distributor
	querier     *querier.Querier
}

func New(cfg Config) (*App, error) {
	t := &App{
		cfg:    cfg,
		router: mux.NewRouter(),
	}

	t.httpAuthMiddleware = middleware.AuthenticateUser
	if !cfg.AuthEnabled {
		t.httpAuthMiddleware = fakeHTTPAuthMiddleware
	}

	var err error
	t.overrides, err = overrides.NewOverrides(cfg.Overrides)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create overrides")
	}

	t.store, err = storage.New(cfg.Storage)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create span store")
	}

	t.querier = querier.New(cfg.Querier, t.store, t.overrides, log.Logger)
	t.distributor = distributor.New(cfg.Distributor, t.store, t.overrides, t.querier.Cache(), log.Logger)

	t.setupRoutes()
	return t, nil
}

// Run starts the services and the HTTP server and blocks until a
// termination signal arrives or a service fails.
func (t *App) Run() error {
	sm, err := services.NewManager(t.overrides, t.distributor, t.querier)
	if err != nil {
		return errors.Wrap(err, "failed to create service manager")
	}

	t.router.Path("/ready").Handler(t.readyHandler(sm))
	t.router.Path("/config").Handler(t.configHandler())

	healthy := func() { level.Info(log.Logger).Log("msg", "nexarch started") }
	stopped := func() { level.Info(log.Logger).Log("msg", "nexarch stopped") }
	failed := func(service services.Service) {
		// one failed service brings the process down
		sm.StopAsync()
		level.Error(log.Logger).Log("msg", "service failed", "err", service.FailureCase())
	}
	sm.AddListener(services.NewManagerListener(healthy, stopped, failed))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := services.StartManagerAndAwaitHealthy(ctx, sm); err != nil {
		return errors.Wrap(err, "failed to start services")
	}

	server := &http.Server{
		Addr:    net.JoinHostPort(t.cfg.HTTPListenAddress, fmt.Sprintf("%d", t.cfg.HTTPListenPort)),
		Handler: t.router,
	}

	serverErr := make(chan error, 1)
	go func() {
		level.Info(log.Logger).Log("msg", "server listening", "addr", server.Addr)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		sm.StopAsync()
		_ = sm.AwaitStopped(context.Background())
		return errors.Wrap(err, "http server failed")
	case <-ctx.Done():
	}

	level.Info(log.Logger).Log("msg", "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), t.cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		level.Warn(log.Logger).Log("msg", "http server shutdown failed", "err", err)
	}

	sm.StopAsync()
	if err := sm.AwaitStopped(shutdownCtx); err != nil {
		return errors.Wrap(err, "stopping services")
	}
	return t.store.Close()
}
