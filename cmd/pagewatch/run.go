package main

import (
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	route "github.com/bassista/go_pagewatch/internal/api/route"
	"github.com/bassista/go_pagewatch/internal/logger"
)

// RunCmd is the long-running daemon: the daily schedule plus the optional status API.
type RunCmd struct {
	CheckOnStart bool `name:"check-on-start" help:"Run one cycle immediately after the schedule is armed"`
}

func (r *RunCmd) Run(cli *CLI) error {
	app, err := bootstrap(cli)
	if err != nil {
		return err
	}
	defer app.Shutdown()

	log := logger.WithComponent("main")
	ctx, stop := signal.NotifyContext(app.BaseCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Start(); err != nil {
		return fmt.Errorf("cannot start scheduler: %w", err)
	}
	log.Infof("watching %s every day at %s (%s)", app.Config.Target.URL, app.Scheduler.Trigger(), app.Scheduler.Location())

	if r.CheckOnStart {
		if err := app.CheckNow(); err != nil {
			log.Errorf("initial check not queued: %v", err)
		}
	}

	if !app.Config.Server.Enabled {
		<-ctx.Done()
		log.Info("shutdown signal received")
		return nil
	}

	log.Infof("status API will run on port: %d", app.Config.Server.Port)
	srv := createGraceHttpServer(app.BaseCtx, "status-server", app.Config.Server, route.SetupRoutes(app, logger.Logger))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(fmt.Sprintf(":%d", app.Config.Server.Port))
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("status server error: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
		// httpgrace reacts to the same signal; give it time to drain.
		select {
		case <-errCh:
		case <-time.After(app.Config.Server.ShutDownTimeout + time.Second):
			log.Warn("status server did not stop in time")
		}
	}
	return nil
}
