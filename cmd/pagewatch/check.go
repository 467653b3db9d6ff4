package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/bassista/go_pagewatch/internal/detector"
	"github.com/bassista/go_pagewatch/internal/logger"
)

// CheckCmd runs one cycle outside the schedule, like a cron-driven invocation.
type CheckCmd struct{}

func (c *CheckCmd) Run(cli *CLI) error {
	app, err := bootstrap(cli)
	if err != nil {
		return err
	}
	defer app.Shutdown()

	ctx, stop := signal.NotifyContext(app.BaseCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res := app.Watcher.RunCycle(ctx)
	logger.WithComponent("main").
		WithField("outcome", res.Outcome.String()).
		WithField("notified", res.Notified).
		WithField("persisted", res.Persisted).
		Info("check finished")

	if res.Outcome == detector.FetchFailed {
		return fmt.Errorf("check failed: %s", res.Error)
	}
	return nil
}
