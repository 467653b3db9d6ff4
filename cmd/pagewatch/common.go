package main

import (
	"fmt"

	"github.com/gin-gonic/gin"

	appctx "github.com/bassista/go_pagewatch/internal/app"
	"github.com/bassista/go_pagewatch/internal/config"
	"github.com/bassista/go_pagewatch/internal/logger"
	"github.com/bassista/go_pagewatch/internal/reporting"
)

// bootstrap loads the configuration, applies logging settings and wires the app.
func bootstrap(cli *CLI) (*appctx.App, error) {
	cfg, err := config.LoadConfigFrom(cli.Config)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	level := cfg.Misc.LogLevel
	if cli.LogLevel != "" {
		level = cli.LogLevel
	}
	if err := logger.SetLevel(level); err != nil {
		logger.WithComponent("main").Warnf("invalid log level '%s', keeping '%s': %v", level, logger.Logger.GetLevel(), err)
	}
	logger.WithComponent("main").Debugf("log level set to: %s", logger.Logger.GetLevel())

	gin.SetMode(cfg.Misc.GinMode)
	gin.DefaultWriter = logger.Logger.Writer()
	gin.DefaultErrorWriter = logger.Logger.Writer()

	app, err := appctx.NewFromConfig(cfg, reporting.NewFromEnv(logger.Logger))
	if err != nil {
		return nil, fmt.Errorf("cannot init app: %w", err)
	}
	return app, nil
}
