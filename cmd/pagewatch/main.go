package main

import (
	"github.com/alecthomas/kong"

	"github.com/bassista/go_pagewatch/internal/logger"
)

// CLI is the root command line. Flags override the matching config keys.
type CLI struct {
	Config   string `short:"c" help:"Directory holding config.yaml" env:"PAGEWATCH_CONFIG_PATH" default:"./config"`
	LogLevel string `name:"log-level" help:"Override misc.log_level (debug, info, warn, error)"`

	Run   RunCmd   `cmd:"" default:"withargs" help:"Watch the target once a day until interrupted"`
	Check CheckCmd `cmd:"" help:"Run a single watch cycle and exit"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("pagewatch"),
		kong.Description("Daily web page change watcher."),
		kong.UsageOnError(),
	)
	if err := ctx.Run(&cli); err != nil {
		logger.WithComponent("main").Fatal(err)
	}
}
