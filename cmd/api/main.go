package main

import (
	"fmt"
	"os"

	logging "github.com/ipfs/go-log/v2"
	cli "github.com/urfave/cli/v2"

	"deco-ledger/internal/config"
)

var log = logging.Logger("deco-ledger")

func main() {
	app := cli.NewApp()
	app.Name = "deco-ledger"
	app.Usage = "crowdfunding escrow and governance ledger"
	app.Commands = []*cli.Command{
		serveCmd,
		migrateCmd,
		initCmd,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads and validates the environment and applies the log level.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := logging.SetLogLevel("*", cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("config: LOG_LEVEL: %w", err)
	}
	return cfg, nil
}
