// Command tradestat computes performance statistics for closed-trade records.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"tradestat/internal/cli"
	"tradestat/internal/config"
	"tradestat/internal/logging"
)

func main() {
	cfg, err := config.Load(configDir(os.Args[1:]))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLoggerWithConfig(cfg.LogConfig())

	app := cli.NewApp(cfg, logger)
	if err := app.Execute(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// configDir picks up --config before cobra parses the command line, so the
// logger is built from the right file.
func configDir(args []string) string {
	for i, arg := range args {
		if arg == "--config" && i+1 < len(args) {
			return args[i+1]
		}
		if v, ok := strings.CutPrefix(arg, "--config="); ok {
			return v
		}
	}
	return config.DefaultConfigDir()
}
