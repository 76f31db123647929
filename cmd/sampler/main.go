package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/samvad-feed-sampler/internal/app"
	"github.com/samvad-hq/samvad-feed-sampler/internal/config"
	"github.com/samvad-hq/samvad-feed-sampler/internal/logger"
)

var paramsJSON = flag.String("params", "", `run parameters as a JSON object, e.g. {"maximum_items_to_collect": 5}`)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "sampler failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.RunInterval = 0

	raw := map[string]any{}
	if *paramsJSON != "" {
		if err := json.Unmarshal([]byte(*paramsJSON), &raw); err != nil {
			return fmt.Errorf("decode -params: %w", err)
		}
	}
	params := app.ReadParameters(raw, app.ParametersFromConfig(cfg))

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	harvester, err := app.NewHarvester(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize sampler", "error", err.Error())
		return err
	}

	return harvester.Run(ctx, params)
}
