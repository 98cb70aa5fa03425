package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/vnnyx/lumina-capital/internal/logger"
	"github.com/vnnyx/lumina-capital/internal/trace"
	"github.com/vnnyx/lumina-capital/internal/types"
)

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	mode := flag.String("mode", "full", "cycle mode: full, analyze_only or decide_only")
	live := flag.Bool("live", false, "submit real orders (overrides mode: PAPER in the config)")
	dryRun := flag.Bool("dry-run", false, "generate decisions but skip execution entirely")
	coins := flag.Int("coins", 0, "override the number of coins to analyze")
	flag.Parse()

	cycleMode, err := parseCycleMode(*mode)
	must(err)

	must(initializeSystem())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigc
		logger.Warn(ctx, "Signal received, cancelling cycle")
		cancel()
	}()

	cfg, err := loadConfig(ctx, *configPath)
	must(err)
	if *live {
		cfg.Mode = "LIVE"
	}
	if *coins > 0 {
		cfg.TopCoins = *coins
		cfg.Universe.ResultLimit = *coins
	}

	app, err := buildApp(ctx, cfg)
	must(err)
	defer app.Close()

	result, runErr := app.Cycle.Run(ctx, cycleMode, *dryRun)

	out, err := json.MarshalIndent(result, "", "  ")
	must(err)
	fmt.Println(string(out))

	_ = trace.Shutdown(context.Background())

	if runErr != nil || !result.Success {
		os.Exit(1)
	}
}

func parseCycleMode(s string) (types.CycleMode, error) {
	switch m := types.CycleMode(s); m {
	case types.ModeFull, types.ModeAnalyzeOnly, types.ModeDecideOnly:
		return m, nil
	default:
		return "", fmt.Errorf("invalid mode '%s': must be 'full', 'analyze_only' or 'decide_only'", s)
	}
}
