package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/vnnyx/lumina-capital/internal/agents"
	"github.com/vnnyx/lumina-capital/internal/cycle"
	"github.com/vnnyx/lumina-capital/internal/exchange/bitget"
	"github.com/vnnyx/lumina-capital/internal/exchange/exchangeobs"
	"github.com/vnnyx/lumina-capital/internal/fundamental"
	"github.com/vnnyx/lumina-capital/internal/interfaces"
	"github.com/vnnyx/lumina-capital/internal/llm/deepseek"
	"github.com/vnnyx/lumina-capital/internal/llm/gemini"
	"github.com/vnnyx/lumina-capital/internal/llm/llmobs"
	"github.com/vnnyx/lumina-capital/internal/llm/noop"
	"github.com/vnnyx/lumina-capital/internal/logger"
	"github.com/vnnyx/lumina-capital/internal/storage"
	"github.com/vnnyx/lumina-capital/internal/store"
	"github.com/vnnyx/lumina-capital/internal/trace"
	"github.com/vnnyx/lumina-capital/internal/universe"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// app holds the wired components for one cycle run.
type app struct {
	Cycle *cycle.Cycle
	store interfaces.AnalysisStore
}

func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logger.Warn(context.Background(), "Failed to close analysis store", "error", err)
		}
	}
}

// initializeSystem initializes environment, logger and tracer
func initializeSystem() error {
	// Load environment variables
	_ = godotenv.Load()

	// Initialize logger
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Initialize tracer
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	return nil
}

// loadConfig loads and returns the configuration
func loadConfig(ctx context.Context, path string) (*store.Config, error) {
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		return nil, err
	}
	return cfg, nil
}

// buildApp wires exchange clients, fundamental sources, storage, LLM
// providers and agents into a runnable cycle.
func buildApp(ctx context.Context, cfg *store.Config) (*app, error) {
	minBalance, err := decimal.NewFromString(cfg.MinPortfolioBalance)
	if err != nil {
		return nil, fmt.Errorf("invalid min_portfolio_balance '%s': %w", cfg.MinPortfolioBalance, err)
	}

	paperLog := storage.NewPaperLog(cfg.PaperLog.Dir)
	compressOldLogs(ctx, paperLog, cfg.PaperLog.RetentionDays)

	market, trader := initializeExchange(ctx, cfg, paperLog, cfg.PaperLog.PositionsPath)
	fund := initializeFundamentals(cfg)

	analysisStore, err := initializeStore(cfg)
	if err != nil {
		return nil, err
	}

	analystLLM := initializeAnalystLLM(ctx, cfg)
	managerLLM := initializeManagerLLM(ctx, cfg)

	analyst := agents.NewAnalyst(analystLLM, market, analysisStore, fund, cfg.LLM.Analyst.Temperature)
	manager := agents.NewManager(managerLLM, analysisStore, trader, minBalance, cfg.LLM.Manager.Temperature)

	screener := universe.NewScreener(market, fund, universe.Filters{
		PumpDumpThreshold: cfg.Universe.Filters.PumpDumpThreshold,
		PriceChange24hMin: cfg.Universe.Filters.PriceChange24hMin,
		PriceChange24hMax: cfg.Universe.Filters.PriceChange24hMax,
		PriceChange7dMin:  cfg.Universe.Filters.PriceChange7dMin,
		PriceChange7dMax:  cfg.Universe.Filters.PriceChange7dMax,
		MarketCapMin:      cfg.Universe.Filters.MarketCapMin,
		MarketCapMax:      cfg.Universe.Filters.MarketCapMax,
	}, cfg.Universe.InitialPool, cfg.Universe.ResultLimit)

	scorer := agents.NewOutcomeBackfill(analysisStore, market)

	c := cycle.New(trader, analyst, manager, scorer, screener, fund.Resolver(), minBalance, cfg.IncludePortfolio)

	return &app{Cycle: c, store: analysisStore}, nil
}

// compressOldLogs compresses old order log files if retention is configured
func compressOldLogs(ctx context.Context, paperLog *storage.PaperLog, retentionDays int) {
	if retentionDays <= 0 {
		return
	}
	if err := paperLog.CompressOlder(retentionDays); err != nil {
		logger.Warn(ctx, "Failed to compress old order logs", "error", err)
	}
}

// initializeExchange builds the Bitget market-data and trading clients
// with observability wrappers applied.
func initializeExchange(ctx context.Context, cfg *store.Config, paperLog *storage.PaperLog, positionsPath string) (interfaces.Market, interfaces.Trader) {
	creds := bitget.CredentialsFromEnv()
	client := bitget.NewClient(cfg.Bitget.BaseURL, creds)

	paper := cfg.IsPaper()
	var entries bitget.EntrySource
	if paper {
		logger.Warn(ctx, "Running in PAPER mode - orders will be simulated")
		entries = storage.OpenPaperPositions(positionsPath)
	} else if !creds.Complete() {
		logger.Warn(ctx, "LIVE mode without complete Bitget credentials - authenticated calls will fail")
	}

	market := exchangeobs.WrapMarket(bitget.NewMarketData(client))
	trader := exchangeobs.WrapTrader(bitget.NewTrader(client, paper, paperLog, entries))
	return market, trader
}

// initializeFundamentals builds the cached fundamental-data service.
func initializeFundamentals(cfg *store.Config) *fundamental.Service {
	cache := fundamental.OpenCache(cfg.Cache.Path)
	cg := fundamental.NewCoinGeckoClient(cfg.CoinGecko.BaseURL, os.Getenv("COINGECKO_API_KEY"), cfg.CoinGecko.RatePerMinute)
	am := fundamental.NewAlternativeMeClient(cfg.AlternativeMe.BaseURL)
	resolver := fundamental.NewResolver(cg)

	ttls := fundamental.TTLs{
		FearGreed:   time.Duration(cfg.Cache.FearGreedTTLSec) * time.Second,
		CoinMetrics: time.Duration(cfg.Cache.CoinMetricsTTLSec) * time.Second,
		News:        time.Duration(cfg.Cache.NewsTTLSec) * time.Second,
		Global:      time.Duration(cfg.Cache.FearGreedTTLSec) * time.Second,
	}
	return fundamental.NewService(cache, cg, am, resolver, nil, ttls)
}

// initializeStore builds the analysis store selected by the config.
func initializeStore(cfg *store.Config) (interfaces.AnalysisStore, error) {
	switch cfg.Storage.Type {
	case "sqlite":
		return storage.NewSQLiteStore(cfg.Storage.Path)
	default:
		return storage.NewJSONStore(cfg.Storage.Path)
	}
}

// initializeAnalystLLM builds the analyst LLM provider with observability
func initializeAnalystLLM(ctx context.Context, cfg *store.Config) interfaces.LLM {
	if cfg.LLM.Analyst.Provider == "GEMINI" {
		c, err := gemini.NewClient(cfg.LLM.Analyst.Model, cfg.LLM.Analyst.MaxTokens)
		if err == nil {
			return llmobs.Wrap(c)
		}
		logger.Warn(ctx, "Gemini unavailable, falling back to noop analyst", "error", err)
	} else {
		logger.Warn(ctx, "No analyst LLM provider configured - using noop")
	}
	return llmobs.Wrap(noop.NewClient())
}

// initializeManagerLLM builds the manager LLM provider with observability
func initializeManagerLLM(ctx context.Context, cfg *store.Config) interfaces.LLM {
	if cfg.LLM.Manager.Provider == "DEEPSEEK" {
		c, err := deepseek.NewClient(cfg.LLM.Manager.BaseURL, cfg.LLM.Manager.Model, cfg.LLM.Manager.MaxTokens)
		if err == nil {
			return llmobs.Wrap(c)
		}
		logger.Warn(ctx, "DeepSeek unavailable, falling back to noop manager", "error", err)
	} else {
		logger.Warn(ctx, "No manager LLM provider configured - using noop")
	}
	return llmobs.Wrap(noop.NewClient())
}
