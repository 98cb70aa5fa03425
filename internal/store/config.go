package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Mode                string  `yaml:"mode"` // PAPER or LIVE
	TopCoins            int     `yaml:"top_coins"`
	MinPortfolioBalance string  `yaml:"min_portfolio_balance"`
	IncludePortfolio    bool    `yaml:"include_portfolio_in_analysis"`

	Universe struct {
		InitialPool int `yaml:"initial_pool"`
		ResultLimit int `yaml:"result_limit"`
		Filters     struct {
			PumpDumpThreshold float64 `yaml:"pump_dump_threshold"`
			PriceChange24hMin float64 `yaml:"price_change_24h_min"`
			PriceChange24hMax float64 `yaml:"price_change_24h_max"`
			PriceChange7dMin  float64 `yaml:"price_change_7d_min"`
			PriceChange7dMax  float64 `yaml:"price_change_7d_max"`
			MarketCapMin      float64 `yaml:"market_cap_min"`
			MarketCapMax      float64 `yaml:"market_cap_max"`
		} `yaml:"filters"`
	} `yaml:"universe"`

	Bitget struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"bitget"`

	CoinGecko struct {
		BaseURL       string `yaml:"base_url"`
		RatePerMinute int    `yaml:"rate_per_minute"`
	} `yaml:"coingecko"`

	AlternativeMe struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"alternative_me"`

	LLM struct {
		Analyst struct {
			Provider    string  `yaml:"provider"` // GEMINI or NOOP
			Model       string  `yaml:"model"`
			MaxTokens   int     `yaml:"max_tokens"`
			Temperature float32 `yaml:"temperature"`
		} `yaml:"analyst"`
		Manager struct {
			Provider    string  `yaml:"provider"` // DEEPSEEK or NOOP
			Model       string  `yaml:"model"`
			BaseURL     string  `yaml:"base_url"`
			MaxTokens   int     `yaml:"max_tokens"`
			Temperature float32 `yaml:"temperature"`
		} `yaml:"manager"`
	} `yaml:"llm"`

	Cache struct {
		Path              string `yaml:"path"`
		FearGreedTTLSec   int    `yaml:"fear_greed_ttl_seconds"`
		CoinMetricsTTLSec int    `yaml:"coin_metrics_ttl_seconds"`
		NewsTTLSec        int    `yaml:"news_ttl_seconds"`
	} `yaml:"cache"`

	Storage struct {
		Type string `yaml:"type"` // json or sqlite
		Path string `yaml:"path"`
	} `yaml:"storage"`

	PaperLog struct {
		Dir           string `yaml:"dir"`
		RetentionDays int    `yaml:"retention_days"`
		PositionsPath string `yaml:"positions_path"`
	} `yaml:"paperlog"`
}

func (c *Config) Validate() error {
	if c.Mode != "PAPER" && c.Mode != "LIVE" {
		return fmt.Errorf("invalid mode '%s': must be 'PAPER' or 'LIVE'", c.Mode)
	}
	if c.TopCoins <= 0 {
		return fmt.Errorf("top_coins must be positive, got %d", c.TopCoins)
	}
	if c.Storage.Type != "json" && c.Storage.Type != "sqlite" {
		return fmt.Errorf("storage.type must be 'json' or 'sqlite', got '%s'", c.Storage.Type)
	}
	switch c.LLM.Analyst.Provider {
	case "GEMINI", "NOOP":
	default:
		return fmt.Errorf("llm.analyst.provider must be 'GEMINI' or 'NOOP', got '%s'", c.LLM.Analyst.Provider)
	}
	switch c.LLM.Manager.Provider {
	case "DEEPSEEK", "NOOP":
	default:
		return fmt.Errorf("llm.manager.provider must be 'DEEPSEEK' or 'NOOP', got '%s'", c.LLM.Manager.Provider)
	}
	return nil
}

// IsPaper reports whether trades are simulated instead of submitted.
func (c *Config) IsPaper() bool { return c.Mode == "PAPER" }

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	applyDefaults(&c)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

func applyDefaults(c *Config) {
	if c.Mode == "" {
		c.Mode = "PAPER"
	}
	if c.TopCoins == 0 {
		c.TopCoins = 20
	}
	if c.MinPortfolioBalance == "" {
		c.MinPortfolioBalance = "1.0"
	}
	if c.Universe.InitialPool == 0 {
		c.Universe.InitialPool = 200
	}
	if c.Universe.ResultLimit == 0 {
		c.Universe.ResultLimit = c.TopCoins
	}
	if c.Universe.Filters.PumpDumpThreshold == 0 {
		c.Universe.Filters.PumpDumpThreshold = 200
	}
	if c.Universe.Filters.PriceChange24hMin == 0 {
		c.Universe.Filters.PriceChange24hMin = 15
	}
	if c.Universe.Filters.PriceChange24hMax == 0 {
		c.Universe.Filters.PriceChange24hMax = 50
	}
	if c.Universe.Filters.PriceChange7dMin == 0 {
		c.Universe.Filters.PriceChange7dMin = 30
	}
	if c.Universe.Filters.PriceChange7dMax == 0 {
		c.Universe.Filters.PriceChange7dMax = 100
	}
	if c.Universe.Filters.MarketCapMin == 0 {
		c.Universe.Filters.MarketCapMin = 10_000_000
	}
	if c.Universe.Filters.MarketCapMax == 0 {
		c.Universe.Filters.MarketCapMax = 500_000_000
	}
	if c.Bitget.BaseURL == "" {
		c.Bitget.BaseURL = "https://api.bitget.com"
	}
	if c.CoinGecko.BaseURL == "" {
		c.CoinGecko.BaseURL = "https://api.coingecko.com/api/v3"
	}
	if c.CoinGecko.RatePerMinute == 0 {
		c.CoinGecko.RatePerMinute = 30
	}
	if c.AlternativeMe.BaseURL == "" {
		c.AlternativeMe.BaseURL = "https://api.alternative.me"
	}
	if c.LLM.Analyst.Provider == "" {
		c.LLM.Analyst.Provider = "NOOP"
	}
	if c.LLM.Analyst.Model == "" {
		c.LLM.Analyst.Model = "gemini-2.0-flash"
	}
	if c.LLM.Analyst.Temperature == 0 {
		c.LLM.Analyst.Temperature = 0.3
	}
	if c.LLM.Manager.Provider == "" {
		c.LLM.Manager.Provider = "NOOP"
	}
	if c.LLM.Manager.Model == "" {
		c.LLM.Manager.Model = "deepseek-reasoner"
	}
	if c.LLM.Manager.BaseURL == "" {
		c.LLM.Manager.BaseURL = "https://api.deepseek.com"
	}
	if c.LLM.Manager.Temperature == 0 {
		c.LLM.Manager.Temperature = 0.3
	}
	if c.Cache.Path == "" {
		c.Cache.Path = "data/fundamental_cache.json"
	}
	if c.Cache.FearGreedTTLSec == 0 {
		c.Cache.FearGreedTTLSec = 3600
	}
	if c.Cache.CoinMetricsTTLSec == 0 {
		c.Cache.CoinMetricsTTLSec = 1800
	}
	if c.Cache.NewsTTLSec == 0 {
		c.Cache.NewsTTLSec = 900
	}
	if c.Storage.Type == "" {
		c.Storage.Type = "json"
	}
	if c.Storage.Path == "" {
		if c.Storage.Type == "sqlite" {
			c.Storage.Path = "data/analyses.db"
		} else {
			c.Storage.Path = "data/coin_analyses.json"
		}
	}
	if c.PaperLog.Dir == "" {
		c.PaperLog.Dir = "logs"
	}
	if c.PaperLog.PositionsPath == "" {
		c.PaperLog.PositionsPath = "data/paper_positions.json"
	}
}
