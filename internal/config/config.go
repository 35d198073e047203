package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	CoinbaseAPIKey    string
	CoinbaseAPISecret string
	DatabaseURL       string
	RedisURL          string
	TelegramBotToken  string
	TelegramChatID    int64

	OpenAIAPIKey string
	OpenAIModel  string

	CycleIntervalSecs int
	OrderDelaySecs    int

	BuyNotionalUSD         float64
	MinNotionalUSD         float64
	BuyDipThresholdPct     float64
	SellProfitThresholdPct float64
	ProtectedAsset         string

	AuditDir string
	HTTPPort int
}

func Load() *Config {
	cfg := &Config{
		CoinbaseAPIKey:    os.Getenv("CDP_API_KEY_NAME"),
		CoinbaseAPISecret: os.Getenv("CDP_API_KEY_PRIVATE_KEY"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
		TelegramBotToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
	}

	if cfg.CoinbaseAPIKey == "" || cfg.CoinbaseAPISecret == "" {
		log.Println("Warning: CDP_API_KEY_NAME / CDP_API_KEY_PRIVATE_KEY not set")
	}
	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set, trade history will not be persisted")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}
	if cfg.OpenAIAPIKey == "" {
		log.Println("Warning: OPENAI_API_KEY not set, decision refiner will be disabled")
	}

	cfg.OpenAIModel = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o-mini"
	}

	if v := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.TelegramChatID = n
		}
	}

	cfg.CycleIntervalSecs = 3600
	if v := strings.TrimSpace(os.Getenv("CYCLE_INTERVAL_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CycleIntervalSecs = n
		}
	}

	cfg.OrderDelaySecs = 3
	if v := strings.TrimSpace(os.Getenv("ORDER_DELAY_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.OrderDelaySecs = n
		}
	}

	cfg.BuyNotionalUSD = 25
	if v := strings.TrimSpace(os.Getenv("BUY_NOTIONAL_USD")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			cfg.BuyNotionalUSD = n
		}
	}

	cfg.MinNotionalUSD = 25
	if v := strings.TrimSpace(os.Getenv("MIN_NOTIONAL_USD")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			cfg.MinNotionalUSD = n
		}
	}

	cfg.BuyDipThresholdPct = -5
	if v := strings.TrimSpace(os.Getenv("BUY_DIP_THRESHOLD_PCT")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n < 0 {
			cfg.BuyDipThresholdPct = n
		}
	}

	cfg.SellProfitThresholdPct = 5
	if v := strings.TrimSpace(os.Getenv("SELL_PROFIT_THRESHOLD_PCT")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			cfg.SellProfitThresholdPct = n
		}
	}

	cfg.ProtectedAsset = strings.ToUpper(strings.TrimSpace(os.Getenv("PROTECTED_ASSET")))
	if cfg.ProtectedAsset == "" {
		cfg.ProtectedAsset = "MOG"
	}

	cfg.AuditDir = strings.TrimSpace(os.Getenv("AUDIT_DIR"))
	if cfg.AuditDir == "" {
		cfg.AuditDir = "ai_logs"
	}

	cfg.HTTPPort = 8080
	if v := strings.TrimSpace(os.Getenv("HTTP_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HTTPPort = n
		}
	}

	return cfg
}
