package config

import "testing"

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CDP_API_KEY_NAME", "CDP_API_KEY_PRIVATE_KEY", "DATABASE_URL", "REDIS_URL",
		"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "OPENAI_API_KEY", "OPENAI_MODEL",
		"CYCLE_INTERVAL_SECS", "ORDER_DELAY_SECS",
		"BUY_NOTIONAL_USD", "MIN_NOTIONAL_USD", "BUY_DIP_THRESHOLD_PCT",
		"SELL_PROFIT_THRESHOLD_PCT", "PROTECTED_ASSET", "AUDIT_DIR", "HTTP_PORT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()
	if cfg.RedisURL != "localhost:6379" {
		t.Fatalf("expected default redis url, got %s", cfg.RedisURL)
	}
	if cfg.OpenAIModel != "gpt-4o-mini" {
		t.Fatalf("expected default model, got %s", cfg.OpenAIModel)
	}
	if cfg.CycleIntervalSecs != 3600 {
		t.Fatalf("expected hourly cycle default, got %d", cfg.CycleIntervalSecs)
	}
	if cfg.OrderDelaySecs != 3 {
		t.Fatalf("expected order delay 3, got %d", cfg.OrderDelaySecs)
	}
	if cfg.BuyNotionalUSD != 25 || cfg.MinNotionalUSD != 25 {
		t.Fatalf("expected 25 USD notionals, got %f / %f", cfg.BuyNotionalUSD, cfg.MinNotionalUSD)
	}
	if cfg.BuyDipThresholdPct != -5 || cfg.SellProfitThresholdPct != 5 {
		t.Fatalf("unexpected thresholds: %f / %f", cfg.BuyDipThresholdPct, cfg.SellProfitThresholdPct)
	}
	if cfg.ProtectedAsset != "MOG" {
		t.Fatalf("expected default protected asset MOG, got %s", cfg.ProtectedAsset)
	}
	if cfg.AuditDir != "ai_logs" {
		t.Fatalf("expected default audit dir, got %s", cfg.AuditDir)
	}
	if cfg.HTTPPort != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.HTTPPort)
	}
}

func TestLoadWithEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("CDP_API_KEY_NAME", "key")
	t.Setenv("CDP_API_KEY_PRIVATE_KEY", "secret")
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("TELEGRAM_CHAT_ID", "12345")
	t.Setenv("CYCLE_INTERVAL_SECS", "600")
	t.Setenv("ORDER_DELAY_SECS", "0")
	t.Setenv("BUY_NOTIONAL_USD", "50")
	t.Setenv("BUY_DIP_THRESHOLD_PCT", "-10")
	t.Setenv("PROTECTED_ASSET", "btc")

	cfg := Load()
	if cfg.CoinbaseAPIKey != "key" || cfg.CoinbaseAPISecret != "secret" {
		t.Fatalf("unexpected credentials: %+v", cfg)
	}
	if cfg.TelegramChatID != 12345 {
		t.Fatalf("expected chat id 12345, got %d", cfg.TelegramChatID)
	}
	if cfg.CycleIntervalSecs != 600 {
		t.Fatalf("expected cycle interval 600, got %d", cfg.CycleIntervalSecs)
	}
	if cfg.OrderDelaySecs != 0 {
		t.Fatalf("a zero order delay is valid, got %d", cfg.OrderDelaySecs)
	}
	if cfg.BuyNotionalUSD != 50 {
		t.Fatalf("expected buy notional 50, got %f", cfg.BuyNotionalUSD)
	}
	if cfg.BuyDipThresholdPct != -10 {
		t.Fatalf("expected dip threshold -10, got %f", cfg.BuyDipThresholdPct)
	}
	if cfg.ProtectedAsset != "BTC" {
		t.Fatalf("protected asset should be upper-cased, got %s", cfg.ProtectedAsset)
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("CYCLE_INTERVAL_SECS", "bad")
	t.Setenv("BUY_DIP_THRESHOLD_PCT", "5")
	t.Setenv("MIN_NOTIONAL_USD", "-1")

	cfg := Load()
	if cfg.CycleIntervalSecs != 3600 {
		t.Fatalf("invalid interval should fall back, got %d", cfg.CycleIntervalSecs)
	}
	if cfg.BuyDipThresholdPct != -5 {
		t.Fatalf("a positive dip threshold should fall back, got %f", cfg.BuyDipThresholdPct)
	}
	if cfg.MinNotionalUSD != 25 {
		t.Fatalf("a negative notional should fall back, got %f", cfg.MinNotionalUSD)
	}
}
