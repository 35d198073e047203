package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coinpilot/internal/advisor"
	"coinpilot/internal/audit"
	"coinpilot/internal/bot"
	"coinpilot/internal/cache"
	"coinpilot/internal/config"
	"coinpilot/internal/db"
	"coinpilot/internal/exchange"
	"coinpilot/internal/handler"
	"coinpilot/internal/job"
	"coinpilot/internal/repository"
	"coinpilot/internal/scorer"
	"coinpilot/internal/service"
	"coinpilot/internal/trade"
	"coinpilot/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initPostgresFunc       = db.InitPostgres
	initRedisFunc          = cache.InitRedis
	initTracerFunc         = tracing.InitTracer
	startJobFunc           = func(j *job.TradeCycleJob, ctx context.Context) { go j.Start(ctx) }
	startTelegramBotFunc   = bot.StartTelegramBot
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init Postgres and Redis
	initPostgresFunc(ctx, cfg.DatabaseURL)
	initRedisFunc(ctx, cfg.RedisURL)

	// Init tracing
	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	// Repositories and migrations (skipped without a database)
	var candleRepo *repository.CandleRepository
	var tradeRepo *repository.TradeRepository
	if db.Pool != nil {
		candleRepo = repository.NewCandleRepository(db.Pool, tracer)
		tradeRepo = repository.NewTradeRepository(db.Pool, tracer)
		if err := candleRepo.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run candle migrations: %v", err)
		}
		if err := tradeRepo.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run trade migrations: %v", err)
		}
	}

	// Exchange client and services
	coinbase := exchange.NewCoinbaseClient(cfg.CoinbaseAPIKey, cfg.CoinbaseAPISecret, tracer)
	snapshotCache := cache.NewSnapshotCache(cache.Client)

	var candleStore service.CandleStore
	if candleRepo != nil {
		candleStore = candleRepo
	}
	marketService := service.NewMarketService(tracer, coinbase, candleStore, snapshotCache)
	portfolioService := service.NewPortfolioService(tracer, coinbase, coinbase, marketService)

	sc := scorer.New(scorer.Config{
		BuyDipThresholdPct:     cfg.BuyDipThresholdPct,
		SellProfitThresholdPct: cfg.SellProfitThresholdPct,
		BuyNotionalUSD:         cfg.BuyNotionalUSD,
		MinQuoteBalanceUSD:     cfg.MinNotionalUSD,
		ProtectedAsset:         cfg.ProtectedAsset,
	})

	var refiner service.DecisionRefiner
	if cfg.OpenAIAPIKey != "" {
		refiner = advisor.NewRefiner(tracer, advisor.NewOpenAIClient(cfg.OpenAIAPIKey), cfg.OpenAIModel)
	}

	validator := trade.NewValidator(tracer, coinbase, cfg.MinNotionalUSD, cfg.ProtectedAsset)
	engine := trade.NewEngine(tracer, coinbase, coinbase, portfolioService,
		time.Duration(cfg.OrderDelaySecs)*time.Second)
	auditLog := audit.NewLogger(cfg.AuditDir)

	var store service.ReportStore
	if tradeRepo != nil {
		store = tradeRepo
	}

	traderService := service.NewTraderService(
		tracer, marketService, portfolioService, sc,
		refiner, validator, engine, auditLog, store, nil,
	)

	// Telegram bot (optional)
	if notifier := startTelegramBotFunc(traderService, portfolioService, cfg.TelegramBotToken, cfg.TelegramChatID); notifier != nil {
		traderService.SetNotifier(notifier)
	}

	// Trading loop
	cycleJob := job.NewTradeCycleJob(tracer, traderService,
		time.Duration(cfg.CycleIntervalSecs)*time.Second)
	startJobFunc(cycleJob, ctx)

	// Status API
	var history handler.TradeHistory
	var archive handler.CandleArchive
	if tradeRepo != nil {
		history = tradeRepo
	}
	if candleRepo != nil {
		archive = candleRepo
	}
	h := handler.New(tracer, traderService, portfolioService, history, archive)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("coinpilot"))
	h.RegisterRoutes(r)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Trader exiting")
}
