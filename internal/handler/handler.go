package handler

import (
	"context"

	"coinpilot/internal/domain"
	"coinpilot/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// TradeHistory reads persisted cycle reports and order results.
type TradeHistory interface {
	RecentReports(ctx context.Context, limit int) ([]domain.CycleReport, error)
	RecentOrderResults(ctx context.Context, limit int) ([]domain.OrderResult, error)
}

// CandleArchive reads the candle history accumulated by the market snapshots.
type CandleArchive interface {
	GetCandles(ctx context.Context, symbol string, limit int) ([]domain.Candle, error)
}

// Handler serves the read-only status API over the trading loop.
type Handler struct {
	tracer    trace.Tracer
	trader    *service.TraderService
	portfolio *service.PortfolioService
	history   TradeHistory
	archive   CandleArchive
}

func New(tracer trace.Tracer, trader *service.TraderService, portfolio *service.PortfolioService, history TradeHistory, archive CandleArchive) *Handler {
	return &Handler{
		tracer:    tracer,
		trader:    trader,
		portfolio: portfolio,
		history:   history,
		archive:   archive,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/api/report", h.GetLastReport)
	r.GET("/api/reports", h.GetRecentReports)
	r.GET("/api/orders", h.GetRecentOrders)
	r.GET("/api/positions", h.GetPositions)
	r.GET("/api/candles/:symbol", h.GetCandleHistory)
}
