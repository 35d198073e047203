package service

import (
	"context"
	"log"
	"sync"
	"time"

	"coinpilot/internal/advisor"
	"coinpilot/internal/domain"
	"coinpilot/internal/scorer"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DecisionRefiner is the optional LLM stage between scoring and validation.
type DecisionRefiner interface {
	Refine(ctx context.Context, in advisor.RefineInput) (advisor.RefineResult, error)
}

// ActionValidator screens candidate actions against balances and policy.
type ActionValidator interface {
	Filter(ctx context.Context, actions []domain.TradeAction, balances domain.Balances) ([]domain.TradeAction, []domain.Rejection)
}

// OrderExecutor submits validated actions and reports per-action outcomes.
type OrderExecutor interface {
	Execute(ctx context.Context, actions []domain.TradeAction) []domain.OrderResult
}

// ReportSink records the finished cycle, e.g. to the audit files.
type ReportSink interface {
	Record(report domain.CycleReport) error
}

// ReportStore persists reports and order results, e.g. to Postgres.
type ReportStore interface {
	SaveReport(ctx context.Context, report domain.CycleReport) error
	SaveOrderResult(ctx context.Context, result domain.OrderResult) error
}

// Notifier pushes a cycle summary to an operator channel.
type Notifier interface {
	NotifyCycle(report domain.CycleReport)
}

// TraderService runs one full trading cycle: snapshot, score, refine,
// validate, execute, record. Cycles are strictly sequential; order
// submission order matters for balance correctness.
type TraderService struct {
	tracer    trace.Tracer
	market    *MarketService
	portfolio *PortfolioService
	scorer    *scorer.Scorer
	refiner   DecisionRefiner
	validator ActionValidator
	engine    OrderExecutor
	audit     ReportSink
	store     ReportStore
	notifier  Notifier

	mu         sync.RWMutex
	lastReport *domain.CycleReport
}

func NewTraderService(
	tracer trace.Tracer,
	market *MarketService,
	portfolio *PortfolioService,
	sc *scorer.Scorer,
	refiner DecisionRefiner,
	validator ActionValidator,
	engine OrderExecutor,
	audit ReportSink,
	store ReportStore,
	notifier Notifier,
) *TraderService {
	return &TraderService{
		tracer:    tracer,
		market:    market,
		portfolio: portfolio,
		scorer:    sc,
		refiner:   refiner,
		validator: validator,
		engine:    engine,
		audit:     audit,
		store:     store,
		notifier:  notifier,
	}
}

// SetNotifier attaches an operator notification channel after construction.
// The Telegram bot needs the trader service to answer /status, so the two
// are wired in stages.
func (s *TraderService) SetNotifier(n Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifier = n
}

// LastReport returns the most recent finished cycle, or nil before the first
// one completes.
func (s *TraderService) LastReport() *domain.CycleReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastReport
}

// RunCycle executes one pass of the loop. An error from the snapshot stages
// aborts the cycle (the job retries next tick); everything after scoring
// degrades instead of failing.
func (s *TraderService) RunCycle(ctx context.Context) (domain.CycleReport, error) {
	ctx, span := s.tracer.Start(ctx, "trader-service.run-cycle")
	defer span.End()

	report := domain.CycleReport{StartedAt: time.Now().UTC()}

	balances, err := s.portfolio.Balances(ctx)
	if err != nil {
		return report, err
	}

	snapshots, err := s.market.Snapshots(ctx)
	if err != nil {
		return report, err
	}
	report.SnapshotCount = len(snapshots)

	positions, err := s.portfolio.Positions(ctx, balances)
	if err != nil {
		return report, err
	}
	report.PositionCount = len(positions)

	report.Buys = s.scorer.ScoreBuys(snapshots, balances)
	report.Sells = s.scorer.ScoreSells(positions)
	span.SetAttributes(
		attribute.Int("cycle.buy_opportunities", len(report.Buys)),
		attribute.Int("cycle.sell_opportunities", len(report.Sells)),
	)

	candidates := s.refine(ctx, &report, balances, positions)

	valid, rejections := s.validator.Filter(ctx, candidates, balances)
	report.Actions = valid
	report.Rejections = rejections

	report.Results = s.engine.Execute(ctx, valid)
	report.FinishedAt = time.Now().UTC()

	s.record(ctx, report)

	s.mu.Lock()
	s.lastReport = &report
	s.mu.Unlock()
	return report, nil
}

// refine passes the scored opportunities through the LLM stage when one is
// configured. Without a refiner, or when the refiner fails, the fallback is
// conservative: no refiner means the scorer's own actions trade (sells
// first, so freed USD can fund buys), a failed refiner means nothing trades.
func (s *TraderService) refine(ctx context.Context, report *domain.CycleReport, balances domain.Balances, positions []domain.Position) []domain.TradeAction {
	if s.refiner == nil {
		actions := make([]domain.TradeAction, 0, len(report.Sells)+len(report.Buys))
		for _, opp := range report.Sells {
			actions = append(actions, opp.Action())
		}
		for _, opp := range report.Buys {
			actions = append(actions, opp.Action())
		}
		return actions
	}

	in := advisor.RefineInput{
		Buys:      report.Buys,
		Sells:     report.Sells,
		Balances:  balances,
		Positions: summarize(positions),
	}
	result, err := s.refiner.Refine(ctx, in)
	if err != nil {
		log.Printf("refiner unavailable, trading nothing this cycle: %v", err)
		return nil
	}
	report.Rationale = result.Rationale
	return result.Actions
}

func (s *TraderService) record(ctx context.Context, report domain.CycleReport) {
	if s.audit != nil {
		if err := s.audit.Record(report); err != nil {
			log.Printf("audit log error: %v", err)
		}
	}
	if s.store != nil {
		if err := s.store.SaveReport(ctx, report); err != nil {
			log.Printf("report store error: %v", err)
		}
		for _, result := range report.Results {
			if err := s.store.SaveOrderResult(ctx, result); err != nil {
				log.Printf("order result store error: %v", err)
			}
		}
	}
	s.mu.RLock()
	notifier := s.notifier
	s.mu.RUnlock()
	if notifier != nil {
		notifier.NotifyCycle(report)
	}
}

func summarize(positions []domain.Position) []advisor.PositionSummary {
	out := make([]advisor.PositionSummary, 0, len(positions))
	for _, pos := range positions {
		out = append(out, advisor.PositionSummary{
			Currency:     pos.Currency,
			CoinAmount:   pos.CoinAmount,
			USDValue:     pos.USDValue,
			EntryPrice:   pos.EntryPrice,
			CurrentPrice: pos.CurrentPrice,
		})
	}
	return out
}
