package job

import (
	"context"
	"log"
	"time"

	"coinpilot/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

type CycleRunner interface {
	RunCycle(ctx context.Context) (domain.CycleReport, error)
}

// TradeCycleJob runs trading cycles back to back with a fixed sleep between
// them. A failed cycle is logged and retried on the next tick; nothing in a
// cycle is allowed to kill the process.
type TradeCycleJob struct {
	tracer   trace.Tracer
	runner   CycleRunner
	interval time.Duration
}

func NewTradeCycleJob(tracer trace.Tracer, runner CycleRunner, interval time.Duration) *TradeCycleJob {
	if interval <= 0 {
		interval = time.Hour
	}
	return &TradeCycleJob{tracer: tracer, runner: runner, interval: interval}
}

// Start blocks until ctx is cancelled.
func (j *TradeCycleJob) Start(ctx context.Context) {
	log.Println("Trade cycle job starting...")

	j.runOnce(ctx)
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Trade cycle job stopped")
			return
		case <-ticker.C:
			j.runOnce(ctx)
		}
	}
}

func (j *TradeCycleJob) runOnce(ctx context.Context) {
	_, span := j.tracer.Start(ctx, "trade-cycle-job.run-once")
	defer span.End()

	report, err := j.runner.RunCycle(ctx)
	if err != nil {
		log.Printf("Trade cycle error: %v", err)
		return
	}

	confirmed := 0
	for _, result := range report.Results {
		if result.Status == domain.OrderConfirmed {
			confirmed++
		}
	}
	log.Printf(
		"Trade cycle complete snapshots=%d positions=%d buys=%d sells=%d actions=%d rejected=%d confirmed=%d",
		report.SnapshotCount,
		report.PositionCount,
		len(report.Buys),
		len(report.Sells),
		len(report.Actions),
		len(report.Rejections),
		confirmed,
	)
}
