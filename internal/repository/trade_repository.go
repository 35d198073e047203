package repository

import (
	"context"
	"encoding/json"
	"time"

	"coinpilot/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const createTradeTables = `
CREATE TABLE IF NOT EXISTS cycle_reports (
    id          BIGSERIAL   PRIMARY KEY,
    started_at  TIMESTAMPTZ NOT NULL,
    finished_at TIMESTAMPTZ NOT NULL,
    rationale   TEXT        NOT NULL DEFAULT '',
    payload     JSONB       NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS order_results (
    id           BIGSERIAL   PRIMARY KEY,
    product_id   TEXT        NOT NULL,
    side         TEXT        NOT NULL,
    amount_usd   NUMERIC     NOT NULL,
    status       TEXT        NOT NULL,
    token        TEXT        NOT NULL,
    detail       TEXT        NOT NULL DEFAULT '',
    submitted_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_order_results_product_time
    ON order_results (product_id, submitted_at DESC);
`

// TradeRepository persists cycle reports and per-order outcomes for audit.
type TradeRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewTradeRepository(pool PgxPool, tracer trace.Tracer) *TradeRepository {
	return &TradeRepository{pool: pool, tracer: tracer}
}

func (r *TradeRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "trade-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, createTradeTables)
	return err
}

func (r *TradeRepository) SaveReport(ctx context.Context, report domain.CycleReport) error {
	_, span := r.tracer.Start(ctx, "trade-repo.save-report")
	defer span.End()

	payload, err := json.Marshal(report)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO cycle_reports (started_at, finished_at, rationale, payload)
		 VALUES ($1, $2, $3, $4)`,
		report.StartedAt, report.FinishedAt, report.Rationale, payload,
	)
	return err
}

func (r *TradeRepository) SaveOrderResult(ctx context.Context, result domain.OrderResult) error {
	_, span := r.tracer.Start(ctx, "trade-repo.save-order-result")
	defer span.End()

	_, err := r.pool.Exec(ctx,
		`INSERT INTO order_results (product_id, side, amount_usd, status, token, detail, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		result.Action.ProductID, string(result.Action.Side), result.Action.AmountUSD,
		string(result.Status), result.Token, result.Detail, result.SubmittedAt,
	)
	return err
}

func (r *TradeRepository) RecentReports(ctx context.Context, limit int) ([]domain.CycleReport, error) {
	_, span := r.tracer.Start(ctx, "trade-repo.recent-reports")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT payload FROM cycle_reports ORDER BY started_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []domain.CycleReport
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var report domain.CycleReport
		if err := json.Unmarshal(payload, &report); err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

func (r *TradeRepository) RecentOrderResults(ctx context.Context, limit int) ([]domain.OrderResult, error) {
	_, span := r.tracer.Start(ctx, "trade-repo.recent-order-results")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT product_id, side, amount_usd, status, token, detail, submitted_at
		 FROM order_results
		 ORDER BY submitted_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.OrderResult
	for rows.Next() {
		var res domain.OrderResult
		var side, status string
		var ts time.Time
		if err := rows.Scan(&res.Action.ProductID, &side, &res.Action.AmountUSD,
			&status, &res.Token, &res.Detail, &ts); err != nil {
			return nil, err
		}
		res.Action.Side = domain.Side(side)
		res.Status = domain.OrderStatus(status)
		res.SubmittedAt = ts.UTC()
		results = append(results, res)
	}
	return results, rows.Err()
}
