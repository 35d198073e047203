package db

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

func TestInitPostgresSkipsWithoutURL(t *testing.T) {
	InitPostgres(context.Background(), "")
	if Pool != nil {
		t.Fatal("expected no pool without a database URL")
	}
}

func TestInitPostgresConnects(t *testing.T) {
	origNewPool := newPool
	origPing := pingPool
	t.Cleanup(func() {
		newPool = origNewPool
		pingPool = origPing
		Pool = nil
	})

	var capturedURL string
	newPool = func(ctx context.Context, url string) (*pgxpool.Pool, error) {
		capturedURL = url
		return &pgxpool.Pool{}, nil
	}
	pingPool = func(ctx context.Context, pool *pgxpool.Pool) error {
		return nil
	}

	InitPostgres(context.Background(), "postgres://example/trader")
	if capturedURL != "postgres://example/trader" {
		t.Fatalf("expected the configured url, got %s", capturedURL)
	}
	if Pool == nil {
		t.Fatal("expected the pool to be set")
	}
}
