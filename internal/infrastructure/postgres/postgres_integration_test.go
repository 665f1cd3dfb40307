//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/khoaugment/pos-api/internal/application/inventory"
	"github.com/khoaugment/pos-api/internal/domain"
	"github.com/khoaugment/pos-api/internal/domain/entity"
	domaininv "github.com/khoaugment/pos-api/internal/domain/inventory"
	"github.com/khoaugment/pos-api/internal/infrastructure/postgres"
	"github.com/khoaugment/pos-api/pkg/config"
)

func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("pos_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "no se pudo iniciar el contenedor PostgreSQL")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 10})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	m, err := postgres.NewMigrator(pool, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, m.Up())
	return pool
}

func seedProduct(t *testing.T, pool *pgxpool.Pool, sku string, stock, minStock int64) *entity.Product {
	t.Helper()
	p := &entity.Product{
		SKU: sku, Name: "Sản phẩm " + sku, Price: decimal.NewFromInt(50000),
		CostPrice: decimal.NewFromInt(20000), Stock: stock, MinStock: minStock, Active: true,
	}
	require.NoError(t, postgres.NewProductRepository(pool).Create(context.Background(), p))
	return p
}

func TestPostgres_LibroDeMovimientos(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	p := seedProduct(t, pool, "CAFE-01", 50, 10)

	writer := inventory.NewLedgerWriter(postgres.NewTxRunner(pool), nil, nil, inventory.DefaultRetryConfig(), zerolog.Nop())

	res, err := writer.RecordMovement(ctx, inventory.MovementInput{
		ProductID: p.ID, MovementType: entity.MovementTypeSale, QuantityChange: -5,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(50), res.PreviousStock)
	assert.Equal(t, int64(45), res.NewStock)

	_, err = writer.RecordMovement(ctx, inventory.MovementInput{
		ProductID: p.ID, MovementType: entity.MovementTypeSale, QuantityChange: -100,
	})
	assert.ErrorIs(t, err, domain.ErrNegativeStock)

	chain, err := postgres.NewStockMovementRepository(pool).ListChain(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, chain, 1, "el movimiento rechazado no deja rastro")

	got, err := postgres.NewProductRepository(pool).GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(45), got.Stock)
	assert.Nil(t, domaininv.VerifyChain(got.Stock, chain))
}

func TestPostgres_CompareAndSwap(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	p := seedProduct(t, pool, "TRA-01", 10, 0)
	repo := postgres.NewProductRepository(pool)

	require.NoError(t, repo.CompareAndSwapStock(ctx, p.ID, 10, 7))
	assert.ErrorIs(t, repo.CompareAndSwapStock(ctx, p.ID, 10, 3), domain.ErrStaleStock)
	assert.ErrorIs(t, repo.CompareAndSwapStock(ctx, 999999, 0, 1), domain.ErrNotFound)
}

func TestPostgres_EscritoresConcurrentes(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	p := seedProduct(t, pool, "BANH-01", 100, 0)
	runner := postgres.NewTxRunner(pool)

	// Dos escritores con lockers independientes: solo el CAS protege el stock.
	writers := []*inventory.LedgerWriter{
		inventory.NewLedgerWriter(runner, inventory.NewProductLocker(), nil, inventory.RetryConfig{MaxAttempts: 50, InitialInterval: time.Millisecond, MaxInterval: 10 * time.Millisecond}, zerolog.Nop()),
		inventory.NewLedgerWriter(runner, inventory.NewProductLocker(), nil, inventory.RetryConfig{MaxAttempts: 50, InitialInterval: time.Millisecond, MaxInterval: 10 * time.Millisecond}, zerolog.Nop()),
	}
	var wg sync.WaitGroup
	var failures int
	var mu sync.Mutex
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(w *inventory.LedgerWriter) {
			defer wg.Done()
			_, err := w.RecordMovement(ctx, inventory.MovementInput{ProductID: p.ID, MovementType: entity.MovementTypeSale, QuantityChange: -1})
			if err != nil && !errors.Is(err, domain.ErrConcurrentModification) {
				mu.Lock()
				failures++
				mu.Unlock()
			}
		}(writers[i%2])
	}
	wg.Wait()
	assert.Zero(t, failures)

	got, err := postgres.NewProductRepository(pool).GetByID(ctx, p.ID)
	require.NoError(t, err)
	n, err := postgres.NewStockMovementRepository(pool).CountByProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100-n), got.Stock, "cada movimiento confirmado descuenta exactamente una unidad")
}

func TestPostgres_Reportes(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	cat := &entity.Category{Name: "Đồ uống", Active: true}
	require.NoError(t, postgres.NewCategoryRepository(pool).Create(ctx, cat))

	p := &entity.Product{SKU: "NUOC-01", Name: "Nước", CostPrice: decimal.NewFromInt(5000), Stock: 3, MinStock: 10, CategoryID: &cat.ID, Active: true}
	require.NoError(t, postgres.NewProductRepository(pool).Create(ctx, p))
	seedProduct(t, pool, "OTRO-01", 100, 1)

	reports := postgres.NewInventoryReportRepository(pool)
	low, err := reports.LowStock(ctx, 10)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, int64(7), low[0].Deficit)
	assert.Equal(t, "Đồ uống", low[0].CategoryName)

	rows, err := reports.Valuation(ctx, &cat.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, decimal.NewFromInt(15000).Equal(rows[0].TotalValue))
}

func TestPostgres_MinStockNoNegativo(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()

	err := postgres.NewProductRepository(pool).Create(ctx, &entity.Product{
		SKU: "NEG-01", Name: "Mínimo negativo", Price: decimal.NewFromInt(1000), MinStock: -1, Active: true,
	})
	require.Error(t, err)

	_, err = pool.Exec(ctx, `INSERT INTO products (sku, name, min_stock) VALUES ('NEG-02', 'SQL directo', -5)`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "products_min_stock_non_negative")

	p := seedProduct(t, pool, "MIN-01", 5, 2)
	_, err = pool.Exec(ctx, `UPDATE products SET min_stock = -1 WHERE id = $1`, p.ID)
	assert.Error(t, err)
}
