package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/khoaugment/pos-api/internal/application/inventory"
	"github.com/khoaugment/pos-api/internal/domain/entity"
	domaininv "github.com/khoaugment/pos-api/internal/domain/inventory"
	"github.com/khoaugment/pos-api/internal/infrastructure/memory"
)

const testUser = "7b0c6a52-3f0e-4a8e-9d0f-0d9b0c1e2a11"

type fixture struct {
	store      *memory.Store
	products   *memory.ProductRepo
	categories *memory.CategoryRepo
	movements  *memory.StockMovementRepo
	logs       *memory.ActivityLogRepo
	writer     *inventory.LedgerWriter
	orders     *inventory.OrderApplier
	batch      *inventory.BatchApplier
	dispatcher *inventory.AlertDispatcher
	reporting  *inventory.ReportingService
}

func fastRetry(attempts int) inventory.RetryConfig {
	return inventory.RetryConfig{MaxAttempts: attempts, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}
}

func newFixture(t *testing.T, policy domaininv.AlertPolicy) *fixture {
	t.Helper()
	log := zerolog.Nop()
	s := memory.NewStore()
	f := &fixture{
		store:      s,
		products:   memory.NewProductRepository(s),
		categories: memory.NewCategoryRepository(s),
		movements:  memory.NewStockMovementRepository(s),
		logs:       memory.NewActivityLogRepository(s),
	}
	trigger := inventory.NewAlertTrigger(f.products, f.categories, f.logs, policy, log)
	f.writer = inventory.NewLedgerWriter(memory.NewTxRunner(s), inventory.NewProductLocker(), trigger, fastRetry(5), log)
	f.dispatcher = inventory.NewAlertDispatcher(trigger, log)
	f.orders = inventory.NewOrderApplier(f.writer, f.dispatcher, log)
	f.batch = inventory.NewBatchApplier(f.writer, log)
	f.reporting = inventory.NewReportingService(f.products, f.movements, memory.NewInventoryReportRepository(s))
	require.NoError(t, memory.NewUserRepository(s).Create(context.Background(), &entity.User{
		ID: testUser, Email: "thu.ngan@khoaugment.vn", Name: "Thu Ngân", Role: entity.RoleManager, Status: entity.UserStatusActive,
	}))
	return f
}

func (f *fixture) addProduct(t *testing.T, id, stock, minStock int64) *entity.Product {
	t.Helper()
	p := &entity.Product{
		ID:        id,
		SKU:       "SKU-" + decimal.NewFromInt(id).String(),
		Name:      "Sản phẩm " + decimal.NewFromInt(id).String(),
		Price:     decimal.NewFromInt(25000),
		CostPrice: decimal.NewFromInt(18000),
		Stock:     stock,
		MinStock:  minStock,
		Active:    true,
	}
	require.NoError(t, f.products.Create(context.Background(), p))
	return p
}

func (f *fixture) stockOf(t *testing.T, id int64) int64 {
	t.Helper()
	p, err := f.products.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.Stock
}

func (f *fixture) movementCount(t *testing.T, id int64) int {
	t.Helper()
	n, err := f.movements.CountByProduct(context.Background(), id)
	require.NoError(t, err)
	return n
}

func (f *fixture) alertCount(t *testing.T) int {
	t.Helper()
	logs, err := f.logs.ListByAction(context.Background(), entity.ActionLowStockAlert, 0)
	require.NoError(t, err)
	return len(logs)
}
