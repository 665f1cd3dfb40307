package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoaugment/pos-api/internal/application/auth"
	"github.com/khoaugment/pos-api/internal/application/dto"
	"github.com/khoaugment/pos-api/internal/application/inventory"
	"github.com/khoaugment/pos-api/internal/application/usecase"
	"github.com/khoaugment/pos-api/internal/domain/entity"
	domaininv "github.com/khoaugment/pos-api/internal/domain/inventory"
	"github.com/khoaugment/pos-api/internal/infrastructure/cache"
	"github.com/khoaugment/pos-api/internal/infrastructure/memory"
	apphttp "github.com/khoaugment/pos-api/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Servidor de prueba sobre el almacén en memoria
// ──────────────────────────────────────────────────────────────────────────────

const (
	managerID = "9a1f3c2e-6b7d-4e8f-a0b1-c2d3e4f5a6b7"
	cashierID = "1c2d3e4f-5a6b-4c7d-8e9f-0a1b2c3d4e5f"
)

type testServer struct {
	app      *fiber.App
	products *memory.ProductRepo
}

type fakeRenderer struct{}

func (fakeRenderer) RenderValuation(*entity.ValuationReport, time.Time) ([]byte, error) {
	return []byte("%PDF-1.4 test"), nil
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := zerolog.Nop()
	s := memory.NewStore()
	products := memory.NewProductRepository(s)
	categories := memory.NewCategoryRepository(s)
	users := memory.NewUserRepository(s)

	trigger := inventory.NewAlertTrigger(products, categories, memory.NewActivityLogRepository(s), domaininv.AlertPolicyEvery, log)
	writer := inventory.NewLedgerWriter(memory.NewTxRunner(s), inventory.NewProductLocker(), trigger,
		inventory.RetryConfig{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}, log)
	dispatcher := inventory.NewAlertDispatcher(trigger, log)
	t.Cleanup(dispatcher.Wait)
	applier := inventory.NewOrderApplier(writer, dispatcher, log)
	reporting := inventory.NewReportingService(products, memory.NewStockMovementRepository(s), memory.NewInventoryReportRepository(s))

	ctx := context.Background()
	for _, u := range []*entity.User{
		{ID: managerID, Email: "quanly@khoaugment.vn", Name: "Quản Lý", Role: entity.RoleManager, Status: entity.UserStatusActive},
		{ID: cashierID, Email: "thungan@khoaugment.vn", Name: "Thu Ngân", Role: entity.RoleCashier, Status: entity.UserStatusActive},
	} {
		require.NoError(t, users.Create(ctx, u))
	}
	require.NoError(t, products.Create(ctx, &entity.Product{
		ID: 1, SKU: "CF-01", Name: "Cà phê sữa", Price: decimal.NewFromInt(29000), CostPrice: decimal.NewFromInt(12000),
		Stock: 10, MinStock: 3, Active: true,
	}))
	require.NoError(t, products.Create(ctx, &entity.Product{
		ID: 2, SKU: "TR-01", Name: "Trà đào", Price: decimal.NewFromInt(35000), CostPrice: decimal.NewFromInt(15000),
		Stock: 2, MinStock: 5, Active: true,
	}))

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC:           auth.NewAuthUseCase(users, auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer}),
		ProductUC:        usecase.NewProductUseCase(products, categories),
		CategoryUC:       usecase.NewCategoryUseCase(categories),
		UserUC:           usecase.NewUserUseCase(users),
		OrderUC:          usecase.NewOrderUseCase(memory.NewOrderRepository(s), products, applier, log),
		Ledger:           writer,
		Batch:            inventory.NewBatchApplier(writer, log),
		Applier:          applier,
		Reporting:        reporting,
		Exporter:         inventory.NewValuationExporter(reporting, fakeRenderer{}, nil, time.Minute),
		JWTSecret:        testJWTSecret,
		IdempotencyStore: cache.NewMemoryIdempotencyStore(),
		IdempotencyTTL:   time.Hour,
		Logger:           log,
	})
	return &testServer{app: app, products: products}
}

func (ts *testServer) do(t *testing.T, method, path, userID, role string, body any, headers ...string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, userID, role))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (ts *testServer) stock(t *testing.T, id int64) int64 {
	t.Helper()
	p, err := ts.products.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.Stock
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Escrituras del libro
// ──────────────────────────────────────────────────────────────────────────────

func TestSetStock_HTTP(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPut, "/api/inventory/stock", managerID, entity.RoleManager,
		fiber.Map{"product_id": 1, "new_stock": 25})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[dto.MovementResponse](t, resp)
	assert.Equal(t, entity.MovementTypePurchase, out.MovementType)
	assert.Equal(t, int64(10), out.PreviousStock)
	assert.Equal(t, int64(25), out.NewStock)
	assert.True(t, out.Changed)

	t.Run("cashier no puede fijar stock", func(t *testing.T) {
		resp := ts.do(t, http.MethodPut, "/api/inventory/stock", cashierID, entity.RoleCashier,
			fiber.Map{"product_id": 1, "new_stock": 0})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, int64(25), ts.stock(t, 1))
	})

	t.Run("new_stock es obligatorio", func(t *testing.T) {
		resp := ts.do(t, http.MethodPut, "/api/inventory/stock", managerID, entity.RoleManager,
			fiber.Map{"product_id": 1})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestRecordMovement_MapeoDeErrores(t *testing.T) {
	ts := newTestServer(t)

	cases := []struct {
		name   string
		body   fiber.Map
		status int
		code   string
	}{
		{"venta que deja stock negativo", fiber.Map{"product_id": 1, "movement_type": "sale", "quantity_change": -11}, http.StatusBadRequest, "NEGATIVE_STOCK"},
		{"producto inexistente", fiber.Map{"product_id": 99, "movement_type": "purchase", "quantity_change": 5}, http.StatusNotFound, "PRODUCT_NOT_FOUND"},
		{"tipo desconocido", fiber.Map{"product_id": 1, "movement_type": "transfer", "quantity_change": 5}, http.StatusBadRequest, "VALIDATION"},
		{"cambio cero", fiber.Map{"product_id": 1, "movement_type": "purchase", "quantity_change": 0}, http.StatusBadRequest, "VALIDATION"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := ts.do(t, http.MethodPost, "/api/inventory/movement", managerID, entity.RoleManager, tc.body)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, tc.code, decode[dto.ErrorResponse](t, resp).Code)
		})
	}
	assert.Equal(t, int64(10), ts.stock(t, 1), "ningún rechazo modifica el stock")

	t.Run("ajuste puede dejar stock negativo", func(t *testing.T) {
		resp := ts.do(t, http.MethodPost, "/api/inventory/movement", managerID, entity.RoleManager,
			fiber.Map{"product_id": 1, "movement_type": "adjustment", "quantity_change": -12, "notes": "merma"})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, int64(-2), decode[dto.MovementResponse](t, resp).NewStock)
	})
}

func TestRecordMovement_IdempotencyKeyRepiteRespuesta(t *testing.T) {
	ts := newTestServer(t)
	body := fiber.Map{"product_id": 1, "movement_type": "purchase", "quantity_change": 5}

	first := ts.do(t, http.MethodPost, "/api/inventory/movement", managerID, entity.RoleManager, body, apphttp.HeaderIdempotencyKey, "k-1")
	require.Equal(t, http.StatusCreated, first.StatusCode)
	firstOut := decode[dto.MovementResponse](t, first)

	second := ts.do(t, http.MethodPost, "/api/inventory/movement", managerID, entity.RoleManager, body, apphttp.HeaderIdempotencyKey, "k-1")
	require.Equal(t, http.StatusCreated, second.StatusCode)
	assert.Equal(t, "true", second.Header.Get(apphttp.HeaderReplayed))
	assert.Equal(t, firstOut, decode[dto.MovementResponse](t, second))
	assert.Equal(t, int64(15), ts.stock(t, 1), "la repetición no aplica el movimiento otra vez")

	third := ts.do(t, http.MethodPost, "/api/inventory/movement", managerID, entity.RoleManager, body, apphttp.HeaderIdempotencyKey, "k-2")
	require.Equal(t, http.StatusCreated, third.StatusCode)
	assert.Empty(t, third.Header.Get(apphttp.HeaderReplayed))
	assert.Equal(t, int64(20), ts.stock(t, 1))
}

func TestRecordMovement_IdempotencyKeyConOtroCuerpo(t *testing.T) {
	ts := newTestServer(t)
	first := ts.do(t, http.MethodPost, "/api/inventory/movement", managerID, entity.RoleManager,
		fiber.Map{"product_id": 1, "movement_type": "purchase", "quantity_change": 5}, apphttp.HeaderIdempotencyKey, "k-1")
	require.Equal(t, http.StatusCreated, first.StatusCode)

	reused := ts.do(t, http.MethodPost, "/api/inventory/movement", managerID, entity.RoleManager,
		fiber.Map{"product_id": 1, "movement_type": "purchase", "quantity_change": 50}, apphttp.HeaderIdempotencyKey, "k-1")
	assert.Equal(t, http.StatusUnprocessableEntity, reused.StatusCode)
	assert.Empty(t, reused.Header.Get(apphttp.HeaderReplayed))
	assert.Equal(t, "IDEMPOTENCY_KEY_REUSED", decode[dto.ErrorResponse](t, reused).Code)
	assert.Equal(t, int64(15), ts.stock(t, 1))
}

func TestBatchMovement_ExitoParcial(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/api/inventory/batch-movement", managerID, entity.RoleManager, fiber.Map{
		"movements": []fiber.Map{
			{"product_id": 1, "movement_type": "purchase", "quantity_change": 4},
			{"product_id": 1, "movement_type": "transfer", "quantity_change": 1},
			{"product_id": 99, "movement_type": "purchase", "quantity_change": 1},
			{"product_id": 2, "movement_type": "sale", "quantity_change": -2},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[dto.BatchMovementResponse](t, resp)

	assert.Equal(t, 4, out.Total)
	assert.Equal(t, 2, out.Successful)
	assert.Equal(t, 2, out.Failed)
	require.Len(t, out.Results, 4)
	for i, r := range out.Results {
		assert.Equal(t, i, r.Index, "los resultados conservan el orden de entrada")
	}
	assert.True(t, out.Results[0].Success)
	require.NotNil(t, out.Results[0].NewStock)
	assert.Equal(t, int64(14), *out.Results[0].NewStock)
	assert.Equal(t, "VALIDATION", out.Results[1].Error.Code)
	assert.Equal(t, "PRODUCT_NOT_FOUND", out.Results[2].Error.Code)
	assert.True(t, out.Results[3].Success)
	assert.Equal(t, int64(0), ts.stock(t, 2))
}

func TestReturn_HTTP(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/api/inventory/returns", managerID, entity.RoleManager, fiber.Map{
		"items": []fiber.Map{{"product_id": 1, "quantity": 2}, {"product_id": 2, "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	out := decode[dto.ReturnResponse](t, resp)
	assert.NotEmpty(t, out.ReturnID, "se genera return_id cuando no viene")
	require.Len(t, out.Movements, 2)
	assert.Equal(t, int64(12), ts.stock(t, 1))
	assert.Equal(t, int64(3), ts.stock(t, 2))

	t.Run("todo o nada si un producto no existe", func(t *testing.T) {
		resp := ts.do(t, http.MethodPost, "/api/inventory/returns", managerID, entity.RoleManager, fiber.Map{
			"return_id": "RT-2", "items": []fiber.Map{{"product_id": 1, "quantity": 1}, {"product_id": 42, "quantity": 1}},
		})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, int64(12), ts.stock(t, 1))
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Órdenes
// ──────────────────────────────────────────────────────────────────────────────

func TestCreateOrder_HTTP(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/api/orders", cashierID, entity.RoleCashier, fiber.Map{
		"items": []fiber.Map{{"product_id": 1, "quantity": 3}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	out := decode[dto.OrderResponse](t, resp)
	assert.Equal(t, entity.OrderStatusCompleted, out.Status)
	assert.True(t, decimal.NewFromInt(87000).Equal(out.Total))
	assert.Equal(t, int64(7), ts.stock(t, 1))

	t.Run("stock insuficiente", func(t *testing.T) {
		resp := ts.do(t, http.MethodPost, "/api/orders", cashierID, entity.RoleCashier, fiber.Map{
			"items": []fiber.Map{{"product_id": 1, "quantity": 1}, {"product_id": 2, "quantity": 3}},
		})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "INSUFFICIENT_STOCK", decode[dto.ErrorResponse](t, resp).Code)
		assert.Equal(t, int64(7), ts.stock(t, 1), "sin descuento parcial")
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Consultas
// ──────────────────────────────────────────────────────────────────────────────

func TestMovementHistory_HTTP(t *testing.T) {
	ts := newTestServer(t)
	for _, change := range []int64{5, -3, 2} {
		mt := "purchase"
		if change < 0 {
			mt = "sale"
		}
		resp := ts.do(t, http.MethodPost, "/api/inventory/movement", managerID, entity.RoleManager,
			fiber.Map{"product_id": 1, "movement_type": mt, "quantity_change": change})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp := ts.do(t, http.MethodGet, "/api/inventory/movements/1?limit=2", cashierID, entity.RoleCashier, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[dto.MovementHistoryResponse](t, resp)
	assert.Equal(t, dto.PageResponse{Limit: 2, Offset: 0, Total: 3}, out.Page)
	require.Len(t, out.Items, 2)
	assert.Equal(t, int64(14), out.Items[0].QuantityAfter, "más reciente primero")
	assert.Equal(t, "Quản Lý", out.Items[0].UserName)

	t.Run("producto inexistente", func(t *testing.T) {
		resp := ts.do(t, http.MethodGet, "/api/inventory/movements/77", cashierID, entity.RoleCashier, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestLowStock_HTTP(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/api/inventory/low-stock", cashierID, entity.RoleCashier, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[dto.LowStockResponse](t, resp)
	require.Equal(t, 1, out.Count)
	assert.Equal(t, int64(2), out.Items[0].ProductID)
	assert.Equal(t, int64(3), out.Items[0].Deficit)
}

func TestValuation_HTTP(t *testing.T) {
	ts := newTestServer(t)

	t.Run("cashier no ve la valorización", func(t *testing.T) {
		resp := ts.do(t, http.MethodGet, "/api/inventory/valuation", cashierID, entity.RoleCashier, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	resp := ts.do(t, http.MethodGet, "/api/inventory/valuation", managerID, entity.RoleManager, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[dto.ValuationResponse](t, resp)
	assert.Equal(t, int64(12), out.TotalUnits)
	assert.True(t, decimal.NewFromInt(10*12000+2*15000).Equal(out.TotalValue))

	pdf := ts.do(t, http.MethodGet, "/api/inventory/valuation/pdf", managerID, entity.RoleManager, nil)
	require.Equal(t, http.StatusOK, pdf.StatusCode)
	assert.Equal(t, "application/pdf", pdf.Header.Get("Content-Type"))

	export := ts.do(t, http.MethodPost, "/api/inventory/valuation/export", managerID, entity.RoleManager, nil)
	assert.Equal(t, http.StatusServiceUnavailable, export.StatusCode, "sin R2 configurado")

	bad := ts.do(t, http.MethodGet, "/api/inventory/valuation?category_id=abc", managerID, entity.RoleManager, nil)
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestReconcile_HTTP(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.do(t, http.MethodPost, "/api/inventory/movement", managerID, entity.RoleManager,
		fiber.Map{"product_id": 1, "movement_type": "sale", "quantity_change": -4})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	rec := ts.do(t, http.MethodGet, "/api/inventory/reconcile/1", managerID, entity.RoleManager, nil)
	require.Equal(t, http.StatusOK, rec.StatusCode)
	out := decode[dto.ReconcileResponse](t, rec)
	assert.True(t, out.Consistent)
	assert.Equal(t, 1, out.MovementCount)
	require.NotNil(t, out.LastQuantityAfter)
	assert.Equal(t, int64(6), *out.LastQuantityAfter)
	assert.Nil(t, out.Break)
}
