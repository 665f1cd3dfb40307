package inventory_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoaugment/pos-api/internal/application/inventory"
	"github.com/khoaugment/pos-api/internal/domain"
	"github.com/khoaugment/pos-api/internal/domain/entity"
	domaininv "github.com/khoaugment/pos-api/internal/domain/inventory"
)

// ─── RecordMovement ───────────────────────────────────────────────────────────

func TestRecordMovement_EscenarioCompleto(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domaininv.AlertPolicyEvery)
	f.addProduct(t, 7, 20, 5)

	res, err := f.writer.RecordMovement(ctx, inventory.MovementInput{
		ProductID:      7,
		MovementType:   entity.MovementTypeSale,
		QuantityChange: -16,
		UserID:         testUser,
		ReferenceID:    "99",
		ReferenceType:  entity.ReferenceTypeOrder,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.NewStock)
	assert.Equal(t, int64(20), res.PreviousStock)
	assert.NotZero(t, res.MovementID)
	assert.Equal(t, int64(4), f.stockOf(t, 7))

	chain, err := f.movements.ListChain(ctx, 7)
	require.NoError(t, err)
	require.Len(t, chain, 1)
	assert.Equal(t, res.MovementID, chain[0].ID)
	assert.Equal(t, int64(20), chain[0].QuantityBefore)
	assert.Equal(t, int64(4), chain[0].QuantityAfter)
	assert.Equal(t, "99", chain[0].ReferenceID)
	assert.Equal(t, "order", chain[0].ReferenceType)

	alerts, err := f.logs.ListByAction(ctx, entity.ActionLowStockAlert, 0)
	require.NoError(t, err)
	require.Len(t, alerts, 1, "exactamente una alerta de stock bajo")
	assert.Equal(t, "7", alerts[0].EntityID)
	assert.Equal(t, entity.EntityTypeProduct, alerts[0].EntityType)

	var snap entity.LowStockSnapshot
	require.NoError(t, json.Unmarshal(alerts[0].Details, &snap))
	assert.Equal(t, int64(4), snap.CurrentStock)
	assert.Equal(t, int64(5), snap.MinStock)
	assert.Equal(t, "Sản phẩm 7", snap.ProductName)
}

func TestRecordMovement_ProtegeStockNegativo(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domaininv.AlertPolicyEvery)
	f.addProduct(t, 1, 3, 0)

	_, err := f.writer.RecordMovement(ctx, inventory.MovementInput{
		ProductID: 1, MovementType: entity.MovementTypeSale, QuantityChange: -5, UserID: testUser,
	})
	require.Error(t, err)
	var inv *domain.InvalidOperationError
	require.True(t, errors.As(err, &inv), "esperaba InvalidOperationError, got %v", err)
	assert.Equal(t, int64(2), inv.Deficit)
	assert.Equal(t, int64(3), f.stockOf(t, 1), "no debe escribir nada")
	assert.Zero(t, f.movementCount(t, 1))

	res, err := f.writer.RecordMovement(ctx, inventory.MovementInput{
		ProductID: 1, MovementType: entity.MovementTypeAdjustment, QuantityChange: -5, UserID: testUser,
	})
	require.NoError(t, err, "el ajuste puede forzar stock negativo")
	assert.Equal(t, int64(-2), res.NewStock)
	assert.Equal(t, int64(-2), f.stockOf(t, 1))
}

func TestRecordMovement_Validaciones(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domaininv.AlertPolicyEvery)
	f.addProduct(t, 1, 3, 0)

	_, err := f.writer.RecordMovement(ctx, inventory.MovementInput{ProductID: 1, MovementType: "transfer", QuantityChange: 1, UserID: testUser})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.writer.RecordMovement(ctx, inventory.MovementInput{ProductID: 1, MovementType: entity.MovementTypePurchase, QuantityChange: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "user_id es obligatorio")

	_, err = f.writer.RecordMovement(ctx, inventory.MovementInput{ProductID: 404, MovementType: entity.MovementTypePurchase, QuantityChange: 1, UserID: testUser})
	var nf *domain.ProductNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, int64(404), nf.ProductID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecordMovement_CompraRecalculaCostoPromedio(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domaininv.AlertPolicyEvery)
	f.addProduct(t, 1, 10, 0) // costo 18000

	unitCost := decimal.NewFromInt(24000)
	_, err := f.writer.RecordMovement(ctx, inventory.MovementInput{
		ProductID: 1, MovementType: entity.MovementTypePurchase, QuantityChange: 10, UserID: testUser, UnitCost: &unitCost,
	})
	require.NoError(t, err)

	p, _ := f.products.GetByID(ctx, 1)
	assert.True(t, decimal.NewFromInt(21000).Equal(p.CostPrice), "costo promedio ponderado, got %s", p.CostPrice)
	assert.Equal(t, int64(20), p.Stock)
}

func TestRecordMovement_FallaDeAlertaNoSePropaga(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domaininv.AlertPolicyEvery)
	f.addProduct(t, 1, 6, 5)
	f.store.SetActivityLogError(errors.New("d1 no disponible"))

	res, err := f.writer.RecordMovement(ctx, inventory.MovementInput{
		ProductID: 1, MovementType: entity.MovementTypeSale, QuantityChange: -2, UserID: testUser,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.NewStock)
	assert.Equal(t, int64(4), f.stockOf(t, 1))
}

// ─── Umbral de stock bajo ─────────────────────────────────────────────────────

func TestLowStockThreshold(t *testing.T) {
	tests := []struct {
		name       string
		policy     domaininv.AlertPolicy
		wantAlerts []int // alertas acumuladas tras cada escritura
	}{
		{"every alerta en cada escritura bajo el mínimo", domaininv.AlertPolicyEvery, []int{1, 2}},
		{"crossing solo al cruzar", domaininv.AlertPolicyCrossing, []int{1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, tt.policy)
			f.addProduct(t, 1, 10, 5)

			_, err := f.writer.RecordMovement(ctx, inventory.MovementInput{ProductID: 1, MovementType: entity.MovementTypeSale, QuantityChange: -5, UserID: testUser})
			require.NoError(t, err)
			assert.Equal(t, tt.wantAlerts[0], f.alertCount(t), "stock exactamente en el mínimo")

			_, err = f.writer.RecordMovement(ctx, inventory.MovementInput{ProductID: 1, MovementType: entity.MovementTypeSale, QuantityChange: -1, UserID: testUser})
			require.NoError(t, err)
			assert.Equal(t, tt.wantAlerts[1], f.alertCount(t), "de 5 a 4")
		})
	}
}

// ─── SetStock ─────────────────────────────────────────────────────────────────

func TestSetStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domaininv.AlertPolicyEvery)
	f.addProduct(t, 1, 10, 2)

	t.Run("sin cambio no escribe", func(t *testing.T) {
		res, err := f.writer.SetStock(ctx, inventory.SetStockInput{ProductID: 1, NewStock: 10, UserID: testUser})
		require.NoError(t, err)
		assert.False(t, res.Changed)
		assert.Zero(t, res.MovementID)
		assert.Zero(t, f.movementCount(t, 1))
	})

	t.Run("incremento se registra como compra", func(t *testing.T) {
		res, err := f.writer.SetStock(ctx, inventory.SetStockInput{ProductID: 1, NewStock: 15, UserID: testUser, Notes: "conteo"})
		require.NoError(t, err)
		assert.True(t, res.Changed)
		assert.Equal(t, entity.MovementTypePurchase, res.MovementType)
		assert.Equal(t, int64(15), f.stockOf(t, 1))
	})

	t.Run("disminución se registra como ajuste", func(t *testing.T) {
		res, err := f.writer.SetStock(ctx, inventory.SetStockInput{ProductID: 1, NewStock: 3, UserID: testUser})
		require.NoError(t, err)
		assert.Equal(t, entity.MovementTypeAdjustment, res.MovementType)
		assert.Equal(t, int64(-12), res.NewStock-res.PreviousStock)
	})

	chain, err := f.movements.ListChain(ctx, 1)
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, "conteo", chain[0].Notes)
	assert.Nil(t, domaininv.VerifyChain(f.stockOf(t, 1), chain))
}

// ─── Reintentos ───────────────────────────────────────────────────────────────

func TestRecordMovement_Reintentos(t *testing.T) {
	t.Run("conflicto transitorio se reintenta", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture(t, domaininv.AlertPolicyEvery)
		f.addProduct(t, 1, 10, 0)
		f.store.InjectCommitFaults(domain.ErrStaleStock, &domain.StorageError{Op: "commit", Err: errors.New("40001"), Retryable: true})

		res, err := f.writer.RecordMovement(ctx, inventory.MovementInput{ProductID: 1, MovementType: entity.MovementTypeSale, QuantityChange: -1, UserID: testUser})
		require.NoError(t, err)
		assert.Equal(t, int64(9), res.NewStock)
		assert.Equal(t, 1, f.movementCount(t, 1), "un solo movimiento confirmado")
	})

	t.Run("conflictos agotados", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture(t, domaininv.AlertPolicyEvery)
		f.addProduct(t, 1, 10, 0)
		f.store.InjectCommitFaults(domain.ErrStaleStock, domain.ErrStaleStock, domain.ErrStaleStock, domain.ErrStaleStock, domain.ErrStaleStock)

		_, err := f.writer.RecordMovement(ctx, inventory.MovementInput{ProductID: 1, MovementType: entity.MovementTypeSale, QuantityChange: -1, UserID: testUser})
		assert.ErrorIs(t, err, domain.ErrConcurrentModification)
		assert.Equal(t, int64(10), f.stockOf(t, 1))
		assert.Zero(t, f.movementCount(t, 1))
	})

	t.Run("error de almacenamiento permanente", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture(t, domaininv.AlertPolicyEvery)
		f.addProduct(t, 1, 10, 0)
		f.store.InjectCommitFaults(&domain.StorageError{Op: "commit", Err: errors.New("disco lleno")})

		_, err := f.writer.RecordMovement(ctx, inventory.MovementInput{ProductID: 1, MovementType: entity.MovementTypeSale, QuantityChange: -1, UserID: testUser})
		var se *domain.StorageError
		require.True(t, errors.As(err, &se))
		assert.False(t, se.Retryable)

		res, err := f.writer.RecordMovement(ctx, inventory.MovementInput{ProductID: 1, MovementType: entity.MovementTypeSale, QuantityChange: -1, UserID: testUser})
		require.NoError(t, err, "la siguiente escritura funciona")
		assert.Equal(t, int64(9), res.NewStock)
	})
}
