package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoaugment/pos-api/internal/domain"
	"github.com/khoaugment/pos-api/internal/domain/entity"
	"github.com/khoaugment/pos-api/internal/domain/repository"
)

func seedProduct(t *testing.T, s *Store, stock int64) *entity.Product {
	t.Helper()
	p := &entity.Product{SKU: "SKU-1", Name: "Cà phê", Stock: stock, MinStock: 5, Active: true}
	require.NoError(t, NewProductRepository(s).Create(context.Background(), p))
	return p
}

func TestTxRunner_CommitAplicaStockYMovimiento(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	p := seedProduct(t, s, 20)

	err := NewTxRunner(s).Run(ctx, func(products repository.ProductRepository, movements repository.StockMovementRepository) error {
		require.NoError(t, products.CompareAndSwapStock(ctx, p.ID, 20, 4))
		got, err := products.GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(4), got.Stock, "la tx ve su propia escritura")
		return movements.Create(ctx, &entity.StockMovement{ProductID: p.ID, MovementType: entity.MovementTypeSale, QuantityChange: -16, QuantityBefore: 20, QuantityAfter: 4, UserID: "u"})
	})
	require.NoError(t, err)

	got, _ := NewProductRepository(s).GetByID(ctx, p.ID)
	assert.Equal(t, int64(4), got.Stock)
	n, _ := NewStockMovementRepository(s).CountByProduct(ctx, p.ID)
	assert.Equal(t, 1, n)
}

func TestTxRunner_ErrorDescartaTodo(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	p := seedProduct(t, s, 20)
	boom := errors.New("boom")

	err := NewTxRunner(s).Run(ctx, func(products repository.ProductRepository, movements repository.StockMovementRepository) error {
		require.NoError(t, products.CompareAndSwapStock(ctx, p.ID, 20, 0))
		require.NoError(t, movements.Create(ctx, &entity.StockMovement{ProductID: p.ID}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, _ := NewProductRepository(s).GetByID(ctx, p.ID)
	assert.Equal(t, int64(20), got.Stock, "rollback: stock intacto")
	n, _ := NewStockMovementRepository(s).CountByProduct(ctx, p.ID)
	assert.Zero(t, n)
}

func TestTxRunner_CommitDetectaEscritorConcurrente(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	p := seedProduct(t, s, 20)

	err := NewTxRunner(s).Run(ctx, func(products repository.ProductRepository, _ repository.StockMovementRepository) error {
		require.NoError(t, products.CompareAndSwapStock(ctx, p.ID, 20, 15))
		// otro escritor confirma antes que esta tx
		return NewProductRepository(s).CompareAndSwapStock(ctx, p.ID, 20, 18)
	})
	assert.ErrorIs(t, err, domain.ErrStaleStock)

	got, _ := NewProductRepository(s).GetByID(ctx, p.ID)
	assert.Equal(t, int64(18), got.Stock, "gana el escritor que confirmó primero")
}

func TestTxRunner_CASConValorViejo(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	p := seedProduct(t, s, 20)

	err := NewTxRunner(s).Run(ctx, func(products repository.ProductRepository, _ repository.StockMovementRepository) error {
		return products.CompareAndSwapStock(ctx, p.ID, 19, 10)
	})
	assert.ErrorIs(t, err, domain.ErrStaleStock)
}

func TestTxRunner_FallasInyectadas(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	p := seedProduct(t, s, 20)
	s.InjectCommitFaults(&domain.StorageError{Op: "commit", Err: errors.New("conexión perdida"), Retryable: true})

	run := func() error {
		return NewTxRunner(s).Run(ctx, func(products repository.ProductRepository, _ repository.StockMovementRepository) error {
			return products.CompareAndSwapStock(ctx, p.ID, 20, 19)
		})
	}
	err := run()
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.True(t, domain.IsRetryable(err))

	require.NoError(t, run(), "la falla se consume una sola vez")
}

func TestProductRepo_MinStockNoNegativo(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repo := NewProductRepository(s)

	err := repo.Create(ctx, &entity.Product{SKU: "NEG-1", Name: "Trà", MinStock: -1, Active: true})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	p := seedProduct(t, s, 3)
	p.MinStock = -2
	assert.ErrorIs(t, repo.Update(ctx, p), domain.ErrInvalidInput)
	got, _ := repo.GetByID(ctx, p.ID)
	assert.Equal(t, int64(5), got.MinStock)
}
