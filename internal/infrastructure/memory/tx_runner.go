package memory

import (
	"context"

	"github.com/khoaugment/pos-api/internal/application/inventory"
	"github.com/khoaugment/pos-api/internal/domain"
	"github.com/khoaugment/pos-api/internal/domain/repository"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks sobre una transacción optimista en memoria.
type TxRunner struct {
	s *Store
}

// NewTxRunner construye el runner sobre el almacén.
func NewTxRunner(s *Store) *TxRunner {
	return &TxRunner{s: s}
}

// Run ejecuta fn con repos atados a la tx; si fn falla nada se aplica.
func (r *TxRunner) Run(ctx context.Context, fn func(
	productRepo repository.ProductRepository,
	movementRepo repository.StockMovementRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return &domain.StorageError{Op: "begin", Err: err}
	}
	tx := newTxState()
	if err := fn(&ProductRepo{s: r.s, tx: tx}, &StockMovementRepo{s: r.s, tx: tx}); err != nil {
		return err
	}
	if err := r.s.takeCommitFault(); err != nil {
		return err
	}
	return r.s.commit(tx)
}
