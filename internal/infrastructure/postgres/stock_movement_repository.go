package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/khoaugment/pos-api/internal/domain/entity"
	"github.com/khoaugment/pos-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo libro de movimientos sobre PostgreSQL (usable con pool o tx).
// La tabla es append-only: el adaptador no expone UPDATE ni DELETE.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create inserta el movimiento; id y created_at los asigna la base de datos.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO inventory_movements (product_id, movement_type, quantity_change, quantity_before, quantity_after,
			reference_id, reference_type, notes, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`,
		m.ProductID, m.MovementType, m.QuantityChange, m.QuantityBefore, m.QuantityAfter,
		nullable(m.ReferenceID), nullable(m.ReferenceType), nullable(m.Notes), nullable(m.UserID),
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

// ListByProduct página de historial, más reciente primero, con el nombre del usuario.
func (r *StockMovementRepo) ListByProduct(ctx context.Context, productID int64, limit, offset int) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(ctx, `
		SELECT m.id, m.product_id, m.movement_type, m.quantity_change, m.quantity_before, m.quantity_after,
			m.reference_id, m.reference_type, m.notes, m.user_id, u.name, m.created_at
		FROM inventory_movements m
		LEFT JOIN users u ON u.id = m.user_id
		WHERE m.product_id = $1
		ORDER BY m.id DESC
		LIMIT $2 OFFSET $3`, productID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	return collectMovements(rows, true)
}

// CountByProduct total de movimientos del producto.
func (r *StockMovementRepo) CountByProduct(ctx context.Context, productID int64) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM inventory_movements WHERE product_id = $1`, productID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count stock movements: %w", err)
	}
	return n, nil
}

// ListChain todos los movimientos del producto en orden de inserción.
func (r *StockMovementRepo) ListChain(ctx context.Context, productID int64) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, product_id, movement_type, quantity_change, quantity_before, quantity_after,
			reference_id, reference_type, notes, user_id, created_at
		FROM inventory_movements WHERE product_id = $1 ORDER BY id`, productID)
	if err != nil {
		return nil, fmt.Errorf("list movement chain: %w", err)
	}
	return collectMovements(rows, false)
}

func collectMovements(rows pgx.Rows, withUser bool) ([]*entity.StockMovement, error) {
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		var (
			m                                   entity.StockMovement
			refID, refType, notes, userID, name *string
		)
		dest := []any{
			&m.ID, &m.ProductID, &m.MovementType, &m.QuantityChange, &m.QuantityBefore, &m.QuantityAfter,
			&refID, &refType, &notes, &userID,
		}
		if withUser {
			dest = append(dest, &name)
		}
		dest = append(dest, &m.CreatedAt)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		m.ReferenceID = deref(refID)
		m.ReferenceType = deref(refType)
		m.Notes = deref(notes)
		m.UserID = deref(userID)
		m.UserName = deref(name)
		list = append(list, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stock movements: %w", err)
	}
	return list, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
