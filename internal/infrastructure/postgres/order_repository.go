package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/khoaugment/pos-api/internal/domain"
	"github.com/khoaugment/pos-api/internal/domain/entity"
	"github.com/khoaugment/pos-api/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo cabecera y líneas de órdenes sobre PostgreSQL.
type OrderRepo struct {
	pool *pgxpool.Pool
}

// NewOrderRepository construye el adaptador.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepo {
	return &OrderRepo{pool: pool}
}

// Create inserta cabecera y líneas en una transacción propia.
func (r *OrderRepo) Create(ctx context.Context, o *entity.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin order tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO orders (id, status, total, user_id) VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`,
		o.ID, o.Status, o.Total, nullable(o.UserID),
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert order: %w", err)
	}

	batch := &pgx.Batch{}
	for _, it := range o.Items {
		batch.Queue(`INSERT INTO order_items (order_id, product_id, quantity, unit_price) VALUES ($1, $2, $3, $4)`,
			o.ID, it.ProductID, it.Quantity, it.UnitPrice)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			if isForeignKeyViolation(err) {
				return domain.ErrProductNotFound
			}
			return fmt.Errorf("insert order items: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit order: %w", err)
	}
	return nil
}

// GetByID obtiene la orden con sus líneas. (nil, nil) si no existe.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	var (
		o      entity.Order
		userID *string
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, status, total, user_id, created_at, updated_at FROM orders WHERE id = $1`, id,
	).Scan(&o.ID, &o.Status, &o.Total, &userID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	o.UserID = deref(userID)

	rows, err := r.pool.Query(ctx,
		`SELECT order_id, product_id, quantity, unit_price FROM order_items WHERE order_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it entity.OrderItem
		if err := rows.Scan(&it.OrderID, &it.ProductID, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	return &o, rows.Err()
}

// UpdateStatus cambia el estado de la orden.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id, status string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
