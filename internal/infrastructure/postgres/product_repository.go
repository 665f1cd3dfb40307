package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/khoaugment/pos-api/internal/domain"
	"github.com/khoaugment/pos-api/internal/domain/entity"
	"github.com/khoaugment/pos-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id, sku, name, description, price, cost_price, stock, min_stock, category_id, active, created_at, updated_at`

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Create persiste un nuevo producto. Si ID es 0 lo asigna la secuencia.
func (r *ProductRepo) Create(ctx context.Context, product *entity.Product) error {
	var err error
	if product.ID == 0 {
		err = r.q.QueryRow(ctx, `
			INSERT INTO products (sku, name, description, price, cost_price, stock, min_stock, category_id, active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id, created_at, updated_at`,
			product.SKU, product.Name, product.Description, product.Price, product.CostPrice,
			product.Stock, product.MinStock, product.CategoryID, product.Active,
		).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	} else {
		err = r.q.QueryRow(ctx, `
			INSERT INTO products (id, sku, name, description, price, cost_price, stock, min_stock, category_id, active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING created_at, updated_at`,
			product.ID, product.SKU, product.Name, product.Description, product.Price, product.CostPrice,
			product.Stock, product.MinStock, product.CategoryID, product.Active,
		).Scan(&product.CreatedAt, &product.UpdatedAt)
	}
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return domain.ErrInvalidInput
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// GetBySKU obtiene un producto por SKU.
func (r *ProductRepo) GetBySKU(ctx context.Context, sku string) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE sku = $1`, sku))
	if err != nil {
		return nil, fmt.Errorf("get product by sku: %w", err)
	}
	return p, nil
}

// Update actualiza datos de catálogo. No modifica stock ni cost_price (se manejan vía movimientos).
func (r *ProductRepo) Update(ctx context.Context, product *entity.Product) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE products SET sku = $2, name = $3, description = $4, price = $5, min_stock = $6,
			category_id = $7, active = $8, updated_at = now()
		WHERE id = $1`,
		product.ID, product.SKU, product.Name, product.Description, product.Price,
		product.MinStock, product.CategoryID, product.Active,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return domain.ErrInvalidInput
		}
		return fmt.Errorf("update product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Deactivate marca el producto como inactivo (borrado lógico; el historial se conserva).
func (r *ProductRepo) Deactivate(ctx context.Context, id int64) error {
	cmd, err := r.q.Exec(ctx, `UPDATE products SET active = false, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista productos con filtros y devuelve además el total sin paginar.
func (r *ProductRepo) List(ctx context.Context, f repository.ProductFilter) ([]*entity.Product, int, error) {
	var (
		where []string
		args  []any
	)
	if !f.IncludeInactive {
		where = append(where, "active = true")
	}
	if f.CategoryID != nil {
		args = append(args, *f.CategoryID)
		where = append(where, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+s+"%")
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR sku ILIKE $%d)", len(args), len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM products`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := `SELECT ` + productColumns + ` FROM products` + clause + ` ORDER BY id`
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var list []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return list, total, nil
}

// CompareAndSwapStock actualiza stock solo si sigue valiendo expected.
// 0 filas afectadas: si el producto existe el valor cambió (ErrStaleStock); si no, ErrNotFound.
func (r *ProductRepo) CompareAndSwapStock(ctx context.Context, id, expected, newStock int64) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE products SET stock = $3, updated_at = now() WHERE id = $1 AND stock = $2`,
		id, expected, newStock,
	)
	if err != nil {
		return fmt.Errorf("cas stock: %w", err)
	}
	if cmd.RowsAffected() == 1 {
		return nil
	}
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("cas stock: %w", err)
	}
	if !exists {
		return fmt.Errorf("cas stock producto %d: %w", id, domain.ErrNotFound)
	}
	return domain.ErrStaleStock
}

// UpdateCost actualiza solo el costo promedio del producto (usado por el libro de inventario).
func (r *ProductRepo) UpdateCost(ctx context.Context, id int64, cost decimal.Decimal) error {
	_, err := r.q.Exec(ctx, `UPDATE products SET cost_price = $2, updated_at = now() WHERE id = $1`, id, cost)
	if err != nil {
		return fmt.Errorf("update product cost: %w", err)
	}
	return nil
}

// scanProduct lee una fila con productColumns. Devuelve (nil, nil) si no hay filas.
func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(
		&p.ID, &p.SKU, &p.Name, &p.Description, &p.Price, &p.CostPrice,
		&p.Stock, &p.MinStock, &p.CategoryID, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}
