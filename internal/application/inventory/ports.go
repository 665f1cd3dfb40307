package inventory

import (
	"context"
	"time"

	"github.com/khoaugment/pos-api/internal/domain/entity"
	"github.com/khoaugment/pos-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza atomicidad del par {products.stock, inventory_movements}.
// Los fallos de infraestructura se devuelven como *domain.StorageError.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		productRepo repository.ProductRepository,
		movementRepo repository.StockMovementRepository,
	) error) error
}

// ValuationPDFRenderer genera el PDF del reporte de valorización.
type ValuationPDFRenderer interface {
	RenderValuation(report *entity.ValuationReport, generatedAt time.Time) ([]byte, error)
}

// ReportStorage almacén de objetos para reportes exportados.
type ReportStorage interface {
	Upload(ctx context.Context, key, contentType string, body []byte) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}
