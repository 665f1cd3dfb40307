package inventory

import (
	"context"

	"github.com/rs/zerolog"
)

// BatchItemResult resultado individual de un movimiento del lote.
type BatchItemResult struct {
	Index     int
	ProductID int64
	Result    *MovementResult // nil si falló
	Err       error
}

// Success indica si el movimiento se confirmó.
func (r BatchItemResult) Success() bool { return r.Err == nil }

// BatchResult resultado del lote con éxito parcial.
type BatchResult struct {
	Items      []BatchItemResult
	Successful int
	Failed     int
}

// BatchApplier aplica movimientos heterogéneos de forma secuencial.
// Cada movimiento confirma por separado; un fallo no detiene el resto.
type BatchApplier struct {
	writer *LedgerWriter
	logger zerolog.Logger
}

// NewBatchApplier construye el aplicador de lotes.
func NewBatchApplier(writer *LedgerWriter, logger zerolog.Logger) *BatchApplier {
	return &BatchApplier{writer: writer, logger: logger}
}

// ApplyBatch registra cada movimiento con RecordMovement en el orden recibido.
// userID se impone sobre el de cada entrada.
func (b *BatchApplier) ApplyBatch(ctx context.Context, userID string, movements []MovementInput) *BatchResult {
	ctx, span := tracer.Start(ctx, "inventory.ApplyBatch")
	defer span.End()

	out := &BatchResult{Items: make([]BatchItemResult, 0, len(movements))}
	for i, in := range movements {
		in.UserID = userID
		item := BatchItemResult{Index: i, ProductID: in.ProductID}
		res, err := b.writer.RecordMovement(ctx, in)
		if err != nil {
			item.Err = err
			out.Failed++
			b.logger.Debug().Err(err).Int("index", i).Int64("product_id", in.ProductID).Msg("movimiento del lote rechazado")
		} else {
			item.Result = res
			out.Successful++
		}
		out.Items = append(out.Items, item)
	}
	b.logger.Info().Int("total", len(movements)).Int("ok", out.Successful).Int("fallidos", out.Failed).Msg("lote de movimientos aplicado")
	return out
}
