package inventory_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoaugment/pos-api/internal/application/inventory"
	"github.com/khoaugment/pos-api/internal/domain/entity"
	domaininv "github.com/khoaugment/pos-api/internal/domain/inventory"
	"github.com/khoaugment/pos-api/internal/infrastructure/memory"
	"github.com/khoaugment/pos-api/pkg/logger"
)

func TestComponentes_UnaSolaEtiquetaPorLinea(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: "production", Level: "debug", Service: "pos-api", Output: &buf})

	f := newFixture(t, domaininv.AlertPolicyEvery)
	f.addProduct(t, 1, 4, 3)
	trigger := inventory.NewAlertTrigger(f.products, f.categories, f.logs, domaininv.AlertPolicyEvery, log.Component("low_stock_alert"))
	writer := inventory.NewLedgerWriter(memory.NewTxRunner(f.store), nil, trigger, fastRetry(3), log.Component("ledger"))
	batch := inventory.NewBatchApplier(writer, log.Component("batch"))

	out := batch.ApplyBatch(context.Background(), testUser, []inventory.MovementInput{
		{ProductID: 1, MovementType: entity.MovementTypeSale, QuantityChange: -2},
		{ProductID: 1, MovementType: entity.MovementTypeSale, QuantityChange: -5},
	})
	require.Equal(t, 1, out.Successful)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	seen := map[string]bool{}
	for _, line := range lines {
		assert.Equal(t, 1, strings.Count(line, `"component":`), line)
		for _, c := range []string{"ledger", "batch", "low_stock_alert"} {
			if strings.Contains(line, `"component":"`+c+`"`) {
				seen[c] = true
			}
		}
	}
	assert.True(t, seen["batch"], "resumen del lote")
	assert.True(t, seen["low_stock_alert"], "alerta 4 -> 2 con mínimo 3")
	assert.True(t, seen["ledger"], "debug de la escritura confirmada")
}
