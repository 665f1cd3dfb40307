package inventory_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoaugment/pos-api/internal/application/inventory"
	"github.com/khoaugment/pos-api/internal/domain/entity"
	domaininv "github.com/khoaugment/pos-api/internal/domain/inventory"
)

type fakeRenderer struct{ rows int }

func (r *fakeRenderer) RenderValuation(report *entity.ValuationReport, _ time.Time) ([]byte, error) {
	r.rows = len(report.Rows)
	return []byte("%PDF-1.4 fake"), nil
}

type fakeStorage struct {
	key         string
	contentType string
	body        []byte
}

func (s *fakeStorage) Upload(_ context.Context, key, contentType string, body []byte) error {
	s.key, s.contentType, s.body = key, contentType, body
	return nil
}

func (s *fakeStorage) PresignGet(_ context.Context, key string, ttl time.Duration) (string, error) {
	return "https://r2.example/" + key + "?ttl=" + ttl.String(), nil
}

func TestValuationExporter(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domaininv.AlertPolicyEvery)
	f.addProduct(t, 1, 10, 0)

	renderer := &fakeRenderer{}
	t.Run("sin almacenamiento", func(t *testing.T) {
		exp := inventory.NewValuationExporter(f.reporting, renderer, nil, 0)
		pdf, err := exp.RenderPDF(ctx, nil)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(pdf), "%PDF"))
		assert.Equal(t, 1, renderer.rows)

		_, err = exp.Export(ctx, nil)
		assert.ErrorIs(t, err, inventory.ErrReportStorageDisabled)
	})

	t.Run("exporta y firma", func(t *testing.T) {
		storage := &fakeStorage{}
		exp := inventory.NewValuationExporter(f.reporting, renderer, storage, 10*time.Minute)
		out, err := exp.Export(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, "application/pdf", storage.contentType)
		assert.Equal(t, storage.key, out.Key)
		assert.True(t, strings.HasPrefix(out.Key, "reports/valuation/"))
		assert.Contains(t, out.URL, out.Key)
		assert.WithinDuration(t, time.Now().Add(10*time.Minute), out.ExpiresAt, time.Minute)
	})
}
