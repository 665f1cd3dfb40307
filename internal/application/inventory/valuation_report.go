package inventory

import (
	"context"
	"fmt"
	"time"
)

// ValuationExporter genera el PDF de valorización y lo publica en el almacén de reportes.
type ValuationExporter struct {
	reporting *ReportingService
	renderer  ValuationPDFRenderer
	storage   ReportStorage // nil = exportación deshabilitada
	urlTTL    time.Duration
	now       func() time.Time
}

// NewValuationExporter construye el exportador. storage puede ser nil.
func NewValuationExporter(reporting *ReportingService, renderer ValuationPDFRenderer, storage ReportStorage, urlTTL time.Duration) *ValuationExporter {
	if urlTTL <= 0 {
		urlTTL = 15 * time.Minute
	}
	return &ValuationExporter{
		reporting: reporting,
		renderer:  renderer,
		storage:   storage,
		urlTTL:    urlTTL,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ValuationExport ubicación del reporte publicado.
type ValuationExport struct {
	Key       string
	URL       string
	ExpiresAt time.Time
}

// RenderPDF genera el PDF de valorización.
func (e *ValuationExporter) RenderPDF(ctx context.Context, categoryID *int64) ([]byte, error) {
	report, err := e.reporting.Valuation(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	pdf, err := e.renderer.RenderValuation(report, e.now())
	if err != nil {
		return nil, fmt.Errorf("render valuation pdf: %w", err)
	}
	return pdf, nil
}

// Export genera el PDF, lo sube y devuelve una URL prefirmada temporal.
func (e *ValuationExporter) Export(ctx context.Context, categoryID *int64) (*ValuationExport, error) {
	if e.storage == nil {
		return nil, ErrReportStorageDisabled
	}
	pdf, err := e.RenderPDF(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	now := e.now()
	scope := "all"
	if categoryID != nil {
		scope = fmt.Sprintf("category-%d", *categoryID)
	}
	key := fmt.Sprintf("reports/valuation/%s/%s.pdf", now.Format("2006/01/02"), fmt.Sprintf("%s-%d", scope, now.Unix()))
	if err := e.storage.Upload(ctx, key, "application/pdf", pdf); err != nil {
		return nil, fmt.Errorf("upload valuation report: %w", err)
	}
	url, err := e.storage.PresignGet(ctx, key, e.urlTTL)
	if err != nil {
		return nil, fmt.Errorf("presign valuation report: %w", err)
	}
	return &ValuationExport{Key: key, URL: url, ExpiresAt: now.Add(e.urlTTL)}, nil
}
