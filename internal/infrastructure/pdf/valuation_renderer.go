// Package pdf genera la representación PDF de los reportes de inventario.
//
// Layout de la página A4 (valorización):
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Título + tienda     │  Fecha de generación         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Categoría | Productos | Unidades | Valor             │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Unidades / VALOR TOTAL                             │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/khoaugment/pos-api/internal/application/inventory"
	"github.com/khoaugment/pos-api/internal/domain/entity"
)

var _ inventory.ValuationPDFRenderer = (*MarotoRenderer)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// MarotoRenderer implementa inventory.ValuationPDFRenderer usando Maroto v2.
type MarotoRenderer struct {
	storeName string
	printer   *message.Printer
}

// NewMarotoRenderer construye el renderer. storeName aparece en la cabecera.
func NewMarotoRenderer(storeName string) *MarotoRenderer {
	return &MarotoRenderer{storeName: storeName, printer: message.NewPrinter(language.Vietnamese)}
}

// RenderValuation genera el PDF de valorización y devuelve sus bytes.
func (g *MarotoRenderer) RenderValuation(report *entity.ValuationReport, generatedAt time.Time) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("pdf: reporte vacío")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Inventory valuation", true).
		WithAuthor(g.storeName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(g.headerRow(generatedAt))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(tableHeaderRow())
	for _, r := range g.tableRows(report.Rows) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(g.totalsRow(report))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func (g *MarotoRenderer) headerRow(generatedAt time.Time) core.Row {
	return row.New(16).Add(
		col.New(8).Add(
			text.New("INVENTORY VALUATION", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(g.storeName, props.Text{Size: 9, Top: 9, Color: colorGray}),
		),
		col.New(4).Add(
			text.New(generatedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 3, Color: colorGray,
			}),
		),
	)
}

// tableHeaderRow cabecera de la tabla en color primario.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Category", 5, align.Left),
		h("Products", 2, align.Center),
		h("Units", 2, align.Right),
		h("Value", 3, align.Right),
	)
}

func (g *MarotoRenderer) tableRows(rows []entity.ValuationRow) []core.Row {
	result := make([]core.Row, 0, len(rows))
	for _, r := range rows {
		result = append(result, row.New(7).Add(
			col.New(5).Add(text.New(nonEmpty(r.CategoryName, "Uncategorized"),
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1})),
			col.New(2).Add(text.New(g.printer.Sprintf("%d", r.ProductCount),
				props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(g.printer.Sprintf("%d", r.TotalUnits),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(3).Add(text.New(g.formatVND(r.TotalValue),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return result
}

func (g *MarotoRenderer) totalsRow(report *entity.ValuationReport) core.Row {
	return row.New(14).Add(
		col.New(6),
		col.New(3).Add(
			text.New("Units:", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2}),
			text.New("TOTAL VALUE:", props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Right: 2, Top: 6, Color: colorPrimary}),
		),
		col.New(3).Add(
			text.New(g.printer.Sprintf("%d", report.TotalUnits), props.Text{Size: 9, Align: align.Right, Right: 1}),
			text.New(g.formatVND(report.TotalValue), props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Right: 1, Top: 6, Color: colorPrimary}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

// formatVND redondea a dong entero y agrupa miles según la convención vietnamita.
// Ej: 1234567.4 → "1.234.567 ₫"
func (g *MarotoRenderer) formatVND(v decimal.Decimal) string {
	return g.printer.Sprintf("%d ₫", v.Round(0).IntPart())
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
