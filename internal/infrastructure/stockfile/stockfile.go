// Package stockfile lee archivos de movimientos de stock (CSV o XML) para la importación masiva.
//
// CSV: cabecera obligatoria con las columnas sku o product_id, movement_type, quantity_change
// y opcionalmente unit_cost, reference_id, notes. Se acepta UTF-8 o Windows-1258
// (exportaciones de hojas de cálculo antiguas).
//
// XML:
//
//	<stock>
//	  <movement sku="CF-01" type="purchase" quantity="24" unit_cost="12000">nota opcional</movement>
//	</stock>
package stockfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/khoaugment/pos-api/internal/application/inventory"
	"github.com/khoaugment/pos-api/internal/domain/repository"
)

// Codificaciones de CSV soportadas.
const (
	EncodingUTF8        = "utf-8"
	EncodingWindows1258 = "windows-1258"
)

// ErrEmptyFile el archivo no contiene movimientos.
var ErrEmptyFile = errors.New("stockfile: archivo sin movimientos")

// Line un movimiento leído del archivo. Row es la línea (CSV) o el índice del elemento (XML), base 1.
type Line struct {
	Row            int
	ProductID      int64
	SKU            string
	MovementType   string
	QuantityChange int64
	UnitCost       *decimal.Decimal
	ReferenceID    string
	Notes          string
}

// RowError error de formato en una línea concreta.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string { return fmt.Sprintf("línea %d: %v", e.Row, e.Err) }

func (e *RowError) Unwrap() error { return e.Err }

// Decoder envuelve r con el decodificador de la codificación indicada.
func Decoder(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(encoding) {
	case "", EncodingUTF8, "utf8":
		return r, nil
	case EncodingWindows1258, "cp1258":
		return transform.NewReader(r, charmap.Windows1258.NewDecoder()), nil
	}
	return nil, fmt.Errorf("stockfile: codificación no soportada %q", encoding)
}

// ParseCSV lee movimientos desde un CSV con cabecera.
func ParseCSV(r io.Reader, encoding string) ([]Line, error) {
	dec, err := Decoder(r, encoding)
	if err != nil {
		return nil, err
	}
	cr := csv.NewReader(dec)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("stockfile: leer cabecera: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	_, hasSKU := cols["sku"]
	_, hasID := cols["product_id"]
	if !hasSKU && !hasID {
		return nil, errors.New("stockfile: la cabecera necesita sku o product_id")
	}
	for _, c := range []string{"movement_type", "quantity_change"} {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("stockfile: falta la columna %s", c)
		}
	}

	var lines []Line
	row := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			return nil, &RowError{Row: row, Err: err}
		}
		field := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		if strings.Join(rec, "") == "" {
			continue
		}
		line, err := buildLine(row, field("product_id"), field("sku"), field("movement_type"),
			field("quantity_change"), field("unit_cost"))
		if err != nil {
			return nil, err
		}
		line.ReferenceID = field("reference_id")
		line.Notes = field("notes")
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyFile
	}
	return lines, nil
}

// ParseXML lee movimientos desde un documento <stock><movement .../></stock>.
func ParseXML(r io.Reader) ([]Line, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("stockfile: leer XML: %w", err)
	}
	root := doc.SelectElement("stock")
	if root == nil {
		return nil, errors.New("stockfile: falta el elemento raíz <stock>")
	}
	var lines []Line
	for i, el := range root.SelectElements("movement") {
		line, err := buildLine(i+1,
			el.SelectAttrValue("product_id", ""),
			el.SelectAttrValue("sku", ""),
			el.SelectAttrValue("type", ""),
			el.SelectAttrValue("quantity", ""),
			el.SelectAttrValue("unit_cost", ""))
		if err != nil {
			return nil, err
		}
		line.ReferenceID = el.SelectAttrValue("reference_id", "")
		line.Notes = strings.TrimSpace(el.Text())
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyFile
	}
	return lines, nil
}

func buildLine(row int, productID, sku, movementType, quantity, unitCost string) (Line, error) {
	line := Line{Row: row, SKU: sku, MovementType: strings.ToLower(movementType)}
	if productID != "" {
		id, err := strconv.ParseInt(productID, 10, 64)
		if err != nil || id <= 0 {
			return line, &RowError{Row: row, Err: fmt.Errorf("product_id inválido %q", productID)}
		}
		line.ProductID = id
	}
	if line.ProductID == 0 && sku == "" {
		return line, &RowError{Row: row, Err: errors.New("se requiere sku o product_id")}
	}
	q, err := strconv.ParseInt(quantity, 10, 64)
	if err != nil {
		return line, &RowError{Row: row, Err: fmt.Errorf("cantidad inválida %q", quantity)}
	}
	line.QuantityChange = q
	if unitCost != "" {
		c, err := decimal.NewFromString(unitCost)
		if err != nil {
			return line, &RowError{Row: row, Err: fmt.Errorf("unit_cost inválido %q", unitCost)}
		}
		line.UnitCost = &c
	}
	return line, nil
}

// ToMovements resuelve los SKU contra el catálogo y arma las entradas de ApplyBatch.
// Las líneas cuyo SKU no existe se devuelven en unresolved y no se incluyen en movements.
func ToMovements(ctx context.Context, products repository.ProductRepository, lines []Line, userID string) (movements []inventory.MovementInput, rows []int, unresolved []RowError, err error) {
	for _, l := range lines {
		id := l.ProductID
		if id == 0 {
			p, err := products.GetBySKU(ctx, l.SKU)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("buscar sku %s: %w", l.SKU, err)
			}
			if p == nil {
				unresolved = append(unresolved, RowError{Row: l.Row, Err: fmt.Errorf("sku %q no existe", l.SKU)})
				continue
			}
			id = p.ID
		}
		movements = append(movements, inventory.MovementInput{
			ProductID:      id,
			MovementType:   l.MovementType,
			QuantityChange: l.QuantityChange,
			UserID:         userID,
			ReferenceID:    l.ReferenceID,
			ReferenceType:  "import",
			Notes:          l.Notes,
			UnitCost:       l.UnitCost,
		})
		rows = append(rows, l.Row)
	}
	return movements, rows, unresolved, nil
}
