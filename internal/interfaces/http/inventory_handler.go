package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/khoaugment/pos-api/internal/application/dto"
	"github.com/khoaugment/pos-api/internal/application/inventory"
	"github.com/khoaugment/pos-api/internal/domain/entity"
)

// InventoryHandler maneja las peticiones HTTP del libro de inventario (protegido).
type InventoryHandler struct {
	writer    *inventory.LedgerWriter
	batch     *inventory.BatchApplier
	applier   *inventory.OrderApplier
	reporting *inventory.ReportingService
	exporter  *inventory.ValuationExporter
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(
	writer *inventory.LedgerWriter,
	batch *inventory.BatchApplier,
	applier *inventory.OrderApplier,
	reporting *inventory.ReportingService,
	exporter *inventory.ValuationExporter,
) *InventoryHandler {
	return &InventoryHandler{writer: writer, batch: batch, applier: applier, reporting: reporting, exporter: exporter}
}

// SetStock godoc
// @Summary      Fijar stock absoluto
// @Description  Registra la diferencia como purchase (si sube) o adjustment (si baja). Sin cambio no escribe nada.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string               false  "Clave de idempotencia"
// @Param        body             body    dto.SetStockRequest  true   "product_id, new_stock"
// @Success      200   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/stock [put]
func (h *InventoryHandler) SetStock(c *fiber.Ctx) error {
	var in dto.SetStockRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	res, err := h.writer.SetStock(c.UserContext(), inventory.SetStockInput{
		ProductID: in.ProductID,
		NewStock:  *in.NewStock,
		UserID:    GetUserID(c),
		Notes:     in.Notes,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toMovementResponse(*res))
}

// RecordMovement godoc
// @Summary      Registrar movimiento de stock
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string                     false  "Clave de idempotencia"
// @Param        body             body    dto.RecordMovementRequest  true   "product_id, movement_type, quantity_change"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/movement [post]
func (h *InventoryHandler) RecordMovement(c *fiber.Ctx) error {
	var in dto.RecordMovementRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	res, err := h.writer.RecordMovement(c.UserContext(), toMovementInput(in, GetUserID(c)))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(*res))
}

// BatchMovement godoc
// @Summary      Aplicar lote de movimientos
// @Description  Cada movimiento se confirma por separado; la respuesta detalla éxito o error por ítem.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string                    false  "Clave de idempotencia"
// @Param        body             body    dto.BatchMovementRequest  true   "movements"
// @Success      200   {object}  dto.BatchMovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/inventory/batch-movement [post]
func (h *InventoryHandler) BatchMovement(c *fiber.Ctx) error {
	var in dto.BatchMovementRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	userID := GetUserID(c)

	out := dto.BatchMovementResponse{Results: make([]dto.BatchItemResponse, len(in.Movements)), Total: len(in.Movements)}
	valid := make([]inventory.MovementInput, 0, len(in.Movements))
	origin := make([]int, 0, len(in.Movements))
	for i, m := range in.Movements {
		if err := validate.Struct(m); err != nil {
			verr := validationError(err)
			out.Results[i] = dto.BatchItemResponse{Index: i, ProductID: m.ProductID, Error: &verr}
			out.Failed++
			continue
		}
		valid = append(valid, toMovementInput(m, userID))
		origin = append(origin, i)
	}

	res := h.batch.ApplyBatch(c.UserContext(), userID, valid)
	for _, item := range res.Items {
		i := origin[item.Index]
		r := dto.BatchItemResponse{Index: i, ProductID: item.ProductID, Success: item.Success()}
		if item.Success() {
			newStock, movementID := item.Result.NewStock, item.Result.MovementID
			r.NewStock, r.MovementID = &newStock, &movementID
			out.Successful++
		} else {
			_, body := classifyError(item.Err)
			r.Error = &body
			out.Failed++
		}
		out.Results[i] = r
	}
	return c.JSON(out)
}

// Return godoc
// @Summary      Registrar devolución
// @Description  Todas las líneas se aplican juntas o ninguna; nunca se rechaza por nivel de stock.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string             false  "Clave de idempotencia"
// @Param        body             body    dto.ReturnRequest  true   "return_id opcional, items"
// @Success      201   {object}  dto.ReturnResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/returns [post]
func (h *InventoryHandler) Return(c *fiber.Ctx) error {
	var in dto.ReturnRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	returnID := in.ReturnID
	if returnID == "" {
		returnID = uuid.New().String()
	}
	lines := make([]inventory.OrderLine, 0, len(in.Items))
	for _, it := range in.Items {
		lines = append(lines, inventory.OrderLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	results, err := h.applier.ApplyReturn(c.UserContext(), returnID, GetUserID(c), lines)
	if err != nil {
		return respondError(c, err)
	}
	out := dto.ReturnResponse{ReturnID: returnID, Movements: make([]dto.MovementResponse, 0, len(results))}
	for _, r := range results {
		out.Movements = append(out.Movements, toMovementResponse(r))
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// MovementHistory godoc
// @Summary      Historial de movimientos de un producto
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        productId  path   int  true   "ID del producto"
// @Param        limit      query  int  false  "Límite"  default(20)
// @Param        offset     query  int  false  "Offset"  default(0)
// @Success      200  {object}  dto.MovementHistoryResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/{productId} [get]
func (h *InventoryHandler) MovementHistory(c *fiber.Ctx) error {
	productID, ok := paramID(c, "productId")
	if !ok {
		return badRequest(c, "INVALID_ID", "productId debe ser un entero positivo")
	}
	page, err := h.reporting.MovementHistory(c.UserContext(), productID, c.QueryInt("limit", 0), c.QueryInt("offset", 0))
	if err != nil {
		return respondError(c, err)
	}
	out := dto.MovementHistoryResponse{
		Items: make([]dto.StockMovementDTO, 0, len(page.Items)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: page.Total},
	}
	for _, m := range page.Items {
		out.Items = append(out.Items, toMovementDTO(m))
	}
	return c.JSON(out)
}

// LowStock godoc
// @Summary      Productos con stock bajo
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        limit  query  int  false  "Límite"  default(20)
// @Success      200  {object}  dto.LowStockResponse
// @Router       /api/inventory/low-stock [get]
func (h *InventoryHandler) LowStock(c *fiber.Ctx) error {
	items, err := h.reporting.LowStock(c.UserContext(), c.QueryInt("limit", 0))
	if err != nil {
		return respondError(c, err)
	}
	out := dto.LowStockResponse{Items: make([]dto.LowStockItemDTO, 0, len(items)), Count: len(items)}
	for _, it := range items {
		out.Items = append(out.Items, dto.LowStockItemDTO{
			ProductID:         it.ProductID,
			SKU:               it.SKU,
			Name:              it.Name,
			Stock:             it.Stock,
			MinStock:          it.MinStock,
			Deficit:           it.Deficit,
			Category:          it.CategoryName,
			SuggestedOrderQty: it.SuggestedOrderQty,
		})
	}
	return c.JSON(out)
}

// Valuation godoc
// @Summary      Valorización del inventario
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        category_id  query  int  false  "Filtrar por categoría"
// @Success      200  {object}  dto.ValuationResponse
// @Router       /api/inventory/valuation [get]
func (h *InventoryHandler) Valuation(c *fiber.Ctx) error {
	categoryID, ok := optionalCategory(c)
	if !ok {
		return badRequest(c, "INVALID_QUERY", "category_id debe ser un entero positivo")
	}
	report, err := h.reporting.Valuation(c.UserContext(), categoryID)
	if err != nil {
		return respondError(c, err)
	}
	out := dto.ValuationResponse{
		Categories: make([]dto.ValuationRowDTO, 0, len(report.Rows)),
		TotalUnits: report.TotalUnits,
		TotalValue: report.TotalValue,
	}
	for _, r := range report.Rows {
		out.Categories = append(out.Categories, dto.ValuationRowDTO{
			CategoryID:   r.CategoryID,
			CategoryName: r.CategoryName,
			ProductCount: r.ProductCount,
			TotalUnits:   r.TotalUnits,
			TotalValue:   r.TotalValue,
		})
	}
	return c.JSON(out)
}

// ValuationPDF godoc
// @Summary      Valorización en PDF
// @Tags         inventory
// @Security     Bearer
// @Produce      application/pdf
// @Param        category_id  query  int  false  "Filtrar por categoría"
// @Success      200
// @Router       /api/inventory/valuation/pdf [get]
func (h *InventoryHandler) ValuationPDF(c *fiber.Ctx) error {
	categoryID, ok := optionalCategory(c)
	if !ok {
		return badRequest(c, "INVALID_QUERY", "category_id debe ser un entero positivo")
	}
	pdf, err := h.exporter.RenderPDF(c.UserContext(), categoryID)
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="valuation.pdf"`)
	return c.Send(pdf)
}

// ExportValuation godoc
// @Summary      Publicar valorización en el almacén de reportes
// @Description  Sube el PDF a R2 y devuelve una URL prefirmada temporal.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        category_id  query  int  false  "Filtrar por categoría"
// @Success      201  {object}  dto.ValuationExportResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/inventory/valuation/export [post]
func (h *InventoryHandler) ExportValuation(c *fiber.Ctx) error {
	categoryID, ok := optionalCategory(c)
	if !ok {
		return badRequest(c, "INVALID_QUERY", "category_id debe ser un entero positivo")
	}
	exp, err := h.exporter.Export(c.UserContext(), categoryID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ValuationExportResponse{Key: exp.Key, URL: exp.URL, ExpiresAt: exp.ExpiresAt})
}

// Reconcile godoc
// @Summary      Auditar el libro de un producto
// @Description  Verifica que stock coincida con el último quantity_after y que la cadena de movimientos sea continua.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        productId  path  int  true  "ID del producto"
// @Success      200  {object}  dto.ReconcileResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/reconcile/{productId} [get]
func (h *InventoryHandler) Reconcile(c *fiber.Ctx) error {
	productID, ok := paramID(c, "productId")
	if !ok {
		return badRequest(c, "INVALID_ID", "productId debe ser un entero positivo")
	}
	rep, err := h.reporting.Reconcile(c.UserContext(), productID)
	if err != nil {
		return respondError(c, err)
	}
	out := dto.ReconcileResponse{
		ProductID:         rep.ProductID,
		Stock:             rep.Stock,
		MovementCount:     rep.MovementCount,
		LastQuantityAfter: rep.LastQuantityAfter,
		Consistent:        rep.Consistent,
		CheckedAt:         rep.CheckedAt,
	}
	if rep.Break != nil {
		out.Break = &dto.ChainBreakDTO{
			MovementID: rep.Break.MovementID,
			Expected:   rep.Break.Expected,
			Found:      rep.Break.Found,
			Reason:     rep.Break.Reason,
		}
	}
	return c.JSON(out)
}

// ── mapeos ────────────────────────────────────────────────────────────────────

func optionalCategory(c *fiber.Ctx) (*int64, bool) {
	if c.Query("category_id") == "" {
		return nil, true
	}
	id := c.QueryInt("category_id", 0)
	if id <= 0 {
		return nil, false
	}
	v := int64(id)
	return &v, true
}

func toMovementInput(in dto.RecordMovementRequest, userID string) inventory.MovementInput {
	return inventory.MovementInput{
		ProductID:      in.ProductID,
		MovementType:   in.MovementType,
		QuantityChange: in.QuantityChange,
		UserID:         userID,
		ReferenceID:    in.ReferenceID,
		ReferenceType:  in.ReferenceType,
		Notes:          in.Notes,
		UnitCost:       in.UnitCost,
	}
}

func toMovementResponse(r inventory.MovementResult) dto.MovementResponse {
	return dto.MovementResponse{
		ProductID:     r.ProductID,
		MovementID:    r.MovementID,
		MovementType:  r.MovementType,
		PreviousStock: r.PreviousStock,
		NewStock:      r.NewStock,
		Changed:       r.Changed,
	}
}

func toMovementDTO(m *entity.StockMovement) dto.StockMovementDTO {
	return dto.StockMovementDTO{
		ID:             m.ID,
		ProductID:      m.ProductID,
		MovementType:   m.MovementType,
		QuantityChange: m.QuantityChange,
		QuantityBefore: m.QuantityBefore,
		QuantityAfter:  m.QuantityAfter,
		ReferenceID:    m.ReferenceID,
		ReferenceType:  m.ReferenceType,
		Notes:          m.Notes,
		UserID:         m.UserID,
		UserName:       m.UserName,
		CreatedAt:      m.CreatedAt,
	}
}
