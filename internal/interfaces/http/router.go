package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/khoaugment/pos-api/internal/application/auth"
	"github.com/khoaugment/pos-api/internal/application/inventory"
	"github.com/khoaugment/pos-api/internal/application/ports"
	"github.com/khoaugment/pos-api/internal/application/usecase"
	"github.com/khoaugment/pos-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC     *auth.AuthUseCase
	ProductUC  *usecase.ProductUseCase
	CategoryUC *usecase.CategoryUseCase
	UserUC     *usecase.UserUseCase
	OrderUC    *usecase.OrderUseCase

	Ledger    *inventory.LedgerWriter
	Batch     *inventory.BatchApplier
	Applier   *inventory.OrderApplier
	Reporting *inventory.ReportingService
	Exporter  *inventory.ValuationExporter

	JWTSecret        string
	IdempotencyStore ports.IdempotencyStore // nil = sin soporte de Idempotency-Key
	IdempotencyTTL   time.Duration
	Logger           zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	staff := RequireRole(entity.RoleAdmin, entity.RoleManager)
	anyRole := RequireRole(entity.RoleAdmin, entity.RoleManager, entity.RoleCashier)
	idem := Idempotency(deps.IdempotencyStore, deps.IdempotencyTTL, deps.Logger)

	// Products y categorías
	productHandler := NewProductHandler(deps.ProductUC, deps.CategoryUC)
	products := protected.Group("/products")
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Post("/", staff, productHandler.Create)
	products.Put("/:id", staff, productHandler.Update)
	products.Delete("/:id", staff, productHandler.Deactivate)

	categories := protected.Group("/categories")
	categories.Get("/", productHandler.ListCategories)
	categories.Post("/", staff, productHandler.CreateCategory)

	// Libro de inventario
	inv := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Ledger, deps.Batch, deps.Applier, deps.Reporting, deps.Exporter)
	inv.Put("/stock", staff, idem, inventoryHandler.SetStock)
	inv.Post("/movement", staff, idem, inventoryHandler.RecordMovement)
	inv.Post("/batch-movement", staff, idem, inventoryHandler.BatchMovement)
	inv.Post("/returns", staff, idem, inventoryHandler.Return)
	inv.Get("/movements/:productId", inventoryHandler.MovementHistory)
	inv.Get("/low-stock", inventoryHandler.LowStock)
	inv.Get("/valuation", staff, inventoryHandler.Valuation)
	inv.Get("/valuation/pdf", staff, inventoryHandler.ValuationPDF)
	inv.Post("/valuation/export", staff, inventoryHandler.ExportValuation)
	inv.Get("/reconcile/:productId", staff, inventoryHandler.Reconcile)

	// Órdenes de venta
	orderHandler := NewOrderHandler(deps.OrderUC)
	protected.Post("/orders", anyRole, idem, orderHandler.Create)

	// Usuarios (solo admin)
	userHandler := NewUserHandler(deps.UserUC)
	users := protected.Group("/users", RequireRole(entity.RoleAdmin))
	users.Get("/", userHandler.List)
	users.Patch("/:id/role", userHandler.UpdateRole)
}
