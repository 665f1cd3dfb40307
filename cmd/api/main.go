package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	_ "github.com/khoaugment/pos-api/docs"
	"github.com/khoaugment/pos-api/internal/application/auth"
	"github.com/khoaugment/pos-api/internal/application/inventory"
	"github.com/khoaugment/pos-api/internal/application/ports"
	"github.com/khoaugment/pos-api/internal/application/usecase"
	domaininv "github.com/khoaugment/pos-api/internal/domain/inventory"
	"github.com/khoaugment/pos-api/internal/domain/repository"
	"github.com/khoaugment/pos-api/internal/infrastructure/cache"
	"github.com/khoaugment/pos-api/internal/infrastructure/memory"
	infrapdf "github.com/khoaugment/pos-api/internal/infrastructure/pdf"
	"github.com/khoaugment/pos-api/internal/infrastructure/postgres"
	"github.com/khoaugment/pos-api/internal/infrastructure/storage"
	"github.com/khoaugment/pos-api/internal/infrastructure/telemetry"
	httpRouter "github.com/khoaugment/pos-api/internal/interfaces/http"
	"github.com/khoaugment/pos-api/pkg/config"
	"github.com/khoaugment/pos-api/pkg/logger"
)

// repositories agrupa los adaptadores de persistencia según DB_DRIVER.
type repositories struct {
	tx         inventory.TxRunner
	products   repository.ProductRepository
	categories repository.CategoryRepository
	movements  repository.StockMovementRepository
	users      repository.UserRepository
	logs       repository.ActivityLogRepository
	orders     repository.OrderRepository
	reports    repository.InventoryReportRepository
	close      func()
}

// @title                       KhoAugment POS API
// @version                     1.0
// @description                 Backend del punto de venta KhoAugment: libro de movimientos de inventario, órdenes, devoluciones y reportes.
// @BasePath                    /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
// @description                 Bearer <token JWT>
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("db_driver", cfg.DB.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()

	otel, err := telemetry.Setup(ctx, cfg.Telemetry, log.Component("telemetry"))
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar OpenTelemetry")
	}

	repos, err := openRepositories(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer repos.close()

	idemStore := openIdempotencyStore(ctx, cfg, log)

	// Libro de inventario
	policy := domaininv.ParseAlertPolicy(cfg.Inventory.AlertPolicy)
	trigger := inventory.NewAlertTrigger(repos.products, repos.categories, repos.logs, policy, log.Component("low_stock_alert"))
	ledger := inventory.NewLedgerWriter(repos.tx, inventory.NewProductLocker(), trigger, inventory.RetryConfig{
		MaxAttempts:     cfg.Inventory.RetryAttempts,
		InitialInterval: cfg.Inventory.RetryBaseDelay,
		MaxInterval:     cfg.Inventory.RetryMaxDelay,
	}, log.Component("ledger"))
	dispatcher := inventory.NewAlertDispatcher(trigger, log.Component("alert_dispatcher"))
	applier := inventory.NewOrderApplier(ledger, dispatcher, log.Component("order_applier"))
	batch := inventory.NewBatchApplier(ledger, log.Component("batch"))
	reporting := inventory.NewReportingService(repos.products, repos.movements, repos.reports)

	// Reportes: PDF siempre; publicación en R2 solo si está configurado.
	var reportStorage inventory.ReportStorage
	if cfg.Storage.Enabled() {
		r2, err := storage.NewR2Storage(ctx, cfg.Storage, log.Component("r2"))
		if err != nil {
			log.Fatal().Err(err).Msg("inicializar Cloudflare R2")
		}
		reportStorage = r2
	} else {
		log.Warn().Msg("R2 no configurado: la exportación de valorización queda deshabilitada")
	}
	exporter := inventory.NewValuationExporter(reporting, infrapdf.NewMarotoRenderer(cfg.App.Name), reportStorage, cfg.Storage.PresignTTL)

	authUC := auth.NewAuthUseCase(repos.users, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    cfg.HTTP.BodyLimitMB * 1024 * 1024,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log.Component("http")))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "KhoAugment POS API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "db_driver": cfg.DB.Driver})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:           authUC,
		ProductUC:        usecase.NewProductUseCase(repos.products, repos.categories),
		CategoryUC:       usecase.NewCategoryUseCase(repos.categories),
		UserUC:           usecase.NewUserUseCase(repos.users),
		OrderUC:          usecase.NewOrderUseCase(repos.orders, repos.products, applier, log.Component("orders")),
		Ledger:           ledger,
		Batch:            batch,
		Applier:          applier,
		Reporting:        reporting,
		Exporter:         exporter,
		JWTSecret:        cfg.JWT.Secret,
		IdempotencyStore: idemStore,
		IdempotencyTTL:   cfg.Inventory.IdempotencyTTL,
		Logger:           log.Component("idempotency"),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	drainCtx, cancelDrain := context.WithTimeout(context.Background(), cfg.Inventory.AlertDrainLimit)
	defer cancelDrain()
	if err := dispatcher.Drain(drainCtx); err != nil {
		log.Warn().Err(err).Msg("alertas de stock bajo pendientes al apagar")
	}

	if err := closeIdempotencyStore(idemStore); err != nil {
		log.Warn().Err(err).Msg("cerrar almacén de idempotencia")
	}

	if err := otel.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado de OpenTelemetry")
	}

	log.Info().Msg("aplicación detenida")
}

// openRepositories construye los repositorios de PostgreSQL o del almacén en memoria.
func openRepositories(ctx context.Context, cfg *config.Config, log *logger.Logger) (*repositories, error) {
	if cfg.DB.Driver == config.DriverMemory {
		log.Warn().Msg("DB_DRIVER=memory: los datos se pierden al reiniciar")
		s := memory.NewStore()
		return &repositories{
			tx:         memory.NewTxRunner(s),
			products:   memory.NewProductRepository(s),
			categories: memory.NewCategoryRepository(s),
			movements:  memory.NewStockMovementRepository(s),
			users:      memory.NewUserRepository(s),
			logs:       memory.NewActivityLogRepository(s),
			orders:     memory.NewOrderRepository(s),
			reports:    memory.NewInventoryReportRepository(s),
			close:      func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if cfg.DB.AutoMigrate {
		if err := migrate(pool, log.Component("migrate")); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return &repositories{
		tx:         postgres.NewTxRunner(pool),
		products:   postgres.NewProductRepository(pool),
		categories: postgres.NewCategoryRepository(pool),
		movements:  postgres.NewStockMovementRepository(pool),
		users:      postgres.NewUserRepository(pool),
		logs:       postgres.NewActivityLogRepository(pool),
		orders:     postgres.NewOrderRepository(pool),
		reports:    postgres.NewInventoryReportRepository(pool),
		close:      pool.Close,
	}, nil
}

func migrate(pool *pgxpool.Pool, log zerolog.Logger) error {
	m, err := postgres.NewMigrator(pool, log)
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Up()
}

// openIdempotencyStore usa Redis si REDIS_ADDR está definido; si no, un almacén en memoria
// (válido solo para una instancia).
func openIdempotencyStore(ctx context.Context, cfg *config.Config, log *logger.Logger) ports.IdempotencyStore {
	if cfg.Redis.Addr == "" {
		log.Info().Msg("REDIS_ADDR vacío: Idempotency-Key en memoria")
		return cache.NewMemoryIdempotencyStore()
	}
	store, err := cache.NewRedisIdempotencyStore(ctx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a Redis")
	}
	return store
}

// closeIdempotencyStore cierra el almacén si mantiene conexiones (Redis).
func closeIdempotencyStore(store ports.IdempotencyStore) error {
	if c, ok := store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
