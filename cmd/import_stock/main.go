// import_stock aplica un archivo de movimientos de stock (CSV o XML) al libro de inventario.
//
// Uso:
//
//	go run ./cmd/import_stock -file compras.csv -user admin@khoaugment.vn [-encoding windows-1258] [-dry-run]
//
// Cada línea se confirma por separado a través de ApplyBatch; el resultado se imprime por línea.
// Sale con código 1 si alguna línea falló.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/khoaugment/pos-api/internal/application/inventory"
	domaininv "github.com/khoaugment/pos-api/internal/domain/inventory"
	"github.com/khoaugment/pos-api/internal/infrastructure/postgres"
	"github.com/khoaugment/pos-api/internal/infrastructure/stockfile"
	"github.com/khoaugment/pos-api/pkg/config"
	"github.com/khoaugment/pos-api/pkg/logger"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run ejecuta la importación y devuelve el código de salida: 2 uso incorrecto, 1 error o
// líneas fallidas, 0 éxito. Los recursos abiertos se cierran antes de volver.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("import_stock", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		file     = fs.String("file", "", "archivo CSV o XML con los movimientos")
		format   = fs.String("format", "", "csv | xml (por defecto según la extensión)")
		encoding = fs.String("encoding", stockfile.EncodingUTF8, "codificación del CSV: utf-8 | windows-1258")
		user     = fs.String("user", "", "email del usuario que registra la importación")
		dryRun   = fs.Bool("dry-run", false, "solo valida el archivo, no escribe")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *file == "" || *user == "" {
		fs.Usage()
		return 2
	}

	lines, err := readLines(*file, *format, *encoding)
	if err != nil {
		fmt.Fprintf(stderr, "Leer %s: %v\n", *file, err)
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Cargar configuración: %v\n", err)
		return 1
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "import_stock", Output: stderr})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("conexión a PostgreSQL")
		return 1
	}
	defer pool.Close()

	products := postgres.NewProductRepository(pool)
	operator, err := postgres.NewUserRepository(pool).GetByEmail(ctx, strings.ToLower(strings.TrimSpace(*user)))
	if err != nil {
		log.Error().Err(err).Msg("buscar usuario")
		return 1
	}
	if operator == nil {
		fmt.Fprintf(stderr, "El usuario %s no existe\n", *user)
		return 1
	}

	movements, rows, unresolved, err := stockfile.ToMovements(ctx, products, lines, operator.ID)
	if err != nil {
		log.Error().Err(err).Msg("resolver productos")
		return 1
	}
	for _, u := range unresolved {
		fmt.Fprintf(stdout, "línea %-5d ERROR  %v\n", u.Row, u.Err)
	}
	if *dryRun {
		fmt.Fprintf(stdout, "dry-run: %d movimientos válidos, %d sin producto\n", len(movements), len(unresolved))
		return 0
	}

	trigger := inventory.NewAlertTrigger(products, postgres.NewCategoryRepository(pool), postgres.NewActivityLogRepository(pool),
		domaininv.ParseAlertPolicy(cfg.Inventory.AlertPolicy), log.Component("low_stock_alert"))
	writer := inventory.NewLedgerWriter(postgres.NewTxRunner(pool), inventory.NewProductLocker(), trigger, inventory.RetryConfig{
		MaxAttempts:     cfg.Inventory.RetryAttempts,
		InitialInterval: cfg.Inventory.RetryBaseDelay,
		MaxInterval:     cfg.Inventory.RetryMaxDelay,
	}, log.Component("ledger"))

	res := inventory.NewBatchApplier(writer, log.Component("batch")).ApplyBatch(ctx, operator.ID, movements)
	for _, item := range res.Items {
		row := rows[item.Index]
		if item.Success() {
			fmt.Fprintf(stdout, "línea %-5d OK     producto %d: %d → %d (movimiento %d)\n",
				row, item.ProductID, item.Result.PreviousStock, item.Result.NewStock, item.Result.MovementID)
			continue
		}
		fmt.Fprintf(stdout, "línea %-5d ERROR  producto %d: %v\n", row, item.ProductID, item.Err)
	}

	failed := res.Failed + len(unresolved)
	fmt.Fprintf(stdout, "\n%d aplicados, %d fallidos de %d líneas\n", res.Successful, failed, len(lines))
	if failed > 0 {
		return 1
	}
	return 0
}

func readLines(path, format, encoding string) ([]stockfile.Line, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}
	var r io.Reader = f
	switch format {
	case "csv":
		return stockfile.ParseCSV(r, encoding)
	case "xml":
		return stockfile.ParseXML(r)
	}
	return nil, errors.New("formato desconocido: use -format csv|xml")
}
