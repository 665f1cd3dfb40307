// migrate aplica o revierte las migraciones embebidas del esquema.
//
// Uso: go run ./cmd/migrate up | down | steps N | version
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/khoaugment/pos-api/internal/infrastructure/postgres"
	"github.com/khoaugment/pos-api/pkg/config"
	"github.com/khoaugment/pos-api/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "uso: migrate up | down | steps N | version")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "migrate"})

	pool, err := postgres.NewPool(context.Background(), cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	m, err := postgres.NewMigrator(pool, log.Component("migrate"))
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar migraciones")
	}
	defer m.Close()

	switch os.Args[1] {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "steps":
		if len(os.Args) < 3 {
			log.Fatal().Msg("steps requiere N")
		}
		n, convErr := strconv.Atoi(os.Args[2])
		if convErr != nil {
			log.Fatal().Err(convErr).Msg("N inválido")
		}
		err = m.Steps(n)
	case "version":
		v, dirty, verr := m.Version()
		if verr != nil {
			log.Fatal().Err(verr).Msg("leer versión")
		}
		fmt.Printf("versión %d (dirty=%t)\n", v, dirty)
		return
	default:
		log.Fatal().Str("cmd", os.Args[1]).Msg("comando desconocido")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("migración fallida")
	}
	log.Info().Str("cmd", os.Args[1]).Msg("migración completada")
}
