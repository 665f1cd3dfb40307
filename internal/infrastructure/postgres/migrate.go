package postgres

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrator aplica las migraciones embebidas con golang-migrate.
type Migrator struct {
	m      *migrate.Migrate
	logger zerolog.Logger
}

// NewMigrator construye el migrador sobre una conexión database/sql derivada del pool.
func NewMigrator(pool *pgxpool.Pool, logger zerolog.Logger) (*Migrator, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("migraciones embebidas: %w", err)
	}
	driver, err := migratepgx.WithInstance(stdlib.OpenDBFromPool(pool), &migratepgx.Config{})
	if err != nil {
		return nil, fmt.Errorf("driver de migración: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return nil, fmt.Errorf("crear migrador: %w", err)
	}
	return &Migrator{m: m, logger: logger}, nil
}

// Up aplica todas las migraciones pendientes.
func (m *Migrator) Up() error {
	if err := m.m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.logger.Info().Msg("sin migraciones pendientes")
			return nil
		}
		return fmt.Errorf("migración up: %w", err)
	}
	return m.logVersion()
}

// Down revierte todas las migraciones.
func (m *Migrator) Down() error {
	if err := m.m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migración down: %w", err)
	}
	m.logger.Info().Msg("migraciones revertidas")
	return nil
}

// Steps aplica n pasos (positivo sube, negativo baja).
func (m *Migrator) Steps(n int) error {
	if err := m.m.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migración steps: %w", err)
	}
	return m.logVersion()
}

// Version devuelve la versión actual y si quedó en estado dirty.
func (m *Migrator) Version() (uint, bool, error) {
	v, dirty, err := m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

// Close libera la fuente y la conexión de migración.
func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	return errors.Join(srcErr, dbErr)
}

func (m *Migrator) logVersion() error {
	v, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("versión de migración: %w", err)
	}
	m.logger.Info().Uint("version", v).Bool("dirty", dirty).Msg("migraciones aplicadas")
	return nil
}
