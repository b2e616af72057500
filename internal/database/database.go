// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package database owns the PostgreSQL pool and the embedded goose
// migrations that create users, themes, builder content and assets.
package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"dndbuilder/internal/logger"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

// Pool sizes the connection pool.
type Pool struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
}

// DefaultPool suits a single API instance.
var DefaultPool = Pool{MaxOpen: 25, MaxIdle: 5, MaxLifetime: time.Hour}

// Connect opens a pgx-backed pool and pings it within ctx.
func Connect(ctx context.Context, dsn string, pool Pool) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(pool.MaxOpen)
	db.SetMaxIdleConns(pool.MaxIdle)
	db.SetConnMaxLifetime(pool.MaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	logger.L().Info("postgres connected", zap.Int("max_open", pool.MaxOpen))
	return db, nil
}

func provider(db *sql.DB) (*goose.Provider, error) {
	return goose.NewProvider(goose.DialectPostgres, db, mustSub(migrationsDir))
}

// Migrate applies every pending migration.
func Migrate(ctx context.Context, db *sql.DB) error {
	p, err := provider(db)
	if err != nil {
		return fmt.Errorf("migration provider: %w", err)
	}
	results, err := p.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	for _, r := range results {
		logger.L().Info("migration applied",
			zap.Int64("version", r.Source.Version),
			zap.Duration("took", r.Duration))
	}
	return nil
}

// Version reports the highest applied migration and how many are still
// pending.
func Version(ctx context.Context, db *sql.DB) (current int64, pending int, err error) {
	p, err := provider(db)
	if err != nil {
		return 0, 0, fmt.Errorf("migration provider: %w", err)
	}
	statuses, err := p.Status(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("migration status: %w", err)
	}
	for _, s := range statuses {
		switch s.State {
		case goose.StatePending:
			pending++
		case goose.StateApplied:
			current = max(current, s.Source.Version)
		}
	}
	return current, pending, nil
}

func mustSub(dir string) fs.FS {
	sub, err := fs.Sub(migrations, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
