package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"ipcr/internal/domain/auth"
	"ipcr/internal/platform/config"
)

// Seed makes the instance usable on first boot: one admin account. The
// singleton settings row is created lazily by the settings service, so
// it is not seeded here.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.SeedAdminEmail == "" || cfg.SeedAdminPassword == "" {
		return nil
	}
	return ensureAdminUser(ctx, pool, cfg.SeedAdminEmail, cfg.SeedAdminPassword)
}

func ensureAdminUser(ctx context.Context, pool *pgxpool.Pool, email, password string) error {
	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(1) FROM users WHERE email = $1", email).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, `
    INSERT INTO users (id, first_name, last_name, email, password_hash, role, status)
    VALUES (gen_random_uuid(), 'System', 'Administrator', $1, $2, $3, 'active')
  `, email, hash, auth.RoleAdmin)
	return err
}
