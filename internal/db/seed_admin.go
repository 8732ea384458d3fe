package db

import (
	"context"
	"errors"

	"userhub/internal/config"
	"userhub/internal/domain/user"
	repo "userhub/internal/repo/mongo"
	"userhub/internal/security"
)

// EnsureAdminUser bootstraps the first admin account from config so a fresh
// deployment has someone who can reach the admin endpoints. No-op when the
// account already exists or no credentials are configured.
func EnsureAdminUser(ctx context.Context, users *repo.UsersRepo, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	_, err := users.GetByEmail(ctx, cfg.AdminEmail)

	if err == nil {
		return nil
	}

	if !errors.Is(err, repo.ErrUserNotFound) {
		return err
	}

	hash, err := security.HashPassword(cfg.AdminPassword, cfg.BcryptCost)

	if err != nil {
		return err
	}

	_, err = users.Create(ctx, cfg.AdminEmail, hash, cfg.AdminName, user.RoleAdmin)

	return err
}
