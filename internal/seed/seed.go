package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/oguzk/studentdesk/internal/app/models"
	"github.com/oguzk/studentdesk/internal/app/repositories"
	"github.com/oguzk/studentdesk/internal/config"
	"github.com/oguzk/studentdesk/internal/pkg/apperrors"
	"github.com/oguzk/studentdesk/internal/pkg/auth"
)

// CreateDefaultData ensures a default admin account exists so a fresh
// deployment can be administered. The seed goes through the Store
// interface, so it works the same against every backend.
func CreateDefaultData(ctx context.Context, store repositories.Store, cfg *config.Config, lgr zerolog.Logger) error {
	if cfg.Seed.AdminPassword == "" {
		lgr.Debug().Msg("No seed admin password configured, skipping default admin")
		return nil
	}

	_, err := store.GetUserByUsername(ctx, cfg.Seed.AdminUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, apperrors.ErrUserNotFound) {
		return fmt.Errorf("failed to check for default admin: %w", err)
	}

	hashed, err := auth.HashPassword(cfg.Seed.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash default admin password: %w", err)
	}

	admin, err := store.CreateUser(ctx, &models.User{
		Username: cfg.Seed.AdminUsername,
		Password: hashed,
		RoleType: models.RoleAdmin,
	})
	if err != nil {
		// Another instance may have seeded concurrently
		if errors.Is(err, apperrors.ErrUsernameExists) {
			return nil
		}
		return fmt.Errorf("failed to create default admin: %w", err)
	}

	lgr.Info().Str("username", admin.Username).Msg("Default admin account created")
	return nil
}
