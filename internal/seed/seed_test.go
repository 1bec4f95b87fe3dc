package seed

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oguzk/studentdesk/internal/app/models"
	"github.com/oguzk/studentdesk/internal/app/repositories"
	"github.com/oguzk/studentdesk/internal/config"
	"github.com/oguzk/studentdesk/internal/pkg/apperrors"
	"github.com/oguzk/studentdesk/internal/pkg/auth"
)

func seedConfig(password string) *config.Config {
	cfg := &config.Config{}
	cfg.Seed.AdminUsername = "admin"
	cfg.Seed.AdminPassword = password
	return cfg
}

func TestCreateDefaultData(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the admin account", func(t *testing.T) {
		store := repositories.NewMemoryStore()

		require.NoError(t, CreateDefaultData(ctx, store, seedConfig("seed-pass"), zerolog.Nop()))

		admin, err := store.GetUserByUsername(ctx, "admin")
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, admin.RoleType)
		assert.True(t, auth.CheckPassword(admin.Password, "seed-pass"))
	})

	t.Run("skips without a configured password", func(t *testing.T) {
		store := repositories.NewMemoryStore()

		require.NoError(t, CreateDefaultData(ctx, store, seedConfig(""), zerolog.Nop()))

		_, err := store.GetUserByUsername(ctx, "admin")
		assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	})

	t.Run("leaves an existing account alone", func(t *testing.T) {
		store := repositories.NewMemoryStore()

		hashed, err := auth.HashPassword("original-pass")
		require.NoError(t, err)
		existing, err := store.CreateUser(ctx, &models.User{
			Username: "admin",
			Password: hashed,
			RoleType: models.RoleAdmin,
		})
		require.NoError(t, err)

		require.NoError(t, CreateDefaultData(ctx, store, seedConfig("new-pass"), zerolog.Nop()))

		admin, err := store.GetUserByUsername(ctx, "admin")
		require.NoError(t, err)
		assert.Equal(t, existing.ID, admin.ID)
		assert.True(t, auth.CheckPassword(admin.Password, "original-pass"))
	})
}
