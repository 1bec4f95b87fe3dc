package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/oguzk/studentdesk/internal/app/models"
	"github.com/oguzk/studentdesk/internal/app/models/dto"
	"github.com/oguzk/studentdesk/internal/app/repositories"
	"github.com/oguzk/studentdesk/internal/pkg/apperrors"
	"github.com/oguzk/studentdesk/internal/pkg/auth"
	"github.com/oguzk/studentdesk/internal/pkg/validation"
)

// AuthService handles authentication operations
type AuthService struct {
	store      repositories.Store
	jwtService *auth.JWTService
	logger     zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(store repositories.Store, jwtService *auth.JWTService, logger zerolog.Logger) *AuthService {
	return &AuthService{
		store:      store,
		jwtService: jwtService,
		logger:     logger,
	}
}

// validateRegistration checks the registration payload beyond what
// request binding already enforced
func (s *AuthService) validateRegistration(req *dto.RegisterRequest) error {
	username := strings.TrimSpace(req.Username)

	if !validation.NewStringValidation(username).
		WithMinLength(validation.UsernameMinLength).
		WithMaxLength(64).
		Validate() {
		return apperrors.NewValidationError("username must be at least 3 characters", map[string]interface{}{
			"username": "too short",
		})
	}

	if len(req.Password) < validation.PasswordMinLength {
		return apperrors.NewValidationError("password must be at least 6 characters", map[string]interface{}{
			"password": "too short",
		})
	}

	if req.Password != req.ConfirmPassword {
		return apperrors.NewValidationError("password confirmation does not match", map[string]interface{}{
			"confirmPassword": "mismatch",
		})
	}

	if req.RoleType != "" && !req.RoleType.Valid() {
		return apperrors.NewValidationError("unknown role", map[string]interface{}{
			"roleType": "must be ADMIN or STUDENT",
		})
	}

	return nil
}

// Register creates a new user account. The role defaults to STUDENT
// when the request does not name one.
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*models.User, error) {
	if err := s.validateRegistration(req); err != nil {
		return nil, err
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		return nil, err
	}

	role := req.RoleType
	if role == "" {
		role = models.RoleStudent
	}

	user, err := s.store.CreateUser(ctx, &models.User{
		Username: strings.TrimSpace(req.Username),
		Password: hashed,
		RoleType: role,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("userId", user.ID).Str("role", string(user.RoleType)).Msg("User registered")
	return user, nil
}

// Login verifies the credentials and issues an access token. Unknown
// usernames and wrong passwords are rejected identically, and a dummy
// hash comparison keeps the two paths near the same duration.
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, *models.User, error) {
	user, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		auth.DummyCompare(req.Password)
		return nil, nil, apperrors.ErrInvalidCredentials
	}

	if !auth.CheckPassword(user.Password, req.Password) {
		return nil, nil, apperrors.ErrInvalidCredentials
	}

	now := time.Now()
	if err := s.store.UpdateUserLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn().Err(err).Int64("userId", user.ID).Msg("Failed to update last login")
	} else {
		user.LastLoginAt = &now
	}

	token, expiresIn, err := s.jwtService.GenerateToken(user)
	if err != nil {
		s.logger.Error().Err(err).Int64("userId", user.ID).Msg("Failed to generate token")
		return nil, nil, err
	}

	s.logger.Info().Int64("userId", user.ID).Msg("User logged in")
	return &dto.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(expiresIn),
	}, user, nil
}

// Profile returns the account behind the given user id
func (s *AuthService) Profile(ctx context.Context, userID int64) (*models.User, error) {
	return s.store.GetUserByID(ctx, userID)
}
