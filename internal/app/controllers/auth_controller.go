package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/oguzk/studentdesk/internal/app/models/dto"
	"github.com/oguzk/studentdesk/internal/app/services"
	"github.com/oguzk/studentdesk/internal/middleware"
)

// AuthController handles authentication related operations
type AuthController struct {
	authService  *services.AuthService
	cookieMaxAge int
	cookieSecure bool
	logger       zerolog.Logger
}

// NewAuthController creates a new AuthController
func NewAuthController(authService *services.AuthService, cookieMaxAge int, cookieSecure bool, logger zerolog.Logger) *AuthController {
	return &AuthController{
		authService:  authService,
		cookieMaxAge: cookieMaxAge,
		cookieSecure: cookieSecure,
		logger:       logger,
	}
}

// Register handles user registration
// @Summary Register a new user
// @Description Creates a new account. The role defaults to STUDENT when omitted.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Registration information"
// @Success 201 {object} dto.UserResponse
// @Failure 400 {object} dto.ErrorResponse "Validation failed"
// @Failure 409 {object} dto.ErrorResponse "Username already exists"
// @Router /auth/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req dto.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid registration payload")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	user, err := c.authService.Register(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewUserResponse(user))
}

// Login handles user authentication
// @Summary Log in
// @Description Verifies the credentials and returns an access token. The token is also set as an HTTP-only session cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.AuthResponse
// @Failure 401 {object} dto.ErrorResponse "Invalid credentials"
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid login payload")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	token, user, err := c.authService.Login(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.SetCookie(middleware.SessionCookieName, token.AccessToken, c.cookieMaxAge, "/", "", c.cookieSecure, true)
	ctx.JSON(http.StatusOK, dto.AuthResponse{
		Token: *token,
		User:  dto.NewUserResponse(user),
	})
}

// Logout ends the browser session
// @Summary Log out
// @Description Clears the session cookie. Bearer clients simply discard the token.
// @Tags auth
// @Produce json
// @Success 200 {object} dto.SuccessResponse
// @Security BearerAuth
// @Router /auth/logout [post]
func (c *AuthController) Logout(ctx *gin.Context) {
	ctx.SetCookie(middleware.SessionCookieName, "", -1, "/", "", c.cookieSecure, true)
	ctx.JSON(http.StatusOK, dto.SuccessResponse{Message: "logged out"})
}

// Me returns the authenticated user's profile
// @Summary Current user profile
// @Tags auth
// @Produce json
// @Success 200 {object} dto.UserResponse
// @Failure 401 {object} dto.ErrorResponse "Authentication required"
// @Security BearerAuth
// @Router /auth/me [get]
func (c *AuthController) Me(ctx *gin.Context) {
	userID := ctx.GetInt64("userID")

	user, err := c.authService.Profile(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewUserResponse(user))
}
