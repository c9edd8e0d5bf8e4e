package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"investorconnect/internal/config"
	"investorconnect/internal/core/domain"
	"investorconnect/internal/core/services"
	"investorconnect/internal/pkg/jwt"
	"investorconnect/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// IdentityService is the part of services.IdentityService the handler uses
type IdentityService interface {
	Register(ctx context.Context, input *services.RegisterInput) (*services.AuthResponse, error)
	Login(ctx context.Context, input *services.LoginInput) (*services.AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.AuthResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	GetAccount(ctx context.Context, uid string) (domain.Identity, error)
	UpdateProfile(ctx context.Context, uid, displayName string) (domain.Identity, error)
	ValidateAccessToken(accessToken string) (*jwt.Claims, error)
}

// AuthHandler handles identity endpoints
type AuthHandler struct {
	identityService IdentityService
	cfg             *config.Config
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(identityService IdentityService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		identityService: identityService,
		cfg:             cfg,
	}
}

// RegisterRequest represents registration request body
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// LoginRequest represents login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest carries a refresh token for clients without cookies
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ProfileRequest updates the display name
type ProfileRequest struct {
	DisplayName string `json:"display_name"`
}

// Register handles account creation
// @Summary Create account
// @Description Create an email/password account and sign it in
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body RegisterRequest true "Registration data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	// Validate required fields
	if strings.TrimSpace(req.Email) == "" {
		return response.BadRequest(c, "Email is required")
	}
	if req.Password == "" {
		return response.BadRequest(c, "Password is required")
	}

	result, err := h.identityService.Register(c.UserContext(), &services.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmailInUse):
			return response.Conflict(c, services.ErrEmailInUse.Error())
		case errors.Is(err, services.ErrWeakPassword),
			errors.Is(err, services.ErrInvalidEmail):
			return response.BadRequest(c, err.Error())
		default:
			return response.InternalServerError(c, "Failed to create account")
		}
	}

	h.setAuthCookies(c, result.AccessToken, result.RefreshToken)
	return response.Created(c, "Account created successfully", result)
}

// Login handles sign-in
// @Summary Sign in
// @Description Authenticate with email and password and return tokens
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Login credentials"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if strings.TrimSpace(req.Email) == "" {
		return response.BadRequest(c, "Email is required")
	}
	if req.Password == "" {
		return response.BadRequest(c, "Password is required")
	}

	result, err := h.identityService.Login(c.UserContext(), &services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			return response.Unauthorized(c, services.ErrInvalidCredentials.Error())
		case errors.Is(err, services.ErrAccountDisabled):
			return response.Forbidden(c, services.ErrAccountDisabled.Error())
		default:
			return response.InternalServerError(c, "Failed to login")
		}
	}

	h.setAuthCookies(c, result.AccessToken, result.RefreshToken)
	return response.Success(c, "Login successful", result)
}

// RefreshToken handles token refresh
// @Summary Refresh tokens
// @Description Rotate the refresh token (body or cookie) and issue a new pair
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body RefreshRequest false "Refresh token"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	refreshToken := h.refreshTokenFrom(c)
	if refreshToken == "" {
		return response.Unauthorized(c, "Refresh token not found")
	}

	result, err := h.identityService.RefreshToken(c.UserContext(), refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTokenExpired):
			h.clearAuthCookies(c)
			return response.Unauthorized(c, "Refresh token expired, please login again")
		case errors.Is(err, services.ErrTokenRevoked):
			h.clearAuthCookies(c)
			return response.Unauthorized(c, "Refresh token revoked, please login again")
		case errors.Is(err, services.ErrInvalidToken),
			errors.Is(err, services.ErrAccountNotFound):
			h.clearAuthCookies(c)
			return response.Unauthorized(c, "Invalid refresh token")
		case errors.Is(err, services.ErrAccountDisabled):
			h.clearAuthCookies(c)
			return response.Forbidden(c, services.ErrAccountDisabled.Error())
		default:
			return response.InternalServerError(c, "Failed to refresh token")
		}
	}

	h.setAuthCookies(c, result.AccessToken, result.RefreshToken)
	return response.Success(c, "Token refreshed successfully", result)
}

// Logout handles sign-out
// @Summary Sign out
// @Description Revoke the refresh token; always succeeds
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body RefreshRequest false "Refresh token"
// @Success 200 {object} response.Response
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if refreshToken := h.refreshTokenFrom(c); refreshToken != "" {
		_ = h.identityService.Logout(c.UserContext(), refreshToken)
	}

	h.clearAuthCookies(c)
	return response.Success(c, "Logged out successfully", nil)
}

// Me returns the current account
// @Summary Get current account
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	uid, ok := c.Locals("uid").(string)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	identity, err := h.identityService.GetAccount(c.UserContext(), uid)
	if err != nil {
		if errors.Is(err, services.ErrAccountNotFound) {
			return response.NotFound(c, "Account not found")
		}
		return response.InternalServerError(c, "Failed to load account")
	}

	return response.Success(c, "Account retrieved successfully", fiber.Map{
		"user": identity,
	})
}

// UpdateProfile sets the display name of the current account
// @Summary Update profile
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ProfileRequest true "Profile"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/profile [put]
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	uid, ok := c.Locals("uid").(string)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req ProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	identity, err := h.identityService.UpdateProfile(c.UserContext(), uid, req.DisplayName)
	if err != nil {
		if errors.Is(err, services.ErrAccountNotFound) {
			return response.NotFound(c, "Account not found")
		}
		return response.InternalServerError(c, "Failed to update profile")
	}

	return response.Success(c, "Profile updated successfully", fiber.Map{
		"user": identity,
	})
}

// refreshTokenFrom reads the token from the JSON body, falling back to the cookie
func (h *AuthHandler) refreshTokenFrom(c *fiber.Ctx) string {
	var req RefreshRequest
	if len(c.Body()) > 0 {
		_ = c.BodyParser(&req)
	}
	if req.RefreshToken != "" {
		return req.RefreshToken
	}
	return c.Cookies("refresh_token")
}

// setAuthCookies sets access and refresh token cookies
func (h *AuthHandler) setAuthCookies(c *fiber.Ctx, accessToken, refreshToken string) {
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Path:     "/",
		MaxAge:   h.cfg.JWT.AccessTokenMins * 60,
		Secure:   h.cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	})

	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		Path:     "/",
		MaxAge:   h.cfg.JWT.RefreshTokenDays * 24 * 60 * 60,
		Secure:   h.cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	})
}

// clearAuthCookies clears auth cookies
func (h *AuthHandler) clearAuthCookies(c *fiber.Ctx) {
	for _, name := range []string{"access_token", "refresh_token"} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			Expires:  time.Now().Add(-1 * time.Hour),
			Secure:   h.cfg.Cookie.Secure,
			HTTPOnly: true,
			SameSite: h.cfg.Cookie.SameSite,
			Domain:   h.cfg.Cookie.Domain,
		})
	}
}
