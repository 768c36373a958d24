package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/geekskaran/Cattel-Backend/src/internal/apperrors"
	"github.com/geekskaran/Cattel-Backend/src/internal/auth"
	"github.com/geekskaran/Cattel-Backend/src/internal/identity"
)

// AuthHandler handles login
type AuthHandler struct {
	auth     *auth.Service
	identity *identity.Store
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.Service, store *identity.Store) *AuthHandler {
	return &AuthHandler{
		auth:     authService,
		identity: store,
	}
}

// LoginRequest is the login payload
type LoginRequest struct {
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued token
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	UserID      string    `json:"user_id"`
	Role        string    `json:"role"`
}

// Login authenticates a phone/password pair and issues a token
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("invalid request body", "")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.identity.FindAccountByPhone(c.Request().Context(), req.Phone)
	if err != nil {
		return apperrors.Unauthorized("invalid credentials")
	}
	if err := auth.CheckPassword(req.Password, user.PasswordHash); err != nil {
		return apperrors.Unauthorized("invalid credentials")
	}

	token, expiresAt, err := h.auth.IssueToken(user)
	if err != nil {
		return apperrors.Unauthorized("account is not active")
	}

	return c.JSON(http.StatusOK, LoginResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		UserID:      user.ID.String(),
		Role:        string(user.Role),
	})
}
