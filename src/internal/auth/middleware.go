package auth

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/geekskaran/Cattel-Backend/src/internal/apperrors"
	"github.com/geekskaran/Cattel-Backend/src/internal/database/models"
	"github.com/geekskaran/Cattel-Backend/src/internal/identity"
)

// ContextKeyUser is the Echo context key the middleware stores the account under
const ContextKeyUser = "current_user"

// Middleware resolves bearer tokens to accounts
type Middleware struct {
	auth     *Service
	identity identity.Source
	skipper  func(c echo.Context) bool
}

// NewMiddleware creates a new authentication middleware
func NewMiddleware(auth *Service, ids identity.Source) *Middleware {
	return &Middleware{
		auth:     auth,
		identity: ids,
		skipper:  DefaultSkipper,
	}
}

// DefaultSkipper returns true for paths that don't require authentication
func DefaultSkipper(c echo.Context) bool {
	path := c.Path()
	publicPaths := []string{
		"/",
		"/health",
		"/api/v1/auth/login",
	}
	for _, p := range publicPaths {
		if p == path {
			return true
		}
	}
	return false
}

// Auth returns the authentication middleware handler
func (m *Middleware) Auth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m.skipper != nil && m.skipper(c) {
				return next(c)
			}

			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return apperrors.Unauthorized("missing authentication")
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return apperrors.Unauthorized("invalid authentication format")
			}

			claims, err := m.auth.ParseToken(parts[1])
			if err != nil {
				return apperrors.Unauthorized("invalid or expired token")
			}

			user, err := m.identity.FindAccountByID(c.Request().Context(), claims.UserID)
			if err != nil {
				return apperrors.Unauthorized("account no longer exists")
			}
			if !user.IsActive {
				return apperrors.Unauthorized("account is not active")
			}

			c.Set(ContextKeyUser, user)
			return next(c)
		}
	}
}

// CurrentUser extracts the authenticated account from the Echo context
func CurrentUser(c echo.Context) (*models.User, error) {
	user, ok := c.Get(ContextKeyUser).(*models.User)
	if !ok || user == nil {
		return nil, apperrors.Unauthorized("not authenticated")
	}
	return user, nil
}
