package apperrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"
)

// ErrorHandler maps application errors to stable HTTP responses
type ErrorHandler struct {
	logger     *slog.Logger
	production bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger, production bool) *ErrorHandler {
	return &ErrorHandler{
		logger:     logger,
		production: production,
	}
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error      string                 `json:"error"`
	Code       string                 `json:"code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
	RequestID  string                 `json:"request_id,omitempty"`
	Path       string                 `json:"path,omitempty"`
	StatusCode int                    `json:"status_code"`
}

// HTTPErrorHandler handles HTTP errors for Echo
func (h *ErrorHandler) HTTPErrorHandler(err error, c echo.Context) {
	var (
		code    = http.StatusInternalServerError
		message = "Internal server error"
		details = make(map[string]interface{})
		errCode = "INTERNAL_ERROR"
	)

	requestID := c.Response().Header().Get(echo.HeaderXRequestID)
	if requestID == "" {
		requestID = c.Request().Header.Get("X-Request-ID")
	}
	path := c.Request().URL.Path

	var appErr *AppError
	var httpErr *echo.HTTPError
	var jsonErr *json.SyntaxError

	switch {
	case errors.As(err, &appErr):
		code = appErr.StatusCode
		message = appErr.Message
		errCode = appErr.Code
		details = appErr.Details

		h.logger.Warn("request failed",
			"type", string(appErr.Type),
			"code", errCode,
			"path", path,
			"method", c.Request().Method,
			"request_id", requestID,
			"error", appErr.Error(),
		)

	case errors.As(err, &httpErr):
		code = httpErr.Code
		message = fmt.Sprintf("%v", httpErr.Message)
		switch code {
		case http.StatusNotFound:
			errCode = "NOT_FOUND"
			message = "Resource not found"
		case http.StatusMethodNotAllowed:
			errCode = "METHOD_NOT_ALLOWED"
		case http.StatusBadRequest:
			errCode = "BAD_REQUEST"
		case http.StatusUnauthorized:
			errCode = "UNAUTHORIZED"
			message = "Authentication required"
		case http.StatusForbidden:
			errCode = "FORBIDDEN"
			message = "Access denied"
		}

	case errors.As(err, &jsonErr):
		code = http.StatusBadRequest
		message = "Invalid JSON format"
		errCode = "INVALID_JSON"
		details["offset"] = jsonErr.Offset

	case errors.Is(err, gorm.ErrRecordNotFound):
		code = http.StatusNotFound
		message = "Resource not found"
		errCode = "NOT_FOUND"

	default:
		h.logger.Error("unexpected error",
			"path", path,
			"method", c.Request().Method,
			"request_id", requestID,
			"error", err.Error(),
		)
		if strings.Contains(err.Error(), "connection refused") {
			code = http.StatusBadGateway
			message = "Service temporarily unavailable"
			errCode = "SERVICE_UNAVAILABLE"
		}
	}

	// Don't expose internal errors in production
	if h.production && code == http.StatusInternalServerError {
		message = "Internal server error"
		details = map[string]interface{}{"error_id": requestID}
	}

	response := ErrorResponse{
		Error:      message,
		Code:       errCode,
		Details:    details,
		Timestamp:  time.Now().UTC(),
		RequestID:  requestID,
		Path:       path,
		StatusCode: code,
	}

	if !c.Response().Committed {
		var sendErr error
		if c.Request().Method == http.MethodHead {
			sendErr = c.NoContent(code)
		} else {
			sendErr = c.JSON(code, response)
		}
		if sendErr != nil {
			h.logger.Error("failed to send error response", "error", sendErr)
		}
	}
}

// RecoverMiddleware provides panic recovery
func (h *ErrorHandler) RecoverMiddleware() echo.MiddlewareFunc {
	return middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			h.logger.Error("panic recovered",
				"error", err.Error(),
				"path", c.Request().URL.Path,
				"method", c.Request().Method,
				"stack", string(stack),
			)
			return err
		},
	})
}

// WrapDB translates common database failures into the domain taxonomy
func WrapDB(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound("Resource", "")
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key") ||
		strings.Contains(err.Error(), "Duplicate entry") {
		return Conflict("Resource already exists", operation)
	}
	return Infrastructure(fmt.Sprintf("database operation failed: %s", operation), err)
}
