package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/geekskaran/Cattel-Backend/src/internal/apperrors"
	"github.com/geekskaran/Cattel-Backend/src/internal/auth"
	"github.com/geekskaran/Cattel-Backend/src/internal/database/models"
	"github.com/geekskaran/Cattel-Backend/src/internal/identify"
	"github.com/geekskaran/Cattel-Backend/src/internal/photos"
)

// IdentificationHandler handles lookup request endpoints
type IdentificationHandler struct {
	identify *identify.Service
}

// NewIdentificationHandler creates a new identification handler
func NewIdentificationHandler(identifyService *identify.Service) *IdentificationHandler {
	return &IdentificationHandler{identify: identifyService}
}

// CreateIdentificationRequest is the submission payload
type CreateIdentificationRequest struct {
	Photo             photos.FileMeta `json:"photo" validate:"required"`
	Latitude          *float64        `json:"latitude"`
	Longitude         *float64        `json:"longitude"`
	Address           string          `json:"address"`
	DeviceFingerprint string          `json:"device_fingerprint"`
	Priority          string          `json:"priority"`
}

// CompleteIdentificationRequest is the staff resolution payload
type CompleteIdentificationRequest struct {
	Found      bool     `json:"found"`
	CattleID   *string  `json:"cattle_id"`
	Confidence *float64 `json:"confidence"`
	Message    string   `json:"message"`
}

// MessageRequest carries a free-text message
type MessageRequest struct {
	Message string `json:"message"`
}

// Create submits a new lookup request
func (h *IdentificationHandler) Create(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}

	var req CreateIdentificationRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("invalid request body", "")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	request, err := h.identify.Create(c.Request().Context(), user.ID, identify.CreateInput{
		Photo:             req.Photo,
		Latitude:          req.Latitude,
		Longitude:         req.Longitude,
		Address:           req.Address,
		DeviceFingerprint: req.DeviceFingerprint,
		Priority:          models.IdentificationPriority(req.Priority),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, request)
}

// Get returns one request
func (h *IdentificationHandler) Get(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	request, err := h.identify.GetScoped(c.Request().Context(), id, user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, request)
}

// ListMine returns the caller's own requests
func (h *IdentificationHandler) ListMine(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}

	requests, err := h.identify.ListForRequester(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, requests)
}

// Start claims a pending request
func (h *IdentificationHandler) Start(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	request, err := h.identify.StartProcessing(c.Request().Context(), id, user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, request)
}

// Complete records the resolution of a request
func (h *IdentificationHandler) Complete(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req CompleteIdentificationRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("invalid request body", "")
	}

	result := identify.Result{
		Found:      req.Found,
		Confidence: req.Confidence,
		Message:    req.Message,
	}
	if req.CattleID != nil {
		cattleID, err := uuid.Parse(*req.CattleID)
		if err != nil {
			return apperrors.Validation("invalid cattle id", "cattle_id")
		}
		result.CattleID = &cattleID
	}

	request, err := h.identify.CompleteWithResult(c.Request().Context(), id, user.ID, result)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, request)
}

// Fail marks a request as failed
func (h *IdentificationHandler) Fail(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req MessageRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("invalid request body", "")
	}

	request, err := h.identify.MarkFailed(c.Request().Context(), id, user.ID, req.Message)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, request)
}

// Cancel withdraws the caller's request
func (h *IdentificationHandler) Cancel(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req MessageRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("invalid request body", "")
	}

	request, err := h.identify.Cancel(c.Request().Context(), id, user.ID, req.Message)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, request)
}

// Queue lists requests in a status for admins
func (h *IdentificationHandler) Queue(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}

	status := models.IdentificationStatus(c.QueryParam("status"))
	if status == "" {
		status = models.IdentificationPending
	}

	requests, err := h.identify.ListQueue(c.Request().Context(), user.ID, status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, requests)
}

// Stats returns tracker statistics
func (h *IdentificationHandler) Stats(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	if !user.Role.IsAdmin() {
		return apperrors.Authorization("insufficient role for this action")
	}

	stats, err := h.identify.GetStats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}
