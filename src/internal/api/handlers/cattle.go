package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/geekskaran/Cattel-Backend/src/internal/apperrors"
	"github.com/geekskaran/Cattel-Backend/src/internal/auth"
	"github.com/geekskaran/Cattel-Backend/src/internal/database/models"
	"github.com/geekskaran/Cattel-Backend/src/internal/photos"
	"github.com/geekskaran/Cattel-Backend/src/internal/registry"
)

// CattleHandler handles cattle registration and verification endpoints
type CattleHandler struct {
	registry *registry.Service
}

// NewCattleHandler creates a new cattle handler
func NewCattleHandler(registryService *registry.Service) *CattleHandler {
	return &CattleHandler{registry: registryService}
}

// RegisterCattleRequest is the registration payload. Photo metadata arrives
// already validated from the upload layer, keyed by category.
type RegisterCattleRequest struct {
	TagNumber      string                                       `json:"tag_number"`
	Breed          string                                       `json:"breed" validate:"required"`
	Age            int                                          `json:"age" validate:"gte=0"`
	Color          string                                       `json:"color"`
	Type           string                                       `json:"type"`
	MedicalHistory string                                       `json:"medical_history"`
	Photos         map[models.PhotoCategory][]photos.FileMeta   `json:"photos"`
}

// ReasonRequest carries a mandatory reason for deny/reject actions
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// Register creates a cattle record awaiting regional review
func (h *CattleHandler) Register(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}

	var req RegisterCattleRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("invalid request body", "")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	cattle, err := h.registry.Register(c.Request().Context(), user.ID, registry.RegisterInput{
		TagNumber:      req.TagNumber,
		Breed:          req.Breed,
		Age:            req.Age,
		Color:          req.Color,
		Type:           req.Type,
		MedicalHistory: req.MedicalHistory,
		Photos:         photos.Set(req.Photos),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, cattle)
}

// Get returns one record visible to the caller
func (h *CattleHandler) Get(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	cattle, err := h.registry.GetScoped(c.Request().Context(), id, user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cattle)
}

// ListMine returns the caller's own records
func (h *CattleHandler) ListMine(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}

	includeArchived := c.QueryParam("include_archived") == "true"
	records, err := h.registry.ListByOwner(c.Request().Context(), user.ID, includeArchived)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, records)
}

// Forward moves a record to the identification tier
func (h *CattleHandler) Forward(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	cattle, err := h.registry.ForwardToMAdmin(c.Request().Context(), id, user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cattle)
}

// Deny terminally denies a record at regional review
func (h *CattleHandler) Deny(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req ReasonRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("invalid request body", "")
	}

	cattle, err := h.registry.DenyByRegionalAdmin(c.Request().Context(), id, user.ID, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cattle)
}

// Approve finalizes identification
func (h *CattleHandler) Approve(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	cattle, err := h.registry.Approve(c.Request().Context(), id, user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cattle)
}

// Reject terminally rejects a record at the identification tier
func (h *CattleHandler) Reject(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req ReasonRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("invalid request body", "")
	}

	cattle, err := h.registry.Reject(c.Request().Context(), id, user.ID, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cattle)
}

// Archive soft-deletes the caller's record
func (h *CattleHandler) Archive(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	cattle, err := h.registry.Archive(c.Request().Context(), id, user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cattle)
}

// Restore brings an archived record back
func (h *CattleHandler) Restore(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	cattle, err := h.registry.Restore(c.Request().Context(), id, user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cattle)
}

// Delete hard-deletes the caller's record
func (h *CattleHandler) Delete(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.registry.Delete(c.Request().Context(), id, user.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ReviewQueue lists records in a verification status for admins
func (h *CattleHandler) ReviewQueue(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}

	status := models.VerificationStatus(c.QueryParam("status"))
	if status == "" {
		status = models.VerificationPendingRegionalReview
	}

	records, err := h.registry.ListForReview(c.Request().Context(), user.ID, status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, records)
}

// Overdue lists records past their review deadline
func (h *CattleHandler) Overdue(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}

	records, err := h.registry.ListOverdue(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, records)
}
