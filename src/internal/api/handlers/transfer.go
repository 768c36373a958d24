package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/geekskaran/Cattel-Backend/src/internal/apperrors"
	"github.com/geekskaran/Cattel-Backend/src/internal/auth"
	"github.com/geekskaran/Cattel-Backend/src/internal/database/models"
	"github.com/geekskaran/Cattel-Backend/src/internal/transfer"
)

// TransferHandler handles ownership transfer endpoints
type TransferHandler struct {
	transfer *transfer.Service
}

// NewTransferHandler creates a new transfer handler
func NewTransferHandler(transferService *transfer.Service) *TransferHandler {
	return &TransferHandler{transfer: transferService}
}

// InitiateTransferRequest is the creation payload
type InitiateTransferRequest struct {
	CattleID  string   `json:"cattle_id" validate:"required"`
	ToOwnerID string   `json:"to_owner_id" validate:"required"`
	Type      string   `json:"type"`
	Price     *float64 `json:"price"`
	Notes     string   `json:"notes"`
}

// Initiate creates a pending transfer
func (h *TransferHandler) Initiate(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}

	var req InitiateTransferRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("invalid request body", "")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	cattleID, err := uuid.Parse(req.CattleID)
	if err != nil {
		return apperrors.Validation("invalid cattle id", "cattle_id")
	}
	toOwnerID, err := uuid.Parse(req.ToOwnerID)
	if err != nil {
		return apperrors.Validation("invalid receiver id", "to_owner_id")
	}

	request, err := h.transfer.Initiate(c.Request().Context(), user.ID, transfer.InitiateInput{
		CattleID:  cattleID,
		ToOwnerID: toOwnerID,
		Type:      models.TransferType(req.Type),
		Price:     req.Price,
		Notes:     req.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, request)
}

// List returns the caller's sent and received transfers
func (h *TransferHandler) List(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}

	status := models.TransferStatus(c.QueryParam("status"))
	requests, err := h.transfer.ListForUser(c.Request().Context(), user.ID, status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, requests)
}

// Accept settles a pending transfer for the receiver
func (h *TransferHandler) Accept(c echo.Context) error {
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

	request, err := h.transfer.Accept(c.Request().Context(), id, user.ID, req.Message)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, request)
}

// Reject declines a pending transfer for the receiver
func (h *TransferHandler) Reject(c echo.Context) error {
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

	request, err := h.transfer.Reject(c.Request().Context(), id, user.ID, req.Message)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, request)
}

// Cancel withdraws a pending transfer for the sender
func (h *TransferHandler) Cancel(c echo.Context) error {
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

	request, err := h.transfer.Cancel(c.Request().Context(), id, user.ID, req.Message)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, request)
}

// History returns the handoff history of one animal
func (h *TransferHandler) History(c echo.Context) error {
	if _, err := auth.CurrentUser(c); err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	history, err := h.transfer.HistoryForCattle(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, history)
}
