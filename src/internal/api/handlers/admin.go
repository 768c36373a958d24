package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/geekskaran/Cattel-Backend/src/internal/apperrors"
	"github.com/geekskaran/Cattel-Backend/src/internal/auth"
	"github.com/geekskaran/Cattel-Backend/src/internal/database/models"
	"github.com/geekskaran/Cattel-Backend/src/internal/identify"
	"github.com/geekskaran/Cattel-Backend/src/internal/transfer"
)

// AdminHandler exposes maintenance entry points for the external scheduler
type AdminHandler struct {
	identify *identify.Service
	transfer *transfer.Service
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(identifyService *identify.Service, transferService *transfer.Service) *AdminHandler {
	return &AdminHandler{
		identify: identifyService,
		transfer: transferService,
	}
}

// Sweep runs both expiry sweeps once. The service never self-schedules;
// an external cron hits this endpoint or the sweep CLI command.
func (h *AdminHandler) Sweep(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	if user.Role != models.RoleSuperAdmin {
		return apperrors.Authorization("insufficient role for this action")
	}

	ctx := c.Request().Context()
	expiredRequests, err := h.identify.ExpireStale(ctx)
	if err != nil {
		return err
	}
	expiredTransfers, err := h.transfer.ExpireStale(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]int64{
		"expired_identification_requests": expiredRequests,
		"expired_transfer_requests":       expiredTransfers,
	})
}
