package handlers

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/geekskaran/Cattel-Backend/src/internal/apperrors"
)

// pathID parses a UUID path parameter
func pathID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperrors.Validation("invalid id", name)
	}
	return id, nil
}
