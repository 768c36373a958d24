package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestConstructors(t *testing.T) {
	t.Run("Validation", func(t *testing.T) {
		err := Validation("age must be positive", "age")
		assert.Equal(t, ErrorTypeValidation, err.Type)
		assert.Equal(t, http.StatusBadRequest, err.StatusCode)
		assert.Equal(t, "age", err.Details["field"])
	})

	t.Run("NotFound", func(t *testing.T) {
		err := NotFound("Cattle", "abc")
		assert.Equal(t, http.StatusNotFound, err.StatusCode)
		assert.Equal(t, "Cattle not found", err.Message)
		assert.Equal(t, "abc", err.Details["id"])
	})

	t.Run("Conflict", func(t *testing.T) {
		err := Conflict("already pending", "transfer_request")
		assert.Equal(t, http.StatusConflict, err.StatusCode)
		assert.Equal(t, "transfer_request", err.Details["resource"])
	})

	t.Run("Authorization", func(t *testing.T) {
		err := Authorization("insufficient role")
		assert.Equal(t, http.StatusForbidden, err.StatusCode)
	})
}

func TestUnwrapChain(t *testing.T) {
	cause := errors.New("disk full")
	err := Infrastructure("write failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk full")

	var appErr *AppError
	require.True(t, errors.As(fmt.Errorf("outer: %w", err), &appErr))
	assert.Equal(t, ErrorTypeInfrastructure, appErr.Type)
}

func TestIsType(t *testing.T) {
	err := NotFound("Cattle", "x")
	assert.True(t, IsType(err, ErrorTypeNotFound))
	assert.False(t, IsType(err, ErrorTypeConflict))
	assert.False(t, IsType(errors.New("plain"), ErrorTypeNotFound))

	wrapped := fmt.Errorf("wrapped: %w", err)
	assert.True(t, IsType(wrapped, ErrorTypeNotFound))
}

func TestWrapDB(t *testing.T) {
	assert.NoError(t, WrapDB("noop", nil))

	assert.True(t, IsType(WrapDB("load", gorm.ErrRecordNotFound), ErrorTypeNotFound))
	assert.True(t, IsType(WrapDB("create", errors.New("UNIQUE constraint failed: transfer_requests.cattle_id")), ErrorTypeConflict))
	assert.True(t, IsType(WrapDB("create", errors.New("duplicate key value violates unique constraint")), ErrorTypeConflict))
	assert.True(t, IsType(WrapDB("ping", errors.New("connection reset")), ErrorTypeInfrastructure))
}
