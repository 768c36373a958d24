package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/geekskaran/Cattel-Backend/src/internal/apperrors"
	"github.com/geekskaran/Cattel-Backend/src/internal/database/models"
)

func account(role models.Role, region string) *models.User {
	return &models.User{
		Role:       role,
		Region:     region,
		IsActive:   true,
		IsApproved: true,
	}
}

func TestRequireRole(t *testing.T) {
	t.Run("MatchingRolePasses", func(t *testing.T) {
		actor := account(models.RoleRegionalAdmin, "Texas")
		assert.NoError(t, RequireRole(actor, models.RoleRegionalAdmin, models.RoleSuperAdmin))
	})

	t.Run("WrongRoleFails", func(t *testing.T) {
		actor := account(models.RoleFarmer, "")
		err := RequireRole(actor, models.RoleMAdmin)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeAuthorization))
	})

	t.Run("InactiveAccountFails", func(t *testing.T) {
		actor := account(models.RoleSuperAdmin, "")
		actor.IsActive = false
		err := RequireRole(actor, models.RoleSuperAdmin)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeAuthorization))
	})

	t.Run("UnapprovedAdminFails", func(t *testing.T) {
		actor := account(models.RoleRegionalAdmin, "Texas")
		actor.IsApproved = false
		err := RequireRole(actor, models.RoleRegionalAdmin)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeAuthorization))
	})

	t.Run("NilActorFails", func(t *testing.T) {
		err := RequireRole(nil, models.RoleSuperAdmin)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeAuthorization))
	})
}

func TestCanAccessRegion(t *testing.T) {
	t.Run("SuperAdminUnscoped", func(t *testing.T) {
		actor := account(models.RoleSuperAdmin, "")
		assert.True(t, CanAccessRegion(actor, "Texas"))
		assert.True(t, CanAccessRegion(actor, "Ohio"))
	})

	t.Run("RegionalAdminLimitedToRegion", func(t *testing.T) {
		actor := account(models.RoleRegionalAdmin, "Texas")
		assert.True(t, CanAccessRegion(actor, "Texas"))
		assert.False(t, CanAccessRegion(actor, "Ohio"))
	})

	t.Run("RegionMatchIgnoresCase", func(t *testing.T) {
		actor := account(models.RoleMAdmin, "Texas")
		assert.True(t, CanAccessRegion(actor, "texas"))
	})

	t.Run("FarmerHasNoRegionalScope", func(t *testing.T) {
		actor := account(models.RoleFarmer, "Texas")
		assert.False(t, CanAccessRegion(actor, "Texas"))
	})

	t.Run("UnapprovedAdminDenied", func(t *testing.T) {
		actor := account(models.RoleMAdmin, "Texas")
		actor.IsApproved = false
		assert.False(t, CanAccessRegion(actor, "Texas"))
	})

	t.Run("InactiveOrNilDenied", func(t *testing.T) {
		actor := account(models.RoleSuperAdmin, "")
		actor.IsActive = false
		assert.False(t, CanAccessRegion(actor, "Texas"))
		assert.False(t, CanAccessRegion(nil, "Texas"))
	})
}
