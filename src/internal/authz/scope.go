package authz

import (
	"strings"

	"github.com/geekskaran/Cattel-Backend/src/internal/apperrors"
	"github.com/geekskaran/Cattel-Backend/src/internal/database/models"
)

// RequireRole checks that the actor is an active, approved account holding
// one of the given roles.
func RequireRole(actor *models.User, roles ...models.Role) error {
	if actor == nil || !actor.IsActive {
		return apperrors.Authorization("account is not active")
	}
	if actor.Role.IsAdmin() && !actor.IsApproved {
		return apperrors.Authorization("administrator account is not approved")
	}
	for _, r := range roles {
		if actor.Role == r {
			return nil
		}
	}
	return apperrors.Authorization("insufficient role for this action")
}

// CanAccessRegion reports whether the actor may act on a record located in
// resourceRegion. Super admins are unscoped; region-tier admins are limited
// to their assigned region. Callers surface a false result as not-found so
// out-of-region records stay invisible.
func CanAccessRegion(actor *models.User, resourceRegion string) bool {
	if actor == nil || !actor.IsActive {
		return false
	}
	if actor.Role == models.RoleSuperAdmin {
		return true
	}
	if !actor.Role.IsAdmin() || !actor.IsApproved {
		return false
	}
	return strings.EqualFold(actor.Region, resourceRegion)
}
