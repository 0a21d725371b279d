// Package credits decides how many question generations a user may still run.
package credits

import (
	"math"

	"github.com/inedit/inedit-service/internal/models"
)

// Unlimited is the limit and remaining count reported for roles that are never blocked.
const Unlimited = math.MaxInt32

// RoleLimit returns the default generation allowance for a role
func RoleLimit(role models.UserRole) int {
	switch role.Normalize() {
	case models.RoleAdmin:
		return Unlimited
	case models.RolePro:
		return 10
	case models.RoleFree:
		return 2
	}
	return 2
}

// EffectiveLimit applies a granted override. The override replaces the role
// default; admins stay unlimited.
func EffectiveLimit(role models.UserRole, granted *int) int {
	if IsAdmin(role) {
		return Unlimited
	}
	if granted != nil {
		return max(0, *granted)
	}
	return RoleLimit(role)
}

// RemainingCredits computes max(0, limit - used)
func RemainingCredits(role models.UserRole, used int, granted *int) int {
	limit := EffectiveLimit(role, granted)
	if limit == Unlimited {
		return Unlimited
	}
	return max(0, limit-max(0, used))
}

func HasCredits(role models.UserRole, used int, granted *int) bool {
	return RemainingCredits(role, used, granted) > 0
}

func IsProOrAbove(role models.UserRole) bool {
	switch role.Normalize() {
	case models.RolePro, models.RoleAdmin:
		return true
	case models.RoleFree:
		return false
	}
	return false
}

func IsAdmin(role models.UserRole) bool {
	return role.Normalize() == models.RoleAdmin
}
