package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lexdesk/case-service/internal/domain"
	apperrors "github.com/lexdesk/case-service/pkg/util/errorutil"
)

// RequireStudent admits only authenticated students.
func RequireStudent() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.Student == nil {
			return apperrors.NewForbidden("student account required")
		}
		return c.Next()
	}
}

// RequireStaffRole admits staff members holding one of roles. With no roles
// every staff member is admitted.
func RequireStaffRole(roles ...domain.StaffRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.Staff == nil {
			return apperrors.NewForbidden("staff account required")
		}
		if len(roles) == 0 || hasRole(principal.Staff.Role, roles) {
			return c.Next()
		}
		return apperrors.NewDomainError(apperrors.CodeForbidden, "insufficient role", fiber.StatusForbidden,
			map[string]any{"required": roles, "role": principal.Staff.Role})
	}
}

func hasRole(role domain.StaffRole, allowed []domain.StaffRole) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}
