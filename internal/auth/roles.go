package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/hostel-service/internal/domain"
	apperrors "github.com/spec-kit/hostel-service/pkg/util/errorutil"
)

// RequireRole ensures the authenticated user has one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := UserFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized(apperrors.CodeMissingCredential, "authentication required")
		}
		if err := AuthorizeRole(user, allowed...); err != nil {
			return err
		}
		return c.Next()
	}
}

// RequireElevated admits staff and admins.
func RequireElevated() fiber.Handler {
	return RequireRole(domain.RoleStaff, domain.RoleAdmin)
}

// RequireAdmin admits admins only.
func RequireAdmin() fiber.Handler {
	return RequireRole(domain.RoleAdmin)
}
