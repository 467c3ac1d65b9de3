package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/ticket-sla-service/pkg/util/errorutil"
)

// RequireStaff ensures a staff principal is authenticated.
func RequireStaff() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("staff token required")
		}
		if !principal.IsStaff {
			return apperrors.NewForbidden("staff role required")
		}
		return c.Next()
	}
}
