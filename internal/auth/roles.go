package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fixkit/repair-service/internal/domain"
	apperrors "github.com/fixkit/repair-service/pkg/util"
)

// RequireRole ensures the actor holds one of the allowed roles. With no
// arguments it only requires authentication.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[actor.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireStaff admits IT and admin actors.
func RequireStaff() fiber.Handler {
	return RequireRole(domain.RoleIT, domain.RoleAdmin)
}
