package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/fixkit/repair-service/internal/lifecycle"
	"github.com/fixkit/repair-service/internal/repository"
	apperrors "github.com/fixkit/repair-service/pkg/util"
)

const actorKey = "auth_actor"

// Middleware validates bearer tokens and resolves the acting user.
type Middleware struct {
	tokens *TokenManager
	users  repository.UserRepository
}

// NewMiddleware constructs middleware.
func NewMiddleware(tokens *TokenManager, users repository.UserRepository) *Middleware {
	return &Middleware{tokens: tokens, users: users}
}

// Handle enforces authentication for protected routes. The role stored on the
// user row wins over the role baked into the token.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	actor := lifecycle.Actor{UserID: claims.UserID, Role: claims.Role}
	if m.users != nil {
		user, err := m.users.GetByID(c.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewUnauthorized("user not found")
			}
			return apperrors.MapError(err)
		}
		if !user.Active {
			return apperrors.NewUnauthorized("user deactivated")
		}
		actor.Role = user.Role
	}

	c.Locals(actorKey, actor)
	return c.Next()
}

// ActorFromContext retrieves the authenticated actor.
func ActorFromContext(c *fiber.Ctx) (lifecycle.Actor, bool) {
	val := c.Locals(actorKey)
	if val == nil {
		return lifecycle.Actor{}, false
	}
	actor, ok := val.(lifecycle.Actor)
	return actor, ok
}
