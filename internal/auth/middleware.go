package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/pkg/util"
)

const (
	userKey  = "auth_user"
	tokenKey = "auth_token"
)

// Middleware enforces bearer authentication and stores the resolved user in locals.
func (r *Resolver) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, err := BearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return err
		}

		user, token, err := r.Resolve(c.UserContext(), raw)
		if err != nil {
			return err
		}

		c.Locals(userKey, user)
		c.Locals(tokenKey, token)
		return c.Next()
	}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", util.NewUnauthenticated("missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", util.NewUnauthenticated("invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}

// UserFromContext returns the authenticated user.
func UserFromContext(c *fiber.Ctx) (*domain.User, bool) {
	user, ok := c.Locals(userKey).(*domain.User)
	return user, ok && user != nil
}

// TokenFromContext returns the validated token of the current request.
func TokenFromContext(c *fiber.Ctx) (*domain.Token, bool) {
	token, ok := c.Locals(tokenKey).(*domain.Token)
	return token, ok && token != nil
}
