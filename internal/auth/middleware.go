package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/hostel-service/internal/domain"
)

const userKey = "auth_user"

// Middleware authenticates requests through the guard.
type Middleware struct {
	guard *Guard
}

// NewMiddleware constructs middleware.
func NewMiddleware(guard *Guard) *Middleware {
	return &Middleware{guard: guard}
}

// Handle enforces authentication for protected routes.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	user, err := m.guard.Authenticate(c.UserContext(), c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return err
	}
	c.Locals(userKey, user)
	return c.Next()
}

// UserFromContext retrieves the authenticated user.
func UserFromContext(c *fiber.Ctx) (*domain.User, bool) {
	user, ok := c.Locals(userKey).(*domain.User)
	return user, ok && user != nil
}
