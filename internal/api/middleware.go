package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rcliao/todo-bridge/internal/auth"
)

const userLocalsKey = "user_id"

// sessionMiddleware places the request's session in the user context,
// where auth.ContextSource finds it.
func (s *Server) sessionMiddleware(c *fiber.Ctx) error {
	var tokenCookie, idCookie string
	if s.cfg.SessionCookie != "" {
		tokenCookie = c.Cookies(s.cfg.SessionCookie)
	}
	if s.cfg.SessionIDCookie != "" {
		idCookie = c.Cookies(s.cfg.SessionIDCookie)
	}

	sess := auth.SessionFromRequest(c.Get(fiber.HeaderAuthorization), tokenCookie, idCookie)
	c.SetUserContext(auth.WithSession(c.UserContext(), sess))
	return c.Next()
}

// requireUser resolves the credential once per request and rejects the
// request with 401 when there is none.
func (s *Server) requireUser(c *fiber.Ctx) error {
	user, err := s.gateway.Whoami(c.UserContext())
	if err != nil {
		return err
	}
	c.Locals(userLocalsKey, user)
	return c.Next()
}

func currentUser(c *fiber.Ctx) string {
	user, _ := c.Locals(userLocalsKey).(string)
	return user
}
