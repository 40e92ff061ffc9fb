package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/rcliao/todo-bridge/internal/model"
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

var kindStatus = map[string]int{
	model.KindValidation: fiber.StatusBadRequest,
	model.KindAuth:       fiber.StatusUnauthorized,
	model.KindNotFound:   fiber.StatusNotFound,
	model.KindTransient:  fiber.StatusServiceUnavailable,
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(ErrorResponse{Error: "http", Message: fe.Message})
	}

	kind := model.Kind(err)
	code, ok := kindStatus[kind]
	if !ok {
		code = fiber.StatusInternalServerError
	}

	resp := ErrorResponse{Error: kind, Message: err.Error()}
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		resp.Field = ve.Field
		resp.Message = ve.Error()
	}

	switch code {
	case fiber.StatusInternalServerError:
		s.logger.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
		resp.Message = "internal error"
	case fiber.StatusServiceUnavailable:
		s.logger.Warn("store unavailable", "method", c.Method(), "path", c.Path(), "error", err)
		c.Set(fiber.HeaderRetryAfter, "1")
	case fiber.StatusUnauthorized:
		resp.Message = "authentication required"
	case fiber.StatusNotFound:
		resp.Message = "not found"
	}
	return c.Status(code).JSON(resp)
}
