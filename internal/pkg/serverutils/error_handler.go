package serverutils

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"ai-research-be/pkg/agent"
)

// ErrorHandlerMiddleware converts errors returned by handlers into the JSON
// envelope with a matching status code. Registered once, before the routes.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := fiber.StatusInternalServerError
		message := err.Error()

		var fiberErr *fiber.Error
		var validationErrs validator.ValidationErrors
		var inputErr *agent.ValidationError

		switch {
		case errors.As(err, &fiberErr):
			code = fiberErr.Code
			message = fiberErr.Message
		case errors.As(err, &validationErrs):
			code = fiber.StatusBadRequest
		case errors.As(err, &inputErr):
			code = fiber.StatusBadRequest
		case errors.Is(err, gorm.ErrRecordNotFound):
			code = fiber.StatusNotFound
			message = "not found"
		}

		return ctx.Status(code).JSON(ErrorResponse(code, message))
	}
}
