package helper

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Validate is the shared validator instance.
var Validate = validator.New()

// ValidationError maps validator.ValidationErrors onto the 422 envelope.
func ValidationError(c *fiber.Ctx, err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return JsonError(c, fiber.StatusBadRequest, "invalid input")
	}

	fields := make(map[string][]string, len(ve))
	for _, fieldErr := range ve {
		fields[fieldErr.Field()] = append(fields[fieldErr.Field()], fieldErr.Tag())
	}
	return JsonValidationError(c, fields)
}
