package helper

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// FromFiberError turns an error (usually *fiber.Error from a middleware or
// service) into the JSON envelope. Anything else becomes a bare 500.
func FromFiberError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return JsonError(c, fe.Code, fe.Message)
	}
	return JsonError(c, fiber.StatusInternalServerError, "")
}
