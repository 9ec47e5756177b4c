package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	helperAuth "propertytools_backend/internals/helpers/auth"
)

// NonceHeader carries the per-action token when the body does not.
const NonceHeader = "X-WTS-Nonce"

// RequireNonce rejects the request unless it carries a valid nonce for
// action, issued to the authenticated user. The token is read from the
// header, then the "nonce" body field, then the query string.
func RequireNonce(secret, action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := helperAuth.GetUserID(c)
		if err != nil {
			return err
		}

		token := c.Get(NonceHeader)
		if token == "" && len(c.Body()) > 0 {
			var body struct {
				Nonce string `json:"nonce" form:"nonce"`
			}
			if err := c.BodyParser(&body); err == nil {
				token = body.Nonce
			}
		}
		if token == "" {
			token = c.Query("nonce")
		}

		if err := helperAuth.VerifyNonce(secret, token, userID, action); err != nil {
			if errors.Is(err, helperAuth.ErrInvalidNonce) {
				return fiber.NewError(fiber.StatusForbidden, "Invalid or expired security token")
			}
			return err
		}
		return c.Next()
	}
}
