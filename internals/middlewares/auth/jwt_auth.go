// internals/middlewares/auth/jwt_auth.go
package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"

	helperAuth "propertytools_backend/internals/helpers/auth"
)

type AuthJWTOpts struct {
	Secret              string
	AllowCookieFallback bool // use the access_token cookie when there is no Bearer header
}

// AuthJWT verifies an HMAC-signed access token and hydrates user_id and roles
// into locals.
func AuthJWT(o AuthJWTOpts) fiber.Handler {
	secret := strings.TrimSpace(o.Secret)

	return func(c *fiber.Ctx) error {
		if secret == "" {
			return fiber.NewError(fiber.StatusInternalServerError, "Missing JWT secret")
		}

		raw, from := "", helperAuth.TokenFromBearer
		if authz := strings.TrimSpace(c.Get(fiber.HeaderAuthorization)); strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			raw = strings.TrimSpace(authz[7:])
		} else if o.AllowCookieFallback {
			raw, from = strings.TrimSpace(c.Cookies("access_token")), helperAuth.TokenFromCookie
		}
		if raw == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
		}

		tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !tok.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
		}

		claims, ok := tok.Claims.(jwt.MapClaims)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
		}
		c.Locals(helperAuth.LocJWTClaims, claims)
		c.Locals(helperAuth.LocTokenFrom, from)

		// user_id: id, then sub, then user_id
		for _, key := range []string{"id", "sub", "user_id"} {
			if v := helperAuth.StringClaim(claims, key); v != "" {
				c.Locals(helperAuth.LocUserID, v)
				break
			}
		}
		if _, err := helperAuth.GetUserID(c); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Invalid or missing user ID")
		}

		c.Locals(helperAuth.LocRoles, helperAuth.RolesFromClaims(claims))
		return c.Next()
	}
}

// BearerOnly rejects requests authenticated by the cookie fallback. Browsers
// attach the cookie to cross-site posts; they cannot attach the header.
func BearerOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if from, _ := c.Locals(helperAuth.LocTokenFrom).(string); from != helperAuth.TokenFromBearer {
			return fiber.NewError(fiber.StatusUnauthorized, "Bearer token required")
		}
		return c.Next()
	}
}
