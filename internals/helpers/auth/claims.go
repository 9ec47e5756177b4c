// internals/helpers/auth/claims.go
package helper

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Locals keys hydrated by the JWT middleware.
const (
	LocUserID    = "user_id"    // string
	LocRoles     = "roles"      // []string, lowercased
	LocJWTClaims = "jwt_claims" // jwt.MapClaims
	LocTokenFrom = "token_from" // TokenFromBearer or TokenFromCookie
)

const (
	TokenFromBearer = "bearer"
	TokenFromCookie = "cookie"
)

// GetUserID returns the authenticated user's ID from locals.
func GetUserID(c *fiber.Ctx) (string, error) {
	if s, ok := c.Locals(LocUserID).(string); ok {
		if s = strings.TrimSpace(s); s != "" {
			return s, nil
		}
	}
	return "", fiber.NewError(fiber.StatusUnauthorized, "user_id not found in token")
}

func GetRoles(c *fiber.Ctx) []string {
	if rr, ok := c.Locals(LocRoles).([]string); ok {
		return rr
	}
	return nil
}

// HasAnyRole reports whether the request carries one of the given roles.
func HasAnyRole(c *fiber.Ctx, roles ...string) bool {
	for _, have := range GetRoles(c) {
		for _, want := range roles {
			if have == strings.ToLower(want) {
				return true
			}
		}
	}
	return false
}

// StringClaim reads a claim as a string. Numeric IDs (WordPress user IDs)
// come through as float64 and are formatted without a fraction.
func StringClaim(claims map[string]any, key string) string {
	switch v := claims[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	}
	return ""
}

// RolesFromClaims merges the "role" (string) and "roles" (list or CSV)
// claims into a lowercased, deduplicated slice.
func RolesFromClaims(claims map[string]any) []string {
	out := make([]string, 0, 2)
	seen := map[string]bool{}
	add := func(s string) {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}

	if s, ok := claims["role"].(string); ok {
		add(s)
	}
	switch v := claims["roles"].(type) {
	case []any:
		for _, it := range v {
			if s, ok := it.(string); ok {
				add(s)
			}
		}
	case []string:
		for _, s := range v {
			add(s)
		}
	case string:
		for _, s := range strings.Split(v, ",") {
			add(s)
		}
	}
	return out
}
