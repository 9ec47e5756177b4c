package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propertytools_backend/internals/constants"
	helper "propertytools_backend/internals/helpers"
	helperAuth "propertytools_backend/internals/helpers/auth"
)

const secret = "test-secret"

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func newApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: helper.ErrorHandler})
	admin := app.Group("/api/a",
		AuthJWT(AuthJWTOpts{Secret: secret, AllowCookieFallback: true}),
		OnlyRoles(constants.RoleErrorAdmin("the property tools"), constants.AdminOnly...),
	)
	admin.Get("/me", func(c *fiber.Ctx) error {
		uid, _ := helperAuth.GetUserID(c)
		return c.SendString(uid)
	})
	admin.Post("/hook", BearerOnly(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	admin.Post("/guarded", RequireNonce(secret, constants.NonceDraftBatch), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func adminToken(t *testing.T) string {
	return sign(t, jwt.MapClaims{
		"sub":  "1",
		"role": "administrator",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
}

func TestAuthJWTMissingToken(t *testing.T) {
	resp, err := newApp().Test(httptest.NewRequest(http.MethodGet, "/api/a/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthJWTBearerAdmin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/a/me", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	resp, err := newApp().Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAuthJWTCookieFallback(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/a/me", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: adminToken(t)})
	resp, err := newApp().Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAuthJWTRejectsExpiredAndForeign(t *testing.T) {
	expired := sign(t, jwt.MapClaims{"sub": "1", "role": "administrator", "exp": time.Now().Add(-time.Hour).Unix()})
	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "1", "role": "administrator"}).
		SignedString([]byte("other"))
	require.NoError(t, err)

	for _, tok := range []string{expired, foreign, "garbage"} {
		req := httptest.NewRequest(http.MethodGet, "/api/a/me", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		resp, err := newApp().Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	}
}

func TestOnlyRolesForbidsEditor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/a/me", nil)
	req.Header.Set("Authorization", "Bearer "+sign(t, jwt.MapClaims{"sub": "2", "roles": []string{"editor"}}))
	resp, err := newApp().Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestRequireNonce(t *testing.T) {
	app := newApp()
	good, err := helperAuth.IssueNonce(secret, "1", constants.NonceDraftBatch, time.Minute)
	require.NoError(t, err)
	wrongAction, err := helperAuth.IssueNonce(secret, "1", constants.NonceDeleteBatch, time.Minute)
	require.NoError(t, err)

	cases := []struct {
		name   string
		body   string
		header string
		want   int
	}{
		{"body", `{"nonce":"` + good + `"}`, "", fiber.StatusNoContent},
		{"header", "", good, fiber.StatusNoContent},
		{"wrong action", `{"nonce":"` + wrongAction + `"}`, "", fiber.StatusForbidden},
		{"missing", `{}`, "", fiber.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/a/guarded", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+adminToken(t))
			if tc.header != "" {
				req.Header.Set(NonceHeader, tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}

func TestBearerOnlyRejectsCookieToken(t *testing.T) {
	app := newApp()

	req := httptest.NewRequest(http.MethodPost, "/api/a/hook", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: adminToken(t)})
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(http.MethodPost, "/api/a/hook", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}
