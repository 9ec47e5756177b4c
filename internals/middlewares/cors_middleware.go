// middlewares/cors.go

package middlewares

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"propertytools_backend/internals/configs"
)

// CorsMiddleware allows the WordPress admin origin(s) listed in CORS_ORIGINS.
func CorsMiddleware() fiber.Handler {
	origins := configs.SplitCSV(configs.GetEnv("CORS_ORIGINS", "http://localhost:8080"))
	return cors.New(cors.Config{
		AllowOrigins:     strings.Join(origins, ", "),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-WTS-Nonce, X-Request-ID",
		AllowCredentials: true,
	})
}
