// internals/features/properties/tools/route/admin_route.go
package route

import (
	"github.com/gofiber/fiber/v2"

	"propertytools_backend/internals/configs"
	toolsCtrl "propertytools_backend/internals/features/properties/tools/controller"
)

// ToolsAdminRoutes mounts the nonce endpoint and the tools page. apiBase is
// the mount path of api, used by the page's scripts.
func ToolsAdminRoutes(api fiber.Router, apiBase string, conf configs.ToolsConfig) {
	h := toolsCtrl.NewToolsController(configs.NonceSecret, apiBase, conf)
	api.Post("/nonces", h.IssueNonces)
	api.Get("/tools", h.Page)
}
