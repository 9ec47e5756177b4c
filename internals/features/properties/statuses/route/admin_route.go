// internals/features/properties/statuses/route/admin_route.go
package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"propertytools_backend/internals/configs"
	"propertytools_backend/internals/constants"
	statusCtrl "propertytools_backend/internals/features/properties/statuses/controller"
	statusRepo "propertytools_backend/internals/features/properties/statuses/repository"
	statusSvc "propertytools_backend/internals/features/properties/statuses/service"
	wpModel "propertytools_backend/internals/features/wordpress/model"
	authMiddleware "propertytools_backend/internals/middlewares/auth"
)

func StatusAdminRoutes(api fiber.Router, db *gorm.DB, conf configs.ToolsConfig) {
	repo := statusRepo.NewStatusRepository(db, wpModel.NewTables(configs.TablePrefix()), configs.SiteLocation())
	h := statusCtrl.NewStatusController(statusSvc.NewStatusService(repo, conf))

	g := api.Group("/properties")
	g.Post("/draft-batch", authMiddleware.RequireNonce(configs.NonceSecret, constants.NonceDraftBatch), h.DraftBatch)
	g.Post("/delete-batch", authMiddleware.RequireNonce(configs.NonceSecret, constants.NonceDeleteBatch), h.DeleteBatch)
}
