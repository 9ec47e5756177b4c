// internals/features/properties/media/route/admin_route.go
package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"propertytools_backend/internals/configs"
	"propertytools_backend/internals/constants"
	mediaCtrl "propertytools_backend/internals/features/properties/media/controller"
	mediaRepo "propertytools_backend/internals/features/properties/media/repository"
	mediaSvc "propertytools_backend/internals/features/properties/media/service"
	wpModel "propertytools_backend/internals/features/wordpress/model"
	helperOSS "propertytools_backend/internals/helpers/oss"
	authMiddleware "propertytools_backend/internals/middlewares/auth"
)

func MediaAdminRoutes(api fiber.Router, db *gorm.DB, conf configs.ToolsConfig) {
	repo := mediaRepo.NewMediaRepository(db, wpModel.NewTables(configs.TablePrefix()))
	h := mediaCtrl.NewMediaController(mediaSvc.NewMediaService(repo, helperOSS.NewMediaStoreFromEnv(), conf))

	g := api.Group("/media")
	g.Get("/orphans", h.ListOrphans)
	g.Delete("/orphans", authMiddleware.RequireNonce(configs.NonceSecret, constants.NonceDeleteOrphans), h.DeleteOrphans)
}
