// file: internals/route/index.go
package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"propertytools_backend/internals/configs"
	"propertytools_backend/internals/constants"
	mediaRoute "propertytools_backend/internals/features/properties/media/route"
	notifRoute "propertytools_backend/internals/features/properties/notifications/route"
	notifSvc "propertytools_backend/internals/features/properties/notifications/service"
	statusRoute "propertytools_backend/internals/features/properties/statuses/route"
	toolsRoute "propertytools_backend/internals/features/properties/tools/route"
	authMiddleware "propertytools_backend/internals/middlewares/auth"
)

const AdminPrefix = "/api/a"

var startTime time.Time

func SetupRoutes(app *fiber.App, db *gorm.DB, conf configs.ToolsConfig, notify *notifSvc.NotificationService) {
	startTime = time.Now()
	log := configs.Logger.Sugar()

	log.Info("[INFO] Setting up BaseRoutes...")
	BaseRoutes(app, db)

	// ===================== ADMIN =====================
	log.Info("[INFO] Setting up ADMIN group (Auth + RoleCheck)...")
	admin := app.Group(AdminPrefix,
		authMiddleware.AuthJWT(authMiddleware.AuthJWTOpts{
			Secret:              configs.JWTSecret,
			AllowCookieFallback: true,
		}),
		authMiddleware.OnlyRoles("Only administrators can use the property tools", constants.AdminOnly...),
	)

	// ===================== MOUNT ROUTES =====================
	log.Info("[INFO] Mounting Tools routes...")
	toolsRoute.ToolsAdminRoutes(admin, AdminPrefix, conf)

	log.Info("[INFO] Mounting Status routes...")
	statusRoute.StatusAdminRoutes(admin, db, conf)

	log.Info("[INFO] Mounting Media routes...")
	mediaRoute.MediaAdminRoutes(admin, db, conf)

	log.Info("[INFO] Mounting Notification routes...")
	notifRoute.NotificationAdminRoutes(admin, notify)
}
