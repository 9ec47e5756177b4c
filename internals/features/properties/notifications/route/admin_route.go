// internals/features/properties/notifications/route/admin_route.go
package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"propertytools_backend/internals/configs"
	"propertytools_backend/internals/constants"
	notifCtrl "propertytools_backend/internals/features/properties/notifications/controller"
	notifRepo "propertytools_backend/internals/features/properties/notifications/repository"
	notifSvc "propertytools_backend/internals/features/properties/notifications/service"
	wpModel "propertytools_backend/internals/features/wordpress/model"
	wpRepo "propertytools_backend/internals/features/wordpress/repository"
	"propertytools_backend/internals/middlewares"
	authMiddleware "propertytools_backend/internals/middlewares/auth"
)

// NewService wires the notification service over the WordPress tables. The
// same instance backs the routes and the scheduler.
func NewService(db *gorm.DB, conf configs.ToolsConfig) *notifSvc.NotificationService {
	t := wpModel.NewTables(configs.TablePrefix())
	return notifSvc.NewNotificationService(
		notifRepo.NewListingRepository(db, t, configs.SiteLocation()),
		notifRepo.NewQueueRepository(db, t),
		wpRepo.NewOptionsRepository(db, t),
		notifSvc.NewMailerFromEnv(configs.Logger),
		conf,
	)
}

func NotificationAdminRoutes(api fiber.Router, svc *notifSvc.NotificationService) {
	h := notifCtrl.NewNotificationController(svc)
	nonce := func(action string) fiber.Handler { return authMiddleware.RequireNonce(configs.NonceSecret, action) }

	// called server to server by the site hooks, so no nonce round trip
	api.Post("/properties/:id/changes", authMiddleware.BearerOnly(), h.QueueChange)

	g := api.Group("/notifications")
	g.Get("/recipients", h.GetRecipients)
	g.Put("/recipients", nonce(constants.NonceRecipients), h.SaveRecipients)
	g.Post("/check", nonce(constants.NonceNotifyCheck), h.Check)
	g.Post("/run", nonce(constants.NonceNotifyRun), h.Run)
	g.Post("/test", middlewares.MailRateLimiter(), nonce(constants.NonceNotifyTest), h.Test)
	g.Get("/queue", h.Queue)
}
