// internals/features/properties/media/controller/media_controller.go
package controller

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"propertytools_backend/internals/features/properties/media/dto"
	mediaSvc "propertytools_backend/internals/features/properties/media/service"
	helper "propertytools_backend/internals/helpers"
	"propertytools_backend/internals/middlewares/logger"
)

type MediaController struct {
	Svc *mediaSvc.MediaService
}

func NewMediaController(svc *mediaSvc.MediaService) *MediaController {
	return &MediaController{Svc: svc}
}

// GET /api/a/media/orphans
func (ctl *MediaController) ListOrphans(c *fiber.Ctx) error {
	rows, err := ctl.Svc.FindOrphans(c.UserContext())
	if err != nil {
		logger.From(c).Error("[MEDIA] find orphans failed", zap.Error(err))
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to scan media library")
	}
	msg := "OK"
	if len(rows) == 0 {
		msg = "No orphaned images found."
	}
	return helper.JsonOK(c, msg, dto.NewOrphanListResponse(rows, ctl.Svc.Conf.OrphansStrict))
}

// DELETE /api/a/media/orphans
// The orphan set is recomputed here; client-supplied IDs are not trusted.
func (ctl *MediaController) DeleteOrphans(c *fiber.Ctx) error {
	rep, err := ctl.Svc.PurgeOrphans(c.UserContext())
	if err != nil {
		logger.From(c).Error("[MEDIA] delete orphans failed", zap.Int("deleted", rep.Deleted), zap.Error(err))
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to delete orphaned images")
	}
	msg := "No orphaned images found to delete."
	if rep.Deleted > 0 {
		msg = "Orphaned images deleted."
	}
	return helper.JsonDeleted(c, msg, rep)
}
