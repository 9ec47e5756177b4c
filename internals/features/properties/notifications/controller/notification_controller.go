// internals/features/properties/notifications/controller/notification_controller.go
package controller

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"propertytools_backend/internals/features/properties/notifications/dto"
	notifRepo "propertytools_backend/internals/features/properties/notifications/repository"
	"propertytools_backend/internals/features/properties/notifications/service"
	helper "propertytools_backend/internals/helpers"
	"propertytools_backend/internals/middlewares/logger"
)

type NotificationController struct {
	Svc *service.NotificationService
}

func NewNotificationController(svc *service.NotificationService) *NotificationController {
	return &NotificationController{Svc: svc}
}

// POST /api/a/properties/:id/changes
func (ctl *NotificationController) QueueChange(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid post id")
	}
	var req dto.ChangeRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
		}
	}
	if err := helper.Validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	queued, n, err := ctl.Svc.EnqueueChange(c.UserContext(), id, req.IsNew, req.Source)
	switch {
	case errors.Is(err, notifRepo.ErrNotFound):
		return helper.JsonError(c, fiber.StatusNotFound, "Post not found")
	case err != nil:
		logger.From(c).Error("[NOTIFY] enqueue failed", zap.Uint64("post_id", id), zap.Error(err))
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to queue change")
	}
	return helper.JsonOK(c, "OK", dto.ChangeResponse{PostID: id, Queued: queued, QueueLength: n})
}

// GET /api/a/notifications/recipients
func (ctl *NotificationController) GetRecipients(c *fiber.Ctx) error {
	ctx := c.UserContext()
	raw, list, err := ctl.Svc.Recipients(ctx)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to read recipients")
	}
	resolved, err := ctl.Svc.ResolvedRecipients(ctx)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to resolve recipients")
	}
	return helper.JsonOK(c, "OK", dto.RecipientsResponse{Raw: raw, Resolved: resolved, Fallback: len(list) == 0})
}

// PUT /api/a/notifications/recipients
func (ctl *NotificationController) SaveRecipients(c *fiber.Ctx) error {
	var req dto.RecipientsRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := helper.Validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}
	list, err := ctl.Svc.SaveRecipients(c.UserContext(), req.Recipients)
	if err != nil {
		logger.From(c).Error("[NOTIFY] save recipients failed", zap.Error(err))
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to save recipients")
	}
	raw, _, _ := ctl.Svc.Recipients(c.UserContext())
	return helper.JsonUpdated(c, "Notification recipients updated.", dto.RecipientsResponse{Raw: raw, Resolved: list, Fallback: len(list) == 0})
}

// POST /api/a/notifications/check
func (ctl *NotificationController) Check(c *fiber.Ctx) error {
	n, err := ctl.Svc.CheckRecentUnnotified(c.UserContext())
	if err != nil {
		logger.From(c).Error("[NOTIFY] manual check failed", zap.Error(err))
		return helper.JsonError(c, fiber.StatusInternalServerError, "Notification check failed")
	}
	return helper.JsonOK(c, strconv.Itoa(n)+" new properties were processed for notifications.", dto.CheckResponse{Processed: n})
}

// POST /api/a/notifications/run
func (ctl *NotificationController) Run(c *fiber.Ctx) error {
	sum, err := ctl.Svc.RunAllDigests(c.UserContext())
	if err != nil {
		logger.From(c).Error("[NOTIFY] manual run failed", zap.Error(err))
		return helper.JsonError(c, fiber.StatusInternalServerError, "Digest run failed")
	}
	return helper.JsonOK(c, "Digest run completed (property + queued digests).", sum)
}

// POST /api/a/notifications/test
func (ctl *NotificationController) Test(c *fiber.Ctx) error {
	n, err := ctl.Svc.SendTestEmail(c.UserContext())
	if err != nil {
		logger.From(c).Error("[NOTIFY] test email failed", zap.Error(err))
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to send test email")
	}
	return helper.JsonOK(c, "A test notification email has been sent to the configured recipients.", dto.TestEmailResponse{Recipients: n})
}

// GET /api/a/notifications/queue
func (ctl *NotificationController) Queue(c *fiber.Ctx) error {
	entries, exp, err := ctl.Svc.Pending(c.UserContext())
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to read queue")
	}
	out, err := dto.NewQueueResponse(entries, exp)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to encode queue")
	}
	return helper.JsonOK(c, "OK", out)
}
