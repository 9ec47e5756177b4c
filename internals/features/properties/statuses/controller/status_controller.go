// internals/features/properties/statuses/controller/status_controller.go
package controller

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"propertytools_backend/internals/features/properties/statuses/dto"
	"propertytools_backend/internals/features/properties/statuses/service"
	helper "propertytools_backend/internals/helpers"
	"propertytools_backend/internals/middlewares/logger"
)

type StatusController struct {
	Svc *service.StatusService
}

func NewStatusController(svc *service.StatusService) *StatusController {
	return &StatusController{Svc: svc}
}

func parse(c *fiber.Ctx, req *dto.BatchRequest) error {
	if len(c.Body()) == 0 {
		return nil
	}
	return c.BodyParser(req)
}

// POST /api/a/properties/draft-batch
func (ctl *StatusController) DraftBatch(c *fiber.Ctx) error {
	var req dto.BatchRequest
	if err := parse(c, &req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := helper.Validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	res, err := ctl.Svc.DraftBatch(c.UserContext(), req.ToService())
	if err != nil {
		logger.From(c).Error("[STATUS] draft batch failed", zap.Int("page", req.Page), zap.Error(err))
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to draft listings")
	}
	return helper.JsonOK(c, "OK", dto.NewDraftBatchResponse(res))
}

// POST /api/a/properties/delete-batch
func (ctl *StatusController) DeleteBatch(c *fiber.Ctx) error {
	var req dto.BatchRequest
	if err := parse(c, &req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := helper.Validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	res, err := ctl.Svc.DeleteBatch(c.UserContext(), req.ToService())
	if err != nil {
		logger.From(c).Error("[STATUS] delete batch failed", zap.Int("page", req.Page), zap.Error(err))
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to delete listings")
	}
	return helper.JsonOK(c, "OK", dto.NewDeleteBatchResponse(res))
}
