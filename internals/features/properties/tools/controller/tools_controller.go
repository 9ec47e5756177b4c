// internals/features/properties/tools/controller/tools_controller.go
package controller

import (
	"bytes"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"propertytools_backend/internals/configs"
	"propertytools_backend/internals/constants"
	"propertytools_backend/internals/features/properties/tools/dto"
	"propertytools_backend/internals/features/properties/tools/view"
	helper "propertytools_backend/internals/helpers"
	helperAuth "propertytools_backend/internals/helpers/auth"
	"propertytools_backend/internals/middlewares/auth"
	"propertytools_backend/internals/middlewares/logger"
)

type ToolsController struct {
	Secret  string
	TTL     time.Duration
	APIBase string
	Conf    configs.ToolsConfig
}

func NewToolsController(secret, apiBase string, conf configs.ToolsConfig) *ToolsController {
	return &ToolsController{Secret: secret, TTL: helperAuth.DefaultNonceTTL, APIBase: apiBase, Conf: conf}
}

var knownActions = func() map[string]bool {
	m := make(map[string]bool, len(constants.NonceActions))
	for _, a := range constants.NonceActions {
		m[a] = true
	}
	return m
}()

// POST /api/a/nonces
func (ctl *ToolsController) IssueNonces(c *fiber.Ctx) error {
	userID, err := helperAuth.GetUserID(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	var req dto.NonceRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := helper.Validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	out := dto.NonceResponse{Nonces: make(map[string]string, len(req.Actions)), ExpiresIn: int64(ctl.TTL.Seconds())}
	for _, action := range req.Actions {
		if !knownActions[action] {
			return helper.JsonError(c, fiber.StatusBadRequest, "Unknown action: "+action)
		}
		tok, err := helperAuth.IssueNonce(ctl.Secret, userID, action, ctl.TTL)
		if err != nil {
			logger.From(c).Error("[NONCE] issue failed", zap.String("action", action), zap.Error(err))
			return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to issue security token")
		}
		out.Nonces[action] = tok
	}
	return helper.JsonOK(c, "OK", out)
}

// GET /api/a/tools
func (ctl *ToolsController) Page(c *fiber.Ctx) error {
	var buf bytes.Buffer
	err := view.Render(&buf, view.PageData{
		APIBase:     ctl.APIBase,
		NonceHeader: auth.NonceHeader,
		Slugs:       ctl.Conf.StatusSlugs,
		DraftSize:   ctl.Conf.DraftBatchSize,
		DeleteSize:  ctl.Conf.DeleteBatchSize,
		Actions:     constants.NonceActions,
	})
	if err != nil {
		logger.From(c).Error("[TOOLS] render failed", zap.Error(err))
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to render tools page")
	}
	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}
