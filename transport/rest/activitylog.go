package rest

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/hairlens/hairlens"
)

type ActivityController struct {
	Store hairlens.ActivityStore
}

func (c *ActivityController) InstallTo(authorizationHandler fiber.Handler, app *fiber.App) {
	app.Get("/activities", combineHandlers(authorizationHandler, c.serveActivities))
}

func (c *ActivityController) serveActivities(ctx *fiber.Ctx) error {
	session, ok := ctx.Locals(sessionLocalsKey).(hairlens.Validation)
	if !ok {
		return fiber.ErrUnauthorized
	}
	if session.OwnerId == "" {
		return fiber.NewError(fiber.StatusForbidden, "anonymous session")
	}
	logs, err := c.Store.ByOwnerId(ctx.Context(), session.OwnerId)
	if err != nil {
		return fmt.Errorf("get logs by owner id: %w", err)
	}

	type Log struct {
		Id        int64                  `json:"id"`
		CreatedAt int64                  `json:"createdAt"`
		Name      string                 `json:"name"`
		Data      map[string]interface{} `json:"data,omitempty"`
	}
	mapped := make([]Log, len(logs))
	for i, log := range logs {
		mapped[i] = Log{Id: log.Id, CreatedAt: log.CreatedAt.UnixMilli(), Name: log.Name, Data: log.Data}
	}
	return ctx.JSON(mapped)
}
