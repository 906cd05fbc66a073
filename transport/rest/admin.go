package rest

import (
	"crypto/subtle"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/hairlens/hairlens"
)

const HeaderAdminKey = "X-Admin-Key"

type AdminController struct {
	Sessions hairlens.SessionService
	// Admin endpoints are disabled when empty.
	AdminKey string
}

func (c *AdminController) InstallTo(app *fiber.App) {
	app.Post("/admin/sessions/cleanup", combineHandlers(c.requireAdminKey, c.serveCleanupSessions))
}

func (c *AdminController) requireAdminKey(ctx *fiber.Ctx) error {
	if c.AdminKey == "" {
		return fiber.ErrNotFound
	}
	key := ctx.Get(HeaderAdminKey)
	if subtle.ConstantTimeCompare([]byte(key), []byte(c.AdminKey)) != 1 {
		return fiber.ErrUnauthorized
	}
	return nil
}

func (c *AdminController) serveCleanupSessions(ctx *fiber.Ctx) error {
	result, err := c.Sessions.CleanupExpired(ctx.Context())
	if err != nil {
		return fmt.Errorf("cleanup expired sessions: %w", err)
	}
	requestLog(ctx).WithField("deleted", result.DeletedCount).Infoln("Expired sessions cleaned up.")
	return ctx.JSON(map[string]interface{}{
		"deletedCount": result.DeletedCount,
	})
}
