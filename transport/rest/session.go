package rest

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/hairlens/hairlens"
)

const (
	sessionLocalsKey = "session"
	tokenLocalsKey   = "token"
)

type SessionController struct {
	Sessions hairlens.SessionService
}

func (c *SessionController) InstallTo(requestAuthorizer fiber.Handler, app *fiber.App) {
	app.Post("/sessions", c.serveCreateSession)
	app.Get("/session", combineHandlers(requestAuthorizer, c.serveCurrentSession))
	app.Delete("/session", combineHandlers(requestAuthorizer, c.serveRevokeSession))
}

func (c *SessionController) serveCreateSession(ctx *fiber.Ctx) error {
	body := struct {
		OwnerId string `json:"ownerId"`
		// Anything but a positive integer selects the default ttl.
		TtlMillis interface{} `json:"ttlMillis"`
	}{}
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&body); err != nil {
			requestLog(ctx).WithError(err).Infoln("Invalid body.")
			return fiber.NewError(fiber.StatusBadRequest, "invalid body")
		}
	}

	issued, err := c.Sessions.Create(ctx.Context(), body.OwnerId, parseTtlMillis(body.TtlMillis))
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(map[string]interface{}{
		"accessToken": issued.Token,
		"expiresAt":   issued.ExpiresAt.UnixMilli(),
	})
}

func parseTtlMillis(v interface{}) int64 {
	ttl, ok := v.(float64)
	if !ok || ttl <= 0 || ttl != math.Trunc(ttl) || ttl >= math.MaxInt64 {
		return 0
	}
	return int64(ttl)
}

func (c *SessionController) serveCurrentSession(ctx *fiber.Ctx) error {
	session, ok := ctx.Locals(sessionLocalsKey).(hairlens.Validation)
	if !ok {
		return fiber.ErrUnauthorized
	}

	type SessionResponse struct {
		SessionId string `json:"sessionId"`
		OwnerId   string `json:"ownerId,omitempty"`
		ExpiresAt int64  `json:"expiresAt"`
	}
	return ctx.JSON(SessionResponse{
		SessionId: session.SessionId,
		OwnerId:   session.OwnerId,
		ExpiresAt: session.ExpiresAt.UnixMilli(),
	})
}

func (c *SessionController) serveRevokeSession(ctx *fiber.Ctx) error {
	token, ok := ctx.Locals(tokenLocalsKey).(string)
	if !ok {
		return fiber.ErrUnauthorized
	}
	err := c.Sessions.Revoke(ctx.Context(), token)
	if err != nil {
		if errors.Is(err, hairlens.ErrSessionNotFound) {
			return fiber.ErrUnauthorized
		} else {
			return fmt.Errorf("session revoke: %w", err)
		}
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

// RequestAuthorizer validates the bearer token of a request and stores the
// resulting hairlens.Validation in request locals.
func RequestAuthorizer(sessions hairlens.SessionService) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		auth := ctx.Get(fiber.HeaderAuthorization)
		if auth == "" {
			return fiber.ErrUnauthorized
		}
		if !strings.HasPrefix(auth, "Bearer ") {
			return fiber.NewError(fiber.ErrBadRequest.Code, "invalid auth type")
		}
		token := strings.TrimPrefix(auth, "Bearer ")

		session, err := sessions.Validate(ctx.Context(), token)
		if err != nil {
			requestLog(ctx).WithError(err).Errorln("Could not validate session.")
			return fiber.NewError(fiber.StatusServiceUnavailable, "session validation failed")
		}
		switch session.Status {
		case hairlens.ValidationValid:
		case hairlens.ValidationExpired:
			return fiber.NewError(fiber.StatusUnauthorized, "session expired")
		default:
			return fiber.NewError(fiber.StatusUnauthorized, "session not found")
		}

		requestLog(ctx).
			WithField("owner_id", session.OwnerId).
			Debugln("Authorized access.")
		ctx.Locals(sessionLocalsKey, session)
		ctx.Locals(tokenLocalsKey, token)
		return nil
	}
}
