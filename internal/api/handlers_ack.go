package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/mkale-dev/rollcall/internal/services"
)

const ackSuccessPage = `<!DOCTYPE html>
<html><head><title>Acknowledged</title></head>
<body><h1>Escalation acknowledged</h1>
<p>Thank you. No further notifications will be sent for this escalation.</p>
</body></html>`

// The same page covers unknown, expired, and already-used tokens. The link
// holder learns nothing about which case they hit.
const ackInvalidPage = `<!DOCTYPE html>
<html><head><title>Link not valid</title></head>
<body><h1>This link is no longer valid</h1>
<p>It may have expired or already been used.</p>
</body></html>`

// Acknowledge consumes a one-time token from the notification link.
func (handler *Handler) Acknowledge(c *fiber.Ctx) error {
	c.Type("html", "utf-8")

	token := c.Query("token")
	if token == "" {
		return c.Status(fiber.StatusNotFound).SendString(ackInvalidPage)
	}

	err := handler.engine.AcknowledgeByToken(token)
	if errors.Is(err, services.ErrTokenInvalid) {
		return c.Status(fiber.StatusNotFound).SendString(ackInvalidPage)
	}
	if err != nil {
		handler.logger.Printf("acknowledge: token consumption failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).SendString(ackInvalidPage)
	}
	return c.SendString(ackSuccessPage)
}
