package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/mkale-dev/rollcall/internal/models"
	"github.com/mkale-dev/rollcall/internal/services"
)

type adminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AdminLogin checks the operator credentials and issues a bearer token. The
// password is compared against a bcrypt hash supplied via configuration; no
// operator accounts live in the store.
func (handler *Handler) AdminLogin(c *fiber.Ctx) error {
	var request adminLoginRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if request.Username != handler.adminUsername ||
		bcrypt.CompareHashAndPassword([]byte(handler.adminPasswordHash), []byte(request.Password)) != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid credentials"})
	}

	token, err := handler.buildAdminToken(request.Username, defaultAuthTokenTTL)
	if err != nil {
		handler.logger.Printf("admin: building token failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.JSON(fiber.Map{"token": token})
}

func (handler *Handler) ListUsers(c *fiber.Ctx) error {
	users, err := handler.users.List()
	if err != nil {
		handler.logger.Printf("admin: listing users failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.JSON(users)
}

func (handler *Handler) GetUser(c *fiber.Ctx) error {
	user, err := handler.users.Get(c.Params("chatID"))
	if errors.Is(err, services.ErrUserNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
	}
	if err != nil {
		handler.logger.Printf("admin: fetching user failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.JSON(user)
}

func (handler *Handler) CreateUser(c *fiber.Ctx) error {
	var user models.User
	if err := c.BodyParser(&user); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	created, err := handler.users.Create(user)
	if errors.Is(err, services.ErrUserExists) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "user already exists"})
	}
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (handler *Handler) UpdateUser(c *fiber.Ctx) error {
	var user models.User
	if err := c.BodyParser(&user); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	updated, err := handler.users.Update(c.Params("chatID"), user)
	if errors.Is(err, services.ErrUserNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
	}
	if err != nil {
		handler.logger.Printf("admin: updating user failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.JSON(updated)
}

func (handler *Handler) DeleteUser(c *fiber.Ctx) error {
	err := handler.users.Delete(c.Params("chatID"))
	if errors.Is(err, services.ErrUserNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
	}
	if err != nil {
		handler.logger.Printf("admin: deleting user failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (handler *Handler) GetSettings(c *fiber.Ctx) error {
	return c.JSON(handler.settings.Current())
}

func (handler *Handler) UpdateSettings(c *fiber.Ctx) error {
	var settings models.EscalationSettings
	if err := c.BodyParser(&settings); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	updated, err := handler.settings.Update(settings)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(updated)
}

func (handler *Handler) ListAudits(c *fiber.Ctx) error {
	records, err := handler.audits.ListByWorkday(c.Params("workday"))
	if err != nil {
		handler.logger.Printf("admin: listing audits failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.JSON(records)
}

func (handler *Handler) StoreHealth(c *fiber.Ctx) error {
	report, err := handler.health.Report()
	if err != nil {
		handler.logger.Printf("admin: health report failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.JSON(report)
}

// ForceSweep runs one escalation sweep immediately.
func (handler *Handler) ForceSweep(c *fiber.Ctx) error {
	handler.scheduler.Tick()
	return c.JSON(fiber.Map{"status": "sweep completed"})
}

func (handler *Handler) IntegrityReport(c *fiber.Ctx) error {
	report, err := handler.integrity.Report()
	if err != nil {
		handler.logger.Printf("admin: integrity report failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.JSON(report)
}

func (handler *Handler) RepairOrphans(c *fiber.Ctx) error {
	repaired, err := handler.integrity.RepairOrphans()
	if err != nil {
		handler.logger.Printf("admin: orphan repair failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.JSON(fiber.Map{"repaired": repaired})
}

func (handler *Handler) ResetStuck(c *fiber.Ctx) error {
	reset, err := handler.integrity.ResetStuck()
	if err != nil {
		handler.logger.Printf("admin: stuck reset failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.JSON(fiber.Map{"reset": reset})
}

func (handler *Handler) RebuildAuditTable(c *fiber.Ctx) error {
	if err := handler.integrity.Rebuild(); err != nil {
		handler.logger.Printf("admin: audit table rebuild failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.JSON(fiber.Map{"status": "rebuilt"})
}
