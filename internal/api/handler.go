package api

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/mkale-dev/rollcall/internal/models"
	"github.com/mkale-dev/rollcall/internal/services"
)

const defaultAuthTokenTTL = 12 * time.Hour

type chatPoster interface {
	PostMessage(chatID string, text string) error
}

type escalationEngine interface {
	AcknowledgeByToken(value string) error
	AcknowledgeBySupervisor(supervisorChatID string) error
}

type sweeper interface {
	Tick()
}

type auditLister interface {
	ListByWorkday(workday string) ([]models.AuditRecord, error)
}

// Handler carries the request-facing dependencies. Everything behind it is a
// service; handlers only translate HTTP to service calls.
type Handler struct {
	secretKey          []byte
	adminUsername      string
	adminPasswordHash  string
	slackSigningSecret string
	location           *time.Location
	logger             *log.Logger

	attendance *services.AttendanceService
	engine     escalationEngine
	users      *services.UserService
	settings   *services.SettingsService
	integrity  *services.IntegrityAuditor
	health     *services.HealthService
	scheduler  sweeper
	chat       chatPoster
	audits     auditLister
}

type HandlerDeps struct {
	SecretKey          string
	AdminUsername      string
	AdminPasswordHash  string
	SlackSigningSecret string
	Location           *time.Location
	Logger             *log.Logger

	Attendance *services.AttendanceService
	Engine     escalationEngine
	Users      *services.UserService
	Settings   *services.SettingsService
	Integrity  *services.IntegrityAuditor
	Health     *services.HealthService
	Scheduler  sweeper
	Chat       chatPoster
	Audits     auditLister
}

func NewHandler(deps HandlerDeps) *Handler {
	return &Handler{
		secretKey:          []byte(deps.SecretKey),
		adminUsername:      deps.AdminUsername,
		adminPasswordHash:  deps.AdminPasswordHash,
		slackSigningSecret: deps.SlackSigningSecret,
		location:           deps.Location,
		logger:             deps.Logger,
		attendance:         deps.Attendance,
		engine:             deps.Engine,
		users:              deps.Users,
		settings:           deps.Settings,
		integrity:          deps.Integrity,
		health:             deps.Health,
		scheduler:          deps.Scheduler,
		chat:               deps.Chat,
		audits:             deps.Audits,
	}
}

func (handler *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
