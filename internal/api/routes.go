package api

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(app *fiber.App, handler *Handler) {
	app.Get("/healthz", handler.Health)

	app.Post("/slack/events", handler.VerifySlackSignature, handler.SlackEvents)
	app.Get("/acknowledge", handler.Acknowledge)

	app.Post("/api/admin/login", handler.AdminLogin)

	admin := app.Group("/api/admin", handler.AuthRequired)
	admin.Get("/users", handler.ListUsers)
	admin.Post("/users", handler.CreateUser)
	admin.Get("/users/:chatID", handler.GetUser)
	admin.Put("/users/:chatID", handler.UpdateUser)
	admin.Delete("/users/:chatID", handler.DeleteUser)

	admin.Get("/settings", handler.GetSettings)
	admin.Put("/settings", handler.UpdateSettings)

	admin.Get("/audits/:workday", handler.ListAudits)
	admin.Get("/health", handler.StoreHealth)
	admin.Post("/sweep", handler.ForceSweep)

	admin.Get("/integrity", handler.IntegrityReport)
	admin.Post("/integrity/repair-orphans", handler.RepairOrphans)
	admin.Post("/integrity/reset-stuck", handler.ResetStuck)
	admin.Post("/integrity/rebuild", handler.RebuildAuditTable)
}
