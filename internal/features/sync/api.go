package sync

import (
	"ticketflo-sync/internal/common/api"
	"ticketflo-sync/internal/config"
	"ticketflo-sync/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type SyncApi struct {
	controller *SyncController
	config     *config.Config
}

func NewSyncApi(controller *SyncController, config *config.Config) api.Route {
	return &SyncApi{
		controller: controller,
		config:     config,
	}
}

// Setup registers all sync routes
func (h *SyncApi) Setup(app *fiber.App) {
	syncGroup := app.Group("/api/hubspot/sync", middleware.AuthMiddleware(h.config.SkipAuth))

	syncGroup.Post("/", h.controller.HandleSync)
	syncGroup.Get("/logs", h.controller.ListSyncLogs)
	syncGroup.Get("/status", h.controller.GetSyncStatus)
}
