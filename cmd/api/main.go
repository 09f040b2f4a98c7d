package main

import (
	"context"
	"fmt"
	"log"

	common_api "ticketflo-sync/internal/common/api"
	"ticketflo-sync/internal/config"
	"ticketflo-sync/internal/database"
	"ticketflo-sync/internal/features/connection"
	"ticketflo-sync/internal/features/contact"
	"ticketflo-sync/internal/features/mapping"
	"ticketflo-sync/internal/features/scheduler"
	"ticketflo-sync/internal/features/sync"
	"ticketflo-sync/internal/features/system"
	"ticketflo-sync/internal/hubspot"
	"ticketflo-sync/internal/logger"
	"ticketflo-sync/internal/middleware"
	"ticketflo-sync/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware())

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	for _, route := range routes {
		route.Setup(app)
	}
	log.Printf("Registered %d routes\n", len(routes))
}

// RegisterAllRoutesWithAnnotation wraps RegisterAllRoutes with fx annotations
var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

func main() {
	app := fx.New(
		fx.Provide(
			// Load Config
			config.LoadConfig,

			// Initialize Logger
			logger.NewLogger,

			// Initialize Fiber Server
			NewFiberServer,

			// Initialize Database
			database.NewDatabase,

			// HubSpot API client
			hubspot.NewClient,

			// Initialize Repositories
			connection.NewConnectionRepository,
			contact.NewContactRepository,
			mapping.NewFieldMappingRepository,
			mapping.NewContactMappingRepository,
			sync.NewSyncLogRepository,

			// Initialize Services
			connection.NewTokenManager,
			mapping.NewFieldMapper,
			sync.NewConflictResolver,
			sync.NewSyncService,
			scheduler.NewScheduler,

			// Initialize Controllers
			sync.NewSyncController,

			// Initialize API Routes
			AsRoute(sync.NewSyncApi),
			AsRoute(system.NewHealthApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			func(cfg *config.Config) {
				utils.SetSecret(cfg.JWTSecret)
			},

			// Register Routes & Start
			RegisterAllRoutesWithAnnotation,
			StartServer,
			func(lc fx.Lifecycle, sched *scheduler.Scheduler) {
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						return sched.Start(ctx)
					},
					OnStop: func(ctx context.Context) error {
						return sched.Stop()
					},
				})
			},
		),
	)

	app.Run()
}
