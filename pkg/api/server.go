package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gopass/dashboard/pkg/api/routes"
	"github.com/gopass/dashboard/pkg/api/stats"
	"github.com/gopass/dashboard/pkg/apiclient"
	"github.com/gopass/dashboard/pkg/session"
	"github.com/gopass/dashboard/pkg/tracking"
)

type Dependencies struct {
	API       *apiclient.Client
	Session   *session.Session
	Validator session.TokenValidator
	View      *tracking.View
	Stats     *stats.Cache

	// How long GET /tracking waits for the roster and a first snapshot when no one is watching
	CaptureTimeout time.Duration

	// Origins allowed to open the live socket, same origin only when empty
	AllowedOrigins []string
}

func NewApp(deps Dependencies) *fiber.App {
	webApp := fiber.New(fiber.Config{
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})
	webApp.Use(NewLogger())

	group := webApp.Group("/dashboard")

	group.Get("version", routes.APIVersion)

	admin := []fiber.Handler{EnsureValidToken(deps.Validator), RequireOperator(deps.Session)}

	routes.AuthRouter(group.Group("/auth"), deps.Session, deps.API, admin...)

	records := append(append([]fiber.Handler{}, admin...), InvalidateStatsOnWrite(deps.Stats))

	routes.UsersRouter(group.Group("/users", records...), deps.API)
	routes.BusesRouter(group.Group("/buses", records...), deps.API)
	routes.RoutesRouter(group.Group("/routes", records...), deps.API)
	routes.BookingsRouter(group.Group("/bookings", records...), deps.API)
	routes.PassesRouter(group.Group("/passes", records...), deps.API)
	routes.StatsRouter(group.Group("/stats", admin...), deps.Stats, deps.API)
	routes.TrackingRouter(group.Group("/tracking", admin...), deps.View, deps.CaptureTimeout)

	return webApp
}

// InvalidateStatsOnWrite drops the cached statistics once a write to the records succeeds
func InvalidateStatsOnWrite(cache *stats.Cache) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := c.Next(); err != nil {
			return err
		}

		if c.Method() != fiber.MethodGet && c.Response().StatusCode() < fiber.StatusBadRequest {
			cache.Invalidate(c.UserContext())
		}

		return nil
	}
}
