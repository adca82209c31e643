package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gopass/dashboard/pkg/api/stats"
	"github.com/gopass/dashboard/pkg/apiclient"
)

func StatsRouter(router fiber.Router, cache *stats.Cache, client *apiclient.Client) {
	router.Get("/", func(c *fiber.Ctx) error {
		dashboardStats, err := cache.Get(c.UserContext(), client.GetStats)
		if err != nil {
			return err
		}
		return c.JSON(dashboardStats)
	})

	router.Post("/refresh", func(c *fiber.Ctx) error {
		cache.Invalidate(c.UserContext())

		dashboardStats, err := cache.Get(c.UserContext(), client.GetStats)
		if err != nil {
			return err
		}
		return c.JSON(dashboardStats)
	})
}
