package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gopass/dashboard/pkg/tracking"
)

func TrackingRouter(router fiber.Router, view *tracking.View, captureTimeout time.Duration) {
	router.Get("/", func(c *fiber.Ctx) error {
		board := tracking.Capture(c.UserContext(), view, captureTimeout)

		boardReduced, err := tracking.Reduce(board, c.Query("groups", tracking.GroupBasic))
		if err != nil {
			c.SendStatus(fiber.StatusInternalServerError)
			return c.JSON(fiber.Map{
				"error": "Could not reduce tracking board",
			})
		}

		return c.JSON(boardReduced)
	})
}
