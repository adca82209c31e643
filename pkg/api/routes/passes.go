package routes

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gopass/dashboard/pkg/apiclient"
	"github.com/gopass/dashboard/pkg/transit"
)

type passStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func PassesRouter(router fiber.Router, client *apiclient.Client) {
	router.Get("/", func(c *fiber.Ctx) error {
		passes, err := client.ListPasses(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(passes)
	})

	router.Get("/:id", func(c *fiber.Ctx) error {
		pass, err := client.GetPass(c.UserContext(), c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(pass)
	})

	router.Patch("/:id/status", func(c *fiber.Ctx) error {
		var body passStatusRequest
		if err := parseBody(c, &body); err != nil {
			return err
		}

		status := transit.PassStatus(strings.ToUpper(strings.TrimSpace(body.Status)))
		pass, err := client.UpdatePassStatus(c.UserContext(), c.Params("id"), status)
		if err != nil {
			return err
		}
		return c.JSON(pass)
	})

	router.Delete("/:id", func(c *fiber.Ctx) error {
		return noContent(c, client.DeletePass(c.UserContext(), c.Params("id")))
	})
}
