package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gopass/dashboard/pkg/apiclient"
	"github.com/gopass/dashboard/pkg/transit"
)

type assignDriverRequest struct {
	DriverID string `json:"driverId" validate:"required"`
}

type busStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func BusesRouter(router fiber.Router, client *apiclient.Client) {
	router.Get("/", func(c *fiber.Ctx) error {
		buses, err := client.ListBuses(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(buses)
	})

	router.Get("/:id", func(c *fiber.Ctx) error {
		bus, err := client.GetBus(c.UserContext(), c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(bus)
	})

	router.Post("/", func(c *fiber.Ctx) error {
		var input apiclient.BusInput
		if err := parseBody(c, &input); err != nil {
			return err
		}

		bus, err := client.CreateBus(c.UserContext(), input)
		return created(c, bus, err)
	})

	router.Put("/:id", func(c *fiber.Ctx) error {
		var input apiclient.BusInput
		if err := parseBody(c, &input); err != nil {
			return err
		}

		bus, err := client.UpdateBus(c.UserContext(), c.Params("id"), input)
		if err != nil {
			return err
		}
		return c.JSON(bus)
	})

	router.Patch("/:id", func(c *fiber.Ctx) error {
		current, err := client.GetBus(c.UserContext(), c.Params("id"))
		if err != nil {
			return err
		}

		input, err := apiclient.BusInputFrom(*current)
		if err != nil {
			return err
		}

		var patch apiclient.BusInput
		if err := mergeBody(c, &input, &patch); err != nil {
			return err
		}

		bus, err := client.UpdateBus(c.UserContext(), c.Params("id"), input)
		if err != nil {
			return err
		}
		return c.JSON(bus)
	})

	router.Post("/:id/assign-driver", func(c *fiber.Ctx) error {
		var body assignDriverRequest
		if err := parseBody(c, &body); err != nil {
			return err
		}

		bus, err := client.AssignDriver(c.UserContext(), c.Params("id"), body.DriverID)
		if err != nil {
			return err
		}
		return c.JSON(bus)
	})

	router.Patch("/:id/status", func(c *fiber.Ctx) error {
		var body busStatusRequest
		if err := parseBody(c, &body); err != nil {
			return err
		}

		status := transit.ParseBusStatus(body.Status)
		if !status.IsKnown() {
			return fiber.NewError(fiber.StatusBadRequest, "Unknown bus status "+body.Status)
		}

		bus, err := client.UpdateBusStatus(c.UserContext(), c.Params("id"), status)
		if err != nil {
			return err
		}
		return c.JSON(bus)
	})

	router.Delete("/:id", func(c *fiber.Ctx) error {
		return noContent(c, client.DeleteBus(c.UserContext(), c.Params("id")))
	})
}
