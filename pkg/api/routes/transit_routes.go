package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gopass/dashboard/pkg/apiclient"
	"github.com/gopass/dashboard/pkg/transit"
)

// checkDuration refuses estimated durations the dashboard could not read back
func checkDuration(input apiclient.RouteInput) error {
	route := transit.Route{EstimatedDuration: input.EstimatedDuration}
	if _, err := route.Duration(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid estimatedDuration "+input.EstimatedDuration)
	}

	return nil
}

func RoutesRouter(router fiber.Router, client *apiclient.Client) {
	router.Get("/", func(c *fiber.Ctx) error {
		routes, err := client.ListRoutes(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(routes)
	})

	router.Get("/:id", func(c *fiber.Ctx) error {
		route, err := client.GetRoute(c.UserContext(), c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(route)
	})

	router.Post("/", func(c *fiber.Ctx) error {
		var input apiclient.RouteInput
		if err := parseBody(c, &input); err != nil {
			return err
		}
		if err := checkDuration(input); err != nil {
			return err
		}

		route, err := client.CreateRoute(c.UserContext(), input)
		return created(c, route, err)
	})

	router.Put("/:id", func(c *fiber.Ctx) error {
		var input apiclient.RouteInput
		if err := parseBody(c, &input); err != nil {
			return err
		}
		if err := checkDuration(input); err != nil {
			return err
		}

		route, err := client.UpdateRoute(c.UserContext(), c.Params("id"), input)
		if err != nil {
			return err
		}
		return c.JSON(route)
	})

	router.Patch("/:id", func(c *fiber.Ctx) error {
		current, err := client.GetRoute(c.UserContext(), c.Params("id"))
		if err != nil {
			return err
		}

		input, err := apiclient.RouteInputFrom(*current)
		if err != nil {
			return err
		}

		var patch apiclient.RouteInput
		if err := mergeBody(c, &input, &patch); err != nil {
			return err
		}
		if err := checkDuration(input); err != nil {
			return err
		}

		route, err := client.UpdateRoute(c.UserContext(), c.Params("id"), input)
		if err != nil {
			return err
		}
		return c.JSON(route)
	})

	router.Delete("/:id", func(c *fiber.Ctx) error {
		return noContent(c, client.DeleteRoute(c.UserContext(), c.Params("id")))
	})
}
