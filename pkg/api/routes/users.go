package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gopass/dashboard/pkg/apiclient"
	"github.com/gopass/dashboard/pkg/transit"
)

type roleRequest struct {
	Role string `json:"role" validate:"required,oneof=ADMIN DRIVER PASSENGER admin driver passenger"`
}

func UsersRouter(router fiber.Router, client *apiclient.Client) {
	router.Get("/", func(c *fiber.Ctx) error {
		users, err := client.ListUsers(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(users)
	})

	router.Get("/:id", func(c *fiber.Ctx) error {
		user, err := client.GetUser(c.UserContext(), c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(user)
	})

	router.Post("/", func(c *fiber.Ctx) error {
		var input apiclient.UserInput
		if err := parseBody(c, &input); err != nil {
			return err
		}

		user, err := client.CreateUser(c.UserContext(), input)
		return created(c, user, err)
	})

	router.Put("/:id", func(c *fiber.Ctx) error {
		var input apiclient.UserInput
		if err := parseBody(c, &input); err != nil {
			return err
		}

		user, err := client.UpdateUser(c.UserContext(), c.Params("id"), input)
		if err != nil {
			return err
		}
		return c.JSON(user)
	})

	router.Patch("/:id", func(c *fiber.Ctx) error {
		current, err := client.GetUser(c.UserContext(), c.Params("id"))
		if err != nil {
			return err
		}

		input, err := apiclient.UserInputFrom(*current)
		if err != nil {
			return err
		}

		var patch apiclient.UserInput
		if err := mergeBody(c, &input, &patch); err != nil {
			return err
		}

		user, err := client.UpdateUser(c.UserContext(), c.Params("id"), input)
		if err != nil {
			return err
		}
		return c.JSON(user)
	})

	router.Patch("/:id/role", func(c *fiber.Ctx) error {
		var body roleRequest
		if err := parseBody(c, &body); err != nil {
			return err
		}

		user, err := client.UpdateUserRole(c.UserContext(), c.Params("id"), transit.ParseUserRole(body.Role))
		if err != nil {
			return err
		}
		return c.JSON(user)
	})

	router.Delete("/:id", func(c *fiber.Ctx) error {
		return noContent(c, client.DeleteUser(c.UserContext(), c.Params("id")))
	})
}
