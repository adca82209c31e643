package routes

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/copier"
)

var validate = validator.New()

// parseBody decodes the request body into out and runs its validate tags
func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Could not parse request body")
	}

	if err := validate.Struct(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return nil
}

// mergeBody parses a partial update into patch and lays its non-empty fields over current
func mergeBody(c *fiber.Ctx, current interface{}, patch interface{}) error {
	if err := parseBody(c, patch); err != nil {
		return err
	}

	if err := copier.CopyWithOption(current, patch, copier.Option{IgnoreEmpty: true}); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Could not merge request body")
	}

	return nil
}

func noContent(c *fiber.Ctx, err error) error {
	if err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func created(c *fiber.Ctx, record interface{}, err error) error {
	if err != nil {
		return err
	}

	c.Status(fiber.StatusCreated)
	return c.JSON(record)
}
