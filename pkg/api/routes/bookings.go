package routes

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gopass/dashboard/pkg/apiclient"
	"github.com/gopass/dashboard/pkg/transit"
)

type bookingStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func BookingsRouter(router fiber.Router, client *apiclient.Client) {
	router.Get("/", func(c *fiber.Ctx) error {
		bookings, err := client.ListBookings(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(bookings)
	})

	router.Get("/:id", func(c *fiber.Ctx) error {
		booking, err := client.GetBooking(c.UserContext(), c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(booking)
	})

	router.Post("/", func(c *fiber.Ctx) error {
		var input apiclient.BookingInput
		if err := parseBody(c, &input); err != nil {
			return err
		}

		booking, err := client.CreateBooking(c.UserContext(), input)
		return created(c, booking, err)
	})

	router.Patch("/:id/status", func(c *fiber.Ctx) error {
		var body bookingStatusRequest
		if err := parseBody(c, &body); err != nil {
			return err
		}

		status := transit.BookingStatus(strings.ToUpper(strings.TrimSpace(body.Status)))
		booking, err := client.UpdateBookingStatus(c.UserContext(), c.Params("id"), status)
		if err != nil {
			return err
		}
		return c.JSON(booking)
	})

	router.Post("/:id/cancel", func(c *fiber.Ctx) error {
		booking, err := client.CancelBooking(c.UserContext(), c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(booking)
	})

	router.Delete("/:id", func(c *fiber.Ctx) error {
		return noContent(c, client.DeleteBooking(c.UserContext(), c.Params("id")))
	})
}
