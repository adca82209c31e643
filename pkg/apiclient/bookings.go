package apiclient

import (
	"context"

	"github.com/gopass/dashboard/pkg/transit"
)

func (c *Client) ListBookings(ctx context.Context) ([]transit.Booking, error) {
	bookings := []transit.Booking{}
	err := c.get(ctx, "/bookings", &bookings)

	return bookings, err
}

func (c *Client) GetBooking(ctx context.Context, id string) (*transit.Booking, error) {
	var booking transit.Booking
	if err := c.get(ctx, resourcePath("/bookings", id), &booking); err != nil {
		return nil, err
	}

	return &booking, nil
}

func (c *Client) CreateBooking(ctx context.Context, input BookingInput) (*transit.Booking, error) {
	var booking transit.Booking
	if err := c.post(ctx, "/bookings", input, &booking); err != nil {
		return nil, err
	}

	return &booking, nil
}

func (c *Client) UpdateBookingStatus(ctx context.Context, id string, status transit.BookingStatus) (*transit.Booking, error) {
	var booking transit.Booking
	if err := c.patch(ctx, resourcePath("/bookings", id, "status"), map[string]transit.BookingStatus{"status": status}, &booking); err != nil {
		return nil, err
	}

	return &booking, nil
}

func (c *Client) CancelBooking(ctx context.Context, id string) (*transit.Booking, error) {
	var booking transit.Booking
	if err := c.post(ctx, resourcePath("/bookings", id, "cancel"), nil, &booking); err != nil {
		return nil, err
	}

	return &booking, nil
}

func (c *Client) DeleteBooking(ctx context.Context, id string) error {
	return c.delete(ctx, resourcePath("/bookings", id))
}
