package apiclient

import (
	"context"

	"github.com/gopass/dashboard/pkg/transit"
)

func (c *Client) ListBuses(ctx context.Context) ([]transit.Bus, error) {
	buses := []transit.Bus{}
	err := c.get(ctx, "/buses", &buses)

	return buses, err
}

func (c *Client) GetBus(ctx context.Context, id string) (*transit.Bus, error) {
	var bus transit.Bus
	if err := c.get(ctx, resourcePath("/buses", id), &bus); err != nil {
		return nil, err
	}

	return &bus, nil
}

func (c *Client) CreateBus(ctx context.Context, input BusInput) (*transit.Bus, error) {
	var bus transit.Bus
	if err := c.post(ctx, "/buses", input, &bus); err != nil {
		return nil, err
	}

	return &bus, nil
}

func (c *Client) UpdateBus(ctx context.Context, id string, input BusInput) (*transit.Bus, error) {
	var bus transit.Bus
	if err := c.put(ctx, resourcePath("/buses", id), input, &bus); err != nil {
		return nil, err
	}

	return &bus, nil
}

func (c *Client) DeleteBus(ctx context.Context, id string) error {
	return c.delete(ctx, resourcePath("/buses", id))
}

func (c *Client) AssignDriver(ctx context.Context, busID string, driverID string) (*transit.Bus, error) {
	var bus transit.Bus
	if err := c.post(ctx, resourcePath("/buses", busID, "assign-driver"), map[string]string{"driverId": driverID}, &bus); err != nil {
		return nil, err
	}

	return &bus, nil
}

func (c *Client) UpdateBusStatus(ctx context.Context, id string, status transit.BusStatus) (*transit.Bus, error) {
	var bus transit.Bus
	if err := c.patch(ctx, resourcePath("/buses", id, "status"), map[string]transit.BusStatus{"status": status}, &bus); err != nil {
		return nil, err
	}

	return &bus, nil
}
