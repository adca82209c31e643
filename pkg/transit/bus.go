package transit

import (
	"strings"
	"time"
)

type BusStatus string

const (
	BusStatusIdle        BusStatus = "IDLE"
	BusStatusOnRoute     BusStatus = "ON_ROUTE"
	BusStatusDelayed     BusStatus = "DELAYED"
	BusStatusMaintenance BusStatus = "MAINTENANCE"
)

// ParseBusStatus normalises case and whitespace. Unknown values are kept as they are so
// they can still be displayed, they just never count as active.
func ParseBusStatus(status string) BusStatus {
	return BusStatus(strings.ToUpper(strings.TrimSpace(status)))
}

// IsActive reports whether a bus in this status is expected to be reporting its location
func (s BusStatus) IsActive() bool {
	return ParseBusStatus(string(s)) == BusStatusOnRoute
}

func (s BusStatus) IsKnown() bool {
	switch ParseBusStatus(string(s)) {
	case BusStatusIdle, BusStatusOnRoute, BusStatusDelayed, BusStatusMaintenance:
		return true
	}

	return false
}

type Bus struct {
	ID          string    `json:"id"`
	PlateNumber string    `json:"plateNumber"`
	Capacity    int       `json:"capacity"`
	Status      BusStatus `json:"status"`
	RouteID     string    `json:"routeId,omitempty"`
	DriverID    string    `json:"driverId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (b Bus) IsActive() bool {
	return b.Status.IsActive()
}
