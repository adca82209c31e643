package transit

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusActive    BookingStatus = "ACTIVE"
	BookingStatusUsed      BookingStatus = "USED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

type BookingUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type Booking struct {
	ID          string        `json:"id"`
	UserID      string        `json:"userId"`
	RouteID     string        `json:"routeId"`
	BusID       string        `json:"busId,omitempty"`
	Seats       []string      `json:"seats"`
	TotalAmount float64       `json:"totalAmount"`
	Status      BookingStatus `json:"status"`
	BookingDate string        `json:"bookingDate"`
	TravelDate  string        `json:"travelDate"`
	QRCode      string        `json:"qrCode"`
	Route       *Route        `json:"route,omitempty"`
	User        *BookingUser  `json:"user,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}
