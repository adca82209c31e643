package transit

type RecentBooking struct {
	ID          string  `json:"id"`
	Status      string  `json:"status"`
	TotalAmount float64 `json:"totalAmount"`
	TravelDate  string  `json:"travelDate"`
	User        *struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user,omitempty"`
	Route *struct {
		Name        string `json:"name"`
		Origin      string `json:"origin"`
		Destination string `json:"destination"`
	} `json:"route,omitempty"`
}

type DashboardStats struct {
	TotalUsers     int             `json:"totalUsers"`
	ActiveBuses    int             `json:"activeBuses"`
	TotalBookings  int             `json:"totalBookings"`
	ActivePasses   int             `json:"activePasses"`
	TotalRevenue   float64         `json:"totalRevenue"`
	RecentBookings []RecentBooking `json:"recentBookings"`
}
