package transit

import "time"

type PassType string

const (
	PassTypeWeekly  PassType = "WEEKLY"
	PassTypeMonthly PassType = "MONTHLY"
)

type PassStatus string

const (
	PassStatusActive  PassStatus = "ACTIVE"
	PassStatusExpired PassStatus = "EXPIRED"
)

type Pass struct {
	ID           string     `json:"id"`
	UserID       string     `json:"userId"`
	Type         PassType   `json:"type"`
	Name         string     `json:"name"`
	Status       PassStatus `json:"status"`
	PurchaseDate string     `json:"purchaseDate"`
	ExpiryDate   string     `json:"expiryDate"`
	Price        float64    `json:"price"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}
