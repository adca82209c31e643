package transit

import (
	"time"

	"github.com/gopass/dashboard/pkg/util"
)

// MetersPerSecondToKmh is the factor between the feed's speed unit and the displayed one
const MetersPerSecondToKmh = 3.6

// VehicleLocation is the last known position of a vehicle as reported by the realtime feed
type VehicleLocation struct {
	VehicleID            string  `json:"vehicleId"`
	Latitude             float64 `json:"latitude"`
	Longitude            float64 `json:"longitude"`
	SpeedMetersPerSecond float64 `json:"speedMetersPerSecond"`
	Heading              float64 `json:"heading"`
	Accuracy             float64 `json:"accuracy"`
	UpdatedAtEpochMillis int64   `json:"updatedAtEpochMillis"`
}

func (l *VehicleLocation) SpeedKmh() float64 {
	return l.SpeedMetersPerSecond * MetersPerSecondToKmh
}

func (l *VehicleLocation) UpdatedAt() time.Time {
	return util.FromEpochMillis(l.UpdatedAtEpochMillis)
}

// Age is how long ago the location was recorded. Unknown timestamps are treated as
// infinitely old.
func (l *VehicleLocation) Age(now time.Time) time.Duration {
	updatedAt := l.UpdatedAt()
	if updatedAt.IsZero() {
		return time.Duration(1<<63 - 1)
	}

	age := now.Sub(updatedAt)
	if age < 0 {
		return 0
	}

	return age
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
