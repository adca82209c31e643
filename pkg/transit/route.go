package transit

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/senseyeio/duration"
)

const UnknownRouteLabel = "Unknown Route"

type Route struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Origin            string          `json:"origin"`
	Destination       string          `json:"destination"`
	Distance          float64         `json:"distance"`
	EstimatedDuration string          `json:"estimatedDuration"`
	Price             float64         `json:"price"`
	IsActive          *bool           `json:"isActive,omitempty"`
	Waypoints         json.RawMessage `json:"waypoints,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// Label is the human readable name of the route, falling back to its end points
func (r *Route) Label() string {
	if r == nil {
		return UnknownRouteLabel
	}

	if name := strings.TrimSpace(r.Name); name != "" {
		return name
	}

	if r.Origin != "" && r.Destination != "" {
		return fmt.Sprintf("%s → %s", r.Origin, r.Destination)
	}

	return UnknownRouteLabel
}

// Duration interprets EstimatedDuration. The backend has been seen sending ISO-8601
// durations (PT45M), Go style durations (1h30m) and bare minute counts (45).
func (r *Route) Duration() (time.Duration, error) {
	value := strings.TrimSpace(r.EstimatedDuration)
	if value == "" {
		return 0, nil
	}

	if strings.HasPrefix(strings.ToUpper(value), "P") {
		isoDuration, err := duration.ParseISO8601(strings.ToUpper(value))
		if err != nil {
			return 0, err
		}

		reference := time.Unix(0, 0).UTC()
		return isoDuration.Shift(reference).Sub(reference), nil
	}

	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute, nil
	}

	return time.ParseDuration(value)
}
