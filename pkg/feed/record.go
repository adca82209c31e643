package feed

import (
	"encoding/json"
	"math"
)

// RecordLocation is the nested location block written by the driver app
type RecordLocation struct {
	Lat       *float64 `json:"lat"`
	Lng       *float64 `json:"lng"`
	Speed     float64  `json:"speed"`
	Heading   float64  `json:"heading"`
	Accuracy  float64  `json:"accuracy"`
	UpdatedAt float64  `json:"updatedAt"`
}

// Record is one vehicle entry of a feed snapshot. Two shapes are in the wild: the driver app
// writes display fields and a nested location block, older publishers only write flat
// lat/lng fields. Both decode into the same struct.
type Record struct {
	ID          string  `json:"id"`
	PlateNumber string  `json:"plateNumber"`
	RouteID     *string `json:"routeId"`
	RouteName   string  `json:"routeName"`
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	Status      string  `json:"status"`
	DriverID    string  `json:"driverId"`
	DriverName  string  `json:"driverName"`
	StartedAt   float64 `json:"startedAt"`
	LastUpdated float64 `json:"lastUpdated"`

	Location *RecordLocation `json:"location"`

	Lat       *float64 `json:"lat"`
	Lng       *float64 `json:"lng"`
	Speed     float64  `json:"speed"`
	Heading   float64  `json:"heading"`
	Accuracy  float64  `json:"accuracy"`
	UpdatedAt float64  `json:"updatedAt"`
}

func DecodeRecord(raw json.RawMessage) (*Record, error) {
	var record Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, err
	}

	return &record, nil
}

// Position returns the location carried by the record in either shape, nil when it carries
// none or the coordinates are not usable
func (r *Record) Position() *RecordLocation {
	position := r.Location

	if position == nil && r.Lat != nil && r.Lng != nil {
		position = &RecordLocation{
			Lat:       r.Lat,
			Lng:       r.Lng,
			Speed:     r.Speed,
			Heading:   r.Heading,
			Accuracy:  r.Accuracy,
			UpdatedAt: r.UpdatedAt,
		}
	}

	if position == nil || position.Lat == nil || position.Lng == nil {
		return nil
	}

	lat, lng := *position.Lat, *position.Lng
	if math.IsNaN(lat) || math.IsNaN(lng) || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil
	}

	if position.UpdatedAt == 0 && r.LastUpdated != 0 {
		withFallback := *position
		withFallback.UpdatedAt = r.LastUpdated
		position = &withFallback
	}

	return position
}

func (r *Record) RouteRef() string {
	if r.RouteID == nil {
		return ""
	}

	return *r.RouteID
}
