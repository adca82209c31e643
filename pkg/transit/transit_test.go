package transit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusStatusIsActive(t *testing.T) {
	assert.True(t, BusStatusOnRoute.IsActive())
	assert.True(t, BusStatus("on_route").IsActive())
	assert.True(t, BusStatus(" ON_ROUTE ").IsActive())

	assert.False(t, BusStatusIdle.IsActive())
	assert.False(t, BusStatusDelayed.IsActive())
	assert.False(t, BusStatusMaintenance.IsActive())
	assert.False(t, BusStatus("SOMETHING_NEW").IsActive())
	assert.False(t, BusStatus("").IsActive())
}

func TestBusStatusIsKnown(t *testing.T) {
	assert.True(t, BusStatus("delayed").IsKnown())
	assert.False(t, BusStatus("SCRAPPED").IsKnown())
}

func TestUserIsAdmin(t *testing.T) {
	assert.True(t, (&User{Role: "admin"}).IsAdmin())
	assert.False(t, (&User{Role: UserRoleDriver}).IsAdmin())

	var nobody *User
	assert.False(t, nobody.IsAdmin())
}

func TestRouteLabel(t *testing.T) {
	assert.Equal(t, "Express 1", (&Route{Name: "Express 1", Origin: "Kigali", Destination: "Huye"}).Label())
	assert.Equal(t, "Kigali → Huye", (&Route{Origin: "Kigali", Destination: "Huye"}).Label())
	assert.Equal(t, UnknownRouteLabel, (&Route{Origin: "Kigali"}).Label())

	var missing *Route
	assert.Equal(t, UnknownRouteLabel, missing.Label())
}

func TestRouteDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"":        0,
		"PT45M":   45 * time.Minute,
		"pt1h30m": 90 * time.Minute,
		"1h15m":   75 * time.Minute,
		"50":      50 * time.Minute,
	}

	for input, expected := range cases {
		route := Route{EstimatedDuration: input}
		parsed, err := route.Duration()

		require.NoError(t, err, input)
		assert.Equal(t, expected, parsed, input)
	}

	_, err := (&Route{EstimatedDuration: "about an hour"}).Duration()
	assert.Error(t, err)
}

func TestVehicleLocationSpeedKmh(t *testing.T) {
	location := VehicleLocation{SpeedMetersPerSecond: 10}
	assert.InDelta(t, 36.0, location.SpeedKmh(), 0.0001)

	location.SpeedMetersPerSecond = 8
	assert.InDelta(t, 28.8, location.SpeedKmh(), 0.0001)
}

func TestVehicleLocationAge(t *testing.T) {
	now := time.UnixMilli(1700000030000)

	location := VehicleLocation{UpdatedAtEpochMillis: 1700000000000}
	assert.Equal(t, 30*time.Second, location.Age(now))

	future := VehicleLocation{UpdatedAtEpochMillis: 1700000060000}
	assert.Equal(t, time.Duration(0), future.Age(now))

	unknown := VehicleLocation{}
	assert.Greater(t, unknown.Age(now), 24*time.Hour)
}
