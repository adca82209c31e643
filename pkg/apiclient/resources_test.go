package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/gopass/dashboard/pkg/transit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   map[string]interface{}
}

func newRecordingClient(t *testing.T, response string) (*Client, *[]recordedRequest) {
	t.Helper()

	requests := []recordedRequest{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		recorded := recordedRequest{Method: r.Method, Path: r.URL.EscapedPath()}

		body, _ := io.ReadAll(r.Body)
		if len(body) > 0 {
			assert.NoError(t, json.Unmarshal(body, &recorded.Body))
		}

		requests = append(requests, recorded)
		io.WriteString(w, response)
	})

	return client, &requests
}

func TestBusOperations(t *testing.T) {
	client, requests := newRecordingClient(t, `{"data":{"id":"bus-1","plateNumber":"RAD123B","status":"ON_ROUTE","driverId":"d1"}}`)
	ctx := context.Background()

	_, err := client.GetBus(ctx, "bus-1")
	require.NoError(t, err)
	_, err = client.CreateBus(ctx, BusInput{PlateNumber: "RAD123B", Capacity: 30})
	require.NoError(t, err)
	_, err = client.UpdateBus(ctx, "bus-1", BusInput{Capacity: 40})
	require.NoError(t, err)
	_, err = client.AssignDriver(ctx, "bus-1", "d1")
	require.NoError(t, err)
	bus, err := client.UpdateBusStatus(ctx, "bus-1", transit.BusStatusOnRoute)
	require.NoError(t, err)
	require.NoError(t, client.DeleteBus(ctx, "bus-1"))

	assert.Equal(t, "d1", bus.DriverID)

	expected := []recordedRequest{
		{Method: http.MethodGet, Path: "/api/buses/bus-1"},
		{Method: http.MethodPost, Path: "/api/buses", Body: map[string]interface{}{"plateNumber": "RAD123B", "capacity": float64(30)}},
		{Method: http.MethodPut, Path: "/api/buses/bus-1", Body: map[string]interface{}{"capacity": float64(40)}},
		{Method: http.MethodPost, Path: "/api/buses/bus-1/assign-driver", Body: map[string]interface{}{"driverId": "d1"}},
		{Method: http.MethodPatch, Path: "/api/buses/bus-1/status", Body: map[string]interface{}{"status": "ON_ROUTE"}},
		{Method: http.MethodDelete, Path: "/api/buses/bus-1"},
	}
	assert.Equal(t, expected, *requests)
}

func TestBookingOperations(t *testing.T) {
	client, requests := newRecordingClient(t, `{"id":"bk-1","status":"CANCELLED","seats":["A1"]}`)
	ctx := context.Background()

	booking, err := client.CancelBooking(ctx, "bk-1")
	require.NoError(t, err)
	assert.Equal(t, transit.BookingStatusCancelled, booking.Status)

	_, err = client.UpdateBookingStatus(ctx, "bk-1", transit.BookingStatusConfirmed)
	require.NoError(t, err)
	require.NoError(t, client.DeleteBooking(ctx, "bk-1"))

	assert.Equal(t, "/api/bookings/bk-1/cancel", (*requests)[0].Path)
	assert.Nil(t, (*requests)[0].Body)
	assert.Equal(t, map[string]interface{}{"status": "CONFIRMED"}, (*requests)[1].Body)
	assert.Equal(t, http.MethodDelete, (*requests)[2].Method)
}

func TestPassAndUserOperations(t *testing.T) {
	client, requests := newRecordingClient(t, `{"data":{"id":"x"}}`)
	ctx := context.Background()

	_, err := client.UpdatePassStatus(ctx, "p-1", transit.PassStatusExpired)
	require.NoError(t, err)
	require.NoError(t, client.DeletePass(ctx, "p-1"))
	_, err = client.UpdateUserRole(ctx, "u-1", transit.UserRoleDriver)
	require.NoError(t, err)
	_, err = client.UpdateProfile(ctx, transit.ProfileUpdate{Phone: "+250788000000"})
	require.NoError(t, err)

	assert.Equal(t, recordedRequest{Method: http.MethodPatch, Path: "/api/passes/p-1/status", Body: map[string]interface{}{"status": "EXPIRED"}}, (*requests)[0])
	assert.Equal(t, recordedRequest{Method: http.MethodDelete, Path: "/api/passes/p-1"}, (*requests)[1])
	assert.Equal(t, recordedRequest{Method: http.MethodPatch, Path: "/api/users/u-1/role", Body: map[string]interface{}{"role": "DRIVER"}}, (*requests)[2])
	assert.Equal(t, recordedRequest{Method: http.MethodPatch, Path: "/api/auth/profile", Body: map[string]interface{}{"phone": "+250788000000"}}, (*requests)[3])
}

func TestIdentifiersAreEscaped(t *testing.T) {
	client, requests := newRecordingClient(t, `{}`)

	_, err := client.GetRoute(context.Background(), "kigali/huye")
	require.NoError(t, err)

	assert.Equal(t, "/api/routes/kigali%2Fhuye", (*requests)[0].Path)
}

func TestInputsFromRecords(t *testing.T) {
	busInput, err := BusInputFrom(transit.Bus{ID: "bus-1", PlateNumber: "RAD123B", Status: transit.BusStatusIdle})
	require.NoError(t, err)
	assert.Equal(t, BusInput{PlateNumber: "RAD123B", Status: transit.BusStatusIdle}, busInput)

	active := true
	routeInput, err := RouteInputFrom(transit.Route{
		ID:        "r1",
		Name:      "Express",
		Price:     500,
		IsActive:  &active,
		Waypoints: json.RawMessage(`[{"lat":-1.9,"lng":30.1}]`),
	})
	require.NoError(t, err)
	encoded, err := json.Marshal(routeInput)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Express","price":500,"isActive":true,"waypoints":[{"lat":-1.9,"lng":30.1}]}`, string(encoded))

	userInput, err := UserInputFrom(transit.User{ID: "u1", Email: "a@b.c", Role: transit.UserRoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, UserInput{Email: "a@b.c", Role: transit.UserRoleAdmin}, userInput)
}
