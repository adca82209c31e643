package feed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/alicebob/miniredis/v2"
	"github.com/gopass/dashboard/pkg/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
)

func TestDecodeSnapshot(t *testing.T) {
	now := time.Now()

	snapshot, err := DecodeSnapshot("buses", []byte("null"), now)
	require.NoError(t, err)
	assert.False(t, snapshot.Exists)
	assert.Empty(t, snapshot.Records)

	snapshot, err = DecodeSnapshot("buses", nil, now)
	require.NoError(t, err)
	assert.False(t, snapshot.Exists)

	snapshot, err = DecodeSnapshot("buses", []byte(`{"bus-1":{"lat":1,"lng":2},"bus-2":null}`), now)
	require.NoError(t, err)
	assert.True(t, snapshot.Exists)
	assert.Len(t, snapshot.Records, 1)
	assert.Contains(t, snapshot.Records, "bus-1")
	assert.Equal(t, now, snapshot.ReceivedAt)

	_, err = DecodeSnapshot("buses", []byte(`[1,2,3]`), now)
	assert.Error(t, err)
}

func TestRecordPosition(t *testing.T) {
	flat, err := DecodeRecord(json.RawMessage(`{"lat":-1.95,"lng":30.06,"speed":8,"heading":90,"updatedAt":1700000000000}`))
	require.NoError(t, err)
	position := flat.Position()
	require.NotNil(t, position)
	assert.Equal(t, -1.95, *position.Lat)
	assert.Equal(t, 8.0, position.Speed)
	assert.Equal(t, 1700000000000.0, position.UpdatedAt)

	nested, err := DecodeRecord(json.RawMessage(`{"plateNumber":"RAD123B","status":"ON_ROUTE","routeId":"r1","lastUpdated":42,"location":{"lat":-1.9,"lng":30.1,"speed":5}}`))
	require.NoError(t, err)
	position = nested.Position()
	require.NotNil(t, position)
	assert.Equal(t, 30.1, *position.Lng)
	assert.Equal(t, 42.0, position.UpdatedAt)
	assert.Equal(t, "r1", nested.RouteRef())

	missing, err := DecodeRecord(json.RawMessage(`{"plateNumber":"RAD123B","location":{"speed":5}}`))
	require.NoError(t, err)
	assert.Nil(t, missing.Position())
	assert.Equal(t, "", missing.RouteRef())

	outOfRange, err := DecodeRecord(json.RawMessage(`{"lat":120,"lng":30}`))
	require.NoError(t, err)
	assert.Nil(t, outOfRange.Position())
}

type scriptedSource struct {
	mu      sync.Mutex
	watches int
	watch   func(ctx context.Context, attempt int, emit func(Snapshot)) error
}

func (s *scriptedSource) Watch(ctx context.Context, path string, emit func(Snapshot)) error {
	s.mu.Lock()
	s.watches++
	attempt := s.watches
	s.mu.Unlock()

	return s.watch(ctx, attempt, emit)
}

func (s *scriptedSource) Watches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watches
}

func fastReconnect() ReconnectOptions {
	return ReconnectOptions{InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}
}

func TestSubscriptionDeliversSnapshots(t *testing.T) {
	source := &scriptedSource{watch: func(ctx context.Context, attempt int, emit func(Snapshot)) error {
		emit(Snapshot{Path: "buses", Exists: true})
		<-ctx.Done()
		return ctx.Err()
	}}

	subscription := Subscribe(context.Background(), source, "buses", fastReconnect())
	defer subscription.Close()

	select {
	case snapshot := <-subscription.Snapshots():
		assert.Equal(t, "buses", snapshot.Path)
		assert.True(t, snapshot.Exists)
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}
}

func TestSubscriptionReconnectsAfterError(t *testing.T) {
	source := &scriptedSource{watch: func(ctx context.Context, attempt int, emit func(Snapshot)) error {
		if attempt == 1 {
			return errors.New("connection reset")
		}
		emit(Snapshot{Path: "buses", Exists: true})
		<-ctx.Done()
		return ctx.Err()
	}}

	subscription := Subscribe(context.Background(), source, "buses", fastReconnect())
	defer subscription.Close()

	select {
	case err := <-subscription.Errors():
		assert.EqualError(t, err, "connection reset")
	case <-time.After(time.Second):
		t.Fatal("no error reported")
	}

	select {
	case <-subscription.Snapshots():
	case <-time.After(time.Second):
		t.Fatal("no snapshot after reconnect")
	}

	assert.Equal(t, 2, source.Watches())
}

func TestSubscriptionGivesUp(t *testing.T) {
	source := &scriptedSource{watch: func(ctx context.Context, attempt int, emit func(Snapshot)) error {
		return errors.New("permission denied")
	}}

	reconnect := fastReconnect()
	reconnect.MaxElapsedTime = 20 * time.Millisecond
	subscription := Subscribe(context.Background(), source, "buses", reconnect)
	defer subscription.Close()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case err := <-subscription.Errors():
			if errors.Is(err, ErrClosed) {
				return
			}
		case <-deadline:
			t.Fatal("subscription never gave up")
		}
	}
}

func TestSubscriptionCloseIsIdempotentAndFinal(t *testing.T) {
	var emitted atomic.Int32
	source := &scriptedSource{watch: func(ctx context.Context, attempt int, emit func(Snapshot)) error {
		ticker := time.NewTicker(time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				emitted.Add(1)
				emit(Snapshot{Path: "buses"})
			}
		}
	}}

	subscription := Subscribe(context.Background(), source, "buses", fastReconnect())

	assert.Eventually(t, func() bool { return emitted.Load() > 3 }, time.Second, time.Millisecond)

	subscription.Close()
	subscription.Close()

	for range subscription.Snapshots() {
	}
	_, open := <-subscription.Snapshots()
	assert.False(t, open)

	after := emitted.Load()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, after, emitted.Load())
}

type fakeReference struct {
	mu      sync.Mutex
	etag    string
	value   string
	pollErr error
}

func (f *fakeReference) set(etag, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.etag, f.value = etag, value
}

func (f *fakeReference) GetWithETag(ctx context.Context, v interface{}) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.etag, json.Unmarshal([]byte(f.value), v)
}

func (f *fakeReference) GetIfChanged(ctx context.Context, etag string, v interface{}) (bool, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pollErr != nil {
		return false, "", f.pollErr
	}
	if etag == f.etag {
		return false, etag, nil
	}
	return true, f.etag, json.Unmarshal([]byte(f.value), v)
}

func TestFirebaseSourceEmitsOnlyChanges(t *testing.T) {
	reference := &fakeReference{etag: "a", value: `{"bus-1":{"lat":1,"lng":2}}`}
	source := &FirebaseSource{
		reference:    func(path string) etagReference { return reference },
		pollInterval: time.Millisecond,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snapshots := make(chan Snapshot, 16)
	go source.Watch(ctx, "buses", func(s Snapshot) { snapshots <- s })

	first := <-snapshots
	assert.Contains(t, first.Records, "bus-1")

	time.Sleep(10 * time.Millisecond)
	assert.Len(t, snapshots, 0)

	reference.set("b", `null`)
	select {
	case second := <-snapshots:
		assert.False(t, second.Exists)
	case <-time.After(time.Second):
		t.Fatal("change not emitted")
	}
}

func TestFirebaseSourceReturnsPollError(t *testing.T) {
	reference := &fakeReference{etag: "a", value: `{}`, pollErr: errors.New("unauthorized")}
	source := &FirebaseSource{
		reference:    func(path string) etagReference { return reference },
		pollInterval: time.Millisecond,
	}

	err := source.Watch(context.Background(), "buses", func(Snapshot) {})
	assert.EqualError(t, err, "unauthorized")
}

func TestRedisSource(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snapshots := make(chan Snapshot, 16)
	source := &RedisSource{Client: client}
	go source.Watch(ctx, "buses", func(s Snapshot) { snapshots <- s })

	select {
	case initial := <-snapshots:
		assert.False(t, initial.Exists)
	case <-time.After(time.Second):
		t.Fatal("no initial snapshot")
	}

	require.NoError(t, Publish(ctx, client, "buses", []byte(`{"bus-1":{"lat":-1.9,"lng":30.1}}`)))

	select {
	case changed := <-snapshots:
		assert.True(t, changed.Exists)
		assert.Contains(t, changed.Records, "bus-1")
	case <-time.After(time.Second):
		t.Fatal("no snapshot after publish")
	}

	assert.Error(t, Publish(ctx, client, "buses", []byte(`"not an object"`)))
}

func TestGTFSRTSource(t *testing.T) {
	message := &gtfs.FeedMessage{
		Header: &gtfs.FeedHeader{
			GtfsRealtimeVersion: proto.String("2.0"),
			Timestamp:           proto.Uint64(1700000000),
		},
		Entity: []*gtfs.FeedEntity{
			{
				Id: proto.String("e1"),
				Vehicle: &gtfs.VehiclePosition{
					Vehicle:   &gtfs.VehicleDescriptor{Id: proto.String("bus-1"), LicensePlate: proto.String("RAD123B")},
					Trip:      &gtfs.TripDescriptor{RouteId: proto.String("r1")},
					Position:  &gtfs.Position{Latitude: proto.Float32(-1.95), Longitude: proto.Float32(30.06), Speed: proto.Float32(8)},
					Timestamp: proto.Uint64(1700000000),
				},
			},
			{
				Id:      proto.String("e2"),
				Vehicle: &gtfs.VehiclePosition{Vehicle: &gtfs.VehicleDescriptor{Id: proto.String("bus-2")}},
			},
		},
	}
	body, err := proto.Marshal(message)
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := &GTFSRTSource{URL: server.URL, PollInterval: time.Millisecond, HTTPClient: server.Client()}
	snapshots := make(chan Snapshot, 16)
	go source.Watch(ctx, "buses", func(s Snapshot) { snapshots <- s })

	snapshot := <-snapshots
	require.Len(t, snapshot.Records, 1)

	record, err := DecodeRecord(snapshot.Records["bus-1"])
	require.NoError(t, err)
	assert.Equal(t, "RAD123B", record.PlateNumber)
	assert.Equal(t, "r1", record.RouteRef())
	position := record.Position()
	require.NotNil(t, position)
	assert.Equal(t, 8.0, position.Speed)
	assert.Equal(t, 1700000000000.0, position.UpdatedAt)

	// unchanged header timestamp is not emitted again
	time.Sleep(10 * time.Millisecond)
	assert.Len(t, snapshots, 0)
}

func TestGTFSRTSourceHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	source := &GTFSRTSource{URL: server.URL, PollInterval: time.Millisecond, HTTPClient: server.Client()}
	err := source.Watch(context.Background(), "buses", func(Snapshot) {})
	assert.EqualError(t, err, "gtfs-rt http status: 502")
}

func TestNewSourceChecksTransportSettings(t *testing.T) {
	settings := config.Default()

	_, err := NewSource(context.Background(), settings)
	assert.ErrorContains(t, err, "firebase_database_url")

	settings.Feed.Kind = "gtfsrt"
	_, err = NewSource(context.Background(), settings)
	assert.ErrorContains(t, err, "gtfsrt_url")

	settings.Feed.GTFSRTURL = "https://gtfs.gopass.rw/vehicles.pb"
	source, err := NewSource(context.Background(), settings)
	require.NoError(t, err)
	assert.IsType(t, &GTFSRTSource{}, source)
}
