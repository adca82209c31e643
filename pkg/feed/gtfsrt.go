package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/gopass/dashboard/pkg/config"
	"google.golang.org/protobuf/proto"
)

var timeNow = time.Now

// GTFSRTSource polls a GTFS-realtime vehicle positions endpoint and turns every vehicle entity
// into a feed record. GTFS-RT has no operational status so records only carry positions.
type GTFSRTSource struct {
	URL          string
	PollInterval time.Duration
	HTTPClient   *http.Client
}

func NewGTFSRTSource(settings config.FeedSettings, timeout time.Duration) *GTFSRTSource {
	return &GTFSRTSource{
		URL:          settings.GTFSRTURL,
		PollInterval: settings.PollInterval,
		HTTPClient:   &http.Client{Timeout: timeout},
	}
}

func (s *GTFSRTSource) Watch(ctx context.Context, path string, emit func(Snapshot)) error {
	var lastHeader uint64

	ticker := time.NewTicker(s.PollInterval)
	defer ticker.Stop()

	for {
		message, err := s.fetch(ctx)
		if err != nil {
			return err
		}

		headerTimestamp := message.GetHeader().GetTimestamp()
		if headerTimestamp == 0 || headerTimestamp != lastHeader {
			lastHeader = headerTimestamp

			snapshot, err := s.snapshotFrom(path, message)
			if err != nil {
				return err
			}
			emit(snapshot)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *GTFSRTSource) fetch(ctx context.Context) (*gtfs.FeedMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gtfs-rt http status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var message gtfs.FeedMessage
	if err := proto.Unmarshal(body, &message); err != nil {
		return nil, err
	}

	return &message, nil
}

func (s *GTFSRTSource) snapshotFrom(path string, message *gtfs.FeedMessage) (Snapshot, error) {
	snapshot := Snapshot{
		Path:       path,
		Records:    map[string]json.RawMessage{},
		Exists:     true,
		ReceivedAt: timeNow(),
	}

	for _, entity := range message.GetEntity() {
		vehiclePosition := entity.GetVehicle()
		if vehiclePosition == nil || vehiclePosition.GetPosition() == nil {
			continue
		}

		id := vehiclePosition.GetVehicle().GetId()
		if id == "" {
			continue
		}

		position := vehiclePosition.GetPosition()
		lat := float64(position.GetLatitude())
		lng := float64(position.GetLongitude())

		record := Record{
			ID:          id,
			PlateNumber: vehiclePosition.GetVehicle().GetLicensePlate(),
			Location: &RecordLocation{
				Lat:       &lat,
				Lng:       &lng,
				Speed:     float64(position.GetSpeed()),
				Heading:   float64(position.GetBearing()),
				UpdatedAt: float64(vehiclePosition.GetTimestamp() * 1000),
			},
		}

		if routeID := vehiclePosition.GetTrip().GetRouteId(); routeID != "" {
			record.RouteID = &routeID
		}

		encoded, err := json.Marshal(record)
		if err != nil {
			return snapshot, err
		}

		snapshot.Records[id] = encoded
	}

	return snapshot, nil
}
