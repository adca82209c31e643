package tracking

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/gopass/dashboard/pkg/feed"
	"github.com/gopass/dashboard/pkg/transit"
	"github.com/gopass/dashboard/pkg/util"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
)

// trackedVehicle is a location from the latest snapshot along with the identity fields the
// feed carried for it
type trackedVehicle struct {
	Location    transit.VehicleLocation
	PlateNumber string
	RouteID     string
	RouteName   string
	DriverName  string

	// Empty when the feed does not carry a status, the roster decides then
	FeedStatus transit.BusStatus
}

// View keeps the live picture of the fleet while it is active. All state is guarded by mu.
// Listeners and the transition sink are called from one notifier goroutine per activation,
// in the order the changes happened, and never with mu held.
type View struct {
	roster  Roster
	source  feed.Source
	options Options

	now func() time.Time

	// leaseMu orders Acquire and Release, it is never taken while mu is held
	leaseMu sync.Mutex
	leases  int

	mu sync.Mutex

	active       bool
	generation   uint64
	cancel       context.CancelFunc
	subscription *feed.Subscription
	pumpDone     chan struct{}
	rosterDone   chan struct{}
	notifier     *notifier

	rosterState  rosterState
	snapshotSeen bool
	buses        map[string]transit.Bus
	routes       map[string]transit.Route
	locations    map[string]trackedVehicle

	reporting   map[string]string
	hasBaseline bool

	listeners      map[int]func(Board)
	nextListenerID int
}

type rosterState int

const (
	rosterPending rosterState = iota
	rosterLoaded
	rosterFailed
)

func NewView(roster Roster, source feed.Source, options Options) *View {
	return &View{
		roster:    roster,
		source:    source,
		options:   options,
		now:       time.Now,
		buses:     map[string]transit.Bus{},
		routes:    map[string]transit.Route{},
		locations: map[string]trackedVehicle{},
		reporting: map[string]string{},
		listeners: map[int]func(Board){},
	}
}

// OnChange registers a listener called with the freshly rendered board after every snapshot
// and roster load. The returned function removes it.
func (v *View) OnChange(listener func(Board)) func() {
	v.mu.Lock()
	defer v.mu.Unlock()

	id := v.nextListenerID
	v.nextListenerID++
	v.listeners[id] = listener

	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.listeners, id)
	}
}

func (v *View) IsActive() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.active
}

// Ready reports whether the current activation has both a feed snapshot and a roster result
func (v *View) Ready() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.active && v.snapshotSeen && v.rosterState != rosterPending
}

// Acquire takes a lease on the view, the first lease activates it. The activation is not
// tied to the cancellation of ctx, only to the last Release.
func (v *View) Acquire(ctx context.Context) {
	v.leaseMu.Lock()
	defer v.leaseMu.Unlock()

	v.leases++
	if v.leases == 1 {
		v.Activate(context.WithoutCancel(ctx))
	}
}

// Release drops a lease taken with Acquire, the last one deactivates the view
func (v *View) Release() {
	v.leaseMu.Lock()
	defer v.leaseMu.Unlock()

	if v.leases == 0 {
		return
	}

	v.leases--
	if v.leases == 0 {
		v.Deactivate()
	}
}

// Activate loads the roster and subscribes to the feed. Calling it on an active view does
// nothing. The subscription lives until Deactivate, not until ctx is done, so callers
// should pass a context that outlives the request that triggered activation.
func (v *View) Activate(ctx context.Context) {
	v.mu.Lock()
	if v.active {
		v.mu.Unlock()
		return
	}

	v.active = true
	v.generation++
	generation := v.generation

	ctx, cancel := context.WithCancel(ctx)
	v.cancel = cancel

	subscription := feed.Subscribe(ctx, v.source, v.options.Path, v.options.Reconnect)
	v.subscription = subscription

	pumpDone := make(chan struct{})
	v.pumpDone = pumpDone
	rosterDone := make(chan struct{})
	v.rosterDone = rosterDone
	v.notifier = newNotifier(v.notify)
	v.mu.Unlock()

	log.Info().Uint64("generation", generation).Str("path", v.options.Path).Msg("Activated tracking view")

	go v.pump(generation, subscription, pumpDone)
	go func() {
		defer close(rosterDone)
		v.loadRoster(ctx, generation)
	}()
}

// Deactivate releases the subscription and discards all state. Once it returns no snapshot
// or roster result of the old activation can change the view, and every listener and sink
// call of that activation has returned. It must not be called from a listener.
func (v *View) Deactivate() {
	v.mu.Lock()
	if !v.active {
		v.mu.Unlock()
		return
	}

	v.active = false
	v.generation++

	cancel, subscription, pumpDone := v.cancel, v.subscription, v.pumpDone
	rosterDone, changes := v.rosterDone, v.notifier
	v.cancel, v.subscription, v.pumpDone = nil, nil, nil
	v.rosterDone, v.notifier = nil, nil

	v.resetState()
	v.mu.Unlock()

	cancel()
	subscription.Close()
	<-pumpDone
	<-rosterDone
	changes.close()

	log.Info().Str("path", v.options.Path).Msg("Deactivated tracking view")
}

func (v *View) resetState() {
	v.rosterState = rosterPending
	v.snapshotSeen = false
	v.buses = map[string]transit.Bus{}
	v.routes = map[string]transit.Route{}
	v.locations = map[string]trackedVehicle{}
	v.reporting = map[string]string{}
	v.hasBaseline = false
}

func (v *View) pump(generation uint64, subscription *feed.Subscription, done chan struct{}) {
	defer close(done)

	snapshots, errors := subscription.Snapshots(), subscription.Errors()
	for snapshots != nil || errors != nil {
		select {
		case snapshot, ok := <-snapshots:
			if !ok {
				snapshots = nil
				continue
			}
			v.applySnapshot(generation, snapshot)
		case err, ok := <-errors:
			if !ok {
				errors = nil
				continue
			}
			// state is kept, the last known locations stay visible
			log.Error().Err(err).Str("path", v.options.Path).Msg("Tracking feed error")
		}
	}
}

func (v *View) loadRoster(ctx context.Context, generation uint64) {
	var buses []transit.Bus
	var routes []transit.Route
	var busesErr, routesErr error

	p := pool.New()
	p.Go(func() {
		buses, busesErr = v.roster.ListBuses(ctx)
	})
	p.Go(func() {
		routes, routesErr = v.roster.ListRoutes(ctx)
	})
	p.Wait()

	v.mu.Lock()
	if !v.active || v.generation != generation {
		v.mu.Unlock()
		log.Debug().Uint64("generation", generation).Msg("Discarding roster of a previous activation")
		return
	}

	if busesErr != nil {
		log.Error().Err(busesErr).Msg("Failed to load bus roster, falling back to feed identities")
		v.rosterState = rosterFailed
	} else {
		util.InPlaceFilter(&buses, func(bus transit.Bus) bool {
			return bus.IsActive()
		})
		v.buses = util.IndexBy(buses, func(bus transit.Bus) string { return bus.ID })
		v.rosterState = rosterLoaded
	}

	if routesErr != nil {
		log.Error().Err(routesErr).Msg("Failed to load routes, route labels unavailable")
	} else {
		v.routes = util.IndexBy(routes, func(route transit.Route) string { return route.ID })
	}

	log.Debug().Int("buses", len(v.buses)).Int("routes", len(v.routes)).Msg("Loaded tracking roster")

	v.changedLocked()
}

// OnFeedSnapshot applies a snapshot to the current activation. It is what the feed
// subscription drives and is exported for sources that push snapshots themselves.
func (v *View) OnFeedSnapshot(snapshot feed.Snapshot) {
	v.mu.Lock()
	generation := v.generation
	v.mu.Unlock()

	v.applySnapshot(generation, snapshot)
}

func (v *View) applySnapshot(generation uint64, snapshot feed.Snapshot) {
	locations := make(map[string]trackedVehicle, len(snapshot.Records))

	for vehicleID, raw := range snapshot.Records {
		record, err := feed.DecodeRecord(raw)
		if err != nil {
			log.Warn().Err(err).Str("vehicle", vehicleID).Msg("Skipping undecodable feed record")
			continue
		}

		tracked, ok := v.trackedFromRecord(vehicleID, record)
		if !ok {
			continue
		}

		locations[vehicleID] = tracked
	}

	v.mu.Lock()
	if !v.active || v.generation != generation {
		v.mu.Unlock()
		return
	}

	v.locations = locations
	v.snapshotSeen = true
	v.changedLocked()
}

func (v *View) trackedFromRecord(vehicleID string, record *feed.Record) (trackedVehicle, bool) {
	position := record.Position()
	if position == nil {
		return trackedVehicle{}, false
	}

	status := transit.ParseBusStatus(record.Status)
	if status != "" && !status.IsActive() {
		return trackedVehicle{}, false
	}

	var updatedAt int64
	if !math.IsNaN(position.UpdatedAt) && !math.IsInf(position.UpdatedAt, 0) {
		updatedAt = int64(position.UpdatedAt)
	}

	return trackedVehicle{
		Location: transit.VehicleLocation{
			VehicleID:            vehicleID,
			Latitude:             *position.Lat,
			Longitude:            *position.Lng,
			SpeedMetersPerSecond: v.options.toMetersPerSecond(position.Speed),
			Heading:              position.Heading,
			Accuracy:             position.Accuracy,
			UpdatedAtEpochMillis: updatedAt,
		},
		PlateNumber: record.PlateNumber,
		RouteID:     record.RouteRef(),
		RouteName:   record.RouteName,
		DriverName:  record.DriverName,
		FeedStatus:  status,
	}, true
}

// isDisplayed decides whether a location belongs on the board. A feed status has already
// been checked on decode. Without one the roster decides, and until the roster is known
// (or when it failed to load) the feed is trusted.
func (v *View) isDisplayed(vehicleID string, tracked trackedVehicle) bool {
	if tracked.FeedStatus != "" {
		return true
	}

	if v.rosterState != rosterLoaded {
		return true
	}

	_, onRoute := v.buses[vehicleID]
	return onRoute
}

// Locations returns the locations currently shown on the board keyed by vehicle
func (v *View) Locations() map[string]transit.VehicleLocation {
	v.mu.Lock()
	defer v.mu.Unlock()

	locations := make(map[string]transit.VehicleLocation, len(v.locations))
	for vehicleID, tracked := range v.locations {
		if v.isDisplayed(vehicleID, tracked) {
			locations[vehicleID] = tracked.Location
		}
	}

	return locations
}

// changedLocked renders the board, works out transitions and queues them for the notifier.
// It must be called with mu held and releases it.
func (v *View) changedLocked() {
	board := v.renderLocked(v.now())
	transitions := v.transitionsLocked(board)

	listeners := make([]func(Board), 0, len(v.listeners))
	for _, listener := range v.listeners {
		listeners = append(listeners, listener)
	}

	// queued under mu so the delivery order is the order of the changes
	v.notifier.enqueue(notification{
		board:       board,
		transitions: transitions,
		listeners:   listeners,
	})
	v.mu.Unlock()
}

func (v *View) notify(change notification) {
	v.publishTransitions(change.transitions)

	for _, listener := range change.listeners {
		listener(change.board)
	}
}
