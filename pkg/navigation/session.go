package navigation

import (
	"context"
	"sync"
	"time"

	"github.com/tylerkaska112/tripnav/pkg"
	"github.com/tylerkaska112/tripnav/pkg/datastructure"
	"github.com/tylerkaska112/tripnav/pkg/geo"
	"github.com/tylerkaska112/tripnav/pkg/provider"
	"github.com/tylerkaska112/tripnav/pkg/spatialindex"
	"github.com/tylerkaska112/tripnav/pkg/util"
	"go.uber.org/zap"
)

type State uint8

const (
	StateIdle State = iota
	StateNavigating
	StateRerouting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateNavigating:
		return "navigating"
	case StateRerouting:
		return "rerouting"
	default:
		return "unknown"
	}
}

// Observer receives session transitions. Callbacks fire outside the session
// lock, in the order the transitions happened.
type Observer interface {
	OnRouteReady(snap datastructure.NavigationSnapshot)
	OnRerouted(snap datastructure.NavigationSnapshot)
	OnStepChanged(index int, instruction string, distanceToManeuverMeters float64)
	OnFinalReminder(index int, instruction string)
}

type SessionConfig struct {
	StepAdvanceRadiusMeters float64
	OffRouteThresholdMeters float64
	RerouteCooldown         time.Duration
	RerouteTimeout          time.Duration
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		StepAdvanceRadiusMeters: pkg.StepAdvanceRadiusMeters,
		OffRouteThresholdMeters: pkg.OffRouteThresholdMeters,
		RerouteCooldown:         pkg.RerouteCooldown,
		RerouteTimeout:          30 * time.Second,
	}
}

// Session is the navigation state machine. It exclusively owns the live state;
// everything leaving it is a value snapshot. Single-writer: every mutation goes
// through the mutex, and asynchronous reroute completions are tagged with a
// generation counter so completions belonging to a reset or restarted session
// are discarded.
type Session struct {
	mu       sync.Mutex
	log      *zap.Logger
	provider provider.RouteProvider
	observer Observer
	cfg      SessionConfig
	now      func() time.Time

	state               State
	route               *datastructure.Route
	routeIndex          *spatialindex.RouteVertexIndex
	destination         geo.Coordinate
	destinationLabel    string
	currentStepIndex    int
	remainingDistance   float64
	etaSeconds          float64
	rerouting           bool
	lastRerouteAt       time.Time
	finalReminderSpoken bool
	lastPosition        *geo.Coordinate
	generation          uint64
}

func NewSession(log *zap.Logger, rp provider.RouteProvider, observer Observer, cfg SessionConfig) *Session {
	return &Session{
		log:      log,
		provider: rp,
		observer: observer,
		cfg:      cfg,
		now:      time.Now,
		state:    StateIdle,
	}
}

// Start begins navigating the given route. The route must be non-empty.
func (s *Session) Start(route *datastructure.Route, destination geo.Coordinate, destinationLabel string) error {
	if route == nil || route.NumSteps() == 0 {
		return util.WrapErrorf(nil, util.ErrBadParamInput, "cannot start navigation on an empty route")
	}

	s.mu.Lock()
	s.generation++
	s.state = StateNavigating
	s.route = route
	s.routeIndex = spatialindex.NewRouteVertexIndex(route.GetPolyline())
	s.destination = destination
	s.destinationLabel = destinationLabel
	s.currentStepIndex = 0
	s.remainingDistance = route.GetTotalDistanceMeters()
	s.etaSeconds = route.GetTravelTimeSeconds()
	s.rerouting = false
	s.lastRerouteAt = time.Time{}
	s.finalReminderSpoken = false
	snap := s.snapshotLocked(nil)
	s.mu.Unlock()

	s.observer.OnRouteReady(snap)
	return nil
}

// OnPosition advances the state machine for one position fix. Proximity check
// runs before the remaining-distance recompute because the recompute depends on
// the possibly-advanced step index. Never blocks on the network: an off-route
// detection only records the reroute flag and hands the request to a goroutine.
func (s *Session) OnPosition(pos geo.Coordinate) datastructure.NavigationSnapshot {
	s.mu.Lock()
	s.lastPosition = &pos
	if s.route == nil {
		snap := s.snapshotLocked(nil)
		s.mu.Unlock()
		return snap
	}

	var emits []func()

	step := s.route.GetStep(s.currentStepIndex)
	maneuver := s.maneuverPointLocked(step)
	dist := geo.DistanceMeters(pos, maneuver)

	if dist < s.cfg.StepAdvanceRadiusMeters {
		if !s.finalReminderSpoken {
			idx, instr := s.currentStepIndex, step.GetInstruction()
			emits = append(emits, func() { s.observer.OnFinalReminder(idx, instr) })
			s.finalReminderSpoken = true
		}
		if s.currentStepIndex < s.route.NumSteps()-1 {
			s.currentStepIndex++
			s.finalReminderSpoken = false
			step = s.route.GetStep(s.currentStepIndex)
			maneuver = s.maneuverPointLocked(step)
			dist = geo.DistanceMeters(pos, maneuver)
			idx, instr, d := s.currentStepIndex, step.GetInstruction(), dist
			emits = append(emits, func() { s.observer.OnStepChanged(idx, instr, d) })
		}
	}

	// remaining = live distance to the current maneuver plus every later step;
	// the current step's stored distance is replaced by the live figure so the
	// partially-completed leg is not double counted
	remaining := dist
	for i := s.currentStepIndex + 1; i < s.route.NumSteps(); i++ {
		remaining += s.route.GetStep(i).GetDistanceMeters()
	}
	s.remainingDistance = remaining
	if total := s.route.GetTotalDistanceMeters(); total > 0 {
		s.etaSeconds = s.route.GetTravelTimeSeconds() * remaining / total
	}

	if offRoute, ok := s.routeIndex.MinDistanceMeters(pos); ok &&
		offRoute > s.cfg.OffRouteThresholdMeters &&
		!s.rerouting &&
		(s.lastRerouteAt.IsZero() || s.now().Sub(s.lastRerouteAt) >= s.cfg.RerouteCooldown) {
		s.rerouting = true
		s.state = StateRerouting
		s.lastRerouteAt = s.now()
		gen := s.generation
		dest := s.destination
		go s.requestReroute(gen, pos, dest)
	}

	snapped := geo.SnapToPolyline(pos, step.GetPolyline())
	snap := s.snapshotLocked(&snapped)
	s.mu.Unlock()

	for _, emit := range emits {
		emit()
	}
	return snap
}

// requestReroute runs off the position-update path. On failure the stale route
// stays authoritative and nothing is surfaced; the cooldown alone limits the
// next attempt.
func (s *Session) requestReroute(gen uint64, from geo.Coordinate, dest geo.Coordinate) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RerouteTimeout)
	defer cancel()

	newRoute, err := s.provider.Route(ctx, from, dest)

	s.mu.Lock()
	if s.generation != gen {
		// session was reset or restarted while the request was in flight
		s.mu.Unlock()
		return
	}
	s.rerouting = false
	if err != nil {
		if s.route != nil {
			s.state = StateNavigating
		}
		s.mu.Unlock()
		s.log.Warn("reroute failed, continuing on current route",
			zap.Error(util.WrapErrorf(err, util.ErrRerouteFailed, "recompute route to %.5f,%.5f", dest.GetLat(), dest.GetLon())))
		return
	}

	s.route = newRoute
	s.routeIndex = spatialindex.NewRouteVertexIndex(newRoute.GetPolyline())
	s.currentStepIndex = 0
	s.finalReminderSpoken = false
	s.state = StateNavigating
	s.remainingDistance = newRoute.GetTotalDistanceMeters()
	s.etaSeconds = newRoute.GetTravelTimeSeconds()
	snap := s.snapshotLocked(nil)
	s.mu.Unlock()

	s.log.Info("rerouted",
		zap.Float64("total_distance_m", snap.TotalDistanceMeters),
		zap.Int("num_steps", snap.NumSteps))
	s.observer.OnRerouted(snap)
}

// MoveToStep jumps to the given step, clamped into range. Clears the
// final-reminder flag so the target step gets its reminder again.
func (s *Session) MoveToStep(index int) {
	s.mu.Lock()
	if s.route == nil {
		s.mu.Unlock()
		return
	}
	index = util.Clamp(index, 0, s.route.NumSteps()-1)
	s.currentStepIndex = index
	s.finalReminderSpoken = false
	step := s.route.GetStep(index)
	dist := 0.0
	if s.lastPosition != nil {
		dist = geo.DistanceMeters(*s.lastPosition, s.maneuverPointLocked(step))
	}
	instr := step.GetInstruction()
	s.mu.Unlock()

	s.observer.OnStepChanged(index, instr, dist)
}

// Reset returns to idle from any state. Reroute completions still in flight are
// discarded via the generation bump.
func (s *Session) Reset() {
	s.mu.Lock()
	s.generation++
	s.state = StateIdle
	s.route = nil
	s.routeIndex = nil
	s.destination = geo.Coordinate{}
	s.destinationLabel = ""
	s.currentStepIndex = 0
	s.remainingDistance = 0
	s.etaSeconds = 0
	s.rerouting = false
	s.lastRerouteAt = time.Time{}
	s.finalReminderSpoken = false
	s.lastPosition = nil
	s.mu.Unlock()
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Snapshot() datastructure.NavigationSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(nil)
}

// maneuverPointLocked falls back to the destination for a step with no geometry.
func (s *Session) maneuverPointLocked(step datastructure.RouteStep) geo.Coordinate {
	if p, ok := step.ManeuverPoint(); ok {
		return p
	}
	return s.destination
}

func (s *Session) snapshotLocked(snapped *geo.Coordinate) datastructure.NavigationSnapshot {
	snap := datastructure.NavigationSnapshot{
		HasRoute:         s.route != nil,
		Rerouting:        s.rerouting,
		Destination:      s.destination,
		DestinationLabel: s.destinationLabel,
		CurrentStepIndex: s.currentStepIndex,
		SnappedPosition:  snapped,
	}
	if s.route == nil {
		return snap
	}

	step := s.route.GetStep(s.currentStepIndex)
	snap.CurrentInstruction = step.GetInstruction()
	snap.RemainingDistanceMeters = s.remainingDistance
	snap.EstimatedTravelTimeSeconds = s.etaSeconds
	snap.TotalDistanceMeters = s.route.GetTotalDistanceMeters()
	snap.NumSteps = s.route.NumSteps()
	if s.lastPosition != nil {
		snap.DistanceToManeuverMeters = geo.DistanceMeters(*s.lastPosition, s.maneuverPointLocked(step))
	}
	return snap
}
