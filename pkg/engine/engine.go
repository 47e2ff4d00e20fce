package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tylerkaska112/tripnav/pkg/datastructure"
	"github.com/tylerkaska112/tripnav/pkg/geo"
	"github.com/tylerkaska112/tripnav/pkg/navigation"
	"github.com/tylerkaska112/tripnav/pkg/provider"
	"github.com/tylerkaska112/tripnav/pkg/search"
	"github.com/tylerkaska112/tripnav/pkg/util"
	"go.uber.org/zap"
)

const routeRequestTimeout = 30 * time.Second

// Engine wires the session, ranker, announcer and speed monitor together and
// exposes the host-facing call surface. All host-observable output leaves
// through the event hub.
type Engine struct {
	log      *zap.Logger
	cfg      Config
	provider provider.RouteProvider

	session   *navigation.Session
	ranker    *search.Ranker
	announcer *navigation.Announcer
	speed     navigation.SpeedMonitor
	hub       *Hub

	mu            sync.Mutex
	muted         bool
	warningActive bool
	lastPosition  *geo.Coordinate
}

func New(log *zap.Logger, cfg Config, rp provider.RouteProvider) *Engine {
	e := &Engine{
		log:       log,
		cfg:       cfg,
		provider:  rp,
		announcer: navigation.NewAnnouncer(cfg.UseKilometers),
		hub:       NewHub(log),
	}

	scfg := navigation.DefaultSessionConfig()
	scfg.StepAdvanceRadiusMeters = cfg.StepAdvanceRadiusMeters
	scfg.OffRouteThresholdMeters = cfg.OffRouteThresholdMeters
	scfg.RerouteCooldown = cfg.RerouteCooldown
	e.session = navigation.NewSession(log, rp, e, scfg)
	e.ranker = search.NewRanker(log, rp, e.currentPosition, e.onCandidates,
		cfg.SearchDebounce, cfg.EnrichStagger)
	return e
}

// Subscribe returns a host-facing event stream and its cancel func.
func (e *Engine) Subscribe() (<-chan Event, func()) {
	return e.hub.Subscribe()
}

// SetQuery feeds one keystroke's worth of destination text to the ranker.
func (e *Engine) SetQuery(text string) {
	e.ranker.UpdateQuery(text)
}

// Candidates returns the current suggestion list.
func (e *Engine) Candidates() []datastructure.SearchCandidate {
	return e.ranker.Candidates()
}

// SelectCandidate resolves the chosen suggestion and starts navigating to it.
func (e *Engine) SelectCandidate(c datastructure.SearchCandidate) {
	go func() {
		dest, err := e.candidateCoordinate(c)
		if err != nil {
			e.emitRouteError(err)
			return
		}
		e.StartNavigation(dest, c.Title)
	}()
}

func (e *Engine) candidateCoordinate(c datastructure.SearchCandidate) (geo.Coordinate, error) {
	if c.Coord != nil {
		return *c.Coord, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), routeRequestTimeout)
	defer cancel()
	if c.Token != "" {
		return e.provider.Resolve(ctx, c.Token)
	}
	return e.provider.Geocode(ctx, c.Title)
}

// StartNavigation computes a route from the current position to dest and hands
// it to the session. Initial route failures are surfaced to the host as
// RouteError; only reroute failures are swallowed.
func (e *Engine) StartNavigation(dest geo.Coordinate, label string) {
	e.mu.Lock()
	from := e.lastPosition
	e.mu.Unlock()
	if from == nil {
		e.hub.Publish(RouteErrorEvent{
			Kind:    "no_route_available",
			Message: "no position fix yet",
		})
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), routeRequestTimeout)
		defer cancel()
		route, err := e.provider.Route(ctx, *from, dest)
		if err != nil {
			e.emitRouteError(err)
			return
		}
		if err := e.session.Start(route, dest, label); err != nil {
			e.emitRouteError(err)
		}
	}()
}

// OnPosition processes one position fix: session advance, progress snapshot,
// speed evaluation. Never blocks on the network.
func (e *Engine) OnPosition(pos geo.Coordinate, currentSpeedMph float64) {
	e.mu.Lock()
	p := pos
	e.lastPosition = &p
	e.mu.Unlock()

	snap := e.session.OnPosition(pos)
	if snap.HasRoute {
		e.hub.Publish(ProgressEvent{Snapshot: snap})
	}

	newActive := e.speed.Evaluate(currentSpeedMph, e.cfg.SpeedThresholdMph, e.warningState())
	e.mu.Lock()
	changed := newActive != e.warningActive
	e.warningActive = newActive
	e.mu.Unlock()
	if changed {
		e.hub.Publish(SpeedWarningEvent{Active: newActive})
	}
}

// EndNavigation clears the session from any state.
func (e *Engine) EndNavigation() {
	e.session.Reset()
	e.mu.Lock()
	e.announcer.Reset()
	e.mu.Unlock()
}

// MoveToStep is the manual skip-ahead control.
func (e *Engine) MoveToStep(index int) {
	e.session.MoveToStep(index)
}

// SetMuted suppresses Announce emission. The announcer's bookkeeping still
// advances while muted, so unmuting mid-route does not replay stale
// announcements.
func (e *Engine) SetMuted(muted bool) {
	e.mu.Lock()
	e.muted = muted
	e.mu.Unlock()
}

func (e *Engine) Snapshot() datastructure.NavigationSnapshot {
	return e.session.Snapshot()
}

// navigation.Observer

func (e *Engine) OnRouteReady(snap datastructure.NavigationSnapshot) {
	e.mu.Lock()
	e.announcer.Reset()
	e.mu.Unlock()
	e.hub.Publish(RouteReadyEvent{
		DestinationLabel:           snap.DestinationLabel,
		TotalDistanceMeters:        snap.TotalDistanceMeters,
		EstimatedTravelTimeSeconds: snap.EstimatedTravelTimeSeconds,
	})
	e.announceStep(snap.CurrentStepIndex, snap.CurrentInstruction, snap.DistanceToManeuverMeters)
}

func (e *Engine) OnRerouted(snap datastructure.NavigationSnapshot) {
	e.mu.Lock()
	e.announcer.Reset()
	e.mu.Unlock()
	e.hub.Publish(ReroutedEvent{
		TotalDistanceMeters:        snap.TotalDistanceMeters,
		EstimatedTravelTimeSeconds: snap.EstimatedTravelTimeSeconds,
		NumSteps:                   snap.NumSteps,
	})
	e.announceStep(snap.CurrentStepIndex, snap.CurrentInstruction, snap.DistanceToManeuverMeters)
}

func (e *Engine) OnStepChanged(index int, instruction string, distanceToManeuverMeters float64) {
	e.hub.Publish(StepChangedEvent{
		Index:                    index,
		Instruction:              instruction,
		DistanceToManeuverMeters: distanceToManeuverMeters,
	})
	e.announceStep(index, instruction, distanceToManeuverMeters)
}

func (e *Engine) OnFinalReminder(index int, instruction string) {
	e.mu.Lock()
	text, ok := e.announcer.Instruction(index, true, 0, instruction)
	muted := e.muted
	e.mu.Unlock()
	if ok && !muted {
		e.hub.Publish(AnnounceEvent{Text: text, IsFinalReminder: true})
	}
}

func (e *Engine) announceStep(index int, instruction string, distanceMeters float64) {
	e.mu.Lock()
	text, ok := e.announcer.Instruction(index, false, distanceMeters, instruction)
	muted := e.muted
	e.mu.Unlock()
	if ok && !muted {
		e.hub.Publish(AnnounceEvent{Text: text, IsFinalReminder: false})
	}
}

func (e *Engine) onCandidates(cands []datastructure.SearchCandidate) {
	e.hub.Publish(CandidatesEvent{Candidates: cands})
}

func (e *Engine) currentPosition() (geo.Coordinate, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lastPosition == nil {
		return geo.Coordinate{}, false
	}
	return *e.lastPosition, true
}

func (e *Engine) warningState() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.warningActive
}

func (e *Engine) emitRouteError(err error) {
	kind := "internal"
	switch code := util.ErrorCode(err); {
	case errors.Is(code, util.ErrNoResult):
		kind = "no_result"
	case errors.Is(code, util.ErrAddressNotFound):
		kind = "address_not_found"
	case errors.Is(code, util.ErrNoRouteAvailable), errors.Is(code, util.ErrBadParamInput):
		kind = "no_route_available"
	}
	e.log.Warn("route error", zap.String("kind", kind), zap.Error(err))
	e.hub.Publish(RouteErrorEvent{Kind: kind, Message: err.Error()})
}
