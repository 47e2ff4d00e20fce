package navigation

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/tylerkaska112/tripnav/pkg/datastructure"
	"github.com/tylerkaska112/tripnav/pkg/geo"
	"github.com/tylerkaska112/tripnav/pkg/util"
	"go.uber.org/zap"
)

type fakeProvider struct {
	mu         sync.Mutex
	routeCalls int
	routeFn    func(from, to geo.Coordinate) (*datastructure.Route, error)
	block      chan struct{} // when non-nil, Route waits on it
	called     chan struct{} // signaled once per Route call
}

func (f *fakeProvider) SearchCompletions(ctx context.Context, query string) ([]datastructure.Completion, error) {
	return nil, util.WrapErrorf(nil, util.ErrNoResult, "not implemented")
}

func (f *fakeProvider) Resolve(ctx context.Context, token string) (geo.Coordinate, error) {
	return geo.Coordinate{}, util.WrapErrorf(nil, util.ErrNoResult, "not implemented")
}

func (f *fakeProvider) Geocode(ctx context.Context, address string) (geo.Coordinate, error) {
	return geo.Coordinate{}, util.WrapErrorf(nil, util.ErrAddressNotFound, "not implemented")
}

func (f *fakeProvider) Route(ctx context.Context, from, to geo.Coordinate) (*datastructure.Route, error) {
	f.mu.Lock()
	f.routeCalls++
	block, called := f.block, f.called
	f.mu.Unlock()

	if called != nil {
		called <- struct{}{}
	}
	if block != nil {
		<-block
	}
	if f.routeFn != nil {
		return f.routeFn(from, to)
	}
	return nil, util.WrapErrorf(nil, util.ErrNoRouteAvailable, "no route")
}

func (f *fakeProvider) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.routeCalls
}

type recordingObserver struct {
	mu             sync.Mutex
	routeReady     int
	rerouted       int
	stepChanges    []int
	finalReminders []int
	reroutedCh     chan datastructure.NavigationSnapshot
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{reroutedCh: make(chan datastructure.NavigationSnapshot, 4)}
}

func (o *recordingObserver) OnRouteReady(snap datastructure.NavigationSnapshot) {
	o.mu.Lock()
	o.routeReady++
	o.mu.Unlock()
}

func (o *recordingObserver) OnRerouted(snap datastructure.NavigationSnapshot) {
	o.mu.Lock()
	o.rerouted++
	o.mu.Unlock()
	o.reroutedCh <- snap
}

func (o *recordingObserver) OnStepChanged(index int, instruction string, dist float64) {
	o.mu.Lock()
	o.stepChanges = append(o.stepChanges, index)
	o.mu.Unlock()
}

func (o *recordingObserver) OnFinalReminder(index int, instruction string) {
	o.mu.Lock()
	o.finalReminders = append(o.finalReminders, index)
	o.mu.Unlock()
}

func (o *recordingObserver) counts() (int, int, []int, []int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	steps := append([]int(nil), o.stepChanges...)
	reminders := append([]int(nil), o.finalReminders...)
	return o.routeReady, o.rerouted, steps, reminders
}

// twoStepRoute: S0 maneuver at (0,0) dist 500, S1 maneuver at (0,0.01) dist 300.
func twoStepRoute(t *testing.T) *datastructure.Route {
	t.Helper()
	s0 := datastructure.NewRouteStep("Turn left onto Main St",
		[]geo.Coordinate{geo.NewCoordinate(0, 0), geo.NewCoordinate(0, 0.005)}, 500)
	s1 := datastructure.NewRouteStep("Arrive at destination",
		[]geo.Coordinate{geo.NewCoordinate(0, 0.01)}, 300)
	r, err := datastructure.NewRoute([]datastructure.RouteStep{s0, s1}, 800, 120,
		[]geo.Coordinate{geo.NewCoordinate(0, 0), geo.NewCoordinate(0, 0.005), geo.NewCoordinate(0, 0.01)})
	if err != nil {
		t.Fatalf("build route: %v", err)
	}
	return r
}

func newTestSession(t *testing.T, p *fakeProvider, o *recordingObserver) *Session {
	t.Helper()
	return NewSession(zap.NewNop(), p, o, DefaultSessionConfig())
}

func TestStartInvariants(t *testing.T) {
	obs := newRecordingObserver()
	s := newTestSession(t, &fakeProvider{}, obs)
	route := twoStepRoute(t)

	if err := s.Start(route, geo.NewCoordinate(0, 0.01), "Work"); err != nil {
		t.Fatalf("start: %v", err)
	}

	snap := s.Snapshot()
	if snap.CurrentStepIndex != 0 {
		t.Errorf("currentStepIndex = %d, want 0", snap.CurrentStepIndex)
	}
	if snap.RemainingDistanceMeters != route.GetTotalDistanceMeters() {
		t.Errorf("remaining = %f, want %f", snap.RemainingDistanceMeters, route.GetTotalDistanceMeters())
	}
	if s.State() != StateNavigating {
		t.Errorf("state = %v, want navigating", s.State())
	}
	ready, _, _, _ := obs.counts()
	if ready != 1 {
		t.Errorf("routeReady events = %d, want 1", ready)
	}
}

func TestStartRejectsEmptyRoute(t *testing.T) {
	s := newTestSession(t, &fakeProvider{}, newRecordingObserver())
	if err := s.Start(nil, geo.Coordinate{}, ""); err == nil {
		t.Fatal("expected error for nil route")
	}
}

func TestFinalReminderThenAdvance(t *testing.T) {
	obs := newRecordingObserver()
	s := newTestSession(t, &fakeProvider{}, obs)
	if err := s.Start(twoStepRoute(t), geo.NewCoordinate(0, 0.01), "Work"); err != nil {
		t.Fatalf("start: %v", err)
	}

	// on S0's maneuver point: reminder for S0 fires, then index advances to 1
	snap := s.OnPosition(geo.NewCoordinate(0, 0))
	if snap.CurrentStepIndex != 1 {
		t.Errorf("currentStepIndex = %d, want 1", snap.CurrentStepIndex)
	}
	_, _, steps, reminders := obs.counts()
	if len(reminders) != 1 || reminders[0] != 0 {
		t.Errorf("finalReminders = %v, want [0]", reminders)
	}
	if len(steps) != 1 || steps[0] != 1 {
		t.Errorf("stepChanges = %v, want [1]", steps)
	}
}

func TestFinalReminderFiresOncePerStep(t *testing.T) {
	obs := newRecordingObserver()
	s := newTestSession(t, &fakeProvider{}, obs)
	if err := s.Start(twoStepRoute(t), geo.NewCoordinate(0, 0.01), "Work"); err != nil {
		t.Fatalf("start: %v", err)
	}

	// advance to the last step, then linger at its maneuver point
	s.OnPosition(geo.NewCoordinate(0, 0))
	s.OnPosition(geo.NewCoordinate(0, 0.01))
	s.OnPosition(geo.NewCoordinate(0, 0.01))

	_, _, _, reminders := obs.counts()
	if len(reminders) != 2 {
		t.Errorf("finalReminders = %v, want one per step", reminders)
	}
}

func TestRemainingDistanceIdempotent(t *testing.T) {
	s := newTestSession(t, &fakeProvider{}, newRecordingObserver())
	if err := s.Start(twoStepRoute(t), geo.NewCoordinate(0, 0.01), "Work"); err != nil {
		t.Fatalf("start: %v", err)
	}

	// ~11 m from the (0, 0.005) vertex: on-route, outside the advance radius
	pos := geo.NewCoordinate(0, 0.0049)
	first := s.OnPosition(pos)
	second := s.OnPosition(pos)
	if first.RemainingDistanceMeters != second.RemainingDistanceMeters {
		t.Errorf("remaining changed between identical updates: %f vs %f",
			first.RemainingDistanceMeters, second.RemainingDistanceMeters)
	}

	// live distance to maneuver plus every later step
	want := geo.DistanceMeters(pos, geo.NewCoordinate(0, 0)) + 300
	if math.Abs(first.RemainingDistanceMeters-want) > 0.5 {
		t.Errorf("remaining = %f, want %f", first.RemainingDistanceMeters, want)
	}
}

func TestStepIndexNonDecreasing(t *testing.T) {
	s := newTestSession(t, &fakeProvider{}, newRecordingObserver())
	if err := s.Start(twoStepRoute(t), geo.NewCoordinate(0, 0.01), "Work"); err != nil {
		t.Fatalf("start: %v", err)
	}

	positions := []geo.Coordinate{
		geo.NewCoordinate(0, 0.0003),
		geo.NewCoordinate(0, 0),
		geo.NewCoordinate(0, 0.0049),
		geo.NewCoordinate(0, 0.0097),
	}
	last := 0
	for _, pos := range positions {
		snap := s.OnPosition(pos)
		if snap.CurrentStepIndex < last {
			t.Fatalf("step index decreased: %d -> %d", last, snap.CurrentStepIndex)
		}
		last = snap.CurrentStepIndex
	}
}

func TestOffRouteRateLimited(t *testing.T) {
	p := &fakeProvider{block: make(chan struct{}), called: make(chan struct{}, 2)}
	obs := newRecordingObserver()
	s := newTestSession(t, p, obs)
	if err := s.Start(twoStepRoute(t), geo.NewCoordinate(0, 0.01), "Work"); err != nil {
		t.Fatalf("start: %v", err)
	}

	now := time.Now()
	s.now = func() time.Time { return now }

	offRoute := geo.NewCoordinate(0.01, 0.005) // ~1.1 km off the polyline
	s.OnPosition(offRoute)
	<-p.called

	// second off-route fix within the cooldown while the first is in flight
	now = now.Add(3 * time.Second)
	s.OnPosition(offRoute)

	if got := p.calls(); got != 1 {
		t.Errorf("reroute requests = %d, want 1", got)
	}
	close(p.block)
}

func TestRerouteFailureKeepsRoute(t *testing.T) {
	p := &fakeProvider{called: make(chan struct{}, 1)}
	obs := newRecordingObserver()
	s := newTestSession(t, p, obs)
	route := twoStepRoute(t)
	if err := s.Start(route, geo.NewCoordinate(0, 0.01), "Work"); err != nil {
		t.Fatalf("start: %v", err)
	}

	s.OnPosition(geo.NewCoordinate(0.01, 0.005))
	<-p.called

	deadline := time.After(2 * time.Second)
	for s.State() == StateRerouting {
		select {
		case <-deadline:
			t.Fatal("session stuck in rerouting")
		case <-time.After(5 * time.Millisecond):
		}
	}

	snap := s.Snapshot()
	if !snap.HasRoute || snap.Rerouting {
		t.Errorf("snapshot = %+v, want route kept and rerouting cleared", snap)
	}
	_, rerouted, _, _ := obs.counts()
	if rerouted != 0 {
		t.Errorf("rerouted events = %d, want 0 on failure", rerouted)
	}
}

func TestRerouteSuccessResetsIndex(t *testing.T) {
	newRoute := twoStepRoute(t)
	p := &fakeProvider{
		called:  make(chan struct{}, 1),
		routeFn: func(from, to geo.Coordinate) (*datastructure.Route, error) { return newRoute, nil },
	}
	obs := newRecordingObserver()
	s := newTestSession(t, p, obs)
	if err := s.Start(twoStepRoute(t), geo.NewCoordinate(0, 0.01), "Work"); err != nil {
		t.Fatalf("start: %v", err)
	}

	// advance off step 0 first so the reset is observable
	s.OnPosition(geo.NewCoordinate(0, 0))
	s.OnPosition(geo.NewCoordinate(0.01, 0.005))
	<-p.called

	select {
	case snap := <-obs.reroutedCh:
		if snap.CurrentStepIndex != 0 {
			t.Errorf("currentStepIndex after reroute = %d, want 0", snap.CurrentStepIndex)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no rerouted event")
	}
	if s.State() != StateNavigating {
		t.Errorf("state = %v, want navigating", s.State())
	}
}

func TestResetIgnoresLateRerouteCallback(t *testing.T) {
	newRoute := twoStepRoute(t)
	p := &fakeProvider{
		block:   make(chan struct{}),
		called:  make(chan struct{}, 1),
		routeFn: func(from, to geo.Coordinate) (*datastructure.Route, error) { return newRoute, nil },
	}
	obs := newRecordingObserver()
	s := newTestSession(t, p, obs)
	if err := s.Start(twoStepRoute(t), geo.NewCoordinate(0, 0.01), "Work"); err != nil {
		t.Fatalf("start: %v", err)
	}

	s.OnPosition(geo.NewCoordinate(0.01, 0.005))
	<-p.called

	s.Reset()
	close(p.block)
	time.Sleep(50 * time.Millisecond)

	if s.State() != StateIdle {
		t.Errorf("state = %v, want idle", s.State())
	}
	_, rerouted, _, _ := obs.counts()
	if rerouted != 0 {
		t.Errorf("rerouted events after reset = %d, want 0", rerouted)
	}
}

func TestMoveToStepClamps(t *testing.T) {
	obs := newRecordingObserver()
	s := newTestSession(t, &fakeProvider{}, obs)
	if err := s.Start(twoStepRoute(t), geo.NewCoordinate(0, 0.01), "Work"); err != nil {
		t.Fatalf("start: %v", err)
	}

	s.MoveToStep(99)
	if got := s.Snapshot().CurrentStepIndex; got != 1 {
		t.Errorf("index after MoveToStep(99) = %d, want 1", got)
	}
	s.MoveToStep(-5)
	if got := s.Snapshot().CurrentStepIndex; got != 0 {
		t.Errorf("index after MoveToStep(-5) = %d, want 0", got)
	}
}

func TestResetClearsEverything(t *testing.T) {
	s := newTestSession(t, &fakeProvider{}, newRecordingObserver())
	if err := s.Start(twoStepRoute(t), geo.NewCoordinate(0, 0.01), "Work"); err != nil {
		t.Fatalf("start: %v", err)
	}
	s.OnPosition(geo.NewCoordinate(0, 0.0049))

	s.Reset()
	snap := s.Snapshot()
	if snap.HasRoute || snap.CurrentStepIndex != 0 || snap.RemainingDistanceMeters != 0 {
		t.Errorf("snapshot after reset = %+v, want cleared", snap)
	}
	if s.State() != StateIdle {
		t.Errorf("state = %v, want idle", s.State())
	}
}
