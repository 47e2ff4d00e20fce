package engine

import (
	"sync"

	"github.com/tylerkaska112/tripnav/pkg/datastructure"
	"go.uber.org/zap"
)

// Event is anything the engine tells the host. The host renders; the engine
// never calls back into UI concerns.
type Event interface {
	EventName() string
}

type RouteReadyEvent struct {
	DestinationLabel           string  `json:"destination_label"`
	TotalDistanceMeters        float64 `json:"total_distance_meters"`
	EstimatedTravelTimeSeconds float64 `json:"estimated_travel_time_seconds"`
}

func (RouteReadyEvent) EventName() string { return "route_ready" }

type ReroutedEvent struct {
	TotalDistanceMeters        float64 `json:"total_distance_meters"`
	EstimatedTravelTimeSeconds float64 `json:"estimated_travel_time_seconds"`
	NumSteps                   int     `json:"num_steps"`
}

func (ReroutedEvent) EventName() string { return "rerouted" }

type StepChangedEvent struct {
	Index                    int     `json:"index"`
	Instruction              string  `json:"instruction"`
	DistanceToManeuverMeters float64 `json:"distance_to_maneuver_meters"`
}

func (StepChangedEvent) EventName() string { return "step_changed" }

type AnnounceEvent struct {
	Text            string `json:"text"`
	IsFinalReminder bool   `json:"is_final_reminder"`
}

func (AnnounceEvent) EventName() string { return "announce" }

type SpeedWarningEvent struct {
	Active bool `json:"active"`
}

func (SpeedWarningEvent) EventName() string { return "speed_warning" }

type RouteErrorEvent struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (RouteErrorEvent) EventName() string { return "route_error" }

type CandidatesEvent struct {
	Candidates []datastructure.SearchCandidate `json:"candidates"`
}

func (CandidatesEvent) EventName() string { return "candidates" }

// ProgressEvent carries the per-tick snapshot driving the ETA and
// remaining-distance readout.
type ProgressEvent struct {
	Snapshot datastructure.NavigationSnapshot `json:"snapshot"`
}

func (ProgressEvent) EventName() string { return "progress" }

const subscriberBuffer = 64

// Hub fans engine events out to subscribers. Slow subscribers drop events
// rather than stall the position-update path.
type Hub struct {
	mu   sync.Mutex
	log  *zap.Logger
	seq  uint64
	subs map[uint64]chan Event
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		log:  log,
		subs: make(map[uint64]chan Event),
	}
}

// Subscribe registers a new event stream. The returned cancel func must be
// called to release the stream; the channel is closed on cancel.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	h.seq++
	id := h.seq
	ch := make(chan Event, subscriberBuffer)
	h.subs[id] = ch
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if c, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(c)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.log.Warn("dropping event for slow subscriber", zap.String("event", ev.EventName()))
		}
	}
	h.mu.Unlock()
}

func (h *Hub) NumSubscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
