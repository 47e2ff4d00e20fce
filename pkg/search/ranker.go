package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/tylerkaska112/tripnav/pkg"
	"github.com/tylerkaska112/tripnav/pkg/datastructure"
	"github.com/tylerkaska112/tripnav/pkg/geo"
	"github.com/tylerkaska112/tripnav/pkg/provider"
	"go.uber.org/zap"
)

// PositionFunc supplies the device's current position for distance/ETA
// enrichment. ok is false before the first fix.
type PositionFunc func() (geo.Coordinate, bool)

// UpdateFunc receives every change to the candidate list.
type UpdateFunc func([]datastructure.SearchCandidate)

// Ranker turns a stream of keystrokes into an enriched suggestion list. Safe to
// call on every keystroke: lookups are debounced, enrichment of the top
// candidates is staggered to respect provider rate limits, and every query gets
// a token so results belonging to a superseded query are dropped instead of
// merged.
type Ranker struct {
	mu          sync.Mutex
	log         *zap.Logger
	provider    provider.RouteProvider
	position    PositionFunc
	onUpdate    UpdateFunc
	debounce    time.Duration
	stagger     time.Duration
	maxEnriched int

	timer      *time.Timer
	cancel     context.CancelFunc
	token      uint64
	candidates []datastructure.SearchCandidate
}

func NewRanker(log *zap.Logger, rp provider.RouteProvider, position PositionFunc,
	onUpdate UpdateFunc, debounce, stagger time.Duration) *Ranker {
	return &Ranker{
		log:         log,
		provider:    rp,
		position:    position,
		onUpdate:    onUpdate,
		debounce:    debounce,
		stagger:     stagger,
		maxEnriched: pkg.MaxEnrichedCandidates,
	}
}

// UpdateQuery is the single entry point, called per keystroke. Whitespace-only
// text clears the list immediately with no network traffic; anything else waits
// out the debounce window before hitting the provider.
func (r *Ranker) UpdateQuery(text string) {
	r.mu.Lock()
	r.token++
	tok := r.token
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}

	text = strings.TrimSpace(text)
	if text == "" {
		r.candidates = nil
		r.mu.Unlock()
		r.emit(nil)
		return
	}

	r.timer = time.AfterFunc(r.debounce, func() {
		r.search(tok, text)
	})
	r.mu.Unlock()
}

// Candidates returns a copy of the current list.
func (r *Ranker) Candidates() []datastructure.SearchCandidate {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.copyLocked()
}

func (r *Ranker) search(tok uint64, text string) {
	r.mu.Lock()
	if tok != r.token {
		r.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.mu.Unlock()

	completions, err := r.provider.SearchCompletions(ctx, text)

	r.mu.Lock()
	if tok != r.token {
		r.mu.Unlock()
		return
	}
	if err != nil {
		r.candidates = nil
		r.mu.Unlock()
		r.log.Warn("completion lookup failed", zap.String("query", text), zap.Error(err))
		r.emit(nil)
		return
	}

	enrichCount := min(r.maxEnriched, len(completions))
	r.candidates = make([]datastructure.SearchCandidate, len(completions))
	for i, c := range completions {
		r.candidates[i] = datastructure.NewSearchCandidate(c, i < enrichCount)
	}
	snap := r.copyLocked()
	r.mu.Unlock()
	r.emit(snap)

	for i := 0; i < enrichCount; i++ {
		go r.enrich(ctx, tok, i, completions[i].Token, time.Duration(i)*r.stagger)
	}
}

// enrich resolves one candidate's coordinate and, with a position fix, its
// distance and ETA. A failure degrades only this candidate. The query-token
// recheck before the write guarantees results from a superseded query never
// land in the current list.
func (r *Ranker) enrich(ctx context.Context, tok uint64, index int, completionToken string, delay time.Duration) {
	if delay > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}

	coord, err := r.provider.Resolve(ctx, completionToken)
	var distance, eta *float64
	if err == nil {
		if pos, ok := r.position(); ok {
			route, rerr := r.provider.Route(ctx, pos, coord)
			if rerr == nil {
				d := route.GetTotalDistanceMeters()
				t := route.GetTravelTimeSeconds()
				distance, eta = &d, &t
			} else if ctx.Err() == nil {
				r.log.Debug("candidate route lookup failed", zap.Int("index", index), zap.Error(rerr))
			}
		}
	}

	r.mu.Lock()
	if tok != r.token || index >= len(r.candidates) {
		r.mu.Unlock()
		return
	}
	c := &r.candidates[index]
	c.IsPending = false
	if err == nil {
		c.Coord = &coord
		c.DistanceMeters = distance
		c.TravelTimeSeconds = eta
	}
	snap := r.copyLocked()
	r.mu.Unlock()
	r.emit(snap)
}

func (r *Ranker) copyLocked() []datastructure.SearchCandidate {
	out := make([]datastructure.SearchCandidate, len(r.candidates))
	copy(out, r.candidates)
	return out
}

func (r *Ranker) emit(cands []datastructure.SearchCandidate) {
	if r.onUpdate != nil {
		r.onUpdate(cands)
	}
}
