package usecases

import (
	"github.com/tylerkaska112/tripnav/pkg/datastructure"
	"github.com/tylerkaska112/tripnav/pkg/engine"
	"github.com/tylerkaska112/tripnav/pkg/geo"
	"github.com/tylerkaska112/tripnav/pkg/util"
	"go.uber.org/zap"
)

type NavigationService struct {
	log    *zap.Logger
	engine NavigationEngine
}

func NewNavigationService(log *zap.Logger, eng NavigationEngine) *NavigationService {
	return &NavigationService{
		log:    log,
		engine: eng,
	}
}

func (ns *NavigationService) SetQuery(text string) {
	ns.engine.SetQuery(text)
}

func (ns *NavigationService) Candidates() []datastructure.SearchCandidate {
	return ns.engine.Candidates()
}

// SelectCandidate picks a suggestion by its index in the current list.
func (ns *NavigationService) SelectCandidate(index int) error {
	cands := ns.engine.Candidates()
	if index < 0 || index >= len(cands) {
		return util.WrapErrorf(nil, util.ErrBadParamInput, "candidate index %d out of range [0,%d)", index, len(cands))
	}
	ns.log.Info("candidate selected", zap.Int("index", index), zap.String("title", cands[index].Title))
	ns.engine.SelectCandidate(cands[index])
	return nil
}

func (ns *NavigationService) StartNavigation(destLat, destLon float64, label string) {
	ns.log.Info("starting navigation",
		zap.Float64("dest_lat", destLat), zap.Float64("dest_lon", destLon), zap.String("label", label))
	ns.engine.StartNavigation(geo.NewCoordinate(destLat, destLon), label)
}

func (ns *NavigationService) OnPosition(lat, lon, speedMph float64) datastructure.NavigationSnapshot {
	ns.engine.OnPosition(geo.NewCoordinate(lat, lon), speedMph)
	return ns.engine.Snapshot()
}

func (ns *NavigationService) EndNavigation() {
	ns.log.Info("navigation ended")
	ns.engine.EndNavigation()
}

func (ns *NavigationService) MoveToStep(index int) {
	ns.engine.MoveToStep(index)
}

func (ns *NavigationService) SetMuted(muted bool) {
	ns.engine.SetMuted(muted)
}

func (ns *NavigationService) Snapshot() datastructure.NavigationSnapshot {
	return ns.engine.Snapshot()
}

func (ns *NavigationService) Subscribe() (<-chan engine.Event, func()) {
	return ns.engine.Subscribe()
}
