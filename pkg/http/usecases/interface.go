package usecases

import (
	"github.com/tylerkaska112/tripnav/pkg/datastructure"
	"github.com/tylerkaska112/tripnav/pkg/engine"
	"github.com/tylerkaska112/tripnav/pkg/geo"
)

// NavigationEngine is the engine surface the service layer depends on.
type NavigationEngine interface {
	SetQuery(text string)
	Candidates() []datastructure.SearchCandidate
	SelectCandidate(c datastructure.SearchCandidate)
	StartNavigation(dest geo.Coordinate, label string)
	OnPosition(pos geo.Coordinate, currentSpeedMph float64)
	EndNavigation()
	MoveToStep(index int)
	SetMuted(muted bool)
	Snapshot() datastructure.NavigationSnapshot
	Subscribe() (<-chan engine.Event, func())
}
