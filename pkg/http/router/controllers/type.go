package controllers

import (
	"github.com/tylerkaska112/tripnav/pkg/datastructure"
	"github.com/tylerkaska112/tripnav/pkg/engine"
)

type NavigationService interface {
	SetQuery(text string)
	Candidates() []datastructure.SearchCandidate
	SelectCandidate(index int) error
	StartNavigation(destLat, destLon float64, label string)
	OnPosition(lat, lon, speedMph float64) datastructure.NavigationSnapshot
	EndNavigation()
	MoveToStep(index int)
	SetMuted(muted bool)
	Snapshot() datastructure.NavigationSnapshot
	Subscribe() (<-chan engine.Event, func())
}
