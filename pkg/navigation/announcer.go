package navigation

import (
	"fmt"
	"math"

	"github.com/tylerkaska112/tripnav/pkg"
)

// Announcer decides whether a spoken instruction should fire and renders its
// distance prefix. Each step's on-entry announcement fires exactly once; final
// reminders are emitted verbatim and never touch the bookkeeping, so a step can
// get at most one of each.
type Announcer struct {
	lastSpokenStepIndex int
	useKilometers       bool
}

func NewAnnouncer(useKilometers bool) *Announcer {
	return &Announcer{
		lastSpokenStepIndex: -1,
		useKilometers:       useKilometers,
	}
}

// Reset clears the bookkeeping for a new route. Called on route-ready and on
// reroute, when the step index restarts at 0.
func (a *Announcer) Reset() {
	a.lastSpokenStepIndex = -1
}

// Instruction returns the rendered announcement and whether it should be spoken.
func (a *Announcer) Instruction(stepIndex int, isFinalReminder bool,
	distanceToManeuverMeters float64, instruction string) (string, bool) {
	if isFinalReminder {
		return instruction, true
	}
	if stepIndex == a.lastSpokenStepIndex {
		return "", false
	}
	a.lastSpokenStepIndex = stepIndex
	return a.renderPrefix(distanceToManeuverMeters) + instruction, true
}

func (a *Announcer) renderPrefix(distMeters float64) string {
	if distMeters <= pkg.AnnounceFeetCutoffMeters {
		feet := math.Round(distMeters*pkg.FeetPerMeter/10) * 10
		return fmt.Sprintf("In %.0f feet, ", feet)
	}
	if a.useKilometers {
		return fmt.Sprintf("In %.1f kilometers, ", distMeters/1000.0)
	}
	return fmt.Sprintf("In %.1f miles, ", distMeters/pkg.MetersPerMile)
}
