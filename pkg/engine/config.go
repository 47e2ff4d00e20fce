package engine

import (
	"time"

	"github.com/tylerkaska112/tripnav/pkg"
)

// Config is the per-session configuration the host reads once at session start
// and passes in. No ambient settings: everything tunable is here.
type Config struct {
	UseKilometers           bool
	SpeedThresholdMph       float64
	SearchDebounce          time.Duration
	EnrichStagger           time.Duration
	StepAdvanceRadiusMeters float64
	OffRouteThresholdMeters float64
	RerouteCooldown         time.Duration
}

func DefaultConfig() Config {
	return Config{
		UseKilometers:           false,
		SpeedThresholdMph:       75,
		SearchDebounce:          pkg.SearchDebounce,
		EnrichStagger:           pkg.EnrichStagger,
		StepAdvanceRadiusMeters: pkg.StepAdvanceRadiusMeters,
		OffRouteThresholdMeters: pkg.OffRouteThresholdMeters,
		RerouteCooldown:         pkg.RerouteCooldown,
	}
}
