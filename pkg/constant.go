package pkg

import "time"

const (
	// StepAdvanceRadiusMeters is the proximity radius around a step's maneuver
	// point. Crossing it fires the final reminder and advances to the next step.
	StepAdvanceRadiusMeters = 30.0

	// OffRouteThresholdMeters is how far the live position may drift from the
	// route polyline before a reroute is requested.
	OffRouteThresholdMeters = 40.0

	// RerouteCooldown debounces reroute requests. GPS jitter near intersections
	// must not trigger a reroute storm.
	RerouteCooldown = 10 * time.Second

	// SearchDebounce is the quiescence window applied to destination keystrokes
	// before a completion lookup is issued.
	SearchDebounce = 300 * time.Millisecond

	// EnrichStagger spaces candidate enrichment lookups to respect upstream
	// provider rate limits. Candidate i fires at i*EnrichStagger.
	EnrichStagger = 200 * time.Millisecond

	// MaxEnrichedCandidates caps how many completions get distance/ETA lookups.
	MaxEnrichedCandidates = 5

	// AnnounceFeetCutoffMeters: at or below this distance (300 ft) the spoken
	// instruction is prefixed with a feet distance instead of miles/kilometers.
	AnnounceFeetCutoffMeters = 91.44
)

const (
	MetersPerMile = 1609.344
	FeetPerMeter  = 3.28084
)
