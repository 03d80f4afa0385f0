package models

import "strings"

// Lane identifies how much of a lane a reservation occupies.
type Lane string

const (
	LaneHalf Lane = "half"
	LaneFull Lane = "full"
)

// laneAliases maps free-text labels seen in booking forms to canonical lanes.
// The form has shipped in both Norwegian and English over time.
var laneAliases = map[string]Lane{
	"half":      LaneHalf,
	"half lane": LaneHalf,
	"halv":      LaneHalf,
	"halv bane": LaneHalf,
	"halvbane":  LaneHalf,
	"full":      LaneFull,
	"full lane": LaneFull,
	"hel":       LaneFull,
	"hel bane":  LaneFull,
	"helbane":   LaneFull,
}

// NormalizeLane lower-cases and trims raw and maps known aliases to the
// canonical lane. Unrecognized input passes through unchanged; callers that
// need a known lane must check Known themselves.
func NormalizeLane(raw string) Lane {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	if lane, ok := laneAliases[cleaned]; ok {
		return lane
	}
	return Lane(cleaned)
}

// Known reports whether the lane is one of the canonical values.
func (l Lane) Known() bool {
	return l == LaneHalf || l == LaneFull
}

// Units returns the capacity cost of the lane: a full lane takes both units,
// everything else takes one.
func (l Lane) Units() int {
	if l == LaneFull {
		return 2
	}
	return 1
}

// LaneUnits is a convenience for call sites holding a raw label.
func LaneUnits(raw string) int {
	return NormalizeLane(raw).Units()
}
