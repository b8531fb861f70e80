package domain

import "math"

// Direction of a proposed trade. The system is long-only.
type Direction string

// Direction constants.
const (
	DirectionLong Direction = "long"
	DirectionNone Direction = "none"
)

// Signal is an entry candidate attached to a specific bar timestamp.
type Signal struct {
	Direction Direction
	Entry     float64
	Stop      float64
	Target    float64
}

// Valid reports whether the signal is a usable long entry: direction long
// and no missing price fields. Malformed signals are skipped, not fatal.
func (s *Signal) Valid() bool {
	if s == nil || s.Direction != DirectionLong {
		return false
	}
	return !math.IsNaN(s.Entry) && !math.IsNaN(s.Stop) && !math.IsNaN(s.Target)
}
