package domain

import "time"

// EquityPoint is one point on the equity curve: account equity at a
// trade close (or the initial capital at the run start). The curve is
// strictly time-ordered.
type EquityPoint struct {
	Timestamp time.Time
	Equity    float64
}
