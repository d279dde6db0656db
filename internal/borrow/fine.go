// AngelaMos | 2026
// fine.go

package borrow

import (
	"time"
)

// CalculateFine charges the per-day rate for each whole day past the due
// date, rounded down. Returning on or before the due date costs nothing.
func CalculateFine(due, returned time.Time, ratePerDay float64) float64 {
	if !returned.After(due) {
		return 0
	}

	daysLate := int(returned.Sub(due).Hours() / 24)
	return float64(daysLate) * ratePerDay
}
