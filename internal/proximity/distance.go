// Package proximity scores candidates by their percentage distance from Target D
// and keeps those within the configured threshold.
package proximity

import (
	"math"

	"github.com/jonathan/setup-scanner/internal/config"
	"github.com/jonathan/setup-scanner/internal/scanerr"
)

// Distance returns 100 * |quantity - target| / |target|.
// A zero or non-finite target, a non-finite quantity, or a distance that
// overflows yields an InvalidTarget error for the candidate.
func Distance(id string, quantity, target float64) (float64, error) {
	if !isFinite(quantity) {
		return 0, scanerr.InvalidTarget(id, "quantity %v is not a finite number", quantity)
	}
	if !isFinite(target) {
		return 0, scanerr.InvalidTarget(id, "target %v is not a finite number", target)
	}
	if target == 0 {
		return 0, scanerr.InvalidTarget(id, "target is zero")
	}

	d := 100 * math.Abs(quantity-target) / math.Abs(target)
	if !isFinite(d) {
		return 0, scanerr.InvalidTarget(id, "distance between %v and %v is not finite", quantity, target)
	}
	return d, nil
}

// Within reports whether distance is inside the threshold. The bound is inclusive.
func Within(distance, threshold float64) bool {
	return distance <= threshold
}

// ValidateThreshold rejects negative or non-finite thresholds with an InvalidConfiguration error.
func ValidateThreshold(threshold float64) error {
	return config.ValidateThreshold(threshold)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
