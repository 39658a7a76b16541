// Package reader normalizes raw entity states into watt-hour magnitudes per
// role.
package reader

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/raterudder/powerflow/pkg/types"
)

// Watthours returns the entity's current state in Wh. Units starting with
// "kWh" (any case) are multiplied by 1000. A missing id, an absent entity or a
// non-numeric state reads as 0 together with a diagnostic naming the entity.
func Watthours(snap types.Snapshot, role types.Role, entityID string) (types.EntityReading, *types.Diagnostic) {
	reading := types.EntityReading{ID: entityID, Role: role}
	if entityID == "" {
		return reading, &types.Diagnostic{
			Kind:    types.DiagnosticMissingEntity,
			Message: fmt.Sprintf("no entity configured for %s", role),
		}
	}
	state, ok := snap[entityID]
	if !ok {
		return reading, &types.Diagnostic{
			Kind:     types.DiagnosticMissingEntity,
			EntityID: entityID,
			Message:  fmt.Sprintf("entity %s is unavailable or misconfigured", entityID),
		}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(state.State), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		reading.IsString = true
		return reading, &types.Diagnostic{
			Kind:     types.DiagnosticUnavailableState,
			EntityID: entityID,
			Message:  fmt.Sprintf("entity %s has non-numeric state %q", entityID, state.State),
		}
	}
	if strings.HasPrefix(strings.ToLower(state.Attributes.UnitOfMeasurement), "kwh") {
		v *= 1000
	}
	reading.Magnitude = v
	reading.Available = true
	return reading, nil
}

// Consumption returns the positive part of a bidirectional reading. When
// inverted, negative readings count as consumption instead.
func Consumption(v float64, inverted bool) float64 {
	if inverted {
		return math.Abs(math.Min(v, 0))
	}
	return math.Max(v, 0)
}

// Production is the mirror of Consumption.
func Production(v float64, inverted bool) float64 {
	return Consumption(v, !inverted)
}

// zeroTolerance zeroes v when it is at or below tolerance.
func zeroTolerance(v, tolerance float64) float64 {
	if v <= tolerance {
		return 0
	}
	return v
}
