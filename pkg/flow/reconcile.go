// Package flow derives a conservation-consistent set of directed energy flows
// from independently metered grid, solar and battery readings.
//
// Meters disagree (lag, rounding, missing channels), so every intermediate
// that could go negative is clamped with an explicit policy and reported as a
// diagnostic instead of producing a negative flow.
package flow

import (
	"fmt"
	"math"

	"github.com/raterudder/powerflow/pkg/types"
)

// epsilon is the slack, in Wh, below which a clamp is not reported.
const epsilon = 1e-6

// Options changes how the home total is presented.
type Options struct {
	// SubtractIndividual removes individual loads from the home value.
	SubtractIndividual bool
}

// Reconcile turns per-role readings into a FlowSet. It is pure and
// deterministic; absent roles yield zero for every flow that involves them.
func Reconcile(r types.Readings, opts Options) (types.FlowSet, []types.Diagnostic) {
	var diags []types.Diagnostic
	clamp := func(name string, got, want float64) float64 {
		if math.Abs(got-want) > epsilon {
			diags = append(diags, types.Diagnostic{
				Kind:    types.DiagnosticClampedFlow,
				Message: fmt.Sprintf("%s adjusted from %.3f to %.3f Wh", name, got, want),
			})
		}
		return want
	}

	// 1-3. metered totals, zero for absent roles
	var fromGrid, toGrid, solar, batteryIn, batteryOut float64
	if r.HasGrid {
		fromGrid = math.Max(r.FromGrid, 0)
		toGrid = math.Max(r.ToGrid, 0)
	}
	if r.HasSolar {
		solar = math.Max(r.SolarProduction, 0)
	}
	if r.HasBattery {
		batteryIn = math.Max(r.BatteryIn, 0)
		batteryOut = math.Max(r.BatteryOut, 0)
	}

	// 4. what solar produced that was neither exported nor stored went to
	// the home. A negative result means export plus charge exceeded
	// production: the battery was filled from the grid, or exported to it.
	var solarConsumption, batteryFromGrid, batteryToGrid float64
	var batteryToGridSet bool
	if r.HasSolar {
		solarConsumption = solar - toGrid - batteryIn
		if solarConsumption < 0 {
			if r.HasBattery {
				batteryFromGrid = -solarConsumption
				if batteryFromGrid > fromGrid {
					batteryToGrid = batteryFromGrid - fromGrid
					batteryToGridSet = true
					batteryFromGrid = fromGrid
				}
			}
			solarConsumption = 0
		}
	}

	// 5. battery flows
	var solarToBattery float64
	switch {
	case r.HasSolar && r.HasBattery:
		if !batteryToGridSet {
			batteryToGrid = math.Max(0, toGrid-solar-batteryIn-batteryFromGrid)
		}
		solarToBattery = batteryIn - batteryFromGrid
	case r.HasBattery:
		// without solar every export came from the battery and every charge
		// from the grid
		batteryToGrid = toGrid
		batteryFromGrid = math.Min(batteryIn, fromGrid)
	}

	// 6. export that did not come from the battery came from solar
	var solarToGrid float64
	if r.HasSolar && toGrid != 0 {
		solarToGrid = toGrid - batteryToGrid
	}

	// Solar production splits exactly into home, battery and grid. The steps
	// above satisfy this whenever the meters agree; when they do not, solar
	// to battery is bounded by what solar had left, the rest of production
	// goes to the grid, and any export beyond that is the battery's.
	if r.HasSolar {
		stb := math.Min(math.Max(solarToBattery, 0), solar-solarConsumption)
		solarToBattery = clamp("solarToBattery", solarToBattery, stb)

		stg := solar - solarConsumption - solarToBattery
		if toGrid-stg > epsilon && !r.HasBattery {
			diags = append(diags, types.Diagnostic{
				Kind:    types.DiagnosticInconsistentExport,
				Message: fmt.Sprintf("grid export %.3f Wh exceeds solar production %.3f Wh with no battery", toGrid, solar),
			})
			solarToGrid = stg
		} else {
			solarToGrid = clamp("solarToGrid", solarToGrid, stg)
		}

		if r.HasBattery {
			batteryToGrid = clamp("batteryToGrid", batteryToGrid, math.Max(0, toGrid-solarToGrid))
			batteryFromGrid = clamp("gridToBattery", batteryFromGrid, math.Min(batteryFromGrid, math.Max(0, batteryIn-solarToBattery)))
		}
	}

	// 7. battery to home
	batteryConsumption := batteryOut - batteryToGrid
	if batteryConsumption < 0 {
		batteryConsumption = clamp("batteryToHome", batteryConsumption, 0)
	}

	// 8. grid to home
	gridConsumption := math.Max(fromGrid-batteryFromGrid, 0)

	// 9. home total
	totalHome := math.Max(gridConsumption+solarConsumption+batteryConsumption, 0)

	fs := types.FlowSet{
		GridToHome:     gridConsumption,
		BatteryToHome:  batteryConsumption,
		SolarToHome:    solarConsumption,
		SolarToBattery: solarToBattery,
		SolarToGrid:    solarToGrid,
		BatteryToGrid:  batteryToGrid,
		GridToBattery:  batteryFromGrid,

		TotalHomeConsumption: totalHome,
		HomeConsumption:      totalHome,

		Totals: types.Totals{
			FromGrid:        fromGrid,
			ToGrid:          toGrid,
			SolarProduction: solar,
			BatteryIn:       batteryIn,
			BatteryOut:      batteryOut,
		},

		HasGrid:        r.HasGrid,
		HasSolar:       r.HasSolar,
		HasBattery:     r.HasBattery,
		HasIndividual1: r.HasIndividual1,
		HasIndividual2: r.HasIndividual2,
	}

	// 10. individual loads
	if r.HasIndividual1 {
		fs.Individual1 = math.Max(r.Individual1, 0)
	}
	if r.HasIndividual2 {
		fs.Individual2 = math.Max(r.Individual2, 0)
	}
	fs.TotalIndividualConsumption = fs.Individual1 + fs.Individual2
	if opts.SubtractIndividual {
		fs.HomeConsumption = math.Max(totalHome-fs.TotalIndividualConsumption, 0)
	}

	return fs, diags
}
