// Package animation maps flow magnitudes to the time a marker takes to travel
// a line on the diagram. Larger flows travel faster.
package animation

import (
	"math"

	"github.com/raterudder/powerflow/pkg/types"
)

// Config holds the rate bounds and mode.
type Config struct {
	// MinRate and MaxRate bound the traversal time in seconds. MinRate is the
	// fastest a line ever animates.
	MinRate float64
	MaxRate float64

	// ExpectedRange selects the expected-range mode, which maps flows against
	// MinExpectedEnergy..MaxExpectedEnergy instead of the diagram total.
	ExpectedRange     bool
	MinExpectedEnergy float64
	MaxExpectedEnergy float64

	// DisplayZeroLines draws lines for zero flows.
	DisplayZeroLines bool
}

// ConfigFromCard builds a Config from the stored card configuration.
func ConfigFromCard(c types.CardConfig) Config {
	return Config{
		MinRate:           c.MinFlowRate,
		MaxRate:           c.MaxFlowRate,
		ExpectedRange:     c.UseNewFlowRateModel,
		MinExpectedEnergy: c.MinExpectedEnergy,
		MaxExpectedEnergy: c.MaxExpectedEnergy,
		DisplayZeroLines:  c.DisplayZeroLines,
	}
}

func (c Config) bounds() (float64, float64) {
	lo, hi := c.MinRate, c.MaxRate
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo, hi
}

// RatioRate returns the traversal time for value against the total of all
// flows on the diagram. A zero total yields the slowest rate.
func RatioRate(value, total float64, c Config) (float64, *types.Diagnostic) {
	lo, hi := c.bounds()
	if total <= 0 {
		return hi, &types.Diagnostic{
			Kind:    types.DiagnosticDivisionGuard,
			Message: "no flow on diagram, using slowest rate",
		}
	}
	frac := math.Min(math.Max(value/total, 0), 1)
	return clamp(hi-frac*(hi-lo), lo, hi), nil
}

// ExpectedRangeRate maps value linearly from the expected energy range onto
// the rate bounds, saturating outside the range.
func ExpectedRangeRate(value float64, c Config) float64 {
	lo, hi := c.bounds()
	inMin, inMax := c.MinExpectedEnergy, c.MaxExpectedEnergy
	if inMax <= inMin {
		if value > inMin {
			return lo
		}
		return hi
	}
	v := math.Min(math.Max(value, inMin), inMax)
	return clamp(linearMap(v, inMin, inMax, hi, lo), lo, hi)
}

func linearMap(v, inMin, inMax, outMin, outMax float64) float64 {
	return (v-inMin)*(outMax-outMin)/(inMax-inMin) + outMin
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// Rate returns the traversal time for value in the configured mode.
func Rate(value, total float64, c Config) (float64, *types.Diagnostic) {
	if c.ExpectedRange {
		return ExpectedRangeRate(value, c), nil
	}
	return RatioRate(value, total, c)
}

// Rates computes the timing of every line present on the diagram.
// lowCarbon is the low-carbon grid-to-home flow, or nil when there is no
// carbon overlay.
func Rates(fs types.FlowSet, lowCarbon *float64, c Config) (types.AnimationRateSet, []types.Diagnostic) {
	type line struct {
		flow  types.Flow
		value float64
		total float64
	}

	total := fs.GridToHome + fs.SolarToHome + fs.SolarToGrid + fs.SolarToBattery +
		fs.BatteryToHome + fs.GridToBattery + fs.BatteryToGrid
	indiv := fs.TotalIndividualConsumption

	var lines []line
	if fs.HasSolar {
		lines = append(lines, line{types.FlowSolarToHome, fs.SolarToHome, total})
		if fs.HasGrid {
			lines = append(lines, line{types.FlowSolarToGrid, fs.SolarToGrid, total})
		}
		if fs.HasBattery {
			lines = append(lines, line{types.FlowSolarToBattery, fs.SolarToBattery, total})
		}
	}
	if fs.HasGrid {
		lines = append(lines, line{types.FlowGridToHome, fs.GridToHome, total})
		if fs.HasBattery {
			lines = append(lines,
				line{types.FlowGridToBattery, fs.GridToBattery, total},
				line{types.FlowBatteryToGrid, fs.BatteryToGrid, total},
			)
		}
		if lowCarbon != nil {
			lines = append(lines, line{types.FlowLowCarbon, *lowCarbon, total})
		}
	}
	if fs.HasBattery {
		lines = append(lines, line{types.FlowBatteryToHome, fs.BatteryToHome, total})
	}
	if fs.HasIndividual1 {
		lines = append(lines, line{types.FlowIndividual1, fs.Individual1, indiv})
	}
	if fs.HasIndividual2 {
		lines = append(lines, line{types.FlowIndividual2, fs.Individual2, indiv})
	}

	rates := make(types.AnimationRateSet, len(lines))
	var diags []types.Diagnostic
	for _, l := range lines {
		seconds, diag := Rate(l.value, l.total, c)
		if diag != nil && len(diags) == 0 {
			diags = append(diags, *diag)
		}
		rates[l.flow] = types.Rate{
			Seconds:  seconds,
			Animated: l.value > 0,
			ShowLine: l.value > 0 || c.DisplayZeroLines,
		}
	}
	return rates, diags
}
