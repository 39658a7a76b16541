// Package gauge maps home consumption sources onto arcs of the home circle.
package gauge

import (
	"math"

	"github.com/raterudder/powerflow/pkg/types"
)

// Source is a supplier of home consumption drawn on the gauge.
type Source int

const (
	SourceNone Source = iota
	SourceBattery
	SourceSolar
	SourceGrid
	SourceLowCarbon
)

// String returns the color role the presentation layer uses for the source.
func (s Source) String() string {
	switch s {
	case SourceBattery:
		return "battery"
	case SourceSolar:
		return "solar"
	case SourceGrid:
		return "grid"
	case SourceLowCarbon:
		return "non_fossil"
	default:
		return "none"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ArcLengths splits the circumference between the sources of home
// consumption. Solar, battery and low-carbon are proportional to their flow
// into the home; grid takes whatever remains so the four arcs always close
// the circle. lowCarbonToHome is the part of grid-to-home that is drawn as
// low-carbon, 0 without a carbon overlay.
func ArcLengths(fs types.FlowSet, lowCarbonToHome, circumference float64) (types.ProportionSet, []types.Diagnostic) {
	total := fs.TotalHomeConsumption
	if total <= 0 || circumference <= 0 {
		return types.ProportionSet{}, []types.Diagnostic{{
			Kind:    types.DiagnosticDivisionGuard,
			Message: "no home consumption, gauge is empty",
		}}
	}

	arc := func(v float64) float64 {
		return circumference * math.Max(v, 0) / total
	}
	p := types.ProportionSet{
		Solar:     arc(fs.SolarToHome),
		Battery:   arc(fs.BatteryToHome),
		LowCarbon: arc(math.Min(lowCarbonToHome, fs.GridToHome)),
	}
	p.Grid = math.Max(circumference-p.Solar-p.Battery-p.LowCarbon, 0)
	return p, nil
}

// Dominant returns the source with the strictly largest arc. Ties go to the
// first source in battery, solar, grid, low-carbon order. SourceNone is
// returned for an empty gauge.
func Dominant(p types.ProportionSet) Source {
	best := SourceNone
	var largest float64
	for _, c := range []struct {
		src Source
		v   float64
	}{
		{SourceBattery, p.Battery},
		{SourceSolar, p.Solar},
		{SourceGrid, p.Grid},
		{SourceLowCarbon, p.LowCarbon},
	} {
		if c.v > largest {
			best, largest = c.src, c.v
		}
	}
	return best
}
