// Package carbon splits grid energy into its fossil and low-carbon shares.
package carbon

import (
	"math"
	"sort"
	"time"

	"github.com/raterudder/powerflow/pkg/types"
)

// Compute derives the low-carbon overlay from the fossil energy drawn from the
// grid over the active period. periodImport is the grid import of the same
// period and gridConsumption the current grid-to-home flow, which is split by
// the period's low-carbon share.
func Compute(fossilEnergy, periodImport, gridConsumption float64) (types.CarbonOverlay, []types.Diagnostic) {
	fossilEnergy = math.Max(fossilEnergy, 0)
	gridConsumption = math.Max(gridConsumption, 0)
	o := types.CarbonOverlay{
		FossilEnergy:    fossilEnergy,
		LowCarbonEnergy: math.Max(periodImport-fossilEnergy, 0),
	}
	if periodImport <= 0 {
		o.HighCarbonConsumption = gridConsumption
		return o, []types.Diagnostic{{
			Kind:    types.DiagnosticDivisionGuard,
			Message: "no grid import in period, carbon shares are zero",
		}}
	}
	share := o.LowCarbonEnergy / periodImport
	o.LowCarbonPercentage = share * 100
	o.LowCarbonToHome = gridConsumption * share
	o.HighCarbonConsumption = gridConsumption - o.LowCarbonToHome
	return o, nil
}

// FossilEnergy sums the fossil part of each hour's grid import using the
// fossil fuel percentage of the same hour. Hours without a percentage reuse
// the last known one; hours before the first percentage are left out of both
// sums. periodImport is the grid import of the hours that were counted. ok is
// false if there is no percentage data at all, in which case the overlay
// should be skipped.
func FossilEnergy(gridImport, fossilPercentage []types.StatisticPoint) (fossil, periodImport float64, ok bool) {
	if len(gridImport) == 0 || len(fossilPercentage) == 0 {
		return 0, 0, false
	}

	pct := make([]types.StatisticPoint, len(fossilPercentage))
	copy(pct, fossilPercentage)
	sort.Slice(pct, func(i, j int) bool { return pct[i].Start.Before(pct[j].Start) })

	imports := make([]types.StatisticPoint, len(gridImport))
	copy(imports, gridImport)
	sort.Slice(imports, func(i, j int) bool { return imports[i].Start.Before(imports[j].Start) })

	j := 0
	last := math.NaN()
	for _, p := range imports {
		hour := p.Start.Truncate(time.Hour)
		for j < len(pct) && !pct[j].Start.Truncate(time.Hour).After(hour) {
			last = pct[j].Mean
			j++
		}
		if math.IsNaN(last) {
			continue
		}
		ok = true
		energy := math.Max(p.Sum, 0)
		periodImport += energy
		fossil += energy * math.Min(math.Max(last, 0), 100) / 100
	}
	return fossil, periodImport, ok
}
