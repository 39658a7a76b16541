package reader

import (
	"math"

	"github.com/raterudder/powerflow/pkg/types"
)

type readState struct {
	snap     types.Snapshot
	readings types.Readings
	diags    []types.Diagnostic
}

func (s *readState) read(role types.Role, entityID string) float64 {
	reading, diag := Watthours(s.snap, role, entityID)
	s.readings.Entities = append(s.readings.Entities, reading)
	if diag != nil {
		s.diags = append(s.diags, *diag)
	}
	return reading.Magnitude
}

// bidirectional returns the consumption and production magnitudes of a role
// that is either one signed entity or two unsigned entities.
func (s *readState) bidirectional(role types.Role, rc *types.RoleConfig) (float64, float64) {
	var cons, prod float64
	if rc.Split() {
		if rc.Consumption != "" {
			cons = Consumption(s.read(role, rc.Consumption), false)
		}
		if rc.Production != "" {
			prod = Consumption(s.read(role, rc.Production), false)
		}
	} else {
		v := s.read(role, rc.Entity)
		cons = Consumption(v, rc.InvertState)
		prod = Production(v, rc.InvertState)
	}
	return zeroTolerance(cons, rc.DisplayZeroTolerance), zeroTolerance(prod, rc.DisplayZeroTolerance)
}

// unidirectional reads a role that only ever flows one way.
func (s *readState) unidirectional(role types.Role, rc *types.RoleConfig, splitID string) float64 {
	id := rc.Entity
	if id == "" {
		id = splitID
	}
	return zeroTolerance(Consumption(s.read(role, id), rc.InvertState), rc.DisplayZeroTolerance)
}

// Read produces the per-role readings for one update. Missing or unavailable
// entities read as zero and are reported as diagnostics; a role counts as
// present whenever it has an entity configured.
func Read(snap types.Snapshot, e types.Entities) (types.Readings, []types.Diagnostic) {
	s := readState{snap: snap}

	if e.Grid.Configured() {
		s.readings.HasGrid = true
		s.readings.FromGrid, s.readings.ToGrid = s.bidirectional(types.RoleGrid, e.Grid)
	}
	if e.Solar.Configured() {
		s.readings.HasSolar = true
		s.readings.SolarProduction = s.unidirectional(types.RoleSolar, e.Solar, e.Solar.Production)
	}
	if e.Battery.Configured() {
		s.readings.HasBattery = true
		// battery consumption is energy the home draws from the battery
		s.readings.BatteryOut, s.readings.BatteryIn = s.bidirectional(types.RoleBattery, e.Battery)
	}
	if e.Individual1.Configured() {
		s.readings.HasIndividual1 = true
		s.readings.Individual1 = s.unidirectional(types.RoleIndividual1, e.Individual1, e.Individual1.Consumption)
	}
	if e.Individual2.Configured() {
		s.readings.HasIndividual2 = true
		s.readings.Individual2 = s.unidirectional(types.RoleIndividual2, e.Individual2, e.Individual2.Consumption)
	}
	if e.FossilFuelPercentage.Configured() {
		s.readings.HasFossil = true
		pct := s.unidirectional(types.RoleFossil, e.FossilFuelPercentage, e.FossilFuelPercentage.Consumption)
		s.readings.FossilPercentage = math.Min(pct, 100)
	}

	return s.readings, s.diags
}
