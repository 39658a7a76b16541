package types

// Role is one of the fixed energy participants on the diagram.
type Role string

const (
	RoleGrid        Role = "grid"
	RoleSolar       Role = "solar"
	RoleBattery     Role = "battery"
	RoleIndividual1 Role = "individual1"
	RoleIndividual2 Role = "individual2"
	RoleFossil      Role = "fossil_fuel_percentage"
)

// Flow names an animated line on the diagram.
type Flow string

const (
	FlowSolarToHome    Flow = "solarToHome"
	FlowSolarToGrid    Flow = "solarToGrid"
	FlowSolarToBattery Flow = "solarToBattery"
	FlowGridToHome     Flow = "gridToHome"
	FlowGridToBattery  Flow = "gridToBattery"
	FlowBatteryToHome  Flow = "batteryToHome"
	FlowBatteryToGrid  Flow = "batteryToGrid"
	FlowLowCarbon      Flow = "lowCarbon"
	FlowIndividual1    Flow = "individual1"
	FlowIndividual2    Flow = "individual2"
)

// Totals are the metered magnitudes the flows were derived from.
type Totals struct {
	FromGrid        float64 `json:"fromGrid"`
	ToGrid          float64 `json:"toGrid"`
	SolarProduction float64 `json:"solarProduction"`
	BatteryIn       float64 `json:"batteryIn"`
	BatteryOut      float64 `json:"batteryOut"`
}

// FlowSet is the reconciled, conservation-consistent set of directed flows.
// Every magnitude is >= 0; direction is carried by the field name.
type FlowSet struct {
	GridToHome     float64 `json:"gridToHome"`
	BatteryToHome  float64 `json:"batteryToHome"`
	SolarToHome    float64 `json:"solarToHome"`
	SolarToBattery float64 `json:"solarToBattery"`
	SolarToGrid    float64 `json:"solarToGrid"`
	BatteryToGrid  float64 `json:"batteryToGrid"`
	GridToBattery  float64 `json:"gridToBattery"`

	TotalHomeConsumption       float64 `json:"totalHomeConsumption"`
	TotalIndividualConsumption float64 `json:"totalIndividualConsumption"`
	// HomeConsumption is the value shown on the home circle. It equals
	// TotalHomeConsumption unless individual loads are subtracted.
	HomeConsumption float64 `json:"homeConsumption"`

	Individual1 float64 `json:"individual1"`
	Individual2 float64 `json:"individual2"`

	Totals Totals `json:"totals"`

	HasGrid        bool `json:"hasGrid"`
	HasSolar       bool `json:"hasSolar"`
	HasBattery     bool `json:"hasBattery"`
	HasIndividual1 bool `json:"hasIndividual1"`
	HasIndividual2 bool `json:"hasIndividual2"`
}

// Value returns the magnitude of the named flow. The low-carbon line is not
// part of the FlowSet and always returns 0 here.
func (f FlowSet) Value(flow Flow) float64 {
	switch flow {
	case FlowSolarToHome:
		return f.SolarToHome
	case FlowSolarToGrid:
		return f.SolarToGrid
	case FlowSolarToBattery:
		return f.SolarToBattery
	case FlowGridToHome:
		return f.GridToHome
	case FlowGridToBattery:
		return f.GridToBattery
	case FlowBatteryToHome:
		return f.BatteryToHome
	case FlowBatteryToGrid:
		return f.BatteryToGrid
	case FlowIndividual1:
		return f.Individual1
	case FlowIndividual2:
		return f.Individual2
	default:
		return 0
	}
}

// CarbonOverlay is the low-carbon share of grid energy.
type CarbonOverlay struct {
	FossilEnergy          float64 `json:"fossilEnergy"`
	HighCarbonConsumption float64 `json:"highCarbonConsumption"`
	LowCarbonEnergy       float64 `json:"lowCarbonEnergy"`
	LowCarbonPercentage   float64 `json:"lowCarbonPercentage"`
	// LowCarbonToHome is the part of grid-to-home energy drawn as the
	// low-carbon arc.
	LowCarbonToHome float64 `json:"lowCarbonToHome"`
}

// ProportionSet holds arc lengths on the home gauge, stacked in draw order
// solar, battery, low-carbon, grid.
type ProportionSet struct {
	Solar     float64 `json:"solar"`
	Battery   float64 `json:"battery"`
	LowCarbon float64 `json:"lowCarbon"`
	Grid      float64 `json:"grid"`
}

// Rate is the animation timing for one line.
type Rate struct {
	// Seconds for one traversal of the line.
	Seconds float64 `json:"seconds"`
	// Animated is false for zero flows; no marker is drawn.
	Animated bool `json:"animated"`
	// ShowLine reports whether the path itself is drawn.
	ShowLine bool `json:"showLine"`
}

// AnimationRateSet is one Rate per line on the diagram.
type AnimationRateSet map[Flow]Rate

// DiagnosticKind classifies a non-fatal problem found during an update.
type DiagnosticKind string

const (
	DiagnosticMissingEntity      DiagnosticKind = "missing_entity"
	DiagnosticUnavailableState   DiagnosticKind = "unavailable_state"
	DiagnosticDivisionGuard      DiagnosticKind = "division_guard"
	DiagnosticInconsistentExport DiagnosticKind = "inconsistent_export"
	DiagnosticClampedFlow        DiagnosticKind = "clamped_flow"
)

// Diagnostic reports a problem that was handled by substituting a safe value.
type Diagnostic struct {
	Kind     DiagnosticKind `json:"kind"`
	EntityID string         `json:"entityID,omitempty"`
	Message  string         `json:"message"`
}
