package types

import "time"

// EntityState is the current state of a single sensor as reported by the
// host platform. State is kept as the raw string so textual states such as
// "unavailable" can be told apart from numbers.
type EntityState struct {
	EntityID    string           `json:"entity_id"`
	State       string           `json:"state"`
	Attributes  EntityAttributes `json:"attributes"`
	LastChanged time.Time        `json:"last_changed,omitempty"`
}

// EntityAttributes holds the subset of entity attributes the engine reads.
type EntityAttributes struct {
	UnitOfMeasurement string `json:"unit_of_measurement,omitempty"`
	FriendlyName      string `json:"friendly_name,omitempty"`
	Icon              string `json:"icon,omitempty"`
	DeviceClass       string `json:"device_class,omitempty"`
}

// Snapshot is a full-state snapshot keyed by entity id.
type Snapshot map[string]EntityState

// EntityReading is a normalized reading in watt-hours. It is produced fresh
// every update and never mutated afterwards.
type EntityReading struct {
	ID        string  `json:"id"`
	Role      Role    `json:"role"`
	Magnitude float64 `json:"magnitude"` // Wh, signed before polarity is applied
	Available bool    `json:"available"`
	IsString  bool    `json:"isString"`
}

// StatisticPoint is an hourly aggregate for one entity. Sum is the energy
// consumed during the hour (Wh) and Mean is the average state during the hour
// (used for percentage sensors).
type StatisticPoint struct {
	Start time.Time `json:"start"`
	Sum   float64   `json:"sum"`
	Mean  float64   `json:"mean"`
}

// Statistics are hourly aggregates keyed by entity id.
type Statistics map[string][]StatisticPoint

// Readings are the per-role magnitudes the reconciler consumes, all in Wh and
// non-negative once polarity has been applied.
type Readings struct {
	HasGrid        bool `json:"hasGrid"`
	HasSolar       bool `json:"hasSolar"`
	HasBattery     bool `json:"hasBattery"`
	HasIndividual1 bool `json:"hasIndividual1"`
	HasIndividual2 bool `json:"hasIndividual2"`
	HasFossil      bool `json:"hasFossil"`

	FromGrid        float64 `json:"fromGrid"`
	ToGrid          float64 `json:"toGrid"`
	SolarProduction float64 `json:"solarProduction"`
	BatteryIn       float64 `json:"batteryIn"`
	BatteryOut      float64 `json:"batteryOut"`
	Individual1     float64 `json:"individual1"`
	Individual2     float64 `json:"individual2"`
	// FossilPercentage is the current fossil fuel share of grid energy (0-100).
	FossilPercentage float64 `json:"fossilPercentage"`

	Entities []EntityReading `json:"entities"`
}
