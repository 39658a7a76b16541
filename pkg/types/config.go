package types

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CurrentCardConfigVersion is the current version of the CardConfig struct.
// Increment this value when adding new fields that require default values.
const CurrentCardConfigVersion = 3

// Energy date selections understood by the statistics period lookup.
const (
	DateSelectionToday     = "today"
	DateSelectionYesterday = "yesterday"
	DateSelectionThisWeek  = "this_week"
	DateSelectionThisMonth = "this_month"
	DateSelectionThisYear  = "this_year"
)

// RoleConfig configures one role. A role either uses a single (possibly
// bidirectional) Entity, or separate Consumption and Production entities.
type RoleConfig struct {
	Entity      string `json:"entity,omitempty"`
	Consumption string `json:"consumption,omitempty"`
	Production  string `json:"production,omitempty"`

	// InvertState treats negative readings of a single entity as the
	// positive direction.
	InvertState bool `json:"invert_state,omitempty"`
	// DisplayZero keeps the role on the diagram when its value is zero.
	DisplayZero bool `json:"display_zero,omitempty"`
	// DisplayZeroTolerance zeroes magnitudes at or below this value (Wh).
	DisplayZeroTolerance float64 `json:"display_zero_tolerance,omitempty" validate:"gte=0"`
}

// Configured returns true if the role has any entity set.
func (r *RoleConfig) Configured() bool {
	return r != nil && (r.Entity != "" || r.Consumption != "" || r.Production != "")
}

// Split returns true if the role uses separate consumption and production
// entities.
func (r *RoleConfig) Split() bool {
	return r != nil && r.Entity == "" && (r.Consumption != "" || r.Production != "")
}

// Entities holds the configuration of every role. Roles are fixed fields
// rather than a map so that a typo in a role name cannot go unnoticed.
type Entities struct {
	Grid                 *RoleConfig `json:"grid,omitempty"`
	Solar                *RoleConfig `json:"solar,omitempty"`
	Battery              *RoleConfig `json:"battery,omitempty"`
	Individual1          *RoleConfig `json:"individual1,omitempty"`
	Individual2          *RoleConfig `json:"individual2,omitempty"`
	FossilFuelPercentage *RoleConfig `json:"fossil_fuel_percentage,omitempty"`
}

// Role returns the configuration for the given role or nil.
func (e Entities) Role(r Role) *RoleConfig {
	switch r {
	case RoleGrid:
		return e.Grid
	case RoleSolar:
		return e.Solar
	case RoleBattery:
		return e.Battery
	case RoleIndividual1:
		return e.Individual1
	case RoleIndividual2:
		return e.Individual2
	case RoleFossil:
		return e.FossilFuelPercentage
	default:
		return nil
	}
}

// CardConfig is the stored configuration of one diagram.
type CardConfig struct {
	Entities Entities `json:"entities"`

	// Animation
	MinFlowRate         float64 `json:"min_flow_rate" validate:"gte=0"`
	MaxFlowRate         float64 `json:"max_flow_rate" validate:"gtefield=MinFlowRate"`
	UseNewFlowRateModel bool    `json:"use_new_flow_rate_model"`
	MinExpectedEnergy   float64 `json:"min_expected_energy" validate:"gte=0"`
	MaxExpectedEnergy   float64 `json:"max_expected_energy" validate:"gtefield=MinExpectedEnergy"`
	DisplayZeroLines    bool    `json:"display_zero_lines"`

	// Display
	WhDecimals          int     `json:"wh_decimals" validate:"gte=0,lte=6"`
	KWhDecimals         int     `json:"kwh_decimals" validate:"gte=0,lte=6"`
	WhKWhThreshold      float64 `json:"wh_kwh_threshold" validate:"gte=0"`
	CircleCircumference float64 `json:"circle_circumference" validate:"gte=0"`

	// SubtractIndividual removes individual loads from the home total.
	SubtractIndividual bool `json:"subtract_individual"`

	// EnergyDateSelection is the period used for historical statistics.
	EnergyDateSelection string `json:"energy_date_selection" validate:"omitempty,oneof=today yesterday this_week this_month this_year"`
}

// MigrateCardConfig migrates the config to the current version.
// It returns the migrated config, a boolean indicating if changes were made,
// and an error if migration failed.
func MigrateCardConfig(c CardConfig, currentVersion int) (CardConfig, bool, error) {
	if currentVersion >= CurrentCardConfigVersion {
		return c, false, nil
	}

	migrated := false
	for version := currentVersion + 1; version <= CurrentCardConfigVersion; version++ {
		switch version {
		case 1:
			// version 1: animation bounds
			if c.MinFlowRate == 0 {
				c.MinFlowRate = 0.75
				migrated = true
			}
			if c.MaxFlowRate == 0 {
				c.MaxFlowRate = 6
				migrated = true
			}
			if c.CircleCircumference == 0 {
				// 2 * pi * 38, the radius of the home circle
				c.CircleCircumference = 238.76104
				migrated = true
			}
		case 2:
			// version 2: display formatting
			if c.KWhDecimals == 0 {
				c.KWhDecimals = 1
				migrated = true
			}
			if c.WhKWhThreshold == 0 {
				c.WhKWhThreshold = 1000
				migrated = true
			}
		case 3:
			// version 3: expected energy range and statistics period
			if c.MinExpectedEnergy == 0 {
				c.MinExpectedEnergy = 10
				migrated = true
			}
			if c.MaxExpectedEnergy == 0 {
				c.MaxExpectedEnergy = 2000
				migrated = true
			}
			if c.EnergyDateSelection == "" {
				c.EnergyDateSelection = DateSelectionToday
				migrated = true
			}
		default:
			return c, false, fmt.Errorf("unknown card config version: %d", version)
		}
	}

	return c, migrated, nil
}

var validate = validator.New()

// Validate checks the config for values the engine cannot work with.
func (c CardConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return err
		}
		msgs := make([]string, 0, len(validationErrors))
		for _, fe := range validationErrors {
			msgs = append(msgs, validationMessage(fe))
		}
		return fmt.Errorf("invalid card config: %s", strings.Join(msgs, "; "))
	}
	for _, r := range []Role{RoleGrid, RoleSolar, RoleBattery, RoleIndividual1, RoleIndividual2, RoleFossil} {
		rc := c.Entities.Role(r)
		if rc != nil && rc.Entity != "" && (rc.Consumption != "" || rc.Production != "") {
			return fmt.Errorf("invalid card config: %s sets both entity and consumption/production", r)
		}
	}
	return nil
}

func validationMessage(fe validator.FieldError) string {
	field := fe.Namespace()
	switch fe.Tag() {
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	case "gtefield":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s is invalid: %q", field, fe.Value())
		}
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}
