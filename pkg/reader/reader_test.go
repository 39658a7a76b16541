package reader

import (
	"testing"

	"github.com/raterudder/powerflow/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func state(id, value, unit string) types.EntityState {
	return types.EntityState{
		EntityID:   id,
		State:      value,
		Attributes: types.EntityAttributes{UnitOfMeasurement: unit},
	}
}

func TestWatthours(t *testing.T) {
	snap := types.Snapshot{
		"sensor.wh":          state("sensor.wh", "250", "Wh"),
		"sensor.kwh":         state("sensor.kwh", "1.5", "kWh"),
		"sensor.kwh_lower":   state("sensor.kwh_lower", "2", "kwh"),
		"sensor.unavailable": state("sensor.unavailable", "unavailable", "kWh"),
		"sensor.negative":    state("sensor.negative", "-40", "Wh"),
	}

	tests := []struct {
		name      string
		id        string
		want      float64
		available bool
		isString  bool
		diag      types.DiagnosticKind
	}{
		{name: "Wh passthrough", id: "sensor.wh", want: 250, available: true},
		{name: "kWh to Wh", id: "sensor.kwh", want: 1500, available: true},
		{name: "kWh case insensitive", id: "sensor.kwh_lower", want: 2000, available: true},
		{name: "signed", id: "sensor.negative", want: -40, available: true},
		{name: "textual state", id: "sensor.unavailable", isString: true, diag: types.DiagnosticUnavailableState},
		{name: "absent entity", id: "sensor.nope", diag: types.DiagnosticMissingEntity},
		{name: "undefined id", id: "", diag: types.DiagnosticMissingEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reading, diag := Watthours(snap, types.RoleGrid, tt.id)
			assert.Equal(t, tt.want, reading.Magnitude)
			assert.Equal(t, tt.available, reading.Available)
			assert.Equal(t, tt.isString, reading.IsString)
			if tt.diag == "" {
				assert.Nil(t, diag)
				return
			}
			require.NotNil(t, diag)
			assert.Equal(t, tt.diag, diag.Kind)
			if tt.id != "" {
				assert.Equal(t, tt.id, diag.EntityID)
				assert.Contains(t, diag.Message, tt.id)
			}
		})
	}
}

func TestPolarity(t *testing.T) {
	assert.Equal(t, 100.0, Consumption(100, false))
	assert.Equal(t, 0.0, Consumption(-100, false))
	assert.Equal(t, 0.0, Consumption(100, true))
	assert.Equal(t, 100.0, Consumption(-100, true))

	assert.Equal(t, 0.0, Production(100, false))
	assert.Equal(t, 100.0, Production(-100, false))
	assert.Equal(t, 100.0, Production(100, true))
	assert.Equal(t, 0.0, Production(-100, true))
}

func TestRead(t *testing.T) {
	t.Run("single bidirectional entities", func(t *testing.T) {
		snap := types.Snapshot{
			"sensor.grid":    state("sensor.grid", "-0.5", "kWh"),
			"sensor.solar":   state("sensor.solar", "1200", "Wh"),
			"sensor.battery": state("sensor.battery", "300", "Wh"),
		}
		r, diags := Read(snap, types.Entities{
			Grid:    &types.RoleConfig{Entity: "sensor.grid"},
			Solar:   &types.RoleConfig{Entity: "sensor.solar"},
			Battery: &types.RoleConfig{Entity: "sensor.battery", InvertState: true},
		})
		assert.Empty(t, diags)
		assert.True(t, r.HasGrid)
		assert.True(t, r.HasSolar)
		assert.True(t, r.HasBattery)
		assert.False(t, r.HasIndividual1)
		assert.Equal(t, 0.0, r.FromGrid)
		assert.Equal(t, 500.0, r.ToGrid)
		assert.Equal(t, 1200.0, r.SolarProduction)
		// inverted: positive means charging
		assert.Equal(t, 300.0, r.BatteryIn)
		assert.Equal(t, 0.0, r.BatteryOut)
		assert.Len(t, r.Entities, 3)
	})

	t.Run("split entities", func(t *testing.T) {
		snap := types.Snapshot{
			"sensor.import":  state("sensor.import", "0.8", "kWh"),
			"sensor.export":  state("sensor.export", "100", "Wh"),
			"sensor.bat_in":  state("sensor.bat_in", "50", "Wh"),
			"sensor.bat_out": state("sensor.bat_out", "-5", "Wh"),
		}
		r, diags := Read(snap, types.Entities{
			Grid:    &types.RoleConfig{Consumption: "sensor.import", Production: "sensor.export"},
			Battery: &types.RoleConfig{Consumption: "sensor.bat_out", Production: "sensor.bat_in"},
		})
		assert.Empty(t, diags)
		assert.Equal(t, 800.0, r.FromGrid)
		assert.Equal(t, 100.0, r.ToGrid)
		assert.Equal(t, 50.0, r.BatteryIn)
		assert.Equal(t, 0.0, r.BatteryOut)
	})

	t.Run("tolerance zeroes small values", func(t *testing.T) {
		snap := types.Snapshot{
			"sensor.solar": state("sensor.solar", "5", "Wh"),
			"sensor.load":  state("sensor.load", "20", "Wh"),
		}
		r, _ := Read(snap, types.Entities{
			Solar:       &types.RoleConfig{Entity: "sensor.solar", DisplayZeroTolerance: 5},
			Individual1: &types.RoleConfig{Entity: "sensor.load", DisplayZeroTolerance: 5},
		})
		assert.Equal(t, 0.0, r.SolarProduction)
		assert.Equal(t, 20.0, r.Individual1)
	})

	t.Run("missing entities read as zero with diagnostics", func(t *testing.T) {
		snap := types.Snapshot{
			"sensor.grid": state("sensor.grid", "unknown", "Wh"),
		}
		r, diags := Read(snap, types.Entities{
			Grid:        &types.RoleConfig{Entity: "sensor.grid"},
			Individual2: &types.RoleConfig{Entity: "sensor.missing"},
		})
		assert.True(t, r.HasGrid)
		assert.True(t, r.HasIndividual2)
		assert.Equal(t, 0.0, r.FromGrid)
		assert.Equal(t, 0.0, r.Individual2)
		require.Len(t, diags, 2)
		assert.Equal(t, types.DiagnosticUnavailableState, diags[0].Kind)
		assert.Equal(t, "sensor.grid", diags[0].EntityID)
		assert.Equal(t, types.DiagnosticMissingEntity, diags[1].Kind)
		assert.Equal(t, "sensor.missing", diags[1].EntityID)
	})

	t.Run("fossil percentage is capped", func(t *testing.T) {
		snap := types.Snapshot{
			"sensor.fossil": state("sensor.fossil", "120", "%"),
		}
		r, _ := Read(snap, types.Entities{
			FossilFuelPercentage: &types.RoleConfig{Entity: "sensor.fossil"},
		})
		assert.True(t, r.HasFossil)
		assert.Equal(t, 100.0, r.FossilPercentage)
	})
}
