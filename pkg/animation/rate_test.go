package animation

import (
	"math/rand"
	"testing"

	"github.com/raterudder/powerflow/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testConfig = Config{
	MinRate:           0.75,
	MaxRate:           6,
	MinExpectedEnergy: 10,
	MaxExpectedEnergy: 2000,
}

func TestRatioRate(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		total float64
		want  float64
	}{
		{name: "zero flow is slowest", value: 0, total: 1000, want: 6},
		{name: "quarter", value: 250, total: 1000, want: 4.6875},
		{name: "whole is fastest", value: 1000, total: 1000, want: 0.75},
		{name: "above total saturates", value: 3000, total: 1000, want: 0.75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, diag := RatioRate(tt.value, tt.total, testConfig)
			assert.Nil(t, diag)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	t.Run("zero total", func(t *testing.T) {
		got, diag := RatioRate(0, 0, testConfig)
		assert.Equal(t, 6.0, got)
		require.NotNil(t, diag)
		assert.Equal(t, types.DiagnosticDivisionGuard, diag.Kind)
	})
}

func TestExpectedRangeRate(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  float64
	}{
		{name: "below range", value: 0, want: 6},
		{name: "at minimum", value: 10, want: 6},
		{name: "midpoint", value: 1005, want: 3.375},
		{name: "at maximum", value: 2000, want: 0.75},
		{name: "above range saturates", value: 50000, want: 0.75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ExpectedRangeRate(tt.value, testConfig), 1e-9)
		})
	}

	t.Run("degenerate range", func(t *testing.T) {
		c := testConfig
		c.MinExpectedEnergy, c.MaxExpectedEnergy = 100, 100
		assert.Equal(t, 0.75, ExpectedRangeRate(150, c))
		assert.Equal(t, 6.0, ExpectedRangeRate(50, c))
	})

	t.Run("independent of total", func(t *testing.T) {
		c := testConfig
		c.ExpectedRange = true
		a, _ := Rate(500, 600, c)
		b, _ := Rate(500, 60000, c)
		assert.Equal(t, a, b)
	})
}

func TestRateBounds(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	for i := 0; i < 2000; i++ {
		c := testConfig
		c.ExpectedRange = i%2 == 0
		value := rnd.Float64() * 10000
		total := rnd.Float64() * 5000
		got, _ := Rate(value, total, c)
		require.GreaterOrEqual(t, got, c.MinRate)
		require.LessOrEqual(t, got, c.MaxRate)
	}
}

func TestRates(t *testing.T) {
	fs := types.FlowSet{
		SolarToHome:                600,
		SolarToGrid:                200,
		GridToHome:                 200,
		Individual1:                100,
		TotalIndividualConsumption: 100,
		HasGrid:                    true,
		HasSolar:                   true,
		HasIndividual1:             true,
	}

	t.Run("present roles only", func(t *testing.T) {
		rates, diags := Rates(fs, nil, testConfig)
		assert.Empty(t, diags)
		assert.Len(t, rates, 4)
		assert.Contains(t, rates, types.FlowSolarToHome)
		assert.Contains(t, rates, types.FlowSolarToGrid)
		assert.Contains(t, rates, types.FlowGridToHome)
		assert.Contains(t, rates, types.FlowIndividual1)
		assert.NotContains(t, rates, types.FlowBatteryToHome)
		assert.NotContains(t, rates, types.FlowLowCarbon)

		// 600 of 1000
		assert.InDelta(t, 2.85, rates[types.FlowSolarToHome].Seconds, 1e-9)
		// the only individual load is the whole individual total
		assert.InDelta(t, 0.75, rates[types.FlowIndividual1].Seconds, 1e-9)
		assert.True(t, rates[types.FlowGridToHome].Animated)
	})

	t.Run("low carbon line", func(t *testing.T) {
		low := 150.0
		rates, _ := Rates(fs, &low, testConfig)
		require.Contains(t, rates, types.FlowLowCarbon)
		assert.True(t, rates[types.FlowLowCarbon].Animated)
	})

	t.Run("zero flows", func(t *testing.T) {
		zero := fs
		zero.SolarToGrid = 0
		rates, _ := Rates(zero, nil, testConfig)
		assert.False(t, rates[types.FlowSolarToGrid].Animated)
		assert.False(t, rates[types.FlowSolarToGrid].ShowLine)

		c := testConfig
		c.DisplayZeroLines = true
		rates, _ = Rates(zero, nil, c)
		assert.False(t, rates[types.FlowSolarToGrid].Animated)
		assert.True(t, rates[types.FlowSolarToGrid].ShowLine)
	})

	t.Run("empty diagram", func(t *testing.T) {
		rates, diags := Rates(types.FlowSet{HasGrid: true}, nil, testConfig)
		require.Len(t, diags, 1)
		assert.Equal(t, types.DiagnosticDivisionGuard, diags[0].Kind)
		assert.Equal(t, 6.0, rates[types.FlowGridToHome].Seconds)
	})
}

func TestConfigFromCard(t *testing.T) {
	c := ConfigFromCard(types.CardConfig{
		MinFlowRate:         1,
		MaxFlowRate:         5,
		UseNewFlowRateModel: true,
		MinExpectedEnergy:   20,
		MaxExpectedEnergy:   400,
		DisplayZeroLines:    true,
	})
	assert.Equal(t, Config{
		MinRate:           1,
		MaxRate:           5,
		ExpectedRange:     true,
		MinExpectedEnergy: 20,
		MaxExpectedEnergy: 400,
		DisplayZeroLines:  true,
	}, c)
}
