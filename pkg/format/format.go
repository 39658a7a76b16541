// Package format renders energy values for display labels.
package format

import (
	"math"

	"github.com/raterudder/powerflow/pkg/types"
	"github.com/shopspring/decimal"
)

// Options controls how energy values are rendered.
type Options struct {
	WhDecimals  int
	KWhDecimals int
	// WhKWhThreshold is the value in Wh at and above which kWh is used.
	WhKWhThreshold float64
}

// OptionsFromCard builds Options from the stored card configuration.
func OptionsFromCard(c types.CardConfig) Options {
	return Options{
		WhDecimals:     c.WhDecimals,
		KWhDecimals:    c.KWhDecimals,
		WhKWhThreshold: c.WhKWhThreshold,
	}
}

// Energy formats a Wh value as "<n> Wh" or "<n> kWh". Rounding is half away
// from zero.
func Energy(wh float64, o Options) string {
	if math.IsNaN(wh) || math.IsInf(wh, 0) {
		wh = 0
	}
	if o.WhKWhThreshold > 0 && math.Abs(wh) >= o.WhKWhThreshold {
		return fixed(decimal.NewFromFloat(wh).Shift(-3), o.KWhDecimals) + " kWh"
	}
	return fixed(decimal.NewFromFloat(wh), o.WhDecimals) + " Wh"
}

// Percentage formats a 0-100 value with no decimals.
func Percentage(pct float64) string {
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		pct = 0
	}
	return fixed(decimal.NewFromFloat(pct), 0) + "%"
}

func fixed(d decimal.Decimal, places int) string {
	if places < 0 {
		places = 0
	}
	s := d.StringFixed(int32(places))
	// no "-0"
	if d.Round(int32(places)).IsZero() && s[0] == '-' {
		s = s[1:]
	}
	return s
}
