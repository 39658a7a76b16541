// Package engine runs one update of the energy diagram: read entity states,
// reconcile flows, overlay carbon data, and map the result to gauge arcs,
// animation rates and labels.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/raterudder/powerflow/pkg/animation"
	"github.com/raterudder/powerflow/pkg/carbon"
	"github.com/raterudder/powerflow/pkg/flow"
	"github.com/raterudder/powerflow/pkg/format"
	"github.com/raterudder/powerflow/pkg/gauge"
	"github.com/raterudder/powerflow/pkg/log"
	"github.com/raterudder/powerflow/pkg/reader"
	"github.com/raterudder/powerflow/pkg/types"
)

// ErrNoData is returned when no usable snapshot has been received.
var ErrNoData = errors.New("no data")

// Observer is notified about every computed frame.
type Observer interface {
	ObserveFrame(duration time.Duration, diags []types.Diagnostic, err error)
}

// Input is everything one update needs.
type Input struct {
	Config     types.CardConfig
	Snapshot   types.Snapshot
	Statistics types.Statistics

	// Session is the animation state of the previous update and Elapsed the
	// in-flight marker positions (seconds) under it.
	Session animation.Session
	Elapsed map[types.Flow]float64
}

// Frame is the result of one update, consumed by the rendering layer.
// Elapsed holds where each animated marker should resume, in seconds. Visible
// lists the configured roles the diagram should draw.
type Frame struct {
	Flows       types.FlowSet          `json:"flows"`
	Carbon      *types.CarbonOverlay   `json:"carbon,omitempty"`
	Proportions types.ProportionSet    `json:"proportions"`
	Dominant    gauge.Source           `json:"dominant"`
	Rates       types.AnimationRateSet `json:"rates"`
	Elapsed     map[types.Flow]float64 `json:"elapsed"`
	Labels      map[string]string      `json:"labels"`
	Visible     map[types.Role]bool    `json:"visible"`
	Readings    types.Readings         `json:"readings"`
	Diagnostics []types.Diagnostic     `json:"diagnostics,omitempty"`
}

// Engine computes frames. It holds no per-card state and is safe for
// concurrent use.
type Engine struct {
	observer Observer
	now      func() time.Time
}

// New returns an Engine. observer may be nil.
func New(observer Observer) *Engine {
	return &Engine{
		observer: observer,
		now:      time.Now,
	}
}

// Compute runs one update and returns the frame together with the session to
// pass to the next update.
func (e *Engine) Compute(ctx context.Context, in Input) (Frame, animation.Session, error) {
	start := e.now()
	frame, session, err := e.compute(ctx, in)
	if e.observer != nil {
		e.observer.ObserveFrame(e.now().Sub(start), frame.Diagnostics, err)
	}
	return frame, session, err
}

func (e *Engine) compute(ctx context.Context, in Input) (Frame, animation.Session, error) {
	if len(in.Snapshot) == 0 {
		return Frame{}, in.Session, ErrNoData
	}
	cfg := in.Config

	var frame Frame
	var diags []types.Diagnostic

	readings, d := reader.Read(in.Snapshot, cfg.Entities)
	diags = append(diags, d...)
	frame.Readings = readings

	fs, d := flow.Reconcile(readings, flow.Options{SubtractIndividual: cfg.SubtractIndividual})
	diags = append(diags, d...)
	frame.Flows = fs

	var lowCarbonToHome float64
	var lowCarbonLine *float64
	if overlay, d, ok := carbonOverlay(cfg, in.Statistics, fs); ok {
		diags = append(diags, d...)
		frame.Carbon = &overlay
		lowCarbonToHome = overlay.LowCarbonToHome
		lowCarbonLine = &lowCarbonToHome
	}

	frame.Proportions, d = gauge.ArcLengths(fs, lowCarbonToHome, cfg.CircleCircumference)
	diags = append(diags, d...)
	frame.Dominant = gauge.Dominant(frame.Proportions)

	frame.Rates, d = animation.Rates(fs, lowCarbonLine, animation.ConfigFromCard(cfg))
	diags = append(diags, d...)

	session, elapsed := in.Session.Advance(frame.Rates, in.Elapsed)
	frame.Elapsed = elapsed

	frame.Labels = labels(fs, frame.Carbon, format.OptionsFromCard(cfg))
	frame.Visible = visible(readings, frame.Carbon, cfg.Entities)
	frame.Diagnostics = diags

	for _, diag := range diags {
		log.Ctx(ctx).DebugContext(
			ctx,
			"frame diagnostic",
			slog.String("kind", string(diag.Kind)),
			slog.String("entityID", diag.EntityID),
			slog.String("message", diag.Message),
		)
	}
	return frame, session, nil
}

// StatisticIDs returns the entity ids whose statistics the carbon overlay
// needs, or ok false when the card has no fossil fuel entity. Only a split
// grid import meter is used, a single signed grid entity carries both
// directions and cannot be summed into an import total.
func StatisticIDs(cfg types.CardConfig) (gridImport, fossil string, ok bool) {
	if !cfg.Entities.Grid.Configured() || !cfg.Entities.FossilFuelPercentage.Configured() {
		return "", "", false
	}
	if cfg.Entities.Grid.Entity != "" {
		return "", "", false
	}
	gridImport = cfg.Entities.Grid.Consumption
	fossil = cfg.Entities.FossilFuelPercentage.Entity
	if fossil == "" {
		fossil = cfg.Entities.FossilFuelPercentage.Consumption
	}
	return gridImport, fossil, gridImport != "" && fossil != ""
}

// carbonOverlay splits the current grid-to-home flow by the low-carbon share
// of the grid import over the statistics period.
func carbonOverlay(cfg types.CardConfig, stats types.Statistics, fs types.FlowSet) (types.CarbonOverlay, []types.Diagnostic, bool) {
	gridID, fossilID, ok := StatisticIDs(cfg)
	if !ok {
		return types.CarbonOverlay{}, nil, false
	}
	fossil, periodImport, ok := carbon.FossilEnergy(stats[gridID], stats[fossilID])
	if !ok {
		return types.CarbonOverlay{}, nil, false
	}
	overlay, diags := carbon.Compute(fossil, periodImport, fs.GridToHome)
	return overlay, diags, true
}

// visible decides for each present role whether it is drawn. A role with no
// energy is hidden unless its DisplayZero is set.
func visible(r types.Readings, overlay *types.CarbonOverlay, entities types.Entities) map[types.Role]bool {
	v := make(map[types.Role]bool)
	set := func(role types.Role, present bool, magnitude float64) {
		if !present {
			return
		}
		rc := entities.Role(role)
		v[role] = magnitude > 0 || (rc != nil && rc.DisplayZero)
	}
	set(types.RoleGrid, r.HasGrid, r.FromGrid+r.ToGrid)
	set(types.RoleSolar, r.HasSolar, r.SolarProduction)
	set(types.RoleBattery, r.HasBattery, r.BatteryIn+r.BatteryOut)
	set(types.RoleIndividual1, r.HasIndividual1, r.Individual1)
	set(types.RoleIndividual2, r.HasIndividual2, r.Individual2)
	var lowCarbon float64
	if overlay != nil {
		lowCarbon = overlay.LowCarbonEnergy
	}
	set(types.RoleFossil, r.HasFossil && overlay != nil, lowCarbon)
	return v
}

func labels(fs types.FlowSet, overlay *types.CarbonOverlay, o format.Options) map[string]string {
	l := map[string]string{
		"home": format.Energy(fs.HomeConsumption, o),
	}
	if fs.HasGrid {
		l["gridFrom"] = format.Energy(fs.Totals.FromGrid, o)
		l["gridTo"] = format.Energy(fs.Totals.ToGrid, o)
	}
	if fs.HasSolar {
		l["solar"] = format.Energy(fs.Totals.SolarProduction, o)
	}
	if fs.HasBattery {
		l["batteryIn"] = format.Energy(fs.Totals.BatteryIn, o)
		l["batteryOut"] = format.Energy(fs.Totals.BatteryOut, o)
	}
	if fs.HasIndividual1 {
		l["individual1"] = format.Energy(fs.Individual1, o)
	}
	if fs.HasIndividual2 {
		l["individual2"] = format.Energy(fs.Individual2, o)
	}
	if overlay != nil {
		l["lowCarbon"] = format.Energy(overlay.LowCarbonEnergy, o)
		l["lowCarbonPercentage"] = format.Percentage(overlay.LowCarbonPercentage)
	}
	return l
}
