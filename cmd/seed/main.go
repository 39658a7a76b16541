package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"

	"github.com/levenlabs/go-lflag"
	"github.com/raterudder/powerflow/pkg/log"
	"github.com/raterudder/powerflow/pkg/storage"
	"github.com/raterudder/powerflow/pkg/types"
)

// demoConfig is a card with every role configured, using the entity ids of a
// typical Home Assistant energy dashboard.
func demoConfig() types.CardConfig {
	return types.CardConfig{
		Entities: types.Entities{
			Grid: &types.RoleConfig{
				Consumption: "sensor.grid_energy_import",
				Production:  "sensor.grid_energy_export",
			},
			Solar: &types.RoleConfig{Entity: "sensor.solar_energy_production"},
			Battery: &types.RoleConfig{
				Consumption: "sensor.battery_energy_discharge",
				Production:  "sensor.battery_energy_charge",
			},
			Individual1:          &types.RoleConfig{Entity: "sensor.ev_charger_energy"},
			Individual2:          &types.RoleConfig{Entity: "sensor.heat_pump_energy", DisplayZero: true},
			FossilFuelPercentage: &types.RoleConfig{Entity: "sensor.grid_fossil_fuel_percentage"},
		},
		UseNewFlowRateModel: true,
		SubtractIndividual:  true,
	}
}

func main() {
	os.Setenv("FIRESTORE_EMULATOR_HOST", "127.0.0.1:8087")
	s := storage.Configured()
	cardID := lflag.String("card-id", "demo", "Card to seed")
	configFile := lflag.String("config-file", "", "JSON card config to store instead of the demo card")
	lflag.Configure()

	ctx := context.Background()
	ctx = log.WithAttrs(ctx, slog.String("cardID", *cardID))

	cfg := demoConfig()
	if *configFile != "" {
		b, err := os.ReadFile(*configFile)
		if err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to read config file", slog.Any("error", err))
			os.Exit(1)
		}
		cfg = types.CardConfig{}
		if err := json.Unmarshal(b, &cfg); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to parse config file", slog.Any("error", err))
			os.Exit(1)
		}
	}

	cfg, _, err := types.MigrateCardConfig(cfg, 0)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to migrate card config", slog.Any("error", err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "invalid card config", slog.Any("error", err))
		os.Exit(1)
	}

	log.Ctx(ctx).InfoContext(ctx, "seeding card config")
	if err := s.SetCardConfig(ctx, *cardID, cfg, types.CurrentCardConfigVersion); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to store card config", slog.Any("error", err))
		os.Exit(1)
	}
	if err := s.Close(); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to close storage", slog.Any("error", err))
	}
	log.Ctx(ctx).InfoContext(ctx, "seeded card config")
}
