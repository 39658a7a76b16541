package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/raterudder/powerflow/pkg/log"
	"github.com/raterudder/powerflow/pkg/storage"
	"github.com/raterudder/powerflow/pkg/types"
)

func (s *Server) getCardConfigWithMigration(ctx context.Context, cardID string) (types.CardConfig, error) {
	cfg, version, err := s.storage.GetCardConfig(ctx, cardID)
	if err != nil {
		return types.CardConfig{}, err
	}

	if version < types.CurrentCardConfigVersion {
		log.Ctx(ctx).InfoContext(ctx, "migrating card config", slog.Int("oldVersion", version), slog.Int("newVersion", types.CurrentCardConfigVersion))
		migrated, changed, err := types.MigrateCardConfig(cfg, version)
		if err != nil {
			// best effort, keep using the stored config
			log.Ctx(ctx).ErrorContext(ctx, "failed to migrate card config", slog.Int("currentVersion", version), slog.Any("error", err))
			return cfg, nil
		}
		cfg = migrated
		// a card that was never stored only gets defaults, there is nothing to save
		if changed && version > 0 {
			if err := s.storage.SetCardConfig(ctx, cardID, cfg, types.CurrentCardConfigVersion); err != nil {
				// the migrated config still serves this request
				log.Ctx(ctx).ErrorContext(ctx, "failed to save migrated card config", slog.Any("error", err))
			} else {
				log.Ctx(ctx).InfoContext(ctx, "saved migrated card config", slog.Int("oldVersion", version), slog.Int("newVersion", types.CurrentCardConfigVersion))
			}
		}
	}
	return cfg, nil
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cardID := r.URL.Query().Get("cardID")
	if cardID == "" {
		writeJSONError(w, "cardID required", http.StatusBadRequest)
		return
	}
	cfg, err := s.getCardConfigWithMigration(ctx, cardID)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidCardID) {
			writeJSONError(w, "invalid cardID", http.StatusBadRequest)
			return
		}
		log.Ctx(ctx).ErrorContext(ctx, "failed to get card config", slog.Any("error", err))
		writeJSONError(w, "failed to get config", http.StatusInternalServerError)
		return
	}
	writeJSON(w, cfg)
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cardID := r.URL.Query().Get("cardID")
	if cardID == "" {
		writeJSONError(w, "cardID required", http.StatusBadRequest)
		return
	}

	// Limit body size to 1MB
	r.Body = http.MaxBytesReader(w, r.Body, 1048576)
	var cfg types.CardConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to decode card config", slog.Any("error", err))
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := cfg.Validate(); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.storage.SetCardConfig(ctx, cardID, cfg, types.CurrentCardConfigVersion); err != nil {
		if errors.Is(err, storage.ErrInvalidCardID) {
			writeJSONError(w, "invalid cardID", http.StatusBadRequest)
			return
		}
		log.Ctx(ctx).ErrorContext(ctx, "failed to save card config", slog.Any("error", err))
		writeJSONError(w, "failed to save config", http.StatusInternalServerError)
		return
	}
	// new entities or rates invalidate the animation state
	s.sessions.reset(cardID)

	email, _ := ctx.Value(emailContextKey).(string)
	log.Ctx(ctx).InfoContext(ctx, "card config updated", slog.String("email", email))
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cards, err := s.storage.ListCards(ctx)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to list cards", slog.Any("error", err))
		writeJSONError(w, "failed to list cards", http.StatusInternalServerError)
		return
	}
	if cards == nil {
		cards = []string{}
	}
	writeJSON(w, struct {
		Cards []string `json:"cards"`
	}{Cards: cards})
}
