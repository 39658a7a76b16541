package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/raterudder/powerflow/pkg/animation"
	"github.com/raterudder/powerflow/pkg/engine"
	"github.com/raterudder/powerflow/pkg/hass"
	"github.com/raterudder/powerflow/pkg/log"
	"github.com/raterudder/powerflow/pkg/storage"
	"github.com/raterudder/powerflow/pkg/types"
)

const elapsedParamPrefix = "elapsed."

func (s *Server) recordSourceError(operation string) {
	if s.metrics != nil {
		s.metrics.RecordSourceError(operation)
	}
}

// parseElapsed reads marker positions from elapsed.<flow>=<seconds> query
// parameters. Unparsable values are ignored.
func parseElapsed(q url.Values) map[types.Flow]float64 {
	var elapsed map[types.Flow]float64
	for k, vs := range q {
		name, ok := strings.CutPrefix(k, elapsedParamPrefix)
		if !ok || name == "" || len(vs) == 0 {
			continue
		}
		v, err := strconv.ParseFloat(vs[0], 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if elapsed == nil {
			elapsed = make(map[types.Flow]float64)
		}
		elapsed[types.Flow(name)] = v
	}
	return elapsed
}

// statistics fetches the history the carbon overlay needs. Failures are
// logged and yield no statistics so the frame renders without the overlay.
func (s *Server) statistics(ctx context.Context, cfg types.CardConfig) types.Statistics {
	gridID, fossilID, ok := engine.StatisticIDs(cfg)
	if !ok {
		return nil
	}
	start, end, err := hass.Period(cfg.EnergyDateSelection, s.now().In(s.location))
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "invalid energy date selection", slog.Any("error", err))
		return nil
	}
	stats, err := s.source.Statistics(ctx, []string{gridID, fossilID}, start, end)
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to fetch statistics", slog.Any("error", err))
		s.recordSourceError("statistics")
		return nil
	}
	return stats
}

func (s *Server) handleGetFrame(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	cardID := q.Get("cardID")
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

	snap, err := s.source.States(ctx)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to fetch states", slog.Any("error", err))
		s.recordSourceError("states")
		writeJSONError(w, "failed to fetch states", http.StatusBadGateway)
		return
	}
	stats := s.statistics(ctx, cfg)

	cs := s.sessions.get(cardID)
	cs.mu.Lock()
	frame, session, err := s.engine.Compute(ctx, engine.Input{
		Config:     cfg,
		Snapshot:   snap,
		Statistics: stats,
		Session:    cs.session,
		Elapsed:    parseElapsed(q),
	})
	cs.session = session
	cs.mu.Unlock()

	if err != nil {
		if errors.Is(err, engine.ErrNoData) {
			writeJSONError(w, "no data", http.StatusServiceUnavailable)
			return
		}
		log.Ctx(ctx).ErrorContext(ctx, "failed to compute frame", slog.Any("error", err))
		writeJSONError(w, "failed to compute frame", http.StatusInternalServerError)
		return
	}
	writeJSON(w, frame)
}

type previewRequest struct {
	Config     types.CardConfig       `json:"config"`
	Version    int                    `json:"version"`
	Snapshot   types.Snapshot         `json:"snapshot"`
	Statistics types.Statistics       `json:"statistics"`
	Session    animation.Session      `json:"session"`
	Elapsed    map[types.Flow]float64 `json:"elapsed"`
}

type previewResponse struct {
	Frame   engine.Frame      `json:"frame"`
	Session animation.Session `json:"session"`
}

// handlePreviewFrame computes a frame from a config and snapshot supplied in
// the body. Nothing is read from or written to the server state, the caller
// carries the session between requests.
func (s *Server) handlePreviewFrame(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Limit body size to 1MB
	r.Body = http.MaxBytesReader(w, r.Body, 1048576)
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to decode preview request", slog.Any("error", err))
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	cfg, _, err := types.MigrateCardConfig(req.Config, req.Version)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := cfg.Validate(); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	frame, session, err := s.engine.Compute(ctx, engine.Input{
		Config:     cfg,
		Snapshot:   req.Snapshot,
		Statistics: req.Statistics,
		Session:    req.Session,
		Elapsed:    req.Elapsed,
	})
	if err != nil {
		if errors.Is(err, engine.ErrNoData) {
			writeJSONError(w, "no data", http.StatusServiceUnavailable)
			return
		}
		log.Ctx(ctx).ErrorContext(ctx, "failed to compute preview frame", slog.Any("error", err))
		writeJSONError(w, "failed to compute frame", http.StatusInternalServerError)
		return
	}
	writeJSON(w, previewResponse{Frame: frame, Session: session})
}
