package hass

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/raterudder/powerflow/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func historyState(id, state, unit string, at time.Time) types.EntityState {
	return types.EntityState{
		EntityID:    id,
		State:       state,
		Attributes:  types.EntityAttributes{UnitOfMeasurement: unit},
		LastChanged: at,
	}
}

func newTestServer(t *testing.T, historyCalls *int32) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/states", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode([]map[string]any{
			{
				"entity_id": "sensor.solar",
				"state":     "1.2",
				"attributes": map[string]any{
					"unit_of_measurement": "kWh",
					"friendly_name":       "Solar",
					"state_class":         "total_increasing",
				},
				"last_changed": "2026-05-01T10:00:00+00:00",
			},
			{
				"entity_id":  "sensor.grid",
				"state":      "unavailable",
				"attributes": map[string]any{},
			},
		})
	})
	mux.HandleFunc("GET /api/history/period/{start}", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(historyCalls, 1)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		assert.Equal(t, "2026-05-01T00:00:00Z", r.PathValue("start"))
		assert.Equal(t, "sensor.fossil,sensor.grid_import", r.URL.Query().Get("filter_entity_id"))
		assert.Equal(t, "2026-05-01T12:30:00Z", r.URL.Query().Get("end_time"))

		base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
		json.NewEncoder(w).Encode([][]types.EntityState{
			{
				historyState("sensor.grid_import", "1.0", "kWh", base),
				historyState("sensor.grid_import", "1.5", "kWh", base.Add(30*time.Minute)),
				historyState("sensor.grid_import", "2.0", "kWh", base.Add(90*time.Minute)),
			},
			{
				historyState("sensor.fossil", "40", "%", base),
				historyState("sensor.fossil", "60", "%", base.Add(20*time.Minute)),
			},
		})
	})
	return httptest.NewServer(mux)
}

func TestStates(t *testing.T) {
	var calls int32
	srv := newTestServer(t, &calls)
	defer srv.Close()

	snap, err := New(srv.URL+"/", "token").States(context.Background())
	require.NoError(t, err)
	require.Len(t, snap, 2)
	assert.Equal(t, "1.2", snap["sensor.solar"].State)
	assert.Equal(t, "kWh", snap["sensor.solar"].Attributes.UnitOfMeasurement)
	assert.Equal(t, "Solar", snap["sensor.solar"].Attributes.FriendlyName)
	assert.Equal(t, "unavailable", snap["sensor.grid"].State)

	t.Run("unauthorized", func(t *testing.T) {
		_, err := New(srv.URL, "wrong").States(context.Background())
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestStatistics(t *testing.T) {
	var calls int32
	srv := newTestServer(t, &calls)
	defer srv.Close()

	c := New(srv.URL, "token")
	now := time.Date(2026, 5, 1, 12, 30, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	stats, err := c.Statistics(context.Background(), []string{"sensor.grid_import", "sensor.fossil"}, start, now)
	require.NoError(t, err)

	grid := stats["sensor.grid_import"]
	require.Len(t, grid, 2)
	assert.InDelta(t, 500.0, grid[0].Sum, 1e-9)
	assert.InDelta(t, 500.0, grid[1].Sum, 1e-9)

	fossil := stats["sensor.fossil"]
	require.Len(t, fossil, 1)
	assert.InDelta(t, 50.0, fossil[0].Mean, 1e-9)

	t.Run("cached", func(t *testing.T) {
		_, err := c.Statistics(context.Background(), []string{"sensor.fossil", "sensor.grid_import"}, start, now)
		require.NoError(t, err)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("cache expires", func(t *testing.T) {
		c.now = func() time.Time { return now.Add(statisticsCacheDuration) }
		_, err := c.Statistics(context.Background(), []string{"sensor.fossil", "sensor.grid_import"}, start, now)
		require.NoError(t, err)
		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	})

	t.Run("no entities", func(t *testing.T) {
		stats, err := c.Statistics(context.Background(), nil, start, now)
		require.NoError(t, err)
		assert.Empty(t, stats)
	})
}

func TestHourly(t *testing.T) {
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	t.Run("cumulative Wh with reset", func(t *testing.T) {
		points := Hourly([]types.EntityState{
			historyState("sensor.e", "100", "Wh", base),
			historyState("sensor.e", "unknown", "Wh", base.Add(10*time.Minute)),
			historyState("sensor.e", "250", "Wh", base.Add(20*time.Minute)),
			historyState("sensor.e", "30", "Wh", base.Add(70*time.Minute)),
			historyState("sensor.e", "80", "Wh", base.Add(80*time.Minute)),
		})
		require.Len(t, points, 2)
		assert.Equal(t, base, points[0].Start)
		assert.Equal(t, 150.0, points[0].Sum)
		assert.Equal(t, base.Add(time.Hour), points[1].Start)
		// reset to 30, then +50
		assert.Equal(t, 80.0, points[1].Sum)
	})

	t.Run("unordered samples", func(t *testing.T) {
		points := Hourly([]types.EntityState{
			historyState("sensor.e", "3", "kWh", base.Add(30*time.Minute)),
			historyState("sensor.e", "2", "kWh", base),
		})
		require.Len(t, points, 1)
		assert.Equal(t, 1000.0, points[0].Sum)
	})

	t.Run("percentage mean", func(t *testing.T) {
		points := Hourly([]types.EntityState{
			historyState("sensor.p", "10", "%", base),
			historyState("sensor.p", "20", "%", base.Add(10*time.Minute)),
			historyState("sensor.p", "60", "%", base.Add(20*time.Minute)),
			historyState("sensor.p", "80", "%", base.Add(65*time.Minute)),
		})
		require.Len(t, points, 2)
		assert.InDelta(t, 30.0, points[0].Mean, 1e-9)
		assert.InDelta(t, 80.0, points[1].Mean, 1e-9)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, Hourly(nil))
	})
}

func TestPeriod(t *testing.T) {
	// a wednesday
	now := time.Date(2026, 5, 13, 15, 4, 5, 0, time.UTC)

	tests := []struct {
		selection string
		start     time.Time
		end       time.Time
	}{
		{"", time.Date(2026, 5, 13, 0, 0, 0, 0, time.UTC), now},
		{types.DateSelectionToday, time.Date(2026, 5, 13, 0, 0, 0, 0, time.UTC), now},
		{types.DateSelectionYesterday, time.Date(2026, 5, 12, 0, 0, 0, 0, time.UTC), time.Date(2026, 5, 13, 0, 0, 0, 0, time.UTC)},
		{types.DateSelectionThisWeek, time.Date(2026, 5, 11, 0, 0, 0, 0, time.UTC), now},
		{types.DateSelectionThisMonth, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), now},
		{types.DateSelectionThisYear, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), now},
	}
	for _, tt := range tests {
		t.Run(tt.selection, func(t *testing.T) {
			start, end, err := Period(tt.selection, now)
			require.NoError(t, err)
			assert.Equal(t, tt.start, start)
			assert.Equal(t, tt.end, end)
		})
	}

	t.Run("sunday belongs to the previous week", func(t *testing.T) {
		start, _, err := Period(types.DateSelectionThisWeek, time.Date(2026, 5, 17, 9, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 5, 11, 0, 0, 0, 0, time.UTC), start)
	})

	t.Run("unknown", func(t *testing.T) {
		_, _, err := Period("last_decade", now)
		assert.Error(t, err)
	})
}
