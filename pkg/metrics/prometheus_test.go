package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/raterudder/powerflow/pkg/engine"
	"github.com/raterudder/powerflow/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	r := New()

	r.ObserveFrame(time.Millisecond, []types.Diagnostic{
		{Kind: types.DiagnosticMissingEntity},
		{Kind: types.DiagnosticMissingEntity},
		{Kind: types.DiagnosticClampedFlow},
	}, nil)
	r.ObserveFrame(0, nil, engine.ErrNoData)
	r.ObserveFrame(0, nil, errors.New("boom"))
	r.RecordSourceError("states")

	assert.Equal(t, 1.0, testutil.ToFloat64(r.framesTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.framesTotal.WithLabelValues("no_data")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.framesTotal.WithLabelValues("error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.diagnosticsTotal.WithLabelValues("missing_entity")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.diagnosticsTotal.WithLabelValues("clamped_flow")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.sourceErrors.WithLabelValues("states")))

	t.Run("handler", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
		body, err := io.ReadAll(rec.Result().Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), `powerflow_frames_total{result="ok"} 1`)
		assert.Contains(t, string(body), "powerflow_frame_duration_seconds_count 3")
		assert.Contains(t, string(body), "go_goroutines")
	})

	t.Run("independent registries", func(t *testing.T) {
		other := New()
		assert.Equal(t, 0.0, testutil.ToFloat64(other.framesTotal.WithLabelValues("ok")))
	})
}
