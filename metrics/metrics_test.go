package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gocombust/fvm"
)

func TestCollector(t *testing.T) {
	c := NewCollector("test")
	{ // Counters
		c.OuterIteration()
		c.OuterIteration()
		assert.Equal(t, 2., testutil.ToFloat64(c.outerIterations))
		c.LinearSolve(fvm.SolverPerformance{FieldName: "CH4", Converged: true})
		c.LinearSolve(fvm.SolverPerformance{FieldName: "CH4"})
		c.LinearSolve(fvm.SolverPerformance{FieldName: "p", Converged: true})
		assert.Equal(t, 2., testutil.ToFloat64(c.linearSolves.WithLabelValues("CH4")))
		assert.Equal(t, 1., testutil.ToFloat64(c.unconverged.WithLabelValues("CH4")))
		assert.Equal(t, 0., testutil.ToFloat64(c.unconverged.WithLabelValues("p")))
	}
	{ // Gauges keep the last value
		c.SpecieBounds("O2", 0.1, 0.2, 0.23)
		c.SpecieBounds("O2", 0, 0.15, 0.23)
		assert.Equal(t, 0., testutil.ToFloat64(c.speciesFraction.WithLabelValues("O2", "min")))
		assert.Equal(t, 0.15, testutil.ToFloat64(c.speciesFraction.WithLabelValues("O2", "ave")))
		c.Temperature(300, 1800)
		assert.Equal(t, 1800., testutil.ToFloat64(c.temperature.WithLabelValues("max")))
		c.Step(1.e-3, 20*time.Millisecond)
		assert.Equal(t, 1.e-3, testutil.ToFloat64(c.simulationTime))
		assert.Equal(t, 1, testutil.CollectAndCount(c.stepDuration))
	}
	{ // Exposition
		n, err := testutil.GatherAndCount(c.Registry())
		require.NoError(t, err)
		assert.Equal(t, 12, n)
		rec := httptest.NewRecorder()
		c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
		assert.Equal(t, 200, rec.Code)
		body := rec.Body.String()
		assert.True(t, strings.Contains(body, `gocombust_pimple_outer_iterations_total{run="test"} 2`))
		assert.Contains(t, body, "gocombust_step_duration_seconds_bucket")
	}
}
