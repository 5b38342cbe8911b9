package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecording(t *testing.T) {
	m := New()
	m.TaskSubmitted("local", "train_lin")
	m.TaskSubmitted("local", "train_lin")
	m.TaskSettled("train_lin", "completed", 2*time.Second)
	m.TaskSkipped("average_rmsd")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Submitted.WithLabelValues("local", "train_lin")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Finished.WithLabelValues("train_lin", "completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Finished.WithLabelValues("average_rmsd", "skipped")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.TaskSubmitted("local", "k")
		m.TaskSettled("k", "failed", time.Second)
		m.TaskSkipped("k")
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.TaskSubmitted("mpi", "assess_lin")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `sweepgridgo_tasks_submitted_total{backend="mpi",kind="assess_lin"} 1`), body)
}
