package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitwalk/internal/scheduler"
)

func histogramCount(t *testing.T, r *Recorder, name string) uint64 {
	t.Helper()
	families, err := r.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			return f.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	t.Fatalf("metric %s not gathered", name)
	return 0
}

func TestRecorderRounds(t *testing.T) {
	r := NewRecorder()
	r.RoundStarted(1)
	assert.Equal(t, 1.0, testutil.ToFloat64(r.roundsInFlight))

	r.RoundFinished(scheduler.RoundResult{Seq: 1, Elapsed: 12 * time.Millisecond, Walkers: 5, Failed: 2})
	r.RoundStarted(2)
	r.RoundFinished(scheduler.RoundResult{Seq: 2, Elapsed: 8 * time.Millisecond, Walkers: 5})

	assert.Equal(t, 0.0, testutil.ToFloat64(r.roundsInFlight))
	assert.Equal(t, 8.0, testutil.ToFloat64(r.walkers.WithLabelValues("reached_root")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.walkers.WithLabelValues("failed")))
	assert.EqualValues(t, 2, histogramCount(t, r, "gitwalk_round_duration_seconds"))
}

func TestRecorderResolves(t *testing.T) {
	r := NewRecorder()
	r.ObserveResolve(time.Microsecond, nil)
	r.ObserveResolve(time.Microsecond, errors.New("corrupt"))

	assert.Equal(t, 1.0, testutil.ToFloat64(r.resolveErrors))
	assert.EqualValues(t, 2, histogramCount(t, r, "gitwalk_parent_lookup_duration_seconds"))
}

func TestWriteFile(t *testing.T) {
	r := NewRecorder()
	r.RoundStarted(1)
	r.RoundFinished(scheduler.RoundResult{Seq: 1, Elapsed: time.Millisecond, Walkers: 1})

	path := filepath.Join(t.TempDir(), "gitwalk.prom")
	require.NoError(t, r.WriteFile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "gitwalk_round_duration_seconds_count 1")
	assert.Contains(t, string(data), `gitwalk_walkers_total{outcome="reached_root"} 1`)
}
