package promhooks

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := New(reg)

	h.Applied("writes", "GUILD:1")
	h.Applied("writes", "GUILD:2")
	h.Applied("evictions", "GUILD:1")
	h.QueueOverflow("writes", "A:1", true)
	h.QueueOverflow("writes", "A:2", false)
	h.StoreError("evictions", "A:1", errors.New("boom"))
	h.CorruptPayload("A:1", errors.New("bad"))
	h.ConsumerNotRunning("writes")

	require.Equal(t, 2.0, testutil.ToFloat64(h.applied.WithLabelValues("writes")))
	require.Equal(t, 1.0, testutil.ToFloat64(h.applied.WithLabelValues("evictions")))
	require.Equal(t, 1.0, testutil.ToFloat64(h.overflow.WithLabelValues("writes", "dropped_oldest")))
	require.Equal(t, 1.0, testutil.ToFloat64(h.overflow.WithLabelValues("writes", "rejected")))
	require.Equal(t, 1.0, testutil.ToFloat64(h.storeErr.WithLabelValues("evictions")))
	require.Equal(t, 1.0, testutil.ToFloat64(h.corrupt))
	require.Equal(t, 1.0, testutil.ToFloat64(h.notRunning.WithLabelValues("writes")))

	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	require.Equal(t, 8, n) // unlabeled counters always export a series
}
