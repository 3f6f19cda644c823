// Package promhooks exports writebehind events as Prometheus counters.
package promhooks

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/unkn0wn-root/writebehind"
)

type Hooks struct {
	notRunning *prometheus.CounterVec
	duplicate  *prometheus.CounterVec
	overflow   *prometheus.CounterVec
	applied    *prometheus.CounterVec
	storeErr   *prometheus.CounterVec
	rejected   prometheus.Counter
	superseded *prometheus.CounterVec
	corrupt    prometheus.Counter
}

var _ writebehind.Hooks = (*Hooks)(nil)

// New registers the counters with reg (prometheus.DefaultRegisterer when nil).
// Registering twice on the same registerer panics.
func New(reg prometheus.Registerer) *Hooks {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Hooks{
		notRunning: f.NewCounterVec(prometheus.CounterOpts{
			Name: "writebehind_consumer_not_running_total",
			Help: "Entries enqueued while no consumer was draining the queue",
		}, []string{"queue"}),
		duplicate: f.NewCounterVec(prometheus.CounterOpts{
			Name: "writebehind_consumer_duplicate_total",
			Help: "Consumers started while another was already running",
		}, []string{"queue"}),
		overflow: f.NewCounterVec(prometheus.CounterOpts{
			Name: "writebehind_queue_overflow_total",
			Help: "Bounded queue overflows, by outcome",
		}, []string{"queue", "outcome"}),
		applied: f.NewCounterVec(prometheus.CounterOpts{
			Name: "writebehind_applied_total",
			Help: "Store operations acknowledged",
		}, []string{"queue"}),
		storeErr: f.NewCounterVec(prometheus.CounterOpts{
			Name: "writebehind_store_errors_total",
			Help: "Store operations that failed and were dropped",
		}, []string{"queue"}),
		rejected: f.NewCounter(prometheus.CounterOpts{
			Name: "writebehind_store_rejected_total",
			Help: "SETs the store declined under pressure",
		}),
		superseded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "writebehind_superseded_total",
			Help: "Entries skipped because a later operation for the key was enqueued",
		}, []string{"queue"}),
		corrupt: f.NewCounter(prometheus.CounterOpts{
			Name: "writebehind_corrupt_payloads_total",
			Help: "Stored values that failed to decode on read",
		}),
	}
}

func (h *Hooks) ConsumerNotRunning(q string) { h.notRunning.WithLabelValues(q).Inc() }
func (h *Hooks) ConsumerDuplicate(q string)  { h.duplicate.WithLabelValues(q).Inc() }

func (h *Hooks) QueueOverflow(q, _ string, dropped bool) {
	outcome := "rejected"
	if dropped {
		outcome = "dropped_oldest"
	}
	h.overflow.WithLabelValues(q, outcome).Inc()
}

func (h *Hooks) Applied(q, _ string)             { h.applied.WithLabelValues(q).Inc() }
func (h *Hooks) StoreError(q, _ string, _ error) { h.storeErr.WithLabelValues(q).Inc() }
func (h *Hooks) StoreRejected(string)            { h.rejected.Inc() }
func (h *Hooks) Superseded(q, _ string)          { h.superseded.WithLabelValues(q).Inc() }
func (h *Hooks) CorruptPayload(string, error)    { h.corrupt.Inc() }
