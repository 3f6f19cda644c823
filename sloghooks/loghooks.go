// Package sloghooks reports writebehind events through log/slog, with
// sampling for the noisy ones and key redaction.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/writebehind"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	NotRunningEvery uint64
	AppliedEvery    uint64
	// Applied is only logged when true (it fires once per store call).
	LogApplied bool
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	notRunningCtr atomic.Uint64
	appliedCtr    atomic.Uint64
}

var _ writebehind.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) ConsumerNotRunning(queue string) {
	if h.l == nil || !sample(h.opts.NotRunningEvery, &h.notRunningCtr) {
		return
	}
	h.l.Warn("writebehind.consumer_not_running",
		"queue", queue)
}

func (h *Hooks) ConsumerDuplicate(queue string) {
	if h.l == nil {
		return
	}
	h.l.Warn("writebehind.consumer_duplicate",
		"queue", queue)
}

func (h *Hooks) QueueOverflow(queue, key string, dropped bool) {
	if h.l == nil {
		return
	}
	h.l.Warn("writebehind.queue_overflow",
		"queue", queue,
		"key", h.redact(key),
		"dropped_oldest", dropped)
}

func (h *Hooks) Applied(queue, key string) {
	if h.l == nil || !h.opts.LogApplied || !sample(h.opts.AppliedEvery, &h.appliedCtr) {
		return
	}
	h.l.Debug("writebehind.applied",
		"queue", queue,
		"key", h.redact(key))
}

func (h *Hooks) StoreError(queue, key string, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("writebehind.store_error",
		"queue", queue,
		"key", h.redact(key),
		"err", err)
}

func (h *Hooks) StoreRejected(key string) {
	if h.l == nil {
		return
	}
	h.l.Warn("writebehind.store_rejected",
		"key", h.redact(key))
}

func (h *Hooks) Superseded(queue, key string) {
	if h.l == nil {
		return
	}
	h.l.Debug("writebehind.superseded",
		"queue", queue,
		"key", h.redact(key))
}

func (h *Hooks) CorruptPayload(key string, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("writebehind.corrupt_payload",
		"key", h.redact(key),
		"err", err)
}
