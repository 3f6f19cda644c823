package main

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/writebehind"
	"github.com/unkn0wn-root/writebehind/genstore"
	wbristretto "github.com/unkn0wn-root/writebehind/provider/ristretto"
)

func newReplayCache(t *testing.T, ordered bool) (writebehind.Cache[struct{}], *wbristretto.Provider) {
	t.Helper()
	p, err := wbristretto.New(wbristretto.Config{NumCounters: 1000, MaxCost: 1 << 20, BufferItems: 64})
	require.NoError(t, err)

	opts := writebehind.Options[struct{}]{Provider: p}
	if ordered {
		opts.Sequencer = genstore.NewLocalGenStore(0, 0)
	}
	c, err := writebehind.New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c, p
}

func runAndDrain(t *testing.T, c writebehind.Cache[struct{}], p *wbristretto.Provider) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = c.Run(ctx)
	}()
	dctx, dcancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer dcancel()
	require.NoError(t, c.Drain(dctx))
	p.Wait()
	cancel()
	<-done
}

const stream = `{"op":"set","key":"GUILD:1","ttl":"1h","record":{"name":"a"}}
{"record":{"key":"ROLE:2","name":"mod"}}

{"op":"evict","key":"GUILD:1"}
{"op":"set","key":"GUILD:3","record":{"name":"c"}}
`

func TestReplayOrdered(t *testing.T) {
	c, p := newReplayCache(t, true)
	st, err := replay(c, writebehind.NopLogger{}, strings.NewReader(stream), 0, false)
	require.NoError(t, err)
	require.Equal(t, replayStats{lines: 4, sets: 3, evicts: 1}, st)

	runAndDrain(t, c, p)

	ctx := context.Background()
	_, ok, err := c.GetRecord(ctx, "GUILD:1")
	require.NoError(t, err)
	require.False(t, ok, "evict after set must win when ordered")

	rec, ok, err := c.GetRecord(ctx, "ROLE:2")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, writebehind.Record{"name": "mod"}, rec)

	_, ok, _ = c.GetRecord(ctx, "GUILD:3")
	require.True(t, ok)
}

func TestReplayStopsOnBadLine(t *testing.T) {
	c, _ := newReplayCache(t, false)
	in := "{\"op\":\"set\",\"key\":\"A:1\",\"record\":{}}\nnot json\n{\"op\":\"evict\",\"key\":\"A:1\"}\n"

	st, err := replay(c, writebehind.NopLogger{}, strings.NewReader(in), 0, false)
	require.ErrorContains(t, err, "line 2")
	require.Equal(t, 1, st.sets)
	require.Equal(t, 1, st.failed)
	require.Zero(t, st.evicts)
}

func TestReplayKeepGoing(t *testing.T) {
	c, _ := newReplayCache(t, false)
	in := strings.Join([]string{
		`{"op":"set","key":"A:1","record":{}}`,
		`{"op":"frobnicate","key":"A:1"}`,
		`{"op":"set","record":{"name":"no key"}}`,
		`{"op":"set","key":"A:2","ttl":"soon","record":{}}`,
		`{"op":"evict","key":"A:1"}`,
	}, "\n")

	st, err := replay(c, writebehind.NopLogger{}, strings.NewReader(in), time.Minute, true)
	require.NoError(t, err)
	require.Equal(t, replayStats{lines: 5, sets: 1, evicts: 1, failed: 3}, st)
}

func TestApplyMissingKey(t *testing.T) {
	c, _ := newReplayCache(t, false)
	var st replayStats
	err := apply(c, []byte(`{"record":{"name":"x"}}`), 0, &st)
	require.True(t, errors.Is(err, writebehind.ErrMissingKey))
}

func TestNewCodec(t *testing.T) {
	for _, name := range []string{"json", "msgpack", "cbor", "protobuf"} {
		c, err := newCodec(name, 0)
		require.NoError(t, err, name)
		b, err := c.Encode(writebehind.Record{"name": "a"})
		require.NoError(t, err, name)
		rec, err := c.Decode(b)
		require.NoError(t, err, name)
		require.Equal(t, "a", rec["name"], name)
	}

	c, err := newCodec("json", 4)
	require.NoError(t, err)
	_, err = c.Decode([]byte(`{"name":"too long"}`))
	require.Error(t, err)

	_, err = newCodec("xml", 0)
	require.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	for _, backend := range []string{"zap", "logrus", "slog"} {
		l, flush, err := newLogger(backend, "warn")
		require.NoError(t, err, backend)
		l.Debug("quiet", nil)
		flush()
	}
	_, _, err := newLogger("zap", "loud")
	require.Error(t, err)
	_, _, err = newLogger("log4j", "info")
	require.Error(t, err)
}

type notRunning struct {
	writebehind.NopHooks
	mu sync.Mutex
	n  int
}

func (h *notRunning) ConsumerNotRunning(string) {
	h.mu.Lock()
	h.n++
	h.mu.Unlock()
}

func TestStartConsumersWaitsUntilRunning(t *testing.T) {
	p, err := wbristretto.New(wbristretto.Config{NumCounters: 1000, MaxCost: 1 << 20, BufferItems: 64})
	require.NoError(t, err)
	hooks := &notRunning{}
	c, err := writebehind.New(writebehind.Options[struct{}]{Provider: p, Hooks: hooks})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(context.Background()) })

	cancel, done, err := startConsumers(c)
	require.NoError(t, err)
	w, ev := c.Running()
	require.True(t, w)
	require.True(t, ev)

	require.NoError(t, c.WriteRecord("GUILD:1", writebehind.Record{"name": "a"}, 0))
	require.NoError(t, c.Evict("GUILD:2"))
	hooks.mu.Lock()
	require.Zero(t, hooks.n)
	hooks.mu.Unlock()

	cancel()
	<-done
	w, ev = c.Running()
	require.False(t, w)
	require.False(t, ev)
}
