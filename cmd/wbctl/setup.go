package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	stdslog "log/slog"
	"net/http"
	"os"
	"time"

	gglog "github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	cli "github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unkn0wn-root/writebehind"
	"github.com/unkn0wn-root/writebehind/codec"
	"github.com/unkn0wn-root/writebehind/entities"
	"github.com/unkn0wn-root/writebehind/genstore"
	asynchook "github.com/unkn0wn-root/writebehind/hooks/async"
	wbglog "github.com/unkn0wn-root/writebehind/log/glog"
	wblogrus "github.com/unkn0wn-root/writebehind/log/logrus"
	wbslog "github.com/unkn0wn-root/writebehind/log/slog"
	wbzap "github.com/unkn0wn-root/writebehind/log/zap"
	"github.com/unkn0wn-root/writebehind/promhooks"
	pr "github.com/unkn0wn-root/writebehind/provider"
	wbbigcache "github.com/unkn0wn-root/writebehind/provider/bigcache"
	wbmemcache "github.com/unkn0wn-root/writebehind/provider/memcache"
	wbredis "github.com/unkn0wn-root/writebehind/provider/redis"
	wbristretto "github.com/unkn0wn-root/writebehind/provider/ristretto"
	"github.com/unkn0wn-root/writebehind/provider/tiered"
)

const (
	flushTimeout = 30 * time.Second
	startTimeout = 5 * time.Second
)

type setupOpts struct {
	sequencer     string // "", "local" or "redis"
	metricsListen string
	maxQueueDepth int
	dropOldest    bool
}

// env is one command's cache plus everything it needs torn down.
type env struct {
	cache  writebehind.Cache[struct{}]
	log    writebehind.Logger
	cancel context.CancelFunc
	done   chan struct{}
	closer []func()
}

func setup(cctx *cli.Context, o setupOpts) (*env, error) {
	log, sync, err := newLogger(cctx.String("logger"), cctx.String("log-level"))
	if err != nil {
		return nil, err
	}
	e := &env{log: log, closer: []func(){sync}}

	store, err := newProvider(cctx.Context, cctx)
	if err != nil {
		e.close()
		return nil, fmt.Errorf("opening %s store: %w", cctx.String("store"), err)
	}
	cdc, err := newCodec(cctx.String("codec"), cctx.Int("max-value-bytes"))
	if err != nil {
		_ = store.Close(cctx.Context)
		e.close()
		return nil, err
	}

	opts := writebehind.Options[struct{}]{
		Provider:      store,
		Codec:         cdc,
		Registry:      entities.NewRegistry(),
		Logger:        log,
		MaxQueueDepth: o.maxQueueDepth,
	}
	if o.dropOldest {
		opts.Overflow = writebehind.OverflowDropOldest
	}
	switch o.sequencer {
	case "":
	case "local":
		opts.Sequencer = genstore.NewLocalGenStore(time.Minute, 10*time.Minute)
	case "redis":
		ropt, err := goredis.ParseURL(cctx.String("redis-url"))
		if err != nil {
			_ = store.Close(cctx.Context)
			e.close()
			return nil, err
		}
		opts.Sequencer = genstore.NewRedisGenStoreWithTTL(goredis.NewClient(ropt), "wbctl", 24*time.Hour).OwnClient()
	default:
		_ = store.Close(cctx.Context)
		e.close()
		return nil, fmt.Errorf("unknown sequencer %q", o.sequencer)
	}
	if o.metricsListen != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		hooks := asynchook.New(promhooks.New(reg), 1, 4096)
		opts.Hooks = hooks
		e.closer = append(e.closer, hooks.Close)

		srv := &http.Server{Addr: o.metricsListen, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics listener failed", writebehind.Fields{"addr": o.metricsListen, "err": err})
			}
		}()
		e.closer = append(e.closer, func() { _ = srv.Close() })
	}

	c, err := writebehind.New(opts)
	if err != nil {
		_ = store.Close(cctx.Context)
		e.close()
		return nil, err
	}
	e.cache = c

	e.cancel, e.done, err = startConsumers(c)
	if err != nil {
		_ = c.Close(context.Background())
		e.cache = nil
		e.close()
		return nil, err
	}
	return e, nil
}

// startConsumers runs both consumer loops and returns once both are draining,
// so the command's first produce does not trip the liveness warning.
func startConsumers(c writebehind.Cache[struct{}]) (context.CancelFunc, chan struct{}, error) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = c.Run(ctx)
	}()

	t := time.NewTicker(time.Millisecond)
	defer t.Stop()
	deadline := time.After(startTimeout)
	for {
		if w, ev := c.Running(); w && ev {
			return cancel, done, nil
		}
		select {
		case <-done:
			cancel()
			return nil, nil, errors.New("cache consumers exited during startup")
		case <-deadline:
			cancel()
			<-done
			return nil, nil, fmt.Errorf("cache consumers not running after %s", startTimeout)
		case <-t.C:
		}
	}
}

// flush waits for everything queued so far to reach the store.
func (e *env) flush() error {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := e.cache.Drain(ctx); err != nil {
		w, ev := e.cache.Pending()
		return fmt.Errorf("flushing cache (%d writes, %d evictions pending): %w", w, ev, err)
	}
	return nil
}

func (e *env) close() {
	if e.cache != nil {
		e.cancel()
		<-e.done
		ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		if err := e.cache.Close(ctx); err != nil {
			e.log.Warn("closing store", writebehind.Fields{"err": err})
		}
		cancel()
	}
	// reverse order: hooks drain before the logger syncs
	for i := len(e.closer) - 1; i >= 0; i-- {
		e.closer[i]()
	}
}

func newProvider(ctx context.Context, cctx *cli.Context) (pr.Provider, error) {
	switch kind := cctx.String("store"); kind {
	case "redis":
		return wbredis.Dial(ctx, cctx.String("redis-url"))
	case "tiered":
		opt, err := goredis.ParseURL(cctx.String("redis-url"))
		if err != nil {
			return nil, err
		}
		return tiered.New(tiered.Config{Client: goredis.NewClient(opt), CloseClient: true})
	case "memcache":
		return wbmemcache.New(wbmemcache.Config{Servers: cctx.StringSlice("memcache-addr")})
	case "bigcache":
		// in-process; only meaningful for replay dry runs
		return wbbigcache.New(ctx, wbbigcache.Config{LifeWindow: time.Hour})
	case "ristretto":
		return wbristretto.New(wbristretto.Config{NumCounters: 1e5, MaxCost: 1 << 26, BufferItems: 64})
	default:
		return nil, fmt.Errorf("unknown store %q", kind)
	}
}

func newCodec(name string, maxBytes int) (codec.Codec[writebehind.Record], error) {
	var c codec.Codec[writebehind.Record]
	switch name {
	case "json":
		c = codec.JSON[writebehind.Record]{}
	case "msgpack":
		c = codec.Msgpack[writebehind.Record]{}
	case "cbor":
		cb, err := codec.NewCBOR[writebehind.Record](false)
		if err != nil {
			return nil, err
		}
		c = cb
	case "protobuf":
		c = codec.Protobuf{}
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
	if maxBytes > 0 {
		c = codec.Limit[writebehind.Record]{Inner: c, MaxDecode: maxBytes}
	}
	return c, nil
}

// newLogger returns the adapter for backend and a func flushing it.
func newLogger(backend, level string) (writebehind.Logger, func(), error) {
	switch backend {
	case "zap":
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, nil, err
		}
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(lvl)
		l, err := cfg.Build()
		if err != nil {
			return nil, nil, err
		}
		return wbzap.New(l), func() { _ = l.Sync() }, nil
	case "logrus":
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			return nil, nil, err
		}
		l := logrus.New()
		l.SetLevel(lvl)
		l.SetFormatter(&logrus.JSONFormatter{})
		return wblogrus.LogrusLogger{E: logrus.NewEntry(l)}, func() {}, nil
	case "slog":
		var lvl stdslog.Level
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, nil, err
		}
		h := stdslog.NewTextHandler(os.Stderr, &stdslog.HandlerOptions{Level: lvl})
		return wbslog.Logger{L: stdslog.New(h)}, func() {}, nil
	case "glog":
		_ = flag.Set("logtostderr", "true")
		if level == "debug" {
			_ = flag.Set("v", "2")
		}
		return wbglog.Logger{}, gglog.Flush, nil
	default:
		return nil, nil, fmt.Errorf("unknown logger %q", backend)
	}
}
