package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	cli "github.com/urfave/cli/v2"

	"github.com/unkn0wn-root/writebehind"
)

// op is one line of a replay stream:
//
//	{"op":"set","key":"GUILD:1","ttl":"1h","record":{...}}
//	{"op":"evict","key":"GUILD:1"}
//
// A set without "key" takes it from record["key"].
type op struct {
	Op     string             `json:"op"`
	Key    string             `json:"key"`
	TTL    string             `json:"ttl"`
	Record writebehind.Record `json:"record"`
}

type replayStats struct {
	lines, sets, evicts, failed int
}

var replayCmd = &cli.Command{
	Name:  "replay",
	Usage: "apply newline-delimited JSON operations from a file or stdin",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "file",
			Usage: "read operations from this file instead of stdin",
		},
		&cli.DurationFlag{
			Name:  "ttl",
			Usage: "expiry for sets that carry none (0 = none)",
		},
		&cli.BoolFlag{
			Name:  "ordered",
			Usage: "apply only the last operation per key when sets and evictions interleave",
		},
		&cli.StringFlag{
			Name:  "sequencer",
			Usage: "where --ordered keeps per-key sequences: local or redis (shared with other producers)",
			Value: "local",
		},
		&cli.IntFlag{
			Name:  "max-queue-depth",
			Usage: "bound each queue (0 = unbounded)",
		},
		&cli.BoolFlag{
			Name:  "drop-oldest",
			Usage: "when bounded, drop the oldest entry instead of failing the line",
		},
		&cli.BoolFlag{
			Name:  "keep-going",
			Usage: "log bad lines and continue instead of stopping",
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "serve prometheus metrics on this address while replaying",
			EnvVars: []string{"WB_METRICS_LISTEN"},
		},
	},
	Action: func(cctx *cli.Context) error {
		var in io.Reader = os.Stdin
		if path := cctx.String("file"); path != "" {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}

		var seq string
		if cctx.Bool("ordered") {
			seq = cctx.String("sequencer")
		}
		env, err := setup(cctx, setupOpts{
			sequencer:     seq,
			metricsListen: cctx.String("metrics-listen"),
			maxQueueDepth: cctx.Int("max-queue-depth"),
			dropOldest:    cctx.Bool("drop-oldest"),
		})
		if err != nil {
			return err
		}
		defer env.close()

		start := time.Now()
		st, err := replay(env.cache, env.log, in, cctx.Duration("ttl"), cctx.Bool("keep-going"))
		if err != nil {
			return err
		}
		if err := env.flush(); err != nil {
			return err
		}
		env.log.Info("replay finished", writebehind.Fields{
			"lines":   st.lines,
			"sets":    st.sets,
			"evicts":  st.evicts,
			"failed":  st.failed,
			"elapsed": time.Since(start).String(),
		})
		return nil
	},
}

func replay[B any](c writebehind.Cache[B], log writebehind.Logger, in io.Reader, defTTL time.Duration, keepGoing bool) (replayStats, error) {
	var st replayStats
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 16<<20)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		st.lines++
		err := apply(c, line, defTTL, &st)
		if err == nil {
			continue
		}
		st.failed++
		if !keepGoing {
			return st, fmt.Errorf("line %d: %w", st.lines, err)
		}
		log.Warn("skipping line", writebehind.Fields{"line": st.lines, "err": err})
	}
	return st, sc.Err()
}

func apply[B any](c writebehind.Cache[B], line []byte, defTTL time.Duration, st *replayStats) error {
	var o op
	if err := json.Unmarshal(line, &o); err != nil {
		return err
	}
	switch o.Op {
	case "set", "":
		ttl := defTTL
		if o.TTL != "" {
			d, err := time.ParseDuration(o.TTL)
			if err != nil {
				return fmt.Errorf("ttl: %w", err)
			}
			ttl = d
		}
		var err error
		if o.Key != "" {
			err = c.WriteRecord(o.Key, o.Record, ttl)
		} else {
			err = c.Write(o.Record, ttl)
		}
		if err != nil {
			return err
		}
		st.sets++
	case "evict":
		if err := c.Evict(o.Key); err != nil {
			return err
		}
		st.evicts++
	default:
		return fmt.Errorf("unknown op %q", o.Op)
	}
	return nil
}
