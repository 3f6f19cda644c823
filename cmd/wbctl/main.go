package main

import (
	"encoding/json"
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/carlmjohnson/versioninfo"
	cli "github.com/urfave/cli/v2"
)

func main() {
	if err := run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	app := cli.App{
		Name:    "wbctl",
		Usage:   "inspect and feed a write-behind entity cache",
		Version: versioninfo.Short(),
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "store",
			Usage:   "backing store: redis, memcache, tiered, bigcache or ristretto",
			Value:   "redis",
			EnvVars: []string{"WB_STORE"},
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "redis connection URL (redis and tiered stores)",
			Value:   "redis://localhost:6379/0",
			EnvVars: []string{"WB_REDIS_URL", "REDIS_URL"},
		},
		&cli.StringSliceFlag{
			Name:    "memcache-addr",
			Usage:   "memcached server address; repeat for several",
			Value:   cli.NewStringSlice("localhost:11211"),
			EnvVars: []string{"WB_MEMCACHE_ADDR"},
		},
		&cli.StringFlag{
			Name:    "codec",
			Usage:   "payload codec: json, msgpack, cbor or protobuf",
			Value:   "json",
			EnvVars: []string{"WB_CODEC"},
		},
		&cli.IntFlag{
			Name:    "max-value-bytes",
			Usage:   "refuse to decode stored values larger than this (0 = no limit)",
			EnvVars: []string{"WB_MAX_VALUE_BYTES"},
		},
		&cli.StringFlag{
			Name:    "logger",
			Usage:   "log backend: zap, logrus, slog or glog",
			Value:   "zap",
			EnvVars: []string{"WB_LOGGER"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log verbosity: debug, info, warn or error",
			Value:   "info",
			EnvVars: []string{"WB_LOG_LEVEL", "LOG_LEVEL"},
		},
	}

	app.Commands = []*cli.Command{
		putCmd,
		getCmd,
		evictCmd,
		replayCmd,
	}

	return app.Run(args)
}

var putCmd = &cli.Command{
	Name:      "put",
	Usage:     "write a JSON object under a key",
	ArgsUsage: "<key> <json-object>",
	Flags: []cli.Flag{
		&cli.DurationFlag{
			Name:  "ttl",
			Usage: "expiry for the entry (0 = none)",
		},
	},
	Action: func(cctx *cli.Context) error {
		if cctx.Args().Len() != 2 {
			return cli.Exit("put takes exactly <key> and <json-object>", 2)
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(cctx.Args().Get(1)), &rec); err != nil {
			return fmt.Errorf("parsing record: %w", err)
		}

		env, err := setup(cctx, setupOpts{})
		if err != nil {
			return err
		}
		defer env.close()

		if err := env.cache.WriteRecord(cctx.Args().Get(0), rec, cctx.Duration("ttl")); err != nil {
			return err
		}
		return env.flush()
	},
}

var getCmd = &cli.Command{
	Name:      "get",
	Usage:     "print the record stored under a key",
	ArgsUsage: "<key>",
	Action: func(cctx *cli.Context) error {
		if cctx.Args().Len() != 1 {
			return cli.Exit("get takes exactly one <key>", 2)
		}
		env, err := setup(cctx, setupOpts{})
		if err != nil {
			return err
		}
		defer env.close()

		key := cctx.Args().First()
		rec, ok, err := env.cache.GetRecord(cctx.Context, key)
		if err != nil {
			return err
		}
		if !ok {
			return cli.Exit(fmt.Sprintf("%s: not found", key), 1)
		}
		b, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(b))
		return nil
	},
}

var evictCmd = &cli.Command{
	Name:      "evict",
	Usage:     "delete one or more keys",
	ArgsUsage: "<key>...",
	Action: func(cctx *cli.Context) error {
		if cctx.Args().Len() == 0 {
			return cli.Exit("evict needs at least one <key>", 2)
		}
		env, err := setup(cctx, setupOpts{})
		if err != nil {
			return err
		}
		defer env.close()

		for _, k := range cctx.Args().Slice() {
			if err := env.cache.Evict(k); err != nil {
				return err
			}
		}
		return env.flush()
	},
}
