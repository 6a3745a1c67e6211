package main

import (
	"flag"
	"log"
	"net/url"
	"time"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/flock"
	"go.uber.org/zap"
)

// flockbench runs the engine without a renderer and reports tick throughput.
func main() {
	ticks := flag.Int("ticks", 1000, "number of ticks to run")
	population := flag.Int("population", 0, "override population (0 keeps the configured value)")
	params := flag.String("params", "", `query-string overrides, e.g. "bucketSize=50&useSpatialIndex=false"`)
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	cfg := flock.DefaultConfig()
	if *params != "" {
		values, err := url.ParseQuery(*params)
		if err != nil {
			sugar.Fatalw("parsing -params", "err", err)
		}
		if err := cfg.ApplyQuery(values); err != nil {
			sugar.Fatalw("applying -params", "err", err)
		}
	}
	if *population > 0 {
		cfg.World.Population = *population
	}
	if err := cfg.Validate(); err != nil {
		sugar.Fatalw("invalid configuration", "err", err)
	}

	world, err := flock.NewWorld(cfg, nil, sugar)
	if err != nil {
		sugar.Fatalw("creating world", "err", err)
	}

	start := time.Now()
	lastLog := start
	ticksSinceLog := 0

	for i := 0; i < *ticks; i++ {
		world.Tick(nil)
		ticksSinceLog++

		if time.Since(lastLog) >= time.Second {
			sugar.Infow("tick rate",
				"ticksPerSec", ticksSinceLog,
				"done", i+1,
				"of", *ticks,
			)
			lastLog = time.Now()
			ticksSinceLog = 0
		}
	}

	elapsed := time.Since(start)
	sugar.Infow("bench complete",
		"ticks", *ticks,
		"population", len(world.Agents),
		"elapsed", elapsed,
		"msPerTick", float64(elapsed.Microseconds())/float64(*ticks)/1000.0,
	)
}
