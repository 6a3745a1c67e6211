package main

import (
	"flag"
	"log"
	"net/url"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/flock"
	"go.uber.org/zap"
)

func main() {
	configFile := flag.String("config", "", "JSON configuration file (built-in defaults when empty)")
	schemaFile := flag.String("schema", "config.schema.json", "JSON schema used to validate -config")
	params := flag.String("params", "", `query-string overrides, e.g. "population=500&gravity=0.2"`)
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	cfg := flock.DefaultConfig()
	if *configFile != "" {
		cfg, err = flock.LoadConfig(*configFile, *schemaFile)
		if err != nil {
			sugar.Fatalw("loading configuration", "file", *configFile, "err", err)
		}
	}
	if *params != "" {
		values, err := url.ParseQuery(*params)
		if err != nil {
			sugar.Fatalw("parsing -params", "err", err)
		}
		if err := cfg.ApplyQuery(values); err != nil {
			sugar.Fatalw("applying -params", "err", err)
		}
		if err := cfg.Validate(); err != nil {
			sugar.Fatalw("invalid configuration after -params", "err", err)
		}
	}

	world, err := flock.NewWorld(cfg, nil, sugar)
	if err != nil {
		sugar.Fatalw("creating world", "err", err)
	}

	ebiten.SetWindowSize(int(cfg.World.Width), int(cfg.World.Height))
	ebiten.SetWindowTitle("Flock Simulation")
	if err := ebiten.RunGame(flock.NewGame(world)); err != nil {
		sugar.Fatalw("game loop", "err", err)
	}
}
