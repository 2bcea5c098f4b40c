//go:build ebiten

package main

import (
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"

	"blight/internal/app"
	"blight/internal/core"
	"blight/internal/session"

	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	viewCfg := app.NewConfig()
	viewCfg.Bind(flag.CommandLine)
	simCfg := session.DefaultConfig()
	simCfg.Bind(flag.CommandLine)
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	simCfg.Params.StepDt = 1 / float64(max(viewCfg.SimTPS, 1))

	factory, ok := core.Sims()[viewCfg.Sim]
	if !ok {
		log.Fatalf("unknown sim %q", viewCfg.Sim)
	}
	sim := factory(simCfg.Map())
	if c, ok := sim.(core.Closer); ok {
		defer c.Close()
	}
	sess, ok := sim.(*session.Session)
	if !ok {
		log.Fatalf("sim %q has no structure layer to view", sim.Name())
	}

	game := app.New(sess, *viewCfg, logger)
	size := sess.Size()

	ebiten.SetWindowTitle("blight")
	ebiten.SetTPS(viewCfg.TPS)
	ebiten.SetWindowSize(size.W*viewCfg.Scale+viewCfg.HUDWidth, size.H*viewCfg.Scale)

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Fatal(err)
	}
}
