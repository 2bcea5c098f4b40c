package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"blight/internal/render"
	"blight/internal/session"

	"github.com/atotto/clipboard"
)

type kvList []string

func (l *kvList) String() string {
	return strings.Join(*l, ",")
}

func (l *kvList) Set(value string) error {
	*l = append(*l, value)
	return nil
}

func main() {
	runs := flag.Int("runs", 8, "number of seeded runs")
	frames := flag.Int("frames", 120, "frames per run (one terrain generation each)")
	workers := flag.Int("workers", runtime.NumCPU(), "parallel runs")
	seed := flag.Int64("seed", 1337, "seed of the first run; later runs add their index")
	irrigators := flag.Int("irrigators", 6, "irrigators placed per run")
	pumps := flag.Int("pumps", 4, "pumps placed per run")
	dt := flag.Float64("dt", 0.5, "seconds of blight exposure per frame")
	pngPath := flag.String("png", "", "write the first run's final grid to this PNG file")
	pngScale := flag.Int("png-scale", 2, "PNG pixel scale")
	copyReport := flag.Bool("copy", false, "copy the report to the clipboard")
	var overrides kvList
	flag.Var(&overrides, "set", "session parameter override in key=value form (repeatable)")
	flag.Parse()

	values := map[string]string{}
	for _, kv := range overrides {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			log.Fatalf("override %q is not key=value", kv)
		}
		values[key] = value
	}
	cfg := session.FromMap(values)
	cfg.Seed = *seed
	cfg.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	sc := scenario{
		frames:      *frames,
		irrigators:  *irrigators,
		pumps:       *pumps,
		dt:          *dt,
		keepTexture: *pngPath != "",
	}

	start := time.Now()
	results, err := runAll(context.Background(), cfg, sc, *runs, *workers)
	if err != nil {
		log.Fatal(err)
	}
	report := formatReport(results)
	fmt.Print(report)
	fmt.Printf("elapsed %s\n", time.Since(start).Round(time.Millisecond))

	if *pngPath != "" && len(results) > 0 {
		if err := writeSnapshot(*pngPath, results[0].texture, cfg.Width, cfg.Height, *pngScale); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("wrote %s\n", *pngPath)
	}
	if *copyReport {
		if err := clipboard.WriteAll(report); err != nil {
			log.Printf("clipboard: %v", err)
		}
	}
}

func writeSnapshot(path string, cells []uint8, w, h, scale int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render.WritePNG(f, cells, w, h, scale); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
