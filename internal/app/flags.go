package app

import (
	"flag"

	"blight/internal/session"
)

// Config represents the viewer's command-line parameters.
type Config struct {
	// Sim names the registered simulation the viewer opens.
	Sim      string
	Scale    int
	TPS      int
	SimTPS   int
	HUDWidth int
	// Reach is how far, in world units, a right click looks for a
	// structure to demolish.
	Reach float64
}

// NewConfig returns a Config populated with sensible defaults.
func NewConfig() *Config {
	return &Config{Sim: session.Name, Scale: 3, TPS: 60, SimTPS: 30, HUDWidth: 240, Reach: 3}
}

// Bind attaches the configuration to the provided FlagSet.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.StringVar(&c.Sim, "sim", c.Sim, "registered simulation to open")
	fs.IntVar(&c.Scale, "scale", c.Scale, "pixel scale multiplier")
	fs.IntVar(&c.TPS, "tps", c.TPS, "window updates per second")
	fs.IntVar(&c.SimTPS, "sim-tps", c.SimTPS, "session ticks per second")
	fs.IntVar(&c.HUDWidth, "hud", c.HUDWidth, "HUD panel width in pixels (0 hides it)")
	fs.Float64Var(&c.Reach, "reach", c.Reach, "right-click demolish reach in world units")
}
